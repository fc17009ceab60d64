package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mcp-gateway/internal/cache"
	"mcp-gateway/internal/config"
	"mcp-gateway/internal/logger"
	"mcp-gateway/internal/registry"
)

func fullConfig() *config.Config {
	return &config.Config{
		Vault:       config.CollaboratorConfig{URL: "http://vault:8200", Token: "t"},
		ArgoCD:      config.CollaboratorConfig{URL: "http://argocd:8080", Token: "t"},
		Artifactory: config.CollaboratorConfig{URL: "http://artifactory:8081", Token: "t"},
		Entra:       config.EntraConfig{URL: "http://graph:80", TenantID: "tenant", Token: "t"},
		Kubernetes:  config.KubernetesConfig{APIServer: "http://kube:6443", Token: "t", Enabled: true},
	}
}

func TestRegisterAllCapabilities(t *testing.T) {
	log, err := logger.NewDefault()
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	reg := registry.New(log)

	if err := registerAllCapabilities(reg, fullConfig(), cache.New(), log); err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	tools, resources, templates, prompts := reg.Counts()
	if tools == 0 || resources == 0 || templates == 0 || prompts == 0 {
		t.Fatalf("expected every capability kind registered, got tools=%d resources=%d templates=%d prompts=%d",
			tools, resources, templates, prompts)
	}

	// The blanket grant sees everything.
	if got := len(reg.AuthorizedTools([]string{permAdmin})); got != tools {
		t.Errorf("expected admin to see all %d tools, got %d", tools, got)
	}

	// A read-only Vault caller sees the read tool but no mutation.
	names := map[string]bool{}
	for _, def := range reg.AuthorizedTools([]string{permVaultRead}) {
		names[def.Name()] = true
	}
	if !names["read-secret"] {
		t.Error("expected vault:read to see read-secret")
	}
	if names["write-secret"] {
		t.Error("vault:read must not see write-secret")
	}
	if names["sync-application"] {
		t.Error("vault:read must not see sync-application")
	}
}

func TestDisabledCollaboratorsSkipped(t *testing.T) {
	log, err := logger.NewDefault()
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	reg := registry.New(log)

	cfg := &config.Config{} // nothing configured
	if err := registerAllCapabilities(reg, cfg, cache.New(), log); err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	tools, resources, templates, prompts := reg.Counts()
	if tools != 0 || resources != 0 || templates != 0 {
		t.Errorf("expected no collaborator capabilities, got tools=%d resources=%d templates=%d",
			tools, resources, templates)
	}
	// Prompts are self-contained and always present.
	if prompts == 0 {
		t.Error("expected prompts registered regardless of collaborators")
	}
}

func TestFilterByPrefix(t *testing.T) {
	values := []string{"database", "redis", "redis-replica"}

	tests := []struct {
		name    string
		partial string
		want    int
	}{
		{"empty partial returns all", "", 3},
		{"prefix narrows", "redis", 2},
		{"exact match", "database", 1},
		{"no match", "zzz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filterByPrefix(values, tt.partial); len(got) != tt.want {
				t.Errorf("expected %d values, got %v", tt.want, got)
			}
		})
	}
}

func TestCachedCompletionUsesCache(t *testing.T) {
	store := cache.New()
	fetches := 0
	complete := cachedCompletion(store, "test:key", time.Minute, func(context.Context) []string {
		fetches++
		return []string{"alpha", "beta"}
	})

	first, err := complete(context.Background(), "")
	if err != nil {
		t.Fatalf("completion failed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 candidates, got %v", first)
	}

	second, err := complete(context.Background(), "al")
	if err != nil {
		t.Fatalf("completion failed: %v", err)
	}
	if len(second) != 1 || second[0] != "alpha" {
		t.Errorf("expected prefix-filtered [alpha], got %v", second)
	}
	if fetches != 1 {
		t.Errorf("expected a single collaborator fetch, got %d", fetches)
	}
}

func TestStringArg(t *testing.T) {
	args := map[string]interface{}{"name": "demo", "count": 3}

	if value, errResp := stringArg(args, "name"); errResp != nil || value != "demo" {
		t.Errorf("expected demo, got %q (err %v)", value, errResp)
	}
	if _, errResp := stringArg(args, "missing"); errResp == nil {
		t.Error("expected error envelope for missing argument")
	}
	if _, errResp := stringArg(args, "count"); errResp == nil {
		t.Error("expected error envelope for non-string argument")
	}
}

func TestEntraGroupCompletionOffersObjectIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"value": []map[string]string{
				{"id": "a0000000-0000-0000-0000-000000000001", "displayName": "Engineering"},
			},
		})
	}))
	defer srv.Close()

	log, err := logger.NewDefault()
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	reg := registry.New(log)
	cfg := &config.Config{
		Entra: config.EntraConfig{URL: srv.URL, TenantID: "tenant", Token: "t"},
	}
	registerEntraCapabilities(reg, cfg, cache.New(), log)

	var groupTemplate *registry.ResourceTemplateDefinition
	for _, def := range reg.AuthorizedTemplates([]string{permAdmin}) {
		if def.Name() == "entra-group" {
			d := def
			groupTemplate = &d
		}
	}
	if groupTemplate == nil {
		t.Fatal("entra-group template not registered")
	}

	variable, ok := groupTemplate.Variable("id")
	if !ok {
		t.Fatal("expected id variable on the group template")
	}
	values, err := variable.Complete(context.Background(), "")
	if err != nil {
		t.Fatalf("completion failed: %v", err)
	}
	// Candidates feed entra://groups/{id} URIs, which the handler resolves
	// by object id; offering display names would make every candidate 404.
	if len(values) != 1 || values[0] != "a0000000-0000-0000-0000-000000000001" {
		t.Errorf("expected group object id candidates, got %v", values)
	}
}

func TestIncidentTriagePrompt(t *testing.T) {
	log, err := logger.NewDefault()
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	reg := registry.New(log)
	registerPrompts(reg, log)

	var triage *registry.PromptDefinition
	for _, def := range reg.AuthorizedPrompts([]string{permAdmin}) {
		if def.Name() == "incident-triage" {
			d := def
			triage = &d
		}
	}
	if triage == nil {
		t.Fatal("incident-triage prompt not registered")
	}

	text, err := triage.Handler(context.Background(), nil, map[string]string{"application": "payments"})
	if err != nil {
		t.Fatalf("prompt rendering failed: %v", err)
	}
	if !strings.Contains(text, "payments") {
		t.Errorf("expected application name in rendered prompt, got %q", text)
	}

	if _, err := triage.Handler(context.Background(), nil, nil); err == nil {
		t.Error("expected error when required argument is missing")
	}
}
