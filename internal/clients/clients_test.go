package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"mcp-gateway/internal/config"
	"mcp-gateway/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewDefault()
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return log
}

func TestVaultListSecrets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Vault-Token") != "test-token" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Path != "/v1/kv/metadata" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"keys": []string{"zeta", "alpha"},
			},
		})
	}))
	defer srv.Close()

	v := NewVault(config.CollaboratorConfig{URL: srv.URL, Token: "test-token"}, testLogger(t))

	got := v.ListSecrets(context.Background(), "kv")
	if !reflect.DeepEqual(got, []string{"alpha", "zeta"}) {
		t.Errorf("ListSecrets = %v, want sorted keys", got)
	}
}

func TestVaultListSecretsDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	v := NewVault(config.CollaboratorConfig{URL: srv.URL, Token: "t"}, testLogger(t))

	got := v.ListSecrets(context.Background(), "kv")
	if got == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(got) != 0 {
		t.Errorf("expected degraded empty list, got %v", got)
	}
}

func TestVaultReadSecretPropagatesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errors":["secret not found"]}`))
	}))
	defer srv.Close()

	v := NewVault(config.CollaboratorConfig{URL: srv.URL, Token: "t"}, testLogger(t))

	_, err := v.ReadSecret(context.Background(), "kv", "missing")
	if err == nil {
		t.Fatal("expected error for missing secret")
	}
	if !IsNotFound(err) {
		t.Errorf("expected not-found classification, got %v", err)
	}
}

func TestVaultCreateGroupAliasPollsUntilVisible(t *testing.T) {
	var reads int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/identity/group-alias":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{"id": "alias-1"},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/identity/group-alias/id/alias-1":
			reads++
			if reads < 3 {
				// Simulate propagation delay: alias not yet readable.
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{
					"id":           "alias-1",
					"name":         "devs",
					"canonical_id": "group-1",
				},
			})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	v := NewVault(config.CollaboratorConfig{URL: srv.URL, Token: "t"}, testLogger(t))

	alias, err := v.CreateGroupAlias(context.Background(), "devs", "group-1", "accessor-1")
	if err != nil {
		t.Fatalf("CreateGroupAlias failed: %v", err)
	}
	if alias.ID != "alias-1" || alias.Name != "devs" {
		t.Errorf("unexpected alias %+v", alias)
	}
	if reads < 3 {
		t.Errorf("expected polling reads, got %d", reads)
	}
}

func TestArgoCDListApplications(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer argo-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"metadata": map[string]interface{}{"name": "web"}},
				{"metadata": map[string]interface{}{"name": "api"}},
			},
		})
	}))
	defer srv.Close()

	a := NewArgoCD(config.CollaboratorConfig{URL: srv.URL, Token: "argo-token"}, testLogger(t))

	got := a.ListApplications(context.Background(), "")
	if !reflect.DeepEqual(got, []string{"api", "web"}) {
		t.Errorf("ListApplications = %v", got)
	}
}

func TestArtifactoryUpsertRepositoryCreatesWhenAbsent(t *testing.T) {
	created := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if !created {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(Repository{Key: "libs-local", Rclass: "local", PackageType: "generic"})
		case http.MethodPut:
			created = true
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	a := NewArtifactory(config.CollaboratorConfig{URL: srv.URL, Token: "key"}, testLogger(t))

	repo, err := a.UpsertRepository(context.Background(), "libs-local", "local", "generic", "test repo")
	if err != nil {
		t.Fatalf("UpsertRepository failed: %v", err)
	}
	if repo.Key != "libs-local" {
		t.Errorf("unexpected repository %+v", repo)
	}
	if !created {
		t.Error("expected repository to be created")
	}
}

func TestArtifactoryUpsertRepositoryReturnsExisting(t *testing.T) {
	var puts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(Repository{Key: "libs-local", Rclass: "local"})
		case http.MethodPut:
			puts++
		}
	}))
	defer srv.Close()

	a := NewArtifactory(config.CollaboratorConfig{URL: srv.URL, Token: "key"}, testLogger(t))

	if _, err := a.UpsertRepository(context.Background(), "libs-local", "local", "generic", ""); err != nil {
		t.Fatalf("UpsertRepository failed: %v", err)
	}
	if puts != 0 {
		t.Errorf("expected no create for existing repository, got %d PUTs", puts)
	}
}

func TestKubernetesListResourcesUnknownKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream call %s", r.URL.Path)
	}))
	defer srv.Close()

	k, err := NewKubernetes(config.KubernetesConfig{
		APIServer: srv.URL,
		Token:     "kube-token",
		Enabled:   true,
	}, testLogger(t))
	if err != nil {
		t.Fatalf("NewKubernetes failed: %v", err)
	}

	got := k.ListResources(context.Background(), "default", "frobnicators")
	if len(got) != 0 {
		t.Errorf("expected empty list for unknown kind, got %v", got)
	}
}

func TestEntraListGroupIDsReturnsObjectIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"value": []map[string]string{
				{"id": "f0000000-0000-0000-0000-000000000002", "displayName": "Platform"},
				{"id": "a0000000-0000-0000-0000-000000000001", "displayName": "Engineering"},
			},
		})
	}))
	defer srv.Close()

	e := NewEntra(config.EntraConfig{URL: srv.URL, TenantID: "tenant", Token: "t"}, testLogger(t))

	got := e.ListGroupIDs(context.Background(), "")
	want := []string{
		"a0000000-0000-0000-0000-000000000001",
		"f0000000-0000-0000-0000-000000000002",
	}
	// The candidates must be object ids usable with GetGroup, never the
	// display names.
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListGroupIDs = %v, want sorted object ids", got)
	}
}

func TestEntraListGroupsDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	e := NewEntra(config.EntraConfig{URL: srv.URL, TenantID: "tenant", Token: "t"}, testLogger(t))

	if got := e.ListGroups(context.Background(), "eng"); len(got) != 0 {
		t.Errorf("expected degraded empty list, got %v", got)
	}
}
