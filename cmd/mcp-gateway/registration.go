package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mcp-gateway/internal/cache"
	"mcp-gateway/internal/config"
	"mcp-gateway/internal/logger"
	"mcp-gateway/internal/mcp"
	"mcp-gateway/internal/registry"
)

// Permission vocabulary. Every capability names the permissions that may see
// it; "admin" is accepted everywhere as the blanket grant.
const (
	permAdmin            = "admin"
	permVaultRead        = "vault:read"
	permVaultAdmin       = "vault:admin"
	permArgoCDRead       = "argocd:read"
	permArgoCDAdmin      = "argocd:admin"
	permArtifactoryRead  = "artifactory:read"
	permArtifactoryAdmin = "artifactory:admin"
	permEntraRead        = "entra:read"
	permEntraAdmin       = "entra:admin"
	permKubernetesRead   = "k8s:read"
)

// registerAllCapabilities builds every tool, resource, resource template and
// prompt from the collaborator clients and registers them with their
// permission sets.
func registerAllCapabilities(reg *registry.Registry, cfg *config.Config, store *cache.Cache, log *logger.Logger) error {
	registerVaultCapabilities(reg, cfg, store, log)
	registerArgoCDCapabilities(reg, cfg, store, log)
	registerArtifactoryCapabilities(reg, cfg, store, log)
	registerEntraCapabilities(reg, cfg, store, log)

	if err := registerKubernetesCapabilities(reg, cfg, store, log); err != nil {
		// A cluster credential is only present when running in-cluster;
		// outside one the Kubernetes capabilities are simply absent.
		log.Warn("Kubernetes capabilities not registered", "error", err)
	}

	registerPrompts(reg, log)
	return nil
}

// cachedCompletion builds a completion function that serves candidates from
// the shared cache, fetching through the collaborator on a miss.
func cachedCompletion(store *cache.Cache, key string, ttl time.Duration, list func(ctx context.Context) []string) registry.CompleteFunc {
	return func(ctx context.Context, partial string) ([]string, error) {
		values, ok := store.Get(key)
		if !ok {
			values = store.Set(key, list(ctx), ttl)
		}
		return filterByPrefix(values, partial), nil
	}
}

// staticCompletion serves a fixed candidate list.
func staticCompletion(values []string) registry.CompleteFunc {
	return func(_ context.Context, partial string) ([]string, error) {
		return filterByPrefix(values, partial), nil
	}
}

func filterByPrefix(values []string, partial string) []string {
	if partial == "" {
		return values
	}
	matched := make([]string, 0, len(values))
	for _, v := range values {
		if strings.HasPrefix(v, partial) {
			matched = append(matched, v)
		}
	}
	return matched
}

// stringArg extracts a required string argument, returning an error envelope
// when it is absent or of the wrong type.
func stringArg(args map[string]interface{}, name string) (string, *mcp.Response) {
	raw, ok := args[name]
	if !ok {
		return "", mcp.Errorf("missing required argument %q", name)
	}
	value, ok := raw.(string)
	if !ok || value == "" {
		return "", mcp.Errorf("argument %q must be a non-empty string", name)
	}
	return value, nil
}

// optionalStringArg extracts an optional string argument, defaulting to "".
func optionalStringArg(args map[string]interface{}, name string) string {
	if raw, ok := args[name]; ok {
		if value, ok := raw.(string); ok {
			return value
		}
	}
	return ""
}

func registerPrompts(reg *registry.Registry, log *logger.Logger) {
	log.Info("Registering prompts")

	reg.RegisterPrompt(registry.PromptDefinition{
		Title:       "Incident Triage",
		Description: "Walks through triaging a degraded GitOps application",
		Arguments: []registry.PromptArgument{
			{Name: "application", Description: "Name of the affected application", Required: true},
			{Name: "symptom", Description: "Observed symptom, if known"},
		},
		RequiredPermissions: []string{permArgoCDRead, permAdmin},
		Handler: func(_ context.Context, _ *mcp.RequestContext, args map[string]string) (string, error) {
			app := args["application"]
			if app == "" {
				return "", fmt.Errorf("missing required argument %q", "application")
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Triage the ArgoCD application %q.\n\n", app)
			if symptom := args["symptom"]; symptom != "" {
				fmt.Fprintf(&b, "Reported symptom: %s\n\n", symptom)
			}
			b.WriteString("1. Read argocd://applications/" + app + " and note sync and health status.\n")
			b.WriteString("2. If the sync status is OutOfDate, inspect the target revision before syncing.\n")
			b.WriteString("3. Check the application's namespace for failing pods via the cluster resources.\n")
			b.WriteString("4. Only invoke the sync tool once the cause is understood.\n")
			return b.String(), nil
		},
	})

	reg.RegisterPrompt(registry.PromptDefinition{
		Title:       "Secret Rotation Plan",
		Description: "Produces a step-by-step plan for rotating a stored secret",
		Arguments: []registry.PromptArgument{
			{Name: "mount", Description: "KV mount holding the secret", Required: true},
			{Name: "path", Description: "Path of the secret within the mount", Required: true},
		},
		RequiredPermissions: []string{permVaultAdmin, permAdmin},
		Handler: func(_ context.Context, _ *mcp.RequestContext, args map[string]string) (string, error) {
			mount, path := args["mount"], args["path"]
			if mount == "" || path == "" {
				return "", fmt.Errorf("both %q and %q arguments are required", "mount", "path")
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Plan the rotation of the secret at vault://secrets/%s/%s.\n\n", mount, path)
			b.WriteString("1. Read the current secret and list every consumer of it.\n")
			b.WriteString("2. Generate the replacement credential in the upstream system.\n")
			b.WriteString("3. Write the new value with the write-secret tool; versions are retained.\n")
			b.WriteString("4. Roll consumers and verify, then revoke the previous credential.\n")
			return b.String(), nil
		},
	})

	reg.RegisterPrompt(registry.PromptDefinition{
		Title:       "Gateway Overview",
		Description: "Explains which infrastructure capabilities this gateway exposes",
		Handler: func(_ context.Context, _ *mcp.RequestContext, _ map[string]string) (string, error) {
			return "List the tools and resources currently visible to you and summarize, " +
				"per infrastructure service, what they allow. Mention that capabilities " +
				"you cannot see require permissions your session does not hold.", nil
		},
	})
}
