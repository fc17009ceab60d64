package main

import (
	"context"
	"encoding/json"
	"fmt"

	"mcp-gateway/internal/cache"
	"mcp-gateway/internal/clients"
	"mcp-gateway/internal/config"
	"mcp-gateway/internal/logger"
	"mcp-gateway/internal/mcp"
	"mcp-gateway/internal/registry"
)

// defaultVaultMount is the KV v2 mount completion candidates are drawn from.
const defaultVaultMount = "secret"

func registerVaultCapabilities(reg *registry.Registry, cfg *config.Config, store *cache.Cache, log *logger.Logger) {
	if !cfg.Vault.Enabled() {
		log.Info("Vault collaborator not configured, skipping its capabilities")
		return
	}

	log.Info("Registering Vault capabilities", "url", cfg.Vault.URL)
	vault := clients.NewVault(cfg.Vault, log)

	reg.RegisterTool(registry.ToolDefinition{
		Title:       "Read Secret",
		Description: "Reads a secret from a KV v2 mount, including version metadata",
		Arguments: []registry.Argument{
			{Name: "mount", Type: "string", Description: "KV v2 mount name", Required: true},
			{Name: "path", Type: "string", Description: "Secret path within the mount", Required: true},
		},
		Annotations:         registry.ToolAnnotations{ReadOnly: true, Idempotent: true},
		RequiredPermissions: []string{permVaultRead, permAdmin},
		Handler: func(ctx context.Context, _ *mcp.RequestContext, args map[string]interface{}) *mcp.Response {
			mount, errResp := stringArg(args, "mount")
			if errResp != nil {
				return errResp
			}
			path, errResp := stringArg(args, "path")
			if errResp != nil {
				return errResp
			}

			secret, err := vault.ReadSecret(ctx, mount, path)
			if err != nil {
				if clients.IsNotFound(err) {
					return mcp.Errorf("secret %s/%s not found", mount, path).
						WithHints("Check the mount and path spelling",
							"List available secrets via vault://secrets/"+mount)
				}
				return mcp.Errorf("failed to read secret: %v", err).
					WithHints("Verify the Vault server is reachable and the gateway token is valid")
			}
			return mcp.Successf("Secret %s/%s read", mount, path).WithData(secret)
		},
	})

	reg.RegisterTool(registry.ToolDefinition{
		Title:       "Write Secret",
		Description: "Creates or updates a KV v2 secret; prior versions are retained",
		Arguments: []registry.Argument{
			{Name: "mount", Type: "string", Description: "KV v2 mount name", Required: true},
			{Name: "path", Type: "string", Description: "Secret path within the mount", Required: true},
			{Name: "data", Type: "string", Description: "Secret contents as a JSON object", Required: true},
		},
		Annotations:         registry.ToolAnnotations{Idempotent: true},
		RequiredPermissions: []string{permVaultAdmin, permAdmin},
		Handler: func(ctx context.Context, _ *mcp.RequestContext, args map[string]interface{}) *mcp.Response {
			mount, errResp := stringArg(args, "mount")
			if errResp != nil {
				return errResp
			}
			path, errResp := stringArg(args, "path")
			if errResp != nil {
				return errResp
			}
			raw, errResp := stringArg(args, "data")
			if errResp != nil {
				return errResp
			}

			var data map[string]interface{}
			if err := json.Unmarshal([]byte(raw), &data); err != nil {
				return mcp.Errorf("data is not a valid JSON object: %v", err).
					WithHints(`Pass data as a JSON object, e.g. {"username":"svc","password":"..."}`)
			}

			secret, err := vault.UpsertSecret(ctx, mount, path, data)
			if err != nil {
				return mcp.Errorf("failed to write secret: %v", err).
					WithHints("Verify the gateway token has write access to the mount")
			}
			return mcp.Successf("Secret %s/%s written", mount, path).WithData(secret)
		},
	})

	reg.RegisterTool(registry.ToolDefinition{
		Title:       "Create Group Alias",
		Description: "Creates an identity group alias linking an auth backend group to a Vault identity group",
		Arguments: []registry.Argument{
			{Name: "name", Type: "string", Description: "Alias name in the auth backend", Required: true},
			{Name: "canonical_id", Type: "string", Description: "ID of the Vault identity group", Required: true},
			{Name: "mount_accessor", Type: "string", Description: "Accessor of the auth mount the alias belongs to", Required: true},
		},
		RequiredPermissions: []string{permVaultAdmin, permAdmin},
		Handler: func(ctx context.Context, _ *mcp.RequestContext, args map[string]interface{}) *mcp.Response {
			name, errResp := stringArg(args, "name")
			if errResp != nil {
				return errResp
			}
			canonicalID, errResp := stringArg(args, "canonical_id")
			if errResp != nil {
				return errResp
			}
			accessor, errResp := stringArg(args, "mount_accessor")
			if errResp != nil {
				return errResp
			}

			alias, err := vault.CreateGroupAlias(ctx, name, canonicalID, accessor)
			if err != nil {
				return mcp.Errorf("failed to create group alias: %v", err).
					WithHints("Confirm the canonical group exists",
						"Confirm the mount accessor matches an enabled auth method")
			}
			return mcp.Successf("Group alias %q created", alias.Name).WithData(alias)
		},
	})

	reg.RegisterResource(registry.ResourceDefinition{
		URI:                 "vault://policies",
		Title:               "Vault Policies",
		Description:         "Names of all ACL policies",
		MIMEType:            "application/json",
		RequiredPermissions: []string{permVaultRead, permAdmin},
		Handler: func(ctx context.Context, _ *mcp.RequestContext, _ string) *mcp.Response {
			policies := vault.ListPolicies(ctx)
			return mcp.Successf("%d policies found", len(policies)).WithData(policies)
		},
	})

	reg.RegisterResourceTemplate(registry.ResourceTemplateDefinition{
		Title:       "Vault Secret",
		Description: "A single KV v2 secret addressed by mount and path",
		URITemplate: "vault://secrets/{mount}/{path}",
		MIMEType:    "application/json",
		Variables: []registry.TemplateVariable{
			{Name: "mount", Complete: staticCompletion([]string{defaultVaultMount, "kv"})},
			{Name: "path", Complete: cachedCompletion(store,
				"vault:secrets:"+defaultVaultMount, cache.DefaultTTL,
				func(ctx context.Context) []string {
					return vault.ListSecrets(ctx, defaultVaultMount)
				})},
		},
		RequiredPermissions: []string{permVaultRead, permAdmin},
		Handler: func(ctx context.Context, _ *mcp.RequestContext, uri string, vars map[string]string) *mcp.Response {
			mount, path := vars["mount"], vars["path"]
			secret, err := vault.ReadSecret(ctx, mount, path)
			if err != nil {
				if clients.IsNotFound(err) {
					return mcp.Errorf("secret %s/%s not found", mount, path)
				}
				return mcp.Errorf("failed to read %s: %v", uri, err)
			}
			return mcp.Success(fmt.Sprintf("Secret %s/%s", mount, path)).WithData(secret)
		},
	})
}
