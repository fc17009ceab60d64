package main

import (
	"context"

	"mcp-gateway/internal/cache"
	"mcp-gateway/internal/clients"
	"mcp-gateway/internal/config"
	"mcp-gateway/internal/logger"
	"mcp-gateway/internal/mcp"
	"mcp-gateway/internal/registry"
)

func registerArtifactoryCapabilities(reg *registry.Registry, cfg *config.Config, store *cache.Cache, log *logger.Logger) {
	if !cfg.Artifactory.Enabled() {
		log.Info("Artifactory collaborator not configured, skipping its capabilities")
		return
	}

	log.Info("Registering Artifactory capabilities", "url", cfg.Artifactory.URL)
	artifactory := clients.NewArtifactory(cfg.Artifactory, log)

	reg.RegisterTool(registry.ToolDefinition{
		Title:       "Create Repository",
		Description: "Creates an artifact repository; returns the existing one if the key is already taken",
		Arguments: []registry.Argument{
			{Name: "key", Type: "string", Description: "Repository key", Required: true},
			{Name: "rclass", Type: "string", Description: "Repository class: local, remote or virtual", Required: true},
			{Name: "package_type", Type: "string", Description: "Package type, e.g. docker, maven, npm", Required: true},
			{Name: "description", Type: "string", Description: "Free-form description"},
		},
		Annotations:         registry.ToolAnnotations{Idempotent: true},
		RequiredPermissions: []string{permArtifactoryAdmin, permAdmin},
		Handler: func(ctx context.Context, _ *mcp.RequestContext, args map[string]interface{}) *mcp.Response {
			key, errResp := stringArg(args, "key")
			if errResp != nil {
				return errResp
			}
			rclass, errResp := stringArg(args, "rclass")
			if errResp != nil {
				return errResp
			}
			packageType, errResp := stringArg(args, "package_type")
			if errResp != nil {
				return errResp
			}
			description := optionalStringArg(args, "description")

			repo, err := artifactory.UpsertRepository(ctx, key, rclass, packageType, description)
			if err != nil {
				return mcp.Errorf("failed to create repository: %v", err).
					WithHints("Check that rclass is one of local, remote, virtual",
						"Check the package type against the Artifactory edition's supported types")
			}
			return mcp.Successf("Repository %q available", repo.Key).WithData(repo)
		},
	})

	reg.RegisterResource(registry.ResourceDefinition{
		URI:                 "artifactory://repositories",
		Title:               "Artifactory Repositories",
		Description:         "Keys of all artifact repositories",
		MIMEType:            "application/json",
		RequiredPermissions: []string{permArtifactoryRead, permAdmin},
		Handler: func(ctx context.Context, _ *mcp.RequestContext, _ string) *mcp.Response {
			repos := artifactory.ListRepositories(ctx, "")
			return mcp.Successf("%d repositories found", len(repos)).WithData(repos)
		},
	})

	reg.RegisterResourceTemplate(registry.ResourceTemplateDefinition{
		Title:       "Artifactory Repository",
		Description: "Configuration of a single artifact repository",
		URITemplate: "artifactory://repositories/{key}",
		MIMEType:    "application/json",
		Variables: []registry.TemplateVariable{
			{Name: "key", Complete: cachedCompletion(store,
				"artifactory:repositories", cache.DefaultTTL,
				func(ctx context.Context) []string {
					return artifactory.ListRepositories(ctx, "")
				})},
		},
		RequiredPermissions: []string{permArtifactoryRead, permAdmin},
		Handler: func(ctx context.Context, _ *mcp.RequestContext, uri string, vars map[string]string) *mcp.Response {
			key := vars["key"]
			repo, err := artifactory.GetRepository(ctx, key)
			if err != nil {
				if clients.IsNotFound(err) {
					return mcp.Errorf("repository %q not found", key)
				}
				return mcp.Errorf("failed to read %s: %v", uri, err)
			}
			return mcp.Successf("Repository %q", key).WithData(repo)
		},
	})
}
