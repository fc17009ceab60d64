package main

import (
	"context"
	"errors"
	"fmt"

	"mcp-gateway/internal/cache"
	"mcp-gateway/internal/clients"
	"mcp-gateway/internal/config"
	"mcp-gateway/internal/logger"
	"mcp-gateway/internal/mcp"
	"mcp-gateway/internal/registry"
)

func registerArgoCDCapabilities(reg *registry.Registry, cfg *config.Config, store *cache.Cache, log *logger.Logger) {
	if !cfg.ArgoCD.Enabled() {
		log.Info("ArgoCD collaborator not configured, skipping its capabilities")
		return
	}

	log.Info("Registering ArgoCD capabilities", "url", cfg.ArgoCD.URL)
	argocd := clients.NewArgoCD(cfg.ArgoCD, log)

	reg.RegisterTool(registry.ToolDefinition{
		Title:       "Sync Application",
		Description: "Triggers a sync of an ArgoCD application to its target revision",
		Arguments: []registry.Argument{
			{Name: "name", Type: "string", Description: "Application name", Required: true},
		},
		RequiredPermissions: []string{permArgoCDAdmin, permAdmin},
		Handler: func(ctx context.Context, _ *mcp.RequestContext, args map[string]interface{}) *mcp.Response {
			name, errResp := stringArg(args, "name")
			if errResp != nil {
				return errResp
			}

			app, err := argocd.SyncApplication(ctx, name)
			if err != nil {
				if clients.IsNotFound(err) {
					return mcp.Errorf("application %q not found", name).
						WithHints("List known applications via argocd://applications")
				}
				return mcp.Errorf("failed to sync application: %v", err).
					WithHints("Check the ArgoCD server status and the gateway's API token")
			}
			return mcp.Successf("Sync of %q requested", name).
				WithData(app).
				WithLink("application", fmt.Sprintf("%s/applications/%s", cfg.ArgoCD.URL, name))
		},
	})

	reg.RegisterTool(registry.ToolDefinition{
		Title:       "Create Application",
		Description: "Creates or updates an ArgoCD application tracking a Git repository path",
		Arguments: []registry.Argument{
			{Name: "name", Type: "string", Description: "Application name", Required: true},
			{Name: "repo_url", Type: "string", Description: "Git repository URL", Required: true},
			{Name: "path", Type: "string", Description: "Path within the repository", Required: true},
			{Name: "namespace", Type: "string", Description: "Destination namespace", Required: true},
			{Name: "project", Type: "string", Description: "ArgoCD project, defaults to \"default\""},
		},
		Annotations:         registry.ToolAnnotations{Idempotent: true},
		RequiredPermissions: []string{permArgoCDAdmin, permAdmin},
		Handler: func(ctx context.Context, _ *mcp.RequestContext, args map[string]interface{}) *mcp.Response {
			name, errResp := stringArg(args, "name")
			if errResp != nil {
				return errResp
			}
			repoURL, errResp := stringArg(args, "repo_url")
			if errResp != nil {
				return errResp
			}
			path, errResp := stringArg(args, "path")
			if errResp != nil {
				return errResp
			}
			namespace, errResp := stringArg(args, "namespace")
			if errResp != nil {
				return errResp
			}
			project := optionalStringArg(args, "project")
			if project == "" {
				project = "default"
			}

			spec := map[string]interface{}{
				"metadata": map[string]interface{}{"name": name},
				"spec": map[string]interface{}{
					"project": project,
					"source": map[string]interface{}{
						"repoURL":        repoURL,
						"path":           path,
						"targetRevision": "HEAD",
					},
					"destination": map[string]interface{}{
						"server":    "https://kubernetes.default.svc",
						"namespace": namespace,
					},
				},
			}

			app, err := argocd.UpsertApplication(ctx, spec)
			if err != nil {
				return mcp.Errorf("failed to create application: %v", err).
					WithHints("Verify the repository URL is registered in ArgoCD",
						"Verify the project exists and permits the destination namespace")
			}
			return mcp.Successf("Application %q created", name).
				WithData(app).
				WithLink("application", fmt.Sprintf("%s/applications/%s", cfg.ArgoCD.URL, name))
		},
	})

	reg.RegisterTool(registry.ToolDefinition{
		Title:       "Summarize Application Status",
		Description: "Fetches an application and asks the calling agent's model to summarize its state",
		Arguments: []registry.Argument{
			{Name: "name", Type: "string", Description: "Application name", Required: true},
		},
		Annotations:         registry.ToolAnnotations{ReadOnly: true},
		RequiredPermissions: []string{permArgoCDRead, permAdmin},
		Handler: func(ctx context.Context, rc *mcp.RequestContext, args map[string]interface{}) *mcp.Response {
			name, errResp := stringArg(args, "name")
			if errResp != nil {
				return errResp
			}

			app, err := argocd.GetApplication(ctx, name)
			if err != nil {
				if clients.IsNotFound(err) {
					return mcp.Errorf("application %q not found", name)
				}
				return mcp.Errorf("failed to fetch application: %v", err)
			}

			sampler := mcp.UnavailableSampler()
			if rc != nil && rc.Sampler != nil {
				sampler = rc.Sampler
			}
			prompt := fmt.Sprintf(
				"Summarize the state of ArgoCD application %q: sync status %s, health %s.",
				name, app.Status.Sync.Status, app.Status.Health.Status)
			summary, err := sampler.CreateMessage(ctx, prompt)
			if err != nil {
				if errors.Is(err, mcp.ErrSamplingUnavailable) {
					// Without sampling the raw status still answers the question.
					return mcp.Successf("Application %q: sync %s, health %s",
						name, app.Status.Sync.Status, app.Status.Health.Status).WithData(app)
				}
				return mcp.Errorf("failed to summarize application: %v", err)
			}
			return mcp.Success(summary).WithData(app)
		},
	})

	reg.RegisterResource(registry.ResourceDefinition{
		URI:                 "argocd://applications",
		Title:               "ArgoCD Applications",
		Description:         "Names of all applications visible to the gateway",
		MIMEType:            "application/json",
		RequiredPermissions: []string{permArgoCDRead, permAdmin},
		Handler: func(ctx context.Context, _ *mcp.RequestContext, _ string) *mcp.Response {
			apps := argocd.ListApplications(ctx, "")
			return mcp.Successf("%d applications found", len(apps)).WithData(apps)
		},
	})

	reg.RegisterResourceTemplate(registry.ResourceTemplateDefinition{
		Title:       "ArgoCD Application",
		Description: "A single application with its sync and health status",
		URITemplate: "argocd://applications/{name}",
		MIMEType:    "application/json",
		Variables: []registry.TemplateVariable{
			{Name: "name", Complete: cachedCompletion(store,
				"argocd:applications", cache.DefaultTTL,
				func(ctx context.Context) []string {
					return argocd.ListApplications(ctx, "")
				})},
		},
		RequiredPermissions: []string{permArgoCDRead, permAdmin},
		Handler: func(ctx context.Context, _ *mcp.RequestContext, uri string, vars map[string]string) *mcp.Response {
			name := vars["name"]
			app, err := argocd.GetApplication(ctx, name)
			if err != nil {
				if clients.IsNotFound(err) {
					return mcp.Errorf("application %q not found", name)
				}
				return mcp.Errorf("failed to read %s: %v", uri, err)
			}
			return mcp.Successf("Application %q", name).WithData(app)
		},
	})
}
