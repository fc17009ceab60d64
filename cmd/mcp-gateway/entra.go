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

func registerEntraCapabilities(reg *registry.Registry, cfg *config.Config, store *cache.Cache, log *logger.Logger) {
	if !cfg.Entra.Enabled() {
		log.Info("Entra collaborator not configured, skipping its capabilities")
		return
	}

	log.Info("Registering Entra capabilities", "url", cfg.Entra.URL)
	entra := clients.NewEntra(cfg.Entra, log)

	reg.RegisterTool(registry.ToolDefinition{
		Title:       "Create Security Group",
		Description: "Creates a security-enabled directory group",
		Arguments: []registry.Argument{
			{Name: "display_name", Type: "string", Description: "Group display name", Required: true},
			{Name: "mail_nickname", Type: "string", Description: "Mail nickname, must be unique in the tenant", Required: true},
			{Name: "description", Type: "string", Description: "Free-form description"},
		},
		RequiredPermissions: []string{permEntraAdmin, permAdmin},
		Handler: func(ctx context.Context, _ *mcp.RequestContext, args map[string]interface{}) *mcp.Response {
			displayName, errResp := stringArg(args, "display_name")
			if errResp != nil {
				return errResp
			}
			mailNickname, errResp := stringArg(args, "mail_nickname")
			if errResp != nil {
				return errResp
			}
			description := optionalStringArg(args, "description")

			group, err := entra.CreateGroup(ctx, displayName, description, mailNickname)
			if err != nil {
				return mcp.Errorf("failed to create group: %v", err).
					WithHints("The mail nickname may already be in use",
						"Verify the gateway's Graph credential has Group.ReadWrite.All")
			}
			return mcp.Successf("Group %q created", group.DisplayName).WithData(group)
		},
	})

	reg.RegisterResource(registry.ResourceDefinition{
		URI:                 "entra://groups",
		Title:               "Entra Groups",
		Description:         "Display names of directory groups",
		MIMEType:            "application/json",
		RequiredPermissions: []string{permEntraRead, permAdmin},
		Handler: func(ctx context.Context, _ *mcp.RequestContext, _ string) *mcp.Response {
			groups := entra.ListGroups(ctx, "")
			return mcp.Successf("%d groups found", len(groups)).WithData(groups)
		},
	})

	reg.RegisterResourceTemplate(registry.ResourceTemplateDefinition{
		Title:       "Entra Group",
		Description: "A directory group with its members",
		URITemplate: "entra://groups/{id}",
		MIMEType:    "application/json",
		Variables: []registry.TemplateVariable{
			// The template addresses groups by object id, so completion
			// must offer ids; display names are not valid lookup keys.
			{Name: "id", Complete: cachedCompletion(store,
				"entra:group-ids", cache.DefaultTTL,
				func(ctx context.Context) []string {
					return entra.ListGroupIDs(ctx, "")
				})},
		},
		RequiredPermissions: []string{permEntraRead, permAdmin},
		Handler: func(ctx context.Context, _ *mcp.RequestContext, uri string, vars map[string]string) *mcp.Response {
			id := vars["id"]
			group, err := entra.GetGroup(ctx, id)
			if err != nil {
				if clients.IsNotFound(err) {
					return mcp.Errorf("group %q not found", id)
				}
				return mcp.Errorf("failed to read %s: %v", uri, err)
			}

			members, err := entra.ListGroupMembers(ctx, id)
			if err != nil {
				return mcp.Errorf("failed to list members of %q: %v", id, err)
			}
			return mcp.Successf("Group %q with %d members", group.DisplayName, len(members)).
				WithData(map[string]interface{}{
					"group":   group,
					"members": members,
				})
		},
	})
}
