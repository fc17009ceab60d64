package dispatch

import (
	"context"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"mcp-gateway/internal/mcp"
	"mcp-gateway/internal/registry"
)

func boolPtr(v bool) *bool {
	return &v
}

// toolFromDefinition converts a registry definition into the wire-level tool
// declaration, deriving the capability name with the shared normalization.
func toolFromDefinition(def registry.ToolDefinition) mcpgo.Tool {
	opts := []mcpgo.ToolOption{
		mcpgo.WithDescription(def.Description),
		mcpgo.WithToolAnnotation(mcpgo.ToolAnnotation{
			Title:           def.Title,
			ReadOnlyHint:    boolPtr(def.Annotations.ReadOnly),
			DestructiveHint: boolPtr(def.Annotations.Destructive),
			IdempotentHint:  boolPtr(def.Annotations.Idempotent),
			OpenWorldHint:   boolPtr(def.Annotations.OpenWorld),
		}),
	}

	for _, arg := range def.Arguments {
		propOpts := []mcpgo.PropertyOption{mcpgo.Description(arg.Description)}
		if arg.Required {
			propOpts = append(propOpts, mcpgo.Required())
		}
		switch arg.Type {
		case "number":
			opts = append(opts, mcpgo.WithNumber(arg.Name, propOpts...))
		case "boolean":
			opts = append(opts, mcpgo.WithBoolean(arg.Name, propOpts...))
		default:
			opts = append(opts, mcpgo.WithString(arg.Name, propOpts...))
		}
	}

	return mcpgo.NewTool(def.Name(), opts...)
}

func resourceFromDefinition(def registry.ResourceDefinition) mcpgo.Resource {
	return mcpgo.NewResource(
		def.URI,
		def.Title,
		mcpgo.WithResourceDescription(def.Description),
		mcpgo.WithMIMEType(def.MIMEType),
	)
}

func templateFromDefinition(def registry.ResourceTemplateDefinition) mcpgo.ResourceTemplate {
	return mcpgo.NewResourceTemplate(
		def.URITemplate,
		def.Name(),
		mcpgo.WithTemplateDescription(def.Description),
		mcpgo.WithTemplateMIMEType(def.MIMEType),
	)
}

func promptFromDefinition(def registry.PromptDefinition) mcpgo.Prompt {
	opts := []mcpgo.PromptOption{mcpgo.WithPromptDescription(def.Description)}
	for _, arg := range def.Arguments {
		argOpts := []mcpgo.ArgumentOption{mcpgo.ArgumentDescription(arg.Description)}
		if arg.Required {
			argOpts = append(argOpts, mcpgo.RequiredArgument())
		}
		opts = append(opts, mcpgo.WithArgument(arg.Name, argOpts...))
	}
	return mcpgo.NewPrompt(def.Name(), opts...)
}

// toolHandler wraps a definition's handler for the protocol server. The
// wrapper is the failure boundary: errors and panics become error envelopes,
// never protocol-level failures, so one callback's failure cannot corrupt
// the session.
func (b *Bound) toolHandler(def registry.ToolDefinition) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (result *mcpgo.CallToolResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("tool handler panicked",
					"tool", def.Name(),
					"session_id", b.sessionID,
					"panic", r,
				)
				result = mcp.Errorf("tool %s failed unexpectedly", def.Name()).
					WithHints("Retry the call", "Check gateway logs for details").
					ToolResult()
				err = nil
			}
		}()

		rc, _ := mcp.RequestContextFrom(ctx)
		resp := def.Handler(ctx, rc, req.GetArguments())
		if resp == nil {
			resp = mcp.Errorf("tool %s returned no response", def.Name())
		}
		return resp.ToolResult(), nil
	}
}

func (b *Bound) resourceHandler(def registry.ResourceDefinition) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcpgo.ReadResourceRequest) (contents []mcpgo.ResourceContents, err error) {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("resource handler panicked",
					"uri", def.URI,
					"session_id", b.sessionID,
					"panic", r,
				)
				contents = mcp.Errorf("resource %s failed unexpectedly", def.URI).
					ResourceContents(req.Params.URI)
				err = nil
			}
		}()

		rc, _ := mcp.RequestContextFrom(ctx)
		resp := def.Handler(ctx, rc, req.Params.URI)
		if resp == nil {
			resp = mcp.Errorf("resource %s returned no response", def.URI)
		}
		return resp.ResourceContents(req.Params.URI), nil
	}
}

func (b *Bound) templateHandler(bt boundTemplate) server.ResourceTemplateHandlerFunc {
	return func(ctx context.Context, req mcpgo.ReadResourceRequest) (contents []mcpgo.ResourceContents, err error) {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("resource template handler panicked",
					"template", bt.def.Name(),
					"session_id", b.sessionID,
					"panic", r,
				)
				contents = mcp.Errorf("resource %s failed unexpectedly", req.Params.URI).
					ResourceContents(req.Params.URI)
				err = nil
			}
		}()

		rc, _ := mcp.RequestContextFrom(ctx)

		vars := make(map[string]string)
		if match := bt.compiled.Match(req.Params.URI); match != nil {
			for _, name := range bt.compiled.Varnames() {
				vars[name] = match.Get(name).String()
			}
		}

		resp := bt.def.Handler(ctx, rc, req.Params.URI, vars)
		if resp == nil {
			resp = mcp.Errorf("resource %s returned no response", req.Params.URI)
		}
		return resp.ResourceContents(req.Params.URI), nil
	}
}

func (b *Bound) promptHandler(def registry.PromptDefinition) server.PromptHandlerFunc {
	return func(ctx context.Context, req mcpgo.GetPromptRequest) (*mcpgo.GetPromptResult, error) {
		rc, _ := mcp.RequestContextFrom(ctx)
		text, err := def.Handler(ctx, rc, req.Params.Arguments)
		if err != nil {
			return nil, err
		}
		return mcpgo.NewGetPromptResult(def.Description, []mcpgo.PromptMessage{
			mcpgo.NewPromptMessage(mcpgo.RoleUser, mcpgo.NewTextContent(text)),
		}), nil
	}
}
