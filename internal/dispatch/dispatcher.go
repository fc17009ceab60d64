package dispatch

import (
	"context"
	"encoding/json"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/yosida95/uritemplate/v3"

	"mcp-gateway/internal/auth"
	"mcp-gateway/internal/logger"
	"mcp-gateway/internal/mcp"
	"mcp-gateway/internal/registry"
)

// Dispatcher builds per-session server instances from the process-wide
// capability registry. Binding happens exactly once per session: the
// caller's permissions filter the registry and the surviving definitions are
// registered on a fresh protocol server. No per-call permission checks
// happen after that — the session trades re-authorization cost for a stable
// capability set.
type Dispatcher struct {
	registry *registry.Registry
	logger   *logger.Logger
	name     string
	version  string
}

// New creates a dispatcher over the given registry.
func New(reg *registry.Registry, log *logger.Logger, name, version string) *Dispatcher {
	return &Dispatcher{
		registry: reg,
		logger:   log,
		name:     name,
		version:  version,
	}
}

// boundTemplate pairs an authorized template definition with its compiled
// URI template.
type boundTemplate struct {
	def      registry.ResourceTemplateDefinition
	compiled *uritemplate.Template
}

// Bound is the dispatcher instance for one session: a protocol server
// carrying exactly the capabilities the session's identity is authorized
// for, fixed at creation.
type Bound struct {
	server    *server.MCPServer
	templates []boundTemplate
	identity  *auth.Identity
	sessionID string
	logger    *logger.Logger
}

// Bind resolves the permission-filtered capability snapshot for an identity
// and registers it on a new server instance. Wire names are derived with the
// same normalization used at registration time.
func (d *Dispatcher) Bind(identity *auth.Identity) *Bound {
	s := server.NewMCPServer(
		d.name,
		d.version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
	)

	b := &Bound{
		server:   s,
		identity: identity,
		logger:   d.logger,
	}

	tools := d.registry.AuthorizedTools(identity.Permissions)
	for _, def := range tools {
		s.AddTool(toolFromDefinition(def), b.toolHandler(def))
	}

	resources := d.registry.AuthorizedResources(identity.Permissions)
	for _, def := range resources {
		s.AddResource(resourceFromDefinition(def), b.resourceHandler(def))
	}

	templates := d.registry.AuthorizedTemplates(identity.Permissions)
	for _, def := range templates {
		compiled, err := uritemplate.New(def.URITemplate)
		if err != nil {
			d.logger.Error("skipping resource template with invalid URI template",
				"name", def.Name(),
				"uri_template", def.URITemplate,
				"error", err,
			)
			continue
		}
		bt := boundTemplate{def: def, compiled: compiled}
		b.templates = append(b.templates, bt)
		s.AddResourceTemplate(templateFromDefinition(def), b.templateHandler(bt))
	}

	prompts := d.registry.AuthorizedPrompts(identity.Permissions)
	for _, def := range prompts {
		s.AddPrompt(promptFromDefinition(def), b.promptHandler(def))
	}

	d.logger.Info("bound capability snapshot to session server",
		"subject", identity.ID,
		"tools", len(tools),
		"resources", len(resources),
		"templates", len(b.templates),
		"prompts", len(prompts),
	)

	return b
}

// BindSession records the minted session identifier so request contexts can
// carry it. It is called once, between binding and the first forwarded
// message.
func (b *Bound) BindSession(id string) {
	b.sessionID = id
}

// Identity returns the identity the snapshot was bound for.
func (b *Bound) Identity() *auth.Identity {
	return b.identity
}

// HandleMessage forwards one JSON-RPC message into the bound server and
// returns the serialized response, or nil for notifications. Completion
// requests are answered by the dispatcher itself from the bound template
// set.
func (b *Bound) HandleMessage(ctx context.Context, message json.RawMessage) json.RawMessage {
	ctx = mcp.WithRequestContext(ctx, &mcp.RequestContext{
		SessionID: b.sessionID,
		Identity:  b.identity,
		Sampler:   mcp.UnavailableSampler(),
	})

	var probe struct {
		ID     json.RawMessage `json:"id"`
		Method string          `json:"method"`
	}
	// Malformed JSON falls through to the server, which answers with a
	// protocol parse error.
	_ = json.Unmarshal(message, &probe)

	if probe.Method == "completion/complete" {
		return b.handleComplete(ctx, probe.ID, message)
	}

	result := b.server.HandleMessage(ctx, message)
	if result == nil {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		b.logger.Error("failed to encode protocol response",
			"session_id", b.sessionID,
			"error", err,
		)
		return jsonrpcError(probe.ID, mcpgo.INTERNAL_ERROR, "failed to encode response")
	}
	return data
}
