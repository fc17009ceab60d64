package registry

import (
	"context"

	"mcp-gateway/internal/mcp"
)

// ToolHandler executes a tool call with validated arguments. Handlers return
// an envelope rather than an error: collaborator failures are translated at
// this boundary, never thrown past it.
type ToolHandler func(ctx context.Context, rc *mcp.RequestContext, args map[string]interface{}) *mcp.Response

// ResourceHandler reads a directly-addressed resource.
type ResourceHandler func(ctx context.Context, rc *mcp.RequestContext, uri string) *mcp.Response

// TemplateHandler reads a templated resource with its bound variables.
type TemplateHandler func(ctx context.Context, rc *mcp.RequestContext, uri string, vars map[string]string) *mcp.Response

// CompleteFunc produces ordered auto-complete candidates for a template
// variable given the partial value typed so far.
type CompleteFunc func(ctx context.Context, partial string) ([]string, error)

// PromptHandler renders a prompt with the given arguments.
type PromptHandler func(ctx context.Context, rc *mcp.RequestContext, args map[string]string) (string, error)

// Argument describes one input schema property of a tool.
type Argument struct {
	Name        string
	Type        string // "string", "number", or "boolean"
	Description string
	Required    bool
}

// ToolAnnotations carries the behavioral hints surfaced to clients.
type ToolAnnotations struct {
	ReadOnly    bool
	Destructive bool
	Idempotent  bool
	OpenWorld   bool
}

// ToolDefinition is a named, schema-described callable action. Definitions
// are constructed at process start and registered once; they are immutable
// after registration. An empty RequiredPermissions list means the tool is
// available to every caller.
type ToolDefinition struct {
	Title               string
	Description         string
	Arguments           []Argument
	Annotations         ToolAnnotations
	RequiredPermissions []string
	Handler             ToolHandler
}

// Name returns the registry key, derived deterministically from the title.
func (d ToolDefinition) Name() string {
	return NormalizeName(d.Title)
}

// ResourceDefinition is a directly-addressed read-only data source, keyed by
// its literal URI.
type ResourceDefinition struct {
	URI                 string
	Title               string
	Description         string
	MIMEType            string
	RequiredPermissions []string
	Handler             ResourceHandler
}

// TemplateVariable is one named slot in a resource template's URI, with its
// completion source.
type TemplateVariable struct {
	Name     string
	Complete CompleteFunc
}

// ResourceTemplateDefinition is a parameterized resource, keyed by its
// normalized title. Each variable may expose auto-completion.
type ResourceTemplateDefinition struct {
	Title               string
	Description         string
	URITemplate         string
	MIMEType            string
	Variables           []TemplateVariable
	RequiredPermissions []string
	Handler             TemplateHandler
}

// Name returns the registry key, derived deterministically from the title.
func (d ResourceTemplateDefinition) Name() string {
	return NormalizeName(d.Title)
}

// Variable looks up a template variable by name.
func (d ResourceTemplateDefinition) Variable(name string) (TemplateVariable, bool) {
	for _, v := range d.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return TemplateVariable{}, false
}

// PromptArgument describes one prompt input.
type PromptArgument struct {
	Name        string
	Description string
	Required    bool
}

// PromptDefinition is a named prompt following the same permission contract
// as resources.
type PromptDefinition struct {
	Title               string
	Description         string
	Arguments           []PromptArgument
	RequiredPermissions []string
	Handler             PromptHandler
}

// Name returns the registry key, derived deterministically from the title.
func (d PromptDefinition) Name() string {
	return NormalizeName(d.Title)
}
