package registry

import (
	"sort"
	"sync"

	"mcp-gateway/internal/logger"
)

// Registry holds every capability definition known to the process. It is
// constructed once at startup, populated by an explicit registration pass,
// and read concurrently by every session-creation request afterwards.
//
// Registration is an idempotent upsert: registering the same key twice
// replaces the prior entry. Overwrites are legal but logged, so silent name
// collisions stay debuggable.
type Registry struct {
	mu        sync.RWMutex
	tools     map[string]ToolDefinition
	resources map[string]ResourceDefinition
	templates map[string]ResourceTemplateDefinition
	prompts   map[string]PromptDefinition
	logger    *logger.Logger
}

// New creates an empty capability registry.
func New(log *logger.Logger) *Registry {
	return &Registry{
		tools:     make(map[string]ToolDefinition),
		resources: make(map[string]ResourceDefinition),
		templates: make(map[string]ResourceTemplateDefinition),
		prompts:   make(map[string]PromptDefinition),
		logger:    log,
	}
}

// RegisterTool upserts a tool definition keyed by its normalized name.
func (r *Registry) RegisterTool(def ToolDefinition) {
	name := def.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		r.logger.Warn("overwriting existing tool registration", "name", name)
	}
	r.tools[name] = def

	r.logger.Debug("tool registered",
		"name", name,
		"required_permissions", def.RequiredPermissions,
	)
}

// RegisterResource upserts a resource definition keyed by its literal URI.
func (r *Registry) RegisterResource(def ResourceDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.resources[def.URI]; exists {
		r.logger.Warn("overwriting existing resource registration", "uri", def.URI)
	}
	r.resources[def.URI] = def

	r.logger.Debug("resource registered",
		"uri", def.URI,
		"required_permissions", def.RequiredPermissions,
	)
}

// RegisterResourceTemplate upserts a template definition keyed by its
// normalized name.
func (r *Registry) RegisterResourceTemplate(def ResourceTemplateDefinition) {
	name := def.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[name]; exists {
		r.logger.Warn("overwriting existing resource template registration", "name", name)
	}
	r.templates[name] = def

	r.logger.Debug("resource template registered",
		"name", name,
		"uri_template", def.URITemplate,
		"required_permissions", def.RequiredPermissions,
	)
}

// RegisterPrompt upserts a prompt definition keyed by its normalized name.
func (r *Registry) RegisterPrompt(def PromptDefinition) {
	name := def.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.prompts[name]; exists {
		r.logger.Warn("overwriting existing prompt registration", "name", name)
	}
	r.prompts[name] = def

	r.logger.Debug("prompt registered", "name", name)
}

// authorized is the single authorization predicate used for every capability
// kind: a definition is visible when it requires no permissions, or when the
// caller holds at least one of the required permissions.
func authorized(required, held []string) bool {
	if len(required) == 0 {
		return true
	}
	for _, want := range required {
		for _, have := range held {
			if want == have {
				return true
			}
		}
	}
	return false
}

// AuthorizedTools returns the tools visible to a caller with the given
// permission set, in stable name order. Missing permission means omission,
// never an error.
func (r *Registry) AuthorizedTools(permissions []string) []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ToolDefinition, 0, len(r.tools))
	for _, def := range r.tools {
		if authorized(def.RequiredPermissions, permissions) {
			result = append(result, def)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// AuthorizedResources returns the direct resources visible to a caller, in
// stable URI order.
func (r *Registry) AuthorizedResources(permissions []string) []ResourceDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ResourceDefinition, 0, len(r.resources))
	for _, def := range r.resources {
		if authorized(def.RequiredPermissions, permissions) {
			result = append(result, def)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].URI < result[j].URI })
	return result
}

// AuthorizedTemplates returns the resource templates visible to a caller, in
// stable name order.
func (r *Registry) AuthorizedTemplates(permissions []string) []ResourceTemplateDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ResourceTemplateDefinition, 0, len(r.templates))
	for _, def := range r.templates {
		if authorized(def.RequiredPermissions, permissions) {
			result = append(result, def)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// AuthorizedPrompts returns the prompts visible to a caller, in stable name
// order.
func (r *Registry) AuthorizedPrompts(permissions []string) []PromptDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]PromptDefinition, 0, len(r.prompts))
	for _, def := range r.prompts {
		if authorized(def.RequiredPermissions, permissions) {
			result = append(result, def)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// Counts reports how many definitions of each kind are registered.
func (r *Registry) Counts() (tools, resources, templates, prompts int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools), len(r.resources), len(r.templates), len(r.prompts)
}
