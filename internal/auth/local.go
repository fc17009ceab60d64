package auth

import (
	"context"

	"mcp-gateway/internal/config"
	"mcp-gateway/internal/logger"
)

// LocalResolver is the development bypass: every caller resolves to a fixed
// identity carrying the configured permission set, regardless of credential.
// It must never be enabled outside local development.
type LocalResolver struct {
	permissions []string
	logger      *logger.Logger
}

// NewLocalResolver creates the development resolver.
func NewLocalResolver(cfg config.AuthConfig, log *logger.Logger) *LocalResolver {
	return &LocalResolver{
		permissions: cfg.LocalPermissions,
		logger:      log,
	}
}

// Resolve implements Resolver.
func (r *LocalResolver) Resolve(_ context.Context, _ string) (*Identity, error) {
	r.logger.Debug("local auth mode: granting development identity",
		"permissions", r.permissions,
	)
	return &Identity{
		ID:          "local-dev",
		Email:       "dev@localhost",
		Name:        "Local Developer",
		Roles:       []string{"developer"},
		Permissions: append([]string(nil), r.permissions...),
	}, nil
}

// NewResolver selects the resolver implementation for the configured mode.
func NewResolver(cfg config.AuthConfig, log *logger.Logger) Resolver {
	if cfg.Mode == "jwt" {
		return NewJWTResolver(cfg, log)
	}
	return NewLocalResolver(cfg, log)
}
