package mcp

import (
	"context"
	"errors"

	"mcp-gateway/internal/auth"
)

// ErrSamplingUnavailable is returned by transports that have no back-channel
// for nested protocol round-trips.
var ErrSamplingUnavailable = errors.New("sampling is not available on this transport")

// Sampler is the narrow contract for issuing a nested model-completion
// request through the calling agent.
type Sampler interface {
	CreateMessage(ctx context.Context, prompt string) (string, error)
}

// RequestContext is the explicit per-request value handed to every
// capability handler. It exposes only what the gateway guarantees: the
// session identity, its bound permissions, and the nested round-trip hook.
type RequestContext struct {
	SessionID string
	Identity  *auth.Identity
	Sampler   Sampler
}

// Permissions returns the caller's bound permission set. The set is captured
// at session creation and does not change for the session's lifetime.
func (rc *RequestContext) Permissions() []string {
	if rc == nil || rc.Identity == nil {
		return nil
	}
	return rc.Identity.Permissions
}

type requestContextKey struct{}

// WithRequestContext attaches a RequestContext to the context.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// RequestContextFrom extracts the RequestContext, if any.
func RequestContextFrom(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc, ok
}

type unavailableSampler struct{}

func (unavailableSampler) CreateMessage(context.Context, string) (string, error) {
	return "", ErrSamplingUnavailable
}

// UnavailableSampler returns a Sampler that declines every request.
func UnavailableSampler() Sampler {
	return unavailableSampler{}
}
