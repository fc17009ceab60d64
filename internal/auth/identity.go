package auth

import (
	"context"
	"errors"
)

// Identity is the authenticated caller record produced by a Resolver.
type Identity struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// ErrUnauthenticated is returned when a credential is missing, malformed,
// expired, or otherwise rejected. Resolution failures are terminal for the
// request; callers must not retry.
var ErrUnauthenticated = errors.New("authentication required")

// Resolver turns a bearer credential into an identity and permission set.
//
// The gateway invokes a Resolver at most once per session-establishing
// request; the resulting permission list is the only input to capability
// filtering.
type Resolver interface {
	Resolve(ctx context.Context, bearer string) (*Identity, error)
}
