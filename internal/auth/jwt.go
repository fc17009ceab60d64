package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"mcp-gateway/internal/config"
	"mcp-gateway/internal/logger"
)

// JWTResolver validates HMAC-signed bearer tokens and maps their claims to
// an Identity. Issuer, audience, and time-based claims are enforced; any
// validation failure resolves to ErrUnauthenticated.
type JWTResolver struct {
	secret   []byte
	issuer   string
	audience string
	logger   *logger.Logger
}

// NewJWTResolver creates a resolver from auth configuration.
func NewJWTResolver(cfg config.AuthConfig, log *logger.Logger) *JWTResolver {
	return &JWTResolver{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		logger:   log,
	}
}

// Resolve implements Resolver.
func (r *JWTResolver) Resolve(_ context.Context, bearer string) (*Identity, error) {
	if bearer == "" {
		return nil, fmt.Errorf("%w: no bearer token provided", ErrUnauthenticated)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	}
	if r.issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.issuer))
	}
	if r.audience != "" {
		opts = append(opts, jwt.WithAudience(r.audience))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(bearer, claims, func(_ *jwt.Token) (interface{}, error) {
		return r.secret, nil
	}, opts...)
	if err != nil {
		r.logger.Warn("bearer token rejected", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: token invalid", ErrUnauthenticated)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}

	identity := &Identity{
		ID:          subject,
		Email:       stringClaim(claims, "email"),
		Name:        stringClaim(claims, "name"),
		Roles:       stringSliceClaim(claims, "roles"),
		Permissions: stringSliceClaim(claims, "permissions"),
	}

	r.logger.Debug("resolved identity from bearer token",
		"subject", identity.ID,
		"permissions", len(identity.Permissions),
	)

	return identity, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if value, ok := claims[key].(string); ok {
		return value
	}
	return ""
}

func stringSliceClaim(claims jwt.MapClaims, key string) []string {
	raw, ok := claims[key].([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}
