package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mcp-gateway/internal/config"
	"mcp-gateway/internal/logger"
)

const testSecret = "test-signing-secret"

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewDefault()
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return log
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":         "user-42",
		"iss":         "test-issuer",
		"aud":         "mcp-gateway",
		"exp":         time.Now().Add(time.Hour).Unix(),
		"email":       "user@example.com",
		"name":        "Test User",
		"roles":       []interface{}{"platform"},
		"permissions": []interface{}{"vault:read", "argocd:read"},
	}
}

func newTestResolver(t *testing.T) *JWTResolver {
	return NewJWTResolver(config.AuthConfig{
		Mode:     "jwt",
		Secret:   testSecret,
		Issuer:   "test-issuer",
		Audience: "mcp-gateway",
	}, testLogger(t))
}

func TestJWTResolverAcceptsValidToken(t *testing.T) {
	resolver := newTestResolver(t)

	identity, err := resolver.Resolve(context.Background(), signToken(t, testSecret, validClaims()))
	if err != nil {
		t.Fatalf("expected token accepted, got %v", err)
	}

	if identity.ID != "user-42" {
		t.Errorf("expected subject user-42, got %q", identity.ID)
	}
	if identity.Email != "user@example.com" {
		t.Errorf("unexpected email %q", identity.Email)
	}
	if len(identity.Permissions) != 2 || identity.Permissions[0] != "vault:read" {
		t.Errorf("unexpected permissions %v", identity.Permissions)
	}
}

func TestJWTResolverRejections(t *testing.T) {
	resolver := newTestResolver(t)

	tests := []struct {
		name   string
		bearer func(t *testing.T) string
	}{
		{"empty bearer", func(t *testing.T) string { return "" }},
		{"garbage bearer", func(t *testing.T) string { return "not.a.token" }},
		{"wrong secret", func(t *testing.T) string {
			return signToken(t, "other-secret", validClaims())
		}},
		{"wrong issuer", func(t *testing.T) string {
			claims := validClaims()
			claims["iss"] = "evil-issuer"
			return signToken(t, testSecret, claims)
		}},
		{"wrong audience", func(t *testing.T) string {
			claims := validClaims()
			claims["aud"] = "other-service"
			return signToken(t, testSecret, claims)
		}},
		{"expired", func(t *testing.T) string {
			claims := validClaims()
			claims["exp"] = time.Now().Add(-time.Hour).Unix()
			return signToken(t, testSecret, claims)
		}},
		{"missing expiry", func(t *testing.T) string {
			claims := validClaims()
			delete(claims, "exp")
			return signToken(t, testSecret, claims)
		}},
		{"missing subject", func(t *testing.T) string {
			claims := validClaims()
			delete(claims, "sub")
			return signToken(t, testSecret, claims)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolver.Resolve(context.Background(), tt.bearer(t))
			if err == nil {
				t.Fatal("expected rejection")
			}
			if !errors.Is(err, ErrUnauthenticated) {
				t.Errorf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func TestJWTResolverWithoutIssuerAudience(t *testing.T) {
	// When issuer/audience are not configured, they are not enforced.
	resolver := NewJWTResolver(config.AuthConfig{Mode: "jwt", Secret: testSecret}, testLogger(t))

	claims := jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	identity, err := resolver.Resolve(context.Background(), signToken(t, testSecret, claims))
	if err != nil {
		t.Fatalf("expected token accepted, got %v", err)
	}
	if identity.ID != "user-1" {
		t.Errorf("unexpected subject %q", identity.ID)
	}
}

func TestLocalResolver(t *testing.T) {
	resolver := NewLocalResolver(config.AuthConfig{
		Mode:             "local",
		LocalPermissions: []string{"vault:read"},
	}, testLogger(t))

	identity, err := resolver.Resolve(context.Background(), "ignored")
	if err != nil {
		t.Fatalf("local resolver must not fail: %v", err)
	}
	if identity.ID != "local-dev" {
		t.Errorf("unexpected identity %q", identity.ID)
	}
	if len(identity.Permissions) != 1 || identity.Permissions[0] != "vault:read" {
		t.Errorf("unexpected permissions %v", identity.Permissions)
	}
}

func TestNewResolverSelectsMode(t *testing.T) {
	log := testLogger(t)

	if _, ok := NewResolver(config.AuthConfig{Mode: "jwt", Secret: "s"}, log).(*JWTResolver); !ok {
		t.Error("expected JWT resolver for jwt mode")
	}
	if _, ok := NewResolver(config.AuthConfig{Mode: "local"}, log).(*LocalResolver); !ok {
		t.Error("expected local resolver for local mode")
	}
}
