package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Rrens/kb-assistant/internal/api/response"
	"github.com/Rrens/kb-assistant/internal/security"
)

type contextKey string

const claimsKey contextKey = "claims"

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateAccessToken(token string) (*security.Claims, error)
}

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	validator TokenValidator
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Authenticate validates the JWT token
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(w, "invalid authorization header format")
			return
		}

		claims, err := m.validator.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireRole rejects authenticated callers whose role fails allowed
func RequireRole(allowed func(role string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				response.Unauthorized(w, "unauthorized")
				return
			}
			if !allowed(claims.Role) {
				response.Forbidden(w, "role "+claims.Role+" may not perform this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClaims gets the token claims from context
func GetClaims(ctx context.Context) (*security.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*security.Claims)
	return claims, ok
}

// WithClaims stores claims in ctx
func WithClaims(ctx context.Context, claims *security.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}
