// Package auth verifies bearer tokens and carries the caller's identity in the
// request context. Token issuance happens elsewhere.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// ClaimsKey is the context key for storing verified claims.
const ClaimsKey contextKey = "claims"

// Claims are the token claims nutridive reads. The user id is the standard
// subject; tokens that carry a user_id claim instead are accepted too.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
}

// ID returns the caller's user id.
func (c *Claims) ID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.UserID
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetClaims retrieves claims from the request context.
// Returns nil and false if the caller is anonymous.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok && claims != nil
}

// GetUserIDFromContext returns the caller's user id, or "" when anonymous.
func GetUserIDFromContext(ctx context.Context) string {
	claims, ok := GetClaims(ctx)
	if !ok {
		return ""
	}
	return claims.ID()
}
