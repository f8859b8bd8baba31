package auth

import (
	"context"

	"github.com/billed/bill-review/internal/application/port"
	"github.com/billed/bill-review/internal/domain/entity"
	"github.com/billed/bill-review/internal/domain/visibility"
)

type contextKey string

const claimsKey contextKey = "claims"

// WithClaims stores validated claims in ctx
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims stored by WithClaims, or nil
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}

// ViewerFor maps claims to a ViewerContext. Only a human admin session
// counts as a genuine reviewer.
func ViewerFor(claims *Claims) visibility.ViewerContext {
	if claims == nil {
		return visibility.Anonymous
	}
	return visibility.ViewerContext{
		Email:     claims.Email,
		Reviewing: claims.Role == entity.RoleAdmin && !claims.Automated,
	}
}

// ContextResolver implements port.ViewerResolver from request context
type ContextResolver struct{}

// Viewer returns the viewer of the claims carried by ctx
func (ContextResolver) Viewer(ctx context.Context) visibility.ViewerContext {
	return ViewerFor(ClaimsFromContext(ctx))
}

var _ port.ViewerResolver = ContextResolver{}
