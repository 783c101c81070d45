package tenant

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// contextKey is private to prevent collisions with other packages' keys.
type contextKey struct{}

// WithTenant returns a context carrying the resolved tenant. The value is
// request-scoped; nothing in this package keeps ambient tenant state.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext retrieves the tenant placed by the middleware.
func FromContext(ctx context.Context) (*Tenant, bool) {
	t, ok := ctx.Value(contextKey{}).(*Tenant)
	return t, ok && t != nil
}

// MustFromContext retrieves the tenant or panics. Only for handlers mounted
// behind RequireTenant, where absence is a programming error.
func MustFromContext(ctx context.Context) *Tenant {
	t, ok := FromContext(ctx)
	if !ok {
		panic("tenant: no tenant in context")
	}
	return t
}

// IDFromContext returns just the tenant ID.
func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	t, ok := FromContext(ctx)
	if !ok {
		return uuid.UUID{}, false
	}
	return t.ID, true
}

// SlugFromContext returns just the tenant slug.
func SlugFromContext(ctx context.Context) (string, bool) {
	t, ok := FromContext(ctx)
	if !ok {
		return "", false
	}
	return t.Slug, true
}

// LoggerExtractor enriches log records with the tenant slug when present.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if slug, ok := SlugFromContext(ctx); ok {
			return slog.String("tenant", slug), true
		}
		return slog.Attr{}, false
	}
}
