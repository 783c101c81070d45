package tenant

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// ErrorHandler converts tenant resolution failures into HTTP responses.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type middlewareConfig struct {
	cache        Cache
	cacheTTL     time.Duration
	errorHandler ErrorHandler
	skipPaths    []string
}

// Option configures the tenant middleware.
type Option func(*middlewareConfig)

// WithCache replaces the default in-memory tenant cache.
func WithCache(c Cache) Option {
	return func(cfg *middlewareConfig) {
		if c != nil {
			cfg.cache = c
		}
	}
}

// WithCacheTTL sets how long resolved tenants stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(cfg *middlewareConfig) {
		if ttl > 0 {
			cfg.cacheTTL = ttl
		}
	}
}

// WithErrorHandler replaces the default error responder.
func WithErrorHandler(h ErrorHandler) Option {
	return func(cfg *middlewareConfig) {
		if h != nil {
			cfg.errorHandler = h
		}
	}
}

// WithSkipPaths lists path prefixes that bypass tenant resolution entirely
// (health checks, the super-admin control plane).
func WithSkipPaths(paths ...string) Option {
	return func(cfg *middlewareConfig) {
		cfg.skipPaths = append(cfg.skipPaths, paths...)
	}
}

// Middleware resolves the tenant for each request and injects it into the
// request context. Requests with no tenant signal pass through without a
// tenant; routes that need one are guarded by RequireTenant further down
// the chain.
func Middleware(resolver Resolver, provider Provider, opts ...Option) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		cache:        NewMemoryCache(),
		cacheTTL:     5 * time.Minute,
		errorHandler: DefaultErrorHandler,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			slug, err := resolver.Resolve(r)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			if slug == "" {
				next.ServeHTTP(w, r)
				return
			}

			if cached, ok := cfg.cache.Get(r.Context(), slug); ok {
				if !cached.Active {
					cfg.errorHandler(w, r, ErrInactiveTenant)
					return
				}
				next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), cached)))
				return
			}

			t, err := provider.GetBySlug(r.Context(), slug)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			if !t.Active {
				cfg.errorHandler(w, r, ErrInactiveTenant)
				return
			}

			cfg.cache.Set(r.Context(), slug, t, cfg.cacheTTL)
			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), t)))
		})
	}
}

// RequireTenant rejects requests that reached a tenant-scoped route without
// a resolved tenant.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = DefaultErrorHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); !ok {
				errorHandler(w, r, ErrTenantNotConfigured)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DefaultErrorHandler maps resolution errors onto plain HTTP statuses.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTenantNotFound):
		http.Error(w, "tenant not found", http.StatusNotFound)
	case errors.Is(err, ErrInactiveTenant):
		http.Error(w, "tenant is inactive", http.StatusForbidden)
	case errors.Is(err, ErrTenantNotConfigured):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
