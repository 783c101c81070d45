package tenant_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenant"
)

func testTenant(slug string, active bool) *tenant.Tenant {
	return &tenant.Tenant{
		ID:        uuid.New(),
		Slug:      slug,
		Name:      "Iglesia " + slug,
		DBName:    "ekk_" + slug,
		Active:    active,
		CreatedAt: time.Now(),
	}
}

type countingProvider struct {
	calls   atomic.Int64
	tenants map[string]*tenant.Tenant
}

func (p *countingProvider) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	p.calls.Add(1)
	if t, ok := p.tenants[slug]; ok {
		return t, nil
	}
	return nil, tenant.ErrTenantNotFound
}

func echoTenant(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tn, ok := tenant.FromContext(r.Context()); ok {
			w.Header().Set("X-Resolved", tn.Slug)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("resolves and injects tenant", func(t *testing.T) {
		t.Parallel()
		provider := &countingProvider{tenants: map[string]*tenant.Tenant{
			"iglesia-central": testTenant("iglesia-central", true),
		}}
		h := tenant.Middleware(tenant.NewDefaultResolver(), provider)(echoTenant(t))

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.Header.Set("X-Tenant-ID", "iglesia-central")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "iglesia-central", rec.Header().Get("X-Resolved"))
	})

	t.Run("caches provider lookups", func(t *testing.T) {
		t.Parallel()
		provider := &countingProvider{tenants: map[string]*tenant.Tenant{
			"iglesia-central": testTenant("iglesia-central", true),
		}}
		h := tenant.Middleware(tenant.NewDefaultResolver(), provider)(echoTenant(t))

		for range 3 {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Tenant-ID", "iglesia-central")
			h.ServeHTTP(httptest.NewRecorder(), req)
		}
		assert.Equal(t, int64(1), provider.calls.Load())
	})

	t.Run("unknown tenant is 404", func(t *testing.T) {
		t.Parallel()
		provider := &countingProvider{tenants: map[string]*tenant.Tenant{}}
		h := tenant.Middleware(tenant.NewDefaultResolver(), provider)(echoTenant(t))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Tenant-ID", "nope")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("inactive tenant is 403", func(t *testing.T) {
		t.Parallel()
		provider := &countingProvider{tenants: map[string]*tenant.Tenant{
			"dormant": testTenant("dormant", false),
		}}
		h := tenant.Middleware(tenant.NewDefaultResolver(), provider)(echoTenant(t))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Tenant-ID", "dormant")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no signal passes through without tenant", func(t *testing.T) {
		t.Parallel()
		provider := &countingProvider{tenants: map[string]*tenant.Tenant{}}
		h := tenant.Middleware(tenant.NewDefaultResolver(), provider)(echoTenant(t))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "localhost"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Resolved"))
		assert.Zero(t, provider.calls.Load())
	})

	t.Run("skip paths bypass resolution", func(t *testing.T) {
		t.Parallel()
		provider := &countingProvider{tenants: map[string]*tenant.Tenant{}}
		h := tenant.Middleware(tenant.NewDefaultResolver(), provider,
			tenant.WithSkipPaths("/api/superadmin", "/api/health"),
		)(echoTenant(t))

		req := httptest.NewRequest(http.MethodGet, "/api/superadmin/tenants", nil)
		req.Header.Set("X-Tenant-ID", "ignored")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, provider.calls.Load())
	})
}

func TestRequireTenant(t *testing.T) {
	t.Parallel()

	h := tenant.RequireTenant(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing tenant is 400", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("present tenant passes", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(tenant.WithTenant(req.Context(), testTenant("x", true)))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	tn := testTenant("iglesia-central", true)
	ctx := tenant.WithTenant(context.Background(), tn)

	got, ok := tenant.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, tn, got)

	slugVal, ok := tenant.SlugFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "iglesia-central", slugVal)

	id, ok := tenant.IDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, tn.ID, id)

	_, ok = tenant.FromContext(context.Background())
	assert.False(t, ok)
	assert.Panics(t, func() { tenant.MustFromContext(context.Background()) })

	attr, ok := tenant.LoggerExtractor()(ctx)
	require.True(t, ok)
	assert.Equal(t, "tenant", attr.Key)
	assert.Equal(t, "iglesia-central", attr.Value.String())
}
