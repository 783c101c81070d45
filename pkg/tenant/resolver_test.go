package tenant_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenant"
)

func newRequest(t *testing.T, host, target string, header map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if host != "" {
		req.Host = host
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	return req
}

func TestSubdomainResolver(t *testing.T) {
	t.Parallel()
	resolver := tenant.NewSubdomainResolver()

	cases := []struct {
		name string
		host string
		want string
	}{
		{"three labels", "iglesia-central.ekklesia.app", "iglesia-central"},
		{"with port", "iglesia-central.ekklesia.app:8443", "iglesia-central"},
		{"four labels", "acme.eu.ekklesia.app", "acme"},
		{"two labels never resolve", "ekklesia.app", ""},
		{"localhost", "localhost", ""},
		{"localhost with port", "localhost:8080", ""},
		{"reserved www", "www.ekklesia.app", ""},
		{"reserved api", "api.ekklesia.app", ""},
		{"reserved admin", "admin.ekklesia.app", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := resolver.Resolve(newRequest(t, tc.host, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHeaderResolver(t *testing.T) {
	t.Parallel()
	resolver := tenant.NewHeaderResolver()

	got, err := resolver.Resolve(newRequest(t, "", "/", map[string]string{
		"X-Tenant-ID": "iglesia-central",
	}))
	require.NoError(t, err)
	assert.Equal(t, "iglesia-central", got)

	got, err = resolver.Resolve(newRequest(t, "", "/", nil))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQueryResolver(t *testing.T) {
	t.Parallel()
	resolver := tenant.NewQueryResolver()

	got, err := resolver.Resolve(newRequest(t, "", "/api/users?tenant=dev-church", nil))
	require.NoError(t, err)
	assert.Equal(t, "dev-church", got)
}

func TestDefaultResolverPrecedence(t *testing.T) {
	t.Parallel()
	resolver := tenant.NewDefaultResolver()

	t.Run("header beats subdomain and query", func(t *testing.T) {
		t.Parallel()
		req := newRequest(t, "other-church.ekklesia.app", "/?tenant=third-church", map[string]string{
			"X-Tenant-ID": "iglesia-central",
		})
		got, err := resolver.Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "iglesia-central", got)
	})

	t.Run("subdomain beats query", func(t *testing.T) {
		t.Parallel()
		req := newRequest(t, "other-church.ekklesia.app", "/?tenant=third-church", nil)
		got, err := resolver.Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "other-church", got)
	})

	t.Run("query as last resort", func(t *testing.T) {
		t.Parallel()
		req := newRequest(t, "localhost:8080", "/?tenant=dev-church", nil)
		got, err := resolver.Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "dev-church", got)
	})

	t.Run("no signal", func(t *testing.T) {
		t.Parallel()
		req := newRequest(t, "localhost", "/", nil)
		got, err := resolver.Resolve(req)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
