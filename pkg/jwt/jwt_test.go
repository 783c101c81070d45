package jwt_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/jwt"
)

func newService(t *testing.T) *jwt.Service {
	t.Helper()
	svc, err := jwt.NewService(jwt.Config{
		SigningKey: "test-signing-key-0123456789abcdef",
		Issuer:     "ekklesia-test",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	require.NoError(t, err)
	return svc
}

func TestNewService(t *testing.T) {
	t.Parallel()

	_, err := jwt.NewService(jwt.Config{})
	require.ErrorIs(t, err, jwt.ErrMissingSigningKey)
}

func TestPairRoundTrip(t *testing.T) {
	t.Parallel()
	svc := newService(t)

	pair, err := svc.Pair("42", "admin")
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)

	access, err := svc.Parse(pair.AccessToken, jwt.ScopeAccess)
	require.NoError(t, err)
	assert.Equal(t, "42", access.Subject)
	assert.Equal(t, "admin", access.Role)
	assert.Equal(t, jwt.ScopeAccess, access.Scope)

	refresh, err := svc.Parse(pair.RefreshToken, jwt.ScopeRefresh)
	require.NoError(t, err)
	assert.Equal(t, jwt.ScopeRefresh, refresh.Scope)
}

func TestParseRejectsWrongScope(t *testing.T) {
	t.Parallel()
	svc := newService(t)

	pair, err := svc.Pair("42", "member")
	require.NoError(t, err)

	// A refresh token must never authenticate a request.
	_, err = svc.Parse(pair.RefreshToken, jwt.ScopeAccess)
	require.ErrorIs(t, err, jwt.ErrInvalidScope)
}

func TestParseRejectsForeignKey(t *testing.T) {
	t.Parallel()
	svc := newService(t)

	other, err := jwt.NewService(jwt.Config{SigningKey: "another-key-another-key-another!"})
	require.NoError(t, err)

	token, err := other.Generate("42", "admin", jwt.ScopeAccess)
	require.NoError(t, err)

	_, err = svc.Parse(token, jwt.ScopeAccess)
	require.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	svc := newService(t)

	var gotSubject string
	handler := jwt.Middleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = jwt.SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid token", func(t *testing.T) {
		token, err := svc.Generate("7", "member", jwt.ScopeAccess)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "7", gotSubject)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("refresh token rejected", func(t *testing.T) {
		token, err := svc.Generate("7", "member", jwt.ScopeRefresh)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	t.Parallel()
	svc := newService(t)

	chain := func(role string) *httptest.ResponseRecorder {
		token, err := svc.Generate("1", role, jwt.ScopeAccess)
		require.NoError(t, err)

		h := jwt.Middleware(svc)(jwt.RequireRole("admin", "accountant")(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, chain("admin").Code)
	assert.Equal(t, http.StatusOK, chain("accountant").Code)
	assert.Equal(t, http.StatusForbidden, chain("member").Code)
}
