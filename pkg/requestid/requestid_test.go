package requestid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/requestid"
)

func roundtrip(t *testing.T, incoming string) (ctxID, respID string) {
	t.Helper()
	h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = requestid.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if incoming != "" {
		req.Header.Set(requestid.Header, incoming)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return ctxID, rec.Header().Get(requestid.Header)
}

func TestMiddleware(t *testing.T) {
	t.Run("generates when absent", func(t *testing.T) {
		ctxID, respID := roundtrip(t, "")
		require.NotEmpty(t, ctxID)
		assert.Equal(t, ctxID, respID)
		_, err := uuid.Parse(ctxID)
		assert.NoError(t, err)
	})

	t.Run("keeps well-formed caller id", func(t *testing.T) {
		ctxID, respID := roundtrip(t, "trace-abc_123")
		assert.Equal(t, "trace-abc_123", ctxID)
		assert.Equal(t, "trace-abc_123", respID)
	})

	t.Run("replaces malformed id", func(t *testing.T) {
		ctxID, _ := roundtrip(t, "bad id\nwith newline")
		assert.NotEqual(t, "bad id\nwith newline", ctxID)
		_, err := uuid.Parse(ctxID)
		assert.NoError(t, err)
	})
}

func TestLoggerExtractor(t *testing.T) {
	extract := requestid.LoggerExtractor()

	_, ok := extract(context.Background())
	assert.False(t, ok)

	attr, ok := extract(requestid.WithRequestID(context.Background(), "abc"))
	require.True(t, ok)
	assert.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "abc", attr.Value.String())
}
