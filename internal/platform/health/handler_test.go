package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLiveness(t *testing.T) {
	rec := serve(New("test", "did:example:issuer"), "/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Run("all up", func(t *testing.T) {
		h := New("test", "did:example:issuer")
		h.RegisterCheck("registry", func(context.Context) error { return nil })
		h.RegisterCheck("challenge", func(context.Context) error { return nil })

		rec := serve(h, "/health/ready")
		assert.Equal(t, http.StatusOK, rec.Code)

		var body ReadinessResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ready", body.Status)
		assert.Equal(t, map[string]string{"registry": "up", "challenge": "up"}, body.Checks)
		assert.Equal(t, []string{"challenge", "registry"}, h.CheckNames())
	})

	t.Run("one down", func(t *testing.T) {
		h := New("test", "did:example:issuer")
		h.RegisterCheck("registry", func(context.Context) error { return nil })
		h.RegisterCheck("content", func(context.Context) error { return errors.New("connection refused") })

		rec := serve(h, "/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body ReadinessResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "not_ready", body.Status)
		assert.Equal(t, "down: connection refused", body.Checks["content"])
	})

	t.Run("slow check is bounded", func(t *testing.T) {
		h := New("test", "did:example:issuer")
		h.checkTimeout = 20 * time.Millisecond
		h.RegisterCheck("kafka", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})

		rec := serve(h, "/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestStatus(t *testing.T) {
	rec := serve(New("staging", "did:example:issuer"), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "staging", body.Environment)
	assert.Equal(t, "did:example:issuer", body.Issuer)
	assert.Equal(t, Version, body.Version)
}
