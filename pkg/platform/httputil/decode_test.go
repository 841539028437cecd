package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "idverse/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type revokeBody struct {
	CredentialID string `json:"credential_id"`
	Reason       string `json:"reason"`
	normalized   bool
}

func (r *revokeBody) Normalize() {
	r.CredentialID = strings.TrimSpace(r.CredentialID)
	r.normalized = true
}

func (r *revokeBody) Validate() error {
	if r.CredentialID == "" {
		return errors.New("credential_id is required")
	}
	return nil
}

type domainValidated struct {
	Kind string `json:"kind"`
}

func (r *domainValidated) Validate() error {
	return dErrors.New(dErrors.CodeInvalidType, "unsupported kind")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestDecodeAndPrepare(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes and validates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"credential_id":"  vc_1 ","reason":"lost"}`))
		w := httptest.NewRecorder()

		got, ok := DecodeAndPrepare[revokeBody](w, req, discardLogger(), ctx, "req-1")
		require.True(t, ok)
		assert.Equal(t, "vc_1", got.CredentialID)
		assert.True(t, got.normalized)
	})

	t.Run("plain validation error becomes validation_error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"credential_id":"   "}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[revokeBody](w, req, discardLogger(), ctx, "req-2")
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_error", decodeBody(t, w)["error"])
	})

	t.Run("domain validation error keeps its code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"kind":"x"}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[domainValidated](w, req, discardLogger(), ctx, "req-3")
		require.False(t, ok)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "invalid_type", decodeBody(t, w)["error"])
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[revokeBody](w, req, discardLogger(), ctx, "req-4")
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid request body", decodeBody(t, w)["error_description"])
	})

	t.Run("oversized body", func(t *testing.T) {
		big := `{"credential_id":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[revokeBody](w, req, discardLogger(), ctx, "req-5")
		require.False(t, ok)
		assert.Equal(t, "request body too large", decodeBody(t, w)["error_description"])
	})

	t.Run("free-form numbers keep their literal", func(t *testing.T) {
		type claimsBody struct {
			Claims map[string]any `json:"claims"`
		}
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"claims":{"nationalId":9007199254740993}}`))
		w := httptest.NewRecorder()

		got, ok := DecodeJSON[claimsBody](w, req, discardLogger(), ctx, "req-6")
		require.True(t, ok)
		assert.Equal(t, json.Number("9007199254740993"), got.Claims["nationalId"])
	})
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{dErrors.New(dErrors.CodeNotFound, "missing"), http.StatusNotFound, "not_found"},
		{dErrors.New(dErrors.CodeAlreadyRevoked, "twice"), http.StatusConflict, "already_revoked"},
		{dErrors.New(dErrors.CodeDuplicateRegistration, "dup"), http.StatusConflict, "duplicate_registration"},
		{dErrors.New(dErrors.CodeStorageUnavailable, "down"), http.StatusServiceUnavailable, "storage_unavailable"},
		{dErrors.New(dErrors.CodeRegistryUnavailable, "down"), http.StatusServiceUnavailable, "registry_unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		WriteError(w, tc.err)
		assert.Equal(t, tc.status, w.Code)
		assert.Equal(t, tc.code, decodeBody(t, w)["error"])
	}
}
