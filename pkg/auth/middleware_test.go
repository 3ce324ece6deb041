package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nutridive/nutridive/pkg/testhelpers"
)

func newTestMiddleware(t *testing.T) *Middleware {
	return NewMiddleware(hsValidator(t), zaptest.NewLogger(t))
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("user=" + GetUserIDFromContext(r.Context())))
}

func TestOptionalAuth(t *testing.T) {
	m := newTestMiddleware(t)
	handler := m.OptionalAuth(echoUser)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", "user="},
		{"valid token", testhelpers.GenerateTestJWTWithBearer("user-1", ""), "user=user-1"},
		{"lowercase scheme", "bearer " + testhelpers.GenerateTestJWT("user-2", ""), "user=user-2"},
		{"invalid token stays anonymous", "Bearer not-a-token", "user="},
		{"basic auth ignored", "Basic dXNlcjpwYXNz", "user="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/analysis/123", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestRequireAuth(t *testing.T) {
	m := newTestMiddleware(t)
	handler := m.RequireAuth(echoUser)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", testhelpers.GenerateTestJWTWithBearer("user-1", ""))
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user=user-1", rec.Body.String())

	for _, header := range []string{"", "Bearer ", "Bearer garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "unauthorized", body["error"])
	}
}
