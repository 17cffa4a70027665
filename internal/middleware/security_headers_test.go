package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func applyHeaders(t *testing.T, env string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	handler := SecurityHeaders(SecurityHeadersConfig{Env: env})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSecurityHeaders_BaseSet(t *testing.T) {
	rec := applyHeaders(t, "development", nil)

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
}

func TestSecurityHeaders_NoHSTSInDevelopment(t *testing.T) {
	rec := applyHeaders(t, "development", nil)
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestSecurityHeaders_HSTSBehindTLSProxy(t *testing.T) {
	rec := applyHeaders(t, "production", func(r *http.Request) {
		r.Header.Set("X-Forwarded-Proto", "https")
	})
	assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=31536000")
}

func TestSecurityHeaders_NoHSTSOverPlainHTTP(t *testing.T) {
	rec := applyHeaders(t, "production", nil)
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}
