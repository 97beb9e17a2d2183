// AngelaMos | 2026
// middleware_test.go

package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitmoney/habit-ledger/internal/core"
)

type stubVerifier struct {
	claims *AccessTokenClaims
	err    error
}

func (s stubVerifier) VerifyAccessToken(
	_ context.Context,
	_ string,
) (*AccessTokenClaims, error) {
	return s.claims, s.err
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticator(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		verifier stubVerifier
		want     int
	}{
		{"no header", "", stubVerifier{}, http.StatusUnauthorized},
		{"not bearer", "Basic abc", stubVerifier{}, http.StatusUnauthorized},
		{
			"expired",
			"Bearer t",
			stubVerifier{err: fmt.Errorf("verify: %w", core.ErrTokenExpired)},
			http.StatusUnauthorized,
		},
		{
			"invalid",
			"Bearer t",
			stubVerifier{err: errors.New("bad signature")},
			http.StatusUnauthorized,
		},
		{
			"valid",
			"bearer t",
			stubVerifier{claims: &AccessTokenClaims{UserID: "u1"}},
			http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := serve(Authenticator(tt.verifier)(okHandler), req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAuthenticator_ExpiredCode(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer t")

	h := Authenticator(stubVerifier{err: core.ErrTokenExpired})(okHandler)
	rec := serve(h, req)
	assert.Contains(t, rec.Body.String(), "TOKEN_EXPIRED")
}

func withClaims(r *http.Request, userID, role string) *http.Request {
	ctx := context.WithValue(r.Context(), ClaimsKey,
		&AccessTokenClaims{UserID: userID, Role: role})
	return r.WithContext(ctx)
}

func TestCanActAs(t *testing.T) {
	ctx := context.Background()
	assert.False(t, CanActAs(ctx, "u1"))

	user := context.WithValue(ctx, ClaimsKey, &AccessTokenClaims{UserID: "u1"})
	assert.True(t, CanActAs(user, "u1"))
	assert.False(t, CanActAs(user, "u2"))
	assert.False(t, IsAdmin(user))

	admin := context.WithValue(ctx, ClaimsKey,
		&AccessTokenClaims{UserID: "ops", Role: RoleAdmin})
	assert.True(t, CanActAs(admin, "u2"))
	assert.True(t, IsAdmin(admin))

	open := context.WithValue(ctx, OpenAccessKey, true)
	assert.True(t, CanActAs(open, "anyone"))
	assert.True(t, IsAdmin(open))
}

func TestRequireSelf(t *testing.T) {
	r := chi.NewRouter()
	r.With(RequireSelf("userID")).Get("/balance/{userID}", okHandler)

	req := withClaims(httptest.NewRequest(http.MethodGet, "/balance/u1", nil), "u1", "")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	req = withClaims(httptest.NewRequest(http.MethodGet, "/balance/u2", nil), "u1", "")
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)

	req = withClaims(httptest.NewRequest(http.MethodGet, "/balance/u2", nil), "ops", RoleAdmin)
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin(okHandler)

	req := withClaims(httptest.NewRequest(http.MethodGet, "/", nil), "u1", "")
	assert.Equal(t, http.StatusForbidden, serve(h, req).Code)

	req = withClaims(httptest.NewRequest(http.MethodGet, "/", nil), "ops", RoleAdmin)
	assert.Equal(t, http.StatusOK, serve(h, req).Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := serve(h, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
}

func TestRateLimiter_LocalBuckets(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{
		Limit: PerWindow(2, 2, time.Minute),
	})
	h := rl.Handler(okHandler)

	for i := 0; i < 2; i++ {
		req := withClaims(httptest.NewRequest(http.MethodGet, "/", nil), "u1", "")
		rec := serve(h, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	req := withClaims(httptest.NewRequest(http.MethodGet, "/", nil), "u1", "")
	rec := serve(h, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")

	req = withClaims(httptest.NewRequest(http.MethodGet, "/", nil), "u2", "")
	assert.Equal(t, http.StatusOK, serve(h, req).Code, "buckets are per caller")
}

func TestKeyByCaller(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	assert.Equal(t, "ratelimit:ip:10.0.0.7", KeyByCaller(req))

	req.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2")
	assert.Equal(t, "ratelimit:ip:2.2.2.2", KeyByCaller(req))

	req = withClaims(req, "u9", "")
	assert.Equal(t, "ratelimit:user:u9", KeyByCaller(req))
}

func TestSecurityHeaders(t *testing.T) {
	rec := serve(SecurityHeaders(true)(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = serve(SecurityHeaders(false)(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}
