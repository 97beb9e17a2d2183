// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitmoney/habit-ledger/internal/config"
	"github.com/habitmoney/habit-ledger/internal/core"
)

type issuer struct {
	private jwk.Key
	pem     []byte
}

func newIssuer(t *testing.T) *issuer {
	t.Helper()

	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	private, err := jwk.Import(raw)
	require.NoError(t, err)
	require.NoError(t, private.Set(jwk.AlgorithmKey, jwa.ES256()))

	public, err := private.PublicKey()
	require.NoError(t, err)

	pem, err := jwk.Pem(public)
	require.NoError(t, err)

	return &issuer{private: private, pem: pem}
}

func (i *issuer) sign(t *testing.T, build func(b *jwt.Builder) *jwt.Builder) string {
	t.Helper()

	now := time.Now()
	b := jwt.NewBuilder().
		Issuer("habit-money").
		Audience([]string{"habit-ledger-api"}).
		IssuedAt(now).
		Expiration(now.Add(15 * time.Minute))

	token, err := build(b).Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), i.private))
	require.NoError(t, err)
	return string(signed)
}

var testJWTConfig = config.JWTConfig{
	Enabled:  true,
	Issuer:   "habit-money",
	Audience: "habit-ledger-api",
}

func TestVerifyAccessToken(t *testing.T) {
	iss := newIssuer(t)
	v, err := NewVerifierFromPEM(iss.pem, testJWTConfig)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("user token", func(t *testing.T) {
		tok := iss.sign(t, func(b *jwt.Builder) *jwt.Builder {
			return b.Subject("u1")
		})
		claims, err := v.VerifyAccessToken(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID)
		assert.Empty(t, claims.Role)
	})

	t.Run("admin token", func(t *testing.T) {
		tok := iss.sign(t, func(b *jwt.Builder) *jwt.Builder {
			return b.Subject("ops").Claim("role", "admin")
		})
		claims, err := v.VerifyAccessToken(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Role)
	})

	t.Run("expired", func(t *testing.T) {
		tok := iss.sign(t, func(b *jwt.Builder) *jwt.Builder {
			return b.Subject("u1").Expiration(time.Now().Add(-time.Hour))
		})
		_, err := v.VerifyAccessToken(ctx, tok)
		assert.ErrorIs(t, err, core.ErrTokenExpired)
	})

	t.Run("missing subject", func(t *testing.T) {
		tok := iss.sign(t, func(b *jwt.Builder) *jwt.Builder { return b })
		_, err := v.VerifyAccessToken(ctx, tok)
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})

	t.Run("wrong audience", func(t *testing.T) {
		tok := iss.sign(t, func(b *jwt.Builder) *jwt.Builder {
			return b.Subject("u1").Audience([]string{"someone-else"})
		})
		_, err := v.VerifyAccessToken(ctx, tok)
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})

	t.Run("foreign key", func(t *testing.T) {
		other := newIssuer(t)
		tok := other.sign(t, func(b *jwt.Builder) *jwt.Builder {
			return b.Subject("u1")
		})
		_, err := v.VerifyAccessToken(ctx, tok)
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.VerifyAccessToken(ctx, "not.a.token")
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})
}

func TestNewVerifier_ReadsFile(t *testing.T) {
	iss := newIssuer(t)
	path := filepath.Join(t.TempDir(), "public.pem")
	require.NoError(t, os.WriteFile(path, iss.pem, 0o600))

	cfg := testJWTConfig
	cfg.PublicKeyPath = path

	v, err := NewVerifier(cfg)
	require.NoError(t, err)
	assert.Len(t, v.KeyID(), 16)

	cfg.PublicKeyPath = filepath.Join(t.TempDir(), "missing.pem")
	_, err = NewVerifier(cfg)
	assert.Error(t, err)
}

func TestJWKSHandler(t *testing.T) {
	iss := newIssuer(t)
	v, err := NewVerifierFromPEM(iss.pem, testJWTConfig)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	v.JWKSHandler()(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Keys []map[string]any `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Keys, 1)
	assert.Equal(t, v.KeyID(), body.Keys[0]["kid"])
	assert.Equal(t, "ES256", body.Keys[0]["alg"])
	assert.NotContains(t, body.Keys[0], "d")
}
