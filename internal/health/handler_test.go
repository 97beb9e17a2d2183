// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var (
	healthy = pingFunc(func(context.Context) error { return nil })
	broken  = pingFunc(func(context.Context) error { return errors.New("refused") })
)

func ready(t *testing.T, h *Handler) (int, ReadinessResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestReadiness(t *testing.T) {
	t.Run("all healthy", func(t *testing.T) {
		h := NewHandler("1.0.0",
			Check{Name: "database", Checker: healthy},
			Check{Name: "redis", Optional: true},
		)
		code, body := ready(t, h)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body.Status)
		require.Len(t, body.Checks, 1, "unconfigured checks are skipped")
		assert.Equal(t, "database", body.Checks[0].Name)
	})

	t.Run("optional failure degrades", func(t *testing.T) {
		h := NewHandler("1.0.0",
			Check{Name: "database", Checker: healthy},
			Check{Name: "redis", Checker: broken, Optional: true},
		)
		code, body := ready(t, h)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "degraded", body.Status)
		assert.Equal(t, "refused", body.Checks[1].Error)
	})

	t.Run("required failure is unavailable", func(t *testing.T) {
		h := NewHandler("1.0.0",
			Check{Name: "database", Checker: broken},
			Check{Name: "redis", Checker: broken, Optional: true},
		)
		code, body := ready(t, h)

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unavailable", body.Status)
	})

	t.Run("not ready", func(t *testing.T) {
		h := NewHandler("1.0.0")
		h.SetReady(false)

		code, body := ready(t, h)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "not_ready", body.Status)
	})
}

func TestShutdownFailsBothProbes(t *testing.T) {
	h := NewHandler("1.0.0", Check{Name: "database", Checker: healthy})
	h.SetShutdown(true)

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "shutting_down")

	code, _ := ready(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestLivenessReportsVersion(t *testing.T) {
	h := NewHandler("2.3.4")

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body LivenessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2.3.4", body.Version)
}
