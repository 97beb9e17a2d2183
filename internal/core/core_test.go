// AngelaMos | 2026
// core_test.go

package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = RetryPolicy{
	MaxAttempts:     3,
	InitialInterval: time.Millisecond,
	MaxInterval:     2 * time.Millisecond,
}

func TestRetryOnConflict(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after conflicts", func(t *testing.T) {
		calls := 0
		err := RetryOnConflict(ctx, fastRetry, func() error {
			calls++
			if calls < 3 {
				return fmt.Errorf("commit: %w", ErrTransactionConflict)
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausted becomes unavailable", func(t *testing.T) {
		calls := 0
		err := RetryOnConflict(ctx, fastRetry, func() error {
			calls++
			return ErrTransactionConflict
		})
		assert.Equal(t, 3, calls)
		assert.ErrorIs(t, err, ErrStoreUnavailable)
		assert.ErrorIs(t, err, ErrTransactionConflict)
	})

	t.Run("other errors stop at once", func(t *testing.T) {
		boom := errors.New("constraint")
		calls := 0
		err := RetryOnConflict(ctx, fastRetry, func() error {
			calls++
			return boom
		})
		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrStoreUnavailable)
	})

	t.Run("zero attempts runs once", func(t *testing.T) {
		calls := 0
		_ = RetryOnConflict(ctx, RetryPolicy{}, func() error {
			calls++
			return ErrTransactionConflict
		})
		assert.Equal(t, 1, calls)
	})
}

func TestAwaitReady(t *testing.T) {
	t.Run("recovers", func(t *testing.T) {
		calls := 0
		err := awaitReady(context.Background(), fastRetry, time.Second,
			func(ctx context.Context) error {
				calls++
				_, hasDeadline := ctx.Deadline()
				assert.True(t, hasDeadline)
				if calls < 3 {
					return errors.New("connection refused")
				}
				return nil
			})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := awaitReady(context.Background(), fastRetry, time.Second,
			func(context.Context) error {
				calls++
				return errors.New("connection refused")
			})
		require.Error(t, err)
		assert.Equal(t, fastRetry.MaxAttempts, calls)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := awaitReady(ctx, fastRetry, time.Second,
			func(context.Context) error {
				calls++
				cancel()
				return errors.New("connection refused")
			})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestRateLimitedError(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, RateLimitedError(7))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"RATE_LIMITED"`)
	assert.Contains(t, rec.Body.String(), "retry in 7s")
}

func TestClassifyStoreError(t *testing.T) {
	assert.NoError(t, ClassifyStoreError(nil))

	serial := ClassifyStoreError(&pgconn.PgError{Code: "40001"})
	assert.ErrorIs(t, serial, ErrTransactionConflict)

	deadlock := ClassifyStoreError(&pgconn.PgError{Code: "40P01"})
	assert.ErrorIs(t, deadlock, ErrTransactionConflict)

	unique := ClassifyStoreError(&pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, unique, ErrDuplicateKey)

	other := ClassifyStoreError(&pgconn.PgError{Code: "22P02"})
	assert.NotErrorIs(t, other, ErrStoreUnavailable)

	network := ClassifyStoreError(errors.New("connection refused"))
	assert.ErrorIs(t, network, ErrStoreUnavailable)

	notFound := fmt.Errorf("get: %w", ErrNotFound)
	assert.Equal(t, notFound, ClassifyStoreError(notFound))
}

func TestInternalServerError_MapsStoreErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	InternalServerError(rec, fmt.Errorf("reset: %w", ErrStoreUnavailable))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	InternalServerError(rec, errors.New("nil pointer"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPaginated(t *testing.T) {
	rec := httptest.NewRecorder()
	Paginated(rec, []int{1, 2}, 2, 2, 5)

	var body struct {
		Success bool           `json:"success"`
		Meta    PaginationMeta `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 3, body.Meta.TotalPages)
	assert.Equal(t, 5, body.Meta.Total)
}

func TestTelemetryNoop(t *testing.T) {
	tel := NoopTelemetry()
	ctx, span := tel.Tracer("test").Start(context.Background(), "op")
	EndSpan(span, errors.New("x"))

	assert.Empty(t, TraceIDFromContext(ctx))
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestKeyClaimer_Redis(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set, skipping redis integration test")
	}

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	claimer := NewKeyClaimer(client, "test:idem:")
	key := uuid.New().String()

	ok, err := claimer.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = claimer.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, claimer.Release(ctx, key))

	ok, err = claimer.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, claimer.Release(ctx, key))
}
