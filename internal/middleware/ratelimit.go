// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/habitmoney/habit-ledger/internal/core"
)

type RateLimitConfig struct {
	Limit    redis_rate.Limit
	KeyFunc  func(*http.Request) string
	FailOpen bool
}

// RateLimiter enforces Limit through Redis when a client is available and
// through per-process token buckets otherwise, or when Redis errors.
type RateLimiter struct {
	remote *redis_rate.Limiter
	local  *bucketSet
	config RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByCaller
	}

	rl := &RateLimiter{
		local:  &bucketSet{},
		config: cfg,
	}
	if rdb != nil {
		rl.remote = redis_rate.NewLimiter(rdb)
	}

	return rl
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.config.KeyFunc(r)

		res, err := rl.allow(r.Context(), key)
		if err != nil {
			if rl.config.FailOpen {
				slog.Warn("rate limiter error, failing open",
					"error", err,
					"key", key,
				)
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}

		writeLimitHeaders(w, res, rl.config.Limit)

		if res.Allowed == 0 {
			writeLimited(w, res)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(
	ctx context.Context,
	key string,
) (*redis_rate.Result, error) {
	if rl.remote != nil {
		res, err := rl.remote.Allow(ctx, key, rl.config.Limit)
		if err == nil {
			return res, nil
		}
		slog.Debug("redis rate limit unavailable, using local buckets",
			"error", err,
		)
	}
	return rl.local.allow(key, rl.config.Limit), nil
}

// KeyByCaller keys on the token subject when there is one, else on the
// client address.
func KeyByCaller(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return "ratelimit:user:" + userID
	}
	return "ratelimit:ip:" + clientIP(r)
}

// clientIP trusts the proxy-appended last hop of X-Forwarded-For, then
// X-Real-IP, then the socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.LastIndexByte(xff, ','); i >= 0 {
			xff = xff[i+1:]
		}
		if hop := strings.TrimSpace(xff); hop != "" {
			return hop
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	reset := time.Now().Add(res.ResetAfter).Unix()

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
}

func writeLimited(w http.ResponseWriter, res *redis_rate.Result) {
	wait := max(int(math.Ceil(res.RetryAfter.Seconds())), 1)

	w.Header().Set("Retry-After", strconv.Itoa(wait))
	core.JSONError(w, core.RateLimitedError(wait))
}

type bucketSet struct {
	buckets sync.Map
}

func (b *bucketSet) allow(key string, limit redis_rate.Limit) *redis_rate.Result {
	perSecond := float64(limit.Rate) / limit.Period.Seconds()

	v, _ := b.buckets.LoadOrStore(
		key,
		rate.NewLimiter(rate.Limit(perSecond), limit.Burst),
	)
	//nolint:errcheck // only *rate.Limiter values are stored
	bucket := v.(*rate.Limiter)

	refill := time.Duration(float64(time.Second) / perSecond)
	res := &redis_rate.Result{
		Limit:      limit,
		ResetAfter: refill,
		RetryAfter: -1,
	}

	if bucket.Allow() {
		res.Allowed = 1
	} else {
		res.RetryAfter = refill
	}

	if remaining := int(bucket.Tokens()); remaining > 0 {
		res.Remaining = remaining
	}

	return res
}

func PerWindow(requests, burst int, window time.Duration) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   requests,
		Burst:  burst,
		Period: window,
	}
}
