// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"errors"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/habitmoney/habit-ledger/internal/core"
)

// ErrJobsDisabled is returned by a SweepTrigger when no job queue runs.
var ErrJobsDisabled = errors.New("background jobs disabled")

type SweepTrigger interface {
	TriggerSweep(ctx context.Context) (int64, error)
}

// HandlerConfig wires the optional dependencies. Any nil field is reported
// as absent rather than unhealthy.
type HandlerConfig struct {
	DBStats    func() *pgxpool.Stat
	RedisStats func() *redis.PoolStats
	RedisPing  func(ctx context.Context) error
	DBPing     func(ctx context.Context) error
	Sweeper    SweepTrigger
	Driver     string
}

type Handler struct {
	cfg HandlerConfig
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{cfg: cfg}
}

// RegisterRoutes expects r to be already restricted to admins.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stats", h.Overview)
	r.Get("/stats/db", h.DatabaseStats)
	r.Get("/stats/redis", h.RedisStats)
	r.Get("/stats/runtime", h.RuntimeStats)
	r.Post("/resets/sweep", h.TriggerSweep)
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	core.OK(w, OverviewResponse{
		Store: StoreStatus{
			Driver:  h.cfg.Driver,
			Healthy: pingOK(ctx, h.cfg.DBPing),
			Pool:    h.dbPool(),
		},
		Redis: RedisStatus{
			Configured: h.cfg.RedisPing != nil,
			Healthy:    pingOK(ctx, h.cfg.RedisPing),
			Pool:       h.redisPool(),
		},
		Jobs:    JobsStatus{Enabled: h.cfg.Sweeper != nil},
		Runtime: runtimeStats(),
	})
}

func (h *Handler) DatabaseStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.dbPool())
}

func (h *Handler) RedisStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.redisPool())
}

func (h *Handler) RuntimeStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, runtimeStats())
}

// TriggerSweep queues a reset sweep outside the periodic schedule.
func (h *Handler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Sweeper == nil {
		core.JSONError(w, jobsDisabled())
		return
	}

	jobID, err := h.cfg.Sweeper.TriggerSweep(r.Context())
	switch {
	case errors.Is(err, ErrJobsDisabled):
		core.JSONError(w, jobsDisabled())
	case err != nil:
		core.InternalServerError(w, err)
	default:
		core.OK(w, SweepResponse{JobID: jobID})
	}
}

func jobsDisabled() *core.AppError {
	return core.NewAppError(
		http.StatusConflict,
		"JOBS_DISABLED",
		ErrJobsDisabled.Error(),
	)
}

// pingOK treats an unwired dependency as healthy; Overview reports whether
// it is configured separately.
func pingOK(ctx context.Context, ping func(context.Context) error) bool {
	return ping == nil || ping(ctx) == nil
}

func (h *Handler) dbPool() *PgPool {
	if h.cfg.DBStats == nil {
		return nil
	}
	s := h.cfg.DBStats()
	if s == nil {
		return nil
	}

	return &PgPool{
		Max:             s.MaxConns(),
		Total:           s.TotalConns(),
		Acquired:        s.AcquiredConns(),
		Idle:            s.IdleConns(),
		Acquires:        s.AcquireCount(),
		AcquireWait:     s.AcquireDuration().String(),
		EmptyAcquires:   s.EmptyAcquireCount(),
		CanceledAcquire: s.CanceledAcquireCount(),
	}
}

func (h *Handler) redisPool() *RedisPool {
	if h.cfg.RedisStats == nil {
		return nil
	}
	s := h.cfg.RedisStats()

	return &RedisPool{
		Hits:     s.Hits,
		Misses:   s.Misses,
		Timeouts: s.Timeouts,
		Total:    s.TotalConns,
		Idle:     s.IdleConns,
		Stale:    s.StaleConns,
	}
}

func runtimeStats() RuntimeInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return RuntimeInfo{
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		CPUs:       runtime.NumCPU(),
		HeapBytes:  m.HeapAlloc,
		SysBytes:   m.Sys,
		GCCycles:   m.NumGC,
	}
}

type SweepResponse struct {
	JobID int64 `json:"job_id"`
}

type OverviewResponse struct {
	Store   StoreStatus `json:"store"`
	Redis   RedisStatus `json:"redis"`
	Jobs    JobsStatus  `json:"jobs"`
	Runtime RuntimeInfo `json:"runtime"`
}

type StoreStatus struct {
	Driver  string  `json:"driver,omitempty"`
	Healthy bool    `json:"healthy"`
	Pool    *PgPool `json:"pool,omitempty"`
}

type RedisStatus struct {
	Configured bool       `json:"configured"`
	Healthy    bool       `json:"healthy"`
	Pool       *RedisPool `json:"pool,omitempty"`
}

type JobsStatus struct {
	Enabled bool `json:"enabled"`
}

type PgPool struct {
	Max             int32  `json:"max"`
	Total           int32  `json:"total"`
	Acquired        int32  `json:"acquired"`
	Idle            int32  `json:"idle"`
	Acquires        int64  `json:"acquires"`
	AcquireWait     string `json:"acquire_wait"`
	EmptyAcquires   int64  `json:"empty_acquires"`
	CanceledAcquire int64  `json:"canceled_acquires"`
}

type RedisPool struct {
	Hits     uint32 `json:"hits"`
	Misses   uint32 `json:"misses"`
	Timeouts uint32 `json:"timeouts"`
	Total    uint32 `json:"total"`
	Idle     uint32 `json:"idle"`
	Stale    uint32 `json:"stale"`
}

type RuntimeInfo struct {
	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"goroutines"`
	CPUs       int    `json:"cpus"`
	HeapBytes  uint64 `json:"heap_bytes"`
	SysBytes   uint64 `json:"sys_bytes"`
	GCCycles   uint32 `json:"gc_cycles"`
}
