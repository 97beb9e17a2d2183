// AngelaMos | 2026
// handler.go

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
)

const probeTimeout = 3 * time.Second

type Checker interface {
	Ping(ctx context.Context) error
}

// Check is one dependency probed by /readyz. A failing optional check marks
// the service degraded but keeps it in rotation: without Redis the ledger
// still records completions, it only loses idempotency keys and shared
// rate limits.
type Check struct {
	Name     string
	Checker  Checker
	Optional bool
}

type Handler struct {
	checks   []Check
	version  string
	started  time.Time
	ready    atomic.Bool
	draining atomic.Bool
}

// NewHandler keeps only checks with a Checker; unconfigured dependencies
// are not reported at all.
func NewHandler(version string, checks ...Check) *Handler {
	h := &Handler{version: version, started: time.Now()}
	for _, c := range checks {
		if c.Checker != nil {
			h.checks = append(h.checks, c)
		}
	}
	h.ready.Store(true)
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/readyz", h.Readiness)
}

func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	body := LivenessResponse{
		Status:  "ok",
		Version: h.version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
	}
	code := http.StatusOK
	if h.draining.Load() {
		body.Status = "shutting_down"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, body)
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	switch {
	case h.draining.Load():
		writeJSON(w, http.StatusServiceUnavailable, ReadinessResponse{Status: "shutting_down"})
		return
	case !h.ready.Load():
		writeJSON(w, http.StatusServiceUnavailable, ReadinessResponse{Status: "not_ready"})
		return
	}

	results := h.probeAll(r.Context())

	resp := ReadinessResponse{Status: "ok", Checks: results}
	code := http.StatusOK
	for i, res := range results {
		if res.Healthy {
			continue
		}
		if h.checks[i].Optional {
			if resp.Status == "ok" {
				resp.Status = "degraded"
			}
			continue
		}
		resp.Status = "unavailable"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, resp)
}

func (h *Handler) probeAll(ctx context.Context) []CheckResult {
	results := make([]CheckResult, len(h.checks))

	var wg sync.WaitGroup
	for i, c := range h.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = probe(ctx, c)
		}()
	}
	wg.Wait()

	return results
}

func probe(ctx context.Context, c Check) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	err := c.Checker.Ping(ctx)

	res := CheckResult{
		Name:     c.Name,
		Healthy:  err == nil,
		Optional: c.Optional,
		Latency:  time.Since(start).String(),
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// SetShutdown fails both probes so the load balancer drains this instance.
func (h *Handler) SetShutdown(shutdown bool) {
	h.draining.Store(shutdown)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response
	_ = json.NewEncoder(w).Encode(body)
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Uptime  string `json:"uptime"`
}

type ReadinessResponse struct {
	Status string        `json:"status"`
	Checks []CheckResult `json:"checks,omitempty"`
}

type CheckResult struct {
	Name     string `json:"name"`
	Healthy  bool   `json:"healthy"`
	Optional bool   `json:"optional,omitempty"`
	Latency  string `json:"latency"`
	Error    string `json:"error,omitempty"`
}
