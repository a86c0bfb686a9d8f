// Package health provides liveness and readiness probe endpoints.
//
// Liveness reports only that the process is serving. Readiness runs the
// registered dependency checks on demand with per-check timeouts, so a
// probe reflects the state of the dependency at probe time rather than a
// cached result.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc is a health check function. It returns nil if the checked
// component is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Health manages readiness checks for a service.
type Health struct {
	ready atomic.Bool

	mu     sync.RWMutex
	checks []check
}

// New creates a Health instance. The service starts not ready; call
// SetReady(true) once initialization has finished.
func New() *Health {
	return &Health{}
}

// AddCheck registers a readiness check with a per-probe timeout.
func (h *Health) AddCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, check{name: name, timeout: timeout, fn: fn})
}

// SetReady flips the overall readiness gate. Used to fail probes during
// startup and graceful shutdown regardless of dependency state.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// LiveEndpoint serves the liveness probe.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyEndpoint serves the readiness probe: 503 while the gate is closed
// or any dependency check fails, 200 otherwise.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}

	h.mu.RLock()
	checks := make([]check, len(h.checks))
	copy(checks, h.checks)
	h.mu.RUnlock()

	failures := map[string]string{}
	for _, c := range checks {
		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		err := c.fn(ctx)
		cancel()
		if err != nil {
			failures[c.name] = err.Error()
		}
	}

	if len(failures) > 0 {
		writeStatus(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not ready",
			"checks": failures,
		})
		return
	}
	writeStatus(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeStatus(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
