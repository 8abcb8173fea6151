package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

var ready atomic.Bool

// Check reports whether a dependency (redis, quote source) is usable.
type Check func(ctx context.Context) error

var (
	mu     sync.RWMutex
	checks = map[string]Check{}
)

// SetReady marks readiness state
func SetReady(v bool) { ready.Store(v) }

// Ready returns current readiness
func Ready() bool { return ready.Load() }

// Register adds a named dependency check consulted by Readyz.
func Register(name string, c Check) {
	mu.Lock()
	checks[name] = c
	mu.Unlock()
}

// Reset drops all registered checks and clears readiness.
func Reset() {
	mu.Lock()
	checks = map[string]Check{}
	mu.Unlock()
	ready.Store(false)
}

// Failing runs every check and returns the names of those that failed, sorted.
func Failing(ctx context.Context) []string {
	mu.RLock()
	defer mu.RUnlock()
	var out []string
	for name, c := range checks {
		if err := c(ctx); err != nil {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Healthz is a simple liveness check
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Readyz is 200 once the scanner is running and every check passes.
func Readyz(w http.ResponseWriter, r *http.Request) {
	if !Ready() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if failed := Failing(ctx); len(failed) > 0 {
		msg := "not ready:"
		for _, f := range failed {
			msg += " " + f
		}
		http.Error(w, msg, http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
