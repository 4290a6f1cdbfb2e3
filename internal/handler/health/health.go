// Package health serves /healthz over a set of named dependency checks.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

const checkTimeout = 3 * time.Second

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// Always reports healthy. It stands in for in-process dependencies.
var Always = CheckerFunc(func(context.Context) error { return nil })

type Handler struct {
	checks map[string]Checker
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger, checks map[string]Checker) *Handler {
	return &Handler{checks: checks, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.check)
	return r
}

type result struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latencyMs"`
}

// check runs every checker concurrently; one failure makes the response 503.
func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]result, len(h.checks))
		failed  bool
	)
	var g errgroup.Group
	for name, c := range h.checks {
		g.Go(func() error {
			start := time.Now()
			err := c.Check(ctx)
			res := result{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
			if err != nil {
				h.logger.Error("health check failed", "name", name, "error", err)
				res.Status = "error"
			}

			mu.Lock()
			results[name] = res
			failed = failed || err != nil
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	status := http.StatusOK
	if failed {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(results)
}
