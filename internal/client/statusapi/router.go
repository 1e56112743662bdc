// Package statusapi serves a small local HTTP endpoint for health checks,
// sync status and Prometheus metrics.
package statusapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/store"
	"github.com/dmitrijs2005/hoaxbuster/internal/logging"
	"github.com/dmitrijs2005/hoaxbuster/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

type OnlineChecker interface {
	IsOnline() bool
}

// StatsSource reports row counts of the local store.
type StatsSource interface {
	Stats(ctx context.Context) store.Stats
}

// Deps are the collaborators of the router. Gatherer may be nil, which
// leaves /metrics unmounted.
type Deps struct {
	Online   OnlineChecker
	Stats    StatsSource
	Gatherer prometheus.Gatherer
}

// Status is the body of GET /status.
type Status struct {
	Online bool `json:"online"`
	store.Stats
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Status{
			Online: deps.Online.IsOnline(),
			Stats:  deps.Stats.Stats(req.Context()),
		})
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve listens on addr until ctx ends, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, log logging.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "status endpoint listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info(ctx, "status endpoint stopped")
	return nil
}
