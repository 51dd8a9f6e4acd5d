package common

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const healthCheckTimeout = 3 * time.Second

// HealthCheck serves liveness, readiness and metrics endpoints on a separate
// listener. rdb may be nil when no redis is configured.
type HealthCheck struct {
	db       *gorm.DB
	rdb      redis.UniversalClient
	gatherer prometheus.Gatherer
}

func NewHealthCheck(db *gorm.DB, rdb redis.UniversalClient, gatherer prometheus.Gatherer) *HealthCheck {
	return &HealthCheck{db: db, rdb: rdb, gatherer: gatherer}
}

func (h *HealthCheck) ready(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return err
	}
	if h.rdb != nil {
		if _, err := h.rdb.Ping(ctx).Result(); err != nil {
			return err
		}
	}
	return nil
}

func (h *HealthCheck) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			slog.Warn("Readiness check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	if h.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// Serve runs the health check server until ctx is cancelled, then closes done.
func (h *HealthCheck) Serve(ctx context.Context, addr string, done chan struct{}) {
	defer close(done)
	server := &http.Server{
		Addr:              addr,
		Handler:           h.Handler(),
		ReadHeaderTimeout: healthCheckTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
		defer cancel()
		server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Health check server stopped", "error", err)
		}
	}
}
