package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Application counters. Registered once via promauto.
var (
	PoolsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "survivor_pools_created_total",
		Help: "Number of pools created.",
	})

	PoolJoins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "survivor_pool_joins_total",
		Help: "Number of successful pool joins.",
	})

	PicksSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "survivor_picks_submitted_total",
		Help: "Number of picks submitted or updated.",
	})

	PicksRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "survivor_picks_rejected_total",
		Help: "Number of pick submissions rejected by validation.",
	}, []string{"reason"})

	OddsRowsUpserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "survivor_odds_rows_upserted_total",
		Help: "Number of game odds rows written by ingestion runs.",
	})
)

// HealthFunc reports backend health for the /healthz endpoint
type HealthFunc func(ctx context.Context) error

// StartServer runs a small HTTP server exposing /metrics and /healthz
// on its own port, detached from the application router
func StartServer(port string, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, "unhealthy: %v", err)
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}
