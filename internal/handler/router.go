package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ugaemi/tapcoin-server/internal/store"
)

// Route paths
const (
	PathLoadProgress     = "/load-progress"
	PathSaveProgress     = "/save-progress"
	PathClaimDailyReward = "/claim-daily-reward"
	PathHealth           = "/health"
	PathReady            = "/ready"
	PathMetrics          = "/metrics"
)

// Options configures the router.
type Options struct {
	// RequestTimeout bounds the store calls of a single request.
	RequestTimeout time.Duration
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewRouter wires all HTTP routes on top of the given store.
func NewRouter(s store.ProgressStore, opts Options) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Second
	}

	progressH := NewProgressHandler(s, opts.RequestTimeout)
	rewardH := NewRewardHandler(s, opts.RequestTimeout, opts.Now)

	mux := http.NewServeMux()
	route := func(path, methods string, h http.HandlerFunc) {
		mux.Handle(path, instrument(path, withCORS(methods, h)))
	}

	route(PathLoadProgress, "GET, OPTIONS", progressH.HandleLoad)
	route(PathSaveProgress, "POST, OPTIONS", progressH.HandleSave)
	route(PathClaimDailyReward, "POST, OPTIONS", rewardH.HandleClaim)

	mux.HandleFunc(PathHealth, handleHealth)
	mux.HandleFunc(PathReady, func(w http.ResponseWriter, r *http.Request) {
		handleReady(s, opts.RequestTimeout, w, r)
	})
	mux.Handle(PathMetrics, promhttp.Handler())

	return withRequestID(mux)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func handleReady(s store.ProgressStore, timeout time.Duration, w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	if err := s.Ping(ctx); err != nil {
		logger(r).Warn("readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
