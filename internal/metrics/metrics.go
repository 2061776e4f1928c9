package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Claim outcomes
const (
	ClaimGranted        = "granted"
	ClaimAlreadyClaimed = "already_claimed"
	ClaimConflict       = "conflict"
	ClaimNotFound       = "not_found"
	ClaimError          = "error"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tapcoin_http_requests_total",
		Help: "The total number of HTTP requests by route and status code",
	}, []string{"route", "code"})
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tapcoin_http_request_duration_seconds",
		Help:    "Latency of HTTP requests by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	DailyClaimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tapcoin_daily_claims_total",
		Help: "The total number of daily reward claims by outcome",
	}, []string{"outcome"})
	DailyRewardCoinsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tapcoin_daily_reward_coins_total",
		Help: "The total number of coins granted by daily rewards",
	})
	ProgressSavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tapcoin_progress_saves_total",
		Help: "The total number of successful progress saves",
	})
)
