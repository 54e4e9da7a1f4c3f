package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "sqldojo"

var (
	CheckTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "check_total",
			Help:      "Total number of graded submissions, labeled by task and outcome kind.",
		},
		[]string{"task", "kind"},
	)

	CheckDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Wall time of a full check (provision, canonical query, submitted query, compare).",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)

	MismatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mismatch_total",
			Help:      "Total number of rejected submissions, labeled by the check that rejected them.",
		},
		[]string{"reason"},
	)

	HintRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hint_requests_total",
			Help:      "Total number of hint lookups, labeled by result.",
		},
		[]string{"result"},
	)

	ProvisionFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provision_failures_total",
			Help:      "Total number of failed dataset provisioning attempts.",
		},
	)

	RateLimitHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total number of requests rejected by rate limiting, labeled by scope and operation.",
		},
		[]string{"scope", "operation"},
	)
)

func init() {
	prometheus.MustRegister(
		CheckTotal,
		CheckDurationSeconds,
		MismatchTotal,
		HintRequestsTotal,
		ProvisionFailuresTotal,
		RateLimitHitsTotal,
	)
}
