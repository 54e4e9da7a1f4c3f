package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/osvaldoandrade/sqldojo/internal/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
)

type stateCollector struct {
	rdb         *redis.Client
	catalogSize func() int
	logger      *slog.Logger

	catalogDesc *prometheus.Desc
	bucketsDesc *prometheus.Desc
}

func newStateCollector(rdb *redis.Client, catalogSize func() int, logger *slog.Logger) *stateCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &stateCollector{
		rdb:         rdb,
		catalogSize: catalogSize,
		logger:      logger,
		catalogDesc: prometheus.NewDesc(
			"sqldojo_catalog_tasks",
			"Number of tasks in the loaded catalog.",
			nil,
			nil,
		),
		bucketsDesc: prometheus.NewDesc(
			"sqldojo_rate_limit_buckets_active",
			"Current live rate-limit buckets by scope.",
			[]string{"scope"},
			nil,
		),
	}
}

func (c *stateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.catalogDesc
	ch <- c.bucketsDesc
}

func (c *stateCollector) Collect(ch chan<- prometheus.Metric) {
	if c.catalogSize != nil {
		emitGauge(ch, c.catalogDesc, float64(c.catalogSize()))
	}
	if c.rdb == nil {
		return
	}

	// Keep Redis reads bounded so scrapes do not hang.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	counts, err := ratelimit.ActiveBuckets(ctx, c.rdb)
	if err != nil {
		c.logger.Warn("prometheus redis collector failed", "err", err)
		return
	}
	for scope, n := range counts {
		emitGauge(ch, c.bucketsDesc, float64(n), scope)
	}
}

func emitGauge(ch chan<- prometheus.Metric, desc *prometheus.Desc, v float64, labelValues ...string) {
	m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, v, labelValues...)
	if err != nil {
		return
	}
	ch <- m
}

var registerStateCollectorOnce sync.Once

// RegisterStateCollector exposes catalog size and rate-limit bucket gauges.
// Only the first call registers.
func RegisterStateCollector(rdb *redis.Client, catalogSize func() int, logger *slog.Logger) {
	registerStateCollectorOnce.Do(func() {
		prometheus.MustRegister(newStateCollector(rdb, catalogSize, logger))
	})
}
