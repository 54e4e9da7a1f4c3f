package metrics

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/osvaldoandrade/sqldojo/internal/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStateCollector(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	lim := ratelimit.NewTokenBucketLimiter(rdb)
	bucket := ratelimit.Bucket{RequestsPerMinute: 60, BurstSize: 5}
	for _, subj := range []string{"a", "b"} {
		if _, err := lim.Allow(context.Background(), "check", subj, bucket); err != nil {
			t.Fatalf("allow: %v", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(newStateCollector(rdb, func() int { return 12 }, nil))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	got := map[string]*dto.MetricFamily{}
	for _, f := range families {
		got[f.GetName()] = f
	}

	cat := got["sqldojo_catalog_tasks"]
	if cat == nil || cat.GetMetric()[0].GetGauge().GetValue() != 12 {
		t.Fatalf("catalog gauge missing or wrong: %v", cat)
	}
	buckets := got["sqldojo_rate_limit_buckets_active"]
	if buckets == nil || len(buckets.GetMetric()) != 1 {
		t.Fatalf("bucket gauge missing: %v", buckets)
	}
	m := buckets.GetMetric()[0]
	if m.GetLabel()[0].GetValue() != "check" || m.GetGauge().GetValue() != 2 {
		t.Fatalf("unexpected bucket gauge %v", m)
	}
}

func TestStateCollectorWithoutRedis(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(newStateCollector(nil, func() int { return 3 }, nil))
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) != 1 || families[0].GetName() != "sqldojo_catalog_tasks" {
		t.Fatalf("expected only catalog gauge, got %v", families)
	}
}
