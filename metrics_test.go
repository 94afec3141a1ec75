package hriveauth

import (
	"sync"
	"testing"
	"time"

	"github.com/hrive/hriveauth/guard"
	"github.com/hrive/hriveauth/role"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if len(m.Snapshot().Counters) != 0 {
		t.Fatal("disabled snapshot must be empty")
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 16
	const perG = 2000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricGuardRender)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricGuardRender); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBuckets(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	for _, d := range []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		700 * time.Millisecond,
	} {
		m.Observe(MetricResolveLatency, d)
	}
	m.Observe(MetricLoginSuccess, time.Second)

	buckets := m.Snapshot().Histograms[MetricResolveLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d = %d, want 1", i, v)
		}
	}
}

func TestMetricsOutOfRangeIgnored(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(metricIDCount)
	if got := m.Value(metricIDCount); got != 0 {
		t.Fatalf("expected 0 for out of range id, got %d", got)
	}
}

func TestObserveDecisionCounts(t *testing.T) {
	e := &Engine{metrics: NewMetrics(MetricsConfig{Enabled: true})}
	g := guard.MustNew(role.Admin)
	user := &guard.User{ID: "u1"}

	e.ObserveDecision(nil, g.Evaluate(guard.Session{Loading: true}, "/admin"))
	e.ObserveDecision(nil, g.Evaluate(guard.Session{}, "/admin"))
	e.ObserveDecision(nil, g.Evaluate(guard.Session{User: user, Role: role.Employee}, "/admin"))
	e.ObserveDecision(nil, g.Evaluate(guard.Session{User: user, Role: role.Admin}, "/admin"))

	for _, id := range []MetricID{MetricGuardLoading, MetricGuardRedirectSignIn, MetricGuardRedirectHome, MetricGuardRender} {
		if got := e.metrics.Value(id); got != 1 {
			t.Fatalf("metric %d = %d, want 1", id, got)
		}
	}
}
