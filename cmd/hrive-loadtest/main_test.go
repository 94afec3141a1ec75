package main

import (
	"testing"
	"time"
)

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentile(samples, 50); got != 5 {
		t.Fatalf("p50 = %d, want 5", got)
	}
	if got := percentile(samples, 99); got != 9 {
		t.Fatalf("p99 = %d, want 9", got)
	}
	if got := percentile(samples, 100); got != 10 {
		t.Fatalf("p100 = %d, want 10", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Fatalf("empty = %d, want 0", got)
	}
}

func TestNextHashChanges(t *testing.T) {
	h := hashFor(7)
	if nextHash(h, 1) == h {
		t.Fatal("nextHash must change the hash")
	}
	if hashFor(7) != h {
		t.Fatal("hashFor must be deterministic")
	}
}

func TestComputeStats(t *testing.T) {
	s := computeStats(time.Second, []time.Duration{3, 1, 2}, 1)
	if s.ops != 3 || s.failures != 1 || s.p50 != 2 {
		t.Fatalf("unexpected stats %+v", s)
	}
	if s.opsPerS != 3 {
		t.Fatalf("ops/sec = %v, want 3", s.opsPerS)
	}
}
