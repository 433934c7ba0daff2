package ranker

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp time.Time
	duration  time.Duration
}

// StatsSnapshot is a point-in-time aggregate of call latencies.
type StatsSnapshot struct {
	Count int     `json:"count"`
	Items int     `json:"items"`
	MinMs float64 `json:"min_ms"`
	MaxMs float64 `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// LatencyStats tracks recent model call latencies within a rolling window.
type LatencyStats struct {
	mu      sync.Mutex
	samples []sample
	items   []int
	maxAge  time.Duration
}

func NewLatencyStats(maxAge time.Duration) *LatencyStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &LatencyStats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

// Record adds one call that processed n items.
func (s *LatencyStats) Record(d time.Duration, n int) {
	if d < 0 {
		d = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{timestamp: now, duration: d})
	s.items = append(s.items, n)
}

func (s *LatencyStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	if len(s.samples) == 0 {
		return StatsSnapshot{}
	}

	values := make([]float64, 0, len(s.samples))
	var sum float64
	items := 0
	for i, sm := range s.samples {
		ms := float64(sm.duration) / float64(time.Millisecond)
		values = append(values, ms)
		sum += ms
		items += s.items[i]
	}
	sort.Float64s(values)

	return StatsSnapshot{
		Count: len(values),
		Items: items,
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: sum / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

func (s *LatencyStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for i, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			s.samples[writeIdx] = sm
			s.items[writeIdx] = s.items[i]
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
	s.items = s.items[:writeIdx]
}

func percentile(sortedValues []float64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return sortedValues[0]
	}
	if pct >= 100 {
		return sortedValues[len(sortedValues)-1]
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return sortedValues[lower]
	}
	weight := index - float64(lower)
	lo, hi := sortedValues[lower], sortedValues[upper]
	return lo + ((hi - lo) * weight)
}

// ModelStats groups latency windows for each model stage.
type ModelStats struct {
	Encode *LatencyStats
	Rerank *LatencyStats
}

// NewModelStats creates stats for both stages sharing one window.
func NewModelStats(maxAge time.Duration) *ModelStats {
	return &ModelStats{
		Encode: NewLatencyStats(maxAge),
		Rerank: NewLatencyStats(maxAge),
	}
}

// ModelStatsSnapshot is the JSON shape served by the stats endpoint.
type ModelStatsSnapshot struct {
	Encode StatsSnapshot `json:"encode"`
	Rerank StatsSnapshot `json:"rerank"`
}

func (m *ModelStats) Snapshot() ModelStatsSnapshot {
	return ModelStatsSnapshot{
		Encode: m.Encode.Snapshot(),
		Rerank: m.Rerank.Snapshot(),
	}
}
