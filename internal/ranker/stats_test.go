package ranker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatencyStatsSnapshotPercentiles(t *testing.T) {
	stats := NewLatencyStats(time.Hour)
	for _, ms := range []int{100, 200, 300, 400, 500} {
		stats.Record(time.Duration(ms)*time.Millisecond, 2)
	}

	snap := stats.Snapshot()
	require.Equal(t, 5, snap.Count)
	assert.Equal(t, 10, snap.Items)
	assert.InDelta(t, 100, snap.MinMs, 1e-9)
	assert.InDelta(t, 500, snap.MaxMs, 1e-9)
	assert.InDelta(t, 300, snap.AvgMs, 1e-9)
	assert.InDelta(t, 300, snap.P50Ms, 1e-9)
	assert.InDelta(t, 480, snap.P95Ms, 1e-9)
	assert.InDelta(t, 496, snap.P99Ms, 1e-9)
}

func TestLatencyStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewLatencyStats(10 * time.Millisecond)
	stats.Record(100*time.Millisecond, 1)
	time.Sleep(25 * time.Millisecond)

	assert.Equal(t, 0, stats.Snapshot().Count)

	stats.Record(200*time.Millisecond, 3)
	snap := stats.Snapshot()
	require.Equal(t, 1, snap.Count)
	assert.Equal(t, 3, snap.Items)
	assert.InDelta(t, 200, snap.MinMs, 1e-9)
	assert.InDelta(t, 200, snap.MaxMs, 1e-9)
}

func TestLatencyStatsClampsNegativeDuration(t *testing.T) {
	stats := NewLatencyStats(time.Hour)
	stats.Record(-10*time.Millisecond, 1)
	snap := stats.Snapshot()
	require.Equal(t, 1, snap.Count)
	assert.Zero(t, snap.MinMs)
	assert.Zero(t, snap.MaxMs)
}

func TestModelStatsSnapshot(t *testing.T) {
	m := NewModelStats(time.Hour)
	m.Encode.Record(time.Millisecond, 4)
	snap := m.Snapshot()
	assert.Equal(t, 1, snap.Encode.Count)
	assert.Equal(t, 0, snap.Rerank.Count)
}
