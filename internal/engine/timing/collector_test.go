package timing_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rig/internal/engine/timing"
)

func TestCollector_Stats(t *testing.T) {
	c := timing.NewCollector()
	c.Record("wave:A+B", 2*time.Second)
	c.Record("task:A", 1500*time.Millisecond)
	c.Record("task:B", 1900*time.Millisecond)

	stats := c.Stats()
	assert.Equal(t, 2*time.Second, stats.Wall)
	assert.Equal(t, 3400*time.Millisecond, stats.CPU)
	require.True(t, stats.HasParallelism)
	assert.InDelta(t, 1.7, stats.Parallelism, 1e-9)
}

func TestCollector_Summarize(t *testing.T) {
	c := timing.NewCollector()
	c.Record("task:b", 1900*time.Millisecond)
	c.Record("task:a", 1500*time.Millisecond)
	c.Record("wave:b+a", 2*time.Second)
	c.Record("task:c", 500*time.Millisecond)
	c.Record("wave:c", 500*time.Millisecond)

	assert.Equal(t, []string{
		"wave:b+a 2.00s",
		"  task:a 1.50s",
		"  task:b 1.90s",
		"wave:c 0.50s",
		"  task:c 0.50s",
		"total wall time 2.50s",
		"total cpu time 3.90s",
		"parallelism 1.56x",
	}, c.Summarize())
}

func TestCollector_ZeroWallOmitsParallelism(t *testing.T) {
	c := timing.NewCollector()
	c.Record("task:a", time.Second)

	stats := c.Stats()
	assert.False(t, stats.HasParallelism)
	assert.Equal(t, []string{
		"total wall time 0.00s",
		"total cpu time 1.00s",
	}, c.Summarize())
}

func TestCollector_ConcurrentRecord(t *testing.T) {
	c := timing.NewCollector()

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			c.Record("task:x", time.Millisecond)
		})
	}
	wg.Wait()

	assert.Len(t, c.Entries(), 50)
}
