// Package timing records task and wave durations and summarizes parallelism.
package timing

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.trai.ch/rig/internal/core/domain"
)

// Collector is an append-only log of timing samples. It is safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	entries []domain.TimingEntry
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Record appends one sample.
func (c *Collector) Record(label string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, domain.TimingEntry{Label: label, Duration: d})
}

// Entries returns a copy of every recorded sample in insertion order.
func (c *Collector) Entries() []domain.TimingEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.entries)
}

// Stats aggregates the recorded samples.
type Stats struct {
	// Wall is the sum of wave durations.
	Wall time.Duration
	// CPU is the sum of task durations.
	CPU time.Duration
	// Parallelism is CPU/Wall. It is only meaningful when HasParallelism is set.
	Parallelism    float64
	HasParallelism bool
}

// Stats computes the aggregate statistics.
func (c *Collector) Stats() Stats {
	var s Stats
	for _, e := range c.Entries() {
		switch {
		case strings.HasPrefix(e.Label, domain.WaveLabelPrefix):
			s.Wall += e.Duration
		case strings.HasPrefix(e.Label, domain.TaskLabelPrefix):
			s.CPU += e.Duration
		}
	}
	if s.Wall > 0 {
		s.Parallelism = float64(s.CPU) / float64(s.Wall)
		s.HasParallelism = true
	}
	return s
}

// Summarize renders one line per wave, each followed by its tasks sorted by name,
// then the totals.
func (c *Collector) Summarize() []string {
	entries := c.Entries()

	tasks := make(map[string]time.Duration)
	for _, e := range entries {
		if name, ok := strings.CutPrefix(e.Label, domain.TaskLabelPrefix); ok {
			tasks[name] = e.Duration
		}
	}

	var lines []string
	for _, e := range entries {
		members := domain.WaveMembers(e.Label)
		if members == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s", e.Label, seconds(e.Duration)))

		slices.Sort(members)
		for _, name := range members {
			d, ok := tasks[name]
			if !ok {
				continue
			}
			lines = append(lines, fmt.Sprintf("  %s %s", domain.TaskLabel(name), seconds(d)))
		}
	}

	stats := c.Stats()
	lines = append(lines,
		"total wall time "+seconds(stats.Wall),
		"total cpu time "+seconds(stats.CPU),
	)
	if stats.HasParallelism {
		lines = append(lines, fmt.Sprintf("parallelism %.2fx", stats.Parallelism))
	}
	return lines
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
