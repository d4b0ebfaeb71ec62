package domain

import (
	"strings"
	"time"
)

const (
	// TaskLabelPrefix prefixes timing labels recorded for a single task.
	TaskLabelPrefix = "task:"
	// WaveLabelPrefix prefixes timing labels recorded for a whole wave.
	WaveLabelPrefix = "wave:"

	waveSeparator = "+"
)

// TimingEntry is one recorded duration sample.
type TimingEntry struct {
	Label    string
	Duration time.Duration
}

// TaskLabel returns the timing label for task name.
func TaskLabel(name string) string {
	return TaskLabelPrefix + name
}

// WaveLabel returns the timing label for a wave made of names, in the given order.
func WaveLabel(names []string) string {
	return WaveLabelPrefix + strings.Join(names, waveSeparator)
}

// WaveMembers splits a wave label back into its task names.
// It returns nil if label is not a wave label.
func WaveMembers(label string) []string {
	rest, ok := strings.CutPrefix(label, WaveLabelPrefix)
	if !ok || rest == "" {
		return nil
	}
	return strings.Split(rest, waveSeparator)
}
