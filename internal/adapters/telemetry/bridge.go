package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
	"go.trai.ch/rig/internal/ui/style"
)

// Bridge is an sdktrace.SpanProcessor that reports finished task and wave spans
// through the logger.
type Bridge struct {
	logger ports.Logger
}

// NewBridge returns a new Bridge.
func NewBridge(logger ports.Logger) *Bridge {
	return &Bridge{logger: logger}
}

// OnStart does nothing; progress is reported when spans end.
func (b *Bridge) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd logs a completion line for task and wave spans.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	name := s.Name()
	if !strings.HasPrefix(name, domain.TaskLabelPrefix) && !strings.HasPrefix(name, domain.WaveLabelPrefix) {
		return
	}

	elapsed := s.EndTime().Sub(s.StartTime()).Seconds()
	if s.Status().Code == codes.Error {
		b.logger.Warn(fmt.Sprintf("%s %s failed after %.2fs", style.Cross, name, elapsed))
		return
	}
	b.logger.Info(fmt.Sprintf("%s %s done in %.2fs", style.Check, name, elapsed))
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}
