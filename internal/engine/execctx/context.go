// Package execctx holds the per-run execution state every task issues commands through.
package execctx

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
	"go.trai.ch/rig/internal/shellquote"
)

// transportSlot boxes an interface value for atomic.Pointer.
type transportSlot struct {
	transport ports.Transport
}

// Context composes the environment prelude, optional cgroup confinement, and the
// active transport. The streaming transport can be installed once, concurrently
// with running tasks.
type Context struct {
	direct    ports.Transport
	streaming atomic.Pointer[transportSlot]
	procs     atomic.Pointer[[]string]
	prelude   []string
}

// New creates a Context that dispatches to direct until a streaming transport is
// installed. env is injected before every command in sorted key order.
func New(direct ports.Transport, env map[string]string) *Context {
	var prelude []string
	if len(env) > 0 {
		prelude = append(prelude, "env")
		for _, k := range slices.Sorted(maps.Keys(env)) {
			prelude = append(prelude, k+"="+env[k])
		}
	}
	return &Context{
		direct:  direct,
		prelude: prelude,
	}
}

// UseTransport installs the streaming transport. Later commands dispatch to it.
// It fails with domain.ErrTransportInstalled if one is already installed.
func (c *Context) UseTransport(t ports.Transport) error {
	if !c.streaming.CompareAndSwap(nil, &transportSlot{transport: t}) {
		return domain.ErrTransportInstalled
	}
	return nil
}

// Streaming reports whether the streaming transport is installed.
func (c *Context) Streaming() bool {
	return c.streaming.Load() != nil
}

// SetCgroup confines later commands to the cgroups owning the given membership files.
// Passing no files turns confinement off.
func (c *Context) SetCgroup(procsFiles ...string) {
	if len(procsFiles) == 0 {
		c.procs.Store(nil)
		return
	}
	files := slices.Clone(procsFiles)
	c.procs.Store(&files)
}

// Cgroup returns the membership files commands are confined to, or nil.
func (c *Context) Cgroup() []string {
	p := c.procs.Load()
	if p == nil {
		return nil
	}
	return slices.Clone(*p)
}

// Run executes cmd through the active transport. A zero timeout means no limit.
func (c *Context) Run(ctx context.Context, label string, cmd domain.Command, timeout time.Duration) (*domain.ExecResult, error) {
	return c.transport().Run(ctx, label, c.Argv(cmd), timeout)
}

// Argv returns the argument vector Run would send for cmd.
func (c *Context) Argv(cmd domain.Command) []string {
	argv := append(slices.Clone(c.prelude), cmd.Argv()...)

	procs := c.Cgroup()
	if len(procs) == 0 {
		return argv
	}

	var script strings.Builder
	for _, f := range procs {
		script.WriteString("{ echo $$ > " + shellquote.MustQuote(f) + "; } 2>/dev/null || true; ")
	}
	script.WriteString(`exec "$@"`)

	return append([]string{domain.ShellBinary, "-c", script.String(), domain.ShellBinary}, argv...)
}

func (c *Context) transport() ports.Transport {
	if slot := c.streaming.Load(); slot != nil {
		return slot.transport
	}
	return c.direct
}
