package domain

import (
	"slices"
	"strings"
)

// CommandKind tells how a Command was declared.
type CommandKind int

const (
	// KindShell is a raw shell line, run through sh -c.
	KindShell CommandKind = iota
	// KindArgs is an explicit argument vector.
	KindArgs
)

// Command is a tagged variant: either a raw shell line or an argument vector.
// Both normalize to an argument vector through Argv.
type Command struct {
	kind CommandKind
	line string
	args []string
}

// Shell returns a Command that runs line through sh -c.
func Shell(line string) Command {
	return Command{kind: KindShell, line: line}
}

// Args returns a Command that runs the given argument vector as is.
func Args(args ...string) Command {
	return Command{kind: KindArgs, args: slices.Clone(args)}
}

// Kind reports which variant c holds.
func (c Command) Kind() CommandKind {
	return c.kind
}

// IsZero reports whether c carries nothing to execute.
func (c Command) IsZero() bool {
	if c.kind == KindShell {
		return strings.TrimSpace(c.line) == ""
	}
	return len(c.args) == 0
}

// Argv returns the argument vector to execute.
// The returned slice is always a fresh copy.
func (c Command) Argv() []string {
	if c.kind == KindShell {
		return []string{ShellBinary, "-c", c.line}
	}
	return slices.Clone(c.args)
}

// String renders c for logs. It is not meant to be executed.
func (c Command) String() string {
	if c.kind == KindShell {
		return c.line
	}
	return strings.Join(c.args, " ")
}
