// Package style holds the colors and icons shared by console output.
package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Accent = lipgloss.Color("#0EA5E9")
	Muted  = lipgloss.Color("#64748B")
	Green  = lipgloss.Color("#16A34A")
	Red    = lipgloss.Color("#DC2626")
	Yellow = lipgloss.Color("#D97706")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Arrow   = "→"
	Dot     = "●"
)

// Heading renders section titles such as wave headers.
var Heading = lipgloss.NewStyle().Bold(true).Foreground(Accent)

// Dim renders secondary text such as task descriptions.
var Dim = lipgloss.NewStyle().Foreground(Muted)
