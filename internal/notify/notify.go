// Package notify carries short user-facing notices (toasts) from the hooks to
// whatever is rendering them.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Notice is a transient message shown to the user.
type Notice struct {
	Title       string
	Description string
	Destructive bool
}

// Notifier receives notices. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(Notice)
}

// Func adapts a function to Notifier.
type Func func(Notice)

// Notify calls f.
func (f Func) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Notifier = Func(func(Notice) {})

// Recorder keeps notices in order of arrival.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify appends n.
func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of everything recorded so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Theme holds the colors for printed notices.
type Theme struct {
	Info        lipgloss.Color
	Destructive lipgloss.Color
	Detail      lipgloss.Color
}

// DefaultTheme matches the chat screen colors.
var DefaultTheme = Theme{
	Info:        lipgloss.Color("#00D787"), // green
	Destructive: lipgloss.Color("#FF005F"), // red
	Detail:      lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) titleStyle(destructive bool) lipgloss.Style {
	if destructive {
		return lipgloss.NewStyle().Foreground(t.Destructive).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(t.Info).Bold(true)
}

func (t Theme) detailStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Detail)
}

// Printer writes each notice as one styled line.
type Printer struct {
	mu    sync.Mutex
	w     io.Writer
	theme Theme
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer, theme Theme) *Printer {
	return &Printer{w: w, theme: theme}
}

// Notify implements Notifier.
func (p *Printer) Notify(n Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line := p.theme.titleStyle(n.Destructive).Render(n.Title)
	if n.Description != "" {
		line += " " + p.theme.detailStyle().Render(n.Description)
	}
	fmt.Fprintln(p.w, line)
}
