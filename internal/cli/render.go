package cli

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/kbchat/internal/metrics"
	"github.com/raphaelgruber/kbchat/internal/models"
)

// Theme holds the color scheme for chat output.
type Theme struct {
	User      lipgloss.Color
	Assistant lipgloss.Color
	Error     lipgloss.Color
	Hint      lipgloss.Color
	Reference lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	User:      lipgloss.Color("#5FAFD7"), // light blue
	Assistant: lipgloss.Color("#00D787"), // green
	Error:     lipgloss.Color("#FF005F"), // red
	Hint:      lipgloss.Color("#6C6C6C"), // dim gray
	Reference: lipgloss.Color("#D7AF5F"), // amber
}

func (t Theme) userStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.User).Bold(true)
}

func (t Theme) assistantStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Assistant).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) referenceStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Reference)
}

// markdownRenderer is created on first use.
var markdownRenderer *glamour.TermRenderer

// renderMarkdown renders assistant replies and document content. It falls
// back to the raw text when rendering fails.
func renderMarkdown(text string) string {
	if markdownRenderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			return text
		}
		markdownRenderer = r
	}
	out, err := markdownRenderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n") + "\n"
}

// formatMessage renders one transcript entry.
func formatMessage(t Theme, m models.Message) string {
	var b strings.Builder
	switch m.Role {
	case models.RoleUser:
		b.WriteString(t.userStyle().Render("You"))
		b.WriteString(t.hintStyle().Render("  " + m.CreatedAt.Local().Format("15:04")))
		b.WriteString("\n")
		b.WriteString(m.Content)
		b.WriteString("\n")
	default:
		b.WriteString(t.assistantStyle().Render("Assistant"))
		b.WriteString(t.hintStyle().Render("  " + m.CreatedAt.Local().Format("15:04")))
		b.WriteString("\n")
		b.WriteString(renderMarkdown(m.Content))
		b.WriteString(formatReferences(t, m.References))
	}
	return b.String()
}

// formatReferences lists cited documents, numbered for "documents open".
func formatReferences(t Theme, refs []models.Reference) string {
	if len(refs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(t.hintStyle().Render("Sources:"))
	b.WriteString("\n")
	for i, r := range refs {
		line := fmt.Sprintf("  [%d] %s", i+1, r.Title)
		if r.URL != "" {
			line += "  (" + r.URL + ")"
		}
		b.WriteString(t.referenceStyle().Render(line))
		b.WriteString("\n")
		if verbose && r.Preview != "" {
			b.WriteString(t.hintStyle().Render("      " + models.Truncate(strings.Join(strings.Fields(r.Preview), " "), 120)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// openURL opens u in the system browser.
func openURL(u string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", u)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", u)
	default:
		cmd = exec.Command("xdg-open", u)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", u, err)
	}
	return cmd.Process.Release()
}

// printStats prints per-endpoint request statistics to stderr.
func printStats(snap metrics.Snapshot) {
	if len(snap.Operations) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "\nRequests (%.1fs)\n", snap.UptimeSeconds)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════\n")
	for _, op := range snap.Operations {
		fmt.Fprintf(os.Stderr, "  %-18s %3d calls  %2d errors  avg %6.1fms  max %5dms\n",
			op.Name, op.Count, op.Errors, op.AvgTimeMs, op.MaxTimeMs)
	}
}
