// Package views renders panel data into styled terminal output. The
// render functions are pure so they can be exercised without a running
// program.
package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// AppData is one fully assembled frame: title bar, the two panes of
// the active view, the alert stack, a status line, and the key footer.
type AppData struct {
	Header        string
	LeftPane      string
	RightPane     string
	StatusLine    string
	StatusIsError bool
	Footer        string
	Notification  string
}

const paneWidth = 58

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	alertStyle  = lipgloss.NewStyle().Border(lipgloss.ThickBorder(), false, false, false, true).PaddingLeft(1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	treeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

func RenderApp(data AppData) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(data.Header))
	b.WriteByte('\n')
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Width(paneWidth).Render(data.LeftPane),
		panelStyle.Width(paneWidth).Render(data.RightPane)))
	if data.Notification != "" {
		b.WriteByte('\n')
		b.WriteString(alertStyle.Render(data.Notification))
	}
	if data.StatusLine != "" {
		b.WriteByte('\n')
		if data.StatusIsError {
			b.WriteString(errorStyle.Render(data.StatusLine))
		} else {
			b.WriteString(statusStyle.Render(data.StatusLine))
		}
	}
	if data.Footer != "" {
		b.WriteByte('\n')
		b.WriteString(footerStyle.Render(data.Footer))
	}
	return b.String()
}

// RenderMarkdown renders task notes through glamour, falling back to
// the raw text when rendering fails.
func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
