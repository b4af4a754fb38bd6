package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	// listRenderingOverhead accounts for the panel border and list padding.
	listRenderingOverhead = 4

	statusWidth = 9 // len("NOT_BUILT")
	minJobWidth = 8
)

// Delegate renders status items as table rows:
// "● app-build │ SUCCESS   │ 2024-05-01T10:00:00Z".
type Delegate struct {
	JobWidth int
	styles   *StyleConfig
}

// NewDelegate creates a new delegate with default styles
func NewDelegate(styles *StyleConfig) Delegate {
	if styles == nil {
		styles = DefaultStyles()
	}
	return Delegate{
		JobWidth: minJobWidth,
		styles:   styles,
	}
}

// SetJobWidth sizes the job column to the widest job name.
func (d *Delegate) SetJobWidth(items []Item) {
	d.JobWidth = minJobWidth
	for _, item := range items {
		if w := VisualWidth(CleanText(item.Status.JobName)); w > d.JobWidth {
			d.JobWidth = w
		}
	}
}

func (d Delegate) Height() int { return 1 }

func (d Delegate) Spacing() int { return 0 }

func (d Delegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

// Row renders the plain text of one row at the given total width.
func (d Delegate) Row(item Item, width int) string {
	jobWidth := d.JobWidth
	// Fixed columns: marker (2) + separators (6) + status
	remaining := width - 2 - 6 - statusWidth
	if jobWidth > remaining/2 && remaining > 0 {
		jobWidth = max(minJobWidth, remaining/2)
	}
	tokenWidth := remaining - jobWidth
	if tokenWidth < 0 {
		tokenWidth = 0
	}

	return fmt.Sprintf("● %s │ %s │ %s",
		TruncateAndPad(item.Status.JobName, jobWidth, true),
		TruncateAndPad(item.Status.LastStatus.String(), statusWidth, false),
		Truncate(item.Status.LastUpdated, tokenWidth, true))
}

func (d Delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	entry, ok := item.(Item)
	if !ok {
		return
	}

	line := d.Row(entry, m.Width()-listRenderingOverhead)

	style := lipgloss.NewStyle().Foreground(d.styles.StatusColor(entry.Status.LastStatus))
	if index == m.Index() {
		style = style.Bold(true).Background(d.styles.SelectedColor)
	}

	fmt.Fprint(w, style.Render(line))
}
