package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Header is the top status bar of the board.
type Header struct {
	source      string
	total       int
	failing     int
	failingOnly bool
	loadedAt    time.Time
	styles      *StyleConfig
}

func NewHeader(source string, styles *StyleConfig) Header {
	return Header{source: source, styles: styles}
}

// SetCounts updates the job totals shown in the header.
func (h *Header) SetCounts(total, failing int, loadedAt time.Time) {
	h.total = total
	h.failing = failing
	h.loadedAt = loadedAt
}

func (h *Header) SetFailingOnly(on bool) {
	h.failingOnly = on
}

func (h Header) Render(width int) string {
	title := h.styles.TitleStyle().Render("Jenkins build status")

	countStyle := lipgloss.NewStyle().Foreground(h.styles.TextPrimary).Padding(0, 2)
	counts := countStyle.Render(fmt.Sprintf("%d jobs", h.total))
	if h.failing > 0 {
		counts = countStyle.Foreground(h.styles.Failure).Bold(true).
			Render(fmt.Sprintf("%d jobs, %d failing", h.total, h.failing))
	}

	filter := "all"
	if h.failingOnly {
		filter = "failing"
	}
	meta := fmt.Sprintf("Showing: %s  Source: %s", filter, Truncate(h.source, 40, true))
	if !h.loadedAt.IsZero() {
		meta += "  Loaded: " + h.loadedAt.Format("15:04:05")
	}
	metaText := lipgloss.NewStyle().Foreground(h.styles.TextSecondary).Padding(0, 2).Render(meta)

	content := lipgloss.JoinHorizontal(lipgloss.Left, title, counts, metaText)

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(h.styles.BorderColor).
		Width(width).
		Render(content)
}
