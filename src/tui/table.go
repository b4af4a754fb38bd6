package tui

import (
	"fmt"
	"io"
	"strings"

	"jenkins-notify-bot/src/contracts"
)

// WriteTable prints statuses as an aligned plain-text table, failing jobs first.
func WriteTable(w io.Writer, statuses map[string]contracts.BuildStatus) error {
	items := SortedItems(statuses)

	jobWidth := len("JOB")
	for _, item := range items {
		jobWidth = max(jobWidth, VisualWidth(CleanText(item.Status.JobName)))
	}

	lines := make([]string, 0, len(items)+1)
	lines = append(lines, fmt.Sprintf("%s  %s  %s",
		TruncateAndPad("JOB", jobWidth, false),
		TruncateAndPad("STATUS", statusWidth, false),
		"UPDATED"))
	for _, item := range items {
		lines = append(lines, strings.TrimRight(fmt.Sprintf("%s  %s  %s",
			TruncateAndPad(item.Status.JobName, jobWidth, false),
			TruncateAndPad(item.Status.LastStatus.String(), statusWidth, false),
			CleanText(item.Status.LastUpdated)), " "))
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}
