package tui

import "jenkins-notify-bot/src/contracts"

// Item is one job row on the status board. It implements bubbles/list.Item.
type Item struct {
	Status contracts.BuildStatus
}

// FilterValue is the value used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Status.JobName }

func (i Item) Title() string { return i.Status.JobName }

func (i Item) Description() string { return i.Status.LastStatus.String() }

// Failing reports whether the job's last finished build failed or was unstable.
func (i Item) Failing() bool { return i.Status.LastStatus.IsFailing() }
