package mcp

import "jenkins-notify-bot/src/contracts"

// StatusList is the list_build_status response.
type StatusList struct {
	Total    int           `json:"total"`
	Failing  int           `json:"failing"`
	Statuses []StatusEntry `json:"statuses"`
}

// StatusEntry is one job as returned to MCP clients.
type StatusEntry struct {
	JobName     string `json:"job_name"`
	LastUpdated string `json:"last_updated"`
	LastStatus  string `json:"last_status"`
	Failing     bool   `json:"failing"`
}

// SubscriptionInfo is one subscription as returned by list_subscriptions.
type SubscriptionInfo struct {
	Name   string   `json:"name"`
	Policy string   `json:"policy"`
	Jobs   []string `json:"jobs"`
	Rooms  []string `json:"rooms"`
}

func toEntry(s contracts.BuildStatus) StatusEntry {
	return StatusEntry{
		JobName:     s.JobName,
		LastUpdated: s.LastUpdated,
		LastStatus:  s.LastStatus.String(),
		Failing:     s.LastStatus.IsFailing(),
	}
}
