package contracts

// NotifyReport is one (job, policy) outcome produced during a polling cycle.
// Published to: jenkins.build_reports
// Key: {job_name}
type NotifyReport struct {
	JobName         string       `json:"job_name"`
	FullDisplayName string       `json:"full_display_name"`
	Policy          NotifyPolicy `json:"policy"`
	Success         bool         `json:"is_success"`
	Status          BuildResult  `json:"status"`
	Link            string       `json:"link"`
}

// Notification is the composed message for one subscription.
type Notification struct {
	Subscription string   `json:"subscription"`
	Rooms        []string `json:"rooms"`
	Text         string   `json:"text"`
	// FailureSeen is true when at least one batched report was not a success.
	FailureSeen bool `json:"failure_seen"`
	ReportCount int  `json:"report_count"`
}

// DeliveredMessage mirrors a chat message that was handed to a room.
// Published to: jenkins.notifications
// Key: {room_id}
type DeliveredMessage struct {
	ID        string `json:"id"`
	RoomID    string `json:"room_id"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// Topic names used when publishing to Redpanda.
const (
	// TopicBuildReports carries every NotifyReport generated in a cycle.
	TopicBuildReports = "jenkins.build_reports"

	// TopicNotifications carries every chat message that was sent.
	TopicNotifications = "jenkins.notifications"
)
