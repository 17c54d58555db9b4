package bus

// TopicScheduleChanged is published whenever schedule-affecting state
// mutates (event type edits, skip/enable toggles, periodic refresh).
// Consumers holding derived schedule data should drop it and re-fetch.
const TopicScheduleChanged = "schedule-data-changed"

// ScheduleChange is the payload carried on TopicScheduleChanged.
type ScheduleChange struct {
	// Source is "course" or "semester".
	Source string `json:"source"`
	// Reason is a free-form tag for logging ("skip-toggle", "refresh", ...).
	Reason     string `json:"reason"`
	CourseID   string `json:"courseId,omitempty"`
	SemesterID string `json:"semesterId,omitempty"`
}
