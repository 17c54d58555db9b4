package model

import "time"

// WeekPattern describes how often a recurring definition occurs.
type WeekPattern string

const (
	// PatternEvery occurs every week of the semester.
	PatternEvery WeekPattern = "EVERY"
	// PatternAlternating occurs on alternating weeks.
	PatternAlternating WeekPattern = "ALTERNATING"
)

// EventSource tags where a calendar event came from.
type EventSource string

const (
	SourceSchedule EventSource = "schedule"
	SourceTodo     EventSource = "todo"
	SourceCustom   EventSource = "custom"
)

// ScheduleOccurrence is one concrete weekly instance of a recurring schedule
// definition as returned by the schedule service. It is read-only input to
// the engine; the engine never mutates occurrences in place.
type ScheduleOccurrence struct {
	// EventID is the stable identifier of the recurring definition.
	EventID string `json:"eventId"`

	// Week is 1-based; DayOfWeek is 1=Monday .. 7=Sunday.
	Week      int `json:"week"`
	DayOfWeek int `json:"dayOfWeek"`

	// StartTime / EndTime are minute-of-day times in "HH:MM" form.
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`

	CourseID      string      `json:"courseId"`
	CourseName    string      `json:"courseName"`
	EventTypeCode string      `json:"eventTypeCode"`
	WeekPattern   WeekPattern `json:"weekPattern"`

	// Title, if non-empty, overrides the derived display title.
	Title string `json:"title,omitempty"`

	// Skip suppresses this occurrence for its week without deleting the
	// recurring definition. Enable is the definition-level switch.
	Skip   bool `json:"skip"`
	Enable bool `json:"enable"`

	// IsConflict / ConflictGroupID are precomputed overlap markers from
	// the schedule service.
	IsConflict      bool   `json:"isConflict"`
	ConflictGroupID string `json:"conflictGroupId,omitempty"`

	Note string `json:"note,omitempty"`
}

// OccurrenceKey is the natural composite identity of an occurrence.
// Duplicates under this key (e.g. from overlapping API pages) must collapse
// to a single record.
type OccurrenceKey struct {
	EventID   string
	Week      int
	DayOfWeek int
	StartTime string
	EndTime   string
}

// Key returns the composite identity of o.
func (o ScheduleOccurrence) Key() OccurrenceKey {
	return OccurrenceKey{
		EventID:   o.EventID,
		Week:      o.Week,
		DayOfWeek: o.DayOfWeek,
		StartTime: o.StartTime,
		EndTime:   o.EndTime,
	}
}

// CalendarEvent is the per-occurrence render record: absolute instants
// resolved against the semester start plus everything a renderer needs.
type CalendarEvent struct {
	EventID string
	Title   string
	Source  EventSource

	// Start / End are absolute instants. End is always after Start; a
	// degenerate source range is widened to 30 minutes at resolution time.
	Start time.Time
	End   time.Time

	DayOfWeek   int
	StartMinute int
	EndMinute   int

	CourseID      string
	CourseName    string
	EventTypeCode string
	WeekPattern   WeekPattern

	// Color is a "#rrggbb" hex string chosen by the layout palette.
	Color string

	IsSkipped  bool
	IsConflict bool

	Note string
}

// PositionedItem is a CalendarEvent augmented with its horizontal lane
// assignment within its day column.
//
// Invariants: two items of the same day with overlapping
// [StartMinute, EndMinute) never share a Lane; LaneCount is identical across
// all items of one maximal overlap cluster and equals max(Lane)+1 there.
type PositionedItem struct {
	CalendarEvent

	Lane      int
	LaneCount int
}

// WeekCalendarModel is the bucketed-by-day structure ready for drawing.
// It is a value object rebuilt from the current occurrence snapshot on
// every render or export request.
type WeekCalendarModel struct {
	// MinuteStart / MinuteEnd bound the visible day window; MinuteEnd is
	// always strictly greater than MinuteStart.
	MinuteStart  int
	MinuteEnd    int
	TotalMinutes int

	// HourMarks are ascending gridline minutes, always including both
	// window boundaries.
	HourMarks []int

	// ByDay has an entry for every day 1..7, empty days included.
	ByDay map[int][]PositionedItem
}

// SemesterDescriptor is the semester date envelope from the schedule
// service; either date may be absent or unparseable.
type SemesterDescriptor struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	MaxWeek   int    `json:"max_week,omitempty"`
}
