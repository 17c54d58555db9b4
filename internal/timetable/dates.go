package timetable

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/model"
)

// minGapMinutes widens a degenerate occurrence (end at or before start) so
// every event has a renderable box.
const minGapMinutes = 30

// ToMinutes parses an "HH:MM" time-of-day into minutes since midnight.
// Malformed input yields 0: a single bad record must shift to a default
// position, not crash a render.
func ToMinutes(s string) int {
	h, m, ok := splitClock(s)
	if !ok {
		return 0
	}
	return h*60 + m
}

func splitClock(s string) (h, m int, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err = strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// MinuteClock formats minutes-since-midnight back into "HH:MM".
func MinuteClock(minute int) string {
	if minute < 0 {
		minute = 0
	}
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// MondayOf returns the Monday of t's week, truncated to midnight in t's
// location.
func MondayOf(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -(weekday - 1))
}

// ParseDate parses a semester date in its two accepted shapes.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// ResolveSemesterDateRange resolves a semester's inclusive date envelope.
//
//   - A missing or unparseable start defaults to now.
//   - The resolved start is always snapped to the Monday of its week.
//   - A missing, unparseable, or out-of-order end falls back to
//     start + maxWeek*7 - 1 days.
func ResolveSemesterDateRange(startDate, endDate string, maxWeek int) (start, end time.Time) {
	if maxWeek < 1 {
		maxWeek = 1
	}

	start, err := ParseDate(startDate)
	if err != nil {
		start = time.Now()
	}
	start = MondayOf(start)

	end, err = ParseDate(endDate)
	if err != nil || end.Before(start) {
		end = start.AddDate(0, 0, maxWeek*7-1)
	}
	return start, end
}

// DateForOccurrence resolves the calendar date of (week, dayOfWeek) against
// a semester start. Weeks and days are 1-based; inputs below 1 clamp to 1
// and dayOfWeek above 7 clamps to 7.
func DateForOccurrence(semesterStart time.Time, week, dayOfWeek int) time.Time {
	if week < 1 {
		week = 1
	}
	if dayOfWeek < 1 {
		dayOfWeek = 1
	}
	if dayOfWeek > 7 {
		dayOfWeek = 7
	}
	return MondayOf(semesterStart).AddDate(0, 0, (week-1)*7+(dayOfWeek-1))
}

// Events derives the per-occurrence render records from a normalized
// occurrence list: absolute instants against the semester start, display
// title, and minute-of-day bounds. Occurrences whose definition is disabled
// are excluded. Colors are assigned later by the layout palette.
func Events(occs []model.ScheduleOccurrence, semesterStart time.Time) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, len(occs))
	for _, occ := range occs {
		if !occ.Enable {
			continue
		}
		out = append(out, Event(occ, semesterStart))
	}
	return out
}

// Event derives the render record for a single occurrence.
func Event(occ model.ScheduleOccurrence, semesterStart time.Time) model.CalendarEvent {
	date := DateForOccurrence(semesterStart, occ.Week, occ.DayOfWeek)

	startMin := ToMinutes(occ.StartTime)
	endMin := ToMinutes(occ.EndTime)
	if endMin <= startMin {
		// Guarantee end > start so every event has a drawable box.
		endMin = startMin + minGapMinutes
	}

	start := date.Add(time.Duration(startMin) * time.Minute)
	end := date.Add(time.Duration(endMin) * time.Minute)

	return model.CalendarEvent{
		EventID:       occ.EventID,
		Title:         DisplayTitle(occ),
		Source:        model.SourceSchedule,
		Start:         start,
		End:           end,
		DayOfWeek:     clampDay(occ.DayOfWeek),
		StartMinute:   startMin,
		EndMinute:     endMin,
		CourseID:      occ.CourseID,
		CourseName:    occ.CourseName,
		EventTypeCode: occ.EventTypeCode,
		WeekPattern:   occ.WeekPattern,
		IsSkipped:     occ.Skip,
		IsConflict:    occ.IsConflict,
		Note:          occ.Note,
	}
}

// DisplayTitle is the explicit title when present, else
// "<courseName> · <eventTypeCode>".
func DisplayTitle(occ model.ScheduleOccurrence) string {
	if occ.Title != "" {
		return occ.Title
	}
	return occ.CourseName + " · " + occ.EventTypeCode
}

func clampDay(d int) int {
	if d < 1 {
		return 1
	}
	if d > 7 {
		return 7
	}
	return d
}
