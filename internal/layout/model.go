package layout

import (
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/model"
)

// Default day window used when a caller supplies a degenerate one.
const (
	DefaultDayStartMinute = 8 * 60  // 08:00
	DefaultDayEndMinute   = 20 * 60 // 20:00
)

// BuildWeekCalendarModel buckets events by day-of-week, packs lanes within
// each day, and computes the hour gridline marks for the requested window.
//
// The window is normalized first: minutes are clamped to [0, 1440] and a
// window whose end does not exceed its start falls back to 08:00–20:00.
// All seven day buckets are always present, empty days included.
func BuildWeekCalendarModel(events []model.CalendarEvent, dayStartMinutes, dayEndMinutes int) model.WeekCalendarModel {
	start, end := normalizeWindow(dayStartMinutes, dayEndMinutes)

	byDayEvents := make(map[int][]model.CalendarEvent, 7)
	for _, ev := range events {
		day := ev.DayOfWeek
		if day < 1 || day > 7 {
			day = 1
		}
		byDayEvents[day] = append(byDayEvents[day], ev)
	}

	byDay := make(map[int][]model.PositionedItem, 7)
	for day := 1; day <= 7; day++ {
		byDay[day] = packLanes(byDayEvents[day])
		if byDay[day] == nil {
			byDay[day] = []model.PositionedItem{}
		}
	}

	return model.WeekCalendarModel{
		MinuteStart:  start,
		MinuteEnd:    end,
		TotalMinutes: end - start,
		HourMarks:    hourMarks(start, end),
		ByDay:        byDay,
	}
}

func normalizeWindow(start, end int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > 24*60 {
		end = 24 * 60
	}
	if end <= start {
		return DefaultDayStartMinute, DefaultDayEndMinute
	}
	return start, end
}

// hourMarks returns the window start, every whole-hour boundary strictly
// inside the window, and the window end, ascending without duplicates.
func hourMarks(start, end int) []int {
	marks := []int{start}
	for m := (start/60 + 1) * 60; m < end; m += 60 {
		marks = append(marks, m)
	}
	if marks[len(marks)-1] != end {
		marks = append(marks, end)
	}
	return marks
}
