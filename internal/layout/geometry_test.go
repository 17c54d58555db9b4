package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/model"
)

func TestBuildFrameChrome(t *testing.T) {
	g := DefaultGeometry()
	m := BuildWeekCalendarModel(nil, 480, 1200)
	f := BuildFrame(m, "Fall 2025", g)

	assert.Equal(t, "Fall 2025", f.Title)
	assert.Equal(t, g.AxisWidth+7*g.DayColWidth, f.Width)
	require.Len(t, f.DayLabels, 7)
	assert.Equal(t, "Mon", f.DayLabels[0].Text)
	assert.Equal(t, "Sun", f.DayLabels[6].Text)

	// One hour label per mark, captioned as clock text.
	require.Len(t, f.HourLabels, len(m.HourMarks))
	assert.Equal(t, "08:00", f.HourLabels[0].Text)
	assert.Equal(t, "20:00", f.HourLabels[len(f.HourLabels)-1].Text)
}

func TestBuildFrameMinimumGridHeight(t *testing.T) {
	g := DefaultGeometry()
	// A 40-minute window would be illegibly short without the floor.
	m := BuildWeekCalendarModel(nil, 480, 520)
	f := BuildFrame(m, "", g)
	assert.Equal(t, g.MinGridInner, f.GridRect.H)
}

func TestBuildFrameClipsPartialItems(t *testing.T) {
	g := DefaultGeometry()
	events := []model.CalendarEvent{
		ev("before", 1, 400, 520),  // starts before the window
		ev("after", 1, 1180, 1300), // ends after the window
		ev("outside", 1, 100, 200), // entirely outside: no box
		ev("inside", 2, 540, 600),
	}
	m := BuildWeekCalendarModel(events, 480, 1200)
	f := BuildFrame(m, "", g)

	require.Len(t, f.Boxes, 3)
	byID := map[string]ItemBox{}
	for _, b := range f.Boxes {
		byID[b.Item.EventID] = b
	}

	assert.True(t, byID["before"].Clipped)
	assert.True(t, byID["after"].Clipped)
	assert.False(t, byID["inside"].Clipped)

	// Every box stays inside the grid body.
	for id, b := range byID {
		assert.GreaterOrEqual(t, b.Rect.Y, f.GridRect.Y-0.01, "box %s above grid", id)
		assert.LessOrEqual(t, b.Rect.Y+b.Rect.H, f.GridRect.Y+f.GridRect.H+0.01, "box %s below grid", id)
	}
}

func TestBuildFrameLaneRectangles(t *testing.T) {
	g := DefaultGeometry()
	events := []model.CalendarEvent{
		ev("a", 1, 540, 600),
		ev("b", 1, 570, 630),
	}
	m := BuildWeekCalendarModel(events, 480, 1200)
	f := BuildFrame(m, "", g)
	require.Len(t, f.Boxes, 2)

	a, b := f.Boxes[0], f.Boxes[1]
	// Two lanes split the inner column width; no horizontal overlap.
	assert.InDelta(t, a.Rect.W, b.Rect.W, 0.01)
	left, right := a, b
	if left.Rect.X > right.Rect.X {
		left, right = right, left
	}
	assert.GreaterOrEqual(t, right.Rect.X, left.Rect.X+left.Rect.W)
}

func TestParseHex(t *testing.T) {
	assert.Equal(t, RGB{0x3B, 0x82, 0xF6}, ParseHex("#3b82f6"))
	// Garbage falls back to neutral gray instead of failing the render.
	assert.Equal(t, RGB{0x9C, 0xA3, 0xAF}, ParseHex("teal"))
	assert.Equal(t, RGB{0x9C, 0xA3, 0xAF}, ParseHex(""))
}

func TestHexRoundTrip(t *testing.T) {
	c := RGB{0x10, 0xB9, 0x81}
	assert.Equal(t, c, ParseHex(c.Hex()))
}

func TestDesaturateLightens(t *testing.T) {
	c := RGB{0x20, 0x40, 0x60}
	d := Desaturate(c)
	assert.Greater(t, d.R, c.R)
	assert.Greater(t, d.G, c.G)
	assert.Greater(t, d.B, c.B)
}

func TestColorForCourseIsStable(t *testing.T) {
	assert.Equal(t, ColorForCourse("MATH101"), ColorForCourse("MATH101"))
}

func TestAssignColors(t *testing.T) {
	events := []model.CalendarEvent{
		{CourseID: "MATH101"},
		{CourseID: "MATH101"},
		{CourseID: "PHYS201", Color: "#112233"},
	}
	AssignColors(events)

	assert.NotEmpty(t, events[0].Color)
	assert.Equal(t, events[0].Color, events[1].Color, "same course, same color")
	assert.Equal(t, "#112233", events[2].Color, "explicit color preserved")
}

func TestBoxFillDesaturatesSkipped(t *testing.T) {
	item := model.PositionedItem{CalendarEvent: model.CalendarEvent{Color: "#204060", IsSkipped: true}}
	assert.Equal(t, Desaturate(RGB{0x20, 0x40, 0x60}), BoxFill(item))

	item.IsSkipped = false
	assert.Equal(t, RGB{0x20, 0x40, 0x60}, BoxFill(item))
}
