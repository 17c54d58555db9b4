package raster

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/layout"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/model"
)

func TestRenderEmptyModelYieldsDecodablePNG(t *testing.T) {
	m := layout.BuildWeekCalendarModel(nil, 480, 1200)
	blob, err := New().Render(m, "Empty Semester")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(blob))
	require.NoError(t, err)

	f := layout.BuildFrame(m, "Empty Semester", layout.DefaultGeometry())
	assert.Equal(t, int(f.Width)*SuperSample, img.Bounds().Dx())
	assert.Equal(t, int(f.Height)*SuperSample, img.Bounds().Dy())
}

func TestRenderWithItems(t *testing.T) {
	events := []model.CalendarEvent{
		{
			EventID: "a", Title: "Calculus · LEC", DayOfWeek: 1,
			StartMinute: 540, EndMinute: 630, Color: "#3b82f6",
		},
		{
			EventID: "b", Title: "Calculus · LAB overlapping with a very long title",
			DayOfWeek: 1, StartMinute: 570, EndMinute: 660, Color: "#10b981",
			IsConflict: true,
		},
		{
			EventID: "c", Title: "Physics", DayOfWeek: 5,
			StartMinute: 600, EndMinute: 690, Color: "#f59e0b",
			IsSkipped: true, WeekPattern: model.PatternAlternating,
		},
		{
			// Partially outside the window: drawn clipped, not skipped.
			EventID: "d", Title: "Early", DayOfWeek: 2,
			StartMinute: 400, EndMinute: 520, Color: "#8b5cf6",
		},
	}

	m := layout.BuildWeekCalendarModel(events, 480, 1200)
	blob, err := New().Render(m, "Fall 2025")
	require.NoError(t, err)

	_, err = png.Decode(bytes.NewReader(blob))
	assert.NoError(t, err)
}

func TestRenderDegenerateModelErrors(t *testing.T) {
	// A hand-built model with no time span must be rejected, not rendered.
	m := model.WeekCalendarModel{MinuteStart: 480, MinuteEnd: 480}
	_, err := New().Render(m, "broken")
	assert.Error(t, err)
}

func TestRendererIsReusable(t *testing.T) {
	r := New()
	m := layout.BuildWeekCalendarModel(nil, 480, 1200)

	first, err := r.Render(m, "one")
	require.NoError(t, err)
	second, err := r.Render(m, "one")
	require.NoError(t, err)
	assert.Equal(t, first, second, "same input must render identically")
}
