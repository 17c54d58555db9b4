package pdf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/layout"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/model"
)

func sampleModel() model.WeekCalendarModel {
	events := []model.CalendarEvent{
		{
			EventID: "a", Title: "Calculus · LEC", DayOfWeek: 1,
			StartMinute: 540, EndMinute: 630, Color: "#3b82f6",
		},
		{
			EventID: "b", Title: "Calculus · LAB", DayOfWeek: 1,
			StartMinute: 570, EndMinute: 660, Color: "#10b981",
			IsConflict: true,
		},
		{
			EventID: "c", Title: "Physics (skipped)", DayOfWeek: 3,
			StartMinute: 600, EndMinute: 690, Color: "#f59e0b",
			IsSkipped: true, WeekPattern: model.PatternAlternating,
		},
	}
	return layout.BuildWeekCalendarModel(events, 480, 1200)
}

func TestRenderProducesValidDocument(t *testing.T) {
	out, err := New().Render(sampleModel(), "Fall 2025 · Week 3")
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-1.4\n")))
	assert.True(t, bytes.HasSuffix(out, []byte("%%EOF\n")))

	s := string(out)
	assert.Contains(t, s, "/MediaBox")
	assert.Contains(t, s, "/BaseFont /Helvetica")
	assert.Contains(t, s, "/BaseFont /Helvetica-Bold")
	assert.Contains(t, s, "/Encoding /WinAnsiEncoding")
	// Mandatory object skeleton.
	assert.Contains(t, s, "/Type /Catalog")
	assert.Contains(t, s, "/Type /Pages")
	assert.Contains(t, s, "/Type /Page")
	// Drawing and text operators made it into the content stream.
	assert.Contains(t, s, " re f")
	assert.Contains(t, s, " Tj ET")
	assert.Contains(t, s, "(ALT) Tj")
}

func TestRenderEmptyModelStillValid(t *testing.T) {
	m := layout.BuildWeekCalendarModel(nil, 480, 1200)
	out, err := New().Render(m, "Empty Semester")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-1.4\n")))
	assert.True(t, bytes.HasSuffix(out, []byte("%%EOF\n")))
	assert.Contains(t, string(out), "(Empty Semester) Tj")
}

func TestRenderRejectsDegenerateModel(t *testing.T) {
	_, err := New().Render(model.WeekCalendarModel{}, "broken")
	assert.Error(t, err)
}

func TestRenderEscapesTitleCharacters(t *testing.T) {
	m := layout.BuildWeekCalendarModel(nil, 480, 1200)
	out, err := New().Render(m, `Plan (draft) \ v2`)
	require.NoError(t, err)
	assert.Contains(t, string(out), `(Plan \(draft\) \\ v2) Tj`)
}

func TestRenderMatchesFrameGeometry(t *testing.T) {
	m := sampleModel()
	f := layout.BuildFrame(m, "x", layout.DefaultGeometry())
	out, err := New().Render(m, "x")
	require.NoError(t, err)

	// The page MediaBox mirrors the shared frame dimensions, which is what
	// keeps the two backends visually consistent.
	assert.Contains(t, string(out), "/MediaBox [0 0 "+num(f.Width)+" "+num(f.Height)+"]")
}
