package layout

import (
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/model"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/timetable"
)

// Geometry holds the logical layout constants shared by both export
// backends. Keeping these in one place is what guarantees the PNG and PDF
// outputs agree on band heights, column math and lane rectangles.
type Geometry struct {
	AxisWidth    float64 // time-axis column on the left
	DayColWidth  float64 // one of seven day columns
	TitleBand    float64 // title strip at the top
	DayHeader    float64 // weekday name strip under the title
	MinGridInner float64 // floor for the grid body height
	PxPerMinute  float64 // vertical scale before the floor kicks in
	ColPad       float64 // horizontal padding inside a day column
	LaneGutter   float64 // gap between adjacent lanes
	BoxInsetY    float64 // vertical inset between stacked boxes
}

// DefaultGeometry is the logical export layout; renderers scale it by their
// supersampling factor.
func DefaultGeometry() Geometry {
	return Geometry{
		AxisWidth:    56,
		DayColWidth:  150,
		TitleBand:    44,
		DayHeader:    30,
		MinGridInner: 360,
		PxPerMinute:  1.0,
		ColPad:       3,
		LaneGutter:   2,
		BoxInsetY:    1,
	}
}

// Rect is an axis-aligned rectangle in top-left raster coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Line is a straight segment.
type Line struct {
	X1, Y1, X2, Y2 float64
}

// DayLabel is one weekday header cell.
type DayLabel struct {
	X, W float64
	Text string
}

// HourLabel is one time-axis caption at a gridline.
type HourLabel struct {
	Y    float64
	Text string
}

// ItemBox is one positioned event resolved to its drawable rectangle.
// Clipped is true when the event extends beyond the visible window and the
// rectangle covers only the visible span.
type ItemBox struct {
	Rect    Rect
	Item    model.PositionedItem
	Clipped bool
}

// Frame is the backend-neutral display list for one week calendar. Both
// renderers consume a Frame and translate it into their own primitives.
type Frame struct {
	Width, Height float64

	Title     string
	TitleRect Rect

	HeaderRect Rect
	DayLabels  []DayLabel

	GridRect   Rect
	GridLines  []Line
	HourLabels []HourLabel

	Boxes []ItemBox
}

var dayNames = [8]string{"", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// BuildFrame resolves a week model to concrete top-left-origin rectangles
// under geometry g. Events entirely outside the visible window produce no
// box; partially visible events are clipped to the window.
func BuildFrame(m model.WeekCalendarModel, title string, g Geometry) Frame {
	gridH := float64(m.TotalMinutes) * g.PxPerMinute
	if gridH < g.MinGridInner {
		gridH = g.MinGridInner
	}
	scale := gridH / float64(m.TotalMinutes)

	width := g.AxisWidth + 7*g.DayColWidth
	gridTop := g.TitleBand + g.DayHeader
	height := gridTop + gridH

	f := Frame{
		Width:      width,
		Height:     height,
		Title:      title,
		TitleRect:  Rect{X: 0, Y: 0, W: width, H: g.TitleBand},
		HeaderRect: Rect{X: 0, Y: g.TitleBand, W: width, H: g.DayHeader},
		GridRect:   Rect{X: g.AxisWidth, Y: gridTop, W: 7 * g.DayColWidth, H: gridH},
	}

	timeY := func(minute int) float64 {
		return gridTop + float64(minute-m.MinuteStart)*scale
	}

	for day := 1; day <= 7; day++ {
		x := g.AxisWidth + float64(day-1)*g.DayColWidth
		f.DayLabels = append(f.DayLabels, DayLabel{X: x, W: g.DayColWidth, Text: dayNames[day]})
		// Vertical separators, including the axis edge at day 1.
		f.GridLines = append(f.GridLines, Line{X1: x, Y1: gridTop, X2: x, Y2: gridTop + gridH})
	}

	for _, mark := range m.HourMarks {
		y := timeY(mark)
		f.GridLines = append(f.GridLines, Line{X1: g.AxisWidth, Y1: y, X2: width, Y2: y})
		f.HourLabels = append(f.HourLabels, HourLabel{Y: y, Text: timetable.MinuteClock(mark)})
	}

	for day := 1; day <= 7; day++ {
		colX := g.AxisWidth + float64(day-1)*g.DayColWidth
		innerX := colX + g.ColPad
		innerW := g.DayColWidth - 2*g.ColPad

		for _, item := range m.ByDay[day] {
			visStart := item.StartMinute
			visEnd := item.EndMinute
			clipped := false
			if visStart < m.MinuteStart {
				visStart = m.MinuteStart
				clipped = true
			}
			if visEnd > m.MinuteEnd {
				visEnd = m.MinuteEnd
				clipped = true
			}
			if visEnd <= visStart {
				continue // entirely outside the window
			}

			laneCount := item.LaneCount
			if laneCount < 1 {
				laneCount = 1
			}
			laneW := (innerW - g.LaneGutter*float64(laneCount-1)) / float64(laneCount)
			x := innerX + float64(item.Lane)*(laneW+g.LaneGutter)

			y := timeY(visStart) + g.BoxInsetY
			h := float64(visEnd-visStart)*scale - 2*g.BoxInsetY
			if h < 2 {
				h = 2
			}

			f.Boxes = append(f.Boxes, ItemBox{
				Rect:    Rect{X: x, Y: y, W: laneW, H: h},
				Item:    item,
				Clipped: clipped,
			})
		}
	}

	return f
}
