package layout

import (
	"fmt"
	"hash/fnv"

	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/model"
)

// RGB is a backend-neutral color. Both renderers convert from it.
type RGB struct {
	R, G, B uint8
}

// coursePalette cycles per course so one course keeps one color across the
// whole week. Ordering matters only for stability.
var coursePalette = []RGB{
	{0x3B, 0x82, 0xF6}, // blue
	{0x10, 0xB9, 0x81}, // emerald
	{0xF5, 0x9E, 0x0B}, // amber
	{0x8B, 0x5C, 0xF6}, // violet
	{0xEF, 0x44, 0x44}, // red
	{0x06, 0xB6, 0xD4}, // cyan
	{0xEC, 0x48, 0x99}, // pink
	{0x84, 0xCC, 0x16}, // lime
}

// Fixed colors shared by both renderers.
var (
	ColorBackground   = RGB{0xFF, 0xFF, 0xFF}
	ColorTitleText    = RGB{0x1F, 0x29, 0x37}
	ColorHeaderFill   = RGB{0xF3, 0xF4, 0xF6}
	ColorGridLine     = RGB{0xE5, 0xE7, 0xEB}
	ColorAxisText     = RGB{0x6B, 0x72, 0x80}
	ColorBoxText      = RGB{0xFF, 0xFF, 0xFF}
	ColorSkippedText  = RGB{0x6B, 0x72, 0x80}
	ColorConflictEdge = RGB{0xDC, 0x26, 0x26}
)

// ColorForCourse picks a stable palette color for a course identifier.
func ColorForCourse(courseID string) RGB {
	h := fnv.New32a()
	_, _ = h.Write([]byte(courseID))
	return coursePalette[h.Sum32()%uint32(len(coursePalette))]
}

// AssignColors fills in each event's Color from the course palette,
// leaving explicitly colored events alone.
func AssignColors(events []model.CalendarEvent) {
	for i := range events {
		if events[i].Color == "" {
			events[i].Color = ColorForCourse(events[i].CourseID).Hex()
		}
	}
}

// Hex renders c as "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses "#rrggbb"; anything else falls back to a neutral gray so
// a bad color never aborts a render.
func ParseHex(s string) RGB {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return RGB{0x9C, 0xA3, 0xAF}
	}
	return RGB{r, g, b}
}

// Desaturate washes a color toward white; skipped items render with it.
func Desaturate(c RGB) RGB {
	mix := func(v uint8) uint8 {
		return uint8((uint16(v) + 3*0xFF) / 4)
	}
	return RGB{mix(c.R), mix(c.G), mix(c.B)}
}

// BoxFill returns the fill color for an item, accounting for skip state.
func BoxFill(item model.PositionedItem) RGB {
	c := ParseHex(item.Color)
	if item.IsSkipped {
		return Desaturate(c)
	}
	return c
}
