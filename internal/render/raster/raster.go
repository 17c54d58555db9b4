// Package raster renders a week calendar frame onto an off-screen canvas
// and encodes it as PNG.
package raster

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/layout"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/model"
)

// SuperSample scales the logical geometry up so exports stay crisp
// regardless of the viewer's display density.
const SuperSample = 2

// Renderer draws week calendar models as PNG blobs. It is stateless apart
// from the parsed fonts and safe for reuse across exports.
type Renderer struct {
	geom layout.Geometry

	fontsOnce sync.Once
	fontsErr  error
	title     font.Face
	header    font.Face
	axis      font.Face
	box       font.Face
	badge     font.Face
}

// New returns a Renderer over the shared default geometry.
func New() *Renderer {
	return &Renderer{geom: layout.DefaultGeometry()}
}

// Render draws m and returns the encoded PNG. An empty model still yields a
// valid empty-grid image.
func (r *Renderer) Render(m model.WeekCalendarModel, title string) ([]byte, error) {
	if m.TotalMinutes <= 0 {
		return nil, fmt.Errorf("raster: model has no time span")
	}
	if err := r.loadFonts(); err != nil {
		return nil, fmt.Errorf("raster: fonts unavailable: %w", err)
	}

	frame := layout.BuildFrame(m, title, r.geom)

	s := float64(SuperSample)
	dc := gg.NewContext(int(frame.Width*s), int(frame.Height*s))
	dc.Scale(s, s)

	setColor(dc, layout.ColorBackground)
	dc.Clear()

	r.drawChrome(dc, frame)
	for _, box := range frame.Boxes {
		r.drawBox(dc, box)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("raster: png encode: %w", err)
	}
	return buf.Bytes(), nil
}

// drawChrome paints the title band, day headers, time axis and gridlines.
func (r *Renderer) drawChrome(dc *gg.Context, f layout.Frame) {
	// Title band.
	dc.SetFontFace(r.title)
	setColor(dc, layout.ColorTitleText)
	dc.DrawStringAnchored(f.Title, f.TitleRect.X+f.TitleRect.W/2, f.TitleRect.Y+f.TitleRect.H/2, 0.5, 0.5)

	// Day header band.
	setColor(dc, layout.ColorHeaderFill)
	dc.DrawRectangle(f.HeaderRect.X, f.HeaderRect.Y, f.HeaderRect.W, f.HeaderRect.H)
	dc.Fill()
	dc.SetFontFace(r.header)
	setColor(dc, layout.ColorTitleText)
	for _, dl := range f.DayLabels {
		dc.DrawStringAnchored(dl.Text, dl.X+dl.W/2, f.HeaderRect.Y+f.HeaderRect.H/2, 0.5, 0.5)
	}

	// Gridlines.
	setColor(dc, layout.ColorGridLine)
	dc.SetLineWidth(1)
	for _, ln := range f.GridLines {
		dc.DrawLine(ln.X1, ln.Y1, ln.X2, ln.Y2)
		dc.Stroke()
	}

	// Time axis captions, right-aligned against the grid edge.
	dc.SetFontFace(r.axis)
	setColor(dc, layout.ColorAxisText)
	for _, hl := range f.HourLabels {
		dc.DrawStringAnchored(hl.Text, f.GridRect.X-6, hl.Y, 1.0, 0.5)
	}
}

// drawBox paints one positioned event rectangle with its decorations.
func (r *Renderer) drawBox(dc *gg.Context, box layout.ItemBox) {
	rect := box.Rect
	item := box.Item

	setColor(dc, layout.BoxFill(item))
	dc.DrawRectangle(rect.X, rect.Y, rect.W, rect.H)
	dc.Fill()

	if item.IsConflict {
		setColor(dc, layout.ColorConflictEdge)
		dc.SetLineWidth(2)
		dc.DrawRectangle(rect.X+1, rect.Y+1, rect.W-2, rect.H-2)
		dc.Stroke()
	}

	textColor := layout.ColorBoxText
	if item.IsSkipped {
		textColor = layout.ColorSkippedText
	}

	// Text is clipped to the box; whatever does not fit is truncated with
	// an ellipsis rather than bleeding into neighbors.
	dc.Push()
	dc.DrawRectangle(rect.X, rect.Y, rect.W, rect.H)
	dc.Clip()

	pad := 3.0
	maxW := rect.W - 2*pad

	dc.SetFontFace(r.box)
	setColor(dc, textColor)
	titleText := truncate(dc, item.Title, maxW)
	dc.DrawStringAnchored(titleText, rect.X+pad, rect.Y+pad+5, 0, 0.5)

	if rect.H >= 26 {
		span := fmt.Sprintf("%02d:%02d–%02d:%02d",
			item.StartMinute/60, item.StartMinute%60,
			item.EndMinute/60, item.EndMinute%60)
		dc.DrawStringAnchored(truncate(dc, span, maxW), rect.X+pad, rect.Y+pad+16, 0, 0.5)
	}

	dc.Pop()

	if item.WeekPattern == model.PatternAlternating {
		r.drawAltBadge(dc, rect)
	}
}

// drawAltBadge marks non-weekly items with a small "ALT" tag in the top
// right corner of the box.
func (r *Renderer) drawAltBadge(dc *gg.Context, rect layout.Rect) {
	const bw, bh = 20.0, 9.0
	x := rect.X + rect.W - bw - 2
	y := rect.Y + 2
	if x < rect.X || rect.H < bh+4 {
		return
	}
	dc.SetRGBA(0, 0, 0, 0.35)
	dc.DrawRectangle(x, y, bw, bh)
	dc.Fill()
	dc.SetFontFace(r.badge)
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored("ALT", x+bw/2, y+bh/2, 0.5, 0.5)
}

// truncate cuts s down with a trailing ellipsis until it fits maxW under
// the current font face.
func truncate(dc *gg.Context, s string, maxW float64) string {
	if w, _ := dc.MeasureString(s); w <= maxW {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		candidate := string(runes) + "…"
		if w, _ := dc.MeasureString(candidate); w <= maxW {
			return candidate
		}
		runes = runes[:len(runes)-1]
	}
	return ""
}

func (r *Renderer) loadFonts() error {
	r.fontsOnce.Do(func() {
		regular, err := opentype.Parse(goregular.TTF)
		if err != nil {
			r.fontsErr = err
			return
		}
		bold, err := opentype.Parse(gobold.TTF)
		if err != nil {
			r.fontsErr = err
			return
		}

		face := func(f *opentype.Font, size float64) (font.Face, error) {
			return opentype.NewFace(f, &opentype.FaceOptions{
				Size:    size,
				DPI:     72,
				Hinting: font.HintingFull,
			})
		}

		if r.title, err = face(bold, 16); err != nil {
			r.fontsErr = err
			return
		}
		if r.header, err = face(bold, 11); err != nil {
			r.fontsErr = err
			return
		}
		if r.axis, err = face(regular, 9); err != nil {
			r.fontsErr = err
			return
		}
		if r.box, err = face(regular, 9); err != nil {
			r.fontsErr = err
			return
		}
		if r.badge, err = face(bold, 6); err != nil {
			r.fontsErr = err
			return
		}
	})
	return r.fontsErr
}

func setColor(dc *gg.Context, c layout.RGB) {
	dc.SetRGB255(int(c.R), int(c.G), int(c.B))
}
