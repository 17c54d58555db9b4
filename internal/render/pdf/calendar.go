package pdf

import (
	"bytes"
	"fmt"

	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/layout"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/model"
)

// Font resource names inside the page's resource dictionary.
const (
	fontRegular = "/F1"
	fontBold    = "/F2"
)

// Renderer reproduces the week calendar as a single-page PDF. It shares the
// layout geometry with the raster backend so both exports agree on lane
// rectangles and band positions.
type Renderer struct {
	geom layout.Geometry
}

// New returns a Renderer over the shared default geometry.
func New() *Renderer {
	return &Renderer{geom: layout.DefaultGeometry()}
}

// Render draws m and returns the complete PDF document bytes. An empty
// model yields a valid empty-grid page.
func (r *Renderer) Render(m model.WeekCalendarModel, title string) ([]byte, error) {
	if m.TotalMinutes <= 0 {
		return nil, fmt.Errorf("pdf: model has no time span")
	}

	frame := layout.BuildFrame(m, title, r.geom)
	content := r.buildContent(frame)

	w := NewWriter()
	// Fixed numbering: 1 catalog, 2 pages, 3 page, 4 content, 5/6 fonts.
	catalog := w.Add("<< /Type /Catalog /Pages 2 0 R >>")
	w.Add("<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	w.Add(fmt.Sprintf(
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s] /Resources << /Font << /F1 5 0 R /F2 6 0 R >> >> /Contents 4 0 R >>",
		num(frame.Width), num(frame.Height)))
	w.AddStream("", content)
	w.Add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	w.Add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica-Bold /Encoding /WinAnsiEncoding >>")

	return w.Bytes(catalog), nil
}

// buildContent emits the page's drawing operators. All frame coordinates
// are top-left origin; the content builder flips them into the
// bottom-left-origin page space.
func (r *Renderer) buildContent(f layout.Frame) []byte {
	c := &content{pageH: f.Height}

	// Title, centered in the title band.
	titleText := EncodeWinAnsi(f.Title)
	const titleSize = 14.0
	c.fillColor(layout.ColorTitleText)
	c.text(fontBold, titleSize,
		(f.Width-textWidth(titleText, titleSize))/2,
		f.TitleRect.Y+f.TitleRect.H/2+titleSize*0.35,
		titleText)

	// Day header band.
	c.fillColor(layout.ColorHeaderFill)
	c.fillRect(f.HeaderRect)
	c.fillColor(layout.ColorTitleText)
	const headerSize = 10.0
	for _, dl := range f.DayLabels {
		enc := EncodeWinAnsi(dl.Text)
		c.text(fontBold, headerSize,
			dl.X+(dl.W-textWidth(enc, headerSize))/2,
			f.HeaderRect.Y+f.HeaderRect.H/2+headerSize*0.35,
			enc)
	}

	// Gridlines.
	c.strokeColor(layout.ColorGridLine)
	c.lineWidth(0.75)
	for _, ln := range f.GridLines {
		c.line(ln)
	}

	// Hour captions, right-aligned against the grid edge.
	c.fillColor(layout.ColorAxisText)
	const axisSize = 8.0
	for _, hl := range f.HourLabels {
		enc := EncodeWinAnsi(hl.Text)
		c.text(fontRegular, axisSize,
			f.GridRect.X-6-textWidth(enc, axisSize),
			hl.Y+axisSize*0.35,
			enc)
	}

	for _, box := range f.Boxes {
		r.drawBox(c, box)
	}

	return c.bytes()
}

func (r *Renderer) drawBox(c *content, box layout.ItemBox) {
	rect := box.Rect
	item := box.Item

	c.fillColor(layout.BoxFill(item))
	c.fillRect(rect)

	if item.IsConflict {
		c.strokeColor(layout.ColorConflictEdge)
		c.lineWidth(1.5)
		c.strokeRect(layout.Rect{X: rect.X + 1, Y: rect.Y + 1, W: rect.W - 2, H: rect.H - 2})
	}

	textColor := layout.ColorBoxText
	if item.IsSkipped {
		textColor = layout.ColorSkippedText
	}
	c.fillColor(textColor)

	const pad = 3.0
	const boxSize = 8.0
	maxW := rect.W - 2*pad
	if maxW <= 0 || rect.H < boxSize+2*pad {
		return
	}

	titleText := truncateToWidth(EncodeWinAnsi(item.Title), boxSize, maxW)
	c.text(fontRegular, boxSize, rect.X+pad, rect.Y+pad+boxSize, titleText)

	if rect.H >= 26 {
		span := fmt.Sprintf("%02d:%02d–%02d:%02d",
			item.StartMinute/60, item.StartMinute%60,
			item.EndMinute/60, item.EndMinute%60)
		enc := truncateToWidth(EncodeWinAnsi(span), boxSize, maxW)
		c.text(fontRegular, boxSize, rect.X+pad, rect.Y+pad+boxSize+11, enc)
	}

	if item.WeekPattern == model.PatternAlternating {
		r.drawAltBadge(c, rect)
	}
}

// drawAltBadge mirrors the raster backend's alternating-week tag.
func (r *Renderer) drawAltBadge(c *content, rect layout.Rect) {
	const bw, bh = 20.0, 9.0
	x := rect.X + rect.W - bw - 2
	y := rect.Y + 2
	if x < rect.X || rect.H < bh+4 {
		return
	}
	c.fillColor(layout.RGB{R: 0x44, G: 0x44, B: 0x44})
	c.fillRect(layout.Rect{X: x, Y: y, W: bw, H: bh})
	c.fillColor(layout.RGB{R: 0xFF, G: 0xFF, B: 0xFF})
	const badgeSize = 6.0
	enc := EncodeWinAnsi("ALT")
	c.text(fontBold, badgeSize,
		x+(bw-textWidth(enc, badgeSize))/2,
		y+bh/2+badgeSize*0.35,
		enc)
}

// content builds one page content stream, translating from the frame's
// top-left raster convention into PDF's bottom-left-origin space.
type content struct {
	buf   bytes.Buffer
	pageH float64
}

func (c *content) bytes() []byte {
	return c.buf.Bytes()
}

func (c *content) flipY(yTop float64) float64 {
	return c.pageH - yTop
}

func (c *content) fillColor(col layout.RGB) {
	fmt.Fprintf(&c.buf, "%s %s %s rg\n", num01(col.R), num01(col.G), num01(col.B))
}

func (c *content) strokeColor(col layout.RGB) {
	fmt.Fprintf(&c.buf, "%s %s %s RG\n", num01(col.R), num01(col.G), num01(col.B))
}

func (c *content) lineWidth(w float64) {
	fmt.Fprintf(&c.buf, "%s w\n", num(w))
}

func (c *content) fillRect(r layout.Rect) {
	fmt.Fprintf(&c.buf, "%s %s %s %s re f\n", num(r.X), num(c.flipY(r.Y)-r.H), num(r.W), num(r.H))
}

func (c *content) strokeRect(r layout.Rect) {
	fmt.Fprintf(&c.buf, "%s %s %s %s re S\n", num(r.X), num(c.flipY(r.Y)-r.H), num(r.W), num(r.H))
}

func (c *content) line(ln layout.Line) {
	fmt.Fprintf(&c.buf, "%s %s m %s %s l S\n",
		num(ln.X1), num(c.flipY(ln.Y1)), num(ln.X2), num(c.flipY(ln.Y2)))
}

// text shows encoded text with its baseline at yTopBaseline (top-left
// coordinates).
func (c *content) text(font string, size, x, yTopBaseline float64, encoded []byte) {
	if len(encoded) == 0 {
		return
	}
	fmt.Fprintf(&c.buf, "BT %s %s Tf %s %s Td (%s) Tj ET\n",
		font, num(size), num(x), num(c.flipY(yTopBaseline)), EscapeString(encoded))
}

// num formats a coordinate operand with two decimals.
func num(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// num01 converts an 8-bit channel to the 0..1 operand space.
func num01(v uint8) string {
	return fmt.Sprintf("%.3f", float64(v)/255)
}
