// Package pdf reproduces the calendar export as a minimal, hand-assembled
// PDF 1.4 byte stream, with no document-rendering dependency. The Writer
// here owns the object table, cross-reference offsets and trailer; the
// calendar drawing sits on top of it in calendar.go.
package pdf

import (
	"bytes"
	"fmt"
)

// Ref is an indirect object reference ("N 0 R").
type Ref int

func (r Ref) String() string {
	return fmt.Sprintf("%d 0 R", int(r))
}

// Writer accumulates numbered PDF objects and can serialize itself with a
// correctly offset cross-reference table. Object numbers are assigned in
// call order starting at 1; forward references are legal, so callers may
// fix a numbering scheme up front and reference objects before adding them.
type Writer struct {
	buf     bytes.Buffer
	offsets []int // byte offset of object i+1
}

// NewWriter starts a fresh document with the 1.4 header and the
// conventional binary marker comment.
func NewWriter() *Writer {
	w := &Writer{}
	w.buf.WriteString("%PDF-1.4\n")
	w.buf.Write([]byte{'%', 0xE2, 0xE3, 0xCF, 0xD3, '\n'})
	return w
}

// NextRef is the reference the next Add/AddStream call will produce.
func (w *Writer) NextRef() Ref {
	return Ref(len(w.offsets) + 1)
}

// Add appends one object with the given body (a dictionary or other direct
// object) and returns its reference.
func (w *Writer) Add(body string) Ref {
	ref := w.begin()
	w.buf.WriteString(body)
	w.buf.WriteString("\nendobj\n")
	return ref
}

// AddStream appends one stream object. extraDict entries (without the
// enclosing << >>) are merged before the generated /Length.
func (w *Writer) AddStream(extraDict string, data []byte) Ref {
	ref := w.begin()
	w.buf.WriteString("<< ")
	if extraDict != "" {
		w.buf.WriteString(extraDict)
		w.buf.WriteString(" ")
	}
	fmt.Fprintf(&w.buf, "/Length %d >>\nstream\n", len(data))
	w.buf.Write(data)
	w.buf.WriteString("\nendstream\nendobj\n")
	return ref
}

func (w *Writer) begin() Ref {
	w.offsets = append(w.offsets, w.buf.Len())
	ref := Ref(len(w.offsets))
	fmt.Fprintf(&w.buf, "%d 0 obj\n", int(ref))
	return ref
}

// Bytes closes the document: cross-reference table, trailer pointing at
// root, startxref and EOF marker.
func (w *Writer) Bytes(root Ref) []byte {
	xrefStart := w.buf.Len()

	fmt.Fprintf(&w.buf, "xref\n0 %d\n", len(w.offsets)+1)
	// Entries are exactly 20 bytes each per the format.
	w.buf.WriteString("0000000000 65535 f \n")
	for _, off := range w.offsets {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", off)
	}

	fmt.Fprintf(&w.buf, "trailer\n<< /Size %d /Root %s >>\nstartxref\n%d\n%%%%EOF\n",
		len(w.offsets)+1, root, xrefStart)

	return w.buf.Bytes()
}

// EscapeString escapes backslashes and parentheses per the string-literal
// rules of the format. It operates on already-encoded bytes.
func EscapeString(s []byte) []byte {
	var out bytes.Buffer
	for _, b := range s {
		switch b {
		case '\\', '(', ')':
			out.WriteByte('\\')
		}
		out.WriteByte(b)
	}
	return out.Bytes()
}

// winAnsiSpecials maps the handful of non-Latin-1 runes our text actually
// produces into their WinAnsi code points.
var winAnsiSpecials = map[rune]byte{
	'…': 0x85,
	'–': 0x96,
	'—': 0x97,
	'‘': 0x91,
	'’': 0x92,
	'“': 0x93,
	'”': 0x94,
	'•': 0x95,
}

// EncodeWinAnsi converts a string to the representable WinAnsi subset,
// substituting everything else with '?'.
func EncodeWinAnsi(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 32 && r <= 126:
			out = append(out, byte(r))
		case r >= 0xA0 && r <= 0xFF:
			out = append(out, byte(r))
		default:
			if b, ok := winAnsiSpecials[r]; ok {
				out = append(out, b)
			} else {
				out = append(out, '?')
			}
		}
	}
	return out
}
