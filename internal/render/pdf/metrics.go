package pdf

// helveticaWidths holds the standard Helvetica advance widths (in 1/1000
// em) for the printable ASCII range 32..126, straight from the core-font
// metrics. Good enough for truncation decisions; exact kerning is not
// needed for fit checks.
var helveticaWidths = [95]int{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333, // space .. )
	389, 584, 278, 333, 278, 278, 556, 556, 556, 556, // * .. 3
	556, 556, 556, 556, 556, 556, 278, 278, 584, 584, // 4 .. =
	584, 556, 1015, 667, 667, 722, 722, 667, 611, 778, // > .. G
	722, 278, 500, 667, 556, 833, 722, 778, 667, 778, // H .. Q
	722, 667, 611, 722, 667, 944, 667, 667, 611, 278, // R .. [
	278, 278, 469, 556, 333, 556, 556, 500, 556, 556, // \ .. e
	278, 556, 556, 222, 222, 500, 222, 833, 556, 556, // f .. o
	556, 556, 333, 500, 278, 556, 500, 722, 500, 500, // p .. y
	500, 334, 260, 334, 584, // z .. ~
}

const defaultGlyphWidth = 556

// glyphWidth returns the Helvetica advance width of one WinAnsi byte.
func glyphWidth(b byte) int {
	if b >= 32 && b <= 126 {
		return helveticaWidths[b-32]
	}
	return defaultGlyphWidth
}

// textWidth measures encoded text at the given point size.
func textWidth(encoded []byte, size float64) float64 {
	total := 0
	for _, b := range encoded {
		total += glyphWidth(b)
	}
	return float64(total) / 1000 * size
}

// truncateToWidth shortens encoded text with a trailing ellipsis (WinAnsi
// 0x85) until it fits maxW at the given size.
func truncateToWidth(encoded []byte, size, maxW float64) []byte {
	if textWidth(encoded, size) <= maxW {
		return encoded
	}
	const ellipsis = 0x85
	for n := len(encoded); n > 0; n-- {
		candidate := append(append([]byte{}, encoded[:n-1]...), ellipsis)
		if textWidth(candidate, size) <= maxW {
			return candidate
		}
	}
	return nil
}
