package ascii

// Palette is an ordered sequence of characters from visually darkest to
// lightest. A pixel intensity is mapped to a palette entry by normalizing the
// intensity to [0, len-1] and truncating; truncation (not rounding) is part
// of the contract, since rounding would shift the darkness of boundary
// pixels.
type Palette []rune

// DefaultPalette holds 12 characters ordered darkest to lightest.
var DefaultPalette = Palette("@#$%?*+;:,.!")

// CharFor returns the palette character for an 8-bit intensity.
func (p Palette) CharFor(intensity uint8) rune {
	idx := int(float64(intensity) / 255.0 * float64(len(p)-1))
	if idx < 0 {
		idx = 0
	}
	if idx > len(p)-1 {
		idx = len(p) - 1
	}
	return p[idx]
}

// Valid reports whether the palette can express at least a dark and a light
// level.
func (p Palette) Valid() bool {
	return len(p) >= 2
}
