package ascii

import "testing"

func TestDefaultPalette_Order(t *testing.T) {
	if len(DefaultPalette) != 12 {
		t.Fatalf("Expected 12 palette entries, got %d", len(DefaultPalette))
	}
	if DefaultPalette[0] != '@' {
		t.Errorf("Expected darkest entry '@', got %q", DefaultPalette[0])
	}
	if DefaultPalette[len(DefaultPalette)-1] != '!' {
		t.Errorf("Expected lightest entry '!', got %q", DefaultPalette[len(DefaultPalette)-1])
	}
}

func TestPalette_CharFor_Bounds(t *testing.T) {
	if got := DefaultPalette.CharFor(0); got != '@' {
		t.Errorf("Expected '@' for intensity 0, got %q", got)
	}
	if got := DefaultPalette.CharFor(255); got != '!' {
		t.Errorf("Expected '!' for intensity 255, got %q", got)
	}
}

func TestPalette_CharFor_FloorsIndex(t *testing.T) {
	// floor(v/255*11) crosses from 0 to 1 between 23 and 24
	if got := DefaultPalette.CharFor(23); got != '@' {
		t.Errorf("Expected intensity 23 to stay in darkest bucket, got %q", got)
	}
	if got := DefaultPalette.CharFor(24); got != '#' {
		t.Errorf("Expected intensity 24 to reach second bucket, got %q", got)
	}
}

func TestPalette_CharFor_Monotonic(t *testing.T) {
	rank := make(map[rune]int, len(DefaultPalette))
	for i, c := range DefaultPalette {
		rank[c] = i
	}

	prev := 0
	for v := 0; v <= 255; v++ {
		idx := rank[DefaultPalette.CharFor(uint8(v))]
		if idx < prev {
			t.Fatalf("Palette index decreased at intensity %d: %d -> %d", v, prev, idx)
		}
		prev = idx
	}
}

func TestPalette_Valid(t *testing.T) {
	tests := []struct {
		name    string
		palette Palette
		want    bool
	}{
		{"Default palette", DefaultPalette, true},
		{"Two entries", Palette("@ "), true},
		{"Single entry", Palette("@"), false},
		{"Empty", Palette(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.palette.Valid(); got != tt.want {
				t.Errorf("Expected Valid() = %v, got %v", tt.want, got)
			}
		})
	}
}
