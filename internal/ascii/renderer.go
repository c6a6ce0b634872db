package ascii

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/disintegration/gift"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultWidth is the output width in characters when the caller does
	// not specify one.
	DefaultWidth = 100
	// DefaultContrast is the contrast multiplier applied before mapping
	// intensities to palette characters.
	DefaultContrast = 1.5

	// aspectCorrection compensates for monospace character cells being
	// taller than wide; without it the rendered text is stretched
	// vertically.
	aspectCorrection = 0.55
)

var (
	// ErrDecode indicates the input bytes are not a decodable image.
	ErrDecode = errors.New("input is not a decodable image")
	// ErrInvalidDimension indicates the requested or computed output
	// dimensions are below one character.
	ErrInvalidDimension = errors.New("invalid output dimension")
)

// Options configures a Renderer. Width is mandatory and must be at least
// one character; zero values for Contrast and Palette are replaced by the
// package defaults.
type Options struct {
	// Width is the output width in characters.
	Width int
	// Contrast is the multiplier of the mid-gray centered contrast
	// enhancement.
	Contrast float64
	// Palette maps normalized intensities to characters, darkest first.
	Palette Palette
}

// Renderer converts decoded images into ASCII text. A Renderer is stateless
// after construction and safe for concurrent use.
type Renderer struct {
	width    int
	contrast float64
	palette  Palette
}

// NewRenderer validates the options and returns a ready Renderer.
func NewRenderer(opts Options) (*Renderer, error) {
	width := opts.Width
	if width < 1 {
		return nil, fmt.Errorf("%w: width must be >= 1, got %d", ErrInvalidDimension, width)
	}

	contrast := opts.Contrast
	if contrast == 0 {
		contrast = DefaultContrast
	}
	if contrast < 0 {
		return nil, fmt.Errorf("contrast must be positive, got %f", contrast)
	}

	palette := opts.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	if !palette.Valid() {
		return nil, fmt.Errorf("palette must contain at least 2 characters, got %d", len(palette))
	}

	return &Renderer{
		width:    width,
		contrast: contrast,
		palette:  palette,
	}, nil
}

// Width returns the configured output width in characters.
func (r *Renderer) Width() int {
	return r.width
}

// Contrast returns the configured contrast multiplier.
func (r *Renderer) Contrast() float64 {
	return r.contrast
}

// Render converts a decoded image into ASCII text. The output has exactly
// r.Width() characters per line and round(width * srcH/srcW * 0.55) lines,
// separated by '\n' without a trailing newline.
func (r *Renderer) Render(img image.Image) (string, error) {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()
	if srcWidth < 1 || srcHeight < 1 {
		return "", fmt.Errorf("%w: source image is empty", ErrInvalidDimension)
	}

	aspectRatio := float64(srcHeight) / float64(srcWidth)
	height := int(math.Round(float64(r.width) * aspectRatio * aspectCorrection))
	if height < 1 {
		return "", fmt.Errorf("%w: computed height %d for width %d (source %dx%d)",
			ErrInvalidDimension, height, r.width, srcWidth, srcHeight)
	}

	slog.Debug("rendering image to ascii",
		"source_width", srcWidth,
		"source_height", srcHeight,
		"target_width", r.width,
		"target_height", height)

	// Resize with aspect correction, then reduce to a single luminance
	// channel. Both filters are deterministic.
	g := gift.New(
		gift.Resize(r.width, height, gift.LanczosResampling),
		gift.Grayscale(),
	)
	gray := image.NewGray(g.Bounds(bounds))
	g.Draw(gray, img)

	var b strings.Builder
	b.Grow((r.width + 1) * height)
	grayBounds := gray.Bounds()
	for y := grayBounds.Min.Y; y < grayBounds.Max.Y; y++ {
		if y > grayBounds.Min.Y {
			b.WriteByte('\n')
		}
		for x := grayBounds.Min.X; x < grayBounds.Max.X; x++ {
			intensity := adjustContrast(gray.GrayAt(x, y).Y, r.contrast)
			b.WriteRune(r.palette.CharFor(intensity))
		}
	}

	return b.String(), nil
}

// RenderBytes decodes raw image bytes and renders them. Undecodable input
// fails with ErrDecode.
func (r *Renderer) RenderBytes(data []byte) (string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	slog.Debug("decoded image for ascii rendering",
		"format", format,
		"input_size_bytes", len(data))

	return r.Render(img)
}

// RenderToFile renders image bytes and writes the result to path, fully
// overwriting any existing file. On conversion failure no file is written.
func (r *Renderer) RenderToFile(data []byte, path string) (string, error) {
	text, err := r.RenderBytes(data)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("failed to write ascii output to %s: %w", path, err)
	}
	return text, nil
}

// Convert is a convenience wrapper constructing a one-shot Renderer.
func Convert(data []byte, opts Options) (string, error) {
	renderer, err := NewRenderer(opts)
	if err != nil {
		return "", err
	}
	return renderer.RenderBytes(data)
}

// adjustContrast spreads intensities away from mid-gray by the given factor
// and clamps the result to the 8-bit range. Monotonic in the input.
func adjustContrast(v uint8, factor float64) uint8 {
	adjusted := (float64(v)-128)*factor + 128
	if adjusted < 0 {
		return 0
	}
	if adjusted > 255 {
		return 255
	}
	return uint8(adjusted)
}
