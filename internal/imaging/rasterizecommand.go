package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// hasPngSignature checks whether the data begins with the PNG magic bytes.
func hasPngSignature(data []byte) bool {
	return len(data) >= 8 && bytes.Equal(data[:8], pngSignature)
}

// isSVGData performs a lightweight detection of SVG content from raw bytes.
func isSVGData(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	n := len(data)
	if n > 4096 {
		n = 4096
	}
	header := bytes.ToLower(bytes.TrimSpace(data[:n]))
	return bytes.Contains(header, []byte("<svg")) ||
		bytes.Contains(header, []byte("xmlns=\"http://www.w3.org/2000/svg\"")) ||
		bytes.Contains(header, []byte("xmlns='http://www.w3.org/2000/svg'"))
}

// RasterizeCommand normalizes any supported upload into PNG bytes: PNG
// passes through unchanged, other raster formats are re-encoded, and SVG is
// rasterized onto a white canvas.
type RasterizeCommand struct {
	name              string
	svgFallbackWidth  int
	svgFallbackHeight int
}

// NewRasterizeCommand creates a rasterize command from configuration
// parameters. The SVG fallback dimensions are only used when the SVG lacks
// an explicit size.
func NewRasterizeCommand(params map[string]any) (Command, error) {
	return &RasterizeCommand{
		name:              "RasterizeCommand",
		svgFallbackWidth:  GetIntParam(params, "svgFallbackWidth", 0),
		svgFallbackHeight: GetIntParam(params, "svgFallbackHeight", 0),
	}, nil
}

// Name returns the command name.
func (c *RasterizeCommand) Name() string {
	return c.name
}

// Execute converts the input to PNG bytes.
func (c *RasterizeCommand) Execute(imageData []byte) ([]byte, error) {
	if hasPngSignature(imageData) {
		slog.Debug("RasterizeCommand: PNG detected; returning original bytes")
		return imageData, nil
	}

	if isSVGData(imageData) {
		return c.rasterizeSVG(imageData)
	}

	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	slog.Debug("RasterizeCommand: re-encoding raster image",
		"source_format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image to PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *RasterizeCommand) rasterizeSVG(svgData []byte) ([]byte, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse SVG: %v", ErrDecode, err)
	}

	width := int(icon.ViewBox.W)
	height := int(icon.ViewBox.H)
	if width < 1 || height < 1 {
		width = c.svgFallbackWidth
		height = c.svgFallbackHeight
	}
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: SVG has no explicit size and no fallback size is configured", ErrDecode)
	}

	slog.Debug("RasterizeCommand: rasterizing SVG", "width", width, "height", height)

	icon.SetTarget(0, 0, float64(width), float64(height))

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	white := color.RGBA{255, 255, 255, 255}
	draw.Draw(dst, dst.Bounds(), &image.Uniform{white}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(width, height, dst, dst.Bounds())
	dasher := rasterx.NewDasher(width, height, scanner)
	icon.Draw(dasher, 1.0)

	var buf bytes.Buffer
	buf.Grow(width * height)
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode rendered SVG as PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func init() {
	if err := DefaultRegistry.Register("RasterizeCommand", NewRasterizeCommand); err != nil {
		panic(fmt.Sprintf("failed to register RasterizeCommand: %v", err))
	}
}
