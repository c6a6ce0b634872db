package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log/slog"
)

// PixelScaleParams represents typed parameters for the pixel scale command.
type PixelScaleParams struct {
	MaxWidth int
}

// NewPixelScaleParamsFromMap creates PixelScaleParams from a generic map.
func NewPixelScaleParamsFromMap(params map[string]any) (*PixelScaleParams, error) {
	if err := ValidateRequiredParams(params, []string{"maxWidth"}); err != nil {
		return nil, err
	}

	maxWidth := GetIntParam(params, "maxWidth", 0)
	if maxWidth <= 0 {
		return nil, fmt.Errorf("maxWidth must be positive, got %d", maxWidth)
	}

	return &PixelScaleParams{MaxWidth: maxWidth}, nil
}

// PixelScaleCommand caps oversized uploads to a maximum pixel width,
// preserving the aspect ratio. Smaller images pass through untouched.
type PixelScaleCommand struct {
	name   string
	params *PixelScaleParams
}

// NewPixelScaleCommand creates a new pixel scale command from configuration
// parameters.
func NewPixelScaleCommand(params map[string]any) (Command, error) {
	typedParams, err := NewPixelScaleParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &PixelScaleCommand{
		name:   "PixelScaleCommand",
		params: typedParams,
	}, nil
}

// Name returns the command name.
func (c *PixelScaleCommand) Name() string {
	return c.name
}

// Execute downscales the image when it is wider than the configured cap.
func (c *PixelScaleCommand) Execute(imageData []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	originalWidth := bounds.Dx()
	originalHeight := bounds.Dy()

	if originalWidth <= c.params.MaxWidth {
		slog.Debug("PixelScaleCommand: image within cap; skipping",
			"width", originalWidth,
			"max_width", c.params.MaxWidth)
		return imageData, nil
	}

	targetWidth := c.params.MaxWidth
	targetHeight := originalHeight * targetWidth / originalWidth
	if targetHeight < 1 {
		targetHeight = 1
	}

	slog.Debug("PixelScaleCommand: downscaling image",
		"original_width", originalWidth,
		"original_height", originalHeight,
		"target_width", targetWidth,
		"target_height", targetHeight)

	targetImg := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	for y := 0; y < targetHeight; y++ {
		srcY := y * originalHeight / targetHeight
		if srcY >= originalHeight {
			srcY = originalHeight - 1
		}
		for x := 0; x < targetWidth; x++ {
			srcX := x * originalWidth / targetWidth
			if srcX >= originalWidth {
				srcX = originalWidth - 1
			}
			targetImg.Set(x, y, img.At(bounds.Min.X+srcX, bounds.Min.Y+srcY))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, targetImg); err != nil {
		return nil, fmt.Errorf("failed to encode scaled PNG image: %w", err)
	}
	return buf.Bytes(), nil
}

// GetParams returns the typed parameters.
func (c *PixelScaleCommand) GetParams() *PixelScaleParams {
	return c.params
}

func init() {
	if err := DefaultRegistry.Register("PixelScaleCommand", NewPixelScaleCommand); err != nil {
		panic(fmt.Sprintf("failed to register PixelScaleCommand: %v", err))
	}
}
