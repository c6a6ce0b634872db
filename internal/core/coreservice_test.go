package core

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/asciiframe/asciiframe/internal/ascii"
	"github.com/asciiframe/asciiframe/internal/imaging"
)

func testConfig(t *testing.T) *ServiceConfig {
	t.Helper()
	base := t.TempDir()
	config := &ServiceConfig{
		Storage: StorageConfig{
			UploadDir: filepath.Join(base, "uploads"),
			RenderDir: filepath.Join(base, "renders"),
		},
		Commands: []CommandConfig{
			{Name: "RasterizeCommand"},
		},
	}
	config.applyDefaults()
	return config
}

func solidPNG(t *testing.T, width, height int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestNewCoreService(t *testing.T) {
	config := testConfig(t)

	service, err := NewCoreService(config)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer func() {
		_ = service.Close()
	}()

	if _, err := os.Stat(config.Storage.UploadDir); err != nil {
		t.Errorf("Expected upload dir to be created, got %v", err)
	}
	if _, err := os.Stat(config.Storage.RenderDir); err != nil {
		t.Errorf("Expected render dir to be created, got %v", err)
	}
}

func TestNewCoreService_UnknownCommand(t *testing.T) {
	config := testConfig(t)
	config.Commands = append(config.Commands, CommandConfig{Name: "NoSuchCommand"})

	if _, err := NewCoreService(config); err == nil {
		t.Error("Expected error for unknown pipeline command")
	}
}

func TestCoreService_Convert(t *testing.T) {
	service, err := NewCoreService(testConfig(t))
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	defer func() {
		_ = service.Close()
	}()

	data := solidPNG(t, 10, 10, color.Black)
	text, err := service.Convert(data, 20, 1.5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	lines := strings.Split(text, "\n")
	if len(lines) != 11 { // round(20 * 1.0 * 0.55)
		t.Errorf("Expected 11 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if line != strings.Repeat("@", 20) {
			t.Errorf("Expected all-dark line, got %q", line)
		}
	}
}

func TestCoreService_ConvertAndArchive(t *testing.T) {
	config := testConfig(t)
	service, err := NewCoreService(config)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	defer func() {
		_ = service.Close()
	}()

	data := solidPNG(t, 10, 10, color.White)
	render, err := service.ConvertAndArchive(data, ".png", 10, 1.5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	upload, err := os.ReadFile(render.UploadPath)
	if err != nil {
		t.Fatalf("Expected persisted upload, got %v", err)
	}
	if !bytes.Equal(upload, data) {
		t.Error("Expected upload file to hold the original bytes")
	}

	text, err := os.ReadFile(render.RenderPath)
	if err != nil {
		t.Fatalf("Expected persisted render, got %v", err)
	}
	if string(text) != render.Text {
		t.Error("Expected render file to hold the exact output text")
	}
	if !strings.HasSuffix(render.RenderPath, ".txt") {
		t.Errorf("Expected .txt render artifact, got %s", render.RenderPath)
	}
}

func TestCoreService_ConvertAndArchive_NoFilesOnFailure(t *testing.T) {
	config := testConfig(t)
	service, err := NewCoreService(config)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	defer func() {
		_ = service.Close()
	}()

	_, err = service.ConvertAndArchive([]byte("not an image"), ".png", 10, 1.5)
	if err == nil {
		t.Fatal("Expected error for undecodable upload")
	}

	for _, dir := range []string{config.Storage.UploadDir, config.Storage.RenderDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", dir, err)
		}
		if len(entries) != 0 {
			t.Errorf("Expected no artifacts in %s after failed conversion, found %d", dir, len(entries))
		}
	}
}

// brokenEncoderCommand fails the way a command does when its own PNG
// re-encoding breaks, independent of the input.
type brokenEncoderCommand struct{}

func (brokenEncoderCommand) Name() string { return "BrokenEncoderCommand" }

func (brokenEncoderCommand) Execute([]byte) ([]byte, error) {
	return nil, errors.New("failed to encode image to PNG: short write")
}

func TestCoreService_Convert_InternalPipelineFailure(t *testing.T) {
	if !imaging.DefaultRegistry.IsRegistered("BrokenEncoderCommand") {
		err := imaging.DefaultRegistry.Register("BrokenEncoderCommand", func(map[string]any) (imaging.Command, error) {
			return brokenEncoderCommand{}, nil
		})
		if err != nil {
			t.Fatalf("Failed to register command: %v", err)
		}
	}

	config := testConfig(t)
	config.Commands = []CommandConfig{{Name: "BrokenEncoderCommand"}}
	service, err := NewCoreService(config)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	defer func() {
		_ = service.Close()
	}()

	_, err = service.Convert(solidPNG(t, 4, 4, color.Black), 10, 1.5)
	if err == nil {
		t.Fatal("Expected error from failing pipeline command")
	}
	if errors.Is(err, ascii.ErrDecode) {
		t.Errorf("Expected internal pipeline failure not to be reported as a decode error, got %v", err)
	}
}

func TestCoreService_Convert_UndecodableInput(t *testing.T) {
	service, err := NewCoreService(testConfig(t))
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	defer func() {
		_ = service.Close()
	}()

	_, err = service.Convert([]byte("not an image"), 10, 1.5)
	if !errors.Is(err, ascii.ErrDecode) {
		t.Errorf("Expected ErrDecode for undecodable input, got %v", err)
	}
}

func TestCoreService_Convert_InvalidWidth(t *testing.T) {
	service, err := NewCoreService(testConfig(t))
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	defer func() {
		_ = service.Close()
	}()

	data := solidPNG(t, 4, 4, color.Black)
	_, err = service.Convert(data, 0, 1.5)
	if !errors.Is(err, ascii.ErrInvalidDimension) {
		t.Errorf("Expected ErrInvalidDimension, got %v", err)
	}
}

func TestCoreService_Defaults(t *testing.T) {
	service, err := NewCoreService(testConfig(t))
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	defer func() {
		_ = service.Close()
	}()

	if service.DefaultWidth() != ascii.DefaultWidth {
		t.Errorf("Expected default width %d, got %d", ascii.DefaultWidth, service.DefaultWidth())
	}
	if service.DefaultContrast() != ascii.DefaultContrast {
		t.Errorf("Expected default contrast %v, got %v", ascii.DefaultContrast, service.DefaultContrast())
	}
}

func TestCoreService_Thumbnail(t *testing.T) {
	config := testConfig(t)
	config.ThumbnailWidth = 8
	service, err := NewCoreService(config)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	defer func() {
		_ = service.Close()
	}()

	thumb, err := service.Thumbnail(solidPNG(t, 64, 32, color.White))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(thumb))
	if err != nil {
		t.Fatalf("Expected decodable thumbnail, got %v", err)
	}
	if decoded.Bounds().Dx() != 8 {
		t.Errorf("Expected thumbnail width 8, got %d", decoded.Bounds().Dx())
	}
}
