package core

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/asciiframe/asciiframe/internal/artifact"
	"github.com/asciiframe/asciiframe/internal/ascii"
	"github.com/asciiframe/asciiframe/internal/imaging"
)

// Render is the result of a persisted conversion.
type Render struct {
	Text       string
	UploadPath string
	RenderPath string
}

// CoreService ties the preparation pipeline, the ASCII renderer and the
// artifact store together. Conversions are stateless and independent of
// each other.
type CoreService struct {
	config   *ServiceConfig
	store    artifact.Store
	pipeline []imaging.Command
}

// NewCoreService wires the service from configuration. The storage layout
// is created here, as an explicit initialization step.
func NewCoreService(config *ServiceConfig) (*CoreService, error) {
	store, err := artifact.NewStore(config.Storage.Type, config.Storage.UploadDir, config.Storage.RenderDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact store: %w", err)
	}
	if err := store.EnsureLayout(); err != nil {
		return nil, err
	}

	pipeline, err := imaging.BuildPipeline(commandConfigs(config.Commands))
	if err != nil {
		return nil, fmt.Errorf("failed to build preparation pipeline: %w", err)
	}

	slog.Info("core service initialized",
		"store_type", config.Storage.Type,
		"command_count", len(pipeline))

	return &CoreService{
		config:   config,
		store:    store,
		pipeline: pipeline,
	}, nil
}

// Convert runs the preparation pipeline and renders the result as ASCII
// text without persisting anything.
func (service *CoreService) Convert(data []byte, width int, contrast float64) (string, error) {
	prepared, err := imaging.Apply(data, service.pipeline)
	if err != nil {
		// Only undecodable input is the client's fault; any other pipeline
		// failure stays an internal error.
		if errors.Is(err, imaging.ErrDecode) {
			return "", fmt.Errorf("%w: %v", ascii.ErrDecode, err)
		}
		return "", fmt.Errorf("image preparation failed: %w", err)
	}

	return ascii.Convert(prepared, ascii.Options{
		Width:    width,
		Contrast: contrast,
		Palette:  ascii.Palette(service.config.Renderer.Palette),
	})
}

// ConvertAndArchive converts the upload and, on success, persists both the
// original upload and the rendered text. Nothing is written when the
// conversion fails.
func (service *CoreService) ConvertAndArchive(data []byte, ext string, width int, contrast float64) (*Render, error) {
	text, err := service.Convert(data, width, contrast)
	if err != nil {
		return nil, err
	}

	uploadPath, err := service.store.SaveUpload(data, ext)
	if err != nil {
		return nil, err
	}
	renderPath, err := service.store.SaveRender(text)
	if err != nil {
		return nil, err
	}

	slog.Info("conversion archived",
		"upload_path", uploadPath,
		"render_path", renderPath,
		"width", width)

	return &Render{
		Text:       text,
		UploadPath: uploadPath,
		RenderPath: renderPath,
	}, nil
}

// Thumbnail produces a small PNG preview of the upload for the result page.
func (service *CoreService) Thumbnail(data []byte) ([]byte, error) {
	return imaging.Thumbnail(data, service.config.ThumbnailWidth)
}

// DefaultWidth returns the configured output width applied when a request
// does not specify one.
func (service *CoreService) DefaultWidth() int {
	return service.config.Renderer.Width
}

// DefaultContrast returns the configured contrast factor applied when a
// request does not specify one.
func (service *CoreService) DefaultContrast() float64 {
	return service.config.Renderer.Contrast
}

// Close releases the artifact store.
func (service *CoreService) Close() error {
	return service.store.Close()
}

func commandConfigs(configs []CommandConfig) []imaging.CommandConfig {
	out := make([]imaging.CommandConfig, 0, len(configs))
	for _, c := range configs {
		out = append(out, imaging.CommandConfig{Name: c.Name, Params: c.Params})
	}
	return out
}
