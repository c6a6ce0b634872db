package frontend

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/asciiframe/asciiframe/internal/ascii"
	"github.com/asciiframe/asciiframe/internal/core"
	"github.com/labstack/echo/v4"
)

const MainPageName = "index.html"

// FrontendService serves the upload page and the htmx conversion fragment.
type FrontendService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
}

// NewFrontendService creates the frontend service.
func NewFrontendService(config *core.ServiceConfig, coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		coreService: coreService,
		config:      config,
	}
}

// SetRoutes registers the frontend routes and the template renderer.
func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = &Template{
		templates: template.Must(template.New("").ParseFS(templateFS, viewsPattern)),
	}

	e.GET("/", service.indexHandler)
	e.POST("/htmx/convert", service.htmxConvertHandler)
	e.GET("/icon.svg", service.iconHandler)
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, MainPageName, nil)
}

func (service *FrontendService) htmxConvertHandler(ctx echo.Context) error {
	file, err := ctx.FormFile("image")
	if err != nil {
		slog.Warn("htmxConvertHandler: missing image file part",
			"status", http.StatusBadRequest, "error", err)
		return ctx.String(http.StatusBadRequest, "No file part")
	}
	if file.Filename == "" {
		slog.Warn("htmxConvertHandler: empty filename",
			"status", http.StatusBadRequest)
		return ctx.String(http.StatusBadRequest, "No selected file")
	}

	src, err := file.Open()
	if err != nil {
		slog.Error("htmxConvertHandler: failed to open uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.String(http.StatusInternalServerError, "Failed to open uploaded file")
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("htmxConvertHandler: failed to close uploaded file reader",
				"error", cerr, "filename", file.Filename)
		}
	}()

	data, err := io.ReadAll(src)
	if err != nil {
		slog.Error("htmxConvertHandler: failed to read uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.String(http.StatusInternalServerError, "Failed to read uploaded file")
	}

	width, err := service.formInt(ctx, "width", service.coreService.DefaultWidth())
	if err != nil {
		return ctx.String(http.StatusBadRequest, "Width must be a whole number")
	}
	contrast, err := service.formFloat(ctx, "contrast", service.coreService.DefaultContrast())
	if err != nil || contrast <= 0 {
		return ctx.String(http.StatusBadRequest, "Contrast must be a positive number")
	}

	render, err := service.coreService.ConvertAndArchive(data, filepath.Ext(file.Filename), width, contrast)
	if err != nil {
		return service.conversionError(ctx, err, file.Filename)
	}

	slog.Info("htmxConvertHandler: conversion succeeded",
		"filename", file.Filename,
		"width", width,
		"render_path", render.RenderPath)

	return ctx.HTML(http.StatusOK, service.buildResultHTML(file.Filename, data, render.Text))
}

// buildResultHTML renders the fragment swapped into #result: a small
// preview of the upload next to the ASCII output.
func (service *FrontendService) buildResultHTML(filename string, upload []byte, text string) string {
	var b strings.Builder

	b.WriteString(`<article>`)
	b.WriteString(fmt.Sprintf(`<header>Converted %s</header>`, html.EscapeString(filename)))

	if thumb, err := service.coreService.Thumbnail(upload); err == nil {
		b.WriteString(fmt.Sprintf(
			`<img class="upload-preview" src="data:image/png;base64,%s" alt="Uploaded image preview">`,
			base64.StdEncoding.EncodeToString(thumb)))
	} else {
		slog.Warn("htmxConvertHandler: failed to build preview thumbnail", "error", err)
	}

	b.WriteString(`<pre class="ascii-art">`)
	b.WriteString(html.EscapeString(text))
	b.WriteString(`</pre></article>`)

	return b.String()
}

func (service *FrontendService) conversionError(ctx echo.Context, err error, filename string) error {
	switch {
	case errors.Is(err, ascii.ErrDecode):
		slog.Warn("htmxConvertHandler: upload is not a decodable image",
			"status", http.StatusBadRequest, "filename", filename, "error", err)
		return ctx.String(http.StatusBadRequest, "Uploaded file is not a valid image")
	case errors.Is(err, ascii.ErrInvalidDimension):
		slog.Warn("htmxConvertHandler: invalid output dimensions",
			"status", http.StatusBadRequest, "filename", filename, "error", err)
		return ctx.String(http.StatusBadRequest, "Requested dimensions are invalid")
	default:
		slog.Error("htmxConvertHandler: conversion failed",
			"status", http.StatusInternalServerError, "filename", filename, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to convert uploaded image")
	}
}

func (service *FrontendService) formInt(ctx echo.Context, name string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(ctx.FormValue(name))
	if raw == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(raw)
}

func (service *FrontendService) formFloat(ctx echo.Context, name string, defaultValue float64) (float64, error) {
	raw := strings.TrimSpace(ctx.FormValue(name))
	if raw == "" {
		return defaultValue, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	icon, err := assetsFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, "image/svg+xml", icon)
}
