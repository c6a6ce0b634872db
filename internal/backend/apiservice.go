package backend

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/asciiframe/asciiframe/internal/ascii"
	"github.com/asciiframe/asciiframe/internal/core"
	"github.com/labstack/echo/v4"
)

// APIService exposes the conversion endpoint for programmatic clients.
type APIService struct {
	config      *core.ServiceConfig
	coreService *core.CoreService
}

// NewAPIService creates the API service.
func NewAPIService(config *core.ServiceConfig, coreService *core.CoreService) *APIService {
	return &APIService{
		config:      config,
		coreService: coreService,
	}
}

// SetRoutes registers the API routes.
func (s *APIService) SetRoutes(e *echo.Echo) {
	e.GET("/probe", s.probeHandler)
	e.POST("/api/convert", s.convertHandler)
}

// convertRequest carries the optional conversion parameters. Omitted fields
// keep the configured defaults; explicitly supplied invalid values are
// rejected.
type convertRequest struct {
	Width    int     `form:"width" validate:"gte=1"`
	Contrast float64 `form:"contrast" validate:"gt=0"`
}

func (s *APIService) probeHandler(c echo.Context) error {
	return c.String(http.StatusOK, "API Service is running")
}

func (s *APIService) convertHandler(c echo.Context) error {
	req := convertRequest{
		Width:    s.coreService.DefaultWidth(),
		Contrast: s.coreService.DefaultContrast(),
	}
	if err := c.Bind(&req); err != nil {
		slog.Warn("convertHandler: failed to bind request parameters",
			"status", http.StatusBadRequest, "error", err)
		return c.String(http.StatusBadRequest, "Invalid conversion parameters")
	}
	// The default binder skips query params on POST; bind them explicitly
	// so a query override wins over form values.
	if err := echo.QueryParamsBinder(c).
		Int("width", &req.Width).
		Float64("contrast", &req.Contrast).
		BindError(); err != nil {
		slog.Warn("convertHandler: failed to bind query parameters",
			"status", http.StatusBadRequest, "error", err)
		return c.String(http.StatusBadRequest, "Invalid conversion parameters")
	}
	if err := c.Validate(&req); err != nil {
		slog.Warn("convertHandler: invalid conversion parameters",
			"status", http.StatusBadRequest,
			"width", req.Width,
			"contrast", req.Contrast)
		return err
	}

	file, err := c.FormFile("image")
	if err != nil {
		slog.Warn("convertHandler: missing image file part",
			"status", http.StatusBadRequest, "error", err)
		return c.String(http.StatusBadRequest, "No file part")
	}
	if file.Filename == "" {
		slog.Warn("convertHandler: empty filename",
			"status", http.StatusBadRequest)
		return c.String(http.StatusBadRequest, "No selected file")
	}

	src, err := file.Open()
	if err != nil {
		slog.Error("convertHandler: failed to open uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return c.String(http.StatusInternalServerError, "Failed to open uploaded file")
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("convertHandler: failed to close uploaded file reader",
				"error", cerr, "filename", file.Filename)
		}
	}()

	data, err := io.ReadAll(src)
	if err != nil {
		slog.Error("convertHandler: failed to read uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return c.String(http.StatusInternalServerError, "Failed to read uploaded file")
	}

	render, err := s.coreService.ConvertAndArchive(data, filepath.Ext(file.Filename), req.Width, req.Contrast)
	if err != nil {
		return s.conversionError(c, err, file.Filename)
	}

	return c.String(http.StatusOK, render.Text)
}

// conversionError maps converter failures to HTTP responses: invalid input
// is the client's fault, everything else is ours.
func (s *APIService) conversionError(c echo.Context, err error, filename string) error {
	switch {
	case errors.Is(err, ascii.ErrDecode):
		slog.Warn("convertHandler: upload is not a decodable image",
			"status", http.StatusBadRequest, "filename", filename, "error", err)
		return c.String(http.StatusBadRequest, "Uploaded file is not a valid image")
	case errors.Is(err, ascii.ErrInvalidDimension):
		slog.Warn("convertHandler: invalid output dimensions",
			"status", http.StatusBadRequest, "filename", filename, "error", err)
		return c.String(http.StatusBadRequest, "Requested dimensions are invalid")
	default:
		slog.Error("convertHandler: conversion failed",
			"status", http.StatusInternalServerError, "filename", filename, "error", err)
		return c.String(http.StatusInternalServerError, "Failed to convert uploaded image")
	}
}
