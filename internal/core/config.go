package core

import (
	"fmt"
	"os"

	"github.com/asciiframe/asciiframe/internal/ascii"
	"gopkg.in/yaml.v3"
)

// CommandConfig represents a generic preparation command configuration.
type CommandConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:",inline"`
}

// StorageConfig selects the artifact store and its directories.
type StorageConfig struct {
	Type      string `yaml:"type"`
	UploadDir string `yaml:"uploadDir"`
	RenderDir string `yaml:"renderDir"`
}

// RendererConfig carries the ASCII conversion defaults applied when a
// request does not override them.
type RendererConfig struct {
	Width    int     `yaml:"width"`
	Contrast float64 `yaml:"contrast"`
	Palette  string  `yaml:"palette"`
}

// ServiceConfig is the root service configuration.
type ServiceConfig struct {
	Port           int             `yaml:"port"`
	ThumbnailWidth int             `yaml:"thumbnailWidth"`
	Storage        StorageConfig   `yaml:"storage"`
	Renderer       RendererConfig  `yaml:"renderer"`
	Commands       []CommandConfig `yaml:"commands"`
}

// LoadConfig loads configuration from the specified YAML file, applies
// defaults and validates the result.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var config ServiceConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}

	return &config, nil
}

func (c *ServiceConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ThumbnailWidth == 0 {
		c.ThumbnailWidth = 160
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "file"
	}
	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = "data/uploads"
	}
	if c.Storage.RenderDir == "" {
		c.Storage.RenderDir = "data/renders"
	}
	if c.Renderer.Width == 0 {
		c.Renderer.Width = ascii.DefaultWidth
	}
	if c.Renderer.Contrast == 0 {
		c.Renderer.Contrast = ascii.DefaultContrast
	}
	if c.Renderer.Palette == "" {
		c.Renderer.Palette = string(ascii.DefaultPalette)
	}
}

func (c *ServiceConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be in [1, 65535], got %d", c.Port)
	}
	if c.ThumbnailWidth < 1 {
		return fmt.Errorf("thumbnailWidth must be positive, got %d", c.ThumbnailWidth)
	}
	if c.Renderer.Width < 1 {
		return fmt.Errorf("renderer width must be >= 1, got %d", c.Renderer.Width)
	}
	if c.Renderer.Contrast <= 0 {
		return fmt.Errorf("renderer contrast must be positive, got %f", c.Renderer.Contrast)
	}
	if !ascii.Palette(c.Renderer.Palette).Valid() {
		return fmt.Errorf("renderer palette must contain at least 2 characters")
	}
	return validateCommands(c.Commands)
}

// validateCommands ensures all command configurations have required fields.
func validateCommands(commands []CommandConfig) error {
	seenNames := make(map[string]bool)

	for i, cmd := range commands {
		if cmd.Name == "" {
			return fmt.Errorf("command at index %d has empty name", i)
		}
		if seenNames[cmd.Name] {
			return fmt.Errorf("duplicate command name: %s", cmd.Name)
		}
		seenNames[cmd.Name] = true
	}

	return nil
}
