package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
)

// Config is everything the renderer reads at startup. It is built from
// Default, overlaid with an optional TOML file, then with command line flags.
type Config struct {
	Window WindowConfig `toml:"window"`
	Vulkan VulkanConfig `toml:"vulkan"`
	Render RenderConfig `toml:"render"`
}

type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

type VulkanConfig struct {
	// APIVersion is one of "1.0", "1.1" or "1.2".
	APIVersion string `toml:"api_version"`

	Validation       bool     `toml:"validation"`
	ValidationLayers []string `toml:"validation_layers"`

	// Device restricts physical device selection to devices whose name
	// contains this string, case-insensitively. Empty accepts any device.
	Device string `toml:"device"`

	// PresentModes is the present mode preference, most preferred first.
	// FIFO is always the final fallback.
	PresentModes []string `toml:"present_modes"`

	// SRGB asks for a B8G8R8A8 sRGB swapchain instead of UNORM.
	SRGB bool `toml:"srgb"`
}

type RenderConfig struct {
	Shaders       string     `toml:"shaders"`
	ClearColor    mgl32.Vec4 `toml:"clear_color"`
	PipelineCache string     `toml:"pipeline_cache"`

	// Frames stops the main loop after this many presented frames. Zero
	// runs until the window is closed.
	Frames int `toml:"frames"`
}

const (
	DefaultWidth  = 800
	DefaultHeight = 600
	DefaultTitle  = "Vulkan Ray"
)

var supportedAPIVersions = []string{"1.0", "1.1", "1.2"}

var supportedPresentModes = []string{"mailbox", "immediate", "fifo"}

func Default() Config {
	return Config{
		Window: WindowConfig{
			Width:  DefaultWidth,
			Height: DefaultHeight,
			Title:  DefaultTitle,
		},
		Vulkan: VulkanConfig{
			APIVersion:       "1.0",
			Validation:       true,
			ValidationLayers: []string{"VK_LAYER_KHRONOS_validation"},
			PresentModes:     []string{"mailbox", "immediate", "fifo"},
		},
		Render: RenderConfig{
			Shaders:    "shaders",
			ClearColor: mgl32.Vec4{0, 0.2, 0.4, 1},
		},
	}
}

// Load returns Default overlaid with the TOML file at path. Keys absent from
// the file keep their default values.
func Load(path string) (Config, error) {
	def := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return def, errors.Wrapf(err, "read config %s", path)
	}

	// Slices are decoded into empty fields so a list in the file replaces
	// the default list instead of extending it.
	cfg := def
	cfg.Vulkan.ValidationLayers = nil
	cfg.Vulkan.PresentModes = nil

	err = toml.Unmarshal(b, &cfg)
	if err != nil {
		return def, errors.Wrapf(err, "parse config %s", path)
	}

	if cfg.Vulkan.ValidationLayers == nil {
		cfg.Vulkan.ValidationLayers = def.Vulkan.ValidationLayers
	}
	if cfg.Vulkan.PresentModes == nil {
		cfg.Vulkan.PresentModes = def.Vulkan.PresentModes
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Newf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}

	if !contains(supportedAPIVersions, c.Vulkan.APIVersion) {
		return errors.WithHintf(
			errors.Newf("unsupported api version %q", c.Vulkan.APIVersion),
			"supported versions: %v", supportedAPIVersions)
	}

	for _, mode := range c.Vulkan.PresentModes {
		if !contains(supportedPresentModes, strings.ToLower(mode)) {
			return errors.WithHintf(
				errors.Newf("unknown present mode %q", mode),
				"known present modes: %v", supportedPresentModes)
		}
	}

	if c.Render.Shaders == "" {
		return errors.New("shader directory must not be empty")
	}

	for _, channel := range c.Render.ClearColor {
		if channel < 0 || channel > 1 {
			return errors.Newf("clear color channels must be within [0, 1], got %v", c.Render.ClearColor)
		}
	}

	if c.Render.Frames < 0 {
		return errors.Newf("frame limit must not be negative, got %d", c.Render.Frames)
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
