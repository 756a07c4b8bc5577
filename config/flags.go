package config

import (
	"github.com/spf13/pflag"
)

// Flags holds the command line overrides. Only flags the user actually set
// are applied on top of the loaded Config.
type Flags struct {
	fs *pflag.FlagSet

	ConfigFile string

	Verbose     bool
	VeryVerbose bool
	Quiet       bool

	width         int
	height        int
	title         string
	shaders       string
	validation    bool
	presentModes  []string
	device        string
	frames        int
	pipelineCache string
	srgb          bool
	apiVersion    string
}

func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	def := Default()

	fs.StringVarP(&f.ConfigFile, "config", "c", "", "TOML configuration file")
	fs.BoolVarP(&f.Verbose, "verbose", "v", false, "log at info level")
	fs.BoolVar(&f.VeryVerbose, "vv", false, "log at debug level")
	fs.BoolVarP(&f.Quiet, "quiet", "q", false, "log errors only")

	fs.IntVar(&f.width, "width", def.Window.Width, "window width")
	fs.IntVar(&f.height, "height", def.Window.Height, "window height")
	fs.StringVar(&f.title, "title", def.Window.Title, "window title")
	fs.StringVar(&f.shaders, "shaders", def.Render.Shaders, "directory holding vert.spv and frag.spv")
	fs.BoolVar(&f.validation, "validation", def.Vulkan.Validation, "enable validation layers when available")
	fs.StringSliceVar(&f.presentModes, "present-mode", def.Vulkan.PresentModes, "present mode preference, most preferred first")
	fs.StringVar(&f.device, "device", "", "only use a GPU whose name contains this string")
	fs.IntVar(&f.frames, "frames", 0, "exit after this many frames (0 runs until the window closes)")
	fs.StringVar(&f.pipelineCache, "pipeline-cache", "", "file used to persist the pipeline cache between runs")
	fs.BoolVar(&f.srgb, "srgb", def.Vulkan.SRGB, "prefer an sRGB swapchain format")
	fs.StringVar(&f.apiVersion, "api-version", def.Vulkan.APIVersion, "requested Vulkan api version")

	return f
}

// Apply copies every flag that was set on the command line into cfg.
func (f *Flags) Apply(cfg *Config) {
	if f.fs.Changed("width") {
		cfg.Window.Width = f.width
	}
	if f.fs.Changed("height") {
		cfg.Window.Height = f.height
	}
	if f.fs.Changed("title") {
		cfg.Window.Title = f.title
	}
	if f.fs.Changed("shaders") {
		cfg.Render.Shaders = f.shaders
	}
	if f.fs.Changed("validation") {
		cfg.Vulkan.Validation = f.validation
	}
	if f.fs.Changed("present-mode") {
		cfg.Vulkan.PresentModes = f.presentModes
	}
	if f.fs.Changed("device") {
		cfg.Vulkan.Device = f.device
	}
	if f.fs.Changed("frames") {
		cfg.Render.Frames = f.frames
	}
	if f.fs.Changed("pipeline-cache") {
		cfg.Render.PipelineCache = f.pipelineCache
	}
	if f.fs.Changed("srgb") {
		cfg.Vulkan.SRGB = f.srgb
	}
	if f.fs.Changed("api-version") {
		cfg.Vulkan.APIVersion = f.apiVersion
	}
}

// Resolve builds the final Config: defaults, then the config file if one was
// given, then explicit flags. The result is validated.
func (f *Flags) Resolve() (Config, error) {
	cfg := Default()
	if f.ConfigFile != "" {
		var err error
		cfg, err = Load(f.ConfigFile)
		if err != nil {
			return cfg, err
		}
	}

	f.Apply(&cfg)
	return cfg, cfg.Validate()
}
