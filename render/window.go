package render

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
)

func (r *Renderer) initWindow() error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return errors.Wrap(err, "init SDL video")
	}
	r.teardown.push("sdl", sdl.Quit)

	window, err := sdl.CreateWindow(r.cfg.Window.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(r.cfg.Window.Width), int32(r.cfg.Window.Height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN)
	if err != nil {
		return errors.Wrap(err, "create window")
	}
	r.window = window
	r.teardown.push("window", func() {
		r.window.Destroy()
		r.window = nil
	})

	r.globalDriver, err = core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return errors.WithHint(errors.Wrap(err, "load Vulkan"),
			"make sure a Vulkan loader and driver are installed")
	}

	return nil
}

// drawableSize is the window size in pixels, which can differ from its size
// in screen coordinates on high-DPI displays.
func (r *Renderer) drawableSize() (int, int) {
	w, h := r.window.VulkanGetDrawableSize()
	return int(w), int(h)
}

func (r *Renderer) minimized() bool {
	return (r.window.GetFlags() & sdl.WINDOW_MINIMIZED) != 0
}
