// Package render draws a single triangle with Vulkan into an SDL2 window.
//
// A Renderer owns every Vulkan handle it creates. Setup runs one step per
// object in dependency order; each step registers how to release what it
// made, and Close releases it all in reverse. Objects that depend on the
// swapchain are tracked separately so the swapchain can be rebuilt when the
// surface reports it out of date.
package render

import (
	"context"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/vkray/config"
	"github.com/vkngwrapper/vkray/pipelinecache"
	"github.com/vkngwrapper/vkray/shaders"
	"github.com/vkngwrapper/vkray/stats"
)

// statsEvery is how many presented frames pass between debug timing reports.
const statsEvery = stats.DefaultWindow

type Renderer struct {
	cfg config.Config
	log *slog.Logger

	window *sdl.Window

	globalDriver   core1_0.GlobalDriver
	instanceDriver core1_0.CoreInstanceDriver
	deviceDriver   core1_0.CoreDeviceDriver

	validation       bool
	debugDriver      ext_debug_utils.ExtensionDriver
	debugMessenger   ext_debug_utils.DebugUtilsMessenger
	surfaceExtension khr_surface.ExtensionDriver
	surface          khr_surface.Surface

	physicalDevice core1_0.PhysicalDevice
	queueFamilies  QueueFamilyIndices
	cacheIdentity  pipelinecache.Identity

	graphicsQueue core1_0.Queue
	presentQueue  core1_0.Queue

	swapchainExtension    khr_swapchain.ExtensionDriver
	swapchain             khr_swapchain.Swapchain
	swapchainImages       []core1_0.Image
	swapchainImageFormat  core1_0.Format
	swapchainExtent       core1_0.Extent2D
	swapchainImageViews   []core1_0.ImageView
	swapchainFramebuffers []core1_0.Framebuffer

	renderPass       core1_0.RenderPass
	pipelineLayout   core1_0.PipelineLayout
	graphicsPipeline core1_0.Pipeline
	pipelineCache    *core1_0.PipelineCache
	shaders          *shaders.Set

	commandPool    core1_0.CommandPool
	commandBuffers []core1_0.CommandBuffer

	imageAvailableSemaphore core1_0.Semaphore
	renderFinishedSemaphore core1_0.Semaphore

	frames    *stats.Frames
	presented int

	teardown          teardown
	swapchainTeardown teardown
}

// New prepares a Renderer for cfg. Nothing is created until Run. A nil
// logger means slog.Default.
func New(cfg config.Config, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Renderer{
		cfg:    cfg,
		log:    logger,
		frames: stats.New(stats.DefaultWindow),
	}
}

// Run creates the window and every Vulkan object, then draws until the
// window is closed, ctx is cancelled or the configured frame count is
// reached. Everything created is released before Run returns.
func (r *Renderer) Run(ctx context.Context) error {
	defer r.Close()

	err := r.initWindow()
	if err != nil {
		return err
	}

	err = r.initVulkan()
	if err != nil {
		return err
	}

	return r.mainLoop(ctx)
}

func (r *Renderer) initVulkan() error {
	err := r.createInstance()
	if err != nil {
		return err
	}

	err = r.setupDebugMessenger()
	if err != nil {
		return err
	}

	err = r.createSurface()
	if err != nil {
		return err
	}

	err = r.pickPhysicalDevice()
	if err != nil {
		return err
	}

	err = r.createLogicalDevice()
	if err != nil {
		return err
	}

	r.shaders, err = shaders.Load(os.DirFS(r.cfg.Render.Shaders))
	if err != nil {
		return errors.Wrapf(err, "load shaders from %s", r.cfg.Render.Shaders)
	}

	err = r.createPipelineCache()
	if err != nil {
		return err
	}

	err = r.createSwapchain()
	if err != nil {
		return err
	}

	err = r.createImageViews()
	if err != nil {
		return err
	}

	err = r.createRenderPass()
	if err != nil {
		return err
	}

	err = r.createGraphicsPipeline()
	if err != nil {
		return err
	}

	err = r.createFramebuffers()
	if err != nil {
		return err
	}

	err = r.createCommandPool()
	if err != nil {
		return err
	}

	err = r.createCommandBuffers()
	if err != nil {
		return err
	}

	return r.createSemaphores()
}

func (r *Renderer) mainLoop(ctx context.Context) error {
	rendering := true

appLoop:
	for {
		select {
		case <-ctx.Done():
			r.log.Info("stopping", "cause", context.Cause(ctx))
			break appLoop
		default:
		}

		if rendering {
			err := r.drawFrame()
			if err != nil {
				return err
			}
		} else {
			sdl.Delay(10)
		}

		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				break appLoop
			case *sdl.WindowEvent:
				switch e.Event {
				case sdl.WINDOWEVENT_MINIMIZED:
					rendering = false
				case sdl.WINDOWEVENT_RESTORED:
					rendering = true
				}
			}
		}

		if r.cfg.Render.Frames > 0 && r.presented >= r.cfg.Render.Frames {
			r.log.Info("frame limit reached", "frames", r.presented)
			break appLoop
		}
	}

	_, err := r.deviceDriver.DeviceWaitIdle()
	if err != nil {
		return errors.Wrap(err, "wait for device idle")
	}

	r.log.Info("frame timing", "stats", r.frames.Summary())
	return nil
}

// Close waits for the device to go idle, then releases every object
// created so far: the swapchain-dependent objects newest first, then the
// rest newest first, ending with the window and SDL. Calling it again does
// nothing.
func (r *Renderer) Close() {
	r.waitIdle()
	r.swapchainTeardown.run(r.log)
	r.teardown.run(r.log)
}

// waitIdle is best effort. Close may run after a failed frame, and the
// release steps must not start while the GPU still uses those objects.
func (r *Renderer) waitIdle() {
	if r.deviceDriver == nil {
		return
	}

	_, err := r.deviceDriver.DeviceWaitIdle()
	if err != nil {
		r.log.Warn("could not wait for device idle before teardown", "error", err)
	}
}
