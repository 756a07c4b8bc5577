package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

func (r *Renderer) createSwapchain() error {
	if r.swapchainExtension == nil {
		r.swapchainExtension = khr_swapchain.CreateExtensionDriverFromCoreDriver(r.deviceDriver)
	}

	swapchainSupport, err := r.querySwapChainSupport(r.physicalDevice)
	if err != nil {
		return err
	}

	preference, err := ParsePresentModes(r.cfg.Vulkan.PresentModes)
	if err != nil {
		return err
	}

	width, height := r.drawableSize()
	surfaceFormat := ChooseSurfaceFormat(swapchainSupport.Formats, r.cfg.Vulkan.SRGB)
	presentMode := ChoosePresentMode(swapchainSupport.PresentModes, preference)
	extent := ChooseExtent(swapchainSupport.Capabilities, width, height)
	imageCount := ChooseImageCount(swapchainSupport.Capabilities)

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int

	if *r.queueFamilies.GraphicsFamily != *r.queueFamilies.PresentFamily {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = r.queueFamilies.Unique()
	}

	swapchain, _, err := r.swapchainExtension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: r.surface,

		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   swapchainSupport.Capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
	})
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}
	r.swapchain = swapchain
	r.swapchainExtent = extent
	r.swapchainImageFormat = surfaceFormat.Format
	r.swapchainTeardown.push("swapchain", func() {
		r.swapchainExtension.DestroySwapchain(r.swapchain, nil)
		r.swapchain = khr_swapchain.Swapchain{}
	})

	images, _, err := r.swapchainExtension.GetSwapchainImages(r.swapchain)
	if err != nil {
		return errors.Wrap(err, "get swapchain images")
	}
	r.swapchainImages = images

	r.log.Debug("created swapchain",
		"images", len(images),
		"format", surfaceFormat.Format,
		"presentMode", presentMode,
		"width", extent.Width,
		"height", extent.Height)
	return nil
}

func (r *Renderer) createImageViews() error {
	var imageViews []core1_0.ImageView
	for _, image := range r.swapchainImages {
		view, _, err := r.deviceDriver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
			Image:    image,
			ViewType: core1_0.ImageViewType2D,
			Format:   r.swapchainImageFormat,
			// Zero-valued Components is the identity swizzle
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		})
		if err != nil {
			return errors.Wrap(err, "create swapchain image view")
		}

		imageViews = append(imageViews, view)
		r.swapchainTeardown.push("image view", func() {
			r.deviceDriver.DestroyImageView(view, nil)
		})
	}
	r.swapchainImageViews = imageViews

	return nil
}

// recreateSwapchain replaces the swapchain and everything sized or formatted
// after it. While the window is minimized there is nothing to present to,
// so it does nothing and the next out-of-date result tries again.
func (r *Renderer) recreateSwapchain() error {
	w, h := r.drawableSize()
	if w == 0 || h == 0 || r.minimized() {
		return nil
	}

	_, err := r.deviceDriver.DeviceWaitIdle()
	if err != nil {
		return errors.Wrap(err, "wait for device idle")
	}

	r.swapchainTeardown.run(r.log)
	r.swapchainImageViews = nil
	r.swapchainFramebuffers = nil
	r.commandBuffers = nil

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

	err = r.createCommandBuffers()
	if err != nil {
		return err
	}

	r.log.Info("rebuilt swapchain", "width", r.swapchainExtent.Width, "height", r.swapchainExtent.Height)
	return nil
}
