package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// drawFrame renders and presents one frame. With a single pair of
// semaphores and no fences, waiting for the present queue to go idle is what
// keeps the previous frame from still using them.
func (r *Renderer) drawFrame() error {
	_, err := r.deviceDriver.QueueWaitIdle(r.presentQueue)
	if err != nil {
		return errors.Wrap(err, "wait for present queue")
	}

	imageIndex, res, err := r.swapchainExtension.AcquireNextImage(r.swapchain, common.NoTimeout, &r.imageAvailableSemaphore, nil)
	if res == khr_swapchain.VKErrorOutOfDate {
		return r.recreateSwapchain()
	} else if err != nil {
		return errors.Wrap(err, "acquire swapchain image")
	}

	_, err = r.deviceDriver.QueueSubmit(r.graphicsQueue, nil,
		core1_0.SubmitInfo{
			WaitSemaphores:   []core1_0.Semaphore{r.imageAvailableSemaphore},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{r.commandBuffers[imageIndex]},
			SignalSemaphores: []core1_0.Semaphore{r.renderFinishedSemaphore},
		},
	)
	if err != nil {
		return errors.Wrap(err, "submit draw commands")
	}

	res, err = r.swapchainExtension.QueuePresent(r.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{r.renderFinishedSemaphore},
		Swapchains:     []khr_swapchain.Swapchain{r.swapchain},
		ImageIndices:   []int{imageIndex},
	})
	if res == khr_swapchain.VKErrorOutOfDate {
		return r.recreateSwapchain()
	} else if err != nil {
		return errors.Wrap(err, "present swapchain image")
	}

	r.countFrame()
	if res == khr_swapchain.VKSuboptimal {
		return r.recreateSwapchain()
	}
	return nil
}

func (r *Renderer) countFrame() {
	r.presented++
	r.frames.Tick()

	if r.presented%statsEvery == 0 {
		r.log.Debug("frame timing", "stats", r.frames.Summary())
	}
}
