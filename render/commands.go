package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

func (r *Renderer) createCommandPool() error {
	pool, _, err := r.deviceDriver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: *r.queueFamilies.GraphicsFamily,
	})
	if err != nil {
		return errors.Wrap(err, "create command pool")
	}

	r.commandPool = pool
	r.teardown.push("command pool", func() {
		r.deviceDriver.DestroyCommandPool(pool, nil)
		r.commandPool = core1_0.CommandPool{}
	})

	return nil
}

// createCommandBuffers records one buffer per framebuffer up front. The
// recorded commands never change, so they are submitted as-is every frame.
func (r *Renderer) createCommandBuffers() error {
	buffers, _, err := r.deviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        r.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: len(r.swapchainFramebuffers),
	})
	if err != nil {
		return errors.Wrap(err, "allocate command buffers")
	}
	r.commandBuffers = buffers
	r.swapchainTeardown.push("command buffers", func() {
		r.deviceDriver.FreeCommandBuffers(buffers...)
	})

	clearColor := r.cfg.Render.ClearColor
	for bufferIdx, buffer := range buffers {
		_, err = r.deviceDriver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{
			Flags: core1_0.CommandBufferUsageSimultaneousUse,
		})
		if err != nil {
			return errors.Wrap(err, "begin command buffer")
		}

		err = r.deviceDriver.CmdBeginRenderPass(buffer, core1_0.SubpassContentsInline,
			core1_0.RenderPassBeginInfo{
				RenderPass:  r.renderPass,
				Framebuffer: r.swapchainFramebuffers[bufferIdx],
				RenderArea: core1_0.Rect2D{
					Offset: core1_0.Offset2D{X: 0, Y: 0},
					Extent: r.swapchainExtent,
				},
				ClearValues: []core1_0.ClearValue{
					core1_0.ClearValueFloat{clearColor.X(), clearColor.Y(), clearColor.Z(), clearColor.W()},
				},
			})
		if err != nil {
			return errors.Wrap(err, "begin render pass")
		}

		r.deviceDriver.CmdBindPipeline(buffer, core1_0.PipelineBindPointGraphics, r.graphicsPipeline)
		r.deviceDriver.CmdDraw(buffer, 3, 1, 0, 0)
		r.deviceDriver.CmdEndRenderPass(buffer)

		_, err = r.deviceDriver.EndCommandBuffer(buffer)
		if err != nil {
			return errors.Wrap(err, "end command buffer")
		}
	}

	return nil
}

func (r *Renderer) createSemaphores() error {
	var err error
	r.imageAvailableSemaphore, _, err = r.deviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return errors.Wrap(err, "create image available semaphore")
	}
	r.teardown.push("image available semaphore", func() {
		r.deviceDriver.DestroySemaphore(r.imageAvailableSemaphore, nil)
	})

	r.renderFinishedSemaphore, _, err = r.deviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return errors.Wrap(err, "create render finished semaphore")
	}
	r.teardown.push("render finished semaphore", func() {
		r.deviceDriver.DestroySemaphore(r.renderFinishedSemaphore, nil)
	})

	return nil
}
