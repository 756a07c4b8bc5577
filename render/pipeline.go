package render

import (
	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/vkray/pipelinecache"
	"github.com/vkngwrapper/vkray/shaders"
)

func (r *Renderer) createRenderPass() error {
	renderPass, _, err := r.deviceDriver.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         r.swapchainImageFormat,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create render pass")
	}

	r.renderPass = renderPass
	r.swapchainTeardown.push("render pass", func() {
		r.deviceDriver.DestroyRenderPass(renderPass, nil)
		r.renderPass = core1_0.RenderPass{}
	})

	return nil
}

// createPipelineCache seeds a pipeline cache from disk when a cache file is
// configured. The cache outlives swapchain rebuilds and is written back just
// before it is destroyed.
func (r *Renderer) createPipelineCache() error {
	path := r.cfg.Render.PipelineCache
	if path == "" {
		return nil
	}

	initialData, err := pipelinecache.Load(r.log, path, r.cacheIdentity)
	if err != nil {
		return err
	}

	cache, _, err := r.deviceDriver.CreatePipelineCache(nil, core1_0.PipelineCacheCreateInfo{
		InitialData: initialData,
	})
	if err != nil {
		return errors.Wrap(err, "create pipeline cache")
	}

	r.pipelineCache = &cache
	r.teardown.push("pipeline cache", func() {
		r.savePipelineCache(path)
		r.deviceDriver.DestroyPipelineCache(cache, nil)
		r.pipelineCache = nil
	})

	return nil
}

// savePipelineCache runs during teardown, where there is no caller left to
// return to, so failures are only logged.
func (r *Renderer) savePipelineCache(path string) {
	data, _, err := r.deviceDriver.GetPipelineCacheData(*r.pipelineCache)
	if err != nil {
		r.log.Warn("could not read pipeline cache", "error", err)
		return
	}

	err = pipelinecache.Save(path, data)
	if err != nil {
		r.log.Warn("could not save pipeline cache", "error", err)
		return
	}

	r.log.Debug("saved pipeline cache", "path", path, "bytes", len(data))
}

func (r *Renderer) createShaderModule(code []uint32) (core1_0.ShaderModule, error) {
	module, _, err := r.deviceDriver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	return module, err
}

func (r *Renderer) createGraphicsPipeline() error {
	vertShader, err := r.createShaderModule(r.shaders.Vertex)
	if err != nil {
		return errors.Wrap(err, "create vertex shader module")
	}
	defer r.deviceDriver.DestroyShaderModule(vertShader, nil)

	fragShader, err := r.createShaderModule(r.shaders.Fragment)
	if err != nil {
		return errors.Wrap(err, "create fragment shader module")
	}
	defer r.deviceDriver.DestroyShaderModule(fragShader, nil)

	// The triangle's vertices live in the vertex shader
	vertexInput := &core1_0.PipelineVertexInputStateCreateInfo{}

	inputAssembly := &core1_0.PipelineInputAssemblyStateCreateInfo{
		Topology:               core1_0.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: false,
	}

	vertStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageVertex,
		Module: vertShader,
		Name:   shaders.EntryPoint,
	}

	fragStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageFragment,
		Module: fragShader,
		Name:   shaders.EntryPoint,
	}

	viewport := &core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{
			{
				X:        0,
				Y:        0,
				Width:    float32(r.swapchainExtent.Width),
				Height:   float32(r.swapchainExtent.Height),
				MinDepth: 0,
				MaxDepth: 1,
			},
		},
		Scissors: []core1_0.Rect2D{
			{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: r.swapchainExtent,
			},
		},
	}

	rasterization := &core1_0.PipelineRasterizationStateCreateInfo{
		DepthClampEnable:        false,
		RasterizerDiscardEnable: false,

		PolygonMode: core1_0.PolygonModeFill,
		CullMode:    core1_0.CullModeBack,
		FrontFace:   core1_0.FrontFaceClockwise,

		DepthBiasEnable: false,

		LineWidth: 1.0,
	}

	multisample := &core1_0.PipelineMultisampleStateCreateInfo{
		SampleShadingEnable:  false,
		RasterizationSamples: core1_0.Samples1,
		MinSampleShading:     1.0,
	}

	colorBlend := &core1_0.PipelineColorBlendStateCreateInfo{
		LogicOpEnabled: false,
		LogicOp:        core1_0.LogicOpCopy,

		BlendConstants: [4]float32{0, 0, 0, 0},
		Attachments: []core1_0.PipelineColorBlendAttachmentState{
			{
				BlendEnabled:   false,
				ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
			},
		},
	}

	pipelineLayout, _, err := r.deviceDriver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{})
	if err != nil {
		return errors.Wrap(err, "create pipeline layout")
	}
	r.pipelineLayout = pipelineLayout
	r.swapchainTeardown.push("pipeline layout", func() {
		r.deviceDriver.DestroyPipelineLayout(pipelineLayout, nil)
		r.pipelineLayout = core1_0.PipelineLayout{}
	})

	start := hrtime.Now()
	pipelines, _, err := r.deviceDriver.CreateGraphicsPipelines(r.pipelineCache, nil,
		core1_0.GraphicsPipelineCreateInfo{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				vertStage,
				fragStage,
			},
			VertexInputState:   vertexInput,
			InputAssemblyState: inputAssembly,
			ViewportState:      viewport,
			RasterizationState: rasterization,
			MultisampleState:   multisample,
			ColorBlendState:    colorBlend,
			Layout:             r.pipelineLayout,
			RenderPass:         r.renderPass,
			Subpass:            0,
			BasePipelineIndex:  -1,
		},
	)
	if err != nil {
		return errors.Wrap(err, "create graphics pipeline")
	}
	r.log.Debug("created graphics pipeline", "took", hrtime.Since(start), "cached", r.pipelineCache != nil)

	graphicsPipeline := pipelines[0]
	r.graphicsPipeline = graphicsPipeline
	r.swapchainTeardown.push("graphics pipeline", func() {
		r.deviceDriver.DestroyPipeline(graphicsPipeline, nil)
		r.graphicsPipeline = core1_0.Pipeline{}
	})

	return nil
}

func (r *Renderer) createFramebuffers() error {
	for _, imageView := range r.swapchainImageViews {
		framebuffer, _, err := r.deviceDriver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass: r.renderPass,
			Layers:     1,
			Attachments: []core1_0.ImageView{
				imageView,
			},
			Width:  r.swapchainExtent.Width,
			Height: r.swapchainExtent.Height,
		})
		if err != nil {
			return errors.Wrap(err, "create framebuffer")
		}

		r.swapchainFramebuffers = append(r.swapchainFramebuffers, framebuffer)
		r.swapchainTeardown.push("framebuffer", func() {
			r.deviceDriver.DestroyFramebuffer(framebuffer, nil)
		})
	}

	return nil
}
