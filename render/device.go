package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/vkray/pipelinecache"
)

var deviceExtensions = []string{khr_swapchain.ExtensionName}

func (r *Renderer) pickPhysicalDevice() error {
	physicalDevices, _, err := r.instanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return errors.Wrap(err, "enumerate physical devices")
	}

	var candidates []DeviceCandidate
	properties := make(map[int]*core1_0.PhysicalDeviceProperties)
	for deviceIdx, device := range physicalDevices {
		props, err := r.instanceDriver.GetPhysicalDeviceProperties(device)
		if err != nil {
			return errors.Wrap(err, "get physical device properties")
		}

		suitable, err := r.isDeviceSuitable(device)
		if err != nil {
			return err
		}
		if !suitable {
			r.log.Debug("skipping unsuitable device", "device", props.DeviceName)
			continue
		}

		properties[deviceIdx] = props
		candidates = append(candidates, DeviceCandidate{
			Index: deviceIdx,
			Name:  props.DeviceName,
			Type:  props.DeviceType,
		})
	}

	ranked := RankDevices(candidates, r.cfg.Vulkan.Device)
	if len(ranked) == 0 {
		err := errors.Newf("failed to find a suitable GPU among %d devices", len(physicalDevices))
		if r.cfg.Vulkan.Device != "" {
			return errors.WithHintf(err, "no suitable device name contains %q", r.cfg.Vulkan.Device)
		}
		return errors.WithHint(err, "a device needs graphics and present queues and VK_KHR_swapchain")
	}

	chosen := ranked[0]
	r.physicalDevice = physicalDevices[chosen.Index]
	r.queueFamilies, err = r.findQueueFamilies(r.physicalDevice)
	if err != nil {
		return err
	}

	props := properties[chosen.Index]
	r.cacheIdentity = pipelinecache.Identity{
		VendorID: props.VendorID,
		DeviceID: props.DeviceID,
		UUID:     props.PipelineCacheUUID,
	}

	r.log.Info("using device",
		"device", chosen.Name,
		"candidates", len(candidates),
		"graphicsFamily", *r.queueFamilies.GraphicsFamily,
		"presentFamily", *r.queueFamilies.PresentFamily)
	return nil
}

func (r *Renderer) isDeviceSuitable(device core1_0.PhysicalDevice) (bool, error) {
	indices, err := r.findQueueFamilies(device)
	if err != nil {
		return false, err
	}

	extensionsSupported, err := r.checkDeviceExtensionSupport(device)
	if err != nil {
		return false, err
	}

	var swapChainAdequate bool
	if extensionsSupported {
		swapChainSupport, err := r.querySwapChainSupport(device)
		if err != nil {
			return false, err
		}

		swapChainAdequate = swapChainSupport.IsAdequate()
	}

	return indices.IsComplete() && extensionsSupported && swapChainAdequate, nil
}

func (r *Renderer) checkDeviceExtensionSupport(device core1_0.PhysicalDevice) (bool, error) {
	extensions, _, err := r.instanceDriver.EnumerateDeviceExtensionProperties(device)
	if err != nil {
		return false, errors.Wrap(err, "enumerate device extensions")
	}

	for _, extension := range deviceExtensions {
		_, hasExtension := extensions[extension]
		if !hasExtension {
			return false, nil
		}
	}

	return true, nil
}

func (r *Renderer) findQueueFamilies(device core1_0.PhysicalDevice) (QueueFamilyIndices, error) {
	properties := r.instanceDriver.GetPhysicalDeviceQueueFamilyProperties(device)

	families := make([]QueueFamily, 0, len(properties))
	for _, family := range properties {
		families = append(families, QueueFamily{Flags: family.QueueFlags, Count: family.QueueCount})
	}

	indices, err := FindQueueFamilies(families, func(index int) (bool, error) {
		supported, _, err := r.surfaceExtension.GetPhysicalDeviceSurfaceSupport(r.surface, device, index)
		return supported, err
	})
	return indices, errors.Wrap(err, "query surface support")
}

func (r *Renderer) querySwapChainSupport(device core1_0.PhysicalDevice) (SwapChainSupportDetails, error) {
	var details SwapChainSupportDetails
	var err error

	details.Capabilities, _, err = r.surfaceExtension.GetPhysicalDeviceSurfaceCapabilities(r.surface, device)
	if err != nil {
		return details, errors.Wrap(err, "query surface capabilities")
	}

	details.Formats, _, err = r.surfaceExtension.GetPhysicalDeviceSurfaceFormats(r.surface, device)
	if err != nil {
		return details, errors.Wrap(err, "query surface formats")
	}

	details.PresentModes, _, err = r.surfaceExtension.GetPhysicalDeviceSurfacePresentModes(r.surface, device)
	return details, errors.Wrap(err, "query surface present modes")
}

func (r *Renderer) createLogicalDevice() error {
	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range r.queueFamilies.Unique() {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	var extensionNames []string
	extensionNames = append(extensionNames, deviceExtensions...)

	// Required on portability implementations such as MoltenVK
	extensions, _, err := r.instanceDriver.EnumerateDeviceExtensionProperties(r.physicalDevice)
	if err != nil {
		return errors.Wrap(err, "enumerate device extensions")
	}

	_, supported := extensions[khr_portability_subset.ExtensionName]
	if supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	r.deviceDriver, _, err = r.instanceDriver.CreateDevice(r.physicalDevice, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return errors.Wrap(err, "create logical device")
	}
	r.teardown.push("device", func() {
		r.deviceDriver.DestroyDevice(nil)
		r.deviceDriver = nil
	})

	r.graphicsQueue = r.deviceDriver.GetQueue(*r.queueFamilies.GraphicsFamily, 0)
	r.presentQueue = r.deviceDriver.GetQueue(*r.queueFamilies.PresentFamily, 0)
	return nil
}
