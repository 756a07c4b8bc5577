package render

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"
)

const (
	engineName = "vkray"

	// Required by VK_KHR_portability_subset on drivers that expose it.
	getPhysicalDeviceProperties2 = "VK_KHR_get_physical_device_properties2"
)

func (r *Renderer) createInstance() error {
	apiVersion, err := ParseAPIVersion(r.cfg.Vulkan.APIVersion)
	if err != nil {
		return err
	}

	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    r.cfg.Window.Title,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         engineName,
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         apiVersion,
	}

	// Add extensions
	sdlExtensions := r.window.VulkanGetInstanceExtensions()
	extensions, _, err := r.globalDriver.AvailableExtensions()
	if err != nil {
		return errors.Wrap(err, "enumerate instance extensions")
	}

	for _, ext := range sdlExtensions {
		_, hasExt := extensions[ext]
		if !hasExt {
			return errors.WithHint(
				errors.Newf("missing instance extension %s required by the window system", ext),
				"the installed Vulkan driver cannot present to this display")
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	_, properties2Supported := extensions[getPhysicalDeviceProperties2]
	if properties2Supported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, getPhysicalDeviceProperties2)
	}

	_, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	// Add layers
	if r.cfg.Vulkan.Validation {
		layers, _, err := r.globalDriver.AvailableLayers()
		if err != nil {
			return errors.Wrap(err, "enumerate instance layers")
		}

		enabled, missing := FilterLayers(r.cfg.Vulkan.ValidationLayers, layers)
		if len(missing) > 0 {
			r.log.Warn("validation layers not available, install the Vulkan SDK to enable them", "layers", missing)
		}
		instanceOptions.EnabledLayerNames = enabled

		_, r.validation = extensions[ext_debug_utils.ExtensionName]
		if r.validation {
			instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)

			// Covers messages from instance creation and destruction
			instanceOptions.Next = r.debugMessengerOptions()
		} else {
			r.log.Warn("validation messages disabled", "missing", ext_debug_utils.ExtensionName)
		}
	}

	r.instanceDriver, _, err = r.globalDriver.CreateInstance(nil, instanceOptions)
	if err != nil {
		return errors.Wrap(err, "create instance")
	}
	r.teardown.push("instance", func() {
		r.instanceDriver.DestroyInstance(nil)
		r.instanceDriver = nil
	})

	r.log.Debug("created instance",
		"api", r.cfg.Vulkan.APIVersion,
		"extensions", instanceOptions.EnabledExtensionNames,
		"layers", instanceOptions.EnabledLayerNames)
	return nil
}

func (r *Renderer) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    r.logDebug,
	}
}

func (r *Renderer) setupDebugMessenger() error {
	if !r.validation {
		return nil
	}

	var err error
	r.debugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(r.instanceDriver)
	r.debugMessenger, _, err = r.debugDriver.CreateDebugUtilsMessenger(nil, r.debugMessengerOptions())
	if err != nil {
		return errors.Wrap(err, "create debug messenger")
	}
	r.teardown.push("debug messenger", func() {
		r.debugDriver.DestroyDebugUtilsMessenger(r.debugMessenger, nil)
	})

	return nil
}

func (r *Renderer) logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	level := slog.LevelInfo
	switch {
	case severity&ext_debug_utils.SeverityError != 0:
		level = slog.LevelError
	case severity&ext_debug_utils.SeverityWarning != 0:
		level = slog.LevelWarn
	}

	r.log.Log(context.Background(), level, data.Message, "source", "validation", "type", msgType)
	return false
}

func (r *Renderer) createSurface() error {
	r.surfaceExtension = khr_surface.CreateExtensionDriverFromCoreDriver(r.instanceDriver)
	surface, err := vkng_sdl2.CreateSurface(r.instanceDriver.Instance(), r.surfaceExtension, r.window)
	if err != nil {
		return errors.Wrap(err, "create window surface")
	}

	r.surface = surface
	r.teardown.push("surface", func() {
		r.surfaceExtension.DestroySurface(r.surface, nil)
	})
	return nil
}
