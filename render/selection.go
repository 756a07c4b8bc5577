package render

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

// undefinedExtent is the current-extent width a surface reports when the
// swapchain extent decides the window size.
const undefinedExtent = -1

type QueueFamilyIndices struct {
	GraphicsFamily *int
	PresentFamily  *int
}

func (i *QueueFamilyIndices) IsComplete() bool {
	return i.GraphicsFamily != nil && i.PresentFamily != nil
}

// Unique lists the distinct families in use, graphics first.
func (i *QueueFamilyIndices) Unique() []int {
	families := []int{*i.GraphicsFamily}
	if *i.PresentFamily != *i.GraphicsFamily {
		families = append(families, *i.PresentFamily)
	}
	return families
}

type QueueFamily struct {
	Flags core1_0.QueueFlags
	Count int
}

// FindQueueFamilies picks the graphics and present families. A family able
// to do both wins; otherwise the first family for each role is used.
func FindQueueFamilies(families []QueueFamily, supportsPresent func(index int) (bool, error)) (QueueFamilyIndices, error) {
	indices := QueueFamilyIndices{}

	for familyIdx, family := range families {
		if family.Count <= 0 {
			continue
		}

		graphics := (family.Flags & core1_0.QueueGraphics) != 0
		present, err := supportsPresent(familyIdx)
		if err != nil {
			return indices, err
		}

		if graphics && present {
			idx := familyIdx
			return QueueFamilyIndices{GraphicsFamily: &idx, PresentFamily: &idx}, nil
		}

		if graphics && indices.GraphicsFamily == nil {
			indices.GraphicsFamily = new(int)
			*indices.GraphicsFamily = familyIdx
		}

		if present && indices.PresentFamily == nil {
			indices.PresentFamily = new(int)
			*indices.PresentFamily = familyIdx
		}
	}

	return indices, nil
}

type SwapChainSupportDetails struct {
	Capabilities *khr_surface.SurfaceCapabilities
	Formats      []khr_surface.SurfaceFormat
	PresentModes []khr_surface.PresentMode
}

func (d SwapChainSupportDetails) IsAdequate() bool {
	return len(d.Formats) > 0 && len(d.PresentModes) > 0
}

// ChooseSurfaceFormat prefers 32-bit BGRA with the sRGB non-linear colour
// space. A lone UNDEFINED entry means the surface accepts any format.
func ChooseSurfaceFormat(availableFormats []khr_surface.SurfaceFormat, srgb bool) khr_surface.SurfaceFormat {
	preferred := khr_surface.SurfaceFormat{
		Format:     core1_0.FormatB8G8R8A8UnsignedNormalized,
		ColorSpace: khr_surface.ColorSpaceSRGBNonlinear,
	}
	if srgb {
		preferred.Format = core1_0.FormatB8G8R8A8SRGB
	}

	if len(availableFormats) == 1 && availableFormats[0].Format == core1_0.FormatUndefined {
		return preferred
	}

	for _, format := range availableFormats {
		if format.Format == preferred.Format && format.ColorSpace == preferred.ColorSpace {
			return format
		}
	}

	return availableFormats[0]
}

var presentModeNames = map[string]khr_surface.PresentMode{
	"mailbox":   khr_surface.PresentModeMailbox,
	"immediate": khr_surface.PresentModeImmediate,
	"fifo":      khr_surface.PresentModeFIFO,
}

func ParsePresentModes(names []string) ([]khr_surface.PresentMode, error) {
	modes := make([]khr_surface.PresentMode, 0, len(names))
	for _, name := range names {
		mode, ok := presentModeNames[strings.ToLower(name)]
		if !ok {
			return nil, errors.Newf("unknown present mode %q", name)
		}
		modes = append(modes, mode)
	}
	return modes, nil
}

// ChoosePresentMode returns the first preferred mode the surface offers.
// FIFO is required to be supported everywhere, so it is the fallback.
func ChoosePresentMode(availablePresentModes []khr_surface.PresentMode, preference []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, wanted := range preference {
		for _, presentMode := range availablePresentModes {
			if presentMode == wanted {
				return presentMode
			}
		}
	}

	return khr_surface.PresentModeFIFO
}

func ChooseExtent(capabilities *khr_surface.SurfaceCapabilities, drawableWidth, drawableHeight int) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != undefinedExtent {
		return capabilities.CurrentExtent
	}

	return core1_0.Extent2D{
		Width:  clamp(drawableWidth, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(drawableHeight, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum so the driver
// never blocks acquisition on its own work. MaxImageCount zero means no limit.
func ChooseImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DeviceCandidate is a physical device that passed the suitability checks.
type DeviceCandidate struct {
	Index int
	Name  string
	Type  core1_0.PhysicalDeviceType
}

var deviceTypeRank = map[core1_0.PhysicalDeviceType]int{
	core1_0.PhysicalDeviceTypeDiscreteGPU:   0,
	core1_0.PhysicalDeviceTypeIntegratedGPU: 1,
	core1_0.PhysicalDeviceTypeVirtualGPU:    2,
	core1_0.PhysicalDeviceTypeCPU:           3,
}

func rankOf(t core1_0.PhysicalDeviceType) int {
	rank, ok := deviceTypeRank[t]
	if !ok {
		return len(deviceTypeRank)
	}
	return rank
}

// RankDevices orders candidates best first: discrete, integrated, virtual,
// CPU, then anything else, keeping enumeration order within a type. When
// nameFilter is set only devices whose name contains it are kept.
func RankDevices(candidates []DeviceCandidate, nameFilter string) []DeviceCandidate {
	filter := strings.ToLower(nameFilter)

	var ranked []DeviceCandidate
	for _, candidate := range candidates {
		if filter != "" && !strings.Contains(strings.ToLower(candidate.Name), filter) {
			continue
		}
		ranked = append(ranked, candidate)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return rankOf(ranked[i].Type) < rankOf(ranked[j].Type)
	})
	return ranked
}

// FilterLayers splits requested layers into those the loader offers and
// those it does not.
func FilterLayers[V any](requested []string, available map[string]V) (enabled, missing []string) {
	for _, layer := range requested {
		if _, ok := available[layer]; ok {
			enabled = append(enabled, layer)
		} else {
			missing = append(missing, layer)
		}
	}
	return enabled, missing
}

func ParseAPIVersion(s string) (common.APIVersion, error) {
	switch s {
	case "1.0":
		return common.Vulkan1_0, nil
	case "1.1":
		return common.Vulkan1_1, nil
	case "1.2":
		return common.Vulkan1_2, nil
	}
	return 0, errors.Newf("unsupported api version %q", s)
}
