// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"
	"math/bits"
	"sync"

	"github.com/gogpu/gputypes"
	types "github.com/gogpu/gputypes"
	"github.com/gogpu/lightatlas"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// fenceWaitTimeout is the fence wait budget in nanoseconds (5 seconds).
const fenceWaitTimeout = 5_000_000_000

// Device implements lightatlas.Device on a gogpu/wgpu HAL device.
//
// The device is normally built around an injected hal.Device and hal.Queue
// shared with the host renderer (see NewDevice and NewDeviceFromHandle).
// Open creates a standalone Vulkan device for compute-only use when no
// host device exists.
//
// Thread Safety: Device is safe for concurrent use from multiple
// goroutines.
type Device struct {
	mu     sync.RWMutex
	device hal.Device
	queue  hal.Queue
	limits types.Limits
	caps   lightatlas.DeviceCapabilities

	// instance is non-nil only for devices created by Open. Injected
	// devices belong to the host and are never destroyed here.
	instance hal.Instance

	destroyed bool
}

var _ lightatlas.Device = (*Device)(nil)

// NewDevice wraps an existing HAL device and queue. If limits is nil,
// default limits are used.
func NewDevice(device hal.Device, queue hal.Queue, limits *types.Limits) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNilHALDevice
	}

	var lim types.Limits
	if limits != nil {
		lim = *limits
	} else {
		lim = types.DefaultLimits()
	}

	return &Device{
		device: device,
		queue:  queue,
		limits: lim,
		caps:   capabilitiesFromLimits(lim),
	}, nil
}

// NewDeviceFromHandle builds a Device from a host-provided DeviceHandle.
// The handle must expose HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue, which gogpu device providers do.
func NewDeviceFromHandle(handle lightatlas.DeviceHandle, limits *types.Limits) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := handle.(halProvider)
	if !ok {
		return nil, fmt.Errorf("native: device handle does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("native: device handle HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("native: device handle HalQueue is not hal.Queue")
	}
	return NewDevice(device, queue, limits)
}

// Open creates a standalone Vulkan device for compute-only use. This is
// the fallback path when no host device exists (offline bakes, tools).
// The caller owns the returned device and must call Destroy.
func Open() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("native: vulkan backend not available: %w", ErrNoAdapter)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}

	// Prefer discrete, then integrated, then whatever enumerates first.
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device: %w", err)
	}

	dev, err := NewDevice(openDev.Device, openDev.Queue, nil)
	if err != nil {
		instance.Destroy()
		return nil, err
	}
	dev.instance = instance

	lightatlas.Logger().Info("native: GPU device opened (standalone)", "adapter", selected.Info.Name)
	return dev, nil
}

// CreateTexture implements lightatlas.Device. The texture is allocated
// on the GPU; color formats also carry a CPU-side pixel mirror that the
// resampler reads and writes before uploading through the queue.
func (d *Device) CreateTexture(desc *lightatlas.TextureDescriptor) (lightatlas.Texture, error) {
	if desc == nil {
		return nil, &lightatlas.TextureConfigError{Field: "Descriptor", Reason: "must not be nil"}
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.destroyed {
		return nil, ErrDeviceDestroyed
	}
	if d.caps.MaxTextureSize > 0 &&
		(desc.Width > d.caps.MaxTextureSize || desc.Height > d.caps.MaxTextureSize) {
		return nil, &lightatlas.TextureConfigError{Field: "Width", Reason: "exceeds device maximum texture size"}
	}

	format, err := convertFormat(desc.Format)
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}

	layers := uint32(1)
	if desc.Cubemap {
		layers = 6
	}
	mips := uint32(1)
	if desc.Mipmaps {
		mips = mipLevelCount(desc.Width, desc.Height)
	}

	halTex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: layers,
		},
		MipLevelCount: mips,
		SampleCount:   1,
		Dimension:     types.TextureDimension2D,
		Format:        format,
		Usage:         textureUsage(desc.Format),
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}

	return newTexture(d, halTex, desc, mips)
}

// Capabilities implements lightatlas.Device.
func (d *Device) Capabilities() lightatlas.DeviceCapabilities {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.caps
}

// Raw returns the underlying HAL device and queue. Both are nil after
// Destroy.
func (d *Device) Raw() (hal.Device, hal.Queue) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.device, d.queue
}

// WaitIdle blocks until all work submitted to the queue has completed.
func (d *Device) WaitIdle() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.destroyed {
		return ErrDeviceDestroyed
	}
	return waitForQueue(d.device, d.queue)
}

// Destroy marks the device destroyed. Devices created by Open also tear
// down their Vulkan device and instance; injected devices are left to
// their owner. Destroy is idempotent.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return
	}
	d.destroyed = true

	if d.instance != nil {
		if d.device != nil {
			d.device.Destroy()
		}
		d.instance.Destroy()
		d.instance = nil
	}
	d.device = nil
	d.queue = nil
}

// waitForQueue signals a fresh fence on the queue and blocks until it
// fires or the timeout passes.
func waitForQueue(device hal.Device, queue hal.Queue) error {
	fence, err := device.CreateFence()
	if err != nil {
		return fmt.Errorf("failed to create fence: %w", err)
	}
	defer device.DestroyFence(fence)

	if err := queue.Submit(nil, fence, 1); err != nil {
		return fmt.Errorf("failed to submit fence signal: %w", err)
	}

	signaled, err := device.Wait(fence, 1, fenceWaitTimeout)
	if err != nil {
		return fmt.Errorf("failed to wait for fence: %w", err)
	}
	if !signaled {
		return fmt.Errorf("fence wait timed out")
	}
	return nil
}

// capabilitiesFromLimits derives layout-visible capabilities from HAL
// limits. Half float, full float, and depth comparison sampling are core
// WebGPU features, so they are always reported.
func capabilitiesFromLimits(lim types.Limits) lightatlas.DeviceCapabilities {
	return lightatlas.DeviceCapabilities{
		MaxTextureSize:      int(lim.MaxTextureDimension2D),
		HalfFloatRenderable: true,
		FloatRenderable:     true,
		PCF:                 true,
	}
}

// convertFormat converts gputypes.TextureFormat to types.TextureFormat.
func convertFormat(format gputypes.TextureFormat) (types.TextureFormat, error) {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm:
		return types.TextureFormatRGBA8Unorm, nil
	case gputypes.TextureFormatRGBA8UnormSrgb:
		return types.TextureFormatRGBA8UnormSrgb, nil
	case gputypes.TextureFormatBGRA8Unorm:
		return types.TextureFormatBGRA8Unorm, nil
	case gputypes.TextureFormatR8Unorm:
		return types.TextureFormatR8Unorm, nil
	case gputypes.TextureFormatR32Float:
		return types.TextureFormatR32Float, nil
	case gputypes.TextureFormatRGBA16Float:
		return types.TextureFormatRGBA16Float, nil
	case gputypes.TextureFormatRGBA32Float:
		return types.TextureFormatRGBA32Float, nil
	case gputypes.TextureFormatDepth32Float:
		return types.TextureFormatDepth32Float, nil
	default:
		return types.TextureFormatUndefined, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
}

// textureUsage selects HAL usage flags by format role. Depth formats are
// rasterization targets sampled by shadow comparisons; color formats
// receive queue uploads and are sampled by lighting shaders.
func textureUsage(format gputypes.TextureFormat) types.TextureUsage {
	if format == gputypes.TextureFormatDepth32Float {
		return types.TextureUsageRenderAttachment | types.TextureUsageTextureBinding
	}
	return types.TextureUsageTextureBinding | types.TextureUsageCopyDst | types.TextureUsageCopySrc
}

// mipLevelCount returns the full mip chain length for a texture extent.
func mipLevelCount(width, height int) uint32 {
	m := width
	if height > m {
		m = height
	}
	if m < 1 {
		return 1
	}
	return uint32(bits.Len(uint(m)))
}
