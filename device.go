// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package lightatlas

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host application.
//
// This is the integration point between lightatlas and GPU frameworks like
// gogpu: the host implements DeviceHandle (or passes its existing
// gpucontext provider) and backend implementations build a Device from it.
// lightatlas RECEIVES the device from the host, it does not create one.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, providing a
// lightatlas-specific name for the interface while maintaining full
// compatibility with the gpucontext ecosystem.
type DeviceHandle = gpucontext.DeviceProvider

// NullDeviceHandle is a DeviceHandle that provides nil implementations.
// Used for CPU-only operation where no GPU is available.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}

// Projection describes how a texture's pixels map onto directions.
type Projection uint8

const (
	// ProjectionNone marks a plain 2D texture with no spherical mapping.
	ProjectionNone Projection = iota

	// ProjectionEquirect marks an equirectangular panorama: u wraps
	// longitude, v spans latitude top to bottom.
	ProjectionEquirect

	// ProjectionCube marks a six-face cubemap.
	ProjectionCube
)

// String returns a string representation of the projection.
func (p Projection) String() string {
	switch p {
	case ProjectionNone:
		return "None"
	case ProjectionEquirect:
		return "Equirect"
	case ProjectionCube:
		return "Cube"
	default:
		return "Unknown"
	}
}

// Encoding describes how HDR radiance is packed into a texture's channels.
type Encoding uint8

const (
	// EncodingLinear stores radiance directly in the channel values.
	EncodingLinear Encoding = iota

	// EncodingRGBM stores radiance as 8-bit RGB scaled by a shared
	// multiplier in alpha. Used when no float render target is available.
	EncodingRGBM
)

// String returns a string representation of the encoding.
func (e Encoding) String() string {
	switch e {
	case EncodingLinear:
		return "Linear"
	case EncodingRGBM:
		return "RGBM"
	default:
		return "Unknown"
	}
}

// TextureDescriptor describes parameters for creating a texture.
type TextureDescriptor struct {
	// Label is an optional debug label for the texture.
	Label string

	// Width is the texture width in pixels.
	Width int

	// Height is the texture height in pixels.
	Height int

	// Format is the texture pixel format.
	Format gputypes.TextureFormat

	// Cubemap requests a six-face cube texture. Width and Height must be
	// equal for cubemaps.
	Cubemap bool

	// Projection is the spherical addressing mode of the texture.
	Projection Projection

	// Mipmaps requests a full mip chain on the texture.
	Mipmaps bool

	// Encoding is the HDR channel packing of the texture.
	Encoding Encoding
}

// Validate checks the descriptor for structural problems.
func (d *TextureDescriptor) Validate() error {
	if d.Width <= 0 {
		return &TextureConfigError{Field: "Width", Reason: "must be positive"}
	}
	if d.Height <= 0 {
		return &TextureConfigError{Field: "Height", Reason: "must be positive"}
	}
	if d.Cubemap && d.Width != d.Height {
		return &TextureConfigError{Field: "Cubemap", Reason: "cube faces must be square"}
	}
	if d.Cubemap && d.Projection == ProjectionEquirect {
		return &TextureConfigError{Field: "Projection", Reason: "cubemap cannot be equirect addressed"}
	}
	return nil
}

// Texture represents a texture resource owned by a Device.
//
// The core never touches pixel storage through this interface; it only
// carries handles between the factory, the resampler, and light bindings.
type Texture interface {
	// Label returns the texture's debug label.
	Label() string

	// Width returns the texture width in pixels.
	Width() int

	// Height returns the texture height in pixels.
	Height() int

	// Format returns the texture pixel format.
	Format() gputypes.TextureFormat

	// Cubemap reports whether the texture has six cube faces.
	Cubemap() bool

	// Projection returns the spherical addressing mode.
	Projection() Projection

	// Mipmaps reports whether the texture carries a full mip chain.
	Mipmaps() bool

	// Encoding returns the HDR channel packing.
	Encoding() Encoding

	// Destroy releases the texture's resources. Destroy is idempotent.
	Destroy()
}

// DeviceCapabilities describes the device features the layout logic
// inspects. Everything else about the device stays behind the backend.
type DeviceCapabilities struct {
	// MaxTextureSize is the maximum texture dimension supported.
	MaxTextureSize int

	// HalfFloatRenderable indicates 16-bit float render target support.
	HalfFloatRenderable bool

	// FloatRenderable indicates 32-bit float render target support.
	FloatRenderable bool

	// PCF indicates hardware percentage-closer filtering through depth
	// comparison samplers.
	PCF bool
}

// Device creates textures and answers capability queries. Implementations
// live in backend packages and in the in-process software device.
type Device interface {
	// CreateTexture creates a texture matching the descriptor.
	CreateTexture(desc *TextureDescriptor) (Texture, error)

	// Capabilities returns the device's feature support.
	Capabilities() DeviceCapabilities
}

// Shader parameter names published by the shadow atlas.
const (
	// ShadowAtlasParam is the parameter name for the shared shadow-map
	// texture.
	ShadowAtlasParam = "shadowAtlas"

	// ShadowAtlasResolutionParam is the parameter name for the scalar
	// shadow-map resolution.
	ShadowAtlasResolutionParam = "shadowAtlasResolution"
)

// ParameterSink receives shader-visible parameters. The host renderer
// implements this to route atlas outputs into its material system.
type ParameterSink interface {
	// SetTexture publishes a texture parameter.
	SetTexture(name string, tex Texture)

	// SetFloat publishes a scalar parameter.
	SetFloat(name string, value float64)
}
