package lightatlas

import "github.com/gogpu/gputypes"

// SelectLightingFormat picks the pixel format for HDR lighting textures by
// descending device capability: 16-bit float, then 32-bit float, then
// 8-bit channels with RGBM encoding. Capability mismatches degrade softly
// and are logged; this never fails.
func SelectLightingFormat(caps DeviceCapabilities) (gputypes.TextureFormat, Encoding) {
	if caps.HalfFloatRenderable {
		return gputypes.TextureFormatRGBA16Float, EncodingLinear
	}
	if caps.FloatRenderable {
		Logger().Warn("lighting format degraded",
			"from", "rgba16float",
			"to", "rgba32float",
			"reason", "half-float render targets unsupported")
		return gputypes.TextureFormatRGBA32Float, EncodingLinear
	}
	Logger().Warn("lighting format degraded",
		"from", "rgba16float",
		"to", "rgba8unorm+rgbm",
		"reason", "float render targets unsupported")
	return gputypes.TextureFormatRGBA8Unorm, EncodingRGBM
}

// ShadowBufferFormat picks the shadow-map storage format: a depth buffer
// when the device filters shadow lookups in hardware, else a color buffer
// holding packed depth.
func ShadowBufferFormat(caps DeviceCapabilities) gputypes.TextureFormat {
	if caps.PCF {
		return gputypes.TextureFormatDepth32Float
	}
	return gputypes.TextureFormatRGBA8Unorm
}
