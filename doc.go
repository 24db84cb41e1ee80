// Package lightatlas packs dynamically generated lighting data into
// fixed-size shared textures for the GoGPU ecosystem.
//
// # Overview
//
// Renderers want to sample many logically distinct images through a
// single texture binding per frame: prefiltered environment lighting
// at several roughness levels, and one shadow map per shadow-casting
// light face. lightatlas owns the layout side of that problem. It
// decides where each sub-image lives inside a shared texture, how
// regions shrink across a mip/blur pyramid, and how a changing set of
// lights maps onto non-overlapping grid cells, then drives external
// resampling through small interfaces.
//
// # Quick Start
//
//	import "github.com/gogpu/lightatlas"
//
//	// Pure-Go reference backend
//	device := lightatlas.NewSoftwareDevice()
//	resampler := lightatlas.NewSoftwareResampler()
//
//	// Build a 512x512 environment atlas from an equirect panorama
//	env, _ := lightatlas.NewEnvironmentAtlas(device, resampler)
//	atlas, err := env.GenerateAtlas(panorama, nil)
//
//	// Pack this frame's shadow maps
//	shadows, _ := lightatlas.NewShadowAtlas(device, nil)
//	err = shadows.Update(spotLights, omniLights)
//
// # Components
//
// EnvironmentAtlas lays out a mip pyramid band, a band of progressively
// rougher reflection probes, and an ambient irradiance patch inside one
// equirect-addressed square texture. MipRegion, ReflectionRegion, and
// AmbientRegion expose the same packing table to shader code.
//
// ShadowAtlas fits every qualifying light's shadow faces into the
// minimal square grid over one shared texture, writing viewport and
// scissor placement into each face and publishing the texture through a
// parameter sink. The grid layout is memoized while the face count is
// stable.
//
// # Architecture
//
// The library is organized into:
//   - Public API: EnvironmentAtlas, ShadowAtlas, SlotGrid, Rect,
//     lights, ShadowMapCache, Device/Resampler/ParameterSink interfaces
//   - Reference backend: SoftwareDevice and SoftwareResampler (CPU)
//   - GPU backend: backend/native over gogpu/wgpu with a naga-compiled
//     WGSL kernel
//   - Internal: fimage (float image buffers, direction math, importance
//     sampling, RGBM)
//
// # Coordinate System
//
// Atlas regions are in pixels, origin top-left, X right, Y down.
// Shadow slots, viewports, and scissors are normalized to [0, 1] over
// the shadow texture. Cubemap faces follow WebGPU order:
// +X -X +Y -Y +Z -Z.
//
// # Concurrency
//
// EnvironmentAtlas and ShadowAtlas run synchronously on the caller's
// thread and are not safe for concurrent use. ShadowMapCache is safe
// for concurrent use.
package lightatlas

// Version information
const (
	// Version is the current version of the library
	Version = "0.3.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 3

	// VersionPatch is the patch version
	VersionPatch = 0
)
