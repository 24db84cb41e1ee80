package lightatlas

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Default parameters for environment atlas generation.
const (
	// DefaultAtlasSize is the edge length of a generated atlas.
	DefaultAtlasSize = 512

	// DefaultLightingSourceSize is the face size of a generated lighting
	// source cubemap.
	DefaultLightingSourceSize = 128

	// DefaultReflectionSamples is the per-texel sample count for
	// reflection prefiltering.
	DefaultReflectionSamples = 1024

	// DefaultAmbientSamples is the per-texel sample count for ambient
	// irradiance.
	DefaultAmbientSamples = 2048

	// skyboxSamples is the fixed resolve quality for skybox generation.
	skyboxSamples = 1024

	// fullResolveSamples is the resolve quality when the source carries
	// no precomputed mip data.
	fullResolveSamples = 1024
)

// EnvironmentAtlas lays out prefiltered environment lighting inside one
// shared square texture: a mip pyramid band, a reflection band of
// increasing roughness, and an ambient irradiance patch. It owns no pixel
// work itself; each region is filled through a single Resampler call with
// region-specific parameters.
//
// EnvironmentAtlas is not safe for concurrent use; generation runs
// synchronously on the caller's thread.
type EnvironmentAtlas struct {
	device    Device
	resampler Resampler
}

// NewEnvironmentAtlas creates an environment atlas generator over the
// given texture factory and resampler.
func NewEnvironmentAtlas(device Device, resampler Resampler) (*EnvironmentAtlas, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if resampler == nil {
		return nil, ErrNilResampler
	}
	return &EnvironmentAtlas{device: device, resampler: resampler}, nil
}

// LightingSourceOptions configures GenerateLightingSource.
type LightingSourceOptions struct {
	// Target receives the result instead of a newly created cubemap.
	// Must be a cubemap when set.
	Target Texture

	// Size is the cube face size. Default: 128.
	Size int
}

func (o *LightingSourceOptions) withDefaults() LightingSourceOptions {
	var out LightingSourceOptions
	if o != nil {
		out = *o
	}
	if out.Size <= 0 {
		out.Size = DefaultLightingSourceSize
	}
	return out
}

// AtlasOptions configures GenerateAtlas.
type AtlasOptions struct {
	// Target receives the result instead of a newly created atlas.
	// Must be an equirect-addressed 2D texture of Size x Size when set.
	Target Texture

	// Size is the atlas edge length. Must be a power-of-two multiple of
	// 512. Default: 512.
	Size int

	// NumReflectionSamples is the per-texel sample count for the
	// reflection band. Default: 1024.
	NumReflectionSamples int

	// NumAmbientSamples is the per-texel sample count for the ambient
	// patch. Default: 2048.
	NumAmbientSamples int

	// Distribution is the BRDF distribution for the reflection band.
	// Default: GGX.
	Distribution Distribution
}

func (o *AtlasOptions) withDefaults() AtlasOptions {
	var out AtlasOptions
	if o != nil {
		out = *o
	}
	if out.Size <= 0 {
		out.Size = DefaultAtlasSize
	}
	if out.NumReflectionSamples <= 0 {
		out.NumReflectionSamples = DefaultReflectionSamples
	}
	if out.NumAmbientSamples <= 0 {
		out.NumAmbientSamples = DefaultAmbientSamples
	}
	return out
}

// validate checks resolved options. Call after withDefaults.
func (o *AtlasOptions) validate() error {
	if o.Size&(o.Size-1) != 0 {
		return &AtlasConfigError{Field: "Size", Reason: "must be power of 2"}
	}
	if o.Size < refAtlasSize {
		return &AtlasConfigError{Field: "Size", Reason: "must be at least 512"}
	}
	return nil
}

// PrefilteredOptions configures GeneratePrefilteredAtlas.
type PrefilteredOptions struct {
	// Target receives the result instead of a newly created atlas.
	Target Texture

	// Size is the atlas edge length. Default: 512.
	Size int

	// LegacyAmbient copies the most-blurred source into the ambient
	// patch instead of resolving a fresh Lambert convolution.
	LegacyAmbient bool

	// NumSamples is the sample count for the ambient convolution when
	// LegacyAmbient is false. Default: 2048.
	NumSamples int
}

func (o *PrefilteredOptions) withDefaults() PrefilteredOptions {
	var out PrefilteredOptions
	if o != nil {
		out = *o
	}
	if out.Size <= 0 {
		out.Size = DefaultAtlasSize
	}
	if out.NumSamples <= 0 {
		out.NumSamples = DefaultAmbientSamples
	}
	return out
}

func (o *PrefilteredOptions) validate() error {
	if o.Size&(o.Size-1) != 0 {
		return &AtlasConfigError{Field: "Size", Reason: "must be power of 2"}
	}
	if o.Size < refAtlasSize {
		return &AtlasConfigError{Field: "Size", Reason: "must be at least 512"}
	}
	return nil
}

// validateLightingSource checks that src can feed a layout operation:
// non-nil and either a cubemap or an equirect-addressed 2D texture.
// Anything else fails fast before any texture is created.
func validateLightingSource(op string, src Texture) error {
	if src == nil {
		return fmt.Errorf("%s: %w", op, ErrNilSource)
	}
	if src.Cubemap() {
		return nil
	}
	if src.Projection() != ProjectionEquirect {
		return &SourceFormatError{
			Op:     op,
			Reason: "2D source must be equirect projected, got " + src.Projection().String(),
		}
	}
	return nil
}

// GenerateSkyboxCubemap produces a cubemap of the requested size by
// resampling the source with a fixed high sample count. A non-positive
// size auto-derives: the source width for cubemap sources, a quarter of
// it for equirect sources. The result carries no mip chain.
func (e *EnvironmentAtlas) GenerateSkyboxCubemap(source Texture, size int) (Texture, error) {
	const op = "generate skybox cubemap"
	if err := validateLightingSource(op, source); err != nil {
		return nil, err
	}

	if size <= 0 {
		if source.Cubemap() {
			size = source.Width()
		} else {
			size = max(1, source.Width()/4)
		}
	}

	tex, err := e.device.CreateTexture(&TextureDescriptor{
		Label:      "skybox-cubemap",
		Width:      size,
		Height:     size,
		Format:     source.Format(),
		Cubemap:    true,
		Projection: ProjectionCube,
		Encoding:   source.Encoding(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = e.resampler.Resample(source, tex, &ResampleParams{
		SampleCount:  skyboxSamples,
		Distribution: DistributionNone,
	})
	if err != nil {
		tex.Destroy()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tex, nil
}

// GenerateLightingSource produces (or fills opts.Target with) a small
// cubemap in an HDR-capable format, the high-quality intermediate that
// later atlas stages resample from. The pixel format degrades with device
// capability (see SelectLightingFormat). The resolve uses one sample per
// texel when the source already carries mip data, else a full-quality
// resolve.
func (e *EnvironmentAtlas) GenerateLightingSource(source Texture, opts *LightingSourceOptions) (Texture, error) {
	const op = "generate lighting source"
	if err := validateLightingSource(op, source); err != nil {
		return nil, err
	}
	o := opts.withDefaults()

	format, encoding := SelectLightingFormat(e.device.Capabilities())

	target := o.Target
	created := false
	if target == nil {
		var err error
		target, err = e.device.CreateTexture(&TextureDescriptor{
			Label:      "lighting-source",
			Width:      o.Size,
			Height:     o.Size,
			Format:     format,
			Cubemap:    true,
			Projection: ProjectionCube,
			Mipmaps:    true,
			Encoding:   encoding,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		created = true
	} else if !target.Cubemap() {
		return nil, &AtlasConfigError{Field: "Target", Reason: "must be a cubemap"}
	}

	samples := fullResolveSamples
	if source.Mipmaps() {
		// Source already carries filtered levels; a single tap resolves it.
		samples = 1
	}

	err := e.resampler.Resample(source, target, &ResampleParams{
		SampleCount:  samples,
		Distribution: DistributionNone,
	})
	if err != nil {
		if created {
			target.Destroy()
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return target, nil
}

// GenerateAtlas builds the three-region lighting atlas from a single
// source: 6 mip pyramid levels along the descending diagonal, 6
// reflection bands of increasing roughness down the left edge, and one
// ambient irradiance patch. Thirteen resample calls at default options.
// The atlas is equirect addressed, RGBM encoded, and its region
// rectangles match MipRegion, ReflectionRegion, and AmbientRegion.
func (e *EnvironmentAtlas) GenerateAtlas(source Texture, opts *AtlasOptions) (Texture, error) {
	const op = "generate atlas"
	if err := validateLightingSource(op, source); err != nil {
		return nil, err
	}
	o := opts.withDefaults()
	if err := o.validate(); err != nil {
		return nil, err
	}
	if caps := e.device.Capabilities(); caps.MaxTextureSize > 0 && o.Size > caps.MaxTextureSize {
		return nil, &AtlasConfigError{Field: "Size", Reason: "exceeds device maximum texture size"}
	}

	target, created, err := e.atlasTarget(o.Target, o.Size, "env-atlas")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	fail := func(err error) (Texture, error) {
		if created {
			target.Destroy()
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := atlasScale(o.Size)

	mip := bandByKind(RegionMip)
	err = mip.walk(s, mip.steps, func(i int, r Rect) error {
		err := e.resampler.Resample(source, target, &ResampleParams{
			SampleCount:  1,
			DestRect:     &r,
			Distribution: DistributionNone,
			SeamPixels:   s,
		})
		if err != nil {
			return fmt.Errorf("mip level %d: %w", i, err)
		}
		return nil
	})
	if err != nil {
		return fail(err)
	}

	refl := bandByKind(RegionReflection)
	err = refl.walk(s, refl.steps, func(i int, r Rect) error {
		err := e.resampler.Resample(source, target, &ResampleParams{
			SampleCount:   o.NumReflectionSamples,
			DestRect:      &r,
			Distribution:  o.Distribution,
			SpecularPower: ReflectionSpecularPower(i),
			SeamPixels:    s,
		})
		if err != nil {
			return fmt.Errorf("reflection band %d: %w", i, err)
		}
		return nil
	})
	if err != nil {
		return fail(err)
	}

	ambient := AmbientRegion(o.Size)
	err = e.resampler.Resample(source, target, &ResampleParams{
		SampleCount:  o.NumAmbientSamples,
		DestRect:     &ambient,
		Distribution: DistributionLambert,
		SeamPixels:   s,
	})
	if err != nil {
		return fail(fmt.Errorf("ambient patch: %w", err))
	}

	Logger().Debug("environment atlas generated",
		"size", o.Size,
		"mipLevels", mip.steps,
		"reflectionBands", refl.steps)
	return target, nil
}

// GeneratePrefilteredAtlas copies six already-prefiltered cubemaps into
// the same three-region layout instead of recomputing from one source.
// The mip pyramid repeats sources[0] down to a single pixel, the
// reflection band copies sources[1..5] one per step, and the ambient
// patch either copies sources[5] verbatim (LegacyAmbient) or resolves a
// fresh Lambert convolution from sources[0].
func (e *EnvironmentAtlas) GeneratePrefilteredAtlas(sources []Texture, opts *PrefilteredOptions) (Texture, error) {
	const op = "generate prefiltered atlas"
	if len(sources) != 6 {
		return nil, &SourceFormatError{
			Op:     op,
			Reason: fmt.Sprintf("need 6 prefiltered cubemaps, got %d", len(sources)),
		}
	}
	for i, src := range sources {
		if src == nil {
			return nil, fmt.Errorf("%s: source %d: %w", op, i, ErrNilSource)
		}
		if !src.Cubemap() {
			return nil, &SourceFormatError{
				Op:     op,
				Reason: fmt.Sprintf("source %d must be a cubemap", i),
			}
		}
	}
	o := opts.withDefaults()
	if err := o.validate(); err != nil {
		return nil, err
	}

	target, created, err := e.atlasTarget(o.Target, o.Size, "env-atlas-prefiltered")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	fail := func(err error) (Texture, error) {
		if created {
			target.Destroy()
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := atlasScale(o.Size)

	// The pyramid walks all the way down from the full reference size.
	mip := bandByKind(RegionMip)
	err = mip.walk(s, levelCount(refAtlasSize), func(i int, r Rect) error {
		err := e.resampler.Resample(sources[0], target, &ResampleParams{
			SampleCount:  1,
			DestRect:     &r,
			Distribution: DistributionNone,
			SeamPixels:   s,
		})
		if err != nil {
			return fmt.Errorf("mip level %d: %w", i, err)
		}
		return nil
	})
	if err != nil {
		return fail(err)
	}

	refl := bandByKind(RegionReflection)
	err = refl.walk(s, len(sources)-1, func(i int, r Rect) error {
		err := e.resampler.Resample(sources[i+1], target, &ResampleParams{
			SampleCount:  1,
			DestRect:     &r,
			Distribution: DistributionNone,
			SeamPixels:   s,
		})
		if err != nil {
			return fmt.Errorf("reflection band %d: %w", i, err)
		}
		return nil
	})
	if err != nil {
		return fail(err)
	}

	ambient := AmbientRegion(o.Size)
	if o.LegacyAmbient {
		err = e.resampler.Resample(sources[5], target, &ResampleParams{
			SampleCount:  1,
			DestRect:     &ambient,
			Distribution: DistributionNone,
			SeamPixels:   s,
		})
	} else {
		err = e.resampler.Resample(sources[0], target, &ResampleParams{
			SampleCount:  o.NumSamples,
			DestRect:     &ambient,
			Distribution: DistributionLambert,
			SeamPixels:   s,
		})
	}
	if err != nil {
		return fail(fmt.Errorf("ambient patch: %w", err))
	}
	return target, nil
}

// atlasTarget returns the destination atlas, creating an RGBM-encoded
// equirect texture when target is nil. The bool reports whether the
// texture was created here (and so is owned by the caller on failure).
func (e *EnvironmentAtlas) atlasTarget(target Texture, size int, label string) (Texture, bool, error) {
	if target != nil {
		if target.Cubemap() || target.Projection() != ProjectionEquirect {
			return nil, false, &AtlasConfigError{Field: "Target", Reason: "must be an equirect 2D atlas"}
		}
		if target.Width() != size || target.Height() != size {
			return nil, false, &AtlasConfigError{Field: "Target", Reason: "size does not match Size option"}
		}
		return target, false, nil
	}

	tex, err := e.device.CreateTexture(&TextureDescriptor{
		Label:      label,
		Width:      size,
		Height:     size,
		Format:     gputypes.TextureFormatRGBA8Unorm,
		Projection: ProjectionEquirect,
		Encoding:   EncodingRGBM,
	})
	if err != nil {
		return nil, false, err
	}
	return tex, true, nil
}
