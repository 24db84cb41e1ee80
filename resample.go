package lightatlas

// Distribution selects the BRDF importance-sampling distribution used by
// a resample operation.
type Distribution uint8

const (
	// DistributionGGX importance-samples the GGX normal distribution.
	// This is the default for reflection prefiltering.
	DistributionGGX Distribution = iota

	// DistributionPhong importance-samples a cosine-power lobe.
	DistributionPhong

	// DistributionLambert importance-samples the cosine hemisphere.
	// Used for ambient irradiance.
	DistributionLambert

	// DistributionNone disables importance sampling; the source is read
	// with a single filtered tap regardless of sample count.
	DistributionNone
)

// String returns a string representation of the distribution.
func (d Distribution) String() string {
	switch d {
	case DistributionGGX:
		return "GGX"
	case DistributionPhong:
		return "Phong"
	case DistributionLambert:
		return "Lambert"
	case DistributionNone:
		return "None"
	default:
		return "Unknown"
	}
}

// ResampleParams carries the per-call parameters of a resample operation.
type ResampleParams struct {
	// SampleCount is the number of importance samples per destination
	// texel. 1 means a single filtered tap.
	SampleCount int

	// DestRect is the destination sub-rectangle in pixels. Nil writes the
	// full target.
	DestRect *Rect

	// Distribution is the importance-sampling distribution.
	Distribution Distribution

	// SpecularPower shapes the Phong/GGX lobe. Ignored by Lambert and
	// None.
	SpecularPower float64

	// SeamPixels is the border-bleed compensation width in destination
	// pixels. The resampler replicates edge content across this border so
	// bilinear taps at region edges stay inside the region.
	SeamPixels float64
}

// Resampler reprojects and prefilters one texture into (a sub-rectangle
// of) another. It is the layout core's sole GPU-work trigger; calls are
// synchronous from the caller's perspective and issued in strict caller
// order.
type Resampler interface {
	Resample(src, dst Texture, p *ResampleParams) error
}
