package fimage

import (
	"math"
	"math/bits"
)

// Hammersley returns point i of an n-point Hammersley set in [0,1)².
// The set is deterministic, making prefilter output reproducible for
// identical inputs.
func Hammersley(i, n int) (u1, u2 float64) {
	u1 = float64(i) / float64(n)
	u2 = radicalInverse(uint32(i))
	return u1, u2
}

// radicalInverse computes the base-2 Van der Corput radical inverse.
func radicalInverse(v uint32) float64 {
	return float64(bits.Reverse32(v)) * (1.0 / 4294967296.0)
}

// SampleLambert converts uniform (u1, u2) to a cosine-weighted direction
// on the +Z hemisphere. Used for diffuse irradiance convolution.
func SampleLambert(u1, u2 float64) Vec3 {
	r := math.Sqrt(u1)
	phi := 2 * math.Pi * u2
	return Vec3{
		X: r * math.Cos(phi),
		Y: r * math.Sin(phi),
		Z: math.Sqrt(math.Max(0, 1-u1)),
	}
}

// SamplePhong converts uniform (u1, u2) to a cos^power-weighted direction
// on the +Z hemisphere.
func SamplePhong(u1, u2, power float64) Vec3 {
	cosTheta := math.Pow(u1, 1/(power+1))
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	phi := 2 * math.Pi * u2
	return Vec3{
		X: sinTheta * math.Cos(phi),
		Y: sinTheta * math.Sin(phi),
		Z: cosTheta,
	}
}

// SampleGGX converts uniform (u1, u2) to a GGX half-vector direction on
// the +Z hemisphere for roughness alpha.
func SampleGGX(u1, u2, alpha float64) Vec3 {
	a2 := alpha * alpha
	cosTheta := math.Sqrt((1 - u1) / (1 + (a2-1)*u1))
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	phi := 2 * math.Pi * u2
	return Vec3{
		X: sinTheta * math.Cos(phi),
		Y: sinTheta * math.Sin(phi),
		Z: cosTheta,
	}
}

// AlphaFromSpecularPower converts a Phong-style specular power to an
// approximately matching GGX roughness alpha.
func AlphaFromSpecularPower(power float64) float64 {
	if power < 1 {
		power = 1
	}
	return math.Sqrt(2 / (power + 2))
}

// WorldDir rotates a +Z-hemisphere sample into the tangent frame around n.
func WorldDir(local, n Vec3) Vec3 {
	t, b := OrthonormalBasis(n)
	return t.Scale(local.X).Add(b.Scale(local.Y)).Add(n.Scale(local.Z)).Normalize()
}
