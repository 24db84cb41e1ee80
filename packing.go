// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package lightatlas

import (
	"math"
	"math/bits"
)

// refAtlasSize is the reference resolution the packing constants are
// tuned for. Every region rectangle scales linearly from it, so the same
// packing ratios hold at any power-of-two multiple of 512.
const refAtlasSize = 512

// Pyramid bounds for a generated atlas: mip levels run from 256 down to 4
// at the reference size.
const (
	mipLargest  = 256
	mipSmallest = 4
)

// ReflectionBands is the number of reflection blur levels in the atlas.
const ReflectionBands = 6

// RegionKind identifies one of the three atlas bands.
type RegionKind uint8

const (
	// RegionMip is the geometric mip pyramid band.
	RegionMip RegionKind = iota

	// RegionReflection is the roughness-convolved reflection band.
	RegionReflection

	// RegionAmbient is the diffuse irradiance patch.
	RegionAmbient
)

// String returns a string representation of the region kind.
func (k RegionKind) String() string {
	switch k {
	case RegionMip:
		return "Mip"
	case RegionReflection:
		return "Reflection"
	case RegionAmbient:
		return "Ambient"
	default:
		return "Unknown"
	}
}

// advanceRule tells bandPlan.walk how a band's origin moves between steps.
type advanceRule uint8

const (
	// advanceDiagonal moves the origin right and down by the current
	// height. Successive 2:1 levels pack along a descending diagonal
	// without overlap.
	advanceDiagonal advanceRule = iota

	// advanceDown moves the origin down by the current height, stacking
	// levels in a column.
	advanceDown

	// advanceNone keeps a single fixed region.
	advanceNone
)

// bandPlan is one packing-table entry: a band's base rectangle at the
// reference resolution, its origin step rule, and its step count.
type bandPlan struct {
	kind    RegionKind
	base    Rect
	advance advanceRule
	steps   int
}

// atlasBands is the packing table for the 512-reference atlas. The mip
// pyramid starts as the full 2:1 top half and walks the descending
// diagonal; the reflection band stacks down the left edge of the bottom
// half; the ambient patch sits in the gap beside the second reflection
// level.
var atlasBands = [...]bandPlan{
	{kind: RegionMip, base: Rect{X: 0, Y: 0, W: 512, H: 256}, advance: advanceDiagonal,
		steps: levelCount(mipLargest) - levelCount(mipSmallest)},
	{kind: RegionReflection, base: Rect{X: 0, Y: 256, W: 256, H: 128}, advance: advanceDown,
		steps: ReflectionBands},
	{kind: RegionAmbient, base: Rect{X: 128, Y: 384, W: 64, H: 32}, advance: advanceNone,
		steps: 1},
}

// bandByKind returns the packing-table entry for a region kind.
func bandByKind(kind RegionKind) bandPlan {
	for _, b := range atlasBands {
		if b.kind == kind {
			return b
		}
	}
	return bandPlan{}
}

// levelCount returns the number of mip levels in a chain whose largest
// dimension is n: 1 + floor(log2(n)). Zero for non-positive n.
func levelCount(n int) int {
	if n <= 0 {
		return 0
	}
	return bits.Len(uint(n))
}

// atlasScale returns the linear scale factor from the reference
// resolution to an atlas of the given size.
func atlasScale(size int) float64 {
	return float64(size) / refAtlasSize
}

// walk invokes fn once per step with the step's pixel rectangle at the
// given atlas scale. After each step the origin advances by the current
// height per the band's rule, then both dimensions halve (floored,
// clamped to 1 pixel) so the walk always terminates with non-degenerate
// regions.
func (p bandPlan) walk(scale float64, steps int, fn func(step int, r Rect) error) error {
	r := p.base.Scaled(scale)
	for i := 0; i < steps; i++ {
		if err := fn(i, r); err != nil {
			return err
		}
		switch p.advance {
		case advanceDiagonal:
			r.X += r.H
			r.Y += r.H
		case advanceDown:
			r.Y += r.H
		case advanceNone:
		}
		r.W = math.Max(1, math.Floor(r.W/2))
		r.H = math.Max(1, math.Floor(r.H/2))
	}
	return nil
}

// stepRect returns the rectangle of a single step of the band walk, or a
// zero Rect for an out-of-range step.
func (p bandPlan) stepRect(scale float64, steps, step int) Rect {
	if step < 0 || step >= steps {
		return Rect{}
	}
	var out Rect
	_ = p.walk(scale, steps, func(i int, r Rect) error {
		if i == step {
			out = r
		}
		return nil
	})
	return out
}

// MipRegion returns the pixel rectangle of mip pyramid level (0-based)
// in a generated atlas of the given size. Shader addressing and the
// layout itself share this computation. Returns a zero Rect for an
// out-of-range level.
func MipRegion(level, size int) Rect {
	p := bandByKind(RegionMip)
	return p.stepRect(atlasScale(size), p.steps, level)
}

// ReflectionRegion returns the pixel rectangle of reflection band
// (0-based, 0..ReflectionBands-1) in an atlas of the given size. Returns
// a zero Rect for an out-of-range band.
func ReflectionRegion(band, size int) Rect {
	p := bandByKind(RegionReflection)
	return p.stepRect(atlasScale(size), p.steps, band)
}

// AmbientRegion returns the pixel rectangle of the ambient patch in an
// atlas of the given size.
func AmbientRegion(size int) Rect {
	return bandByKind(RegionAmbient).base.Scaled(atlasScale(size))
}

// ReflectionSpecularPower returns the specular power of reflection band
// (0-based). Powers fall geometrically: 512, 128, 32, 8, 2, 1.
func ReflectionSpecularPower(band int) float64 {
	shift := uint(2 * (band + 1))
	if shift >= 32 {
		return 1
	}
	p := 2048 >> shift
	if p < 1 {
		p = 1
	}
	return float64(p)
}
