package fimage

import "math"

// RGBMRange is the HDR range covered by the RGBM encoding: decoded
// channel values span [0, RGBMRange].
const RGBMRange = 8.0

// EncodeRGBM packs linear HDR color into 8-bit RGBM. The shared
// multiplier is stored in the alpha channel.
func EncodeRGBM(r, g, b float32) (er, eg, eb, em uint8) {
	maxC := math.Max(float64(r), math.Max(float64(g), float64(b))) / RGBMRange
	if maxC > 1 {
		maxC = 1
	}
	// Quantize the multiplier up so channels never clip
	m := math.Ceil(maxC*255) / 255
	if m <= 0 {
		return 0, 0, 0, 0
	}
	scale := 1 / (m * RGBMRange)
	er = quantize(float64(r) * scale)
	eg = quantize(float64(g) * scale)
	eb = quantize(float64(b) * scale)
	em = quantize(m)
	return er, eg, eb, em
}

// DecodeRGBM unpacks 8-bit RGBM into linear HDR color.
func DecodeRGBM(r, g, b, m uint8) (dr, dg, db float32) {
	scale := float32(m) / 255 * RGBMRange
	dr = float32(r) / 255 * scale
	dg = float32(g) / 255 * scale
	db = float32(b) / 255 * scale
	return dr, dg, db
}

// Tonemap maps linear radiance to a display byte with a Reinhard curve,
// keeping HDR previews from clipping to white.
func Tonemap(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	x := float64(v)
	return quantize(x / (1 + x))
}

func quantize(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
