package lightatlas

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/lightatlas/internal/fimage"
)

// Preview exports a software texture as an 8-bit RGBA image for
// inspection. Linear float pixels are Reinhard-tonemapped to 8 bit;
// textures carrying EncodingRGBM export their RGBM-encoded bytes
// instead, matching what the GPU texture would hold. Cubemaps export as
// a horizontal six-face strip in +X -X +Y -Y +Z -Z order. When either
// output dimension exceeds maxDim the image is downscaled with
// Catmull-Rom resampling; maxDim <= 0 disables scaling.
//
// Preview reads the texture without modifying it. Returns nil for a nil
// or destroyed texture.
func Preview(t *ImageTexture, maxDim int) *image.RGBA {
	if t == nil || t.Destroyed() {
		return nil
	}

	fw, fh := t.Width(), t.Height()
	faces := t.FaceCount()
	out := image.NewRGBA(image.Rect(0, 0, fw*faces, fh))

	rgbm := t.Encoding() == EncodingRGBM
	for face := 0; face < faces; face++ {
		img := t.Face(face)
		xoff := face * fw
		for y := 0; y < fh; y++ {
			for x := 0; x < fw; x++ {
				r, g, b, a := img.At(x, y)
				var c color.RGBA
				if rgbm {
					er, eg, eb, em := fimage.EncodeRGBM(r, g, b)
					c = color.RGBA{R: er, G: eg, B: eb, A: em}
				} else {
					c = color.RGBA{
						R: fimage.Tonemap(r),
						G: fimage.Tonemap(g),
						B: fimage.Tonemap(b),
						A: uint8(clamp01(float64(a)) * 255),
					}
				}
				out.SetRGBA(xoff+x, y, c)
			}
		}
	}

	if maxDim <= 0 {
		return out
	}
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	if w <= maxDim && h <= maxDim {
		return out
	}

	scale := float64(maxDim) / float64(w)
	if sh := float64(maxDim) / float64(h); sh < scale {
		scale = sh
	}
	sw := max(1, int(float64(w)*scale))
	sh := max(1, int(float64(h)*scale))

	scaled := image.NewRGBA(image.Rect(0, 0, sw, sh))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), out, out.Bounds(), xdraw.Src, nil)
	return scaled
}

// Layout region colors. Steps within a band darken progressively.
var (
	layoutBackground = color.RGBA{R: 24, G: 24, B: 28, A: 255}
	layoutMip        = color.RGBA{R: 70, G: 130, B: 220, A: 255}
	layoutReflection = color.RGBA{R: 80, G: 200, B: 120, A: 255}
	layoutAmbient    = color.RGBA{R: 230, G: 160, B: 60, A: 255}
)

// LayoutImage renders the environment atlas packing plan at the given
// size as a color-coded region map: mip pyramid levels in blue,
// reflection bands in green, the ambient patch in orange, each band
// step a darker shade. A size <= 0 uses DefaultAtlasSize. Intended for
// layout debugging and documentation.
func LayoutImage(size int) *image.RGBA {
	if size <= 0 {
		size = DefaultAtlasSize
	}

	out := image.NewRGBA(image.Rect(0, 0, size, size))
	fillRect(out, Rect{W: float64(size), H: float64(size)}, layoutBackground)

	s := atlasScale(size)

	mip := bandByKind(RegionMip)
	_ = mip.walk(s, mip.steps, func(step int, r Rect) error {
		fillRect(out, r, bandShade(layoutMip, step))
		return nil
	})

	refl := bandByKind(RegionReflection)
	_ = refl.walk(s, refl.steps, func(step int, r Rect) error {
		fillRect(out, r, bandShade(layoutReflection, step))
		return nil
	})

	fillRect(out, AmbientRegion(size), layoutAmbient)
	return out
}

// bandShade darkens a band color by 10% per step, floored at 30%.
func bandShade(c color.RGBA, step int) color.RGBA {
	f := 1 - 0.1*float64(step)
	if f < 0.3 {
		f = 0.3
	}
	return color.RGBA{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
		A: 255,
	}
}

func fillRect(img *image.RGBA, r Rect, c color.RGBA) {
	b := img.Bounds()
	x0 := clampInt(int(r.X), b.Min.X, b.Max.X)
	y0 := clampInt(int(r.Y), b.Min.Y, b.Max.Y)
	x1 := clampInt(int(r.X+r.W), b.Min.X, b.Max.X)
	y1 := clampInt(int(r.Y+r.H), b.Min.Y, b.Max.Y)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
