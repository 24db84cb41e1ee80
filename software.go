// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package lightatlas

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/lightatlas/internal/fimage"
)

// SoftwareDevice creates CPU-backed textures. It is the reference
// Device implementation: deterministic, dependency-free, and fast
// enough for tests, tooling, and offline bakes.
type SoftwareDevice struct {
	caps DeviceCapabilities
}

// NewSoftwareDevice creates a software device reporting full
// capabilities: every format renderable, PCF supported, textures up
// to 8192.
func NewSoftwareDevice() *SoftwareDevice {
	return NewSoftwareDeviceWithCapabilities(DeviceCapabilities{
		MaxTextureSize:      8192,
		HalfFloatRenderable: true,
		FloatRenderable:     true,
		PCF:                 true,
	})
}

// NewSoftwareDeviceWithCapabilities creates a software device reporting
// the given capabilities, for exercising degraded-device paths.
func NewSoftwareDeviceWithCapabilities(caps DeviceCapabilities) *SoftwareDevice {
	return &SoftwareDevice{caps: caps}
}

// CreateTexture implements Device.
func (d *SoftwareDevice) CreateTexture(desc *TextureDescriptor) (Texture, error) {
	if desc == nil {
		return nil, &TextureConfigError{Field: "Descriptor", Reason: "must not be nil"}
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if d.caps.MaxTextureSize > 0 &&
		(desc.Width > d.caps.MaxTextureSize || desc.Height > d.caps.MaxTextureSize) {
		return nil, &TextureConfigError{Field: "Width", Reason: "exceeds device maximum texture size"}
	}

	n := 1
	if desc.Cubemap {
		n = 6
	}
	faces := make([]*fimage.Image, n)
	for i := range faces {
		img, err := fimage.New(desc.Width, desc.Height)
		if err != nil {
			return nil, fmt.Errorf("create texture %q: %w", desc.Label, err)
		}
		faces[i] = img
	}
	return &ImageTexture{desc: *desc, faces: faces}, nil
}

// Capabilities implements Device.
func (d *SoftwareDevice) Capabilities() DeviceCapabilities {
	return d.caps
}

var _ Device = (*SoftwareDevice)(nil)

// ImageTexture is a CPU-backed texture: one float32 RGBA plane for 2D
// textures, six planes in +X -X +Y -Y +Z -Z face order for cubemaps.
// Pixel storage is always linear float regardless of Format and
// Encoding; both are carried as metadata and honored on export (see
// Preview). Mip levels are not materialized; sampling reads the base
// level.
type ImageTexture struct {
	desc      TextureDescriptor
	faces     []*fimage.Image
	destroyed atomic.Bool
}

// Label implements Texture.
func (t *ImageTexture) Label() string { return t.desc.Label }

// Width implements Texture.
func (t *ImageTexture) Width() int { return t.desc.Width }

// Height implements Texture.
func (t *ImageTexture) Height() int { return t.desc.Height }

// Format implements Texture.
func (t *ImageTexture) Format() gputypes.TextureFormat { return t.desc.Format }

// Cubemap implements Texture.
func (t *ImageTexture) Cubemap() bool { return t.desc.Cubemap }

// Projection implements Texture.
func (t *ImageTexture) Projection() Projection { return t.desc.Projection }

// Mipmaps implements Texture.
func (t *ImageTexture) Mipmaps() bool { return t.desc.Mipmaps }

// Encoding implements Texture.
func (t *ImageTexture) Encoding() Encoding { return t.desc.Encoding }

// FaceCount returns 6 for cubemaps, 1 otherwise.
func (t *ImageTexture) FaceCount() int { return len(t.faces) }

// Face returns the pixel plane for one face (0 for 2D textures).
// Returns nil for an out-of-range face or a destroyed texture.
func (t *ImageTexture) Face(i int) *fimage.Image {
	if t.destroyed.Load() || i < 0 || i >= len(t.faces) {
		return nil
	}
	return t.faces[i]
}

// Mirror returns the texture itself, or nil if destroyed. A software
// texture is its own pixel mirror; pixel importers use this to treat
// software and GPU-backed textures uniformly.
func (t *ImageTexture) Mirror() *ImageTexture {
	if t.destroyed.Load() {
		return nil
	}
	return t
}

// Destroy implements Texture. Safe to call more than once.
func (t *ImageTexture) Destroy() {
	if t.destroyed.Swap(true) {
		return
	}
	t.faces = nil
}

// Destroyed reports whether Destroy has been called.
func (t *ImageTexture) Destroyed() bool { return t.destroyed.Load() }

var _ Texture = (*ImageTexture)(nil)

// SoftwareResampler implements the reprojection/prefilter kernel on the
// CPU. Destination texels map to world directions (cube face UV or
// region-local equirect UV with seam replication), source texels are
// read with bilinear filtering, and sample counts above one resolve
// through a deterministic Hammersley point set: sub-texel jitter for
// plain reprojection, importance sampling for GGX, Phong, and Lambert.
// Identical inputs produce identical pixels.
type SoftwareResampler struct{}

// NewSoftwareResampler creates a CPU resampler.
func NewSoftwareResampler() *SoftwareResampler {
	return &SoftwareResampler{}
}

// Resample implements Resampler.
func (r *SoftwareResampler) Resample(src, dst Texture, p *ResampleParams) error {
	const op = "software resample"

	source, ok := src.(*ImageTexture)
	if !ok {
		return &SourceFormatError{Op: op, Reason: "source is not a software texture"}
	}
	target, ok := dst.(*ImageTexture)
	if !ok {
		return &SourceFormatError{Op: op, Reason: "destination is not a software texture"}
	}
	if source.Destroyed() || target.Destroyed() {
		return fmt.Errorf("%s: %w", op, ErrTextureDestroyed)
	}

	params := ResampleParams{}
	if p != nil {
		params = *p
	}
	if params.SampleCount < 1 {
		params.SampleCount = 1
	}

	reader, err := newSourceReader(op, source)
	if err != nil {
		return err
	}

	if target.Cubemap() {
		if params.DestRect != nil {
			return fmt.Errorf("%s: dest rect is only valid for 2D destinations", op)
		}
		return resampleCube(reader, target, &params)
	}
	if target.Projection() != ProjectionEquirect {
		return &SourceFormatError{
			Op:     op,
			Reason: "2D destination must be equirect projected, got " + target.Projection().String(),
		}
	}
	return resampleEquirect(reader, target, &params)
}

var _ Resampler = (*SoftwareResampler)(nil)

func resampleCube(reader *sourceReader, target *ImageTexture, p *ResampleParams) error {
	w, h := target.Width(), target.Height()
	for face := 0; face < target.FaceCount(); face++ {
		img := target.Face(face)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dirAt := func(jx, jy float64) fimage.Vec3 {
					u := (float64(x) + jx) / float64(w)
					v := (float64(y) + jy) / float64(h)
					return fimage.CubeFaceDir(face, u, v)
				}
				cr, cg, cb, ca := resolveTexel(reader, dirAt, p)
				img.Set(x, y, cr, cg, cb, ca)
			}
		}
	}
	return nil
}

func resampleEquirect(reader *sourceReader, target *ImageTexture, p *ResampleParams) error {
	img := target.Face(0)
	tw, th := target.Width(), target.Height()

	x0, y0, rw, rh := 0, 0, tw, th
	if p.DestRect != nil {
		x0, y0 = int(p.DestRect.X), int(p.DestRect.Y)
		rw, rh = int(p.DestRect.W), int(p.DestRect.H)
		if x0 < 0 {
			rw += x0
			x0 = 0
		}
		if y0 < 0 {
			rh += y0
			y0 = 0
		}
		if x0+rw > tw {
			rw = tw - x0
		}
		if y0+rh > th {
			rh = th - y0
		}
		if rw <= 0 || rh <= 0 {
			return nil
		}
	}

	seam := p.SeamPixels
	fw, fh := float64(rw), float64(rh)
	for y := 0; y < rh; y++ {
		for x := 0; x < rw; x++ {
			dirAt := func(jx, jy float64) fimage.Vec3 {
				u := seamRemap(float64(x)+jx, fw, seam)
				v := seamRemap(float64(y)+jy, fh, seam)
				return fimage.EquirectDir(u, v)
			}
			cr, cg, cb, ca := resolveTexel(reader, dirAt, p)
			img.Set(x0+x, y0+y, cr, cg, cb, ca)
		}
	}
	return nil
}

// seamRemap maps a region-local pixel position to UV so the outermost
// seam pixels replicate the region edge. Bilinear taps that cross a
// region border in the packed atlas then read duplicated edge color
// instead of the neighbor region.
func seamRemap(p, extent, seam float64) float64 {
	if seam <= 0 || extent <= 2*seam {
		return clamp01(p / extent)
	}
	return clamp01((p - seam) / (extent - 2*seam))
}

// resolveTexel computes one destination texel. dirAt maps a sub-texel
// offset in [0,1)^2 to the texel's world direction.
func resolveTexel(reader *sourceReader, dirAt func(jx, jy float64) fimage.Vec3, p *ResampleParams) (r, g, b, a float32) {
	if p.SampleCount <= 1 {
		return reader.sample(dirAt(0.5, 0.5))
	}
	if p.Distribution == DistributionNone {
		return supersample(reader, dirAt, p.SampleCount)
	}
	return convolve(reader, dirAt(0.5, 0.5), p)
}

// supersample averages jittered taps across the texel footprint.
func supersample(reader *sourceReader, dirAt func(jx, jy float64) fimage.Vec3, count int) (r, g, b, a float32) {
	var cr, cg, cb, ca float64
	for i := 0; i < count; i++ {
		jx, jy := fimage.Hammersley(i, count)
		sr, sg, sb, sa := reader.sample(dirAt(jx, jy))
		cr += float64(sr)
		cg += float64(sg)
		cb += float64(sb)
		ca += float64(sa)
	}
	inv := 1 / float64(count)
	return float32(cr * inv), float32(cg * inv), float32(cb * inv), float32(ca * inv)
}

// convolve integrates incoming radiance around the texel direction with
// the configured distribution.
func convolve(reader *sourceReader, n fimage.Vec3, p *ResampleParams) (r, g, b, a float32) {
	count := p.SampleCount

	switch p.Distribution {
	case DistributionLambert:
		// Cosine-weighted samples carry the cosine in the pdf, so the
		// integral reduces to a plain average.
		var cr, cg, cb, ca float64
		for i := 0; i < count; i++ {
			u1, u2 := fimage.Hammersley(i, count)
			l := fimage.WorldDir(fimage.SampleLambert(u1, u2), n)
			sr, sg, sb, sa := reader.sample(l)
			cr += float64(sr)
			cg += float64(sg)
			cb += float64(sb)
			ca += float64(sa)
		}
		inv := 1 / float64(count)
		return float32(cr * inv), float32(cg * inv), float32(cb * inv), float32(ca * inv)

	case DistributionPhong:
		power := p.SpecularPower
		if power < 1 {
			power = 1
		}
		var cr, cg, cb, ca float64
		for i := 0; i < count; i++ {
			u1, u2 := fimage.Hammersley(i, count)
			l := fimage.WorldDir(fimage.SamplePhong(u1, u2, power), n)
			sr, sg, sb, sa := reader.sample(l)
			cr += float64(sr)
			cg += float64(sg)
			cb += float64(sb)
			ca += float64(sa)
		}
		inv := 1 / float64(count)
		return float32(cr * inv), float32(cg * inv), float32(cb * inv), float32(ca * inv)

	default:
		// GGX split-sum with N = V = R: sample half vectors, reflect,
		// weight by N.L.
		alpha := fimage.AlphaFromSpecularPower(p.SpecularPower)
		var cr, cg, cb, ca, wsum float64
		for i := 0; i < count; i++ {
			u1, u2 := fimage.Hammersley(i, count)
			hv := fimage.WorldDir(fimage.SampleGGX(u1, u2, alpha), n)
			l := hv.Scale(2 * n.Dot(hv)).Add(n.Scale(-1))
			w := n.Dot(l)
			if w <= 0 {
				continue
			}
			sr, sg, sb, sa := reader.sample(l)
			cr += float64(sr) * w
			cg += float64(sg) * w
			cb += float64(sb) * w
			ca += float64(sa) * w
			wsum += w
		}
		if wsum <= 0 {
			return reader.sample(n)
		}
		inv := 1 / wsum
		return float32(cr * inv), float32(cg * inv), float32(cb * inv), float32(ca * inv)
	}
}

// sourceReader reads a software texture by world direction.
type sourceReader struct {
	cube  bool
	faces []*fimage.Image
}

func newSourceReader(op string, t *ImageTexture) (*sourceReader, error) {
	if t.Cubemap() {
		faces := make([]*fimage.Image, t.FaceCount())
		for i := range faces {
			faces[i] = t.Face(i)
		}
		return &sourceReader{cube: true, faces: faces}, nil
	}
	if t.Projection() != ProjectionEquirect {
		return nil, &SourceFormatError{
			Op:     op,
			Reason: "2D source must be equirect projected, got " + t.Projection().String(),
		}
	}
	return &sourceReader{faces: []*fimage.Image{t.Face(0)}}, nil
}

func (r *sourceReader) sample(dir fimage.Vec3) (float32, float32, float32, float32) {
	if r.cube {
		face, u, v := fimage.DirCubeFace(dir)
		return r.faces[face].SampleBilinear(u, v)
	}
	u, v := fimage.EquirectUV(dir)
	return r.faces[0].SampleBilinear(u, v)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
