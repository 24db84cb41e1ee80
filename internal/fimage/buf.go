// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package fimage provides float32 RGBA image buffers and the spherical
// sampling math used by the CPU lighting resampler.
package fimage

import (
	"errors"
	"math"
)

// Common errors for float image operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("fimage: invalid dimensions")
)

// Image is a linear-light RGBA image with float32 channels.
//
// Pixel data is stored row-major, 4 floats per pixel, without padding.
// Unlike 8-bit buffers there is no premultiplication state: lighting data
// is always straight-alpha linear radiance.
//
// Thread safety: Image is safe for concurrent read access. Writes require
// external synchronization.
type Image struct {
	pix    []float32
	width  int
	height int
}

// New creates a float image with the given dimensions, cleared to zero.
// Returns an error if dimensions are invalid.
func New(width, height int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	return &Image{
		pix:    make([]float32, width*height*4),
		width:  width,
		height: height,
	}, nil
}

// Width returns the image width in pixels.
func (m *Image) Width() int {
	return m.width
}

// Height returns the image height in pixels.
func (m *Image) Height() int {
	return m.height
}

// Bounds returns the image dimensions as (width, height).
func (m *Image) Bounds() (int, int) {
	return m.width, m.height
}

// Pix returns the raw channel data slice (RGBA, row-major).
func (m *Image) Pix() []float32 {
	return m.pix
}

// Clone creates a deep copy of the image.
func (m *Image) Clone() *Image {
	pix := make([]float32, len(m.pix))
	copy(pix, m.pix)
	return &Image{pix: pix, width: m.width, height: m.height}
}

// Clear sets all channels to zero.
func (m *Image) Clear() {
	clear(m.pix)
}

// Fill sets every pixel to the given color.
func (m *Image) Fill(r, g, b, a float32) {
	for i := 0; i < len(m.pix); i += 4 {
		m.pix[i] = r
		m.pix[i+1] = g
		m.pix[i+2] = b
		m.pix[i+3] = a
	}
}

// At returns the color at (x, y). Coordinates are clamped to the edge.
func (m *Image) At(x, y int) (r, g, b, a float32) {
	x = clampInt(x, 0, m.width-1)
	y = clampInt(y, 0, m.height-1)
	i := (y*m.width + x) * 4
	return m.pix[i], m.pix[i+1], m.pix[i+2], m.pix[i+3]
}

// Set stores the color at (x, y). Out-of-bounds coordinates are ignored.
func (m *Image) Set(x, y int, r, g, b, a float32) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return
	}
	i := (y*m.width + x) * 4
	m.pix[i] = r
	m.pix[i+1] = g
	m.pix[i+2] = b
	m.pix[i+3] = a
}

// SampleBilinear samples the image at normalized coordinates (u, v) with
// bilinear filtering. (0,0) is top-left, (1,1) bottom-right; out-of-range
// coordinates clamp to the edge.
func (m *Image) SampleBilinear(u, v float64) (r, g, b, a float32) {
	// Convert normalized coords to continuous pixel coords
	fx := u*float64(m.width) - 0.5
	fy := v*float64(m.height) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := float32(fx - float64(x0))
	ty := float32(fy - float64(y0))

	x1 := x0 + 1
	y1 := y0 + 1

	r00, g00, b00, a00 := m.At(x0, y0)
	r10, g10, b10, a10 := m.At(x1, y0)
	r01, g01, b01, a01 := m.At(x0, y1)
	r11, g11, b11, a11 := m.At(x1, y1)

	r = lerp2D(r00, r10, r01, r11, tx, ty)
	g = lerp2D(g00, g10, g01, g11, tx, ty)
	b = lerp2D(b00, b10, b01, b11, tx, ty)
	a = lerp2D(a00, a10, a01, a11, tx, ty)
	return r, g, b, a
}

// SampleNearest samples the image at normalized coordinates (u, v) without
// filtering.
func (m *Image) SampleNearest(u, v float64) (r, g, b, a float32) {
	x := int(math.Floor(u * float64(m.width)))
	y := int(math.Floor(v * float64(m.height)))
	return m.At(x, y)
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

func lerp(a, b, t float32) float32 {
	return a*(1-t) + b*t
}

// lerp2D performs bilinear interpolation on a 2x2 grid.
func lerp2D(v00, v10, v01, v11, tx, ty float32) float32 {
	return lerp(lerp(v00, v10, tx), lerp(v01, v11, tx), ty)
}
