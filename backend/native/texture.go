package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	types "github.com/gogpu/gputypes"
	"github.com/gogpu/lightatlas"
	"github.com/gogpu/lightatlas/internal/fimage"
	"github.com/gogpu/wgpu/hal"
	"github.com/mrjoshuak/go-openexr/half"
)

// Texture is a GPU texture with an optional CPU pixel mirror.
//
// The mirror is a software texture holding linear float pixels. The
// resample kernel reads and writes mirrors, then Upload pushes the
// result into the GPU texture through the queue in the texture's wire
// format. Depth textures carry no mirror; shadow rasterization passes
// write them directly and the resampler never touches them.
type Texture struct {
	mu sync.RWMutex

	device hal.Device
	queue  hal.Queue
	halTex hal.Texture

	desc lightatlas.TextureDescriptor
	mips uint32

	// mirror is nil for depth formats.
	mirror *lightatlas.ImageTexture

	// Lazily created full-texture view.
	defaultViewOnce sync.Once
	defaultView     hal.TextureView
	defaultViewErr  error

	destroyed bool
}

var _ lightatlas.Texture = (*Texture)(nil)

// newTexture wraps a freshly created HAL texture. Color formats get a
// CPU mirror sized like the GPU texture; on mirror failure the HAL
// texture is released before returning.
func newTexture(d *Device, halTex hal.Texture, desc *lightatlas.TextureDescriptor, mips uint32) (*Texture, error) {
	t := &Texture{
		device: d.device,
		queue:  d.queue,
		halTex: halTex,
		desc:   *desc,
		mips:   mips,
	}

	if desc.Format != gputypes.TextureFormatDepth32Float {
		mirrorDev := lightatlas.NewSoftwareDeviceWithCapabilities(d.caps)
		mtex, err := mirrorDev.CreateTexture(desc)
		if err != nil {
			d.device.DestroyTexture(halTex)
			return nil, fmt.Errorf("create texture mirror %q: %w", desc.Label, err)
		}
		t.mirror = mtex.(*lightatlas.ImageTexture)
	}
	return t, nil
}

// Label implements lightatlas.Texture.
func (t *Texture) Label() string { return t.desc.Label }

// Width implements lightatlas.Texture.
func (t *Texture) Width() int { return t.desc.Width }

// Height implements lightatlas.Texture.
func (t *Texture) Height() int { return t.desc.Height }

// Format implements lightatlas.Texture.
func (t *Texture) Format() gputypes.TextureFormat { return t.desc.Format }

// Cubemap implements lightatlas.Texture.
func (t *Texture) Cubemap() bool { return t.desc.Cubemap }

// Projection implements lightatlas.Texture.
func (t *Texture) Projection() lightatlas.Projection { return t.desc.Projection }

// Mipmaps implements lightatlas.Texture.
func (t *Texture) Mipmaps() bool { return t.desc.Mipmaps }

// Encoding implements lightatlas.Texture.
func (t *Texture) Encoding() lightatlas.Encoding { return t.desc.Encoding }

// MipLevelCount returns the number of mip levels allocated on the GPU
// texture.
func (t *Texture) MipLevelCount() uint32 { return t.mips }

// Raw returns the underlying HAL texture, or nil if destroyed.
func (t *Texture) Raw() hal.Texture {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.destroyed {
		return nil
	}
	return t.halTex
}

// Mirror returns the CPU pixel mirror. It is nil for depth textures and
// for destroyed textures.
func (t *Texture) Mirror() *lightatlas.ImageTexture {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.destroyed {
		return nil
	}
	return t.mirror
}

// IsDestroyed reports whether Destroy has been called.
func (t *Texture) IsDestroyed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.destroyed
}

// GetDefaultView returns a lazily created view covering the whole
// texture. The view is owned by the texture and released by Destroy.
func (t *Texture) GetDefaultView() (hal.TextureView, error) {
	t.defaultViewOnce.Do(func() {
		t.mu.RLock()
		device := t.device
		halTex := t.halTex
		destroyed := t.destroyed
		t.mu.RUnlock()

		if destroyed {
			t.defaultViewErr = ErrTextureDestroyed
			return
		}

		// Zero values inherit format, dimension, and extent from the
		// texture.
		view, err := device.CreateTextureView(halTex, &hal.TextureViewDescriptor{
			Label:           t.desc.Label + " (default view)",
			Format:          types.TextureFormatUndefined,
			Dimension:       types.TextureViewDimensionUndefined,
			Aspect:          types.TextureAspectAll,
			BaseMipLevel:    0,
			MipLevelCount:   0, // 0 means all remaining levels
			BaseArrayLayer:  0,
			ArrayLayerCount: 0, // 0 means all remaining layers
		})
		if err != nil {
			t.defaultViewErr = fmt.Errorf("create default view for %q: %w", t.desc.Label, err)
			return
		}

		t.mu.Lock()
		if t.destroyed {
			t.mu.Unlock()
			device.DestroyTextureView(view)
			t.defaultViewErr = ErrTextureDestroyed
			return
		}
		t.defaultView = view
		t.mu.Unlock()
	})

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.defaultViewErr != nil {
		return nil, t.defaultViewErr
	}
	if t.destroyed {
		return nil, ErrTextureDestroyed
	}
	return t.defaultView, nil
}

// Upload pushes the CPU mirror into the GPU texture in the texture's
// wire format. Only mip level zero is written; lighting shaders sample
// prefiltered content from atlas bands rather than hardware mips.
//
// Callers that write pixels into Mirror directly (environment map
// import, debug fills) use this to make the GPU side match. The
// resampler calls it after every kernel pass.
func (t *Texture) Upload() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.destroyed {
		return ErrTextureDestroyed
	}
	if t.mirror == nil {
		return nil
	}

	w, h := t.desc.Width, t.desc.Height
	for face := 0; face < t.mirror.FaceCount(); face++ {
		img := t.mirror.Face(face)
		if img == nil {
			return ErrTextureDestroyed
		}
		data, bytesPerRow, err := encodeFace(img, t.desc.Format, t.desc.Encoding)
		if err != nil {
			return fmt.Errorf("upload texture %q: %w", t.desc.Label, err)
		}

		t.queue.WriteTexture(
			&hal.ImageCopyTexture{
				Texture:  t.halTex,
				MipLevel: 0,
				Origin:   hal.Origin3D{X: 0, Y: 0, Z: uint32(face)},
				Aspect:   types.TextureAspectAll,
			},
			data,
			&hal.ImageDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(bytesPerRow),
				RowsPerImage: uint32(h),
			},
			&hal.Extent3D{
				Width:              uint32(w),
				Height:             uint32(h),
				DepthOrArrayLayers: 1,
			},
		)
	}
	return nil
}

// Destroy implements lightatlas.Texture. Safe to call more than once.
func (t *Texture) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return
	}
	t.destroyed = true

	if t.defaultView != nil {
		t.device.DestroyTextureView(t.defaultView)
		t.defaultView = nil
	}
	if t.halTex != nil {
		t.device.DestroyTexture(t.halTex)
		t.halTex = nil
	}
	if t.mirror != nil {
		t.mirror.Destroy()
		t.mirror = nil
	}
}

// encodeFace serializes one mirror face into the texture's wire format.
// Returns the pixel data and its bytes per row.
func encodeFace(img *fimage.Image, format gputypes.TextureFormat, encoding lightatlas.Encoding) ([]byte, int, error) {
	w, h := img.Bounds()

	switch format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb:
		data := make([]byte, w*h*4)
		i := 0
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, b, a := img.At(x, y)
				if encoding == lightatlas.EncodingRGBM {
					data[i], data[i+1], data[i+2], data[i+3] = fimage.EncodeRGBM(r, g, b)
				} else {
					data[i] = quantizeByte(r)
					data[i+1] = quantizeByte(g)
					data[i+2] = quantizeByte(b)
					data[i+3] = quantizeByte(a)
				}
				i += 4
			}
		}
		return data, w * 4, nil

	case gputypes.TextureFormatBGRA8Unorm:
		data := make([]byte, w*h*4)
		i := 0
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, b, a := img.At(x, y)
				data[i] = quantizeByte(b)
				data[i+1] = quantizeByte(g)
				data[i+2] = quantizeByte(r)
				data[i+3] = quantizeByte(a)
				i += 4
			}
		}
		return data, w * 4, nil

	case gputypes.TextureFormatRGBA16Float:
		data := make([]byte, w*h*8)
		i := 0
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, b, a := img.At(x, y)
				writeUint16(data, i, half.FromFloat32(r).Bits())
				writeUint16(data, i+2, half.FromFloat32(g).Bits())
				writeUint16(data, i+4, half.FromFloat32(b).Bits())
				writeUint16(data, i+6, half.FromFloat32(a).Bits())
				i += 8
			}
		}
		return data, w * 8, nil

	case gputypes.TextureFormatRGBA32Float:
		data := make([]byte, w*h*16)
		i := 0
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, b, a := img.At(x, y)
				writeFloat32(data, i, r)
				writeFloat32(data, i+4, g)
				writeFloat32(data, i+8, b)
				writeFloat32(data, i+12, a)
				i += 16
			}
		}
		return data, w * 16, nil

	case gputypes.TextureFormatR8Unorm:
		data := make([]byte, w*h)
		i := 0
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, _, _, _ := img.At(x, y)
				data[i] = quantizeByte(r)
				i++
			}
		}
		return data, w, nil

	case gputypes.TextureFormatR32Float:
		data := make([]byte, w*h*4)
		i := 0
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, _, _, _ := img.At(x, y)
				writeFloat32(data, i, r)
				i += 4
			}
		}
		return data, w * 4, nil

	default:
		return nil, 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
}

func quantizeByte(v float32) byte {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(v*255 + 0.5)
}

func writeUint16(buf []byte, offset int, val uint16) {
	buf[offset] = byte(val)
	buf[offset+1] = byte(val >> 8)
}
