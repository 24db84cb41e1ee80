package native

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/lightatlas"
	"github.com/gogpu/lightatlas/internal/fimage"
	"github.com/mrjoshuak/go-openexr/half"
)

func newTestTexture(t *testing.T, desc *lightatlas.TextureDescriptor) (*Texture, *mockHALDevice) {
	t.Helper()
	dev, mock := newMockDevice(t)
	tex, err := dev.CreateTexture(desc)
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}
	return tex.(*Texture), mock
}

func TestTextureMetadata(t *testing.T) {
	tex, _ := newTestTexture(t, &lightatlas.TextureDescriptor{
		Label:      "env",
		Width:      128,
		Height:     64,
		Format:     gputypes.TextureFormatRGBA16Float,
		Projection: lightatlas.ProjectionEquirect,
		Encoding:   lightatlas.EncodingLinear,
	})

	if tex.Label() != "env" {
		t.Errorf("Label = %q, want env", tex.Label())
	}
	if tex.Width() != 128 || tex.Height() != 64 {
		t.Errorf("size = %dx%d, want 128x64", tex.Width(), tex.Height())
	}
	if tex.Format() != gputypes.TextureFormatRGBA16Float {
		t.Errorf("Format = %v, want RGBA16Float", tex.Format())
	}
	if tex.Cubemap() {
		t.Error("Cubemap = true, want false")
	}
	if tex.Projection() != lightatlas.ProjectionEquirect {
		t.Errorf("Projection = %v, want equirect", tex.Projection())
	}
	if tex.Encoding() != lightatlas.EncodingLinear {
		t.Errorf("Encoding = %v, want linear", tex.Encoding())
	}
	if tex.Raw() == nil {
		t.Error("Raw() = nil for a live texture")
	}
	if tex.IsDestroyed() {
		t.Error("IsDestroyed = true, want false")
	}
}

func TestTextureGetDefaultView(t *testing.T) {
	tex, mock := newTestTexture(t, &lightatlas.TextureDescriptor{
		Label:  "atlas",
		Width:  64,
		Height: 64,
		Format: gputypes.TextureFormatRGBA8Unorm,
	})

	view1, err := tex.GetDefaultView()
	if err != nil {
		t.Fatalf("GetDefaultView failed: %v", err)
	}
	if view1 == nil {
		t.Fatal("GetDefaultView returned nil view")
	}
	if mock.textureViewsCreated != 1 {
		t.Errorf("textureViewsCreated = %d, want 1", mock.textureViewsCreated)
	}
	if got := mock.lastViewDesc.Label; got != "atlas (default view)" {
		t.Errorf("view label = %q, want %q", got, "atlas (default view)")
	}

	// Second call returns the same view without creating another.
	view2, err := tex.GetDefaultView()
	if err != nil {
		t.Fatalf("GetDefaultView (second call) failed: %v", err)
	}
	if view2 != view1 {
		t.Error("GetDefaultView returned a different view on second call")
	}
	if mock.textureViewsCreated != 1 {
		t.Errorf("textureViewsCreated = %d, want 1 (should not create again)", mock.textureViewsCreated)
	}
}

func TestTextureGetDefaultViewConcurrent(t *testing.T) {
	tex, mock := newTestTexture(t, &lightatlas.TextureDescriptor{
		Label:  "concurrent",
		Width:  32,
		Height: 32,
		Format: gputypes.TextureFormatRGBA8Unorm,
	})

	const numGoroutines = 10
	var wg sync.WaitGroup
	views := make([]any, numGoroutines)
	errs := make([]error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			views[idx], errs[idx] = tex.GetDefaultView()
		}(i)
	}
	wg.Wait()

	for i := 0; i < numGoroutines; i++ {
		if errs[i] != nil {
			t.Errorf("goroutine %d: GetDefaultView failed: %v", i, errs[i])
		}
		if views[i] != views[0] {
			t.Errorf("goroutine %d: got different view than goroutine 0", i)
		}
	}
	if mock.textureViewsCreated != 1 {
		t.Errorf("textureViewsCreated = %d, want 1", mock.textureViewsCreated)
	}
}

func TestTextureGetDefaultViewDestroyed(t *testing.T) {
	tex, _ := newTestTexture(t, &lightatlas.TextureDescriptor{
		Label:  "gone",
		Width:  32,
		Height: 32,
		Format: gputypes.TextureFormatRGBA8Unorm,
	})
	tex.Destroy()

	if _, err := tex.GetDefaultView(); !errors.Is(err, ErrTextureDestroyed) {
		t.Errorf("GetDefaultView after Destroy = %v, want ErrTextureDestroyed", err)
	}
}

func TestTextureDestroy(t *testing.T) {
	tex, mock := newTestTexture(t, &lightatlas.TextureDescriptor{
		Label:  "victim",
		Width:  32,
		Height: 32,
		Format: gputypes.TextureFormatRGBA8Unorm,
	})
	if _, err := tex.GetDefaultView(); err != nil {
		t.Fatalf("GetDefaultView failed: %v", err)
	}

	tex.Destroy()
	tex.Destroy() // Idempotent.

	if !tex.IsDestroyed() {
		t.Error("IsDestroyed = false after Destroy")
	}
	if tex.Raw() != nil {
		t.Error("Raw() should return nil after Destroy")
	}
	if tex.Mirror() != nil {
		t.Error("Mirror() should return nil after Destroy")
	}
	if mock.texturesDestroyed != 1 {
		t.Errorf("texturesDestroyed = %d, want 1", mock.texturesDestroyed)
	}
	if mock.viewsDestroyed != 1 {
		t.Errorf("viewsDestroyed = %d, want 1", mock.viewsDestroyed)
	}
}

func TestTextureUpload(t *testing.T) {
	t.Run("destroyed", func(t *testing.T) {
		tex, _ := newTestTexture(t, &lightatlas.TextureDescriptor{
			Label:  "late",
			Width:  16,
			Height: 16,
			Format: gputypes.TextureFormatRGBA8Unorm,
		})
		tex.Destroy()
		if err := tex.Upload(); !errors.Is(err, ErrTextureDestroyed) {
			t.Errorf("Upload after Destroy = %v, want ErrTextureDestroyed", err)
		}
	})

	t.Run("depth no-op", func(t *testing.T) {
		tex, _ := newTestTexture(t, &lightatlas.TextureDescriptor{
			Label:  "shadow",
			Width:  16,
			Height: 16,
			Format: gputypes.TextureFormatDepth32Float,
		})
		if err := tex.Upload(); err != nil {
			t.Errorf("Upload on mirrorless texture = %v, want nil", err)
		}
	})
}

// =============================================================================
// Wire-format encoding
// =============================================================================

func testFace(t *testing.T, w, h int) *fimage.Image {
	t.Helper()
	img, err := fimage.New(w, h)
	if err != nil {
		t.Fatalf("fimage.New failed: %v", err)
	}
	return img
}

func TestEncodeFace(t *testing.T) {
	t.Run("rgba8 linear", func(t *testing.T) {
		img := testFace(t, 2, 1)
		img.Set(0, 0, 0, 0.5, 1, 1)
		img.Set(1, 0, 2, -1, 0.25, 0)

		data, bytesPerRow, err := encodeFace(img, gputypes.TextureFormatRGBA8Unorm, lightatlas.EncodingLinear)
		if err != nil {
			t.Fatalf("encodeFace failed: %v", err)
		}
		if bytesPerRow != 8 {
			t.Errorf("bytesPerRow = %d, want 8", bytesPerRow)
		}
		want := []byte{0, 128, 255, 255, 255, 0, 64, 0}
		for i, b := range want {
			if data[i] != b {
				t.Errorf("data[%d] = %d, want %d", i, data[i], b)
			}
		}
	})

	t.Run("rgba8 rgbm", func(t *testing.T) {
		img := testFace(t, 1, 1)
		img.Set(0, 0, 2, 1, 0.5, 1)

		data, _, err := encodeFace(img, gputypes.TextureFormatRGBA8Unorm, lightatlas.EncodingRGBM)
		if err != nil {
			t.Fatalf("encodeFace failed: %v", err)
		}
		er, eg, eb, em := fimage.EncodeRGBM(2, 1, 0.5)
		if data[0] != er || data[1] != eg || data[2] != eb || data[3] != em {
			t.Errorf("rgbm bytes = %v, want [%d %d %d %d]", data[:4], er, eg, eb, em)
		}
	})

	t.Run("bgra8 swaps channels", func(t *testing.T) {
		img := testFace(t, 1, 1)
		img.Set(0, 0, 1, 0.5, 0, 1)

		data, _, err := encodeFace(img, gputypes.TextureFormatBGRA8Unorm, lightatlas.EncodingLinear)
		if err != nil {
			t.Fatalf("encodeFace failed: %v", err)
		}
		if data[0] != 0 || data[1] != 128 || data[2] != 255 || data[3] != 255 {
			t.Errorf("bgra bytes = %v, want [0 128 255 255]", data[:4])
		}
	})

	t.Run("rgba16 float half bits", func(t *testing.T) {
		img := testFace(t, 1, 1)
		img.Set(0, 0, 1.5, 0.25, 100, 1)

		data, bytesPerRow, err := encodeFace(img, gputypes.TextureFormatRGBA16Float, lightatlas.EncodingLinear)
		if err != nil {
			t.Fatalf("encodeFace failed: %v", err)
		}
		if bytesPerRow != 8 {
			t.Errorf("bytesPerRow = %d, want 8", bytesPerRow)
		}
		for i, v := range []float32{1.5, 0.25, 100, 1} {
			got := binary.LittleEndian.Uint16(data[i*2:])
			if want := half.FromFloat32(v).Bits(); got != want {
				t.Errorf("channel %d = %#x, want %#x", i, got, want)
			}
		}
	})

	t.Run("rgba32 float", func(t *testing.T) {
		img := testFace(t, 1, 1)
		img.Set(0, 0, 3.5, -1, 0, 1)

		data, bytesPerRow, err := encodeFace(img, gputypes.TextureFormatRGBA32Float, lightatlas.EncodingLinear)
		if err != nil {
			t.Fatalf("encodeFace failed: %v", err)
		}
		if bytesPerRow != 16 {
			t.Errorf("bytesPerRow = %d, want 16", bytesPerRow)
		}
		for i, v := range []float32{3.5, -1, 0, 1} {
			got := math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
			if got != v {
				t.Errorf("channel %d = %v, want %v", i, got, v)
			}
		}
	})

	t.Run("r8 single channel", func(t *testing.T) {
		img := testFace(t, 2, 1)
		img.Set(0, 0, 0.5, 9, 9, 9)
		img.Set(1, 0, 1, 9, 9, 9)

		data, bytesPerRow, err := encodeFace(img, gputypes.TextureFormatR8Unorm, lightatlas.EncodingLinear)
		if err != nil {
			t.Fatalf("encodeFace failed: %v", err)
		}
		if bytesPerRow != 2 {
			t.Errorf("bytesPerRow = %d, want 2", bytesPerRow)
		}
		if data[0] != 128 || data[1] != 255 {
			t.Errorf("r8 bytes = %v, want [128 255]", data)
		}
	})

	t.Run("r32 float single channel", func(t *testing.T) {
		img := testFace(t, 1, 1)
		img.Set(0, 0, 0.75, 9, 9, 9)

		data, _, err := encodeFace(img, gputypes.TextureFormatR32Float, lightatlas.EncodingLinear)
		if err != nil {
			t.Fatalf("encodeFace failed: %v", err)
		}
		got := math.Float32frombits(binary.LittleEndian.Uint32(data))
		if got != 0.75 {
			t.Errorf("r32 value = %v, want 0.75", got)
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		img := testFace(t, 1, 1)
		if _, _, err := encodeFace(img, gputypes.TextureFormatDepth32Float, lightatlas.EncodingLinear); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("err = %v, want ErrUnsupportedFormat", err)
		}
	})
}

func TestQuantizeByte(t *testing.T) {
	tests := []struct {
		in   float32
		want byte
	}{
		{-1, 0},
		{0, 0},
		{0.5, 128},
		{1, 255},
		{2, 255},
	}
	for _, tt := range tests {
		if got := quantizeByte(tt.in); got != tt.want {
			t.Errorf("quantizeByte(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
