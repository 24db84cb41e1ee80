package lightatlas

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/mrjoshuak/go-openexr/exr"
)

// writeEnvironmentEXR encodes a w by h gradient whose channel values are
// exactly representable as half floats, so the decoded pixels reproduce
// them bit for bit.
func writeEnvironmentEXR(t *testing.T, w, h int) string {
	t.Helper()
	img := exr.NewRGBAImage(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, float32(x)*0.125, float32(y)*0.25, 0.25, 1)
		}
	}
	path := filepath.Join(t.TempDir(), "env.exr")
	if err := exr.EncodeFile(path, img); err != nil {
		t.Fatalf("EncodeFile: %v", err)
	}
	return path
}

func TestLoadEnvironmentFile(t *testing.T) {
	dev := NewSoftwareDevice()
	path := writeEnvironmentEXR(t, 8, 4)

	tex, err := LoadEnvironmentFile(dev, path)
	if err != nil {
		t.Fatalf("LoadEnvironmentFile: %v", err)
	}
	defer tex.Destroy()

	if got := tex.Label(); got != "env.exr" {
		t.Errorf("Label = %q, want %q", got, "env.exr")
	}
	if tex.Width() != 8 || tex.Height() != 4 {
		t.Errorf("size = %dx%d, want 8x4", tex.Width(), tex.Height())
	}
	if tex.Projection() != ProjectionEquirect {
		t.Errorf("Projection = %v, want equirect", tex.Projection())
	}
	if tex.Format() != gputypes.TextureFormatRGBA16Float {
		t.Errorf("Format = %v, want RGBA16Float", tex.Format())
	}
	if tex.Encoding() != EncodingLinear {
		t.Errorf("Encoding = %v, want linear", tex.Encoding())
	}
	if tex.Cubemap() {
		t.Error("environment source should not be a cubemap")
	}

	face := tex.(*ImageTexture).Face(0)
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			r, g, b, a := face.At(x, y)
			wantR := float32(x) * 0.125
			wantG := float32(y) * 0.25
			if !colorApprox(r, wantR, 1e-6) || !colorApprox(g, wantG, 1e-6) ||
				!colorApprox(b, 0.25, 1e-6) || !colorApprox(a, 1, 1e-6) {
				t.Fatalf("pixel (%d,%d) = (%g,%g,%g,%g), want (%g,%g,0.25,1)",
					x, y, r, g, b, a, wantR, wantG)
			}
		}
	}
}

func TestLoadEnvironmentFileMissing(t *testing.T) {
	dev := NewSoftwareDevice()
	_, err := LoadEnvironmentFile(dev, filepath.Join(t.TempDir(), "absent.exr"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadEnvironment(t *testing.T) {
	path := writeEnvironmentEXR(t, 8, 4)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	t.Run("reader", func(t *testing.T) {
		dev := NewSoftwareDevice()
		tex, err := LoadEnvironment(dev, bytes.NewReader(data), int64(len(data)), "probe")
		if err != nil {
			t.Fatalf("LoadEnvironment: %v", err)
		}
		defer tex.Destroy()
		if got := tex.Label(); got != "probe" {
			t.Errorf("Label = %q, want %q", got, "probe")
		}
		if tex.Width() != 8 || tex.Height() != 4 {
			t.Errorf("size = %dx%d, want 8x4", tex.Width(), tex.Height())
		}
	})

	t.Run("nil device", func(t *testing.T) {
		_, err := LoadEnvironment(nil, bytes.NewReader(data), int64(len(data)), "probe")
		if !errors.Is(err, ErrNilDevice) {
			t.Fatalf("err = %v, want ErrNilDevice", err)
		}
	})

	t.Run("corrupt stream", func(t *testing.T) {
		dev := NewSoftwareDevice()
		junk := []byte("not an exr stream at all, definitely not")
		tex, err := LoadEnvironment(dev, bytes.NewReader(junk), int64(len(junk)), "junk")
		if err == nil {
			t.Fatal("expected a decode error")
		}
		if tex != nil {
			t.Errorf("tex = %v, want nil", tex)
		}
	})
}

func TestLoadEnvironmentDegraded(t *testing.T) {
	dev := NewSoftwareDeviceWithCapabilities(DeviceCapabilities{})
	path := writeEnvironmentEXR(t, 8, 4)

	tex, err := LoadEnvironmentFile(dev, path)
	if err != nil {
		t.Fatalf("LoadEnvironmentFile: %v", err)
	}
	defer tex.Destroy()

	if tex.Format() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("Format = %v, want RGBA8Unorm", tex.Format())
	}
	if tex.Encoding() != EncodingRGBM {
		t.Errorf("Encoding = %v, want RGBM", tex.Encoding())
	}

	// The pixel plane stores linear radiance regardless of the
	// encoding advertised for GPU consumption.
	r, g, b, a := tex.(*ImageTexture).Face(0).At(1, 2)
	if !colorApprox(r, 0.125, 1e-6) || !colorApprox(g, 0.5, 1e-6) ||
		!colorApprox(b, 0.25, 1e-6) || !colorApprox(a, 1, 1e-6) {
		t.Errorf("pixel (1,2) = (%g,%g,%g,%g), want (0.125,0.5,0.25,1)", r, g, b, a)
	}
}

func TestLoadEnvironmentCreateFailure(t *testing.T) {
	dev := NewSoftwareDeviceWithCapabilities(DeviceCapabilities{MaxTextureSize: 4})
	path := writeEnvironmentEXR(t, 8, 4)

	_, err := LoadEnvironmentFile(dev, path)
	if err == nil {
		t.Fatal("expected a create error for an oversized source")
	}
	var cfg *TextureConfigError
	if !errors.As(err, &cfg) {
		t.Fatalf("err = %v, want a TextureConfigError in the chain", err)
	}
	if cfg.Field != "Width" {
		t.Errorf("Field = %q, want %q", cfg.Field, "Width")
	}
}
