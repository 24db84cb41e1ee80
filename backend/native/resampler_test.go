package native

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/lightatlas"
)

func newTestResampler(t *testing.T) (*Resampler, *Device, *mockHALDevice) {
	t.Helper()
	dev, mock := newMockDevice(t)
	r, err := NewResampler(dev)
	if err != nil {
		t.Fatalf("NewResampler failed: %v", err)
	}
	return r, dev, mock
}

func TestNewResampler(t *testing.T) {
	t.Run("nil device", func(t *testing.T) {
		_, err := NewResampler(nil)
		if !errors.Is(err, ErrNilHALDevice) {
			t.Errorf("err = %v, want ErrNilHALDevice", err)
		}
	})

	t.Run("destroyed device", func(t *testing.T) {
		dev, _ := newMockDevice(t)
		dev.Destroy()
		if _, err := NewResampler(dev); err == nil {
			t.Error("expected error for destroyed device")
		}
	})

	t.Run("initializes pipelines", func(t *testing.T) {
		r, _, mock := newTestResampler(t)

		if !r.IsInitialized() {
			t.Error("IsInitialized = false after NewResampler")
		}
		if !r.ShaderReady() {
			t.Error("ShaderReady = false after NewResampler")
		}
		if len(r.SPIRVCode()) == 0 {
			t.Error("SPIRVCode is empty after NewResampler")
		}

		if mock.shaderModulesCreated != 1 {
			t.Errorf("shaderModulesCreated = %d, want 1", mock.shaderModulesCreated)
		}
		if mock.bindGroupLayoutsCreated != 2 {
			t.Errorf("bindGroupLayoutsCreated = %d, want 2", mock.bindGroupLayoutsCreated)
		}
		if mock.pipelineLayoutsCreated != 1 {
			t.Errorf("pipelineLayoutsCreated = %d, want 1", mock.pipelineLayoutsCreated)
		}
		if mock.computePipelinesCreated != 4 {
			t.Errorf("computePipelinesCreated = %d, want 4", mock.computePipelinesCreated)
		}
		if mock.samplersCreated != 1 {
			t.Errorf("samplersCreated = %d, want 1", mock.samplersCreated)
		}
		if mock.buffersCreated != 1 {
			t.Errorf("buffersCreated = %d, want 1", mock.buffersCreated)
		}

		if got := mock.lastShaderModuleDesc.Label; got != "resample_shader" {
			t.Errorf("shader module label = %q, want resample_shader", got)
		}
		if got := mock.lastBufferDesc.Size; got != gpuResampleParamsSize {
			t.Errorf("params buffer size = %d, want %d", got, gpuResampleParamsSize)
		}

		wantEntries := []string{
			entryResampleNone,
			entryResampleLambert,
			entryResamplePhong,
			entryResampleGGX,
		}
		if len(mock.computePipelineDescs) != len(wantEntries) {
			t.Fatalf("captured %d pipeline descriptors, want %d",
				len(mock.computePipelineDescs), len(wantEntries))
		}
		for i, want := range wantEntries {
			if got := mock.computePipelineDescs[i].Compute.EntryPoint; got != want {
				t.Errorf("pipeline %d entry point = %q, want %q", i, got, want)
			}
		}
	})

	t.Run("bind group layouts", func(t *testing.T) {
		_, _, mock := newTestResampler(t)

		if len(mock.bindGroupLayoutDescs) != 2 {
			t.Fatalf("captured %d bind group layouts, want 2", len(mock.bindGroupLayoutDescs))
		}
		input := mock.bindGroupLayoutDescs[0]
		if len(input.Entries) != 3 {
			t.Errorf("input layout has %d entries, want 3", len(input.Entries))
		}
		if input.Entries[0].Buffer == nil {
			t.Fatal("input binding 0 is not a buffer")
		}
		if got := input.Entries[0].Buffer.MinBindingSize; got != gpuResampleParamsSize {
			t.Errorf("params MinBindingSize = %d, want %d", got, gpuResampleParamsSize)
		}
		if input.Entries[1].Texture == nil {
			t.Error("input binding 1 is not a texture")
		}
		if input.Entries[2].Sampler == nil {
			t.Error("input binding 2 is not a sampler")
		}

		output := mock.bindGroupLayoutDescs[1]
		if len(output.Entries) != 1 {
			t.Errorf("output layout has %d entries, want 1", len(output.Entries))
		}
		if output.Entries[0].Storage == nil {
			t.Error("output binding 0 is not a storage texture")
		}
	})
}

func TestResamplerDestroy(t *testing.T) {
	r, _, mock := newTestResampler(t)

	r.Destroy()
	r.Destroy() // Idempotent: resources already nil.

	if r.IsInitialized() {
		t.Error("IsInitialized = true after Destroy")
	}
	if mock.computePipelinesDestroyed != 4 {
		t.Errorf("computePipelinesDestroyed = %d, want 4", mock.computePipelinesDestroyed)
	}
	if mock.pipelineLayoutsDestroyed != 1 {
		t.Errorf("pipelineLayoutsDestroyed = %d, want 1", mock.pipelineLayoutsDestroyed)
	}
	if mock.bindGroupLayoutsDestroyed != 2 {
		t.Errorf("bindGroupLayoutsDestroyed = %d, want 2", mock.bindGroupLayoutsDestroyed)
	}
	if mock.shaderModulesDestroyed != 1 {
		t.Errorf("shaderModulesDestroyed = %d, want 1", mock.shaderModulesDestroyed)
	}
	if mock.samplersDestroyed != 1 {
		t.Errorf("samplersDestroyed = %d, want 1", mock.samplersDestroyed)
	}
	if mock.buffersDestroyed != 1 {
		t.Errorf("buffersDestroyed = %d, want 1", mock.buffersDestroyed)
	}
}

func TestResampleValidation(t *testing.T) {
	colorDesc := &lightatlas.TextureDescriptor{
		Label:      "src",
		Width:      16,
		Height:     8,
		Format:     gputypes.TextureFormatRGBA8Unorm,
		Projection: lightatlas.ProjectionEquirect,
	}

	t.Run("not initialized", func(t *testing.T) {
		r := &Resampler{}
		err := r.Resample(nil, nil, nil)
		if !errors.Is(err, ErrNotInitialized) {
			t.Errorf("err = %v, want ErrNotInitialized", err)
		}
	})

	t.Run("non-native source", func(t *testing.T) {
		r, dev, _ := newTestResampler(t)
		soft, err := lightatlas.NewSoftwareDevice().CreateTexture(colorDesc)
		if err != nil {
			t.Fatalf("software CreateTexture failed: %v", err)
		}
		dst, err := dev.CreateTexture(colorDesc)
		if err != nil {
			t.Fatalf("CreateTexture failed: %v", err)
		}

		var srcErr *lightatlas.SourceFormatError
		if err := r.Resample(soft, dst, nil); !errors.As(err, &srcErr) {
			t.Errorf("err = %v, want SourceFormatError", err)
		}
	})

	t.Run("destroyed source", func(t *testing.T) {
		r, dev, _ := newTestResampler(t)
		src, err := dev.CreateTexture(colorDesc)
		if err != nil {
			t.Fatalf("CreateTexture failed: %v", err)
		}
		dst, err := dev.CreateTexture(colorDesc)
		if err != nil {
			t.Fatalf("CreateTexture failed: %v", err)
		}
		src.Destroy()

		if err := r.Resample(src, dst, nil); !errors.Is(err, ErrTextureDestroyed) {
			t.Errorf("err = %v, want ErrTextureDestroyed", err)
		}
	})

	t.Run("depth destination", func(t *testing.T) {
		r, dev, _ := newTestResampler(t)
		src, err := dev.CreateTexture(colorDesc)
		if err != nil {
			t.Fatalf("CreateTexture failed: %v", err)
		}
		dst, err := dev.CreateTexture(&lightatlas.TextureDescriptor{
			Label:  "depth",
			Width:  16,
			Height: 16,
			Format: gputypes.TextureFormatDepth32Float,
		})
		if err != nil {
			t.Fatalf("CreateTexture failed: %v", err)
		}

		var srcErr *lightatlas.SourceFormatError
		if err := r.Resample(src, dst, nil); !errors.As(err, &srcErr) {
			t.Errorf("err = %v, want SourceFormatError", err)
		}
	})
}

func TestGPUParams(t *testing.T) {
	dev, _ := newMockDevice(t)
	r := &Resampler{}

	t.Run("full target", func(t *testing.T) {
		tex, err := dev.CreateTexture(&lightatlas.TextureDescriptor{
			Label:      "dst",
			Width:      64,
			Height:     32,
			Format:     gputypes.TextureFormatRGBA8Unorm,
			Projection: lightatlas.ProjectionEquirect,
		})
		if err != nil {
			t.Fatalf("CreateTexture failed: %v", err)
		}

		gp := r.gpuParams(tex.(*Texture), &lightatlas.ResampleParams{
			SampleCount:   32,
			SpecularPower: 128,
			SeamPixels:    1.5,
		})

		if gp.DstOriginX != 0 || gp.DstOriginY != 0 {
			t.Errorf("origin = (%v, %v), want (0, 0)", gp.DstOriginX, gp.DstOriginY)
		}
		if gp.DstSizeX != 64 || gp.DstSizeY != 32 {
			t.Errorf("size = (%v, %v), want (64, 32)", gp.DstSizeX, gp.DstSizeY)
		}
		if gp.SampleCount != 32 {
			t.Errorf("SampleCount = %d, want 32", gp.SampleCount)
		}
		if gp.SpecularPower != 128 {
			t.Errorf("SpecularPower = %v, want 128", gp.SpecularPower)
		}
		if gp.Seam != 1.5 {
			t.Errorf("Seam = %v, want 1.5", gp.Seam)
		}
		if gp.Encoding != 0 {
			t.Errorf("Encoding = %d, want 0 for linear", gp.Encoding)
		}
	})

	t.Run("dest rect and rgbm", func(t *testing.T) {
		tex, err := dev.CreateTexture(&lightatlas.TextureDescriptor{
			Label:      "atlas",
			Width:      128,
			Height:     128,
			Format:     gputypes.TextureFormatRGBA8Unorm,
			Projection: lightatlas.ProjectionEquirect,
			Encoding:   lightatlas.EncodingRGBM,
		})
		if err != nil {
			t.Fatalf("CreateTexture failed: %v", err)
		}

		gp := r.gpuParams(tex.(*Texture), &lightatlas.ResampleParams{
			SampleCount: 1,
			DestRect:    &lightatlas.Rect{X: 16, Y: 8, W: 32, H: 16},
		})

		if gp.DstOriginX != 16 || gp.DstOriginY != 8 {
			t.Errorf("origin = (%v, %v), want (16, 8)", gp.DstOriginX, gp.DstOriginY)
		}
		if gp.DstSizeX != 32 || gp.DstSizeY != 16 {
			t.Errorf("size = (%v, %v), want (32, 16)", gp.DstSizeX, gp.DstSizeY)
		}
		if gp.Encoding != 1 {
			t.Errorf("Encoding = %d, want 1 for RGBM", gp.Encoding)
		}
	})
}

func TestPipelineFor(t *testing.T) {
	r := &Resampler{
		nonePipeline:    &mockHALComputePipeline{},
		lambertPipeline: &mockHALComputePipeline{},
		phongPipeline:   &mockHALComputePipeline{},
		ggxPipeline:     &mockHALComputePipeline{},
	}

	tests := []struct {
		dist lightatlas.Distribution
		want any
	}{
		{lightatlas.DistributionNone, r.nonePipeline},
		{lightatlas.DistributionLambert, r.lambertPipeline},
		{lightatlas.DistributionPhong, r.phongPipeline},
		{lightatlas.DistributionGGX, r.ggxPipeline},
	}
	for _, tt := range tests {
		if got := r.pipelineFor(tt.dist); got != tt.want {
			t.Errorf("pipelineFor(%v) returned wrong pipeline", tt.dist)
		}
	}

	// Unknown distributions fall back to GGX.
	if got := r.pipelineFor(lightatlas.Distribution(99)); got != r.ggxPipeline {
		t.Error("pipelineFor(unknown) should fall back to the GGX pipeline")
	}
}
