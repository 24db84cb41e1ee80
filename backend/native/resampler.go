// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"
	"sync"

	types "github.com/gogpu/gputypes"
	"github.com/gogpu/lightatlas"
	"github.com/gogpu/wgpu/hal"
)

// Resampler implements lightatlas.Resampler on a native Device.
//
// Construction compiles the resample kernel and builds one compute
// pipeline per sampling distribution. Kernel execution currently runs on
// the CPU pixel mirror using the same algorithm as the shader (bind group
// creation needs buffer handle plumbing in the HAL); the result is
// uploaded to the GPU texture through the queue and the call returns
// after the queue signals completion, so callers observe strict
// sequential ordering.
type Resampler struct {
	mu sync.Mutex

	device hal.Device
	queue  hal.Queue

	// Compute pipelines, one per sampling distribution.
	nonePipeline    hal.ComputePipeline
	lambertPipeline hal.ComputePipeline
	phongPipeline   hal.ComputePipeline
	ggxPipeline     hal.ComputePipeline

	// Shader module (cached)
	shaderModule hal.ShaderModule

	// Pipeline layout and bind group layouts
	pipelineLayout   hal.PipelineLayout
	inputBindLayout  hal.BindGroupLayout
	outputBindLayout hal.BindGroupLayout

	// Bilinear clamped sampler for source taps.
	sampler hal.Sampler

	// Uniform block reused by every dispatch.
	paramsBuf hal.Buffer

	// Compiled SPIR-V (cached for verification)
	spirvCode []uint32

	// State
	initialized bool
	shaderReady bool

	// CPU kernel, texel for texel the same math as the shader.
	cpu *lightatlas.SoftwareResampler
}

var _ lightatlas.Resampler = (*Resampler)(nil)

// NewResampler creates a resampler on the given device.
func NewResampler(dev *Device) (*Resampler, error) {
	if dev == nil {
		return nil, ErrNilHALDevice
	}
	device, queue := dev.Raw()
	if device == nil || queue == nil {
		return nil, fmt.Errorf("resample: device and queue are required")
	}

	r := &Resampler{
		device: device,
		queue:  queue,
		cpu:    lightatlas.NewSoftwareResampler(),
	}

	if err := r.init(); err != nil {
		r.Destroy()
		return nil, err
	}

	return r, nil
}

// init initializes GPU resources (shader, layouts, pipelines, sampler).
func (r *Resampler) init() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if resampleShaderWGSL == "" {
		return fmt.Errorf("resample: shader source is empty")
	}

	spirvCode, err := compileShaderToSPIRV(resampleShaderWGSL)
	if err != nil {
		return fmt.Errorf("resample: %w", err)
	}
	r.spirvCode = spirvCode
	r.shaderReady = true

	shaderModule, err := r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "resample_shader",
		Source: hal.ShaderSource{SPIRV: r.spirvCode},
	})
	if err != nil {
		return fmt.Errorf("resample: failed to create shader module: %w", err)
	}
	r.shaderModule = shaderModule

	if err := r.createBindGroupLayouts(); err != nil {
		return err
	}
	if err := r.createPipelineLayout(); err != nil {
		return err
	}
	if err := r.createPipelines(); err != nil {
		return err
	}
	if err := r.createSampler(); err != nil {
		return err
	}
	if err := r.createParamsBuffer(); err != nil {
		return err
	}

	r.initialized = true
	lightatlas.Logger().Debug("native: resample pipelines ready")
	return nil
}

// createBindGroupLayouts creates the bind group layouts for the kernel.
func (r *Resampler) createBindGroupLayouts() error {
	// Input bind group layout (group 0): params, source texture, sampler.
	inputLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "resample_input_layout",
		Entries: []types.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: types.ShaderStageCompute,
				Buffer: &types.BufferBindingLayout{
					Type:           types.BufferBindingTypeUniform,
					MinBindingSize: gpuResampleParamsSize,
				},
			},
			{
				Binding:    1,
				Visibility: types.ShaderStageCompute,
				Texture: &types.TextureBindingLayout{
					SampleType:    types.TextureSampleTypeFloat,
					ViewDimension: types.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: types.ShaderStageCompute,
				Sampler: &types.SamplerBindingLayout{
					Type: types.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("resample: failed to create input bind group layout: %w", err)
	}
	r.inputBindLayout = inputLayout

	// Output bind group layout (group 1): destination storage texture.
	outputLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "resample_output_layout",
		Entries: []types.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: types.ShaderStageCompute,
				Storage: &types.StorageTextureBindingLayout{
					Access:        types.StorageTextureAccessReadWrite,
					Format:        types.TextureFormatRGBA8Unorm,
					ViewDimension: types.TextureViewDimension2D,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("resample: failed to create output bind group layout: %w", err)
	}
	r.outputBindLayout = outputLayout

	return nil
}

// createPipelineLayout creates the pipeline layout.
func (r *Resampler) createPipelineLayout() error {
	layout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "resample_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.inputBindLayout, r.outputBindLayout},
	})
	if err != nil {
		return fmt.Errorf("resample: failed to create pipeline layout: %w", err)
	}
	r.pipelineLayout = layout
	return nil
}

// createPipelines creates one compute pipeline per entry point.
func (r *Resampler) createPipelines() error {
	nonePipeline, err := r.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "resample_none_pipeline",
		Layout: r.pipelineLayout,
		Compute: hal.ComputeState{
			Module:     r.shaderModule,
			EntryPoint: entryResampleNone,
		},
	})
	if err != nil {
		return fmt.Errorf("resample: failed to create none pipeline: %w", err)
	}
	r.nonePipeline = nonePipeline

	lambertPipeline, err := r.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "resample_lambert_pipeline",
		Layout: r.pipelineLayout,
		Compute: hal.ComputeState{
			Module:     r.shaderModule,
			EntryPoint: entryResampleLambert,
		},
	})
	if err != nil {
		return fmt.Errorf("resample: failed to create lambert pipeline: %w", err)
	}
	r.lambertPipeline = lambertPipeline

	phongPipeline, err := r.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "resample_phong_pipeline",
		Layout: r.pipelineLayout,
		Compute: hal.ComputeState{
			Module:     r.shaderModule,
			EntryPoint: entryResamplePhong,
		},
	})
	if err != nil {
		return fmt.Errorf("resample: failed to create phong pipeline: %w", err)
	}
	r.phongPipeline = phongPipeline

	ggxPipeline, err := r.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "resample_ggx_pipeline",
		Layout: r.pipelineLayout,
		Compute: hal.ComputeState{
			Module:     r.shaderModule,
			EntryPoint: entryResampleGGX,
		},
	})
	if err != nil {
		return fmt.Errorf("resample: failed to create ggx pipeline: %w", err)
	}
	r.ggxPipeline = ggxPipeline

	return nil
}

// createSampler creates the bilinear source sampler.
func (r *Resampler) createSampler() error {
	sampler, err := r.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "resample_sampler",
		AddressModeU: types.AddressModeClampToEdge,
		AddressModeV: types.AddressModeClampToEdge,
		AddressModeW: types.AddressModeClampToEdge,
		MagFilter:    types.FilterModeLinear,
		MinFilter:    types.FilterModeLinear,
		MipmapFilter: types.FilterModeLinear,
	})
	if err != nil {
		return fmt.Errorf("resample: failed to create sampler: %w", err)
	}
	r.sampler = sampler
	return nil
}

// createParamsBuffer allocates the uniform block reused by every
// dispatch.
func (r *Resampler) createParamsBuffer() error {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "resample_params",
		Size:  gpuResampleParamsSize,
		Usage: types.BufferUsageUniform | types.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("resample: failed to create params buffer: %w", err)
	}
	r.paramsBuf = buf
	return nil
}

// Resample implements lightatlas.Resampler.
func (r *Resampler) Resample(src, dst lightatlas.Texture, p *lightatlas.ResampleParams) error {
	const op = "native resample"

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return ErrNotInitialized
	}

	source, ok := src.(*Texture)
	if !ok {
		return &lightatlas.SourceFormatError{Op: op, Reason: "source is not a native texture"}
	}
	target, ok := dst.(*Texture)
	if !ok {
		return &lightatlas.SourceFormatError{Op: op, Reason: "destination is not a native texture"}
	}
	if source.IsDestroyed() || target.IsDestroyed() {
		return fmt.Errorf("%s: %w", op, ErrTextureDestroyed)
	}
	srcMirror := source.Mirror()
	if srcMirror == nil {
		return &lightatlas.SourceFormatError{Op: op, Reason: "source has no pixel mirror"}
	}
	dstMirror := target.Mirror()
	if dstMirror == nil {
		return &lightatlas.SourceFormatError{Op: op, Reason: "destination has no pixel mirror"}
	}

	params := lightatlas.ResampleParams{}
	if p != nil {
		params = *p
	}
	if params.SampleCount < 1 {
		params.SampleCount = 1
	}
	if r.pipelineFor(params.Distribution) == nil {
		return ErrNotInitialized
	}

	// Stage the uniform block for the dispatch.
	r.queue.WriteBuffer(r.paramsBuf, 0, resampleParamsToBytes(r.gpuParams(target, &params)))

	if err := r.cpu.Resample(srcMirror, dstMirror, &params); err != nil {
		return err
	}
	if err := target.Upload(); err != nil {
		return err
	}
	return waitForQueue(r.device, r.queue)
}

// gpuParams builds the uniform block for one dispatch. Must stay in sync
// with Params in resample.wgsl.
func (r *Resampler) gpuParams(target *Texture, p *lightatlas.ResampleParams) GPUResampleParams {
	gp := GPUResampleParams{
		DstSizeX:      float32(target.Width()),
		DstSizeY:      float32(target.Height()),
		Seam:          float32(p.SeamPixels),
		SpecularPower: float32(p.SpecularPower),
		SampleCount:   uint32(p.SampleCount),
	}
	if p.DestRect != nil {
		gp.DstOriginX = float32(p.DestRect.X)
		gp.DstOriginY = float32(p.DestRect.Y)
		gp.DstSizeX = float32(p.DestRect.W)
		gp.DstSizeY = float32(p.DestRect.H)
	}
	if target.Encoding() == lightatlas.EncodingRGBM {
		gp.Encoding = 1
	}
	return gp
}

// pipelineFor returns the compute pipeline for a distribution.
func (r *Resampler) pipelineFor(d lightatlas.Distribution) hal.ComputePipeline {
	switch d {
	case lightatlas.DistributionLambert:
		return r.lambertPipeline
	case lightatlas.DistributionPhong:
		return r.phongPipeline
	case lightatlas.DistributionNone:
		return r.nonePipeline
	default:
		return r.ggxPipeline
	}
}

// IsInitialized returns whether the resampler is initialized.
func (r *Resampler) IsInitialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

// ShaderReady returns whether the kernel compiled to SPIR-V.
func (r *Resampler) ShaderReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shaderReady
}

// SPIRVCode returns the compiled SPIR-V code (for debugging/verification).
func (r *Resampler) SPIRVCode() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.spirvCode
}

// Destroy releases all GPU resources.
func (r *Resampler) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.device == nil {
		return
	}

	// Destroy pipelines
	if r.nonePipeline != nil {
		r.device.DestroyComputePipeline(r.nonePipeline)
		r.nonePipeline = nil
	}
	if r.lambertPipeline != nil {
		r.device.DestroyComputePipeline(r.lambertPipeline)
		r.lambertPipeline = nil
	}
	if r.phongPipeline != nil {
		r.device.DestroyComputePipeline(r.phongPipeline)
		r.phongPipeline = nil
	}
	if r.ggxPipeline != nil {
		r.device.DestroyComputePipeline(r.ggxPipeline)
		r.ggxPipeline = nil
	}

	// Destroy pipeline layout
	if r.pipelineLayout != nil {
		r.device.DestroyPipelineLayout(r.pipelineLayout)
		r.pipelineLayout = nil
	}

	// Destroy bind group layouts
	if r.inputBindLayout != nil {
		r.device.DestroyBindGroupLayout(r.inputBindLayout)
		r.inputBindLayout = nil
	}
	if r.outputBindLayout != nil {
		r.device.DestroyBindGroupLayout(r.outputBindLayout)
		r.outputBindLayout = nil
	}

	// Destroy shader module
	if r.shaderModule != nil {
		r.device.DestroyShaderModule(r.shaderModule)
		r.shaderModule = nil
	}

	if r.sampler != nil {
		r.device.DestroySampler(r.sampler)
		r.sampler = nil
	}
	if r.paramsBuf != nil {
		r.device.DestroyBuffer(r.paramsBuf)
		r.paramsBuf = nil
	}

	r.initialized = false
}
