package native

import (
	_ "embed"
	"fmt"
	"math"

	"github.com/gogpu/naga"
)

//go:embed shaders/resample.wgsl
var resampleShaderWGSL string

// Entry points in shaders/resample.wgsl, one per sampling distribution.
const (
	entryResampleNone    = "cs_resample_none"
	entryResampleLambert = "cs_resample_lambert"
	entryResamplePhong   = "cs_resample_phong"
	entryResampleGGX     = "cs_resample_ggx"
)

// resampleWorkgroupSize is the workgroup edge declared by every entry
// point. Dispatch counts are ceil(dest extent / this).
const resampleWorkgroupSize = 8

// GPUResampleParams is the uniform block for one resample dispatch.
// Must match Params in resample.wgsl.
type GPUResampleParams struct {
	DstOriginX    float32 // Destination region origin X in pixels
	DstOriginY    float32 // Destination region origin Y in pixels
	DstSizeX      float32 // Destination region width in pixels
	DstSizeY      float32 // Destination region height in pixels
	Seam          float32 // Seam replication width in pixels
	SpecularPower float32 // Phong/GGX lobe shape
	SampleCount   uint32  // Importance samples per texel
	Encoding      uint32  // 0 = linear, 1 = RGBM
}

// gpuResampleParamsSize is the byte size of the uniform block.
const gpuResampleParamsSize = 32

// compileShaderToSPIRV compiles WGSL source to SPIR-V words.
func compileShaderToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("naga compile failed: %w", err)
	}

	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V byte length %d is not word aligned", len(spirvBytes))
	}

	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	return words, nil
}

// Byte serialization helpers for GPU buffer upload

func resampleParamsToBytes(p GPUResampleParams) []byte {
	buf := make([]byte, gpuResampleParamsSize)
	writeFloat32(buf, 0, p.DstOriginX)
	writeFloat32(buf, 4, p.DstOriginY)
	writeFloat32(buf, 8, p.DstSizeX)
	writeFloat32(buf, 12, p.DstSizeY)
	writeFloat32(buf, 16, p.Seam)
	writeFloat32(buf, 20, p.SpecularPower)
	writeUint32(buf, 24, p.SampleCount)
	writeUint32(buf, 28, p.Encoding)
	return buf
}

func writeUint32(buf []byte, offset int, val uint32) {
	buf[offset] = byte(val)
	buf[offset+1] = byte(val >> 8)
	buf[offset+2] = byte(val >> 16)
	buf[offset+3] = byte(val >> 24)
}

func writeFloat32(buf []byte, offset int, val float32) {
	writeUint32(buf, offset, math.Float32bits(val))
}
