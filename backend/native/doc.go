// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package native implements the lightatlas Device and Resampler on top of
// gogpu/wgpu's hardware abstraction layer.
//
// # Overview
//
// The package wraps an injected hal.Device and hal.Queue; it never creates
// a device of its own unless asked to via [Open]. Textures created here are
// real GPU textures, sized and formatted from the lightatlas descriptor,
// with a CPU-side pixel mirror that keeps resampling deterministic and
// testable on machines without a GPU queue.
//
// # Device sharing
//
// Hosts that already run a gogpu/wgpu device pass it in directly:
//
//	dev, err := native.NewDevice(halDevice, halQueue, nil)
//	if err != nil { ... }
//	defer dev.Destroy()
//
//	rs, err := native.NewResampler(dev)
//	if err != nil { ... }
//	defer rs.Destroy()
//
//	atlas, err := lightatlas.NewEnvironmentAtlas(dev, rs)
//
// Standalone tools without a host device can call [Open], which enumerates
// adapters through the Vulkan backend and opens the first discrete or
// integrated GPU.
//
// # Compute kernel
//
// The resampler carries the full compute pipeline for the reprojection
// kernel: the WGSL source under shaders/ is compiled to SPIR-V through
// naga at construction time and one pipeline is built per sampling
// distribution. Kernel execution currently runs on the CPU mirror (the
// HAL does not yet plumb buffer handles into bind groups) and the result
// is uploaded to the GPU texture through the queue, so destination
// textures are always coherent for the host renderer.
package native
