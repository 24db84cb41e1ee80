// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package lightatlas

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestTextureDescriptorValidate(t *testing.T) {
	tests := []struct {
		name      string
		desc      TextureDescriptor
		wantField string
	}{
		{
			name: "valid 2D",
			desc: TextureDescriptor{Width: 64, Height: 32},
		},
		{
			name: "valid cubemap",
			desc: TextureDescriptor{Width: 64, Height: 64, Cubemap: true, Projection: ProjectionCube},
		},
		{
			name:      "zero width",
			desc:      TextureDescriptor{Width: 0, Height: 32},
			wantField: "Width",
		},
		{
			name:      "negative height",
			desc:      TextureDescriptor{Width: 64, Height: -1},
			wantField: "Height",
		},
		{
			name:      "non-square cubemap",
			desc:      TextureDescriptor{Width: 64, Height: 32, Cubemap: true},
			wantField: "Cubemap",
		},
		{
			name:      "equirect cubemap",
			desc:      TextureDescriptor{Width: 64, Height: 64, Cubemap: true, Projection: ProjectionEquirect},
			wantField: "Projection",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.desc.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var cfgErr *TextureConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() = %v, want TextureConfigError", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantField)
			}
		})
	}
}

func TestProjectionString(t *testing.T) {
	tests := []struct {
		p    Projection
		want string
	}{
		{ProjectionNone, "None"},
		{ProjectionEquirect, "Equirect"},
		{ProjectionCube, "Cube"},
		{Projection(7), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("Projection(%d).String() = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestEncodingString(t *testing.T) {
	tests := []struct {
		e    Encoding
		want string
	}{
		{EncodingLinear, "Linear"},
		{EncodingRGBM, "RGBM"},
		{Encoding(7), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.e.String(); got != tt.want {
			t.Errorf("Encoding(%d).String() = %q, want %q", tt.e, got, tt.want)
		}
	}
}

func TestNullDeviceHandle(t *testing.T) {
	var h NullDeviceHandle
	if h.Device() != nil || h.Queue() != nil || h.Adapter() != nil {
		t.Error("null handle should return nil device, queue, and adapter")
	}
	if got := h.SurfaceFormat(); got != gputypes.TextureFormatUndefined {
		t.Errorf("SurfaceFormat() = %v, want Undefined", got)
	}
}
