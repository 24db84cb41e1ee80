package lightatlas

import (
	"errors"
	"fmt"
)

// Package sentinel errors. Typed errors below wrap these so callers can
// branch with errors.Is and still read details via errors.As.
var (
	// ErrInvalidSourceFormat is returned when a layout operation receives a
	// source texture it cannot resample from (wrong projection, destroyed,
	// or mismatched face count).
	ErrInvalidSourceFormat = errors.New("lightatlas: invalid source texture format")

	// ErrCapacityExceeded is returned when the required shadow face count
	// would grow the slot grid beyond the configured ceiling.
	ErrCapacityExceeded = errors.New("lightatlas: shadow atlas capacity exceeded")

	// ErrNilDevice is returned when a component is constructed without a
	// texture factory.
	ErrNilDevice = errors.New("lightatlas: device is nil")

	// ErrNilResampler is returned when an environment atlas is constructed
	// without a resampler.
	ErrNilResampler = errors.New("lightatlas: resampler is nil")

	// ErrNilSource is returned when a layout operation receives a nil
	// source texture.
	ErrNilSource = errors.New("lightatlas: source texture is nil")

	// ErrTextureDestroyed is returned when operating on a destroyed texture.
	ErrTextureDestroyed = errors.New("lightatlas: texture has been destroyed")
)

// SourceFormatError reports a source texture rejected by a precondition
// check before any texture was created or resample issued.
type SourceFormatError struct {
	// Op is the operation that rejected the source.
	Op string

	// Reason describes the offending property.
	Reason string
}

func (e *SourceFormatError) Error() string {
	return "lightatlas: " + e.Op + ": " + e.Reason
}

// Unwrap returns ErrInvalidSourceFormat so errors.Is matches.
func (e *SourceFormatError) Unwrap() error { return ErrInvalidSourceFormat }

// CapacityError reports a shadow face count that does not fit the
// configured grid ceiling. The allocator state is untouched when this is
// returned.
type CapacityError struct {
	// RequiredFaces is the face count requested this frame.
	RequiredFaces int

	// GridSize is the grid the request would need.
	GridSize int

	// MaxGridSize is the configured ceiling.
	MaxGridSize int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("lightatlas: %d shadow faces need a %dx%d grid, ceiling is %dx%d",
		e.RequiredFaces, e.GridSize, e.GridSize, e.MaxGridSize, e.MaxGridSize)
}

// Unwrap returns ErrCapacityExceeded so errors.Is matches.
func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

// AtlasConfigError represents an environment atlas option validation error.
type AtlasConfigError struct {
	Field  string
	Reason string
}

func (e *AtlasConfigError) Error() string {
	return "lightatlas: invalid atlas option " + e.Field + ": " + e.Reason
}

// ShadowConfigError represents a shadow atlas configuration validation
// error.
type ShadowConfigError struct {
	Field  string
	Reason string
}

func (e *ShadowConfigError) Error() string {
	return "lightatlas: invalid shadow atlas config " + e.Field + ": " + e.Reason
}

// TextureConfigError represents a texture descriptor validation error.
type TextureConfigError struct {
	Field  string
	Reason string
}

func (e *TextureConfigError) Error() string {
	return "lightatlas: invalid texture descriptor " + e.Field + ": " + e.Reason
}
