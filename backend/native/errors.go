package native

import "errors"

// Package sentinel errors.
var (
	// ErrNilHALDevice is returned when constructing over a nil HAL device
	// or queue.
	ErrNilHALDevice = errors.New("native: HAL device is nil")

	// ErrNotInitialized is returned when a resampler is used before its
	// pipelines were built.
	ErrNotInitialized = errors.New("native: resampler not initialized")

	// ErrNoAdapter is returned by Open when no GPU adapter is available.
	ErrNoAdapter = errors.New("native: no GPU adapter available")

	// ErrTextureDestroyed is returned when operating on a destroyed texture.
	ErrTextureDestroyed = errors.New("native: texture has been destroyed")

	// ErrDeviceDestroyed is returned when operating on a destroyed device.
	ErrDeviceDestroyed = errors.New("native: device has been destroyed")

	// ErrUnsupportedFormat is returned when a texture format has no HAL
	// equivalent.
	ErrUnsupportedFormat = errors.New("native: unsupported texture format")
)
