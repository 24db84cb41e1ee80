// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package lightatlas

import (
	"fmt"
	"math"
)

// Default shadow atlas parameters.
const (
	// DefaultShadowResolution is the edge length of the shared shadow
	// map texture.
	DefaultShadowResolution = 2048

	// DefaultMaxGridSize caps the slot grid at 8x8, 64 shadow faces.
	DefaultMaxGridSize = 8

	// spotShrinkPixels is the per-edge viewport inset, in shadow map
	// pixels, that keeps spot PCF taps from crossing into neighbor
	// slots.
	spotShrinkPixels = 4
)

// ShadowAtlasConfig configures a ShadowAtlas. Start from
// DefaultShadowAtlasConfig and adjust; a zero Resolution or MaxGridSize
// is replaced by its default.
type ShadowAtlasConfig struct {
	// Resolution is the edge length of the shared shadow texture.
	Resolution int

	// MaxGridSize caps the slot grid. Face counts needing a larger grid
	// are rejected with a CapacityError.
	MaxGridSize int

	// OmniShadows includes omni lights in slot assignment. When false
	// only spot lights receive slots and omni lights are left untouched.
	OmniShadows bool

	// Params receives the shared texture and resolution once per active
	// frame. Optional.
	Params ParameterSink

	// Cache, when set, pins the shared texture so shadow-map eviction
	// never collects it. Optional.
	Cache *ShadowMapCache
}

// DefaultShadowAtlasConfig returns the default configuration:
// 2048x2048, grid capped at 8x8, omni lights included.
func DefaultShadowAtlasConfig() ShadowAtlasConfig {
	return ShadowAtlasConfig{
		Resolution:  DefaultShadowResolution,
		MaxGridSize: DefaultMaxGridSize,
		OmniShadows: true,
	}
}

// Validate checks the configuration.
func (c *ShadowAtlasConfig) Validate() error {
	if c.Resolution <= 0 {
		return &ShadowConfigError{Field: "Resolution", Reason: "must be positive"}
	}
	if c.MaxGridSize < 1 {
		return &ShadowConfigError{Field: "MaxGridSize", Reason: "must be at least 1"}
	}
	return nil
}

// ShadowAtlasStats counts atlas activity since creation.
type ShadowAtlasStats struct {
	// Frames is the number of Update calls.
	Frames uint64

	// ActiveFrames is the number of frames with at least one qualifying
	// light.
	ActiveFrames uint64

	// GridRebuilds is the number of slot grid reallocations.
	GridRebuilds uint64

	// AssignedFaces is the total number of shadow faces assigned.
	AssignedFaces uint64
}

// ShadowAtlas packs the shadow maps of all qualifying lights into one
// shared texture, one grid cell per shadow face. Each frame it either
// idles (no qualifying lights; nothing is touched) or recomputes the
// minimal square grid fitting this frame's face count, hands every face
// a cell, and publishes the shared texture to the parameter sink.
//
// The grid is memoized: a constant face requirement across frames reuses
// the slot layout, so a light keeps its cell as long as the light set's
// shape is stable.
//
// ShadowAtlas is not safe for concurrent use; Update runs once per frame
// on the render thread.
type ShadowAtlas struct {
	device Device
	cfg    ShadowAtlasConfig

	texture    Texture
	resolution int

	grid         *SlotGrid
	lastGridSize int

	stats ShadowAtlasStats
}

// NewShadowAtlas creates a shadow atlas over the given texture factory.
// A nil cfg uses DefaultShadowAtlasConfig. No texture is created until
// the first active frame.
func NewShadowAtlas(device Device, cfg *ShadowAtlasConfig) (*ShadowAtlas, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	c := DefaultShadowAtlasConfig()
	if cfg != nil {
		c = *cfg
		if c.Resolution == 0 {
			c.Resolution = DefaultShadowResolution
		}
		if c.MaxGridSize == 0 {
			c.MaxGridSize = DefaultMaxGridSize
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &ShadowAtlas{device: device, cfg: c}, nil
}

// gridSizeFor returns the minimal square grid holding numFaces cells.
func gridSizeFor(numFaces int) int {
	if numFaces < 1 {
		return 1
	}
	return int(math.Ceil(math.Sqrt(float64(numFaces))))
}

// EnsureCapacity creates the shared shadow texture at the given
// resolution, or reuses the existing one when it already matches. The
// texture is a depth buffer when the device supports PCF, else a color
// buffer. The atlas owns the texture and destroys it in Destroy.
func (a *ShadowAtlas) EnsureCapacity(resolution int) error {
	if resolution <= 0 {
		return &ShadowConfigError{Field: "Resolution", Reason: "must be positive"}
	}
	if a.texture != nil && a.resolution == resolution {
		return nil
	}

	format := ShadowBufferFormat(a.device.Capabilities())
	tex, err := a.device.CreateTexture(&TextureDescriptor{
		Label:  "shadow-atlas",
		Width:  resolution,
		Height: resolution,
		Format: format,
	})
	if err != nil {
		return fmt.Errorf("ensure shadow capacity: %w", err)
	}

	a.releaseTexture()
	a.texture = tex
	a.resolution = resolution
	if a.cfg.Cache != nil {
		a.cfg.Cache.Pin(tex)
	}

	Logger().Debug("shadow atlas texture created",
		"resolution", resolution,
		"format", format)
	return nil
}

// Resize fits the slot grid to numFaces shadow faces,
// gridSize = ceil(sqrt(numFaces)). A gridSize above MaxGridSize returns
// a CapacityError and leaves all state untouched. A gridSize matching
// the previous call leaves the slot layout untouched.
func (a *ShadowAtlas) Resize(numFaces int) error {
	gridSize := gridSizeFor(numFaces)
	if gridSize > a.cfg.MaxGridSize {
		return &CapacityError{
			RequiredFaces: numFaces,
			GridSize:      gridSize,
			MaxGridSize:   a.cfg.MaxGridSize,
		}
	}
	if gridSize == a.lastGridSize {
		return nil
	}

	a.grid = NewSlotGrid(gridSize)
	a.lastGridSize = gridSize
	a.stats.GridRebuilds++

	Logger().Debug("shadow grid rebuilt",
		"gridSize", gridSize,
		"capacity", gridSize*gridSize)
	return nil
}

// Update runs one frame of shadow slot assignment. Lights qualify when
// visible and casting shadows; omni lights additionally require the
// OmniShadows policy. With no qualifying lights the frame is idle and
// nothing is touched. Otherwise the atlas ensures texture capacity,
// fits the grid to the total face count, and walks the qualifying
// lights in order (spot first, then omni), assigning each face the next
// cell as both viewport and scissor. Spot viewports shrink inward by
// spotShrinkPixels to suppress cross-slot PCF bleed; scissors stay the
// full cell. A capacity overflow returns a CapacityError with every
// light and all allocator state untouched.
func (a *ShadowAtlas) Update(spot []*SpotLight, omni []*OmniLight) error {
	a.stats.Frames++

	faces := 0
	for _, l := range spot {
		if qualifies(l) {
			faces += l.ShadowFaceCount()
		}
	}
	if a.cfg.OmniShadows {
		for _, l := range omni {
			if qualifies(l) {
				faces += l.ShadowFaceCount()
			}
		}
	}
	if faces == 0 {
		return nil
	}
	a.stats.ActiveFrames++

	// Reject before any texture or grid work so overflow is atomic.
	if gridSize := gridSizeFor(faces); gridSize > a.cfg.MaxGridSize {
		return &CapacityError{
			RequiredFaces: faces,
			GridSize:      gridSize,
			MaxGridSize:   a.cfg.MaxGridSize,
		}
	}

	if err := a.EnsureCapacity(a.cfg.Resolution); err != nil {
		return err
	}
	if err := a.Resize(faces); err != nil {
		return err
	}

	a.grid.Reset()
	for _, l := range spot {
		if qualifies(l) {
			a.assignFaces(l)
		}
	}
	if a.cfg.OmniShadows {
		for _, l := range omni {
			if qualifies(l) {
				a.assignFaces(l)
			}
		}
	}

	a.publish()
	return nil
}

// qualifies reports whether a light takes part in shadow assignment.
func qualifies(c ShadowCaster) bool {
	return c != nil && c.Visible() && c.CastsShadows()
}

// assignFaces hands every face of one light its grid cell and points the
// light at the shared texture.
func (a *ShadowAtlas) assignFaces(c ShadowCaster) {
	inset := float64(spotShrinkPixels) / float64(a.resolution)
	isSpot := c.LightType() == LightSpot

	count := c.ShadowFaceCount()
	for i := 0; i < count; i++ {
		slot, ok := a.grid.Take()
		if !ok {
			// Resize sized the grid for every qualifying face; running
			// out mid-walk means the light set changed during Update.
			Logger().Warn("shadow slot grid exhausted",
				"gridSize", a.grid.GridSize(),
				"light", c.LightType().String())
			return
		}

		frd := c.FaceRenderData(i)
		if frd == nil {
			continue
		}
		frd.Scissor = slot
		if isSpot {
			frd.Viewport = slot.Inset(inset)
		} else {
			frd.Viewport = slot
		}
		a.stats.AssignedFaces++
	}

	c.SetShadowMap(a.texture)
}

// publish pushes the shared texture and its resolution through the
// parameter sink.
func (a *ShadowAtlas) publish() {
	if a.cfg.Params == nil {
		return
	}
	a.cfg.Params.SetTexture(ShadowAtlasParam, a.texture)
	a.cfg.Params.SetFloat(ShadowAtlasResolutionParam, float64(a.resolution))
}

// ShadowMap returns the shared shadow texture, or nil before the first
// active frame.
func (a *ShadowAtlas) ShadowMap() Texture {
	return a.texture
}

// GridSize returns the current slot grid size, 0 before the first
// active frame.
func (a *ShadowAtlas) GridSize() int {
	return a.lastGridSize
}

// Resolution returns the resolution of the shared texture, 0 before the
// first active frame.
func (a *ShadowAtlas) Resolution() int {
	return a.resolution
}

// Stats returns a copy of the activity counters.
func (a *ShadowAtlas) Stats() ShadowAtlasStats {
	return a.stats
}

// Destroy releases the shared texture. The atlas stays usable; the next
// active frame recreates the texture. Safe to call more than once.
func (a *ShadowAtlas) Destroy() {
	a.releaseTexture()
}

func (a *ShadowAtlas) releaseTexture() {
	if a.texture == nil {
		return
	}
	if a.cfg.Cache != nil {
		a.cfg.Cache.Unpin(a.texture)
	}
	a.texture.Destroy()
	a.texture = nil
	a.resolution = 0
}
