package lightatlas

// LightType identifies the shadow projection of a light.
type LightType uint8

const (
	// LightSpot projects through a single cone-shaped shadow face.
	LightSpot LightType = iota

	// LightOmni projects through six cube faces.
	LightOmni
)

// String implements fmt.Stringer.
func (t LightType) String() string {
	switch t {
	case LightSpot:
		return "spot"
	case LightOmni:
		return "omni"
	default:
		return "unknown"
	}
}

// FaceRenderData carries the atlas placement for one shadow face.
// Rectangles are normalized to [0, 1] atlas coordinates. The shadow
// atlas rewrites both on every active frame.
type FaceRenderData struct {
	// Viewport is the region depth rendering draws into.
	Viewport Rect

	// Scissor is the clip region, the full slot cell.
	Scissor Rect
}

// ShadowCaster is the per-light view of the shadow atlas. The atlas
// reads the light's qualification state, writes slot placement into its
// face render data, and hands it a shadow map texture.
type ShadowCaster interface {
	// LightType reports the light's shadow projection.
	LightType() LightType

	// Visible reports whether the light participates in rendering.
	Visible() bool

	// CastsShadows reports whether the light wants shadow map space.
	CastsShadows() bool

	// ShadowFaceCount is the number of atlas slots the light needs:
	// 1 for spot lights, 6 for omni lights.
	ShadowFaceCount() int

	// FaceRenderData returns mutable placement data for one face, or
	// nil when face is out of range.
	FaceRenderData(face int) *FaceRenderData

	// SetShadowMap points the light at its shadow texture.
	SetShadowMap(tex Texture)

	// ShadowMap returns the texture set by SetShadowMap, or nil.
	ShadowMap() Texture
}

// baseLight carries the state shared by the concrete light types.
type baseLight struct {
	kind         LightType
	visible      bool
	castsShadows bool
	shadowMap    Texture
	faces        []FaceRenderData
}

func newBaseLight(kind LightType, faceCount int) baseLight {
	return baseLight{
		kind:         kind,
		visible:      true,
		castsShadows: true,
		faces:        make([]FaceRenderData, faceCount),
	}
}

func (l *baseLight) LightType() LightType { return l.kind }

func (l *baseLight) Visible() bool { return l.visible }

// SetVisible toggles whether the light participates in rendering.
func (l *baseLight) SetVisible(v bool) { l.visible = v }

func (l *baseLight) CastsShadows() bool { return l.castsShadows }

// SetCastsShadows toggles whether the light requests atlas space.
func (l *baseLight) SetCastsShadows(v bool) { l.castsShadows = v }

func (l *baseLight) ShadowFaceCount() int { return len(l.faces) }

func (l *baseLight) FaceRenderData(face int) *FaceRenderData {
	if face < 0 || face >= len(l.faces) {
		return nil
	}
	return &l.faces[face]
}

func (l *baseLight) SetShadowMap(tex Texture) { l.shadowMap = tex }

func (l *baseLight) ShadowMap() Texture { return l.shadowMap }

// SpotLight is a cone light occupying a single shadow atlas slot.
type SpotLight struct {
	baseLight
}

// NewSpotLight creates a visible, shadow-casting spot light.
func NewSpotLight() *SpotLight {
	return &SpotLight{baseLight: newBaseLight(LightSpot, 1)}
}

// OmniLight is a point light occupying six shadow atlas slots, one per
// cube face.
type OmniLight struct {
	baseLight
}

// NewOmniLight creates a visible, shadow-casting omni light.
func NewOmniLight() *OmniLight {
	return &OmniLight{baseLight: newBaseLight(LightOmni, 6)}
}

var (
	_ ShadowCaster = (*SpotLight)(nil)
	_ ShadowCaster = (*OmniLight)(nil)
)
