package fimage

import "math"

// Vec3 is a 3-component direction/position vector.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the cross product of v and o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Length returns the Euclidean length of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns v scaled to unit length.
// The zero vector normalizes to +Z to keep downstream math finite.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{0, 0, 1}
	}
	return v.Scale(1 / l)
}

// EquirectUV maps a direction to equirectangular texture coordinates.
// u wraps longitude with u=0.5 facing +Z; v runs top (+Y, v=0) to
// bottom (-Y, v=1).
func EquirectUV(dir Vec3) (u, v float64) {
	d := dir.Normalize()
	u = math.Atan2(d.X, d.Z)/(2*math.Pi) + 0.5
	v = 0.5 - math.Asin(clampF(d.Y, -1, 1))/math.Pi
	return u, v
}

// EquirectDir is the inverse of EquirectUV.
func EquirectDir(u, v float64) Vec3 {
	lon := (u - 0.5) * 2 * math.Pi
	lat := (0.5 - v) * math.Pi
	cosLat := math.Cos(lat)
	return Vec3{
		X: math.Sin(lon) * cosLat,
		Y: math.Sin(lat),
		Z: math.Cos(lon) * cosLat,
	}
}

// Cube face indices follow the WebGPU array-layer order.
const (
	CubePosX = 0
	CubeNegX = 1
	CubePosY = 2
	CubeNegY = 3
	CubePosZ = 4
	CubeNegZ = 5
)

// CubeFaceDir maps face-local texture coordinates (u, v in [0,1]) on the
// given cube face to a normalized direction.
func CubeFaceDir(face int, u, v float64) Vec3 {
	// Face-local coords in [-1,1], v flipped so v=0 is the top row
	a := 2*u - 1
	b := 1 - 2*v

	var d Vec3
	switch face {
	case CubePosX:
		d = Vec3{1, b, -a}
	case CubeNegX:
		d = Vec3{-1, b, a}
	case CubePosY:
		d = Vec3{a, 1, -b}
	case CubeNegY:
		d = Vec3{a, -1, b}
	case CubePosZ:
		d = Vec3{a, b, 1}
	default: // CubeNegZ
		d = Vec3{-a, b, -1}
	}
	return d.Normalize()
}

// DirCubeFace maps a direction to its cube face and face-local texture
// coordinates. It is the inverse of CubeFaceDir.
func DirCubeFace(dir Vec3) (face int, u, v float64) {
	ax, ay, az := math.Abs(dir.X), math.Abs(dir.Y), math.Abs(dir.Z)

	var ma, sc, tc float64
	switch {
	case ax >= ay && ax >= az:
		ma = ax
		if dir.X >= 0 {
			face, sc, tc = CubePosX, -dir.Z, dir.Y
		} else {
			face, sc, tc = CubeNegX, dir.Z, dir.Y
		}
	case ay >= az:
		ma = ay
		if dir.Y >= 0 {
			face, sc, tc = CubePosY, dir.X, -dir.Z
		} else {
			face, sc, tc = CubeNegY, dir.X, dir.Z
		}
	default:
		ma = az
		if dir.Z >= 0 {
			face, sc, tc = CubePosZ, dir.X, dir.Y
		} else {
			face, sc, tc = CubeNegZ, -dir.X, dir.Y
		}
	}
	if ma == 0 {
		return face, 0.5, 0.5
	}
	u = (sc/ma + 1) / 2
	v = (1 - tc/ma) / 2
	return face, u, v
}

// OrthonormalBasis builds tangent and bitangent vectors perpendicular to
// the given unit normal.
func OrthonormalBasis(n Vec3) (t, b Vec3) {
	// Pick the axis least aligned with n to avoid a degenerate cross
	up := Vec3{0, 1, 0}
	if math.Abs(n.Y) > 0.999 {
		up = Vec3{1, 0, 0}
	}
	t = up.Cross(n).Normalize()
	b = n.Cross(t)
	return t, b
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
