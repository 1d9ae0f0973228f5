package common

import "math"

// Vec3Add returns a + b.
func Vec3Add(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Vec3Sub returns a - b.
func Vec3Sub(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Vec3Scale returns v * s.
func Vec3Scale(v [3]float32, s float32) [3]float32 {
	return [3]float32{v[0] * s, v[1] * s, v[2] * s}
}

// Vec3Dot returns the dot product of a and b.
func Vec3Dot(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// Vec3Cross returns the cross product a x b.
func Vec3Cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Vec3Length returns the Euclidean length of v.
func Vec3Length(v [3]float32) float32 {
	return float32(math.Sqrt(float64(Vec3Dot(v, v))))
}

// Vec3Distance returns |a - b|.
func Vec3Distance(a, b [3]float32) float32 {
	return Vec3Length(Vec3Sub(a, b))
}

// Vec3Normalize scales v to unit length.
//
// Parameters:
//   - v: the vector to normalize
//
// Returns:
//   - [3]float32: the unit vector, or the zero vector when v is too short to normalize
//   - bool: false when v had (near) zero length
func Vec3Normalize(v [3]float32) ([3]float32, bool) {
	l := Vec3Length(v)
	if l < 1e-8 || l != l {
		return [3]float32{}, false
	}
	return Vec3Scale(v, 1/l), true
}

// Vec3Lerp linearly interpolates between a and b component-wise.
func Vec3Lerp(a, b [3]float32, t float32) [3]float32 {
	return [3]float32{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

// Vec3Orthogonal returns a unit vector perpendicular to v, picked deterministically by
// crossing with the world axis least aligned with v.
func Vec3Orthogonal(v [3]float32) [3]float32 {
	ax, ay, az := abs32(v[0]), abs32(v[1]), abs32(v[2])
	axis := [3]float32{1, 0, 0}
	if ay < ax && ay <= az {
		axis = [3]float32{0, 1, 0}
	} else if az < ax && az < ay {
		axis = [3]float32{0, 0, 1}
	}
	n, ok := Vec3Normalize(Vec3Cross(v, axis))
	if !ok {
		return [3]float32{0, 1, 0}
	}
	return n
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
