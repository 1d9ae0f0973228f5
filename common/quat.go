package common

import "math"

// quatLerpThreshold is the dot product above which two quaternions are treated as
// nearly parallel and interpolated linearly instead of spherically.
const quatLerpThreshold = 0.9995

// QuatIdentity returns the identity rotation (x, y, z, w) = (0, 0, 0, 1).
//
// Returns:
//   - [4]float32: the identity quaternion
func QuatIdentity() [4]float32 {
	return [4]float32{0, 0, 0, 1}
}

// QuatLength returns the Euclidean norm of q.
func QuatLength(q [4]float32) float32 {
	return float32(math.Sqrt(float64(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])))
}

// QuatDot returns the 4D dot product of a and b.
func QuatDot(a, b [4]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
}

// QuatNormalize scales q to unit length. A zero-length quaternion (or one containing NaN)
// normalizes to the identity rotation instead of propagating invalid values.
//
// Parameters:
//   - q: the quaternion to normalize (x, y, z, w)
//
// Returns:
//   - [4]float32: the unit quaternion
func QuatNormalize(q [4]float32) [4]float32 {
	l := QuatLength(q)
	if l == 0 || l != l {
		return QuatIdentity()
	}
	inv := 1 / l
	return [4]float32{q[0] * inv, q[1] * inv, q[2] * inv, q[3] * inv}
}

// QuatNegate returns -q, which represents the same rotation on the opposite hemisphere.
func QuatNegate(q [4]float32) [4]float32 {
	return [4]float32{-q[0], -q[1], -q[2], -q[3]}
}

// QuatConjugate returns the conjugate of q. For unit quaternions this is the inverse rotation.
func QuatConjugate(q [4]float32) [4]float32 {
	return [4]float32{-q[0], -q[1], -q[2], q[3]}
}

// QuatInverse returns the multiplicative inverse of q. A zero quaternion yields the identity.
func QuatInverse(q [4]float32) [4]float32 {
	n := QuatDot(q, q)
	if n == 0 {
		return QuatIdentity()
	}
	c := QuatConjugate(q)
	inv := 1 / n
	return [4]float32{c[0] * inv, c[1] * inv, c[2] * inv, c[3] * inv}
}

// QuatMul returns the Hamilton product a * b: the rotation b followed by a.
//
// Parameters:
//   - a: left-hand quaternion (x, y, z, w)
//   - b: right-hand quaternion (x, y, z, w)
//
// Returns:
//   - [4]float32: the composed rotation
func QuatMul(a, b [4]float32) [4]float32 {
	return [4]float32{
		a[3]*b[0] + a[0]*b[3] + a[1]*b[2] - a[2]*b[1],
		a[3]*b[1] - a[0]*b[2] + a[1]*b[3] + a[2]*b[0],
		a[3]*b[2] + a[0]*b[1] - a[1]*b[0] + a[2]*b[3],
		a[3]*b[3] - a[0]*b[0] - a[1]*b[1] - a[2]*b[2],
	}
}

// QuatFromAxisAngle builds a rotation of angle radians about axis. The axis is normalized;
// a zero axis yields the identity rotation.
//
// Parameters:
//   - axis: the rotation axis
//   - angle: the rotation angle in radians
//
// Returns:
//   - [4]float32: the unit quaternion (x, y, z, w)
func QuatFromAxisAngle(axis [3]float32, angle float32) [4]float32 {
	n, ok := Vec3Normalize(axis)
	if !ok {
		return QuatIdentity()
	}
	half := float64(angle) * 0.5
	s := float32(math.Sin(half))
	return [4]float32{n[0] * s, n[1] * s, n[2] * s, float32(math.Cos(half))}
}

// QuatRotateVec3 rotates v by the unit quaternion q.
func QuatRotateVec3(q [4]float32, v [3]float32) [3]float32 {
	// v' = v + 2w(u x v) + 2u x (u x v)
	u := [3]float32{q[0], q[1], q[2]}
	t := Vec3Scale(Vec3Cross(u, v), 2)
	return Vec3Add(Vec3Add(v, Vec3Scale(t, q[3])), Vec3Cross(u, t))
}

// QuatBetween returns the shortest rotation taking direction from onto direction to.
// Both inputs are normalized first; a zero input yields the identity. Opposite directions
// rotate by π about an axis orthogonal to from.
//
// Parameters:
//   - from: the starting direction
//   - to: the desired direction
//
// Returns:
//   - [4]float32: the unit quaternion (x, y, z, w)
func QuatBetween(from, to [3]float32) [4]float32 {
	u, okU := Vec3Normalize(from)
	v, okV := Vec3Normalize(to)
	if !okU || !okV {
		return QuatIdentity()
	}
	d := Vec3Dot(u, v)
	if d >= 1-1e-6 {
		return QuatIdentity()
	}
	if d <= -1+1e-6 {
		return QuatFromAxisAngle(Vec3Orthogonal(u), math.Pi)
	}
	c := Vec3Cross(u, v)
	return QuatNormalize([4]float32{c[0], c[1], c[2], 1 + d})
}

// QuatSlerp spherically interpolates between a and b along the shorter arc.
// Inputs are normalized, b is negated when the dot product is negative, nearly parallel
// inputs fall back to a normalized linear interpolation, and the result is renormalized.
// t == 0 and t == 1 return the (normalized) endpoints unchanged.
//
// Parameters:
//   - a: the start rotation (x, y, z, w)
//   - b: the end rotation (x, y, z, w)
//   - t: the interpolation factor in [0, 1]
//
// Returns:
//   - [4]float32: the interpolated unit quaternion
func QuatSlerp(a, b [4]float32, t float32) [4]float32 {
	qa := QuatNormalize(a)
	qb := QuatNormalize(b)
	if t <= 0 {
		return qa
	}
	if t >= 1 {
		return qb
	}

	dot := QuatDot(qa, qb)
	if dot < 0 {
		qb = QuatNegate(qb)
		dot = -dot
	}

	if dot > quatLerpThreshold {
		return QuatNormalize([4]float32{
			qa[0] + (qb[0]-qa[0])*t,
			qa[1] + (qb[1]-qa[1])*t,
			qa[2] + (qb[2]-qa[2])*t,
			qa[3] + (qb[3]-qa[3])*t,
		})
	}

	theta := math.Acos(float64(min(dot, 1)))
	sinTheta := math.Sin(theta)
	sa := float32(math.Sin((1-float64(t))*theta) / sinTheta)
	sb := float32(math.Sin(float64(t)*theta) / sinTheta)

	return QuatNormalize([4]float32{
		qa[0]*sa + qb[0]*sb,
		qa[1]*sa + qb[1]*sb,
		qa[2]*sa + qb[2]*sb,
		qa[3]*sa + qb[3]*sb,
	})
}
