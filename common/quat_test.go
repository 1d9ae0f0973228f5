package common

import (
	"math"
	"testing"
)

func quatNear(a, b [4]float32, tol float64) bool {
	// q and -q are the same rotation
	same, flipped := true, true
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > tol {
			same = false
		}
		if math.Abs(float64(a[i]+b[i])) > tol {
			flipped = false
		}
	}
	return same || flipped
}

func vecNear(a, b [3]float32, tol float64) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > tol {
			return false
		}
	}
	return true
}

func TestQuatSlerpUnitNorm(t *testing.T) {
	pairs := [][2][4]float32{
		{QuatIdentity(), QuatFromAxisAngle([3]float32{0, 1, 0}, math.Pi/2)},
		{QuatFromAxisAngle([3]float32{1, 0, 0}, 0.3), QuatFromAxisAngle([3]float32{0, 0, 1}, 2.9)},
		{QuatFromAxisAngle([3]float32{1, 1, 0}, 1), QuatNegate(QuatFromAxisAngle([3]float32{1, 1, 0}, 1.0001))},
		{[4]float32{0, 0, 0, 2}, [4]float32{0, 3, 0, 0}},
	}
	for i, p := range pairs {
		for step := 0; step <= 10; step++ {
			q := QuatSlerp(p[0], p[1], float32(step)/10)
			if l := QuatLength(q); math.Abs(float64(l)-1) > 1e-5 {
				t.Errorf("pair %d t=%v: |q| = %v", i, float32(step)/10, l)
			}
		}
	}
}

func TestQuatSlerpEndpointsAndMidpoint(t *testing.T) {
	a := QuatIdentity()
	b := QuatFromAxisAngle([3]float32{0, 1, 0}, math.Pi/2)

	if got := QuatSlerp(a, b, 0); got != a {
		t.Errorf("Slerp(t=0) = %v, want %v", got, a)
	}
	if got := QuatSlerp(a, b, 1); !quatNear(got, b, 1e-6) {
		t.Errorf("Slerp(t=1) = %v, want %v", got, b)
	}
	want := QuatFromAxisAngle([3]float32{0, 1, 0}, math.Pi/4)
	if got := QuatSlerp(a, b, 0.5); !quatNear(got, want, 1e-5) {
		t.Errorf("Slerp(t=0.5) = %v, want %v", got, want)
	}
}

func TestQuatSlerpTakesShorterArc(t *testing.T) {
	a := QuatIdentity()
	b := QuatNegate(QuatFromAxisAngle([3]float32{0, 0, 1}, 0.5))
	got := QuatSlerp(a, b, 0.5)
	want := QuatFromAxisAngle([3]float32{0, 0, 1}, 0.25)
	if !quatNear(got, want, 1e-5) {
		t.Errorf("Slerp across hemispheres = %v, want %v", got, want)
	}
}

func TestQuatRotateAndMul(t *testing.T) {
	qz := QuatFromAxisAngle([3]float32{0, 0, 1}, math.Pi/2)
	qx := QuatFromAxisAngle([3]float32{1, 0, 0}, math.Pi/2)

	if got := QuatRotateVec3(qz, [3]float32{1, 0, 0}); !vecNear(got, [3]float32{0, 1, 0}, 1e-6) {
		t.Errorf("Rz(90) * X = %v, want Y", got)
	}
	// (qx * qz) applies qz first, then qx: X -> Y -> Z
	if got := QuatRotateVec3(QuatMul(qx, qz), [3]float32{1, 0, 0}); !vecNear(got, [3]float32{0, 0, 1}, 1e-6) {
		t.Errorf("(Rx * Rz) * X = %v, want Z", got)
	}
	if got := QuatMul(qz, QuatInverse(qz)); !quatNear(got, QuatIdentity(), 1e-6) {
		t.Errorf("q * q^-1 = %v, want identity", got)
	}
}

func TestQuatBetween(t *testing.T) {
	tests := []struct {
		name     string
		from, to [3]float32
	}{
		{name: "x to y", from: [3]float32{1, 0, 0}, to: [3]float32{0, 1, 0}},
		{name: "unnormalized", from: [3]float32{0, 0, 5}, to: [3]float32{2, 2, 0}},
		{name: "same", from: [3]float32{0, 1, 0}, to: [3]float32{0, 3, 0}},
		{name: "opposite", from: [3]float32{0, 1, 0}, to: [3]float32{0, -1, 0}},
		{name: "opposite x", from: [3]float32{1, 0, 0}, to: [3]float32{-2, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := QuatBetween(tt.from, tt.to)
			if l := QuatLength(q); math.Abs(float64(l)-1) > 1e-5 {
				t.Fatalf("|q| = %v", l)
			}
			from, _ := Vec3Normalize(tt.from)
			to, _ := Vec3Normalize(tt.to)
			if got := QuatRotateVec3(q, from); !vecNear(got, to, 1e-5) {
				t.Errorf("q * from = %v, want %v", got, to)
			}
		})
	}
	if q := QuatBetween([3]float32{}, [3]float32{1, 0, 0}); q != QuatIdentity() {
		t.Errorf("QuatBetween(zero) = %v, want identity", q)
	}
}

func TestQuatNormalizeDegenerate(t *testing.T) {
	nan := float32(math.NaN())
	for _, q := range [][4]float32{{}, {nan, 0, 0, 1}} {
		if got := QuatNormalize(q); got != QuatIdentity() {
			t.Errorf("QuatNormalize(%v) = %v, want identity", q, got)
		}
	}
}
