package common

import (
	"errors"
	"math"
	"testing"
)

func TestComposeTRSMatchesPointTransform(t *testing.T) {
	tr := Transform{
		Translation: [3]float32{1, 2, 3},
		Rotation:    QuatFromAxisAngle([3]float32{0, 0, 1}, math.Pi/2),
		Scale:       [3]float32{2, 2, 2},
	}
	m := tr.Matrix()
	// scale, then rotate X onto Y, then translate
	if got := TransformPoint(m[:], [3]float32{1, 0, 0}); !vecNear(got, [3]float32{1, 4, 3}, 1e-5) {
		t.Errorf("TransformPoint = %v, want (1, 4, 3)", got)
	}
	if got := MatrixTranslation(m[:]); got != tr.Translation {
		t.Errorf("MatrixTranslation = %v, want %v", got, tr.Translation)
	}
}

func TestMul4AndInvert4(t *testing.T) {
	tr := Transform{
		Translation: [3]float32{-3, 0.5, 7},
		Rotation:    QuatFromAxisAngle([3]float32{1, 2, 3}, 1.1),
		Scale:       [3]float32{1, 0.5, 2},
	}
	m := tr.Matrix()
	var inv, prod [16]float32
	if !Invert4(inv[:], m[:]) {
		t.Fatal("Invert4() reported singular matrix")
	}
	Mul4(prod[:], m[:], inv[:])
	id := IdentityMatrix()
	for i := range prod {
		if math.Abs(float64(prod[i]-id[i])) > 1e-5 {
			t.Fatalf("m * m^-1 = %v, want identity", prod)
		}
	}

	var zero [16]float32
	out := IdentityMatrix()
	if Invert4(out[:], zero[:]) {
		t.Error("Invert4(zero) reported success")
	}
	if out != IdentityMatrix() {
		t.Error("Invert4(zero) modified the output")
	}
}

func TestMul4Aliasing(t *testing.T) {
	a := Transform{Translation: [3]float32{1, 0, 0}, Rotation: QuatIdentity(), Scale: [3]float32{1, 1, 1}}.Matrix()
	b := a
	Mul4(a[:], a[:], b[:])
	if got := MatrixTranslation(a[:]); got != [3]float32{2, 0, 0} {
		t.Errorf("in-place Mul4 translation = %v, want (2, 0, 0)", got)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, want float32
	}{
		{v: -1, want: 0},
		{v: 0.5, want: 0.5},
		{v: 3, want: 1},
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, 0, 1); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestStructureError(t *testing.T) {
	err := NewStructureError("skeleton", "bone %d is missing", 4)
	if err.Error() != "skeleton: bone 4 is missing" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrStructure) {
		t.Error("StructureError does not match ErrStructure")
	}
	var target *StructureError
	if !errors.As(error(err), &target) || target.Subject != "skeleton" {
		t.Errorf("errors.As = %+v", target)
	}
}
