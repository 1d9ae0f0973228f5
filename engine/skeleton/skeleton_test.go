package skeleton

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-rig/common"
)

func bone(id int, name string, parent int, translation [3]float32) Bone {
	rest := common.IdentityTransform()
	rest.Translation = translation
	return Bone{
		ID:                id,
		Name:              name,
		Parent:            parent,
		Rest:              rest,
		InverseBindMatrix: common.IdentityMatrix(),
	}
}

func chainBones() []Bone {
	return []Bone{
		bone(0, "root", NoParent, [3]float32{0, 1, 0}),
		bone(1, "spine", 0, [3]float32{0, 1, 0}),
		bone(2, "head", 1, [3]float32{0, 0.5, 0}),
	}
}

func approxVec(a, b [3]float32, eps float64) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > eps {
			return false
		}
	}
	return true
}

func TestNewSkeletonValid(t *testing.T) {
	s, err := NewSkeleton(chainBones(), 0)
	if err != nil {
		t.Fatalf("NewSkeleton() error = %v", err)
	}
	if s.BoneCount() != 3 {
		t.Fatalf("BoneCount() = %d, want 3", s.BoneCount())
	}
	if got := s.Children(0); len(got) != 1 || got[0] != 1 {
		t.Errorf("Children(0) = %v, want [1]", got)
	}
	if b, ok := s.BoneByName("head"); !ok || b.ID != 2 {
		t.Errorf("BoneByName(head) = %v, %v", b, ok)
	}
	if _, ok := s.BoneByName("tail"); ok {
		t.Error("BoneByName(tail) found a bone")
	}
	if d := s.Depth(2); d != 2 {
		t.Errorf("Depth(2) = %d, want 2", d)
	}
	if roots := s.Roots(); len(roots) != 1 || roots[0] != 0 {
		t.Errorf("Roots() = %v, want [0]", roots)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		bones   []Bone
		root    int
		wantMsg string
	}{
		{
			name:    "empty",
			bones:   nil,
			root:    0,
			wantMsg: "no bones",
		},
		{
			name:    "root out of bounds",
			bones:   chainBones(),
			root:    99,
			wantMsg: "out of bounds",
		},
		{
			name: "root has parent",
			bones: []Bone{
				bone(0, "a", 1, [3]float32{}),
				bone(1, "b", NoParent, [3]float32{}),
			},
			root:    0,
			wantMsg: "has a parent",
		},
		{
			name: "sparse ids",
			bones: []Bone{
				bone(0, "a", NoParent, [3]float32{}),
				bone(5, "b", 0, [3]float32{}),
			},
			root:    0,
			wantMsg: "at index 1",
		},
		{
			name: "duplicate names",
			bones: []Bone{
				bone(0, "a", NoParent, [3]float32{}),
				bone(1, "a", 0, [3]float32{}),
			},
			root:    0,
			wantMsg: "is used by bones",
		},
		{
			name: "dangling parent",
			bones: []Bone{
				bone(0, "a", NoParent, [3]float32{}),
				bone(1, "b", 99, [3]float32{}),
			},
			root:    0,
			wantMsg: "non-existent parent",
		},
		{
			name: "self parent",
			bones: []Bone{
				bone(0, "a", NoParent, [3]float32{}),
				bone(1, "b", 1, [3]float32{}),
			},
			root:    0,
			wantMsg: "itself as parent",
		},
		{
			name: "cycle",
			bones: []Bone{
				bone(0, "a", NoParent, [3]float32{}),
				bone(1, "b", 3, [3]float32{}),
				bone(2, "c", 1, [3]float32{}),
				bone(3, "d", 2, [3]float32{}),
			},
			root:    0,
			wantMsg: "circular",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSkeleton(tt.bones, tt.root)
			if err == nil {
				t.Fatal("NewSkeleton() error = nil, want structure error")
			}
			if !errors.Is(err, common.ErrStructure) {
				t.Errorf("error %v does not match ErrStructure", err)
			}
			var se *common.StructureError
			if !errors.As(err, &se) {
				t.Fatalf("error %T is not *StructureError", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestAncestorChainsTerminate(t *testing.T) {
	bones := []Bone{
		bone(0, "hips", NoParent, [3]float32{}),
		bone(1, "spine", 0, [3]float32{}),
		bone(2, "l_leg", 0, [3]float32{}),
		bone(3, "r_leg", 0, [3]float32{}),
		bone(4, "neck", 1, [3]float32{}),
		bone(5, "head", 4, [3]float32{}),
		bone(6, "prop", NoParent, [3]float32{}),
	}
	s, err := NewSkeleton(bones, 0)
	if err != nil {
		t.Fatalf("NewSkeleton() error = %v", err)
	}
	for _, b := range s.Bones {
		steps := 0
		for cur := b.ID; cur != NoParent; cur = s.Bones[cur].Parent {
			steps++
			if steps > s.BoneCount() {
				t.Fatalf("bone %q: ancestor chain longer than bone count", b.Name)
			}
		}
	}
}

func TestWorldTransformComposesChain(t *testing.T) {
	s, err := NewSkeleton(chainBones(), 0)
	if err != nil {
		t.Fatalf("NewSkeleton() error = %v", err)
	}

	w := s.WorldTransform(2, nil)
	if got := common.MatrixTranslation(w[:]); !approxVec(got, [3]float32{0, 2.5, 0}, 1e-6) {
		t.Errorf("head rest position = %v, want [0 2.5 0]", got)
	}

	// rotating the spine 90 degrees about Z swings the head offset onto -X
	pose := s.RestPose()
	pose[1].Rotation = common.QuatFromAxisAngle([3]float32{0, 0, 1}, math.Pi/2)
	w = s.WorldTransform(2, pose)
	if got := common.MatrixTranslation(w[:]); !approxVec(got, [3]float32{-0.5, 2, 0}, 1e-5) {
		t.Errorf("head posed position = %v, want [-0.5 2 0]", got)
	}

	all := s.WorldTransforms(pose, nil)
	for i := range s.Bones {
		single := s.WorldTransform(i, pose)
		for k := range single {
			if math.Abs(float64(single[k]-all[i][k])) > 1e-6 {
				t.Fatalf("WorldTransforms()[%d] differs from WorldTransform at %d", i, k)
			}
		}
	}
}

func TestWorldTransformShortPoseFallsBackToRest(t *testing.T) {
	s, err := NewSkeleton(chainBones(), 0)
	if err != nil {
		t.Fatalf("NewSkeleton() error = %v", err)
	}
	pose := Pose{s.Bones[0].Rest}
	w := s.WorldTransform(2, pose)
	if got := common.MatrixTranslation(w[:]); !approxVec(got, [3]float32{0, 2.5, 0}, 1e-6) {
		t.Errorf("position = %v, want [0 2.5 0]", got)
	}
}

func TestUnknownBoneIDIsIdentity(t *testing.T) {
	s, err := NewSkeleton(chainBones(), 0)
	if err != nil {
		t.Fatalf("NewSkeleton() error = %v", err)
	}
	for _, id := range []int{-1, len(s.Bones), 99} {
		if got := s.WorldTransform(id, s.RestPose()); got != common.IdentityMatrix() {
			t.Errorf("WorldTransform(%d) = %v, want identity", id, got)
		}
		if got := s.LocalTransform(id, s.RestPose()); got != common.IdentityTransform() {
			t.Errorf("LocalTransform(%d) = %v, want identity", id, got)
		}
	}
}

func TestSkinningMatricesAtBindPoseAreIdentity(t *testing.T) {
	s, err := NewSkeleton(BindInverses(chainBones()), 0)
	if err != nil {
		t.Fatalf("NewSkeleton() error = %v", err)
	}
	palette := s.SkinningMatrices(s.RestPose(), nil)
	if len(palette) != 3*16 {
		t.Fatalf("len(palette) = %d, want 48", len(palette))
	}
	id := common.IdentityMatrix()
	for b := 0; b < 3; b++ {
		for k := 0; k < 16; k++ {
			if math.Abs(float64(palette[b*16+k]-id[k])) > 1e-5 {
				t.Fatalf("bone %d element %d = %v, want %v", b, k, palette[b*16+k], id[k])
			}
		}
	}
	if got := len(common.SliceToBytes(palette)); got != 3*16*4 {
		t.Errorf("palette bytes = %d, want %d", got, 3*16*4)
	}
}

func TestWorldRotations(t *testing.T) {
	s, err := NewSkeleton(chainBones(), 0)
	if err != nil {
		t.Fatalf("NewSkeleton() error = %v", err)
	}
	pose := s.RestPose()
	q := common.QuatFromAxisAngle([3]float32{0, 1, 0}, math.Pi/4)
	pose[0].Rotation = q
	pose[1].Rotation = q
	rots := s.WorldRotations(pose)
	want := common.QuatFromAxisAngle([3]float32{0, 1, 0}, math.Pi/2)
	if d := math.Abs(float64(common.QuatDot(rots[2], want))); math.Abs(d-1) > 1e-5 {
		t.Errorf("head world rotation = %v, want %v", rots[2], want)
	}
}
