package animation

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/skeleton"
)

const eps = 1e-5

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) <= eps
}

func nearVec3(a, b [3]float32) bool {
	return near(a[0], b[0]) && near(a[1], b[1]) && near(a[2], b[2])
}

// sameRotation treats q and -q as equal.
func sameRotation(a, b [4]float32) bool {
	d := math.Abs(float64(common.QuatDot(common.QuatNormalize(a), common.QuatNormalize(b))))
	return math.Abs(d-1) <= eps
}

func key(t float32, pos [3]float32, rot [4]float32) BoneKeyframe {
	return BoneKeyframe{Time: t, Translation: pos, Rotation: rot, Scale: [3]float32{1, 1, 1}}
}

func walk() *SkeletalAnimation {
	a := NewSkeletalAnimation("Walk", 2.0, true)
	id := common.QuatIdentity()
	a.AddTrack(1, []BoneKeyframe{
		key(0, [3]float32{0, 0, 0.5}, id),
		key(1, [3]float32{0, 0, -0.5}, common.QuatFromAxisAngle([3]float32{0, 1, 0}, math.Pi/2)),
		key(2, [3]float32{0, 0, 0.5}, id),
	})
	return a
}

func TestSampleBoneWalkMidpoint(t *testing.T) {
	k, ok := walk().SampleBone(1, 0.5)
	if !ok {
		t.Fatal("SampleBone(1, 0.5) ok = false")
	}
	if !nearVec3(k.Translation, [3]float32{0, 0, 0}) {
		t.Errorf("translation = %v, want [0 0 0]", k.Translation)
	}
	want := common.QuatFromAxisAngle([3]float32{0, 1, 0}, math.Pi/4)
	if !sameRotation(k.Rotation, want) {
		t.Errorf("rotation = %v, want %v", k.Rotation, want)
	}
}

func TestSampleBoneNoTrack(t *testing.T) {
	if _, ok := walk().SampleBone(0, 0.5); ok {
		t.Error("SampleBone on an untracked bone returned ok = true")
	}
}

func TestSampleBoneSingleKey(t *testing.T) {
	a := NewSkeletalAnimation("Pose", 1, false)
	only := key(0.25, [3]float32{1, 2, 3}, common.QuatFromAxisAngle([3]float32{1, 0, 0}, 0.3))
	a.AddTrack(0, []BoneKeyframe{only})
	for _, tm := range []float32{-4, 0, 0.25, 0.9, 100} {
		k, ok := a.SampleBone(0, tm)
		if !ok || k != only {
			t.Errorf("SampleBone(0, %v) = %v, %v, want %v", tm, k, ok, only)
		}
	}
}

func TestSampleBoneExactKeyTimes(t *testing.T) {
	a := walk()
	for _, stored := range a.Tracks[1] {
		if stored.Time >= a.Duration {
			continue
		}
		k, ok := a.SampleBone(1, stored.Time)
		if !ok {
			t.Fatalf("SampleBone(1, %v) ok = false", stored.Time)
		}
		if k.Translation != stored.Translation || k.Rotation != stored.Rotation || k.Scale != stored.Scale {
			t.Errorf("SampleBone(1, %v) = %v, want stored %v", stored.Time, k, stored)
		}
	}
}

func TestSampleBoneLoopingWrap(t *testing.T) {
	tests := []struct {
		name string
		anim *SkeletalAnimation
	}{
		{name: "closed loop", anim: walk()},
		{
			name: "open loop wraps from last key",
			anim: func() *SkeletalAnimation {
				a := NewSkeletalAnimation("Sway", 2, true)
				a.AddTrack(0, []BoneKeyframe{
					key(0, [3]float32{0, 0, 0}, common.QuatIdentity()),
					key(1, [3]float32{1, 0, 0}, common.QuatFromAxisAngle([3]float32{0, 0, 1}, 1)),
				})
				return a
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for bone := range tt.anim.Tracks {
				k0, _ := tt.anim.SampleBone(bone, 0)
				kd, _ := tt.anim.SampleBone(bone, tt.anim.Duration)
				if !nearVec3(k0.Translation, kd.Translation) || !sameRotation(k0.Rotation, kd.Rotation) {
					t.Errorf("bone %d: sample(duration) = %v, sample(0) = %v", bone, kd, k0)
				}
				k2, _ := tt.anim.SampleBone(bone, 0.5+3*tt.anim.Duration)
				k1, _ := tt.anim.SampleBone(bone, 0.5)
				if !nearVec3(k1.Translation, k2.Translation) {
					t.Errorf("bone %d: wrapped sample %v != %v", bone, k2.Translation, k1.Translation)
				}
			}
		})
	}
}

func TestSampleBoneNonFiniteTimeSamplesStart(t *testing.T) {
	times := []float32{float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1))}
	for _, looping := range []bool{true, false} {
		a := walk()
		a.Looping = looping
		start, _ := a.SampleBone(1, 0)
		for _, tm := range times {
			got, ok := a.SampleBone(1, tm)
			if !ok || got != start {
				t.Errorf("looping=%v SampleBone(%v) = %v, want %v", looping, tm, got, start)
			}
		}
	}
}

func TestSampleBoneOpenLoopGapIsInterpolated(t *testing.T) {
	a := NewSkeletalAnimation("Sway", 2, true)
	a.AddTrack(0, []BoneKeyframe{
		key(0, [3]float32{0, 0, 0}, common.QuatIdentity()),
		key(1, [3]float32{1, 0, 0}, common.QuatIdentity()),
	})
	k, _ := a.SampleBone(0, 1.5)
	if !nearVec3(k.Translation, [3]float32{0.5, 0, 0}) {
		t.Errorf("translation in wrap gap = %v, want [0.5 0 0]", k.Translation)
	}
}

func TestSampleBoneNonLoopingClamps(t *testing.T) {
	a := NewSkeletalAnimation("Attack", 1, false)
	a.AddTrack(0, []BoneKeyframe{
		key(0, [3]float32{0, 0, 0}, common.QuatIdentity()),
		key(1, [3]float32{2, 0, 0}, common.QuatIdentity()),
	})
	tests := []struct {
		name string
		time float32
		want [3]float32
	}{
		{name: "before start", time: -1, want: [3]float32{0, 0, 0}},
		{name: "middle", time: 0.25, want: [3]float32{0.5, 0, 0}},
		{name: "past end", time: 10, want: [3]float32{2, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, ok := a.SampleBone(0, tt.time)
			if !ok || !nearVec3(k.Translation, tt.want) {
				t.Errorf("SampleBone(0, %v) = %v, want %v", tt.time, k.Translation, tt.want)
			}
		})
	}
}

func TestSampleBoneRotationsAreUnit(t *testing.T) {
	a := NewSkeletalAnimation("Spin", 1, true)
	a.AddTrack(0, []BoneKeyframe{
		key(0, [3]float32{}, [4]float32{0, 0, 0, 2}),
		key(0.3, [3]float32{}, common.QuatFromAxisAngle([3]float32{1, 1, 0}, 2.5)),
		key(0.6, [3]float32{}, common.QuatNegate(common.QuatFromAxisAngle([3]float32{0, 1, 0}, 0.1))),
		key(0.9, [3]float32{}, common.QuatFromAxisAngle([3]float32{0, 0, 1}, -3)),
	})
	for i := 0; i <= 200; i++ {
		tm := float32(i) * 0.013
		k, _ := a.SampleBone(0, tm)
		if l := common.QuatLength(k.Rotation); math.Abs(float64(l)-1) > eps && k.Time != 0 {
			t.Fatalf("|rotation| at %v = %v", tm, l)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		anim    *SkeletalAnimation
		wantErr bool
	}{
		{name: "valid", anim: walk()},
		{name: "empty name", anim: NewSkeletalAnimation("", 1, false), wantErr: true},
		{name: "zero duration", anim: NewSkeletalAnimation("A", 0, false), wantErr: true},
		{name: "infinite duration", anim: NewSkeletalAnimation("A", float32(math.Inf(1)), false), wantErr: true},
		{
			name: "nan key time",
			anim: func() *SkeletalAnimation {
				a := NewSkeletalAnimation("A", 1, false)
				a.AddTrack(0, []BoneKeyframe{IdentityKeyframe(0), IdentityKeyframe(float32(math.NaN()))})
				return a
			}(),
			wantErr: true,
		},
		{
			name: "unsorted",
			anim: func() *SkeletalAnimation {
				a := NewSkeletalAnimation("A", 1, false)
				a.AddTrack(0, []BoneKeyframe{IdentityKeyframe(0.5), IdentityKeyframe(0.2)})
				return a
			}(),
			wantErr: true,
		},
		{
			name: "duplicate time",
			anim: func() *SkeletalAnimation {
				a := NewSkeletalAnimation("A", 1, false)
				a.AddTrack(0, []BoneKeyframe{IdentityKeyframe(0.5), IdentityKeyframe(0.5)})
				return a
			}(),
			wantErr: true,
		},
		{
			name: "past duration",
			anim: func() *SkeletalAnimation {
				a := NewSkeletalAnimation("A", 1, false)
				a.AddTrack(0, []BoneKeyframe{IdentityKeyframe(0), IdentityKeyframe(1.5)})
				return a
			}(),
			wantErr: true,
		},
		{
			name: "empty track",
			anim: func() *SkeletalAnimation {
				a := NewSkeletalAnimation("A", 1, false)
				a.AddTrack(3, nil)
				return a
			}(),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.anim.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, common.ErrStructure) {
				t.Errorf("error %v does not match ErrStructure", err)
			}
		})
	}
}

func TestSamplePoseFallsBackToRest(t *testing.T) {
	rest := common.IdentityTransform()
	rest.Translation = [3]float32{7, 7, 7}
	bones := []skeleton.Bone{
		{ID: 0, Name: "root", Parent: skeleton.NoParent, Rest: rest},
		{ID: 1, Name: "hip", Parent: 0, Rest: common.IdentityTransform()},
	}
	skel, err := skeleton.NewSkeleton(bones, 0)
	if err != nil {
		t.Fatalf("NewSkeleton() error = %v", err)
	}
	a := walk()
	if err := a.ValidateAgainst(skel); err != nil {
		t.Fatalf("ValidateAgainst() error = %v", err)
	}
	pose := a.SamplePose(skel, 0.5, nil)
	if pose[0] != rest {
		t.Errorf("untracked bone = %v, want rest %v", pose[0], rest)
	}
	if !nearVec3(pose[1].Translation, [3]float32{}) {
		t.Errorf("tracked bone translation = %v", pose[1].Translation)
	}
}

func TestLibrary(t *testing.T) {
	lib, err := NewLibrary(walk())
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}
	if _, ok := lib.Animation("Walk"); !ok {
		t.Error("Animation(Walk) not found")
	}
	if _, ok := lib.Animation("Run"); ok {
		t.Error("Animation(Run) found")
	}
	if err := lib.Add(walk()); !errors.Is(err, common.ErrStructure) {
		t.Errorf("duplicate Add() error = %v, want ErrStructure", err)
	}
	if err := lib.Add(NewSkeletalAnimation("", 1, true)); !errors.Is(err, common.ErrStructure) {
		t.Errorf("invalid Add() error = %v, want ErrStructure", err)
	}
	if names := lib.Names(); len(names) != 1 || names[0] != "Walk" {
		t.Errorf("Names() = %v", names)
	}
}
