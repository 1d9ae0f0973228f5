package animation

import (
	"fmt"
	"math"
	"sort"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/skeleton"
)

// BoneKeyframe stores a full local transform sample for one bone at a specific time.
type BoneKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Translation is the local position at this keyframe.
	Translation [3]float32

	// Rotation is the local rotation quaternion (x, y, z, w) at this keyframe.
	Rotation [4]float32

	// Scale is the local scale at this keyframe.
	Scale [3]float32
}

// IdentityKeyframe returns a keyframe at time t with no translation, identity rotation and unit scale.
func IdentityKeyframe(t float32) BoneKeyframe {
	return BoneKeyframe{
		Time:     t,
		Rotation: common.QuatIdentity(),
		Scale:    [3]float32{1, 1, 1},
	}
}

// Transform returns the keyframe's value as a local transform.
func (k BoneKeyframe) Transform() common.Transform {
	return common.Transform{
		Translation: k.Translation,
		Rotation:    k.Rotation,
		Scale:       k.Scale,
	}
}

// SkeletalAnimation is an immutable set of per-bone keyframe tracks (walk, run, attack, etc.).
// Bones without a track are left to the caller, who falls back to the rest pose.
type SkeletalAnimation struct {
	// Name is the animation identifier.
	Name string

	// Duration is the total length of the animation in seconds.
	Duration float32

	// Looping wraps sample times modulo Duration instead of clamping them.
	Looping bool

	// Tracks maps a bone id to its keyframes, ordered by strictly increasing time.
	Tracks map[int][]BoneKeyframe
}

// NewSkeletalAnimation creates an animation with no tracks.
//
// Parameters:
//   - name: the animation identifier
//   - duration: the total length in seconds
//   - looping: whether sample times wrap around
//
// Returns:
//   - *SkeletalAnimation: the empty animation
func NewSkeletalAnimation(name string, duration float32, looping bool) *SkeletalAnimation {
	return &SkeletalAnimation{
		Name:     name,
		Duration: duration,
		Looping:  looping,
		Tracks:   make(map[int][]BoneKeyframe),
	}
}

// AddTrack sets the keyframes for a bone, replacing any existing track.
// Only call this while building the animation, before it is shared.
func (a *SkeletalAnimation) AddTrack(boneID int, keys []BoneKeyframe) {
	if a.Tracks == nil {
		a.Tracks = make(map[int][]BoneKeyframe)
	}
	a.Tracks[boneID] = keys
}

// TrackCount returns the number of animated bones.
func (a *SkeletalAnimation) TrackCount() int {
	return len(a.Tracks)
}

// Validate checks the keyframe invariants: a non-empty name, a finite positive duration, and for every
// track at least one keyframe with non-negative, strictly increasing times no greater than Duration.
//
// Returns:
//   - error: a *common.StructureError describing the first violation, or nil
func (a *SkeletalAnimation) Validate() error {
	subject := fmt.Sprintf("animation %q", a.Name)
	if a.Name == "" {
		return common.NewStructureError("animation", "name cannot be empty")
	}
	if !(a.Duration > 0) || !common.IsFinite(a.Duration) {
		return common.NewStructureError(subject, "duration must be positive, got %v", a.Duration)
	}

	for _, boneID := range a.trackIDs() {
		keys := a.Tracks[boneID]
		if len(keys) == 0 {
			return common.NewStructureError(subject, "bone %d has an empty keyframe track", boneID)
		}
		for i, k := range keys {
			if !(k.Time >= 0) {
				return common.NewStructureError(subject, "bone %d has a keyframe with negative or NaN time %v", boneID, k.Time)
			}
			if k.Time > a.Duration {
				return common.NewStructureError(subject, "bone %d has a keyframe at %v past duration %v", boneID, k.Time, a.Duration)
			}
			if i > 0 && k.Time <= keys[i-1].Time {
				return common.NewStructureError(subject, "bone %d keyframe times are not strictly increasing (%v after %v)", boneID, k.Time, keys[i-1].Time)
			}
			if common.QuatLength(k.Rotation) == 0 {
				return common.NewStructureError(subject, "bone %d keyframe at %v has a zero rotation quaternion", boneID, k.Time)
			}
		}
	}
	return nil
}

// ValidateAgainst runs Validate and additionally checks that every track targets a bone of skel.
func (a *SkeletalAnimation) ValidateAgainst(skel *skeleton.Skeleton) error {
	if err := a.Validate(); err != nil {
		return err
	}
	for _, boneID := range a.trackIDs() {
		if _, ok := skel.Bone(boneID); !ok {
			return common.NewStructureError(fmt.Sprintf("animation %q", a.Name), "track targets bone %d which is not in the skeleton (%d bones)", boneID, skel.BoneCount())
		}
	}
	return nil
}

// trackIDs returns the animated bone ids in ascending order so validation reports deterministically.
func (a *SkeletalAnimation) trackIDs() []int {
	ids := make([]int, 0, len(a.Tracks))
	for id := range a.Tracks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// LocalTime maps an arbitrary playback time onto the animation's timeline: looping animations
// wrap modulo Duration into [0, Duration) (negative times wrap from the end), others clamp
// into [0, Duration].
func (a *SkeletalAnimation) LocalTime(t float32) float32 {
	if a.Duration <= 0 || !common.IsFinite(t) {
		return 0
	}
	if a.Looping {
		if t >= 0 && t < a.Duration {
			return t
		}
		m := float32(math.Mod(float64(t), float64(a.Duration)))
		if m < 0 {
			m += a.Duration
		}
		if m >= a.Duration {
			m = 0
		}
		return m
	}
	return common.Clamp(t, 0, a.Duration)
}

// SampleBone evaluates a bone's track at time t.
// Translation and scale are linearly interpolated, rotation uses shortest-arc SLERP.
// A time that lands exactly on a keyframe returns that keyframe's stored values.
//
// Parameters:
//   - boneID: the bone to sample
//   - t: the playback time in seconds (wrapped or clamped per Looping)
//
// Returns:
//   - BoneKeyframe: the sampled transform, with Time set to the effective local time
//   - bool: false when the bone has no track (the caller uses the rest pose)
func (a *SkeletalAnimation) SampleBone(boneID int, t float32) (BoneKeyframe, bool) {
	keys := a.Tracks[boneID]
	if len(keys) == 0 {
		return BoneKeyframe{}, false
	}
	if len(keys) == 1 {
		return keys[0], true
	}

	lt := a.LocalTime(t)
	first, last := keys[0], keys[len(keys)-1]

	if lt <= first.Time {
		if a.Looping && lt < first.Time && last.Time < a.Duration {
			// in the gap before the first key: interpolate across the wrap from the last key
			gap := (a.Duration - last.Time) + first.Time
			return interpolate(last, first, (lt+a.Duration-last.Time)/gap, lt), true
		}
		return first, true
	}
	if lt >= last.Time {
		if lt == last.Time {
			return last, true
		}
		if a.Looping {
			gap := (a.Duration - last.Time) + first.Time
			return interpolate(last, first, (lt-last.Time)/gap, lt), true
		}
		return last, true
	}

	// first index whose time is >= lt; guaranteed in [1, len-1] by the checks above
	i := sort.Search(len(keys), func(i int) bool { return keys[i].Time >= lt })
	k1 := keys[i]
	if k1.Time == lt {
		return k1, true
	}
	k0 := keys[i-1]

	var f float32
	if span := k1.Time - k0.Time; span > 0 {
		f = (lt - k0.Time) / span
	}
	return interpolate(k0, k1, f, lt), true
}

// SamplePose samples every track into dst, leaving untracked bones at their rest transform.
//
// Parameters:
//   - skel: the skeleton the animation targets
//   - t: the playback time in seconds
//   - dst: optional destination pose reused when it has room for every bone
//
// Returns:
//   - skeleton.Pose: the sampled local pose
func (a *SkeletalAnimation) SamplePose(skel *skeleton.Skeleton, t float32, dst skeleton.Pose) skeleton.Pose {
	n := skel.BoneCount()
	if cap(dst) < n {
		dst = make(skeleton.Pose, n)
	}
	dst = dst[:n]
	for i, b := range skel.Bones {
		if k, ok := a.SampleBone(i, t); ok {
			dst[i] = k.Transform()
		} else {
			dst[i] = b.Rest
		}
	}
	return dst
}

func interpolate(k0, k1 BoneKeyframe, f, t float32) BoneKeyframe {
	return BoneKeyframe{
		Time:        t,
		Translation: common.Vec3Lerp(k0.Translation, k1.Translation, f),
		Rotation:    common.QuatSlerp(k0.Rotation, k1.Rotation, f),
		Scale:       common.Vec3Lerp(k0.Scale, k1.Scale, f),
	}
}
