package blend_tree

import (
	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/skeleton"
)

// BlendWeighted mixes poses per bone with the given weights, normalized over the positive ones.
// Translation and scale are weighted sums; rotation is accumulated by pairwise SLERP in input
// order, which equals a weighted rotation average for two inputs and stays deterministic for more.
// A single positive weight returns a copy of that pose untouched, and no positive weight yields
// the rest pose. Entries with a non-positive weight may have a nil pose.
//
// Parameters:
//   - skel: the skeleton the poses belong to
//   - poses: the source poses
//   - weights: one weight per pose
//
// Returns:
//   - skeleton.Pose: the blended pose
func BlendWeighted(skel *skeleton.Skeleton, poses []skeleton.Pose, weights []float32) skeleton.Pose {
	var total float32
	active, last := 0, -1
	for i := range poses {
		if i < len(weights) && weights[i] > 0 {
			total += weights[i]
			active++
			last = i
		}
	}
	switch active {
	case 0:
		return skel.RestPose()
	case 1:
		return fill(skel, poses[last])
	}

	out := make(skeleton.Pose, skel.BoneCount())
	for b := range out {
		var t, s [3]float32
		var q [4]float32
		var acc float32
		for i, p := range poses {
			if i >= len(weights) || weights[i] <= 0 {
				continue
			}
			w := weights[i] / total
			x := skel.LocalTransform(b, p)
			t = common.Vec3Add(t, common.Vec3Scale(x.Translation, w))
			s = common.Vec3Add(s, common.Vec3Scale(x.Scale, w))
			if acc == 0 {
				q = common.QuatNormalize(x.Rotation)
			} else {
				q = common.QuatSlerp(q, x.Rotation, w/(acc+w))
			}
			acc += w
		}
		out[b] = common.Transform{Translation: t, Rotation: common.QuatNormalize(q), Scale: s}
	}
	return out
}

// BlendPoses linearly crossfades from pose a to pose b: t <= 0 copies a, t >= 1 copies b,
// anything between LERPs translation/scale and SLERPs rotation per bone.
//
// Parameters:
//   - skel: the skeleton the poses belong to
//   - a: the outgoing pose
//   - b: the incoming pose
//   - t: the blend factor
//
// Returns:
//   - skeleton.Pose: the blended pose
func BlendPoses(skel *skeleton.Skeleton, a, b skeleton.Pose, t float32) skeleton.Pose {
	if t <= 0 {
		return fill(skel, a)
	}
	if t >= 1 {
		return fill(skel, b)
	}
	out := make(skeleton.Pose, skel.BoneCount())
	for i := range out {
		x, y := skel.LocalTransform(i, a), skel.LocalTransform(i, b)
		out[i] = common.Transform{
			Translation: common.Vec3Lerp(x.Translation, y.Translation, t),
			Rotation:    common.QuatSlerp(x.Rotation, y.Rotation, t),
			Scale:       common.Vec3Lerp(x.Scale, y.Scale, t),
		}
	}
	return out
}

// fill copies p into a full-length pose, using rest transforms for bones p does not cover.
func fill(skel *skeleton.Skeleton, p skeleton.Pose) skeleton.Pose {
	out := make(skeleton.Pose, skel.BoneCount())
	for i := range out {
		out[i] = skel.LocalTransform(i, p)
	}
	return out
}
