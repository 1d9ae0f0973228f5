package blend_tree

import (
	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/skeleton"
)

// coincidentDistSq is the squared distance below which the blend point is considered to sit
// exactly on a Blend2D sample.
const coincidentDistSq = 1e-10

// Evaluate recursively computes the full-skeleton local pose a blend tree produces at time.
// Missing animations, untracked bones and zero-weight blends all fall back to the rest pose;
// evaluation never fails at runtime.
//
// Parameters:
//   - node: the root of the tree (nil evaluates to the rest pose)
//   - skel: the skeleton being animated
//   - lookup: resolves the animations named by Clip nodes
//   - time: the playback time in seconds
//   - params: the parameter values read by Blend2D nodes
//
// Returns:
//   - skeleton.Pose: a new pose with one local transform per bone
func Evaluate(node Node, skel *skeleton.Skeleton, lookup AnimationLookup, time float32, params Parameters) skeleton.Pose {
	switch n := node.(type) {
	case *Clip:
		return evaluateClip(n, skel, lookup, time)
	case *Blend2D:
		return evaluateBlend2D(n, skel, lookup, time, params)
	case *Additive:
		return evaluateAdditive(n, skel, lookup, time, params)
	case *LayeredBlend:
		return evaluateLayered(n, skel, lookup, time, params)
	default:
		return skel.RestPose()
	}
}

func evaluateClip(n *Clip, skel *skeleton.Skeleton, lookup AnimationLookup, time float32) skeleton.Pose {
	if lookup == nil {
		return skel.RestPose()
	}
	anim, ok := lookup.Animation(n.Animation)
	if !ok {
		return skel.RestPose()
	}
	return anim.SamplePose(skel, time*n.Speed, nil)
}

func evaluateBlend2D(n *Blend2D, skel *skeleton.Skeleton, lookup AnimationLookup, time float32, params Parameters) skeleton.Pose {
	if len(n.Samples) == 0 {
		return skel.RestPose()
	}
	if len(n.Samples) == 1 {
		return Evaluate(n.Samples[0].Node, skel, lookup, time, params)
	}

	weights := Blend2DWeights(n, params)
	poses := make([]skeleton.Pose, len(n.Samples))
	for i, s := range n.Samples {
		if weights[i] > 0 {
			poses[i] = Evaluate(s.Node, skel, lookup, time, params)
		}
	}
	return BlendWeighted(skel, poses, weights)
}

// Blend2DWeights computes the normalized weight of every Blend2D sample using inverse squared
// distance between the parameter point and each sample position. A point that coincides with
// a sample gives that sample (the first one, if positions repeat) the full weight.
//
// Parameters:
//   - n: the Blend2D node
//   - params: the current parameter values
//
// Returns:
//   - []float32: one weight per sample, summing to 1 (nil when there are no samples)
func Blend2DWeights(n *Blend2D, params Parameters) []float32 {
	if len(n.Samples) == 0 {
		return nil
	}
	px, py := params.Get(n.XParam), params.Get(n.YParam)
	weights := make([]float32, len(n.Samples))

	var sum float64
	for i, s := range n.Samples {
		dx := float64(px - s.Position[0])
		dy := float64(py - s.Position[1])
		d2 := dx*dx + dy*dy
		if d2 < coincidentDistSq {
			clear(weights)
			weights[i] = 1
			return weights
		}
		w := 1 / d2
		weights[i] = float32(w)
		sum += w
	}
	for i := range weights {
		weights[i] = float32(float64(weights[i]) / sum)
	}
	return weights
}

func evaluateAdditive(n *Additive, skel *skeleton.Skeleton, lookup AnimationLookup, time float32, params Parameters) skeleton.Pose {
	base := Evaluate(n.Base, skel, lookup, time, params)
	if n.Weight == 0 {
		return base
	}
	add := Evaluate(n.Additive, skel, lookup, time, params)
	w := n.Weight

	for i, b := range skel.Bones {
		rest := b.Rest
		a := add[i]

		dt := common.Vec3Sub(a.Translation, rest.Translation)
		ds := common.Vec3Sub(a.Scale, rest.Scale)
		dq := common.QuatMul(common.QuatInverse(rest.Rotation), common.QuatNormalize(a.Rotation))
		dq = common.QuatSlerp(common.QuatIdentity(), dq, w)

		base[i] = common.Transform{
			Translation: common.Vec3Add(base[i].Translation, common.Vec3Scale(dt, w)),
			Rotation:    common.QuatNormalize(common.QuatMul(base[i].Rotation, dq)),
			Scale:       common.Vec3Add(base[i].Scale, common.Vec3Scale(ds, w)),
		}
	}
	return base
}

func evaluateLayered(n *LayeredBlend, skel *skeleton.Skeleton, lookup AnimationLookup, time float32, params Parameters) skeleton.Pose {
	poses := make([]skeleton.Pose, len(n.Layers))
	weights := make([]float32, len(n.Layers))
	for i, l := range n.Layers {
		if l.Weight <= 0 {
			continue
		}
		weights[i] = l.Weight
		poses[i] = Evaluate(l.Node, skel, lookup, time, params)
	}
	return BlendWeighted(skel, poses, weights)
}
