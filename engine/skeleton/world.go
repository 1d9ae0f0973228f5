package skeleton

import (
	"github.com/Carmen-Shannon/oxy-rig/common"
)

// WorldTransform composes a bone's model-space transform by walking its parent chain from the
// root down to the bone: world = local(root) * ... * local(parent) * local(bone).
// Each local transform comes from pose, or from the rest transform when pose does not cover it.
//
// Parameters:
//   - id: the bone id
//   - pose: the local pose to evaluate, or nil for the rest pose
//
// Returns:
//   - [16]float32: the column-major world matrix of the bone, or identity for an unknown id
func (s *Skeleton) WorldTransform(id int, pose Pose) [16]float32 {
	if id < 0 || id >= len(s.Bones) {
		return common.IdentityMatrix()
	}
	// collect the chain bone -> root, then multiply from the root end
	chain := make([]int, 0, 16)
	for cur := id; cur != NoParent; cur = s.Bones[cur].Parent {
		chain = append(chain, cur)
	}

	world := common.IdentityMatrix()
	var local [16]float32
	for i := len(chain) - 1; i >= 0; i-- {
		common.ComposeTRS(local[:], s.LocalTransform(chain[i], pose))
		common.Mul4(world[:], world[:], local[:])
	}
	return world
}

// WorldTransforms computes the world matrix of every bone in a single pass. Each parent matrix is
// computed once and reused by all of its descendants.
//
// Parameters:
//   - pose: the local pose to evaluate, or nil for the rest pose
//   - dst: optional destination reused when it has room for every bone
//
// Returns:
//   - [][16]float32: one column-major world matrix per bone, indexed by bone id
func (s *Skeleton) WorldTransforms(pose Pose, dst [][16]float32) [][16]float32 {
	n := len(s.Bones)
	if cap(dst) < n {
		dst = make([][16]float32, n)
	}
	dst = dst[:n]

	done := make([]bool, n)
	stack := make([]int, 0, 16)
	var local [16]float32
	for i := range s.Bones {
		if done[i] {
			continue
		}
		stack = stack[:0]
		for cur := i; cur != NoParent && !done[cur] && len(stack) <= n; cur = s.Bones[cur].Parent {
			stack = append(stack, cur)
		}
		for j := len(stack) - 1; j >= 0; j-- {
			id := stack[j]
			common.ComposeTRS(local[:], s.LocalTransform(id, pose))
			if p := s.Bones[id].Parent; p != NoParent {
				common.Mul4(dst[id][:], dst[p][:], local[:])
			} else {
				dst[id] = local
			}
			done[id] = true
		}
	}
	return dst
}

// WorldPositions returns the model-space origin of every bone.
func (s *Skeleton) WorldPositions(pose Pose) [][3]float32 {
	worlds := s.WorldTransforms(pose, nil)
	out := make([][3]float32, len(worlds))
	for i := range worlds {
		out[i] = common.MatrixTranslation(worlds[i][:])
	}
	return out
}

// WorldRotations returns the accumulated model-space rotation of every bone, composed from
// the local rotations only (scale is ignored).
func (s *Skeleton) WorldRotations(pose Pose) [][4]float32 {
	n := len(s.Bones)
	out := make([][4]float32, n)
	done := make([]bool, n)
	stack := make([]int, 0, 16)
	for i := range s.Bones {
		if done[i] {
			continue
		}
		stack = stack[:0]
		for cur := i; cur != NoParent && !done[cur] && len(stack) <= n; cur = s.Bones[cur].Parent {
			stack = append(stack, cur)
		}
		for j := len(stack) - 1; j >= 0; j-- {
			id := stack[j]
			local := common.QuatNormalize(s.LocalTransform(id, pose).Rotation)
			if p := s.Bones[id].Parent; p != NoParent {
				out[id] = common.QuatNormalize(common.QuatMul(out[p], local))
			} else {
				out[id] = local
			}
			done[id] = true
		}
	}
	return out
}

// SkinningMatrices computes the skinning palette consumed by the external renderer:
// world(bone) * inverseBind(bone), 16 column-major floats per bone laid out by bone id.
// Pass the result to common.SliceToBytes for a zero-copy byte view.
//
// Parameters:
//   - pose: the final local pose
//   - worlds: precomputed world matrices for pose, or nil to compute them here
//
// Returns:
//   - []float32: len(Bones)*16 floats
func (s *Skeleton) SkinningMatrices(pose Pose, worlds [][16]float32) []float32 {
	if len(worlds) != len(s.Bones) {
		worlds = s.WorldTransforms(pose, nil)
	}
	out := make([]float32, len(s.Bones)*16)
	for i, b := range s.Bones {
		common.Mul4(out[i*16:(i+1)*16], worlds[i][:], b.InverseBindMatrix[:])
	}
	return out
}

// BindInverses derives inverse bind matrices from the rest pose and stores them on a copy of
// bones. Loaders that do not ship explicit inverse bind matrices use this before NewSkeleton.
// Bones whose rest world matrix is singular keep the identity.
//
// Parameters:
//   - bones: the bone list (parents must be in range)
//
// Returns:
//   - []Bone: a copy of bones with InverseBindMatrix filled in
func BindInverses(bones []Bone) []Bone {
	out := make([]Bone, len(bones))
	copy(out, bones)
	tmp := &Skeleton{Bones: out}
	worlds := tmp.WorldTransforms(nil, nil)
	for i := range out {
		inv := common.IdentityMatrix()
		common.Invert4(inv[:], worlds[i][:])
		out[i].InverseBindMatrix = inv
	}
	return out
}
