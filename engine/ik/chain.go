package ik

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/skeleton"
)

// Chain names a two-bone IK chain and where its end effector should go. The end effector is the
// origin of Distal's first child.
type Chain struct {
	// Proximal is the upper bone (e.g. upper arm).
	Proximal int

	// Distal is the lower bone (e.g. forearm); its parent must be Proximal.
	Distal int

	// Target is the world position to reach.
	Target [3]float32

	// Pole is an optional world position the middle joint bends toward.
	Pole *[3]float32
}

// Apply solves chain against pose with DefaultEpsilon. See Solver.Apply.
func Apply(skel *skeleton.Skeleton, pose skeleton.Pose, chain Chain) error {
	return Solver{}.Apply(skel, pose, chain)
}

// Apply solves chain in world space and rewrites the local rotations of the proximal and distal
// bones in pose so the end effector reaches (or, if out of reach, points at) the target.
// Unreachable targets are not an error.
//
// Parameters:
//   - skel: the skeleton pose belongs to
//   - pose: the local pose to adjust in place; it must cover every bone
//   - chain: the chain and target
//
// Returns:
//   - error: a *common.StructureError if the chain does not fit the skeleton
func (s Solver) Apply(skel *skeleton.Skeleton, pose skeleton.Pose, chain Chain) error {
	effector, err := checkChain(skel, pose, chain)
	if err != nil {
		return err
	}

	worlds := skel.WorldTransforms(pose, nil)
	rots := skel.WorldRotations(pose)

	q := s.Solve(
		common.MatrixTranslation(worlds[chain.Proximal][:]),
		common.MatrixTranslation(worlds[chain.Distal][:]),
		common.MatrixTranslation(worlds[effector][:]),
		chain.Target,
		chain.Pole,
	)
	qRoot, qMid := q[0], q[1]

	parentRot := common.QuatIdentity()
	if p := skel.Bones[chain.Proximal].Parent; p != skeleton.NoParent {
		parentRot = rots[p]
	}
	proxWorld := common.QuatMul(qRoot, rots[chain.Proximal])
	distWorld := common.QuatMul(qMid, common.QuatMul(qRoot, rots[chain.Distal]))

	pose[chain.Proximal].Rotation = common.QuatNormalize(common.QuatMul(common.QuatInverse(parentRot), proxWorld))
	pose[chain.Distal].Rotation = common.QuatNormalize(common.QuatMul(common.QuatInverse(proxWorld), distWorld))
	return nil
}

// Validate reports whether the chain fits skel: both bones exist, Distal is a child of Proximal,
// and Distal has a child to act as the end effector.
func (c Chain) Validate(skel *skeleton.Skeleton) error {
	_, err := checkChain(skel, skel.RestPose(), c)
	return err
}

func checkChain(skel *skeleton.Skeleton, pose skeleton.Pose, chain Chain) (int, error) {
	subject := fmt.Sprintf("ik chain %d -> %d", chain.Proximal, chain.Distal)
	if len(pose) < skel.BoneCount() {
		return 0, common.NewStructureError(subject, "pose covers %d of %d bones", len(pose), skel.BoneCount())
	}
	prox, ok := skel.Bone(chain.Proximal)
	if !ok {
		return 0, common.NewStructureError(subject, "proximal bone is out of bounds")
	}
	dist, ok := skel.Bone(chain.Distal)
	if !ok {
		return 0, common.NewStructureError(subject, "distal bone is out of bounds")
	}
	if dist.Parent != prox.ID {
		return 0, common.NewStructureError(subject, "distal bone %q is not a child of %q", dist.Name, prox.Name)
	}
	children := skel.Children(dist.ID)
	if len(children) == 0 {
		return 0, common.NewStructureError(subject, "distal bone %q has no child to act as end effector", dist.Name)
	}
	return children[0], nil
}
