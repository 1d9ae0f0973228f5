package animator

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-rig/engine/blend_tree"
	"github.com/Carmen-Shannon/oxy-rig/engine/ik"
	"github.com/Carmen-Shannon/oxy-rig/engine/skeleton"
	"github.com/Carmen-Shannon/oxy-rig/engine/state_machine"
)

// instanceState holds everything one character owns: its state machine cursor, its IK chains and
// the buffers the last tick produced. The skeleton, lookup and definition behind it are shared.
type instanceState struct {
	skel    *skeleton.Skeleton
	lookup  blend_tree.AnimationLookup
	machine *state_machine.Instance
	chains  []ik.Chain

	pose     skeleton.Pose
	worlds   [][16]float32
	skinning []float32

	// results of the last tick, read after the frame barrier
	transitioned bool
	ikSolves     int
	ikErr        error
}

func newInstanceState(skel *skeleton.Skeleton, def *state_machine.Definition, lookup blend_tree.AnimationLookup) *instanceState {
	st := &instanceState{
		skel:    skel,
		lookup:  lookup,
		machine: def.NewInstance(),
		pose:    skel.RestPose(),
	}
	st.worlds = skel.WorldTransforms(st.pose, nil)
	st.skinning = skel.SkinningMatrices(st.pose, st.worlds)
	return st
}

// tick runs the per-character pipeline in its fixed order: transition, clocks, pose, IK, world transforms.
func (st *instanceState) tick(dt float32, solver ik.Solver) {
	_, st.transitioned = st.machine.Update()
	st.machine.Advance(dt)
	st.pose = st.machine.Evaluate(st.skel, st.lookup)

	st.ikSolves = 0
	st.ikErr = nil
	for i, c := range st.chains {
		if err := solver.Apply(st.skel, st.pose, c); err != nil {
			st.ikErr = fmt.Errorf("ik chain %d: %w", i, err)
			continue
		}
		st.ikSolves++
	}

	st.worlds = st.skel.WorldTransforms(st.pose, st.worlds)
	st.skinning = st.skel.SkinningMatrices(st.pose, st.worlds)
}
