package state_machine

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/blend_tree"
	"github.com/Carmen-Shannon/oxy-rig/engine/skeleton"
)

// Instance is one character's cursor into a shared Definition: its current state, its parameters,
// and the clocks driving playback and crossfades. An Instance is not safe for concurrent use, but
// any number of instances may share one Definition.
type Instance struct {
	def    *Definition
	params blend_tree.Parameters

	current   string
	stateTime float32

	// outgoing state of an in-progress crossfade
	fading       bool
	from         string
	fromTime     float32
	fadeDuration float32
	fadeElapsed  float32
}

// NewInstance creates a cursor positioned at the definition's initial state with no parameters set.
//
// Returns:
//   - *Instance: the new instance
func (d *Definition) NewInstance() *Instance {
	return &Instance{
		def:     d,
		params:  make(blend_tree.Parameters),
		current: d.initial,
	}
}

// Definition returns the shared definition this instance runs.
func (in *Instance) Definition() *Definition {
	return in.def
}

// SetParameter sets a named parameter. Unknown names are inserted.
//
// Parameters:
//   - name: the parameter name
//   - value: the new value
func (in *Instance) SetParameter(name string, value float32) {
	in.params[name] = value
}

// Parameter returns a parameter's value and whether it has been set. Unset parameters read as 0.
func (in *Instance) Parameter(name string) (float32, bool) {
	v, ok := in.params[name]
	return v, ok
}

// Parameters returns a copy of every parameter set on this instance.
func (in *Instance) Parameters() blend_tree.Parameters {
	out := make(blend_tree.Parameters, len(in.params))
	for k, v := range in.params {
		out[k] = v
	}
	return out
}

// CurrentState returns the name of the active (destination) state.
func (in *Instance) CurrentState() string {
	return in.current
}

// StateTime returns the seconds spent in the current state.
func (in *Instance) StateTime() float32 {
	return in.stateTime
}

// Update checks the current state's outgoing transitions in declaration order and takes the first
// whose condition holds. Taking a transition makes its destination the current state with its clock
// at zero and, for a positive duration, starts a crossfade from the state being left. A transition
// fired mid-crossfade replaces the old crossfade; the outgoing side becomes the state just left.
//
// Returns:
//   - Transition: the transition taken
//   - bool: false when no transition fired; the state is then unchanged
func (in *Instance) Update() (Transition, bool) {
	for _, i := range in.def.outgoing[in.current] {
		t := in.def.transitions[i]
		if !t.Condition.Evaluate(in.params) {
			continue
		}
		if t.Duration > 0 {
			in.fading = true
			in.from = in.current
			in.fromTime = in.stateTime
			in.fadeDuration = t.Duration
			in.fadeElapsed = 0
		} else {
			in.clearFade()
		}
		in.current = t.To
		in.stateTime = 0
		return t, true
	}
	return Transition{}, false
}

// Advance moves every clock forward by dt seconds and finishes a crossfade whose duration has elapsed.
// Non-positive dt is ignored.
//
// Parameters:
//   - dt: elapsed seconds since the previous tick
func (in *Instance) Advance(dt float32) {
	if !(dt > 0) {
		return
	}
	in.stateTime += dt
	if !in.fading {
		return
	}
	in.fromTime += dt
	in.fadeElapsed += dt
	if in.fadeElapsed >= in.fadeDuration {
		in.clearFade()
	}
}

// Crossfading reports whether a crossfade is in progress.
func (in *Instance) Crossfading() bool {
	return in.fading
}

// CrossfadeProgress returns how far the current crossfade has progressed, in [0, 1].
// It is 1 when no crossfade is running.
func (in *Instance) CrossfadeProgress() float32 {
	if !in.fading {
		return 1
	}
	return common.Clamp(in.fadeElapsed/in.fadeDuration, 0, 1)
}

// CrossfadeSource returns the state being faded out, if a crossfade is running.
func (in *Instance) CrossfadeSource() (string, bool) {
	return in.from, in.fading
}

// SetState jumps straight to the named state, cancelling any crossfade and restarting the state clock.
//
// Parameters:
//   - name: the state to enter
//
// Returns:
//   - error: a *common.StructureError if the state does not exist
func (in *Instance) SetState(name string) error {
	if _, ok := in.def.states[name]; !ok {
		return common.NewStructureError(fmt.Sprintf("state machine %q", in.def.name), "state %q does not exist", name)
	}
	in.clearFade()
	in.current = name
	in.stateTime = 0
	return nil
}

// Evaluate produces the instance's local pose for this tick. During a crossfade the outgoing and
// incoming state poses are blended by CrossfadeProgress; otherwise only the current state's tree
// is evaluated.
//
// Parameters:
//   - skel: the skeleton the pose is built for
//   - lookup: resolves clip animation names
//
// Returns:
//   - skeleton.Pose: the local pose
func (in *Instance) Evaluate(skel *skeleton.Skeleton, lookup blend_tree.AnimationLookup) skeleton.Pose {
	to := blend_tree.Evaluate(in.def.states[in.current].Tree, skel, lookup, in.stateTime, in.params)
	if !in.fading {
		return to
	}
	from := blend_tree.Evaluate(in.def.states[in.from].Tree, skel, lookup, in.fromTime, in.params)
	return blend_tree.BlendPoses(skel, from, to, in.CrossfadeProgress())
}

func (in *Instance) clearFade() {
	in.fading = false
	in.from = ""
	in.fromTime = 0
	in.fadeDuration = 0
	in.fadeElapsed = 0
}
