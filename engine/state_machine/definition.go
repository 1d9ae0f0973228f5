package state_machine

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/blend_tree"
)

// State is a named blend tree: what plays while the machine is in this state.
type State struct {
	// Name identifies the state within its Definition.
	Name string

	// Tree is the blend tree evaluated while the state is active.
	Tree blend_tree.Node
}

// Transition moves the machine from one state to another when its condition holds,
// crossfading over Duration seconds.
type Transition struct {
	// From is the source state name.
	From string

	// To is the destination state name.
	To string

	// Condition guards the transition.
	Condition Condition

	// Duration is the crossfade length in seconds (0 switches instantly).
	Duration float32
}

func (t Transition) String() string {
	return fmt.Sprintf("%s -> %s [%s] over %gs", t.From, t.To, t.Condition, t.Duration)
}

// Definition is the immutable, shareable part of a state machine: its states, its ordered
// transitions, and the initial state. Per-character cursors are created with NewInstance.
type Definition struct {
	name        string
	states      map[string]State
	order       []string
	transitions []Transition
	outgoing    map[string][]int
	initial     string
}

// NewDefinition validates and freezes a state machine definition.
//
// Parameters:
//   - name: the machine's name (used in error messages and logs)
//   - states: the states, names must be unique and non-empty
//   - transitions: the transitions, evaluated in this declaration order
//   - initial: the state a new instance starts in
//   - lookup: optional animation lookup; when non-nil every clip in every state must resolve
//
// Returns:
//   - *Definition: the validated definition
//   - error: a *common.StructureError on the first violation
func NewDefinition(name string, states []State, transitions []Transition, initial string, lookup blend_tree.AnimationLookup) (*Definition, error) {
	subject := fmt.Sprintf("state machine %q", name)
	if len(states) == 0 {
		return nil, common.NewStructureError(subject, "has no states")
	}

	d := &Definition{
		name:     name,
		states:   make(map[string]State, len(states)),
		order:    make([]string, 0, len(states)),
		outgoing: make(map[string][]int, len(states)),
		initial:  initial,
	}
	for _, s := range states {
		if s.Name == "" {
			return nil, common.NewStructureError(subject, "state with an empty name")
		}
		if _, dup := d.states[s.Name]; dup {
			return nil, common.NewStructureError(subject, "duplicate state %q", s.Name)
		}
		if err := blend_tree.Validate(s.Tree, lookup); err != nil {
			return nil, fmt.Errorf("state %q: %w", s.Name, err)
		}
		d.states[s.Name] = s
		d.order = append(d.order, s.Name)
	}

	if _, ok := d.states[initial]; !ok {
		return nil, common.NewStructureError(subject, "initial state %q does not exist", initial)
	}

	d.transitions = make([]Transition, len(transitions))
	copy(d.transitions, transitions)
	for i, t := range d.transitions {
		if _, ok := d.states[t.From]; !ok {
			return nil, common.NewStructureError(subject, "transition %d references non-existent state %q", i, t.From)
		}
		if _, ok := d.states[t.To]; !ok {
			return nil, common.NewStructureError(subject, "transition %d references non-existent state %q", i, t.To)
		}
		if t.Duration < 0 {
			return nil, common.NewStructureError(subject, "transition %s has negative duration %g", t.From+" -> "+t.To, t.Duration)
		}
		if err := validateCondition(t.Condition); err != nil {
			return nil, common.NewStructureError(subject, "transition %s: %v", t.From+" -> "+t.To, err)
		}
		d.outgoing[t.From] = append(d.outgoing[t.From], i)
	}

	return d, nil
}

// Name returns the machine's name.
func (d *Definition) Name() string {
	return d.name
}

// InitialState returns the name of the state new instances start in.
func (d *Definition) InitialState() string {
	return d.initial
}

// State looks up a state by name.
func (d *Definition) State(name string) (State, bool) {
	s, ok := d.states[name]
	return s, ok
}

// StateNames returns every state name in declaration order.
func (d *Definition) StateNames() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Transitions returns a copy of the transitions in declaration order.
func (d *Definition) Transitions() []Transition {
	out := make([]Transition, len(d.transitions))
	copy(out, d.transitions)
	return out
}

// ParameterNames returns every parameter referenced by a transition condition or a Blend2D node,
// sorted. Useful for seeding an instance's parameters up front.
func (d *Definition) ParameterNames() []string {
	seen := make(map[string]struct{})
	for _, t := range d.transitions {
		collectConditionParams(t.Condition, seen)
	}
	for _, s := range d.states {
		collectTreeParams(s.Tree, seen)
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func collectConditionParams(c Condition, seen map[string]struct{}) {
	switch c := c.(type) {
	case GreaterThan:
		seen[c.Parameter] = struct{}{}
	case LessThan:
		seen[c.Parameter] = struct{}{}
	case Equal:
		seen[c.Parameter] = struct{}{}
	case InRange:
		seen[c.Parameter] = struct{}{}
	case And:
		for _, sub := range c {
			collectConditionParams(sub, seen)
		}
	case Or:
		for _, sub := range c {
			collectConditionParams(sub, seen)
		}
	case Not:
		collectConditionParams(c.Condition, seen)
	}
}

func collectTreeParams(n blend_tree.Node, seen map[string]struct{}) {
	switch n := n.(type) {
	case *blend_tree.Blend2D:
		seen[n.XParam] = struct{}{}
		seen[n.YParam] = struct{}{}
		for _, s := range n.Samples {
			collectTreeParams(s.Node, seen)
		}
	case *blend_tree.Additive:
		collectTreeParams(n.Base, seen)
		collectTreeParams(n.Additive, seen)
	case *blend_tree.LayeredBlend:
		for _, l := range n.Layers {
			collectTreeParams(l.Node, seen)
		}
	}
}
