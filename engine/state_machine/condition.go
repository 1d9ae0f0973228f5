package state_machine

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-rig/engine/blend_tree"
)

// equalTolerance is the absolute tolerance used by Equal conditions.
const equalTolerance = 0.001

// Condition guards a Transition. Leaf conditions compare one named parameter (unset parameters
// read as 0); And, Or and Not combine other conditions with short-circuit evaluation.
// The implementations are closed: Always, GreaterThan, LessThan, Equal, InRange, And, Or, Not.
type Condition interface {
	// Evaluate reports whether the condition holds for the given parameters.
	Evaluate(params blend_tree.Parameters) bool

	// String renders the condition for logs and error messages.
	String() string

	condition()
}

// Always is satisfied unconditionally.
type Always struct{}

// GreaterThan holds when Parameter > Threshold.
type GreaterThan struct {
	Parameter string
	Threshold float32
}

// LessThan holds when Parameter < Threshold.
type LessThan struct {
	Parameter string
	Threshold float32
}

// Equal holds when Parameter is within 0.001 of Value.
type Equal struct {
	Parameter string
	Value     float32
}

// InRange holds when Min <= Parameter <= Max.
type InRange struct {
	Parameter string
	Min, Max  float32
}

// And holds when every condition holds. An empty And is satisfied.
type And []Condition

// Or holds when any condition holds. An empty Or is not satisfied.
type Or []Condition

// Not inverts a condition.
type Not struct {
	Condition Condition
}

func (Always) Evaluate(blend_tree.Parameters) bool { return true }

func (c GreaterThan) Evaluate(p blend_tree.Parameters) bool { return p.Get(c.Parameter) > c.Threshold }

func (c LessThan) Evaluate(p blend_tree.Parameters) bool { return p.Get(c.Parameter) < c.Threshold }

func (c Equal) Evaluate(p blend_tree.Parameters) bool {
	d := p.Get(c.Parameter) - c.Value
	return d < equalTolerance && d > -equalTolerance
}

func (c InRange) Evaluate(p blend_tree.Parameters) bool {
	v := p.Get(c.Parameter)
	return v >= c.Min && v <= c.Max
}

func (c And) Evaluate(p blend_tree.Parameters) bool {
	for _, sub := range c {
		if !sub.Evaluate(p) {
			return false
		}
	}
	return true
}

func (c Or) Evaluate(p blend_tree.Parameters) bool {
	for _, sub := range c {
		if sub.Evaluate(p) {
			return true
		}
	}
	return false
}

func (c Not) Evaluate(p blend_tree.Parameters) bool {
	return !c.Condition.Evaluate(p)
}

func (Always) String() string        { return "always" }
func (c GreaterThan) String() string { return fmt.Sprintf("%s > %g", c.Parameter, c.Threshold) }
func (c LessThan) String() string    { return fmt.Sprintf("%s < %g", c.Parameter, c.Threshold) }
func (c Equal) String() string       { return fmt.Sprintf("%s == %g", c.Parameter, c.Value) }
func (c InRange) String() string {
	return fmt.Sprintf("%g <= %s <= %g", c.Min, c.Parameter, c.Max)
}
func (c And) String() string { return join(c, " && ") }
func (c Or) String() string  { return join(c, " || ") }
func (c Not) String() string { return "!(" + c.Condition.String() + ")" }

func join(conds []Condition, sep string) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func (Always) condition()      {}
func (GreaterThan) condition() {}
func (LessThan) condition()    {}
func (Equal) condition()       {}
func (InRange) condition()     {}
func (And) condition()         {}
func (Or) condition()          {}
func (Not) condition()         {}

// validateCondition rejects nil sub-conditions and inverted ranges.
func validateCondition(c Condition) error {
	switch c := c.(type) {
	case nil:
		return fmt.Errorf("condition is nil")
	case And:
		for _, sub := range c {
			if err := validateCondition(sub); err != nil {
				return err
			}
		}
	case Or:
		for _, sub := range c {
			if err := validateCondition(sub); err != nil {
				return err
			}
		}
	case Not:
		return validateCondition(c.Condition)
	case InRange:
		if c.Min > c.Max {
			return fmt.Errorf("range on %q has min %g > max %g", c.Parameter, c.Min, c.Max)
		}
	}
	return nil
}
