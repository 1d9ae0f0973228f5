package common

import (
	"errors"
	"fmt"
)

// ErrStructure is the sentinel matched by every StructureError via errors.Is.
var ErrStructure = errors.New("malformed definition")

// StructureError reports a malformed definition detected at construction time: a cyclic or
// dangling bone hierarchy, sparse bone ids, an invalid keyframe track, or a transition naming
// a state that does not exist. These are never corrected at runtime.
type StructureError struct {
	// Subject names the definition that failed (e.g. `skeleton`, `animation "Walk"`).
	Subject string

	// Reason describes what is wrong with it.
	Reason string
}

// NewStructureError builds a StructureError with a formatted reason.
//
// Parameters:
//   - subject: the definition that failed validation
//   - format: a fmt format string describing the failure
//   - args: the format arguments
//
// Returns:
//   - *StructureError: the error
func NewStructureError(subject, format string, args ...any) *StructureError {
	return &StructureError{Subject: subject, Reason: fmt.Sprintf(format, args...)}
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("%s: %s", e.Subject, e.Reason)
}

// Is reports whether target is ErrStructure.
func (e *StructureError) Is(target error) bool {
	return target == ErrStructure
}
