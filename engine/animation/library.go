package animation

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-rig/common"
)

// Library is a name-keyed set of animations handed over by the asset-loading collaborator.
// Populate it before sharing; lookups never mutate it, so a filled Library is safe for
// concurrent readers.
type Library struct {
	byName map[string]*SkeletalAnimation
}

// NewLibrary builds a library from already-parsed animations, validating each one.
//
// Parameters:
//   - anims: the animations to register
//
// Returns:
//   - *Library: the populated library
//   - error: a *common.StructureError for an invalid or duplicate animation
func NewLibrary(anims ...*SkeletalAnimation) (*Library, error) {
	l := &Library{byName: make(map[string]*SkeletalAnimation, len(anims))}
	for _, a := range anims {
		if err := l.Add(a); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Add validates and registers an animation under its name.
//
// Parameters:
//   - a: the animation to add
//
// Returns:
//   - error: a *common.StructureError if a is nil, invalid, or its name is already taken
func (l *Library) Add(a *SkeletalAnimation) error {
	if a == nil {
		return common.NewStructureError("animation library", "cannot add a nil animation")
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("add animation: %w", err)
	}
	if l.byName == nil {
		l.byName = make(map[string]*SkeletalAnimation)
	}
	if _, ok := l.byName[a.Name]; ok {
		return common.NewStructureError("animation library", "duplicate animation name %q", a.Name)
	}
	l.byName[a.Name] = a
	return nil
}

// Animation looks up an animation by name.
func (l *Library) Animation(name string) (*SkeletalAnimation, bool) {
	a, ok := l.byName[name]
	return a, ok
}

// Names returns the registered animation names in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.byName))
	for n := range l.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered animations.
func (l *Library) Len() int {
	return len(l.byName)
}
