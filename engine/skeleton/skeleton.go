package skeleton

import (
	"github.com/Carmen-Shannon/oxy-rig/common"
)

// NoParent is the Parent value of a root bone.
const NoParent = -1

// Bone represents a single bone in a skeleton hierarchy.
type Bone struct {
	// ID is the bone's position in Skeleton.Bones. Ids are dense: ID == index.
	ID int

	// Name is the bone's identifier (for debugging and animation targeting).
	Name string

	// Parent is the id of the parent bone, or NoParent for root bones.
	Parent int

	// Rest is the bone's local transform relative to its parent when no animation is applied.
	Rest common.Transform

	// InverseBindMatrix transforms from model space to bone space at bind pose.
	// This is the inverse of the bone's world transform when the mesh was bound.
	InverseBindMatrix [16]float32
}

// IsRoot reports whether the bone has no parent.
func (b Bone) IsRoot() bool {
	return b.Parent == NoParent
}

// Pose is a full-skeleton set of local transforms indexed by bone id.
// A pose shorter than the skeleton falls back to the rest transform for the missing bones.
type Pose []common.Transform

// Clone returns a copy of the pose that shares no memory with p.
func (p Pose) Clone() Pose {
	if p == nil {
		return nil
	}
	out := make(Pose, len(p))
	copy(out, p)
	return out
}

// Skeleton is an immutable bone hierarchy shared by every character instance that uses it.
// Construct it with NewSkeleton so the hierarchy is validated once; after that no method mutates it,
// so a single *Skeleton may be evaluated from many goroutines without synchronization.
type Skeleton struct {
	// Bones is the ordered, dense list of bones (Bones[i].ID == i).
	Bones []Bone

	// Root is the id of the declared primary root bone.
	Root int

	children [][]int
	byName   map[string]int
}

// NewSkeleton validates the hierarchy and builds the child and name indices.
//
// Parameters:
//   - bones: the bones, ordered so that Bones[i].ID == i
//   - root: the id of the primary root bone
//
// Returns:
//   - *Skeleton: the validated skeleton
//   - error: a *common.StructureError if the hierarchy is malformed
func NewSkeleton(bones []Bone, root int) (*Skeleton, error) {
	s := &Skeleton{
		Bones: bones,
		Root:  root,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	s.children = make([][]int, len(bones))
	s.byName = make(map[string]int, len(bones))
	for _, b := range bones {
		s.byName[b.Name] = b.ID
		if !b.IsRoot() {
			s.children[b.Parent] = append(s.children[b.Parent], b.ID)
		}
	}
	return s, nil
}

// Validate checks the structural invariants of the hierarchy: at least one bone, dense ids,
// unique names, an in-range parentless primary root, in-range parents, and no cycles.
//
// Returns:
//   - error: a *common.StructureError describing the first violation, or nil
func (s *Skeleton) Validate() error {
	n := len(s.Bones)
	if n == 0 {
		return common.NewStructureError("skeleton", "has no bones")
	}
	if s.Root < 0 || s.Root >= n {
		return common.NewStructureError("skeleton", "root bone id %d is out of bounds (skeleton has %d bones)", s.Root, n)
	}

	names := make(map[string]int, n)
	for i, b := range s.Bones {
		if b.ID != i {
			return common.NewStructureError("skeleton", "bone %q has id %d but is at index %d", b.Name, b.ID, i)
		}
		if prev, ok := names[b.Name]; ok {
			return common.NewStructureError("skeleton", "bone name %q is used by bones %d and %d", b.Name, prev, i)
		}
		names[b.Name] = i

		if b.IsRoot() {
			continue
		}
		if b.Parent < 0 || b.Parent >= n {
			return common.NewStructureError("skeleton", "bone %q references non-existent parent id %d", b.Name, b.Parent)
		}
		if b.Parent == b.ID {
			return common.NewStructureError("skeleton", "bone %q has itself as parent", b.Name)
		}
	}

	if root := s.Bones[s.Root]; !root.IsRoot() {
		return common.NewStructureError("skeleton", "root bone %q (id %d) has a parent", root.Name, root.ID)
	}

	// 0 = unvisited, 1 = on the current walk, 2 = known to reach a root
	state := make([]uint8, n)
	walk := make([]int, 0, n)
	for i := range s.Bones {
		walk = walk[:0]
		cur := i
		for cur != NoParent && state[cur] == 0 {
			state[cur] = 1
			walk = append(walk, cur)
			cur = s.Bones[cur].Parent
		}
		if cur != NoParent && state[cur] == 1 {
			return common.NewStructureError("skeleton", "bone %q has a circular parent reference", s.Bones[cur].Name)
		}
		for _, id := range walk {
			state[id] = 2
		}
	}

	return nil
}

// BoneCount returns the number of bones in the skeleton.
func (s *Skeleton) BoneCount() int {
	return len(s.Bones)
}

// Bone returns the bone with the given id.
//
// Parameters:
//   - id: the bone id
//
// Returns:
//   - Bone: the bone, or the zero Bone when id is out of range
//   - bool: false when id is out of range
func (s *Skeleton) Bone(id int) (Bone, bool) {
	if id < 0 || id >= len(s.Bones) {
		return Bone{}, false
	}
	return s.Bones[id], true
}

// BoneByName looks up a bone by its name.
//
// Parameters:
//   - name: the bone name
//
// Returns:
//   - Bone: the matching bone
//   - bool: false when no bone has that name
func (s *Skeleton) BoneByName(name string) (Bone, bool) {
	id, ok := s.byName[name]
	if !ok {
		return Bone{}, false
	}
	return s.Bones[id], true
}

// Children returns the ids of the direct children of a bone, in bone order.
// The returned slice belongs to the skeleton and must not be modified.
func (s *Skeleton) Children(id int) []int {
	if id < 0 || id >= len(s.children) {
		return nil
	}
	return s.children[id]
}

// Roots returns the ids of every parentless bone, in bone order.
func (s *Skeleton) Roots() []int {
	var roots []int
	for _, b := range s.Bones {
		if b.IsRoot() {
			roots = append(roots, b.ID)
		}
	}
	return roots
}

// Depth returns the number of ancestors of a bone (0 for a root), or -1 if id is out of range.
func (s *Skeleton) Depth(id int) int {
	if id < 0 || id >= len(s.Bones) {
		return -1
	}
	depth := 0
	for p := s.Bones[id].Parent; p != NoParent; p = s.Bones[p].Parent {
		depth++
	}
	return depth
}

// RestPose returns a new pose holding every bone's rest transform.
func (s *Skeleton) RestPose() Pose {
	pose := make(Pose, len(s.Bones))
	for i, b := range s.Bones {
		pose[i] = b.Rest
	}
	return pose
}

// LocalTransform returns the local transform of a bone in pose, falling back to the rest
// transform when the pose does not cover that bone. An unknown id yields the identity transform.
func (s *Skeleton) LocalTransform(id int, pose Pose) common.Transform {
	if id < 0 || id >= len(s.Bones) {
		return common.IdentityTransform()
	}
	if id < len(pose) {
		return pose[id]
	}
	return s.Bones[id].Rest
}
