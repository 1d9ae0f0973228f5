package blend_tree

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-rig/common"
)

// Validate checks a blend tree once at construction time: every node is non-nil and appears only
// once (no sharing, no cycles), clips name an animation and play at a finite positive speed, Blend2D
// nodes have both parameters and finite samples, weights lie in [0, 1], and LayeredBlend
// nodes have at least one layer. When lookup is non-nil, every clip's animation must resolve.
//
// Parameters:
//   - node: the root of the tree
//   - lookup: optional animation lookup used to check clip references
//
// Returns:
//   - error: a *common.StructureError naming the offending node path, or nil
func Validate(node Node, lookup AnimationLookup) error {
	return validate(node, lookup, "root", make(map[Node]struct{}))
}

func validate(node Node, lookup AnimationLookup, path string, seen map[Node]struct{}) error {
	if node == nil {
		return common.NewStructureError("blend tree", "%s: node is nil", path)
	}
	if _, ok := seen[node]; ok {
		return common.NewStructureError("blend tree", "%s: node is shared or cyclic", path)
	}
	seen[node] = struct{}{}

	switch n := node.(type) {
	case *Clip:
		if n == nil {
			return common.NewStructureError("blend tree", "%s: clip is nil", path)
		}
		if n.Animation == "" {
			return common.NewStructureError("blend tree", "%s: clip has an empty animation name", path)
		}
		if !(n.Speed > 0) || !common.IsFinite(n.Speed) {
			return common.NewStructureError("blend tree", "%s: clip %q has invalid speed %v", path, n.Animation, n.Speed)
		}
		if lookup != nil {
			if _, ok := lookup.Animation(n.Animation); !ok {
				return common.NewStructureError("blend tree", "%s: clip references unknown animation %q", path, n.Animation)
			}
		}
	case *Blend2D:
		if n == nil {
			return common.NewStructureError("blend tree", "%s: blend2d is nil", path)
		}
		if n.XParam == "" || n.YParam == "" {
			return common.NewStructureError("blend tree", "%s: blend2d needs both an x and a y parameter", path)
		}
		if len(n.Samples) == 0 {
			return common.NewStructureError("blend tree", "%s: blend2d has no samples", path)
		}
		for i, s := range n.Samples {
			if !common.IsFinite(s.Position[0]) || !common.IsFinite(s.Position[1]) {
				return common.NewStructureError("blend tree", "%s.samples[%d]: position %v is not finite", path, i, s.Position)
			}
			if err := validate(s.Node, lookup, fmt.Sprintf("%s.samples[%d]", path, i), seen); err != nil {
				return err
			}
		}
	case *Additive:
		if n == nil {
			return common.NewStructureError("blend tree", "%s: additive is nil", path)
		}
		if !(n.Weight >= 0 && n.Weight <= 1) {
			return common.NewStructureError("blend tree", "%s: additive weight %v is outside [0, 1]", path, n.Weight)
		}
		if err := validate(n.Base, lookup, path+".base", seen); err != nil {
			return err
		}
		if err := validate(n.Additive, lookup, path+".additive", seen); err != nil {
			return err
		}
	case *LayeredBlend:
		if n == nil {
			return common.NewStructureError("blend tree", "%s: layered blend is nil", path)
		}
		if len(n.Layers) == 0 {
			return common.NewStructureError("blend tree", "%s: layered blend has no layers", path)
		}
		for i, l := range n.Layers {
			if !(l.Weight >= 0 && l.Weight <= 1) {
				return common.NewStructureError("blend tree", "%s.layers[%d]: weight %v is outside [0, 1]", path, i, l.Weight)
			}
			if err := validate(l.Node, lookup, fmt.Sprintf("%s.layers[%d]", path, i), seen); err != nil {
				return err
			}
		}
	default:
		return common.NewStructureError("blend tree", "%s: unsupported node type %T", path, node)
	}
	return nil
}
