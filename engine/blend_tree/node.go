package blend_tree

import (
	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/animation"
)

// NodeKind identifies the variant of a blend tree Node.
type NodeKind int

const (
	// NodeKindClip plays a single animation.
	NodeKindClip NodeKind = iota

	// NodeKindBlend2D blends child nodes placed in a two-parameter space.
	NodeKindBlend2D

	// NodeKindAdditive layers the delta of one node on top of another.
	NodeKindAdditive

	// NodeKindLayered mixes an ordered list of weighted nodes.
	NodeKindLayered
)

func (k NodeKind) String() string {
	switch k {
	case NodeKindClip:
		return "Clip"
	case NodeKindBlend2D:
		return "Blend2D"
	case NodeKindAdditive:
		return "Additive"
	case NodeKindLayered:
		return "LayeredBlend"
	default:
		return "Unknown"
	}
}

// Node is a blend tree node. The set of implementations is closed: *Clip, *Blend2D, *Additive
// and *LayeredBlend. A tree is owned by the state that declares it and must not share nodes
// or contain cycles; Validate enforces that.
type Node interface {
	// Kind returns the variant of the node.
	Kind() NodeKind

	sealed()
}

// AnimationLookup resolves the animation a Clip names. *animation.Library implements it.
type AnimationLookup interface {
	Animation(name string) (*animation.SkeletalAnimation, bool)
}

// Parameters holds the named float inputs that drive Blend2D nodes and state transitions.
type Parameters map[string]float32

// Get returns the value of a parameter, treating an unset parameter as 0.
func (p Parameters) Get(name string) float32 {
	return p[name]
}

// Clip plays one animation at a playback speed multiplier.
type Clip struct {
	// Animation is the name of the animation to sample.
	Animation string

	// Speed scales the evaluation time (1.0 = authored speed).
	Speed float32
}

// Blend2DSample places a child node at a point of the Blend2D parameter space.
type Blend2DSample struct {
	// Position is the sample's (x, y) coordinate in parameter space.
	Position [2]float32

	// Node is the child evaluated for this sample.
	Node Node
}

// Blend2D blends its samples by their distance to the point (params[XParam], params[YParam]).
type Blend2D struct {
	// XParam and YParam name the parameters that form the blend space axes.
	XParam, YParam string

	// Samples are the children placed in the blend space.
	Samples []Blend2DSample
}

// Additive applies Weight times the delta of Additive (relative to the rest pose) onto Base.
type Additive struct {
	// Base is the pose the delta is layered on.
	Base Node

	// Additive is the node whose offset from the rest pose is added.
	Additive Node

	// Weight scales the additive delta, in [0, 1].
	Weight float32
}

// Layer pairs a node with its blend weight inside a LayeredBlend.
type Layer struct {
	// Node is the layer's source.
	Node Node

	// Weight is the layer's relative weight, in [0, 1].
	Weight float32
}

// LayeredBlend mixes its layers with their weights normalized over the non-zero ones.
type LayeredBlend struct {
	// Layers are mixed in declaration order.
	Layers []Layer
}

func (*Clip) Kind() NodeKind         { return NodeKindClip }
func (*Blend2D) Kind() NodeKind      { return NodeKindBlend2D }
func (*Additive) Kind() NodeKind     { return NodeKindAdditive }
func (*LayeredBlend) Kind() NodeKind { return NodeKindLayered }

func (*Clip) sealed()         {}
func (*Blend2D) sealed()      {}
func (*Additive) sealed()     {}
func (*LayeredBlend) sealed() {}

// NewClip creates a Clip node.
//
// Parameters:
//   - animationName: the animation to play
//   - speed: the playback speed multiplier
//
// Returns:
//   - *Clip: the node
func NewClip(animationName string, speed float32) *Clip {
	return &Clip{Animation: animationName, Speed: speed}
}

// NewBlend2D creates a Blend2D node over the two named parameters.
func NewBlend2D(xParam, yParam string, samples ...Blend2DSample) *Blend2D {
	return &Blend2D{XParam: xParam, YParam: yParam, Samples: samples}
}

// NewAdditive creates an Additive node; weight is clamped into [0, 1].
//
// Parameters:
//   - base: the base node
//   - additive: the node whose delta is layered on top
//   - weight: the delta weight
//
// Returns:
//   - *Additive: the node
func NewAdditive(base, additive Node, weight float32) *Additive {
	return &Additive{Base: base, Additive: additive, Weight: common.Clamp(weight, 0, 1)}
}

// NewLayered creates a LayeredBlend node; every layer weight is clamped into [0, 1].
func NewLayered(layers ...Layer) *LayeredBlend {
	out := make([]Layer, len(layers))
	for i, l := range layers {
		out[i] = Layer{Node: l.Node, Weight: common.Clamp(l.Weight, 0, 1)}
	}
	return &LayeredBlend{Layers: out}
}
