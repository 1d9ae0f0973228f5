package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-rig/engine/animator"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithTickRate sets the engine tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithAnimator registers an animator at the given key during engine construction.
//
// Parameters:
//   - key: the ordering key (lower ticks first)
//   - a: the Animator to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAnimator(key int, a animator.Animator) EngineBuilderOption {
	return func(e *engine) {
		e.animators[key] = a
	}
}

// WithTickCallback sets the function called at the start of each tick.
//
// Parameters:
//   - callback: function receiving the delta time in seconds
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickCallback(callback func(deltaTime float32)) EngineBuilderOption {
	return func(e *engine) {
		e.tickCallback = callback
	}
}

// WithFrameCallback sets the function called after every animator has prepared its frame.
//
// Parameters:
//   - callback: function receiving the delta time in seconds
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameCallback(callback func(deltaTime float32)) EngineBuilderOption {
	return func(e *engine) {
		e.frameCallback = callback
	}
}
