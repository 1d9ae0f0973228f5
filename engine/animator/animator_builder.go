package animator

import (
	"time"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/config"
	"github.com/Carmen-Shannon/oxy-rig/engine/ik"
	"github.com/Carmen-Shannon/oxy-rig/engine/profiler"
)

// AnimatorBuilderOption is a functional option for configuring an Animator during construction.
type AnimatorBuilderOption func(*animator)

// WithMaxInstances is an option builder that sets the maximum number of instances the Animator can manage.
// Zero means unlimited.
//
// Parameters:
//   - maxInstances: the maximum number of instances to support
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the max instances option to an animator
func WithMaxInstances(maxInstances int) AnimatorBuilderOption {
	return func(a *animator) {
		a.maxInstances = uint32(max(maxInstances, 0))
	}
}

// WithWorkers is an option builder that sizes the evaluation worker pool.
// One worker (or fewer) evaluates instances inline on the calling goroutine.
//
// Parameters:
//   - workers: the number of pool workers
//   - queueSize: the pool's task queue depth
//   - idle: how long an idle worker lingers before exiting
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the worker option to an animator
func WithWorkers(workers, queueSize int, idle time.Duration) AnimatorBuilderOption {
	return func(a *animator) {
		a.workers = workers
		a.queueSize = common.Coalesce(max(queueSize, 0), a.queueSize)
		a.workerIdle = common.Coalesce(max(idle, 0), a.workerIdle)
	}
}

// WithIKEpsilon is an option builder that sets the reach epsilon of the IK solver.
//
// Parameters:
//   - epsilon: the solver epsilon
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the epsilon option to an animator
func WithIKEpsilon(epsilon float32) AnimatorBuilderOption {
	return func(a *animator) {
		a.solver = ik.Solver{Epsilon: epsilon}
	}
}

// WithProfiler is an option builder that attaches a Profiler fed once per PrepareFrame.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the profiler option to an animator
func WithProfiler(p *profiler.Profiler) AnimatorBuilderOption {
	return func(a *animator) {
		a.profiler = p
	}
}

// WithConfig is an option builder that applies a loaded config.Config: worker pool sizing, instance cap,
// IK epsilon and, when cfg.Profile is set, a profiler logging every cfg.ProfileInterval.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the configuration to an animator
func WithConfig(cfg config.Config) AnimatorBuilderOption {
	return func(a *animator) {
		WithWorkers(cfg.Workers, cfg.QueueSize, cfg.WorkerIdle)(a)
		WithMaxInstances(cfg.MaxInstances)(a)
		WithIKEpsilon(cfg.IKEpsilon)(a)
		if cfg.Profile {
			a.profiler = profiler.NewProfiler(cfg.ProfileInterval)
		}
	}
}
