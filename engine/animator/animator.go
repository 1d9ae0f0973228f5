package animator

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/blend_tree"
	"github.com/Carmen-Shannon/oxy-rig/engine/config"
	"github.com/Carmen-Shannon/oxy-rig/engine/ik"
	"github.com/Carmen-Shannon/oxy-rig/engine/profiler"
	"github.com/Carmen-Shannon/oxy-rig/engine/skeleton"
	"github.com/Carmen-Shannon/oxy-rig/engine/state_machine"
)

var (
	// ErrInstanceNotFound is returned when an instance index is out of range.
	ErrInstanceNotFound = errors.New("instance not found")

	// ErrCapacity is returned by AddInstance when the animator is full.
	ErrCapacity = errors.New("animator is at capacity")
)

// PaletteWrite is one instance's skinning palette staged for the renderer: world x inverse-bind
// matrices, 16 column-major floats per bone, as raw bytes.
type PaletteWrite struct {
	Instance uint32
	Data     []byte
}

// animator is the implementation of the Animator interface.
type animator struct {
	mu *sync.Mutex

	maxInstances uint32
	instances    []*instanceState

	workers, queueSize int
	workerIdle         time.Duration
	pool               worker.DynamicWorkerPool

	solver   ik.Solver
	profiler *profiler.Profiler

	dirty                bool
	dirtyStart, dirtyEnd uint32
	stagedWriteData      []PaletteWrite
}

// Animator drives many independent characters through the per-tick animation pipeline.
//
// Every instance pairs a shared skeleton, animation lookup and state machine definition with its own
// state machine cursor, parameters, IK chains and output buffers. PrepareFrame evaluates all instances
// in parallel on a worker pool; within an instance the order is fixed: transitions, clocks, blend tree
// sampling and crossfade, IK, world transforms and skinning palette.
type Animator interface {
	// MaxInstances returns the maximum number of instances this animator accepts (0 = unlimited).
	//
	// Returns:
	//   - uint32: the instance cap
	MaxInstances() uint32

	// AddInstance registers a new character.
	//
	// Parameters:
	//   - skel: the character's skeleton
	//   - def: the state machine definition the character runs
	//   - lookup: resolves the clip names used by def's blend trees
	//
	// Returns:
	//   - uint32: the index of the newly registered instance
	//   - error: ErrCapacity when full, or an error for nil arguments
	AddInstance(skel *skeleton.Skeleton, def *state_machine.Definition, lookup blend_tree.AnimationLookup) (uint32, error)

	// RemoveInstance removes the instance at the given index using a swap-remove strategy.
	// Returns the old last index that was swapped and whether a swap occurred.
	//
	// Parameters:
	//   - index: the instance index to remove
	//
	// Returns:
	//   - uint32: the old last index that was swapped into the removed slot (only meaningful when bool is true)
	//   - bool: true if the last instance was swapped into the removed slot
	RemoveInstance(index uint32) (uint32, bool)

	// InstanceCount returns the current number of registered instances.
	//
	// Returns:
	//   - uint32: the number of active instances
	InstanceCount() uint32

	// SetParameter sets a state machine parameter on one instance.
	//
	// Parameters:
	//   - index: the instance to update
	//   - name: the parameter name
	//   - value: the new value
	//
	// Returns:
	//   - error: ErrInstanceNotFound for a bad index
	SetParameter(index uint32, name string, value float32) error

	// State returns the active state of an instance and whether it is crossfading into it.
	//
	// Parameters:
	//   - index: the instance to query
	//
	// Returns:
	//   - string: the current state name
	//   - bool: true while a crossfade into the state is running
	//   - error: ErrInstanceNotFound for a bad index
	State(index uint32) (string, bool, error)

	// SetState forces an instance into a state without a crossfade.
	//
	// Parameters:
	//   - index: the instance to update
	//   - name: the state to enter
	//
	// Returns:
	//   - error: ErrInstanceNotFound or a structure error for an unknown state
	SetState(index uint32, name string) error

	// SetIKChains replaces the IK chains solved for an instance each tick. Chains are validated
	// against the instance's skeleton; nil clears them.
	//
	// Parameters:
	//   - index: the instance to update
	//   - chains: the chains to solve, in order
	//
	// Returns:
	//   - error: ErrInstanceNotFound, or a structure error for a chain that does not fit
	SetIKChains(index uint32, chains []ik.Chain) error

	// PrepareFrame advances every instance by deltaTime and recomputes its pose, world transforms
	// and skinning palette, then stages the palettes for Flush.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last tick in seconds
	PrepareFrame(deltaTime float32)

	// LocalPose returns a copy of an instance's final local pose from the last PrepareFrame.
	// Before the first PrepareFrame it is the rest pose.
	//
	// Parameters:
	//   - index: the instance to query
	//
	// Returns:
	//   - skeleton.Pose: one local transform per bone
	//   - error: ErrInstanceNotFound for a bad index
	LocalPose(index uint32) (skeleton.Pose, error)

	// WorldTransforms returns a copy of an instance's bone world matrices from the last PrepareFrame.
	//
	// Parameters:
	//   - index: the instance to query
	//
	// Returns:
	//   - [][16]float32: one column-major matrix per bone
	//   - error: ErrInstanceNotFound for a bad index
	WorldTransforms(index uint32) ([][16]float32, error)

	// SkinningMatrices returns a copy of an instance's skinning palette from the last PrepareFrame.
	//
	// Parameters:
	//   - index: the instance to query
	//
	// Returns:
	//   - []float32: 16 floats per bone
	//   - error: ErrInstanceNotFound for a bad index
	SkinningMatrices(index uint32) ([]float32, error)

	// Flush returns and clears the palettes staged by the last PrepareFrame, plus any instance moved
	// into a new slot by RemoveInstance since then.
	//
	// Returns:
	//   - []PaletteWrite: the staged palettes
	Flush() []PaletteWrite

	// Release drops every instance.
	Release()
}

var _ Animator = &animator{}

// NewAnimator creates a new Animator configured with the provided options.
// Unless overridden, it uses config.Default.
//
// Parameters:
//   - options: variadic list of AnimatorBuilderOption functions to configure the Animator
//
// Returns:
//   - Animator: a new Animator
func NewAnimator(options ...AnimatorBuilderOption) Animator {
	cfg := config.Default()
	a := &animator{
		mu:           &sync.Mutex{},
		maxInstances: uint32(cfg.MaxInstances),
		workers:      cfg.Workers,
		queueSize:    cfg.QueueSize,
		workerIdle:   cfg.WorkerIdle,
		solver:       ik.Solver{Epsilon: cfg.IKEpsilon},
	}
	for _, opt := range options {
		opt(a)
	}
	if a.workers > 1 {
		a.pool = worker.NewDynamicWorkerPool(a.workers, a.queueSize, a.workerIdle)
	}
	return a
}

func (a *animator) MaxInstances() uint32 {
	return a.maxInstances
}

func (a *animator) AddInstance(skel *skeleton.Skeleton, def *state_machine.Definition, lookup blend_tree.AnimationLookup) (uint32, error) {
	if skel == nil || def == nil {
		return 0, fmt.Errorf("add instance: skeleton and state machine definition are required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.maxInstances > 0 && uint32(len(a.instances)) >= a.maxInstances {
		return 0, fmt.Errorf("add instance: %w (%d)", ErrCapacity, a.maxInstances)
	}
	a.instances = append(a.instances, newInstanceState(skel, def, lookup))
	return uint32(len(a.instances) - 1), nil
}

func (a *animator) RemoveInstance(index uint32) (uint32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	count := uint32(len(a.instances))
	if count == 0 || index >= count {
		return 0, false
	}

	last := count - 1
	swapped := index != last
	// staged palettes for the vacated tail slot and the overwritten slot are stale
	kept := a.stagedWriteData[:0]
	for _, w := range a.stagedWriteData {
		if w.Instance >= last || w.Instance == index {
			continue
		}
		kept = append(kept, w)
	}
	clear(a.stagedWriteData[len(kept):])
	a.stagedWriteData = kept
	if swapped {
		a.instances[index] = a.instances[last]
		a.markDirty(index)
	}
	a.instances[last] = nil
	a.instances = a.instances[:last]
	if a.dirty && a.dirtyEnd > last {
		a.dirtyEnd = last
		if a.dirtyStart >= a.dirtyEnd {
			a.dirty = false
		}
	}
	return last, swapped
}

func (a *animator) InstanceCount() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return uint32(len(a.instances))
}

func (a *animator) SetParameter(index uint32, name string, value float32) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, err := a.instance(index)
	if err != nil {
		return err
	}
	st.machine.SetParameter(name, value)
	return nil
}

func (a *animator) State(index uint32) (string, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, err := a.instance(index)
	if err != nil {
		return "", false, err
	}
	return st.machine.CurrentState(), st.machine.Crossfading(), nil
}

func (a *animator) SetState(index uint32, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, err := a.instance(index)
	if err != nil {
		return err
	}
	return st.machine.SetState(name)
}

func (a *animator) SetIKChains(index uint32, chains []ik.Chain) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, err := a.instance(index)
	if err != nil {
		return err
	}
	for i, c := range chains {
		if err := c.Validate(st.skel); err != nil {
			return fmt.Errorf("ik chain %d: %w", i, err)
		}
	}
	st.chains = append(st.chains[:0], chains...)
	// the instance owns its poles; workers read them during PrepareFrame
	for i := range st.chains {
		if st.chains[i].Pole != nil {
			pole := *st.chains[i].Pole
			st.chains[i].Pole = &pole
		}
	}
	return nil
}

func (a *animator) PrepareFrame(deltaTime float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.instances) == 0 {
		return
	}
	start := time.Now()

	if a.pool == nil {
		for _, st := range a.instances {
			st.tick(deltaTime, a.solver)
		}
	} else {
		// A WaitGroup is the per-tick barrier; the pool's own Wait blocks until workers idle out.
		var wg sync.WaitGroup
		for i, st := range a.instances {
			wg.Add(1)
			stCap := st
			a.pool.SubmitTask(worker.Task{
				ID: i,
				Do: func() (any, error) {
					defer wg.Done()
					stCap.tick(deltaTime, a.solver)
					return nil, nil
				},
			})
		}
		wg.Wait()
	}

	stats := profiler.Stats{Instances: len(a.instances), Elapsed: time.Since(start)}
	for i, st := range a.instances {
		if st.transitioned {
			stats.Transitions++
		}
		stats.IKSolves += st.ikSolves
		if st.ikErr != nil {
			log.Printf("[Animator] instance %d: %v", i, st.ikErr)
		}
	}
	// palettes of a frame that was never flushed are superseded
	a.stagedWriteData = a.stagedWriteData[:0]
	a.dirty = true
	a.dirtyStart = 0
	a.dirtyEnd = uint32(len(a.instances))
	a.stage()

	if a.profiler != nil {
		a.profiler.Record(stats)
	}
}

func (a *animator) LocalPose(index uint32) (skeleton.Pose, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, err := a.instance(index)
	if err != nil {
		return nil, err
	}
	return st.pose.Clone(), nil
}

func (a *animator) WorldTransforms(index uint32) ([][16]float32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, err := a.instance(index)
	if err != nil {
		return nil, err
	}
	out := make([][16]float32, len(st.worlds))
	copy(out, st.worlds)
	return out, nil
}

func (a *animator) SkinningMatrices(index uint32) ([]float32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, err := a.instance(index)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(st.skinning))
	copy(out, st.skinning)
	return out, nil
}

func (a *animator) Flush() []PaletteWrite {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stage()
	out := a.stagedWriteData
	a.stagedWriteData = nil
	return out
}

func (a *animator) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.instances)
	a.instances = a.instances[:0]
	a.stagedWriteData = nil
	a.dirty = false
}

// instance returns the state at index. The caller must hold a.mu.
func (a *animator) instance(index uint32) (*instanceState, error) {
	if index >= uint32(len(a.instances)) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrInstanceNotFound, index, len(a.instances))
	}
	return a.instances[index], nil
}

// markDirty extends the dirty range to cover index. The caller must hold a.mu.
func (a *animator) markDirty(index uint32) {
	if !a.dirty {
		a.dirtyStart = index
		a.dirtyEnd = index + 1
		a.dirty = true
		return
	}
	if index < a.dirtyStart {
		a.dirtyStart = index
	}
	if index+1 > a.dirtyEnd {
		a.dirtyEnd = index + 1
	}
}

// stage appends the dirty range's palettes to the staged writes and clears the range.
// The caller must hold a.mu.
func (a *animator) stage() {
	if !a.dirty {
		return
	}
	for i := a.dirtyStart; i < a.dirtyEnd && i < uint32(len(a.instances)); i++ {
		st := a.instances[i]
		if len(st.skinning) == 0 {
			continue
		}
		data := make([]byte, len(st.skinning)*4)
		copy(data, common.SliceToBytes(st.skinning))
		a.stagedWriteData = append(a.stagedWriteData, PaletteWrite{Instance: i, Data: data})
	}
	a.dirty = false
}
