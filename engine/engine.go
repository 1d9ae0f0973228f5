package engine

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-rig/engine/animator"
)

// engine implements the Engine interface.
type engine struct {
	mu *sync.Mutex

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	frameCallback  func(deltaTime float32)

	animators map[int]animator.Animator
}

// Engine drives registered animators at a fixed tick rate.
//
// Each tick runs in three phases: the tick callback (gameplay sets parameters and IK targets),
// PrepareFrame on every animator in ascending key order, then the frame callback (the renderer
// drains palettes with Flush or queries poses).
type Engine interface {
	// SetTickRate sets the engine tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called at the start of each tick, before animation.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetFrameCallback registers the function called after every animator has prepared its frame.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetFrameCallback(callback func(deltaTime float32))

	// AddAnimator registers an animator at the given key. Animators tick in ascending key order.
	//
	// Parameters:
	//   - key: the ordering key
	//   - a: the Animator to register
	AddAnimator(key int, a animator.Animator)

	// RemoveAnimator removes the animator at the given key.
	//
	// Parameters:
	//   - key: the key of the animator to remove
	RemoveAnimator(key int)

	// Animator retrieves the animator registered at the given key, or nil.
	//
	// Parameters:
	//   - key: the key of the animator to retrieve
	//
	// Returns:
	//   - animator.Animator: the animator at the key, or nil if not found
	Animator(key int) animator.Animator

	// Tick runs one tick synchronously with the given delta time.
	//
	// Parameters:
	//   - deltaTime: the elapsed time in seconds
	Tick(deltaTime float32)

	// Run starts the fixed-rate tick loop and blocks until Quit is called.
	Run()

	// Quit signals the tick loop to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:              &sync.Mutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		animators:       make(map[int]animator.Animator),
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}
	return e
}

func (e *engine) Run() {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()

	e.wg.Add(1)
	go e.handleEngine()
	e.wg.Wait()
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		close(e.quitChannel)
	})
}

// handleEngine runs the fixed-rate tick loop in its own goroutine.
// Listens for dynamic rate changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	// Recover from panics inside the tick goroutine to avoid crashing the whole process.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] tick goroutine recovered from panic: %v", r)
			e.Quit()
		}
	}()

	e.mu.Lock()
	rate := e.engineTickRate
	e.mu.Unlock()
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			e.Tick(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
		}
	}
}

func (e *engine) Tick(deltaTime float32) {
	e.mu.Lock()
	tickCallback, frameCallback := e.tickCallback, e.frameCallback
	keys := make([]int, 0, len(e.animators))
	for k := range e.animators {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	active := make([]animator.Animator, 0, len(keys))
	for _, k := range keys {
		active = append(active, e.animators[k])
	}
	e.mu.Unlock()

	if tickCallback != nil {
		tickCallback(deltaTime)
	}
	for _, a := range active {
		a.PrepareFrame(deltaTime)
	}
	if frameCallback != nil {
		frameCallback(deltaTime)
	}
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	e.mu.Lock()
	e.engineTickRate = newRate
	running := e.running
	e.mu.Unlock()
	if !running {
		return
	}

	// Non-blocking send - if channel is full, replace the pending value
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) SetFrameCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frameCallback = callback
}

func (e *engine) AddAnimator(key int, a animator.Animator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.animators[key] = a
}

func (e *engine) RemoveAnimator(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.animators, key)
}

func (e *engine) Animator(key int) animator.Animator {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.animators[key]
}
