package profiler

import (
	"log"
	"runtime"
	"time"
)

// Profiler tracks tick rate, pose evaluation cost and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	tickCount      int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	instances   int
	evalTotal   time.Duration
	evalMax     time.Duration
	transitions int
	ikSolves    int
	logger      *log.Logger
	now         func() time.Time
}

// Stats is what one tick of the animation pipeline reports to the Profiler.
type Stats struct {
	// Instances is the number of character instances evaluated this tick.
	Instances int

	// Elapsed is the wall time the tick's evaluation took.
	Elapsed time.Duration

	// Transitions is the number of state machine transitions taken this tick.
	Transitions int

	// IKSolves is the number of IK chains solved this tick.
	IKSolves int
}

// NewProfiler creates a new Profiler.
// A non-positive interval defaults to 1 second.
//
// Parameters:
//   - interval: how often Tick logs
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
		memStats:       runtime.MemStats{},
		logger:         log.Default(),
		now:            time.Now,
	}
}

// SetLogger redirects the profiler's output.
func (p *Profiler) SetLogger(l *log.Logger) {
	if l != nil {
		p.logger = l
	}
}

// Record accumulates one tick's statistics and then calls Tick.
//
// Parameters:
//   - s: the tick's statistics
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Record(s Stats) bool {
	p.instances += s.Instances
	p.evalTotal += s.Elapsed
	if s.Elapsed > p.evalMax {
		p.evalMax = s.Elapsed
	}
	p.transitions += s.Transitions
	p.ikSolves += s.IKSolves
	return p.Tick()
}

// Tick should be called once per animation tick to track tick timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: ticks per second, average instances per tick, average and max evaluation time,
// transitions and IK solves since the last log, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.tickCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	tps := float64(p.tickCount) / elapsed.Seconds()
	avgInstances := float64(p.instances) / float64(p.tickCount)
	avgEvalMs := float64(p.evalTotal.Microseconds()) / 1000 / float64(p.tickCount)
	maxEvalMs := float64(p.evalMax.Microseconds()) / 1000

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	p.logger.Printf("[Profiler] TPS: %.2f | Instances: %.1f | Eval: %.3f ms (max %.3f ms) | Transitions: %d | IK: %d | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		tps, avgInstances, avgEvalMs, maxEvalMs, p.transitions, p.ikSolves, allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB)

	p.tickCount = 0
	p.instances = 0
	p.evalTotal = 0
	p.evalMax = 0
	p.transitions = 0
	p.ikSolves = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
