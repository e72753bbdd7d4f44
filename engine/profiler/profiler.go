package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer"
)

// Snapshot is the set of statistics logged at the end of one interval.
type Snapshot struct {
	FPS         float64
	HeapMB      float64
	AllocRateMB float64
	SysMB       float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64

	// Frame is the renderer's statistics for the last frame of the interval.
	Frame renderer.FrameStats

	// Cache is the resource cache state at the end of the interval.
	Cache renderer.CacheStats
}

// Profiler tracks frame rate, memory and resource cache statistics for performance monitoring.
// Outputs stats through the package logger at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	now      func() time.Time
	renderer renderer.Renderer
	last     Snapshot
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory,
// and the renderer's frame and cache counters when a renderer is attached.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	s := Snapshot{
		FPS:    float64(p.frameCount) / elapsed.Seconds(),
		HeapMB: float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:  float64(p.memStats.Sys) / 1024 / 1024,
	}
	// TotalAlloc grows forever; the delta is the allocation churn of this interval.
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	s.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	s.GCCount = p.memStats.NumGC
	if s.GCCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses.
		s.LastPauseUs = p.memStats.PauseNs[(s.GCCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if s.GCCount-startIdx > 256 {
			startIdx = s.GCCount - 256
		}
		for i := startIdx; i < s.GCCount; i++ {
			s.MaxPauseUs = max(s.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	attrs := []any{
		slog.Float64("fps", s.FPS),
		slog.Float64("heap_mb", s.HeapMB),
		slog.Float64("alloc_rate_mb", s.AllocRateMB),
		slog.Uint64("gc", uint64(s.GCCount)),
		slog.Uint64("gc_last_us", s.LastPauseUs),
		slog.Uint64("gc_max_us", s.MaxPauseUs),
		slog.Float64("sys_mb", s.SysMB),
	}
	if p.renderer != nil {
		s.Frame = p.renderer.FrameStats()
		s.Cache = p.renderer.Cache().Stats()
		attrs = append(attrs,
			slog.Group("frame",
				slog.Int("models", s.Frame.Models),
				slog.Int("draws", s.Frame.Draws),
				slog.Int("skipped", s.Frame.Skipped)),
			slog.Group("cache",
				slog.Int("programs", s.Cache.Programs),
				slog.Int("pipelines", s.Cache.Pipelines),
				slog.Int("meshes", s.Cache.Meshes),
				slog.Int("textures", s.Cache.Textures),
				slog.Uint64("program_hits", s.Cache.ProgramHits),
				slog.Uint64("program_misses", s.Cache.ProgramMisses),
				slog.Uint64("compile_failures", s.Cache.CompileFailures),
				slog.Uint64("variant_failures", s.Cache.VariantFailures)))
	}
	common.Logger().Info("profiler", attrs...)

	p.last = s
	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the snapshot logged by the most recent interval.
func (p *Profiler) Last() Snapshot {
	return p.last
}
