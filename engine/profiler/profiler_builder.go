package profiler

import (
	"time"

	"github.com/Carmen-Shannon/oxy-gl/engine/renderer"
)

// ProfilerBuilderOption is a functional option applied to a Profiler during construction via NewProfiler.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often statistics are logged.
//
// Parameters:
//   - interval: the logging interval
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the interval option to a profiler
func WithInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = interval
	}
}

// WithRenderer attaches a renderer whose frame and cache statistics are logged with each interval.
//
// Parameters:
//   - r: the renderer to sample
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the renderer option to a profiler
func WithRenderer(r renderer.Renderer) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.renderer = r
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}
