package engine

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/profiler"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer"
	"github.com/Carmen-Shannon/oxy-gl/engine/scene"
	"github.com/Carmen-Shannon/oxy-gl/engine/window"
)

// maxTicksPerFrame bounds the catch-up ticks run after a long frame.
const maxTicksPerFrame = 5

// engine implements the Engine interface.
// Runs ticks, rendering and posted tasks on the thread that owns the graphics context.
type engine struct {
	window   window.Window
	renderer renderer.Renderer

	profiler         *profiler.Profiler
	profilingEnabled bool

	tickRate       time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)
	accumulator    time.Duration

	scenes map[int]scene.Scene

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	now       func() time.Time
	lastFrame time.Time
	frames    uint64

	tasksMu sync.Mutex
	tasks   []func()

	quitChannel  chan struct{}
	quitOnce     sync.Once
	shutdownOnce sync.Once
}

// Engine drives the frame loop. Graphics resources may only be touched from the thread that owns
// the context, so every frame runs on the goroutine that calls Run or Step; other goroutines hand
// work to it with Post.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance, or nil when the engine runs without one
	Window() window.Window

	// Renderer returns the renderer scenes are drawn with.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// Profiler returns the frame profiler.
	//
	// Returns:
	//   - *profiler.Profiler: the profiler
	Profiler() *profiler.Profiler

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// ProfilerEnabled reports whether profiling output is enabled.
	//
	// Returns:
	//   - bool: true if the profiler ticks each frame
	ProfilerEnabled() bool

	// SetTickRate sets the engine tick rate in ticks per second.
	// The tick callback will be called at this rate for logic updates.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the fixed tick duration in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after the scenes of each frame are drawn.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene at the given z-index key.
	// Scenes are rendered in ascending key order; the first active scene clears the frame and the
	// rest are layered over it.
	//
	// Parameters:
	//   - key: the z-index determining render order (lower renders first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key.
	// Returns nil if no scene exists at that key.
	//
	// Parameters:
	//   - key: the z-index of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by z-index.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// Post queues task to run on the frame thread before the next frame. Safe to call from any
	// goroutine.
	//
	// Parameters:
	//   - task: the function to run
	//
	// Returns:
	//   - bool: false if the engine has quit and the task was dropped
	Post(task func()) bool

	// Step runs one frame: posted tasks, due ticks, scene rendering, the render callback and the
	// profiler. It does not present the frame.
	//
	// Returns:
	//   - bool: false once Quit has been called
	Step() bool

	// Frames returns the number of frames run by Step.
	//
	// Returns:
	//   - uint64: the frame count
	Frames() uint64

	// Run runs frames through the window's message loop, presenting each one, until the window
	// closes or Quit is called. It then releases the renderer and closes the window.
	Run()

	// Quit signals the frame loop to stop.
	// Safe to call multiple times and from any goroutine; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// A renderer is required; without WithWindow the engine is driven by calling Step.
//
// Parameters:
//   - options: functional options for engine configuration (renderer, window, profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		quitChannel: make(chan struct{}),
		scenes:      make(map[int]scene.Scene),
		tickRate:    time.Second / 60,
		now:         time.Now,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.renderer == nil {
		panic("engine: NewEngine requires a renderer")
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithRenderer(e.renderer), profiler.WithClock(e.now))
	}
	e.lastFrame = e.now()

	if e.window != nil {
		e.renderer.Resize(e.window.Width(), e.window.Height())
		e.window.SetResizeCallback(e.resize)
	}

	return e
}

// resize updates the viewport and the aspect ratio of every scene camera.
func (e *engine) resize(width, height int) {
	e.renderer.Resize(width, height)
	if width <= 0 || height <= 0 {
		return
	}
	for _, s := range e.scenes {
		if c := s.Camera(); c != nil {
			c.SetAspect(float32(width) / float32(height))
		}
	}
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) Run() {
	if e.window == nil {
		panic("engine: Run requires a window")
	}
	e.window.SetUpdateCallback(func() {
		if !e.Step() {
			e.shutdown()
			return
		}
		e.window.SwapBuffers()
	})
	e.window.ProcessMessages()
	e.shutdown()
}

// shutdown releases GPU resources while the context is still alive, then closes the window.
func (e *engine) shutdown() {
	e.shutdownOnce.Do(func() {
		e.signalQuit()
		if err := e.renderer.Release(); err != nil {
			common.Logger().Warn("renderer release failed", slog.Any("error", err))
		}
		if e.window != nil {
			if err := e.window.Close(); err != nil {
				common.Logger().Warn("window close failed", slog.Any("error", err))
			}
		}
	})
}

// Quit signals the frame loop to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal the frame loop to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) quitting() bool {
	select {
	case <-e.quitChannel:
		return true
	default:
		return false
	}
}

func (e *engine) Post(task func()) bool {
	if task == nil || e.quitting() {
		return false
	}
	e.tasksMu.Lock()
	e.tasks = append(e.tasks, task)
	e.tasksMu.Unlock()
	return true
}

// runTasks runs the tasks posted before this call. Tasks posted by a running task wait for the
// next frame.
func (e *engine) runTasks() {
	e.tasksMu.Lock()
	tasks := e.tasks
	e.tasks = nil
	e.tasksMu.Unlock()
	for _, task := range tasks {
		task()
	}
}

func (e *engine) Step() bool {
	if e.quitting() {
		return false
	}
	start := e.now()
	dt := start.Sub(e.lastFrame)
	e.lastFrame = start

	e.runTasks()
	e.tick(dt)
	e.renderScenes()

	if e.renderCallback != nil {
		e.renderCallback(float32(dt.Seconds()))
	}
	if e.profilingEnabled {
		e.profiler.Tick()
	}
	e.frames++

	// Frame rate limiting
	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - e.now().Sub(start); remaining > 0 {
			time.Sleep(remaining)
		}
	}
	return !e.quitting()
}

// tick runs the fixed-rate tick callback for the time accumulated since the last frame. After a
// long stall at most maxTicksPerFrame ticks run and the remaining backlog is dropped.
func (e *engine) tick(dt time.Duration) {
	if e.tickCallback == nil {
		e.accumulator = 0
		return
	}
	e.accumulator += dt
	step := float32(e.tickRate.Seconds())
	for n := 0; e.accumulator >= e.tickRate; n++ {
		if n == maxTicksPerFrame {
			e.accumulator = 0
			break
		}
		e.tickCallback(step)
		e.accumulator -= e.tickRate
	}
}

// renderScenes draws every active scene in ascending z-index order.
func (e *engine) renderScenes() {
	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	first := true
	for _, k := range keys {
		s := e.scenes[k]
		if !s.Active() || s.Camera() == nil {
			continue
		}
		if first {
			e.renderer.Render(s.Camera(), s)
			first = false
		} else {
			e.renderer.Overlay(s.Camera(), s)
		}
	}
}

func (e *engine) Frames() uint64 {
	return e.frames
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) ProfilerEnabled() bool {
	return e.profilingEnabled
}

// SetTickRate sets the engine tick rate in ticks per second.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	e.tickRate = time.Duration(float64(time.Second) / fps)
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}
