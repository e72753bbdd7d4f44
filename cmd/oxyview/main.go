// Command oxyview opens a window and draws a small lit scene with the built-in shaders and any
// shaders listed in a manifest. With watching enabled, saving a shader source recompiles the
// programs built from it.
//
// Input: left-drag or arrows orbit, scroll zooms, M cycles shading, R reloads manifest shaders, C clears the
// variant cache, P toggles the profiler.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/config"
	"github.com/Carmen-Shannon/oxy-gl/engine"
	"github.com/Carmen-Shannon/oxy-gl/engine/hotreload"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend/opengl"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-gl/engine/window"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// loadConfig reads the config file at path, or the defaults when path is empty, and applies the
// flag overrides.
func loadConfig(path, manifest string, watch bool) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if manifest != "" {
		cfg.Shaders.Manifest = manifest
	}
	if watch {
		cfg.Shaders.Watch = true
	}
	return cfg, nil
}

// loadShaders fills a registry with the built-in shaders and the manifest's shaders, then
// prewarms the manifest's variants for dialect. The returned manifest is nil when none is set.
func loadShaders(cfg config.Config, dialect shader.Dialect) (shader.Registry, *config.Manifest, error) {
	reg := shader.NewRegistry()
	if err := shader.RegisterBuiltins(reg); err != nil {
		return nil, nil, err
	}
	if cfg.Shaders.Manifest == "" {
		return reg, nil, nil
	}
	m, err := config.LoadManifest(cfg.Shaders.Manifest)
	if err != nil {
		return nil, nil, err
	}
	if err := m.Register(reg); err != nil {
		return nil, nil, err
	}
	if err := shader.Prewarm(reg, m.Requests(dialect), cfg.Renderer.PrewarmWorkers); err != nil {
		return nil, nil, err
	}
	stats := reg.Stats()
	common.Logger().Info("shaders loaded",
		slog.String("manifest", cfg.Shaders.Manifest),
		slog.Int("shaders", stats.Shaders),
		slog.Int("variants", stats.Variants))
	return reg, m, nil
}

// glVersion returns the OpenGL context version whose shading language matches dialect.
func glVersion(d shader.Dialect) (major, minor int) {
	switch d {
	case shader.DialectGLSL100, shader.DialectGLSL120:
		return 2, 1
	case shader.DialectGLSL300ES, shader.DialectGLSL330:
		return 3, 3
	default:
		return 4, 1
	}
}

func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("oxyview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "TOML or YAML config file")
	manifestPath := fs.String("manifest", "", "shader manifest, overrides the config")
	watch := fs.Bool("watch", false, "reload manifest shaders when their sources change")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath, *manifestPath, *watch)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger, err := cfg.Log.NewLogger(stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	common.SetLogger(logger)

	dialect, err := cfg.ShaderDialect()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if !dialect.IsGLSL() {
		fmt.Fprintf(stderr, "oxyview: dialect %s cannot be drawn with OpenGL\n", dialect)
		return 1
	}
	reg, m, err := loadShaders(cfg, dialect)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	major, minor := glVersion(dialect)
	win := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
		window.WithVSync(cfg.Window.VSync),
		window.WithContextVersion(major, minor),
	)
	ctx, err := opengl.NewContext(dialect)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if cfg.Renderer.MaxTextureUnits > 0 {
		ctx = unitLimit{Context: ctx, units: cfg.Renderer.MaxTextureUnits}
	}
	c := cfg.Renderer.ClearColor
	r := renderer.NewRenderer(ctx,
		renderer.WithRegistry(reg),
		renderer.WithClearColor(c[0], c[1], c[2], c[3]),
	)

	eng := engine.NewEngine(
		engine.WithRenderer(r),
		engine.WithWindow(win),
		engine.WithTickRate(60),
	)
	v := newViewer(eng, reg, m, float32(win.Width())/float32(win.Height()))

	if cfg.Shaders.Watch && m != nil {
		w, err := hotreload.NewWatcher(m.Files(), func(name string) {
			eng.Post(func() { v.reload(name) })
		})
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		defer w.Close()
	}

	win.SetKeyDownCallback(v.keyDown)
	win.SetKeyUpCallback(v.keyUp)
	win.SetScrollCallback(v.zoom)
	win.SetDragCallback(v.drag)
	eng.SetTickCallback(v.tick)

	common.Logger().Info("viewer started", slog.String("dialect", string(dialect)))
	eng.Run()
	return 0
}
