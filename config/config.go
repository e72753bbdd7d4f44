// Package config loads the viewer configuration and the shader manifest.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// WindowConfig is the [window] table.
type WindowConfig struct {
	Title  string `toml:"title" yaml:"title"`
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
	VSync  bool   `toml:"vsync" yaml:"vsync"`
}

// RendererConfig is the [renderer] table.
type RendererConfig struct {
	// Dialect names the shader dialect programs are compiled for, e.g. "glsl410".
	Dialect string `toml:"dialect" yaml:"dialect"`

	// ClearColor is the RGBA frame clear color.
	ClearColor [4]float32 `toml:"clear_color" yaml:"clear_color"`

	// MaxTextureUnits caps the units handed to textures. Zero uses the context limit.
	MaxTextureUnits int `toml:"max_texture_units" yaml:"max_texture_units"`

	// PrewarmWorkers bounds the pool that preprocesses manifest variants. Zero uses one per CPU.
	PrewarmWorkers int `toml:"prewarm_workers" yaml:"prewarm_workers"`
}

// ShadersConfig is the [shaders] table.
type ShadersConfig struct {
	// Manifest is the shader manifest path. A relative path is resolved against the
	// directory of the configuration file.
	Manifest string `toml:"manifest" yaml:"manifest"`

	// Watch enables shader hot reload.
	Watch bool `toml:"watch" yaml:"watch"`
}

// LogConfig is the [log] table.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level"`

	// Format is text or json.
	Format string `toml:"format" yaml:"format"`
}

// Config is the viewer configuration.
type Config struct {
	Window   WindowConfig   `toml:"window" yaml:"window"`
	Renderer RendererConfig `toml:"renderer" yaml:"renderer"`
	Shaders  ShadersConfig  `toml:"shaders" yaml:"shaders"`
	Log      LogConfig      `toml:"log" yaml:"log"`
}

// Default returns the configuration used for every key a file leaves out.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "oxy-gl",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Renderer: RendererConfig{
			Dialect:    string(shader.DialectGLSL410),
			ClearColor: [4]float32{0.1, 0.1, 0.12, 1},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a TOML or YAML configuration file over Default and validates the result.
//
// Parameters:
//   - path: the configuration file, ".toml", ".yaml" or ".yml"
//
// Returns:
//   - Config: the loaded configuration
//   - error: an error if the file cannot be read, decoded or validated
func Load(path string) (Config, error) {
	f, err := DecoderFor(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := Open(&cfg, path, f); err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", path, err)
	}
	if cfg.Shaders.Manifest != "" && !filepath.IsAbs(cfg.Shaders.Manifest) {
		cfg.Shaders.Manifest = filepath.Join(filepath.Dir(path), cfg.Shaders.Manifest)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid field, joined.
func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if _, err := c.ShaderDialect(); err != nil {
		errs = append(errs, err)
	}
	if c.Renderer.MaxTextureUnits < 0 {
		errs = append(errs, fmt.Errorf("max_texture_units %d is negative", c.Renderer.MaxTextureUnits))
	}
	if c.Renderer.PrewarmWorkers < 0 {
		errs = append(errs, fmt.Errorf("prewarm_workers %d is negative", c.Renderer.PrewarmWorkers))
	}
	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format %q is not text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ShaderDialect parses the renderer dialect.
func (c Config) ShaderDialect() (shader.Dialect, error) {
	return shader.ParseDialect(c.Renderer.Dialect)
}

func (l LogConfig) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", l.Level, err)
	}
	return lvl, nil
}

// NewLogger builds the slog logger the log table describes. Records are encoded by a zap core:
// "json" uses zap's JSON encoder and "text" its console encoder.
//
// Parameters:
//   - w: the destination of log records
//
// Returns:
//   - *slog.Logger: the logger
//   - error: an error if the level or format is invalid
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	lvl, err := l.level()
	if err != nil {
		return nil, err
	}
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "time"
	enc.MessageKey = "msg"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch strings.ToLower(l.Format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(enc)
	case "text", "":
		enc.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(enc)
	default:
		return nil, fmt.Errorf("log format %q is not text or json", l.Format)
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zapLevel(lvl))
	return slog.New(zapslog.NewHandler(core)), nil
}

// zapLevel maps a slog level onto the nearest zap level at or below it.
func zapLevel(l slog.Level) zapcore.Level {
	switch {
	case l >= slog.LevelError:
		return zapcore.ErrorLevel
	case l >= slog.LevelWarn:
		return zapcore.WarnLevel
	case l >= slog.LevelInfo:
		return zapcore.InfoLevel
	}
	return zapcore.DebugLevel
}
