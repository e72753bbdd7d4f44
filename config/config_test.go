package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTOMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "oxy.toml", `
[window]
title = "viewer"
vsync = false

[renderer]
dialect = "glsl330"
clear_color = [0.2, 0.3, 0.4, 1.0]

[shaders]
manifest = "shaders/manifest.yaml"
watch = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "viewer", cfg.Window.Title)
	assert.False(t, cfg.Window.VSync)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, [4]float32{0.2, 0.3, 0.4, 1}, cfg.Renderer.ClearColor)
	assert.Equal(t, filepath.Join(dir, "shaders", "manifest.yaml"), cfg.Shaders.Manifest)
	assert.True(t, cfg.Shaders.Watch)
	assert.Equal(t, "info", cfg.Log.Level)

	d, err := cfg.ShaderDialect()
	require.NoError(t, err)
	assert.Equal(t, shader.DialectGLSL330, d)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "oxy.yml", "window:\n  width: 640\n  height: 480\nlog:\n  level: debug\n  format: json\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Window.Width)
	assert.Equal(t, 480, cfg.Window.Height)
	assert.Equal(t, string(shader.DialectGLSL410), cfg.Renderer.Dialect)

	var buf bytes.Buffer
	logger, err := cfg.Log.NewLogger(&buf)
	require.NoError(t, err)
	logger.Debug("hello", "k", 1)
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestNewLoggerLevelsAndFormats(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LogConfig{Level: "warn", Format: "text"}.NewLogger(&buf)
	require.NoError(t, err)
	logger.Info("dropped")
	logger.Warn("kept", slog.String("shader", "base_pbr"))
	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "kept")
	assert.Contains(t, out, `"shader": "base_pbr"`)

	buf.Reset()
	logger, err = LogConfig{Level: "debug", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)
	logger.Debug("compiled", slog.Group("cache", slog.Int("programs", 2)))
	assert.Contains(t, buf.String(), `"level":"debug"`)
	assert.Contains(t, buf.String(), `"cache":{"programs":2}`)

	_, err = LogConfig{Level: "info", Format: "xml"}.NewLogger(&buf)
	assert.Error(t, err)
}

func TestLoadRejects(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown key", "a.toml", "[window]\ncolour = 1\n"},
		{"bad dialect", "b.toml", "[renderer]\ndialect = \"hlsl\"\n"},
		{"bad size", "c.toml", "[window]\nwidth = 0\n"},
		{"bad level", "d.yaml", "log:\n  level: loud\n"},
		{"bad format", "e.yaml", "log:\n  format: xml\n"},
		{"bad extension", "f.ini", "x=1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, dir, tt.file, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

const manifestYAML = `
shaders:
  - name: unlit
    glsl:
      vertex: unlit.vert
      fragment: unlit.frag
    defines:
      USE_FOG: "false"
    variants:
      - {HAS_TEXCOORD: "true"}
      - {HAS_TEXCOORD: "true", USE_FOG: "true"}
  - name: sky
    wgsl: sky.wgsl
`

func writeManifest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "unlit.vert", "attribute vec3 aPosition;\nvoid main() { gl_Position = vec4(aPosition, 1.0); }\n")
	writeFile(t, dir, "unlit.frag", "void main() { gl_FragColor = vec4(1.0); }\n")
	writeFile(t, dir, "sky.wgsl", "@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }\n")
	return writeFile(t, dir, "manifest.yaml", manifestYAML)
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t)
	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(path), m.Dir)
	require.Len(t, m.Shaders, 2)

	e, ok := m.Entry("unlit")
	require.True(t, ok)
	assert.Equal(t, shader.DefineMap{"USE_FOG": "false"}, e.Defines)
	assert.Len(t, e.Variants, 2)

	bundles, err := m.Variants(m.Dir)
	require.NoError(t, err)
	require.Len(t, bundles, 2)
	assert.Equal(t, "unlit", bundles[0].Name)
	require.NotNil(t, bundles[0].GLSL)
	assert.Contains(t, bundles[0].GLSL.Vertex, "aPosition")
	assert.Equal(t, shader.DefineMap{"USE_FOG": "false"}, bundles[0].GLSL.Defines)
	assert.Nil(t, bundles[0].WGSL)
	assert.Nil(t, bundles[1].GLSL)
	require.NotNil(t, bundles[1].WGSL)
	assert.Contains(t, bundles[1].WGSL.Code, "fs_main")
}

func TestManifestRegisterAndRequests(t *testing.T) {
	m, err := LoadManifest(writeManifest(t))
	require.NoError(t, err)

	reg := shader.NewRegistry()
	require.NoError(t, m.Register(reg))
	assert.Equal(t, []string{"sky", "unlit"}, reg.Names())

	glsl := m.Requests(shader.DialectGLSL330)
	require.Len(t, glsl, 3)
	for _, r := range glsl {
		assert.Equal(t, "unlit", r.Name)
	}
	assert.Empty(t, glsl[0].Options.Defines)
	assert.Equal(t, shader.DefineMap{"HAS_TEXCOORD": "true"}, glsl[1].Options.Defines)

	wgsl := m.Requests(shader.DialectWGSL)
	require.Len(t, wgsl, 1)
	assert.Equal(t, "sky", wgsl[0].Name)
}

func TestManifestFiles(t *testing.T) {
	m, err := LoadManifest(writeManifest(t))
	require.NoError(t, err)
	files := m.Files()
	assert.Equal(t, map[string]string{
		filepath.Join(m.Dir, "unlit.vert"): "unlit",
		filepath.Join(m.Dir, "unlit.frag"): "unlit",
		filepath.Join(m.Dir, "sky.wgsl"):   "sky",
	}, files)
}

func TestManifestValidate(t *testing.T) {
	m := &Manifest{Shaders: []ShaderEntry{
		{Name: "a", WGSL: "a.wgsl"},
		{Name: "a", WGSL: "a.wgsl"},
		{Name: "b"},
		{Name: "c", WGSL: "c.wgsl", Defines: shader.DefineMap{"X": ""}},
		{WGSL: "d.wgsl"},
	}}
	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listed twice")
	assert.Contains(t, err.Error(), "has no sources")
	assert.ErrorIs(t, err, shader.ErrInvalidDefine)
	assert.Contains(t, err.Error(), "has no name")
}

func TestManifestMissingSource(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "manifest.yaml", "shaders:\n  - name: x\n    wgsl: nope.wgsl\n")
	m, err := LoadManifest(path)
	require.NoError(t, err)
	_, err = m.Variants(m.Dir)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
