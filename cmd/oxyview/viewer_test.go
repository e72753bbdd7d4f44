package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/config"
	"github.com/Carmen-Shannon/oxy-gl/engine"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend/headless"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-gl/engine/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, fragment string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flat.vert"), []byte("attribute vec3 aPosition;\nuniform mat4 uModel;\nvoid main() { gl_Position = uModel * vec4(aPosition, 1.0); }\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flat.frag"), []byte(fragment), 0o644))
	path := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shaders:\n  - name: flat\n    glsl: {vertex: flat.vert, fragment: flat.frag}\n    variants:\n      - {USE_FOG: \"true\"}\n"), 0o644))
	return path
}

func newTestViewer(t *testing.T, cfg config.Config) (headless.Context, *viewer) {
	t.Helper()
	reg, m, err := loadShaders(cfg, shader.DialectGLSL330)
	require.NoError(t, err)
	ctx := headless.NewContext()
	eng := engine.NewEngine(engine.WithRenderer(renderer.NewRenderer(ctx, renderer.WithRegistry(reg))))
	return ctx, newViewer(eng, reg, m, 16.0/9.0)
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig("", "shaders.yaml", true)
	require.NoError(t, err)
	assert.Equal(t, "shaders.yaml", cfg.Shaders.Manifest)
	assert.True(t, cfg.Shaders.Watch)
	assert.Equal(t, config.Default().Window, cfg.Window)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.toml"), "", false)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadShadersPrewarmsManifest(t *testing.T) {
	cfg := config.Default()
	cfg.Shaders.Manifest = writeManifest(t, "void main() { gl_FragColor = vec4(1.0); }\n")
	cfg.Renderer.PrewarmWorkers = 2

	reg, m, err := loadShaders(cfg, shader.DialectGLSL330)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, reg.Has("flat"))
	assert.True(t, reg.Has(shader.ShaderBasePhong))
	assert.Equal(t, 2, reg.CachedLen())
}

func TestViewerDrawsScene(t *testing.T) {
	cfg := config.Default()
	cfg.Shaders.Manifest = writeManifest(t, "void main() { gl_FragColor = vec4(1.0); }\n")
	_, v := newTestViewer(t, cfg)

	// floor, three cubes and one cube for the manifest shader
	assert.Equal(t, 5, v.scene.Count())
	require.True(t, v.eng.Step())
	assert.Equal(t, 5, v.eng.Renderer().FrameStats().Draws)
}

func TestViewerCyclesShading(t *testing.T) {
	_, v := newTestViewer(t, config.Default())
	assert.Equal(t, shader.ShaderBaseMaterial, material.ShaderName(v.cubes[0].Material()))

	v.keyDown(common.KeyM)
	assert.Equal(t, shader.ShaderBasePhong, material.ShaderName(v.cubes[1].Material()))
	v.keyDown(common.KeyM)
	assert.Equal(t, shader.ShaderBasePbr, material.ShaderName(v.cubes[2].Material()))
	v.keyDown(common.KeyM)
	assert.Equal(t, shader.ShaderBaseMaterial, material.ShaderName(v.cubes[0].Material()))

	require.True(t, v.eng.Step())
	assert.Equal(t, 4, v.eng.Renderer().FrameStats().Draws)
}

func TestViewerKeys(t *testing.T) {
	_, v := newTestViewer(t, config.Default())
	require.True(t, v.eng.Step())
	require.Positive(t, v.reg.CachedLen())

	v.keyDown(common.KeyC)
	assert.Zero(t, v.reg.CachedLen())

	v.keyDown(common.KeyP)
	assert.True(t, v.eng.ProfilerEnabled())
	v.keyDown(common.KeyP)
	assert.False(t, v.eng.ProfilerEnabled())

	// Without a manifest there is nothing to reload.
	v.keyDown(common.KeyR)
}

func TestViewerReloadsManifestShaders(t *testing.T) {
	cfg := config.Default()
	cfg.Shaders.Manifest = writeManifest(t, "void main() { gl_FragColor = vec4(1.0); }\n")
	ctx, v := newTestViewer(t, cfg)
	require.True(t, v.eng.Step())

	require.NoError(t, os.WriteFile(filepath.Join(v.manifest.Dir, "flat.frag"),
		[]byte("void main() { gl_FragColor = vec4(0.0, 1.0, 0.0, 1.0); }\n"), 0o644))
	ctx.ResetCalls()
	v.keyDown(common.KeyR)
	assert.Contains(t, ctx.Ops(), "DeleteProgram")

	require.True(t, v.eng.Step())
	assert.Contains(t, ctx.Ops(), "CompileProgram")
}

func TestViewerOrbit(t *testing.T) {
	_, v := newTestViewer(t, config.Default())
	before := v.cam.Position()

	v.keyDown(common.KeyLeft)
	v.tick(0.5)
	v.keyUp(common.KeyLeft)
	assert.NotEqual(t, before, v.cam.Position())
	assert.InDelta(t, 9, v.cam.Position().Len(), 1e-4)

	v.zoom(100)
	assert.InDelta(t, 2, v.cam.Position().Len(), 1e-4)
}

func TestViewerDragOrbits(t *testing.T) {
	_, v := newTestViewer(t, config.Default())
	before := v.cam.Position()

	v.drag(window.MouseRight, 50, 0)
	assert.Equal(t, before, v.cam.Position())

	v.drag(window.MouseLeft, 50, 0)
	assert.NotEqual(t, before, v.cam.Position())
	assert.InDelta(t, 9, v.cam.Position().Len(), 1e-4)
}

func TestGLVersion(t *testing.T) {
	for d, want := range map[shader.Dialect][2]int{
		shader.DialectGLSL120: {2, 1},
		shader.DialectGLSL330: {3, 3},
		shader.DialectGLSL410: {4, 1},
	} {
		major, minor := glVersion(d)
		assert.Equal(t, want, [2]int{major, minor}, d)
	}
}

func TestUnitLimit(t *testing.T) {
	ctx := headless.NewContext()
	assert.Equal(t, 2, unitLimit{Context: ctx, units: 2}.MaxTextureUnits())
	assert.Equal(t, ctx.MaxTextureUnits(), unitLimit{Context: ctx, units: 1 << 20}.MaxTextureUnits())
}
