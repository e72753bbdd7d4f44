package hotreload

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-gl/config"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend/headless"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	flatVertex   = "attribute vec3 aPosition;\nvoid main() { gl_Position = vec4(aPosition, 1.0); }\n"
	flatFragment = "void main() { gl_FragColor = vec4(1.0); }\n"
	redFragment  = "void main() { gl_FragColor = vec4(1.0, 0.0, 0.0, 1.0); }\n"
)

func setup(t *testing.T) (*config.Manifest, shader.Registry) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flat.vert"), []byte(flatVertex), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flat.frag"), []byte(flatFragment), 0o644))
	path := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shaders:\n  - name: flat\n    glsl: {vertex: flat.vert, fragment: flat.frag}\n"), 0o644))

	m, err := config.LoadManifest(path)
	require.NoError(t, err)
	reg := shader.NewRegistry()
	require.NoError(t, m.Register(reg))
	return m, reg
}

func TestReloadReplacesPrograms(t *testing.T) {
	m, reg := setup(t)
	ctx := headless.NewContext()
	cache := renderer.NewResourceCache(ctx, reg)

	before, err := cache.Program("flat", nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(m.Dir, "flat.frag"), []byte(redFragment), 0o644))
	n, err := Reload(m, reg, cache, "flat")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, ctx.Ops(), "DeleteProgram")

	after, err := cache.Program("flat", nil)
	require.NoError(t, err)
	assert.NotEqual(t, before.ID(), after.ID())
	assert.Contains(t, after.Variant().FragmentSource(), "vec4(1.0, 0.0, 0.0, 1.0)")
	assert.Equal(t, 1, ctx.LivePrograms())
}

func TestReloadFailureKeepsCache(t *testing.T) {
	m, reg := setup(t)
	cache := renderer.NewResourceCache(headless.NewContext(), reg)
	_, err := cache.Program("flat", nil)
	require.NoError(t, err)

	_, err = Reload(m, reg, cache, "missing")
	assert.ErrorIs(t, err, shader.ErrShaderNotFound)

	require.NoError(t, os.Remove(filepath.Join(m.Dir, "flat.vert")))
	_, err = Reload(m, reg, cache, "flat")
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 1, cache.Stats().Programs)
}

func TestWatcherReportsChangedShader(t *testing.T) {
	m, _ := setup(t)
	changed := make(chan string, 4)
	w, err := NewWatcher(m.Files(), func(name string) { changed <- name }, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, []string{filepath.Join(m.Dir, "flat.frag"), filepath.Join(m.Dir, "flat.vert")}, w.Files())

	require.NoError(t, os.WriteFile(filepath.Join(m.Dir, "flat.frag"), []byte(redFragment), 0o644))
	select {
	case name := <-changed:
		assert.Equal(t, "flat", name)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestWatcherRejectsMissingDirectory(t *testing.T) {
	_, err := NewWatcher(map[string]string{filepath.Join(t.TempDir(), "gone", "x.vert"): "x"}, func(string) {})
	assert.Error(t, err)
}
