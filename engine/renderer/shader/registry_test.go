package shader

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func glslBundle(defaults DefineMap) *ShaderVariants {
	return &ShaderVariants{
		GLSL: &GLSLSource{Vertex: legacyVertex, Fragment: legacyFragment, Defines: defaults},
	}
}

func TestGetVariantNotFound(t *testing.T) {
	reg := NewRegistry()
	v, err := reg.GetVariant("missing", DialectGLSL330, VariantOptions{})
	assert.Nil(t, v)
	assert.ErrorIs(t, err, ErrShaderNotFound)
}

func TestGetVariantCacheIdentity(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("base_pbr", glslBundle(nil)))

	a, err := reg.GetVariant("base_pbr", DialectGLSL330, WithDefines(DefineMap{"METALLIC": "0"}))
	require.NoError(t, err)
	b, err := reg.GetVariant("base_pbr", DialectGLSL330, WithDefines(DefineMap{"METALLIC": "0"}))
	require.NoError(t, err)
	assert.Same(t, a, b)

	c, err := reg.GetVariant("base_pbr", DialectGLSL330, WithDefines(DefineMap{"METALLIC": "1"}))
	require.NoError(t, err)
	assert.NotSame(t, a, c)

	d, err := reg.GetVariant("base_pbr", DialectGLSL100, WithDefines(DefineMap{"METALLIC": "0"}))
	require.NoError(t, err)
	assert.NotSame(t, a, d, "dialects never share a cache entry")

	assert.Equal(t, "base_pbr__METALLIC=0", a.Key)
	assert.Equal(t, DialectGLSL330, a.Dialect)
	assert.Equal(t, 3, reg.CachedLen())

	stats := reg.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(3), stats.Misses)
}

func TestGetVariantMergeDirection(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("s", glslBundle(DefineMap{"QUALITY": "high", "FOG": "true"})))

	over, err := reg.GetVariant("s", DialectGLSL330, VariantOptions{Defines: DefineMap{"QUALITY": "low"}, OverrideWins: true})
	require.NoError(t, err)
	assert.Equal(t, "low", over.Defines["QUALITY"])
	assert.Contains(t, over.VertexSource(), "#define QUALITY low")

	under, err := reg.GetVariant("s", DialectGLSL330, VariantOptions{Defines: DefineMap{"QUALITY": "low"}})
	require.NoError(t, err)
	assert.Equal(t, "high", under.Defines["QUALITY"])
	assert.Equal(t, "true", under.Defines["FOG"])
}

func TestGetVariantProcessesBothStages(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("s", glslBundle(nil)))

	v, err := reg.GetVariant("s", DialectGLSL300ES, VariantOptions{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(v.VertexSource(), "#version 300 es\n"))
	assert.True(t, strings.HasPrefix(v.FragmentSource(), "#version 300 es\nprecision mediump float;\n"))
	assert.Equal(t, "s", v.Key)
}

func TestGetVariantDialectUnsupported(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("glsl_only", glslBundle(nil)))
	_, err := reg.GetVariant("glsl_only", DialectWGSL, VariantOptions{})
	assert.ErrorIs(t, err, ErrDialectUnsupported)

	require.NoError(t, reg.Register("wgsl_only", &ShaderVariants{WGSL: &WGSLSource{Code: annotatedWGSL}}))
	_, err = reg.GetVariant("wgsl_only", DialectGLSL330, VariantOptions{})
	assert.ErrorIs(t, err, ErrDialectUnsupported)

	_, err = reg.GetVariant("glsl_only", Dialect("hlsl"), VariantOptions{})
	assert.ErrorIs(t, err, ErrDialectUnsupported)
}

func TestGetVariantWGSL(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("w", &ShaderVariants{WGSL: &WGSLSource{Code: annotatedWGSL, Defines: DefineMap{"HAS_NORMAL": "true"}}}))

	v, err := reg.GetVariant("w", DialectWGSL, VariantOptions{})
	require.NoError(t, err)
	assert.Contains(t, v.WGSL.Code, "@location(1) normal")
	assert.Equal(t, "vs_main", v.WGSL.VertexEntryPoint)
	assert.Equal(t, "fs_main", v.WGSL.FragmentEntryPoint)
	assert.Equal(t, v.VertexSource(), v.FragmentSource())

	off, err := reg.GetVariant("w", DialectWGSL, WithDefines(DefineMap{"HAS_NORMAL": "false"}))
	require.NoError(t, err)
	assert.NotContains(t, off.WGSL.Code, "normal")
}

func TestRegisterRejectsInvalidBundles(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.Register("", glslBundle(nil)))
	assert.Error(t, reg.Register("nil", nil))
	assert.Error(t, reg.Register("empty", &ShaderVariants{GLSL: &GLSLSource{}}))
	assert.ErrorIs(t, reg.Register("bad", glslBundle(DefineMap{"X": ""})), ErrInvalidDefine)
	assert.Zero(t, reg.Len())
}

func TestRegisterPurgesDerivedVariants(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("s", glslBundle(nil)))
	require.NoError(t, reg.Register("s_other", glslBundle(nil)))

	old, err := reg.GetVariant("s", DialectGLSL330, VariantOptions{})
	require.NoError(t, err)
	_, err = reg.GetVariant("s_other", DialectGLSL330, VariantOptions{})
	require.NoError(t, err)

	fixed := glslBundle(nil)
	fixed.GLSL.Fragment = "void main() { gl_FragColor = vec4(1.0); }"
	require.NoError(t, reg.Register("s", fixed))
	assert.Equal(t, 1, reg.CachedLen(), "only the re-registered shader is purged")

	fresh, err := reg.GetVariant("s", DialectGLSL330, VariantOptions{})
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)
	assert.Contains(t, fresh.FragmentSource(), "outColor = vec4(1.0);")
}

func TestRegisterDoesNotAliasCallerBundle(t *testing.T) {
	reg := NewRegistry()
	bundle := glslBundle(nil)
	require.NoError(t, reg.Register("s", bundle))
	bundle.Name = "changed"

	v, err := reg.GetVariant("s", DialectGLSL330, VariantOptions{})
	require.NoError(t, err)
	assert.Equal(t, "s", v.Name)
}

func TestUnregisterPurgesByPrefix(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("lit", glslBundle(nil)))
	require.NoError(t, reg.Register("lit_extra", glslBundle(nil)))

	for _, defs := range []DefineMap{nil, {"A": "1"}, {"A": "2"}} {
		_, err := reg.GetVariant("lit", DialectGLSL330, WithDefines(defs))
		require.NoError(t, err)
	}
	_, err := reg.GetVariant("lit_extra", DialectGLSL330, VariantOptions{})
	require.NoError(t, err)
	require.Equal(t, 4, reg.CachedLen())

	assert.True(t, reg.Unregister("lit"))
	assert.False(t, reg.Unregister("lit"))
	assert.Equal(t, 1, reg.CachedLen())
	assert.False(t, reg.Has("lit"))
	assert.True(t, reg.Has("lit_extra"))

	_, err = reg.GetVariant("lit", DialectGLSL330, VariantOptions{})
	assert.ErrorIs(t, err, ErrShaderNotFound)
}

func TestGenerationTracksRegistration(t *testing.T) {
	reg := NewRegistry()
	assert.Zero(t, reg.Generation("lit"))

	require.NoError(t, reg.Register("lit", glslBundle(nil)))
	first := reg.Generation("lit")
	assert.NotZero(t, first)

	require.NoError(t, reg.Register("other", glslBundle(nil)))
	assert.Equal(t, first, reg.Generation("lit"))

	require.NoError(t, reg.Register("lit", glslBundle(nil)))
	second := reg.Generation("lit")
	assert.NotEqual(t, first, second)

	require.True(t, reg.Unregister("lit"))
	assert.Zero(t, reg.Generation("lit"))

	require.NoError(t, reg.Register("lit", glslBundle(nil)))
	assert.NotEqual(t, first, reg.Generation("lit"))
	assert.NotEqual(t, second, reg.Generation("lit"))
}

func TestClearCacheKeepsRegistrations(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("b", glslBundle(nil)))
	require.NoError(t, reg.Register("a", glslBundle(nil)))
	_, err := reg.GetVariant("a", DialectGLSL330, VariantOptions{})
	require.NoError(t, err)

	reg.ClearCache()
	assert.Zero(t, reg.CachedLen())
	assert.Equal(t, []string{"a", "b"}, reg.Names())
	assert.Equal(t, 2, reg.Len())
}

func TestDefaultRegistryReset(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	require.NoError(t, Default().Register("s", glslBundle(nil)))
	assert.Same(t, Default(), Default())
	assert.True(t, Default().Has("s"))

	Reset()
	assert.False(t, Default().Has("s"))
}

func TestGetVariantConcurrent(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("s", glslBundle(nil)))

	const n = 16
	results := make([]*ShaderVariants, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := reg.GetVariant("s", DialectGLSL330, WithDefines(DefineMap{"N": "1"}))
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	wg.Wait()

	for _, v := range results[1:] {
		assert.Same(t, results[0], v)
	}
	assert.Equal(t, 1, reg.CachedLen())
}

func TestPrewarm(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("s", glslBundle(nil)))

	var requests []VariantRequest
	for i := range 5 {
		requests = append(requests, VariantRequest{
			Name:    "s",
			Dialect: DialectGLSL330,
			Options: WithDefines(DefineMap{"INDEX": fmt.Sprint(i)}),
		})
	}
	require.NoError(t, Prewarm(reg, requests, 2))
	assert.Equal(t, 5, reg.CachedLen())

	before := reg.Stats().Hits
	_, err := reg.GetVariant("s", DialectGLSL330, WithDefines(DefineMap{"INDEX": "3"}))
	require.NoError(t, err)
	assert.Equal(t, before+1, reg.Stats().Hits)
}

func TestPrewarmJoinsErrors(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("s", glslBundle(nil)))

	err := Prewarm(reg, []VariantRequest{
		{Name: "s", Dialect: DialectGLSL330},
		{Name: "missing", Dialect: DialectGLSL330},
		{Name: "s", Dialect: DialectWGSL},
	}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShaderNotFound)
	assert.ErrorIs(t, err, ErrDialectUnsupported)
	assert.Equal(t, 1, reg.CachedLen())

	assert.NoError(t, Prewarm(reg, nil, 4))
}
