package headless

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtinSource(t *testing.T, ctx Context, name string, defines shader.DefineMap) backend.ProgramSource {
	t.Helper()
	reg := shader.NewRegistry()
	require.NoError(t, shader.RegisterBuiltins(reg))
	v, err := reg.GetVariant(name, ctx.Dialect(), shader.WithDefines(defines))
	require.NoError(t, err)
	src := backend.ProgramSource{Label: v.Key}
	if v.Dialect == shader.DialectWGSL {
		src.WGSL = v.WGSL.Code
	} else {
		src.Vertex, src.Fragment = v.GLSL.Vertex, v.GLSL.Fragment
	}
	return src
}

func TestCompileBuiltinAcrossDialects(t *testing.T) {
	for _, d := range []shader.Dialect{shader.DialectGLSL100, shader.DialectGLSL120, shader.DialectGLSL300ES, shader.DialectGLSL330, shader.DialectGLSL410} {
		t.Run(string(d), func(t *testing.T) {
			ctx := NewContext(WithDialect(d))
			for _, name := range []string{shader.ShaderBaseMaterial, shader.ShaderBasePhong, shader.ShaderBasePbr} {
				src := builtinSource(t, ctx, name, shader.DefineMap{"HAS_NORMAL": "true", "HAS_TEXCOORD": "true"})
				h, err := ctx.CompileProgram(src)
				require.NoError(t, err, name)
				assert.True(t, h.Valid())
			}
			assert.Equal(t, 3, ctx.LivePrograms())
		})
	}
}

func TestActiveUniformsFollowDefines(t *testing.T) {
	ctx := NewContext()
	plain, err := ctx.CompileProgram(builtinSource(t, ctx, shader.ShaderBaseMaterial, nil))
	require.NoError(t, err)
	mapped, err := ctx.CompileProgram(builtinSource(t, ctx, shader.ShaderBaseMaterial, shader.DefineMap{
		"HAS_TEXCOORD":       "true",
		"HAS_BASE_COLOR_MAP": "true",
	}))
	require.NoError(t, err)

	names := func(h backend.ProgramHandle) []string {
		var out []string
		for _, u := range ctx.ActiveUniforms(h) {
			out = append(out, u.Name)
		}
		return out
	}
	assert.NotContains(t, names(plain), "uBaseColorMap")
	assert.Contains(t, names(mapped), "uBaseColorMap")
	assert.Equal(t, int32(-1), ctx.UniformLocation(plain, "uBaseColorMap"))
	assert.Equal(t, int32(-1), ctx.AttribLocation(plain, "aTexCoord"))
	assert.GreaterOrEqual(t, ctx.AttribLocation(mapped, "aTexCoord"), int32(0))
}

func TestArrayUniformLocations(t *testing.T) {
	ctx := NewContext()
	h, err := ctx.CompileProgram(builtinSource(t, ctx, shader.ShaderBasePhong, shader.DefineMap{"HAS_NORMAL": "true"}))
	require.NoError(t, err)

	var found *backend.ActiveUniform
	for _, u := range ctx.ActiveUniforms(h) {
		if u.Name == "uDirLightColor[0]" {
			found = &u
			break
		}
	}
	require.NotNil(t, found, "arrays are reported with a [0] suffix")
	assert.Equal(t, shader.MaxLights, found.Size)
	assert.Equal(t, backend.UniformVec3, found.Type)

	base := ctx.UniformLocation(h, "uDirLightColor")
	assert.Equal(t, base, ctx.UniformLocation(h, "uDirLightColor[0]"))
	assert.Equal(t, base+3, ctx.UniformLocation(h, "uDirLightColor[3]"))
	assert.Equal(t, int32(-1), ctx.UniformLocation(h, "uDirLightColor[4]"))
}

func TestCompileErrors(t *testing.T) {
	ctx := NewContext()

	_, err := ctx.CompileProgram(backend.ProgramSource{
		Label:    "no-main",
		Vertex:   "#version 410 core\nin vec3 aPosition;\n",
		Fragment: "#version 410 core\nout vec4 outColor;\nvoid main() { outColor = vec4(1.0); }\n",
	})
	assert.ErrorIs(t, err, backend.ErrCompileFailed)

	_, err = ctx.CompileProgram(backend.ProgramSource{
		Label:    "legacy",
		Vertex:   "#version 410 core\nattribute vec3 aPosition;\nvoid main() { gl_Position = vec4(aPosition, 1.0); }\n",
		Fragment: "#version 410 core\nout vec4 outColor;\nvoid main() { outColor = vec4(1.0); }\n",
	})
	assert.ErrorIs(t, err, backend.ErrCompileFailed)
	assert.Contains(t, err.Error(), "attribute")

	_, err = ctx.CompileProgram(backend.ProgramSource{
		Label:    "unlinked",
		Vertex:   "#version 410 core\nin vec3 aPosition;\nvoid main() { gl_Position = vec4(aPosition, 1.0); }\n",
		Fragment: "#version 410 core\nin vec2 vTexCoord;\nout vec4 outColor;\nvoid main() { outColor = vec4(vTexCoord, 0.0, 1.0); }\n",
	})
	assert.ErrorIs(t, err, backend.ErrLinkFailed)

	_, err = ctx.CompileProgram(backend.ProgramSource{
		Label:    "unterminated",
		Vertex:   "#ifdef X\nvoid main() {}\n",
		Fragment: "void main() {}\n",
	})
	assert.ErrorIs(t, err, backend.ErrCompileFailed)
	assert.Equal(t, 0, ctx.LivePrograms())
}

func TestCompileHook(t *testing.T) {
	hookErr := assert.AnError
	ctx := NewContext(WithCompileHook(func(src backend.ProgramSource) error {
		if src.Label == "fail" {
			return hookErr
		}
		return nil
	}))
	_, err := ctx.CompileProgram(backend.ProgramSource{Label: "fail"})
	assert.ErrorIs(t, err, hookErr)
}

func TestCompileWGSL(t *testing.T) {
	ctx := NewContext(WithDialect(shader.DialectWGSL))
	h, err := ctx.CompileProgram(builtinSource(t, ctx, shader.ShaderBaseMaterial, shader.DefineMap{
		"HAS_TEXCOORD":       "true",
		"HAS_BASE_COLOR_MAP": "true",
	}))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, ctx.UniformLocation(h, "uModelMatrix"), int32(0))
	assert.GreaterOrEqual(t, ctx.UniformLocation(h, "uBaseColorMap"), int32(0))
	assert.Equal(t, int32(0), ctx.AttribLocation(h, "aPosition"))
	assert.Equal(t, int32(2), ctx.AttribLocation(h, "aTexCoord"))
}

func TestUniformValuesTrackCurrentProgram(t *testing.T) {
	ctx := NewContext()
	h, err := ctx.CompileProgram(builtinSource(t, ctx, shader.ShaderBaseMaterial, nil))
	require.NoError(t, err)

	ctx.UseProgram(h)
	loc := ctx.UniformLocation(h, "uBaseColor")
	require.GreaterOrEqual(t, loc, int32(0))
	ctx.Uniform4f(loc, 1, 0.5, 0.25, 1)
	ctx.UniformMatrix4fv(ctx.UniformLocation(h, "uModelMatrix"), mgl32.Ident4())
	ctx.Uniform1f(-1, 3)

	v, ok := ctx.UniformValue(h, loc)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec4{1, 0.5, 0.25, 1}, v)
	_, ok = ctx.UniformValue(h, -1)
	assert.False(t, ok)
}

func TestResourceLifetimes(t *testing.T) {
	ctx := NewContext()
	prog, err := ctx.CompileProgram(builtinSource(t, ctx, shader.ShaderBaseMaterial, nil))
	require.NoError(t, err)
	vbo, err := ctx.CreateBuffer(backend.BufferVertex, make([]byte, 36))
	require.NoError(t, err)

	vao, err := ctx.CreateVertexArray(prog)
	require.NoError(t, err)
	ctx.BindVertexArray(vao)
	ctx.BindBuffer(backend.BufferVertex, vbo)
	ctx.VertexAttribPointer(backend.AttribPointer{Location: 0, Components: 3, Stride: 12})
	ctx.BindVertexArray(backend.VertexArrayHandle{})
	assert.Len(t, ctx.VertexArrayAttribs(vao), 1)

	assert.ErrorIs(t, ctx.DeleteBuffer(vbo), backend.ErrResourceInUse)
	assert.ErrorIs(t, ctx.DeleteProgram(prog), backend.ErrResourceInUse)

	require.NoError(t, ctx.DeleteVertexArray(vao))
	require.NoError(t, ctx.DeleteProgram(prog))
	require.NoError(t, ctx.DeleteBuffer(vbo))
	assert.ErrorIs(t, ctx.DeleteBuffer(vbo), backend.ErrStaleHandle)

	_, err = ctx.CreateVertexArray(prog)
	assert.ErrorIs(t, err, backend.ErrStaleHandle)
	assert.Zero(t, ctx.LivePrograms()+ctx.LiveBuffers()+ctx.LiveVertexArrays())
}

func TestWriteBufferGrows(t *testing.T) {
	ctx := NewContext()
	h, err := ctx.CreateBuffer(backend.BufferIndex, []byte{1, 2})
	require.NoError(t, err)
	require.NoError(t, ctx.WriteBuffer(h, 1, []byte{9, 9, 9}))
	data, ok := ctx.BufferData(h)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 9, 9, 9}, data)
}

func TestTextureUpload(t *testing.T) {
	ctx := NewContext()
	h, err := ctx.CreateTexture(backend.TextureDescriptor{Label: "white", Sampler: gputypes.LinearSamplerDescriptor()})
	require.NoError(t, err)

	assert.Error(t, ctx.WriteTexture(h, common.ImageData{Pixels: []byte{1}, Width: 1, Height: 1}))
	require.NoError(t, ctx.WriteTexture(h, common.ImageData{Pixels: []byte{255, 255, 255, 255}, Width: 1, Height: 1}))
	img, ok := ctx.TextureImage(h)
	require.True(t, ok)
	assert.Equal(t, 1, img.Width)

	require.NoError(t, ctx.DeleteTexture(h))
	assert.ErrorIs(t, ctx.DeleteTexture(h), backend.ErrStaleHandle)
}

func TestCallLog(t *testing.T) {
	ctx := NewContext()
	ctx.Viewport(0, 0, 640, 480)
	ctx.Clear([4]float32{0, 0, 0, 1})
	ctx.ApplyRenderState(backend.DefaultRenderState())
	ctx.DrawArrays(gputypes.PrimitiveTopologyTriangleList, 0, 3)

	assert.Equal(t, []string{"Viewport", "Clear", "ApplyRenderState", "DrawArrays"}, ctx.Ops())
	assert.Equal(t, "Viewport(0, 0, 640, 480)", ctx.Calls()[0].String())
	assert.Equal(t, backend.DefaultRenderState(), ctx.CurrentRenderState())

	ctx.ResetCalls()
	assert.Empty(t, ctx.Calls())
}

func TestNewContextPanicsOnUnknownDialect(t *testing.T) {
	assert.Panics(t, func() { NewContext(WithDialect("hlsl")) })
	assert.Panics(t, func() { NewContext(WithMaxTextureUnits(0)) })
}

func TestEvalCondition(t *testing.T) {
	defs := map[string]string{"A": "", "B": "0", "C": "2"}
	tests := []struct {
		expr string
		want bool
	}{
		{"defined(A)", true},
		{"defined(Z)", false},
		{"defined(A) && defined(Z)", false},
		{"defined(Z) || C", true},
		{"!defined(Z)", true},
		{"B", false},
		{"1", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, evalCondition(tt.expr, defs), tt.expr)
	}
}
