package uniforms

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend/headless"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVertex = `#version 410 core
in vec3 aPosition;
uniform mat4 uModelMatrix;
uniform mat3 uNormalMatrix;
void main() {
    gl_Position = uModelMatrix * vec4(uNormalMatrix * aPosition, 1.0);
}
`

const testFragment = `#version 410 core
#define MAX_LIGHTS 4
uniform vec4 uBaseColor;
uniform float uOpacity;
uniform int uNumLights;
uniform vec3 uLightColor[MAX_LIGHTS];
uniform float uLightRange[MAX_LIGHTS];
uniform sampler2D uBaseColorMap;
out vec4 outColor;
void main() {
    outColor = uBaseColor * uOpacity;
}
`

type fakeTexture struct {
	handle  backend.TextureHandle
	unit    int
	dirty   bool
	uploads int
}

func (f *fakeTexture) Handle() backend.TextureHandle { return f.handle }
func (f *fakeTexture) Unit() int                     { return f.unit }
func (f *fakeTexture) Dirty() bool                   { return f.dirty }

func (f *fakeTexture) Upload(ctx backend.Context) error {
	if !f.handle.Valid() {
		h, err := ctx.CreateTexture(backend.TextureDescriptor{Label: "fake"})
		if err != nil {
			return err
		}
		f.handle = h
	}
	f.uploads++
	f.dirty = false
	return ctx.WriteTexture(f.handle, common.SolidImage(255, 255, 255, 255))
}

func newTestReflector(t *testing.T, opts ...headless.ContextBuilderOption) (headless.Context, *Reflector) {
	t.Helper()
	ctx := headless.NewContext(opts...)
	prog, err := ctx.CompileProgram(backend.ProgramSource{Label: "test", Vertex: testVertex, Fragment: testFragment})
	require.NoError(t, err)
	ctx.UseProgram(prog)
	return ctx, NewReflector(ctx, prog)
}

func value(t *testing.T, ctx headless.Context, r *Reflector, name string) any {
	t.Helper()
	v, ok := ctx.UniformValue(r.Program(), ctx.UniformLocation(r.Program(), name))
	require.True(t, ok, name)
	return v
}

func TestReflectorTable(t *testing.T) {
	_, r := newTestReflector(t)
	assert.Equal(t, 8, r.Len())
	assert.True(t, r.Has("uLightColor"))
	assert.True(t, r.Has("uLightColor[0]"), "array suffix is stripped")
	assert.False(t, r.Has("uMissing"))

	typ, size, ok := r.Type("uLightColor")
	require.True(t, ok)
	assert.Equal(t, backend.UniformVec3, typ)
	assert.Equal(t, 4, size)
	assert.Contains(t, r.Names(), "uBaseColorMap")
}

func TestSetUnknownNameIsNoop(t *testing.T) {
	ctx, r := newTestReflector(t)
	ctx.ResetCalls()
	r.Set("uNotInShader", Float(1))
	r.Set("uOpacity", Value{})
	assert.Empty(t, ctx.Calls())
}

func TestVec3PaddedToVec4(t *testing.T) {
	ctx, r := newTestReflector(t)
	r.Set("uBaseColor", Vec3(mgl32.Vec3{0.2, 0.4, 0.6}))
	assert.Equal(t, mgl32.Vec4{0.2, 0.4, 0.6, 1.0}, value(t, ctx, r, "uBaseColor"))
}

func TestScalarAndMatrixDispatch(t *testing.T) {
	ctx, r := newTestReflector(t)
	model := mgl32.Translate3D(1, 2, 3)
	r.SetAll(map[string]Value{
		"uOpacity":      Float(0.5),
		"uNumLights":    Int(2),
		"uModelMatrix":  Mat4(model),
		"uNormalMatrix": Mat4(model),
	})
	assert.Equal(t, float32(0.5), value(t, ctx, r, "uOpacity"))
	assert.Equal(t, int32(2), value(t, ctx, r, "uNumLights"))
	assert.Equal(t, model, value(t, ctx, r, "uModelMatrix"))
	assert.Equal(t, model.Mat3(), value(t, ctx, r, "uNormalMatrix"), "mat4 narrows to mat3")
}

func TestArrayValuesClampedToSlotSize(t *testing.T) {
	ctx, r := newTestReflector(t)
	colors := make([]mgl32.Vec3, 6)
	for i := range colors {
		colors[i] = mgl32.Vec3{float32(i), 0, 0}
	}
	r.Set("uLightColor", Vec3s(colors))
	got := value(t, ctx, r, "uLightColor").([]float32)
	assert.Len(t, got, 12)

	r.Set("uLightRange", Floats([]float32{1, 2}))
	assert.Equal(t, []float32{1, 2}, value(t, ctx, r, "uLightRange"))
}

func TestMismatchedKindIsNoop(t *testing.T) {
	ctx, r := newTestReflector(t)
	ctx.ResetCalls()
	r.Set("uModelMatrix", Float(1))
	r.Set("uNumLights", Vec2(mgl32.Vec2{1, 2}))
	assert.Empty(t, ctx.Calls())
}

func TestTextureProtocol(t *testing.T) {
	ctx, r := newTestReflector(t)
	tex := &fakeTexture{unit: 3, dirty: true}
	ctx.ResetCalls()

	r.Set("uBaseColorMap", Tex(tex))
	assert.Equal(t, []string{"CreateTexture", "WriteTexture", "ActiveTexture", "BindTexture", "Uniform1i"}, ctx.Ops())
	assert.Equal(t, int32(3), value(t, ctx, r, "uBaseColorMap"), "sampler receives the unit, not the handle")

	ctx.ResetCalls()
	r.Set("uBaseColorMap", Tex(tex))
	assert.Equal(t, []string{"ActiveTexture", "BindTexture", "Uniform1i"}, ctx.Ops(), "clean textures are not re-uploaded")
	assert.Equal(t, 1, tex.uploads)
}

func TestTextureUnitBeyondLimitIsSkipped(t *testing.T) {
	ctx, r := newTestReflector(t, headless.WithMaxTextureUnits(2))
	ctx.ResetCalls()
	r.Set("uBaseColorMap", Tex(&fakeTexture{unit: 2, dirty: true}))
	assert.Empty(t, ctx.Calls())
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "vec3(1, 2, 3)", Vec3(mgl32.Vec3{1, 2, 3}).String())
	assert.Equal(t, "bool(1)", Bool(true).String())
	assert.Equal(t, KindInvalid, Tex(nil).Kind())
	assert.Equal(t, "float[](len=2)", Floats([]float32{1, 2}).String())
}
