package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterBuiltins(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, RegisterBuiltins(reg))
	assert.Equal(t, []string{ShaderBaseMaterial, ShaderBasePbr, ShaderBasePhong}, reg.Names())

	for _, name := range reg.Names() {
		for _, d := range Dialects() {
			if !d.IsGLSL() {
				continue
			}
			v, err := reg.GetVariant(name, d, WithDefines(DefineMap{"HAS_NORMAL": "true", "HAS_TEXCOORD": "true"}))
			require.NoError(t, err, "%s/%s", name, d)
			assert.True(t, strings.HasPrefix(v.VertexSource(), d.VersionLine()))
			assert.Contains(t, v.VertexSource(), "#define HAS_NORMAL\n")
			if d.Modern() {
				assert.NotContains(t, v.FragmentSource(), "gl_FragColor")
				assert.Contains(t, v.FragmentSource(), "out vec4 outColor;")
			}
		}
	}
}

func TestBuiltinLitShadersDeclareLightCount(t *testing.T) {
	for _, name := range []string{ShaderBasePhong, ShaderBasePbr} {
		b, err := Builtin(name)
		require.NoError(t, err)
		assert.Equal(t, "4", b.GLSL.Defines["MAX_LIGHTS"])
	}

	_, err := Builtin("nope")
	assert.ErrorIs(t, err, ErrShaderNotFound)
}

func TestBuiltinWGSLReflects(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, RegisterBuiltins(reg))

	for _, name := range []string{ShaderBaseMaterial, ShaderBasePbr} {
		for _, on := range []bool{true, false} {
			flags := FromBools(map[string]bool{"HAS_NORMAL": on, "HAS_TEXCOORD": on, "HAS_BASE_COLOR_MAP": on})
			v, err := reg.GetVariant(name, DialectWGSL, WithDefines(flags))
			require.NoError(t, err)
			assert.NotContains(t, v.WGSL.Code, "@define")

			refl, err := ReflectWGSL(v.WGSL.Code)
			require.NoError(t, err, "%s with maps=%v", name, on)

			vs, ok := refl.EntryPoint(StageVertex)
			assert.True(t, ok)
			assert.Equal(t, "vs_main", vs)
			fs, ok := refl.EntryPoint(StageFragment)
			assert.True(t, ok)
			assert.Equal(t, "fs_main", fs)

			require.NotEmpty(t, refl.VertexInputs)
			assert.Equal(t, "aPosition", refl.VertexInputs[0].Name)
			assert.Equal(t, uint32(0), refl.VertexInputs[0].Location)

			bindings := 1
			if on {
				bindings = 3
			}
			assert.Len(t, refl.Bindings, bindings)
			assert.Equal(t, BindingUniformBuffer, refl.Bindings[0].Kind)
		}
	}
}

const reflectSource = `struct Uniforms {
    uModelMatrix : mat4x4<f32>,
    uTint : vec3<f32>,
    uScale : f32,
}

@group(0) @binding(0) var<uniform> uniforms : Uniforms;
@group(1) @binding(0) var uMap : texture_2d<f32>;
@group(1) @binding(1) var uMapSampler : sampler;

struct VertexOutput {
    @builtin(position) position : vec4<f32>,
    @location(0) uv : vec2<f32>,
}

@vertex
fn vs_main(@location(0) aPosition : vec3<f32>, @location(2) aTexCoord : vec2<f32>) -> VertexOutput {
    var output : VertexOutput;
    output.position = uniforms.uModelMatrix * vec4<f32>(aPosition * uniforms.uScale, 1.0);
    output.uv = aTexCoord;
    return output;
}

@fragment
fn fs_main(input : VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(uMap, uMapSampler, input.uv) * vec4<f32>(uniforms.uTint, 1.0);
}
`

func TestReflectWGSL(t *testing.T) {
	refl, err := ReflectWGSL(reflectSource)
	require.NoError(t, err)

	require.Len(t, refl.Bindings, 3)
	assert.Equal(t, ResourceBinding{Name: "uniforms", Group: 0, Binding: 0, Kind: BindingUniformBuffer, Type: "struct", Size: refl.Bindings[0].Size}, refl.Bindings[0])
	assert.Positive(t, refl.Bindings[0].Size)
	assert.Equal(t, "uMap", refl.Bindings[1].Name)
	assert.Equal(t, BindingTexture, refl.Bindings[1].Kind)
	assert.Equal(t, "sampler2D", refl.Bindings[1].Type)
	assert.Equal(t, BindingSampler, refl.Bindings[2].Kind)

	require.Len(t, refl.Uniforms, 3)
	assert.Equal(t, "uModelMatrix", refl.Uniforms[0].Name)
	assert.Equal(t, "mat4", refl.Uniforms[0].Type)
	assert.Equal(t, "vec3", refl.Uniforms[1].Type)
	assert.Equal(t, "float", refl.Uniforms[2].Type)
	assert.Equal(t, "uniforms", refl.Uniforms[2].Block)

	require.Len(t, refl.VertexInputs, 2)
	assert.Equal(t, VertexInput{Name: "aPosition", Location: 0, Type: "vec3"}, refl.VertexInputs[0])
	assert.Equal(t, VertexInput{Name: "aTexCoord", Location: 2, Type: "vec2"}, refl.VertexInputs[1])
}

func TestReflectWGSLRejectsInvalidSource(t *testing.T) {
	_, err := ReflectWGSL("fn broken( {")
	assert.Error(t, err)
}
