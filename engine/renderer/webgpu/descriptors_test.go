package webgpu

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/engine/model"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtinVariant(t *testing.T, flags map[string]bool) *shader.ShaderVariants {
	t.Helper()
	reg := shader.NewRegistry()
	require.NoError(t, shader.RegisterBuiltins(reg))
	v, err := reg.GetVariant(shader.ShaderBaseMaterial, shader.DialectWGSL, shader.WithDefines(shader.FromBools(flags)))
	require.NoError(t, err)
	return v
}

func TestShaderModule(t *testing.T) {
	v := builtinVariant(t, nil)
	desc, err := ShaderModule(v)
	require.NoError(t, err)
	assert.Equal(t, v.Key, desc.Label)
	require.NotNil(t, desc.WGSLDescriptor)
	assert.Equal(t, v.WGSL.Code, desc.WGSLDescriptor.Code)

	_, err = ShaderModule(&shader.ShaderVariants{Dialect: shader.DialectGLSL330})
	assert.ErrorIs(t, err, ErrNotWGSL)
	_, err = ShaderModule(nil)
	assert.ErrorIs(t, err, ErrNotWGSL)
}

func TestVertexBufferLayout(t *testing.T) {
	layout := model.NewVertexLayout(model.AttributePosition, model.AttributeNormal, model.AttributeTexCoord)

	all := VertexBufferLayout(layout, nil)
	assert.Equal(t, uint64(32), all.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, all.StepMode)
	require.Len(t, all.Attributes, 3)
	assert.Equal(t, wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2}, all.Attributes[2])

	inputs := []shader.VertexInput{{Name: "aPosition", Location: 0}, {Name: "aTexCoord", Location: 2}}
	consumed := VertexBufferLayout(layout, inputs)
	assert.Equal(t, uint64(32), consumed.ArrayStride)
	require.Len(t, consumed.Attributes, 2)
	assert.Equal(t, uint32(0), consumed.Attributes[0].ShaderLocation)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, consumed.Attributes[0].Format)
	assert.Equal(t, uint32(2), consumed.Attributes[1].ShaderLocation)
}

func TestRenderStateDescriptors(t *testing.T) {
	s := backend.DefaultRenderState()

	prim := PrimitiveState(gputypes.PrimitiveTopologyLineStrip, s)
	assert.Equal(t, wgpu.PrimitiveTopologyLineStrip, prim.Topology)
	assert.Equal(t, wgpu.CullModeBack, prim.CullMode)
	assert.Equal(t, wgpu.FrontFaceCCW, prim.FrontFace)

	depth := DepthStencilState(s, DefaultDepthFormat)
	assert.Equal(t, wgpu.CompareFunctionLess, depth.DepthCompare)
	assert.True(t, depth.DepthWriteEnabled)

	s.DepthTest = false
	s.DepthWrite = false
	depth = DepthStencilState(s, DefaultDepthFormat)
	assert.Equal(t, wgpu.CompareFunctionAlways, depth.DepthCompare)
	assert.False(t, depth.DepthWriteEnabled)

	target := ColorTargetState(s, wgpu.TextureFormatBGRA8Unorm)
	assert.Nil(t, target.Blend)
	assert.Equal(t, wgpu.ColorWriteMaskAll, target.WriteMask)

	s.Blend = true
	s.BlendState = gputypes.BlendStateAlpha()
	s.WriteMask = gputypes.ColorWriteMaskRed | gputypes.ColorWriteMaskAlpha
	target = ColorTargetState(s, wgpu.TextureFormatBGRA8Unorm)
	require.NotNil(t, target.Blend)
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, target.Blend.Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOneMinusSrcAlpha, target.Blend.Color.DstFactor)
	assert.Equal(t, wgpu.BlendOperationAdd, target.Blend.Color.Operation)
	assert.Equal(t, wgpu.ColorWriteMaskRed|wgpu.ColorWriteMaskAlpha, target.WriteMask)
}

func TestBindGroupLayouts(t *testing.T) {
	refl := &shader.WGSLReflection{Bindings: []shader.ResourceBinding{
		{Name: "uniforms", Group: 0, Binding: 0, Kind: shader.BindingUniformBuffer, Type: "struct", Size: 208},
		{Name: "uMap", Group: 0, Binding: 1, Kind: shader.BindingTexture, Type: "samplerCube"},
		{Name: "uSampler", Group: 1, Binding: 0, Kind: shader.BindingSampler, Type: "sampler"},
	}}

	groups := BindGroupLayouts("lit", refl)
	require.Len(t, groups, 2)
	g0 := groups[0]
	assert.Equal(t, "lit group 0", g0.Label)
	require.Len(t, g0.Entries, 2)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, g0.Entries[0].Buffer.Type)
	assert.Equal(t, uint64(208), g0.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, g0.Entries[0].Visibility)
	assert.Equal(t, wgpu.TextureViewDimensionCube, g0.Entries[1].Texture.ViewDimension)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, g0.Entries[1].Texture.SampleType)
	require.Len(t, groups[1].Entries, 1)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, groups[1].Entries[0].Sampler.Type)

	assert.Empty(t, BindGroupLayouts("none", nil))
}

func TestDescribe(t *testing.T) {
	v := builtinVariant(t, map[string]bool{"HAS_TEXCOORD": true, "HAS_BASE_COLOR_MAP": true})
	layout := model.NewVertexLayout(model.AttributePosition, model.AttributeNormal, model.AttributeTexCoord)

	d, err := Describe(v, layout, gputypes.PrimitiveTopologyTriangleList, backend.DefaultRenderState(), wgpu.TextureFormatBGRA8Unorm)
	require.NoError(t, err)
	assert.Equal(t, "vs_main", d.VertexEntry)
	assert.Equal(t, "fs_main", d.FragmentEntry)
	require.Len(t, d.VertexBuffers, 1)
	require.Len(t, d.VertexBuffers[0].Attributes, 2)
	assert.Equal(t, uint32(2), d.VertexBuffers[0].Attributes[1].ShaderLocation)
	require.Len(t, d.BindGroups, 1)
	assert.Len(t, d.BindGroups[0].Entries, 3)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, d.Primitive.Topology)
	assert.Contains(t, d.String(), "pipeline "+v.Key)
	assert.Contains(t, d.String(), "entry points: vertex=vs_main fragment=fs_main")
}

func TestDescribeRejectsGLSL(t *testing.T) {
	reg := shader.NewRegistry()
	require.NoError(t, shader.RegisterBuiltins(reg))
	v, err := reg.GetVariant(shader.ShaderBaseMaterial, shader.DialectGLSL330, shader.VariantOptions{})
	require.NoError(t, err)

	_, err = Describe(v, model.NewVertexLayout(model.AttributePosition), gputypes.PrimitiveTopologyTriangleList, backend.DefaultRenderState(), wgpu.TextureFormatBGRA8Unorm)
	assert.ErrorIs(t, err, ErrNotWGSL)
}
