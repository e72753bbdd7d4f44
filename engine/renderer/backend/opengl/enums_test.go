package opengl

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
)

func TestCompareFunc(t *testing.T) {
	assert.Equal(t, uint32(gl.LESS), compareFunc(gputypes.CompareFunctionLess))
	assert.Equal(t, uint32(gl.LEQUAL), compareFunc(gputypes.CompareFunctionLessEqual))
	assert.Equal(t, uint32(gl.LESS), compareFunc(gputypes.CompareFunctionUndefined))
}

func TestBlendMapping(t *testing.T) {
	alpha := gputypes.BlendStateAlpha()
	assert.Equal(t, uint32(gl.SRC_ALPHA), blendFactor(alpha.Color.SrcFactor))
	assert.Equal(t, uint32(gl.ONE_MINUS_SRC_ALPHA), blendFactor(alpha.Color.DstFactor))
	assert.Equal(t, uint32(gl.FUNC_ADD), blendEquation(alpha.Color.Operation))
	assert.Equal(t, uint32(gl.MAX), blendEquation(gputypes.BlendOperationMax))
}

func TestCullAndFrontFace(t *testing.T) {
	face, ok := cullFace(gputypes.CullModeBack)
	assert.True(t, ok)
	assert.Equal(t, uint32(gl.BACK), face)
	_, ok = cullFace(gputypes.CullModeNone)
	assert.False(t, ok)
	assert.Equal(t, uint32(gl.CW), frontFace(gputypes.FrontFaceCW))
	assert.Equal(t, uint32(gl.CCW), frontFace(gputypes.FrontFaceCCW))
}

func TestPrimitiveMode(t *testing.T) {
	assert.Equal(t, uint32(gl.TRIANGLES), primitiveMode(gputypes.PrimitiveTopologyTriangleList))
	assert.Equal(t, uint32(gl.LINE_STRIP), primitiveMode(gputypes.PrimitiveTopologyLineStrip))
	assert.Equal(t, uint32(gl.POINTS), primitiveMode(gputypes.PrimitiveTopologyPointList))
}

func TestSamplerMapping(t *testing.T) {
	linear := gputypes.LinearSamplerDescriptor()
	assert.Equal(t, int32(gl.LINEAR), magFilter(linear.MagFilter))
	assert.Equal(t, int32(gl.LINEAR_MIPMAP_LINEAR), minFilter(gputypes.FilterModeLinear, gputypes.MipmapFilterModeLinear, true))
	assert.Equal(t, int32(gl.LINEAR), minFilter(gputypes.FilterModeLinear, gputypes.MipmapFilterModeLinear, false))
	assert.Equal(t, int32(gl.NEAREST_MIPMAP_NEAREST), minFilter(gputypes.FilterModeNearest, gputypes.MipmapFilterModeNearest, true))
	assert.Equal(t, int32(gl.REPEAT), wrapMode(gputypes.AddressModeRepeat))
	assert.Equal(t, int32(gl.CLAMP_TO_EDGE), wrapMode(gputypes.AddressModeUndefined))
}

func TestUniformTypeNames(t *testing.T) {
	assert.Equal(t, backend.UniformMat3, backend.ParseUniformType(uniformTypeName(gl.FLOAT_MAT3)))
	assert.Equal(t, backend.UniformSampler2D, backend.ParseUniformType(uniformTypeName(gl.SAMPLER_2D)))
	assert.Equal(t, backend.UniformUnknown, backend.ParseUniformType(uniformTypeName(gl.DOUBLE)))
	assert.Equal(t, uint32(gl.ELEMENT_ARRAY_BUFFER), bufferTarget(backend.BufferIndex))
}
