package opengl

import (
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/gogpu/gputypes"
)

func compareFunc(f gputypes.CompareFunction) uint32 {
	switch f {
	case gputypes.CompareFunctionNever:
		return gl.NEVER
	case gputypes.CompareFunctionEqual:
		return gl.EQUAL
	case gputypes.CompareFunctionLessEqual:
		return gl.LEQUAL
	case gputypes.CompareFunctionGreater:
		return gl.GREATER
	case gputypes.CompareFunctionNotEqual:
		return gl.NOTEQUAL
	case gputypes.CompareFunctionGreaterEqual:
		return gl.GEQUAL
	case gputypes.CompareFunctionAlways:
		return gl.ALWAYS
	default:
		return gl.LESS
	}
}

func blendFactor(f gputypes.BlendFactor) uint32 {
	switch f {
	case gputypes.BlendFactorZero:
		return gl.ZERO
	case gputypes.BlendFactorSrc:
		return gl.SRC_COLOR
	case gputypes.BlendFactorOneMinusSrc:
		return gl.ONE_MINUS_SRC_COLOR
	case gputypes.BlendFactorSrcAlpha:
		return gl.SRC_ALPHA
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return gl.ONE_MINUS_SRC_ALPHA
	case gputypes.BlendFactorDst:
		return gl.DST_COLOR
	case gputypes.BlendFactorOneMinusDst:
		return gl.ONE_MINUS_DST_COLOR
	case gputypes.BlendFactorDstAlpha:
		return gl.DST_ALPHA
	case gputypes.BlendFactorOneMinusDstAlpha:
		return gl.ONE_MINUS_DST_ALPHA
	case gputypes.BlendFactorSrcAlphaSaturated:
		return gl.SRC_ALPHA_SATURATE
	case gputypes.BlendFactorConstant:
		return gl.CONSTANT_COLOR
	case gputypes.BlendFactorOneMinusConstant:
		return gl.ONE_MINUS_CONSTANT_COLOR
	default:
		return gl.ONE
	}
}

func blendEquation(op gputypes.BlendOperation) uint32 {
	switch op {
	case gputypes.BlendOperationSubtract:
		return gl.FUNC_SUBTRACT
	case gputypes.BlendOperationReverseSubtract:
		return gl.FUNC_REVERSE_SUBTRACT
	case gputypes.BlendOperationMin:
		return gl.MIN
	case gputypes.BlendOperationMax:
		return gl.MAX
	default:
		return gl.FUNC_ADD
	}
}

// cullFace returns the face to cull and false when culling is disabled.
func cullFace(m gputypes.CullMode) (uint32, bool) {
	switch m {
	case gputypes.CullModeFront:
		return gl.FRONT, true
	case gputypes.CullModeBack:
		return gl.BACK, true
	default:
		return 0, false
	}
}

func frontFace(f gputypes.FrontFace) uint32 {
	if f == gputypes.FrontFaceCW {
		return gl.CW
	}
	return gl.CCW
}

func primitiveMode(t gputypes.PrimitiveTopology) uint32 {
	switch t {
	case gputypes.PrimitiveTopologyPointList:
		return gl.POINTS
	case gputypes.PrimitiveTopologyLineList:
		return gl.LINES
	case gputypes.PrimitiveTopologyLineStrip:
		return gl.LINE_STRIP
	case gputypes.PrimitiveTopologyTriangleStrip:
		return gl.TRIANGLE_STRIP
	default:
		return gl.TRIANGLES
	}
}

func wrapMode(m gputypes.AddressMode) int32 {
	switch m {
	case gputypes.AddressModeRepeat:
		return gl.REPEAT
	case gputypes.AddressModeMirrorRepeat:
		return gl.MIRRORED_REPEAT
	default:
		return gl.CLAMP_TO_EDGE
	}
}

func magFilter(f gputypes.FilterMode) int32 {
	if f == gputypes.FilterModeLinear {
		return gl.LINEAR
	}
	return gl.NEAREST
}

// minFilter combines the minification and mipmap filters into one GL filter enum.
func minFilter(f gputypes.FilterMode, mip gputypes.MipmapFilterMode, mipmaps bool) int32 {
	linear := f == gputypes.FilterModeLinear
	if !mipmaps || mip == gputypes.MipmapFilterModeUndefined {
		if linear {
			return gl.LINEAR
		}
		return gl.NEAREST
	}
	switch {
	case linear && mip == gputypes.MipmapFilterModeLinear:
		return gl.LINEAR_MIPMAP_LINEAR
	case linear:
		return gl.LINEAR_MIPMAP_NEAREST
	case mip == gputypes.MipmapFilterModeLinear:
		return gl.NEAREST_MIPMAP_LINEAR
	default:
		return gl.NEAREST_MIPMAP_NEAREST
	}
}

func bufferTarget(k backend.BufferKind) uint32 {
	if k == backend.BufferIndex {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

// uniformTypeName maps a GL active-uniform type enum to its GLSL spelling.
func uniformTypeName(t uint32) string {
	switch t {
	case gl.FLOAT:
		return "float"
	case gl.INT:
		return "int"
	case gl.UNSIGNED_INT:
		return "uint"
	case gl.BOOL:
		return "bool"
	case gl.FLOAT_VEC2:
		return "vec2"
	case gl.FLOAT_VEC3:
		return "vec3"
	case gl.FLOAT_VEC4:
		return "vec4"
	case gl.FLOAT_MAT3:
		return "mat3"
	case gl.FLOAT_MAT4:
		return "mat4"
	case gl.SAMPLER_2D:
		return "sampler2D"
	case gl.SAMPLER_CUBE:
		return "samplerCube"
	default:
		return ""
	}
}
