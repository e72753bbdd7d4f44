package webgpu

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"
)

// vertexFormats maps the float formats vertex layouts are built from.
var vertexFormats = map[gputypes.VertexFormat]wgpu.VertexFormat{
	gputypes.VertexFormatFloat32:   wgpu.VertexFormatFloat32,
	gputypes.VertexFormatFloat32x2: wgpu.VertexFormatFloat32x2,
	gputypes.VertexFormatFloat32x3: wgpu.VertexFormatFloat32x3,
	gputypes.VertexFormatFloat32x4: wgpu.VertexFormatFloat32x4,
}

func topology(t gputypes.PrimitiveTopology) wgpu.PrimitiveTopology {
	switch t {
	case gputypes.PrimitiveTopologyPointList:
		return wgpu.PrimitiveTopologyPointList
	case gputypes.PrimitiveTopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	case gputypes.PrimitiveTopologyLineStrip:
		return wgpu.PrimitiveTopologyLineStrip
	case gputypes.PrimitiveTopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

func cullMode(m gputypes.CullMode) wgpu.CullMode {
	switch m {
	case gputypes.CullModeFront:
		return wgpu.CullModeFront
	case gputypes.CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func frontFace(f gputypes.FrontFace) wgpu.FrontFace {
	if f == gputypes.FrontFaceCW {
		return wgpu.FrontFaceCW
	}
	return wgpu.FrontFaceCCW
}

func compareFunction(f gputypes.CompareFunction) wgpu.CompareFunction {
	switch f {
	case gputypes.CompareFunctionNever:
		return wgpu.CompareFunctionNever
	case gputypes.CompareFunctionEqual:
		return wgpu.CompareFunctionEqual
	case gputypes.CompareFunctionLessEqual:
		return wgpu.CompareFunctionLessEqual
	case gputypes.CompareFunctionGreater:
		return wgpu.CompareFunctionGreater
	case gputypes.CompareFunctionNotEqual:
		return wgpu.CompareFunctionNotEqual
	case gputypes.CompareFunctionGreaterEqual:
		return wgpu.CompareFunctionGreaterEqual
	case gputypes.CompareFunctionAlways:
		return wgpu.CompareFunctionAlways
	default:
		return wgpu.CompareFunctionLess
	}
}

func blendFactor(f gputypes.BlendFactor) wgpu.BlendFactor {
	switch f {
	case gputypes.BlendFactorZero:
		return wgpu.BlendFactorZero
	case gputypes.BlendFactorSrc:
		return wgpu.BlendFactorSrc
	case gputypes.BlendFactorOneMinusSrc:
		return wgpu.BlendFactorOneMinusSrc
	case gputypes.BlendFactorSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	case gputypes.BlendFactorDst:
		return wgpu.BlendFactorDst
	case gputypes.BlendFactorOneMinusDst:
		return wgpu.BlendFactorOneMinusDst
	case gputypes.BlendFactorDstAlpha:
		return wgpu.BlendFactorDstAlpha
	case gputypes.BlendFactorOneMinusDstAlpha:
		return wgpu.BlendFactorOneMinusDstAlpha
	case gputypes.BlendFactorSrcAlphaSaturated:
		return wgpu.BlendFactorSrcAlphaSaturated
	case gputypes.BlendFactorConstant:
		return wgpu.BlendFactorConstant
	case gputypes.BlendFactorOneMinusConstant:
		return wgpu.BlendFactorOneMinusConstant
	default:
		return wgpu.BlendFactorOne
	}
}

func blendOperation(op gputypes.BlendOperation) wgpu.BlendOperation {
	switch op {
	case gputypes.BlendOperationSubtract:
		return wgpu.BlendOperationSubtract
	case gputypes.BlendOperationReverseSubtract:
		return wgpu.BlendOperationReverseSubtract
	case gputypes.BlendOperationMin:
		return wgpu.BlendOperationMin
	case gputypes.BlendOperationMax:
		return wgpu.BlendOperationMax
	default:
		return wgpu.BlendOperationAdd
	}
}

func blendComponent(c gputypes.BlendComponent) wgpu.BlendComponent {
	return wgpu.BlendComponent{
		Operation: blendOperation(c.Operation),
		SrcFactor: blendFactor(c.SrcFactor),
		DstFactor: blendFactor(c.DstFactor),
	}
}

func writeMask(m gputypes.ColorWriteMask) wgpu.ColorWriteMask {
	var out wgpu.ColorWriteMask
	if m&gputypes.ColorWriteMaskRed != 0 {
		out |= wgpu.ColorWriteMaskRed
	}
	if m&gputypes.ColorWriteMaskGreen != 0 {
		out |= wgpu.ColorWriteMaskGreen
	}
	if m&gputypes.ColorWriteMaskBlue != 0 {
		out |= wgpu.ColorWriteMaskBlue
	}
	if m&gputypes.ColorWriteMaskAlpha != 0 {
		out |= wgpu.ColorWriteMaskAlpha
	}
	return out
}

// viewDimension maps the reflected sampler spelling to a texture view dimension.
func viewDimension(typeName string) wgpu.TextureViewDimension {
	switch typeName {
	case "samplerCube":
		return wgpu.TextureViewDimensionCube
	case "sampler3D":
		return wgpu.TextureViewDimension3D
	case "sampler1D":
		return wgpu.TextureViewDimension1D
	default:
		return wgpu.TextureViewDimension2D
	}
}
