package backend

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// RenderState is the fixed-function state applied before a draw.
type RenderState struct {
	DepthTest    bool
	DepthWrite   bool
	DepthCompare gputypes.CompareFunction

	Blend      bool
	BlendState gputypes.BlendState

	CullMode  gputypes.CullMode
	FrontFace gputypes.FrontFace
	WriteMask gputypes.ColorWriteMask

	// DepthBias and DepthBiasSlopeScale map to glPolygonOffset(slope, bias). Both zero disables the offset.
	DepthBias           float32
	DepthBiasSlopeScale float32
}

// DefaultRenderState returns opaque, depth-tested, back-face-culled state.
func DefaultRenderState() RenderState {
	return RenderState{
		DepthTest:    true,
		DepthWrite:   true,
		DepthCompare: gputypes.CompareFunctionLess,
		BlendState:   gputypes.BlendStateReplace(),
		CullMode:     gputypes.CullModeBack,
		FrontFace:    gputypes.FrontFaceCCW,
		WriteMask:    gputypes.ColorWriteMaskAll,
	}
}

// HasDepthBias reports whether a polygon offset is configured.
func (s RenderState) HasDepthBias() bool {
	return s.DepthBias != 0 || s.DepthBiasSlopeScale != 0
}

// Key returns a stable string identifying the state, suitable as a map key component.
func (s RenderState) Key() string {
	b := s.BlendState
	return fmt.Sprintf("depth=%t/%t/%d;blend=%t/%d.%d.%d/%d.%d.%d;cull=%d;front=%d;mask=%d;bias=%g/%g",
		s.DepthTest, s.DepthWrite, s.DepthCompare,
		s.Blend, b.Color.SrcFactor, b.Color.DstFactor, b.Color.Operation,
		b.Alpha.SrcFactor, b.Alpha.DstFactor, b.Alpha.Operation,
		s.CullMode, s.FrontFace, s.WriteMask,
		s.DepthBias, s.DepthBiasSlopeScale)
}
