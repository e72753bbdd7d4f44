// Package webgpu translates shader variants, vertex layouts, reflected bindings and render state
// into cogentcore/webgpu descriptors. It builds descriptors only; creating the GPU objects from
// them is left to the caller that owns the device.
package webgpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/model"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"
)

var (
	// ErrNotWGSL is returned when a variant was not processed for the WGSL dialect.
	ErrNotWGSL = errors.New("webgpu: variant is not wgsl")

	// ErrMissingEntryPoint is returned when a module lacks a vertex or fragment entry point.
	ErrMissingEntryPoint = errors.New("webgpu: missing entry point")
)

// DefaultDepthFormat is the depth attachment format used by the pipeline descriptions.
const DefaultDepthFormat = wgpu.TextureFormatDepth24Plus

// ShaderModule builds the module descriptor of a processed WGSL variant.
//
// Parameters:
//   - v: a variant returned by Registry.GetVariant for shader.DialectWGSL
//
// Returns:
//   - *wgpu.ShaderModuleDescriptor: the descriptor, labelled with the variant key
//   - error: ErrNotWGSL if v holds no processed WGSL code
func ShaderModule(v *shader.ShaderVariants) (*wgpu.ShaderModuleDescriptor, error) {
	if v == nil || v.Dialect != shader.DialectWGSL || v.WGSL == nil || v.WGSL.Code == "" {
		return nil, ErrNotWGSL
	}
	return &wgpu.ShaderModuleDescriptor{
		Label: v.Key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: v.WGSL.Code,
		},
	}, nil
}

// VertexBufferLayout converts an interleaved vertex layout. When inputs is non-nil only the
// attributes whose location a vertex input consumes are kept; the stride is unchanged so the
// same buffer serves every program.
//
// Parameters:
//   - layout: the mesh's vertex layout
//   - inputs: the reflected vertex inputs, or nil to keep every attribute
//
// Returns:
//   - wgpu.VertexBufferLayout: the buffer layout with step mode vertex
func VertexBufferLayout(layout model.VertexLayout, inputs []shader.VertexInput) wgpu.VertexBufferLayout {
	consumed := make(map[uint32]bool, len(inputs))
	for _, in := range inputs {
		consumed[in.Location] = true
	}

	attrs := make([]wgpu.VertexAttribute, 0, len(layout.Attributes))
	for _, a := range layout.Attributes {
		if inputs != nil && !consumed[a.Location] {
			common.Logger().Debug("attribute not consumed by module",
				slog.String("attribute", string(a.Name)),
				slog.Uint64("location", uint64(a.Location)))
			continue
		}
		format, ok := vertexFormats[a.Format]
		if !ok {
			common.Logger().Warn("unsupported vertex format",
				slog.String("attribute", string(a.Name)),
				slog.Any("format", a.Format))
			continue
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         format,
			Offset:         uint64(a.Offset),
			ShaderLocation: a.Location,
		})
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(layout.ArrayStride),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

// PrimitiveState converts the topology and the face state of s.
func PrimitiveState(t gputypes.PrimitiveTopology, s backend.RenderState) wgpu.PrimitiveState {
	return wgpu.PrimitiveState{
		Topology:  topology(t),
		FrontFace: frontFace(s.FrontFace),
		CullMode:  cullMode(s.CullMode),
	}
}

// DepthStencilState converts the depth state of s. A disabled depth test compares Always.
func DepthStencilState(s backend.RenderState, format wgpu.TextureFormat) *wgpu.DepthStencilState {
	compare := compareFunction(s.DepthCompare)
	if !s.DepthTest {
		compare = wgpu.CompareFunctionAlways
	}
	return &wgpu.DepthStencilState{
		Format:              format,
		DepthWriteEnabled:   s.DepthWrite,
		DepthCompare:        compare,
		DepthBias:           int32(s.DepthBias),
		DepthBiasSlopeScale: s.DepthBiasSlopeScale,
		StencilFront: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
		StencilBack: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
	}
}

// ColorTargetState converts the blend and write-mask state of s. Blend is nil when blending
// is disabled.
func ColorTargetState(s backend.RenderState, format wgpu.TextureFormat) wgpu.ColorTargetState {
	target := wgpu.ColorTargetState{
		Format:    format,
		WriteMask: writeMask(s.WriteMask),
	}
	if s.Blend {
		target.Blend = &wgpu.BlendState{
			Color: blendComponent(s.BlendState.Color),
			Alpha: blendComponent(s.BlendState.Alpha),
		}
	}
	return target
}

// BindGroupLayouts groups the reflected resource bindings into one layout descriptor per group.
// Every entry is visible to the vertex and fragment stages.
//
// Parameters:
//   - label: the label prefix of each descriptor
//   - refl: the reflected module interface
//
// Returns:
//   - map[uint32]wgpu.BindGroupLayoutDescriptor: the descriptors keyed by group index
func BindGroupLayouts(label string, refl *shader.WGSLReflection) map[uint32]wgpu.BindGroupLayoutDescriptor {
	out := make(map[uint32]wgpu.BindGroupLayoutDescriptor)
	if refl == nil {
		return out
	}
	for _, b := range refl.Bindings {
		desc := out[b.Group]
		if desc.Label == "" {
			desc.Label = fmt.Sprintf("%s group %d", label, b.Group)
		}
		desc.Entries = append(desc.Entries, layoutEntry(b))
		out[b.Group] = desc
	}
	return out
}

func layoutEntry(b shader.ResourceBinding) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    b.Binding,
		Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
	}
	switch b.Kind {
	case shader.BindingUniformBuffer:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.MinBindingSize = uint64(b.Size)
	case shader.BindingStorageBuffer:
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		entry.Buffer.MinBindingSize = uint64(b.Size)
	case shader.BindingSampler:
		if b.Type == "samplerShadow" {
			entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
		} else {
			entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		}
	case shader.BindingTexture:
		entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		entry.Texture.ViewDimension = viewDimension(b.Type)
	}
	return entry
}

// PipelineDescription holds every descriptor needed to create a render pipeline for one
// (variant, vertex layout, render state) combination.
type PipelineDescription struct {
	Label          string
	Module         *wgpu.ShaderModuleDescriptor
	VertexEntry    string
	FragmentEntry  string
	VertexBuffers  []wgpu.VertexBufferLayout
	Primitive      wgpu.PrimitiveState
	DepthStencil   *wgpu.DepthStencilState
	Target         wgpu.ColorTargetState
	BindGroups     map[uint32]wgpu.BindGroupLayoutDescriptor
	VertexInputs   []shader.VertexInput
	UniformMembers []shader.UniformField
}

// Describe reflects a processed WGSL variant and builds the descriptors for drawing a mesh with
// the given layout and state into a color target of format.
//
// Parameters:
//   - v: a variant processed for shader.DialectWGSL
//   - layout: the mesh's vertex layout
//   - t: the primitive topology
//   - s: the render state
//   - format: the color target format
//
// Returns:
//   - *PipelineDescription: the descriptors
//   - error: ErrNotWGSL, a reflection error, or ErrMissingEntryPoint
func Describe(v *shader.ShaderVariants, layout model.VertexLayout, t gputypes.PrimitiveTopology, s backend.RenderState, format wgpu.TextureFormat) (*PipelineDescription, error) {
	module, err := ShaderModule(v)
	if err != nil {
		return nil, err
	}
	refl, err := shader.ReflectWGSL(v.WGSL.Code)
	if err != nil {
		return nil, fmt.Errorf("webgpu: describe %s: %w", v.Key, err)
	}

	vs, ok := entryPoint(refl, shader.StageVertex, v.WGSL.VertexEntryPoint)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no vertex stage", ErrMissingEntryPoint, v.Key)
	}
	fs, ok := entryPoint(refl, shader.StageFragment, v.WGSL.FragmentEntryPoint)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no fragment stage", ErrMissingEntryPoint, v.Key)
	}

	inputs := refl.VertexInputs
	if inputs == nil {
		inputs = []shader.VertexInput{}
	}
	return &PipelineDescription{
		Label:          v.Key,
		Module:         module,
		VertexEntry:    vs,
		FragmentEntry:  fs,
		VertexBuffers:  []wgpu.VertexBufferLayout{VertexBufferLayout(layout, inputs)},
		Primitive:      PrimitiveState(t, s),
		DepthStencil:   DepthStencilState(s, DefaultDepthFormat),
		Target:         ColorTargetState(s, format),
		BindGroups:     BindGroupLayouts(v.Key, refl),
		VertexInputs:   refl.VertexInputs,
		UniformMembers: refl.Uniforms,
	}, nil
}

// entryPoint prefers the declared name and falls back to the first entry point of the stage.
func entryPoint(refl *shader.WGSLReflection, stage shader.Stage, declared string) (string, bool) {
	for _, ep := range refl.EntryPoints {
		if ep.Stage == stage && ep.Name == declared {
			return ep.Name, true
		}
	}
	return refl.EntryPoint(stage)
}

// String renders a readable summary of the description.
func (d *PipelineDescription) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pipeline %s\n", d.Label)
	fmt.Fprintf(&b, "  entry points: vertex=%s fragment=%s\n", d.VertexEntry, d.FragmentEntry)
	for i, vb := range d.VertexBuffers {
		fmt.Fprintf(&b, "  vertex buffer %d: stride=%d\n", i, vb.ArrayStride)
		for _, a := range vb.Attributes {
			fmt.Fprintf(&b, "    @location(%d) format=%d offset=%d\n", a.ShaderLocation, a.Format, a.Offset)
		}
	}
	fmt.Fprintf(&b, "  primitive: topology=%d front=%d cull=%d\n", d.Primitive.Topology, d.Primitive.FrontFace, d.Primitive.CullMode)
	if d.DepthStencil != nil {
		fmt.Fprintf(&b, "  depth: write=%t compare=%d bias=%d/%g\n",
			d.DepthStencil.DepthWriteEnabled, d.DepthStencil.DepthCompare,
			d.DepthStencil.DepthBias, d.DepthStencil.DepthBiasSlopeScale)
	}
	fmt.Fprintf(&b, "  target: format=%d mask=%d blend=%t\n", d.Target.Format, d.Target.WriteMask, d.Target.Blend != nil)

	groups := make([]uint32, 0, len(d.BindGroups))
	for g := range d.BindGroups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })
	for _, g := range groups {
		fmt.Fprintf(&b, "  group %d:\n", g)
		for _, e := range d.BindGroups[g].Entries {
			fmt.Fprintf(&b, "    @binding(%d) %s\n", e.Binding, entryKind(e))
		}
	}
	for _, u := range d.UniformMembers {
		fmt.Fprintf(&b, "  uniform %s.%s %s offset=%d\n", u.Block, u.Name, u.Type, u.Offset)
	}
	return b.String()
}

func entryKind(e wgpu.BindGroupLayoutEntry) string {
	switch {
	case e.Buffer.Type == wgpu.BufferBindingTypeUniform:
		return fmt.Sprintf("uniform buffer min=%d", e.Buffer.MinBindingSize)
	case e.Buffer.Type == wgpu.BufferBindingTypeReadOnlyStorage:
		return fmt.Sprintf("storage buffer min=%d", e.Buffer.MinBindingSize)
	case e.Sampler.Type == wgpu.SamplerBindingTypeComparison:
		return "comparison sampler"
	case e.Sampler.Type == wgpu.SamplerBindingTypeFiltering:
		return "sampler"
	default:
		return fmt.Sprintf("texture dim=%d", e.Texture.ViewDimension)
	}
}
