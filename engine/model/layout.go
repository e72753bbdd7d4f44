package model

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/gogpu/gputypes"
)

// VertexAttribute is one attribute inside an interleaved vertex.
type VertexAttribute struct {
	Name   AttributeName
	Format gputypes.VertexFormat
	// Offset is the byte offset of the attribute inside one vertex.
	Offset int
	// Location is the shader location used by backends that bind attributes by slot.
	Location uint32
}

// Components returns the number of float components of the attribute.
func (a VertexAttribute) Components() int {
	return int(a.Format.Size() / 4)
}

// VertexLayout describes one interleaved float vertex buffer.
type VertexLayout struct {
	Attributes  []VertexAttribute
	ArrayStride int
}

// NewVertexLayout packs the named attributes in the given order, with canonical components and
// locations.
//
// Parameters:
//   - names: the attributes in buffer order
//
// Returns:
//   - VertexLayout: the packed layout
func NewVertexLayout(names ...AttributeName) VertexLayout {
	var l VertexLayout
	for _, name := range names {
		comps := name.Components()
		loc := name.Location()
		if loc < 0 {
			panic(fmt.Sprintf("model: unknown vertex attribute %q", name))
		}
		l.Attributes = append(l.Attributes, VertexAttribute{
			Name:     name,
			Format:   floatFormat(comps),
			Offset:   l.ArrayStride,
			Location: uint32(loc),
		})
		l.ArrayStride += comps * 4
	}
	return l
}

func floatFormat(components int) gputypes.VertexFormat {
	switch components {
	case 1:
		return gputypes.VertexFormatFloat32
	case 2:
		return gputypes.VertexFormatFloat32x2
	case 3:
		return gputypes.VertexFormatFloat32x3
	default:
		return gputypes.VertexFormatFloat32x4
	}
}

// Find returns the attribute with the given name.
func (l VertexLayout) Find(name AttributeName) (VertexAttribute, bool) {
	for _, a := range l.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return VertexAttribute{}, false
}

// StrideFloats returns the stride in float elements.
func (l VertexLayout) StrideFloats() int {
	return l.ArrayStride / 4
}

// Key returns a stable string describing the layout.
func (l VertexLayout) Key() string {
	var b strings.Builder
	for i, a := range l.Attributes {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "%s:%s@%d", a.Name, a.Format, a.Offset)
	}
	fmt.Fprintf(&b, "/%d", l.ArrayStride)
	return b.String()
}

// BuildVertexLayout returns the mesh's explicit layout when it has one, and otherwise derives a
// layout from the non-empty streams in canonical attribute order. Position is always included.
//
// Parameters:
//   - m: the mesh
//
// Returns:
//   - VertexLayout: the layout the mesh is uploaded with
func BuildVertexLayout(m Mesh) VertexLayout {
	if explicit := m.ExplicitLayout(); explicit != nil {
		return *explicit
	}
	names := []AttributeName{AttributePosition}
	for _, attr := range Attributes[1:] {
		if len(m.Stream(attr)) > 0 {
			names = append(names, attr)
		}
	}
	return NewVertexLayout(names...)
}

// BuildInterleavedBuffer packs the mesh streams into one float buffer following layout. Each
// vertex occupies StrideFloats elements; components missing from a short or absent stream are
// left zero. The result depends only on its inputs.
//
// Parameters:
//   - m: the mesh supplying the streams
//   - layout: the layout to pack
//
// Returns:
//   - []float32: VertexCount() * layout.StrideFloats() elements
func BuildInterleavedBuffer(m Mesh, layout VertexLayout) []float32 {
	count := m.VertexCount()
	stride := layout.StrideFloats()
	out := make([]float32, count*stride)
	for _, attr := range layout.Attributes {
		src := m.Stream(attr.Name)
		comps := attr.Components()
		offset := attr.Offset / 4
		for v := range count {
			base := v * comps
			dst := v*stride + offset
			for c := 0; c < comps && base+c < len(src); c++ {
				out[dst+c] = src[base+c]
			}
		}
	}
	return out
}

// ShaderDefines returns the structural defines for the attributes of the mesh's layout, such as
// HAS_NORMAL and HAS_TEXCOORD, each set to "true".
//
// Parameters:
//   - m: the mesh
//
// Returns:
//   - shader.DefineMap: the structural defines
func ShaderDefines(m Mesh) shader.DefineMap {
	defines := shader.DefineMap{}
	for _, attr := range BuildVertexLayout(m).Attributes {
		if d := attr.Name.Define(); d != "" {
			defines[d] = shader.DefineTrue
		}
	}
	return defines
}
