package model

import "github.com/gogpu/gputypes"

// MeshBuilderOption is a functional option for configuring a Mesh via NewMesh.
type MeshBuilderOption func(*mesh)

// WithMeshName is an option builder that sets the debug name of the Mesh.
//
// Parameters:
//   - name: the mesh name
//
// Returns:
//   - MeshBuilderOption: a function that applies the name option to a mesh
func WithMeshName(name string) MeshBuilderOption {
	return func(m *mesh) {
		m.name = name
	}
}

// WithStream is an option builder that sets one attribute stream of the Mesh.
//
// Parameters:
//   - attr: the attribute name
//   - data: the attribute's components, attr.Components() floats per vertex
//
// Returns:
//   - MeshBuilderOption: a function that applies the stream option to a mesh
func WithStream(attr AttributeName, data []float32) MeshBuilderOption {
	return func(m *mesh) {
		if len(data) > 0 {
			m.streams[attr] = data
		}
	}
}

// WithPositions is shorthand for WithStream(AttributePosition, data).
func WithPositions(data []float32) MeshBuilderOption {
	return WithStream(AttributePosition, data)
}

// WithNormals is shorthand for WithStream(AttributeNormal, data).
func WithNormals(data []float32) MeshBuilderOption {
	return WithStream(AttributeNormal, data)
}

// WithTexCoords is shorthand for WithStream(AttributeTexCoord, data).
func WithTexCoords(data []float32) MeshBuilderOption {
	return WithStream(AttributeTexCoord, data)
}

// WithColors is shorthand for WithStream(AttributeColor0, data).
func WithColors(data []float32) MeshBuilderOption {
	return WithStream(AttributeColor0, data)
}

// WithIndices is an option builder that sets the element indices of the Mesh.
//
// Parameters:
//   - indices: the uint32 element indices
//
// Returns:
//   - MeshBuilderOption: a function that applies the indices option to a mesh
func WithIndices(indices []uint32) MeshBuilderOption {
	return func(m *mesh) {
		m.indices = indices
	}
}

// WithLayout is an option builder that supplies an explicit vertex layout, overriding the
// layout derived from stream presence.
//
// Parameters:
//   - layout: the explicit layout
//
// Returns:
//   - MeshBuilderOption: a function that applies the layout option to a mesh
func WithLayout(layout VertexLayout) MeshBuilderOption {
	return func(m *mesh) {
		m.layout = &layout
	}
}

// WithPrimitive is an option builder that sets the primitive topology of the Mesh.
//
// Parameters:
//   - topology: the primitive topology; defaults to a triangle list
//
// Returns:
//   - MeshBuilderOption: a function that applies the primitive option to a mesh
func WithPrimitive(topology gputypes.PrimitiveTopology) MeshBuilderOption {
	return func(m *mesh) {
		m.primitive = topology
	}
}
