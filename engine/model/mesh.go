package model

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend"
	"github.com/gogpu/gputypes"
)

// AttributeName is the shader-facing name of a vertex attribute stream.
type AttributeName string

const (
	AttributePosition  AttributeName = "aPosition"
	AttributeNormal    AttributeName = "aNormal"
	AttributeTexCoord  AttributeName = "aTexCoord"
	AttributeColor0    AttributeName = "aColor0"
	AttributeColor1    AttributeName = "aColor1"
	AttributeTangent   AttributeName = "aTangent"
	AttributeBitangent AttributeName = "aBitangent"
)

// Attributes lists every attribute in canonical order. The index of an attribute is its
// canonical shader location.
var Attributes = []AttributeName{
	AttributePosition,
	AttributeNormal,
	AttributeTexCoord,
	AttributeColor0,
	AttributeColor1,
	AttributeTangent,
	AttributeBitangent,
}

// Components returns the number of float components per vertex of the attribute.
func (a AttributeName) Components() int {
	switch a {
	case AttributeTexCoord:
		return 2
	case AttributeColor0, AttributeColor1:
		return 4
	default:
		return 3
	}
}

// Location returns the canonical shader location of the attribute, or -1 for an unknown name.
func (a AttributeName) Location() int {
	for i, n := range Attributes {
		if n == a {
			return i
		}
	}
	return -1
}

// Define returns the structural shader define signalling the attribute's presence.
// Position is always present and has none.
func (a AttributeName) Define() string {
	switch a {
	case AttributeNormal:
		return "HAS_NORMAL"
	case AttributeTexCoord:
		return "HAS_TEXCOORD"
	case AttributeColor0:
		return "HAS_COLOR0"
	case AttributeColor1:
		return "HAS_COLOR1"
	case AttributeTangent:
		return "HAS_TANGENT"
	case AttributeBitangent:
		return "HAS_BITANGENT"
	default:
		return ""
	}
}

var nextMeshID atomic.Uint64

// mesh is the implementation of the Mesh interface.
type mesh struct {
	id        uint64
	name      string
	streams   map[AttributeName][]float32
	indices   []uint32
	layout    *VertexLayout
	primitive gputypes.PrimitiveTopology

	uploaded     bool
	needsUpdate  bool
	vertexBuffer backend.BufferHandle
	indexBuffer  backend.BufferHandle
	generation   uint64
}

// Mesh is a set of named vertex attribute streams plus optional indices. A mesh carries a stable
// identity assigned at creation, and the upload state the resource cache reads and writes on the
// render thread.
type Mesh interface {
	// ID returns the mesh's stable identity. IDs are never reused within a process.
	//
	// Returns:
	//   - uint64: the mesh ID
	ID() uint64

	// Name returns the debug name of the mesh.
	Name() string

	// Stream returns the flat float data of an attribute, or nil when the mesh has none.
	//
	// Parameters:
	//   - attr: the attribute name
	//
	// Returns:
	//   - []float32: the attribute's components, Components() floats per vertex
	Stream(attr AttributeName) []float32

	// SetStream replaces an attribute stream and marks the mesh for re-upload.
	//
	// Parameters:
	//   - attr: the attribute name
	//   - data: the attribute's components; nil removes the stream
	SetStream(attr AttributeName, data []float32)

	// Indices returns the element indices, or nil for a non-indexed mesh.
	Indices() []uint32

	// SetIndices replaces the element indices and marks the mesh for re-upload.
	SetIndices(indices []uint32)

	// ExplicitLayout returns the layout supplied at construction, or nil when the layout is derived.
	ExplicitLayout() *VertexLayout

	// Primitive returns the primitive topology the mesh is drawn with.
	Primitive() gputypes.PrimitiveTopology

	// VertexCount returns the number of vertices, derived from the position stream.
	VertexCount() int

	// IndexCount returns the number of indices.
	IndexCount() int

	// Uploaded reports whether GPU buffers exist for the mesh.
	Uploaded() bool

	// NeedsUpdate reports whether stream or index data changed since the last upload.
	NeedsUpdate() bool

	// MarkDirty flags the mesh for re-upload on the next draw.
	MarkDirty()

	// Buffers returns the vertex and index buffer handles. The index handle is invalid for
	// non-indexed meshes.
	Buffers() (vertex, index backend.BufferHandle)

	// SetBuffers records newly created GPU buffers, marks the mesh uploaded and clean, and bumps
	// the buffer generation.
	//
	// Parameters:
	//   - vertex: the interleaved vertex buffer
	//   - index: the index buffer, or the zero handle
	SetBuffers(vertex, index backend.BufferHandle)

	// MarkUpdated clears the dirty flag after an in-place buffer write.
	MarkUpdated()

	// ClearBuffers forgets the GPU buffers after they were released.
	ClearBuffers()

	// BufferGeneration returns a counter incremented each time SetBuffers installs new buffers.
	// Bound vertex state built against an older generation is stale.
	BufferGeneration() uint64
}

var _ Mesh = &mesh{}

// NewMesh creates a new Mesh with the specified options applied. The mesh starts dirty and not uploaded.
//
// Parameters:
//   - options: a variadic list of MeshBuilderOption functions to configure the Mesh
//
// Returns:
//   - Mesh: a new Mesh with a fresh ID
func NewMesh(options ...MeshBuilderOption) Mesh {
	m := &mesh{
		id:          nextMeshID.Add(1),
		streams:     make(map[AttributeName][]float32),
		primitive:   gputypes.PrimitiveTopologyTriangleList,
		needsUpdate: true,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *mesh) ID() uint64 {
	return m.id
}

func (m *mesh) Name() string {
	return m.name
}

func (m *mesh) Stream(attr AttributeName) []float32 {
	return m.streams[attr]
}

func (m *mesh) SetStream(attr AttributeName, data []float32) {
	if len(data) == 0 {
		delete(m.streams, attr)
	} else {
		m.streams[attr] = data
	}
	m.needsUpdate = true
}

func (m *mesh) Indices() []uint32 {
	return m.indices
}

func (m *mesh) SetIndices(indices []uint32) {
	m.indices = indices
	m.needsUpdate = true
}

func (m *mesh) ExplicitLayout() *VertexLayout {
	return m.layout
}

func (m *mesh) Primitive() gputypes.PrimitiveTopology {
	return m.primitive
}

func (m *mesh) VertexCount() int {
	return len(m.streams[AttributePosition]) / AttributePosition.Components()
}

func (m *mesh) IndexCount() int {
	return len(m.indices)
}

func (m *mesh) Uploaded() bool {
	return m.uploaded
}

func (m *mesh) NeedsUpdate() bool {
	return m.needsUpdate
}

func (m *mesh) MarkDirty() {
	m.needsUpdate = true
}

func (m *mesh) Buffers() (backend.BufferHandle, backend.BufferHandle) {
	return m.vertexBuffer, m.indexBuffer
}

func (m *mesh) SetBuffers(vertex, index backend.BufferHandle) {
	m.vertexBuffer = vertex
	m.indexBuffer = index
	m.uploaded = true
	m.needsUpdate = false
	m.generation++
}

func (m *mesh) MarkUpdated() {
	m.needsUpdate = false
}

func (m *mesh) ClearBuffers() {
	m.vertexBuffer = backend.BufferHandle{}
	m.indexBuffer = backend.BufferHandle{}
	m.uploaded = false
	m.needsUpdate = true
}

func (m *mesh) BufferGeneration() uint64 {
	return m.generation
}
