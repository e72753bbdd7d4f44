package model

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

var nextModelID atomic.Uint64

// model is the implementation of the Model interface.
type model struct {
	id        uint64
	name      string
	mesh      Mesh
	material  material.Material
	transform Transform
	hidden    bool
}

// Model defines the interface for a renderable object: one mesh drawn with one material at a transform.
type Model interface {
	// ID returns the model's stable identity.
	//
	// Returns:
	//   - uint64: the model ID
	ID() uint64

	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Mesh retrieves the geometry drawn by this model.
	//
	// Returns:
	//   - Mesh: the mesh
	Mesh() Mesh

	// Material retrieves the material this model is drawn with.
	//
	// Returns:
	//   - material.Material: the material, or nil
	Material() material.Material

	// SetMaterial replaces the material of this model.
	//
	// Parameters:
	//   - m: the new material
	SetMaterial(m material.Material)

	// Transform returns the model transform for in-place edits.
	//
	// Returns:
	//   - *Transform: the transform
	Transform() *Transform

	// Matrix returns the composed model matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the model matrix
	Matrix() mgl32.Mat4

	// Visible reports whether the renderer draws this model.
	Visible() bool

	// SetVisible shows or hides the model.
	SetVisible(visible bool)
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{
		id:        nextModelID.Add(1),
		transform: NewTransform(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) ID() uint64 {
	return m.id
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Mesh() Mesh {
	return m.mesh
}

func (m *model) Material() material.Material {
	return m.material
}

func (m *model) SetMaterial(mat material.Material) {
	m.material = mat
}

func (m *model) Transform() *Transform {
	return &m.transform
}

func (m *model) Matrix() mgl32.Mat4 {
	return m.transform.Matrix()
}

func (m *model) Visible() bool {
	return !m.hidden
}

func (m *model) SetVisible(visible bool) {
	m.hidden = !visible
}
