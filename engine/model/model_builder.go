package model

import (
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithMesh is an option builder that sets the geometry of the Model.
//
// Parameters:
//   - mesh: the mesh to draw
//
// Returns:
//   - ModelBuilderOption: a function that applies the mesh option to a model
func WithMesh(mesh Mesh) ModelBuilderOption {
	return func(m *model) {
		m.mesh = mesh
	}
}

// WithMaterial is an option builder that sets the material of the Model.
//
// Parameters:
//   - mat: the material to draw with
//
// Returns:
//   - ModelBuilderOption: a function that applies the material option to a model
func WithMaterial(mat material.Material) ModelBuilderOption {
	return func(m *model) {
		m.material = mat
	}
}

// WithTransform is an option builder that sets the initial transform of the Model.
//
// Parameters:
//   - t: the transform
//
// Returns:
//   - ModelBuilderOption: a function that applies the transform option to a model
func WithTransform(t Transform) ModelBuilderOption {
	return func(m *model) {
		m.transform = t
	}
}

// WithPosition is an option builder that sets the translation of the Model.
//
// Parameters:
//   - position: the world-space position
//
// Returns:
//   - ModelBuilderOption: a function that applies the position option to a model
func WithPosition(position mgl32.Vec3) ModelBuilderOption {
	return func(m *model) {
		m.transform.Translation = position
	}
}
