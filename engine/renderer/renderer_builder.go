package renderer

import (
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithRegistry sets the shader registry programs are resolved from. The registry is used as is;
// built-in shaders are not registered into it.
//
// Parameters:
//   - reg: the shader registry
//
// Returns:
//   - RendererBuilderOption: a function that applies the registry option to a renderer
func WithRegistry(reg shader.Registry) RendererBuilderOption {
	return func(r *renderer) {
		r.registry = reg
	}
}

// WithClearColor sets the color the frame is cleared to at the start of Render.
//
// Parameters:
//   - red, green, blue, alpha: the clear color components in [0, 1]
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color option to a renderer
func WithClearColor(red, green, blue, alpha float32) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = [4]float32{red, green, blue, alpha}
	}
}

// WithDefines sets global defines applied to every draw. Mesh and material defines win on collision.
//
// Parameters:
//   - defines: the global defines
//
// Returns:
//   - RendererBuilderOption: a function that applies the defines option to a renderer
func WithDefines(defines shader.DefineMap) RendererBuilderOption {
	return func(r *renderer) {
		r.defines = defines.Clone()
	}
}

// WithDefaultMaterial sets the material used for models that have none.
//
// Parameters:
//   - m: the fallback material
//
// Returns:
//   - RendererBuilderOption: a function that applies the default material option to a renderer
func WithDefaultMaterial(m material.Material) RendererBuilderOption {
	return func(r *renderer) {
		r.defaultMaterial = m
	}
}
