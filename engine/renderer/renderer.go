package renderer

import (
	"log/slog"
	"slices"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/camera"
	"github.com/Carmen-Shannon/oxy-gl/engine/light"
	"github.com/Carmen-Shannon/oxy-gl/engine/model"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/uniforms"
	"github.com/Carmen-Shannon/oxy-gl/engine/scene"
)

// FrameStats counts the work of the last Render call.
type FrameStats struct {
	Models  int
	Draws   int
	Skipped int
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	ctx      backend.Context
	registry shader.Registry
	cache    ResourceCache

	clearColor      [4]float32
	defines         shader.DefineMap
	defaultMaterial material.Material

	lightValues map[string]uniforms.Value
	frame       FrameStats
}

// Renderer draws models through a ResourceCache. Each draw merges the mesh and material defines,
// resolves the compiled program and bound vertex state from the cache, binds them, pushes the
// material and light uniforms through the program's reflector, issues the draw and unbinds.
//
// A draw that cannot be resolved is logged and skipped; a bad shader for one material never stops
// the rest of the frame. Like the cache, a Renderer is used only on the thread that owns its context.
type Renderer interface {
	// Render clears the frame and draws every visible model of sc as seen through cam. Opaque models
	// are drawn in scene order, then transparent models back to front.
	//
	// Parameters:
	//   - cam: the camera supplying view, projection and eye position
	//   - sc: the scene to draw
	//
	// Returns:
	//   - FrameStats: the work done this frame
	Render(cam camera.Camera, sc scene.Scene) FrameStats

	// Overlay draws sc like Render but keeps the frame's contents and adds to the statistics of
	// the last Render call. Use it to layer scenes over the one drawn by Render.
	//
	// Parameters:
	//   - cam: the camera supplying view, projection and eye position
	//   - sc: the scene to draw
	//
	// Returns:
	//   - FrameStats: the work done since the last Render call
	Overlay(cam camera.Camera, sc scene.Scene) FrameStats

	// Draw draws one model with the lights set by the last Render or SetLights call. The model and
	// normal matrices of frame are replaced with the model's own.
	//
	// Parameters:
	//   - m: the model to draw
	//   - frame: the camera transforms
	//
	// Returns:
	//   - bool: true if a draw call was issued
	Draw(m model.Model, frame material.Frame) bool

	// SetLights replaces the light uniforms used by Draw.
	//
	// Parameters:
	//   - lights: the lights, nearest first
	SetLights(lights []light.Light)

	// Resize sets the viewport to cover a framebuffer of the given size.
	Resize(width, height int)

	// Cache returns the resource cache owned by the renderer.
	Cache() ResourceCache

	// Registry returns the shader registry programs are resolved from.
	Registry() shader.Registry

	// FrameStats returns the statistics of the last Render call.
	FrameStats() FrameStats

	// Release destroys every resource the renderer created.
	Release() error
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer drawing on ctx. Without WithRegistry the process-wide shader
// registry is used, with the built-in shaders registered if they are missing.
//
// Parameters:
//   - ctx: the graphics context
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the new renderer
func NewRenderer(ctx backend.Context, options ...RendererBuilderOption) Renderer {
	if ctx == nil {
		panic("renderer: NewRenderer requires a context")
	}
	r := &renderer{
		ctx:        ctx,
		clearColor: [4]float32{0, 0, 0, 1},
		defines:    shader.DefineMap{},
	}
	for _, opt := range options {
		opt(r)
	}
	if r.registry == nil {
		r.registry = shader.Default()
		if !r.registry.Has(shader.ShaderBaseMaterial) {
			if err := shader.RegisterBuiltins(r.registry); err != nil {
				panic("renderer: " + err.Error())
			}
		}
	}
	if r.defaultMaterial == nil {
		r.defaultMaterial = material.NewBase(material.WithName("default"))
	}
	r.cache = NewResourceCache(ctx, r.registry)
	r.lightValues = light.Uniforms(nil)
	return r
}

func (r *renderer) Render(cam camera.Camera, sc scene.Scene) FrameStats {
	r.frame = FrameStats{}
	r.ctx.Clear(r.clearColor)
	return r.Overlay(cam, sc)
}

func (r *renderer) Overlay(cam camera.Camera, sc scene.Scene) FrameStats {
	eye := cam.Position()
	r.SetLights(light.Nearest(sc.Lights(), eye, 0))

	frame := material.Frame{
		View:       cam.View(),
		Projection: cam.Projection(),
		CameraPos:  eye,
	}

	var opaque, transparent []model.Model
	for _, m := range sc.Models() {
		if !m.Visible() {
			continue
		}
		if material.SurfaceOf(r.materialOf(m)).Transparent {
			transparent = append(transparent, m)
		} else {
			opaque = append(opaque, m)
		}
	}
	slices.SortStableFunc(transparent, func(a, b model.Model) int {
		da := a.Transform().Translation.Sub(eye).LenSqr()
		db := b.Transform().Translation.Sub(eye).LenSqr()
		switch {
		case da > db:
			return -1
		case da < db:
			return 1
		}
		return 0
	})

	for _, m := range append(opaque, transparent...) {
		r.frame.Models++
		if r.Draw(m, frame) {
			r.frame.Draws++
		} else {
			r.frame.Skipped++
		}
	}
	return r.frame
}

func (r *renderer) materialOf(m model.Model) material.Material {
	if mat := m.Material(); mat != nil {
		return mat
	}
	return r.defaultMaterial
}

func (r *renderer) Draw(m model.Model, frame material.Frame) bool {
	mesh := m.Mesh()
	if mesh == nil || mesh.VertexCount() == 0 {
		common.Logger().Debug("model has no geometry", slog.String("model", m.Name()))
		return false
	}
	mat := r.materialOf(m)
	name := material.ShaderName(mat)
	defines := shader.Merge(r.defines, shader.Merge(model.ShaderDefines(mesh), material.Defines(mat), true), true)

	prog, err := r.cache.Program(name, defines)
	if err != nil {
		return false
	}
	for _, tex := range material.Textures(mat) {
		if err := r.cache.EnsureTexture(tex); err != nil {
			common.Logger().Warn("texture upload failed", slog.String("texture", tex.Name()), slog.Any("error", err))
		}
	}
	p, err := r.cache.Pipeline(mesh, prog)
	if err != nil {
		common.Logger().Warn("pipeline unavailable",
			slog.String("model", m.Name()),
			slog.String("shader", name),
			slog.Any("error", err))
		return false
	}
	p.SetState(material.RenderState(mat))

	t := m.Transform()
	frame.Model = t.Matrix()
	frame.NormalMatrix = t.NormalMatrix()

	p.Bind(r.ctx)
	refl := prog.Reflector()
	refl.SetAll(r.lightValues)
	refl.SetAll(material.Uniforms(mat, frame))
	if n := mesh.IndexCount(); n > 0 {
		r.ctx.DrawElements(p.Topology(), n)
	} else {
		r.ctx.DrawArrays(p.Topology(), 0, mesh.VertexCount())
	}
	p.Unbind(r.ctx)
	return true
}

func (r *renderer) SetLights(lights []light.Light) {
	r.lightValues = light.Uniforms(lights)
}

func (r *renderer) Resize(width, height int) {
	r.ctx.Viewport(0, 0, width, height)
}

func (r *renderer) Cache() ResourceCache {
	return r.cache
}

func (r *renderer) Registry() shader.Registry {
	return r.registry
}

func (r *renderer) FrameStats() FrameStats {
	return r.frame
}

func (r *renderer) Release() error {
	return r.cache.Release()
}
