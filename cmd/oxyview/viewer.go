package main

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/config"
	"github.com/Carmen-Shannon/oxy-gl/engine"
	"github.com/Carmen-Shannon/oxy-gl/engine/camera"
	"github.com/Carmen-Shannon/oxy-gl/engine/hotreload"
	"github.com/Carmen-Shannon/oxy-gl/engine/light"
	"github.com/Carmen-Shannon/oxy-gl/engine/model"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-gl/engine/scene"
	"github.com/Carmen-Shannon/oxy-gl/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

// Shadings the cubes cycle through.
const (
	shadingUnlit = iota
	shadingPhong
	shadingPbr
	shadingCount
)

var cubeColors = []mgl32.Vec3{
	{0.9, 0.3, 0.2},
	{0.3, 0.8, 0.4},
	{0.2, 0.4, 0.9},
}

// orbit places the camera on a sphere around the origin.
type orbit struct {
	azimuth   float32
	elevation float32
	radius    float32
}

func (o orbit) eye() mgl32.Vec3 {
	cosEl := float32(math.Cos(float64(o.elevation)))
	return mgl32.Vec3{
		o.radius * cosEl * float32(math.Sin(float64(o.azimuth))),
		o.radius * float32(math.Sin(float64(o.elevation))),
		o.radius * cosEl * float32(math.Cos(float64(o.azimuth))),
	}
}

// viewer owns the scene and the interactive state. Every method runs on the frame thread.
type viewer struct {
	eng      engine.Engine
	reg      shader.Registry
	manifest *config.Manifest

	scene   scene.Scene
	cam     camera.Camera
	cubes   []model.Model
	shading int

	orbit orbit
	keys  map[uint32]bool
}

// newViewer builds the viewer scene: a row of cubes over a floor, one extra cube per GLSL
// manifest shader, and three lights. The scene is registered with eng at z-index 0.
func newViewer(eng engine.Engine, reg shader.Registry, m *config.Manifest, aspect float32) *viewer {
	v := &viewer{
		eng:      eng,
		reg:      reg,
		manifest: m,
		orbit:    orbit{azimuth: 0.6, elevation: 0.35, radius: 9},
		keys:     make(map[uint32]bool),
	}
	v.cam = camera.NewCamera(
		camera.WithFov(mgl32.DegToRad(45)),
		camera.WithAspect(aspect),
		camera.WithNear(0.1),
		camera.WithFar(100),
		camera.WithPosition(v.orbit.eye()),
		camera.WithTarget(mgl32.Vec3{}),
	)

	floor := material.NewPhong(material.WithName("floor"))
	floor.Diffuse = mgl32.Vec3{0.6, 0.6, 0.6}
	floor.Specular = mgl32.Vec3{0.1, 0.1, 0.1}
	models := []model.Model{
		model.NewModel(
			model.WithName("floor"),
			model.WithMesh(model.Plane(12)),
			model.WithMaterial(floor),
			model.WithPosition(mgl32.Vec3{0, -1, 0}),
		),
	}

	for i := range cubeColors {
		cube := model.NewModel(
			model.WithName(fmt.Sprintf("cube_%d", i)),
			model.WithMesh(model.Cube()),
			model.WithMaterial(cubeMaterial(shadingUnlit, i)),
			model.WithPosition(mgl32.Vec3{float32(i-1) * 2.5, 0, 0}),
		)
		v.cubes = append(v.cubes, cube)
		models = append(models, cube)
	}

	if m != nil {
		x := float32(0)
		for _, e := range m.Shaders {
			if e.GLSL == nil {
				continue
			}
			models = append(models, model.NewModel(
				model.WithName(e.Name),
				model.WithMesh(model.Cube()),
				model.WithMaterial(material.NewBase(material.WithName(e.Name), material.WithShader(e.Name))),
				model.WithPosition(mgl32.Vec3{x, 0, -3}),
			))
			x += 2.5
		}
	}

	v.scene = scene.NewScene("viewer", v.cam,
		scene.WithModels(models...),
		scene.WithLights(
			light.NewAmbient(light.WithIntensity(0.15)),
			light.NewDirectional(mgl32.Vec3{-0.4, -1, -0.3}, light.WithIntensity(0.8)),
			light.NewPoint(mgl32.Vec3{0, 3, 3}, light.WithColor(1, 0.85, 0.6), light.WithRange(12)),
		),
	)
	eng.AddScene(0, v.scene)
	return v
}

// cubeMaterial returns a fresh material of the given shading for the i-th cube.
func cubeMaterial(shading, i int) material.Material {
	c := cubeColors[i%len(cubeColors)]
	switch shading {
	case shadingPhong:
		m := material.NewPhong(material.WithName("cube_phong"))
		m.Diffuse = c
		return m
	case shadingPbr:
		m := material.NewPbr(material.WithName("cube_pbr"))
		m.BaseColor = c.Vec4(1)
		m.Metallic = float32(i) / float32(len(cubeColors)-1)
		m.Roughness = 0.4
		return m
	default:
		m := material.NewBase(material.WithName("cube_unlit"))
		m.Color = c
		return m
	}
}

// cycleShading moves every cube to the next shading.
func (v *viewer) cycleShading() {
	v.shading = (v.shading + 1) % shadingCount
	for i, cube := range v.cubes {
		cube.SetMaterial(cubeMaterial(v.shading, i))
	}
	common.Logger().Info("shading changed", slog.String("shader", material.ShaderName(v.cubes[0].Material())))
}

// clearVariants drops every preprocessed variant. Compiled programs stay cached.
func (v *viewer) clearVariants() {
	before := v.reg.CachedLen()
	v.reg.ClearCache()
	common.Logger().Info("variant cache cleared", slog.Int("variants", before))
}

// reload re-reads one manifest shader and drops its programs.
func (v *viewer) reload(name string) {
	if v.manifest == nil {
		return
	}
	if _, err := hotreload.Reload(v.manifest, v.reg, v.eng.Renderer().Cache(), name); err != nil {
		common.Logger().Warn("shader reload failed", slog.String("shader", name), slog.Any("error", err))
	}
}

// reloadAll reloads every manifest shader.
func (v *viewer) reloadAll() {
	if v.manifest == nil {
		common.Logger().Info("no shader manifest loaded, nothing to reload")
		return
	}
	for _, e := range v.manifest.Shaders {
		v.reload(e.Name)
	}
}

func (v *viewer) toggleProfiler() {
	if v.eng.ProfilerEnabled() {
		v.eng.DisableProfiler()
	} else {
		v.eng.EnableProfiler()
	}
}

func (v *viewer) keyDown(code uint32) {
	v.keys[code] = true
	switch code {
	case common.KeyC:
		v.clearVariants()
	case common.KeyM:
		v.cycleShading()
	case common.KeyP:
		v.toggleProfiler()
	case common.KeyR:
		v.reloadAll()
	}
}

func (v *viewer) keyUp(code uint32) {
	v.keys[code] = false
}

func (v *viewer) zoom(delta float32) {
	v.orbit.radius = mgl32.Clamp(v.orbit.radius-delta*0.5, 2, 40)
	v.cam.LookAt(v.orbit.eye(), mgl32.Vec3{})
}

// drag orbits the camera while the left button is held.
func (v *viewer) drag(button window.MouseButton, dx, dy float32) {
	if button != window.MouseLeft {
		return
	}
	v.orbit.azimuth -= dx * 0.01
	v.orbit.elevation = mgl32.Clamp(v.orbit.elevation+dy*0.01, -1.5, 1.5)
	v.cam.LookAt(v.orbit.eye(), mgl32.Vec3{})
}

// tick orbits the camera while arrow keys are held.
func (v *viewer) tick(dt float32) {
	const speed = 1.5
	moved := false
	if v.keys[common.KeyLeft] {
		v.orbit.azimuth -= speed * dt
		moved = true
	}
	if v.keys[common.KeyRight] {
		v.orbit.azimuth += speed * dt
		moved = true
	}
	if v.keys[common.KeyUp] {
		v.orbit.elevation = min(v.orbit.elevation+speed*dt, 1.5)
		moved = true
	}
	if v.keys[common.KeyDown] {
		v.orbit.elevation = max(v.orbit.elevation-speed*dt, -1.5)
		moved = true
	}
	if moved {
		v.cam.LookAt(v.orbit.eye(), mgl32.Vec3{})
	}
}

// unitLimit caps the texture units a context reports.
type unitLimit struct {
	backend.Context
	units int
}

func (c unitLimit) MaxTextureUnits() int {
	return min(c.units, c.Context.MaxTextureUnits())
}
