// Package material holds the surface descriptions the renderer draws meshes with. A Material is a
// closed set of kinds (Base, Phong, Pbr); the package functions switch on the kind to produce the
// shader name, structural defines, uniform values and fixed-function state of a draw. Materials
// never cache GPU objects themselves.
package material

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/uniforms"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
)

// Surface holds the properties shared by every material kind.
type Surface struct {
	// Name is the material identifier used in diagnostics.
	Name string

	// Shader overrides the built-in shader of the material kind when non-empty.
	Shader string

	DepthTest    bool
	DepthWrite   bool
	DepthCompare gputypes.CompareFunction

	// Transparent enables alpha blending and disables depth writes.
	Transparent bool

	// DoubleSided disables back-face culling.
	DoubleSided bool
}

// Material is one of *Base, *Phong or *Pbr.
type Material interface {
	surface() *Surface
}

// Base is an unlit material drawn with a flat color, optionally modulated by a texture.
type Base struct {
	Surface
	Color   mgl32.Vec3
	Opacity float32
	Map     *Texture
}

// Phong is a Blinn-Phong lit material.
type Phong struct {
	Surface
	Diffuse    mgl32.Vec3
	Specular   mgl32.Vec3
	Shininess  float32
	Opacity    float32
	DiffuseMap *Texture
}

// Pbr is a metallic-roughness physically based material.
type Pbr struct {
	Surface
	BaseColor         mgl32.Vec4
	Metallic          float32
	Roughness         float32
	NormalScale       float32
	OcclusionStrength float32
	Emissive          mgl32.Vec3

	BaseColorMap         *Texture
	MetallicRoughnessMap *Texture
	NormalMap            *Texture
	OcclusionMap         *Texture
	EmissiveMap          *Texture
}

var (
	_ Material = &Base{}
	_ Material = &Phong{}
	_ Material = &Pbr{}
)

func (m *Base) surface() *Surface  { return &m.Surface }
func (m *Phong) surface() *Surface { return &m.Surface }
func (m *Pbr) surface() *Surface   { return &m.Surface }

// Frame carries the per-draw transforms a material turns into uniform values.
type Frame struct {
	Model        mgl32.Mat4
	View         mgl32.Mat4
	Projection   mgl32.Mat4
	NormalMatrix mgl32.Mat3
	CameraPos    mgl32.Vec3
}

func defaultSurface(options []MaterialBuilderOption) Surface {
	s := Surface{
		DepthTest:    true,
		DepthWrite:   true,
		DepthCompare: gputypes.CompareFunctionLess,
	}
	for _, opt := range options {
		opt(&s)
	}
	return s
}

// NewBase creates a white, opaque Base material.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions configuring the surface
//
// Returns:
//   - *Base: a new Base material
func NewBase(options ...MaterialBuilderOption) *Base {
	return &Base{
		Surface: defaultSurface(options),
		Color:   mgl32.Vec3{1, 1, 1},
		Opacity: 1,
	}
}

// NewPhong creates a white Phong material with a moderate highlight.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions configuring the surface
//
// Returns:
//   - *Phong: a new Phong material
func NewPhong(options ...MaterialBuilderOption) *Phong {
	return &Phong{
		Surface:   defaultSurface(options),
		Diffuse:   mgl32.Vec3{1, 1, 1},
		Specular:  mgl32.Vec3{0.5, 0.5, 0.5},
		Shininess: 32,
		Opacity:   1,
	}
}

// NewPbr creates a white, fully rough dielectric Pbr material.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions configuring the surface
//
// Returns:
//   - *Pbr: a new Pbr material
func NewPbr(options ...MaterialBuilderOption) *Pbr {
	return &Pbr{
		Surface:           defaultSurface(options),
		BaseColor:         mgl32.Vec4{1, 1, 1, 1},
		Metallic:          0,
		Roughness:         1,
		NormalScale:       1,
		OcclusionStrength: 1,
	}
}

// SurfaceOf returns the shared surface properties of m.
func SurfaceOf(m Material) *Surface {
	return m.surface()
}

// ShaderName returns the registered shader the material is drawn with.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - string: Surface.Shader when set, otherwise the built-in shader of the material kind
func ShaderName(m Material) string {
	if s := m.surface().Shader; s != "" {
		return s
	}
	switch m.(type) {
	case *Phong:
		return shader.ShaderBasePhong
	case *Pbr:
		return shader.ShaderBasePbr
	default:
		return shader.ShaderBaseMaterial
	}
}

// Defines returns the structural defines of the material: its kind and one HAS_*_MAP flag per
// bound texture. Absent maps produce no entry, so materials without maps share a variant key.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - shader.DefineMap: the material defines
func Defines(m Material) shader.DefineMap {
	d := shader.DefineMap{}
	flag := func(name string, tex *Texture) {
		if tex != nil {
			d[name] = shader.DefineTrue
		}
	}
	switch mat := m.(type) {
	case *Base:
		d["MATERIAL_BASIC"] = shader.DefineTrue
		flag("HAS_BASE_COLOR_MAP", mat.Map)
	case *Phong:
		d["MATERIAL_PHONG"] = shader.DefineTrue
		flag("HAS_DIFFUSE_MAP", mat.DiffuseMap)
	case *Pbr:
		d["MATERIAL_PBR"] = shader.DefineTrue
		flag("HAS_BASE_COLOR_MAP", mat.BaseColorMap)
		flag("HAS_METALLIC_ROUGHNESS_MAP", mat.MetallicRoughnessMap)
		flag("HAS_NORMAL_MAP", mat.NormalMap)
		flag("HAS_OCCLUSION_MAP", mat.OcclusionMap)
		flag("HAS_EMISSIVE_MAP", mat.EmissiveMap)
	}
	return d
}

// Uniforms computes the uniform values of one draw. Values the compiled variant does not consume
// are ignored by the reflector.
//
// Parameters:
//   - m: the material
//   - f: the per-draw transforms
//
// Returns:
//   - map[string]uniforms.Value: uniform name to value
func Uniforms(m Material, f Frame) map[string]uniforms.Value {
	out := map[string]uniforms.Value{
		"uModelMatrix":      uniforms.Mat4(f.Model),
		"uViewMatrix":       uniforms.Mat4(f.View),
		"uProjectionMatrix": uniforms.Mat4(f.Projection),
		"uNormalMatrix":     uniforms.Mat4(f.NormalMatrix.Mat4()),
		"uCameraPos":        uniforms.Vec3(f.CameraPos),
	}
	tex := func(name string, t *Texture, unit int) {
		if t == nil {
			return
		}
		t.claimUnit(unit)
		out[name] = uniforms.Tex(t)
	}

	switch mat := m.(type) {
	case *Base:
		if mat.Opacity < 1 {
			out["uBaseColor"] = uniforms.Vec4(mat.Color.Vec4(mat.Opacity))
		} else {
			out["uBaseColor"] = uniforms.Vec3(mat.Color)
		}
		out["uOpacity"] = uniforms.Float(mat.Opacity)
		tex("uBaseColorMap", mat.Map, 0)
	case *Phong:
		out["uDiffuse"] = uniforms.Vec3(mat.Diffuse)
		out["uSpecular"] = uniforms.Vec3(mat.Specular)
		out["uShininess"] = uniforms.Float(mat.Shininess)
		out["uOpacity"] = uniforms.Float(mat.Opacity)
		tex("uDiffuseMap", mat.DiffuseMap, 0)
	case *Pbr:
		out["uBaseColor"] = uniforms.Vec4(mat.BaseColor)
		out["uMetallic"] = uniforms.Float(mat.Metallic)
		out["uRoughness"] = uniforms.Float(mat.Roughness)
		out["uNormalScale"] = uniforms.Float(mat.NormalScale)
		out["uOcclusionStrength"] = uniforms.Float(mat.OcclusionStrength)
		out["uEmissive"] = uniforms.Vec3(mat.Emissive)
		tex("uBaseColorMap", mat.BaseColorMap, 0)
		tex("uMetallicRoughnessMap", mat.MetallicRoughnessMap, 1)
		tex("uNormalMap", mat.NormalMap, 2)
		tex("uOcclusionMap", mat.OcclusionMap, 3)
		tex("uEmissiveMap", mat.EmissiveMap, 4)
	default:
		panic(fmt.Sprintf("material: unknown material type %T", m))
	}
	return out
}

// RenderState returns the fixed-function state the material is drawn with.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - backend.RenderState: depth, blend and cull state derived from the surface
func RenderState(m Material) backend.RenderState {
	s := m.surface()
	rs := backend.DefaultRenderState()
	rs.DepthTest = s.DepthTest
	rs.DepthWrite = s.DepthWrite
	if s.DepthCompare != gputypes.CompareFunctionUndefined {
		rs.DepthCompare = s.DepthCompare
	}
	if s.Transparent {
		rs.Blend = true
		rs.BlendState = gputypes.BlendStateAlpha()
		rs.DepthWrite = false
	}
	if s.DoubleSided {
		rs.CullMode = gputypes.CullModeNone
	}
	return rs
}

// Textures returns the textures bound by the material, in slot order.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - []*Texture: the non-nil texture slots
func Textures(m Material) []*Texture {
	var all []*Texture
	switch mat := m.(type) {
	case *Base:
		all = []*Texture{mat.Map}
	case *Phong:
		all = []*Texture{mat.DiffuseMap}
	case *Pbr:
		all = []*Texture{mat.BaseColorMap, mat.MetallicRoughnessMap, mat.NormalMap, mat.OcclusionMap, mat.EmissiveMap}
	}
	out := all[:0]
	for _, t := range all {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}
