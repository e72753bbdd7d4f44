// package uniforms converts typed uniform values into the graphics call matching a program's
// reflected uniform slot. A Reflector is built once per compiled program; materials and lights
// produce Values, and the renderer pushes them through the Reflector every draw.
package uniforms

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend"
	"github.com/go-gl/mathgl/mgl32"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindFloat
	KindInt
	KindBool
	KindVec2
	KindVec3
	KindVec4
	KindMat3
	KindMat4
	KindFloats
	KindVec3s
	KindTexture
)

var kindNames = [...]string{"invalid", "float", "int", "bool", "vec2", "vec3", "vec4", "mat3", "mat4", "float[]", "vec3[]", "texture"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Texture is a sampled image the reflector can bind. The texture owns its unit index; the slot
// receives the unit, never the handle.
type Texture interface {
	// Handle returns the texture's backend handle. Invalid until the first upload.
	Handle() backend.TextureHandle

	// Unit returns the texture unit the texture binds to.
	Unit() int

	// Dirty reports whether the pixels changed since the last upload.
	Dirty() bool

	// Upload creates or refreshes the texture on ctx and clears the dirty flag.
	Upload(ctx backend.Context) error
}

// Value is a tagged uniform value. The zero Value is invalid and is ignored by Reflector.Set.
type Value struct {
	kind   Kind
	scalar float32
	i      int32
	vec    mgl32.Vec4
	mat3   mgl32.Mat3
	mat4   mgl32.Mat4
	floats []float32
	tex    Texture
}

func Float(v float32) Value { return Value{kind: KindFloat, scalar: v} }
func Int(v int32) Value     { return Value{kind: KindInt, i: v} }

func Bool(v bool) Value {
	if v {
		return Value{kind: KindBool, i: 1}
	}
	return Value{kind: KindBool}
}

func Vec2(v mgl32.Vec2) Value { return Value{kind: KindVec2, vec: mgl32.Vec4{v[0], v[1]}} }
func Vec3(v mgl32.Vec3) Value { return Value{kind: KindVec3, vec: v.Vec4(0)} }
func Vec4(v mgl32.Vec4) Value { return Value{kind: KindVec4, vec: v} }
func Mat3(m mgl32.Mat3) Value { return Value{kind: KindMat3, mat3: m} }
func Mat4(m mgl32.Mat4) Value { return Value{kind: KindMat4, mat4: m} }

// Floats wraps a float array value. The slice is copied.
func Floats(v []float32) Value {
	return Value{kind: KindFloats, floats: append([]float32(nil), v...)}
}

// Vec3s wraps a vec3 array value, flattened to x,y,z triples.
func Vec3s(v []mgl32.Vec3) Value {
	flat := make([]float32, 0, len(v)*3)
	for _, e := range v {
		flat = append(flat, e[0], e[1], e[2])
	}
	return Value{kind: KindVec3s, floats: flat}
}

// Tex wraps a texture value. A nil texture yields an invalid Value.
func Tex(t Texture) Value {
	if t == nil {
		return Value{}
	}
	return Value{kind: KindTexture, tex: t}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind {
	return v.kind
}

// Valid reports whether v holds a value.
func (v Value) Valid() bool {
	return v.kind != KindInvalid
}

// AsFloat returns the scalar of a Float value.
func (v Value) AsFloat() float32 { return v.scalar }

// AsInt returns the integer of an Int or Bool value.
func (v Value) AsInt() int32 { return v.i }

// AsVec4 returns the components of a vector value, zero-filled past its length.
func (v Value) AsVec4() mgl32.Vec4 { return v.vec }

// AsMat4 returns the matrix of a Mat4 value.
func (v Value) AsMat4() mgl32.Mat4 { return v.mat4 }

// AsFloats returns the flattened elements of a Floats or Vec3s value.
func (v Value) AsFloats() []float32 { return v.floats }

// AsTexture returns the texture of a texture value.
func (v Value) AsTexture() Texture { return v.tex }

func (v Value) String() string {
	switch v.kind {
	case KindFloat:
		return fmt.Sprintf("float(%g)", v.scalar)
	case KindInt, KindBool:
		return fmt.Sprintf("%s(%d)", v.kind, v.i)
	case KindVec2:
		return fmt.Sprintf("vec2(%g, %g)", v.vec[0], v.vec[1])
	case KindVec3:
		return fmt.Sprintf("vec3(%g, %g, %g)", v.vec[0], v.vec[1], v.vec[2])
	case KindVec4:
		return fmt.Sprintf("vec4(%g, %g, %g, %g)", v.vec[0], v.vec[1], v.vec[2], v.vec[3])
	case KindFloats, KindVec3s:
		return fmt.Sprintf("%s(len=%d)", v.kind, len(v.floats))
	default:
		return v.kind.String()
	}
}
