// backend.go defines the narrow graphics-context contract consumed by the resource cache, the
// uniform reflector and the render pipelines. Implementations live in the headless and opengl
// sub-packages; nothing above this package issues graphics calls directly.
package backend

import (
	"errors"
	"strings"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
)

var (
	// ErrCompileFailed is returned when a shader stage fails to compile. The wrapped message carries the info log.
	ErrCompileFailed = errors.New("backend: shader compile failed")

	// ErrLinkFailed is returned when a program fails to link. The wrapped message carries the info log.
	ErrLinkFailed = errors.New("backend: program link failed")

	// ErrStaleHandle is returned when a handle no longer refers to a live resource.
	ErrStaleHandle = errors.New("backend: stale handle")

	// ErrResourceInUse is returned when a program or buffer is deleted while a live vertex array references it.
	ErrResourceInUse = errors.New("backend: resource in use")
)

// Type identifies a Context implementation.
type Type int

const (
	// TypeOpenGL is the native OpenGL 4.1 core context.
	TypeOpenGL Type = iota

	// TypeHeadless is the recording context used by tests and offline tools.
	TypeHeadless
)

// BufferKind selects the binding target of a buffer.
type BufferKind int

const (
	// BufferVertex holds interleaved vertex data.
	BufferVertex BufferKind = iota

	// BufferIndex holds uint32 element indices.
	BufferIndex
)

func (k BufferKind) String() string {
	if k == BufferIndex {
		return "index"
	}
	return "vertex"
}

// UniformType is the reflected type of an active uniform.
type UniformType int

const (
	UniformUnknown UniformType = iota
	UniformFloat
	UniformInt
	UniformBool
	UniformVec2
	UniformVec3
	UniformVec4
	UniformMat3
	UniformMat4
	UniformSampler2D
	UniformSamplerCube
)

var uniformTypeNames = map[string]UniformType{
	"float":       UniformFloat,
	"int":         UniformInt,
	"uint":        UniformInt,
	"bool":        UniformBool,
	"vec2":        UniformVec2,
	"vec3":        UniformVec3,
	"vec4":        UniformVec4,
	"mat3":        UniformMat3,
	"mat4":        UniformMat4,
	"sampler2D":   UniformSampler2D,
	"samplerCube": UniformSamplerCube,
}

// ParseUniformType maps a GLSL type name to a UniformType. Unknown names map to UniformUnknown.
func ParseUniformType(name string) UniformType {
	return uniformTypeNames[strings.TrimSpace(name)]
}

var uniformTypeStrings = [...]string{
	"unknown", "float", "int", "bool", "vec2", "vec3", "vec4", "mat3", "mat4", "sampler2D", "samplerCube",
}

func (t UniformType) String() string {
	if t < 0 || int(t) >= len(uniformTypeStrings) {
		return "unknown"
	}
	return uniformTypeStrings[t]
}

// IsSampler reports whether t is a texture sampler type.
func (t UniformType) IsSampler() bool {
	return t == UniformSampler2D || t == UniformSamplerCube
}

// ActiveUniform is one entry of a linked program's active uniform list. Array uniforms are
// reported the way drivers report them, with a "[0]" suffix on the name and Size > 1.
type ActiveUniform struct {
	Name string
	Type UniformType
	Size int
}

// ProgramSource is the processed source of one program variant. GLSL contexts consume Vertex and
// Fragment; WGSL-capable contexts consume WGSL.
type ProgramSource struct {
	Label    string
	Vertex   string
	Fragment string
	WGSL     string
}

// TextureDescriptor describes a 2D RGBA8 texture.
type TextureDescriptor struct {
	Label   string
	Width   int
	Height  int
	Sampler gputypes.SamplerDescriptor
	Mipmaps bool
}

// AttribPointer describes one float vertex attribute inside an interleaved vertex buffer.
type AttribPointer struct {
	Location   uint32
	Components int
	Stride     int
	Offset     int
}

// Context is the graphics context a renderer draws through. Implementations are not safe for
// concurrent use; all calls happen on the thread that owns the context.
type Context interface {
	// Type identifies the implementation.
	Type() Type

	// Dialect returns the shader dialect the context compiles.
	Dialect() shader.Dialect

	// CreateBuffer allocates a buffer of the given kind and uploads data into it.
	//
	// Parameters:
	//   - kind: the buffer binding target
	//   - data: the initial contents
	//
	// Returns:
	//   - BufferHandle: the new buffer
	//   - error: an error if the buffer could not be created
	CreateBuffer(kind BufferKind, data []byte) (BufferHandle, error)

	// WriteBuffer replaces the contents of a buffer starting at offset. A write at offset 0 that is
	// larger than the buffer reallocates it.
	WriteBuffer(h BufferHandle, offset int, data []byte) error

	// DeleteBuffer releases a buffer. Fails with ErrResourceInUse while a live vertex array references it.
	DeleteBuffer(h BufferHandle) error

	// CreateTexture allocates a 2D texture.
	CreateTexture(desc TextureDescriptor) (TextureHandle, error)

	// WriteTexture uploads pixels into a texture, resizing its storage to the image size.
	WriteTexture(h TextureHandle, img common.ImageData) error

	// DeleteTexture releases a texture.
	DeleteTexture(h TextureHandle) error

	// ActiveTexture selects the texture unit subsequent BindTexture calls affect.
	ActiveTexture(unit int)

	// BindTexture binds a texture to the active unit.
	BindTexture(h TextureHandle)

	// MaxTextureUnits returns the number of combined texture image units.
	MaxTextureUnits() int

	// CompileProgram compiles and links a program.
	//
	// Parameters:
	//   - src: the processed program sources
	//
	// Returns:
	//   - ProgramHandle: the linked program
	//   - error: ErrCompileFailed or ErrLinkFailed wrapping the info log
	CompileProgram(src ProgramSource) (ProgramHandle, error)

	// DeleteProgram releases a program. Fails with ErrResourceInUse while a live vertex array references it.
	DeleteProgram(h ProgramHandle) error

	// UseProgram makes h the current program. The zero handle unbinds.
	UseProgram(h ProgramHandle)

	// AttribLocation returns the location of a vertex attribute, or -1 when the program has none by that name.
	AttribLocation(h ProgramHandle, name string) int32

	// ActiveUniforms returns the program's active uniforms.
	ActiveUniforms(h ProgramHandle) []ActiveUniform

	// UniformLocation returns the location of a uniform, or -1 when the program has none by that name.
	UniformLocation(h ProgramHandle, name string) int32

	// CreateVertexArray allocates a vertex array holding attribute bindings for program.
	CreateVertexArray(program ProgramHandle) (VertexArrayHandle, error)

	// BindVertexArray makes h the current vertex array. The zero handle unbinds.
	BindVertexArray(h VertexArrayHandle)

	// DeleteVertexArray releases a vertex array and its references.
	DeleteVertexArray(h VertexArrayHandle) error

	// BindBuffer binds a buffer to its target and records it on the current vertex array.
	BindBuffer(kind BufferKind, h BufferHandle)

	// VertexAttribPointer describes and enables an attribute of the current vertex buffer.
	VertexAttribPointer(p AttribPointer)

	Uniform1f(loc int32, v float32)
	Uniform1i(loc int32, v int32)
	Uniform2f(loc int32, x, y float32)
	Uniform3f(loc int32, x, y, z float32)
	Uniform4f(loc int32, x, y, z, w float32)
	Uniform1fv(loc int32, v []float32)
	Uniform3fv(loc int32, v []float32)
	UniformMatrix3fv(loc int32, m mgl32.Mat3)
	UniformMatrix4fv(loc int32, m mgl32.Mat4)

	// ApplyRenderState sets depth, blend, cull and color-mask state.
	ApplyRenderState(s RenderState)

	// Viewport sets the viewport rectangle.
	Viewport(x, y, width, height int)

	// Clear clears the color and depth buffers.
	Clear(color [4]float32)

	// DrawArrays draws count vertices starting at first.
	DrawArrays(topology gputypes.PrimitiveTopology, first, count int)

	// DrawElements draws count uint32 indices from the bound index buffer.
	DrawElements(topology gputypes.PrimitiveTopology, count int)
}
