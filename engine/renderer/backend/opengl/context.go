// package opengl implements backend.Context on an OpenGL 4.1 core profile through go-gl. A
// Context must be created and used on the thread that owns the current GL context, which the
// window package arranges by locking the main goroutine to its OS thread.
package opengl

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
)

type glTexture struct {
	id   uint32
	desc backend.TextureDescriptor
}

type glBuffer struct {
	id   uint32
	kind backend.BufferKind
	size int
}

type glVertexArray struct {
	id      uint32
	program backend.ProgramHandle
	buffers map[backend.BufferKind]backend.BufferHandle
}

type glContext struct {
	dialect         shader.Dialect
	maxTextureUnits int

	buffers      backend.BufferArena[*glBuffer]
	textures     backend.TextureArena[*glTexture]
	programs     backend.ProgramArena[uint32]
	vertexArrays backend.VertexArrayArena[*glVertexArray]

	currentVertexArray backend.VertexArrayHandle
}

var _ backend.Context = &glContext{}

// NewContext loads the GL function pointers for the current context and returns a Context
// compiling the given GLSL dialect.
//
// Parameters:
//   - dialect: the GLSL dialect the context's driver accepts, usually shader.DialectGLSL410
//
// Returns:
//   - backend.Context: the OpenGL context
//   - error: an error if GL cannot be initialized or dialect is not GLSL
func NewContext(dialect shader.Dialect) (backend.Context, error) {
	if !dialect.IsGLSL() {
		return nil, fmt.Errorf("opengl: dialect %q is not GLSL", dialect)
	}
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("opengl: init: %w", err)
	}

	var units int32
	gl.GetIntegerv(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS, &units)
	common.Logger().Info("opengl context ready",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
		"textureUnits", units)

	return &glContext{dialect: dialect, maxTextureUnits: int(units)}, nil
}

func (c *glContext) Type() backend.Type {
	return backend.TypeOpenGL
}

func (c *glContext) Dialect() shader.Dialect {
	return c.dialect
}

func (c *glContext) CreateBuffer(kind backend.BufferKind, data []byte) (backend.BufferHandle, error) {
	var id uint32
	gl.GenBuffers(1, &id)
	if id == 0 {
		return backend.BufferHandle{}, fmt.Errorf("opengl: glGenBuffers returned 0")
	}
	target := bufferTarget(kind)
	gl.BindBuffer(target, id)
	gl.BufferData(target, len(data), ptr(data), gl.DYNAMIC_DRAW)
	return c.buffers.Insert(&glBuffer{id: id, kind: kind, size: len(data)}), nil
}

func (c *glContext) WriteBuffer(h backend.BufferHandle, offset int, data []byte) error {
	b, ok := c.buffers.Get(h)
	if !ok {
		return fmt.Errorf("opengl: write buffer %s: %w", h, backend.ErrStaleHandle)
	}
	target := bufferTarget(b.kind)
	gl.BindBuffer(target, b.id)
	if end := offset + len(data); end > b.size {
		if offset != 0 {
			return fmt.Errorf("opengl: write buffer %s: %d bytes at %d exceeds size %d", h, len(data), offset, b.size)
		}
		gl.BufferData(target, len(data), ptr(data), gl.DYNAMIC_DRAW)
		b.size = len(data)
		return nil
	}
	if len(data) > 0 {
		gl.BufferSubData(target, offset, len(data), gl.Ptr(data))
	}
	return nil
}

func (c *glContext) DeleteBuffer(h backend.BufferHandle) error {
	b, ok := c.buffers.Get(h)
	if !ok {
		return fmt.Errorf("opengl: delete buffer %s: %w", h, backend.ErrStaleHandle)
	}
	var inUse bool
	c.vertexArrays.Each(func(_ backend.VertexArrayHandle, va *glVertexArray) bool {
		for _, ref := range va.buffers {
			inUse = inUse || ref == h
		}
		return !inUse
	})
	if inUse {
		return fmt.Errorf("opengl: delete buffer %s: %w", h, backend.ErrResourceInUse)
	}
	gl.DeleteBuffers(1, &b.id)
	c.buffers.Remove(h)
	return nil
}

func (c *glContext) CreateTexture(desc backend.TextureDescriptor) (backend.TextureHandle, error) {
	var id uint32
	gl.GenTextures(1, &id)
	if id == 0 {
		return backend.TextureHandle{}, fmt.Errorf("opengl: glGenTextures returned 0 for %q", desc.Label)
	}
	gl.BindTexture(gl.TEXTURE_2D, id)
	s := desc.Sampler
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrapMode(s.AddressModeU))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrapMode(s.AddressModeV))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, magFilter(s.MagFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, minFilter(s.MinFilter, s.MipmapFilter, desc.Mipmaps))
	if desc.Width > 0 && desc.Height > 0 {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(desc.Width), int32(desc.Height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	}
	return c.textures.Insert(&glTexture{id: id, desc: desc}), nil
}

func (c *glContext) WriteTexture(h backend.TextureHandle, img common.ImageData) error {
	t, ok := c.textures.Get(h)
	if !ok {
		return fmt.Errorf("opengl: write texture %s: %w", h, backend.ErrStaleHandle)
	}
	if img.Empty() || len(img.Pixels) != img.Width*img.Height*4 {
		return fmt.Errorf("opengl: write texture %s: %d bytes for %dx%d RGBA image", h, len(img.Pixels), img.Width, img.Height)
	}
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(img.Width), int32(img.Height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pixels))
	if t.desc.Mipmaps {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	t.desc.Width, t.desc.Height = img.Width, img.Height
	return nil
}

func (c *glContext) DeleteTexture(h backend.TextureHandle) error {
	t, ok := c.textures.Remove(h)
	if !ok {
		return fmt.Errorf("opengl: delete texture %s: %w", h, backend.ErrStaleHandle)
	}
	gl.DeleteTextures(1, &t.id)
	return nil
}

func (c *glContext) ActiveTexture(unit int) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
}

func (c *glContext) BindTexture(h backend.TextureHandle) {
	var id uint32
	if t, ok := c.textures.Get(h); ok {
		id = t.id
	}
	gl.BindTexture(gl.TEXTURE_2D, id)
}

func (c *glContext) MaxTextureUnits() int {
	return c.maxTextureUnits
}

func (c *glContext) CompileProgram(src backend.ProgramSource) (backend.ProgramHandle, error) {
	vs, err := compileShader(src.Vertex, gl.VERTEX_SHADER)
	if err != nil {
		return backend.ProgramHandle{}, fmt.Errorf("%w: %s (vertex): %s", backend.ErrCompileFailed, src.Label, err)
	}
	defer gl.DeleteShader(vs)
	fs, err := compileShader(src.Fragment, gl.FRAGMENT_SHADER)
	if err != nil {
		return backend.ProgramHandle{}, fmt.Errorf("%w: %s (fragment): %s", backend.ErrCompileFailed, src.Label, err)
	}
	defer gl.DeleteShader(fs)

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := infoLog(logLen, func(buf *uint8) { gl.GetProgramInfoLog(program, logLen, nil, buf) })
		gl.DeleteProgram(program)
		return backend.ProgramHandle{}, fmt.Errorf("%w: %s: %s", backend.ErrLinkFailed, src.Label, log)
	}
	gl.DetachShader(program, vs)
	gl.DetachShader(program, fs)
	return c.programs.Insert(program), nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	if strings.TrimSpace(source) == "" {
		return 0, fmt.Errorf("empty source")
	}
	s := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(s, 1, csource, nil)
	free()
	gl.CompileShader(s)

	var status int32
	gl.GetShaderiv(s, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(s, gl.INFO_LOG_LENGTH, &logLen)
		log := infoLog(logLen, func(buf *uint8) { gl.GetShaderInfoLog(s, logLen, nil, buf) })
		gl.DeleteShader(s)
		return 0, fmt.Errorf("%s", log)
	}
	return s, nil
}

func infoLog(length int32, read func(*uint8)) string {
	if length <= 0 {
		return "no info log"
	}
	buf := make([]uint8, length)
	read(&buf[0])
	return strings.TrimRight(string(buf), "\x00\n")
}

func (c *glContext) DeleteProgram(h backend.ProgramHandle) error {
	id, ok := c.programs.Get(h)
	if !ok {
		return fmt.Errorf("opengl: delete program %s: %w", h, backend.ErrStaleHandle)
	}
	var inUse bool
	c.vertexArrays.Each(func(_ backend.VertexArrayHandle, va *glVertexArray) bool {
		inUse = va.program == h
		return !inUse
	})
	if inUse {
		return fmt.Errorf("opengl: delete program %s: %w", h, backend.ErrResourceInUse)
	}
	gl.DeleteProgram(id)
	c.programs.Remove(h)
	return nil
}

func (c *glContext) UseProgram(h backend.ProgramHandle) {
	id, _ := c.programs.Get(h)
	gl.UseProgram(id)
}

func (c *glContext) AttribLocation(h backend.ProgramHandle, name string) int32 {
	id, ok := c.programs.Get(h)
	if !ok {
		return -1
	}
	return gl.GetAttribLocation(id, gl.Str(name+"\x00"))
}

func (c *glContext) ActiveUniforms(h backend.ProgramHandle) []backend.ActiveUniform {
	id, ok := c.programs.Get(h)
	if !ok {
		return nil
	}
	var count, maxLen int32
	gl.GetProgramiv(id, gl.ACTIVE_UNIFORMS, &count)
	gl.GetProgramiv(id, gl.ACTIVE_UNIFORM_MAX_LENGTH, &maxLen)
	if maxLen < 1 {
		maxLen = 1
	}

	uniforms := make([]backend.ActiveUniform, 0, count)
	buf := make([]uint8, maxLen)
	for i := range uint32(count) {
		var length, size int32
		var typ uint32
		gl.GetActiveUniform(id, i, maxLen, &length, &size, &typ, &buf[0])
		uniforms = append(uniforms, backend.ActiveUniform{
			Name: string(buf[:length]),
			Type: backend.ParseUniformType(uniformTypeName(typ)),
			Size: int(size),
		})
	}
	return uniforms
}

func (c *glContext) UniformLocation(h backend.ProgramHandle, name string) int32 {
	id, ok := c.programs.Get(h)
	if !ok {
		return -1
	}
	return gl.GetUniformLocation(id, gl.Str(name+"\x00"))
}

func (c *glContext) CreateVertexArray(program backend.ProgramHandle) (backend.VertexArrayHandle, error) {
	if _, ok := c.programs.Get(program); !ok {
		return backend.VertexArrayHandle{}, fmt.Errorf("opengl: create vertex array: program %s: %w", program, backend.ErrStaleHandle)
	}
	var id uint32
	gl.GenVertexArrays(1, &id)
	if id == 0 {
		return backend.VertexArrayHandle{}, fmt.Errorf("opengl: glGenVertexArrays returned 0")
	}
	return c.vertexArrays.Insert(&glVertexArray{
		id:      id,
		program: program,
		buffers: make(map[backend.BufferKind]backend.BufferHandle),
	}), nil
}

func (c *glContext) BindVertexArray(h backend.VertexArrayHandle) {
	var id uint32
	if va, ok := c.vertexArrays.Get(h); ok {
		id = va.id
	}
	c.currentVertexArray = h
	gl.BindVertexArray(id)
}

func (c *glContext) DeleteVertexArray(h backend.VertexArrayHandle) error {
	va, ok := c.vertexArrays.Remove(h)
	if !ok {
		return fmt.Errorf("opengl: delete vertex array %s: %w", h, backend.ErrStaleHandle)
	}
	gl.DeleteVertexArrays(1, &va.id)
	if c.currentVertexArray == h {
		c.currentVertexArray = backend.VertexArrayHandle{}
	}
	return nil
}

func (c *glContext) BindBuffer(kind backend.BufferKind, h backend.BufferHandle) {
	var id uint32
	if b, ok := c.buffers.Get(h); ok {
		id = b.id
		if va, ok := c.vertexArrays.Get(c.currentVertexArray); ok {
			va.buffers[kind] = h
		}
	}
	gl.BindBuffer(bufferTarget(kind), id)
}

func (c *glContext) VertexAttribPointer(p backend.AttribPointer) {
	gl.EnableVertexAttribArray(p.Location)
	gl.VertexAttribPointerWithOffset(p.Location, int32(p.Components), gl.FLOAT, false, int32(p.Stride), uintptr(p.Offset))
}

func (c *glContext) Uniform1f(loc int32, v float32)          { gl.Uniform1f(loc, v) }
func (c *glContext) Uniform1i(loc int32, v int32)            { gl.Uniform1i(loc, v) }
func (c *glContext) Uniform2f(loc int32, x, y float32)       { gl.Uniform2f(loc, x, y) }
func (c *glContext) Uniform3f(loc int32, x, y, z float32)    { gl.Uniform3f(loc, x, y, z) }
func (c *glContext) Uniform4f(loc int32, x, y, z, w float32) { gl.Uniform4f(loc, x, y, z, w) }

func (c *glContext) Uniform1fv(loc int32, v []float32) {
	if len(v) > 0 {
		gl.Uniform1fv(loc, int32(len(v)), &v[0])
	}
}

func (c *glContext) Uniform3fv(loc int32, v []float32) {
	if len(v) >= 3 {
		gl.Uniform3fv(loc, int32(len(v)/3), &v[0])
	}
}

func (c *glContext) UniformMatrix3fv(loc int32, m mgl32.Mat3) {
	gl.UniformMatrix3fv(loc, 1, false, &m[0])
}

func (c *glContext) UniformMatrix4fv(loc int32, m mgl32.Mat4) {
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

func (c *glContext) ApplyRenderState(s backend.RenderState) {
	toggle(gl.DEPTH_TEST, s.DepthTest)
	gl.DepthMask(s.DepthWrite)
	gl.DepthFunc(compareFunc(s.DepthCompare))

	toggle(gl.BLEND, s.Blend)
	if s.Blend {
		b := s.BlendState
		gl.BlendFuncSeparate(blendFactor(b.Color.SrcFactor), blendFactor(b.Color.DstFactor),
			blendFactor(b.Alpha.SrcFactor), blendFactor(b.Alpha.DstFactor))
		gl.BlendEquationSeparate(blendEquation(b.Color.Operation), blendEquation(b.Alpha.Operation))
	}

	face, cull := cullFace(s.CullMode)
	toggle(gl.CULL_FACE, cull)
	if cull {
		gl.CullFace(face)
	}
	gl.FrontFace(frontFace(s.FrontFace))

	m := s.WriteMask
	gl.ColorMask(m&gputypes.ColorWriteMaskRed != 0, m&gputypes.ColorWriteMaskGreen != 0,
		m&gputypes.ColorWriteMaskBlue != 0, m&gputypes.ColorWriteMaskAlpha != 0)

	toggle(gl.POLYGON_OFFSET_FILL, s.HasDepthBias())
	if s.HasDepthBias() {
		gl.PolygonOffset(s.DepthBiasSlopeScale, s.DepthBias)
	}
}

func toggle(capability uint32, on bool) {
	if on {
		gl.Enable(capability)
	} else {
		gl.Disable(capability)
	}
}

func (c *glContext) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (c *glContext) Clear(color [4]float32) {
	gl.ClearColor(color[0], color[1], color[2], color[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (c *glContext) DrawArrays(topology gputypes.PrimitiveTopology, first, count int) {
	gl.DrawArrays(primitiveMode(topology), int32(first), int32(count))
}

func (c *glContext) DrawElements(topology gputypes.PrimitiveTopology, count int) {
	gl.DrawElements(primitiveMode(topology), int32(count), gl.UNSIGNED_INT, nil)
}

func ptr(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return gl.Ptr(data)
}
