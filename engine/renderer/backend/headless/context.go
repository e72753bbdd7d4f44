// package headless provides a backend.Context that performs no graphics calls. It records every
// call it receives, tracks resource lifetimes through generation-checked arenas and compiles
// shader sources with enough fidelity to catch the mistakes a driver would reject. Tests and
// offline tools use it in place of a window-bound OpenGL context.
package headless

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
)

// Call is one recorded context call.
type Call struct {
	Name string
	Args []any
}

func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = fmt.Sprint(a)
	}
	return c.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Context is a recording backend.Context with inspection helpers.
type Context interface {
	backend.Context

	// Calls returns a copy of the recorded calls in issue order.
	Calls() []Call

	// Ops returns the names of the recorded calls in issue order.
	Ops() []string

	// ResetCalls clears the call log without touching resources.
	ResetCalls()

	// LiveBuffers returns the number of undeleted buffers.
	LiveBuffers() int

	// LiveTextures returns the number of undeleted textures.
	LiveTextures() int

	// LivePrograms returns the number of undeleted programs.
	LivePrograms() int

	// LiveVertexArrays returns the number of undeleted vertex arrays.
	LiveVertexArrays() int

	// CurrentProgram returns the program most recently passed to UseProgram.
	CurrentProgram() backend.ProgramHandle

	// CurrentVertexArray returns the vertex array most recently bound.
	CurrentVertexArray() backend.VertexArrayHandle

	// CurrentRenderState returns the state most recently applied.
	CurrentRenderState() backend.RenderState

	// UniformValue returns the last value written to loc of program.
	UniformValue(program backend.ProgramHandle, loc int32) (any, bool)

	// BufferData returns the current contents of a buffer.
	BufferData(h backend.BufferHandle) ([]byte, bool)

	// TextureImage returns the last image uploaded to a texture.
	TextureImage(h backend.TextureHandle) (common.ImageData, bool)

	// VertexArrayAttribs returns the attribute pointers recorded on a vertex array.
	VertexArrayAttribs(h backend.VertexArrayHandle) []backend.AttribPointer
}

type buffer struct {
	kind backend.BufferKind
	data []byte
}

type texture struct {
	desc  backend.TextureDescriptor
	image common.ImageData
}

type program struct {
	label    string
	uniforms []backend.ActiveUniform
	// locations maps a uniform base name to the location of its first element.
	locations map[string]int32
	sizes     map[string]int
	attribs   map[string]int32
	values    map[int32]any
}

type vertexArray struct {
	program backend.ProgramHandle
	buffers map[backend.BufferKind]backend.BufferHandle
	attribs []backend.AttribPointer
}

type headlessContext struct {
	dialect         shader.Dialect
	maxTextureUnits int
	compileHook     func(backend.ProgramSource) error

	calls []Call

	buffers      backend.BufferArena[*buffer]
	textures     backend.TextureArena[*texture]
	programs     backend.ProgramArena[*program]
	vertexArrays backend.VertexArrayArena[*vertexArray]

	currentProgram     backend.ProgramHandle
	currentVertexArray backend.VertexArrayHandle
	activeUnit         int
	boundTextures      map[int]backend.TextureHandle
	renderState        backend.RenderState
}

var _ Context = &headlessContext{}

func (c *headlessContext) record(name string, args ...any) {
	c.calls = append(c.calls, Call{Name: name, Args: args})
}

func (c *headlessContext) Type() backend.Type {
	return backend.TypeHeadless
}

func (c *headlessContext) Dialect() shader.Dialect {
	return c.dialect
}

func (c *headlessContext) CreateBuffer(kind backend.BufferKind, data []byte) (backend.BufferHandle, error) {
	h := c.buffers.Insert(&buffer{kind: kind, data: append([]byte(nil), data...)})
	c.record("CreateBuffer", kind, len(data))
	return h, nil
}

func (c *headlessContext) WriteBuffer(h backend.BufferHandle, offset int, data []byte) error {
	b, ok := c.buffers.Get(h)
	if !ok {
		return fmt.Errorf("write buffer %s: %w", h, backend.ErrStaleHandle)
	}
	if offset < 0 {
		return fmt.Errorf("write buffer %s: negative offset %d", h, offset)
	}
	if end := offset + len(data); end > len(b.data) {
		grown := make([]byte, end)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[offset:], data)
	c.record("WriteBuffer", h, offset, len(data))
	return nil
}

func (c *headlessContext) DeleteBuffer(h backend.BufferHandle) error {
	if _, ok := c.buffers.Get(h); !ok {
		return fmt.Errorf("delete buffer %s: %w", h, backend.ErrStaleHandle)
	}
	inUse := false
	c.vertexArrays.Each(func(_ backend.VertexArrayHandle, va *vertexArray) bool {
		for _, b := range va.buffers {
			if b == h {
				inUse = true
				return false
			}
		}
		return true
	})
	if inUse {
		return fmt.Errorf("delete buffer %s: %w", h, backend.ErrResourceInUse)
	}
	c.buffers.Remove(h)
	c.record("DeleteBuffer", h)
	return nil
}

func (c *headlessContext) CreateTexture(desc backend.TextureDescriptor) (backend.TextureHandle, error) {
	if desc.Width < 0 || desc.Height < 0 {
		return backend.TextureHandle{}, fmt.Errorf("create texture %q: negative size %dx%d", desc.Label, desc.Width, desc.Height)
	}
	h := c.textures.Insert(&texture{desc: desc})
	c.record("CreateTexture", desc.Label, desc.Width, desc.Height)
	return h, nil
}

func (c *headlessContext) WriteTexture(h backend.TextureHandle, img common.ImageData) error {
	t, ok := c.textures.Get(h)
	if !ok {
		return fmt.Errorf("write texture %s: %w", h, backend.ErrStaleHandle)
	}
	if len(img.Pixels) != img.Width*img.Height*4 {
		return fmt.Errorf("write texture %s: %d bytes for %dx%d RGBA image", h, len(img.Pixels), img.Width, img.Height)
	}
	t.image = common.ImageData{Pixels: append([]byte(nil), img.Pixels...), Width: img.Width, Height: img.Height}
	t.desc.Width, t.desc.Height = img.Width, img.Height
	c.record("WriteTexture", h, img.Width, img.Height)
	return nil
}

func (c *headlessContext) DeleteTexture(h backend.TextureHandle) error {
	if _, ok := c.textures.Remove(h); !ok {
		return fmt.Errorf("delete texture %s: %w", h, backend.ErrStaleHandle)
	}
	for unit, bound := range c.boundTextures {
		if bound == h {
			delete(c.boundTextures, unit)
		}
	}
	c.record("DeleteTexture", h)
	return nil
}

func (c *headlessContext) ActiveTexture(unit int) {
	c.activeUnit = unit
	c.record("ActiveTexture", unit)
}

func (c *headlessContext) BindTexture(h backend.TextureHandle) {
	if c.boundTextures == nil {
		c.boundTextures = make(map[int]backend.TextureHandle)
	}
	c.boundTextures[c.activeUnit] = h
	c.record("BindTexture", h)
}

func (c *headlessContext) MaxTextureUnits() int {
	return c.maxTextureUnits
}

func (c *headlessContext) CompileProgram(src backend.ProgramSource) (backend.ProgramHandle, error) {
	c.record("CompileProgram", src.Label)
	if c.compileHook != nil {
		if err := c.compileHook(src); err != nil {
			return backend.ProgramHandle{}, err
		}
	}

	var (
		p   *program
		err error
	)
	if c.dialect == shader.DialectWGSL {
		p, err = compileWGSL(src)
	} else {
		p, err = compileGLSL(src)
	}
	if err != nil {
		return backend.ProgramHandle{}, err
	}
	p.label = src.Label
	return c.programs.Insert(p), nil
}

func compileGLSL(src backend.ProgramSource) (*program, error) {
	if strings.TrimSpace(src.Vertex) == "" || strings.TrimSpace(src.Fragment) == "" {
		return nil, fmt.Errorf("%w: %s: program needs a vertex and a fragment stage", backend.ErrLinkFailed, src.Label)
	}
	vs, err := compileStage(src.Vertex, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (vertex): %v", backend.ErrCompileFailed, src.Label, err)
	}
	fs, err := compileStage(src.Fragment, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (fragment): %v", backend.ErrCompileFailed, src.Label, err)
	}

	inputs := make([]string, 0, len(fs.inputs))
	for name := range fs.inputs {
		inputs = append(inputs, name)
	}
	sort.Strings(inputs)
	for _, name := range inputs {
		typ, ok := vs.outputs[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s: fragment input %q is not written by the vertex stage", backend.ErrLinkFailed, src.Label, name)
		}
		if typ != fs.inputs[name] {
			return nil, fmt.Errorf("%w: %s: %q declared %s in vertex and %s in fragment", backend.ErrLinkFailed, src.Label, name, typ, fs.inputs[name])
		}
	}

	p := newProgram()
	seen := map[string]uniformDeclaration{}
	var next int32
	for _, u := range append(append([]uniformDeclaration(nil), vs.uniforms...), fs.uniforms...) {
		if prev, ok := seen[u.name]; ok {
			if prev.typ != u.typ || prev.size != u.size {
				return nil, fmt.Errorf("%w: %s: uniform %q declared with conflicting types", backend.ErrLinkFailed, src.Label, u.name)
			}
			continue
		}
		seen[u.name] = u
		name := u.name
		if u.isArray {
			name += "[0]"
		}
		p.uniforms = append(p.uniforms, backend.ActiveUniform{Name: name, Type: backend.ParseUniformType(u.typ), Size: u.size})
		p.locations[u.name] = next
		p.sizes[u.name] = u.size
		next += int32(u.size)
	}
	for _, a := range vs.attributes {
		p.attribs[a.name] = a.location
	}
	return p, nil
}

func compileWGSL(src backend.ProgramSource) (*program, error) {
	refl, err := shader.ReflectWGSL(src.WGSL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", backend.ErrCompileFailed, src.Label, err)
	}
	if _, ok := refl.EntryPoint(shader.StageVertex); !ok {
		return nil, fmt.Errorf("%w: %s: no vertex entry point", backend.ErrLinkFailed, src.Label)
	}
	if _, ok := refl.EntryPoint(shader.StageFragment); !ok {
		return nil, fmt.Errorf("%w: %s: no fragment entry point", backend.ErrLinkFailed, src.Label)
	}

	p := newProgram()
	var next int32
	add := func(name string, typ backend.UniformType, size int) {
		if _, ok := p.locations[name]; ok {
			return
		}
		reported := name
		if size > 1 {
			reported += "[0]"
		}
		p.uniforms = append(p.uniforms, backend.ActiveUniform{Name: reported, Type: typ, Size: size})
		p.locations[name] = next
		p.sizes[name] = size
		next += int32(size)
	}
	for _, f := range refl.Uniforms {
		add(f.Name, backend.ParseUniformType(f.Type), max(f.Count, 1))
	}
	for _, b := range refl.Bindings {
		if b.Kind == shader.BindingTexture {
			add(b.Name, backend.ParseUniformType(b.Type), 1)
		}
	}
	for _, in := range refl.VertexInputs {
		p.attribs[in.Name] = int32(in.Location)
	}
	return p, nil
}

func newProgram() *program {
	return &program{
		locations: make(map[string]int32),
		sizes:     make(map[string]int),
		attribs:   make(map[string]int32),
		values:    make(map[int32]any),
	}
}

func (c *headlessContext) DeleteProgram(h backend.ProgramHandle) error {
	if _, ok := c.programs.Get(h); !ok {
		return fmt.Errorf("delete program %s: %w", h, backend.ErrStaleHandle)
	}
	inUse := false
	c.vertexArrays.Each(func(_ backend.VertexArrayHandle, va *vertexArray) bool {
		inUse = va.program == h
		return !inUse
	})
	if inUse {
		return fmt.Errorf("delete program %s: %w", h, backend.ErrResourceInUse)
	}
	c.programs.Remove(h)
	if c.currentProgram == h {
		c.currentProgram = backend.ProgramHandle{}
	}
	c.record("DeleteProgram", h)
	return nil
}

func (c *headlessContext) UseProgram(h backend.ProgramHandle) {
	c.currentProgram = h
	c.record("UseProgram", h)
}

func (c *headlessContext) AttribLocation(h backend.ProgramHandle, name string) int32 {
	p, ok := c.programs.Get(h)
	if !ok {
		return -1
	}
	if loc, ok := p.attribs[name]; ok {
		return loc
	}
	return -1
}

func (c *headlessContext) ActiveUniforms(h backend.ProgramHandle) []backend.ActiveUniform {
	p, ok := c.programs.Get(h)
	if !ok {
		return nil
	}
	return append([]backend.ActiveUniform(nil), p.uniforms...)
}

// UniformLocation accepts "name", "name[0]" and "name[i]" for array uniforms.
func (c *headlessContext) UniformLocation(h backend.ProgramHandle, name string) int32 {
	p, ok := c.programs.Get(h)
	if !ok {
		return -1
	}
	base, index := name, 0
	if open := strings.IndexByte(name, '['); open > 0 && strings.HasSuffix(name, "]") {
		n, err := strconv.Atoi(name[open+1 : len(name)-1])
		if err != nil || n < 0 {
			return -1
		}
		base, index = name[:open], n
	}
	loc, ok := p.locations[base]
	if !ok || index >= p.sizes[base] {
		return -1
	}
	return loc + int32(index)
}

func (c *headlessContext) CreateVertexArray(prog backend.ProgramHandle) (backend.VertexArrayHandle, error) {
	if _, ok := c.programs.Get(prog); !ok {
		return backend.VertexArrayHandle{}, fmt.Errorf("create vertex array: program %s: %w", prog, backend.ErrStaleHandle)
	}
	h := c.vertexArrays.Insert(&vertexArray{program: prog, buffers: make(map[backend.BufferKind]backend.BufferHandle)})
	c.record("CreateVertexArray", prog)
	return h, nil
}

func (c *headlessContext) BindVertexArray(h backend.VertexArrayHandle) {
	c.currentVertexArray = h
	c.record("BindVertexArray", h)
}

func (c *headlessContext) DeleteVertexArray(h backend.VertexArrayHandle) error {
	if _, ok := c.vertexArrays.Remove(h); !ok {
		return fmt.Errorf("delete vertex array %s: %w", h, backend.ErrStaleHandle)
	}
	if c.currentVertexArray == h {
		c.currentVertexArray = backend.VertexArrayHandle{}
	}
	c.record("DeleteVertexArray", h)
	return nil
}

func (c *headlessContext) BindBuffer(kind backend.BufferKind, h backend.BufferHandle) {
	if va, ok := c.vertexArrays.Get(c.currentVertexArray); ok && h.Valid() {
		va.buffers[kind] = h
	}
	c.record("BindBuffer", kind, h)
}

func (c *headlessContext) VertexAttribPointer(p backend.AttribPointer) {
	if va, ok := c.vertexArrays.Get(c.currentVertexArray); ok {
		va.attribs = append(va.attribs, p)
	}
	c.record("VertexAttribPointer", p.Location, p.Components, p.Stride, p.Offset)
}

// setUniform stores v on the current program. Location -1 is silently ignored, as in GL.
func (c *headlessContext) setUniform(name string, loc int32, v any) {
	c.record(name, loc, v)
	if loc < 0 {
		return
	}
	if p, ok := c.programs.Get(c.currentProgram); ok {
		p.values[loc] = v
	}
}

func (c *headlessContext) Uniform1f(loc int32, v float32) { c.setUniform("Uniform1f", loc, v) }
func (c *headlessContext) Uniform1i(loc int32, v int32)   { c.setUniform("Uniform1i", loc, v) }

func (c *headlessContext) Uniform2f(loc int32, x, y float32) {
	c.setUniform("Uniform2f", loc, mgl32.Vec2{x, y})
}

func (c *headlessContext) Uniform3f(loc int32, x, y, z float32) {
	c.setUniform("Uniform3f", loc, mgl32.Vec3{x, y, z})
}

func (c *headlessContext) Uniform4f(loc int32, x, y, z, w float32) {
	c.setUniform("Uniform4f", loc, mgl32.Vec4{x, y, z, w})
}

func (c *headlessContext) Uniform1fv(loc int32, v []float32) {
	c.setUniform("Uniform1fv", loc, append([]float32(nil), v...))
}

func (c *headlessContext) Uniform3fv(loc int32, v []float32) {
	c.setUniform("Uniform3fv", loc, append([]float32(nil), v...))
}

func (c *headlessContext) UniformMatrix3fv(loc int32, m mgl32.Mat3) {
	c.setUniform("UniformMatrix3fv", loc, m)
}

func (c *headlessContext) UniformMatrix4fv(loc int32, m mgl32.Mat4) {
	c.setUniform("UniformMatrix4fv", loc, m)
}

func (c *headlessContext) ApplyRenderState(s backend.RenderState) {
	c.renderState = s
	c.record("ApplyRenderState", s.Key())
}

func (c *headlessContext) Viewport(x, y, width, height int) {
	c.record("Viewport", x, y, width, height)
}

func (c *headlessContext) Clear(color [4]float32) {
	c.record("Clear", color)
}

func (c *headlessContext) DrawArrays(topology gputypes.PrimitiveTopology, first, count int) {
	c.record("DrawArrays", topology, first, count)
}

func (c *headlessContext) DrawElements(topology gputypes.PrimitiveTopology, count int) {
	c.record("DrawElements", topology, count)
}

func (c *headlessContext) Calls() []Call {
	return append([]Call(nil), c.calls...)
}

func (c *headlessContext) Ops() []string {
	ops := make([]string, len(c.calls))
	for i, call := range c.calls {
		ops[i] = call.Name
	}
	return ops
}

func (c *headlessContext) ResetCalls() {
	c.calls = c.calls[:0]
}

func (c *headlessContext) LiveBuffers() int      { return c.buffers.Len() }
func (c *headlessContext) LiveTextures() int     { return c.textures.Len() }
func (c *headlessContext) LivePrograms() int     { return c.programs.Len() }
func (c *headlessContext) LiveVertexArrays() int { return c.vertexArrays.Len() }

func (c *headlessContext) CurrentProgram() backend.ProgramHandle {
	return c.currentProgram
}

func (c *headlessContext) CurrentVertexArray() backend.VertexArrayHandle {
	return c.currentVertexArray
}

func (c *headlessContext) CurrentRenderState() backend.RenderState {
	return c.renderState
}

func (c *headlessContext) UniformValue(h backend.ProgramHandle, loc int32) (any, bool) {
	p, ok := c.programs.Get(h)
	if !ok {
		return nil, false
	}
	v, ok := p.values[loc]
	return v, ok
}

func (c *headlessContext) BufferData(h backend.BufferHandle) ([]byte, bool) {
	b, ok := c.buffers.Get(h)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b.data...), true
}

func (c *headlessContext) TextureImage(h backend.TextureHandle) (common.ImageData, bool) {
	t, ok := c.textures.Get(h)
	if !ok {
		return common.ImageData{}, false
	}
	return t.image, true
}

func (c *headlessContext) VertexArrayAttribs(h backend.VertexArrayHandle) []backend.AttribPointer {
	va, ok := c.vertexArrays.Get(h)
	if !ok {
		return nil
	}
	return append([]backend.AttribPointer(nil), va.attribs...)
}
