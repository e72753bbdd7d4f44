package pipeline

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/uniforms"
)

var nextProgramID atomic.Uint64

// Program is a compiled and linked shader variant together with its reflected uniforms. A
// Program is immutable after creation and owned by whoever compiled it; it is released exactly once.
type Program struct {
	id        uint64
	handle    backend.ProgramHandle
	variant   *shader.ShaderVariants
	uniforms  []backend.ActiveUniform
	reflector *uniforms.Reflector
	ctx       backend.Context
	attribs   map[string]int32
}

// NewProgram compiles variant on ctx and builds its uniform reflector.
//
// Parameters:
//   - ctx: the graphics context
//   - variant: a processed variant returned by shader.Registry.GetVariant
//
// Returns:
//   - *Program: the compiled program with a fresh ID
//   - error: backend.ErrCompileFailed or backend.ErrLinkFailed wrapping the info log
func NewProgram(ctx backend.Context, variant *shader.ShaderVariants) (*Program, error) {
	if variant == nil {
		panic("pipeline: NewProgram requires a variant")
	}
	src := backend.ProgramSource{Label: variant.Key}
	if variant.Dialect == shader.DialectWGSL {
		src.WGSL = variant.VertexSource()
	} else {
		src.Vertex = variant.VertexSource()
		src.Fragment = variant.FragmentSource()
	}
	h, err := ctx.CompileProgram(src)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", variant.Key, err)
	}
	return &Program{
		id:        nextProgramID.Add(1),
		handle:    h,
		variant:   variant,
		uniforms:  ctx.ActiveUniforms(h),
		reflector: uniforms.NewReflector(ctx, h),
		ctx:       ctx,
		attribs:   make(map[string]int32),
	}, nil
}

// ID returns the program's stable identity. IDs are never reused within a process.
func (p *Program) ID() uint64 {
	return p.id
}

func (p *Program) Handle() backend.ProgramHandle {
	return p.handle
}

func (p *Program) ShaderName() string {
	return p.variant.Name
}

// Key returns the variant key the program was compiled from.
func (p *Program) Key() string {
	return p.variant.Key
}

func (p *Program) Variant() *shader.ShaderVariants {
	return p.variant
}

// Uniforms returns the active uniforms captured at link time.
func (p *Program) Uniforms() []backend.ActiveUniform {
	return slices.Clone(p.uniforms)
}

func (p *Program) Reflector() *uniforms.Reflector {
	return p.reflector
}

// AttribLocation returns the location of a vertex attribute, or -1 when the program does not
// consume it. Lookups are cached per name.
func (p *Program) AttribLocation(name string) int32 {
	if loc, ok := p.attribs[name]; ok {
		return loc
	}
	loc := p.ctx.AttribLocation(p.handle, name)
	p.attribs[name] = loc
	return loc
}

// Release deletes the GPU program. Vertex arrays built against it must be released first.
//
// Parameters:
//   - ctx: the context that compiled the program
//
// Returns:
//   - error: backend.ErrResourceInUse or backend.ErrStaleHandle
func (p *Program) Release(ctx backend.Context) error {
	if err := ctx.DeleteProgram(p.handle); err != nil {
		return fmt.Errorf("release program %s: %w", p.Key(), err)
	}
	return nil
}
