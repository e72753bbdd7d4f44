// Package pipeline holds the per-draw GPU state objects: a compiled Program and the RenderPipeline
// that binds one mesh's vertex buffers to that program's attributes.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/model"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend"
	"github.com/gogpu/gputypes"
)

// PipelineKey identifies the bound vertex state of one (mesh, program) pair.
type PipelineKey struct {
	MeshID    uint64
	ProgramID uint64
}

func (k PipelineKey) String() string {
	return fmt.Sprintf("mesh=%d/program=%d", k.MeshID, k.ProgramID)
}

// renderPipeline is the implementation of the RenderPipeline interface.
type renderPipeline struct {
	key         PipelineKey
	program     *Program
	vertexArray backend.VertexArrayHandle

	// generation is the mesh buffer generation the vertex array was built against.
	generation uint64

	state    backend.RenderState
	topology gputypes.PrimitiveTopology

	bound bool
}

// RenderPipeline pairs a program with the vertex array wiring one mesh's buffers to it, plus
// the fixed-function state applied when it is bound.
type RenderPipeline interface {
	// Key returns the (mesh, program) identity of the pipeline.
	//
	// Returns:
	//   - PipelineKey: the pipeline key
	Key() PipelineKey

	// Program returns the program the vertex array was built against.
	//
	// Returns:
	//   - *Program: the program
	Program() *Program

	// VertexArray returns the bound vertex state handle.
	//
	// Returns:
	//   - backend.VertexArrayHandle: the vertex array
	VertexArray() backend.VertexArrayHandle

	// BufferGeneration returns the mesh buffer generation the vertex array was built against.
	// A pipeline whose generation differs from the mesh's is stale.
	//
	// Returns:
	//   - uint64: the buffer generation
	BufferGeneration() uint64

	// State returns the render state applied on Bind.
	//
	// Returns:
	//   - backend.RenderState: the render state
	State() backend.RenderState

	// SetState replaces the render state applied on the next Bind.
	//
	// Parameters:
	//   - s: the render state
	SetState(s backend.RenderState)

	// Topology returns the primitive topology draws through this pipeline use.
	//
	// Returns:
	//   - gputypes.PrimitiveTopology: the topology
	Topology() gputypes.PrimitiveTopology

	// Bind activates the program, then the vertex array, then the render state. Calling Bind again
	// before Unbind does nothing.
	//
	// Parameters:
	//   - ctx: the graphics context
	Bind(ctx backend.Context)

	// Unbind reverses Bind. Calling Unbind on an unbound pipeline does nothing.
	//
	// Parameters:
	//   - ctx: the graphics context
	Unbind(ctx backend.Context)

	// Bound reports whether the pipeline is currently bound.
	//
	// Returns:
	//   - bool: true between Bind and Unbind
	Bound() bool

	// Release deletes the vertex array. The program is not released.
	//
	// Parameters:
	//   - ctx: the graphics context
	//
	// Returns:
	//   - error: backend.ErrStaleHandle if the vertex array was already deleted
	Release(ctx backend.Context) error
}

var _ RenderPipeline = &renderPipeline{}

// NewRenderPipeline wraps an existing vertex array. Use BuildVertexArray to create one.
//
// Parameters:
//   - key: the (mesh, program) identity
//   - program: the program the vertex array was built against
//   - vertexArray: the vertex array handle
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - RenderPipeline: a new unbound pipeline
func NewRenderPipeline(key PipelineKey, program *Program, vertexArray backend.VertexArrayHandle, opts ...PipelineBuilderOption) RenderPipeline {
	if program == nil {
		panic(fmt.Sprintf("pipeline: %s has no program", key))
	}
	p := &renderPipeline{
		key:         key,
		program:     program,
		vertexArray: vertexArray,
		state:       backend.DefaultRenderState(),
		topology:    gputypes.PrimitiveTopologyTriangleList,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *renderPipeline) Key() PipelineKey {
	return p.key
}

func (p *renderPipeline) Program() *Program {
	return p.program
}

func (p *renderPipeline) VertexArray() backend.VertexArrayHandle {
	return p.vertexArray
}

func (p *renderPipeline) BufferGeneration() uint64 {
	return p.generation
}

func (p *renderPipeline) State() backend.RenderState {
	return p.state
}

func (p *renderPipeline) SetState(s backend.RenderState) {
	p.state = s
}

func (p *renderPipeline) Topology() gputypes.PrimitiveTopology {
	return p.topology
}

func (p *renderPipeline) Bind(ctx backend.Context) {
	if p.bound {
		return
	}
	ctx.UseProgram(p.program.Handle())
	ctx.BindVertexArray(p.vertexArray)
	ctx.ApplyRenderState(p.state)
	p.bound = true
}

func (p *renderPipeline) Unbind(ctx backend.Context) {
	if !p.bound {
		return
	}
	ctx.BindVertexArray(backend.VertexArrayHandle{})
	ctx.UseProgram(backend.ProgramHandle{})
	p.bound = false
}

func (p *renderPipeline) Bound() bool {
	return p.bound
}

func (p *renderPipeline) Release(ctx backend.Context) error {
	p.bound = false
	if err := ctx.DeleteVertexArray(p.vertexArray); err != nil {
		return fmt.Errorf("release pipeline %s: %w", p.key, err)
	}
	return nil
}

// BuildVertexArray creates a vertex array for program, binds the vertex and index buffers and
// points every layout attribute the program consumes at its offset in the interleaved buffer.
// Attributes the program does not consume are skipped with a diagnostic. The vertex array is
// left unbound.
//
// Parameters:
//   - ctx: the graphics context
//   - program: the program whose attribute locations are queried
//   - layout: the interleaved layout of the vertex buffer
//   - vertex: the vertex buffer
//   - index: the index buffer, or the zero handle for non-indexed meshes
//
// Returns:
//   - backend.VertexArrayHandle: the new vertex array
//   - error: an error if the vertex array could not be created
func BuildVertexArray(ctx backend.Context, program *Program, layout model.VertexLayout, vertex, index backend.BufferHandle) (backend.VertexArrayHandle, error) {
	vao, err := ctx.CreateVertexArray(program.Handle())
	if err != nil {
		return backend.VertexArrayHandle{}, fmt.Errorf("build vertex array for %s: %w", program.Key(), err)
	}
	ctx.BindVertexArray(vao)
	ctx.BindBuffer(backend.BufferVertex, vertex)
	if index.Valid() {
		ctx.BindBuffer(backend.BufferIndex, index)
	}
	for _, attr := range layout.Attributes {
		loc := program.AttribLocation(string(attr.Name))
		if loc < 0 {
			common.Logger().Debug("attribute not consumed by program",
				slog.String("attribute", string(attr.Name)),
				slog.String("key", program.Key()))
			continue
		}
		ctx.VertexAttribPointer(backend.AttribPointer{
			Location:   uint32(loc),
			Components: attr.Components(),
			Stride:     layout.ArrayStride,
			Offset:     attr.Offset,
		})
	}
	ctx.BindVertexArray(backend.VertexArrayHandle{})
	return vao, nil
}
