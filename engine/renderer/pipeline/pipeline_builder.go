package pipeline

import (
	"github.com/gogpu/gputypes"
)

// PipelineBuilderOption is a functional option used to configure a RenderPipeline during construction.
// Render state is not an option: pipelines are shared by every model drawing the same mesh with the
// same program, so the renderer applies each material's state with SetState before Bind.
type PipelineBuilderOption func(*renderPipeline)

// WithTopology sets the primitive topology for this pipeline.
//
// Parameters:
//   - topology: the primitive topology (e.g., gputypes.PrimitiveTopologyTriangleList)
//
// Returns:
//   - PipelineBuilderOption: a function that sets the topology for this pipeline
func WithTopology(topology gputypes.PrimitiveTopology) PipelineBuilderOption {
	return func(p *renderPipeline) {
		p.topology = topology
	}
}

// WithBufferGeneration records the mesh buffer generation the vertex array was built against.
//
// Parameters:
//   - generation: the mesh's BufferGeneration at build time
//
// Returns:
//   - PipelineBuilderOption: a function that sets the buffer generation for this pipeline
func WithBufferGeneration(generation uint64) PipelineBuilderOption {
	return func(p *renderPipeline) {
		p.generation = generation
	}
}
