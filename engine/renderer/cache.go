package renderer

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/model"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
)

var (
	// ErrEmptyMesh is returned when a mesh without positions is uploaded or drawn.
	ErrEmptyMesh = errors.New("renderer: mesh has no positions")

	// ErrNilProgram is returned when a pipeline is requested without a program.
	ErrNilProgram = errors.New("renderer: nil program")
)

// CacheStats is a snapshot of resource cache counters.
type CacheStats struct {
	Programs  int
	Pipelines int
	Meshes    int
	Textures  int

	ProgramHits     uint64
	ProgramMisses   uint64
	PipelineHits    uint64
	PipelineMisses  uint64
	CompileFailures uint64
	VariantFailures uint64
	MeshUploads     uint64
	MeshRewrites    uint64
}

// meshEntry records the buffers the cache created for one mesh.
type meshEntry struct {
	mesh    model.Mesh
	layout  model.VertexLayout
	indexed bool
}

// resourceCache is the implementation of the ResourceCache interface.
type resourceCache struct {
	ctx      backend.Context
	registry shader.Registry

	// requests maps DeriveKey(name, caller defines) to the program compiled for it.
	requests map[string]*pipeline.Program

	// programs maps merged variant keys to compiled programs. Each program appears once.
	programs map[string]*pipeline.Program

	// generations records the registry generation each cached shader was compiled from.
	generations map[string]uint64

	pipelines map[pipeline.PipelineKey]pipeline.RenderPipeline
	meshes    map[uint64]*meshEntry
	textures  map[*material.Texture]struct{}

	stats CacheStats
}

// ResourceCache owns every GPU resource a renderer creates: compiled programs keyed by shader
// name and defines, bound vertex state keyed by mesh and program identity, mesh buffers and
// textures. Callers receive non-owning references and must never release them directly.
//
// A ResourceCache is not safe for concurrent use; all calls happen on the thread that owns the
// graphics context.
type ResourceCache interface {
	// Program returns the compiled program for a shader name and define set, compiling it on a miss.
	// A failed compile is not stored, so a corrected registration is picked up by the next request.
	// Programs compiled from an earlier registration of the shader are released first, so a
	// shader that was unregistered or registered again is never served from the cache.
	//
	// Parameters:
	//   - shaderName: the registered shader name
	//   - defines: the caller defines, merged over the shader's defaults
	//
	// Returns:
	//   - *pipeline.Program: the compiled program
	//   - error: shader.ErrShaderNotFound, a pre-processing error or a compile/link error
	Program(shaderName string, defines shader.DefineMap) (*pipeline.Program, error)

	// Pipeline returns the bound vertex state for a mesh and program, uploading the mesh and
	// building the vertex array on a miss. State built against older mesh buffers is rebuilt.
	//
	// Parameters:
	//   - mesh: the mesh to draw
	//   - program: a program returned by Program
	//
	// Returns:
	//   - pipeline.RenderPipeline: the render pipeline
	//   - error: ErrEmptyMesh, ErrNilProgram or a backend error
	Pipeline(mesh model.Mesh, program *pipeline.Program) (pipeline.RenderPipeline, error)

	// EnsureMesh uploads the mesh's interleaved vertex buffer and index buffer when they are
	// missing or stale. Data changes that keep the layout are written in place; layout changes
	// recreate the buffers and drop the mesh's pipelines.
	//
	// Parameters:
	//   - mesh: the mesh to upload
	//
	// Returns:
	//   - error: ErrEmptyMesh or a backend error
	EnsureMesh(mesh model.Mesh) error

	// EnsureTexture uploads a dirty texture and takes ownership of its GPU storage.
	//
	// Parameters:
	//   - tex: the texture; nil is a no-op
	//
	// Returns:
	//   - error: a backend error
	EnsureTexture(tex *material.Texture) error

	// ReleaseMesh releases the mesh's pipelines and buffers. The mesh re-uploads on its next draw.
	//
	// Parameters:
	//   - mesh: the mesh to release
	//
	// Returns:
	//   - error: the joined release errors
	ReleaseMesh(mesh model.Mesh) error

	// InvalidateShader releases every program compiled from the named shader along with the
	// pipelines built on them. The next request recompiles from the registry.
	//
	// Parameters:
	//   - name: the shader name
	//
	// Returns:
	//   - int: the number of programs released
	InvalidateShader(name string) int

	// Stats returns a snapshot of the cache counters.
	Stats() CacheStats

	// Release destroys every cached resource exactly once: pipelines, then programs, then
	// textures, then buffers. Calling Release again is a no-op.
	//
	// Returns:
	//   - error: the joined release errors
	Release() error
}

var _ ResourceCache = &resourceCache{}

// NewResourceCache creates an empty ResourceCache that compiles variants of registry on ctx.
//
// Parameters:
//   - ctx: the graphics context
//   - registry: the shader registry variants are resolved from
//
// Returns:
//   - ResourceCache: the new cache
func NewResourceCache(ctx backend.Context, registry shader.Registry) ResourceCache {
	if ctx == nil || registry == nil {
		panic("renderer: NewResourceCache requires a context and a registry")
	}
	return &resourceCache{
		ctx:       ctx,
		registry:  registry,
		requests:  make(map[string]*pipeline.Program),
		programs:    make(map[string]*pipeline.Program),
		generations: make(map[string]uint64),
		pipelines: make(map[pipeline.PipelineKey]pipeline.RenderPipeline),
		meshes:    make(map[uint64]*meshEntry),
		textures:  make(map[*material.Texture]struct{}),
	}
}

func (c *resourceCache) Program(shaderName string, defines shader.DefineMap) (*pipeline.Program, error) {
	gen := c.registry.Generation(shaderName)
	if seen, ok := c.generations[shaderName]; ok && seen != gen {
		common.Logger().Debug("shader registration changed, dropping programs", slog.String("shader", shaderName))
		c.InvalidateShader(shaderName)
	}

	key := shader.DeriveKey(shaderName, defines)
	if prog, ok := c.requests[key]; ok {
		c.stats.ProgramHits++
		return prog, nil
	}
	c.stats.ProgramMisses++

	variant, err := c.registry.GetVariant(shaderName, c.ctx.Dialect(), shader.WithDefines(defines))
	if err != nil {
		c.stats.VariantFailures++
		common.Logger().Warn("shader variant unavailable", slog.String("shader", shaderName), slog.String("key", key), slog.Any("error", err))
		return nil, err
	}

	// Distinct caller defines can merge into the same variant; share its program.
	if prog, ok := c.programs[variant.Key]; ok {
		c.requests[key] = prog
		c.generations[shaderName] = gen
		return prog, nil
	}

	prog, err := pipeline.NewProgram(c.ctx, variant)
	if err != nil {
		c.stats.CompileFailures++
		common.Logger().Warn("program compile failed", slog.String("shader", shaderName), slog.String("key", variant.Key), slog.Any("error", err))
		return nil, err
	}
	c.programs[variant.Key] = prog
	c.requests[key] = prog
	c.generations[shaderName] = gen
	common.Logger().Info("program compiled",
		slog.String("shader", shaderName),
		slog.String("key", variant.Key),
		slog.Uint64("program", prog.ID()))
	return prog, nil
}

func (c *resourceCache) Pipeline(mesh model.Mesh, program *pipeline.Program) (pipeline.RenderPipeline, error) {
	if program == nil {
		return nil, ErrNilProgram
	}
	if err := c.EnsureMesh(mesh); err != nil {
		return nil, err
	}

	key := pipeline.PipelineKey{MeshID: mesh.ID(), ProgramID: program.ID()}
	if p, ok := c.pipelines[key]; ok {
		if p.BufferGeneration() == mesh.BufferGeneration() {
			c.stats.PipelineHits++
			return p, nil
		}
		common.Logger().Debug("pipeline stale, rebuilding", slog.String("pipeline", key.String()))
		delete(c.pipelines, key)
		if err := p.Release(c.ctx); err != nil {
			return nil, err
		}
	}
	c.stats.PipelineMisses++

	entry := c.meshes[mesh.ID()]
	vertex, index := mesh.Buffers()
	vao, err := pipeline.BuildVertexArray(c.ctx, program, entry.layout, vertex, index)
	if err != nil {
		return nil, err
	}
	p := pipeline.NewRenderPipeline(key, program, vao,
		pipeline.WithTopology(mesh.Primitive()),
		pipeline.WithBufferGeneration(mesh.BufferGeneration()),
	)
	c.pipelines[key] = p
	common.Logger().Debug("pipeline built", slog.String("pipeline", key.String()), slog.String("mesh", mesh.Name()))
	return p, nil
}

func (c *resourceCache) EnsureMesh(mesh model.Mesh) error {
	if mesh == nil || mesh.VertexCount() == 0 {
		return ErrEmptyMesh
	}
	entry, owned := c.meshes[mesh.ID()]
	if owned && mesh.Uploaded() && !mesh.NeedsUpdate() {
		return nil
	}

	layout := model.BuildVertexLayout(mesh)
	data := common.SliceToBytes(model.BuildInterleavedBuffer(mesh, layout))
	indexed := mesh.IndexCount() > 0

	if owned && mesh.Uploaded() {
		if entry.layout.Key() == layout.Key() && entry.indexed == indexed {
			vertex, index := mesh.Buffers()
			if err := c.ctx.WriteBuffer(vertex, 0, data); err != nil {
				return fmt.Errorf("rewrite mesh %d: %w", mesh.ID(), err)
			}
			if indexed {
				if err := c.ctx.WriteBuffer(index, 0, common.SliceToBytes(mesh.Indices())); err != nil {
					return fmt.Errorf("rewrite mesh %d indices: %w", mesh.ID(), err)
				}
			}
			mesh.MarkUpdated()
			c.stats.MeshRewrites++
			return nil
		}
		if err := c.ReleaseMesh(mesh); err != nil {
			return err
		}
	}

	vertex, err := c.ctx.CreateBuffer(backend.BufferVertex, data)
	if err != nil {
		return fmt.Errorf("upload mesh %d: %w", mesh.ID(), err)
	}
	var index backend.BufferHandle
	if indexed {
		index, err = c.ctx.CreateBuffer(backend.BufferIndex, common.SliceToBytes(mesh.Indices()))
		if err != nil {
			return errors.Join(fmt.Errorf("upload mesh %d indices: %w", mesh.ID(), err), c.ctx.DeleteBuffer(vertex))
		}
	}
	mesh.SetBuffers(vertex, index)
	c.meshes[mesh.ID()] = &meshEntry{mesh: mesh, layout: layout, indexed: indexed}
	c.stats.MeshUploads++
	common.Logger().Debug("mesh uploaded",
		slog.Uint64("mesh", mesh.ID()),
		slog.String("layout", layout.Key()),
		slog.Int("vertices", mesh.VertexCount()))
	return nil
}

func (c *resourceCache) EnsureTexture(tex *material.Texture) error {
	if tex == nil {
		return nil
	}
	if tex.Dirty() {
		if err := tex.Upload(c.ctx); err != nil {
			return err
		}
	}
	c.textures[tex] = struct{}{}
	return nil
}

func (c *resourceCache) ReleaseMesh(mesh model.Mesh) error {
	entry, ok := c.meshes[mesh.ID()]
	if !ok {
		return nil
	}
	errs := c.releasePipelines(func(k pipeline.PipelineKey) bool { return k.MeshID == mesh.ID() })
	errs = append(errs, c.releaseBuffers(entry)...)
	delete(c.meshes, mesh.ID())
	return errors.Join(errs...)
}

func (c *resourceCache) releaseBuffers(entry *meshEntry) []error {
	var errs []error
	vertex, index := entry.mesh.Buffers()
	if vertex.Valid() {
		errs = append(errs, c.ctx.DeleteBuffer(vertex))
	}
	if index.Valid() {
		errs = append(errs, c.ctx.DeleteBuffer(index))
	}
	entry.mesh.ClearBuffers()
	return errs
}

// releasePipelines releases the pipelines whose key matches, in key order.
func (c *resourceCache) releasePipelines(match func(pipeline.PipelineKey) bool) []error {
	keys := make([]pipeline.PipelineKey, 0, len(c.pipelines))
	for k := range c.pipelines {
		if match(k) {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(a, b pipeline.PipelineKey) int {
		return cmp.Or(cmp.Compare(a.MeshID, b.MeshID), cmp.Compare(a.ProgramID, b.ProgramID))
	})
	var errs []error
	for _, k := range keys {
		errs = append(errs, c.pipelines[k].Release(c.ctx))
		delete(c.pipelines, k)
	}
	return errs
}

// releasePrograms releases the matching programs in ID order along with their pipelines.
func (c *resourceCache) releasePrograms(match func(*pipeline.Program) bool) (int, []error) {
	var doomed []*pipeline.Program
	for key, prog := range c.programs {
		if match(prog) {
			doomed = append(doomed, prog)
			delete(c.programs, key)
		}
	}
	for key, prog := range c.requests {
		if match(prog) {
			delete(c.requests, key)
		}
	}
	slices.SortFunc(doomed, func(a, b *pipeline.Program) int { return cmp.Compare(a.ID(), b.ID()) })

	ids := make(map[uint64]bool, len(doomed))
	for _, prog := range doomed {
		ids[prog.ID()] = true
	}
	errs := c.releasePipelines(func(k pipeline.PipelineKey) bool { return ids[k.ProgramID] })
	for _, prog := range doomed {
		errs = append(errs, prog.Release(c.ctx))
	}
	return len(doomed), errs
}

func (c *resourceCache) InvalidateShader(name string) int {
	delete(c.generations, name)
	n, errs := c.releasePrograms(func(p *pipeline.Program) bool { return p.ShaderName() == name })
	if err := errors.Join(errs...); err != nil {
		common.Logger().Warn("shader invalidation incomplete", slog.String("shader", name), slog.Any("error", err))
	}
	if n > 0 {
		common.Logger().Info("shader invalidated", slog.String("shader", name), slog.Int("programs", n))
	}
	return n
}

func (c *resourceCache) Stats() CacheStats {
	s := c.stats
	s.Programs = len(c.programs)
	s.Pipelines = len(c.pipelines)
	s.Meshes = len(c.meshes)
	s.Textures = len(c.textures)
	return s
}

func (c *resourceCache) Release() error {
	errs := c.releasePipelines(func(pipeline.PipelineKey) bool { return true })

	_, progErrs := c.releasePrograms(func(*pipeline.Program) bool { return true })
	errs = append(errs, progErrs...)

	textures := make([]*material.Texture, 0, len(c.textures))
	for tex := range c.textures {
		textures = append(textures, tex)
	}
	slices.SortFunc(textures, func(a, b *material.Texture) int { return cmp.Compare(a.Name(), b.Name()) })
	for _, tex := range textures {
		errs = append(errs, tex.Release(c.ctx))
	}
	clear(c.textures)

	ids := make([]uint64, 0, len(c.meshes))
	for id := range c.meshes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		errs = append(errs, c.releaseBuffers(c.meshes[id])...)
	}
	clear(c.meshes)

	if err := errors.Join(errs...); err != nil {
		common.Logger().Warn("resource cache release incomplete", slog.Any("error", err))
		return err
	}
	common.Logger().Info("resource cache released",
		slog.Int("textures", len(textures)),
		slog.Int("meshes", len(ids)))
	return nil
}
