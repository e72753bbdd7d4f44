package shader

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-gl/common"
)

var (
	// ErrShaderNotFound is returned when a variant is requested for an unregistered shader name.
	ErrShaderNotFound = errors.New("shader: not found")

	// ErrDialectUnsupported is returned when a bundle holds no sources for the requested dialect family.
	ErrDialectUnsupported = errors.New("shader: dialect unsupported")
)

// VariantOptions controls how caller defines are combined with a bundle's default defines.
type VariantOptions struct {
	// Defines are the caller-supplied defines.
	Defines DefineMap

	// OverrideWins makes Defines replace the bundle defaults on collision. When false the
	// bundle defaults win.
	OverrideWins bool
}

// WithDefines returns options where defines override the bundle defaults.
func WithDefines(defines DefineMap) VariantOptions {
	return VariantOptions{Defines: defines, OverrideWins: true}
}

// RegistryStats is a snapshot of registry counters.
type RegistryStats struct {
	Shaders  int
	Variants int
	Hits     uint64
	Misses   uint64
}

// registry is the implementation of the Registry interface.
type registry struct {
	mu sync.RWMutex

	// shaders maps registered names to their base bundles.
	shaders map[string]*ShaderVariants

	// variants maps DeriveKey(name, merged) + "__" + dialect to processed bundles.
	variants map[string]*ShaderVariants

	// generations maps registered names to the generation of their current registration.
	generations map[string]uint64
	generation  uint64

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Registry stores named base shader bundles and caches the processed variants derived from them.
// All methods are safe for concurrent use.
type Registry interface {
	// Register inserts or overwrites the named base bundle. Any variants previously derived from
	// the name are purged so that a corrected registration is observed by the next request.
	//
	// Parameters:
	//   - name: the shader name
	//   - variants: the raw sources and default defines
	//
	// Returns:
	//   - error: an error if variants is nil, holds no sources, or declares an invalid define
	Register(name string, variants *ShaderVariants) error

	// Unregister removes the named base bundle and purges every cached variant whose key equals
	// name or begins with name + "__".
	//
	// Parameters:
	//   - name: the shader name
	//
	// Returns:
	//   - bool: true if a bundle was registered under name
	Unregister(name string) bool

	// GetVariant merges the bundle's default defines with opts, derives the variant key and returns
	// the cached variant for (key, dialect), processing and storing it on a miss. Repeated calls with
	// the same name, dialect and merged defines return the identical pointer.
	//
	// Parameters:
	//   - name: the shader name
	//   - dialect: the target dialect
	//   - opts: caller defines and merge direction
	//
	// Returns:
	//   - *ShaderVariants: the processed variant
	//   - error: ErrShaderNotFound, ErrDialectUnsupported, or a pre-processing error
	GetVariant(name string, dialect Dialect, opts VariantOptions) (*ShaderVariants, error)

	// ClearCache drops every derived variant but keeps the registered base bundles.
	ClearCache()

	// Has reports whether name is registered.
	//
	// Parameters:
	//   - name: the shader name
	//
	// Returns:
	//   - bool: true if registered
	Has(name string) bool

	// Names returns the registered shader names in sorted order.
	//
	// Returns:
	//   - []string: the registered names
	Names() []string

	// Generation identifies the current registration of name. Every Register and Unregister of
	// name changes it, so anything derived from a registration can detect that it is stale.
	//
	// Parameters:
	//   - name: the shader name
	//
	// Returns:
	//   - uint64: the registration generation, or 0 if name is not registered
	Generation(name string) uint64

	// Len returns the number of registered shaders.
	Len() int

	// CachedLen returns the number of cached variants.
	CachedLen() int

	// Stats returns a snapshot of the registry counters.
	//
	// Returns:
	//   - RegistryStats: the counters
	Stats() RegistryStats
}

var _ Registry = &registry{}

// NewRegistry creates an empty Registry.
//
// Returns:
//   - Registry: a new registry
func NewRegistry() Registry {
	return &registry{
		shaders:     make(map[string]*ShaderVariants),
		variants:    make(map[string]*ShaderVariants),
		generations: make(map[string]uint64),
	}
}

var (
	defaultMu       sync.Mutex
	defaultRegistry Registry
)

// Default returns the process-wide registry, creating it on first use.
//
// Returns:
//   - Registry: the shared registry
func Default() Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRegistry == nil {
		defaultRegistry = NewRegistry()
	}
	return defaultRegistry
}

// Reset replaces the process-wide registry with an empty one. Intended for test isolation.
func Reset() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultRegistry = NewRegistry()
}

func (r *registry) Register(name string, variants *ShaderVariants) error {
	if name == "" {
		return fmt.Errorf("shader: register requires a name")
	}
	if variants == nil || (!variants.supports(DialectWGSL) && !variants.supports(DialectGLSL330)) {
		return fmt.Errorf("shader: %s has no sources", name)
	}
	for _, d := range []DefineMap{variants.DefaultDefines(DialectGLSL330), variants.DefaultDefines(DialectWGSL)} {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("shader: %s: %w", name, err)
		}
	}

	base := *variants
	base.Name = name
	base.Dialect = ""
	base.Key = ""
	base.Defines = nil

	r.mu.Lock()
	_, replaced := r.shaders[name]
	r.shaders[name] = &base
	r.generation++
	r.generations[name] = r.generation
	purged := r.purgeLocked(name)
	r.mu.Unlock()

	common.Logger().Info("shader registered", "shader", name, "replaced", replaced, "purged", purged)
	return nil
}

func (r *registry) Unregister(name string) bool {
	r.mu.Lock()
	_, ok := r.shaders[name]
	delete(r.shaders, name)
	delete(r.generations, name)
	purged := r.purgeLocked(name)
	r.mu.Unlock()

	if ok {
		common.Logger().Info("shader unregistered", "shader", name, "purged", purged)
	}
	return ok
}

// purgeLocked removes every cached variant derived from name. Caller must hold the write lock.
func (r *registry) purgeLocked(name string) int {
	prefix := name + keySeparator
	n := 0
	for k := range r.variants {
		if k == name || strings.HasPrefix(k, prefix) {
			delete(r.variants, k)
			n++
		}
	}
	return n
}

func (r *registry) GetVariant(name string, dialect Dialect, opts VariantOptions) (*ShaderVariants, error) {
	r.mu.RLock()
	base, ok := r.shaders[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrShaderNotFound, name)
	}
	if dialect != DialectWGSL && !dialect.IsGLSL() {
		return nil, fmt.Errorf("%w: unknown dialect %q", ErrDialectUnsupported, dialect)
	}
	if !base.supports(dialect) {
		return nil, fmt.Errorf("%w: %s has no %s sources", ErrDialectUnsupported, name, dialect)
	}

	merged := Merge(base.DefaultDefines(dialect), opts.Defines, opts.OverrideWins)
	key := DeriveKey(name, merged)
	ck := cacheKey(key, dialect)

	r.mu.RLock()
	cached, hit := r.variants[ck]
	r.mu.RUnlock()
	if hit {
		r.hits.Add(1)
		return cached, nil
	}
	r.misses.Add(1)

	variant, err := processVariant(base, dialect, merged)
	if err != nil {
		return nil, fmt.Errorf("shader: %s (%s): %w", name, dialect, err)
	}
	variant.Key = key

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.variants[ck]; ok {
		return existing, nil
	}
	// Skip caching when the base bundle was replaced or removed while processing.
	if r.shaders[name] == base {
		r.variants[ck] = variant
	}
	common.Logger().Debug("shader variant processed", "shader", name, "key", ck)
	return variant, nil
}

// processVariant runs the pre-processor over every non-empty stage source of base for dialect.
func processVariant(base *ShaderVariants, dialect Dialect, merged DefineMap) (*ShaderVariants, error) {
	out := &ShaderVariants{
		Name:    base.Name,
		Dialect: dialect,
		Defines: merged,
	}

	if dialect == DialectWGSL {
		code, err := NewPreProcessor(DialectWGSL).Process(base.WGSL.Code, StageVertex, merged)
		if err != nil {
			return nil, err
		}
		out.WGSL = &WGSLSource{
			Code:               code,
			Defines:            base.WGSL.Defines,
			VertexEntryPoint:   entryPointOr(base.WGSL.VertexEntryPoint, "vs_main"),
			FragmentEntryPoint: entryPointOr(base.WGSL.FragmentEntryPoint, "fs_main"),
		}
		return out, nil
	}

	pp := NewPreProcessor(dialect)
	src := &GLSLSource{Defines: base.GLSL.Defines}
	if base.GLSL.Vertex != "" {
		vs, err := pp.Process(base.GLSL.Vertex, StageVertex, merged)
		if err != nil {
			return nil, fmt.Errorf("vertex stage: %w", err)
		}
		src.Vertex = vs
	}
	if base.GLSL.Fragment != "" {
		fs, err := pp.Process(base.GLSL.Fragment, StageFragment, merged)
		if err != nil {
			return nil, fmt.Errorf("fragment stage: %w", err)
		}
		src.Fragment = fs
	}
	out.GLSL = src
	return out, nil
}

func (r *registry) ClearCache() {
	r.mu.Lock()
	n := len(r.variants)
	r.variants = make(map[string]*ShaderVariants)
	r.mu.Unlock()
	common.Logger().Debug("shader variant cache cleared", "purged", n)
}

func (r *registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.shaders[name]
	return ok
}

func (r *registry) Generation(name string) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generations[name]
}

func (r *registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.shaders))
	for name := range r.shaders {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

func (r *registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.shaders)
}

func (r *registry) CachedLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.variants)
}

func (r *registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RegistryStats{
		Shaders:  len(r.shaders),
		Variants: len(r.variants),
		Hits:     r.hits.Load(),
		Misses:   r.misses.Load(),
	}
}
