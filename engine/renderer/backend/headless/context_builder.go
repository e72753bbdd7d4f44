package headless

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
)

// ContextBuilderOption is a functional option used to configure a headless Context during construction.
type ContextBuilderOption func(*headlessContext)

// WithDialect sets the shader dialect the context compiles.
//
// Parameters:
//   - d: the dialect; any GLSL dialect or shader.DialectWGSL
//
// Returns:
//   - ContextBuilderOption: a function that sets the context dialect
func WithDialect(d shader.Dialect) ContextBuilderOption {
	return func(c *headlessContext) {
		c.dialect = d
	}
}

// WithMaxTextureUnits sets the number of texture units the context reports.
//
// Parameters:
//   - n: the number of combined texture image units
//
// Returns:
//   - ContextBuilderOption: a function that sets the texture unit limit
func WithMaxTextureUnits(n int) ContextBuilderOption {
	return func(c *headlessContext) {
		c.maxTextureUnits = n
	}
}

// WithCompileHook installs a function that runs before every program compile. A non-nil error
// from the hook fails the compile with that error.
//
// Parameters:
//   - hook: the function receiving each program source
//
// Returns:
//   - ContextBuilderOption: a function that sets the compile hook
func WithCompileHook(hook func(backend.ProgramSource) error) ContextBuilderOption {
	return func(c *headlessContext) {
		c.compileHook = hook
	}
}

// NewContext creates a headless Context. The default dialect is GLSL 4.10 core with 16 texture units.
//
// Parameters:
//   - options: variadic list of ContextBuilderOption functions to configure the context
//
// Returns:
//   - Context: the configured headless context
func NewContext(options ...ContextBuilderOption) Context {
	c := &headlessContext{
		dialect:         shader.DialectGLSL410,
		maxTextureUnits: 16,
		renderState:     backend.DefaultRenderState(),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.dialect != shader.DialectWGSL && !c.dialect.IsGLSL() {
		panic(fmt.Sprintf("headless: unsupported dialect %q", c.dialect))
	}
	if c.maxTextureUnits < 1 {
		panic("headless: max texture units must be positive")
	}
	return c
}
