package shader

import "fmt"

// Dialect identifies a target shading language and version.
type Dialect string

const (
	// DialectGLSL100 targets GLSL ES 1.00 (WebGL 1, OpenGL ES 2).
	DialectGLSL100 Dialect = "glsl100"

	// DialectGLSL120 targets desktop GLSL 1.20, which predates precision qualifiers.
	DialectGLSL120 Dialect = "glsl120"

	// DialectGLSL300ES targets GLSL ES 3.00 (WebGL 2, OpenGL ES 3).
	DialectGLSL300ES Dialect = "glsl300es"

	// DialectGLSL330 targets desktop GLSL 3.30 core.
	DialectGLSL330 Dialect = "glsl330"

	// DialectGLSL410 targets desktop GLSL 4.10 core, the highest version available on macOS.
	DialectGLSL410 Dialect = "glsl410"

	// DialectWGSL targets the WebGPU shading language.
	DialectWGSL Dialect = "wgsl"
)

// Stage identifies the shader stage a source is processed for.
type Stage string

const (
	// StageVertex is the vertex stage.
	StageVertex Stage = "vertex"

	// StageFragment is the fragment stage.
	StageFragment Stage = "fragment"
)

// PrecisionPolicy describes how a dialect treats default float precision statements.
type PrecisionPolicy int

const (
	// PrecisionRequired inserts "precision mediump float;" into fragment sources that lack one.
	PrecisionRequired PrecisionPolicy = iota

	// PrecisionOptional inserts the statement wrapped in an #ifdef GL_ES guard.
	PrecisionOptional

	// PrecisionForbidden never inserts a precision statement.
	PrecisionForbidden
)

// dialectRules holds the per-dialect rewrite configuration for GLSL targets.
type dialectRules struct {
	version   string
	precision PrecisionPolicy
	modern    bool
}

var glslRules = map[Dialect]dialectRules{
	DialectGLSL100:   {version: "#version 100", precision: PrecisionRequired},
	DialectGLSL120:   {version: "#version 120", precision: PrecisionForbidden},
	DialectGLSL300ES: {version: "#version 300 es", precision: PrecisionRequired, modern: true},
	DialectGLSL330:   {version: "#version 330 core", precision: PrecisionOptional, modern: true},
	DialectGLSL410:   {version: "#version 410 core", precision: PrecisionOptional, modern: true},
}

// Dialects returns every supported dialect.
func Dialects() []Dialect {
	return []Dialect{DialectGLSL100, DialectGLSL120, DialectGLSL300ES, DialectGLSL330, DialectGLSL410, DialectWGSL}
}

// IsGLSL reports whether d is one of the GLSL dialects.
func (d Dialect) IsGLSL() bool {
	_, ok := glslRules[d]
	return ok
}

// VersionLine returns the #version directive synthesized for d, or an empty string for WGSL.
func (d Dialect) VersionLine() string {
	return glslRules[d].version
}

// Precision returns the precision policy of d. WGSL reports PrecisionForbidden.
func (d Dialect) Precision() PrecisionPolicy {
	if r, ok := glslRules[d]; ok {
		return r.precision
	}
	return PrecisionForbidden
}

// Modern reports whether d uses in/out qualifiers and explicit fragment outputs.
func (d Dialect) Modern() bool {
	return glslRules[d].modern
}

// ParseDialect converts a configuration string into a Dialect.
//
// Parameters:
//   - s: the dialect name (e.g. "glsl330", "wgsl")
//
// Returns:
//   - Dialect: the parsed dialect
//   - error: an error if s names no supported dialect
func ParseDialect(s string) (Dialect, error) {
	for _, d := range Dialects() {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("shader: unknown dialect %q", s)
}
