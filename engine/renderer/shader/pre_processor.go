// pre_processor.go implements the shader pre-processors. A GLSL pre-processor rewrites raw
// source for one target dialect: it synthesizes the #version line, inserts a default float
// precision statement where the dialect wants one, emits the define block, and translates
// legacy attribute/varying/texture2D/gl_FragColor syntax for modern dialects. The WGSL
// pre-processor resolves @define annotations (see annotations.go).
//
// Pre-processing is not idempotent: running a pre-processor over its own output is undefined.
// The Registry guarantees each variant is processed exactly once.
package shader

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	versionPattern    = regexp.MustCompile(`^#version\b[^\n]*`)
	precisionPattern  = regexp.MustCompile(`precision\s+(lowp|mediump|highp)\s+float\s*;`)
	attributePattern  = regexp.MustCompile(`\battribute\b`)
	varyingPattern    = regexp.MustCompile(`\bvarying\b`)
	texturePattern    = regexp.MustCompile(`\b(texture2D|textureCube)\b`)
	fragColorPattern  = regexp.MustCompile(`\bgl_FragColor\b`)
	outColorDeclPattn = regexp.MustCompile(`\bout\s+(lowp\s+|mediump\s+|highp\s+)?vec4\s+outColor\s*;`)
	flagLinePattern   = regexp.MustCompile(`@define\s+\w+[^\n]*(\n|$)`)
)

const (
	defaultPrecision = "precision mediump float;"
	fragmentOutput   = "outColor"
)

// PreProcessor rewrites raw shader source for one target dialect.
type PreProcessor interface {
	// Process rewrites source for the pre-processor's dialect and the given stage, applying defines.
	//
	// For GLSL dialects the output begins with the version line, followed by the precision statement
	// (fragment stage only, per dialect policy), the define block, and the fragment output declaration
	// when the legacy output identifier was rewritten. For WGSL the stage is ignored and @define
	// annotations are resolved.
	//
	// Parameters:
	//   - source: the raw shader source
	//   - stage: the stage the source belongs to
	//   - defines: the merged defines; values must be non-empty
	//
	// Returns:
	//   - string: the rewritten source
	//   - error: an error if a define is invalid or an annotation is malformed
	Process(source string, stage Stage, defines DefineMap) (string, error)

	// Declarations returns the @define annotations collected during the most recent call to Process,
	// in source order. GLSL pre-processors always return nil.
	//
	// Returns:
	//   - []Annotation: the annotations seen by the last Process call
	Declarations() []Annotation

	// Dialect returns the dialect this pre-processor targets.
	//
	// Returns:
	//   - Dialect: the target dialect
	Dialect() Dialect
}

// glslPreProcessor is the PreProcessor implementation for GLSL dialects.
type glslPreProcessor struct {
	dialect Dialect
	rules   dialectRules
}

// wgslPreProcessor is the PreProcessor implementation for WGSL.
type wgslPreProcessor struct {
	declarations []Annotation
}

var _ PreProcessor = &glslPreProcessor{}
var _ PreProcessor = &wgslPreProcessor{}

// NewPreProcessor creates a PreProcessor for the given dialect.
//
// Parameters:
//   - dialect: the target dialect
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
func NewPreProcessor(dialect Dialect) PreProcessor {
	if dialect == DialectWGSL {
		return &wgslPreProcessor{}
	}
	rules, ok := glslRules[dialect]
	if !ok {
		panic(fmt.Sprintf("shader: no pre-processor for dialect %q", dialect))
	}
	return &glslPreProcessor{dialect: dialect, rules: rules}
}

// ProcessGLSL is a convenience wrapper around NewPreProcessor(dialect).Process.
func ProcessGLSL(source string, dialect Dialect, stage Stage, defines DefineMap) (string, error) {
	if !dialect.IsGLSL() {
		return "", fmt.Errorf("%w: %s is not a GLSL dialect", ErrDialectUnsupported, dialect)
	}
	return NewPreProcessor(dialect).Process(source, stage, defines)
}

// ProcessWGSL is a convenience wrapper around the WGSL pre-processor.
func ProcessWGSL(source string, defines DefineMap) (string, error) {
	return NewPreProcessor(DialectWGSL).Process(source, StageVertex, defines)
}

func (p *glslPreProcessor) Dialect() Dialect {
	return p.dialect
}

func (p *glslPreProcessor) Declarations() []Annotation {
	return nil
}

func (p *glslPreProcessor) Process(source string, stage Stage, defines DefineMap) (string, error) {
	if err := defines.Validate(); err != nil {
		return "", err
	}

	code := strings.TrimLeft(source, " \t\r\n")

	var header strings.Builder
	version, code := splitVersion(code)
	if version == "" {
		version = p.rules.version
	}
	header.WriteString(version)
	header.WriteByte('\n')

	if stage == StageFragment && !precisionPattern.MatchString(code) {
		switch p.rules.precision {
		case PrecisionRequired:
			header.WriteString(defaultPrecision + "\n")
		case PrecisionOptional:
			header.WriteString("#ifdef GL_ES\n" + defaultPrecision + "\n#endif\n")
		}
	}

	for _, def := range defines.Sorted() {
		switch def.Value {
		case DefineFalse:
		case DefineTrue:
			fmt.Fprintf(&header, "#define %s\n", def.Name)
		default:
			fmt.Fprintf(&header, "#define %s %s\n", def.Name, def.Value)
		}
	}

	if p.rules.modern {
		code = attributePattern.ReplaceAllString(code, "in")
		if stage == StageVertex {
			code = varyingPattern.ReplaceAllString(code, "out")
		} else {
			code = varyingPattern.ReplaceAllString(code, "in")
		}
		code = texturePattern.ReplaceAllString(code, "texture")

		if stage == StageFragment && fragColorPattern.MatchString(code) {
			code = fragColorPattern.ReplaceAllString(code, fragmentOutput)
			if !outColorDeclPattn.MatchString(code) {
				header.WriteString("out vec4 " + fragmentOutput + ";\n")
			}
		}
	}

	return header.String() + code, nil
}

func (p *wgslPreProcessor) Dialect() Dialect {
	return DialectWGSL
}

func (p *wgslPreProcessor) Declarations() []Annotation {
	return p.declarations
}

func (p *wgslPreProcessor) Process(source string, _ Stage, defines DefineMap) (string, error) {
	p.declarations = p.declarations[:0]
	if err := defines.Validate(); err != nil {
		return "", err
	}

	annotations, err := scanAnnotations(source)
	if err != nil {
		return "", err
	}
	p.declarations = append(p.declarations, annotations...)

	code := source
	resolved := make(map[string]bool)
	for _, a := range annotations {
		if a.Type != AnnotationTypeBlock || resolved[a.Name] {
			continue
		}
		resolved[a.Name] = true

		code, err = resolveBlock(code, a.Name, truthy(defines[a.Name]))
		if err != nil {
			return "", err
		}
	}

	return flagLinePattern.ReplaceAllString(code, ""), nil
}

// splitVersion lifts the #version line out of code. The directive may be preceded only by
// whitespace and comments; anything else means the source declares no version.
func splitVersion(code string) (string, string) {
	i := 0
	for i < len(code) {
		rest := code[i:]
		switch {
		case rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\r' || rest[0] == '\n':
			i++
		case strings.HasPrefix(rest, "//"):
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				return "", code
			}
			i += end + 1
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				return "", code
			}
			i += end + 4
		default:
			line := versionPattern.FindString(rest)
			if line == "" {
				return "", code
			}
			return strings.TrimSpace(line), code[:i] + strings.TrimLeft(rest[len(line):], "\r\n")
		}
	}
	return "", code
}

// resolveBlock replaces every "@define name { ... }" block in code with its body when keep is
// set and with nothing otherwise. Braces inside the body are matched, so nested scopes stay
// within the block.
func resolveBlock(code, name string, keep bool) (string, error) {
	open := regexp.MustCompile(`@define\s+` + regexp.QuoteMeta(name) + `\s*\{`)
	var out strings.Builder
	for {
		loc := open.FindStringIndex(code)
		if loc == nil {
			out.WriteString(code)
			return out.String(), nil
		}
		end := matchBrace(code, loc[1])
		if end < 0 {
			return "", fmt.Errorf("shader: unterminated @define block %q", name)
		}
		out.WriteString(code[:loc[0]])
		if keep {
			out.WriteString(code[loc[1]:end])
		}
		code = code[end+1:]
	}
}

// matchBrace returns the index of the '}' closing the scope opened just before start, or -1.
func matchBrace(code string, start int) int {
	depth := 1
	for i := start; i < len(code); i++ {
		switch code[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
