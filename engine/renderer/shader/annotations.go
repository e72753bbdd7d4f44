// annotations.go defines the @define annotation scanner used by the WGSL pre-processor.
// WGSL has no preprocessor of its own, so conditional code is expressed with annotations
// that the pre-processor resolves against the merged define set:
//
//	@define HAS_NORMAL {
//	    @location(1) normal: vec3<f32>,
//	}
//
// keeps the block body when HAS_NORMAL is truthy and drops the whole block otherwise.
// A bare single-line form ("@define HAS_NORMAL") documents a macro the shader consumes and is
// stripped from the output.
package shader

import (
	"fmt"
	"regexp"
	"strings"
)

// annotationPrefix is the marker that identifies a define annotation at the start of a line.
const annotationPrefix = "@define"

// AnnotationType identifies the form of a parsed @define annotation.
type AnnotationType string

const (
	// AnnotationTypeBlock is a conditional block: "@define NAME { ... }". The body is kept when
	// NAME is truthy and removed together with its braces otherwise.
	AnnotationTypeBlock AnnotationType = "block"

	// AnnotationTypeFlag is a single-line marker: "@define NAME". It produces no output.
	AnnotationTypeFlag AnnotationType = "flag"
)

// Annotation represents a single parsed @define annotation from a WGSL source line.
type Annotation struct {
	// Type identifies whether the annotation opens a conditional block or is a bare marker.
	Type AnnotationType

	// Name is the macro name the annotation is conditioned on.
	Name string

	// Line is the 1-based line number in the original source. Used for error reporting.
	Line int
}

var macroNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// parseAnnotation attempts to parse a single source line as a @define annotation.
// Returns nil without error when the line is not an annotation.
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	after, ok := strings.CutPrefix(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}
	// "@defined" or "@define_x" are ordinary identifiers, not annotations.
	if after != "" && after[0] != ' ' && after[0] != '\t' {
		return nil, nil
	}

	fields := strings.Fields(after)
	if len(fields) == 0 {
		return nil, fmt.Errorf("line %d: @define annotation requires a macro name", lineNum)
	}

	name := fields[0]
	block := false
	if idx := strings.IndexByte(name, '{'); idx >= 0 {
		name, block = name[:idx], true
	} else if len(fields) > 1 && strings.HasPrefix(fields[1], "{") {
		block = true
	}
	if !macroNamePattern.MatchString(name) {
		return nil, fmt.Errorf("line %d: invalid macro name %q in @define annotation", lineNum, name)
	}

	a := &Annotation{Type: AnnotationTypeFlag, Name: name, Line: lineNum}
	if block {
		a.Type = AnnotationTypeBlock
	}
	return a, nil
}

// scanAnnotations returns every @define annotation in source in line order.
func scanAnnotations(source string) ([]Annotation, error) {
	var out []Annotation
	for i, line := range strings.Split(source, "\n") {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return nil, err
		}
		if a != nil {
			out = append(out, *a)
		}
	}
	return out, nil
}
