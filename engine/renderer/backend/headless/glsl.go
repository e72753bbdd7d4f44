// glsl.go implements the source checks the headless context performs in place of a driver
// compiler: conditional-directive evaluation, declaration reflection and a handful of
// dialect rules that real drivers reject.
package headless

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	uniformDecl   = regexp.MustCompile(`^\s*uniform\s+(?:(?:lowp|mediump|highp)\s+)?(\w+)\s+(\w+)\s*(?:\[\s*(\w+)\s*\])?\s*;`)
	attributeDecl = regexp.MustCompile(`^\s*(?:layout\s*\(\s*location\s*=\s*(\d+)\s*\)\s*)?(?:attribute|in)\s+(?:(?:lowp|mediump|highp)\s+)?(\w+)\s+(\w+)\s*;`)
	varyingOut    = regexp.MustCompile(`^\s*(?:flat\s+|smooth\s+)?(?:varying|out)\s+(?:(?:lowp|mediump|highp)\s+)?(\w+)\s+(\w+)\s*;`)
	varyingIn     = regexp.MustCompile(`^\s*(?:flat\s+|smooth\s+)?(?:varying|in)\s+(?:(?:lowp|mediump|highp)\s+)?(\w+)\s+(\w+)\s*;`)
	mainDecl      = regexp.MustCompile(`\bvoid\s+main\s*\(\s*(void)?\s*\)`)
	legacyIdent   = regexp.MustCompile(`\b(gl_FragColor|texture2D|attribute|varying)\b`)
	definedCall   = regexp.MustCompile(`defined\s*\(\s*(\w+)\s*\)|defined\s+(\w+)`)
)

type uniformDeclaration struct {
	name    string
	typ     string
	size    int
	isArray bool
}

type attributeDeclaration struct {
	name     string
	typ      string
	location int32
}

// stageInfo is the reflected interface of one compiled stage.
type stageInfo struct {
	version    string
	uniforms   []uniformDeclaration
	attributes []attributeDeclaration
	outputs    map[string]string
	inputs     map[string]string
}

// modern reports whether the stage's #version line selects in/out syntax.
func (s *stageInfo) modern() bool {
	fields := strings.Fields(s.version)
	if len(fields) < 2 {
		return false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return false
	}
	return n >= 300
}

// compileStage evaluates the conditional directives of src and reflects the active declarations.
// Errors are formatted like driver info logs: "0:<line>: <message>".
func compileStage(src string, vertex bool) (*stageInfo, error) {
	lines, err := activeLines(src)
	if err != nil {
		return nil, err
	}

	info := &stageInfo{outputs: make(map[string]string), inputs: make(map[string]string)}
	defines := map[string]string{}
	depth := 0
	sawMain := false
	nextLocation := int32(0)

	for _, l := range lines {
		text := l.text
		trimmed := strings.TrimSpace(text)
		if strings.HasPrefix(trimmed, "#") {
			directive := strings.Fields(trimmed)
			switch directive[0] {
			case "#version":
				info.version = trimmed
			case "#define":
				if len(directive) > 1 {
					defines[directive[1]] = strings.Join(directive[2:], " ")
				}
			}
			continue
		}
		if i := strings.Index(text, "//"); i >= 0 {
			text = text[:i]
		}

		if mainDecl.MatchString(text) {
			sawMain = true
		}
		depth += strings.Count(text, "{") - strings.Count(text, "}")
		if depth < 0 {
			return nil, fmt.Errorf("0:%d: unexpected '}'", l.number)
		}
		if depth > 0 && !strings.Contains(text, "{") {
			continue
		}

		if m := uniformDecl.FindStringSubmatch(text); m != nil {
			u := uniformDeclaration{typ: m[1], name: m[2], size: 1}
			if m[3] != "" {
				size, err := arraySize(m[3], defines)
				if err != nil {
					return nil, fmt.Errorf("0:%d: %w", l.number, err)
				}
				u.size, u.isArray = size, true
			}
			info.uniforms = append(info.uniforms, u)
			continue
		}
		if vertex {
			if m := attributeDecl.FindStringSubmatch(text); m != nil {
				loc := nextLocation
				if m[1] != "" {
					n, _ := strconv.Atoi(m[1])
					loc = int32(n)
				}
				nextLocation = loc + 1
				info.attributes = append(info.attributes, attributeDeclaration{name: m[3], typ: m[2], location: loc})
				continue
			}
			if m := varyingOut.FindStringSubmatch(text); m != nil {
				info.outputs[m[2]] = m[1]
			}
		} else if m := varyingIn.FindStringSubmatch(text); m != nil {
			info.inputs[m[2]] = m[1]
		}
	}

	if depth != 0 {
		return nil, fmt.Errorf("0:%d: unbalanced braces", len(strings.Split(src, "\n")))
	}
	if !sawMain {
		return nil, fmt.Errorf("0:0: missing entry point void main()")
	}
	if info.modern() {
		for _, l := range lines {
			if strings.HasPrefix(strings.TrimSpace(l.text), "#") {
				continue
			}
			code, _, _ := strings.Cut(l.text, "//")
			if m := legacyIdent.FindString(code); m != "" {
				return nil, fmt.Errorf("0:%d: '%s' is not available in %s", l.number, m, info.version)
			}
		}
	}
	return info, nil
}

func arraySize(token string, defines map[string]string) (int, error) {
	for range 8 {
		v, ok := defines[token]
		if !ok {
			break
		}
		token = strings.TrimSpace(v)
	}
	n, err := strconv.Atoi(token)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("array size must be a positive integer constant, got %q", token)
	}
	return n, nil
}

type sourceLine struct {
	number int
	text   string
}

type condFrame struct {
	parentActive bool
	active       bool
	taken        bool
}

// activeLines returns the lines of src that survive #if/#ifdef/#ifndef/#elif/#else/#endif
// evaluation. Directive lines inside active regions are kept so callers can track #define.
func activeLines(src string) ([]sourceLine, error) {
	defines := map[string]string{}
	var stack []condFrame
	active := true
	var out []sourceLine

	for i, text := range strings.Split(src, "\n") {
		num := i + 1
		trimmed := strings.TrimSpace(text)
		if !strings.HasPrefix(trimmed, "#") {
			if active {
				out = append(out, sourceLine{number: num, text: text})
			}
			continue
		}

		fields := strings.Fields(trimmed)
		directive := fields[0]
		rest := strings.TrimSpace(strings.TrimPrefix(trimmed, directive))

		switch directive {
		case "#ifdef", "#ifndef", "#if":
			var cond bool
			switch directive {
			case "#ifdef":
				_, cond = defines[rest]
			case "#ifndef":
				_, cond = defines[rest]
				cond = !cond
			default:
				cond = evalCondition(rest, defines)
			}
			stack = append(stack, condFrame{parentActive: active, active: active && cond, taken: cond})
			active = active && cond
		case "#elif":
			if len(stack) == 0 {
				return nil, fmt.Errorf("0:%d: #elif without #if", num)
			}
			top := &stack[len(stack)-1]
			cond := !top.taken && evalCondition(rest, defines)
			top.active = top.parentActive && cond
			top.taken = top.taken || cond
			active = top.active
		case "#else":
			if len(stack) == 0 {
				return nil, fmt.Errorf("0:%d: #else without #if", num)
			}
			top := &stack[len(stack)-1]
			top.active = top.parentActive && !top.taken
			top.taken = true
			active = top.active
		case "#endif":
			if len(stack) == 0 {
				return nil, fmt.Errorf("0:%d: #endif without #if", num)
			}
			active = stack[len(stack)-1].parentActive
			stack = stack[:len(stack)-1]
		default:
			if !active {
				continue
			}
			switch directive {
			case "#define":
				if len(fields) > 1 {
					defines[fields[1]] = strings.Join(fields[2:], " ")
				}
			case "#undef":
				if len(fields) > 1 {
					delete(defines, fields[1])
				}
			}
			out = append(out, sourceLine{number: num, text: text})
		}
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("0:%d: unterminated conditional directive", len(strings.Split(src, "\n")))
	}
	return out, nil
}

// evalCondition evaluates the subset of #if expressions the built-in shaders use: defined(X),
// integer literals and macro names joined by &&, || and a leading !.
func evalCondition(expr string, defines map[string]string) bool {
	expr = definedCall.ReplaceAllStringFunc(expr, func(m string) string {
		sub := definedCall.FindStringSubmatch(m)
		name := sub[1]
		if name == "" {
			name = sub[2]
		}
		if _, ok := defines[name]; ok {
			return "1"
		}
		return "0"
	})

	for _, alt := range strings.Split(expr, "||") {
		all := true
		for _, term := range strings.Split(alt, "&&") {
			if !evalTerm(strings.TrimSpace(term), defines) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func evalTerm(term string, defines map[string]string) bool {
	term = strings.Trim(term, "() ")
	if neg, ok := strings.CutPrefix(term, "!"); ok {
		return !evalTerm(neg, defines)
	}
	if v, ok := defines[term]; ok {
		term = strings.TrimSpace(v)
	}
	n, err := strconv.Atoi(term)
	return err == nil && n != 0
}
