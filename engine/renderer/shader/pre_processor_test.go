package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyVertex = `attribute vec3 aPosition;
varying vec2 vTexCoord;
uniform mat4 uMVP;
void main() {
    vTexCoord = aPosition.xy;
    gl_Position = uMVP * vec4(aPosition, 1.0);
}`

const legacyFragment = `varying vec2 vTexCoord;
uniform sampler2D uMap;
void main() {
    gl_FragColor = texture2D(uMap, vTexCoord);
}`

func TestDeriveKey(t *testing.T) {
	assert.Equal(t, "base", DeriveKey("base", nil))
	assert.Equal(t, "base", DeriveKey("base", DefineMap{}))
	assert.Equal(t, "base__A=2;B=1", DeriveKey("base", DefineMap{"B": "1", "A": "2"}))

	a := DefineMap{"HAS_NORMAL": "true", "COUNT": "3", "MODE": "fast"}
	b := DefineMap{"MODE": "fast", "HAS_NORMAL": "true", "COUNT": "3"}
	assert.Equal(t, DeriveKey("s", a), DeriveKey("s", b))
	assert.NotEqual(t, DeriveKey("s", a), DeriveKey("s", DefineMap{"HAS_NORMAL": "false", "COUNT": "3", "MODE": "fast"}))
}

func TestMerge(t *testing.T) {
	base := DefineMap{"A": "1", "B": "1"}
	over := DefineMap{"B": "2", "C": "2"}

	wins := Merge(base, over, true)
	assert.Equal(t, DefineMap{"A": "1", "B": "2", "C": "2"}, wins)

	keeps := Merge(base, over, false)
	assert.Equal(t, DefineMap{"A": "1", "B": "1", "C": "2"}, keeps)

	assert.Equal(t, DefineMap{"A": "1", "B": "1"}, base, "inputs are not modified")
	assert.Empty(t, Merge(nil, nil, true))
}

func TestValidateRejectsEmptyValues(t *testing.T) {
	require.NoError(t, DefineMap{"A": "true"}.Validate())
	assert.ErrorIs(t, DefineMap{"A": ""}.Validate(), ErrInvalidDefine)
	assert.ErrorIs(t, DefineMap{" ": "1"}.Validate(), ErrInvalidDefine)

	_, err := ProcessGLSL(legacyVertex, DialectGLSL330, StageVertex, DefineMap{"X": ""})
	assert.ErrorIs(t, err, ErrInvalidDefine)
}

func TestFromBools(t *testing.T) {
	assert.Equal(t, DefineMap{"A": DefineTrue, "B": DefineFalse}, FromBools(map[string]bool{"A": true, "B": false}))
}

func TestVersionLinePerDialect(t *testing.T) {
	for _, d := range Dialects() {
		if !d.IsGLSL() {
			continue
		}
		t.Run(string(d), func(t *testing.T) {
			out, err := ProcessGLSL(legacyVertex, d, StageVertex, nil)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(out, d.VersionLine()+"\n"), out)
			assert.Equal(t, 1, strings.Count(out, "#version"))
		})
	}
}

func TestExistingVersionLineIsKept(t *testing.T) {
	src := "\n\n#version 330 core\nvoid main() {}\n"
	out, err := ProcessGLSL(src, DialectGLSL410, StageVertex, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "#version 330 core\n"))
	assert.Equal(t, 1, strings.Count(out, "#version"))
}

func TestVersionLineAfterLeadingComments(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"line comment", "// header comment\n#version 330 core\nvoid main() {}\n"},
		{"block comment", "/* license\n   text */\n#version 330 core\nvoid main() {}\n"},
		{"mixed", "// a\n\n/* b */ // c\n  #version 330 core\nvoid main() {}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ProcessGLSL(tt.src, DialectGLSL330, StageVertex, nil)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(out, "#version 330 core\n"), out)
			assert.Equal(t, 1, strings.Count(out, "#version"), out)
			assert.Contains(t, out, "void main() {}")
		})
	}
}

func TestVersionAfterCodeIsNotLifted(t *testing.T) {
	src := "void helper() {}\n#version 330 core\n"
	out, err := ProcessGLSL(src, DialectGLSL410, StageVertex, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "#version 410 core\n"), out)
}

func TestPrecisionPolicy(t *testing.T) {
	tests := []struct {
		dialect Dialect
		stage   Stage
		want    string
		count   int
	}{
		{DialectGLSL100, StageFragment, "#version 100\nprecision mediump float;\n", 1},
		{DialectGLSL300ES, StageFragment, "#version 300 es\nprecision mediump float;\n", 1},
		{DialectGLSL330, StageFragment, "#version 330 core\n#ifdef GL_ES\nprecision mediump float;\n#endif\n", 1},
		{DialectGLSL120, StageFragment, "#version 120\n", 0},
		{DialectGLSL100, StageVertex, "#version 100\n", 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.dialect)+"/"+string(tt.stage), func(t *testing.T) {
			out, err := ProcessGLSL(legacyFragment, tt.dialect, tt.stage, nil)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(out, tt.want), out)
			assert.Equal(t, tt.count, strings.Count(out, "precision mediump float;"))
		})
	}
}

func TestPrecisionNotDuplicated(t *testing.T) {
	src := "precision highp float;\n" + legacyFragment
	out, err := ProcessGLSL(src, DialectGLSL100, StageFragment, nil)
	require.NoError(t, err)
	assert.NotContains(t, out, "precision mediump float;")
	assert.Equal(t, 1, strings.Count(out, "precision highp float;"))
}

func TestBooleanMacroEmission(t *testing.T) {
	out, err := ProcessGLSL(legacyVertex, DialectGLSL330, StageVertex, DefineMap{
		"HAS_NORMAL": "true",
		"USE_FOG":    "false",
		"COUNT":      "3",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "#define HAS_NORMAL\n")
	assert.NotContains(t, out, "USE_FOG")
	assert.Contains(t, out, "#define COUNT 3\n")
	assert.Less(t, strings.Index(out, "#define COUNT"), strings.Index(out, "#define HAS_NORMAL"), "defines are sorted")
}

func TestLegacyRewriteForModernDialects(t *testing.T) {
	vs, err := ProcessGLSL(legacyVertex, DialectGLSL330, StageVertex, nil)
	require.NoError(t, err)
	assert.Contains(t, vs, "in vec3 aPosition;")
	assert.Contains(t, vs, "out vec2 vTexCoord;")
	assert.NotContains(t, vs, "attribute")
	assert.NotContains(t, vs, "varying")

	fs, err := ProcessGLSL(legacyFragment, DialectGLSL330, StageFragment, nil)
	require.NoError(t, err)
	assert.Contains(t, fs, "in vec2 vTexCoord;")
	assert.Contains(t, fs, "outColor = texture(uMap, vTexCoord);")
	assert.NotContains(t, fs, "gl_FragColor")
	assert.NotContains(t, fs, "texture2D")
	assert.Equal(t, 1, strings.Count(fs, "out vec4 outColor;"))
}

func TestOutColorDeclaredOnce(t *testing.T) {
	src := "out vec4 outColor;\nvoid main() {\n    gl_FragColor = vec4(1.0);\n}"
	fs, err := ProcessGLSL(src, DialectGLSL410, StageFragment, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(fs, "out vec4 outColor;"))
}

func TestLegacyDialectsAreNotRewritten(t *testing.T) {
	for _, d := range []Dialect{DialectGLSL100, DialectGLSL120} {
		fs, err := ProcessGLSL(legacyFragment, d, StageFragment, nil)
		require.NoError(t, err)
		assert.Contains(t, fs, "gl_FragColor = texture2D(uMap, vTexCoord);")
		assert.Contains(t, fs, "varying vec2 vTexCoord;")
		assert.NotContains(t, fs, "outColor")
	}
}

func TestProcessGLSLRejectsWGSL(t *testing.T) {
	_, err := ProcessGLSL(legacyVertex, DialectWGSL, StageVertex, nil)
	assert.ErrorIs(t, err, ErrDialectUnsupported)
}

func TestNewPreProcessorPanicsOnUnknownDialect(t *testing.T) {
	assert.Panics(t, func() { NewPreProcessor(Dialect("hlsl")) })
}

const annotatedWGSL = `struct VertexInput {
    @location(0) position : vec3<f32>,
@define HAS_NORMAL {
    @location(1) normal : vec3<f32>,
}
}
@define USES_TIME
@define HAS_FOG {
    let fog = 1.0;
}`

func TestWGSLBlocks(t *testing.T) {
	tests := []struct {
		name       string
		defines    DefineMap
		wantNormal bool
		wantFog    bool
	}{
		{"truthy", DefineMap{"HAS_NORMAL": "true", "HAS_FOG": "1"}, true, true},
		{"false", DefineMap{"HAS_NORMAL": "false", "HAS_FOG": "true"}, false, true},
		{"zero", DefineMap{"HAS_NORMAL": "0", "HAS_FOG": "0"}, true, true},
		{"absent", nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ProcessWGSL(annotatedWGSL, tt.defines)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNormal, strings.Contains(out, "@location(1) normal"))
			assert.Equal(t, tt.wantFog, strings.Contains(out, "let fog"))
			assert.NotContains(t, out, "@define")
			assert.Contains(t, out, "@location(0) position")
		})
	}
}

func TestWGSLZeroValueKeepsBlock(t *testing.T) {
	out, err := ProcessWGSL("@define METALLIC {\nlet m = 1;\n}\n", DefineMap{"METALLIC": "0"})
	require.NoError(t, err)
	assert.Contains(t, out, "let m = 1;")
	assert.NotContains(t, out, "@define")
}

func TestWGSLNestedBraces(t *testing.T) {
	src := "@define HAS_X {\nstruct S { a: f32 };\n}\nfn f() {}\n"

	out, err := ProcessWGSL(src, nil)
	require.NoError(t, err)
	assert.Equal(t, "\nfn f() {}\n", out)

	out, err = ProcessWGSL(src, DefineMap{"HAS_X": "true"})
	require.NoError(t, err)
	assert.Equal(t, "\nstruct S { a: f32 };\n\nfn f() {}\n", out)
}

func TestWGSLUnterminatedBlock(t *testing.T) {
	_, err := ProcessWGSL("@define HAS_X {\nlet a = 1;\n", nil)
	assert.Error(t, err)
}

func TestWGSLDeclarations(t *testing.T) {
	pp := NewPreProcessor(DialectWGSL)
	_, err := pp.Process(annotatedWGSL, StageVertex, nil)
	require.NoError(t, err)

	decls := pp.Declarations()
	require.Len(t, decls, 3)
	assert.Equal(t, Annotation{Type: AnnotationTypeBlock, Name: "HAS_NORMAL", Line: 3}, decls[0])
	assert.Equal(t, Annotation{Type: AnnotationTypeFlag, Name: "USES_TIME", Line: 7}, decls[1])
	assert.Equal(t, AnnotationTypeBlock, decls[2].Type)

	assert.Nil(t, NewPreProcessor(DialectGLSL330).Declarations())
}

func TestWGSLMalformedAnnotation(t *testing.T) {
	_, err := ProcessWGSL("@define 9BAD {\n}\n", nil)
	assert.Error(t, err)

	_, err = ProcessWGSL("@define\n", nil)
	assert.Error(t, err)

	out, err := ProcessWGSL("let x = @defined;\n", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "@defined")
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("glsl300es")
	require.NoError(t, err)
	assert.Equal(t, DialectGLSL300ES, d)
	assert.True(t, d.Modern())
	assert.Equal(t, PrecisionRequired, d.Precision())

	_, err = ParseDialect("glsl450")
	assert.Error(t, err)
	assert.Equal(t, PrecisionForbidden, DialectWGSL.Precision())
	assert.Empty(t, DialectWGSL.VersionLine())
}
