package shader

import (
	"embed"
	"fmt"
	"strconv"
)

//go:embed builtin/*.vert builtin/*.frag builtin/*.wgsl
var builtinFS embed.FS

// Built-in shader names.
const (
	ShaderBaseMaterial = "base_material"
	ShaderBasePhong    = "base_phong"
	ShaderBasePbr      = "base_pbr"
)

// MaxLights is the per-kind light array size compiled into the lit built-in shaders.
const MaxLights = 4

type builtinSource struct {
	name     string
	vertex   string
	fragment string
	wgsl     string
	defines  DefineMap
}

var builtins = []builtinSource{
	{
		name:     ShaderBaseMaterial,
		vertex:   "builtin/base_material.vert",
		fragment: "builtin/base_material.frag",
		wgsl:     "builtin/base_material.wgsl",
	},
	{
		name:     ShaderBasePhong,
		vertex:   "builtin/lit.vert",
		fragment: "builtin/base_phong.frag",
		defines:  DefineMap{"MAX_LIGHTS": strconv.Itoa(MaxLights)},
	},
	{
		name:     ShaderBasePbr,
		vertex:   "builtin/lit.vert",
		fragment: "builtin/base_pbr.frag",
		wgsl:     "builtin/base_pbr.wgsl",
		defines:  DefineMap{"MAX_LIGHTS": strconv.Itoa(MaxLights)},
	},
}

// Builtin returns a fresh copy of the named built-in bundle.
//
// Parameters:
//   - name: one of ShaderBaseMaterial, ShaderBasePhong, ShaderBasePbr
//
// Returns:
//   - *ShaderVariants: the raw bundle, ready for Registry.Register
//   - error: ErrShaderNotFound if name is not built in
func Builtin(name string) (*ShaderVariants, error) {
	for _, b := range builtins {
		if b.name == name {
			return b.load()
		}
	}
	return nil, fmt.Errorf("%w: no built-in shader %s", ErrShaderNotFound, name)
}

// RegisterBuiltins registers every built-in shader bundle with reg.
//
// Parameters:
//   - reg: the registry to fill
//
// Returns:
//   - error: the first registration error
func RegisterBuiltins(reg Registry) error {
	for _, b := range builtins {
		v, err := b.load()
		if err != nil {
			return err
		}
		if err := reg.Register(b.name, v); err != nil {
			return err
		}
	}
	return nil
}

func (b builtinSource) load() (*ShaderVariants, error) {
	read := func(path string) (string, error) {
		if path == "" {
			return "", nil
		}
		data, err := builtinFS.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("shader: built-in %s: %w", b.name, err)
		}
		return string(data), nil
	}

	vs, err := read(b.vertex)
	if err != nil {
		return nil, err
	}
	fs, err := read(b.fragment)
	if err != nil {
		return nil, err
	}
	wgsl, err := read(b.wgsl)
	if err != nil {
		return nil, err
	}

	v := &ShaderVariants{
		Name: b.name,
		GLSL: &GLSLSource{Vertex: vs, Fragment: fs, Defines: b.defines.Clone()},
	}
	if wgsl != "" {
		v.WGSL = &WGSLSource{Code: wgsl}
	}
	return v, nil
}
