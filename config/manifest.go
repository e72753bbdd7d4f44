package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
)

// GLSLFiles names the stage sources of a GLSL shader.
type GLSLFiles struct {
	Vertex   string `yaml:"vertex"`
	Fragment string `yaml:"fragment"`
}

// ShaderEntry is one shader of a manifest.
type ShaderEntry struct {
	Name string     `yaml:"name"`
	GLSL *GLSLFiles `yaml:"glsl,omitempty"`
	WGSL string     `yaml:"wgsl,omitempty"`

	// Defines are the defaults registered with the sources.
	Defines shader.DefineMap `yaml:"defines,omitempty"`

	// Variants are define sets produced ahead of the first frame.
	Variants []shader.DefineMap `yaml:"variants,omitempty"`
}

// Manifest lists the shaders an application registers.
//
// Example:
//
//	shaders:
//	  - name: unlit
//	    glsl: {vertex: unlit.vert, fragment: unlit.frag}
//	    wgsl: unlit.wgsl
//	    defines: {USE_FOG: "false"}
//	    variants:
//	      - {HAS_TEXCOORD: "true"}
type Manifest struct {
	Shaders []ShaderEntry `yaml:"shaders"`

	// Dir is the directory of the manifest file, against which source paths resolve.
	Dir string `yaml:"-"`
}

// LoadManifest reads a YAML shader manifest and validates it.
//
// Parameters:
//   - path: the manifest file
//
// Returns:
//   - *Manifest: the manifest, with Dir set to the directory of path
//   - error: an error if the file cannot be read, decoded or validated
func LoadManifest(path string) (*Manifest, error) {
	m := &Manifest{}
	if err := Open(m, path, YAML); err != nil {
		return nil, fmt.Errorf("config: load manifest %s: %w", path, err)
	}
	m.Dir = filepath.Dir(path)
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("config: manifest %s: %w", path, err)
	}
	return m, nil
}

// Validate checks that every entry is named once, has sources and carries legal defines.
func (m *Manifest) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(m.Shaders))
	for i, e := range m.Shaders {
		if e.Name == "" {
			errs = append(errs, fmt.Errorf("shader %d has no name", i))
			continue
		}
		if seen[e.Name] {
			errs = append(errs, fmt.Errorf("shader %s listed twice", e.Name))
		}
		seen[e.Name] = true
		if !e.hasGLSL() && e.WGSL == "" {
			errs = append(errs, fmt.Errorf("shader %s has no sources", e.Name))
		}
		if err := e.Defines.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("shader %s: %w", e.Name, err))
		}
		for j, v := range e.Variants {
			if err := v.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("shader %s variant %d: %w", e.Name, j, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Entry returns the entry named name.
func (m *Manifest) Entry(name string) (ShaderEntry, bool) {
	for _, e := range m.Shaders {
		if e.Name == name {
			return e, true
		}
	}
	return ShaderEntry{}, false
}

// Variants reads every entry's sources.
//
// Parameters:
//   - baseDir: the directory relative source paths resolve against
//
// Returns:
//   - []*shader.ShaderVariants: one bundle per entry, in manifest order
//   - error: an error if a source file cannot be read
func (m *Manifest) Variants(baseDir string) ([]*shader.ShaderVariants, error) {
	out := make([]*shader.ShaderVariants, 0, len(m.Shaders))
	for _, e := range m.Shaders {
		v, err := e.Load(baseDir)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Register reads every entry and registers it with reg.
func (m *Manifest) Register(reg shader.Registry) error {
	bundles, err := m.Variants(m.Dir)
	if err != nil {
		return err
	}
	for _, v := range bundles {
		if err := reg.Register(v.Name, v); err != nil {
			return err
		}
	}
	return nil
}

// Requests lists the variants to prewarm for dialect: each entry's defaults followed by its
// listed variants. Entries without sources for the dialect family are left out.
func (m *Manifest) Requests(dialect shader.Dialect) []shader.VariantRequest {
	var reqs []shader.VariantRequest
	for _, e := range m.Shaders {
		if dialect.IsGLSL() && !e.hasGLSL() || !dialect.IsGLSL() && e.WGSL == "" {
			continue
		}
		reqs = append(reqs, shader.VariantRequest{Name: e.Name, Dialect: dialect})
		for _, d := range e.Variants {
			reqs = append(reqs, shader.VariantRequest{
				Name:    e.Name,
				Dialect: dialect,
				Options: shader.WithDefines(d),
			})
		}
	}
	return reqs
}

// Files maps every source file of the manifest, cleaned and resolved against Dir, to the
// name of the shader that reads it.
func (m *Manifest) Files() map[string]string {
	files := make(map[string]string)
	for _, e := range m.Shaders {
		for _, p := range e.paths() {
			files[resolve(m.Dir, p)] = e.Name
		}
	}
	return files
}

func (e ShaderEntry) hasGLSL() bool {
	return e.GLSL != nil && (e.GLSL.Vertex != "" || e.GLSL.Fragment != "")
}

func (e ShaderEntry) paths() []string {
	var p []string
	if e.GLSL != nil {
		if e.GLSL.Vertex != "" {
			p = append(p, e.GLSL.Vertex)
		}
		if e.GLSL.Fragment != "" {
			p = append(p, e.GLSL.Fragment)
		}
	}
	if e.WGSL != "" {
		p = append(p, e.WGSL)
	}
	return p
}

// Load reads the entry's sources into a bundle ready for registration.
//
// Parameters:
//   - baseDir: the directory relative source paths resolve against
//
// Returns:
//   - *shader.ShaderVariants: the bundle, carrying the entry's defines for every dialect
//   - error: an error if a source file cannot be read
func (e ShaderEntry) Load(baseDir string) (*shader.ShaderVariants, error) {
	v := &shader.ShaderVariants{Name: e.Name}
	if e.hasGLSL() {
		vert, err := readSource(baseDir, e.GLSL.Vertex)
		if err != nil {
			return nil, fmt.Errorf("config: shader %s: %w", e.Name, err)
		}
		frag, err := readSource(baseDir, e.GLSL.Fragment)
		if err != nil {
			return nil, fmt.Errorf("config: shader %s: %w", e.Name, err)
		}
		v.GLSL = &shader.GLSLSource{Vertex: vert, Fragment: frag, Defines: e.Defines.Clone()}
	}
	if e.WGSL != "" {
		code, err := readSource(baseDir, e.WGSL)
		if err != nil {
			return nil, fmt.Errorf("config: shader %s: %w", e.Name, err)
		}
		v.WGSL = &shader.WGSLSource{Code: code, Defines: e.Defines.Clone()}
	}
	return v, nil
}

func readSource(baseDir, path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(resolve(baseDir, path))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func resolve(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}
