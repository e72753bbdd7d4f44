// Command oxyshade preprocesses the shader variants of a manifest for one dialect.
//
// Usage:
//
//	oxyshade [options] [manifest.yaml]
//
// Without a manifest the built-in shader library is used.
//
// Examples:
//
//	oxyshade -dialect glsl330 shaders/manifest.yaml          # Print every variant
//	oxyshade -shader unlit -D HAS_TEXCOORD=true manifest.yaml # One shader, extra defines
//	oxyshade -dialect wgsl -validate                          # Compile built-in WGSL to SPIR-V
//	oxyshade -dialect wgsl -wgpu -shader base_material        # Print pipeline descriptors
//	oxyshade -prewarm -workers 8 manifest.yaml               # Prewarm and report stats
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/config"
	"github.com/Carmen-Shannon/oxy-gl/engine/model"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/webgpu"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
)

// defineFlags collects repeated -D NAME=VALUE flags.
type defineFlags shader.DefineMap

func (d defineFlags) String() string {
	return shader.DefineMap(d).String()
}

func (d defineFlags) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		value = shader.DefineTrue
	}
	name = strings.TrimSpace(name)
	if name == "" || value == "" {
		return fmt.Errorf("invalid define %q", s)
	}
	d[name] = value
	return nil
}

type options struct {
	dialect  shader.Dialect
	only     string
	defines  shader.DefineMap
	validate bool
	wgpu     bool
	prewarm  bool
	workers  int
	outDir   string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("oxyshade", flag.ContinueOnError)
	fs.SetOutput(stderr)
	defines := defineFlags{}
	dialect := fs.String("dialect", string(shader.DialectGLSL330), "target dialect: "+dialectList())
	only := fs.String("shader", "", "process only this shader")
	validate := fs.Bool("validate", false, "compile wgsl variants to SPIR-V with naga")
	describe := fs.Bool("wgpu", false, "print webgpu pipeline descriptors for wgsl variants")
	prewarm := fs.Bool("prewarm", false, "prewarm every manifest variant and report registry stats")
	workers := fs.Int("workers", 0, "prewarm workers (0 = one per CPU)")
	outDir := fs.String("o", "", "write processed sources to this directory instead of stdout")
	verbose := fs.Bool("v", false, "log registry activity to stderr")
	fs.Var(defines, "D", "extra define NAME=VALUE (repeatable)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: oxyshade [options] [manifest.yaml]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	d, err := shader.ParseDialect(*dialect)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if (*validate || *describe) && d != shader.DialectWGSL {
		fmt.Fprintln(stderr, "Error: -validate and -wgpu require -dialect wgsl")
		return 2
	}
	if *verbose {
		cfg := config.LogConfig{Level: "debug", Format: "text"}
		logger, err := cfg.NewLogger(stderr)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		common.SetLogger(logger)
		defer common.SetLogger(nil)
	}

	reg := shader.NewRegistry()
	var manifest *config.Manifest
	if fs.NArg() > 0 {
		manifest, err = config.LoadManifest(fs.Arg(0))
		if err == nil {
			err = manifest.Register(reg)
		}
	} else {
		err = shader.RegisterBuiltins(reg)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	opts := options{
		dialect:  d,
		only:     *only,
		defines:  shader.DefineMap(defines),
		validate: *validate,
		wgpu:     *describe,
		prewarm:  *prewarm,
		workers:  *workers,
		outDir:   *outDir,
	}
	if err := process(reg, manifest, opts, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func dialectList() string {
	names := make([]string, 0, len(shader.Dialects()))
	for _, d := range shader.Dialects() {
		names = append(names, string(d))
	}
	return strings.Join(names, ", ")
}

// process produces every requested variant and reports it. Failures of individual variants are
// reported and joined so one broken shader does not hide the rest.
func process(reg shader.Registry, manifest *config.Manifest, opts options, out io.Writer) error {
	if opts.prewarm {
		var reqs []shader.VariantRequest
		if manifest != nil {
			reqs = manifest.Requests(opts.dialect)
		} else {
			for _, name := range reg.Names() {
				reqs = append(reqs, shader.VariantRequest{Name: name, Dialect: opts.dialect})
			}
		}
		err := shader.Prewarm(reg, reqs, opts.workers)
		s := reg.Stats()
		fmt.Fprintf(out, "prewarmed %d requests: shaders=%d variants=%d misses=%d\n", len(reqs), s.Shaders, s.Variants, s.Misses)
		return err
	}

	names := reg.Names()
	if opts.only != "" {
		if !reg.Has(opts.only) {
			return fmt.Errorf("%w: %s", shader.ErrShaderNotFound, opts.only)
		}
		names = []string{opts.only}
	}

	var errs []error
	for _, name := range names {
		for _, defines := range variantDefines(manifest, name, opts.defines) {
			v, err := reg.GetVariant(name, opts.dialect, shader.WithDefines(defines))
			if errors.Is(err, shader.ErrDialectUnsupported) && opts.only == "" {
				continue
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				continue
			}
			if err := report(v, opts, out); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", v.Key, err))
			}
		}
	}
	return errors.Join(errs...)
}

// variantDefines lists the define sets to produce for name: the extra defines alone, then each
// manifest variant merged under them.
func variantDefines(manifest *config.Manifest, name string, extra shader.DefineMap) []shader.DefineMap {
	sets := []shader.DefineMap{extra}
	if manifest == nil {
		return sets
	}
	if e, ok := manifest.Entry(name); ok {
		for _, v := range e.Variants {
			sets = append(sets, shader.Merge(v, extra, true))
		}
	}
	return sets
}

func report(v *shader.ShaderVariants, opts options, out io.Writer) error {
	if v.Dialect == shader.DialectWGSL {
		if err := emit(out, opts.outDir, v.Key+".wgsl", v.WGSL.Code); err != nil {
			return err
		}
	} else {
		if src := v.VertexSource(); src != "" {
			if err := emit(out, opts.outDir, v.Key+".vert", src); err != nil {
				return err
			}
		}
		if src := v.FragmentSource(); src != "" {
			if err := emit(out, opts.outDir, v.Key+".frag", src); err != nil {
				return err
			}
		}
	}

	if opts.validate {
		spirv, err := naga.CompileWithOptions(v.WGSL.Code, naga.CompileOptions{Validate: true})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "// %s: valid, %d bytes of SPIR-V\n", v.Key, len(spirv))
	}
	if opts.wgpu {
		desc, err := webgpu.Describe(v, layoutFor(v.Defines), gputypes.PrimitiveTopologyTriangleList,
			backend.DefaultRenderState(), wgpu.TextureFormatBGRA8Unorm)
		if err != nil {
			return err
		}
		fmt.Fprint(out, desc.String())
	}
	return nil
}

// layoutFor builds the vertex layout a mesh carrying the attributes named by the HAS_* defines
// would have.
func layoutFor(defines shader.DefineMap) model.VertexLayout {
	names := []model.AttributeName{model.AttributePosition}
	for _, attr := range model.Attributes[1:] {
		if v, ok := defines[attr.Define()]; ok && v != shader.DefineFalse {
			names = append(names, attr)
		}
	}
	return model.NewVertexLayout(names...)
}

func emit(out io.Writer, dir, name, src string) error {
	if dir == "" {
		fmt.Fprintf(out, "// ---- %s ----\n%s\n", name, src)
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, safeName(name))
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		return err
	}
	fmt.Fprintln(out, path)
	return nil
}

// safeName replaces the characters variant keys use that are awkward in file names.
func safeName(name string) string {
	r := strings.NewReplacer("=", "-", ";", "_", "/", "_")
	return r.Replace(name)
}
