// reflect.go implements WGSL reflection on top of the naga front end. The module is parsed,
// lowered and validated, then the resulting IR is walked to report entry points, resource
// bindings, flattened uniform fields and vertex input locations. Type names are reported in
// GLSL spelling so that GLSL and WGSL programs share one uniform vocabulary.
package shader

import (
	"fmt"
	"sort"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// BindingKind classifies a WGSL resource binding.
type BindingKind string

const (
	BindingUniformBuffer BindingKind = "uniform"
	BindingStorageBuffer BindingKind = "storage"
	BindingTexture       BindingKind = "texture"
	BindingSampler       BindingKind = "sampler"
)

// EntryPoint is a reflected shader entry point.
type EntryPoint struct {
	Name  string
	Stage Stage
}

// ResourceBinding is a reflected @group/@binding resource.
type ResourceBinding struct {
	Name    string
	Group   uint32
	Binding uint32
	Kind    BindingKind
	// Type is the GLSL spelling of the resource type, e.g. "sampler2D" or "struct".
	Type string
	// Size is the byte span of a buffer binding. Zero for textures and samplers.
	Size uint32
}

// UniformField is one member of a uniform buffer, or a bare uniform global.
type UniformField struct {
	Name    string
	Block   string
	Type    string
	Count   int
	Offset  uint32
	Group   uint32
	Binding uint32
}

// VertexInput is a @location input of a vertex entry point.
type VertexInput struct {
	Name     string
	Location uint32
	Type     string
}

// WGSLReflection is the result of ReflectWGSL.
type WGSLReflection struct {
	EntryPoints  []EntryPoint
	Bindings     []ResourceBinding
	Uniforms     []UniformField
	VertexInputs []VertexInput
}

// EntryPoint returns the name of the first entry point for stage, if any.
func (r *WGSLReflection) EntryPoint(stage Stage) (string, bool) {
	for _, ep := range r.EntryPoints {
		if ep.Stage == stage {
			return ep.Name, true
		}
	}
	return "", false
}

// ReflectWGSL parses, lowers and validates a WGSL module and reports its interface.
//
// Parameters:
//   - code: the processed WGSL source
//
// Returns:
//   - *WGSLReflection: the reflected interface
//   - error: an error if the module does not parse, lower or validate
func ReflectWGSL(code string) (*WGSLReflection, error) {
	module, err := CompileWGSL(code)
	if err != nil {
		return nil, err
	}

	r := &WGSLReflection{}
	for _, ep := range module.EntryPoints {
		var stage Stage
		switch ep.Stage {
		case ir.StageVertex:
			stage = StageVertex
		case ir.StageFragment:
			stage = StageFragment
		default:
			continue
		}
		r.EntryPoints = append(r.EntryPoints, EntryPoint{Name: ep.Name, Stage: stage})
		if stage == StageVertex {
			r.VertexInputs = append(r.VertexInputs, vertexInputs(module, ep.Function.Arguments)...)
		}
	}

	for _, gv := range module.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		rb := ResourceBinding{
			Name:    gv.Name,
			Group:   gv.Binding.Group,
			Binding: gv.Binding.Binding,
			Type:    typeName(module, gv.Type),
		}
		switch gv.Space {
		case ir.SpaceUniform:
			rb.Kind = BindingUniformBuffer
			rb.Size = typeSpan(module, gv.Type)
			r.Uniforms = append(r.Uniforms, uniformFields(module, gv)...)
		case ir.SpaceStorage:
			rb.Kind = BindingStorageBuffer
			rb.Size = typeSpan(module, gv.Type)
		case ir.SpaceHandle:
			if _, ok := module.Types[gv.Type].Inner.(ir.SamplerType); ok {
				rb.Kind = BindingSampler
			} else {
				rb.Kind = BindingTexture
			}
		default:
			continue
		}
		r.Bindings = append(r.Bindings, rb)
	}

	sort.SliceStable(r.Bindings, func(i, j int) bool {
		if r.Bindings[i].Group != r.Bindings[j].Group {
			return r.Bindings[i].Group < r.Bindings[j].Group
		}
		return r.Bindings[i].Binding < r.Bindings[j].Binding
	})
	sort.SliceStable(r.VertexInputs, func(i, j int) bool {
		return r.VertexInputs[i].Location < r.VertexInputs[j].Location
	})
	return r, nil
}

// CompileWGSL runs the naga front end over code and returns the validated IR module.
//
// Parameters:
//   - code: the WGSL source
//
// Returns:
//   - *ir.Module: the validated module
//   - error: the first parse, lowering or validation failure
func CompileWGSL(code string) (*ir.Module, error) {
	ast, err := naga.Parse(code)
	if err != nil {
		return nil, fmt.Errorf("wgsl: %w", err)
	}
	module, err := naga.LowerWithSource(ast, code)
	if err != nil {
		return nil, fmt.Errorf("wgsl: lowering: %w", err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("wgsl: validation: %w", err)
	}
	if len(verrs) > 0 {
		return nil, fmt.Errorf("wgsl: validation: %w", verrs[0])
	}
	return module, nil
}

func vertexInputs(module *ir.Module, args []ir.FunctionArgument) []VertexInput {
	var inputs []VertexInput
	for _, arg := range args {
		if arg.Binding != nil {
			if loc, ok := (*arg.Binding).(ir.LocationBinding); ok {
				inputs = append(inputs, VertexInput{Name: arg.Name, Location: loc.Location, Type: typeName(module, arg.Type)})
			}
			continue
		}
		st, ok := module.Types[arg.Type].Inner.(ir.StructType)
		if !ok {
			continue
		}
		for _, m := range st.Members {
			if m.Binding == nil {
				continue
			}
			if loc, ok := (*m.Binding).(ir.LocationBinding); ok {
				inputs = append(inputs, VertexInput{Name: m.Name, Location: loc.Location, Type: typeName(module, m.Type)})
			}
		}
	}
	return inputs
}

func uniformFields(module *ir.Module, gv ir.GlobalVariable) []UniformField {
	st, ok := module.Types[gv.Type].Inner.(ir.StructType)
	if !ok {
		name, count := elementType(module, gv.Type)
		return []UniformField{{
			Name: gv.Name, Block: gv.Name, Type: name, Count: count,
			Group: gv.Binding.Group, Binding: gv.Binding.Binding,
		}}
	}

	fields := make([]UniformField, 0, len(st.Members))
	for _, m := range st.Members {
		name, count := elementType(module, m.Type)
		fields = append(fields, UniformField{
			Name:    m.Name,
			Block:   gv.Name,
			Type:    name,
			Count:   count,
			Offset:  m.Offset,
			Group:   gv.Binding.Group,
			Binding: gv.Binding.Binding,
		})
	}
	return fields
}

// elementType unwraps fixed-size arrays and returns the element type name and element count.
func elementType(module *ir.Module, h ir.TypeHandle) (string, int) {
	if arr, ok := module.Types[h].Inner.(ir.ArrayType); ok {
		count := 0
		if arr.Size.Constant != nil {
			count = int(*arr.Size.Constant)
		}
		return typeName(module, arr.Base), count
	}
	return typeName(module, h), 1
}

func typeSpan(module *ir.Module, h ir.TypeHandle) uint32 {
	if st, ok := module.Types[h].Inner.(ir.StructType); ok {
		return st.Span
	}
	return 0
}

func typeName(module *ir.Module, h ir.TypeHandle) string {
	if int(h) >= len(module.Types) {
		return "unknown"
	}
	switch t := module.Types[h].Inner.(type) {
	case ir.ScalarType:
		return scalarName(t.Kind)
	case ir.VectorType:
		return vectorPrefix(t.Scalar.Kind) + fmt.Sprintf("vec%d", t.Size)
	case ir.MatrixType:
		if t.Columns == t.Rows {
			return fmt.Sprintf("mat%d", t.Columns)
		}
		return fmt.Sprintf("mat%dx%d", t.Columns, t.Rows)
	case ir.ArrayType:
		return typeName(module, t.Base) + "[]"
	case ir.StructType:
		return "struct"
	case ir.SamplerType:
		if t.Comparison {
			return "samplerShadow"
		}
		return "sampler"
	case ir.ImageType:
		switch t.Dim {
		case ir.DimCube:
			return "samplerCube"
		case ir.Dim3D:
			return "sampler3D"
		case ir.Dim1D:
			return "sampler1D"
		default:
			return "sampler2D"
		}
	default:
		return "unknown"
	}
}

func scalarName(kind ir.ScalarKind) string {
	switch kind {
	case ir.ScalarSint, ir.ScalarAbstractInt:
		return "int"
	case ir.ScalarUint:
		return "uint"
	case ir.ScalarBool:
		return "bool"
	default:
		return "float"
	}
}

func vectorPrefix(kind ir.ScalarKind) string {
	switch kind {
	case ir.ScalarSint, ir.ScalarAbstractInt:
		return "i"
	case ir.ScalarUint:
		return "u"
	case ir.ScalarBool:
		return "b"
	default:
		return ""
	}
}
