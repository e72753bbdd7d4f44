package shader

// GLSLSource holds the stage sources of a GLSL shader and the defines declared alongside them.
type GLSLSource struct {
	// Vertex is the vertex-stage source. Empty when the bundle has no vertex stage.
	Vertex string

	// Fragment is the fragment-stage source. Empty when the bundle has no fragment stage.
	Fragment string

	// Defines are the default defines embedded at registration time.
	Defines DefineMap
}

// WGSLSource holds a WGSL module containing every entry point of the shader.
type WGSLSource struct {
	// Code is the WGSL module source. Empty when the bundle has no WGSL form.
	Code string

	// Defines are the default defines embedded at registration time.
	Defines DefineMap

	// VertexEntryPoint names the vertex entry point. Defaults to "vs_main".
	VertexEntryPoint string

	// FragmentEntryPoint names the fragment entry point. Defaults to "fs_main".
	FragmentEntryPoint string
}

// ShaderVariants is a named bundle of shader sources. A registered bundle holds raw sources for
// every dialect family it supports; a bundle returned by Registry.GetVariant holds the processed
// sources of exactly one dialect and must be treated as immutable.
type ShaderVariants struct {
	// Name is the registered shader name.
	Name string

	// Dialect is the dialect the sources were processed for. Empty on registered bundles.
	Dialect Dialect

	// Key is the variant key (see DeriveKey). Empty on registered bundles.
	Key string

	// Defines is the merged define set the variant was processed with. Nil on registered bundles.
	Defines DefineMap

	// GLSL holds the GLSL sources, if any.
	GLSL *GLSLSource

	// WGSL holds the WGSL module, if any.
	WGSL *WGSLSource
}

// VertexSource returns the processed vertex-stage source for the variant's dialect.
func (v *ShaderVariants) VertexSource() string {
	if v.Dialect == DialectWGSL {
		if v.WGSL == nil {
			return ""
		}
		return v.WGSL.Code
	}
	if v.GLSL == nil {
		return ""
	}
	return v.GLSL.Vertex
}

// FragmentSource returns the processed fragment-stage source for the variant's dialect.
func (v *ShaderVariants) FragmentSource() string {
	if v.Dialect == DialectWGSL {
		if v.WGSL == nil {
			return ""
		}
		return v.WGSL.Code
	}
	if v.GLSL == nil {
		return ""
	}
	return v.GLSL.Fragment
}

// DefaultDefines returns the defines embedded in the bundle for the family of dialect.
func (v *ShaderVariants) DefaultDefines(dialect Dialect) DefineMap {
	if dialect == DialectWGSL {
		if v.WGSL == nil {
			return nil
		}
		return v.WGSL.Defines
	}
	if v.GLSL == nil {
		return nil
	}
	return v.GLSL.Defines
}

// supports reports whether the bundle holds sources for the family of dialect.
func (v *ShaderVariants) supports(dialect Dialect) bool {
	if dialect == DialectWGSL {
		return v.WGSL != nil && v.WGSL.Code != ""
	}
	return v.GLSL != nil && (v.GLSL.Vertex != "" || v.GLSL.Fragment != "")
}

func entryPointOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
