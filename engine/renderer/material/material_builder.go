package material

import "github.com/gogpu/gputypes"

// MaterialBuilderOption is a function that configures the Surface of a material during construction.
type MaterialBuilderOption func(*Surface)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(s *Surface) {
		s.Name = name
	}
}

// WithShader is an option builder that replaces the built-in shader of the material kind.
//
// Parameters:
//   - name: the registered shader name
//
// Returns:
//   - MaterialBuilderOption: a function that applies the shader option to a material
func WithShader(name string) MaterialBuilderOption {
	return func(s *Surface) {
		s.Shader = name
	}
}

// WithDepthTest is an option builder that enables or disables depth testing.
//
// Parameters:
//   - enabled: whether fragments are depth tested
//
// Returns:
//   - MaterialBuilderOption: a function that applies the depth test option to a material
func WithDepthTest(enabled bool) MaterialBuilderOption {
	return func(s *Surface) {
		s.DepthTest = enabled
	}
}

// WithDepthWrite is an option builder that enables or disables depth writes.
//
// Parameters:
//   - enabled: whether fragments write depth
//
// Returns:
//   - MaterialBuilderOption: a function that applies the depth write option to a material
func WithDepthWrite(enabled bool) MaterialBuilderOption {
	return func(s *Surface) {
		s.DepthWrite = enabled
	}
}

// WithDepthCompare is an option builder that sets the depth comparison function.
//
// Parameters:
//   - compare: the comparison function
//
// Returns:
//   - MaterialBuilderOption: a function that applies the depth compare option to a material
func WithDepthCompare(compare gputypes.CompareFunction) MaterialBuilderOption {
	return func(s *Surface) {
		s.DepthCompare = compare
	}
}

// WithTransparent is an option builder that marks the material as alpha blended.
//
// Returns:
//   - MaterialBuilderOption: a function that applies the transparency option to a material
func WithTransparent() MaterialBuilderOption {
	return func(s *Surface) {
		s.Transparent = true
	}
}

// WithDoubleSided is an option builder that disables back-face culling for the material.
//
// Returns:
//   - MaterialBuilderOption: a function that applies the double-sided option to a material
func WithDoubleSided() MaterialBuilderOption {
	return func(s *Surface) {
		s.DoubleSided = true
	}
}
