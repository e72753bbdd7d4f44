package material

import "github.com/gogpu/gputypes"

// TextureBuilderOption is a function that configures a Texture during construction.
type TextureBuilderOption func(*Texture)

// WithUnit is an option builder that pins the texture to a texture unit.
//
// Parameters:
//   - unit: the texture unit index
//
// Returns:
//   - TextureBuilderOption: a function that applies the unit option to a texture
func WithUnit(unit int) TextureBuilderOption {
	return func(t *Texture) {
		t.unit = unit
	}
}

// WithSampler is an option builder that sets the sampling parameters of the texture.
//
// Parameters:
//   - desc: the sampler descriptor; defaults to linear filtering with clamped edges
//
// Returns:
//   - TextureBuilderOption: a function that applies the sampler option to a texture
func WithSampler(desc gputypes.SamplerDescriptor) TextureBuilderOption {
	return func(t *Texture) {
		t.sampler = desc
	}
}

// WithMipmaps is an option builder that requests a mipmap chain for the texture.
func WithMipmaps() TextureBuilderOption {
	return func(t *Texture) {
		t.mipmaps = true
	}
}
