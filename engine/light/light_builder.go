package light

import "github.com/go-gl/mathgl/mgl32"

// LightBuilderOption is a function that configures the Emitter of a light during construction.
type LightBuilderOption func(*Emitter)

// WithColor is an option builder that sets the RGB color of the light.
//
// Parameters:
//   - r: the red color component
//   - g: the green color component
//   - b: the blue color component
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a light
func WithColor(r, g, b float32) LightBuilderOption {
	return func(e *Emitter) {
		e.Color = mgl32.Vec3{r, g, b}
	}
}

// WithIntensity is an option builder that sets the scalar intensity multiplier.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - LightBuilderOption: a function that applies the intensity option to a light
func WithIntensity(intensity float32) LightBuilderOption {
	return func(e *Emitter) {
		e.Intensity = intensity
	}
}

// WithRange is an option builder that sets the falloff range of a point or spot light.
//
// Parameters:
//   - lightRange: the distance at which the light reaches zero; zero selects inverse-square falloff
//
// Returns:
//   - LightBuilderOption: a function that applies the range option to a light
func WithRange(lightRange float32) LightBuilderOption {
	return func(e *Emitter) {
		e.Range = lightRange
	}
}

// WithEnabled is an option builder that sets whether the light contributes to shading.
//
// Parameters:
//   - enabled: false excludes the light from packing
//
// Returns:
//   - LightBuilderOption: a function that applies the enabled option to a light
func WithEnabled(enabled bool) LightBuilderOption {
	return func(e *Emitter) {
		e.Enabled = enabled
	}
}
