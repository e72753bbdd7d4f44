// Package light describes the light sources of a scene and packs them into the uniform arrays the
// lit built-in shaders read.
package light

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Emitter holds the properties shared by every light kind.
type Emitter struct {
	// Color is the linear RGB color of the light.
	Color mgl32.Vec3

	// Intensity scales Color. The packed uniform color is Color * Intensity.
	Intensity float32

	// Range is the distance at which point and spot lights fade to zero. Zero or less selects
	// inverse-square falloff. Ignored by ambient and directional lights.
	Range float32

	// Enabled excludes the light from packing when false.
	Enabled bool
}

// Radiance returns the premultiplied color of the emitter.
func (e Emitter) Radiance() mgl32.Vec3 {
	return e.Color.Mul(e.Intensity)
}

// Light is one of *Ambient, *Directional, *Point or *Spot.
type Light interface {
	emitter() *Emitter
}

// Ambient adds a constant term to every lit fragment.
type Ambient struct {
	Emitter
}

// Directional is a light with no position, such as the sun. Direction points from the light
// toward the scene.
type Directional struct {
	Emitter
	Direction mgl32.Vec3
}

// Point emits in all directions from Position.
type Point struct {
	Emitter
	Position mgl32.Vec3
}

// Spot emits in a cone from Position along Direction. InnerCos and OuterCos are the cosines of
// the full-intensity and cut-off half angles.
type Spot struct {
	Emitter
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	InnerCos  float32
	OuterCos  float32
}

var (
	_ Light = &Ambient{}
	_ Light = &Directional{}
	_ Light = &Point{}
	_ Light = &Spot{}
)

func (l *Ambient) emitter() *Emitter     { return &l.Emitter }
func (l *Directional) emitter() *Emitter { return &l.Emitter }
func (l *Point) emitter() *Emitter       { return &l.Emitter }
func (l *Spot) emitter() *Emitter        { return &l.Emitter }

// EmitterOf returns the shared properties of l.
func EmitterOf(l Light) *Emitter {
	return l.emitter()
}

func newEmitter(options []LightBuilderOption) Emitter {
	e := Emitter{Color: mgl32.Vec3{1, 1, 1}, Intensity: 1, Enabled: true}
	for _, opt := range options {
		opt(&e)
	}
	return e
}

// NewAmbient creates an ambient light. Ambient lights default to a dim intensity of 0.1.
//
// Parameters:
//   - options: variadic list of LightBuilderOption functions
//
// Returns:
//   - *Ambient: a new ambient light
func NewAmbient(options ...LightBuilderOption) *Ambient {
	return &Ambient{Emitter: newEmitter(append([]LightBuilderOption{WithIntensity(0.1)}, options...))}
}

// NewDirectional creates a directional light.
//
// Parameters:
//   - direction: the direction the light travels; normalized before storing
//   - options: variadic list of LightBuilderOption functions
//
// Returns:
//   - *Directional: a new directional light
func NewDirectional(direction mgl32.Vec3, options ...LightBuilderOption) *Directional {
	return &Directional{Emitter: newEmitter(options), Direction: normalize(direction)}
}

// NewPoint creates a point light.
//
// Parameters:
//   - position: the world-space position
//   - options: variadic list of LightBuilderOption functions
//
// Returns:
//   - *Point: a new point light
func NewPoint(position mgl32.Vec3, options ...LightBuilderOption) *Point {
	return &Point{Emitter: newEmitter(options), Position: position}
}

// NewSpot creates a spot light with the given cone angles in degrees.
//
// Parameters:
//   - position: the world-space position
//   - direction: the cone axis; normalized before storing
//   - innerDeg: the half angle of full intensity
//   - outerDeg: the half angle where the light reaches zero
//   - options: variadic list of LightBuilderOption functions
//
// Returns:
//   - *Spot: a new spot light
func NewSpot(position, direction mgl32.Vec3, innerDeg, outerDeg float32, options ...LightBuilderOption) *Spot {
	s := &Spot{Emitter: newEmitter(options), Position: position, Direction: normalize(direction)}
	s.SetCone(innerDeg, outerDeg)
	return s
}

// SetCone sets the cone half angles in degrees. The inner angle is clamped to the outer angle.
func (s *Spot) SetCone(innerDeg, outerDeg float32) {
	innerDeg = min(innerDeg, outerDeg)
	s.InnerCos = float32(math.Cos(float64(mgl32.DegToRad(innerDeg))))
	s.OuterCos = float32(math.Cos(float64(mgl32.DegToRad(outerDeg))))
}

func normalize(v mgl32.Vec3) mgl32.Vec3 {
	if v.Len() == 0 {
		return mgl32.Vec3{0, -1, 0}
	}
	return v.Normalize()
}
