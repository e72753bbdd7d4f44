package light

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformsPackEachKind(t *testing.T) {
	lights := []Light{
		NewAmbient(WithColor(1, 1, 1), WithIntensity(0.2)),
		NewAmbient(WithColor(0, 0, 1), WithIntensity(0.5)),
		NewDirectional(mgl32.Vec3{0, -2, 0}, WithIntensity(2)),
		NewPoint(mgl32.Vec3{1, 2, 3}, WithColor(1, 0, 0), WithRange(10)),
		NewSpot(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{0, -1, 0}, 15, 30),
		NewPoint(mgl32.Vec3{9, 9, 9}, WithEnabled(false)),
	}
	u := Uniforms(lights)

	amb := u["uAmbientColor"].AsVec4()
	assert.InDelta(t, 0.2, amb[0], 1e-6)
	assert.InDelta(t, 0.7, amb[2], 1e-6)

	assert.Equal(t, int32(1), u["uNumDirLights"].AsInt())
	assert.Equal(t, int32(1), u["uNumPointLights"].AsInt(), "disabled lights are skipped")
	assert.Equal(t, int32(1), u["uNumSpotLights"].AsInt())

	dir := u["uLightDir"].AsVec4()
	assert.InDelta(t, -1, dir[1], 1e-6, "direction normalized")
	assert.Equal(t, mgl32.Vec4{2, 2, 2, 0}, u["uLightColor"].AsVec4(), "intensity premultiplied")

	assert.Len(t, u["uPointLightPosition"].AsFloats(), MaxLights*3, "arrays padded to capacity")
	assert.Equal(t, float32(10), u["uPointLightRange"].AsFloats()[0])

	inner := u["uSpotLightInnerCos"].AsFloats()[0]
	outer := u["uSpotLightOuterCos"].AsFloats()[0]
	assert.Greater(t, inner, outer)
}

func TestUniformsDropBeyondCapacity(t *testing.T) {
	var lights []Light
	for i := range MaxLights + 2 {
		lights = append(lights, NewPoint(mgl32.Vec3{float32(i), 0, 0}))
	}
	u := Uniforms(lights)
	assert.Equal(t, int32(MaxLights), u["uNumPointLights"].AsInt())
	assert.Len(t, u["uPointLightPosition"].AsFloats(), MaxLights*3)
}

func TestNoDirectionalLightDefaults(t *testing.T) {
	u := Uniforms(nil)
	assert.Equal(t, int32(0), u["uNumDirLights"].AsInt())
	assert.Equal(t, mgl32.Vec4{}, u["uLightColor"].AsVec4())
}

func TestNearest(t *testing.T) {
	far := NewPoint(mgl32.Vec3{10, 0, 0})
	near := NewPoint(mgl32.Vec3{1, 0, 0})
	sun := NewDirectional(mgl32.Vec3{0, -1, 0})
	in := []Light{far, near, sun}

	got := Nearest(in, mgl32.Vec3{}, 2)
	require.Len(t, got, 2)
	assert.Same(t, sun, got[0])
	assert.Same(t, near, got[1])
	assert.Same(t, far, in[0], "input untouched")
	assert.Len(t, Nearest(in, mgl32.Vec3{}, 0), 3)
}

func TestSpotConeClamped(t *testing.T) {
	s := NewSpot(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, 45, 20)
	assert.Equal(t, s.InnerCos, s.OuterCos)
	assert.Equal(t, mgl32.Vec3{0, -1, 0}, NewDirectional(mgl32.Vec3{}).Direction)
}
