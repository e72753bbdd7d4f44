package light

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/uniforms"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxLights is the number of lights of each positional or directional kind the lit shaders evaluate.
const MaxLights = shader.MaxLights

type spotArrays struct {
	position, direction, color []mgl32.Vec3
	lightRange, innerCos, outerCos []float32
}

// Uniforms packs the enabled lights into the uniform arrays of the lit shaders. Ambient lights are
// summed into uAmbientColor; each other kind fills up to MaxLights array entries plus a count.
// Arrays are always MaxLights long and zero padded. The first directional light is also exposed
// as uLightDir/uLightColor for single-light WGSL shaders.
//
// Parameters:
//   - lights: the scene lights, in priority order
//
// Returns:
//   - map[string]uniforms.Value: uniform name to value
func Uniforms(lights []Light) map[string]uniforms.Value {
	var ambient mgl32.Vec3
	dirDir := make([]mgl32.Vec3, 0, MaxLights)
	dirColor := make([]mgl32.Vec3, 0, MaxLights)
	pointPos := make([]mgl32.Vec3, 0, MaxLights)
	pointColor := make([]mgl32.Vec3, 0, MaxLights)
	pointRange := make([]float32, 0, MaxLights)
	var spot spotArrays
	dropped := 0

	for _, l := range lights {
		e := l.emitter()
		if !e.Enabled {
			continue
		}
		switch lt := l.(type) {
		case *Ambient:
			ambient = ambient.Add(e.Radiance())
		case *Directional:
			if len(dirDir) == MaxLights {
				dropped++
				continue
			}
			dirDir = append(dirDir, lt.Direction)
			dirColor = append(dirColor, e.Radiance())
		case *Point:
			if len(pointPos) == MaxLights {
				dropped++
				continue
			}
			pointPos = append(pointPos, lt.Position)
			pointColor = append(pointColor, e.Radiance())
			pointRange = append(pointRange, e.Range)
		case *Spot:
			if len(spot.position) == MaxLights {
				dropped++
				continue
			}
			spot.position = append(spot.position, lt.Position)
			spot.direction = append(spot.direction, lt.Direction)
			spot.color = append(spot.color, e.Radiance())
			spot.lightRange = append(spot.lightRange, e.Range)
			spot.innerCos = append(spot.innerCos, lt.InnerCos)
			spot.outerCos = append(spot.outerCos, lt.OuterCos)
		}
	}
	if dropped > 0 {
		common.Logger().Debug("lights beyond shader capacity dropped", slog.Int("dropped", dropped), slog.Int("max", MaxLights))
	}

	out := map[string]uniforms.Value{
		"uAmbientColor": uniforms.Vec3(ambient),

		"uNumDirLights":      uniforms.Int(int32(len(dirDir))),
		"uDirLightDirection": uniforms.Vec3s(padVec3(dirDir)),
		"uDirLightColor":     uniforms.Vec3s(padVec3(dirColor)),

		"uNumPointLights":     uniforms.Int(int32(len(pointPos))),
		"uPointLightPosition": uniforms.Vec3s(padVec3(pointPos)),
		"uPointLightColor":    uniforms.Vec3s(padVec3(pointColor)),
		"uPointLightRange":    uniforms.Floats(padFloat(pointRange)),

		"uNumSpotLights":      uniforms.Int(int32(len(spot.position))),
		"uSpotLightPosition":  uniforms.Vec3s(padVec3(spot.position)),
		"uSpotLightDirection": uniforms.Vec3s(padVec3(spot.direction)),
		"uSpotLightColor":     uniforms.Vec3s(padVec3(spot.color)),
		"uSpotLightRange":     uniforms.Floats(padFloat(spot.lightRange)),
		"uSpotLightInnerCos":  uniforms.Floats(padFloat(spot.innerCos)),
		"uSpotLightOuterCos":  uniforms.Floats(padFloat(spot.outerCos)),
	}
	if len(dirDir) > 0 {
		out["uLightDir"] = uniforms.Vec3(dirDir[0])
		out["uLightColor"] = uniforms.Vec3(dirColor[0])
	} else {
		out["uLightDir"] = uniforms.Vec3(mgl32.Vec3{0, -1, 0})
		out["uLightColor"] = uniforms.Vec3(mgl32.Vec3{})
	}
	return out
}

func padVec3(v []mgl32.Vec3) []mgl32.Vec3 {
	for len(v) < MaxLights {
		v = append(v, mgl32.Vec3{})
	}
	return v
}

func padFloat(v []float32) []float32 {
	for len(v) < MaxLights {
		v = append(v, 0)
	}
	return v
}
