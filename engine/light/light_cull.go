package light

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// Nearest orders lights by distance from origin and keeps at most limit of them. Ambient and
// directional lights have no position and sort first. The input slice is not modified.
//
// Parameters:
//   - lights: the candidate lights
//   - origin: the point distances are measured from, usually the camera position
//   - limit: the maximum number of lights returned; zero or less keeps all
//
// Returns:
//   - []Light: the nearest lights, closest first
func Nearest(lights []Light, origin mgl32.Vec3, limit int) []Light {
	out := slices.Clone(lights)
	slices.SortStableFunc(out, func(a, b Light) int {
		da, db := distanceSq(a, origin), distanceSq(b, origin)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		default:
			return 0
		}
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func distanceSq(l Light, origin mgl32.Vec3) float32 {
	var d mgl32.Vec3
	switch lt := l.(type) {
	case *Point:
		d = lt.Position.Sub(origin)
	case *Spot:
		d = lt.Position.Sub(origin)
	default:
		return 0
	}
	return d.Dot(d)
}
