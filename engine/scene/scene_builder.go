package scene

import (
	"github.com/Carmen-Shannon/oxy-gl/engine/light"
	"github.com/Carmen-Shannon/oxy-gl/engine/model"
)

// SceneBuilderOption is a functional option applied to a scene during construction via NewScene.
type SceneBuilderOption func(*scene)

// WithActive sets whether the scene starts active.
//
// Parameters:
//   - active: true if the scene should be rendered
//
// Returns:
//   - SceneBuilderOption: a function that applies the active option to a scene
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithModels adds models to the scene's draw list.
//
// Parameters:
//   - models: the models to add
//
// Returns:
//   - SceneBuilderOption: a function that applies the models option to a scene
func WithModels(models ...model.Model) SceneBuilderOption {
	return func(s *scene) {
		s.addLocked(models)
	}
}

// WithLights adds lights to the scene.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - SceneBuilderOption: a function that applies the lights option to a scene
func WithLights(lights ...light.Light) SceneBuilderOption {
	return func(s *scene) {
		s.addLightsLocked(lights)
	}
}
