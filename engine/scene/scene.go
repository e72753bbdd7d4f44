package scene

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-gl/engine/camera"
	"github.com/Carmen-Shannon/oxy-gl/engine/light"
	"github.com/Carmen-Shannon/oxy-gl/engine/model"
)

// Scene is an ordered list of models and lights plus the camera they are viewed through.
// Scenes can be hot-swapped via the Active flag to switch between different views or levels.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Add appends models to the draw list. Models already in the scene are skipped.
	//
	// Parameters:
	//   - models: the models to add
	Add(models ...model.Model)

	// Remove removes a model from the draw list.
	//
	// Parameters:
	//   - m: the model to remove
	//
	// Returns:
	//   - bool: true if the model was in the scene
	Remove(m model.Model) bool

	// Get returns the first model with the given name, or nil.
	//
	// Parameters:
	//   - name: the model name
	//
	// Returns:
	//   - model.Model: the model, or nil if none matches
	Get(name string) model.Model

	// Models returns a snapshot of the draw list in insertion order.
	Models() []model.Model

	// Count returns the number of models.
	Count() int

	// Clear removes every model and light.
	Clear()

	// AddLight appends lights to the scene.
	//
	// Parameters:
	//   - lights: the lights to add
	AddLight(lights ...light.Light)

	// RemoveLight removes a light from the scene.
	//
	// Parameters:
	//   - l: the light to remove
	//
	// Returns:
	//   - bool: true if the light was in the scene
	RemoveLight(l light.Light) bool

	// Lights returns a snapshot of the scene lights in insertion order.
	Lights() []light.Light
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool
	cam    camera.Camera

	models []model.Model
	lights []light.Light
}

var _ Scene = &scene{}

// NewScene creates an empty, active Scene.
//
// Parameters:
//   - name: the scene identifier
//   - cam: the camera the scene is viewed through
//   - options: variadic list of SceneBuilderOption functions
//
// Returns:
//   - Scene: the new scene
func NewScene(name string, cam camera.Camera, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:     &sync.RWMutex{},
		name:   name,
		active: true,
		cam:    cam,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Add(models ...model.Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(models)
}

func (s *scene) addLocked(models []model.Model) {
	for _, m := range models {
		if m == nil || slices.Contains(s.models, m) {
			continue
		}
		s.models = append(s.models, m)
	}
}

func (s *scene) Remove(m model.Model) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.models, m)
	if i < 0 {
		return false
	}
	s.models = slices.Delete(s.models, i, i+1)
	return true
}

func (s *scene) Get(name string) model.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.models {
		if m.Name() == name {
			return m
		}
	}
	return nil
}

func (s *scene) Models() []model.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.models)
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.models)
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models = nil
	s.lights = nil
}

func (s *scene) AddLight(lights ...light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLightsLocked(lights)
}

func (s *scene) addLightsLocked(lights []light.Light) {
	for _, l := range lights {
		if l == nil || slices.Contains(s.lights, l) {
			continue
		}
		s.lights = append(s.lights, l)
	}
}

func (s *scene) RemoveLight(l light.Light) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.lights, l)
	if i < 0 {
		return false
	}
	s.lights = slices.Delete(s.lights, i, i+1)
	return true
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lights)
}
