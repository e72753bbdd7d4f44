package backend

import "fmt"

// Handle is a generation-checked reference into an Arena. The zero value never refers to a live
// resource, so an unset handle field is always detectably invalid.
type Handle[T any] struct {
	index      uint32
	generation uint32
}

// Valid reports whether h was ever issued by an arena. A valid handle may still be stale.
func (h Handle[T]) Valid() bool {
	return h.generation != 0
}

// Index returns the slot index of h.
func (h Handle[T]) Index() uint32 {
	return h.index
}

// Generation returns the slot generation h was issued with.
func (h Handle[T]) Generation() uint32 {
	return h.generation
}

func (h Handle[T]) String() string {
	if !h.Valid() {
		return "handle(nil)"
	}
	return fmt.Sprintf("handle(%d:%d)", h.index, h.generation)
}

type programTag struct{}
type bufferTag struct{}
type textureTag struct{}
type vertexArrayTag struct{}

type (
	// ProgramHandle references a linked shader program.
	ProgramHandle = Handle[programTag]

	// BufferHandle references a vertex or index buffer.
	BufferHandle = Handle[bufferTag]

	// TextureHandle references a 2D texture.
	TextureHandle = Handle[textureTag]

	// VertexArrayHandle references a vertex array object binding a program's attributes to buffers.
	VertexArrayHandle = Handle[vertexArrayTag]
)

// Arena aliases keyed by resource kind, for context implementations outside this package.
type (
	ProgramArena[V any]     = Arena[programTag, V]
	BufferArena[V any]      = Arena[bufferTag, V]
	TextureArena[V any]     = Arena[textureTag, V]
	VertexArrayArena[V any] = Arena[vertexArrayTag, V]
)

type slot[V any] struct {
	value      V
	generation uint32
	live       bool
}

// Arena stores values addressed by generation-checked handles. Removed slots are reused with a
// bumped generation, so handles to removed values are reported stale instead of aliasing a new value.
// Arena is not safe for concurrent use.
type Arena[K any, V any] struct {
	slots []slot[V]
	free  []uint32
	count int
}

// Insert stores v and returns its handle.
func (a *Arena[K, V]) Insert(v V) Handle[K] {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.value = v
		s.live = true
		a.count++
		return Handle[K]{index: idx, generation: s.generation}
	}
	a.slots = append(a.slots, slot[V]{value: v, generation: 1, live: true})
	a.count++
	return Handle[K]{index: uint32(len(a.slots) - 1), generation: 1}
}

// Get returns the value for h, or false if h is invalid or stale.
func (a *Arena[K, V]) Get(h Handle[K]) (V, bool) {
	var zero V
	if !h.Valid() || int(h.index) >= len(a.slots) {
		return zero, false
	}
	s := a.slots[h.index]
	if !s.live || s.generation != h.generation {
		return zero, false
	}
	return s.value, true
}

// Remove deletes the value for h and returns it, or false if h is invalid or stale.
func (a *Arena[K, V]) Remove(h Handle[K]) (V, bool) {
	v, ok := a.Get(h)
	if !ok {
		return v, false
	}
	s := &a.slots[h.index]
	var zero V
	s.value = zero
	s.live = false
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	a.free = append(a.free, h.index)
	a.count--
	return v, true
}

// Len returns the number of live values.
func (a *Arena[K, V]) Len() int {
	return a.count
}

// Each calls fn for every live value in slot order until fn returns false.
func (a *Arena[K, V]) Each(fn func(h Handle[K], v V) bool) {
	for i, s := range a.slots {
		if !s.live {
			continue
		}
		if !fn(Handle[K]{index: uint32(i), generation: s.generation}, s.value) {
			return
		}
	}
}
