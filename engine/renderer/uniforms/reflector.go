package uniforms

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend"
)

// slot is one dispatch entry. It holds only the location and reflected type; the value is
// supplied at call time.
type slot struct {
	location int32
	typ      backend.UniformType
	size     int
}

// Reflector maps logical uniform names of one program to typed graphics calls. The table is
// built once and never changes; a relinked program needs a new Reflector.
//
// Set issues calls against the current program, so callers bind the program first.
type Reflector struct {
	ctx     backend.Context
	program backend.ProgramHandle
	slots   map[string]slot
	names   []string
}

// NewReflector enumerates the active uniforms of program and resolves their locations.
// Array uniforms are registered under their base name, so "uLights[0]" and "uLights" address
// the same slot. Built-in gl_ uniforms and uniforms without a location are skipped.
//
// Parameters:
//   - ctx: the context that compiled program
//   - program: the linked program
//
// Returns:
//   - *Reflector: the dispatch table
func NewReflector(ctx backend.Context, program backend.ProgramHandle) *Reflector {
	r := &Reflector{ctx: ctx, program: program, slots: make(map[string]slot)}
	for _, u := range ctx.ActiveUniforms(program) {
		name := baseName(u.Name)
		if strings.HasPrefix(name, "gl_") {
			continue
		}
		if _, ok := r.slots[name]; ok {
			continue
		}
		loc := ctx.UniformLocation(program, u.Name)
		if loc < 0 {
			common.Logger().Debug("uniform has no location", slog.String("uniform", u.Name))
			continue
		}
		r.slots[name] = slot{location: loc, typ: u.Type, size: max(u.Size, 1)}
		r.names = append(r.names, name)
	}
	slices.Sort(r.names)
	return r
}

func baseName(name string) string {
	if i := strings.IndexByte(name, '['); i > 0 {
		return name[:i]
	}
	return name
}

// Program returns the program the table was built for.
func (r *Reflector) Program() backend.ProgramHandle {
	return r.program
}

// Has reports whether the program consumes the named uniform.
func (r *Reflector) Has(name string) bool {
	_, ok := r.slots[baseName(name)]
	return ok
}

// Names returns the logical uniform names in sorted order.
func (r *Reflector) Names() []string {
	return slices.Clone(r.names)
}

// Len returns the number of dispatch entries.
func (r *Reflector) Len() int {
	return len(r.slots)
}

// Type returns the reflected type and array size of a uniform.
func (r *Reflector) Type(name string) (backend.UniformType, int, bool) {
	s, ok := r.slots[baseName(name)]
	return s.typ, s.size, ok
}

// SetAll dispatches every value in sorted name order.
func (r *Reflector) SetAll(values map[string]Value) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		r.Set(name, values[name])
	}
}

// Set dispatches v to the slot registered under name. A name the program does not consume is a
// no-op, as is a value whose kind does not fit the slot.
//
// Parameters:
//   - name: the logical uniform name, with or without an array suffix
//   - v: the value to upload
func (r *Reflector) Set(name string, v Value) {
	s, ok := r.slots[baseName(name)]
	if !ok || !v.Valid() {
		return
	}
	if !r.dispatch(name, s, v) {
		common.Logger().Debug("uniform value does not fit slot",
			slog.String("uniform", name),
			slog.String("slot", s.typ.String()),
			slog.String("value", v.kind.String()))
	}
}

func (r *Reflector) dispatch(name string, s slot, v Value) bool {
	ctx, loc := r.ctx, s.location
	switch s.typ {
	case backend.UniformFloat:
		switch v.kind {
		case KindFloat:
			ctx.Uniform1f(loc, v.scalar)
		case KindInt, KindBool:
			ctx.Uniform1f(loc, float32(v.i))
		case KindFloats:
			ctx.Uniform1fv(loc, clamp(v.floats, s.size))
		default:
			return false
		}
	case backend.UniformInt, backend.UniformBool:
		switch v.kind {
		case KindInt, KindBool:
			ctx.Uniform1i(loc, v.i)
		default:
			return false
		}
	case backend.UniformVec2:
		if v.kind != KindVec2 {
			return false
		}
		ctx.Uniform2f(loc, v.vec[0], v.vec[1])
	case backend.UniformVec3:
		switch v.kind {
		case KindVec3:
			ctx.Uniform3f(loc, v.vec[0], v.vec[1], v.vec[2])
		case KindVec3s:
			ctx.Uniform3fv(loc, clamp(v.floats, s.size*3))
		default:
			return false
		}
	case backend.UniformVec4:
		switch v.kind {
		case KindVec4:
			ctx.Uniform4f(loc, v.vec[0], v.vec[1], v.vec[2], v.vec[3])
		case KindVec3:
			ctx.Uniform4f(loc, v.vec[0], v.vec[1], v.vec[2], 1.0)
		default:
			return false
		}
	case backend.UniformMat3:
		switch v.kind {
		case KindMat3:
			ctx.UniformMatrix3fv(loc, v.mat3)
		case KindMat4:
			ctx.UniformMatrix3fv(loc, v.mat4.Mat3())
		default:
			return false
		}
	case backend.UniformMat4:
		if v.kind != KindMat4 {
			return false
		}
		ctx.UniformMatrix4fv(loc, v.mat4)
	case backend.UniformSampler2D, backend.UniformSamplerCube:
		if v.kind != KindTexture {
			return false
		}
		r.bindTexture(name, loc, v.tex)
	default:
		return false
	}
	return true
}

// bindTexture uploads a dirty texture, activates its unit, binds it and points the sampler at the unit.
func (r *Reflector) bindTexture(name string, loc int32, tex Texture) {
	unit := tex.Unit()
	if unit < 0 || unit >= r.ctx.MaxTextureUnits() {
		common.Logger().Warn("texture unit out of range",
			slog.String("uniform", name),
			slog.Int("unit", unit),
			slog.Int("max", r.ctx.MaxTextureUnits()))
		return
	}
	if tex.Dirty() {
		if err := tex.Upload(r.ctx); err != nil {
			common.Logger().Warn("texture upload failed", slog.String("uniform", name), slog.Any("error", err))
			return
		}
	}
	r.ctx.ActiveTexture(unit)
	r.ctx.BindTexture(tex.Handle())
	r.ctx.Uniform1i(loc, int32(unit))
}

func clamp(v []float32, n int) []float32 {
	if len(v) > n {
		return v[:n]
	}
	return v
}
