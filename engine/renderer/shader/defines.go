package shader

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidDefine is returned when a define carries an empty name or value.
var ErrInvalidDefine = errors.New("shader: invalid define")

const (
	// DefineTrue emits "#define NAME" with no value.
	DefineTrue = "true"

	// DefineFalse suppresses the macro entirely.
	DefineFalse = "false"

	// keySeparator joins the shader name, the sorted define list and the dialect inside cache keys.
	keySeparator = "__"
)

// DefineMap maps a macro name to its value. Insertion order is irrelevant: every consumer
// sorts by macro name before producing text or keys.
type DefineMap map[string]string

// Define is a single macro name/value pair.
type Define struct {
	Name  string
	Value string
}

// FromBools builds a DefineMap from boolean flags, mapping true to DefineTrue and false to DefineFalse.
//
// Parameters:
//   - flags: macro names mapped to whether they are enabled
//
// Returns:
//   - DefineMap: the equivalent define map
func FromBools(flags map[string]bool) DefineMap {
	out := make(DefineMap, len(flags))
	for k, v := range flags {
		if v {
			out[k] = DefineTrue
		} else {
			out[k] = DefineFalse
		}
	}
	return out
}

// Merge combines base and overrides into a new map. Entries present on only one side are kept.
// On a key collision the overrides entry wins when overrideWins is true, otherwise base wins.
// Neither input is modified.
//
// Parameters:
//   - base: the defines declared by the shader
//   - overrides: the defines supplied by the caller
//   - overrideWins: whether overrides take precedence on collision
//
// Returns:
//   - DefineMap: the merged defines
func Merge(base, overrides DefineMap, overrideWins bool) DefineMap {
	out := make(DefineMap, len(base)+len(overrides))
	first, second := overrides, base
	if overrideWins {
		first, second = base, overrides
	}
	for k, v := range first {
		out[k] = v
	}
	for k, v := range second {
		out[k] = v
	}
	return out
}

// Sorted returns the defines ordered lexicographically by macro name.
func (d DefineMap) Sorted() []Define {
	out := make([]Define, 0, len(d))
	for k, v := range d {
		out = append(out, Define{Name: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Validate rejects empty macro names and empty values.
func (d DefineMap) Validate() error {
	for _, def := range d.Sorted() {
		if strings.TrimSpace(def.Name) == "" {
			return fmt.Errorf("%w: empty macro name", ErrInvalidDefine)
		}
		if def.Value == "" {
			return fmt.Errorf("%w: %s has an empty value", ErrInvalidDefine, def.Name)
		}
	}
	return nil
}

// Clone returns a shallow copy of d. A nil map clones to an empty map.
func (d DefineMap) Clone() DefineMap {
	out := make(DefineMap, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// String renders the sorted "NAME=VALUE" list joined with ";".
func (d DefineMap) String() string {
	sorted := d.Sorted()
	parts := make([]string, len(sorted))
	for i, def := range sorted {
		parts[i] = def.Name + "=" + def.Value
	}
	return strings.Join(parts, ";")
}

// DeriveKey builds the variant key for a shader name and define set. An empty define set yields
// exactly name; otherwise the key is name + "__" + the sorted "NAME=VALUE" list joined with ";".
// Two maps holding the same pairs always produce the same key.
//
// Parameters:
//   - name: the registered shader name
//   - defines: the merged defines
//
// Returns:
//   - string: the derived variant key
func DeriveKey(name string, defines DefineMap) string {
	if len(defines) == 0 {
		return name
	}
	return name + keySeparator + defines.String()
}

// cacheKey appends the dialect to a variant key so dialects never collide.
func cacheKey(variantKey string, dialect Dialect) string {
	return variantKey + keySeparator + string(dialect)
}

// truthy reports whether a define value enables a conditional block. Only the "false" sentinel
// and an absent define disable one; numeric values such as "0" are ordinary macro values.
func truthy(value string) bool {
	return value != "" && value != DefineFalse
}
