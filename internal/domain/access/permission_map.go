package access

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strconv"
)

// Value is the grant held for one capability: either a blanket flag or a
// list of resource ids the capability is scoped to.
type Value struct {
	flag      bool
	resources []string
	scoped    bool
}

// Flag returns a boolean capability value
func Flag(granted bool) Value {
	return Value{flag: granted}
}

// Resources returns a capability value scoped to the given resource ids
func Resources(ids ...string) Value {
	return Value{resources: slices.Clone(ids), scoped: true}
}

// Truthy reports whether the value grants anything: a true flag or a non-empty list
func (v Value) Truthy() bool {
	if v.scoped {
		return len(v.resources) > 0
	}
	return v.flag
}

// Scoped reports whether the value is a resource list
func (v Value) Scoped() bool {
	return v.scoped
}

// ResourceIDs returns a copy of the scoped resource ids
func (v Value) ResourceIDs() []string {
	return slices.Clone(v.resources)
}

// PermissionMap is an immutable snapshot of an identity's capabilities.
// A nil *PermissionMap means "not resolved" and every lookup on it denies.
// Once built, a map is never modified; a refresh produces a new map.
type PermissionMap struct {
	values  map[Capability]Value
	ignored []string
}

// NewPermissionMap builds a snapshot from the given values. Unknown
// capabilities are dropped.
func NewPermissionMap(values map[Capability]Value) *PermissionMap {
	m := &PermissionMap{values: make(map[Capability]Value, len(values))}
	for c, v := range values {
		if !c.IsKnown() {
			m.ignored = append(m.ignored, string(c))
			continue
		}
		v.resources = slices.Clone(v.resources)
		m.values[c] = v
	}
	sort.Strings(m.ignored)
	return m
}

// EmptyPermissionMap returns a resolved map that grants nothing
func EmptyPermissionMap() *PermissionMap {
	return &PermissionMap{values: map[Capability]Value{}}
}

// Capability reports whether c is granted. Missing keys, false flags and
// empty lists all deny.
func (m *PermissionMap) Capability(c Capability) bool {
	if m == nil {
		return false
	}
	v, ok := m.values[c]
	if !ok {
		return false
	}
	return v.Truthy()
}

// AllowedResource reports whether resourceID is in the list held for c.
// A blanket (non-list) grant does not enumerate resources and returns false here;
// use Evaluate for the full gate semantics.
func (m *PermissionMap) AllowedResource(c Capability, resourceID string) bool {
	if m == nil {
		return false
	}
	v, ok := m.values[c]
	if !ok || !v.scoped {
		return false
	}
	return slices.Contains(v.resources, resourceID)
}

// Lookup returns the raw value held for c
func (m *PermissionMap) Lookup(c Capability) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.values[c]
	if ok {
		v.resources = slices.Clone(v.resources)
	}
	return v, ok
}

// Granted returns the capabilities that are truthy, sorted
func (m *PermissionMap) Granted() []Capability {
	if m == nil {
		return nil
	}
	out := make([]Capability, 0, len(m.values))
	for c, v := range m.values {
		if v.Truthy() {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Ignored returns keys that were present in the source but are not known capabilities
func (m *PermissionMap) Ignored() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.ignored)
}

// Len returns the number of known capabilities present in the map
func (m *PermissionMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.values)
}

// MarshalJSON encodes the map in wire form: key -> bool | []string
func (m *PermissionMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	out := make(map[string]any, len(m.values))
	for c, v := range m.values {
		if v.scoped {
			ids := v.resources
			if ids == nil {
				ids = []string{}
			}
			out[string(c)] = ids
			continue
		}
		out[string(c)] = v.flag
	}
	return json.Marshal(out)
}

// ParsePermissionMap decodes the wire form. Values may be booleans, numbers
// (non-zero is true) or arrays of string/number ids. Unknown keys are recorded
// in Ignored and never granted. Values of any other JSON type deny.
func ParsePermissionMap(data []byte) (*PermissionMap, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode permission map: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("decode permission map: null payload")
	}

	values := make(map[Capability]Value, len(raw))
	for key, msg := range raw {
		values[Capability(key)] = parseValue(msg)
	}
	return NewPermissionMap(values), nil
}

func parseValue(msg json.RawMessage) Value {
	var decoded any
	if err := json.Unmarshal(msg, &decoded); err != nil {
		return Flag(false)
	}
	switch v := decoded.(type) {
	case bool:
		return Flag(v)
	case float64:
		return Flag(v != 0)
	case []any:
		ids := make([]string, 0, len(v))
		for _, item := range v {
			switch id := item.(type) {
			case string:
				if id != "" {
					ids = append(ids, id)
				}
			case float64:
				ids = append(ids, strconv.FormatFloat(id, 'f', -1, 64))
			}
		}
		return Resources(ids...)
	default:
		return Flag(false)
	}
}
