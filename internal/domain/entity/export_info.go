package entity

import (
	"encoding/json"
	"pagestatic/internal/domain/valueobject"
	"slices"
)

// ExportInfo is the static export metadata of one page module.
//
// Directives and ExtraProperties have set semantics. PreferredRegion keeps
// source order. A nil Runtime means the value was absent or could not be
// resolved statically.
type ExportInfo struct {
	Directives      StringSet
	Runtime         *string
	PreferredRegion []string
	ExtraProperties StringSet
}

// NewExportInfo returns an empty record ready to be filled by one traversal.
func NewExportInfo() *ExportInfo {
	return &ExportInfo{
		Directives:      NewStringSet(),
		PreferredRegion: []string{},
		ExtraProperties: NewStringSet(),
	}
}

// AddDirective records a module-wide directive.
func (e *ExportInfo) AddDirective(d valueobject.Directive) {
	e.Directives.Add(d.String())
}

// HasDirective reports whether the module declares d.
func (e *ExportInfo) HasDirective(d valueobject.Directive) bool {
	return e.Directives.Has(d.String())
}

// SetRuntime records the runtime export. A nil value erases any earlier one.
func (e *ExportInfo) SetRuntime(value *string) {
	if value == nil {
		e.Runtime = nil
		return
	}
	v := *value
	e.Runtime = &v
}

// RuntimeValue returns the runtime and whether it was statically resolved.
func (e *ExportInfo) RuntimeValue() (string, bool) {
	if e.Runtime == nil {
		return "", false
	}
	return *e.Runtime, true
}

// AppendPreferredRegion adds a region in source order.
func (e *ExportInfo) AppendPreferredRegion(region string) {
	e.PreferredRegion = append(e.PreferredRegion, region)
}

// AddExtraProperty records an exported binding name other than runtime or preferredRegion.
func (e *ExportInfo) AddExtraProperty(name string) {
	if name == valueobject.ExportRuntime || name == valueobject.ExportPreferredRegion {
		return
	}
	e.ExtraProperties.Add(name)
}

// DataFetchingExports returns the extra properties that are recognized
// data-fetching export names, sorted.
func (e *ExportInfo) DataFetchingExports() []string {
	var names []string
	for _, name := range e.ExtraProperties.Sorted() {
		if valueobject.IsDataFetchingExport(name) {
			names = append(names, name)
		}
	}
	return names
}

// Clone returns a deep copy.
func (e *ExportInfo) Clone() *ExportInfo {
	c := NewExportInfo()
	for d := range e.Directives {
		c.Directives.Add(d)
	}
	c.SetRuntime(e.Runtime)
	c.PreferredRegion = append(c.PreferredRegion, e.PreferredRegion...)
	for p := range e.ExtraProperties {
		c.ExtraProperties.Add(p)
	}
	return c
}

// exportInfoDocument is the wire shape shared by JSON, YAML and the cache.
type exportInfoDocument struct {
	Directives      []string `json:"directives"        yaml:"directives"`
	Runtime         *string  `json:"runtime,omitempty" yaml:"runtime,omitempty"`
	PreferredRegion []string `json:"preferred_region"  yaml:"preferred_region"`
	ExtraProperties []string `json:"extra_properties"  yaml:"extra_properties"`
}

func (e *ExportInfo) document() exportInfoDocument {
	regions := e.PreferredRegion
	if regions == nil {
		regions = []string{}
	}
	return exportInfoDocument{
		Directives:      e.Directives.Sorted(),
		Runtime:         e.Runtime,
		PreferredRegion: regions,
		ExtraProperties: e.ExtraProperties.Sorted(),
	}
}

// MarshalJSON emits sets as sorted lists so output is deterministic.
func (e *ExportInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.document())
}

// UnmarshalJSON decodes the shape produced by MarshalJSON.
func (e *ExportInfo) UnmarshalJSON(data []byte) error {
	var doc exportInfoDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	decoded := NewExportInfo()
	for _, d := range doc.Directives {
		decoded.Directives.Add(d)
	}
	decoded.SetRuntime(doc.Runtime)
	decoded.PreferredRegion = append(decoded.PreferredRegion, doc.PreferredRegion...)
	for _, p := range doc.ExtraProperties {
		decoded.ExtraProperties.Add(p)
	}

	*e = *decoded
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (e *ExportInfo) MarshalYAML() (interface{}, error) {
	return e.document(), nil
}

// StringSet is an unordered set of strings.
type StringSet map[string]struct{}

// NewStringSet returns a set holding values.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts v.
func (s StringSet) Add(v string) {
	s[v] = struct{}{}
}

// Has reports whether v is in the set.
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of elements.
func (s StringSet) Len() int {
	return len(s)
}

// Sorted returns the elements in ascending order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
