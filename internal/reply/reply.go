// Package reply renders RADIUS attributes in the JSON grammar rlm_rest
// expects: {"<list>:<Attr>": {"value": ["..."], "op": ":="}}.
package reply

import (
	"strings"
)

// OpSet is the only operator this service emits.
const OpSet = ":="

// Attribute is a single RADIUS attribute/value pair.
type Attribute struct {
	Name  string
	Value string
}

// Value is the rlm_rest JSON value object.
type Value struct {
	Value []string `json:"value"`
	Op    string   `json:"op"`
}

// Map is a rendered attribute map ready to be JSON encoded.
type Map map[string]Value

// Attributes is an ordered attribute list. Order only matters for
// de-duplication: the first occurrence of a name wins.
type Attributes []Attribute

// Add appends an attribute.
func (a *Attributes) Add(name, value string) {
	*a = append(*a, Attribute{Name: name, Value: value})
}

// Has reports whether an attribute with the given name is present.
func (a Attributes) Has(name string) bool {
	for _, attr := range a {
		if strings.EqualFold(attr.Name, name) {
			return true
		}
	}
	return false
}

// Get returns the first value for name.
func (a Attributes) Get(name string) (string, bool) {
	for _, attr := range a {
		if strings.EqualFold(attr.Name, name) {
			return attr.Value, true
		}
	}
	return "", false
}

// Merge appends every attribute of other whose name is not already present.
func (a *Attributes) Merge(other Attributes) {
	for _, attr := range other {
		if !a.Has(attr.Name) {
			*a = append(*a, attr)
		}
	}
}

// IsControl reports whether the attribute belongs in the control list:
// passwords and Auth-Type drive FreeRADIUS's own authentication.
func IsControl(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "password") || strings.HasPrefix(lower, "auth-type")
}

// Render prefixes every attribute with its list, "control:" or "reply:".
func (a Attributes) Render() Map {
	m := make(Map, len(a))
	for _, attr := range a {
		list := "reply:"
		if IsControl(attr.Name) {
			list = "control:"
		}
		key := list + attr.Name
		if _, exists := m[key]; exists {
			continue
		}
		m[key] = Value{Value: []string{attr.Value}, Op: OpSet}
	}
	return m
}

// Flat renders the attributes without list prefixes, as the CoA endpoint
// returns them.
func (a Attributes) Flat() Map {
	m := make(Map, len(a))
	for _, attr := range a {
		if _, exists := m[attr.Name]; exists {
			continue
		}
		m[attr.Name] = Value{Value: []string{attr.Value}, Op: OpSet}
	}
	return m
}

// Message builds the reject body: a lone Reply-Message and no password, so
// FreeRADIUS rejects the request.
func Message(text string) Map {
	return Attributes{{Name: "Reply-Message", Value: text}}.Render()
}
