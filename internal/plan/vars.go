package plan

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Vars is an insertion-ordered string-to-string mapping. Operators expect
// variable definitions to appear in file order; Vars preserves that order
// on both deserialize and serialize (spec §3, §9), something a plain Go
// map cannot do. No library in the example pack offers a ready-made
// ordered-YAML-map type (gopkg.in/yaml.v3 dropped yaml.v2's MapSlice), so
// Vars is hand-built on top of yaml.Node, whose Content field already
// preserves mapping order verbatim.
type Vars struct {
	keys   []string
	values map[string]string
}

// NewVars builds a Vars from an explicit key order, useful in tests and
// for constructing values programmatically.
func NewVars(keys []string, values map[string]string) Vars {
	v := Vars{keys: append([]string(nil), keys...), values: make(map[string]string, len(values))}
	for _, k := range keys {
		v.values[k] = values[k]
	}
	return v
}

// Get returns the value for key and whether it was present.
func (v Vars) Get(key string) (string, bool) {
	val, ok := v.values[key]
	return val, ok
}

// Set inserts or updates key, appending it to the end of the order if new.
func (v *Vars) Set(key, value string) {
	if v.values == nil {
		v.values = make(map[string]string)
	}
	if _, exists := v.values[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.values[key] = value
}

// Keys returns the keys in insertion order.
func (v Vars) Keys() []string { return append([]string(nil), v.keys...) }

// Len returns the number of entries.
func (v Vars) Len() int { return len(v.keys) }

// IsZero reports whether Vars is empty, so that a `yaml:"vars,omitempty"`
// field tag omits it from serialization when empty (spec §3: "omitted
// when empty").
func (v Vars) IsZero() bool { return len(v.keys) == 0 }

// UnmarshalYAML decodes a YAML mapping node, preserving key order.
func (v *Vars) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("vars: expected a mapping, got kind %d", node.Kind)
	}
	if len(node.Content)%2 != 0 {
		return fmt.Errorf("vars: malformed mapping node")
	}

	keys := make([]string, 0, len(node.Content)/2)
	values := make(map[string]string, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		var key, value string
		if err := node.Content[i].Decode(&key); err != nil {
			return fmt.Errorf("vars: key: %w", err)
		}
		if err := node.Content[i+1].Decode(&value); err != nil {
			return fmt.Errorf("vars: value for %q: %w", key, err)
		}
		if _, exists := values[key]; !exists {
			keys = append(keys, key)
		}
		values[key] = value
	}

	v.keys = keys
	v.values = values
	return nil
}

// MarshalYAML emits a mapping node with entries in insertion order.
func (v Vars) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range v.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		valNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.values[k]}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}
