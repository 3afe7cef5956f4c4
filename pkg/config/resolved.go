package config

import (
	"encoding/json"
	"strings"
)

// ResolvedConfig is the fully merged, schema-validated configuration for one
// component. It is frozen at construction: the backing values are deep-copied
// in and every accessor returns copies, so the configuration a component was
// instantiated with can never drift afterwards.
type ResolvedConfig struct {
	component string
	typ       string
	values    map[string]interface{}
	patches   []string
}

// NewResolvedConfig freezes a merged configuration for a component. The
// values map is deep-copied; patches lists the names of manifest patches
// that contributed to the result, in application order.
func NewResolvedConfig(component, componentType string, values map[string]interface{}, patches []string) *ResolvedConfig {
	frozen, _ := copyValue(values).(map[string]interface{})
	if frozen == nil {
		frozen = map[string]interface{}{}
	}
	return &ResolvedConfig{
		component: component,
		typ:       componentType,
		values:    frozen,
		patches:   append([]string(nil), patches...),
	}
}

// Component returns the component name this configuration belongs to.
func (c *ResolvedConfig) Component() string { return c.component }

// Type returns the component type the configuration was validated against.
func (c *ResolvedConfig) Type() string { return c.typ }

// AppliedPatches returns the names of manifest patches applied, in order.
func (c *ResolvedConfig) AppliedPatches() []string {
	return append([]string(nil), c.patches...)
}

// Map returns a deep copy of the whole configuration tree.
func (c *ResolvedConfig) Map() map[string]interface{} {
	out, _ := copyValue(c.values).(map[string]interface{})
	return out
}

// Value looks up a dotted path (e.g. "encryption.enabled") and returns a
// copy of the value found there.
func (c *ResolvedConfig) Value(path string) (interface{}, bool) {
	var current interface{} = c.values
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return copyValue(current), true
}

// Bool returns the boolean at path, or false when absent or not a boolean.
func (c *ResolvedConfig) Bool(path string) bool {
	v, ok := c.Value(path)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// String returns the string at path, or "" when absent or not a string.
func (c *ResolvedConfig) String(path string) string {
	v, ok := c.Value(path)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Int returns the integer at path, or 0 when absent or not numeric.
func (c *ResolvedConfig) Int(path string) int {
	v, ok := c.Value(path)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// MarshalJSON serializes the frozen configuration values. Keys serialize in
// Go's canonical sorted order, so equal configurations produce identical
// bytes.
func (c *ResolvedConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.values)
}
