package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a service manifest from a YAML file. The manifest is
// parsed once per resolution run; structural validation is a separate step
// so callers can report parse and validation failures distinctly.
func Load(path string) (*ServiceManifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	m, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return m, nil
}

// Parse parses a service manifest from YAML bytes.
func Parse(raw []byte) (*ServiceManifest, error) {
	var m ServiceManifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	normalize(&m)
	return &m, nil
}

// normalize rewrites the free-form config trees yaml.v3 produced so every
// nested mapping is a map[string]interface{}, which is what the merge and
// schema layers operate on.
func normalize(m *ServiceManifest) {
	for i := range m.Components {
		m.Components[i].Config = normalizeConfig(m.Components[i].Config)
	}
	for name, env := range m.Environments {
		for comp, overrides := range env.Overrides {
			env.Overrides[comp] = normalizeConfig(overrides)
		}
		m.Environments[name] = env
	}
	for i := range m.Patches {
		m.Patches[i].Values = normalizeConfig(m.Patches[i].Values)
	}
}

func normalizeConfig(cfg map[string]interface{}) map[string]interface{} {
	if cfg == nil {
		return nil
	}
	out, _ := normalizeValue(cfg).(map[string]interface{})
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch tv := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(tv))
		for k, child := range tv {
			out[k] = normalizeValue(child)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(tv))
		for k, child := range tv {
			out[fmt.Sprintf("%v", k)] = normalizeValue(child)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(tv))
		for i, child := range tv {
			out[i] = normalizeValue(child)
		}
		return out
	default:
		return v
	}
}
