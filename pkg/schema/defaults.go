package schema

// ApplyDefaults returns a copy of candidate with every schema default filled
// in for fields absent after all precedence layers merged. Defaults never
// override a value a layer supplied, and the input map is not modified.
func ApplyDefaults(s *Schema, candidate map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(candidate))
	for k, v := range candidate {
		out[k] = copyValue(v)
	}
	if s == nil {
		return out
	}

	for name, prop := range s.Properties {
		if prop == nil {
			continue
		}
		existing, present := out[name]
		if present {
			// Recurse into present objects so nested defaults still apply.
			if child, ok := existing.(map[string]interface{}); ok && prop.Type == "object" {
				out[name] = ApplyDefaults(prop, child)
			}
			continue
		}
		if prop.Default != nil {
			out[name] = copyValue(prop.Default)
			// A defaulted object may itself have nested defaults.
			if child, ok := out[name].(map[string]interface{}); ok && prop.Type == "object" {
				out[name] = ApplyDefaults(prop, child)
			}
			continue
		}
		if prop.Type == "object" && hasNestedDefaults(prop) {
			out[name] = ApplyDefaults(prop, map[string]interface{}{})
		}
	}
	return out
}

func hasNestedDefaults(s *Schema) bool {
	for _, prop := range s.Properties {
		if prop == nil {
			continue
		}
		if prop.Default != nil {
			return true
		}
		if prop.Type == "object" && hasNestedDefaults(prop) {
			return true
		}
	}
	return false
}

// copyValue deep-copies the JSON-like value trees defaults and candidates
// are made of.
func copyValue(v interface{}) interface{} {
	switch tv := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(tv))
		for k, child := range tv {
			out[k] = copyValue(child)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(tv))
		for i, child := range tv {
			out[i] = copyValue(child)
		}
		return out
	default:
		return v
	}
}
