package config

// Merge recursively merges a higher-precedence layer over a lower one and
// returns a new map; neither input is modified.
//
// The rules are deliberately narrow so precedence stays unambiguous and
// testable: when both sides hold a plain object at the same key the merge
// recurses key by key, keeping higher-layer branches for keys the lower
// layer lacks; for every other type (array, primitive, null) the higher
// layer's value fully replaces the lower layer's. Arrays are never
// concatenated or element-merged.
func Merge(lower, higher map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(lower)+len(higher))
	for k, v := range lower {
		out[k] = copyValue(v)
	}
	for k, hv := range higher {
		lv, ok := out[k]
		if !ok {
			out[k] = copyValue(hv)
			continue
		}
		lm, lowerIsMap := lv.(map[string]interface{})
		hm, higherIsMap := hv.(map[string]interface{})
		if lowerIsMap && higherIsMap {
			out[k] = Merge(lm, hm)
			continue
		}
		out[k] = copyValue(hv)
	}
	return out
}

// MergeLayers folds a precedence-ordered list of layers (lowest first) into
// one configuration. Nil layers are skipped.
func MergeLayers(layers ...map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	for _, layer := range layers {
		if layer == nil {
			continue
		}
		out = Merge(out, layer)
	}
	return out
}

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
