// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

// DeepMerge returns the recursive union of base and overlay without
// mutating either. For each key in overlay: when both sides hold nested
// objects the merge recurses, otherwise the overlay value replaces the base
// value. Arrays are treated as leaves and replaced wholesale.
//
// Callers pick precedence by choosing the overlay: loading merges the
// stored document over defaults (user customization wins), Set merges the
// incoming partial over the current document (the edit wins).
func DeepMerge(base, overlay Document) Document {
	out := make(Document, len(base)+len(overlay))
	for k, v := range base {
		out[k] = cloneValue(v)
	}
	for k, v := range overlay {
		baseObj, baseIsObj := out[k].(map[string]interface{})
		overlayObj, overlayIsObj := v.(map[string]interface{})
		if baseIsObj && overlayIsObj {
			out[k] = DeepMerge(baseObj, overlayObj)
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

// Clone returns a deep copy of a document. Stores hand out clones so
// callers can never mutate persisted state through a returned reference.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return Clone(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
