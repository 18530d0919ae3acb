package store

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// #region merge
// Merge applies partial onto base and returns the result; neither input is modified.
// Scalars and objects overwrite; null values in partial are ignored. Lists append only
// values not already present, preserving order and never removing anything, so applying
// the same partial twice is the same as applying it once.
func Merge(base, partial map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(partial))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range partial {
		if v == nil {
			continue
		}
		incoming, isList := v.([]any)
		existing, wasList := out[k].([]any)
		if !isList || !wasList {
			out[k] = v
			continue
		}
		merged := append([]any(nil), existing...)
		for _, item := range incoming {
			if !containsValue(merged, item) {
				merged = append(merged, item)
			}
		}
		out[k] = merged
	}
	return out
}

func containsValue(list []any, v any) bool {
	for _, x := range list {
		if reflect.DeepEqual(x, v) {
			return true
		}
	}
	return false
}

// #endregion merge

// #region normalize
// toDocument converts any JSON-encodable value into its generic map form so that
// typed values (structs, []string, time.Time) compare equal to previously stored ones.
func toDocument(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// #endregion normalize
