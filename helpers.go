package protect

import (
	"encoding/json"
	"strings"
)

// deepCopyMap returns a copy of m safe to mutate without affecting the
// caller's original record. Nested maps are copied recursively; other
// values (including slices) are shared, matching the teacher package's
// shallow-safe copy helper for value pipelines.
func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(nested)
			continue
		}
		out[k] = v
	}
	return out
}

// lookupPath resolves a dotted path ("profile.address") inside a nested
// map[string]any record, reporting whether the full path exists.
func lookupPath(m map[string]any, path string) (any, bool) {
	segments := strings.Split(path, ".")
	var cur any = m
	for _, seg := range segments {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := node[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// setPath writes value at a dotted path inside m, which must already have
// every intermediate segment present as a map[string]any (true for any
// path obtained via lookupPath on the same record).
func setPath(m map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	node := m
	for _, seg := range segments[:len(segments)-1] {
		node = node[seg].(map[string]any)
	}
	node[segments[len(segments)-1]] = value
}

// coercePayload accepts either an already-typed *EncryptedPayload or the
// map[string]any shape a generic JSON decode produces for one, and
// returns a *EncryptedPayload in both cases.
func coercePayload(raw any) (*EncryptedPayload, error) {
	if p, ok := raw.(*EncryptedPayload); ok {
		return p, nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var payload EncryptedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
