package protect

import (
	"fmt"
	"sort"
	"strings"
)

// JSONLeaf is one leaf value reached while walking a JSON document, along
// with the path segments taken to reach it. FlattenJSONToLeaves is a pure
// helper — no crypto — used by both the ste-vec value pipeline (sealing a
// searchable-JSON column) and the query encryptor (building containment
// terms).
type JSONLeaf struct {
	Path []string
	Leaf any
}

// FlattenJSONToLeaves walks value depth-first and returns one JSONLeaf per
// scalar reached, with Path holding the object keys (and, for arrays, the
// decimal index) taken to reach it.
func FlattenJSONToLeaves(value any) ([]JSONLeaf, error) {
	var leaves []JSONLeaf
	var walk func(path []string, v any) error
	walk = func(path []string, v any) error {
		switch node := v.(type) {
		case map[string]any:
			keys := make([]string, 0, len(node))
			for k := range node {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if err := walk(append(append([]string{}, path...), k), node[k]); err != nil {
					return err
				}
			}
		case []any:
			for i, item := range node {
				if err := walk(append(append([]string{}, path...), fmt.Sprintf("%d", i)), item); err != nil {
					return err
				}
			}
		case nil:
			leaves = append(leaves, JSONLeaf{Path: append([]string{}, path...), Leaf: nil})
		default:
			leaves = append(leaves, JSONLeaf{Path: append([]string{}, path...), Leaf: node})
		}
		return nil
	}
	if err := walk(nil, value); err != nil {
		return nil, err
	}
	return leaves, nil
}

// selectorFor joins a searchable-JSON column's prefix and a leaf's path
// segments with "/" separators, preserving non-ASCII characters unchanged
// (spec.md scenario 5).
func selectorFor(prefix string, path []string) string {
	if len(path) == 0 {
		return prefix
	}
	return prefix + "/" + strings.Join(path, "/")
}

// parseJSONPath parses the minimal "$.a.b" dotted-path form spec.md's
// scenarios feed as a query value into path segments ("a", "b"). It is
// intentionally not a general JSONPath implementation — no bracket
// indexing, no wildcards — just the leading-"$." dotted form the spec's
// searchableJson auto-infer rule needs to resolve a selector query.
func parseJSONPath(s string) ([]string, error) {
	trimmed := strings.TrimPrefix(s, "$")
	trimmed = strings.TrimPrefix(trimmed, ".")
	if trimmed == "" {
		return nil, newFailure(KindEncryptionError, "empty JSONPath selector", nil)
	}
	return strings.Split(trimmed, "."), nil
}

// SteVecEntry is one element of an EncryptedPayload's "sv" array: a
// per-leaf selector paired with that leaf's encrypted value.
type SteVecEntry struct {
	Selector   string `json:"s"`
	Ciphertext string `json:"c,omitempty"`
}
