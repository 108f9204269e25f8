package protect

import (
	"encoding/json"
	"strings"
)

// encodeComposite renders an EncryptedPayload (or EncryptedQueryTerm) in
// the PostgreSQL composite-literal shape spec.md's wire format uses:
//
//	("{...json...}")
//
// wrapping the JSON-encoded payload in a single quoted field so it can be
// inlined directly into a composite-type column value.
func encodeComposite(payload *EncryptedPayload) string {
	data, err := json.Marshal(payload)
	if err != nil {
		// Marshal only fails on unsupported types, none of which
		// EncryptedPayload's fields can hold.
		panic(err)
	}
	return `("` + string(data) + `")`
}

// escapeComposite doubles every quote character in s, the additional
// escaping required when a composite literal is itself embedded inside a
// SQL string literal.
func escapeComposite(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}

// parseComposite is encodeComposite's inverse: given a (possibly
// escaped) composite-literal string, it recovers the EncryptedPayload
// inside.
func parseComposite(s string) (*EncryptedPayload, error) {
	s = strings.ReplaceAll(s, `""`, `"`)

	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)

	var payload EncryptedPayload
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return nil, ErrInvalidFormat
	}
	return &payload, nil
}
