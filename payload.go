package protect

// payloadVersion is the format version stamped into every EncryptedPayload
// and EncryptedQueryTerm ("v" in the wire JSON).
const payloadVersion = 2

// PayloadKind tags the shape of a payload's ciphertext ("k" in the wire
// JSON): "pt" for a plain encrypted value, "sv" for a ste-vec (searchable
// JSON) value whose leaves are individually encrypted.
type PayloadKind string

const (
	PayloadKindPlaintext PayloadKind = "pt"
	PayloadKindSteVec    PayloadKind = "sv"
)

// Identification names the table/column an EncryptedPayload or
// EncryptedQueryTerm belongs to — required to locate the column's
// decryption config. Column is the column's full dotted path within the
// table (e.g. "profile.address"), not just its leaf name, so nested
// columns resolve unambiguously via Table.Column.
type Identification struct {
	Table  string `json:"t"`
	Column string `json:"c"`
}

// EncryptedPayload is the canonical ciphertext object produced by Encrypt
// and consumed by Decrypt, matching spec.md §6's wire shape exactly.
type EncryptedPayload struct {
	V  int             `json:"v"`
	K  PayloadKind     `json:"k"`
	C  string          `json:"c,omitempty"`
	I  Identification  `json:"i"`
	OB string          `json:"ob,omitempty"`
	HM string          `json:"hm,omitempty"`
	BF []int           `json:"bf,omitempty"`
	S  string          `json:"s,omitempty"`
	SV []SteVecEntry   `json:"sv,omitempty"`
	ID string          `json:"id,omitempty"`
}

// EncryptedQueryTerm has the same shape as EncryptedPayload, but C is
// optional (path-only queries have no encrypted value) and at most one of
// S (selector) or SV (containment term array) is populated.
type EncryptedQueryTerm = EncryptedPayload

// hasIndexSuperset reports whether col's configured indexes form a
// superset of the token fields present on p, the invariant spec.md §3
// requires for i.t/i.c to locate a valid decryption config.
func hasIndexSuperset(p *EncryptedPayload, col *Column) bool {
	if p.HM != "" && col.Config.Equality == nil {
		return false
	}
	if p.BF != nil && col.Config.MatchSearch == nil {
		return false
	}
	if p.OB != "" && !col.Config.OrderAndRange {
		return false
	}
	if (p.S != "" || p.SV != nil) && col.Config.SearchableJSON == nil {
		return false
	}
	return true
}
