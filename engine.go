package protect

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"

	"golang.org/x/crypto/nacl/secretbox"
)

// steVecSelectorInput is the envelope QuerySteVecSelector's plaintext
// carries: the leaf path within a searchable-JSON column to test for
// presence.
type steVecSelectorInput struct {
	Path []string `json:"path"`
}

// steVecTermInput is the envelope QuerySteVecTerm's plaintext carries: a
// leaf path plus the value a containment query tests it against.
type steVecTermInput struct {
	Path  []string `json:"path"`
	Value any      `json:"value"`
}

// QueryType selects which index token EncryptQuery/BuildIndexToken
// produces for a column.
type QueryType int

const (
	QueryEquality QueryType = iota
	QueryFreeTextSearch
	QueryOrderAndRange
	QuerySteVecSelector
	QuerySteVecTerm
	QuerySearchableJSONAuto
)

// IndexFragment is the token (or tokens) BuildIndexToken produces for one
// QueryType — a thin tagged union over the possible "hm"/"bf"/"ob"/"s"/"sv"
// shapes, assembled into a full EncryptedQueryTerm by the query encryptor.
type IndexFragment struct {
	HM string
	BF []int
	OB string
	S  string
	SV []SteVecEntry
}

// CryptoEngine is the crypto primitive interface C3 consumes: AEAD
// encrypt/decrypt of a value, and construction of whichever index
// token(s) a query type requires. Spec.md scopes the underlying
// primitives (AEAD, ORE, match-index tokenization, HMAC selectors) as an
// assumed-available external library behind a stable interface; this
// module ships DefaultEngine as that concrete implementation (see
// DESIGN.md for what each token is grounded on).
//
// All methods are deterministic for a given (plaintext, key, config)
// tuple, except EncryptValue's AEAD ciphertext, which is randomized by a
// fresh nonce per call (the index tokens it also produces remain
// deterministic).
type CryptoEngine interface {
	EncryptValue(plaintext []byte, key [32]byte, col *Column) (*EncryptedPayload, error)
	DecryptValue(payload *EncryptedPayload, key [32]byte) ([]byte, error)
	BuildIndexToken(plaintext []byte, key [32]byte, col *Column, qt QueryType) (IndexFragment, error)
}

// DefaultEngine implements CryptoEngine using XSalsa20-Poly1305 (NaCl
// secretbox) for AEAD, HMAC-SHA256 for equality tokens, a hand-rolled
// bloom/n-gram scheme for match tokens, and a hand-rolled keyed monotonic
// encoding for order tokens (orderindex.go).
type DefaultEngine struct {
	CompressionThreshold int
	CompressionDisabled  bool
}

// NewDefaultEngine builds a DefaultEngine with the teacher-derived default
// compression threshold (1KB) and compression enabled.
func NewDefaultEngine() *DefaultEngine {
	return &DefaultEngine{CompressionThreshold: defaultCompressionThreshold}
}

// EncryptValue seals plaintext under key and builds every index token the
// column's configuration enables.
func (e *DefaultEngine) EncryptValue(plaintext []byte, key [32]byte, col *Column) (*EncryptedPayload, error) {
	sealed, err := e.seal(plaintext, key, col.table.Name+"/"+col.Path)
	if err != nil {
		return nil, err
	}

	payload := &EncryptedPayload{
		V: payloadVersion,
		K: PayloadKindPlaintext,
		C: base64.StdEncoding.EncodeToString(sealed),
		I: Identification{Table: col.table.Name, Column: col.Path},
	}

	if col.Config.Equality != nil {
		payload.HM = e.equalityToken(plaintext, key, col.Config.Equality)
	}
	if col.Config.MatchSearch != nil {
		payload.BF = buildMatchToken(plaintext, key, col.Config.MatchSearch)
	}
	if col.Config.OrderAndRange {
		payload.OB = base64.StdEncoding.EncodeToString(buildOrderToken(plaintext, key))
	}
	if col.Config.SearchableJSON != nil {
		entries, err := e.buildSteVecEntries(plaintext, key, col.Config.SearchableJSON.Prefix)
		if err != nil {
			return nil, err
		}
		payload.K = PayloadKindSteVec
		payload.SV = entries
	}
	return payload, nil
}

// buildSteVecEntries flattens a JSON document into leaves and derives one
// (selector, ciphertext) pair per leaf — the "sv" fragment a ste-vec
// column's stored payload and its containment query terms are both built
// from. The selector is the literal slash-separated path spec.md §4.6
// defines; the value is sealed under a deterministic nonce (see
// deterministicNonce) so two documents carrying the same leaf value under
// the same selector produce byte-equal ciphertext, which is what makes a
// containment query a direct comparison.
func (e *DefaultEngine) buildSteVecEntries(jsonPlaintext []byte, key [32]byte, prefix string) ([]SteVecEntry, error) {
	var doc any
	if err := json.Unmarshal(jsonPlaintext, &doc); err != nil {
		return nil, newFailure(KindEncryptionError, "searchable JSON column value is not valid JSON", err)
	}

	leaves, err := FlattenJSONToLeaves(doc)
	if err != nil {
		return nil, err
	}

	entries := make([]SteVecEntry, 0, len(leaves))
	for _, leaf := range leaves {
		entry, err := e.steVecEntryFor(key, prefix, leaf.Path, leaf.Leaf)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// steVecEntryFor derives one SteVecEntry for a single JSON leaf at path,
// keyed by key: Selector is the literal selectorFor(prefix, path) string
// (spec.md §4.6/§6, the glossary's "Selector" entry), and Ciphertext is
// the leaf value sealed under a nonce derived from (key, selector) rather
// than randomized, so the same leaf reproduces the same ciphertext.
func (e *DefaultEngine) steVecEntryFor(key [32]byte, prefix string, path []string, value any) (SteVecEntry, error) {
	selector := selectorFor(prefix, path)

	valueBytes, err := json.Marshal(value)
	if err != nil {
		return SteVecEntry{}, newFailure(KindEncryptionError, "failed to marshal ste-vec leaf value", err)
	}

	nonce := deterministicNonce(key, selector)
	sealed := secretbox.Seal(nil, valueBytes, &nonce, &key)

	return SteVecEntry{Selector: selector, Ciphertext: base64.StdEncoding.EncodeToString(sealed)}, nil
}

// deterministicNonce derives a secretbox nonce from key and selector
// alone, never from the value being sealed: the same leaf selector under
// the same key always reuses the same nonce, so the value is the only
// thing that varies ciphertext, which is what lets two documents' sv
// entries be compared byte-for-byte as a containment test. This
// deliberately forgoes the random-nonce guarantee ordinary AEAD use
// relies on, the same equality-revealing trade-off the "hm" index already
// makes.
func deterministicNonce(key [32]byte, selector string) [nonceSize]byte {
	sum := computeHMAC(key, []byte("stevec-nonce/"+selector))
	var nonce [nonceSize]byte
	copy(nonce[:], sum)
	return nonce
}

// DecryptValue opens payload's ciphertext under key, verifying that the
// inner identifier authenticated by the AEAD matches payload.I.
func (e *DefaultEngine) DecryptValue(payload *EncryptedPayload, key [32]byte) ([]byte, error) {
	if payload.C == "" {
		return nil, ErrInvalidFormat
	}
	raw, err := base64.StdEncoding.DecodeString(payload.C)
	if err != nil {
		return nil, ErrInvalidFormat
	}

	flag, nonce, sealed, err := parseCiphertext(raw)
	if err != nil {
		return nil, err
	}

	decrypted, ok := secretbox.Open(nil, sealed, &nonce, &key)
	if !ok {
		return nil, ErrDecryptionFailed
	}

	decompressed, err := decompress(decrypted, flag)
	if err != nil {
		return nil, err
	}

	identifier, plaintext, err := parseInnerPlaintext(decompressed)
	if err != nil {
		return nil, err
	}

	expected := payload.I.Table + "/" + payload.I.Column
	if subtle.ConstantTimeCompare([]byte(identifier), []byte(expected)) != 1 {
		return nil, ErrIdentifierMismatch
	}
	return plaintext, nil
}

// BuildIndexToken produces just the token fragment a query of type qt
// needs, without sealing a value — the path EncryptQuery uses.
func (e *DefaultEngine) BuildIndexToken(plaintext []byte, key [32]byte, col *Column, qt QueryType) (IndexFragment, error) {
	switch qt {
	case QueryEquality:
		return IndexFragment{HM: e.equalityToken(plaintext, key, col.Config.Equality)}, nil
	case QueryFreeTextSearch:
		return IndexFragment{BF: buildMatchToken(plaintext, key, col.Config.MatchSearch)}, nil
	case QueryOrderAndRange:
		return IndexFragment{OB: base64.StdEncoding.EncodeToString(buildOrderToken(plaintext, key))}, nil
	case QuerySteVecSelector, QuerySteVecTerm, QuerySearchableJSONAuto:
		if col.Config.SearchableJSON == nil {
			return IndexFragment{}, newFailure(KindConfigError, "column "+col.Path+" is not searchable-JSON; call SearchableJSON() when declaring it", ErrIndexNotConfigured)
		}
		return e.buildSteVecFragment(plaintext, key, col, qt)
	default:
		return IndexFragment{}, newFailure(KindConfigError, "unsupported query type for BuildIndexToken", nil)
	}
}

// buildSteVecFragment dispatches a ste-vec query type to its fragment
// builder once col's SearchableJSON configuration has already been
// confirmed non-nil by the caller.
func (e *DefaultEngine) buildSteVecFragment(plaintext []byte, key [32]byte, col *Column, qt QueryType) (IndexFragment, error) {
	switch qt {
	case QuerySteVecSelector:
		var in steVecSelectorInput
		if err := json.Unmarshal(plaintext, &in); err != nil {
			return IndexFragment{}, newFailure(KindEncryptionError, "invalid ste-vec selector query", err)
		}
		return IndexFragment{S: selectorFor(col.Config.SearchableJSON.Prefix, in.Path)}, nil
	case QuerySteVecTerm:
		var in steVecTermInput
		if err := json.Unmarshal(plaintext, &in); err != nil {
			return IndexFragment{}, newFailure(KindEncryptionError, "invalid ste-vec containment query", err)
		}
		entry, err := e.steVecEntryFor(key, col.Config.SearchableJSON.Prefix, in.Path, in.Value)
		if err != nil {
			return IndexFragment{}, err
		}
		return IndexFragment{SV: []SteVecEntry{entry}}, nil
	default: // QuerySearchableJSONAuto
		return e.buildAutoSteVecFragment(plaintext, key, col)
	}
}

// buildAutoSteVecFragment implements spec.md §4.6's searchableJson
// auto-infer rule: a string plaintext is a JSONPath-lite selector query
// ("$.a.b"), anything else (an object or array) is a containment query
// against that whole document's flattened leaves.
func (e *DefaultEngine) buildAutoSteVecFragment(plaintext []byte, key [32]byte, col *Column) (IndexFragment, error) {
	var probe any
	if err := json.Unmarshal(plaintext, &probe); err != nil {
		return IndexFragment{}, newFailure(KindEncryptionError, "invalid searchableJson query value", err)
	}

	if s, ok := probe.(string); ok {
		path, err := parseJSONPath(s)
		if err != nil {
			return IndexFragment{}, newFailure(KindEncryptionError, "invalid JSONPath selector query", err)
		}
		return IndexFragment{S: selectorFor(col.Config.SearchableJSON.Prefix, path)}, nil
	}

	entries, err := e.buildSteVecEntries(plaintext, key, col.Config.SearchableJSON.Prefix)
	if err != nil {
		return IndexFragment{}, err
	}
	return IndexFragment{SV: entries}, nil
}

// equalityToken computes the "hm" fragment: HMAC-SHA256 over the
// plaintext after the column's configured token filters are applied —
// directly the teacher package's blindindex.go HMAC construction.
func (e *DefaultEngine) equalityToken(plaintext []byte, key [32]byte, cfg *EqualityConfig) string {
	filtered := applyFilters(string(plaintext), cfg.TokenFilters)
	sum := computeHMAC(key, []byte(filtered))
	return base64.StdEncoding.EncodeToString(sum)
}

// computeHMAC is the HMAC-SHA256 primitive shared by the equality index
// and the ste-vec deterministic nonce (deterministicNonce), keyed by a
// per-column data key.
func computeHMAC(key [32]byte, data []byte) []byte {
	h := hmac.New(sha256.New, key[:])
	h.Write(data)
	return h.Sum(nil)
}

// seal compresses (if beneficial), encrypts, and frames plaintext,
// authenticating identifier as the inner identity binding.
func (e *DefaultEngine) seal(plaintext []byte, key [32]byte, identifier string) ([]byte, error) {
	inner := formatInnerPlaintext(identifier, plaintext)
	toEncrypt, flag := maybeCompress(inner, e.CompressionThreshold, e.CompressionDisabled)

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, newFailure(KindEncryptionError, "failed to generate nonce", err)
	}

	sealed := secretbox.Seal(nil, toEncrypt, &nonce, &key)
	return formatCiphertext(flag, nonce, sealed), nil
}
