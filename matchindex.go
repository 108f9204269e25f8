package protect

import (
	"crypto/hmac"
	"crypto/sha256"
	"sort"
)

// Tokenizer splits a plaintext string into search tokens for the
// full-text ("bf") index.
type Tokenizer func(string) []string

// TrigramTokenizer splits s into overlapping 3-character tokens. Strings
// shorter than 3 characters produce a single token of the whole string,
// so short values remain searchable.
var TrigramTokenizer Tokenizer = func(s string) []string {
	runes := []rune(s)
	if len(runes) < 3 {
		if len(runes) == 0 {
			return nil
		}
		return []string{string(runes)}
	}
	tokens := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		tokens = append(tokens, string(runes[i:i+3]))
	}
	return tokens
}

// matchIndexBits is the size, in bits, of the bloom-style match index.
// 2048 bits (256 bytes) keeps false-positive rates low for typical
// free-text column cardinalities while staying small enough to store
// inline in a payload's "bf" field.
const matchIndexBits = 2048

// matchIndexHashes is the number of hash functions (derived positions per
// token) used per token, the standard bloom-filter k parameter.
const matchIndexHashes = 3

// buildMatchToken tokenizes plaintext per the column's configured
// tokenizer and filters, HMACs each token with the match-index key, and
// folds the results into a set of bit positions — the "bf" index
// fragment. The returned positions are sorted and deduplicated so the
// token is deterministic for a given (plaintext, key, config) tuple.
func buildMatchToken(plaintext []byte, key [32]byte, cfg *MatchSearchConfig) []int {
	filtered := applyFilters(string(plaintext), cfg.TokenFilters)
	tokens := cfg.Tokenizer(filtered)

	bits := make(map[int]struct{})
	for _, tok := range tokens {
		for _, pos := range tokenBitPositions(tok, key) {
			bits[pos] = struct{}{}
		}
	}

	out := make([]int, 0, len(bits))
	for pos := range bits {
		out = append(out, pos)
	}
	sort.Ints(out)
	return out
}

// tokenBitPositions derives matchIndexHashes bit positions for one token
// by HMAC'ing the token with a per-hash-index salt and reducing the
// digest into [0, matchIndexBits).
func tokenBitPositions(token string, key [32]byte) []int {
	positions := make([]int, matchIndexHashes)
	for i := 0; i < matchIndexHashes; i++ {
		h := hmac.New(sha256.New, key[:])
		h.Write([]byte{byte(i)})
		h.Write([]byte(token))
		sum := h.Sum(nil)
		v := uint32(sum[0])<<24 | uint32(sum[1])<<16 | uint32(sum[2])<<8 | uint32(sum[3])
		positions[i] = int(v % matchIndexBits)
	}
	return positions
}

// matchTokenSubset reports whether query (the bit positions for a search
// term) is a subset of stored (the bit positions for the stored value's
// match index) — the test a database would perform to decide whether a
// stored encrypted value could contain the query's plaintext.
func matchTokenSubset(query, stored []int) bool {
	set := make(map[int]struct{}, len(stored))
	for _, p := range stored {
		set[p] = struct{}{}
	}
	for _, p := range query {
		if _, ok := set[p]; !ok {
			return false
		}
	}
	return true
}
