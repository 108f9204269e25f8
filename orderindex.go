package protect

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
)

// buildOrderToken builds the "ob" (order-preserving) index fragment for
// plaintext, keyed by key. The scheme ("ORE-lite") trades real
// order-revealing-encryption security for a simple, dependency-free,
// fully deterministic construction: spec.md explicitly scopes real ORE as
// an assumed-available external primitive, and no ORE library is present
// anywhere in the example corpus this module was grounded on (see
// DESIGN.md). Production deployments are expected to swap in a vetted ORE
// library behind the CryptoEngine interface.
//
// For each byte of plaintext's big-endian encoding, a strictly increasing
// lookup table — keyed per byte position via HMAC-derived pseudorandom
// positive increments, prefix-summed — maps the byte's 256 possible values
// onto a wider (2-byte) range. Because each position's map is monotonic
// and earlier (more significant) positions dominate lexicographic
// comparison exactly as they do in the original big-endian plaintext, the
// concatenation of mapped positions compares in the same order as the
// original plaintext bytes.
func buildOrderToken(plaintext []byte, key [32]byte) []byte {
	out := make([]byte, 0, len(plaintext)*2)
	for pos, b := range plaintext {
		table := orderTableForPosition(key, pos)
		v := table[b]
		out = append(out, byte(v>>8), byte(v))
	}
	return out
}

// orderTableForPosition builds the monotonic 256-entry lookup table for
// one byte position, keyed by key. Entry v is the running sum of the first
// v+1 of 256 pseudorandom positive increments derived from HMAC-SHA256(key,
// position || counter), so the table is deterministic for (key, pos) and
// strictly increasing in the input byte value.
func orderTableForPosition(key [32]byte, pos int) [256]uint16 {
	var table [256]uint16
	var cumulative uint32
	for v := 0; v < 256; v++ {
		h := hmac.New(sha256.New, key[:])
		posBuf := make([]byte, 4)
		binary.BigEndian.PutUint32(posBuf, uint32(pos))
		h.Write(posBuf)
		h.Write([]byte{byte(v)})
		sum := h.Sum(nil)

		// Increment in [1, 8]: keeps the cumulative sum (and thus the
		// final table value) within uint16 range for plausible plaintext
		// widths while guaranteeing strict monotonicity.
		increment := uint32(sum[0]%8) + 1
		cumulative += increment
		if cumulative > 0xFFFF {
			cumulative = 0xFFFF
		}
		table[v] = uint16(cumulative)
	}
	return table
}
