package protect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatParseCiphertext_RoundTrip(t *testing.T) {
	var nonce [nonceSize]byte
	for i := range nonce {
		nonce[i] = byte(i)
	}
	sealed := []byte("sealed-bytes")

	framed := formatCiphertext(flagZstd, nonce, sealed)
	flag, parsedNonce, parsedSealed, err := parseCiphertext(framed)
	require.NoError(t, err)
	require.Equal(t, flagZstd, flag)
	require.Equal(t, nonce, parsedNonce)
	require.Equal(t, sealed, parsedSealed)
}

func TestParseCiphertext_TooShort(t *testing.T) {
	_, _, _, err := parseCiphertext([]byte{0x00})
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestFormatParseInnerPlaintext_RoundTrip(t *testing.T) {
	framed := formatInnerPlaintext("users/email", []byte("person@example.com"))
	identifier, plaintext, err := parseInnerPlaintext(framed)
	require.NoError(t, err)
	require.Equal(t, "users/email", identifier)
	require.Equal(t, "person@example.com", string(plaintext))
}

func TestParseInnerPlaintext_TooShort(t *testing.T) {
	_, _, err := parseInnerPlaintext([]byte{0x00})
	require.ErrorIs(t, err, ErrInvalidFormat)
}
