package protect

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaybeCompress_BelowThresholdStaysUncompressed(t *testing.T) {
	data := []byte("short")
	out, flag := maybeCompress(data, 1024, false)
	require.Equal(t, flagNoCompression, flag)
	require.Equal(t, data, out)
}

func TestMaybeCompress_DisabledStaysUncompressed(t *testing.T) {
	data := bytes.Repeat([]byte("a"), 2000)
	out, flag := maybeCompress(data, 1024, true)
	require.Equal(t, flagNoCompression, flag)
	require.Equal(t, data, out)
}

func TestMaybeCompress_CompressesHighlyRedundantData(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefgh"), 500)
	out, flag := maybeCompress(data, 1024, false)
	require.Equal(t, flagZstd, flag)
	require.Less(t, len(out), len(data))
}

func TestCompressDecompress_RoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("redundant data "), 200)
	compressed, flag := maybeCompress(data, 1024, false)
	require.Equal(t, flagZstd, flag)

	decompressed, err := decompress(compressed, flag)
	require.NoError(t, err)
	require.Equal(t, data, decompressed)
}

func TestDecompress_UnknownFlag(t *testing.T) {
	_, err := decompress([]byte("x"), 0xFF)
	require.ErrorIs(t, err, ErrInvalidFormat)
}
