package protect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalPlaintext_String(t *testing.T) {
	data, err := marshalPlaintext("hello", DataTypeString)
	require.NoError(t, err)

	value, err := unmarshalPlaintext(data, DataTypeString)
	require.NoError(t, err)
	require.Equal(t, "hello", value)
}

func TestMarshalUnmarshalPlaintext_Number(t *testing.T) {
	data, err := marshalPlaintext(42.5, DataTypeNumber)
	require.NoError(t, err)

	value, err := unmarshalPlaintext(data, DataTypeNumber)
	require.NoError(t, err)
	require.Equal(t, 42.5, value)
}

func TestMarshalUnmarshalPlaintext_Boolean(t *testing.T) {
	data, err := marshalPlaintext(true, DataTypeBoolean)
	require.NoError(t, err)

	value, err := unmarshalPlaintext(data, DataTypeBoolean)
	require.NoError(t, err)
	require.Equal(t, true, value)
}

func TestMarshalUnmarshalPlaintext_Date(t *testing.T) {
	now := time.Now().UTC()
	data, err := marshalPlaintext(now, DataTypeDate)
	require.NoError(t, err)

	value, err := unmarshalPlaintext(data, DataTypeDate)
	require.NoError(t, err)
	require.True(t, now.Equal(value.(time.Time)))
}

func TestMarshalUnmarshalPlaintext_JSON(t *testing.T) {
	original := map[string]any{"a": float64(1), "b": "two"}
	data, err := marshalPlaintext(original, DataTypeJSON)
	require.NoError(t, err)

	value, err := unmarshalPlaintext(data, DataTypeJSON)
	require.NoError(t, err)
	require.Equal(t, original, value)
}

func TestEncodeOrderedFloat64_PreservesOrdering(t *testing.T) {
	values := []float64{-1000, -1, 0, 1, 1000}
	var encoded [][]byte
	for _, v := range values {
		encoded = append(encoded, encodeOrderedFloat64(v))
	}
	for i := 1; i < len(encoded); i++ {
		require.Less(t, string(encoded[i-1]), string(encoded[i]))
	}
}

func TestDecodeOrderedFloat64_RoundTrip(t *testing.T) {
	for _, v := range []float64{-123.45, 0, 99.99, -0.0001} {
		decoded, err := decodeOrderedFloat64(encodeOrderedFloat64(v))
		require.NoError(t, err)
		require.InDelta(t, v, decoded, 0.0000001)
	}
}
