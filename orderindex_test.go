package protect

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildOrderToken_PreservesOrdering(t *testing.T) {
	key := testDataKey(7)

	values := []float64{-100, -1, 0, 1, 2.5, 100, 1000}
	var tokens [][]byte
	for _, v := range values {
		tokens = append(tokens, buildOrderToken(encodeOrderedFloat64(v), key))
	}

	for i := 1; i < len(tokens); i++ {
		require.True(t, bytes.Compare(tokens[i-1], tokens[i]) < 0,
			"token for %.1f should sort before token for %.1f", values[i-1], values[i])
	}
}

func TestBuildOrderToken_Deterministic(t *testing.T) {
	key := testDataKey(8)
	a := buildOrderToken(encodeOrderedFloat64(42), key)
	b := buildOrderToken(encodeOrderedFloat64(42), key)
	require.Equal(t, a, b)
}

func TestBuildOrderToken_DifferentKeyDifferentToken(t *testing.T) {
	a := buildOrderToken(encodeOrderedFloat64(42), testDataKey(1))
	b := buildOrderToken(encodeOrderedFloat64(42), testDataKey(2))
	require.NotEqual(t, a, b)
}
