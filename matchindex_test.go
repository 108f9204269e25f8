package protect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrigramTokenizer(t *testing.T) {
	require.Equal(t, []string{"hel", "ell", "llo"}, TrigramTokenizer("hello"))
	require.Equal(t, []string{"hi"}, TrigramTokenizer("hi"))
	require.Nil(t, TrigramTokenizer(""))
}

func TestBuildMatchToken_SubsetMatch(t *testing.T) {
	key := testDataKey(9)
	cfg := &MatchSearchConfig{Tokenizer: TrigramTokenizer, TokenFilters: []TokenFilter{Downcase}}

	stored := buildMatchToken([]byte("hello world"), key, cfg)
	query := buildMatchToken([]byte("hello"), key, cfg)

	require.True(t, matchTokenSubset(query, stored))
}

func TestBuildMatchToken_NonMatchingQuery(t *testing.T) {
	key := testDataKey(10)
	cfg := &MatchSearchConfig{Tokenizer: TrigramTokenizer, TokenFilters: []TokenFilter{Downcase}}

	stored := buildMatchToken([]byte("hello world"), key, cfg)
	query := buildMatchToken([]byte("xyz123"), key, cfg)

	require.False(t, matchTokenSubset(query, stored))
}

func TestBuildMatchToken_Deterministic(t *testing.T) {
	key := testDataKey(11)
	cfg := &MatchSearchConfig{Tokenizer: TrigramTokenizer}

	a := buildMatchToken([]byte("same value"), key, cfg)
	b := buildMatchToken([]byte("same value"), key, cfg)
	require.Equal(t, a, b)
}
