package protect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testDataKey(seed byte) [32]byte {
	var k [32]byte
	for i := range k {
		k[i] = seed + byte(i)
	}
	return k
}

func testColumn(t *testing.T, cfg ColumnIndexConfig) *Column {
	t.Helper()
	tbl := &Table{Name: "users", columns: map[string]*Column{}}
	col := &Column{Name: "email", Path: "email", Config: cfg, table: tbl}
	tbl.columns["email"] = col
	tbl.order = []string{"email"}
	return col
}

func TestDefaultEngine_EncryptDecryptValue_RoundTrip(t *testing.T) {
	engine := NewDefaultEngine()
	col := testColumn(t, ColumnIndexConfig{
		Equality: &EqualityConfig{TokenFilters: []TokenFilter{Downcase}},
	})
	key := testDataKey(1)

	payload, err := engine.EncryptValue([]byte("person@example.com"), key, col)
	require.NoError(t, err)
	require.NotEmpty(t, payload.C)
	require.NotEmpty(t, payload.HM)
	require.Equal(t, "users", payload.I.Table)
	require.Equal(t, "email", payload.I.Column)

	plaintext, err := engine.DecryptValue(payload, key)
	require.NoError(t, err)
	require.Equal(t, "person@example.com", string(plaintext))
}

func TestDefaultEngine_DecryptValue_WrongKeyFails(t *testing.T) {
	engine := NewDefaultEngine()
	col := testColumn(t, ColumnIndexConfig{})

	payload, err := engine.EncryptValue([]byte("secret"), testDataKey(1), col)
	require.NoError(t, err)

	_, err = engine.DecryptValue(payload, testDataKey(2))
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDefaultEngine_DecryptValue_IdentifierMismatchFails(t *testing.T) {
	engine := NewDefaultEngine()
	col := testColumn(t, ColumnIndexConfig{})
	key := testDataKey(3)

	payload, err := engine.EncryptValue([]byte("secret"), key, col)
	require.NoError(t, err)

	payload.I.Column = "phone"
	_, err = engine.DecryptValue(payload, key)
	require.ErrorIs(t, err, ErrIdentifierMismatch)
}

func TestDefaultEngine_EqualityToken_Deterministic(t *testing.T) {
	engine := NewDefaultEngine()
	col := testColumn(t, ColumnIndexConfig{
		Equality: &EqualityConfig{TokenFilters: []TokenFilter{Downcase}},
	})
	key := testDataKey(4)

	a := engine.equalityToken([]byte("Person@Example.com"), key, col.Config.Equality)
	b := engine.equalityToken([]byte("person@example.com"), key, col.Config.Equality)
	require.Equal(t, a, b)
}

func TestDefaultEngine_BuildIndexToken_Order(t *testing.T) {
	engine := NewDefaultEngine()
	col := testColumn(t, ColumnIndexConfig{OrderAndRange: true})
	key := testDataKey(5)

	frag, err := engine.BuildIndexToken(encodeOrderedFloat64(42), key, col, QueryOrderAndRange)
	require.NoError(t, err)
	require.NotEmpty(t, frag.OB)
}

func TestDefaultEngine_BuildIndexToken_SteVecOnUnconfiguredColumn(t *testing.T) {
	engine := NewDefaultEngine()
	col := testColumn(t, ColumnIndexConfig{})
	_, err := engine.BuildIndexToken([]byte("x"), testDataKey(6), col, QuerySteVecSelector)
	require.Error(t, err)
}
