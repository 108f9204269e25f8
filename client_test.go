package protect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, tables ...*Table) *EncryptionClient {
	t.Helper()
	ks, err := NewLocalKeyService(testDataKey(42)[:])
	require.NoError(t, err)

	client, err := NewClient(
		WithSchemas(tables...),
		WithKeyService(ks),
		WithConfig(&Config{LogLevel: "error"}),
	)
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresSchema(t *testing.T) {
	_, err := NewClient(WithConfig(&Config{LogLevel: "error"}), WithKeyService(mustLocalKeyService(t)))
	require.ErrorIs(t, err.(*Failure).Cause, ErrNilSchema)
}

func TestNewClient_RequiresKeyServiceOrRootKey(t *testing.T) {
	table, err := BuildTable("users", map[string]any{
		"email": NewColumn("email").Equality(),
	})
	require.NoError(t, err)

	_, err = NewClient(WithSchemas(table), WithConfig(&Config{LogLevel: "error"}))
	require.Error(t, err)
}

func mustLocalKeyService(t *testing.T) KeyService {
	t.Helper()
	ks, err := NewLocalKeyService(testDataKey(1)[:])
	require.NoError(t, err)
	return ks
}

func TestEncryptDecrypt_FlatRoundTrip(t *testing.T) {
	table, err := BuildTable("users", map[string]any{
		"email": NewColumn("email").Equality(Downcase),
	})
	require.NoError(t, err)
	client := testClient(t, table)
	ctx := context.Background()

	payload := client.Encrypt(EncryptInput{Table: "users", Column: "email", Value: "person@example.com"}).Execute(ctx)
	require.True(t, payload.Ok)

	decrypted := client.Decrypt(payload.Value).Execute(ctx)
	require.True(t, decrypted.Ok)
	require.Equal(t, "person@example.com", decrypted.Value)
}

func TestEncryptModel_NestedNullPreservation(t *testing.T) {
	table, err := BuildTable("users", map[string]any{
		"email": NewColumn("email").Equality(),
		"profile": map[string]any{
			"phone": NewColumn("phone").Equality(),
		},
	})
	require.NoError(t, err)
	client := testClient(t, table)
	ctx := context.Background()

	record := map[string]any{
		"email": "person@example.com",
		"profile": map[string]any{
			"phone": nil,
		},
	}

	encrypted := client.EncryptModel("users", record).Execute(ctx)
	require.True(t, encrypted.Ok)

	profile := encrypted.Value["profile"].(map[string]any)
	require.Nil(t, profile["phone"])
	require.IsType(t, &EncryptedPayload{}, encrypted.Value["email"])

	decrypted := client.DecryptModel("users", encrypted.Value).Execute(ctx)
	require.True(t, decrypted.Ok)
	require.Equal(t, "person@example.com", decrypted.Value["email"])
	require.Nil(t, decrypted.Value["profile"].(map[string]any)["phone"])
}

func TestBulkDecrypt_PartialFailureDoesNotAbortBatch(t *testing.T) {
	table, err := BuildTable("users", map[string]any{
		"email": NewColumn("email").Equality(),
	})
	require.NoError(t, err)
	client := testClient(t, table)
	ctx := context.Background()

	good := client.Encrypt(EncryptInput{Table: "users", Column: "email", Value: "a@example.com"}).Execute(ctx).Value
	bad := client.Encrypt(EncryptInput{Table: "users", Column: "email", Value: "b@example.com"}).Execute(ctx).Value
	bad.I.Column = "phone" // no such column: forces a failure for this item only

	results := client.BulkDecrypt([]*EncryptedPayload{good, bad}).Execute(ctx)
	require.True(t, results.Ok)
	require.True(t, results.Value[0].Ok)
	require.False(t, results.Value[1].Ok)
	require.Equal(t, "a@example.com", results.Value[0].Value)
}

func TestEncryptQuery_CompositeAndEscaped(t *testing.T) {
	table, err := BuildTable("users", map[string]any{
		"email": NewColumn("email").Equality(),
	})
	require.NoError(t, err)
	client := testClient(t, table)
	ctx := context.Background()

	composite := client.EncryptQuery(QueryInput{Table: "users", Column: "email", Value: "a@example.com"}, ReturnTypeComposite).Execute(ctx)
	require.True(t, composite.Ok)
	require.Contains(t, composite.Value.(string), `("`)

	escaped := client.EncryptQuery(QueryInput{Table: "users", Column: "email", Value: "a@example.com"}, ReturnTypeEscaped).Execute(ctx)
	require.True(t, escaped.Ok)
	require.Contains(t, escaped.Value.(string), `""`)
}

func TestEncryptQuery_RejectsUnconfiguredIndex(t *testing.T) {
	table, err := BuildTable("users", map[string]any{
		"email": NewColumn("email").Equality(),
	})
	require.NoError(t, err)
	client := testClient(t, table)
	ctx := context.Background()

	result := client.EncryptQuery(QueryInput{
		Table: "users", Column: "email", Value: "a@example.com",
		QueryTypes: []QueryType{QueryOrderAndRange},
	}, ReturnTypePayload).Execute(ctx)
	require.False(t, result.Ok)
	require.Equal(t, KindConfigError, result.Err.Kind)
}

func TestRotatePayload_ReEncryptsUnderNewKeyService(t *testing.T) {
	table, err := BuildTable("users", map[string]any{
		"email": NewColumn("email").Equality(),
	})
	require.NoError(t, err)

	oldKeys, err := NewLocalKeyService(testDataKey(10)[:])
	require.NoError(t, err)
	oldClient, err := NewClient(WithSchemas(table), WithKeyService(oldKeys), WithConfig(&Config{LogLevel: "error"}))
	require.NoError(t, err)

	ctx := context.Background()
	payload := oldClient.Encrypt(EncryptInput{Table: "users", Column: "email", Value: "a@example.com"}).Execute(ctx).Value

	newClient := testClient(t, table)
	rotated := newClient.RotatePayload(payload, oldKeys).Execute(ctx)
	require.True(t, rotated.Ok)

	decrypted := newClient.Decrypt(rotated.Value).Execute(ctx)
	require.True(t, decrypted.Ok)
	require.Equal(t, "a@example.com", decrypted.Value)

	require.False(t, oldClient.Decrypt(rotated.Value).Execute(ctx).Ok)
}
