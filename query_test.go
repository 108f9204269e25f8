package protect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchableJSON_EncryptAndSelectorQuery(t *testing.T) {
	table, err := BuildTable("documents", map[string]any{
		"payload": NewColumn("payload").SearchableJSON().DataType(DataTypeJSON),
	})
	require.NoError(t, err)
	client := testClient(t, table)
	ctx := context.Background()

	payload := client.Encrypt(EncryptInput{
		Table: "documents", Column: "payload",
		Value: map[string]any{
			"address": map[string]any{"city": "london"},
		},
	}).Execute(ctx)
	require.True(t, payload.Ok)
	require.Equal(t, PayloadKindSteVec, payload.Value.K)
	require.NotEmpty(t, payload.Value.SV)

	selectorTerm := client.EncryptQuery(QueryInput{
		Table: "documents", Column: "payload",
		Path:       []string{"address", "city"},
		QueryTypes: []QueryType{QuerySteVecSelector},
	}, ReturnTypePayload).Execute(ctx)
	require.True(t, selectorTerm.Ok)
	term := selectorTerm.Value.(*EncryptedQueryTerm)
	require.Equal(t, "documents/payload/address/city", term.S)

	found := false
	for _, entry := range payload.Value.SV {
		require.NotEqual(t, "", entry.Selector, "stored sv entries must carry the literal selector, not an opaque token")
		if entry.Selector == term.S {
			found = true
		}
	}
	require.True(t, found, "selector query token should match one stored sv entry's selector")
}

func TestSearchableJSON_JSONPathSelectorQuery(t *testing.T) {
	table, err := BuildTable("documents", map[string]any{
		"payload": NewColumn("payload").SearchableJSON("docs/metadata"),
	})
	require.NoError(t, err)
	client := testClient(t, table)
	ctx := context.Background()

	// spec.md scenario 3: a raw "$.a.b" string query value, no explicit
	// Path and no explicit QueryTypes — the auto-infer default must parse
	// it into path segments and resolve a selector query.
	term := client.EncryptQuery(QueryInput{
		Table: "documents", Column: "payload",
		Value: "$.user.email",
	}, ReturnTypePayload).Execute(ctx)
	require.True(t, term.Ok)
	got := term.Value.(*EncryptedQueryTerm)
	require.Equal(t, "docs/metadata/user/email", got.S)
	require.Empty(t, got.SV)
}

func TestSearchableJSON_AutoInferContainmentQuery(t *testing.T) {
	table, err := BuildTable("documents", map[string]any{
		"payload": NewColumn("payload").SearchableJSON("docs/metadata").DataType(DataTypeJSON),
	})
	require.NoError(t, err)
	client := testClient(t, table)
	ctx := context.Background()

	payload := client.Encrypt(EncryptInput{
		Table: "documents", Column: "payload",
		Value: map[string]any{"role": "admin", "status": "active"},
	}).Execute(ctx)
	require.True(t, payload.Ok)

	// spec.md scenario 4: an object query value, no explicit Path/Value
	// envelope and no explicit QueryTypes — the auto-infer default must
	// flatten it and return a containment term covering both leaves.
	term := client.EncryptQuery(QueryInput{
		Table: "documents", Column: "payload",
		Value: map[string]any{"role": "admin", "status": "active"},
	}, ReturnTypePayload).Execute(ctx)
	require.True(t, term.Ok)
	got := term.Value.(*EncryptedQueryTerm)
	require.Empty(t, got.S)
	require.Len(t, got.SV, 2)

	selectors := map[string]bool{}
	for _, entry := range got.SV {
		selectors[entry.Selector] = true
	}
	require.True(t, selectors["docs/metadata/role"])
	require.True(t, selectors["docs/metadata/status"])

	for _, entry := range got.SV {
		found := false
		for _, stored := range payload.Value.SV {
			if stored == entry {
				found = true
			}
		}
		require.True(t, found, "auto-inferred containment entry should match one stored sv entry exactly")
	}
}

func TestSearchableJSON_ContainmentQuery(t *testing.T) {
	table, err := BuildTable("documents", map[string]any{
		"payload": NewColumn("payload").SearchableJSON().DataType(DataTypeJSON),
	})
	require.NoError(t, err)
	client := testClient(t, table)
	ctx := context.Background()

	payload := client.Encrypt(EncryptInput{
		Table: "documents", Column: "payload",
		Value: map[string]any{
			"address": map[string]any{"city": "london"},
		},
	}).Execute(ctx)
	require.True(t, payload.Ok)

	matching := client.EncryptQuery(QueryInput{
		Table: "documents", Column: "payload",
		Path:       []string{"address", "city"},
		Value:      "london",
		QueryTypes: []QueryType{QuerySteVecTerm},
	}, ReturnTypePayload).Execute(ctx)
	require.True(t, matching.Ok)
	matchingTerm := matching.Value.(*EncryptedQueryTerm)
	require.Equal(t, payload.Value.SV[0], matchingTerm.SV[0])

	nonMatching := client.EncryptQuery(QueryInput{
		Table: "documents", Column: "payload",
		Path:       []string{"address", "city"},
		Value:      "paris",
		QueryTypes: []QueryType{QuerySteVecTerm},
	}, ReturnTypePayload).Execute(ctx)
	require.True(t, nonMatching.Ok)
	nonMatchingTerm := nonMatching.Value.(*EncryptedQueryTerm)
	require.NotEqual(t, payload.Value.SV[0], nonMatchingTerm.SV[0])
}
