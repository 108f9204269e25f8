// Package protect provides client-side, searchable field-level encryption
// for application data stored in a SQL database.
//
// An application declares which columns are sensitive using a Table schema;
// the client encrypts each value with a per-value key derived from a key
// management service, and emits a structured ciphertext payload that
// carries both the encrypted value and one or more search indexes so the
// database can evaluate equality, full-text, range, and encrypted-JSON
// queries against ciphertext without ever seeing the plaintext.
//
// # Basic usage
//
//	users, _ := protect.BuildTable("users", map[string]any{
//	    "email": protect.NewColumn("email").Equality(),
//	})
//
//	keys, err := protect.NewLocalKeyService(rootKey)
//	client, err := protect.NewClient(
//	    protect.WithSchemas(users),
//	    protect.WithKeyService(keys),
//	)
//
//	result := client.Encrypt(protect.EncryptInput{
//	    Table: "users", Column: "email", Value: "alice@example.com",
//	}).Execute(ctx)
//	if !result.Ok {
//	    return result.Err
//	}
//	payload := result.Value
//
// # Searchable queries
//
//	query := client.EncryptQuery(protect.QueryInput{
//	    Table: "users", Column: "email", Value: "alice@example.com",
//	    QueryTypes: []protect.QueryType{protect.QueryEquality},
//	}, protect.ReturnTypePayload).Execute(ctx)
//	term := query.Unwrap().(*protect.EncryptedQueryTerm)
//	// term.HM is the equality token a database index can match against
//	// the "hm" field stored alongside every encrypted email value.
//
// # Lock contexts
//
// A LockContext binds ciphertext to a caller's identity: payloads encrypted
// under a lock context can only be decrypted by a caller presenting the
// same identity claim.
//
// # NULL handling
//
// A nil plaintext always round-trips to a nil payload; this mirrors how a
// SQL NULL in an encrypted column should behave under encryption, and is
// preserved throughout the value and model pipelines.
package protect
