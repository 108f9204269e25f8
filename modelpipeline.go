package protect

import "context"

// EncryptModel builds an Operation that encrypts every configured column
// of table found in record, returning a copy of record with those leaves
// replaced by their EncryptedPayload. Leaves absent from record, or
// explicitly nil, are left absent/nil — NULL values are never encrypted,
// matching spec.md's null-preservation rule.
//
// Every present column's data key is resolved in a single DeriveKeys call
// covering the whole record, not one call per column (spec.md §4.2/§4.5's
// "one remote round trip per call regardless of N").
func (c *EncryptionClient) EncryptModel(tableName string, record map[string]any) *Operation[map[string]any] {
	return newOperation(c, func(ctx context.Context, op *Operation[map[string]any]) (map[string]any, *Failure) {
		t, f := c.table(tableName)
		if f != nil {
			return nil, f
		}

		out := deepCopyMap(record)
		cols := t.Columns()

		present := make([]bool, len(cols))
		values := make([]any, len(cols))
		keyCols := make([]*Column, len(cols))
		for i, col := range cols {
			value, ok := lookupPath(out, col.Path)
			if !ok || value == nil {
				continue
			}
			present[i] = true
			values[i] = value
			keyCols[i] = col
		}

		keys, f := c.deriveKeysForColumns(ctx, keyCols, op.lock)
		if f != nil {
			return nil, f
		}

		for i, col := range cols {
			if !present[i] {
				continue
			}
			payload, f := c.sealValue(col, values[i], keys[i])
			if f != nil {
				return nil, f
			}
			setPath(out, col.Path, payload)
		}
		return out, nil
	})
}

// DecryptModel is EncryptModel's inverse: every configured column present
// in record as an *EncryptedPayload (or the map shape json.Unmarshal
// produces for one) is replaced by its decrypted plaintext value, with
// the same single-DeriveKeys-call batching as EncryptModel.
//
// Unlike BulkDecrypt, a single column failing to decrypt fails the whole
// operation — spec.md scopes per-item partial success to the Bulk* APIs
// only, not to model decryption.
func (c *EncryptionClient) DecryptModel(tableName string, record map[string]any) *Operation[map[string]any] {
	return newOperation(c, func(ctx context.Context, op *Operation[map[string]any]) (map[string]any, *Failure) {
		t, f := c.table(tableName)
		if f != nil {
			return nil, f
		}

		out := deepCopyMap(record)
		cols := t.Columns()

		present := make([]bool, len(cols))
		payloads := make([]*EncryptedPayload, len(cols))
		keyCols := make([]*Column, len(cols))
		for i, col := range cols {
			raw, ok := lookupPath(out, col.Path)
			if !ok || raw == nil {
				continue
			}
			payload, err := coercePayload(raw)
			if err != nil {
				return nil, newFailure(KindDecryptionError, "column "+col.Path+" is not a valid encrypted payload", err)
			}
			present[i] = true
			payloads[i] = payload
			keyCols[i] = col
		}

		keys, f := c.deriveKeysForColumns(ctx, keyCols, op.lock)
		if f != nil {
			return nil, f
		}

		for i, col := range cols {
			if !present[i] {
				continue
			}
			value, f := c.openValue(col, payloads[i], keys[i])
			if f != nil {
				return nil, f
			}
			setPath(out, col.Path, value)
		}
		return out, nil
	})
}

// BulkEncryptModels runs EncryptModel's logic over every record
// independently, one Result per record.
func (c *EncryptionClient) BulkEncryptModels(tableName string, records []map[string]any) *Operation[[]Result[map[string]any]] {
	return newOperation(c, func(ctx context.Context, op *Operation[[]Result[map[string]any]]) ([]Result[map[string]any], *Failure) {
		out := make([]Result[map[string]any], len(records))
		for i, rec := range records {
			res := c.EncryptModel(tableName, rec).WithLockContext(op.lock).Execute(ctx)
			out[i] = res
		}
		return out, nil
	})
}

// BulkDecryptModels runs DecryptModel's logic over every record
// independently, one Result per record.
func (c *EncryptionClient) BulkDecryptModels(tableName string, records []map[string]any) *Operation[[]Result[map[string]any]] {
	return newOperation(c, func(ctx context.Context, op *Operation[[]Result[map[string]any]]) ([]Result[map[string]any], *Failure) {
		out := make([]Result[map[string]any], len(records))
		for i, rec := range records {
			res := c.DecryptModel(tableName, rec).WithLockContext(op.lock).Execute(ctx)
			out[i] = res
		}
		return out, nil
	})
}
