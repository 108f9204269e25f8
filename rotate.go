package protect

import "context"

// RotatePayload builds an Operation that re-encrypts payload using this
// client's current KeyService and CryptoEngine, after opening it with
// oldKeys — the key-rotation path for moving existing ciphertext onto a
// new root key or a new KeyService implementation entirely.
//
// Every index token the column's configuration currently enables is
// rebuilt, so rotating also picks up any index added to the column's
// configuration since payload was first sealed.
func (c *EncryptionClient) RotatePayload(payload *EncryptedPayload, oldKeys KeyService) *Operation[*EncryptedPayload] {
	return newOperation(c, func(ctx context.Context, op *Operation[*EncryptedPayload]) (*EncryptedPayload, *Failure) {
		col, f := c.resolveColumn(payload.I.Table, payload.I.Column)
		if f != nil {
			return nil, f
		}

		oldKeyReqs := []KeyRequest{{Identifier: col.table.Name + "/" + col.Path, LockContext: op.lock}}
		oldDerived, err := oldKeys.DeriveKeys(ctx, oldKeyReqs)
		if err != nil || len(oldDerived) != 1 {
			return nil, newFailure(KindKmsError, "failed to derive old key for rotation", err)
		}

		plaintext, err := c.engine.DecryptValue(payload, oldDerived[0].Key)
		if err != nil {
			return nil, newFailure(KindDecryptionError, "failed to open payload under old key during rotation", err)
		}

		newKey, f := c.deriveKey(ctx, col.table.Name+"/"+col.Path, op.lock)
		if f != nil {
			return nil, f
		}

		rotated, err := c.engine.EncryptValue(plaintext, newKey, col)
		if err != nil {
			return nil, newFailure(KindEncryptionError, "failed to re-seal payload during rotation", err)
		}
		return rotated, nil
	})
}

// RotateModel applies RotatePayload to every configured column of table
// present in record, returning a copy of record with those columns
// re-encrypted under this client's current KeyService.
func (c *EncryptionClient) RotateModel(tableName string, record map[string]any, oldKeys KeyService) *Operation[map[string]any] {
	return newOperation(c, func(ctx context.Context, op *Operation[map[string]any]) (map[string]any, *Failure) {
		t, f := c.table(tableName)
		if f != nil {
			return nil, f
		}

		out := deepCopyMap(record)
		for _, col := range t.Columns() {
			raw, present := lookupPath(out, col.Path)
			if !present || raw == nil {
				continue
			}
			payload, err := coercePayload(raw)
			if err != nil {
				return nil, newFailure(KindDecryptionError, "column "+col.Path+" is not a valid encrypted payload", err)
			}

			rotated := c.RotatePayload(payload, oldKeys).WithLockContext(op.lock).Execute(ctx)
			if !rotated.Ok {
				return nil, rotated.Err
			}
			setPath(out, col.Path, rotated.Value)
		}
		return out, nil
	})
}
