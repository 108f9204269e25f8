package protect

import (
	"context"
	"encoding/json"
)

// QueryInput names a column and a query-time plaintext to build index
// terms for.
type QueryInput struct {
	Table  string
	Column string
	Value  any

	// Path selects the leaf within a searchable-JSON column that
	// QuerySteVecSelector/QuerySteVecTerm query against. Ignored for
	// every other query type.
	Path []string

	// QueryTypes restricts which index fragments to build. Empty means
	// "every index configured on the column", matching spec.md's default
	// (EncryptQuery with no explicit query type builds all applicable
	// terms).
	QueryTypes []QueryType
}

// ReturnType selects the shape EncryptQuery's Result is rendered in.
type ReturnType int

const (
	// ReturnTypePayload returns the term as a *EncryptedQueryTerm struct.
	ReturnTypePayload ReturnType = iota
	// ReturnTypeComposite renders the term as the composite-literal
	// string format storage/wire callers pass straight into a SQL query.
	ReturnTypeComposite
	// ReturnTypeEscaped is ReturnTypeComposite with the doubled-quote
	// escaping a query string literal requires.
	ReturnTypeEscaped
)

// EncryptQuery builds an Operation producing a term queryable against the
// named column's searchable encryption index(es), optionally rendered
// directly into the storage wire format via as.
func (c *EncryptionClient) EncryptQuery(in QueryInput, as ReturnType) *Operation[any] {
	return newOperation(c, func(ctx context.Context, op *Operation[any]) (any, *Failure) {
		col, f := c.resolveColumn(in.Table, in.Column)
		if f != nil {
			return nil, f
		}

		term, f := c.buildQueryTerm(ctx, col, in.Value, in.Path, in.QueryTypes, op.lock)
		if f != nil {
			return nil, f
		}

		switch as {
		case ReturnTypePayload:
			return term, nil
		case ReturnTypeComposite:
			return encodeComposite(term), nil
		case ReturnTypeEscaped:
			return escapeComposite(encodeComposite(term)), nil
		default:
			return nil, newFailure(KindConfigError, "unknown return type", nil)
		}
	})
}

// CreateSearchTerms builds query terms for several (column, value) pairs
// in one call, one Result per input — the bulk counterpart EncryptQuery's
// single-term form lacks.
func (c *EncryptionClient) CreateSearchTerms(inputs []QueryInput, as ReturnType) *Operation[[]Result[any]] {
	return newOperation(c, func(ctx context.Context, op *Operation[[]Result[any]]) ([]Result[any], *Failure) {
		out := make([]Result[any], len(inputs))
		for i, in := range inputs {
			res := c.EncryptQuery(in, as).WithLockContext(op.lock).Execute(ctx)
			out[i] = res
		}
		return out, nil
	})
}

// buildQueryTerm marshals value and asks the crypto engine for the token
// fragment(s) each requested query type needs, merging them into a single
// EncryptedQueryTerm (a term can carry both an "hm" and a "bf" fragment,
// for instance, if both QueryEquality and QueryFreeTextSearch are
// requested on the same column).
func (c *EncryptionClient) buildQueryTerm(ctx context.Context, col *Column, value any, path []string, qts []QueryType, lc *LockContext) (*EncryptedQueryTerm, *Failure) {
	if len(qts) == 0 {
		qts = defaultQueryTypes(col)
	}

	key, f := c.deriveKey(ctx, col.table.Name+"/"+col.Path, lc)
	if f != nil {
		return nil, f
	}

	term := &EncryptedQueryTerm{
		V: payloadVersion,
		K: PayloadKindPlaintext,
		I: Identification{Table: col.table.Name, Column: col.Path},
	}

	for _, qt := range qts {
		if failure := col.requireIndex(qt); failure != nil {
			return nil, failure
		}

		plaintext, err := queryPlaintextFor(qt, value, path, col)
		if err != nil {
			return nil, newFailure(KindEncryptionError, "failed to marshal query value", err)
		}

		frag, err := c.engine.BuildIndexToken(plaintext, key, col, qt)
		if err != nil {
			return nil, newFailure(KindEncryptionError, "failed to build index token", err)
		}
		mergeFragment(term, frag)
	}
	return term, nil
}

// queryPlaintextFor builds the byte plaintext CryptoEngine.BuildIndexToken
// expects for qt: the column's canonical marshaled value for scalar index
// types, or the path/value envelope ste-vec query types require.
func queryPlaintextFor(qt QueryType, value any, path []string, col *Column) ([]byte, error) {
	switch qt {
	case QuerySteVecSelector:
		resolved, err := resolveSteVecPath(value, path)
		if err != nil {
			return nil, err
		}
		return json.Marshal(steVecSelectorInput{Path: resolved})
	case QuerySteVecTerm:
		return json.Marshal(steVecTermInput{Path: path, Value: value})
	case QuerySearchableJSONAuto:
		// Left as-is: the engine infers selector vs. term from value's own
		// JSON-decoded shape (spec.md §4.6), so no envelope is needed here.
		return json.Marshal(value)
	default:
		return marshalPlaintext(value, col.Config.DataType)
	}
}

// resolveSteVecPath returns path unchanged when the caller supplied one
// explicitly, otherwise parses value as a "$.a.b" JSONPath-lite string —
// the form spec.md's literal scenarios feed a selector query without a
// separately pre-split Path.
func resolveSteVecPath(value any, path []string) ([]string, error) {
	if len(path) > 0 {
		return path, nil
	}
	s, ok := value.(string)
	if !ok {
		return nil, newFailure(KindEncryptionError, "ste-vec selector query needs a Path or a \"$.a.b\" string Value", nil)
	}
	return parseJSONPath(s)
}

// defaultQueryTypes returns every query type col has an index configured
// for, the "no explicit query type" default EncryptQuery applies.
func defaultQueryTypes(col *Column) []QueryType {
	var qts []QueryType
	if col.Config.Equality != nil {
		qts = append(qts, QueryEquality)
	}
	if col.Config.MatchSearch != nil {
		qts = append(qts, QueryFreeTextSearch)
	}
	if col.Config.OrderAndRange {
		qts = append(qts, QueryOrderAndRange)
	}
	if col.Config.SearchableJSON != nil {
		qts = append(qts, QuerySearchableJSONAuto)
	}
	return qts
}

// mergeFragment folds one IndexFragment's populated field(s) into term.
func mergeFragment(term *EncryptedQueryTerm, frag IndexFragment) {
	if frag.HM != "" {
		term.HM = frag.HM
	}
	if frag.BF != nil {
		term.BF = frag.BF
	}
	if frag.OB != "" {
		term.OB = frag.OB
	}
	if frag.S != "" {
		term.S = frag.S
	}
	if frag.SV != nil {
		term.SV = frag.SV
	}
}
