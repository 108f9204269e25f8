package protect

import "strings"

// DataType identifies the plaintext encoding of a column's values,
// selecting how the crypto engine serializes values to bytes and how the
// order index (if any) builds its fixed-width comparable encoding.
type DataType int

const (
	DataTypeString DataType = iota
	DataTypeNumber
	DataTypeBoolean
	DataTypeDate
	DataTypeBigInt
	DataTypeJSON
	DataTypeJSONB
)

// EqualityConfig configures the equality ("hm") index. A nil
// *EqualityConfig means the index is not configured.
type EqualityConfig struct {
	// TokenFilters are applied, in order, to the plaintext before the
	// equality token is computed (e.g. Downcase for case-insensitive
	// lookups). Empty means no filters.
	TokenFilters []TokenFilter
}

// MatchSearchConfig configures the full-text ("bf") index.
type MatchSearchConfig struct {
	Tokenizer    Tokenizer
	TokenFilters []TokenFilter
}

// SearchableJSONConfig configures the ste-vec ("s"/"sv") index for a JSON
// or JSONB column.
type SearchableJSONConfig struct {
	// Prefix defaults to "{table}/{column}" when empty.
	Prefix string
}

// ColumnIndexConfig is the full set of optional index settings for one
// encrypted column, plus its data type.
type ColumnIndexConfig struct {
	Equality       *EqualityConfig
	MatchSearch    *MatchSearchConfig
	OrderAndRange  bool
	SearchableJSON *SearchableJSONConfig
	DataType       DataType
}

// Column describes one encrypted leaf field of a Table, identified within
// the table by its dotted path (e.g. "profile.address"). Name is the
// declared leaf name, which may differ from the final path segment; it is
// the column component of the default searchable-JSON selector prefix.
type Column struct {
	Name   string
	Path   string
	Config ColumnIndexConfig

	// table is a direct pointer back to the Table holding this column (the
	// Table in turn points at its columns); it is never serialized.
	table *Table
}

// Table returns the Table this column belongs to.
func (c *Column) Table() *Table { return c.table }

// requireIndex validates that the column has the index implied by qt
// configured, returning a ConfigError failure naming the builder method
// to call otherwise.
func (c *Column) requireIndex(qt QueryType) *Failure {
	switch qt {
	case QueryEquality:
		if c.Config.Equality == nil {
			return newFailure(KindConfigError, "column "+c.Path+" has no equality index; call Equality() when declaring it", ErrIndexNotConfigured)
		}
	case QueryFreeTextSearch:
		if c.Config.MatchSearch == nil {
			return newFailure(KindConfigError, "column "+c.Path+" has no match-search index; call FreeTextSearch() when declaring it", ErrIndexNotConfigured)
		}
	case QueryOrderAndRange:
		if !c.Config.OrderAndRange {
			return newFailure(KindConfigError, "column "+c.Path+" has no order index; call OrderAndRange() when declaring it", ErrIndexNotConfigured)
		}
	case QuerySteVecSelector, QuerySteVecTerm, QuerySearchableJSONAuto:
		if c.Config.SearchableJSON == nil {
			return newFailure(KindConfigError, "column "+c.Path+" is not searchable-JSON; call SearchableJSON() when declaring it", ErrIndexNotConfigured)
		}
	}
	return nil
}

// Table is a declarative description of one encrypted table: its name and
// the flattened set of encrypted columns, keyed by dotted path. Tables are
// built once via BuildTable and are immutable and safe to share thereafter.
type Table struct {
	Name    string
	columns map[string]*Column
	order   []string // insertion order, for deterministic bulk-model iteration
}

// Column resolves a dotted path to its Column, if the path is an encrypted
// column of this table.
func (t *Table) Column(dottedPath string) (*Column, bool) {
	c, ok := t.columns[dottedPath]
	return c, ok
}

// Columns returns all encrypted columns in declaration order.
func (t *Table) Columns() []*Column {
	out := make([]*Column, 0, len(t.order))
	for _, p := range t.order {
		out = append(out, t.columns[p])
	}
	return out
}

// ColumnBuilder accumulates index configuration for one column declaration
// inside a BuildTable layout. Methods chain and return the same builder,
// mirroring the teacher package's functional-option chaining style.
type ColumnBuilder struct {
	name   string
	config ColumnIndexConfig
}

// NewColumn starts a column declaration with the given leaf name.
func NewColumn(name string) *ColumnBuilder {
	return &ColumnBuilder{name: name}
}

// Equality enables the equality ("hm") index, optionally with token
// filters applied before hashing.
func (b *ColumnBuilder) Equality(filters ...TokenFilter) *ColumnBuilder {
	b.config.Equality = &EqualityConfig{TokenFilters: filters}
	return b
}

// FreeTextSearch enables the full-text ("bf") index.
func (b *ColumnBuilder) FreeTextSearch(opts ...MatchSearchOption) *ColumnBuilder {
	cfg := &MatchSearchConfig{Tokenizer: TrigramTokenizer, TokenFilters: []TokenFilter{Downcase}}
	for _, opt := range opts {
		opt(cfg)
	}
	b.config.MatchSearch = cfg
	return b
}

// MatchSearchOption configures a FreeTextSearch index.
type MatchSearchOption func(*MatchSearchConfig)

// WithTokenizer overrides the default trigram tokenizer.
func WithTokenizer(t Tokenizer) MatchSearchOption {
	return func(c *MatchSearchConfig) { c.Tokenizer = t }
}

// WithMatchTokenFilters overrides the default token filters ([]Downcase).
func WithMatchTokenFilters(filters ...TokenFilter) MatchSearchOption {
	return func(c *MatchSearchConfig) { c.TokenFilters = filters }
}

// OrderAndRange enables the order-preserving ("ob") index.
func (b *ColumnBuilder) OrderAndRange() *ColumnBuilder {
	b.config.OrderAndRange = true
	return b
}

// SearchableJSON enables the ste-vec ("s"/"sv") index. An explicit prefix
// overrides the "{table}/{column}" default applied during BuildTable.
func (b *ColumnBuilder) SearchableJSON(prefix ...string) *ColumnBuilder {
	cfg := &SearchableJSONConfig{}
	if len(prefix) > 0 {
		cfg.Prefix = prefix[0]
	}
	b.config.SearchableJSON = cfg
	return b
}

// DataType sets the column's plaintext data type (default DataTypeString).
func (b *ColumnBuilder) DataType(kind DataType) *ColumnBuilder {
	b.config.DataType = kind
	return b
}

// BuildTable flattens a layout — a mapping from field name to either a
// *ColumnBuilder leaf or a nested map[string]any group of the same shape —
// into a Table whose columns are keyed by dotted path.
//
// Nested groups are flattened depth-first; a leaf's declared Name is
// preserved even though its key in the flattened map is the full dotted
// path, so the leaf name remains available for searchable-JSON selector
// prefixes.
func BuildTable(name string, layout map[string]any) (*Table, error) {
	t := &Table{Name: name, columns: make(map[string]*Column)}

	var walk func(prefix string, node map[string]any) error
	walk = func(prefix string, node map[string]any) error {
		for key, v := range node {
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			switch leaf := v.(type) {
			case *ColumnBuilder:
				if err := validateIndexConfig(leaf.config); err != nil {
					return err
				}
				if _, exists := t.columns[path]; exists {
					return newFailure(KindClientInitError, "duplicate column path "+path, ErrDuplicatePath)
				}
				col := &Column{Name: leaf.name, Path: path, Config: leaf.config, table: t}
				if col.Config.SearchableJSON != nil && col.Config.SearchableJSON.Prefix == "" {
					col.Config.SearchableJSON.Prefix = name + "/" + leaf.name
				}
				t.columns[path] = col
				t.order = append(t.order, path)
			case map[string]any:
				if err := walk(path, leaf); err != nil {
					return err
				}
			default:
				return newFailure(KindClientInitError, "layout entry "+path+" must be a *ColumnBuilder or nested map", ErrInvalidIndexConfig)
			}
		}
		return nil
	}

	if err := walk("", layout); err != nil {
		return nil, err
	}
	return t, nil
}

// validateIndexConfig enforces mutually-exclusive index combinations.
func validateIndexConfig(cfg ColumnIndexConfig) error {
	if cfg.SearchableJSON != nil && cfg.OrderAndRange {
		return newFailure(KindClientInitError, "searchableJson and orderAndRange are mutually exclusive on one column", ErrInvalidIndexConfig)
	}
	return nil
}

// TokenFilter transforms a plaintext string into a canonical form before
// an equality or match-search token is computed. Use the same filters on
// write and on query, or lookups silently fail to match.
type TokenFilter func(string) string

// Downcase lowercases its input.
var Downcase TokenFilter = strings.ToLower

// Trim trims leading/trailing whitespace.
var Trim TokenFilter = strings.TrimSpace

// applyFilters runs a plaintext string through a chain of filters in order.
func applyFilters(s string, filters []TokenFilter) string {
	for _, f := range filters {
		s = f(s)
	}
	return s
}
