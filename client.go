package protect

import (
	"context"
	"encoding/hex"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// decodeHexKey decodes a hex-encoded root key string.
func decodeHexKey(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// EncryptionClient is the entry point for every encrypt/decrypt/query
// operation: schemas plus the collaborators (key service, crypto engine,
// identity service, logger, metrics) needed to carry them out. Built once
// via NewClient and safe for concurrent use thereafter — it holds no
// request-scoped mutable state, matching the teacher package's Provider.
type EncryptionClient struct {
	tables   map[string]*Table
	keys     KeyService
	engine   CryptoEngine
	identity IdentityService
	logger   *zap.Logger
	metrics  *metricsCollector
}

// ClientOption configures NewClient, mirroring the teacher package's
// functional-option style (options.go).
type ClientOption func(*clientConfig) error

type clientConfig struct {
	tables   []*Table
	keys     KeyService
	engine   CryptoEngine
	identity IdentityService
	logger   *zap.Logger
	registry prometheus.Registerer
	config   *Config
}

// WithSchemas registers one or more Tables the client can encrypt/decrypt
// against. At least one schema is required.
func WithSchemas(tables ...*Table) ClientOption {
	return func(c *clientConfig) error {
		c.tables = append(c.tables, tables...)
		return nil
	}
}

// WithKeyService overrides the default LocalKeyService built from
// Config.RootKeyHex.
func WithKeyService(ks KeyService) ClientOption {
	return func(c *clientConfig) error {
		c.keys = ks
		return nil
	}
}

// WithCryptoEngine overrides the default DefaultEngine.
func WithCryptoEngine(engine CryptoEngine) ClientOption {
	return func(c *clientConfig) error {
		c.engine = engine
		return nil
	}
}

// WithIdentityService overrides the default JWTIdentityService built from
// Config.JWTSecret.
func WithIdentityService(svc IdentityService) ClientOption {
	return func(c *clientConfig) error {
		c.identity = svc
		return nil
	}
}

// WithLogger overrides the default zap logger built from Config.LogLevel.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *clientConfig) error {
		c.logger = logger
		return nil
	}
}

// WithMetricsRegistry registers the client's Prometheus collectors against
// reg instead of the default registerer. Collectors are registered only
// when Config.MetricsEnabled is set.
func WithMetricsRegistry(reg prometheus.Registerer) ClientOption {
	return func(c *clientConfig) error {
		c.registry = reg
		return nil
	}
}

// WithConfig supplies an explicit Config instead of LoadConfigFromEnv's
// defaults; explicit WithKeyService/WithIdentityService/WithLogger options
// still take precedence over values derived from Config.
func WithConfig(cfg *Config) ClientOption {
	return func(c *clientConfig) error {
		c.config = cfg
		return nil
	}
}

// NewClient builds an EncryptionClient from the given options. At least
// one WithSchemas call is required.
func NewClient(opts ...ClientOption) (*EncryptionClient, error) {
	cc := &clientConfig{}
	for _, opt := range opts {
		if err := opt(cc); err != nil {
			return nil, newFailure(KindClientInitError, "option failed", err)
		}
	}

	if len(cc.tables) == 0 {
		return nil, newFailure(KindClientInitError, "at least one schema is required", ErrNilSchema)
	}

	if cc.config == nil {
		loaded, err := LoadConfigFromEnv()
		if err != nil {
			return nil, newFailure(KindClientInitError, "failed to load config", err)
		}
		cc.config = loaded
	}

	if cc.logger == nil {
		logger, err := newLogger(cc.config.LogLevel)
		if err != nil {
			return nil, newFailure(KindClientInitError, "failed to build logger", err)
		}
		cc.logger = logger
	}

	if cc.keys == nil {
		ks, err := keyServiceFromConfig(cc.config)
		if err != nil {
			return nil, err
		}
		cc.keys = ks
	}

	if cc.identity == nil && cc.config.JWTSecret != "" {
		cc.identity = NewJWTIdentityService([]byte(cc.config.JWTSecret), "sub")
	}

	if cc.engine == nil {
		engine := NewDefaultEngine()
		if cc.config.CompressionThresholdBytes > 0 {
			engine.CompressionThreshold = cc.config.CompressionThresholdBytes
		}
		cc.engine = engine
	}

	var registry prometheus.Registerer
	if cc.config.MetricsEnabled {
		if cc.registry != nil {
			registry = cc.registry
		} else {
			registry = prometheus.DefaultRegisterer
		}
	}

	tables := make(map[string]*Table, len(cc.tables))
	for _, t := range cc.tables {
		tables[t.Name] = t
	}

	return &EncryptionClient{
		tables:   tables,
		keys:     cc.keys,
		engine:   cc.engine,
		identity: cc.identity,
		logger:   cc.logger,
		metrics:  newMetricsCollector(registry),
	}, nil
}

// keyServiceFromConfig builds the default LocalKeyService from a hex root
// key, failing with a ClientInitError when none was supplied or the key
// is not valid hex.
func keyServiceFromConfig(cfg *Config) (KeyService, error) {
	if cfg.RootKeyHex == "" {
		return nil, newFailure(KindClientInitError, "no key service configured: set PROTECT_ROOT_KEY or call WithKeyService", nil)
	}
	raw, err := decodeHexKey(cfg.RootKeyHex)
	if err != nil {
		return nil, newFailure(KindClientInitError, "invalid PROTECT_ROOT_KEY", err)
	}
	ks, err := NewLocalKeyService(raw)
	if err != nil {
		return nil, err
	}
	return ks, nil
}

// table resolves a table name, or a SchemaError failure.
func (c *EncryptionClient) table(name string) (*Table, *Failure) {
	t, ok := c.tables[name]
	if !ok {
		return nil, newFailure(KindSchemaError, "table "+name+" is not registered with this client", ErrColumnNotFound)
	}
	return t, nil
}

// deriveKey resolves the single data key for one column, optionally bound
// to lc's identity.
func (c *EncryptionClient) deriveKey(ctx context.Context, identifier string, lc *LockContext) ([32]byte, *Failure) {
	keys, err := c.keys.DeriveKeys(ctx, []KeyRequest{{Identifier: identifier, LockContext: lc}})
	if err != nil {
		return [32]byte{}, newFailure(KindKmsError, "key derivation failed", err)
	}
	if len(keys) != 1 {
		return [32]byte{}, newFailure(KindKmsError, "key service returned unexpected result count", nil)
	}
	return keys[0].Key, nil
}

// deriveKeysForColumns resolves one data key per entry of cols in a
// single DeriveKeys call, coalescing a whole bulk/model operation's key
// material into one remote round trip regardless of how many columns it
// covers (spec.md §4.2/§4.5's "one remote round trip per call"). A nil
// entry in cols (a column that a caller already failed to resolve, or a
// record leaf that was absent/NULL) is skipped and left as the zero key
// in the result — callers must not use that position's key.
func (c *EncryptionClient) deriveKeysForColumns(ctx context.Context, cols []*Column, lc *LockContext) ([][32]byte, *Failure) {
	reqs := make([]KeyRequest, 0, len(cols))
	idxs := make([]int, 0, len(cols))
	for i, col := range cols {
		if col == nil {
			continue
		}
		reqs = append(reqs, KeyRequest{Identifier: col.table.Name + "/" + col.Path, LockContext: lc})
		idxs = append(idxs, i)
	}

	keys := make([][32]byte, len(cols))
	if len(reqs) == 0 {
		return keys, nil
	}

	derived, err := c.keys.DeriveKeys(ctx, reqs)
	if err != nil {
		return nil, newFailure(KindKmsError, "key derivation failed", err)
	}
	if len(derived) != len(reqs) {
		return nil, newFailure(KindKmsError, "key service returned unexpected result count", nil)
	}
	for j, idx := range idxs {
		keys[idx] = derived[j].Key
	}
	return keys, nil
}
