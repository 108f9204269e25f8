package protect

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds the environment-driven settings LoadConfigFromEnv reads
// (viper, PROTECT_-prefixed keys).
type Config struct {
	// RootKeyHex is the LocalKeyService root key, hex-encoded, read from
	// PROTECT_ROOT_KEY. Ignored when a KeyService is supplied explicitly
	// via WithKeyService.
	RootKeyHex string

	// JWTSecret signs/verifies lock-context session tokens, read from
	// PROTECT_JWT_SECRET. Ignored when an IdentityService is supplied
	// explicitly via WithIdentityService.
	JWTSecret string

	// CompressionThresholdBytes overrides DefaultEngine's compression
	// threshold, read from PROTECT_COMPRESSION_THRESHOLD_BYTES.
	CompressionThresholdBytes int

	// MetricsEnabled gates Prometheus collector registration, read from
	// PROTECT_METRICS_ENABLED.
	MetricsEnabled bool

	// LogLevel is the zap level name ("debug", "info", "warn", "error"),
	// read from PROTECT_LOG_LEVEL.
	LogLevel string
}

// LoadConfigFromEnv builds a Config from PROTECT_-prefixed environment
// variables, applying the same defaults NewClient uses when no Config is
// supplied.
func LoadConfigFromEnv() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("protect")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("compression_threshold_bytes", defaultCompressionThreshold)
	v.SetDefault("metrics_enabled", false)
	v.SetDefault("log_level", "info")

	cfg := &Config{
		RootKeyHex:                v.GetString("root_key"),
		JWTSecret:                 v.GetString("jwt_secret"),
		CompressionThresholdBytes: v.GetInt("compression_threshold_bytes"),
		MetricsEnabled:            v.GetBool("metrics_enabled"),
		LogLevel:                  v.GetString("log_level"),
	}
	return cfg, nil
}
