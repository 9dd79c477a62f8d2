// Package loader - Configuration Types
//
// Defines the YAML configuration structure for docserviced.
//
//	listen:    HTTP listen address
//	tls:       optional certificate pair
//	logging:   level and output format
//	http:      body limit and timeouts
//	storage:   backend driver and its settings
//	  duckdb:    embedded database file and pool
//	  dynamodb:  region, endpoint and table creation
package loader

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xtxerr/docservice/config"
)

// =============================================================================
// Root Configuration
// =============================================================================

// Config is the root configuration structure for docserviced.
type Config struct {
	// Listen is the HTTP listen address.
	// Format: "host:port" or ":port"
	// Default: "0.0.0.0:3000"
	Listen string `yaml:"listen"`

	// TLS configures transport layer security.
	TLS TLSConfig `yaml:"tls"`

	// Logging configures the global logger.
	Logging LoggingConfig `yaml:"logging"`

	// HTTP configures request limits and timeouts.
	HTTP HTTPConfig `yaml:"http"`

	// Storage selects and configures the backend.
	Storage StorageConfig `yaml:"storage"`
}

// =============================================================================
// Server Configuration
// =============================================================================

// TLSConfig configures TLS. Both files must be set to enable it.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// Enabled reports whether TLS is configured.
func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" && t.KeyFile != ""
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// HTTPConfig configures the HTTP surface.
type HTTPConfig struct {
	// MaxBodyBytes caps POST bodies. Accepts "8MB" or a plain byte count.
	MaxBodyBytes ByteSize `yaml:"max_body_bytes"`

	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`

	// DrainTimeoutSec is how long shutdown waits for in-flight requests.
	DrainTimeoutSec int `yaml:"drain_timeout_sec"`
}

// =============================================================================
// Storage Configuration
// =============================================================================

// StorageConfig selects the backend.
type StorageConfig struct {
	// Driver is "duckdb" or "dynamodb".
	Driver string `yaml:"driver"`

	// Namespace is the DuckDB schema, or the DynamoDB table name prefix.
	Namespace string `yaml:"namespace"`

	// OperationTimeoutSec bounds each storage call. 0 disables the bound.
	OperationTimeoutSec int `yaml:"operation_timeout_sec"`

	DuckDB   DuckDBConfig   `yaml:"duckdb"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
}

// DuckDBConfig configures the embedded backend.
type DuckDBConfig struct {
	// Path is the database file. Empty opens an in-memory database.
	Path string `yaml:"path"`

	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
}

// DynamoDBConfig configures the DynamoDB backend. Credentials come from the
// standard AWS environment and shared config files.
type DynamoDBConfig struct {
	Region string `yaml:"region"`

	// Endpoint overrides the service URL (DynamoDB Local, LocalStack).
	Endpoint string `yaml:"endpoint"`

	// CreateTimeoutSec bounds the wait for new tables to become ACTIVE.
	CreateTimeoutSec int `yaml:"create_timeout_sec"`

	// PageSize limits items per Query page. 0 lets DynamoDB decide.
	PageSize int32 `yaml:"page_size"`
}

// =============================================================================
// Defaults
// =============================================================================

// DefaultConfig returns a Config populated from package config.
func DefaultConfig() *Config {
	return &Config{
		Listen: config.DefaultListen,

		Logging: LoggingConfig{
			Level:  config.DefaultLogLevel,
			Format: config.DefaultLogFormat,
		},

		HTTP: HTTPConfig{
			MaxBodyBytes:    config.DefaultMaxBodyBytes,
			ReadTimeoutSec:  config.DefaultReadTimeoutSec,
			WriteTimeoutSec: config.DefaultWriteTimeoutSec,
			DrainTimeoutSec: config.DefaultDrainTimeoutSec,
		},

		Storage: StorageConfig{
			Driver:              config.DefaultDriver,
			Namespace:           config.DefaultNamespace,
			OperationTimeoutSec: config.DefaultOperationTimeoutSec,

			DuckDB: DuckDBConfig{
				Path:            config.DefaultDuckDBPath,
				MaxOpenConns:    config.DefaultMaxOpenConns,
				MaxIdleConns:    config.DefaultMaxIdleConns,
				ConnMaxLifetime: Duration(config.DefaultConnMaxLifetime),
			},

			DynamoDB: DynamoDBConfig{
				Region:           config.DefaultDynamoRegion,
				CreateTimeoutSec: config.DefaultCreateTimeoutSec,
			},
		},
	}
}

// =============================================================================
// Custom Types
// =============================================================================

// Duration is a time.Duration that can be unmarshaled from YAML.
// Supports "5m", "30s" or a plain number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)

	// Plain number of seconds
	if n, err := strconv.Atoi(s); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// ByteSize is a size in bytes that can be unmarshaled from YAML.
// Supports: "8MB", "1GB", "500KB", or plain bytes.
type ByteSize int64

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ByteSize) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	size, err := parseByteSize(s)
	if err != nil {
		return err
	}
	*b = ByteSize(size)
	return nil
}

// byteUnits is ordered so that "B" is tried after every longer suffix.
var byteUnits = []struct {
	suffix     string
	multiplier int64
}{
	{"TB", 1 << 40},
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// parseByteSize parses a size string like "8MB" or "1GB".
func parseByteSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}

	for _, u := range byteUnits {
		if strings.HasSuffix(s, u.suffix) {
			numStr := strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			n, err := strconv.ParseInt(numStr, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("parse byte size %q: %w", s, err)
			}
			if n > math.MaxInt64/u.multiplier || n < math.MinInt64/u.multiplier {
				return 0, fmt.Errorf("parse byte size %q: out of range", s)
			}
			return n * u.multiplier, nil
		}
	}

	// Try as plain number
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse byte size %q: %w", s, err)
	}
	return n, nil
}

// Bytes returns the size in bytes.
func (b ByteSize) Bytes() int64 {
	return int64(b)
}
