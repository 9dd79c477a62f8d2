// Package loader handles configuration file loading, validation, and
// conversion into the settings each component takes.
//
// This package is responsible for:
//   - Loading YAML configuration files over DefaultConfig
//   - Expanding environment variables
//   - Validating the result, reporting every problem at once
//   - Converting to backend and server configuration
package loader

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xtxerr/docservice/internal/errors"
	"github.com/xtxerr/docservice/internal/logging"
	"github.com/xtxerr/docservice/internal/store/duckdb"
	"github.com/xtxerr/docservice/internal/store/dynamo"
)

// Storage drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverDynamoDB = "dynamodb"
)

// =============================================================================
// Load
// =============================================================================

// Load loads configuration from a YAML file. Keys absent from the file keep
// their defaults. ${VAR} references are expanded from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration over DefaultConfig.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	// Start with defaults
	cfg := DefaultConfig()

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// Validate
// =============================================================================

// namespacePattern is valid both as a DuckDB schema name and as a DynamoDB
// table name prefix.
var namespacePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Validate validates the configuration.
func Validate(cfg *Config) error {
	errs := errors.NewValidationErrors()

	// Server validation
	if cfg.Listen == "" {
		errs.AddField("listen", "cannot be empty")
	}
	if (cfg.TLS.CertFile == "") != (cfg.TLS.KeyFile == "") {
		errs.AddField("tls", "cert_file and key_file must be set together")
	}

	// Logging validation
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		errs.AddField("logging.level", err.Error())
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		errs.AddField("logging.format", fmt.Sprintf("must be text or json, got %q", cfg.Logging.Format))
	}

	// HTTP validation
	if cfg.HTTP.MaxBodyBytes <= 0 {
		errs.AddField("http.max_body_bytes", "must be positive")
	}
	if cfg.HTTP.ReadTimeoutSec < 0 {
		errs.AddField("http.read_timeout_sec", "cannot be negative")
	}
	if cfg.HTTP.WriteTimeoutSec < 0 {
		errs.AddField("http.write_timeout_sec", "cannot be negative")
	}
	if cfg.HTTP.DrainTimeoutSec <= 0 {
		errs.AddField("http.drain_timeout_sec", "must be positive")
	}

	// Storage validation
	st := cfg.Storage
	if !namespacePattern.MatchString(st.Namespace) {
		errs.AddField("storage.namespace", fmt.Sprintf("%q is not a valid identifier", st.Namespace))
	}
	if st.OperationTimeoutSec < 0 {
		errs.AddField("storage.operation_timeout_sec", "cannot be negative")
	}

	switch st.Driver {
	case DriverDuckDB:
		if st.DuckDB.MaxOpenConns < 1 {
			errs.AddField("storage.duckdb.max_open_conns", "must be at least 1")
		}
		if st.DuckDB.MaxIdleConns < 0 {
			errs.AddField("storage.duckdb.max_idle_conns", "cannot be negative")
		}
	case DriverDynamoDB:
		if st.DynamoDB.Region == "" {
			errs.AddMissing("storage.dynamodb.region")
		}
		if st.DynamoDB.CreateTimeoutSec <= 0 {
			errs.AddField("storage.dynamodb.create_timeout_sec", "must be positive")
		}
		if st.DynamoDB.PageSize < 0 {
			errs.AddField("storage.dynamodb.page_size", "cannot be negative")
		}
	case "":
		errs.AddMissing("storage.driver")
	default:
		errs.AddField("storage.driver", fmt.Sprintf("unknown driver %q (want %s or %s)", st.Driver, DriverDuckDB, DriverDynamoDB))
	}

	return errs.Err()
}

// =============================================================================
// Conversion: Config → Component Config
// =============================================================================

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// ToDuckDBConfig converts the storage section to duckdb.Config.
func ToDuckDBConfig(cfg *StorageConfig) duckdb.Config {
	return duckdb.Config{
		Path:             cfg.DuckDB.Path,
		Namespace:        cfg.Namespace,
		MaxOpenConns:     cfg.DuckDB.MaxOpenConns,
		MaxIdleConns:     cfg.DuckDB.MaxIdleConns,
		ConnMaxLifetime:  cfg.DuckDB.ConnMaxLifetime.Duration(),
		OperationTimeout: seconds(cfg.OperationTimeoutSec),
	}
}

// ToDynamoConfig converts the storage section to dynamo.Config.
func ToDynamoConfig(cfg *StorageConfig) dynamo.Config {
	return dynamo.Config{
		Namespace:        cfg.Namespace,
		Region:           cfg.DynamoDB.Region,
		Endpoint:         cfg.DynamoDB.Endpoint,
		CreateTimeout:    seconds(cfg.DynamoDB.CreateTimeoutSec),
		OperationTimeout: seconds(cfg.OperationTimeoutSec),
		PageSize:         cfg.DynamoDB.PageSize,
	}
}

// Timeouts returns the HTTP read, write and drain timeouts.
func (h HTTPConfig) Timeouts() (read, write, drain time.Duration) {
	return seconds(h.ReadTimeoutSec), seconds(h.WriteTimeoutSec), seconds(h.DrainTimeoutSec)
}
