// Package config provides configuration defaults for docservice.
//
// This package defines all configurable constants with documented defaults.
// Users can override these values via config.yaml, environment variables
// referenced from it, or docserviced flags.
package config

import "time"

// =============================================================================
// Network Defaults
// =============================================================================

const (
	// DefaultListen is the default HTTP listen address.
	// Override via config: listen, or -listen
	DefaultListen = "0.0.0.0:3000"

	// DefaultMaxBodyBytes limits POST bodies to prevent OOM.
	// Override via config: http.max_body_bytes
	DefaultMaxBodyBytes = 8 * 1024 * 1024

	// DefaultReadTimeoutSec bounds reading a request including its body.
	// Override via config: http.read_timeout_sec
	DefaultReadTimeoutSec = 30

	// DefaultWriteTimeoutSec bounds writing a response.
	// Override via config: http.write_timeout_sec
	DefaultWriteTimeoutSec = 30
)

// =============================================================================
// Shutdown Defaults
// =============================================================================

const (
	// DefaultDrainTimeoutSec is how long to wait for in-flight requests during shutdown.
	// This follows the Kubernetes convention (terminationGracePeriodSeconds = 30s).
	// After this timeout, remaining connections are closed.
	// Override via config: http.drain_timeout_sec
	DefaultDrainTimeoutSec = 30
)

// =============================================================================
// Logging Defaults
// =============================================================================

const (
	// DefaultLogLevel is one of debug, info, warn, error.
	// Override via config: logging.level, or -log-level
	DefaultLogLevel = "info"

	// DefaultLogFormat is text or json.
	// Override via config: logging.format, or -log-json
	DefaultLogFormat = "text"
)

// =============================================================================
// Storage Defaults
// =============================================================================

const (
	// DefaultDriver selects the storage backend: duckdb or dynamodb.
	// Override via config: storage.driver, or -driver
	DefaultDriver = "duckdb"

	// DefaultNamespace is the DuckDB schema or DynamoDB table prefix.
	// Override via config: storage.namespace
	DefaultNamespace = "docservice"

	// DefaultOperationTimeoutSec bounds each storage operation.
	// Override via config: storage.operation_timeout_sec
	DefaultOperationTimeoutSec = 30
)

const (
	// DefaultDuckDBPath is the database file. Empty means in-memory.
	// Override via config: storage.duckdb.path, or -db
	DefaultDuckDBPath = "docservice.db"

	// DefaultMaxOpenConns caps open DuckDB connections.
	// Override via config: storage.duckdb.max_open_conns
	DefaultMaxOpenConns = 25

	// DefaultMaxIdleConns caps idle DuckDB connections.
	// Override via config: storage.duckdb.max_idle_conns
	DefaultMaxIdleConns = 5

	// DefaultConnMaxLifetime recycles DuckDB connections.
	// Override via config: storage.duckdb.conn_max_lifetime
	DefaultConnMaxLifetime = 5 * time.Minute
)

const (
	// DefaultDynamoRegion is used when neither config nor environment set one.
	// Override via config: storage.dynamodb.region
	DefaultDynamoRegion = "us-east-1"

	// DefaultCreateTimeoutSec is how long startup waits for new tables to become ACTIVE.
	// Override via config: storage.dynamodb.create_timeout_sec
	DefaultCreateTimeoutSec = 120
)
