// Package duckdb implements store.Backend on an embedded DuckDB database.
//
// DuckDB has no partitions of its own, so the layout from store.Schema is
// rendered as composite primary keys (partition columns first, then the
// clustering columns) and every scan filters on the full partition key and
// orders by the clustering columns in their declared direction. One
// submission is one SQL transaction.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/xtxerr/docservice/internal/logging"
	"github.com/xtxerr/docservice/internal/store"
)

var log = logging.Component("store.duckdb")

// =============================================================================
// Store Configuration
// =============================================================================

// Config holds store configuration options.
type Config struct {
	// Path is the database file. Empty opens an in-memory database.
	Path string

	// Namespace is the DuckDB schema holding the tables.
	Namespace string

	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int

	// ConnMaxLifetime is the maximum lifetime of a connection.
	ConnMaxLifetime time.Duration

	// OperationTimeout bounds each query and batch. Zero means no bound
	// beyond the caller's context.
	OperationTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Namespace:        store.DefaultNamespace,
		MaxOpenConns:     25,
		MaxIdleConns:     5,
		ConnMaxLifetime:  5 * time.Minute,
		OperationTimeout: 30 * time.Second,
	}
}

// =============================================================================
// Store
// =============================================================================

// Store is a DuckDB-backed store.Backend.
//
// Store is safe for concurrent use.
type Store struct {
	db     *sql.DB
	config Config
	schema store.Schema
	q      queries

	mu     sync.RWMutex
	closed bool
}

var _ store.Backend = (*Store)(nil)

// New opens the database and verifies the connection.
func New(cfg Config) (*Store, error) {
	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Debug("database opened", "path", cfg.Path, "namespace", cfg.Namespace)

	schema := store.DocServiceSchema(cfg.Namespace)

	return &Store{
		db:     db,
		config: cfg,
		schema: schema,
		q:      newQueries(schema),
	}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}

func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.OperationTimeout > 0 {
		return context.WithTimeout(ctx, s.config.OperationTimeout)
	}
	return context.WithCancel(ctx)
}

// =============================================================================
// Transaction Support
// =============================================================================

// TransactionContext executes fn within a database transaction.
//
// If fn returns an error the transaction is rolled back, otherwise it is
// committed.
func (s *Store) TransactionContext(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// =============================================================================
// Health Check
// =============================================================================

// Health checks database connectivity.
func (s *Store) Health(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.PingContext(ctx)
}
