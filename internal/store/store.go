// Package store defines the storage contract for docservice.
//
// A Backend owns the three tables declared in Schema and offers exactly the
// access paths the service needs: one atomic batch per submission and four
// single-partition streaming reads. Two backends implement it, DuckDB
// (internal/store/duckdb) and DynamoDB (internal/store/dynamo).
package store

import (
	"context"
	"iter"
)

// =============================================================================
// Rows
// =============================================================================

// DocumentRow is one row of the documents table.
type DocumentRow struct {
	Key       string
	VersionID string
	HTML      string
}

// LinkRow is one row of the links table.
type LinkRow struct {
	Key       string
	VersionID string
	LinkID    int
	Title     string
	URI       string
}

// ReferenceRow is one row of the references table. LinkID is both the
// clustering key and the link the reference points at.
type ReferenceRow struct {
	Key       string
	VersionID string
	LinkID    int
	Anchor    string
	Position  int
}

// =============================================================================
// Backend
// =============================================================================

// Backend is a partitioned storage engine holding the docservice tables.
//
// Scan methods return single-pass sequences. Rows arrive in clustering order;
// a non-nil error ends the sequence and the caller must discard whatever it
// accumulated. Breaking out of the loop early releases the cursor.
//
// Implementations are safe for concurrent use.
type Backend interface {
	// EnsureSchema creates the namespace and tables if needed. Idempotent.
	EnsureSchema(ctx context.Context) error

	// Apply writes every row of b as one all-or-nothing unit.
	Apply(ctx context.Context, b *Batch) error

	// ScanVersion is a point query on (key, versionID); at most one row.
	ScanVersion(ctx context.Context, key, versionID string) iter.Seq2[DocumentRow, error]

	// ScanVersions scans the key's documents partition, newest first.
	ScanVersions(ctx context.Context, key string) iter.Seq2[DocumentRow, error]

	// ScanLinks scans the (key, versionID) links partition by link id.
	ScanLinks(ctx context.Context, key, versionID string) iter.Seq2[LinkRow, error]

	// ScanReferences scans the (key, versionID) references partition by link id.
	ScanReferences(ctx context.Context, key, versionID string) iter.Seq2[ReferenceRow, error]

	// Health checks connectivity.
	Health(ctx context.Context) error

	// Close releases the connection. Further calls fail.
	Close() error
}
