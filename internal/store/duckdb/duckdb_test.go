package duckdb

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"testing"

	dserrors "github.com/xtxerr/docservice/internal/errors"
	"github.com/xtxerr/docservice/internal/store"
	"github.com/xtxerr/docservice/internal/versionid"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := DefaultConfig()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return s
}

func newIDs(t *testing.T) *versionid.Generator {
	t.Helper()
	g, err := versionid.New()
	if err != nil {
		t.Fatalf("versionid.New: %v", err)
	}
	return g
}

func collect[T any](t *testing.T, seq iter.Seq2[T, error]) []T {
	t.Helper()
	var out []T
	for row, err := range seq {
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		out = append(out, row)
	}
	return out
}

// =============================================================================
// Schema Tests
// =============================================================================

func TestEnsureSchema_Idempotent(t *testing.T) {
	s := setupTestStore(t)

	for i := 0; i < 3; i++ {
		if err := s.EnsureSchema(context.Background()); err != nil {
			t.Fatalf("EnsureSchema run %d: %v", i, err)
		}
	}
}

func TestEnsureSchema_IncompatibleTable(t *testing.T) {
	s, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if _, err := s.DB().ExecContext(ctx, `CREATE SCHEMA docservice`); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if _, err := s.DB().ExecContext(ctx, `CREATE TABLE docservice.documents ("key" VARCHAR, version_id VARCHAR)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	err = s.EnsureSchema(ctx)
	if !errors.Is(err, dserrors.ErrSchema) {
		t.Fatalf("EnsureSchema error = %v, want ErrSchema", err)
	}
}

func TestEnsureSchema_CustomNamespace(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Namespace = "docs_test"

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	var n int
	err = s.DB().QueryRow(`SELECT count(*) FROM information_schema.tables WHERE table_schema = 'docs_test'`).Scan(&n)
	if err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if n != 3 {
		t.Errorf("tables = %d, want 3", n)
	}
}

func TestCreateTableSQL(t *testing.T) {
	refs, _ := store.DocServiceSchema("").Table(store.TableReferences)

	got := createTableSQL("docservice", refs)
	want := "CREATE TABLE IF NOT EXISTS \"docservice\".\"references\" (\n" +
		"\t\"key\" VARCHAR NOT NULL,\n" +
		"\t\"version_id\" VARCHAR NOT NULL,\n" +
		"\t\"link_id\" INTEGER NOT NULL,\n" +
		"\t\"anchor\" VARCHAR NOT NULL,\n" +
		"\t\"position\" INTEGER NOT NULL,\n" +
		"\tPRIMARY KEY (\"key\", \"version_id\", \"link_id\")\n)"

	if got != want {
		t.Errorf("createTableSQL =\n%s\nwant\n%s", got, want)
	}
}

// =============================================================================
// Round Trip Tests
// =============================================================================

func TestApply_RoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ids := newIDs(t)
	ctx := context.Background()

	id := ids.Mint()
	b := store.NewBatch("doc-42", id, "<p>hi</p>")
	b.AddLink(2, "B", "http://b")
	b.AddLink(1, "A", "http://a")
	b.AddReference(1, "intro", 0)

	if err := s.Apply(ctx, b); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	docs := collect(t, s.ScanVersion(ctx, "doc-42", id))
	if len(docs) != 1 || docs[0].HTML != "<p>hi</p>" {
		t.Fatalf("ScanVersion = %+v", docs)
	}

	links := collect(t, s.ScanLinks(ctx, "doc-42", id))
	if len(links) != 2 {
		t.Fatalf("links = %d, want 2", len(links))
	}
	if links[0].LinkID != 1 || links[0].Title != "A" || links[1].LinkID != 2 {
		t.Errorf("links = %+v, want ordered by link id", links)
	}

	refs := collect(t, s.ScanReferences(ctx, "doc-42", id))
	if len(refs) != 1 || refs[0].Anchor != "intro" || refs[0].Position != 0 || refs[0].LinkID != 1 {
		t.Errorf("references = %+v", refs)
	}
}

func TestScanVersion_Missing(t *testing.T) {
	s := setupTestStore(t)
	ids := newIDs(t)

	docs := collect(t, s.ScanVersion(context.Background(), "missing-key", ids.Mint()))
	if len(docs) != 0 {
		t.Errorf("ScanVersion = %+v, want none", docs)
	}
}

func TestScanVersions_NewestFirst(t *testing.T) {
	s := setupTestStore(t)
	ids := newIDs(t)
	ctx := context.Background()

	var minted []string
	for i := 1; i <= 3; i++ {
		id := ids.Mint()
		minted = append(minted, id)
		if err := s.Apply(ctx, store.NewBatch("k", id, fmt.Sprintf("v%d", i))); err != nil {
			t.Fatalf("Apply v%d: %v", i, err)
		}
	}
	// Another key must not leak into the partition.
	if err := s.Apply(ctx, store.NewBatch("other", ids.Mint(), "x")); err != nil {
		t.Fatalf("Apply other: %v", err)
	}

	docs := collect(t, s.ScanVersions(ctx, "k"))
	if len(docs) != 3 {
		t.Fatalf("versions = %d, want 3", len(docs))
	}
	for i, d := range docs {
		want := minted[len(minted)-1-i]
		if d.VersionID != want {
			t.Errorf("docs[%d] = %s, want %s", i, d.VersionID, want)
		}
	}
}

func TestScanLinks_ScopedToVersion(t *testing.T) {
	s := setupTestStore(t)
	ids := newIDs(t)
	ctx := context.Background()

	v1, v2 := ids.Mint(), ids.Mint()
	b1 := store.NewBatch("k", v1, "one")
	b1.AddLink(1, "from v1", "http://1")
	b2 := store.NewBatch("k", v2, "two")

	for _, b := range []*store.Batch{b1, b2} {
		if err := s.Apply(ctx, b); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}

	if links := collect(t, s.ScanLinks(ctx, "k", v2)); len(links) != 0 {
		t.Errorf("v2 links = %+v, want none", links)
	}
	if links := collect(t, s.ScanLinks(ctx, "k", v1)); len(links) != 1 {
		t.Errorf("v1 links = %d, want 1", len(links))
	}
}

// =============================================================================
// Atomicity Tests
// =============================================================================

func TestApply_FailureLeavesNothingVisible(t *testing.T) {
	s := setupTestStore(t)
	ids := newIDs(t)
	ctx := context.Background()

	id := ids.Mint()

	// A stray row with the same primary key as link 2 makes the batch fail
	// after the document row has been inserted.
	if _, err := s.DB().ExecContext(ctx,
		`INSERT INTO docservice.links ("key", version_id, link_id, title, uri) VALUES (?, ?, ?, ?, ?)`,
		"k", id, 2, "stray", "http://stray"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	b := store.NewBatch("k", id, "<p>doc</p>")
	b.AddLink(1, "A", "http://a")
	b.AddLink(2, "B", "http://b")
	b.AddReference(1, "r", 1)

	if err := s.Apply(ctx, b); err == nil {
		t.Fatal("Apply succeeded, want constraint failure")
	}

	for i := 0; i < 5; i++ {
		if docs := collect(t, s.ScanVersion(ctx, "k", id)); len(docs) != 0 {
			t.Fatalf("document visible after failed batch: %+v", docs)
		}
		if refs := collect(t, s.ScanReferences(ctx, "k", id)); len(refs) != 0 {
			t.Fatalf("references visible after failed batch: %+v", refs)
		}
		links := collect(t, s.ScanLinks(ctx, "k", id))
		if len(links) != 1 || links[0].Title != "stray" {
			t.Fatalf("links = %+v, want only the stray row", links)
		}
	}
}

// =============================================================================
// Cursor Tests
// =============================================================================

func TestScan_EarlyBreak(t *testing.T) {
	s := setupTestStore(t)
	ids := newIDs(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.Apply(ctx, store.NewBatch("k", ids.Mint(), "x")); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}

	n := 0
	for _, err := range s.ScanVersions(ctx, "k") {
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		n++
		if n == 2 {
			break
		}
	}

	// The connection must be released for the next query.
	if docs := collect(t, s.ScanVersions(ctx, "k")); len(docs) != 5 {
		t.Errorf("versions = %d, want 5", len(docs))
	}
}

func TestScan_Cancelled(t *testing.T) {
	s := setupTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var gotErr error
	for _, err := range s.ScanVersions(ctx, "k") {
		gotErr = err
	}
	if !errors.Is(gotErr, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", gotErr)
	}
}

func TestClosedStore(t *testing.T) {
	s, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	ctx := context.Background()
	if err := s.Apply(ctx, store.NewBatch("k", "v", "x")); !errors.Is(err, store.ErrClosed) {
		t.Errorf("Apply error = %v, want ErrClosed", err)
	}
	if err := s.Health(ctx); !errors.Is(err, store.ErrClosed) {
		t.Errorf("Health error = %v, want ErrClosed", err)
	}
	for _, err := range s.ScanLinks(ctx, "k", "v") {
		if !errors.Is(err, store.ErrClosed) {
			t.Errorf("ScanLinks error = %v, want ErrClosed", err)
		}
	}
}
