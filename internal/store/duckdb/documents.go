package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	"github.com/xtxerr/docservice/internal/store"
)

// =============================================================================
// Statements
// =============================================================================

// queries holds the statements rendered for one namespace.
type queries struct {
	insertDoc   string
	insertLink  string
	insertRef   string
	getDoc      string
	allVersions string
	links       string
	references  string
}

func newQueries(schema store.Schema) queries {
	docs, _ := schema.Table(store.TableDocuments)
	links, _ := schema.Table(store.TableLinks)
	refs, _ := schema.Table(store.TableReferences)

	ns := schema.Namespace
	k, v := quoteIdent(store.ColKey), quoteIdent(store.ColVersionID)

	return queries{
		insertDoc: fmt.Sprintf(`INSERT INTO %s (%s, %s, %s) VALUES (?, ?, ?)`,
			qualify(ns, docs.Name), k, v, quoteIdent(store.ColHTML)),
		insertLink: fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s) VALUES (?, ?, ?, ?, ?)`,
			qualify(ns, links.Name), k, v, quoteIdent(store.ColLinkID),
			quoteIdent(store.ColTitle), quoteIdent(store.ColURI)),
		insertRef: fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s) VALUES (?, ?, ?, ?, ?)`,
			qualify(ns, refs.Name), k, v, quoteIdent(store.ColLinkID),
			quoteIdent(store.ColAnchor), quoteIdent(store.ColPosition)),

		getDoc: fmt.Sprintf(`SELECT %s, %s, %s FROM %s WHERE %s = ? AND %s = ?`,
			k, v, quoteIdent(store.ColHTML), qualify(ns, docs.Name), k, v),
		allVersions: fmt.Sprintf(`SELECT %s, %s, %s FROM %s WHERE %s = ? ORDER BY %s`,
			k, v, quoteIdent(store.ColHTML), qualify(ns, docs.Name), k, orderBy(docs)),
		links: fmt.Sprintf(`SELECT %s, %s, %s, %s, %s FROM %s WHERE %s = ? AND %s = ? ORDER BY %s`,
			k, v, quoteIdent(store.ColLinkID), quoteIdent(store.ColTitle), quoteIdent(store.ColURI),
			qualify(ns, links.Name), k, v, orderBy(links)),
		references: fmt.Sprintf(`SELECT %s, %s, %s, %s, %s FROM %s WHERE %s = ? AND %s = ? ORDER BY %s`,
			k, v, quoteIdent(store.ColLinkID), quoteIdent(store.ColAnchor), quoteIdent(store.ColPosition),
			qualify(ns, refs.Name), k, v, orderBy(refs)),
	}
}

// =============================================================================
// Write Path
// =============================================================================

// Apply writes the batch in a single transaction.
func (s *Store) Apply(ctx context.Context, b *store.Batch) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	return s.TransactionContext(ctx, func(tx *sql.Tx) error {
		doc := b.Document()
		if _, err := tx.ExecContext(ctx, s.q.insertDoc, doc.Key, doc.VersionID, doc.HTML); err != nil {
			return fmt.Errorf("insert document: %w", err)
		}

		if links := b.Links(); len(links) > 0 {
			stmt, err := tx.PrepareContext(ctx, s.q.insertLink)
			if err != nil {
				return fmt.Errorf("prepare link insert: %w", err)
			}
			defer stmt.Close()

			for _, l := range links {
				if _, err := stmt.ExecContext(ctx, l.Key, l.VersionID, l.LinkID, l.Title, l.URI); err != nil {
					return fmt.Errorf("insert link %d: %w", l.LinkID, err)
				}
			}
		}

		if refs := b.References(); len(refs) > 0 {
			stmt, err := tx.PrepareContext(ctx, s.q.insertRef)
			if err != nil {
				return fmt.Errorf("prepare reference insert: %w", err)
			}
			defer stmt.Close()

			for _, r := range refs {
				if _, err := stmt.ExecContext(ctx, r.Key, r.VersionID, r.LinkID, r.Anchor, r.Position); err != nil {
					return fmt.Errorf("insert reference %d: %w", r.LinkID, err)
				}
			}
		}

		return nil
	})
}

// =============================================================================
// Read Path
// =============================================================================

// ScanVersion returns the document row for (key, versionID), if any.
func (s *Store) ScanVersion(ctx context.Context, key, versionID string) iter.Seq2[store.DocumentRow, error] {
	return scan(s, ctx, s.q.getDoc, []any{key, versionID}, scanDocument)
}

// ScanVersions returns every version of key, newest first.
func (s *Store) ScanVersions(ctx context.Context, key string) iter.Seq2[store.DocumentRow, error] {
	return scan(s, ctx, s.q.allVersions, []any{key}, scanDocument)
}

// ScanLinks returns the links of one version ordered by link id.
func (s *Store) ScanLinks(ctx context.Context, key, versionID string) iter.Seq2[store.LinkRow, error] {
	return scan(s, ctx, s.q.links, []any{key, versionID}, func(rows *sql.Rows) (store.LinkRow, error) {
		var l store.LinkRow
		err := rows.Scan(&l.Key, &l.VersionID, &l.LinkID, &l.Title, &l.URI)
		return l, err
	})
}

// ScanReferences returns the references of one version ordered by link id.
func (s *Store) ScanReferences(ctx context.Context, key, versionID string) iter.Seq2[store.ReferenceRow, error] {
	return scan(s, ctx, s.q.references, []any{key, versionID}, func(rows *sql.Rows) (store.ReferenceRow, error) {
		var r store.ReferenceRow
		err := rows.Scan(&r.Key, &r.VersionID, &r.LinkID, &r.Anchor, &r.Position)
		return r, err
	})
}

func scanDocument(rows *sql.Rows) (store.DocumentRow, error) {
	var d store.DocumentRow
	err := rows.Scan(&d.Key, &d.VersionID, &d.HTML)
	return d, err
}

// scan runs query when the sequence is ranged over and yields rows as the
// cursor delivers them. The cursor is closed when the loop ends.
func scan[T any](s *Store, ctx context.Context, query string, args []any, read func(*sql.Rows) (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		if err := s.checkOpen(); err != nil {
			yield(zero, err)
			return
		}

		ctx, cancel := s.opContext(ctx)
		defer cancel()

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(zero, fmt.Errorf("query: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			row, err := read(rows)
			if err != nil {
				yield(zero, fmt.Errorf("scan row: %w", err))
				return
			}
			if !yield(row, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(zero, fmt.Errorf("cursor: %w", err))
		}
	}
}
