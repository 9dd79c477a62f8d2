package duckdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/xtxerr/docservice/internal/errors"
	"github.com/xtxerr/docservice/internal/store"
)

// =============================================================================
// Schema Management
// =============================================================================

// EnsureSchema creates the namespace and the three tables if they do not
// exist, then confirms each table carries the declared columns.
//
// This is idempotent - safe to run on every start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return errors.NewSchema("ensure schema", err)
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	statements := []struct {
		name string
		sql  string
	}{
		{
			name: "schema " + s.schema.Namespace,
			sql:  "CREATE SCHEMA IF NOT EXISTS " + quoteIdent(s.schema.Namespace),
		},
	}
	for _, t := range s.schema.Tables {
		statements = append(statements, struct {
			name string
			sql  string
		}{name: "table " + t.Name, sql: createTableSQL(s.schema.Namespace, t)})
	}

	for _, st := range statements {
		if _, err := s.db.ExecContext(ctx, st.sql); err != nil {
			return errors.NewSchema(st.name, err)
		}
		log.Debug("schema statement applied", "name", st.name)
	}

	for _, t := range s.schema.Tables {
		if err := s.verifyTable(ctx, t); err != nil {
			return errors.NewSchema("verify "+t.Name, err)
		}
	}

	log.Info("schema ready", "namespace", s.schema.Namespace, "tables", len(s.schema.Tables))
	return nil
}

// verifyTable checks that an existing table has every declared column.
func (s *Store) verifyTable(ctx context.Context, t store.TableSpec) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
	`, s.schema.Namespace, t.Name)
	if err != nil {
		return fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	have := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan column: %w", err)
		}
		have[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var missing []string
	for _, c := range t.Columns {
		if !have[c.Name] {
			missing = append(missing, c.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("table %s.%s missing columns %v", s.schema.Namespace, t.Name, missing)
	}
	return nil
}

// createTableSQL renders a TableSpec as DuckDB DDL.
func createTableSQL(namespace string, t store.TableSpec) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", qualify(namespace, t.Name))
	for _, c := range t.Columns {
		fmt.Fprintf(&b, "\t%s %s NOT NULL,\n", quoteIdent(c.Name), sqlType(c.Type))
	}

	pk := t.PrimaryKey()
	quoted := make([]string, len(pk))
	for i, col := range pk {
		quoted[i] = quoteIdent(col)
	}
	fmt.Fprintf(&b, "\tPRIMARY KEY (%s)\n)", strings.Join(quoted, ", "))

	return b.String()
}

// orderBy renders the clustering order of a table.
func orderBy(t store.TableSpec) string {
	parts := make([]string, len(t.Clustering))
	for i, c := range t.Clustering {
		dir := "ASC"
		if c.Descending {
			dir = "DESC"
		}
		parts[i] = quoteIdent(c.Column) + " " + dir
	}
	return strings.Join(parts, ", ")
}

func sqlType(t store.ColumnType) string {
	switch t {
	case store.TypeInt:
		return "INTEGER"
	default:
		return "VARCHAR"
	}
}

// quoteIdent quotes an identifier. "references" and "key" are keywords.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func qualify(namespace, table string) string {
	return quoteIdent(namespace) + "." + quoteIdent(table)
}
