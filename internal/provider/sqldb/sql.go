package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/nucleus/resource-core/internal/resource"
)

// sortedColumns returns the row's column names in a stable order.
func sortedColumns(row resource.Row) []string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// splitColumns partitions a row's columns into identity and value
// columns, both sorted.
func splitColumns(row resource.Row, ids []string) (idCols, valCols []string) {
	idSet := make(map[string]bool, len(ids))
	for _, col := range ids {
		idSet[col] = true
	}
	for _, col := range sortedColumns(row) {
		if idSet[col] {
			idCols = append(idCols, col)
		} else {
			valCols = append(valCols, col)
		}
	}
	return idCols, valCols
}

// insertStmt builds INSERT INTO t (cols...) VALUES (...) for one row.
func insertStmt(d dialect, table string, row resource.Row) (string, []any) {
	cols := sortedColumns(row)
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = d.quote(col)
		marks[i] = d.placeholder(i + 1)
		args[i] = row[col]
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.quote(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))
	return stmt, args
}

// updateStmt builds UPDATE t SET vals WHERE identity for one row. ok is
// false when the row carries nothing but its identity.
func updateStmt(d dialect, table string, row resource.Row, ids []string) (string, []any, bool) {
	_, valCols := splitColumns(row, ids)
	if len(valCols) == 0 {
		return "", nil, false
	}

	var args []any
	sets := make([]string, len(valCols))
	for i, col := range valCols {
		args = append(args, row[col])
		sets[i] = fmt.Sprintf("%s = %s", d.quote(col), d.placeholder(len(args)))
	}
	wheres := make([]string, len(ids))
	for i, col := range ids {
		args = append(args, row[col])
		wheres[i] = fmt.Sprintf("%s = %s", d.quote(col), d.placeholder(len(args)))
	}
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		d.quote(table), strings.Join(sets, ", "), strings.Join(wheres, " AND "))
	return stmt, args, true
}

// upsertStmt builds INSERT ... ON CONFLICT (identity) DO UPDATE for one
// row; Postgres and SQLite share the syntax. The table needs a unique
// constraint over the identity columns for the conflict arm to fire.
func upsertStmt(d dialect, table string, row resource.Row, ids []string) (string, []any) {
	stmt, args := insertStmt(d, table, row)

	idCols, valCols := splitColumns(row, ids)
	quotedIDs := make([]string, len(idCols))
	for i, col := range idCols {
		quotedIDs[i] = d.quote(col)
	}
	if len(valCols) == 0 {
		return fmt.Sprintf("%s ON CONFLICT (%s) DO NOTHING", stmt, strings.Join(quotedIDs, ", ")), args
	}
	sets := make([]string, len(valCols))
	for i, col := range valCols {
		sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", d.quote(col), d.quote(col))
	}
	stmt = fmt.Sprintf("%s ON CONFLICT (%s) DO UPDATE SET %s",
		stmt, strings.Join(quotedIDs, ", "), strings.Join(sets, ", "))
	return stmt, args
}

// deleteStmt builds DELETE FROM t WHERE identity for one row.
func deleteStmt(d dialect, table string, row resource.Row, ids []string) (string, []any) {
	args := make([]any, len(ids))
	wheres := make([]string, len(ids))
	for i, col := range ids {
		args[i] = row[col]
		wheres[i] = fmt.Sprintf("%s = %s", d.quote(col), d.placeholder(i+1))
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s", d.quote(table), strings.Join(wheres, " AND "))
	return stmt, args
}

// queryRows runs a query and scans every result row into a generic Row.
func queryRows(ctx context.Context, db *sql.DB, query string, args ...any) ([]resource.Row, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []resource.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(resource.Row, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// normalizeValue keeps scanned values JSON-friendly; drivers hand back
// []byte for text-ish columns.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
