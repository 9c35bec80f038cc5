package sqldb

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/nucleus/resource-core/internal/resource"
)

// Registered driver names.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
)

// dialect absorbs what the SQL standard leaves open: placeholders,
// identifier quoting, truncation and rename DDL, catalog listing, and the
// mapping from driver errors to the contract taxonomy.
type dialect interface {
	name() string
	placeholder(n int) string
	quote(ident string) string
	truncate(table string) string
	rename(oldName, newName string) string
	listQuery() string
	classify(err error) (resource.Kind, bool)
}

func dialectFor(driverName string) dialect {
	if driverName == DriverSQLite {
		return sqliteDialect{}
	}
	return postgresDialect{driver: driverName}
}

// quoteIdent doubles embedded quotes and wraps the identifier, the form
// both Postgres and SQLite accept.
func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// --- postgres ---

type postgresDialect struct {
	driver string
}

func (postgresDialect) name() string { return "postgres" }

func (postgresDialect) placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) quote(ident string) string { return quoteIdent(ident) }

func (d postgresDialect) truncate(table string) string {
	return fmt.Sprintf("TRUNCATE TABLE %s", d.quote(table))
}

func (d postgresDialect) rename(oldName, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", d.quote(oldName), d.quote(newName))
}

func (postgresDialect) listQuery() string {
	return `
		SELECT table_schema AS schema, table_name AS name, table_type AS type
		FROM information_schema.tables
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY table_schema, table_name
	`
}

// classify maps SQLSTATE codes shared by lib/pq and pgx onto the contract
// taxonomy. Unrecognized codes fall back to the calling method's kind.
func (postgresDialect) classify(err error) (resource.Kind, bool) {
	if errors.Is(err, driver.ErrBadConn) {
		return resource.KindConnection, true
	}

	code := ""
	var pqErr *pq.Error
	var pgxErr *pgconn.PgError
	switch {
	case errors.As(err, &pqErr):
		code = string(pqErr.Code)
	case errors.As(err, &pgxErr):
		code = pgxErr.Code
	default:
		return "", false
	}

	switch code {
	case "28000", "28P01":
		return resource.KindAuthentication, true
	case "42501":
		return resource.KindPermission, true
	case "42P01", "3F000":
		return resource.KindNotFound, true
	case "3D000", "53300", "57P01", "57P02", "57P03":
		return resource.KindConnection, true
	}
	if strings.HasPrefix(code, "08") {
		return resource.KindConnection, true
	}
	return "", false
}

// --- sqlite ---

type sqliteDialect struct{}

func (sqliteDialect) name() string { return "sqlite" }

func (sqliteDialect) placeholder(n int) string { return "?" }

func (sqliteDialect) quote(ident string) string { return quoteIdent(ident) }

func (d sqliteDialect) truncate(table string) string {
	// SQLite has no TRUNCATE.
	return fmt.Sprintf("DELETE FROM %s", d.quote(table))
}

func (d sqliteDialect) rename(oldName, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", d.quote(oldName), d.quote(newName))
}

func (sqliteDialect) listQuery() string {
	return `
		SELECT name, type FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`
}

// classify leans on message text; the modernc driver does not expose
// stable error codes for these cases.
func (sqliteDialect) classify(err error) (resource.Kind, bool) {
	if errors.Is(err, driver.ErrBadConn) {
		return resource.KindConnection, true
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such table"):
		return resource.KindNotFound, true
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "unable to open database"):
		return resource.KindConnection, true
	case strings.Contains(msg, "access permission denied"), strings.Contains(msg, "readonly database"):
		return resource.KindPermission, true
	}
	return "", false
}
