package sqldb

import (
	"errors"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/nucleus/resource-core/internal/resource"
)

func TestSQLDB_Unit_InsertStmt(t *testing.T) {
	stmt, args := insertStmt(postgresDialect{}, "t", resource.Row{"b": 2, "a": 1})
	if stmt != `INSERT INTO "t" ("a", "b") VALUES ($1, $2)` {
		t.Errorf("stmt = %s", stmt)
	}
	if !reflect.DeepEqual(args, []any{1, 2}) {
		t.Errorf("args = %v", args)
	}
}

func TestSQLDB_Unit_UpdateStmt(t *testing.T) {
	stmt, args, ok := updateStmt(postgresDialect{}, "t", resource.Row{"id": 1, "label": "x"}, []string{"id"})
	if !ok {
		t.Fatal("update statement not built")
	}
	if stmt != `UPDATE "t" SET "label" = $1 WHERE "id" = $2` {
		t.Errorf("stmt = %s", stmt)
	}
	if !reflect.DeepEqual(args, []any{"x", 1}) {
		t.Errorf("args = %v", args)
	}

	// A row carrying nothing but its identity has nothing to set.
	if _, _, ok := updateStmt(postgresDialect{}, "t", resource.Row{"id": 1}, []string{"id"}); ok {
		t.Error("identity-only row produced an update statement")
	}
}

func TestSQLDB_Unit_UpsertStmt(t *testing.T) {
	stmt, args := upsertStmt(postgresDialect{}, "t", resource.Row{"id": 1, "label": "x"}, []string{"id"})
	want := `INSERT INTO "t" ("id", "label") VALUES ($1, $2)` +
		` ON CONFLICT ("id") DO UPDATE SET "label" = EXCLUDED."label"`
	if stmt != want {
		t.Errorf("stmt = %s", stmt)
	}
	if !reflect.DeepEqual(args, []any{1, "x"}) {
		t.Errorf("args = %v", args)
	}

	stmt, _ = upsertStmt(postgresDialect{}, "t", resource.Row{"id": 1}, []string{"id"})
	if stmt != `INSERT INTO "t" ("id") VALUES ($1) ON CONFLICT ("id") DO NOTHING` {
		t.Errorf("identity-only stmt = %s", stmt)
	}
}

func TestSQLDB_Unit_DeleteStmtSQLite(t *testing.T) {
	stmt, args := deleteStmt(sqliteDialect{}, "t", resource.Row{"id": 9, "label": "x"}, []string{"id"})
	if stmt != `DELETE FROM "t" WHERE "id" = ?` {
		t.Errorf("stmt = %s", stmt)
	}
	if !reflect.DeepEqual(args, []any{9}) {
		t.Errorf("args = %v", args)
	}
}

func TestSQLDB_Unit_QuoteIdent(t *testing.T) {
	if got := quoteIdent(`ta"ble`); got != `"ta""ble"` {
		t.Errorf("quoted = %s", got)
	}
}

func TestSQLDB_Unit_ClassifyPostgres(t *testing.T) {
	d := postgresDialect{}
	cases := []struct {
		err  error
		kind resource.Kind
		ok   bool
	}{
		{&pq.Error{Code: "28P01"}, resource.KindAuthentication, true},
		{&pq.Error{Code: "42501"}, resource.KindPermission, true},
		{&pgconn.PgError{Code: "42P01"}, resource.KindNotFound, true},
		{&pgconn.PgError{Code: "08006"}, resource.KindConnection, true},
		{&pq.Error{Code: "23505"}, "", false},
		{errors.New("plain"), "", false},
	}
	for _, tc := range cases {
		kind, ok := d.classify(tc.err)
		if ok != tc.ok || kind != tc.kind {
			t.Errorf("classify(%v) = (%v, %v), want (%v, %v)", tc.err, kind, ok, tc.kind, tc.ok)
		}
	}
}

func TestSQLDB_Unit_ClassifySQLite(t *testing.T) {
	d := sqliteDialect{}
	if kind, ok := d.classify(errors.New("SQL logic error: no such table: events (1)")); !ok || kind != resource.KindNotFound {
		t.Errorf("missing table classified as (%v, %v)", kind, ok)
	}
	if _, ok := d.classify(errors.New("constraint failed")); ok {
		t.Error("constraint error should not classify")
	}
}
