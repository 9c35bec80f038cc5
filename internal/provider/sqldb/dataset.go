package sqldb

import (
	"context"

	"github.com/nucleus/resource-core/internal/resource"
)

// Dataset reads and writes one table through the linked service's pool.
type Dataset struct {
	*resource.DatasetBase
}

// NewDataset builds a database dataset bound to service. The table name
// is required. Incremental reads need a checkpointColumn setting naming a
// monotonically increasing column; without one the dataset declares no
// checkpoint support. Upserts additionally need a unique constraint over
// the identity columns.
func NewDataset(service resource.LinkedService, settings resource.Settings) (*Dataset, error) {
	svc, ok := service.(*LinkedService)
	if !ok {
		return nil, resource.New(resource.KindServiceMismatch, "sqldb datasets require a sqldb linked service")
	}
	table := settings.Name()
	if table == "" {
		return nil, resource.New(resource.KindValidation, "table name is required").
			WithDetail("setting", resource.SettingName)
	}
	ckptCol := settings.String(resource.SettingCheckpointColumn, "checkpoint_column")
	caps := resource.Capabilities{
		SupportsCheckpoint: ckptCol != "" && settings.Bool(true, resource.SettingSupportsCheckpoint),
		MaxInputRows:       settings.Int(0, resource.SettingMaxInputRows),
		Operations:         settings.Operations(),
	}
	return &Dataset{
		DatasetBase: resource.NewDatasetBase(
			resource.NewInfo(Kind, Version, table),
			settings, svc, caps,
			&operations{svc: svc, table: table, ckptCol: ckptCol},
		),
	}, nil
}

type operations struct {
	svc     *LinkedService
	table   string
	ckptCol string
}

func (o *operations) dialect() dialect { return o.svc.d }

// wrapErr classifies a backend error into the contract taxonomy, falling
// back to the method's kind. Contract errors pass through unchanged.
func (o *operations) wrapErr(method resource.Method, err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := resource.AsError(err); ok {
		return err
	}
	kind := resource.KindForMethod(method)
	if k, ok := o.dialect().classify(err); ok {
		// A rename against a missing source reports the rename kind;
		// the absent table is the failure the caller asked about.
		if k != resource.KindNotFound || method != resource.MethodRename {
			kind = k
		}
	}
	return resource.Wrap(kind, err, msg)
}

func (o *operations) Read(ctx context.Context, st *resource.State) error {
	db, err := o.svc.DB()
	if err != nil {
		return err
	}
	d := o.dialect()

	query := "SELECT * FROM " + d.quote(o.table)
	var args []any
	if o.ckptCol != "" {
		if wm, ok := st.Checkpoint()["watermark"]; ok && wm != nil {
			query += " WHERE " + d.quote(o.ckptCol) + " > " + d.placeholder(1)
			args = append(args, wm)
		}
		query += " ORDER BY " + d.quote(o.ckptCol)
	}

	rows, err := queryRows(ctx, db, query, args...)
	if err != nil {
		return o.wrapErr(resource.MethodRead, err, "read failed")
	}
	st.SetOutput(rows)

	if o.ckptCol != "" {
		var max any
		maxQuery := "SELECT MAX(" + d.quote(o.ckptCol) + ") FROM " + d.quote(o.table)
		if err := db.QueryRowContext(ctx, maxQuery).Scan(&max); err != nil {
			return o.wrapErr(resource.MethodRead, err, "watermark probe failed")
		}
		if max = normalizeValue(max); max != nil {
			st.SetCheckpoint(resource.Checkpoint{"watermark": max})
		}
	}
	return nil
}

func (o *operations) Create(ctx context.Context, st *resource.State) error {
	db, err := o.svc.DB()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return o.wrapErr(resource.MethodCreate, err, "begin transaction")
	}
	for _, row := range st.Input() {
		stmt, args := insertStmt(o.dialect(), o.table, row)
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			_ = tx.Rollback()
			return o.wrapErr(resource.MethodCreate, err, "insert failed")
		}
	}
	if err := tx.Commit(); err != nil {
		return o.wrapErr(resource.MethodCreate, err, "commit failed")
	}
	return nil
}

func (o *operations) Update(ctx context.Context, st *resource.State) error {
	db, err := o.svc.DB()
	if err != nil {
		return err
	}
	ids := st.Settings().IdentityColumns()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return o.wrapErr(resource.MethodUpdate, err, "begin transaction")
	}
	matched := []resource.Row{}
	for _, row := range st.Input() {
		stmt, args, ok := updateStmt(o.dialect(), o.table, row, ids)
		if !ok {
			continue
		}
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			_ = tx.Rollback()
			return o.wrapErr(resource.MethodUpdate, err, "update failed")
		}
		if n, _ := res.RowsAffected(); n > 0 {
			matched = append(matched, row)
		}
	}
	if err := tx.Commit(); err != nil {
		return o.wrapErr(resource.MethodUpdate, err, "commit failed")
	}
	st.SetOutput(matched)
	return nil
}

func (o *operations) Upsert(ctx context.Context, st *resource.State) error {
	db, err := o.svc.DB()
	if err != nil {
		return err
	}
	ids := st.Settings().IdentityColumns()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return o.wrapErr(resource.MethodUpsert, err, "begin transaction")
	}
	for _, row := range st.Input() {
		stmt, args := upsertStmt(o.dialect(), o.table, row, ids)
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			_ = tx.Rollback()
			return o.wrapErr(resource.MethodUpsert, err, "upsert failed")
		}
	}
	if err := tx.Commit(); err != nil {
		return o.wrapErr(resource.MethodUpsert, err, "commit failed")
	}
	return nil
}

func (o *operations) Delete(ctx context.Context, st *resource.State) error {
	db, err := o.svc.DB()
	if err != nil {
		return err
	}
	ids := st.Settings().IdentityColumns()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return o.wrapErr(resource.MethodDelete, err, "begin transaction")
	}
	deleted := []resource.Row{}
	for _, row := range st.Input() {
		stmt, args := deleteStmt(o.dialect(), o.table, row, ids)
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			_ = tx.Rollback()
			return o.wrapErr(resource.MethodDelete, err, "delete failed")
		}
		if n, _ := res.RowsAffected(); n > 0 {
			deleted = append(deleted, row)
		}
	}
	if err := tx.Commit(); err != nil {
		return o.wrapErr(resource.MethodDelete, err, "commit failed")
	}
	st.SetOutput(deleted)
	return nil
}

func (o *operations) Purge(ctx context.Context, st *resource.State) error {
	db, err := o.svc.DB()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, o.dialect().truncate(o.table)); err != nil {
		return o.wrapErr(resource.MethodPurge, err, "purge failed")
	}
	return nil
}

func (o *operations) List(ctx context.Context, st *resource.State) error {
	db, err := o.svc.DB()
	if err != nil {
		return err
	}
	rows, err := queryRows(ctx, db, o.dialect().listQuery())
	if err != nil {
		return o.wrapErr(resource.MethodList, err, "list failed")
	}
	st.SetOutput(rows)
	return nil
}

func (o *operations) Rename(ctx context.Context, st *resource.State, newName string) error {
	db, err := o.svc.DB()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, o.dialect().rename(o.table, newName)); err != nil {
		return o.wrapErr(resource.MethodRename, err, "rename failed")
	}
	return nil
}

func (o *operations) Close() error { return nil }
