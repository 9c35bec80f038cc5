package object

import (
	"context"
	"fmt"
	"sort"

	"github.com/nucleus/resource-core/internal/codec"
	"github.com/nucleus/resource-core/internal/resource"
)

// Dataset stores one row collection as a single object under the service
// prefix, named <prefix>/<name><ext> for the configured codec. Writes
// load the object, apply the batch in memory, and put the result back
// whole.
type Dataset struct {
	*resource.DatasetBase
}

// NewDataset builds an object dataset bound to service. The collection
// name is required; the codec defaults to jsonl.
func NewDataset(service resource.LinkedService, settings resource.Settings) (*Dataset, error) {
	svc, ok := service.(*LinkedService)
	if !ok {
		return nil, resource.New(resource.KindServiceMismatch, "object datasets require an object linked service")
	}
	name := settings.Name()
	if name == "" {
		return nil, resource.New(resource.KindValidation, "collection name is required").
			WithDetail("setting", resource.SettingName)
	}
	codecName := settings.String("codec", "format")
	if codecName == "" {
		codecName = "jsonl"
	}
	c, err := codec.ByName(codecName)
	if err != nil {
		return nil, resource.Wrap(resource.KindValidation, err, "unknown codec").
			WithDetail("codec", codecName).
			WithDetail("known", codec.Names())
	}
	// Checkpointing needs a declared watermark column; reads then filter
	// client-side after loading the object.
	ckptCol := settings.String(resource.SettingCheckpointColumn, "checkpoint_column")
	caps := resource.Capabilities{
		SupportsCheckpoint: ckptCol != "" && settings.Bool(true, resource.SettingSupportsCheckpoint),
		MaxInputRows:       settings.Int(0, resource.SettingMaxInputRows),
		Operations:         settings.Operations(),
	}
	return &Dataset{
		DatasetBase: resource.NewDatasetBase(
			resource.NewInfo(Kind, Version, name),
			settings, svc, caps,
			&operations{svc: svc, name: name, codec: c, ckptCol: ckptCol},
		),
	}, nil
}

// operations resolves the store through the linked service on every
// call, so a reconnected service takes effect immediately.
type operations struct {
	svc     *LinkedService
	name    string
	codec   codec.Codec
	ckptCol string
}

// objectKey renders the canonical object key for a collection name.
func (o *operations) objectKey(name string) string {
	return joinKey(o.svc.Prefix(), name) + o.codec.Ext()
}

// loadRows fetches and decodes the collection object. An absent object
// is an empty collection, not an error.
func (o *operations) loadRows(ctx context.Context, store ObjectStore, name string) ([]resource.Row, error) {
	data, err := store.GetObject(ctx, o.svc.Bucket(), o.objectKey(name))
	if err != nil {
		if resource.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	rows, err := o.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s object: %w", o.codec.Name(), err)
	}
	return rows, nil
}

// storeRows encodes rows and replaces the collection object.
func (o *operations) storeRows(ctx context.Context, store ObjectStore, name string, rows []resource.Row) error {
	data, err := o.codec.Encode(rows)
	if err != nil {
		return fmt.Errorf("encode %s object: %w", o.codec.Name(), err)
	}
	return store.PutObject(ctx, o.svc.Bucket(), o.objectKey(name), data)
}

// wrapErr folds a backend error into the method's kind. Errors the store
// already classified pass through, except that a rename against a
// missing source reports the rename kind; the absent object is the
// failure the caller asked about.
func wrapErr(method resource.Method, err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := resource.AsError(err); ok {
		if method == resource.MethodRename && resource.IsNotFound(err) {
			return resource.Wrap(resource.KindRename, err, msg)
		}
		return err
	}
	return resource.Wrap(resource.KindForMethod(method), err, msg)
}

func (o *operations) Read(ctx context.Context, st *resource.State) error {
	store, err := o.svc.Store()
	if err != nil {
		return err
	}
	rows, err := o.loadRows(ctx, store, o.name)
	if err != nil {
		return wrapErr(resource.MethodRead, err, "read failed")
	}
	if o.ckptCol == "" {
		st.SetOutput(rows)
		return nil
	}

	// The watermark advances over the whole collection, not just the
	// filtered slice, so an empty increment cannot regress it.
	max := resource.MaxColumn(rows, o.ckptCol)
	if wm, ok := st.Checkpoint()["watermark"]; ok && wm != nil {
		rows = filterNewer(rows, o.ckptCol, wm)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return resource.CompareValues(rows[i][o.ckptCol], rows[j][o.ckptCol]) < 0
	})
	st.SetOutput(rows)
	if max != nil {
		st.SetCheckpoint(resource.Checkpoint{"watermark": max})
	}
	return nil
}

func (o *operations) Create(ctx context.Context, st *resource.State) error {
	store, err := o.svc.Store()
	if err != nil {
		return err
	}
	existing, err := o.loadRows(ctx, store, o.name)
	if err != nil {
		return wrapErr(resource.MethodCreate, err, "create failed")
	}
	if err := o.storeRows(ctx, store, o.name, append(existing, st.Input()...)); err != nil {
		return wrapErr(resource.MethodCreate, err, "create failed")
	}
	return nil
}

func (o *operations) Update(ctx context.Context, st *resource.State) error {
	store, err := o.svc.Store()
	if err != nil {
		return err
	}
	stored, err := o.loadRows(ctx, store, o.name)
	if err != nil {
		return wrapErr(resource.MethodUpdate, err, "update failed")
	}
	ids := st.Settings().IdentityColumns()
	index := indexRows(stored, ids)

	matched := []resource.Row{}
	for _, row := range st.Input() {
		key, err := resource.IdentityKey(row, ids)
		if err != nil {
			return resource.Wrap(resource.KindUpdate, err, "update failed")
		}
		i, ok := index[key]
		if !ok {
			continue
		}
		mergeRow(stored[i], row, ids)
		matched = append(matched, stored[i])
	}
	if len(matched) > 0 {
		if err := o.storeRows(ctx, store, o.name, stored); err != nil {
			return wrapErr(resource.MethodUpdate, err, "update failed")
		}
	}
	st.SetOutput(matched)
	return nil
}

func (o *operations) Upsert(ctx context.Context, st *resource.State) error {
	store, err := o.svc.Store()
	if err != nil {
		return err
	}
	stored, err := o.loadRows(ctx, store, o.name)
	if err != nil {
		return wrapErr(resource.MethodUpsert, err, "upsert failed")
	}
	ids := st.Settings().IdentityColumns()
	index := indexRows(stored, ids)

	for _, row := range st.Input() {
		key, err := resource.IdentityKey(row, ids)
		if err != nil {
			return resource.Wrap(resource.KindUpsert, err, "upsert failed")
		}
		if i, ok := index[key]; ok {
			mergeRow(stored[i], row, ids)
			continue
		}
		stored = append(stored, row)
		index[key] = len(stored) - 1
	}
	if err := o.storeRows(ctx, store, o.name, stored); err != nil {
		return wrapErr(resource.MethodUpsert, err, "upsert failed")
	}
	return nil
}

func (o *operations) Delete(ctx context.Context, st *resource.State) error {
	store, err := o.svc.Store()
	if err != nil {
		return err
	}
	stored, err := o.loadRows(ctx, store, o.name)
	if err != nil {
		return wrapErr(resource.MethodDelete, err, "delete failed")
	}
	ids := st.Settings().IdentityColumns()

	doomed := make(map[string]bool, len(st.Input()))
	for _, row := range st.Input() {
		key, err := resource.IdentityKey(row, ids)
		if err != nil {
			return resource.Wrap(resource.KindDelete, err, "delete failed")
		}
		doomed[key] = true
	}

	deleted := []resource.Row{}
	kept := stored[:0]
	for _, row := range stored {
		if key, err := resource.IdentityKey(row, ids); err == nil && doomed[key] {
			deleted = append(deleted, row)
			continue
		}
		kept = append(kept, row)
	}
	if len(deleted) > 0 {
		if err := o.storeRows(ctx, store, o.name, kept); err != nil {
			return wrapErr(resource.MethodDelete, err, "delete failed")
		}
	}
	st.SetOutput(deleted)
	return nil
}

func (o *operations) Purge(ctx context.Context, st *resource.State) error {
	store, err := o.svc.Store()
	if err != nil {
		return err
	}
	if err := store.RemoveObject(ctx, o.svc.Bucket(), o.objectKey(o.name)); err != nil {
		return wrapErr(resource.MethodPurge, err, "purge failed")
	}
	return nil
}

func (o *operations) List(ctx context.Context, st *resource.State) error {
	store, err := o.svc.Store()
	if err != nil {
		return err
	}
	pfx := o.svc.Prefix()
	if pfx != "" {
		pfx += "/"
	}
	keys, err := store.ListPrefix(ctx, o.svc.Bucket(), pfx)
	if err != nil {
		return wrapErr(resource.MethodList, err, "list failed")
	}
	rows := make([]resource.Row, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, resource.Row{"key": key, "bucket": o.svc.Bucket()})
	}
	st.SetOutput(rows)
	return nil
}

func (o *operations) Rename(ctx context.Context, st *resource.State, newName string) error {
	store, err := o.svc.Store()
	if err != nil {
		return err
	}
	data, err := store.GetObject(ctx, o.svc.Bucket(), o.objectKey(o.name))
	if err != nil {
		return wrapErr(resource.MethodRename, err, "rename failed")
	}
	taken, err := store.ObjectExists(ctx, o.svc.Bucket(), o.objectKey(newName))
	if err != nil {
		return wrapErr(resource.MethodRename, err, "rename failed")
	}
	if taken {
		return resource.New(resource.KindRename, "target collection already exists").
			WithDetail("from", o.name).
			WithDetail("to", newName)
	}
	// Object stores have no native move: copy to the target, then drop
	// the source.
	if err := store.PutObject(ctx, o.svc.Bucket(), o.objectKey(newName), data); err != nil {
		return wrapErr(resource.MethodRename, err, "rename failed")
	}
	if err := store.RemoveObject(ctx, o.svc.Bucket(), o.objectKey(o.name)); err != nil {
		return wrapErr(resource.MethodRename, err, "rename failed")
	}
	return nil
}

func (o *operations) Close() error { return nil }

// filterNewer keeps rows whose col value sorts after wm. Rows without
// the column never qualify for an incremental read.
func filterNewer(rows []resource.Row, col string, wm any) []resource.Row {
	out := make([]resource.Row, 0, len(rows))
	for _, row := range rows {
		if v, ok := row[col]; ok && v != nil && resource.CompareValues(v, wm) > 0 {
			out = append(out, row)
		}
	}
	return out
}

// indexRows maps identity keys to positions in rows. Stored rows without
// a full identity tuple are unmatchable and skipped.
func indexRows(rows []resource.Row, ids []string) map[string]int {
	index := make(map[string]int, len(rows))
	for i, row := range rows {
		if key, err := resource.IdentityKey(row, ids); err == nil {
			index[key] = i
		}
	}
	return index
}

// mergeRow copies the non-identity columns of src into dst. Identity
// values keep the stored representation.
func mergeRow(dst, src resource.Row, ids []string) {
	idSet := make(map[string]bool, len(ids))
	for _, col := range ids {
		idSet[col] = true
	}
	for col, v := range src {
		if !idSet[col] {
			dst[col] = resource.CloneValue(v)
		}
	}
}
