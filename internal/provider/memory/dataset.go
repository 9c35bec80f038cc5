package memory

import (
	"context"

	"github.com/nucleus/resource-core/internal/resource"
)

// Dataset reads and writes one named collection in the connected store.
type Dataset struct {
	*resource.DatasetBase
}

// NewDataset builds a memory dataset bound to service. The collection name
// is required; identity columns, capacity, and checkpoint support come
// from settings.
func NewDataset(service resource.LinkedService, settings resource.Settings) (*Dataset, error) {
	svc, ok := service.(*LinkedService)
	if !ok {
		return nil, resource.New(resource.KindServiceMismatch, "memory datasets require a memory linked service")
	}
	name := settings.Name()
	if name == "" {
		return nil, resource.New(resource.KindValidation, "collection name is required").
			WithDetail("setting", resource.SettingName)
	}
	caps := resource.Capabilities{
		SupportsCheckpoint: settings.Bool(true, resource.SettingSupportsCheckpoint),
		MaxInputRows:       settings.Int(0, resource.SettingMaxInputRows),
		Operations:         settings.Operations(),
	}
	return &Dataset{
		DatasetBase: resource.NewDatasetBase(
			resource.NewInfo(Kind, Version, name),
			settings, svc, caps,
			&operations{svc: svc, name: name},
		),
	}, nil
}

// operations resolves the store through the linked service on every call,
// so a reconnected service takes effect immediately.
type operations struct {
	svc  *LinkedService
	name string
}

func (o *operations) Read(ctx context.Context, st *resource.State) error {
	store, err := o.svc.Store()
	if err != nil {
		return err
	}
	since := st.Checkpoint().Int64("seq")
	rows, max := store.ReadSince(o.name, since)
	st.SetOutput(rows)
	if max > since {
		st.SetCheckpoint(resource.Checkpoint{"seq": max})
	}
	return nil
}

func (o *operations) Create(ctx context.Context, st *resource.State) error {
	store, err := o.svc.Store()
	if err != nil {
		return err
	}
	store.Insert(o.name, st.Input())
	return nil
}

func (o *operations) Update(ctx context.Context, st *resource.State) error {
	store, err := o.svc.Store()
	if err != nil {
		return err
	}
	matched, err := store.UpdateMatched(o.name, st.Input(), st.Settings().IdentityColumns())
	if err != nil {
		return resource.Wrap(resource.KindUpdate, err, "update failed")
	}
	if matched == nil {
		matched = []resource.Row{}
	}
	st.SetOutput(matched)
	return nil
}

func (o *operations) Upsert(ctx context.Context, st *resource.State) error {
	store, err := o.svc.Store()
	if err != nil {
		return err
	}
	if err := store.Upsert(o.name, st.Input(), st.Settings().IdentityColumns()); err != nil {
		return resource.Wrap(resource.KindUpsert, err, "upsert failed")
	}
	return nil
}

func (o *operations) Delete(ctx context.Context, st *resource.State) error {
	store, err := o.svc.Store()
	if err != nil {
		return err
	}
	deleted, err := store.DeleteMatched(o.name, st.Input(), st.Settings().IdentityColumns())
	if err != nil {
		return resource.Wrap(resource.KindDelete, err, "delete failed")
	}
	if deleted == nil {
		deleted = []resource.Row{}
	}
	st.SetOutput(deleted)
	return nil
}

func (o *operations) Purge(ctx context.Context, st *resource.State) error {
	store, err := o.svc.Store()
	if err != nil {
		return err
	}
	removed := store.Count(o.name)
	store.Purge(o.name)
	st.Operation().SetMetadata("removed", removed)
	return nil
}

func (o *operations) List(ctx context.Context, st *resource.State) error {
	store, err := o.svc.Store()
	if err != nil {
		return err
	}
	infos := store.List()
	rows := make([]resource.Row, 0, len(infos))
	for _, ci := range infos {
		rows = append(rows, resource.Row{"name": ci.Name, "rows": ci.Rows})
	}
	st.SetOutput(rows)
	return nil
}

func (o *operations) Rename(ctx context.Context, st *resource.State, newName string) error {
	store, err := o.svc.Store()
	if err != nil {
		return err
	}
	if err := store.Rename(o.name, newName); err != nil {
		return resource.Wrap(resource.KindRename, err, "rename failed").
			WithDetail("from", o.name).
			WithDetail("to", newName)
	}
	return nil
}

func (o *operations) Close() error { return nil }
