package resource

import (
	"context"
	"fmt"
	"time"
)

// Dataset is one tabular resource reached through a linked service. A
// dataset carries call state: input rows staged by the caller before write
// methods, output rows produced by the last successful call, an opaque
// checkpoint, and the telemetry of the last tracked call.
//
// A dataset instance is not safe for concurrent use; callers serialize
// calls on it. Datasets never connect their service themselves: the caller
// owns the service lifecycle.
type Dataset interface {
	Info() Info
	Settings() Settings
	Service() LinkedService
	Capabilities() Capabilities

	Input() []Row
	SetInput(rows []Row)
	Output() []Row
	Checkpoint() Checkpoint
	SetCheckpoint(c Checkpoint)
	Operation() *OperationInfo

	Read(ctx context.Context) error
	Create(ctx context.Context) error
	Update(ctx context.Context) error
	Upsert(ctx context.Context) error
	Delete(ctx context.Context) error
	Purge(ctx context.Context) error
	List(ctx context.Context) error
	Rename(ctx context.Context, newName string) error
	Close() error
}

// Operations is the backend-specific half of a dataset. DatasetBase wraps
// each verb with operation tracking and the shared write-path rules; the
// verb exchanges rows with the bound call state. A verb the backend cannot
// serve returns NotSupported(method).
type Operations interface {
	Read(ctx context.Context, st *State) error
	Create(ctx context.Context, st *State) error
	Update(ctx context.Context, st *State) error
	Upsert(ctx context.Context, st *State) error
	Delete(ctx context.Context, st *State) error
	Purge(ctx context.Context, st *State) error
	List(ctx context.Context, st *State) error
	Rename(ctx context.Context, st *State, newName string) error
	Close() error
}

// State is the per-call view handed to an Operations verb. Input returns a
// private deep copy of the staged rows, so verbs may consume or transform
// it freely; the caller's rows are never touched.
type State struct {
	base       *DatasetBase
	input      []Row
	checkpoint Checkpoint
}

// Settings returns the dataset settings.
func (st *State) Settings() Settings { return st.base.settings }

// Service returns the linked service the dataset is bound to.
func (st *State) Service() LinkedService { return st.base.service }

// Input returns the effective write rows for this call.
func (st *State) Input() []Row { return st.input }

// Checkpoint returns the caller-staged checkpoint, or nil when the
// provider does not support checkpoints or a full load is requested.
func (st *State) Checkpoint() Checkpoint { return st.checkpoint }

// SetCheckpoint advances the dataset checkpoint. Ignored for providers
// that do not declare checkpoint support.
func (st *State) SetCheckpoint(c Checkpoint) {
	if !st.base.caps.SupportsCheckpoint {
		return
	}
	st.base.checkpoint = c
}

// SetOutput replaces the call's output rows.
func (st *State) SetOutput(rows []Row) { st.base.output = rows }

// AppendOutput adds rows to the call's output.
func (st *State) AppendOutput(rows ...Row) {
	st.base.output = append(st.base.output, rows...)
}

// Operation returns the in-flight telemetry record, letting verbs report
// an authoritative row count or metadata before the call completes.
func (st *State) Operation() *OperationInfo { return st.base.operation }

// DatasetBase implements Dataset around a provider's Operations. Every
// verb except Close runs through the tracked-call wrapper, which enforces
// the contract rules that hold for all providers: fresh telemetry per
// call, timing on success and failure, empty-input no-ops, the declared
// input capacity, identity validation, and input immutability.
type DatasetBase struct {
	info     Info
	settings Settings
	service  LinkedService
	caps     Capabilities
	ops      Operations

	input      []Row
	output     []Row
	checkpoint Checkpoint
	operation  *OperationInfo

	prepareWrite func([]Row) []Row
	postFetch    func([]Row) []Row

	closed bool
}

var _ Dataset = (*DatasetBase)(nil)

// NewDatasetBase binds dataset identity, settings, and a linked service to
// a provider's Operations.
func NewDatasetBase(info Info, settings Settings, service LinkedService, caps Capabilities, ops Operations) *DatasetBase {
	return &DatasetBase{
		info:     info,
		settings: settings,
		service:  service,
		caps:     caps,
		ops:      ops,
	}
}

func (b *DatasetBase) Info() Info                 { return b.info }
func (b *DatasetBase) Settings() Settings         { return b.settings }
func (b *DatasetBase) Service() LinkedService     { return b.service }
func (b *DatasetBase) Capabilities() Capabilities { return b.caps }

// Input returns the staged input rows.
func (b *DatasetBase) Input() []Row { return b.input }

// SetInput stages rows for the next write method. The rows are copied at
// call time, never mutated in place.
func (b *DatasetBase) SetInput(rows []Row) { b.input = rows }

// Output returns the rows the last successful call produced.
func (b *DatasetBase) Output() []Row { return b.output }

// Checkpoint returns the current checkpoint.
func (b *DatasetBase) Checkpoint() Checkpoint { return b.checkpoint }

// SetCheckpoint stages a checkpoint for the next read. Providers without
// checkpoint support leave it unconsumed.
func (b *DatasetBase) SetCheckpoint(c Checkpoint) { b.checkpoint = c }

// Operation returns the telemetry of the last tracked call, or nil before
// the first one.
func (b *DatasetBase) Operation() *OperationInfo { return b.operation }

// SetPrepareWrite installs a hook that rewrites the private copy of staged
// input before a write verb runs.
func (b *DatasetBase) SetPrepareWrite(fn func([]Row) []Row) { b.prepareWrite = fn }

// SetPostFetch installs a hook applied to output after a successful read
// or list, before row count and schema are derived.
func (b *DatasetBase) SetPostFetch(fn func([]Row) []Row) { b.postFetch = fn }

func (b *DatasetBase) Read(ctx context.Context) error {
	return b.track(ctx, MethodRead, func(ctx context.Context, st *State) error {
		return b.ops.Read(ctx, st)
	})
}

func (b *DatasetBase) Create(ctx context.Context) error {
	return b.track(ctx, MethodCreate, func(ctx context.Context, st *State) error {
		return b.ops.Create(ctx, st)
	})
}

func (b *DatasetBase) Update(ctx context.Context) error {
	return b.track(ctx, MethodUpdate, func(ctx context.Context, st *State) error {
		return b.ops.Update(ctx, st)
	})
}

func (b *DatasetBase) Upsert(ctx context.Context) error {
	return b.track(ctx, MethodUpsert, func(ctx context.Context, st *State) error {
		return b.ops.Upsert(ctx, st)
	})
}

func (b *DatasetBase) Delete(ctx context.Context) error {
	return b.track(ctx, MethodDelete, func(ctx context.Context, st *State) error {
		return b.ops.Delete(ctx, st)
	})
}

func (b *DatasetBase) Purge(ctx context.Context) error {
	return b.track(ctx, MethodPurge, func(ctx context.Context, st *State) error {
		return b.ops.Purge(ctx, st)
	})
}

func (b *DatasetBase) List(ctx context.Context) error {
	return b.track(ctx, MethodList, func(ctx context.Context, st *State) error {
		return b.ops.List(ctx, st)
	})
}

// Rename renames the backing collection. The dataset's settings keep the
// originally configured name, so repeating the same rename fails against
// the now-absent source.
func (b *DatasetBase) Rename(ctx context.Context, newName string) error {
	return b.track(ctx, MethodRename, func(ctx context.Context, st *State) error {
		return b.ops.Rename(ctx, st, newName)
	})
}

// Close releases dataset-held resources. It is untracked and repeat-safe.
// The linked service stays open; the caller owns it.
func (b *DatasetBase) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return b.ops.Close()
}

// track is the instrumentation wrapper around every dataset verb. Timing
// is recorded on success and failure alike; the verb's error is returned
// to the caller unchanged.
func (b *DatasetBase) track(ctx context.Context, method Method, fn func(context.Context, *State) error) (err error) {
	op := &OperationInfo{Method: method, StartedAt: time.Now().UTC()}
	b.operation = op
	b.output = nil

	defer func() {
		op.EndedAt = time.Now().UTC()
		op.Duration = op.EndedAt.Sub(op.StartedAt)
		if err != nil {
			op.Success = false
			op.Error = newOperationError(err)
			return
		}
		op.Success = true
		if op.RowCount == 0 {
			op.RowCount = int64(len(b.output))
		}
		if op.Schema == nil && len(b.output) > 0 {
			op.Schema = SchemaOf(b.output)
		}
	}()

	if ctxErr := ctx.Err(); ctxErr != nil {
		err = Wrap(KindForMethod(method), ctxErr, fmt.Sprintf("%s aborted", method))
		return err
	}
	if b.closed {
		err = New(KindForMethod(method), "dataset is closed")
		return err
	}
	if !b.caps.Supports(method) {
		err = NotSupported(method)
		return err
	}

	st := &State{base: b}
	if b.caps.SupportsCheckpoint {
		st.checkpoint = b.checkpoint
	}

	if consumesInput(method) {
		// Empty input completes immediately: telemetry only, zero
		// backend interaction.
		if len(b.input) == 0 {
			return nil
		}
		if max := b.caps.MaxInputRows; max > 0 && len(b.input) > max {
			err = New(KindForMethod(method),
				fmt.Sprintf("input of %d rows exceeds the declared capacity of %d", len(b.input), max)).
				WithDetail("rows", len(b.input)).
				WithDetail("capacity", max)
			return err
		}
		if requiresIdentity(method) {
			if err = b.checkIdentity(method); err != nil {
				return err
			}
		}
		st.input = CloneRows(b.input)
		if b.prepareWrite != nil {
			st.input = b.prepareWrite(st.input)
		}
	}

	if err = fn(ctx, st); err != nil {
		return err
	}

	if b.postFetch != nil && (method == MethodRead || method == MethodList) {
		b.output = b.postFetch(b.output)
	}
	if b.output == nil && consumesInput(method) {
		b.output = st.input
	}
	return nil
}

// checkIdentity enforces the identity rules for update, upsert and
// delete: columns come from settings alone, every row carries a full
// identity tuple, and no two rows share one.
func (b *DatasetBase) checkIdentity(method Method) error {
	kind := KindForMethod(method)
	cols := b.settings.IdentityColumns()
	if len(cols) == 0 {
		return New(kind, "identity columns are not configured").
			WithDetail("setting", SettingIdentityColumns)
	}
	seen := make(map[string]int, len(b.input))
	for i, row := range b.input {
		key, err := IdentityKey(row, cols)
		if err != nil {
			return New(kind, fmt.Sprintf("row %d: %v", i, err)).
				WithDetail("row", i)
		}
		if prev, dup := seen[key]; dup {
			return New(kind, fmt.Sprintf("rows %d and %d share the same identity", prev, i)).
				WithDetail("identity", key)
		}
		seen[key] = i
	}
	return nil
}
