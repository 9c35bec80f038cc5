// Package resourcetest verifies that a dataset provider honors the
// resource contract. A provider under test supplies two hooks: one that
// builds a fresh dataset on an empty collection, and one that returns
// sample rows shaped for that dataset. Run drives the provider through
// the shared contract rules: operation telemetry, empty-input no-ops,
// input capacity, identity validation, idempotence, checkpoint handling,
// and the linked-service surface.
//
// The suite runs hermetically against whatever backend the hooks bind;
// substitute backends (in-process stores, temp files, stubbed
// transports) keep it free of network and credentials.
package resourcetest

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"testing"

	"github.com/nucleus/resource-core/pkg/resource"
)

// Provider supplies the hooks the contract suite drives a backend
// through.
type Provider struct {
	// Name labels the provider in failure output.
	Name string

	// MakeDataset returns a fresh dataset bound to a connected linked
	// service and backed by an empty collection. Every call must yield
	// an isolated dataset: writes through one never surface through
	// another. Cleanup is the hook's business, via t.Cleanup.
	//
	// Full coverage needs identity columns configured and a small
	// declared input capacity; an unbounded dataset skips the capacity
	// checks.
	MakeDataset func(t *testing.T) resource.Dataset

	// SampleRows returns at least three rows with distinct identity
	// tuples, shaped for the dataset MakeDataset builds. When the rows
	// carry a column the provider uses as a checkpoint watermark, later
	// rows carry higher values.
	SampleRows func() []resource.Row
}

// Run exercises the provider against the dataset contract.
func Run(t *testing.T, p Provider) {
	if p.MakeDataset == nil || p.SampleRows == nil {
		t.Fatalf("provider %q: MakeDataset and SampleRows hooks are required", p.Name)
	}
	if rows := p.SampleRows(); len(rows) < 3 {
		t.Fatalf("provider %q: SampleRows must return at least 3 rows, got %d", p.Name, len(rows))
	}

	t.Run("CreateAndRead", func(t *testing.T) { testCreateAndRead(t, p) })
	t.Run("SuccessTelemetry", func(t *testing.T) { testSuccessTelemetry(t, p) })
	t.Run("InputImmutable", func(t *testing.T) { testInputImmutable(t, p) })
	t.Run("EmptyInput", func(t *testing.T) { testEmptyInput(t, p) })
	t.Run("Capacity", func(t *testing.T) { testCapacity(t, p) })
	t.Run("IdentityDuplicates", func(t *testing.T) { testIdentityDuplicates(t, p) })
	t.Run("FailureTelemetry", func(t *testing.T) { testFailureTelemetry(t, p) })
	t.Run("UpdateIdempotent", func(t *testing.T) { testUpdateIdempotent(t, p) })
	t.Run("UpsertIdempotent", func(t *testing.T) { testUpsertIdempotent(t, p) })
	t.Run("DeleteIdempotent", func(t *testing.T) { testDeleteIdempotent(t, p) })
	t.Run("PurgeIdempotent", func(t *testing.T) { testPurgeIdempotent(t, p) })
	t.Run("RenameNotIdempotent", func(t *testing.T) { testRenameNotIdempotent(t, p) })
	t.Run("List", func(t *testing.T) { testList(t, p) })
	t.Run("Checkpoint", func(t *testing.T) { testCheckpoint(t, p) })
	t.Run("NotSupportedMethods", func(t *testing.T) { testNotSupportedMethods(t, p) })
	t.Run("CloseFinal", func(t *testing.T) { testCloseFinal(t, p) })
	t.Run("LinkedService", func(t *testing.T) { testLinkedService(t, p) })
}

func testCreateAndRead(t *testing.T, p Provider) {
	d := p.MakeDataset(t)
	requireOps(t, d, resource.MethodCreate, resource.MethodRead)
	ctx := context.Background()
	samples := p.SampleRows()

	mustCreate(ctx, t, d, samples)
	got := readAll(ctx, t, d)
	if len(got) != len(samples) {
		t.Fatalf("read returned %d rows, want %d", len(got), len(samples))
	}
	ids := identityColumns(t, d)
	wantKeys := keyed(t, samples, ids)
	gotKeys := keyed(t, got, ids)
	for key := range wantKeys {
		if _, ok := gotKeys[key]; !ok {
			t.Errorf("created row %q missing from read", key)
		}
	}
}

func testSuccessTelemetry(t *testing.T, p Provider) {
	d := p.MakeDataset(t)
	requireOps(t, d, resource.MethodCreate, resource.MethodRead)
	ctx := context.Background()
	samples := p.SampleRows()

	mustCreate(ctx, t, d, samples)
	op := d.Operation()
	if op == nil {
		t.Fatal("no operation recorded after create")
	}
	if op.Method != resource.MethodCreate {
		t.Errorf("operation method = %q, want %q", op.Method, resource.MethodCreate)
	}
	if !op.Success {
		t.Errorf("operation not marked successful: %+v", op.Error)
	}
	if op.Error != nil {
		t.Errorf("successful operation carries error %+v", op.Error)
	}
	if op.RowCount != int64(len(samples)) {
		t.Errorf("row count = %d, want %d", op.RowCount, len(samples))
	}
	if op.StartedAt.IsZero() || op.EndedAt.IsZero() {
		t.Error("operation timing not recorded")
	}
	if op.EndedAt.Before(op.StartedAt) {
		t.Errorf("operation ended %v before it started %v", op.EndedAt, op.StartedAt)
	}
	if len(op.Schema) == 0 {
		t.Error("operation schema not derived from output")
	}

	// A second call gets its own telemetry record.
	first := op
	if err := d.Read(ctx); err != nil {
		t.Fatalf("read: %v", err)
	}
	if d.Operation() == first {
		t.Error("operation record reused across calls")
	}
	if d.Operation().Method != resource.MethodRead {
		t.Errorf("second operation method = %q, want %q", d.Operation().Method, resource.MethodRead)
	}
}

func testInputImmutable(t *testing.T, p Provider) {
	d := p.MakeDataset(t)
	requireOps(t, d, resource.MethodCreate)
	ctx := context.Background()

	staged := resource.CloneRows(p.SampleRows())
	snapshot := resource.CloneRows(staged)
	d.SetInput(staged)
	if err := d.Create(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !reflect.DeepEqual(staged, snapshot) {
		t.Errorf("create mutated the staged input rows:\n got %v\nwant %v", staged, snapshot)
	}
}

func testEmptyInput(t *testing.T, p Provider) {
	d := p.MakeDataset(t)
	requireOps(t, d, resource.MethodCreate, resource.MethodRead)
	ctx := context.Background()
	samples := p.SampleRows()

	mustCreate(ctx, t, d, samples)
	baseline := len(readAll(ctx, t, d))

	for _, method := range resource.WriteMethods() {
		if !d.Capabilities().Supports(method) {
			continue
		}
		for _, input := range [][]resource.Row{nil, {}} {
			d.SetInput(input)
			if err := invoke(ctx, d, method); err != nil {
				t.Fatalf("%s with empty input: %v", method, err)
			}
			op := d.Operation()
			if !op.Success {
				t.Errorf("%s with empty input not successful", method)
			}
			if op.RowCount != 0 {
				t.Errorf("%s with empty input reported %d rows", method, op.RowCount)
			}
			if len(d.Output()) != 0 {
				t.Errorf("%s with empty input produced %d output rows", method, len(d.Output()))
			}
		}
	}
	if got := len(readAll(ctx, t, d)); got != baseline {
		t.Errorf("empty-input calls changed the backend: %d rows, want %d", got, baseline)
	}
}

func testCapacity(t *testing.T, p Provider) {
	d := p.MakeDataset(t)
	requireOps(t, d, resource.MethodCreate, resource.MethodRead)
	max := d.Capabilities().MaxInputRows
	if max <= 0 {
		t.Skip("provider declares unbounded input capacity")
	}
	ctx := context.Background()
	samples := p.SampleRows()

	// One row over the declared capacity fails with the method's kind
	// before the backend is touched: nothing is applied, not even a
	// prefix of the batch.
	d.SetInput(overflowRows(samples[0], max+1))
	err := d.Create(ctx)
	if err == nil {
		t.Fatalf("create accepted %d rows over a declared capacity of %d", max+1, max)
	}
	if !resource.IsKind(err, resource.KindCreate) {
		t.Errorf("over-capacity create error kind = %v, want %v", errKind(err), resource.KindCreate)
	}
	if got := len(readAll(ctx, t, d)); got != 0 {
		t.Fatalf("over-capacity create applied %d rows, want 0", got)
	}

	// A batch of exactly the declared capacity is accepted whole.
	if max <= len(samples) {
		mustCreate(ctx, t, d, samples[:max])
		if got := len(readAll(ctx, t, d)); got != max {
			t.Errorf("create at capacity applied %d rows, want %d", got, max)
		}
	}
}

func testIdentityDuplicates(t *testing.T, p Provider) {
	d := p.MakeDataset(t)
	requireOps(t, d, resource.MethodCreate, resource.MethodRead, resource.MethodUpdate)
	ctx := context.Background()
	samples := p.SampleRows()

	mustCreate(ctx, t, d, samples)
	d.SetInput([]resource.Row{resource.CloneRow(samples[0]), resource.CloneRow(samples[0])})
	err := d.Update(ctx)
	if err == nil {
		t.Fatal("update accepted two rows with the same identity")
	}
	if !resource.IsKind(err, resource.KindUpdate) {
		t.Errorf("duplicate-identity error kind = %v, want %v", errKind(err), resource.KindUpdate)
	}
	if got := keyed(t, readAll(ctx, t, d), identityColumns(t, d)); len(got) != len(samples) {
		t.Errorf("rejected update changed the backend: %d rows, want %d", len(got), len(samples))
	}
}

func testFailureTelemetry(t *testing.T, p Provider) {
	d := p.MakeDataset(t)
	requireOps(t, d, resource.MethodDelete)
	ctx := context.Background()
	samples := p.SampleRows()

	// Duplicate identities are the one failure every provider can
	// produce without backend cooperation.
	d.SetInput([]resource.Row{resource.CloneRow(samples[0]), resource.CloneRow(samples[0])})
	err := d.Delete(ctx)
	if err == nil {
		t.Fatal("delete accepted duplicate identities")
	}

	op := d.Operation()
	if op == nil {
		t.Fatal("no operation recorded for failed delete")
	}
	if op.Success {
		t.Error("failed operation marked successful")
	}
	if op.EndedAt.IsZero() {
		t.Error("failed operation missing end time")
	}
	if op.RowCount != 0 {
		t.Errorf("failed operation reports %d rows", op.RowCount)
	}
	if op.Error == nil {
		t.Fatal("failed operation carries no error summary")
	}
	cerr, ok := resource.AsError(err)
	if !ok {
		t.Fatalf("delete returned a non-contract error: %v", err)
	}
	if op.Error.Code != cerr.Code {
		t.Errorf("telemetry code %q differs from returned code %q", op.Error.Code, cerr.Code)
	}
	if op.Error.Message == "" {
		t.Error("telemetry error message is empty")
	}
}

func testUpdateIdempotent(t *testing.T, p Provider) {
	d := p.MakeDataset(t)
	requireOps(t, d, resource.MethodCreate, resource.MethodRead, resource.MethodUpdate)
	ctx := context.Background()
	samples := p.SampleRows()
	ids := identityColumns(t, d)

	mustCreate(ctx, t, d, samples)
	mutated, col := mutateRows(samples, ids)

	for pass := 1; pass <= 2; pass++ {
		d.SetInput(mutated)
		if err := d.Update(ctx); err != nil {
			t.Fatalf("update pass %d: %v", pass, err)
		}
		back := keyed(t, readAll(ctx, t, d), ids)
		if len(back) != len(samples) {
			t.Fatalf("update pass %d left %d rows, want %d", pass, len(back), len(samples))
		}
		if col == "" {
			continue
		}
		for _, want := range mutated {
			key := mustKey(t, want, ids)
			got, ok := back[key]
			if !ok {
				t.Fatalf("update pass %d lost row %q", pass, key)
			}
			if !renderEqual(got[col], want[col]) {
				t.Errorf("update pass %d: row %q column %q = %v, want %v", pass, key, col, got[col], want[col])
			}
		}
	}

	// Updating rows that match nothing succeeds and affects nothing.
	fresh := p.MakeDataset(t)
	requireOps(t, fresh, resource.MethodUpdate, resource.MethodRead)
	fresh.SetInput(resource.CloneRows(samples))
	if err := fresh.Update(ctx); err != nil {
		t.Fatalf("update with no matching rows: %v", err)
	}
	if op := fresh.Operation(); op.RowCount != 0 {
		t.Errorf("unmatched update reports %d rows", op.RowCount)
	}
}

func testUpsertIdempotent(t *testing.T, p Provider) {
	d := p.MakeDataset(t)
	requireOps(t, d, resource.MethodRead, resource.MethodUpsert)
	ctx := context.Background()
	samples := p.SampleRows()
	ids := identityColumns(t, d)

	// First upsert inserts, repeats converge on the same state.
	for pass := 1; pass <= 2; pass++ {
		d.SetInput(resource.CloneRows(samples))
		if err := d.Upsert(ctx); err != nil {
			t.Fatalf("upsert pass %d: %v", pass, err)
		}
		back := keyed(t, readAll(ctx, t, d), ids)
		if len(back) != len(samples) {
			t.Fatalf("upsert pass %d left %d rows, want %d", pass, len(back), len(samples))
		}
	}

	// A mutated upsert updates in place rather than appending.
	mutated, col := mutateRows(samples, ids)
	d.SetInput(mutated)
	if err := d.Upsert(ctx); err != nil {
		t.Fatalf("mutated upsert: %v", err)
	}
	back := keyed(t, readAll(ctx, t, d), ids)
	if len(back) != len(samples) {
		t.Fatalf("mutated upsert left %d rows, want %d", len(back), len(samples))
	}
	if col != "" {
		for _, want := range mutated {
			key := mustKey(t, want, ids)
			if got := back[key]; !renderEqual(got[col], want[col]) {
				t.Errorf("mutated upsert: row %q column %q = %v, want %v", key, col, got[col], want[col])
			}
		}
	}
}

func testDeleteIdempotent(t *testing.T, p Provider) {
	d := p.MakeDataset(t)
	requireOps(t, d, resource.MethodCreate, resource.MethodRead, resource.MethodDelete)
	ctx := context.Background()
	samples := p.SampleRows()

	mustCreate(ctx, t, d, samples)
	for pass := 1; pass <= 2; pass++ {
		d.SetInput(resource.CloneRows(samples[:1]))
		if err := d.Delete(ctx); err != nil {
			t.Fatalf("delete pass %d: %v", pass, err)
		}
		if got := len(readAll(ctx, t, d)); got != len(samples)-1 {
			t.Fatalf("delete pass %d left %d rows, want %d", pass, got, len(samples)-1)
		}
	}
}

func testPurgeIdempotent(t *testing.T, p Provider) {
	d := p.MakeDataset(t)
	requireOps(t, d, resource.MethodCreate, resource.MethodRead, resource.MethodPurge)
	ctx := context.Background()

	mustCreate(ctx, t, d, p.SampleRows())
	for pass := 1; pass <= 2; pass++ {
		if err := d.Purge(ctx); err != nil {
			t.Fatalf("purge pass %d: %v", pass, err)
		}
		if got := len(readAll(ctx, t, d)); got != 0 {
			t.Fatalf("purge pass %d left %d rows", pass, got)
		}
	}
}

func testRenameNotIdempotent(t *testing.T, p Provider) {
	d := p.MakeDataset(t)
	requireOps(t, d, resource.MethodCreate, resource.MethodRename)
	ctx := context.Background()

	mustCreate(ctx, t, d, p.SampleRows())
	target := d.Settings().Name() + "_moved"
	if err := d.Rename(ctx, target); err != nil {
		t.Fatalf("rename: %v", err)
	}

	// The dataset still points at the original name, so repeating the
	// same rename runs against an absent source and fails.
	err := d.Rename(ctx, target)
	if err == nil {
		t.Fatal("second rename of the same source succeeded")
	}
	if !resource.IsKind(err, resource.KindRename) {
		t.Errorf("second rename error kind = %v, want %v", errKind(err), resource.KindRename)
	}
}

func testList(t *testing.T, p Provider) {
	d := p.MakeDataset(t)
	requireOps(t, d, resource.MethodCreate, resource.MethodList)
	ctx := context.Background()

	mustCreate(ctx, t, d, p.SampleRows())
	if err := d.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	op := d.Operation()
	if op.Method != resource.MethodList || !op.Success {
		t.Errorf("list telemetry = %+v", op)
	}
	if op.RowCount != int64(len(d.Output())) {
		t.Errorf("list row count %d differs from %d output rows", op.RowCount, len(d.Output()))
	}
	if len(d.Output()) == 0 {
		t.Error("list found no collections after create")
	}
}

func testCloseFinal(t *testing.T, p Provider) {
	d := p.MakeDataset(t)
	requireOps(t, d, resource.MethodRead)
	ctx := context.Background()

	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	err := d.Read(ctx)
	if err == nil {
		t.Fatal("read succeeded on a closed dataset")
	}
	if !resource.IsKind(err, resource.KindRead) {
		t.Errorf("closed-dataset read error kind = %v, want %v", errKind(err), resource.KindRead)
	}
}

func testCheckpoint(t *testing.T, p Provider) {
	d := p.MakeDataset(t)
	requireOps(t, d, resource.MethodCreate, resource.MethodRead)
	ctx := context.Background()
	samples := p.SampleRows()

	if !d.Capabilities().SupportsCheckpoint {
		// A provider without checkpoint support ignores a staged
		// checkpoint entirely: reads stay full loads and the staged
		// value is left unconsumed.
		mustCreate(ctx, t, d, samples)
		staged := resource.Checkpoint{"bogus": "value"}
		d.SetCheckpoint(staged)
		if err := d.Read(ctx); err != nil {
			t.Fatalf("read with staged checkpoint: %v", err)
		}
		if got := len(d.Output()); got != len(samples) {
			t.Errorf("checkpoint-blind read returned %d rows, want %d", got, len(samples))
		}
		if !reflect.DeepEqual(d.Checkpoint(), staged) {
			t.Errorf("checkpoint-blind provider consumed the checkpoint: %v", d.Checkpoint())
		}
		return
	}

	// Full load first: an empty checkpoint reads everything and the
	// provider advances the checkpoint past it.
	mustCreate(ctx, t, d, samples[:2])
	d.SetCheckpoint(nil)
	if err := d.Read(ctx); err != nil {
		t.Fatalf("full read: %v", err)
	}
	if got := len(d.Output()); got != 2 {
		t.Fatalf("full read returned %d rows, want 2", got)
	}
	if d.Checkpoint().IsZero() {
		t.Fatal("checkpoint not advanced by read")
	}

	// Rows created after the watermark are the only ones a subsequent
	// incremental read returns.
	mustCreate(ctx, t, d, samples[2:])
	if err := d.Read(ctx); err != nil {
		t.Fatalf("incremental read: %v", err)
	}
	got := keyed(t, d.Output(), identityColumns(t, d))
	if len(got) != len(samples)-2 {
		t.Fatalf("incremental read returned %d rows, want %d", len(got), len(samples)-2)
	}
	for _, row := range samples[2:] {
		key := mustKey(t, row, identityColumns(t, d))
		if _, ok := got[key]; !ok {
			t.Errorf("incremental read missing new row %q", key)
		}
	}
}

func testNotSupportedMethods(t *testing.T, p Provider) {
	d := p.MakeDataset(t)
	caps := d.Capabilities()
	ctx := context.Background()

	unsupported := false
	for _, method := range resource.TrackedMethods() {
		if caps.Supports(method) {
			continue
		}
		unsupported = true
		err := invoke(ctx, d, method)
		if err == nil {
			t.Errorf("%s succeeded despite not being declared", method)
			continue
		}
		if !resource.IsNotSupported(err) {
			t.Errorf("%s error kind = %v, want %v", method, errKind(err), resource.KindNotSupported)
		}
		if op := d.Operation(); op == nil || op.Success {
			t.Errorf("%s not recorded as a failed operation", method)
		}
	}
	if !unsupported {
		t.Skip("provider declares every method")
	}
}

func testLinkedService(t *testing.T, p Provider) {
	d := p.MakeDataset(t)
	svc := d.Service()
	if svc == nil {
		t.Fatal("dataset has no linked service")
	}
	ctx := context.Background()

	if info := svc.Info(); info.Kind == "" || info.ID == "" {
		t.Errorf("service info incomplete: %+v", info)
	}
	healthy, msg := svc.TestConnection(ctx)
	if !healthy {
		t.Fatalf("connected service reports unhealthy: %s", msg)
	}
	if msg == "" {
		t.Error("healthy probe returned no message")
	}
	if _, err := svc.Connection(); err != nil {
		t.Fatalf("connection handle unavailable: %v", err)
	}

	// Close is final until the next Connect, and repeat closes are
	// no-ops.
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, err := svc.Connection(); err == nil {
		t.Fatal("connection handle survives close")
	} else if !resource.IsKind(err, resource.KindConnection) {
		t.Errorf("closed-service error kind = %v, want %v", errKind(err), resource.KindConnection)
	}
	if healthy, _ := svc.TestConnection(ctx); healthy {
		t.Error("closed service reports healthy")
	}

	// Reconnecting restores the service for its datasets.
	if err := svc.Connect(ctx); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if d.Capabilities().Supports(resource.MethodRead) {
		d.SetCheckpoint(nil)
		if err := d.Read(ctx); err != nil {
			t.Fatalf("read after reconnect: %v", err)
		}
	}
}

// --- helpers ---

// requireOps skips the test unless the dataset declares every listed
// method.
func requireOps(t *testing.T, d resource.Dataset, methods ...resource.Method) {
	t.Helper()
	for _, m := range methods {
		if !d.Capabilities().Supports(m) {
			t.Skipf("provider does not support %s", m)
		}
	}
}

func identityColumns(t *testing.T, d resource.Dataset) []string {
	t.Helper()
	ids := d.Settings().IdentityColumns()
	if len(ids) == 0 {
		t.Fatal("dataset settings carry no identity columns")
	}
	return ids
}

func mustCreate(ctx context.Context, t *testing.T, d resource.Dataset, rows []resource.Row) {
	t.Helper()
	d.SetInput(resource.CloneRows(rows))
	if err := d.Create(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}
}

// readAll resets the checkpoint and reads the full collection.
func readAll(ctx context.Context, t *testing.T, d resource.Dataset) []resource.Row {
	t.Helper()
	d.SetCheckpoint(nil)
	if err := d.Read(ctx); err != nil {
		t.Fatalf("read: %v", err)
	}
	return d.Output()
}

func invoke(ctx context.Context, d resource.Dataset, m resource.Method) error {
	switch m {
	case resource.MethodCreate:
		return d.Create(ctx)
	case resource.MethodRead:
		return d.Read(ctx)
	case resource.MethodUpdate:
		return d.Update(ctx)
	case resource.MethodUpsert:
		return d.Upsert(ctx)
	case resource.MethodDelete:
		return d.Delete(ctx)
	case resource.MethodPurge:
		return d.Purge(ctx)
	case resource.MethodList:
		return d.List(ctx)
	case resource.MethodRename:
		return d.Rename(ctx, d.Settings().Name()+"_ns")
	default:
		return fmt.Errorf("unknown method %q", m)
	}
}

// keyed indexes rows by their identity key.
func keyed(t *testing.T, rows []resource.Row, ids []string) map[string]resource.Row {
	t.Helper()
	out := make(map[string]resource.Row, len(rows))
	for i, row := range rows {
		key, err := resource.IdentityKey(row, ids)
		if err != nil {
			t.Fatalf("row %d has no identity: %v", i, err)
		}
		out[key] = row
	}
	return out
}

func mustKey(t *testing.T, row resource.Row, ids []string) string {
	t.Helper()
	key, err := resource.IdentityKey(row, ids)
	if err != nil {
		t.Fatalf("identity key: %v", err)
	}
	return key
}

// overflowRows builds n rows from base with fabricated identities. They
// exist only to trip the capacity check, which fires before any backend
// or identity validation.
func overflowRows(base resource.Row, n int) []resource.Row {
	rows := make([]resource.Row, n)
	for i := range rows {
		row := resource.CloneRow(base)
		for col := range row {
			if s, ok := row[col].(string); ok {
				row[col] = fmt.Sprintf("%s-overflow-%d", s, i)
			}
		}
		rows[i] = row
	}
	return rows
}

// mutateRows clones rows and rewrites one non-identity column, chosen
// deterministically, preferring strings over numbers so value fidelity
// survives every backend's type system. Returns the mutated rows and the
// column, or "" when no column is safely mutable.
func mutateRows(rows []resource.Row, ids []string) ([]resource.Row, string) {
	idSet := make(map[string]bool, len(ids))
	for _, col := range ids {
		idSet[col] = true
	}

	col := pickColumn(rows[0], idSet, func(v any) bool { _, ok := v.(string); return ok })
	if col == "" {
		col = pickColumn(rows[0], idSet, func(v any) bool {
			switch v.(type) {
			case int, int64, float64:
				return true
			}
			return false
		})
	}

	out := resource.CloneRows(rows)
	if col == "" {
		return out, ""
	}
	for _, row := range out {
		switch v := row[col].(type) {
		case string:
			row[col] = v + "+"
		case int:
			row[col] = v + 1
		case int64:
			row[col] = v + 1
		case float64:
			row[col] = v + 1
		}
	}
	return out, col
}

func pickColumn(row resource.Row, exclude map[string]bool, match func(any) bool) string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		if !exclude[col] && match(row[col]) {
			return col
		}
	}
	return ""
}

// renderEqual compares values by rendered form, tolerating the numeric
// type drift backends introduce (int64 from SQL, float64 from JSON).
func renderEqual(a, b any) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func errKind(err error) resource.Kind {
	if e, ok := resource.AsError(err); ok {
		return e.Kind
	}
	return ""
}
