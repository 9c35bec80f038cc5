package memory_test

import (
	"context"
	"testing"

	"github.com/nucleus/resource-core/internal/provider/memory"
	"github.com/nucleus/resource-core/pkg/resource"
	"github.com/nucleus/resource-core/pkg/resourcetest"
)

// =============================================================================
// CONTRACT SUITE
// The memory provider is the reference implementation, so it runs the
// full contract suite in both checkpoint modes.
// =============================================================================

func TestMemory_Contract_Suite(t *testing.T) {
	resourcetest.Run(t, resourcetest.Provider{
		Name: "memory",
		MakeDataset: func(t *testing.T) resource.Dataset {
			return makeDataset(t, nil)
		},
		SampleRows: sampleRows,
	})
}

func TestMemory_Contract_SuiteWithoutCheckpoint(t *testing.T) {
	resourcetest.Run(t, resourcetest.Provider{
		Name: "memory/no-checkpoint",
		MakeDataset: func(t *testing.T) resource.Dataset {
			return makeDataset(t, resource.Settings{"supportsCheckpoint": false})
		},
		SampleRows: sampleRows,
	})
}

// =============================================================================
// PROVIDER-SPECIFIC BEHAVIOR
// =============================================================================

func TestMemory_Unit_ReconnectResetsStore(t *testing.T) {
	ctx := context.Background()
	d := makeDataset(t, nil)
	svc := d.Service().(*memory.LinkedService)

	d.SetInput(sampleRows())
	if err := d.Create(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}
	before, err := svc.Store()
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	// The store lives on the connection handle, so reconnecting swaps in
	// a fresh, empty one.
	if err := svc.Connect(ctx); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	after, err := svc.Store()
	if err != nil {
		t.Fatalf("store after reconnect: %v", err)
	}
	if before.ID() == after.ID() {
		t.Error("reconnect kept the previous store")
	}
	if err := d.Read(ctx); err != nil {
		t.Fatalf("read after reconnect: %v", err)
	}
	if got := len(d.Output()); got != 0 {
		t.Errorf("fresh store holds %d rows", got)
	}
}

func TestMemory_Unit_ServiceMismatchRejected(t *testing.T) {
	base := resource.NewServiceBase(resource.NewInfo("stub", "1.0.0", "stub"), nil, stubConnector{})
	_, err := memory.NewDataset(base, resource.Settings{"name": "events"})
	if err == nil {
		t.Fatal("dataset accepted a foreign linked service")
	}
	if !resource.IsKind(err, resource.KindServiceMismatch) {
		t.Errorf("error kind = %v, want %v", err, resource.KindServiceMismatch)
	}
}

func TestMemory_Unit_NameRequired(t *testing.T) {
	svc, err := memory.NewLinkedService(nil)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if _, err := memory.NewDataset(svc, resource.Settings{}); !resource.IsKind(err, resource.KindValidation) {
		t.Errorf("missing name error = %v, want %v", err, resource.KindValidation)
	}
}

func TestMemory_Unit_UpdateAdvancesWatermark(t *testing.T) {
	ctx := context.Background()
	d := makeDataset(t, nil)

	d.SetInput(sampleRows()[:2])
	if err := d.Create(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := d.Read(ctx); err != nil {
		t.Fatalf("read: %v", err)
	}

	// Updating a row moves it past the read watermark, so an incremental
	// read returns it again.
	d.SetInput([]resource.Row{{"id": 1, "label": "alpha-2", "score": 9.5}})
	if err := d.Update(ctx); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := d.Read(ctx); err != nil {
		t.Fatalf("incremental read: %v", err)
	}
	rows := d.Output()
	if len(rows) != 1 {
		t.Fatalf("incremental read returned %d rows, want 1", len(rows))
	}
	if rows[0]["label"] != "alpha-2" {
		t.Errorf("incremental read returned %v", rows[0])
	}
}

func TestMemory_Unit_RenameOntoExistingCollection(t *testing.T) {
	ctx := context.Background()
	d := makeDataset(t, nil)
	svc := d.Service().(*memory.LinkedService)

	store, err := svc.Store()
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	store.Insert("events", sampleRows()[:1])
	store.Insert("archive", sampleRows()[1:2])

	err = d.Rename(ctx, "archive")
	if err == nil {
		t.Fatal("rename onto an existing collection succeeded")
	}
	if !resource.IsKind(err, resource.KindRename) {
		t.Errorf("error kind = %v, want %v", err, resource.KindRename)
	}
}

func TestMemory_Unit_ListReportsCollections(t *testing.T) {
	ctx := context.Background()
	d := makeDataset(t, nil)
	svc := d.Service().(*memory.LinkedService)

	store, err := svc.Store()
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	store.Insert("events", sampleRows()[:3])
	store.Insert("archive", sampleRows()[3:])

	if err := d.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	rows := d.Output()
	if len(rows) != 2 {
		t.Fatalf("list returned %d collections, want 2", len(rows))
	}
	// Sorted by name: archive first.
	if rows[0]["name"] != "archive" || rows[0]["rows"] != 1 {
		t.Errorf("first listing = %v", rows[0])
	}
	if rows[1]["name"] != "events" || rows[1]["rows"] != 3 {
		t.Errorf("second listing = %v", rows[1])
	}
}

func TestMemory_Unit_RegistryFactories(t *testing.T) {
	svc, err := resource.NewLinkedService(memory.Kind, "", resource.Settings{"name": "reg"})
	if err != nil {
		t.Fatalf("registry service: %v", err)
	}
	if err := svc.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer svc.Close()

	d, err := resource.NewDataset(memory.Kind, memory.Version, svc, resource.Settings{"name": "events"})
	if err != nil {
		t.Fatalf("registry dataset: %v", err)
	}
	if d.Info().Kind != memory.Kind {
		t.Errorf("dataset kind = %q, want %q", d.Info().Kind, memory.Kind)
	}
}

// --- helpers ---

func makeDataset(t *testing.T, extra resource.Settings) resource.Dataset {
	t.Helper()
	svc, err := memory.NewLinkedService(resource.Settings{"name": "memtest"})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if err := svc.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	settings := resource.Settings{
		"name":            "events",
		"identityColumns": []string{"id"},
		"maxInputRows":    4,
	}
	for k, v := range extra {
		settings[k] = v
	}
	d, err := memory.NewDataset(svc, settings)
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func sampleRows() []resource.Row {
	return []resource.Row{
		{"id": 1, "label": "alpha", "score": 1.5},
		{"id": 2, "label": "beta", "score": 2.5},
		{"id": 3, "label": "gamma", "score": 3.5},
		{"id": 4, "label": "delta", "score": 4.5},
	}
}

type stubConnector struct{}

func (stubConnector) Open(ctx context.Context) (any, error) { return "stub", nil }

func (stubConnector) Ping(ctx context.Context, handle any) error { return nil }

func (stubConnector) Shutdown(handle any) error { return nil }
