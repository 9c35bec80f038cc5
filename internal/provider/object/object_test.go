package object_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/nucleus/resource-core/internal/provider/object"
	"github.com/nucleus/resource-core/pkg/resource"
	"github.com/nucleus/resource-core/pkg/resourcetest"
)

// =============================================================================
// CONTRACT SUITE
// The local on-disk store shares its code path with MinIO/S3 above the
// client, so the suite runs against it for each codec without a server.
// =============================================================================

func TestObject_Contract_LocalJSONL(t *testing.T) {
	resourcetest.Run(t, resourcetest.Provider{
		Name: "object/jsonl",
		MakeDataset: func(t *testing.T) resource.Dataset {
			return makeLocalDataset(t, nil)
		},
		SampleRows: sampleRows,
	})
}

func TestObject_Contract_LocalCSV(t *testing.T) {
	resourcetest.Run(t, resourcetest.Provider{
		Name: "object/csv",
		MakeDataset: func(t *testing.T) resource.Dataset {
			return makeLocalDataset(t, resource.Settings{"codec": "csv"})
		},
		SampleRows: sampleRows,
	})
}

func TestObject_Contract_LocalParquet(t *testing.T) {
	resourcetest.Run(t, resourcetest.Provider{
		Name: "object/parquet",
		MakeDataset: func(t *testing.T) resource.Dataset {
			return makeLocalDataset(t, resource.Settings{"codec": "parquet"})
		},
		SampleRows: sampleRows,
	})
}

func TestObject_Contract_LocalJSONLCheckpoint(t *testing.T) {
	resourcetest.Run(t, resourcetest.Provider{
		Name: "object/jsonl+watermark",
		MakeDataset: func(t *testing.T) resource.Dataset {
			return makeLocalDataset(t, resource.Settings{"checkpointColumn": "score"})
		},
		SampleRows: sampleRows,
	})
}

func TestObject_Contract_RestrictedOperations(t *testing.T) {
	resourcetest.Run(t, resourcetest.Provider{
		Name: "object/read-only",
		MakeDataset: func(t *testing.T) resource.Dataset {
			return makeLocalDataset(t, resource.Settings{
				"operations": []string{"read", "list"},
			})
		},
		SampleRows: sampleRows,
	})
}

// =============================================================================
// INTEGRATION (requires a reachable MinIO/S3 endpoint)
// =============================================================================

func TestObject_Integration_MinIO(t *testing.T) {
	endpoint := skipIfNoMinio(t)
	bucket := os.Getenv("RESOURCE_MINIO_BUCKET")
	if bucket == "" {
		bucket = "resource-contract"
	}

	run := 0
	resourcetest.Run(t, resourcetest.Provider{
		Name: "object/minio",
		MakeDataset: func(t *testing.T) resource.Dataset {
			run++
			prefix := fmt.Sprintf("contract_%d_%d", time.Now().UnixNano(), run)
			svc, err := object.NewLinkedService(resource.Settings{
				"name":            "minio-itest",
				"endpointUrl":     endpoint,
				"accessKeyId":     os.Getenv("RESOURCE_MINIO_ACCESS_KEY"),
				"secretAccessKey": os.Getenv("RESOURCE_MINIO_SECRET_KEY"),
				"bucket":          bucket,
				"prefix":          prefix,
			})
			if err != nil {
				t.Fatalf("service: %v", err)
			}
			ctx := context.Background()
			if err := svc.Connect(ctx); err != nil {
				t.Fatalf("connect: %v", err)
			}
			t.Cleanup(func() {
				if store, err := svc.Store(); err == nil {
					if keys, err := store.ListPrefix(ctx, bucket, prefix+"/"); err == nil {
						for _, key := range keys {
							_ = store.RemoveObject(ctx, bucket, key)
						}
					}
				}
				_ = svc.Close()
			})

			d, err := object.NewDataset(svc, resource.Settings{
				"name":            "events",
				"identityColumns": []string{"id"},
				"maxInputRows":    4,
			})
			if err != nil {
				t.Fatalf("dataset: %v", err)
			}
			t.Cleanup(func() { _ = d.Close() })
			return d
		},
		SampleRows: sampleRows,
	})
}

// =============================================================================
// CONFIGURATION
// =============================================================================

func TestObject_Unit_ParseConfigDefaults(t *testing.T) {
	cfg := object.ParseConfig(resource.Settings{"prefix": "/data/"})
	if cfg.Bucket != "resources" {
		t.Errorf("default bucket = %q", cfg.Bucket)
	}
	if cfg.Prefix != "data" {
		t.Errorf("prefix not trimmed: %q", cfg.Prefix)
	}
	if !cfg.Local() {
		t.Error("config without an endpoint is not local")
	}
}

func TestObject_Unit_LocalEndpointSelection(t *testing.T) {
	cases := []struct {
		endpoint string
		local    bool
	}{
		{"", true},
		{"file:///var/lib/objects", true},
		{"http://minio.internal:9000", false},
		{"https://s3.amazonaws.com", false},
	}
	for _, tc := range cases {
		cfg := object.ParseConfig(resource.Settings{"endpointUrl": tc.endpoint})
		if cfg.Local() != tc.local {
			t.Errorf("Local(%q) = %v, want %v", tc.endpoint, cfg.Local(), tc.local)
		}
	}
}

func TestObject_Unit_ServiceMismatchRejected(t *testing.T) {
	base := resource.NewServiceBase(resource.NewInfo("stub", "1.0.0", "stub"), nil, stubConnector{})
	_, err := object.NewDataset(base, resource.Settings{"name": "events"})
	if err == nil {
		t.Fatal("dataset accepted a foreign linked service")
	}
	if !resource.IsKind(err, resource.KindServiceMismatch) {
		t.Errorf("error kind = %v, want %v", err, resource.KindServiceMismatch)
	}
}

func TestObject_Unit_NameRequired(t *testing.T) {
	svc := newLocalService(t)
	if _, err := object.NewDataset(svc, resource.Settings{}); !resource.IsKind(err, resource.KindValidation) {
		t.Errorf("missing name error = %v, want %v", err, resource.KindValidation)
	}
}

func TestObject_Unit_UnknownCodecRejected(t *testing.T) {
	svc := newLocalService(t)
	_, err := object.NewDataset(svc, resource.Settings{"name": "events", "codec": "xml"})
	if !resource.IsKind(err, resource.KindValidation) {
		t.Errorf("unknown codec error = %v, want %v", err, resource.KindValidation)
	}
}

// =============================================================================
// PROVIDER-SPECIFIC BEHAVIOR
// =============================================================================

func TestObject_Unit_ObjectLayoutOnDisk(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d := datasetAt(t, root, resource.Settings{"name": "events"})

	d.SetInput(sampleRows())
	if err := d.Create(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}

	// One canonical object per collection, keyed by codec extension.
	path := filepath.Join(root, "contract", "data", "events.jsonl")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("canonical object missing at %s: %v", path, err)
	}
}

func TestObject_Unit_ReadAbsentCollectionIsEmpty(t *testing.T) {
	ctx := context.Background()
	d := makeLocalDataset(t, nil)

	if err := d.Read(ctx); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := len(d.Output()); got != 0 {
		t.Errorf("absent collection read %d rows", got)
	}
	if op := d.Operation(); !op.Success {
		t.Errorf("absent collection read not successful: %+v", op.Error)
	}
}

func TestObject_Unit_PurgeRemovesObject(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d := datasetAt(t, root, resource.Settings{"name": "events"})

	d.SetInput(sampleRows())
	if err := d.Create(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := d.Purge(ctx); err != nil {
		t.Fatalf("purge: %v", err)
	}
	path := filepath.Join(root, "contract", "data", "events.jsonl")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("purged object still on disk: %v", err)
	}
}

func TestObject_Unit_RenameMovesObject(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d := datasetAt(t, root, resource.Settings{"name": "events"})

	d.SetInput(sampleRows())
	if err := d.Create(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := d.Rename(ctx, "archive"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	oldPath := filepath.Join(root, "contract", "data", "events.jsonl")
	newPath := filepath.Join(root, "contract", "data", "archive.jsonl")
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Errorf("source object survives rename: %v", err)
	}
	if _, err := os.Stat(newPath); err != nil {
		t.Errorf("target object missing: %v", err)
	}

	// A dataset on the new name sees the moved rows.
	moved, err := object.NewDataset(d.Service(), resource.Settings{
		"name":            "archive",
		"identityColumns": []string{"id"},
	})
	if err != nil {
		t.Fatalf("dataset on target: %v", err)
	}
	if err := moved.Read(ctx); err != nil {
		t.Fatalf("read after rename: %v", err)
	}
	if got := len(moved.Output()); got != len(sampleRows()) {
		t.Errorf("moved collection holds %d rows, want %d", got, len(sampleRows()))
	}
}

func TestObject_Unit_RenameOntoExistingCollection(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d := datasetAt(t, root, resource.Settings{"name": "events"})

	other, err := object.NewDataset(d.Service(), resource.Settings{
		"name":            "archive",
		"identityColumns": []string{"id"},
	})
	if err != nil {
		t.Fatalf("second dataset: %v", err)
	}

	d.SetInput(sampleRows()[:2])
	if err := d.Create(ctx); err != nil {
		t.Fatalf("create events: %v", err)
	}
	other.SetInput(sampleRows()[2:])
	if err := other.Create(ctx); err != nil {
		t.Fatalf("create archive: %v", err)
	}

	err = d.Rename(ctx, "archive")
	if err == nil {
		t.Fatal("rename onto an existing collection succeeded")
	}
	if !resource.IsKind(err, resource.KindRename) {
		t.Errorf("error kind = %v, want %v", err, resource.KindRename)
	}
}

func TestObject_Unit_ListReportsObjects(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d := datasetAt(t, root, resource.Settings{"name": "events"})

	other, err := object.NewDataset(d.Service(), resource.Settings{
		"name":            "metrics",
		"identityColumns": []string{"id"},
	})
	if err != nil {
		t.Fatalf("second dataset: %v", err)
	}
	d.SetInput(sampleRows()[:1])
	if err := d.Create(ctx); err != nil {
		t.Fatalf("create events: %v", err)
	}
	other.SetInput(sampleRows()[1:2])
	if err := other.Create(ctx); err != nil {
		t.Fatalf("create metrics: %v", err)
	}

	if err := d.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	rows := d.Output()
	if len(rows) != 2 {
		t.Fatalf("list returned %d objects, want 2", len(rows))
	}
	// Keys come back sorted.
	if rows[0]["key"] != "data/events.jsonl" || rows[1]["key"] != "data/metrics.jsonl" {
		t.Errorf("listing = %v", rows)
	}
}

func TestObject_Unit_WatermarkDoesNotRegress(t *testing.T) {
	ctx := context.Background()
	d := makeLocalDataset(t, resource.Settings{"checkpointColumn": "score"})

	d.SetInput(sampleRows())
	if err := d.Create(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := d.Read(ctx); err != nil {
		t.Fatalf("full read: %v", err)
	}
	advanced := d.Checkpoint()
	if advanced.IsZero() {
		t.Fatal("read did not advance the watermark")
	}

	// An incremental read that finds nothing new keeps the watermark.
	if err := d.Read(ctx); err != nil {
		t.Fatalf("incremental read: %v", err)
	}
	if got := len(d.Output()); got != 0 {
		t.Errorf("incremental read returned %d rows, want 0", got)
	}
	if !reflect.DeepEqual(d.Checkpoint(), advanced) {
		t.Errorf("watermark moved from %v to %v", advanced, d.Checkpoint())
	}
}

func TestObject_Unit_JSONLTypeDrift(t *testing.T) {
	ctx := context.Background()
	d := makeLocalDataset(t, nil)

	d.SetInput([]resource.Row{{"id": 7, "label": "seven", "score": 2.25}})
	if err := d.Create(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := d.Read(ctx); err != nil {
		t.Fatalf("read: %v", err)
	}
	rows := d.Output()
	if len(rows) != 1 {
		t.Fatalf("read returned %d rows", len(rows))
	}
	// JSON decoding renders every number as float64.
	if got, ok := rows[0]["id"].(float64); !ok || got != 7 {
		t.Errorf("id = %#v, want float64(7)", rows[0]["id"])
	}
	if got, ok := rows[0]["score"].(float64); !ok || got != 2.25 {
		t.Errorf("score = %#v, want float64(2.25)", rows[0]["score"])
	}
	if rows[0]["label"] != "seven" {
		t.Errorf("label = %#v", rows[0]["label"])
	}
}

func TestObject_Unit_RegistryFactories(t *testing.T) {
	svc, err := resource.NewLinkedService(object.Kind, "", resource.Settings{
		"name":     "reg",
		"rootPath": t.TempDir(),
		"bucket":   "contract",
	})
	if err != nil {
		t.Fatalf("registry service: %v", err)
	}
	if err := svc.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer svc.Close()

	d, err := resource.NewDataset(object.Kind, object.Version, svc, resource.Settings{"name": "events"})
	if err != nil {
		t.Fatalf("registry dataset: %v", err)
	}
	if d.Info().Kind != object.Kind {
		t.Errorf("dataset kind = %q, want %q", d.Info().Kind, object.Kind)
	}
}

// --- helpers ---

func skipIfNoMinio(t *testing.T) string {
	t.Helper()
	endpoint := os.Getenv("RESOURCE_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("RESOURCE_MINIO_ENDPOINT not set; skipping MinIO integration test")
	}
	return endpoint
}

func newLocalService(t *testing.T) *object.LinkedService {
	t.Helper()
	svc, err := object.NewLinkedService(resource.Settings{
		"name":     "objtest",
		"rootPath": t.TempDir(),
		"bucket":   "contract",
		"prefix":   "data",
	})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if err := svc.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func makeLocalDataset(t *testing.T, extra resource.Settings) resource.Dataset {
	t.Helper()
	return datasetAt(t, t.TempDir(), extra)
}

func datasetAt(t *testing.T, root string, extra resource.Settings) resource.Dataset {
	t.Helper()
	svc, err := object.NewLinkedService(resource.Settings{
		"name":     "objtest",
		"rootPath": root,
		"bucket":   "contract",
		"prefix":   "data",
	})
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
	d, err := object.NewDataset(svc, settings)
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
