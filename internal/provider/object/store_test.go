package object

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"

	"github.com/nucleus/resource-core/internal/resource"
)

// =============================================================================
// LOCAL STORE
// =============================================================================

func TestObject_Unit_LocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(t.TempDir())

	if err := s.EnsureBucket(ctx, "b"); err != nil {
		t.Fatalf("ensure bucket: %v", err)
	}
	if err := s.PutObject(ctx, "b", "data/events.jsonl", []byte("x")); err != nil {
		t.Fatalf("put: %v", err)
	}

	data, err := s.GetObject(ctx, "b", "data/events.jsonl")
	if err != nil || string(data) != "x" {
		t.Fatalf("get = %q, %v", data, err)
	}
	exists, err := s.ObjectExists(ctx, "b", "data/events.jsonl")
	if err != nil || !exists {
		t.Fatalf("exists = %v, %v", exists, err)
	}
	keys, err := s.ListPrefix(ctx, "b", "data/")
	if err != nil || len(keys) != 1 || keys[0] != "data/events.jsonl" {
		t.Fatalf("list = %v, %v", keys, err)
	}

	if err := s.RemoveObject(ctx, "b", "data/events.jsonl"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	// Removing an absent object is a success, matching S3.
	if err := s.RemoveObject(ctx, "b", "data/events.jsonl"); err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if _, err := s.GetObject(ctx, "b", "data/events.jsonl"); !resource.IsNotFound(err) {
		t.Errorf("get after remove = %v, want not-found", err)
	}
	if exists, _ := s.ObjectExists(ctx, "b", "data/events.jsonl"); exists {
		t.Error("removed object still exists")
	}
}

func TestObject_Unit_LocalStoreListSkipsTempFiles(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(t.TempDir())

	if err := s.PutObject(ctx, "b", "a.jsonl", []byte("x")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := os.WriteFile(s.objectPath("b", "a.jsonl.tmp"), []byte("partial"), 0o644); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	keys, err := s.ListPrefix(ctx, "b", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 1 || keys[0] != "a.jsonl" {
		t.Errorf("list = %v, want only a.jsonl", keys)
	}
}

func TestObject_Unit_JoinKey(t *testing.T) {
	cases := []struct {
		parts []string
		want  string
	}{
		{[]string{"data", "events"}, "data/events"},
		{[]string{"", "events"}, "events"},
		{[]string{"/p/", "n"}, "p/n"},
		{[]string{"a", "", "c"}, "a/c"},
	}
	for _, tc := range cases {
		if got := joinKey(tc.parts...); got != tc.want {
			t.Errorf("joinKey(%v) = %q, want %q", tc.parts, got, tc.want)
		}
	}
}

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

func TestObject_Unit_ClassifyFS(t *testing.T) {
	if err := classifyFS(os.ErrNotExist); !resource.IsNotFound(err) {
		t.Errorf("not-exist classified as %v", err)
	}
	if err := classifyFS(os.ErrPermission); !resource.IsKind(err, resource.KindPermission) {
		t.Errorf("permission classified as %v", err)
	}
	plain := errors.New("disk on fire")
	if err := classifyFS(plain); err != plain {
		t.Errorf("unclassifiable error rewritten: %v", err)
	}
}

func TestObject_Unit_ClassifyS3(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind resource.Kind
	}{
		{"no bucket", minio.ErrorResponse{Code: "NoSuchBucket", Message: "bucket missing"}, resource.KindNotFound},
		{"no key", minio.ErrorResponse{Code: "NoSuchKey", Message: "key missing"}, resource.KindNotFound},
		{"denied", minio.ErrorResponse{Code: "AccessDenied", Message: "nope"}, resource.KindPermission},
		{"bad key id", minio.ErrorResponse{Code: "InvalidAccessKeyId", Message: "who"}, resource.KindAuthentication},
		{"bad signature", minio.ErrorResponse{Code: "SignatureDoesNotMatch", Message: "no"}, resource.KindAuthentication},
		{"refused", errors.New("dial tcp 127.0.0.1:9000: connection refused"), resource.KindConnection},
		{"no host", errors.New("dial tcp: lookup minio: no such host"), resource.KindConnection},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := classifyS3(tc.err); !resource.IsKind(err, tc.kind) {
				t.Errorf("classified as %v, want kind %v", err, tc.kind)
			}
		})
	}

	plain := errors.New("xml parse failure")
	if err := classifyS3(plain); err != plain {
		t.Errorf("unclassifiable error rewritten: %v", err)
	}
}
