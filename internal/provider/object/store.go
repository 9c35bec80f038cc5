package object

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nucleus/resource-core/internal/resource"
)

// ObjectStore is the minimal object-storage surface the provider needs:
// whole-object puts and gets, existence probes, removal, and prefix
// listing. S3Client talks to real MinIO/S3; LocalStore keeps the same
// semantics on disk so the contract runs without a server.
type ObjectStore interface {
	Ping(ctx context.Context) error
	EnsureBucket(ctx context.Context, bucket string) error
	PutObject(ctx context.Context, bucket, key string, data []byte) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	ObjectExists(ctx context.Context, bucket, key string) (bool, error)
	RemoveObject(ctx context.Context, bucket, key string) error
	ListPrefix(ctx context.Context, bucket, prefix string) ([]string, error)
}

// LocalStore persists objects under a root directory, one file per key.
// Buckets are directories; keys may contain slashes.
type LocalStore struct {
	root string
}

// NewLocalStore creates a local object store rooted at dir.
func NewLocalStore(root string) *LocalStore {
	if root == "" {
		root = filepath.Join(os.TempDir(), "object-store")
	}
	_ = os.MkdirAll(root, 0o755)
	return &LocalStore{root: root}
}

// Root returns the directory the store writes under.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return resource.Wrap(resource.KindConnection, err, "object root unavailable")
	}
	return nil
}

func (s *LocalStore) EnsureBucket(ctx context.Context, bucket string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if bucket == "" {
		return resource.New(resource.KindValidation, "bucket name is required")
	}
	if err := os.MkdirAll(s.bucketPath(bucket), 0o755); err != nil {
		return classifyFS(err)
	}
	return nil
}

func (s *LocalStore) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if bucket == "" || key == "" {
		return resource.New(resource.KindValidation, "bucket and key are required")
	}
	fullPath := s.objectPath(bucket, key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return classifyFS(err)
	}
	// Write-then-rename keeps the put atomic: readers see the old object
	// or the new one, never a partial write.
	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return classifyFS(err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		_ = os.Remove(tmp)
		return classifyFS(err)
	}
	return nil
}

func (s *LocalStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if bucket == "" || key == "" {
		return nil, resource.New(resource.KindValidation, "bucket and key are required")
	}
	data, err := os.ReadFile(s.objectPath(bucket, key))
	if err != nil {
		return nil, classifyFS(err)
	}
	return data, nil
}

func (s *LocalStore) ObjectExists(ctx context.Context, bucket, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Stat(s.objectPath(bucket, key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, classifyFS(err)
	}
	return !info.IsDir(), nil
}

// RemoveObject deletes an object. Removing an absent object succeeds,
// matching S3 delete semantics.
func (s *LocalStore) RemoveObject(ctx context.Context, bucket, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.objectPath(bucket, key)); err != nil && !os.IsNotExist(err) {
		return classifyFS(err)
	}
	return nil
}

func (s *LocalStore) ListPrefix(ctx context.Context, bucket, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if bucket == "" {
		return nil, resource.New(resource.KindValidation, "bucket name is required")
	}
	bucketRoot := s.bucketPath(bucket)
	root := bucketRoot
	if prefix != "" {
		root = filepath.Join(bucketRoot, filepath.FromSlash(prefix))
	}

	var keys []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(path, ".tmp") {
			return nil
		}
		rel, relErr := filepath.Rel(bucketRoot, path)
		if relErr != nil {
			return relErr
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, classifyFS(err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *LocalStore) bucketPath(bucket string) string {
	return filepath.Join(s.root, sanitizeSegment(bucket))
}

func (s *LocalStore) objectPath(bucket, key string) string {
	return filepath.Join(s.bucketPath(bucket), filepath.FromSlash(key))
}

// classifyFS maps filesystem errors onto the contract taxonomy. Errors
// with no clear mapping pass through raw for the caller to wrap.
func classifyFS(err error) error {
	switch {
	case err == nil:
		return nil
	case os.IsNotExist(err):
		return resource.Wrap(resource.KindNotFound, err, "object not found")
	case os.IsPermission(err):
		return resource.Wrap(resource.KindPermission, err, "permission denied")
	default:
		return err
	}
}

func sanitizeSegment(raw string) string {
	replacer := strings.NewReplacer(":", "_", "/", "_", "\\", "_")
	return replacer.Replace(raw)
}

// joinKey joins key segments with slashes, dropping empty parts.
func joinKey(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}
