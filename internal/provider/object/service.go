// Package object implements the contract against object storage. A
// dataset is one canonical object under the service bucket and prefix,
// encoded by a pluggable codec; writes replace the object whole, so a
// batch lands atomically or not at all. MinIO/S3 endpoints go through
// minio-go; an empty or file:// endpoint selects a local on-disk store
// with the same semantics.
package object

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/nucleus/resource-core/internal/resource"
)

const defaultBucket = "resources"

// Config captures the object service configuration.
type Config struct {
	EndpointURL     string
	Region          string
	UseSSL          bool
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Prefix          string
	RootPath        string

	// Transport overrides the S3 client's HTTP transport. Tests hand in
	// a fake here.
	Transport http.RoundTripper
}

// ParseConfig extracts the object store configuration from settings.
func ParseConfig(settings resource.Settings) *Config {
	cfg := &Config{
		EndpointURL:     settings.String("endpointUrl", "endpoint_url", "endpoint", "url"),
		Region:          settings.String("region"),
		UseSSL:          settings.Bool(false, "useSSL", "use_ssl", "secure"),
		AccessKeyID:     settings.String("accessKeyId", "access_key_id", "accessKey"),
		SecretAccessKey: settings.String("secretAccessKey", "secret_access_key", "secretKey"),
		Bucket:          settings.String("bucket"),
		Prefix:          settings.String("prefix", "basePrefix", "base_prefix"),
		RootPath:        settings.String("rootPath", "root_path"),
	}
	if rt, ok := settings["transport"].(http.RoundTripper); ok {
		cfg.Transport = rt
	}
	if cfg.Bucket == "" {
		cfg.Bucket = defaultBucket
	}
	cfg.Prefix = strings.Trim(cfg.Prefix, "/")
	return cfg
}

// Local reports whether the config selects the on-disk store: no
// endpoint at all, or a file:// one.
func (c *Config) Local() bool {
	return c.EndpointURL == "" || strings.HasPrefix(c.EndpointURL, "file://")
}

// localRoot resolves the directory backing a local store.
func (c *Config) localRoot() string {
	if c.RootPath != "" {
		return c.RootPath
	}
	if strings.HasPrefix(c.EndpointURL, "file://") {
		if u, err := url.Parse(c.EndpointURL); err == nil && u.Path != "" {
			return u.Path
		}
	}
	return filepath.Join(os.TempDir(), "object-"+sanitizeSegment(c.Bucket))
}

// LinkedService binds the contract surface to one bucket of an object
// store. The ObjectStore client lives on the connection handle.
type LinkedService struct {
	*resource.ServiceBase

	cfg *Config
}

// NewLinkedService builds an object linked service from settings. No
// connection is made until Connect.
func NewLinkedService(settings resource.Settings) (*LinkedService, error) {
	cfg := ParseConfig(settings)

	name := settings.String(resource.SettingName, "title")
	if name == "" {
		name = cfg.Bucket
	}
	info := resource.NewInfo(Kind, Version, name)
	if cfg.Local() {
		info.Description = "local object store"
	} else {
		info.Description = "s3 object store"
	}

	svc := &LinkedService{cfg: cfg}
	svc.ServiceBase = resource.NewServiceBase(info, settings, &connector{cfg: cfg})
	return svc, nil
}

// Store returns the connected object store client.
func (s *LinkedService) Store() (ObjectStore, error) {
	h, err := s.Connection()
	if err != nil {
		return nil, err
	}
	store, ok := h.(ObjectStore)
	if !ok {
		return nil, resource.New(resource.KindServiceMismatch, "connection handle is not an object store")
	}
	return store, nil
}

// Bucket returns the configured bucket name.
func (s *LinkedService) Bucket() string { return s.cfg.Bucket }

// Prefix returns the configured key prefix, without surrounding slashes.
func (s *LinkedService) Prefix() string { return s.cfg.Prefix }

type connector struct {
	cfg *Config
}

func (c *connector) Open(ctx context.Context) (any, error) {
	var store ObjectStore
	if c.cfg.Local() {
		store = NewLocalStore(c.cfg.localRoot())
	} else {
		s3, err := NewS3Client(c.cfg)
		if err != nil {
			return nil, err
		}
		store = s3
	}
	if err := store.EnsureBucket(ctx, c.cfg.Bucket); err != nil {
		return nil, err
	}
	return store, nil
}

func (c *connector) Ping(ctx context.Context, handle any) error {
	store, ok := handle.(ObjectStore)
	if !ok {
		return resource.New(resource.KindServiceMismatch, "connection handle is not an object store")
	}
	return store.Ping(ctx)
}

func (c *connector) Shutdown(handle any) error { return nil }
