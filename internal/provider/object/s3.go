package object

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/nucleus/resource-core/internal/resource"
)

// S3Client implements ObjectStore through the minio-go SDK for real
// MinIO/S3 endpoints.
type S3Client struct {
	client *minio.Client
	region string
}

// NewS3Client builds a MinIO/S3 client from config. The endpoint URL and
// static credentials are required; the connection itself is lazy.
func NewS3Client(cfg *Config) (*S3Client, error) {
	if cfg.EndpointURL == "" {
		return nil, resource.New(resource.KindConnection, "object endpoint URL is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, resource.New(resource.KindAuthentication, "object store credentials are required")
	}

	u, err := url.Parse(cfg.EndpointURL)
	if err != nil {
		return nil, resource.Wrap(resource.KindConnection, err, "invalid object endpoint URL")
	}
	endpoint := u.Host
	if endpoint == "" {
		endpoint = cfg.EndpointURL
	}
	useSSL := cfg.UseSSL || u.Scheme == "https"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:    useSSL,
		Region:    cfg.Region,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, resource.Wrap(resource.KindConnection, err, "create object client")
	}
	return &S3Client{client: client, region: cfg.Region}, nil
}

func (s *S3Client) Ping(ctx context.Context) error {
	if _, err := s.client.ListBuckets(ctx); err != nil {
		return classifyS3(err)
	}
	return nil
}

func (s *S3Client) EnsureBucket(ctx context.Context, bucket string) error {
	if bucket == "" {
		return resource.New(resource.KindValidation, "bucket name is required")
	}
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return classifyS3(err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return classifyS3(err)
	}
	return nil
}

func (s *S3Client) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	if bucket == "" || key == "" {
		return resource.New(resource.KindValidation, "bucket and key are required")
	}
	reader := bytes.NewReader(data)
	_, err := s.client.PutObject(ctx, bucket, key, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return classifyS3(err)
	}
	return nil
}

func (s *S3Client) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if bucket == "" || key == "" {
		return nil, resource.New(resource.KindValidation, "bucket and key are required")
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyS3(err)
	}
	defer obj.Close()

	// GetObject defers the request; read errors surface here.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classifyS3(err)
	}
	return data, nil
}

func (s *S3Client) ObjectExists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if resource.IsNotFound(classifyS3(err)) {
			return false, nil
		}
		return false, classifyS3(err)
	}
	return true, nil
}

func (s *S3Client) RemoveObject(ctx context.Context, bucket, key string) error {
	if bucket == "" || key == "" {
		return resource.New(resource.KindValidation, "bucket and key are required")
	}
	// S3 deletes are idempotent: removing an absent key succeeds.
	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return classifyS3(err)
	}
	return nil
}

func (s *S3Client) ListPrefix(ctx context.Context, bucket, prefix string) ([]string, error) {
	if bucket == "" {
		return nil, resource.New(resource.KindValidation, "bucket name is required")
	}
	var keys []string
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, classifyS3(obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// classifyS3 maps minio-go errors onto the contract taxonomy: the coded
// ErrorResponse cases first, then a message-text fallback. Unrecognized
// errors pass through raw for the caller to wrap.
func classifyS3(err error) error {
	if err == nil {
		return nil
	}

	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchBucket", "NoSuchKey":
			return resource.Wrap(resource.KindNotFound, err, "object not found")
		case "AccessDenied":
			return resource.Wrap(resource.KindPermission, err, "access denied")
		case "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return resource.Wrap(resource.KindAuthentication, err, "credentials rejected")
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such bucket"),
		strings.Contains(msg, "no such key"),
		strings.Contains(msg, "does not exist"):
		return resource.Wrap(resource.KindNotFound, err, "object not found")
	case strings.Contains(msg, "access denied"):
		return resource.Wrap(resource.KindPermission, err, "access denied")
	case strings.Contains(msg, "invalid access key"),
		strings.Contains(msg, "signature"):
		return resource.Wrap(resource.KindAuthentication, err, "credentials rejected")
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadline"):
		return resource.Wrap(resource.KindConnection, err, "object endpoint unreachable")
	}
	return err
}
