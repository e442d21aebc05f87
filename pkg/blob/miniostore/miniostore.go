// Package miniostore implements blob.Store for MinIO and S3-compatible
// object storage.
package miniostore

import (
	"context"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/papercomputeco/lens/pkg/blob"
)

// Config holds configuration for the MinIO blob store.
type Config struct {
	// Endpoint is the S3-compatible endpoint, e.g. "localhost:9000".
	Endpoint string

	// AccessKey and SecretKey authenticate against the endpoint.
	AccessKey string
	SecretKey string

	// UseSSL enables TLS for the endpoint.
	UseSSL bool

	// Bucket is the bucket objects are stored in.
	Bucket string

	// Prefix is prepended to every key (e.g. "uploads/").
	Prefix string
}

// Store implements blob.Store over the MinIO client.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewStore creates a MinIO-backed blob store and ensures the bucket exists.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}

	return &Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Put writes an object.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(key), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// Open opens an object for reading.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}

	// GetObject is lazy; Stat forces the first request so a missing key
	// surfaces here instead of on first Read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, mapErr(err)
	}
	return obj, nil
}

// Stat returns object metadata.
func (s *Store) Stat(ctx context.Context, key string) (blob.ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, s.bucket, s.key(key), minio.StatObjectOptions{})
	if err != nil {
		return blob.ObjectInfo{}, mapErr(err)
	}
	return blob.ObjectInfo{
		Key:         key,
		Size:        info.Size,
		ContentType: info.ContentType,
	}, nil
}

// Delete removes an object.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, s.key(key), minio.RemoveObjectOptions{})
}

// PresignedURL mints a time-limited download URL.
func (s *Store) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, s.key(key), expiry, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func mapErr(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NotFound" {
		return blob.ErrNotFound
	}
	return err
}
