// Package minio provides a MinIO implementation of artifact.Store.
//
// Usage:
//
//	store, err := minio.New(ctx, &artifact.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	    Bucket:    "schemalens",
//	})
package minio

import (
	"bytes"
	"context"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/schemalens/schemalens/internal/artifact"
	"github.com/schemalens/schemalens/internal/errs"
)

// Driver is a MinIO implementation of artifact.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client *miniogo.Client
	bucket string
}

// New connects to MinIO using the provided Config and returns a Driver. The
// configured bucket is created when it does not exist yet.
func New(ctx context.Context, cfg *artifact.Config) (*Driver, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create minio client", err)
	}

	d := &Driver{client: client, bucket: cfg.Bucket}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, mapError(err, "failed to check bucket")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, miniogo.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, mapError(err, "failed to create bucket")
		}
	}
	return d, nil
}

// Put uploads one artifact to the configured bucket.
func (d *Driver) Put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := d.client.PutObject(ctx, d.bucket, key, bytes.NewReader(data), int64(len(data)),
		miniogo.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return mapError(err, "failed to put object")
	}
	return nil
}
