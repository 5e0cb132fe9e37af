// Package artifact defines where analysis outputs (DBML documents, candidate
// and verification reports, run summaries) are persisted.
//
// All backends implement the Store interface. Callers depend only on this
// package, never on a specific provider package.
//
// Usage:
//
//	store := artifact.NewDir("./output")
//	err := store.Put(ctx, "schema.dbml", "text/plain", dbmlBytes)
package artifact

import "context"

// Store is the single interface all artifact backends implement.
type Store interface {
	// Put writes one artifact under key, overwriting any previous content.
	Put(ctx context.Context, key, contentType string, data []byte) error
}

// Config holds the settings for an object-storage backed Store.
type Config struct {
	// Endpoint is the host:port of the storage server.
	// Example: "localhost:9000" for local MinIO.
	Endpoint string

	// AccessKey is the access key ID (MinIO / S3 style).
	AccessKey string

	// SecretKey is the secret access key.
	SecretKey string

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool

	// Region is used by region-aware backends. Leave empty for MinIO.
	Region string

	// Bucket is where artifacts are written. It must already exist or the
	// backend must be allowed to create it.
	Bucket string
}
