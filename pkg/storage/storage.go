package storage

import (
	"context"
	"io"
	"time"
)

// PutOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes when known; -1 lets the backend
// buffer and chunk.
type PutOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// ObjectStorage is an S3-compatible client for proof documents. All methods
// use streaming I/O; nothing touches local disk.
type ObjectStorage interface {
	// Exists probes whether an object is already stored under the key.
	Exists(ctx context.Context, key string) (bool, error)
	// Put uploads an object under the given key.
	Put(ctx context.Context, key string, r io.Reader, opt PutOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited download URL for the object.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
