// Package objectstore defines the Object Backend contract (spec.md §2) and
// its aws-sdk-go-v2 S3 implementation. Bytes are never mutated once
// committed: every write path here is a multipart upload against a staging
// key, PromoteToBlobKey's copy to the blob key plus deletion of the staging
// object, or a DeleteObject (GC sweep, or staging cleanup after a failed
// commit verification).
package objectstore

import (
	"context"
	"time"
)

// CompletedPart identifies one successfully-uploaded part, returned by the
// client after PUTting to a presigned URL and echoed back on Complete.
type CompletedPart struct {
	PartNumber int32
	ETag       string
}

// Backend is the Object Backend seam the Upload Session Manager and GC
// engine depend on. Every method is blocking I/O (spec.md §7).
//
//go:generate mockgen --destination=objectstore.mock.go --package=objectstore . Backend
type Backend interface {
	// BeginMultipart allocates a staging key under repoID and opens a
	// multipart upload against it, returning the backend's upload ID for
	// persistence on the UploadSession row.
	BeginMultipart(ctx context.Context, tenantID, repoID string) (stagingKey, storageUploadID string, err error)
	// PresignUploadPart returns a short-TTL URL the client PUTs part bytes
	// to directly, keeping large payloads off this process (spec.md §4.1).
	PresignUploadPart(ctx context.Context, stagingKey, storageUploadID string, partNumber int32, ttl time.Duration) (string, error)
	// CompleteMultipart finalizes the upload from parts and returns the
	// object's ETag.
	CompleteMultipart(ctx context.Context, stagingKey, storageUploadID string, parts []CompletedPart) (etag string, err error)
	// AbortMultipart releases any uploaded parts. Best-effort: callers log
	// and proceed past a failure here rather than blocking the state
	// transition on it (spec.md §4.1's abort/expiry rows).
	AbortMultipart(ctx context.Context, stagingKey, storageUploadID string) error
	// PromoteToBlobKey copies the staging object to its permanent
	// content-addressed key once the digest has been verified, then
	// deletes the staging object.
	PromoteToBlobKey(ctx context.Context, stagingKey, digest string) (blobKey string, err error)
	// GetObject opens the object at key for reading (download / commit-time
	// digest verification).
	GetObject(ctx context.Context, key string) (ObjectReader, error)
	// GetObjectRange opens key for reading starting at byte start through
	// byte end inclusive, issuing a true ranged GET rather than reading and
	// discarding leading bytes from a full-object stream (spec.md §6's
	// byte-range download).
	GetObjectRange(ctx context.Context, key string, start, end int64) (ObjectReader, error)
	// DeleteObject removes the object at key. Used by the GC engine's
	// execute-mode sweep, before the corresponding blobs row is deleted, and
	// by commit's best-effort staging cleanup after a verification failure.
	DeleteObject(ctx context.Context, key string) error
	// CheckAvailability performs a cheap existence probe for key. No caller
	// in this module uses it; the reconciler checks only metadata rows.
	CheckAvailability(ctx context.Context, key string) (bool, error)
}

// ObjectReader is a closable byte stream plus its length, enough for both
// full reads and range requests; a range request opens its own reader via
// GetObjectRange rather than seeking.
type ObjectReader interface {
	Read(p []byte) (int, error)
	Close() error
	ContentLength() int64
}
