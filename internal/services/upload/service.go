// Package upload implements the Upload Session Manager: the state machine
// that accepts, tracks, verifies, and commits or aborts content uploads,
// guaranteeing that a committed session produces exactly one Blob row
// whose digest and length match the caller's expectations (spec.md §4.1).
package upload

import (
	"time"

	"github.com/sremani/artifortress/internal/adapters/objectstore"
	"github.com/sremani/artifortress/internal/adapters/postgres/auditlog"
	"github.com/sremani/artifortress/internal/adapters/postgres/blob"
	"github.com/sremani/artifortress/internal/adapters/postgres/outbox"
	"github.com/sremani/artifortress/internal/adapters/postgres/uploadsession"
	"github.com/sremani/artifortress/internal/adapters/redis"
	"github.com/sremani/artifortress/internal/platform/mlog"
	"github.com/sremani/artifortress/internal/platform/mpostgres"
)

// UseCase aggregates the Upload Session Manager's dependencies.
type UseCase struct {
	SessionRepo   uploadsession.Repository
	BlobRepo      blob.Repository
	OutboxRepo    outbox.Repository
	AuditRepo     auditlog.Repository
	ObjectBackend objectstore.Backend
	DedupeCache   redis.Cache
	Connection    *mpostgres.Connection
	Logger        mlog.Logger

	// PresignTTL bounds how long a part-upload URL remains valid.
	PresignTTL time.Duration
	// SessionTTL is how far past creation a session's expires_at is set,
	// absent a caller-supplied override.
	SessionTTL time.Duration
}
