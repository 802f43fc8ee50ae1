// Package lifecycle implements tombstone creation and the mark-and-sweep
// garbage collector that eventually reclaims a tombstoned version's blobs
// once their retention grace period has elapsed (spec.md §4.3).
package lifecycle

import (
	"time"

	"github.com/sremani/artifortress/internal/adapters/objectstore"
	"github.com/sremani/artifortress/internal/adapters/postgres/artifactentry"
	"github.com/sremani/artifortress/internal/adapters/postgres/auditlog"
	"github.com/sremani/artifortress/internal/adapters/postgres/blob"
	"github.com/sremani/artifortress/internal/adapters/postgres/gcrun"
	"github.com/sremani/artifortress/internal/adapters/postgres/manifest"
	"github.com/sremani/artifortress/internal/adapters/postgres/tombstone"
	"github.com/sremani/artifortress/internal/adapters/postgres/version"
	"github.com/sremani/artifortress/internal/platform/mlog"
	"github.com/sremani/artifortress/internal/platform/mpostgres"
)

// UseCase aggregates the lifecycle engine's dependencies.
type UseCase struct {
	VersionRepo   version.Repository
	TombstoneRepo tombstone.Repository
	GcRepo        gcrun.Repository
	BlobRepo      blob.Repository
	EntryRepo     artifactentry.Repository
	ManifestRepo  manifest.Repository
	ObjectBackend objectstore.Backend
	AuditRepo     auditlog.Repository
	Connection    *mpostgres.Connection
	Logger        mlog.Logger

	// MarkPageSize bounds how many rows each mark-phase page scans at a
	// time, keeping a single query bounded regardless of table size.
	MarkPageSize int
}

// GcRunSummary mirrors the counters persisted on the GcRun row.
type GcRunSummary struct {
	RunID           string
	Mode            string
	Marked          int
	CandidateBlobs  int
	DeletedBlobs    int
	DeletedVersions int
	DeleteErrors    int
	StartedAt       time.Time
	CompletedAt     *time.Time
}

func (uc *UseCase) markPageSize() int {
	if uc.MarkPageSize > 0 {
		return uc.MarkPageSize
	}

	return 500
}
