// Package reconciler implements a read-only drift detector over the
// metadata store: entries/manifests referencing a missing blob, and blobs
// referenced by nothing at all (spec.md §4.5).
package reconciler

import (
	"github.com/sremani/artifortress/internal/adapters/postgres/artifactentry"
	"github.com/sremani/artifortress/internal/adapters/postgres/auditlog"
	"github.com/sremani/artifortress/internal/adapters/postgres/blob"
	"github.com/sremani/artifortress/internal/adapters/postgres/manifest"
	"github.com/sremani/artifortress/internal/platform/mlog"
)

// UseCase aggregates the reconciler's dependencies.
type UseCase struct {
	EntryRepo    artifactentry.Repository
	ManifestRepo manifest.Repository
	BlobRepo     blob.Repository
	AuditRepo    auditlog.Repository
	Logger       mlog.Logger
}

// Bucket is one drift category's sample + total count.
type Bucket struct {
	SampleIDs []string
	Total     int
}

// Report is the reconciler's full output.
type Report struct {
	MissingArtifactBlobRefs Bucket
	MissingManifestBlobRefs Bucket
	OrphanBlobs             Bucket
}

func (r *Report) clean() bool {
	return r.MissingArtifactBlobRefs.Total == 0 && r.MissingManifestBlobRefs.Total == 0 && r.OrphanBlobs.Total == 0
}
