// Package catalog implements the package/version surface sitting in front
// of the Publish Engine: draft version creation, artifact entry
// registration, manifest read/write, and quarantine-aware blob download
// resolution (spec.md §6's non-upload, non-publish HTTP routes).
package catalog

import (
	"github.com/sremani/artifortress/internal/adapters/objectstore"
	"github.com/sremani/artifortress/internal/adapters/postgres/artifactentry"
	"github.com/sremani/artifortress/internal/adapters/postgres/auditlog"
	"github.com/sremani/artifortress/internal/adapters/postgres/blob"
	"github.com/sremani/artifortress/internal/adapters/postgres/manifest"
	"github.com/sremani/artifortress/internal/adapters/postgres/pkgmeta"
	"github.com/sremani/artifortress/internal/adapters/postgres/quarantine"
	"github.com/sremani/artifortress/internal/adapters/postgres/repository"
	"github.com/sremani/artifortress/internal/adapters/postgres/tenant"
	"github.com/sremani/artifortress/internal/adapters/postgres/version"
	"github.com/sremani/artifortress/internal/platform/mlog"
	"github.com/sremani/artifortress/internal/platform/mpostgres"
)

// UseCase aggregates the catalog surface's dependencies.
type UseCase struct {
	TenantRepo     tenant.Repository
	RepoStore      repository.Store
	PackageRepo    pkgmeta.Repository
	VersionRepo    version.Repository
	EntryRepo      artifactentry.Repository
	ManifestRepo   manifest.Repository
	BlobRepo       blob.Repository
	QuarantineRepo quarantine.Repository
	ObjectBackend  objectstore.Backend
	AuditRepo      auditlog.Repository
	Connection     *mpostgres.Connection
	Logger         mlog.Logger
}
