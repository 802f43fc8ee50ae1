// Package search implements the worker sweep that turns a claimed
// SearchIndexJob into a projected domain.SearchDocument, joining the
// published version with its repo, package, and manifest coordinates
// (spec.md §4.4).
package search

import (
	"github.com/sremani/artifortress/internal/adapters/mongodb/searchdocument"
	"github.com/sremani/artifortress/internal/adapters/postgres/manifest"
	"github.com/sremani/artifortress/internal/adapters/postgres/pkgmeta"
	"github.com/sremani/artifortress/internal/adapters/postgres/repository"
	"github.com/sremani/artifortress/internal/adapters/postgres/searchjob"
	"github.com/sremani/artifortress/internal/adapters/postgres/version"
	"github.com/sremani/artifortress/internal/platform/mlog"
)

// UseCase aggregates the search worker's dependencies.
type UseCase struct {
	JobRepo      searchjob.Repository
	VersionRepo  version.Repository
	RepoStore    repository.Store
	PackageRepo  pkgmeta.Repository
	ManifestRepo manifest.Repository
	DocumentRepo searchdocument.Repository
	Logger       mlog.Logger

	// BatchSize bounds how many jobs one sweep claims.
	BatchSize int
	// MaxAttempts excludes a job from claiming once reached, per spec.md
	// §9's dead-letter-by-omission policy.
	MaxAttempts int
}

// SweepResult tallies one sweep's outcomes for the caller to log/report.
type SweepResult struct {
	Claimed   int
	Completed int
	Failed    int
}

func (uc *UseCase) batchSize() int {
	if uc.BatchSize > 0 {
		return uc.BatchSize
	}

	return 100
}

func (uc *UseCase) maxAttempts() int {
	if uc.MaxAttempts > 0 {
		return uc.MaxAttempts
	}

	return 10
}
