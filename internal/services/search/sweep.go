package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
	"github.com/sremani/artifortress/internal/platform/retry"
)

// errVersionNotPublished is the Fail reason spec.md §4.4 names for a
// missing or not-yet-published source version.
var errVersionNotPublished = errors.New("version_not_published")

// Sweep claims one batch of due jobs and projects each into a
// SearchDocument, per spec.md §4.4's join-then-upsert algorithm.
func (uc *UseCase) Sweep(ctx context.Context) (*SweepResult, error) {
	tracer := mtelemetry.Tracer("service.search")
	ctx, span := tracer.Start(ctx, "service.search.sweep")
	defer span.End()

	now := time.Now().UTC()

	claimed, err := uc.JobRepo.ClaimBatch(ctx, now, uc.maxAttempts(), uc.batchSize())
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to claim search job batch", err)
		return nil, err
	}

	result := &SweepResult{Claimed: len(claimed)}

	for _, job := range claimed {
		if err := uc.processOne(ctx, job); err != nil {
			uc.Logger.Warnf("search job %s failed: %v", job.JobID, err)

			if failErr := uc.fail(ctx, job, err.Error()); failErr != nil {
				mtelemetry.HandleSpanError(&span, "failed to record search job failure", failErr)
				return result, failErr
			}

			result.Failed++

			continue
		}

		result.Completed++
	}

	return result, nil
}

// processOne reads the published version and its repo/package/manifest
// coordinates, builds search_text, and upserts the SearchDocument.
func (uc *UseCase) processOne(ctx context.Context, job *domain.SearchIndexJob) error {
	v, err := uc.VersionRepo.Find(ctx, job.TenantID, job.VersionID)
	if err != nil || v.State != domain.VersionStatePublished {
		return errVersionNotPublished
	}

	repo, err := uc.RepoStore.Find(ctx, job.TenantID, v.RepoID)
	if err != nil {
		return err
	}

	pkg, err := uc.PackageRepo.Find(ctx, v.PackageID)
	if err != nil {
		return err
	}

	var manifestJSON *string

	m, err := uc.ManifestRepo.Find(ctx, v.ID)
	if err == nil {
		manifestJSON = &m.ManifestJSON
	} else if !apperrors.IsNotFound(err) {
		return err
	}

	now := time.Now().UTC()

	doc := &domain.SearchDocument{
		TenantID:     job.TenantID,
		VersionID:    v.ID,
		RepoKey:      repo.RepoKey,
		PackageType:  pkg.PackageType,
		Namespace:    pkg.Namespace,
		Name:         pkg.Name,
		Version:      v.Version,
		ManifestJSON: manifestJSON,
		PublishedAt:  derefTime(v.PublishedAt, now),
		SearchText:   buildSearchText(repo.RepoKey, pkg.PackageType, pkg.NamespaceOrEmpty(), pkg.Name, v.Version, manifestJSON),
		IndexedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.DocumentRepo.Upsert(ctx, job.TenantID, doc); err != nil {
		return err
	}

	return uc.JobRepo.MarkCompleted(ctx, job.JobID, now)
}

// fail records a claimed job's failure and reschedules it per the
// deterministic backoff in retry.SearchWorkerBackoff (spec.md §9).
func (uc *UseCase) fail(ctx context.Context, job *domain.SearchIndexJob, reason string) error {
	attempts := job.Attempts + 1
	availableAt := time.Now().UTC().Add(retry.SearchWorkerBackoff(attempts))

	return uc.JobRepo.MarkFailed(ctx, job.JobID, availableAt, reason)
}

// buildSearchText concatenates the fields named in spec.md §4.4, trimmed
// and blank-skipped, space-separated.
func buildSearchText(repoKey, packageType, namespace, name, version string, manifestJSON *string) string {
	parts := []string{repoKey, packageType, namespace, name, version}
	if manifestJSON != nil {
		parts = append(parts, *manifestJSON)
	}

	var nonBlank []string

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			nonBlank = append(nonBlank, p)
		}
	}

	return strings.Join(nonBlank, " ")
}

func derefTime(t *time.Time, fallback time.Time) time.Time {
	if t == nil {
		return fallback
	}

	return *t
}
