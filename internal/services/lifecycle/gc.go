package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// RunGc executes one mark-and-sweep pass for tenantID. dry_run stops after
// the mark phase and records candidate counts only; execute proceeds to
// delete expired tombstoned versions and unreachable, grace-expired blobs
// (spec.md §4.3's full algorithm).
func (uc *UseCase) RunGc(ctx context.Context, tenantID, initiatedBy string, mode domain.GcMode, retentionGraceHours, batchSize int) (*GcRunSummary, error) {
	tracer := mtelemetry.Tracer("service.lifecycle")
	ctx, span := tracer.Start(ctx, "service.lifecycle.run_gc")
	defer span.End()

	run, err := uc.GcRepo.Create(ctx, &domain.GcRun{
		RunID:               uuid.NewString(),
		TenantID:            tenantID,
		InitiatedBy:         initiatedBy,
		Mode:                mode,
		RetentionGraceHours: retentionGraceHours,
		BatchSize:           batchSize,
		StartedAt:           time.Now().UTC(),
	})
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to create gc run", err)
		return nil, err
	}

	cutoff := time.Now().UTC().Add(-time.Duration(retentionGraceHours) * time.Hour)

	marked, err := uc.markReachable(ctx, run.RunID, cutoff)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "mark phase failed", err)
		return nil, err
	}

	run.Marked = marked

	candidates, err := uc.countCandidateBlobs(ctx, run.RunID, cutoff, batchSize)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to count candidate blobs", err)
		return nil, err
	}

	run.CandidateBlobs = candidates

	if mode == domain.GcModeDryRun {
		return uc.finalize(ctx, run)
	}

	deletedVersions, err := uc.deleteCandidateVersions(ctx, tenantID, cutoff, batchSize)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "candidate version deletion failed", err)
		return nil, err
	}

	run.DeletedVersions = deletedVersions

	deletedBlobs, deleteErrors, err := uc.sweepBlobs(ctx, run.RunID, cutoff, batchSize)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "sweep phase failed", err)
		return nil, err
	}

	run.DeletedBlobs = deletedBlobs
	run.DeleteErrors = deleteErrors

	return uc.finalize(ctx, run)
}

// GetGcRun returns one GcRun's counters by id.
func (uc *UseCase) GetGcRun(ctx context.Context, tenantID, runID string) (*domain.GcRun, error) {
	tracer := mtelemetry.Tracer("service.lifecycle")
	ctx, span := tracer.Start(ctx, "service.lifecycle.get_gc_run")
	defer span.End()

	run, err := uc.GcRepo.Find(ctx, tenantID, runID)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to find gc run", err)
		return nil, err
	}

	return run, nil
}

// markReachable pages through every artifact entry and manifest digest
// still reachable as of cutoff, persisting each into GcMark(run_id,
// digest). Returns the total number of marks written.
func (uc *UseCase) markReachable(ctx context.Context, runID string, cutoff time.Time) (int, error) {
	marked := 0
	pageSize := uc.markPageSize()

	afterEntryID := ""

	for {
		digests, lastEntryID, err := uc.EntryRepo.ListBlobDigestsPage(ctx, cutoff, afterEntryID, pageSize)
		if err != nil {
			return 0, err
		}

		if err := uc.GcRepo.MarkReachableBatch(ctx, runID, digests); err != nil {
			return 0, err
		}

		marked += len(digests)

		if len(digests) < pageSize {
			break
		}

		afterEntryID = lastEntryID
	}

	afterVersionID := ""

	for {
		digests, lastVersionID, err := uc.ManifestRepo.ListBlobDigestsPage(ctx, cutoff, afterVersionID, pageSize)
		if err != nil {
			return 0, err
		}

		if err := uc.GcRepo.MarkReachableBatch(ctx, runID, digests); err != nil {
			return 0, err
		}

		marked += len(digests)

		if len(digests) < pageSize {
			break
		}

		afterVersionID = lastVersionID
	}

	return marked, nil
}

// countCandidateBlobs peeks at the sweep phase's selection without
// deleting anything, so dry-run can report a meaningful candidate count.
func (uc *UseCase) countCandidateBlobs(ctx context.Context, runID string, cutoff time.Time, batchSize int) (int, error) {
	candidates, err := uc.GcRepo.ListUnmarkedCandidates(ctx, runID, cutoff, batchSize)
	if err != nil {
		return 0, err
	}

	return len(candidates), nil
}

// deleteCandidateVersions removes tombstoned versions past their retention
// deadline, one transaction per batch so a large sweep never holds a
// single long-lived lock.
func (uc *UseCase) deleteCandidateVersions(ctx context.Context, tenantID string, cutoff time.Time, batchSize int) (int, error) {
	deleted := 0

	for {
		expired, err := uc.TombstoneRepo.ListExpired(ctx, cutoff, batchSize)
		if err != nil {
			return deleted, err
		}

		if len(expired) == 0 {
			return deleted, nil
		}

		for _, t := range expired {
			if err := uc.deleteOneVersion(ctx, tenantID, t.VersionID); err != nil {
				return deleted, err
			}

			deleted++
		}

		if len(expired) < batchSize {
			return deleted, nil
		}
	}
}

// deleteOneVersion removes the tombstone row ahead of the version row
// within the same transaction, so the tombstones.version_id foreign key
// never blocks the delete and a re-run's ListExpired scan never sees this
// version again regardless of the schema's own cascade rules.
func (uc *UseCase) deleteOneVersion(ctx context.Context, tenantID, versionID string) error {
	tx, err := uc.Connection.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := uc.TombstoneRepo.Delete(ctx, tx, tenantID, versionID); err != nil {
		return err
	}

	if err := uc.VersionRepo.Delete(ctx, tx, tenantID, versionID); err != nil {
		return err
	}

	return tx.Commit()
}

// sweepBlobs deletes blob rows (and their object-store payload) that were
// not marked reachable this run and have aged past the retention grace.
func (uc *UseCase) sweepBlobs(ctx context.Context, runID string, cutoff time.Time, batchSize int) (int, int, error) {
	deleted := 0
	errored := 0

	for {
		candidates, err := uc.GcRepo.ListUnmarkedCandidates(ctx, runID, cutoff, batchSize)
		if err != nil {
			return deleted, errored, err
		}

		if len(candidates) == 0 {
			return deleted, errored, nil
		}

		for _, digest := range candidates {
			if err := uc.sweepOneBlob(ctx, digest); err != nil {
				uc.Logger.Errorf("failed to sweep blob %s: %v", digest, err)
				errored++

				continue
			}

			deleted++
		}

		if len(candidates) < batchSize {
			return deleted, errored, nil
		}
	}
}

// sweepOneBlob deletes digest's object-store payload then its blobs row.
// A NotFound from the object store means the payload is already gone
// (a prior run's delete that crashed before committing the row delete, or
// manual cleanup) and the row delete proceeds; any other delete error
// leaves the row in place so the next run retries it.
func (uc *UseCase) sweepOneBlob(ctx context.Context, digest string) error {
	b, err := uc.BlobRepo.Find(ctx, digest)
	if err != nil {
		return err
	}

	if err := uc.ObjectBackend.DeleteObject(ctx, b.StorageKey); err != nil && !apperrors.IsNotFound(err) {
		return err
	}

	tx, err := uc.Connection.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := uc.GcRepo.DeleteBlob(ctx, tx, digest); err != nil {
		return err
	}

	return tx.Commit()
}

func (uc *UseCase) finalize(ctx context.Context, run *domain.GcRun) (*GcRunSummary, error) {
	now := time.Now().UTC()
	run.CompletedAt = &now

	if err := uc.GcRepo.Complete(ctx, run); err != nil {
		return nil, err
	}

	return &GcRunSummary{
		RunID:           run.RunID,
		Mode:            string(run.Mode),
		Marked:          run.Marked,
		CandidateBlobs:  run.CandidateBlobs,
		DeletedBlobs:    run.DeletedBlobs,
		DeletedVersions: run.DeletedVersions,
		DeleteErrors:    run.DeleteErrors,
		StartedAt:       run.StartedAt,
		CompletedAt:     run.CompletedAt,
	}, nil
}
