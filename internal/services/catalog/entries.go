package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// AddEntry registers one file within versionID, which must still be a
// draft (spec.md §3: identity fields of a published version, and by
// extension its file list, are immutable).
func (uc *UseCase) AddEntry(ctx context.Context, tenantID, versionID, relativePath, blobDigest string, checksumSHA1, checksumSHA256 *string, sizeBytes int64) (*domain.ArtifactEntry, error) {
	tracer := mtelemetry.Tracer("service.catalog")
	ctx, span := tracer.Start(ctx, "service.catalog.add_entry")
	defer span.End()

	tx, err := uc.Connection.BeginTx(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to begin transaction", err)
		return nil, err
	}
	defer tx.Rollback()

	v, err := uc.VersionRepo.FindForUpdate(ctx, tx, tenantID, versionID)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to find version", err)
		return nil, err
	}

	if v.State != domain.VersionStateDraft {
		mtelemetry.HandleSpanError(&span, "entry added to a non-draft version", cn.ErrVersionNotDraft)
		return nil, apperrors.ValidateBusinessError(cn.ErrVersionNotDraft, "PackageVersion")
	}

	entry := &domain.ArtifactEntry{
		EntryID:        uuid.NewString(),
		VersionID:      versionID,
		RelativePath:   relativePath,
		BlobDigest:     blobDigest,
		ChecksumSHA1:   checksumSHA1,
		ChecksumSHA256: checksumSHA256,
		SizeBytes:      sizeBytes,
	}

	if err := uc.EntryRepo.CreateBatch(ctx, tx, []*domain.ArtifactEntry{entry}); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to create artifact entry", err)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to commit entry creation", err)
		return nil, err
	}

	return entry, nil
}
