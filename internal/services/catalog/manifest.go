package catalog

import (
	"context"
	"time"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// PutManifest upserts versionID's manifest body. Draft versions may revise
// it repeatedly; anything past draft is rejected here ahead of the
// immutability trigger (spec.md §3, §6).
func (uc *UseCase) PutManifest(ctx context.Context, tenantID, versionID, manifestJSON, packageType string, manifestBlobDigest *string, actor string) (*domain.Manifest, error) {
	tracer := mtelemetry.Tracer("service.catalog")
	ctx, span := tracer.Start(ctx, "service.catalog.put_manifest")
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
		mtelemetry.HandleSpanError(&span, "manifest written to a non-draft version", cn.ErrVersionNotDraft)
		return nil, apperrors.ValidateBusinessError(cn.ErrVersionNotDraft, "PackageVersion")
	}

	now := time.Now().UTC()

	m := &domain.Manifest{
		VersionID:          versionID,
		ManifestJSON:       manifestJSON,
		ManifestBlobDigest: manifestBlobDigest,
		PackageType:        packageType,
		CreatedBy:          actor,
		UpdatedBy:          actor,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := uc.ManifestRepo.Upsert(ctx, tx, m); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to upsert manifest", err)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to commit manifest write", err)
		return nil, err
	}

	return m, nil
}

// GetManifest returns versionID's manifest.
func (uc *UseCase) GetManifest(ctx context.Context, versionID string) (*domain.Manifest, error) {
	tracer := mtelemetry.Tracer("service.catalog")
	ctx, span := tracer.Start(ctx, "service.catalog.get_manifest")
	defer span.End()

	m, err := uc.ManifestRepo.Find(ctx, versionID)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to find manifest", err)
		return nil, err
	}

	return m, nil
}
