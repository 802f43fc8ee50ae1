package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// Tombstone transitions versionID (draft or published) to tombstoned and
// records a Tombstone row with its retention deadline. A version already
// tombstoned returns its existing Tombstone rather than erroring, so a
// retried delete call is idempotent (spec.md §4.3).
func (uc *UseCase) Tombstone(ctx context.Context, tenantID, repoID, versionID, deletedBy, reason string, retentionDays int) (*domain.Tombstone, error) {
	tracer := mtelemetry.Tracer("service.lifecycle")
	ctx, span := tracer.Start(ctx, "service.lifecycle.tombstone")
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

	now := time.Now().UTC()

	if v.State == domain.VersionStateTombstoned {
		existing, err := uc.TombstoneRepo.FindByVersion(ctx, tenantID, versionID)
		if err != nil {
			mtelemetry.HandleSpanError(&span, "tombstoned version has no tombstone row", err)
			return nil, err
		}

		return existing, nil
	}

	if err := v.CanTransitionTo(domain.VersionStateTombstoned); err != nil {
		mtelemetry.HandleSpanError(&span, "version rejected tombstone transition", err)
		return nil, apperrors.ValidateBusinessError(err, "PackageVersion")
	}

	retentionUntil := now.AddDate(0, 0, retentionDays)

	created, err := uc.TombstoneRepo.Create(ctx, tx, &domain.Tombstone{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		RepoID:         repoID,
		VersionID:      versionID,
		DeletedBy:      deletedBy,
		DeletedAt:      now,
		RetentionUntil: retentionUntil,
		Reason:         reason,
	})
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to create tombstone", err)
		return nil, err
	}

	v.State = domain.VersionStateTombstoned
	v.TombstonedAt = &now
	v.TombstoneReason = &reason

	if err := uc.VersionRepo.UpdateState(ctx, tx, v); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to transition version to tombstoned", err)
		return nil, err
	}

	if err := uc.AuditRepo.Create(ctx, tx, &domain.AuditLog{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Actor:        deletedBy,
		Action:       domain.AuditVersionTombstoned,
		ResourceType: "package_version",
		ResourceID:   versionID,
		Details:      map[string]any{"reason": reason, "retention_until": retentionUntil},
		OccurredAt:   now,
	}); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to write audit log", err)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to commit tombstone transaction", err)
		return nil, err
	}

	return created, nil
}
