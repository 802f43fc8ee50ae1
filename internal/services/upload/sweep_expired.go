package upload

import (
	"context"
	"time"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// SweepExpired aborts every active session whose expires_at has passed,
// best-effort releasing its multipart upload first (spec.md §4.1's
// expiry-sweeper row). Returns the count of sessions it transitioned.
func (uc *UseCase) SweepExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	tracer := mtelemetry.Tracer("service.upload")
	ctx, span := tracer.Start(ctx, "service.upload.sweep_expired")
	defer span.End()

	expired, err := uc.SessionRepo.ListExpiredActive(ctx, now, limit)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to list expired upload sessions", err)
		return 0, err
	}

	swept := 0

	for _, session := range expired {
		if err := uc.sweepOne(ctx, session, now); err != nil {
			uc.Logger.Errorf("failed to sweep expired upload session %s: %v", session.UploadID, err)
			continue
		}

		swept++
	}

	return swept, nil
}

func (uc *UseCase) sweepOne(ctx context.Context, session *domain.UploadSession, now time.Time) error {
	tx, err := uc.Connection.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	locked, err := uc.SessionRepo.FindForUpdate(ctx, tx, session.TenantID, session.UploadID)
	if err != nil {
		return err
	}

	if !locked.IsActive() || !locked.IsExpired(now) {
		return tx.Commit()
	}

	if locked.StorageUploadID != "" {
		if err := uc.ObjectBackend.AbortMultipart(ctx, locked.ObjectStagingKey, locked.StorageUploadID); err != nil {
			uc.Logger.Warnf("best-effort multipart abort failed for expired session %s: %v", locked.UploadID, err)
		}
	}

	reason := "expired"
	locked.State = domain.UploadSessionAborted
	locked.AbortedReason = &reason
	locked.UpdatedAt = now

	if err := uc.SessionRepo.UpdateState(ctx, tx, locked); err != nil {
		return err
	}

	return tx.Commit()
}
