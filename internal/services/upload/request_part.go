package upload

import (
	"context"
	"time"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// RequestPart issues a short-TTL presigned URL for part n, transitioning
// an initiated session into parts_uploading on its first call.
func (uc *UseCase) RequestPart(ctx context.Context, tenantID, uploadID string, partNumber int32) (string, error) {
	tracer := mtelemetry.Tracer("service.upload")
	ctx, span := tracer.Start(ctx, "service.upload.request_part")
	defer span.End()

	tx, err := uc.Connection.BeginTx(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to begin transaction", err)
		return "", err
	}
	defer tx.Rollback()

	session, err := uc.SessionRepo.FindForUpdate(ctx, tx, tenantID, uploadID)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to find upload session", err)
		return "", err
	}

	now := time.Now().UTC()

	if err := session.RequirePart(now); err != nil {
		mtelemetry.HandleSpanError(&span, "upload session rejected request_part", err)
		return "", apperrors.ValidateBusinessError(err, "UploadSession")
	}

	if session.State == domain.UploadSessionInitiated {
		session.State = domain.UploadSessionPartsUploading
		session.UpdatedAt = now

		if err := uc.SessionRepo.UpdateState(ctx, tx, session); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to transition upload session", err)
			return "", err
		}
	}

	url, err := uc.ObjectBackend.PresignUploadPart(ctx, session.ObjectStagingKey, session.StorageUploadID, partNumber, uc.PresignTTL)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to presign upload part", err)
		return "", err
	}

	if err := tx.Commit(); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to commit part request transition", err)
		return "", err
	}

	return url, nil
}
