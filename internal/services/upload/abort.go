package upload

import (
	"context"
	"time"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// Abort transitions an active session to aborted, best-effort releasing
// any uploaded parts in the object backend first (spec.md §4.1: "abort
// always -> aborted").
func (uc *UseCase) Abort(ctx context.Context, tenantID, uploadID, reason string) (*domain.UploadSession, error) {
	tracer := mtelemetry.Tracer("service.upload")
	ctx, span := tracer.Start(ctx, "service.upload.abort")
	defer span.End()

	tx, err := uc.Connection.BeginTx(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to begin transaction", err)
		return nil, err
	}
	defer tx.Rollback()

	session, err := uc.SessionRepo.FindForUpdate(ctx, tx, tenantID, uploadID)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to find upload session", err)
		return nil, err
	}

	if !session.IsActive() {
		mtelemetry.HandleSpanError(&span, "abort targeted a non-active session", cn.ErrUploadSessionNotActive)
		return nil, apperrors.ValidateBusinessError(cn.ErrUploadSessionNotActive, "UploadSession")
	}

	if session.StorageUploadID != "" {
		if err := uc.ObjectBackend.AbortMultipart(ctx, session.ObjectStagingKey, session.StorageUploadID); err != nil {
			uc.Logger.Warnf("best-effort multipart abort failed for upload session %s: %v", uploadID, err)
		}
	}

	session.State = domain.UploadSessionAborted
	session.AbortedReason = &reason
	session.UpdatedAt = time.Now().UTC()

	if err := uc.SessionRepo.UpdateState(ctx, tx, session); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to transition upload session to aborted", err)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to commit abort transition", err)
		return nil, err
	}

	return session, nil
}
