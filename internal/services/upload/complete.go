package upload

import (
	"context"
	"time"

	"github.com/sremani/artifortress/internal/adapters/objectstore"
	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// Complete finalizes the multipart upload from the caller-acknowledged
// parts and transitions the session into pending_commit, awaiting a
// digest/length verification via Commit.
func (uc *UseCase) Complete(ctx context.Context, tenantID, uploadID string, parts []objectstore.CompletedPart) (*domain.UploadSession, error) {
	tracer := mtelemetry.Tracer("service.upload")
	ctx, span := tracer.Start(ctx, "service.upload.complete")
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

	now := time.Now().UTC()

	if err := session.RequireComplete(now); err != nil {
		mtelemetry.HandleSpanError(&span, "upload session rejected complete", err)
		return nil, apperrors.ValidateBusinessError(err, "UploadSession")
	}

	if _, err := uc.ObjectBackend.CompleteMultipart(ctx, session.ObjectStagingKey, session.StorageUploadID, parts); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to complete multipart upload", err)
		return nil, err
	}

	session.State = domain.UploadSessionPendingCommit
	session.UpdatedAt = now

	if err := uc.SessionRepo.UpdateState(ctx, tx, session); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to transition upload session to pending_commit", err)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to commit completion transition", err)
		return nil, err
	}

	return session, nil
}
