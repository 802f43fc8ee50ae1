package upload

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// Commit verifies the completed upload's actual digest and length against
// the session's expectations. A match promotes the staged object to its
// permanent content-addressed key and upserts the Blob row; a mismatch
// aborts the session and records why (spec.md §4.1's verification
// algorithm).
func (uc *UseCase) Commit(ctx context.Context, tenantID, uploadID string) (*domain.UploadSession, error) {
	tracer := mtelemetry.Tracer("service.upload")
	ctx, span := tracer.Start(ctx, "service.upload.commit")
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

	if err := session.RequireCommit(); err != nil {
		mtelemetry.HandleSpanError(&span, "upload session rejected commit", err)
		return nil, apperrors.ValidateBusinessError(err, "UploadSession")
	}

	now := time.Now().UTC()

	digest, length, err := uc.hashStagedObject(ctx, session.ObjectStagingKey)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to hash staged object", err)
		return nil, err
	}

	if digest != session.ExpectedDigest || length != session.ExpectedLength {
		mtelemetry.HandleSpanError(&span, "commit digest/length mismatch", cn.ErrUploadVerificationFailed)
		return uc.abortOnVerificationFailure(ctx, tx, session, now)
	}

	blobDigest, err := uc.ensureBlob(ctx, session.ObjectStagingKey, digest, length)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to upsert blob", err)
		return nil, err
	}

	session.State = domain.UploadSessionCommitted
	session.CommittedBlobDigest = &blobDigest
	session.UpdatedAt = now

	if err := uc.SessionRepo.UpdateState(ctx, tx, session); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to transition upload session to committed", err)
		return nil, err
	}

	if err := uc.AuditRepo.Create(ctx, tx, &domain.AuditLog{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Actor:        session.CreatedBy,
		Action:       domain.AuditUploadCommitted,
		ResourceType: "blob",
		ResourceID:   blobDigest,
		Details:      map[string]any{"upload_id": session.UploadID},
		OccurredAt:   now,
	}); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to write audit log", err)
		return nil, err
	}

	payload, err := json.Marshal(struct {
		Digest string `json:"digest"`
	}{Digest: blobDigest})
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to marshal upload.committed payload", err)
		return nil, err
	}

	if err := uc.OutboxRepo.Append(ctx, tx, &domain.OutboxEvent{
		EventID:       uuid.NewString(),
		TenantID:      tenantID,
		AggregateType: "upload_session",
		AggregateID:   session.UploadID,
		EventType:     domain.EventTypeUploadCommitted,
		PayloadJSON:   string(payload),
		OccurredAt:    now,
		AvailableAt:   now,
	}); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to append upload.committed outbox event", err)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to commit verification transaction", err)
		return nil, err
	}

	if err := uc.DedupeCache.MarkDigestExists(ctx, blobDigest); err != nil {
		uc.Logger.Warnf("failed to prime dedupe cache for %s: %v", blobDigest, err)
	}

	return session, nil
}

// ensureBlob promotes the staged object to its permanent key and inserts
// the Blob row, tolerating a concurrent committer that already did both
// for the same digest (spec.md §4.1's concurrency note: digest is the
// primary key, so the loser's insert becomes a no-op).
func (uc *UseCase) ensureBlob(ctx context.Context, stagingKey, digest string, length int64) (string, error) {
	if existing, err := uc.BlobRepo.Find(ctx, digest); err == nil {
		return existing.Digest, nil
	}

	blobKey, err := uc.ObjectBackend.PromoteToBlobKey(ctx, stagingKey, digest)
	if err != nil {
		return "", err
	}

	created, err := uc.BlobRepo.Create(ctx, &domain.Blob{
		Digest:      digest,
		LengthBytes: length,
		StorageKey:  blobKey,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}

	return created.Digest, nil
}

func (uc *UseCase) hashStagedObject(ctx context.Context, stagingKey string) (string, int64, error) {
	reader, err := uc.ObjectBackend.GetObject(ctx, stagingKey)
	if err != nil {
		return "", 0, err
	}
	defer reader.Close()

	h := sha256.New()

	length, err := io.Copy(h, reader)
	if err != nil {
		return "", 0, err
	}

	return hex.EncodeToString(h.Sum(nil)), length, nil
}

// abortOnVerificationFailure transitions session to aborted within the
// caller's already-open, already-locked transaction and records why, then
// best-effort cleans up the staging object once the transaction lands.
func (uc *UseCase) abortOnVerificationFailure(ctx context.Context, tx *sql.Tx, session *domain.UploadSession, now time.Time) (*domain.UploadSession, error) {
	reason := cn.ErrUploadVerificationFailed.Error()
	session.State = domain.UploadSessionAborted
	session.AbortedReason = &reason
	session.UpdatedAt = now

	if err := uc.SessionRepo.UpdateState(ctx, tx, session); err != nil {
		return nil, err
	}

	if err := uc.AuditRepo.Create(ctx, tx, &domain.AuditLog{
		ID:           uuid.NewString(),
		TenantID:     session.TenantID,
		Actor:        session.CreatedBy,
		Action:       domain.AuditUploadVerificationFailed,
		ResourceType: "upload_session",
		ResourceID:   session.UploadID,
		Details:      map[string]any{"expected_digest": session.ExpectedDigest, "expected_length": session.ExpectedLength},
		OccurredAt:   now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if err := uc.ObjectBackend.DeleteObject(ctx, session.ObjectStagingKey); err != nil {
		uc.Logger.Warnf("best-effort staging object cleanup failed for %s: %v", session.ObjectStagingKey, err)
	}

	return nil, apperrors.ValidateBusinessError(cn.ErrUploadVerificationFailed, "UploadSession")
}
