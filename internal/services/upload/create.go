package upload

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// Create starts a new upload session for (expectedDigest, expectedLength).
// When a Blob already exists for expectedDigest, it takes the dedupe fast
// path: no multipart upload is opened and the session is returned already
// committed (spec.md §4.1's "create(digest already in Blob)" row).
func (uc *UseCase) Create(ctx context.Context, tenantID, repoID, createdBy, expectedDigest string, expectedLength int64) (*domain.UploadSession, error) {
	tracer := mtelemetry.Tracer("service.upload")
	ctx, span := tracer.Start(ctx, "service.upload.create")
	defer span.End()

	if err := domain.ValidateNewBlob(expectedDigest, expectedLength); err != nil {
		mtelemetry.HandleSpanError(&span, "invalid upload session request", err)
		return nil, apperrors.ValidateBusinessError(err, "UploadSession")
	}

	now := time.Now().UTC()
	uploadID := uuid.NewString()

	if exists, err := uc.digestExists(ctx, expectedDigest); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to check existing blob", err)
		return nil, err
	} else if exists {
		session := &domain.UploadSession{
			UploadID:            uploadID,
			TenantID:            tenantID,
			RepoID:              repoID,
			ExpectedDigest:      expectedDigest,
			ExpectedLength:      expectedLength,
			State:               domain.UploadSessionCommitted,
			CommittedBlobDigest: &expectedDigest,
			CreatedBy:           createdBy,
			ExpiresAt:           now.Add(uc.SessionTTL),
			CreatedAt:           now,
			UpdatedAt:           now,
			Deduped:             true,
		}

		created, err := uc.SessionRepo.Create(ctx, session)
		if err != nil {
			mtelemetry.HandleSpanError(&span, "failed to create deduped upload session", err)
			return nil, err
		}

		uc.Logger.Infof("upload session %s deduped against existing blob %s", uploadID, expectedDigest)

		return created, nil
	}

	stagingKey, storageUploadID, err := uc.ObjectBackend.BeginMultipart(ctx, tenantID, repoID)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to begin multipart upload", err)
		return nil, apperrors.ValidateBusinessError(cn.ErrServiceUnavailable, "UploadSession")
	}

	session := &domain.UploadSession{
		UploadID:         uploadID,
		TenantID:         tenantID,
		RepoID:           repoID,
		ExpectedDigest:   expectedDigest,
		ExpectedLength:   expectedLength,
		State:            domain.UploadSessionInitiated,
		ObjectStagingKey: stagingKey,
		StorageUploadID:  storageUploadID,
		CreatedBy:        createdBy,
		ExpiresAt:        now.Add(uc.SessionTTL),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	created, err := uc.SessionRepo.Create(ctx, session)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to create upload session", err)

		if abortErr := uc.ObjectBackend.AbortMultipart(ctx, stagingKey, storageUploadID); abortErr != nil {
			uc.Logger.Warnf("failed to abort orphaned multipart upload %s: %v", storageUploadID, abortErr)
		}

		return nil, err
	}

	return created, nil
}

// digestExists consults the dedupe cache and then always confirms against
// Postgres, since Redis is never the sole basis for a dedupe decision; a
// cache hit only spares re-priming the cache, and a cache miss or
// cache-backend failure simply falls through.
func (uc *UseCase) digestExists(ctx context.Context, digest string) (bool, error) {
	cached, ok := uc.DedupeCache.DigestExists(ctx, digest)

	exists, err := uc.BlobRepo.Exists(ctx, digest)
	if err != nil {
		return false, err
	}

	if exists && !(ok && cached) {
		if err := uc.DedupeCache.MarkDigestExists(ctx, digest); err != nil {
			uc.Logger.Warnf("failed to prime dedupe cache for %s: %v", digest, err)
		}
	}

	return exists, nil
}
