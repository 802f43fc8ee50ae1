package catalog

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/sremani/artifortress/internal/adapters/objectstore"
	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// DownloadResult pairs the blob row with its opened object reader.
type DownloadResult struct {
	Blob   *domain.Blob
	Reader objectstore.ObjectReader
}

// FindBlob resolves digest's Blob row within repoKey, applying the same
// quarantine check as ResolveDownload, without opening the object. The
// download handler uses this to learn the blob's length before deciding
// whether the request needs a ranged or full-object read.
func (uc *UseCase) FindBlob(ctx context.Context, tenantID, repoKey, digest string) (*domain.Blob, error) {
	tracer := mtelemetry.Tracer("service.catalog")
	ctx, span := tracer.Start(ctx, "service.catalog.find_blob")
	defer span.End()

	return uc.resolveBlob(ctx, &span, tenantID, repoKey, digest)
}

// ResolveDownload finds digest's Blob row within repoKey, rejecting the
// request with quarantined_blob if any version in this repo linking to
// the digest carries an active quarantine hold (spec.md §6), and opens the
// full object for reading.
func (uc *UseCase) ResolveDownload(ctx context.Context, tenantID, repoKey, digest string) (*DownloadResult, error) {
	tracer := mtelemetry.Tracer("service.catalog")
	ctx, span := tracer.Start(ctx, "service.catalog.resolve_download")
	defer span.End()

	b, err := uc.resolveBlob(ctx, &span, tenantID, repoKey, digest)
	if err != nil {
		return nil, err
	}

	reader, err := uc.ObjectBackend.GetObject(ctx, b.StorageKey)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to open object", err)
		return nil, err
	}

	return &DownloadResult{Blob: b, Reader: reader}, nil
}

// ResolveDownloadRange is ResolveDownload for a byte-range request: it
// opens a true ranged GET against the object backend (start/end inclusive)
// instead of streaming the full object and discarding leading bytes.
func (uc *UseCase) ResolveDownloadRange(ctx context.Context, tenantID, repoKey, digest string, start, end int64) (*DownloadResult, error) {
	tracer := mtelemetry.Tracer("service.catalog")
	ctx, span := tracer.Start(ctx, "service.catalog.resolve_download_range")
	defer span.End()

	b, err := uc.resolveBlob(ctx, &span, tenantID, repoKey, digest)
	if err != nil {
		return nil, err
	}

	reader, err := uc.ObjectBackend.GetObjectRange(ctx, b.StorageKey, start, end)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to open ranged object", err)
		return nil, err
	}

	return &DownloadResult{Blob: b, Reader: reader}, nil
}

func (uc *UseCase) resolveBlob(ctx context.Context, span *trace.Span, tenantID, repoKey, digest string) (*domain.Blob, error) {
	repo, err := uc.RepoStore.FindByKey(ctx, tenantID, repoKey)
	if err != nil {
		mtelemetry.HandleSpanError(span, "failed to resolve repository", err)
		return nil, err
	}

	b, err := uc.BlobRepo.Find(ctx, digest)
	if err != nil {
		mtelemetry.HandleSpanError(span, "failed to find blob", err)
		return nil, err
	}

	blocked, err := uc.isQuarantined(ctx, tenantID, repo.ID, digest)
	if err != nil {
		mtelemetry.HandleSpanError(span, "failed to check quarantine state", err)
		return nil, err
	}

	if blocked {
		mtelemetry.HandleSpanError(span, "download blocked by quarantine", cn.ErrQuarantinedBlob)
		return nil, apperrors.ValidateBusinessError(cn.ErrQuarantinedBlob, "Blob")
	}

	return b, nil
}

func (uc *UseCase) isQuarantined(ctx context.Context, tenantID, repoID, digest string) (bool, error) {
	versionIDs, err := uc.EntryRepo.ListVersionsByRepoDigest(ctx, repoID, digest)
	if err != nil {
		return false, err
	}

	for _, versionID := range versionIDs {
		q, err := uc.QuarantineRepo.FindActiveByVersion(ctx, tenantID, versionID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}

			return false, err
		}

		if q.Blocks() {
			return true, nil
		}
	}

	return false, nil
}
