package reconciler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// Run computes the three drift buckets bounded by limit samples each and
// writes a reconcile.blobs.checked audit entry, the bucket totals as its
// details (spec.md §4.5). A clean system returns zero in every bucket.
func (uc *UseCase) Run(ctx context.Context, tenantID, initiatedBy string, limit int) (*Report, error) {
	tracer := mtelemetry.Tracer("service.reconciler")
	ctx, span := tracer.Start(ctx, "service.reconciler.run")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}

	report := &Report{}

	missingEntries, entryTotal, err := uc.EntryRepo.ListMissingBlobRefs(ctx, limit)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to scan missing artifact blob refs", err)
		return nil, err
	}

	report.MissingArtifactBlobRefs = Bucket{SampleIDs: missingEntries, Total: entryTotal}

	missingManifests, manifestTotal, err := uc.ManifestRepo.ListMissingBlobRefs(ctx, limit)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to scan missing manifest blob refs", err)
		return nil, err
	}

	report.MissingManifestBlobRefs = Bucket{SampleIDs: missingManifests, Total: manifestTotal}

	orphans, orphanTotal, err := uc.BlobRepo.ListOrphans(ctx, limit)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to scan orphan blobs", err)
		return nil, err
	}

	report.OrphanBlobs = Bucket{SampleIDs: orphans, Total: orphanTotal}

	now := time.Now().UTC()

	if err := uc.AuditRepo.Create(ctx, nil, &domain.AuditLog{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Actor:        initiatedBy,
		Action:       domain.AuditReconcileBlobsChecked,
		ResourceType: "tenant",
		ResourceID:   tenantID,
		Details: map[string]any{
			"missing_artifact_blob_refs": report.MissingArtifactBlobRefs.Total,
			"missing_manifest_blob_refs": report.MissingManifestBlobRefs.Total,
			"orphan_blobs":               report.OrphanBlobs.Total,
			"clean":                      report.clean(),
		},
		OccurredAt: now,
	}); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to write reconcile audit log", err)
		return nil, err
	}

	return report, nil
}
