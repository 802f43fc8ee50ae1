package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// CreateDraft resolves repoKey to a Repository, finds-or-creates the
// (package_type, namespace, name) coordinate, and inserts a new draft
// PackageVersion for version. Repeated drafts of the same version string
// are legal until one of them publishes (spec.md §3's uniqueness is on
// the published row, not the draft).
func (uc *UseCase) CreateDraft(ctx context.Context, tenantID, repoKey, packageType string, namespace *string, name, version, createdBy string) (*domain.PackageVersion, error) {
	tracer := mtelemetry.Tracer("service.catalog")
	ctx, span := tracer.Start(ctx, "service.catalog.create_draft")
	defer span.End()

	if _, err := uc.TenantRepo.Find(ctx, tenantID); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to resolve tenant", err)
		return nil, err
	}

	repo, err := uc.RepoStore.FindByKey(ctx, tenantID, repoKey)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to resolve repository", err)
		return nil, err
	}

	pkg, err := uc.PackageRepo.FindOrCreate(ctx, &domain.Package{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		RepoID:      repo.ID,
		PackageType: packageType,
		Namespace:   namespace,
		Name:        name,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to find or create package", err)
		return nil, err
	}

	created, err := uc.VersionRepo.Create(ctx, &domain.PackageVersion{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		RepoID:    repo.ID,
		PackageID: pkg.ID,
		Version:   version,
		State:     domain.VersionStateDraft,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to create draft version", err)
		return nil, err
	}

	return created, nil
}
