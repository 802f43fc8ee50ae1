// Package quarantine implements the list/get/release/reject surface over
// QuarantineItem rows opened by the Publish Engine's policy-quarantine
// path (spec.md §4.2, §6).
package quarantine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sremani/artifortress/internal/adapters/postgres/auditlog"
	"github.com/sremani/artifortress/internal/adapters/postgres/quarantine"
	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	"github.com/sremani/artifortress/internal/platform/mlog"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// UseCase aggregates the quarantine surface's dependencies.
type UseCase struct {
	QuarantineRepo quarantine.Repository
	AuditRepo      auditlog.Repository
	Logger         mlog.Logger
}

// List returns repoID's quarantine items, optionally filtered by status.
func (uc *UseCase) List(ctx context.Context, tenantID, repoID string, status domain.QuarantineStatus, offset, limit int) ([]*domain.QuarantineItem, error) {
	tracer := mtelemetry.Tracer("service.quarantine")
	ctx, span := tracer.Start(ctx, "service.quarantine.list")
	defer span.End()

	items, err := uc.QuarantineRepo.ListByRepo(ctx, tenantID, repoID, status, offset, limit)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to list quarantine items", err)
		return nil, err
	}

	return items, nil
}

// Release resolves id to released, unblocking the version's digests from
// publish preconditions and download checks.
func (uc *UseCase) Release(ctx context.Context, tenantID, id, resolvedBy string) error {
	return uc.resolve(ctx, tenantID, id, domain.QuarantineStatusReleased, domain.AuditQuarantineReleased, resolvedBy, "service.quarantine.release")
}

// Reject resolves id to rejected, a terminal hold that continues blocking
// publish and download just like an active quarantine (spec.md §4.2,
// domain.QuarantineItem.Blocks).
func (uc *UseCase) Reject(ctx context.Context, tenantID, id, resolvedBy string) error {
	return uc.resolve(ctx, tenantID, id, domain.QuarantineStatusRejected, domain.AuditQuarantineRejected, resolvedBy, "service.quarantine.reject")
}

func (uc *UseCase) resolve(ctx context.Context, tenantID, id string, status domain.QuarantineStatus, auditAction, resolvedBy, spanName string) error {
	tracer := mtelemetry.Tracer("service.quarantine")
	ctx, span := tracer.Start(ctx, spanName)
	defer span.End()

	item, err := uc.QuarantineRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to find quarantine item", err)
		return err
	}

	if err := uc.QuarantineRepo.Resolve(ctx, id, status, resolvedBy); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to resolve quarantine item", err)
		return err
	}

	if err := uc.AuditRepo.Create(ctx, nil, &domain.AuditLog{
		ID:           uuid.NewString(),
		TenantID:     item.TenantID,
		Actor:        resolvedBy,
		Action:       auditAction,
		ResourceType: "quarantine_item",
		ResourceID:   item.ID,
		Details:      map[string]any{"version_id": item.VersionID},
		OccurredAt:   time.Now().UTC(),
	}); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to write audit log", err)
		return err
	}

	return nil
}

// Get returns the quarantine item identified by id within tenantID.
func (uc *UseCase) Get(ctx context.Context, tenantID, id string) (*domain.QuarantineItem, error) {
	tracer := mtelemetry.Tracer("service.quarantine")
	ctx, span := tracer.Start(ctx, "service.quarantine.get")
	defer span.End()

	item, err := uc.QuarantineRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			mtelemetry.HandleSpanError(&span, "failed to find quarantine item", err)
		}

		return nil, err
	}

	return item, nil
}

// Find returns the first active quarantine item for versionID, or a
// not-found error when none is active.
func (uc *UseCase) Find(ctx context.Context, tenantID, versionID string) (*domain.QuarantineItem, error) {
	tracer := mtelemetry.Tracer("service.quarantine")
	ctx, span := tracer.Start(ctx, "service.quarantine.find")
	defer span.End()

	item, err := uc.QuarantineRepo.FindActiveByVersion(ctx, tenantID, versionID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			mtelemetry.HandleSpanError(&span, "failed to find active quarantine item", err)
		}

		return nil, err
	}

	return item, nil
}
