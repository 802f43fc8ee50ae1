package publish

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// Publish transitions versionID from draft to published: it checks
// preconditions, consults the policy evaluator, and writes the state
// transition, policy decision, audit record, and outbox event inside one
// transaction (spec.md §4.2). A version already published returns its
// current state rather than erroring, so a retried call is idempotent.
func (uc *UseCase) Publish(ctx context.Context, tenantID, repoID, versionID, actor string) (*Result, error) {
	tracer := mtelemetry.Tracer("service.publish")
	ctx, span := tracer.Start(ctx, "service.publish.publish")
	defer span.End()

	tx, err := uc.Connection.BeginTx(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to begin transaction", err)
		return nil, err
	}
	defer tx.Rollback()

	v, err := uc.VersionRepo.FindForUpdate(ctx, tx, tenantID, versionID)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to find version", err)
		return nil, err
	}

	if v.State == domain.VersionStatePublished {
		already, err := uc.OutboxRepo.ExistsForAggregate(ctx, tx, domain.AggregateTypePackageVersion, v.ID, domain.EventTypeVersionPublished)
		if err != nil {
			mtelemetry.HandleSpanError(&span, "failed to check publish idempotency", err)
			return nil, err
		}

		return &Result{Version: v, Idempotent: already}, nil
	}

	if err := v.CanTransitionTo(domain.VersionStatePublished); err != nil {
		mtelemetry.HandleSpanError(&span, "version rejected publish transition", err)
		return nil, apperrors.ValidateBusinessError(err, "PackageVersion")
	}

	if err := uc.checkPreconditions(ctx, tenantID, repoID, v); err != nil {
		mtelemetry.HandleSpanError(&span, "publish preconditions unmet", err)
		return nil, err
	}

	now := time.Now().UTC()

	decision, reason, err := uc.evaluatePolicy(ctx, tenantID, repoID, v.ID)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "policy evaluation failed", err)
		return nil, err
	}

	if err := uc.PolicyRepo.Create(ctx, tx, &domain.PolicyEvaluation{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		RepoID:      repoID,
		VersionID:   v.ID,
		Action:      domain.PolicyActionPublish,
		Decision:    decision,
		Reason:      reason,
		EvaluatedAt: now,
		EvaluatedBy: actor,
	}); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to record policy evaluation", err)
		return nil, err
	}

	switch decision {
	case domain.PolicyDecisionDeny:
		if err := tx.Commit(); err != nil {
			return nil, err
		}

		return nil, apperrors.ValidateBusinessError(cn.ErrPublishDenied, "PackageVersion")
	case domain.PolicyDecisionQuarantine:
		if err := uc.quarantineVersion(ctx, tx, tenantID, repoID, v.ID, reason, now); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to quarantine version", err)
			return nil, err
		}

		if err := tx.Commit(); err != nil {
			return nil, err
		}

		return nil, apperrors.ValidateBusinessError(cn.ErrPublishBlockedQuarantine, "PackageVersion")
	}

	v.State = domain.VersionStatePublished
	v.PublishedAt = &now

	if err := uc.VersionRepo.UpdateState(ctx, tx, v); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to transition version to published", err)
		return nil, err
	}

	if err := uc.AuditRepo.Create(ctx, tx, &domain.AuditLog{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Actor:        actor,
		Action:       domain.AuditVersionPublished,
		ResourceType: "package_version",
		ResourceID:   v.ID,
		Details:      map[string]any{"repo_id": repoID},
		OccurredAt:   now,
	}); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to write audit log", err)
		return nil, err
	}

	payload, err := marshalVersionPublished(v.ID)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to marshal version.published payload", err)
		return nil, err
	}

	if err := uc.OutboxRepo.Append(ctx, tx, &domain.OutboxEvent{
		EventID:       uuid.NewString(),
		TenantID:      tenantID,
		AggregateType: domain.AggregateTypePackageVersion,
		AggregateID:   v.ID,
		EventType:     domain.EventTypeVersionPublished,
		PayloadJSON:   string(payload),
		OccurredAt:    now,
		AvailableAt:   now,
	}); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to append version.published outbox event", err)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to commit publish transaction", err)
		return nil, err
	}

	if err := uc.Notifier.PublishVersionPublished(ctx, domain.VersionPublishedPayload{VersionID: v.ID}); err != nil {
		uc.Logger.Warnf("best-effort publish notification failed for version %s: %v", v.ID, err)
	}

	return &Result{Version: v, EventEmitted: true}, nil
}

// checkPreconditions enforces spec.md §4.2's publish gate: at least one
// artifact entry, a manifest, every referenced digest resolved to a Blob,
// and no active quarantine on the version.
func (uc *UseCase) checkPreconditions(ctx context.Context, tenantID, repoID string, v *domain.PackageVersion) error {
	entries, err := uc.EntryRepo.ListByVersion(ctx, v.ID)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		return apperrors.ValidateBusinessError(cn.ErrPublishPreconditionsUnmet, "PackageVersion")
	}

	if _, err := uc.ManifestRepo.Find(ctx, v.ID); err != nil {
		return apperrors.ValidateBusinessError(cn.ErrPublishPreconditionsUnmet, "PackageVersion")
	}

	for _, e := range entries {
		if exists, err := uc.BlobRepo.Exists(ctx, e.BlobDigest); err != nil {
			return err
		} else if !exists {
			return apperrors.ValidateBusinessError(cn.ErrPublishBlobMissing, "PackageVersion")
		}
	}

	active, err := uc.QuarantineRepo.FindActiveByVersion(ctx, tenantID, v.ID)
	if err != nil && !apperrors.IsNotFound(err) {
		return err
	}

	if active != nil && active.Blocks() {
		return apperrors.ValidateBusinessError(cn.ErrPublishBlockedQuarantine, "PackageVersion")
	}

	return nil
}

// evaluatePolicy consults the policy evaluator under PolicyTimeout. An
// absent evaluator or a context deadline both fail closed to deny, per the
// resolved Open Question on policy-absence behavior.
func (uc *UseCase) evaluatePolicy(ctx context.Context, tenantID, repoID, versionID string) (domain.PolicyDecision, string, error) {
	if uc.Policy == nil {
		return domain.PolicyDecisionDeny, "no policy evaluator configured", nil
	}

	timeout := uc.PolicyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	evalCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	decision, reason, err := uc.Policy.Evaluate(evalCtx, tenantID, repoID, versionID, domain.PolicyActionPublish)
	if err != nil {
		if evalCtx.Err() != nil {
			return domain.PolicyDecisionDeny, "policy evaluator timed out", apperrors.ValidateBusinessError(cn.ErrPolicyTimeout, "PackageVersion")
		}

		return "", "", err
	}

	return decision, reason, nil
}
