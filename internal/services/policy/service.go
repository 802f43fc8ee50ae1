// Package policy implements the standalone policy-evaluation endpoint:
// callers can ask "would this action be allowed" without going through
// the Publish Engine's full precondition gate, with the same fail-closed
// timeout behavior and quarantine side-effect (spec.md §6).
package policy

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sremani/artifortress/internal/adapters/postgres/auditlog"
	"github.com/sremani/artifortress/internal/adapters/postgres/policyeval"
	"github.com/sremani/artifortress/internal/adapters/postgres/quarantine"
	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
	"github.com/sremani/artifortress/internal/platform/mlog"
	"github.com/sremani/artifortress/internal/platform/mpostgres"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// Evaluator is the external collaborator consulted for a decision.
// Interface-identical to the Publish Engine's PolicyEvaluator, so a
// single adapter implementation backs both entry points.
type Evaluator interface {
	Evaluate(ctx context.Context, tenantID, repoID, versionID string, action domain.PolicyAction) (domain.PolicyDecision, string, error)
}

// UseCase aggregates the standalone policy-evaluation surface's
// dependencies.
type UseCase struct {
	Evaluator      Evaluator
	PolicyRepo     policyeval.Repository
	QuarantineRepo quarantine.Repository
	AuditRepo      auditlog.Repository
	Connection     *mpostgres.Connection
	Logger         mlog.Logger

	// Timeout bounds how long Evaluator.Evaluate is allowed to run before
	// this call fails closed with policy_timeout (spec.md §5).
	Timeout time.Duration
}

// Evaluate records a policy decision for (repoID, versionID, action),
// opening a quarantine hold when the decision is quarantine.
func (uc *UseCase) Evaluate(ctx context.Context, tenantID, repoID, versionID string, action domain.PolicyAction, evaluatedBy string) (*domain.PolicyEvaluation, error) {
	tracer := mtelemetry.Tracer("service.policy")
	ctx, span := tracer.Start(ctx, "service.policy.evaluate")
	defer span.End()

	decision, reason, err := uc.evaluate(ctx, tenantID, repoID, versionID, action)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "policy evaluation failed", err)
		return nil, err
	}

	now := time.Now().UTC()

	eval := &domain.PolicyEvaluation{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		RepoID:      repoID,
		VersionID:   versionID,
		Action:      action,
		Decision:    decision,
		Reason:      reason,
		EvaluatedAt: now,
		EvaluatedBy: evaluatedBy,
	}

	tx, err := uc.Connection.BeginTx(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to begin transaction", err)
		return nil, err
	}
	defer tx.Rollback()

	if err := uc.PolicyRepo.Create(ctx, tx, eval); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to record policy evaluation", err)
		return nil, err
	}

	if decision == domain.PolicyDecisionQuarantine {
		if _, err := uc.QuarantineRepo.Create(ctx, &domain.QuarantineItem{
			ID:        uuid.NewString(),
			TenantID:  tenantID,
			RepoID:    repoID,
			VersionID: versionID,
			Status:    domain.QuarantineStatusQuarantined,
			Reason:    reason,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to open quarantine hold", err)
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to commit policy evaluation", err)
		return nil, err
	}

	return eval, nil
}

func (uc *UseCase) evaluate(ctx context.Context, tenantID, repoID, versionID string, action domain.PolicyAction) (domain.PolicyDecision, string, error) {
	if uc.Evaluator == nil {
		return domain.PolicyDecisionDeny, "no policy evaluator configured", nil
	}

	timeout := uc.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	evalCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	decision, reason, err := uc.Evaluator.Evaluate(evalCtx, tenantID, repoID, versionID, action)
	if err != nil {
		if evalCtx.Err() != nil {
			return "", "", apperrors.ValidateBusinessError(cn.ErrPolicyTimeout, "PolicyEvaluation")
		}

		return "", "", err
	}

	return decision, reason, nil
}
