package publish

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sremani/artifortress/internal/domain"
)

func marshalVersionPublished(versionID string) ([]byte, error) {
	return json.Marshal(domain.VersionPublishedPayload{VersionID: versionID})
}

// quarantineVersion opens a quarantine hold on versionID when the policy
// evaluator returns "quarantine" instead of a flat allow/deny; the
// quarantine_items row is written through the pool, outside tx, and only
// the audit record is written within tx — the
// version stays in draft state, blocked from a future publish attempt until
// the hold is resolved (spec.md §4.2, §9).
func (uc *UseCase) quarantineVersion(ctx context.Context, tx *sql.Tx, tenantID, repoID, versionID, reason string, now time.Time) error {
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
		return err
	}

	return uc.AuditRepo.Create(ctx, tx, &domain.AuditLog{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Actor:        "policy-evaluator",
		Action:       domain.AuditVersionPublished,
		ResourceType: "package_version",
		ResourceID:   versionID,
		Details:      map[string]any{"decision": string(domain.PolicyDecisionQuarantine), "reason": reason},
		OccurredAt:   now,
	})
}
