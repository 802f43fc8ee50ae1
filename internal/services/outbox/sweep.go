package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
	"github.com/sremani/artifortress/internal/platform/retry"
)

// Sweep claims one batch of undelivered events and routes each to either an
// enqueued SearchIndexJob (committed delivered_at in the same transaction)
// or a requeue five minutes out when the payload can't be resolved to a
// version_id (spec.md §4.4's "malformed / unresolvable" branch).
func (uc *UseCase) Sweep(ctx context.Context) (*SweepResult, error) {
	tracer := mtelemetry.Tracer("service.outbox")
	ctx, span := tracer.Start(ctx, "service.outbox.sweep")
	defer span.End()

	now := time.Now().UTC()

	claimed, err := uc.OutboxRepo.ClaimBatch(ctx, now, uc.batchSize())
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to claim outbox batch", err)
		return nil, err
	}

	result := &SweepResult{Claimed: len(claimed)}

	for _, e := range claimed {
		versionID, ok := resolveVersionID(e)
		if !ok {
			if err := uc.OutboxRepo.Requeue(ctx, e.EventID, now.Add(retry.OutboxRequeueDelay)); err != nil {
				mtelemetry.HandleSpanError(&span, "failed to requeue unresolvable event", err)
				return result, err
			}

			result.Requeued++

			continue
		}

		if err := uc.deliverEnqueue(ctx, e, versionID, now); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to deliver outbox event", err)
			return result, err
		}

		result.Enqueued++
	}

	return result, nil
}

// deliverEnqueue upserts the SearchIndexJob and marks the event delivered
// in one transaction, so a crash between the two never leaves an event
// delivered without a corresponding job (spec.md §4.4 step 4).
func (uc *UseCase) deliverEnqueue(ctx context.Context, e *domain.OutboxEvent, versionID string, now time.Time) error {
	tx, err := uc.Connection.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := uc.SearchJobRepo.Enqueue(ctx, tx, e.TenantID, versionID); err != nil {
		return err
	}

	if err := uc.OutboxRepo.MarkDelivered(ctx, tx, e.EventID, now); err != nil {
		return err
	}

	return tx.Commit()
}

// resolveVersionID implements spec.md §4.4 step 3: prefer aggregate_id if
// it parses as a UUID, else fall back to payload.versionId.
func resolveVersionID(e *domain.OutboxEvent) (string, bool) {
	if _, err := uuid.Parse(e.AggregateID); err == nil {
		return e.AggregateID, true
	}

	var payload domain.VersionPublishedPayload
	if err := json.Unmarshal([]byte(e.PayloadJSON), &payload); err != nil || payload.VersionID == "" {
		return "", false
	}

	if _, err := uuid.Parse(payload.VersionID); err != nil {
		return "", false
	}

	return payload.VersionID, true
}
