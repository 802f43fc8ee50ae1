package outbox

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	"github.com/sremani/artifortress/internal/platform/mpostgres"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
	"github.com/sremani/artifortress/internal/platform/retry"
)

// Repository provides operations related to domain.OutboxEvent rows.
//
//go:generate mockgen --destination=outbox.mock.go --package=outbox . Repository
type Repository interface {
	// Append inserts e within tx, alongside the business write it describes.
	Append(ctx context.Context, tx *sql.Tx, e *domain.OutboxEvent) error
	// ExistsForAggregate reports whether an event of eventType already
	// exists for aggregateID, the idempotency check the Publish Engine uses
	// so a retried publish call doesn't emit a second event (spec.md §4.2).
	ExistsForAggregate(ctx context.Context, tx *sql.Tx, aggregateType, aggregateID, eventType string) (bool, error)
	// ClaimBatch locks up to limit undelivered, available rows with
	// FOR UPDATE SKIP LOCKED so concurrent dispatcher instances never claim
	// the same event (spec.md §6).
	ClaimBatch(ctx context.Context, now time.Time, limit int) ([]*domain.OutboxEvent, error)
	// MarkDelivered commits alongside whatever write the dispatcher made in
	// response to the event, within the same tx.
	MarkDelivered(ctx context.Context, tx *sql.Tx, eventID string, deliveredAt time.Time) error
	Requeue(ctx context.Context, eventID string, availableAt time.Time) error
}

// PostgreSQLRepository is the Postgres implementation of Repository.
type PostgreSQLRepository struct {
	connection *mpostgres.Connection
}

// NewPostgreSQLRepository returns a Repository bound to conn.
func NewPostgreSQLRepository(conn *mpostgres.Connection) *PostgreSQLRepository {
	return &PostgreSQLRepository{connection: conn}
}

func (r *PostgreSQLRepository) Append(ctx context.Context, tx *sql.Tx, in *domain.OutboxEvent) error {
	tracer := mtelemetry.Tracer("postgres.outbox")
	ctx, span := tracer.Start(ctx, "postgres.append_outbox_event")
	defer span.End()

	record := &PostgreSQLModel{}
	record.FromEntity(in)

	_, err := tx.ExecContext(ctx,
		`INSERT INTO outbox_events (event_id, tenant_id, aggregate_type, aggregate_id, event_type, payload_json, occurred_at, available_at, delivery_attempts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.EventID, record.TenantID, record.AggregateType, record.AggregateID, record.EventType,
		record.PayloadJSON, record.OccurredAt, record.AvailableAt, record.DeliveryAttempts)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to append outbox event", err)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return apperrors.ValidatePGError(pgErr, reflect.TypeOf(domain.OutboxEvent{}).Name())
		}

		return err
	}

	return nil
}

func (r *PostgreSQLRepository) ExistsForAggregate(ctx context.Context, tx *sql.Tx, aggregateType, aggregateID, eventType string) (bool, error) {
	tracer := mtelemetry.Tracer("postgres.outbox")
	ctx, span := tracer.Start(ctx, "postgres.outbox_exists_for_aggregate")
	defer span.End()

	var exists bool

	row := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM outbox_events WHERE aggregate_type = $1 AND aggregate_id = $2 AND event_type = $3)`,
		aggregateType, aggregateID, eventType)
	if err := row.Scan(&exists); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to check outbox idempotency", err)
		return false, err
	}

	return exists, nil
}

func (r *PostgreSQLRepository) ClaimBatch(ctx context.Context, now time.Time, limit int) ([]*domain.OutboxEvent, error) {
	tracer := mtelemetry.Tracer("postgres.outbox")
	ctx, span := tracer.Start(ctx, "postgres.claim_outbox_batch")
	defer span.End()

	tx, err := r.connection.BeginTx(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to begin claim transaction", err)
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT event_id, tenant_id, aggregate_type, aggregate_id, event_type, payload_json, occurred_at, available_at, delivered_at, delivery_attempts
		 FROM outbox_events
		 WHERE delivered_at IS NULL AND available_at <= $1 AND event_type = $2
		 ORDER BY occurred_at ASC
		 LIMIT $3
		 FOR UPDATE SKIP LOCKED`,
		now, domain.EventTypeVersionPublished, limit)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to select claimable outbox events", err)
		return nil, err
	}

	var out []*domain.OutboxEvent

	for rows.Next() {
		record := &PostgreSQLModel{}
		if err := rows.Scan(&record.EventID, &record.TenantID, &record.AggregateType, &record.AggregateID, &record.EventType,
			&record.PayloadJSON, &record.OccurredAt, &record.AvailableAt, &record.DeliveredAt, &record.DeliveryAttempts); err != nil {
			rows.Close()
			mtelemetry.HandleSpanError(&span, "failed to scan outbox event", err)
			return nil, err
		}

		out = append(out, record.ToEntity())
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return out, nil
	}

	// Bump available_at past the visibility window for every claimed row
	// before handing them to the dispatcher, so a worker that crashes
	// mid-delivery doesn't hold the batch invisible forever.
	visibleAgain := now.Add(retry.OutboxVisibilityWindow)

	for _, e := range out {
		if _, err := tx.ExecContext(ctx,
			`UPDATE outbox_events SET available_at = $1, delivery_attempts = delivery_attempts + 1 WHERE event_id = $2`,
			visibleAgain, e.EventID); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to extend outbox visibility window", err)
			return nil, err
		}

		e.DeliveryAttempts++
	}

	if err := tx.Commit(); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to commit outbox claim", err)
		return nil, err
	}

	return out, nil
}

// MarkDelivered sets delivered_at within tx, so the dispatcher can commit it
// alongside the SearchIndexJob enqueue it produced in the same transaction
// (spec.md §4.4).
func (r *PostgreSQLRepository) MarkDelivered(ctx context.Context, tx *sql.Tx, eventID string, deliveredAt time.Time) error {
	tracer := mtelemetry.Tracer("postgres.outbox")
	ctx, span := tracer.Start(ctx, "postgres.mark_outbox_delivered")
	defer span.End()

	if _, err := tx.ExecContext(ctx, `UPDATE outbox_events SET delivered_at = $1 WHERE event_id = $2`, deliveredAt, eventID); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to mark outbox event delivered", err)
		return err
	}

	return nil
}

func (r *PostgreSQLRepository) Requeue(ctx context.Context, eventID string, availableAt time.Time) error {
	tracer := mtelemetry.Tracer("postgres.outbox")
	ctx, span := tracer.Start(ctx, "postgres.requeue_outbox_event")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return err
	}

	if _, err := db.ExecContext(ctx, `UPDATE outbox_events SET available_at = $1 WHERE event_id = $2`, availableAt, eventID); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to requeue outbox event", err)
		return apperrors.ValidateInternalError(err, reflect.TypeOf(domain.OutboxEvent{}).Name())
	}

	return nil
}
