package auditlog

import (
	"context"
	"database/sql"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/mpostgres"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// Repository provides operations related to domain.AuditLog rows. Append
// only — there is no update/delete, matching the audit trail's purpose.
//
//go:generate mockgen --destination=auditlog.mock.go --package=auditlog . Repository
type Repository interface {
	// Create inserts a, either standalone or within a caller-owned tx when
	// the audit entry must land atomically with the write it describes
	// (e.g. publish, tombstone).
	Create(ctx context.Context, tx *sql.Tx, a *domain.AuditLog) error
	ListByResource(ctx context.Context, tenantID, resourceType, resourceID string, limit int) ([]*domain.AuditLog, error)
}

// PostgreSQLRepository is the Postgres implementation of Repository.
type PostgreSQLRepository struct {
	connection *mpostgres.Connection
}

// NewPostgreSQLRepository returns a Repository bound to conn.
func NewPostgreSQLRepository(conn *mpostgres.Connection) *PostgreSQLRepository {
	return &PostgreSQLRepository{connection: conn}
}

// execer is satisfied by *sql.Tx and mpostgres.DBTX so Create can run either
// inside a transaction or directly against the pool.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *PostgreSQLRepository) Create(ctx context.Context, tx *sql.Tx, in *domain.AuditLog) error {
	tracer := mtelemetry.Tracer("postgres.auditlog")
	ctx, span := tracer.Start(ctx, "postgres.create_audit_log")
	defer span.End()

	record := &PostgreSQLModel{}
	if err := record.FromEntity(in); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to marshal audit log details", err)
		return err
	}

	var exec execer = tx

	if tx == nil {
		db, err := r.connection.GetDB(ctx)
		if err != nil {
			mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
			return err
		}

		exec = db
	}

	if _, err := exec.ExecContext(ctx,
		`INSERT INTO audit_logs (id, tenant_id, actor, action, resource_type, resource_id, details, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ID, record.TenantID, record.Actor, record.Action, record.ResourceType, record.ResourceID, record.DetailsJSON, record.OccurredAt); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to insert audit log", err)
		return err
	}

	return nil
}

func (r *PostgreSQLRepository) ListByResource(ctx context.Context, tenantID, resourceType, resourceID string, limit int) ([]*domain.AuditLog, error) {
	tracer := mtelemetry.Tracer("postgres.auditlog")
	ctx, span := tracer.Start(ctx, "postgres.list_audit_logs_by_resource")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, tenant_id, actor, action, resource_type, resource_id, details, occurred_at
		 FROM audit_logs WHERE tenant_id = $1 AND resource_type = $2 AND resource_id = $3
		 ORDER BY occurred_at DESC LIMIT $4`,
		tenantID, resourceType, resourceID, limit)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to list audit logs", err)
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AuditLog

	for rows.Next() {
		record := &PostgreSQLModel{}
		if err := rows.Scan(&record.ID, &record.TenantID, &record.Actor, &record.Action, &record.ResourceType,
			&record.ResourceID, &record.DetailsJSON, &record.OccurredAt); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to scan audit log", err)
			return nil, err
		}

		entity, err := record.ToEntity()
		if err != nil {
			mtelemetry.HandleSpanError(&span, "failed to unmarshal audit log details", err)
			return nil, err
		}

		out = append(out, entity)
	}

	return out, rows.Err()
}
