package policyeval

import (
	"context"
	"database/sql"
	"errors"
	"reflect"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	"github.com/sremani/artifortress/internal/platform/mpostgres"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// Repository provides operations related to domain.PolicyEvaluation rows.
//
//go:generate mockgen --destination=policyeval.mock.go --package=policyeval . Repository
type Repository interface {
	// Create records d within tx, alongside the publish attempt it gated.
	Create(ctx context.Context, tx *sql.Tx, d *domain.PolicyEvaluation) error
	ListByVersion(ctx context.Context, tenantID, versionID string) ([]*domain.PolicyEvaluation, error)
}

// PostgreSQLRepository is the Postgres implementation of Repository.
type PostgreSQLRepository struct {
	connection *mpostgres.Connection
}

// NewPostgreSQLRepository returns a Repository bound to conn.
func NewPostgreSQLRepository(conn *mpostgres.Connection) *PostgreSQLRepository {
	return &PostgreSQLRepository{connection: conn}
}

func (r *PostgreSQLRepository) Create(ctx context.Context, tx *sql.Tx, in *domain.PolicyEvaluation) error {
	tracer := mtelemetry.Tracer("postgres.policyeval")
	ctx, span := tracer.Start(ctx, "postgres.create_policy_evaluation")
	defer span.End()

	record := &PostgreSQLModel{}
	if err := record.FromEntity(in); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to marshal policy evaluation details", err)
		return err
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO policy_evaluations (id, tenant_id, repo_id, version_id, action, decision, reason, details, evaluated_at, evaluated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		record.ID, record.TenantID, record.RepoID, record.VersionID, record.Action, record.Decision,
		record.Reason, record.DetailsJSON, record.EvaluatedAt, record.EvaluatedBy)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to insert policy evaluation", err)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return apperrors.ValidatePGError(pgErr, reflect.TypeOf(domain.PolicyEvaluation{}).Name())
		}

		return err
	}

	return nil
}

func (r *PostgreSQLRepository) ListByVersion(ctx context.Context, tenantID, versionID string) ([]*domain.PolicyEvaluation, error) {
	tracer := mtelemetry.Tracer("postgres.policyeval")
	ctx, span := tracer.Start(ctx, "postgres.list_policy_evaluations_by_version")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, tenant_id, repo_id, version_id, action, decision, reason, details, evaluated_at, evaluated_by
		 FROM policy_evaluations WHERE tenant_id = $1 AND version_id = $2 ORDER BY evaluated_at DESC`,
		tenantID, versionID)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to list policy evaluations", err)
		return nil, err
	}
	defer rows.Close()

	var out []*domain.PolicyEvaluation

	for rows.Next() {
		record := &PostgreSQLModel{}
		if err := rows.Scan(&record.ID, &record.TenantID, &record.RepoID, &record.VersionID, &record.Action,
			&record.Decision, &record.Reason, &record.DetailsJSON, &record.EvaluatedAt, &record.EvaluatedBy); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to scan policy evaluation", err)
			return nil, err
		}

		entity, err := record.ToEntity()
		if err != nil {
			mtelemetry.HandleSpanError(&span, "failed to unmarshal policy evaluation details", err)
			return nil, err
		}

		out = append(out, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if out == nil {
		out = []*domain.PolicyEvaluation{}
	}

	return out, nil
}
