package tombstone

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
	"github.com/sremani/artifortress/internal/platform/mpostgres"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// Repository provides operations related to domain.Tombstone rows, unique
// per (tenant, repo, version) so re-deleting an already-tombstoned version
// is idempotent (spec.md §5).
//
//go:generate mockgen --destination=tombstone.mock.go --package=tombstone . Repository
type Repository interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Tombstone) (*domain.Tombstone, error)
	FindByVersion(ctx context.Context, tenantID, versionID string) (*domain.Tombstone, error)
	ListExpired(ctx context.Context, asOf time.Time, limit int) ([]*domain.Tombstone, error)
	// Delete removes the tombstone row within tx, ahead of deleting its
	// package_versions row in the same transaction (GC's candidate version
	// deletion step, spec.md §4.3).
	Delete(ctx context.Context, tx *sql.Tx, tenantID, versionID string) error
}

// PostgreSQLRepository is the Postgres implementation of Repository.
type PostgreSQLRepository struct {
	connection *mpostgres.Connection
}

// NewPostgreSQLRepository returns a Repository bound to conn.
func NewPostgreSQLRepository(conn *mpostgres.Connection) *PostgreSQLRepository {
	return &PostgreSQLRepository{connection: conn}
}

// Create inserts t within tx, or returns the existing row if this version
// was already tombstoned — a retried delete converges on one record.
func (r *PostgreSQLRepository) Create(ctx context.Context, tx *sql.Tx, in *domain.Tombstone) (*domain.Tombstone, error) {
	tracer := mtelemetry.Tracer("postgres.tombstone")
	ctx, span := tracer.Start(ctx, "postgres.create_tombstone")
	defer span.End()

	record := &PostgreSQLModel{}
	record.FromEntity(in)

	row := tx.QueryRowContext(ctx,
		`INSERT INTO tombstones (id, tenant_id, repo_id, version_id, deleted_by, deleted_at, retention_until, reason)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (tenant_id, repo_id, version_id) DO UPDATE SET reason = tombstones.reason
		 RETURNING id, tenant_id, repo_id, version_id, deleted_by, deleted_at, retention_until, reason`,
		record.ID, record.TenantID, record.RepoID, record.VersionID, record.DeletedBy, record.DeletedAt, record.RetentionUntil, record.Reason)

	out := &PostgreSQLModel{}
	if err := row.Scan(&out.ID, &out.TenantID, &out.RepoID, &out.VersionID, &out.DeletedBy, &out.DeletedAt, &out.RetentionUntil, &out.Reason); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to upsert tombstone", err)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, apperrors.ValidatePGError(pgErr, reflect.TypeOf(domain.Tombstone{}).Name())
		}

		return nil, err
	}

	return out.ToEntity(), nil
}

func (r *PostgreSQLRepository) FindByVersion(ctx context.Context, tenantID, versionID string) (*domain.Tombstone, error) {
	tracer := mtelemetry.Tracer("postgres.tombstone")
	ctx, span := tracer.Start(ctx, "postgres.find_tombstone_by_version")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}

	row := db.QueryRowContext(ctx,
		`SELECT id, tenant_id, repo_id, version_id, deleted_by, deleted_at, retention_until, reason
		 FROM tombstones WHERE tenant_id = $1 AND version_id = $2`, tenantID, versionID)
	if err := row.Scan(&record.ID, &record.TenantID, &record.RepoID, &record.VersionID, &record.DeletedBy,
		&record.DeletedAt, &record.RetentionUntil, &record.Reason); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to scan tombstone", err)

		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ValidateBusinessError(cn.ErrEntityNotFound, reflect.TypeOf(domain.Tombstone{}).Name())
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

// ListExpired returns up to limit tombstones past their retention deadline,
// the GC engine's sweep candidate list (spec.md §5).
func (r *PostgreSQLRepository) ListExpired(ctx context.Context, asOf time.Time, limit int) ([]*domain.Tombstone, error) {
	tracer := mtelemetry.Tracer("postgres.tombstone")
	ctx, span := tracer.Start(ctx, "postgres.list_expired_tombstones")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, tenant_id, repo_id, version_id, deleted_by, deleted_at, retention_until, reason
		 FROM tombstones WHERE retention_until <= $1 ORDER BY retention_until ASC LIMIT $2`, asOf, limit)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to list expired tombstones", err)
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Tombstone

	for rows.Next() {
		record := &PostgreSQLModel{}
		if err := rows.Scan(&record.ID, &record.TenantID, &record.RepoID, &record.VersionID, &record.DeletedBy,
			&record.DeletedAt, &record.RetentionUntil, &record.Reason); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to scan tombstone", err)
			return nil, err
		}

		out = append(out, record.ToEntity())
	}

	return out, rows.Err()
}

func (r *PostgreSQLRepository) Delete(ctx context.Context, tx *sql.Tx, tenantID, versionID string) error {
	tracer := mtelemetry.Tracer("postgres.tombstone")
	ctx, span := tracer.Start(ctx, "postgres.delete_tombstone")
	defer span.End()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tombstones WHERE tenant_id = $1 AND version_id = $2`, tenantID, versionID); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to delete tombstone", err)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return apperrors.ValidatePGError(pgErr, reflect.TypeOf(domain.Tombstone{}).Name())
		}

		return err
	}

	return nil
}
