package quarantine

import (
	"context"
	"database/sql"
	"errors"
	"reflect"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
	"github.com/sremani/artifortress/internal/platform/mpostgres"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// Repository provides operations related to domain.QuarantineItem rows.
//
//go:generate mockgen --destination=quarantine.mock.go --package=quarantine . Repository
type Repository interface {
	Create(ctx context.Context, q *domain.QuarantineItem) (*domain.QuarantineItem, error)
	FindActiveByVersion(ctx context.Context, tenantID, versionID string) (*domain.QuarantineItem, error)
	FindByID(ctx context.Context, tenantID, id string) (*domain.QuarantineItem, error)
	Resolve(ctx context.Context, id string, status domain.QuarantineStatus, resolvedBy string) error
	ListByRepo(ctx context.Context, tenantID, repoID string, status domain.QuarantineStatus, offset, limit int) ([]*domain.QuarantineItem, error)
}

// PostgreSQLRepository is the Postgres implementation of Repository.
type PostgreSQLRepository struct {
	connection *mpostgres.Connection
}

// NewPostgreSQLRepository returns a Repository bound to conn.
func NewPostgreSQLRepository(conn *mpostgres.Connection) *PostgreSQLRepository {
	return &PostgreSQLRepository{connection: conn}
}

func (r *PostgreSQLRepository) Create(ctx context.Context, in *domain.QuarantineItem) (*domain.QuarantineItem, error) {
	tracer := mtelemetry.Tracer("postgres.quarantine")
	ctx, span := tracer.Start(ctx, "postgres.create_quarantine_item")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}
	record.FromEntity(in)

	_, err = db.ExecContext(ctx,
		`INSERT INTO quarantine_items (id, tenant_id, repo_id, version_id, status, reason, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ID, record.TenantID, record.RepoID, record.VersionID, record.Status, record.Reason, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to insert quarantine item", err)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, apperrors.ValidatePGError(pgErr, reflect.TypeOf(domain.QuarantineItem{}).Name())
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

func (r *PostgreSQLRepository) FindActiveByVersion(ctx context.Context, tenantID, versionID string) (*domain.QuarantineItem, error) {
	tracer := mtelemetry.Tracer("postgres.quarantine")
	ctx, span := tracer.Start(ctx, "postgres.find_active_quarantine_by_version")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}

	row := db.QueryRowContext(ctx,
		`SELECT id, tenant_id, repo_id, version_id, status, reason, created_at, updated_at, resolved_by
		 FROM quarantine_items WHERE tenant_id = $1 AND version_id = $2 AND status IN ($3, $4)
		 ORDER BY created_at DESC LIMIT 1`,
		tenantID, versionID, string(domain.QuarantineStatusQuarantined), string(domain.QuarantineStatusRejected))
	if err := row.Scan(&record.ID, &record.TenantID, &record.RepoID, &record.VersionID, &record.Status,
		&record.Reason, &record.CreatedAt, &record.UpdatedAt, &record.ResolvedBy); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to scan quarantine item", err)

		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ValidateBusinessError(cn.ErrEntityNotFound, reflect.TypeOf(domain.QuarantineItem{}).Name())
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

func (r *PostgreSQLRepository) FindByID(ctx context.Context, tenantID, id string) (*domain.QuarantineItem, error) {
	tracer := mtelemetry.Tracer("postgres.quarantine")
	ctx, span := tracer.Start(ctx, "postgres.find_quarantine_by_id")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}

	row := db.QueryRowContext(ctx,
		`SELECT id, tenant_id, repo_id, version_id, status, reason, created_at, updated_at, resolved_by
		 FROM quarantine_items WHERE tenant_id = $1 AND id = $2`,
		tenantID, id)
	if err := row.Scan(&record.ID, &record.TenantID, &record.RepoID, &record.VersionID, &record.Status,
		&record.Reason, &record.CreatedAt, &record.UpdatedAt, &record.ResolvedBy); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to scan quarantine item", err)

		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ValidateBusinessError(cn.ErrEntityNotFound, reflect.TypeOf(domain.QuarantineItem{}).Name())
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

func (r *PostgreSQLRepository) Resolve(ctx context.Context, id string, status domain.QuarantineStatus, resolvedBy string) error {
	tracer := mtelemetry.Tracer("postgres.quarantine")
	ctx, span := tracer.Start(ctx, "postgres.resolve_quarantine_item")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return err
	}

	if _, err := db.ExecContext(ctx,
		`UPDATE quarantine_items SET status = $1, resolved_by = $2, updated_at = now() WHERE id = $3`,
		string(status), resolvedBy, id); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to resolve quarantine item", err)
		return err
	}

	return nil
}

// ListByRepo lists repoID's quarantine items, optionally narrowed to status
// (an empty status lists every status). The predicate's shape varies with
// that optional filter, so the query is squirrel-built rather than one more
// hand-written statement.
func (r *PostgreSQLRepository) ListByRepo(ctx context.Context, tenantID, repoID string, status domain.QuarantineStatus, offset, limit int) ([]*domain.QuarantineItem, error) {
	tracer := mtelemetry.Tracer("postgres.quarantine")
	ctx, span := tracer.Start(ctx, "postgres.list_quarantine_by_repo")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	listQuery := sqrl.Select("id", "tenant_id", "repo_id", "version_id", "status", "reason", "created_at", "updated_at", "resolved_by").
		From("quarantine_items").
		Where(sqrl.Eq{"tenant_id": tenantID, "repo_id": repoID}).
		OrderBy("created_at DESC").
		Offset(uint64(offset)).
		Limit(uint64(limit)).
		PlaceholderFormat(sqrl.Dollar)

	if status != "" {
		listQuery = listQuery.Where(sqrl.Eq{"status": string(status)})
	}

	query, args, err := listQuery.ToSql()
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to build quarantine list query", err)
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to list quarantine items", err)
		return nil, err
	}
	defer rows.Close()

	var out []*domain.QuarantineItem

	for rows.Next() {
		record := &PostgreSQLModel{}
		if err := rows.Scan(&record.ID, &record.TenantID, &record.RepoID, &record.VersionID, &record.Status,
			&record.Reason, &record.CreatedAt, &record.UpdatedAt, &record.ResolvedBy); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to scan quarantine item", err)
			return nil, err
		}

		out = append(out, record.ToEntity())
	}

	return out, rows.Err()
}
