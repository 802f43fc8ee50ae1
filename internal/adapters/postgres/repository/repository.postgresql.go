package repository

import (
	"context"
	"database/sql"
	"errors"
	"reflect"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
	"github.com/sremani/artifortress/internal/platform/mpostgres"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// Store provides operations related to domain.Repository rows.
//
//go:generate mockgen --destination=repository.mock.go --package=repository . Store
type Store interface {
	Create(ctx context.Context, r *domain.Repository) (*domain.Repository, error)
	FindByKey(ctx context.Context, tenantID, repoKey string) (*domain.Repository, error)
	Find(ctx context.Context, tenantID, id string) (*domain.Repository, error)
}

// PostgreSQLRepository is the Postgres implementation of Store.
type PostgreSQLRepository struct {
	connection *mpostgres.Connection
	tableName  string
}

// NewPostgreSQLRepository returns a Store bound to conn.
func NewPostgreSQLRepository(conn *mpostgres.Connection) *PostgreSQLRepository {
	return &PostgreSQLRepository{connection: conn, tableName: "repositories"}
}

func (r *PostgreSQLRepository) Create(ctx context.Context, in *domain.Repository) (*domain.Repository, error) {
	tracer := mtelemetry.Tracer("postgres.repository")
	ctx, span := tracer.Start(ctx, "postgres.create_repository")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}
	if err := record.FromEntity(in); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to marshal repository config", err)
		return nil, err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO repositories (id, tenant_id, repo_key, type, config, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID, record.TenantID, record.RepoKey, record.Type, record.Config, record.CreatedAt)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to insert repository", err)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, apperrors.ValidatePGError(pgErr, reflect.TypeOf(domain.Repository{}).Name())
		}

		return nil, err
	}

	return record.ToEntity()
}

func (r *PostgreSQLRepository) FindByKey(ctx context.Context, tenantID, repoKey string) (*domain.Repository, error) {
	tracer := mtelemetry.Tracer("postgres.repository")
	ctx, span := tracer.Start(ctx, "postgres.find_repository_by_key")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}

	row := db.QueryRowContext(ctx,
		`SELECT id, tenant_id, repo_key, type, config, created_at FROM repositories WHERE tenant_id = $1 AND repo_key = $2`,
		tenantID, repoKey)
	if err := row.Scan(&record.ID, &record.TenantID, &record.RepoKey, &record.Type, &record.Config, &record.CreatedAt); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to scan repository", err)

		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ValidateBusinessError(cn.ErrEntityNotFound, reflect.TypeOf(domain.Repository{}).Name())
		}

		return nil, err
	}

	return record.ToEntity()
}

func (r *PostgreSQLRepository) Find(ctx context.Context, tenantID, id string) (*domain.Repository, error) {
	tracer := mtelemetry.Tracer("postgres.repository")
	ctx, span := tracer.Start(ctx, "postgres.find_repository")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}

	row := db.QueryRowContext(ctx,
		`SELECT id, tenant_id, repo_key, type, config, created_at FROM repositories WHERE tenant_id = $1 AND id = $2`,
		tenantID, id)
	if err := row.Scan(&record.ID, &record.TenantID, &record.RepoKey, &record.Type, &record.Config, &record.CreatedAt); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to scan repository", err)

		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ValidateBusinessError(cn.ErrEntityNotFound, reflect.TypeOf(domain.Repository{}).Name())
		}

		return nil, err
	}

	return record.ToEntity()
}
