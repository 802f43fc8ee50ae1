package tenant

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

// Repository provides operations related to Tenant rows.
//
//go:generate mockgen --destination=tenant.mock.go --package=tenant . Repository
type Repository interface {
	Create(ctx context.Context, t *domain.Tenant) (*domain.Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
	Find(ctx context.Context, id string) (*domain.Tenant, error)
}

// PostgreSQLRepository is the Postgres implementation of Repository.
type PostgreSQLRepository struct {
	connection *mpostgres.Connection
	tableName  string
}

// NewPostgreSQLRepository returns a Repository bound to conn.
func NewPostgreSQLRepository(conn *mpostgres.Connection) *PostgreSQLRepository {
	return &PostgreSQLRepository{connection: conn, tableName: "tenants"}
}

func (r *PostgreSQLRepository) Create(ctx context.Context, t *domain.Tenant) (*domain.Tenant, error) {
	tracer := mtelemetry.Tracer("postgres.tenant")
	ctx, span := tracer.Start(ctx, "postgres.create_tenant")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}
	record.FromEntity(t)

	_, err = db.ExecContext(ctx,
		`INSERT INTO tenants (id, slug, name, created_at) VALUES ($1, $2, $3, $4)`,
		record.ID, record.Slug, record.Name, record.CreatedAt)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to insert tenant", err)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, apperrors.ValidatePGError(pgErr, reflect.TypeOf(domain.Tenant{}).Name())
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

func (r *PostgreSQLRepository) FindBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	tracer := mtelemetry.Tracer("postgres.tenant")
	ctx, span := tracer.Start(ctx, "postgres.find_tenant_by_slug")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}

	row := db.QueryRowContext(ctx, `SELECT id, slug, name, created_at FROM tenants WHERE slug = $1`, slug)
	if err := row.Scan(&record.ID, &record.Slug, &record.Name, &record.CreatedAt); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to scan tenant", err)

		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ValidateBusinessError(cn.ErrEntityNotFound, reflect.TypeOf(domain.Tenant{}).Name())
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

func (r *PostgreSQLRepository) Find(ctx context.Context, id string) (*domain.Tenant, error) {
	tracer := mtelemetry.Tracer("postgres.tenant")
	ctx, span := tracer.Start(ctx, "postgres.find_tenant")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}

	row := db.QueryRowContext(ctx, `SELECT id, slug, name, created_at FROM tenants WHERE id = $1`, id)
	if err := row.Scan(&record.ID, &record.Slug, &record.Name, &record.CreatedAt); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to scan tenant", err)

		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ValidateBusinessError(cn.ErrEntityNotFound, reflect.TypeOf(domain.Tenant{}).Name())
		}

		return nil, err
	}

	return record.ToEntity(), nil
}
