package pkgmeta

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

// Repository provides operations related to domain.Package rows. Uniqueness
// key: (repo, package_type, COALESCE(namespace,''), name), enforced by a
// Postgres unique index (spec.md §3, §9).
//
//go:generate mockgen --destination=pkgmeta.mock.go --package=pkgmeta . Repository
type Repository interface {
	Create(ctx context.Context, p *domain.Package) (*domain.Package, error)
	FindOrCreate(ctx context.Context, p *domain.Package) (*domain.Package, error)
	Find(ctx context.Context, id string) (*domain.Package, error)
}

// PostgreSQLRepository is the Postgres implementation of Repository.
type PostgreSQLRepository struct {
	connection *mpostgres.Connection
}

// NewPostgreSQLRepository returns a Repository bound to conn.
func NewPostgreSQLRepository(conn *mpostgres.Connection) *PostgreSQLRepository {
	return &PostgreSQLRepository{connection: conn}
}

func (r *PostgreSQLRepository) Create(ctx context.Context, in *domain.Package) (*domain.Package, error) {
	tracer := mtelemetry.Tracer("postgres.pkgmeta")
	ctx, span := tracer.Start(ctx, "postgres.create_package")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}
	record.FromEntity(in)

	_, err = db.ExecContext(ctx,
		`INSERT INTO packages (id, tenant_id, repo_id, package_type, namespace, name, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID, record.TenantID, record.RepoID, record.PackageType, record.Namespace, record.Name, record.CreatedAt)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to insert package", err)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, apperrors.ValidatePGError(pgErr, reflect.TypeOf(domain.Package{}).Name())
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

// FindOrCreate inserts p unless its unique key already exists, in which case
// the existing row is returned — packages have no separate "create" client
// operation in spec.md; a draft version's publish path implicitly resolves
// its Package coordinate.
func (r *PostgreSQLRepository) FindOrCreate(ctx context.Context, in *domain.Package) (*domain.Package, error) {
	tracer := mtelemetry.Tracer("postgres.pkgmeta")
	ctx, span := tracer.Start(ctx, "postgres.find_or_create_package")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}
	record.FromEntity(in)

	row := db.QueryRowContext(ctx,
		`INSERT INTO packages (id, tenant_id, repo_id, package_type, namespace, name, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (repo_id, package_type, COALESCE(namespace, ''), name) DO UPDATE SET name = packages.name
		 RETURNING id, tenant_id, repo_id, package_type, namespace, name, created_at`,
		record.ID, record.TenantID, record.RepoID, record.PackageType, record.Namespace, record.Name, record.CreatedAt)

	out := &PostgreSQLModel{}
	if err := row.Scan(&out.ID, &out.TenantID, &out.RepoID, &out.PackageType, &out.Namespace, &out.Name, &out.CreatedAt); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to upsert package", err)
		return nil, err
	}

	return out.ToEntity(), nil
}

func (r *PostgreSQLRepository) Find(ctx context.Context, id string) (*domain.Package, error) {
	tracer := mtelemetry.Tracer("postgres.pkgmeta")
	ctx, span := tracer.Start(ctx, "postgres.find_package")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}

	row := db.QueryRowContext(ctx,
		`SELECT id, tenant_id, repo_id, package_type, namespace, name, created_at FROM packages WHERE id = $1`, id)
	if err := row.Scan(&record.ID, &record.TenantID, &record.RepoID, &record.PackageType, &record.Namespace, &record.Name, &record.CreatedAt); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to scan package", err)

		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ValidateBusinessError(cn.ErrEntityNotFound, reflect.TypeOf(domain.Package{}).Name())
		}

		return nil, err
	}

	return record.ToEntity(), nil
}
