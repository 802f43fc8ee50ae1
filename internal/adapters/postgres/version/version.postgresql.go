package version

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
	"github.com/sremani/artifortress/internal/platform/mpostgres"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// Repository provides operations related to domain.PackageVersion rows. The
// FindForUpdate/UpdateState pair is meant to run inside a transaction opened
// by the caller (mpostgres.Connection.BeginTx) so the Publish Engine can lock
// a version, check its state, and write its outbox row atomically (spec.md
// §4.2, §9).
//
//go:generate mockgen --destination=version.mock.go --package=version . Repository
type Repository interface {
	Create(ctx context.Context, v *domain.PackageVersion) (*domain.PackageVersion, error)
	Find(ctx context.Context, tenantID, id string) (*domain.PackageVersion, error)
	FindForUpdate(ctx context.Context, tx *sql.Tx, tenantID, id string) (*domain.PackageVersion, error)
	UpdateState(ctx context.Context, tx *sql.Tx, v *domain.PackageVersion) error
	ListTombstonedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.PackageVersion, error)
	// Delete removes the version row within tx. Schema-level ON DELETE
	// CASCADE handles artifact_entries/manifests/search_index_jobs/
	// quarantine_items/policy_evaluations; ON DELETE SET NULL handles upload_sessions'
	// committed_blob_digest reference (spec.md §4.3's GC sweep).
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

func (r *PostgreSQLRepository) Create(ctx context.Context, in *domain.PackageVersion) (*domain.PackageVersion, error) {
	tracer := mtelemetry.Tracer("postgres.version")
	ctx, span := tracer.Start(ctx, "postgres.create_version")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}
	record.FromEntity(in)

	_, err = db.ExecContext(ctx,
		`INSERT INTO package_versions (id, tenant_id, repo_id, package_id, version, state, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ID, record.TenantID, record.RepoID, record.PackageID, record.Version, record.State, record.CreatedBy, record.CreatedAt)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to insert version", err)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, apperrors.ValidatePGError(pgErr, reflect.TypeOf(domain.PackageVersion{}).Name())
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

func (r *PostgreSQLRepository) Find(ctx context.Context, tenantID, id string) (*domain.PackageVersion, error) {
	tracer := mtelemetry.Tracer("postgres.version")
	ctx, span := tracer.Start(ctx, "postgres.find_version")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	row := db.QueryRowContext(ctx, selectVersionColumns+` FROM package_versions WHERE tenant_id = $1 AND id = $2`, tenantID, id)

	return scanVersion(row, &span)
}

// FindForUpdate locks the row with SELECT ... FOR UPDATE so a concurrent
// publish/tombstone attempt against the same version blocks until tx
// commits or rolls back (spec.md §4.2's publish-transition idempotency
// race).
func (r *PostgreSQLRepository) FindForUpdate(ctx context.Context, tx *sql.Tx, tenantID, id string) (*domain.PackageVersion, error) {
	tracer := mtelemetry.Tracer("postgres.version")
	ctx, span := tracer.Start(ctx, "postgres.find_version_for_update")
	defer span.End()

	row := tx.QueryRowContext(ctx, selectVersionColumns+` FROM package_versions WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id)

	return scanVersion(row, &span)
}

// UpdateState persists v's State/PublishedAt/TombstonedAt/TombstoneReason
// within tx. Callers must have already validated the transition via
// domain.PackageVersion.CanTransitionTo; the deny_published_version_mutation
// trigger is the backstop against anything else.
func (r *PostgreSQLRepository) UpdateState(ctx context.Context, tx *sql.Tx, in *domain.PackageVersion) error {
	tracer := mtelemetry.Tracer("postgres.version")
	ctx, span := tracer.Start(ctx, "postgres.update_version_state")
	defer span.End()

	record := &PostgreSQLModel{}
	record.FromEntity(in)

	_, err := tx.ExecContext(ctx,
		`UPDATE package_versions SET state = $1, published_at = $2, tombstoned_at = $3, tombstone_reason = $4
		 WHERE tenant_id = $5 AND id = $6`,
		record.State, record.PublishedAt, record.TombstonedAt, record.TombstoneReason, record.TenantID, record.ID)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to update version state", err)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return apperrors.ValidatePGError(pgErr, reflect.TypeOf(domain.PackageVersion{}).Name())
		}

		return err
	}

	return nil
}

// ListTombstonedBefore returns up to limit tombstoned versions whose
// TombstonedAt predates cutoff, for the GC engine's candidate-selection
// pass (spec.md §5).
func (r *PostgreSQLRepository) ListTombstonedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.PackageVersion, error) {
	tracer := mtelemetry.Tracer("postgres.version")
	ctx, span := tracer.Start(ctx, "postgres.list_tombstoned_versions")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		selectVersionColumns+` FROM package_versions WHERE state = $1 AND tombstoned_at < $2 ORDER BY tombstoned_at ASC LIMIT $3`,
		string(domain.VersionStateTombstoned), cutoff, limit)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to list tombstoned versions", err)
		return nil, err
	}
	defer rows.Close()

	var out []*domain.PackageVersion

	for rows.Next() {
		record := &PostgreSQLModel{}
		if err := rows.Scan(&record.ID, &record.TenantID, &record.RepoID, &record.PackageID, &record.Version, &record.State,
			&record.PublishedAt, &record.CreatedBy, &record.CreatedAt, &record.TombstonedAt, &record.TombstoneReason); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to scan tombstoned version", err)
			return nil, err
		}

		out = append(out, record.ToEntity())
	}

	return out, rows.Err()
}

func (r *PostgreSQLRepository) Delete(ctx context.Context, tx *sql.Tx, tenantID, versionID string) error {
	tracer := mtelemetry.Tracer("postgres.version")
	ctx, span := tracer.Start(ctx, "postgres.delete_version")
	defer span.End()

	if _, err := tx.ExecContext(ctx, `DELETE FROM package_versions WHERE tenant_id = $1 AND id = $2`, tenantID, versionID); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to delete version", err)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return apperrors.ValidatePGError(pgErr, reflect.TypeOf(domain.PackageVersion{}).Name())
		}

		return err
	}

	return nil
}

const selectVersionColumns = `SELECT id, tenant_id, repo_id, package_id, version, state, published_at, created_by, created_at, tombstoned_at, tombstone_reason`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner, span *trace.Span) (*domain.PackageVersion, error) {
	record := &PostgreSQLModel{}
	if err := row.Scan(&record.ID, &record.TenantID, &record.RepoID, &record.PackageID, &record.Version, &record.State,
		&record.PublishedAt, &record.CreatedBy, &record.CreatedAt, &record.TombstonedAt, &record.TombstoneReason); err != nil {
		mtelemetry.HandleSpanError(span, "failed to scan version", err)

		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ValidateBusinessError(cn.ErrEntityNotFound, reflect.TypeOf(domain.PackageVersion{}).Name())
		}

		return nil, err
	}

	return record.ToEntity(), nil
}
