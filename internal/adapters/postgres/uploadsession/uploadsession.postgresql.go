package uploadsession

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

// Repository provides operations related to domain.UploadSession rows.
//
//go:generate mockgen --destination=uploadsession.mock.go --package=uploadsession . Repository
type Repository interface {
	Create(ctx context.Context, s *domain.UploadSession) (*domain.UploadSession, error)
	Find(ctx context.Context, tenantID, uploadID string) (*domain.UploadSession, error)
	// FindForUpdate locks the row, used by Complete/Commit/Abort so two
	// concurrent calls against the same upload session serialize.
	FindForUpdate(ctx context.Context, tx *sql.Tx, tenantID, uploadID string) (*domain.UploadSession, error)
	UpdateState(ctx context.Context, tx *sql.Tx, s *domain.UploadSession) error
	ListExpiredActive(ctx context.Context, asOf time.Time, limit int) ([]*domain.UploadSession, error)
}

// PostgreSQLRepository is the Postgres implementation of Repository.
type PostgreSQLRepository struct {
	connection *mpostgres.Connection
}

// NewPostgreSQLRepository returns a Repository bound to conn.
func NewPostgreSQLRepository(conn *mpostgres.Connection) *PostgreSQLRepository {
	return &PostgreSQLRepository{connection: conn}
}

const selectUploadSessionColumns = `SELECT upload_id, tenant_id, repo_id, expected_digest, expected_length, state,
	object_staging_key, storage_upload_id, committed_blob_digest, created_by, expires_at, created_at, updated_at,
	aborted_reason, deduped`

func (r *PostgreSQLRepository) Create(ctx context.Context, in *domain.UploadSession) (*domain.UploadSession, error) {
	tracer := mtelemetry.Tracer("postgres.uploadsession")
	ctx, span := tracer.Start(ctx, "postgres.create_upload_session")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}
	record.FromEntity(in)

	_, err = db.ExecContext(ctx,
		`INSERT INTO upload_sessions (upload_id, tenant_id, repo_id, expected_digest, expected_length, state,
		                              object_staging_key, storage_upload_id, created_by, expires_at, created_at, updated_at, deduped)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		record.UploadID, record.TenantID, record.RepoID, record.ExpectedDigest, record.ExpectedLength, record.State,
		record.ObjectStagingKey, record.StorageUploadID, record.CreatedBy, record.ExpiresAt, record.CreatedAt, record.UpdatedAt, record.Deduped)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to insert upload session", err)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, apperrors.ValidatePGError(pgErr, reflect.TypeOf(domain.UploadSession{}).Name())
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

func (r *PostgreSQLRepository) Find(ctx context.Context, tenantID, uploadID string) (*domain.UploadSession, error) {
	tracer := mtelemetry.Tracer("postgres.uploadsession")
	ctx, span := tracer.Start(ctx, "postgres.find_upload_session")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	row := db.QueryRowContext(ctx, selectUploadSessionColumns+` FROM upload_sessions WHERE tenant_id = $1 AND upload_id = $2`, tenantID, uploadID)

	return scanUploadSession(row, &span)
}

func (r *PostgreSQLRepository) FindForUpdate(ctx context.Context, tx *sql.Tx, tenantID, uploadID string) (*domain.UploadSession, error) {
	tracer := mtelemetry.Tracer("postgres.uploadsession")
	ctx, span := tracer.Start(ctx, "postgres.find_upload_session_for_update")
	defer span.End()

	row := tx.QueryRowContext(ctx, selectUploadSessionColumns+` FROM upload_sessions WHERE tenant_id = $1 AND upload_id = $2 FOR UPDATE`, tenantID, uploadID)

	return scanUploadSession(row, &span)
}

func (r *PostgreSQLRepository) UpdateState(ctx context.Context, tx *sql.Tx, in *domain.UploadSession) error {
	tracer := mtelemetry.Tracer("postgres.uploadsession")
	ctx, span := tracer.Start(ctx, "postgres.update_upload_session_state")
	defer span.End()

	record := &PostgreSQLModel{}
	record.FromEntity(in)

	_, err := tx.ExecContext(ctx,
		`UPDATE upload_sessions SET state = $1, committed_blob_digest = $2, aborted_reason = $3, deduped = $4, updated_at = $5
		 WHERE tenant_id = $6 AND upload_id = $7`,
		record.State, record.CommittedBlobDigest, record.AbortedReason, record.Deduped, record.UpdatedAt, record.TenantID, record.UploadID)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to update upload session state", err)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return apperrors.ValidatePGError(pgErr, reflect.TypeOf(domain.UploadSession{}).Name())
		}

		return err
	}

	return nil
}

// ListExpiredActive returns up to limit non-terminal sessions past their
// ExpiresAt, for the expiry sweeper (spec.md §4.1, §9).
func (r *PostgreSQLRepository) ListExpiredActive(ctx context.Context, asOf time.Time, limit int) ([]*domain.UploadSession, error) {
	tracer := mtelemetry.Tracer("postgres.uploadsession")
	ctx, span := tracer.Start(ctx, "postgres.list_expired_active_upload_sessions")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		selectUploadSessionColumns+` FROM upload_sessions
		 WHERE expires_at <= $1 AND state IN ($2, $3, $4)
		 ORDER BY expires_at ASC LIMIT $5`,
		asOf, string(domain.UploadSessionInitiated), string(domain.UploadSessionPartsUploading), string(domain.UploadSessionPendingCommit), limit)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to list expired upload sessions", err)
		return nil, err
	}
	defer rows.Close()

	var out []*domain.UploadSession

	for rows.Next() {
		record := &PostgreSQLModel{}
		if err := rows.Scan(&record.UploadID, &record.TenantID, &record.RepoID, &record.ExpectedDigest, &record.ExpectedLength,
			&record.State, &record.ObjectStagingKey, &record.StorageUploadID, &record.CommittedBlobDigest, &record.CreatedBy,
			&record.ExpiresAt, &record.CreatedAt, &record.UpdatedAt, &record.AbortedReason, &record.Deduped); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to scan upload session", err)
			return nil, err
		}

		out = append(out, record.ToEntity())
	}

	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUploadSession(row rowScanner, span *trace.Span) (*domain.UploadSession, error) {
	record := &PostgreSQLModel{}
	if err := row.Scan(&record.UploadID, &record.TenantID, &record.RepoID, &record.ExpectedDigest, &record.ExpectedLength,
		&record.State, &record.ObjectStagingKey, &record.StorageUploadID, &record.CommittedBlobDigest, &record.CreatedBy,
		&record.ExpiresAt, &record.CreatedAt, &record.UpdatedAt, &record.AbortedReason, &record.Deduped); err != nil {
		mtelemetry.HandleSpanError(span, "failed to scan upload session", err)

		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ValidateBusinessError(cn.ErrEntityNotFound, reflect.TypeOf(domain.UploadSession{}).Name())
		}

		return nil, err
	}

	return record.ToEntity(), nil
}
