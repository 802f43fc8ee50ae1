package searchjob

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
)

// Repository provides operations related to domain.SearchIndexJob rows.
//
//go:generate mockgen --destination=searchjob.mock.go --package=searchjob . Repository
type Repository interface {
	// Enqueue upserts a pending job for (tenantID, versionID) within tx, so
	// a version that is published twice (outbox retry) converges on one
	// queue entry rather than piling up duplicates.
	Enqueue(ctx context.Context, tx *sql.Tx, tenantID, versionID string) error
	// ClaimBatch locks up to limit due, non-terminal jobs with attempts <
	// maxAttempts, via FOR UPDATE SKIP LOCKED, mirroring the outbox claim
	// pattern. A job that has exhausted maxAttempts is excluded from the
	// query rather than marked terminal — spec.md §9's dead-letter-by-omission.
	ClaimBatch(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*domain.SearchIndexJob, error)
	MarkCompleted(ctx context.Context, jobID string, at time.Time) error
	MarkFailed(ctx context.Context, jobID string, availableAt time.Time, lastError string) error
}

// PostgreSQLRepository is the Postgres implementation of Repository.
type PostgreSQLRepository struct {
	connection *mpostgres.Connection
}

// NewPostgreSQLRepository returns a Repository bound to conn.
func NewPostgreSQLRepository(conn *mpostgres.Connection) *PostgreSQLRepository {
	return &PostgreSQLRepository{connection: conn}
}

func (r *PostgreSQLRepository) Enqueue(ctx context.Context, tx *sql.Tx, tenantID, versionID string) error {
	tracer := mtelemetry.Tracer("postgres.searchjob")
	ctx, span := tracer.Start(ctx, "postgres.enqueue_search_job")
	defer span.End()

	now := time.Now().UTC()

	_, err := tx.ExecContext(ctx,
		`INSERT INTO search_index_jobs (job_id, tenant_id, version_id, status, available_at, attempts, created_at, updated_at)
		 VALUES (gen_random_uuid(), $1, $2, $3, $4, 0, $4, $4)
		 ON CONFLICT (tenant_id, version_id) DO UPDATE
		   SET status = $3, available_at = $4, updated_at = $4, attempts = 0, last_error = NULL
		   WHERE search_index_jobs.status IN ('completed', 'failed')`,
		tenantID, versionID, string(domain.SearchJobPending), now)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to enqueue search index job", err)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return apperrors.ValidatePGError(pgErr, reflect.TypeOf(domain.SearchIndexJob{}).Name())
		}

		return err
	}

	return nil
}

func (r *PostgreSQLRepository) ClaimBatch(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*domain.SearchIndexJob, error) {
	tracer := mtelemetry.Tracer("postgres.searchjob")
	ctx, span := tracer.Start(ctx, "postgres.claim_search_job_batch")
	defer span.End()

	tx, err := r.connection.BeginTx(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to begin claim transaction", err)
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT job_id, tenant_id, version_id, status, available_at, attempts, last_error, created_at, updated_at
		 FROM search_index_jobs
		 WHERE status IN ('pending', 'failed') AND available_at <= $1 AND attempts < $2
		 ORDER BY available_at ASC, created_at ASC
		 LIMIT $3
		 FOR UPDATE SKIP LOCKED`,
		now, maxAttempts, limit)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to select claimable search jobs", err)
		return nil, err
	}

	var out []*domain.SearchIndexJob

	for rows.Next() {
		record := &PostgreSQLModel{}
		if err := rows.Scan(&record.JobID, &record.TenantID, &record.VersionID, &record.Status, &record.AvailableAt,
			&record.Attempts, &record.LastError, &record.CreatedAt, &record.UpdatedAt); err != nil {
			rows.Close()
			mtelemetry.HandleSpanError(&span, "failed to scan search job", err)
			return nil, err
		}

		out = append(out, record.ToEntity())
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, j := range out {
		if _, err := tx.ExecContext(ctx,
			`UPDATE search_index_jobs SET status = $1, updated_at = $2 WHERE job_id = $3`,
			string(domain.SearchJobProcessing), now, j.JobID); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to mark search job processing", err)
			return nil, err
		}

		j.Status = domain.SearchJobProcessing
	}

	if err := tx.Commit(); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to commit search job claim", err)
		return nil, err
	}

	return out, nil
}

func (r *PostgreSQLRepository) MarkCompleted(ctx context.Context, jobID string, at time.Time) error {
	tracer := mtelemetry.Tracer("postgres.searchjob")
	ctx, span := tracer.Start(ctx, "postgres.mark_search_job_completed")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return err
	}

	if _, err := db.ExecContext(ctx,
		`UPDATE search_index_jobs SET status = $1, updated_at = $2, last_error = NULL WHERE job_id = $3`,
		string(domain.SearchJobCompleted), at, jobID); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to mark search job completed", err)
		return err
	}

	return nil
}

func (r *PostgreSQLRepository) MarkFailed(ctx context.Context, jobID string, availableAt time.Time, lastError string) error {
	tracer := mtelemetry.Tracer("postgres.searchjob")
	ctx, span := tracer.Start(ctx, "postgres.mark_search_job_failed")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return err
	}

	if _, err := db.ExecContext(ctx,
		`UPDATE search_index_jobs SET status = $1, available_at = $2, attempts = attempts + 1, last_error = $3, updated_at = $2 WHERE job_id = $4`,
		string(domain.SearchJobFailed), availableAt, lastError, jobID); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to mark search job failed", err)
		return err
	}

	return nil
}
