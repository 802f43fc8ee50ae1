package gcrun

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"time"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
	"github.com/sremani/artifortress/internal/platform/mpostgres"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// Repository provides operations related to domain.GcRun and domain.GcMark
// rows: the run ledger and its run-scoped reachability marks.
//
//go:generate mockgen --destination=gcrun.mock.go --package=gcrun . Repository
type Repository interface {
	Create(ctx context.Context, g *domain.GcRun) (*domain.GcRun, error)
	Find(ctx context.Context, tenantID, runID string) (*domain.GcRun, error)
	Complete(ctx context.Context, g *domain.GcRun) error

	// MarkReachableBatch records digests as reachable under runID. Called
	// repeatedly over the mark phase's paginated scan of artifact_entries
	// and manifest blobs.
	MarkReachableBatch(ctx context.Context, runID string, digests []string) error
	// ListUnmarkedCandidates returns up to limit blob digests older than
	// olderThan that have no mark row under runID — the sweep phase's
	// deletion candidates.
	ListUnmarkedCandidates(ctx context.Context, runID string, olderThan time.Time, limit int) ([]string, error)
	// DeleteBlob removes a blobs row within tx, for execute-mode sweeps.
	DeleteBlob(ctx context.Context, tx *sql.Tx, digest string) error
}

// PostgreSQLRepository is the Postgres implementation of Repository.
type PostgreSQLRepository struct {
	connection *mpostgres.Connection
}

// NewPostgreSQLRepository returns a Repository bound to conn.
func NewPostgreSQLRepository(conn *mpostgres.Connection) *PostgreSQLRepository {
	return &PostgreSQLRepository{connection: conn}
}

func (r *PostgreSQLRepository) Create(ctx context.Context, in *domain.GcRun) (*domain.GcRun, error) {
	tracer := mtelemetry.Tracer("postgres.gcrun")
	ctx, span := tracer.Start(ctx, "postgres.create_gc_run")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}
	record.FromEntity(in)

	_, err = db.ExecContext(ctx,
		`INSERT INTO gc_runs (run_id, tenant_id, initiated_by, mode, retention_grace_hours, batch_size, started_at,
		                      marked, candidate_blobs, deleted_blobs, deleted_versions, delete_errors)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, 0, 0, 0)`,
		record.RunID, record.TenantID, record.InitiatedBy, record.Mode, record.RetentionGraceHours, record.BatchSize, record.StartedAt)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to insert gc run", err)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, apperrors.ValidatePGError(pgErr, reflect.TypeOf(domain.GcRun{}).Name())
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

func (r *PostgreSQLRepository) Find(ctx context.Context, tenantID, runID string) (*domain.GcRun, error) {
	tracer := mtelemetry.Tracer("postgres.gcrun")
	ctx, span := tracer.Start(ctx, "postgres.find_gc_run")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}

	row := db.QueryRowContext(ctx,
		`SELECT run_id, tenant_id, initiated_by, mode, retention_grace_hours, batch_size, started_at, completed_at,
		        marked, candidate_blobs, deleted_blobs, deleted_versions, delete_errors
		 FROM gc_runs WHERE tenant_id = $1 AND run_id = $2`, tenantID, runID)
	if err := row.Scan(&record.RunID, &record.TenantID, &record.InitiatedBy, &record.Mode, &record.RetentionGraceHours,
		&record.BatchSize, &record.StartedAt, &record.CompletedAt, &record.Marked, &record.CandidateBlobs,
		&record.DeletedBlobs, &record.DeletedVersions, &record.DeleteErrors); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to scan gc run", err)

		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ValidateBusinessError(cn.ErrEntityNotFound, reflect.TypeOf(domain.GcRun{}).Name())
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

// Complete writes g's final counters and CompletedAt, closing out the run.
func (r *PostgreSQLRepository) Complete(ctx context.Context, in *domain.GcRun) error {
	tracer := mtelemetry.Tracer("postgres.gcrun")
	ctx, span := tracer.Start(ctx, "postgres.complete_gc_run")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return err
	}

	record := &PostgreSQLModel{}
	record.FromEntity(in)

	_, err = db.ExecContext(ctx,
		`UPDATE gc_runs SET completed_at = $1, marked = $2, candidate_blobs = $3, deleted_blobs = $4,
		                     deleted_versions = $5, delete_errors = $6 WHERE run_id = $7`,
		record.CompletedAt, record.Marked, record.CandidateBlobs, record.DeletedBlobs,
		record.DeletedVersions, record.DeleteErrors, record.RunID)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to complete gc run", err)
		return err
	}

	return nil
}

func (r *PostgreSQLRepository) MarkReachableBatch(ctx context.Context, runID string, digests []string) error {
	tracer := mtelemetry.Tracer("postgres.gcrun")
	ctx, span := tracer.Start(ctx, "postgres.mark_reachable_batch")
	defer span.End()

	if len(digests) == 0 {
		return nil
	}

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return err
	}

	now := time.Now().UTC()

	for _, digest := range digests {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO gc_marks (run_id, digest, marked_at) VALUES ($1, $2, $3) ON CONFLICT (run_id, digest) DO NOTHING`,
			runID, digest, now); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to insert gc mark", err)
			return err
		}
	}

	return nil
}

func (r *PostgreSQLRepository) ListUnmarkedCandidates(ctx context.Context, runID string, olderThan time.Time, limit int) ([]string, error) {
	tracer := mtelemetry.Tracer("postgres.gcrun")
	ctx, span := tracer.Start(ctx, "postgres.list_unmarked_blob_candidates")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	candidateQuery := sqrl.Select("b.digest").
		From("blobs b").
		Where(sqrl.Lt{"b.created_at": olderThan}).
		Where(sqrl.Expr("NOT EXISTS (SELECT 1 FROM gc_marks m WHERE m.run_id = ? AND m.digest = b.digest)", runID)).
		OrderBy("b.created_at ASC").
		Limit(uint64(limit)).
		PlaceholderFormat(sqrl.Dollar)

	query, args, err := candidateQuery.ToSql()
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to build candidate query", err)
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to list unmarked blob candidates", err)
		return nil, err
	}
	defer rows.Close()

	var digests []string

	for rows.Next() {
		var digest string
		if err := rows.Scan(&digest); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to scan candidate digest", err)
			return nil, err
		}

		digests = append(digests, digest)
	}

	return digests, rows.Err()
}

// DeleteBlob removes the blobs row for digest within tx. Callers must have
// already deleted/confirmed absence of the underlying object-store payload.
func (r *PostgreSQLRepository) DeleteBlob(ctx context.Context, tx *sql.Tx, digest string) error {
	tracer := mtelemetry.Tracer("postgres.gcrun")
	ctx, span := tracer.Start(ctx, "postgres.delete_blob")
	defer span.End()

	if _, err := tx.ExecContext(ctx, `DELETE FROM blobs WHERE digest = $1`, digest); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to delete blob", err)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return apperrors.ValidatePGError(pgErr, reflect.TypeOf(domain.GcRun{}).Name())
		}

		return err
	}

	return nil
}
