package blob

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

// Repository provides operations related to domain.Blob rows. Digest is the
// primary key, so Create must tolerate two uploads of the same content
// committing concurrently (spec.md §4.1).
//
//go:generate mockgen --destination=blob.mock.go --package=blob . Repository
type Repository interface {
	Create(ctx context.Context, b *domain.Blob) (*domain.Blob, error)
	Find(ctx context.Context, digest string) (*domain.Blob, error)
	Exists(ctx context.Context, digest string) (bool, error)
	// ListOrphans returns the total count of blobs referenced by no
	// artifact entry and no manifest, plus up to limit sample digests, the
	// reconciler's "orphan blobs" bucket (spec.md §4.5).
	ListOrphans(ctx context.Context, limit int) (sampleDigests []string, total int, err error)
}

// PostgreSQLRepository is the Postgres implementation of Repository.
type PostgreSQLRepository struct {
	connection *mpostgres.Connection
}

// NewPostgreSQLRepository returns a Repository bound to conn.
func NewPostgreSQLRepository(conn *mpostgres.Connection) *PostgreSQLRepository {
	return &PostgreSQLRepository{connection: conn}
}

// Create inserts b, or silently no-ops if the digest already exists: the
// loser of a concurrent-commit race takes the dedupe path instead of
// surfacing a conflict (spec.md §4.1).
func (r *PostgreSQLRepository) Create(ctx context.Context, in *domain.Blob) (*domain.Blob, error) {
	tracer := mtelemetry.Tracer("postgres.blob")
	ctx, span := tracer.Start(ctx, "postgres.create_blob")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}
	record.FromEntity(in)

	_, err = db.ExecContext(ctx,
		`INSERT INTO blobs (digest, length_bytes, storage_key, object_etag, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (digest) DO NOTHING`,
		record.Digest, record.LengthBytes, record.StorageKey, record.ObjectETag, record.CreatedAt)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to insert blob", err)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, apperrors.ValidatePGError(pgErr, reflect.TypeOf(domain.Blob{}).Name())
		}

		return nil, err
	}

	return r.Find(ctx, record.Digest)
}

func (r *PostgreSQLRepository) Find(ctx context.Context, digest string) (*domain.Blob, error) {
	tracer := mtelemetry.Tracer("postgres.blob")
	ctx, span := tracer.Start(ctx, "postgres.find_blob")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}

	row := db.QueryRowContext(ctx,
		`SELECT digest, length_bytes, storage_key, object_etag, created_at FROM blobs WHERE digest = $1`, digest)
	if err := row.Scan(&record.Digest, &record.LengthBytes, &record.StorageKey, &record.ObjectETag, &record.CreatedAt); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to scan blob", err)

		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ValidateBusinessError(cn.ErrEntityNotFound, reflect.TypeOf(domain.Blob{}).Name())
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

// Exists backs the Upload Session Manager's dedupe fast path: a Redis miss
// always falls through to this check before any multipart upload begins.
func (r *PostgreSQLRepository) Exists(ctx context.Context, digest string) (bool, error) {
	tracer := mtelemetry.Tracer("postgres.blob")
	ctx, span := tracer.Start(ctx, "postgres.blob_exists")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return false, err
	}

	var exists bool

	row := db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM blobs WHERE digest = $1)`, digest)
	if err := row.Scan(&exists); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to check blob existence", err)
		return false, err
	}

	return exists, nil
}

// orphanBlobsWhere builds the "referenced by nothing" predicate shared by
// the count and sample queries below, so the two can never drift apart.
func orphanBlobsWhere(sb sqrl.SelectBuilder) sqrl.SelectBuilder {
	return sb.
		Where(sqrl.Expr("NOT EXISTS (SELECT 1 FROM artifact_entries e WHERE e.blob_digest = b.digest)")).
		Where(sqrl.Expr("NOT EXISTS (SELECT 1 FROM manifests m WHERE m.manifest_blob_digest = b.digest)"))
}

func (r *PostgreSQLRepository) ListOrphans(ctx context.Context, limit int) ([]string, int, error) {
	tracer := mtelemetry.Tracer("postgres.blob")
	ctx, span := tracer.Start(ctx, "postgres.list_orphan_blobs")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, 0, err
	}

	countQuery, countArgs, err := orphanBlobsWhere(sqrl.Select("count(*)").From("blobs b")).PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to build orphan blob count query", err)
		return nil, 0, err
	}

	var total int

	if err := db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to count orphan blobs", err)
		return nil, 0, err
	}

	if total == 0 {
		return nil, 0, nil
	}

	sampleQuery, sampleArgs, err := orphanBlobsWhere(sqrl.Select("b.digest").From("blobs b")).
		OrderBy("b.digest ASC").
		Limit(uint64(limit)).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to build orphan blob sample query", err)
		return nil, 0, err
	}

	rows, err := db.QueryContext(ctx, sampleQuery, sampleArgs...)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to sample orphan blobs", err)
		return nil, 0, err
	}
	defer rows.Close()

	var sample []string

	for rows.Next() {
		var digest string
		if err := rows.Scan(&digest); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to scan orphan blob", err)
			return nil, 0, err
		}

		sample = append(sample, digest)
	}

	return sample, total, rows.Err()
}
