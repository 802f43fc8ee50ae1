package manifest

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

// Repository provides operations related to domain.Manifest rows, one per
// PackageVersion.
//
//go:generate mockgen --destination=manifest.mock.go --package=manifest . Repository
type Repository interface {
	// Upsert writes m within tx — draft versions may revise their manifest
	// repeatedly before publish, after which the immutability trigger takes
	// over (spec.md §3).
	Upsert(ctx context.Context, tx *sql.Tx, m *domain.Manifest) error
	Find(ctx context.Context, versionID string) (*domain.Manifest, error)
	// ListBlobDigestsPage returns up to limit non-null manifest blob
	// digests belonging to published versions, or tombstoned versions
	// still inside their retention grace, whose version_id is greater
	// than afterVersionID, plus the last version_id seen, for the GC mark
	// phase's paginated scan (spec.md §4.3).
	ListBlobDigestsPage(ctx context.Context, reachableCutoff time.Time, afterVersionID string, limit int) (digests []string, lastVersionID string, err error)
	// ListMissingBlobRefs returns the total count of manifests whose
	// manifest_blob_digest has no matching Blob row, plus up to limit
	// sample version ids, the reconciler's "missing manifest blob refs"
	// bucket (spec.md §4.5).
	ListMissingBlobRefs(ctx context.Context, limit int) (sampleVersionIDs []string, total int, err error)
}

// PostgreSQLRepository is the Postgres implementation of Repository.
type PostgreSQLRepository struct {
	connection *mpostgres.Connection
}

// NewPostgreSQLRepository returns a Repository bound to conn.
func NewPostgreSQLRepository(conn *mpostgres.Connection) *PostgreSQLRepository {
	return &PostgreSQLRepository{connection: conn}
}

func (r *PostgreSQLRepository) Upsert(ctx context.Context, tx *sql.Tx, in *domain.Manifest) error {
	tracer := mtelemetry.Tracer("postgres.manifest")
	ctx, span := tracer.Start(ctx, "postgres.upsert_manifest")
	defer span.End()

	record := &PostgreSQLModel{}
	record.FromEntity(in)

	_, err := tx.ExecContext(ctx,
		`INSERT INTO manifests (version_id, manifest_json, manifest_blob_digest, package_type, created_by, updated_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (version_id) DO UPDATE SET
		   manifest_json = EXCLUDED.manifest_json,
		   manifest_blob_digest = EXCLUDED.manifest_blob_digest,
		   updated_by = EXCLUDED.updated_by,
		   updated_at = EXCLUDED.updated_at`,
		record.VersionID, record.ManifestJSON, record.ManifestBlobDigest, record.PackageType,
		record.CreatedBy, record.UpdatedBy, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to upsert manifest", err)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return apperrors.ValidatePGError(pgErr, reflect.TypeOf(domain.Manifest{}).Name())
		}

		return err
	}

	return nil
}

func (r *PostgreSQLRepository) Find(ctx context.Context, versionID string) (*domain.Manifest, error) {
	tracer := mtelemetry.Tracer("postgres.manifest")
	ctx, span := tracer.Start(ctx, "postgres.find_manifest")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}

	row := db.QueryRowContext(ctx,
		`SELECT version_id, manifest_json, manifest_blob_digest, package_type, created_by, updated_by, created_at, updated_at
		 FROM manifests WHERE version_id = $1`, versionID)
	if err := row.Scan(&record.VersionID, &record.ManifestJSON, &record.ManifestBlobDigest, &record.PackageType,
		&record.CreatedBy, &record.UpdatedBy, &record.CreatedAt, &record.UpdatedAt); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to scan manifest", err)

		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ValidateBusinessError(cn.ErrEntityNotFound, reflect.TypeOf(domain.Manifest{}).Name())
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

func (r *PostgreSQLRepository) ListBlobDigestsPage(ctx context.Context, reachableCutoff time.Time, afterVersionID string, limit int) ([]string, string, error) {
	tracer := mtelemetry.Tracer("postgres.manifest")
	ctx, span := tracer.Start(ctx, "postgres.list_manifest_blob_digests_page")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, "", err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT m.version_id, m.manifest_blob_digest FROM manifests m
		 JOIN package_versions v ON v.id = m.version_id
		 LEFT JOIN tombstones t ON t.version_id = v.id
		 WHERE m.version_id > $1
		   AND (v.state = $2 OR (v.state = $3 AND t.retention_until > $4))
		   AND m.manifest_blob_digest IS NOT NULL
		 ORDER BY m.version_id ASC LIMIT $5`,
		afterVersionID, string(domain.VersionStatePublished), string(domain.VersionStateTombstoned), reachableCutoff, limit)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to page reachable manifest blob digests", err)
		return nil, "", err
	}
	defer rows.Close()

	var digests []string

	lastVersionID := afterVersionID

	for rows.Next() {
		var versionID string

		var digest sql.NullString
		if err := rows.Scan(&versionID, &digest); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to scan reachable manifest blob digest", err)
			return nil, "", err
		}

		if digest.Valid {
			digests = append(digests, digest.String)
		}

		lastVersionID = versionID
	}

	return digests, lastVersionID, rows.Err()
}

func (r *PostgreSQLRepository) ListMissingBlobRefs(ctx context.Context, limit int) ([]string, int, error) {
	tracer := mtelemetry.Tracer("postgres.manifest")
	ctx, span := tracer.Start(ctx, "postgres.list_missing_manifest_blob_refs")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, 0, err
	}

	var total int

	if err := db.QueryRowContext(ctx,
		`SELECT count(*) FROM manifests m
		 WHERE m.manifest_blob_digest IS NOT NULL
		   AND NOT EXISTS (SELECT 1 FROM blobs b WHERE b.digest = m.manifest_blob_digest)`).Scan(&total); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to count missing manifest blob refs", err)
		return nil, 0, err
	}

	if total == 0 {
		return nil, 0, nil
	}

	rows, err := db.QueryContext(ctx,
		`SELECT m.version_id FROM manifests m
		 WHERE m.manifest_blob_digest IS NOT NULL
		   AND NOT EXISTS (SELECT 1 FROM blobs b WHERE b.digest = m.manifest_blob_digest)
		 ORDER BY m.version_id ASC LIMIT $1`, limit)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to sample missing manifest blob refs", err)
		return nil, 0, err
	}
	defer rows.Close()

	var sample []string

	for rows.Next() {
		var versionID string
		if err := rows.Scan(&versionID); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to scan missing manifest blob ref", err)
			return nil, 0, err
		}

		sample = append(sample, versionID)
	}

	return sample, total, rows.Err()
}
