package artifactentry

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

// Repository provides operations related to domain.ArtifactEntry rows.
//
//go:generate mockgen --destination=artifactentry.mock.go --package=artifactentry . Repository
type Repository interface {
	// CreateBatch inserts entries within tx. Its one caller,
	// catalog.UseCase.AddEntry, writes a single entry per draft-locked
	// transaction; the Publish Engine writes no entries.
	CreateBatch(ctx context.Context, tx *sql.Tx, entries []*domain.ArtifactEntry) error
	ListByVersion(ctx context.Context, versionID string) ([]*domain.ArtifactEntry, error)
	FindByPath(ctx context.Context, versionID, relativePath string) (*domain.ArtifactEntry, error)
	// ListBlobDigestsPage returns up to limit blob digests (one per entry,
	// so a digest can repeat)
	// referenced by entries of published versions, or tombstoned versions
	// still inside their retention grace (tombstones.retention_until >
	// reachableCutoff), whose entry_id is greater than afterEntryID, plus
	// the last entry_id seen, so the GC mark phase can page through the
	// whole table without loading it at once (spec.md §4.3).
	ListBlobDigestsPage(ctx context.Context, reachableCutoff time.Time, afterEntryID string, limit int) (digests []string, lastEntryID string, err error)
	// ListMissingBlobRefs returns the total count of artifact entries whose
	// blob_digest has no matching Blob row, plus up to limit sample entry
	// ids, the reconciler's "missing artifact blob refs" bucket (spec.md §4.5).
	ListMissingBlobRefs(ctx context.Context, limit int) (sampleEntryIDs []string, total int, err error)
	// ListVersionsByRepoDigest returns the distinct version ids within
	// repoID that reference blobDigest, so a blob download can check every
	// version linking to the digest for an active quarantine hold
	// (spec.md §6's 423 quarantined_blob rule).
	ListVersionsByRepoDigest(ctx context.Context, repoID, blobDigest string) ([]string, error)
}

// PostgreSQLRepository is the Postgres implementation of Repository.
type PostgreSQLRepository struct {
	connection *mpostgres.Connection
}

// NewPostgreSQLRepository returns a Repository bound to conn.
func NewPostgreSQLRepository(conn *mpostgres.Connection) *PostgreSQLRepository {
	return &PostgreSQLRepository{connection: conn}
}

func (r *PostgreSQLRepository) CreateBatch(ctx context.Context, tx *sql.Tx, entries []*domain.ArtifactEntry) error {
	tracer := mtelemetry.Tracer("postgres.artifactentry")
	ctx, span := tracer.Start(ctx, "postgres.create_artifact_entries")
	defer span.End()

	for _, e := range entries {
		record := &PostgreSQLModel{}
		record.FromEntity(e)

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO artifact_entries (entry_id, version_id, relative_path, blob_digest, checksum_sha1, checksum_sha256, size_bytes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			record.EntryID, record.VersionID, record.RelativePath, record.BlobDigest, record.ChecksumSHA1, record.ChecksumSHA256, record.SizeBytes); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to insert artifact entry", err)

			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				return apperrors.ValidatePGError(pgErr, reflect.TypeOf(domain.ArtifactEntry{}).Name())
			}

			return err
		}
	}

	return nil
}

func (r *PostgreSQLRepository) ListByVersion(ctx context.Context, versionID string) ([]*domain.ArtifactEntry, error) {
	tracer := mtelemetry.Tracer("postgres.artifactentry")
	ctx, span := tracer.Start(ctx, "postgres.list_artifact_entries_by_version")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT entry_id, version_id, relative_path, blob_digest, checksum_sha1, checksum_sha256, size_bytes
		 FROM artifact_entries WHERE version_id = $1 ORDER BY relative_path ASC`, versionID)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to list artifact entries", err)
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ArtifactEntry

	for rows.Next() {
		record := &PostgreSQLModel{}
		if err := rows.Scan(&record.EntryID, &record.VersionID, &record.RelativePath, &record.BlobDigest,
			&record.ChecksumSHA1, &record.ChecksumSHA256, &record.SizeBytes); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to scan artifact entry", err)
			return nil, err
		}

		out = append(out, record.ToEntity())
	}

	return out, rows.Err()
}

func (r *PostgreSQLRepository) FindByPath(ctx context.Context, versionID, relativePath string) (*domain.ArtifactEntry, error) {
	tracer := mtelemetry.Tracer("postgres.artifactentry")
	ctx, span := tracer.Start(ctx, "postgres.find_artifact_entry_by_path")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	record := &PostgreSQLModel{}

	row := db.QueryRowContext(ctx,
		`SELECT entry_id, version_id, relative_path, blob_digest, checksum_sha1, checksum_sha256, size_bytes
		 FROM artifact_entries WHERE version_id = $1 AND relative_path = $2`, versionID, relativePath)
	if err := row.Scan(&record.EntryID, &record.VersionID, &record.RelativePath, &record.BlobDigest,
		&record.ChecksumSHA1, &record.ChecksumSHA256, &record.SizeBytes); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to scan artifact entry", err)

		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ValidateBusinessError(cn.ErrEntityNotFound, reflect.TypeOf(domain.ArtifactEntry{}).Name())
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

func (r *PostgreSQLRepository) ListBlobDigestsPage(ctx context.Context, reachableCutoff time.Time, afterEntryID string, limit int) ([]string, string, error) {
	tracer := mtelemetry.Tracer("postgres.artifactentry")
	ctx, span := tracer.Start(ctx, "postgres.list_blob_digests_page")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, "", err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT e.entry_id, e.blob_digest FROM artifact_entries e
		 JOIN package_versions v ON v.id = e.version_id
		 LEFT JOIN tombstones t ON t.version_id = v.id
		 WHERE e.entry_id > $1
		   AND (v.state = $2 OR (v.state = $3 AND t.retention_until > $4))
		 ORDER BY e.entry_id ASC LIMIT $5`,
		afterEntryID, string(domain.VersionStatePublished), string(domain.VersionStateTombstoned), reachableCutoff, limit)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to page reachable blob digests", err)
		return nil, "", err
	}
	defer rows.Close()

	var digests []string

	lastEntryID := afterEntryID

	for rows.Next() {
		var entryID, digest string
		if err := rows.Scan(&entryID, &digest); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to scan reachable blob digest", err)
			return nil, "", err
		}

		digests = append(digests, digest)
		lastEntryID = entryID
	}

	return digests, lastEntryID, rows.Err()
}

func (r *PostgreSQLRepository) ListVersionsByRepoDigest(ctx context.Context, repoID, blobDigest string) ([]string, error) {
	tracer := mtelemetry.Tracer("postgres.artifactentry")
	ctx, span := tracer.Start(ctx, "postgres.list_versions_by_repo_digest")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT e.version_id FROM artifact_entries e
		 JOIN package_versions v ON v.id = e.version_id
		 WHERE v.repo_id = $1 AND e.blob_digest = $2`, repoID, blobDigest)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to list versions by repo digest", err)
		return nil, err
	}
	defer rows.Close()

	var versionIDs []string

	for rows.Next() {
		var versionID string
		if err := rows.Scan(&versionID); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to scan version id", err)
			return nil, err
		}

		versionIDs = append(versionIDs, versionID)
	}

	return versionIDs, rows.Err()
}

func (r *PostgreSQLRepository) ListMissingBlobRefs(ctx context.Context, limit int) ([]string, int, error) {
	tracer := mtelemetry.Tracer("postgres.artifactentry")
	ctx, span := tracer.Start(ctx, "postgres.list_missing_blob_refs")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, 0, err
	}

	var total int

	if err := db.QueryRowContext(ctx,
		`SELECT count(*) FROM artifact_entries e
		 WHERE NOT EXISTS (SELECT 1 FROM blobs b WHERE b.digest = e.blob_digest)`).Scan(&total); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to count missing artifact blob refs", err)
		return nil, 0, err
	}

	if total == 0 {
		return nil, 0, nil
	}

	rows, err := db.QueryContext(ctx,
		`SELECT e.entry_id FROM artifact_entries e
		 WHERE NOT EXISTS (SELECT 1 FROM blobs b WHERE b.digest = e.blob_digest)
		 ORDER BY e.entry_id ASC LIMIT $1`, limit)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to sample missing artifact blob refs", err)
		return nil, 0, err
	}
	defer rows.Close()

	var sample []string

	for rows.Next() {
		var entryID string
		if err := rows.Scan(&entryID); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to scan missing artifact blob ref", err)
			return nil, 0, err
		}

		sample = append(sample, entryID)
	}

	return sample, total, rows.Err()
}
