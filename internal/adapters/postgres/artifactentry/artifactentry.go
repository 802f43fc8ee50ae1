// Package artifactentry provides the Postgres-backed Repository for
// domain.ArtifactEntry, one row per file within a PackageVersion.
package artifactentry

import (
	"database/sql"

	"github.com/sremani/artifortress/internal/domain"
)

// PostgreSQLModel is the row shape artifact_entries are read/written as.
type PostgreSQLModel struct {
	EntryID        string
	VersionID      string
	RelativePath   string
	BlobDigest     string
	ChecksumSHA1   sql.NullString
	ChecksumSHA256 sql.NullString
	SizeBytes      int64
}

// FromEntity populates m from e.
func (m *PostgreSQLModel) FromEntity(e *domain.ArtifactEntry) {
	m.EntryID = e.EntryID
	m.VersionID = e.VersionID
	m.RelativePath = e.RelativePath
	m.BlobDigest = e.BlobDigest
	m.SizeBytes = e.SizeBytes

	if e.ChecksumSHA1 != nil {
		m.ChecksumSHA1 = sql.NullString{String: *e.ChecksumSHA1, Valid: true}
	}

	if e.ChecksumSHA256 != nil {
		m.ChecksumSHA256 = sql.NullString{String: *e.ChecksumSHA256, Valid: true}
	}
}

// ToEntity converts m to a domain.ArtifactEntry.
func (m *PostgreSQLModel) ToEntity() *domain.ArtifactEntry {
	e := &domain.ArtifactEntry{
		EntryID:      m.EntryID,
		VersionID:    m.VersionID,
		RelativePath: m.RelativePath,
		BlobDigest:   m.BlobDigest,
		SizeBytes:    m.SizeBytes,
	}

	if m.ChecksumSHA1.Valid {
		v := m.ChecksumSHA1.String
		e.ChecksumSHA1 = &v
	}

	if m.ChecksumSHA256.Valid {
		v := m.ChecksumSHA256.String
		e.ChecksumSHA256 = &v
	}

	return e
}
