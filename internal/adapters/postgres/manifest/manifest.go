// Package manifest provides the Postgres-backed Repository for
// domain.Manifest, a version's opaque package-type-specific metadata body.
package manifest

import (
	"database/sql"
	"time"

	"github.com/sremani/artifortress/internal/domain"
)

// PostgreSQLModel is the row shape manifests are read/written as.
type PostgreSQLModel struct {
	VersionID          string
	ManifestJSON       string
	ManifestBlobDigest sql.NullString
	PackageType        string
	CreatedBy          string
	UpdatedBy          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// FromEntity populates m from e.
func (m *PostgreSQLModel) FromEntity(e *domain.Manifest) {
	m.VersionID = e.VersionID
	m.ManifestJSON = e.ManifestJSON
	m.PackageType = e.PackageType
	m.CreatedBy = e.CreatedBy
	m.UpdatedBy = e.UpdatedBy
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt

	if e.ManifestBlobDigest != nil {
		m.ManifestBlobDigest = sql.NullString{String: *e.ManifestBlobDigest, Valid: true}
	}
}

// ToEntity converts m to a domain.Manifest.
func (m *PostgreSQLModel) ToEntity() *domain.Manifest {
	e := &domain.Manifest{
		VersionID:    m.VersionID,
		ManifestJSON: m.ManifestJSON,
		PackageType:  m.PackageType,
		CreatedBy:    m.CreatedBy,
		UpdatedBy:    m.UpdatedBy,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}

	if m.ManifestBlobDigest.Valid {
		digest := m.ManifestBlobDigest.String
		e.ManifestBlobDigest = &digest
	}

	return e
}
