// Package version provides the Postgres-backed Repository for
// domain.PackageVersion, including the row-level locking the Publish Engine
// and the GC engine rely on.
package version

import (
	"database/sql"
	"time"

	"github.com/sremani/artifortress/internal/domain"
)

// PostgreSQLModel is the row shape package_versions are read/written as.
type PostgreSQLModel struct {
	ID              string
	TenantID        string
	RepoID          string
	PackageID       string
	Version         string
	State           string
	PublishedAt     sql.NullTime
	CreatedBy       string
	CreatedAt       time.Time
	TombstonedAt    sql.NullTime
	TombstoneReason sql.NullString
}

// FromEntity populates m from v.
func (m *PostgreSQLModel) FromEntity(v *domain.PackageVersion) {
	m.ID = v.ID
	m.TenantID = v.TenantID
	m.RepoID = v.RepoID
	m.PackageID = v.PackageID
	m.Version = v.Version
	m.State = string(v.State)
	m.CreatedBy = v.CreatedBy
	m.CreatedAt = v.CreatedAt

	if v.PublishedAt != nil {
		m.PublishedAt = sql.NullTime{Time: *v.PublishedAt, Valid: true}
	}

	if v.TombstonedAt != nil {
		m.TombstonedAt = sql.NullTime{Time: *v.TombstonedAt, Valid: true}
	}

	if v.TombstoneReason != nil {
		m.TombstoneReason = sql.NullString{String: *v.TombstoneReason, Valid: true}
	}
}

// ToEntity converts m to a domain.PackageVersion.
func (m *PostgreSQLModel) ToEntity() *domain.PackageVersion {
	v := &domain.PackageVersion{
		ID:        m.ID,
		TenantID:  m.TenantID,
		RepoID:    m.RepoID,
		PackageID: m.PackageID,
		Version:   m.Version,
		State:     domain.VersionState(m.State),
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}

	if m.PublishedAt.Valid {
		v.PublishedAt = &m.PublishedAt.Time
	}

	if m.TombstonedAt.Valid {
		v.TombstonedAt = &m.TombstonedAt.Time
	}

	if m.TombstoneReason.Valid {
		reason := m.TombstoneReason.String
		v.TombstoneReason = &reason
	}

	return v
}
