// Package tombstone provides the Postgres-backed Repository for
// domain.Tombstone, one per logically-deleted PackageVersion.
package tombstone

import (
	"time"

	"github.com/sremani/artifortress/internal/domain"
)

// PostgreSQLModel is the row shape tombstones are read/written as.
type PostgreSQLModel struct {
	ID             string
	TenantID       string
	RepoID         string
	VersionID      string
	DeletedBy      string
	DeletedAt      time.Time
	RetentionUntil time.Time
	Reason         string
}

// FromEntity populates m from t.
func (m *PostgreSQLModel) FromEntity(t *domain.Tombstone) {
	m.ID = t.ID
	m.TenantID = t.TenantID
	m.RepoID = t.RepoID
	m.VersionID = t.VersionID
	m.DeletedBy = t.DeletedBy
	m.DeletedAt = t.DeletedAt
	m.RetentionUntil = t.RetentionUntil
	m.Reason = t.Reason
}

// ToEntity converts m to a domain.Tombstone.
func (m *PostgreSQLModel) ToEntity() *domain.Tombstone {
	return &domain.Tombstone{
		ID:             m.ID,
		TenantID:       m.TenantID,
		RepoID:         m.RepoID,
		VersionID:      m.VersionID,
		DeletedBy:      m.DeletedBy,
		DeletedAt:      m.DeletedAt,
		RetentionUntil: m.RetentionUntil,
		Reason:         m.Reason,
	}
}
