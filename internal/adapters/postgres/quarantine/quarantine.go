// Package quarantine provides the Postgres-backed Repository for
// domain.QuarantineItem.
package quarantine

import (
	"database/sql"
	"time"

	"github.com/sremani/artifortress/internal/domain"
)

// PostgreSQLModel is the row shape quarantine_items are read/written as.
type PostgreSQLModel struct {
	ID         string
	TenantID   string
	RepoID     string
	VersionID  string
	Status     string
	Reason     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ResolvedBy sql.NullString
}

// FromEntity populates m from q.
func (m *PostgreSQLModel) FromEntity(q *domain.QuarantineItem) {
	m.ID = q.ID
	m.TenantID = q.TenantID
	m.RepoID = q.RepoID
	m.VersionID = q.VersionID
	m.Status = string(q.Status)
	m.Reason = q.Reason
	m.CreatedAt = q.CreatedAt
	m.UpdatedAt = q.UpdatedAt

	if q.ResolvedBy != nil {
		m.ResolvedBy = sql.NullString{String: *q.ResolvedBy, Valid: true}
	}
}

// ToEntity converts m to a domain.QuarantineItem.
func (m *PostgreSQLModel) ToEntity() *domain.QuarantineItem {
	q := &domain.QuarantineItem{
		ID:        m.ID,
		TenantID:  m.TenantID,
		RepoID:    m.RepoID,
		VersionID: m.VersionID,
		Status:    domain.QuarantineStatus(m.Status),
		Reason:    m.Reason,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}

	if m.ResolvedBy.Valid {
		resolvedBy := m.ResolvedBy.String
		q.ResolvedBy = &resolvedBy
	}

	return q
}
