// Package pkgmeta provides the Postgres-backed Repository for
// domain.Package (named pkgmeta to avoid colliding with the Go "package"
// keyword).
package pkgmeta

import (
	"database/sql"
	"time"

	"github.com/sremani/artifortress/internal/domain"
)

// PostgreSQLModel is the row shape packages are read/written as.
type PostgreSQLModel struct {
	ID          string
	TenantID    string
	RepoID      string
	PackageType string
	Namespace   sql.NullString
	Name        string
	CreatedAt   time.Time
}

// FromEntity populates m from p.
func (m *PostgreSQLModel) FromEntity(p *domain.Package) {
	m.ID = p.ID
	m.TenantID = p.TenantID
	m.RepoID = p.RepoID
	m.PackageType = p.PackageType
	m.Name = p.Name
	m.CreatedAt = p.CreatedAt

	if p.Namespace != nil {
		m.Namespace = sql.NullString{String: *p.Namespace, Valid: true}
	}
}

// ToEntity converts m to a domain.Package.
func (m *PostgreSQLModel) ToEntity() *domain.Package {
	p := &domain.Package{
		ID:          m.ID,
		TenantID:    m.TenantID,
		RepoID:      m.RepoID,
		PackageType: m.PackageType,
		Name:        m.Name,
		CreatedAt:   m.CreatedAt,
	}

	if m.Namespace.Valid {
		ns := m.Namespace.String
		p.Namespace = &ns
	}

	return p
}
