// Package tenant provides the Postgres-backed Repository for domain.Tenant.
package tenant

import (
	"time"

	"github.com/sremani/artifortress/internal/domain"
)

// PostgreSQLModel is the row shape tenants are read/written as.
type PostgreSQLModel struct {
	ID        string
	Slug      string
	Name      string
	CreatedAt time.Time
}

// FromEntity populates m from t.
func (m *PostgreSQLModel) FromEntity(t *domain.Tenant) {
	m.ID = t.ID
	m.Slug = t.Slug
	m.Name = t.Name
	m.CreatedAt = t.CreatedAt
}

// ToEntity converts m to a domain.Tenant.
func (m *PostgreSQLModel) ToEntity() *domain.Tenant {
	return &domain.Tenant{
		ID:        m.ID,
		Slug:      m.Slug,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
	}
}
