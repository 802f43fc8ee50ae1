// Package repository provides the Postgres-backed store for
// domain.Repository (the tenant-scoped namespace, not this Go package).
package repository

import (
	"encoding/json"
	"time"

	"github.com/sremani/artifortress/internal/domain"
)

// PostgreSQLModel is the row shape repositories are read/written as.
type PostgreSQLModel struct {
	ID        string
	TenantID  string
	RepoKey   string
	Type      string
	Config    []byte
	CreatedAt time.Time
}

// FromEntity populates m from r.
func (m *PostgreSQLModel) FromEntity(r *domain.Repository) error {
	m.ID = r.ID
	m.TenantID = r.TenantID
	m.RepoKey = r.RepoKey
	m.Type = string(r.Type)
	m.CreatedAt = r.CreatedAt

	if r.Config == nil {
		m.Config = []byte("{}")
		return nil
	}

	b, err := json.Marshal(r.Config)
	if err != nil {
		return err
	}

	m.Config = b

	return nil
}

// ToEntity converts m to a domain.Repository.
func (m *PostgreSQLModel) ToEntity() (*domain.Repository, error) {
	var cfg map[string]any
	if len(m.Config) > 0 {
		if err := json.Unmarshal(m.Config, &cfg); err != nil {
			return nil, err
		}
	}

	return &domain.Repository{
		ID:        m.ID,
		TenantID:  m.TenantID,
		RepoKey:   m.RepoKey,
		Type:      domain.RepositoryType(m.Type),
		Config:    cfg,
		CreatedAt: m.CreatedAt,
	}, nil
}
