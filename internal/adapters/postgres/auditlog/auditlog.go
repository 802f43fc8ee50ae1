// Package auditlog provides the Postgres-backed Repository for
// domain.AuditLog, an append-only record of notable actions.
package auditlog

import (
	"encoding/json"
	"time"

	"github.com/sremani/artifortress/internal/domain"
)

// PostgreSQLModel is the row shape audit_logs are read/written as.
type PostgreSQLModel struct {
	ID           string
	TenantID     string
	Actor        string
	Action       string
	ResourceType string
	ResourceID   string
	DetailsJSON  []byte
	OccurredAt   time.Time
}

// FromEntity populates m from a.
func (m *PostgreSQLModel) FromEntity(a *domain.AuditLog) error {
	m.ID = a.ID
	m.TenantID = a.TenantID
	m.Actor = a.Actor
	m.Action = a.Action
	m.ResourceType = a.ResourceType
	m.ResourceID = a.ResourceID
	m.OccurredAt = a.OccurredAt

	details := a.Details
	if details == nil {
		details = map[string]any{}
	}

	b, err := json.Marshal(details)
	if err != nil {
		return err
	}

	m.DetailsJSON = b

	return nil
}

// ToEntity converts m to a domain.AuditLog.
func (m *PostgreSQLModel) ToEntity() (*domain.AuditLog, error) {
	details := map[string]any{}
	if len(m.DetailsJSON) > 0 {
		if err := json.Unmarshal(m.DetailsJSON, &details); err != nil {
			return nil, err
		}
	}

	return &domain.AuditLog{
		ID:           m.ID,
		TenantID:     m.TenantID,
		Actor:        m.Actor,
		Action:       m.Action,
		ResourceType: m.ResourceType,
		ResourceID:   m.ResourceID,
		Details:      details,
		OccurredAt:   m.OccurredAt,
	}, nil
}
