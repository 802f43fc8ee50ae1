// Package policyeval provides the Postgres-backed Repository for
// domain.PolicyEvaluation, the append-only decision log the Publish Engine
// writes on every policy check (spec.md §4.2, §9).
package policyeval

import (
	"encoding/json"
	"time"

	"github.com/sremani/artifortress/internal/domain"
)

// PostgreSQLModel is the row shape policy_evaluations are read/written as.
type PostgreSQLModel struct {
	ID          string
	TenantID    string
	RepoID      string
	VersionID   string
	Action      string
	Decision    string
	Reason      string
	DetailsJSON []byte
	EvaluatedAt time.Time
	EvaluatedBy string
}

// FromEntity populates m from p.
func (m *PostgreSQLModel) FromEntity(p *domain.PolicyEvaluation) error {
	m.ID = p.ID
	m.TenantID = p.TenantID
	m.RepoID = p.RepoID
	m.VersionID = p.VersionID
	m.Action = string(p.Action)
	m.Decision = string(p.Decision)
	m.Reason = p.Reason
	m.EvaluatedAt = p.EvaluatedAt
	m.EvaluatedBy = p.EvaluatedBy

	details := p.Details
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

// ToEntity converts m to a domain.PolicyEvaluation.
func (m *PostgreSQLModel) ToEntity() (*domain.PolicyEvaluation, error) {
	details := map[string]any{}
	if len(m.DetailsJSON) > 0 {
		if err := json.Unmarshal(m.DetailsJSON, &details); err != nil {
			return nil, err
		}
	}

	return &domain.PolicyEvaluation{
		ID:          m.ID,
		TenantID:    m.TenantID,
		RepoID:      m.RepoID,
		VersionID:   m.VersionID,
		Action:      domain.PolicyAction(m.Action),
		Decision:    domain.PolicyDecision(m.Decision),
		Reason:      m.Reason,
		Details:     details,
		EvaluatedAt: m.EvaluatedAt,
		EvaluatedBy: m.EvaluatedBy,
	}, nil
}
