package domain

import "time"

// QuarantineStatus is one of the three states a quarantine hold moves
// through.
type QuarantineStatus string

const (
	QuarantineStatusQuarantined QuarantineStatus = "quarantined"
	QuarantineStatusReleased    QuarantineStatus = "released"
	QuarantineStatusRejected    QuarantineStatus = "rejected"
)

// QuarantineItem blocks resolution/download of a version without deleting
// it. Unique per (tenant, repo, version).
type QuarantineItem struct {
	ID         string
	TenantID   string
	RepoID     string
	VersionID  string
	Status     QuarantineStatus
	Reason     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ResolvedBy *string
}

// Blocks reports whether this quarantine item currently blocks resolution
// of the version's digests (spec.md §6's 423 quarantined_blob rule).
func (q QuarantineItem) Blocks() bool {
	return q.Status == QuarantineStatusQuarantined || q.Status == QuarantineStatusRejected
}

// PolicyAction is one of the actions a policy decision is evaluated for.
type PolicyAction string

const (
	PolicyActionPublish PolicyAction = "publish"
	PolicyActionPromote PolicyAction = "promote"
)

// PolicyDecision is the outcome a PolicyEvaluator returns.
type PolicyDecision string

const (
	PolicyDecisionAllow      PolicyDecision = "allow"
	PolicyDecisionDeny       PolicyDecision = "deny"
	PolicyDecisionQuarantine PolicyDecision = "quarantine"
)

// PolicyEvaluation is an append-only decision record.
type PolicyEvaluation struct {
	ID          string
	TenantID    string
	RepoID      string
	VersionID   string
	Action      PolicyAction
	Decision    PolicyDecision
	Reason      string
	Details     map[string]any
	EvaluatedAt time.Time
	EvaluatedBy string
}
