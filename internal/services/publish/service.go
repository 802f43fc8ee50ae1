// Package publish implements the Publish Engine: the atomic transition of
// a draft PackageVersion to published, together with its dependent writes
// (policy evaluation, audit record, outbox event) inside a single metadata
// transaction (spec.md §4.2). Artifact entries and the manifest are written
// earlier, by the catalog, while the version is still a draft.
package publish

import (
	"context"
	"time"

	"github.com/sremani/artifortress/internal/adapters/postgres/artifactentry"
	"github.com/sremani/artifortress/internal/adapters/postgres/auditlog"
	"github.com/sremani/artifortress/internal/adapters/postgres/blob"
	"github.com/sremani/artifortress/internal/adapters/postgres/manifest"
	"github.com/sremani/artifortress/internal/adapters/postgres/outbox"
	"github.com/sremani/artifortress/internal/adapters/postgres/policyeval"
	"github.com/sremani/artifortress/internal/adapters/postgres/quarantine"
	"github.com/sremani/artifortress/internal/adapters/postgres/version"
	"github.com/sremani/artifortress/internal/adapters/rabbitmq"
	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/mlog"
	"github.com/sremani/artifortress/internal/platform/mpostgres"
)

// PolicyEvaluator is the external collaborator that decides whether a
// publish may proceed. It is consumed as an input, not implemented here:
// policy engine internals are a Non-goal (spec.md §1).
type PolicyEvaluator interface {
	Evaluate(ctx context.Context, tenantID, repoID, versionID string, action domain.PolicyAction) (domain.PolicyDecision, string, error)
}

// UseCase aggregates the Publish Engine's dependencies.
type UseCase struct {
	VersionRepo    version.Repository
	EntryRepo      artifactentry.Repository
	ManifestRepo   manifest.Repository
	BlobRepo       blob.Repository
	QuarantineRepo quarantine.Repository
	PolicyRepo     policyeval.Repository
	AuditRepo      auditlog.Repository
	OutboxRepo     outbox.Repository
	Notifier       rabbitmq.Producer
	Policy         PolicyEvaluator
	Connection     *mpostgres.Connection
	Logger         mlog.Logger

	// PolicyTimeout bounds how long Policy.Evaluate is allowed to run
	// before the engine fails closed with policy_timeout (spec.md §5).
	PolicyTimeout time.Duration
}

// Result is the outcome of a Publish call.
type Result struct {
	Version      *domain.PackageVersion
	Idempotent   bool
	EventEmitted bool
}
