// Package outbox implements the dispatcher sweep that drains
// outbox_events rows and turns each version.published event into a
// SearchIndexJob, the handoff between the Publish Engine and the search
// worker (spec.md §4.4).
package outbox

import (
	"github.com/sremani/artifortress/internal/adapters/postgres/outbox"
	"github.com/sremani/artifortress/internal/adapters/postgres/searchjob"
	"github.com/sremani/artifortress/internal/platform/mlog"
	"github.com/sremani/artifortress/internal/platform/mpostgres"
)

// UseCase aggregates the dispatcher's dependencies.
type UseCase struct {
	OutboxRepo    outbox.Repository
	SearchJobRepo searchjob.Repository
	Connection    *mpostgres.Connection
	Logger        mlog.Logger

	// BatchSize bounds how many events one sweep claims.
	BatchSize int
}

// SweepResult tallies one sweep's outcomes for the caller to log/report.
type SweepResult struct {
	Claimed  int
	Enqueued int
	Requeued int
}

func (uc *UseCase) batchSize() int {
	if uc.BatchSize > 0 {
		return uc.BatchSize
	}

	return 100
}
