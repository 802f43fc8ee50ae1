// Package retry provides two distinct retry schedules: a deterministic,
// non-jittered schedule for the search worker's per-job attempt counter,
// and a jittered schedule (Transient) for transient errors. Transient has
// no caller in this module; no call to the object backend, Mongo, Redis or
// RabbitMQ is wrapped in it.
// The two are never interchanged: spec.md §9 requires the core's
// worker-retry schedule to be exactly reproducible from (attempts), with
// no randomness.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// SearchBackoffBase is the base delay of the deterministic schedule.
	SearchBackoffBase = 30 * time.Second
	// SearchBackoffMaxExponent caps the exponent so delay growth stops.
	SearchBackoffMaxExponent = 5
)

// SearchWorkerBackoff computes the deterministic availability delay for a
// search-index job after its attempts-th failure, per spec.md §9:
// base_delay_seconds × 2^min(attempts-1, max_exponent).
func SearchWorkerBackoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}

	exponent := attempts - 1
	if exponent > SearchBackoffMaxExponent {
		exponent = SearchBackoffMaxExponent
	}

	return SearchBackoffBase * time.Duration(1<<uint(exponent))
}

// OutboxRequeueDelay is the fixed visibility-window push used when the
// outbox dispatcher cannot resolve a claimed event's payload (spec.md §4.4).
const OutboxRequeueDelay = 5 * time.Minute

// OutboxVisibilityWindow is how far available_at is pushed forward on
// claim, so a crash before ack releases the row automatically (spec.md §9).
const OutboxVisibilityWindow = 30 * time.Second

// Transient retries fn with jittered exponential backoff, for calls to
// external dependencies that are not part of the core's own deterministic
// schedules (spec.md §7 "Transient backend").
func Transient(ctx context.Context, maxElapsed time.Duration, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxElapsed

	return backoff.Retry(fn, backoff.WithContext(b, ctx))
}
