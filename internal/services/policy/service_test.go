package policy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
)

type stubEvaluator struct {
	decision domain.PolicyDecision
	reason   string
	err      error
	delay    time.Duration
}

func (s *stubEvaluator) Evaluate(ctx context.Context, tenantID, repoID, versionID string, action domain.PolicyAction) (domain.PolicyDecision, string, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return "", "", ctx.Err()
		case <-time.After(s.delay):
		}
	}
	return s.decision, s.reason, s.err
}

func TestEvaluateNoEvaluatorFailsClosed(t *testing.T) {
	uc := &UseCase{}

	decision, reason, err := uc.evaluate(context.Background(), "t1", "r1", "v1", domain.PolicyActionPublish)
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyDecisionDeny, decision)
	assert.Contains(t, reason, "no policy evaluator")
}

func TestEvaluatePassesThroughEvaluatorDecision(t *testing.T) {
	uc := &UseCase{Evaluator: &stubEvaluator{decision: domain.PolicyDecisionAllow, reason: "ok"}}

	decision, reason, err := uc.evaluate(context.Background(), "t1", "r1", "v1", domain.PolicyActionPublish)
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyDecisionAllow, decision)
	assert.Equal(t, "ok", reason)
}

func TestEvaluateTimesOutAsPolicyTimeout(t *testing.T) {
	uc := &UseCase{
		Evaluator: &stubEvaluator{delay: 50 * time.Millisecond},
		Timeout:   5 * time.Millisecond,
	}

	_, _, err := uc.evaluate(context.Background(), "t1", "r1", "v1", domain.PolicyActionPublish)
	require.Error(t, err)

	var precondition apperrors.FailedPreconditionError
	assert.False(t, errors.As(err, &precondition))

	var unavailable apperrors.ServiceUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "0204", unavailable.Code)
}

func TestEvaluatePropagatesNonTimeoutError(t *testing.T) {
	boom := errors.New("evaluator boom")
	uc := &UseCase{Evaluator: &stubEvaluator{err: boom}}

	_, _, err := uc.evaluate(context.Background(), "t1", "r1", "v1", domain.PolicyActionPublish)
	require.Error(t, err)
	assert.Equal(t, boom, err)
}
