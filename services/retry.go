package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"relief-claims-api/apperrors"
	"relief-claims-api/models"
	"relief-claims-api/repository"
)

// RetryPolicy bounds how often a lost compare-and-set is retried.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	OnRetry         func(err error, wait time.Duration)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 5, InitialInterval: 20 * time.Millisecond}
}

// Run calls op until it succeeds, fails with a non-conflict error or the
// retry budget is spent. The last error is returned unchanged.
func (p RetryPolicy) Run(ctx context.Context, op func() error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	if exp.InitialInterval <= 0 {
		exp.InitialInterval = 20 * time.Millisecond
	}
	exp.MaxInterval = 500 * time.Millisecond
	exp.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(exp, p.MaxRetries), ctx)

	return backoff.RetryNotify(func() error {
		err := op()
		if err == nil || isConflict(err) {
			return err
		}
		return backoff.Permanent(err)
	}, b, p.OnRetry)
}

func isConflict(err error) bool {
	return errors.Is(err, repository.ErrConflict) || apperrors.Retryable(err)
}

// raceTracker follows one retried operation. It keeps the claim state the
// first attempt loaded and whether any attempt lost its compare-and-set.
type raceTracker struct {
	seen *repository.ClaimState
	lost bool
}

func (r *raceTracker) loaded(c *models.Claim) {
	if r.seen == nil {
		r.seen = &repository.ClaimState{Status: c.Status, Role: c.CurrentRole, Version: c.Version}
	}
}

func (r *raceTracker) committed(err error) error {
	if err != nil && isConflict(err) {
		r.lost = true
	}
	return err
}

// refused reports a policy refusal after a reload. When an earlier attempt
// lost the race and the claim has moved since the first load, the caller
// acted on state that was valid when read, so the refusal becomes a
// conflict and retrying stops.
func (r *raceTracker) refused(c *models.Claim, err error) error {
	if !r.lost || r.seen == nil {
		return err
	}
	if r.seen.Status == c.Status && r.seen.Role == c.CurrentRole && r.seen.Version == c.Version {
		return err
	}
	return backoff.Permanent(apperrors.Conflict(
		"claim %s moved from %s at %s to %s at %s while this action was applied; reload and retry",
		c.ClaimNumber, r.seen.Status, r.seen.Role, c.Status, c.CurrentRole))
}
