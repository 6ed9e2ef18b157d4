package dbal

import (
	"context"
	log "log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds how a failed operation is reattempted: up to MaxAttempts
// total executions, with an exponential backoff that starts at BaseDelay and
// doubles after each failure.
type RetryPolicy struct {
	// MaxAttempts is the total number of executions, first attempt included.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`
	// BaseDelay is the wait after the first failure. It doubles per failure.
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay"`
}

// DefaultRetryPolicy is used wherever a policy is not supplied explicitly.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 1 * time.Second
	}
	return p
}

// RetryWithPolicy executes task up to policy.MaxAttempts times with exponential
// backoff, logging each failed attempt under the given operation name. When
// attempts are exhausted the last error is returned to the caller as-is, so
// error identity checks (errors.Is/errors.As) keep working.
func RetryWithPolicy(ctx context.Context, name string, policy RetryPolicy, task func(ctx context.Context) error) error {
	policy = policy.normalized()
	b := retry.WithMaxRetries(uint64(policy.MaxAttempts-1), retry.NewExponential(policy.BaseDelay))
	attempt := 0
	if err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := task(ctx); err != nil {
			log.Warn(err.Error()+", will retry", "name", name, "attempt", attempt, "maxAttempts", policy.MaxAttempts)
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		log.Warn(err.Error()+", gave up", "name", name)
		return err
	}
	return nil
}

// Retry executes task with the default policy. If retries are exhausted,
// gaveUpTask is invoked (when not nil) and the final error is returned.
func Retry(ctx context.Context, name string, task func(ctx context.Context) error, gaveUpTask func(ctx context.Context)) error {
	if err := RetryWithPolicy(ctx, name, DefaultRetryPolicy(), task); err != nil {
		if gaveUpTask != nil {
			gaveUpTask(ctx)
		}
		return err
	}
	return nil
}
