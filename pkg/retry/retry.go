// Package retry runs an action until it succeeds or a Strategy gives up.
package retry

import "context"

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retrier runs actions under a fixed set of strategies
type Retrier interface {
	Retry(action Action) (uint, error)
	RetryWithContext(ctx context.Context, action Action) (uint, error)
}

type retrier struct {
	strategies []Strategy
}

// NewRetrier returns a Retrier applying strategies in order. Without any
// strategy, actions are retried until they succeed.
func NewRetrier(strategies ...Strategy) Retrier {
	return &retrier{
		strategies: strategies,
	}
}

func (r *retrier) Retry(action Action) (uint, error) {
	return RetryWithContext(context.Background(), action, r.strategies...)
}

func (r *retrier) RetryWithContext(ctx context.Context, action Action) (uint, error) {
	return RetryWithContext(ctx, action, r.strategies...)
}

// Retry is RetryWithContext with a background context
func Retry(action Action, strategies ...Strategy) (uint, error) {
	return RetryWithContext(context.Background(), action, strategies...)
}

// RetryWithContext runs action until it succeeds, a strategy declines another
// attempt, or ctx is done. It returns the number of attempts made along with
// the last action error, or ctx.Err() if the action never ran.
//
// Strategies run in order after every failure, so delaying strategies belong
// last.
func RetryWithContext(ctx context.Context, action Action, strategies ...Strategy) (uint, error) {
	var attempts uint
	for {
		if err := ctx.Err(); err != nil && attempts == 0 {
			return 0, err
		}

		attempts++
		err := action()
		if err == nil {
			return attempts, nil
		}

		if !shouldRetry(strategies, attempts, err) || ctx.Err() != nil {
			return attempts, err
		}
	}
}

func shouldRetry(strategies []Strategy, attempts uint, err error) bool {
	for _, s := range strategies {
		if !s(attempts, err) {
			return false
		}
	}
	return true
}
