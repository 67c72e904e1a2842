package retry

import (
	"errors"
	"time"

	"github.com/code-payments/code-config-program/pkg/retry/backoff"
)

// Strategy decides whether a failed attempt is retried. Strategies may block
// to delay the next attempt.
type Strategy func(attempts uint, err error) bool

// Limit caps the total number of attempts, including the first
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors retries only errors matching one of retriable via errors.Is
func RetriableErrors(retriable ...error) Strategy {
	return RetriableWhen(func(err error) bool {
		for _, target := range retriable {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	})
}

// RetriableWhen retries only errors accepted by classifier, for cases where
// retriability depends on error contents such as a database error code
func RetriableWhen(classifier func(error) bool) Strategy {
	return func(_ uint, err error) bool {
		return classifier(err)
	}
}

// Backoff sleeps according to strategy, capped at maxBackoff, and always
// allows the retry
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return func(attempts uint, _ error) bool {
		delay := strategy(attempts)
		if delay > maxBackoff {
			delay = maxBackoff
		}
		sleeperImpl.Sleep(delay)
		return true
	}
}

type sleeper interface {
	Sleep(time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

var sleeperImpl sleeper = realSleeper{}
