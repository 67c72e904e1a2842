// Package backoff provides delay schedules for retry.Backoff.
package backoff

import (
	"math"
	"time"
)

// Strategy returns the delay before the next attempt. attempts starts at 1.
type Strategy func(attempts uint) time.Duration

// Constant waits the same interval before every attempt
func Constant(interval time.Duration) Strategy {
	return func(uint) time.Duration {
		return interval
	}
}

// BinaryExponential doubles the delay on every attempt, starting at
// baseDelay. Overflow saturates at the maximum duration.
func BinaryExponential(baseDelay time.Duration) Strategy {
	return func(attempts uint) time.Duration {
		if attempts == 0 {
			attempts = 1
		}
		if attempts > 63 {
			return math.MaxInt64
		}

		delay := baseDelay << (attempts - 1)
		if delay < 0 || delay>>(attempts-1) != baseDelay {
			return math.MaxInt64
		}
		return delay
	}
}
