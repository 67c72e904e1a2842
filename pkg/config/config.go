package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoValue is returned by a source that has nothing set for its key
	ErrNoValue = errors.New("config: no value set")

	// ErrShutdown is returned by a source used after Shutdown
	ErrShutdown = errors.New("config: shutdown")
)

// Config is a raw configuration source. Typed values are layered on top of a
// source by the wrapper package.
type Config interface {
	// Get returns the current raw value, or ErrNoValue
	Get(ctx context.Context) (interface{}, error)

	// Shutdown releases any resources held by the source
	Shutdown()
}

// Value is a typed view over a Config. Get never fails and falls back to the
// last good value, GetSafe surfaces the source or conversion error.
type Value[T any] interface {
	Get(ctx context.Context) T
	GetSafe(ctx context.Context) (T, error)
	Shutdown()
}

type (
	Bool     = Value[bool]
	Duration = Value[time.Duration]
	Float64  = Value[float64]
	Uint64   = Value[uint64]
)
