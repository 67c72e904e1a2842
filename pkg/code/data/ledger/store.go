package ledger

import (
	"context"
	"errors"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrStaleVersion    = errors.New("account version is stale")
)

// Store persists account state for the local runtime
type Store interface {
	// Get gets the latest state of an account
	Get(ctx context.Context, address string) (*Record, error)

	// GetAllByOwner gets all accounts owned by a program, ordered by address
	GetAllByOwner(ctx context.Context, owner string) ([]*Record, error)

	// Save atomically upserts every record. A record whose Version does not
	// match the stored version fails the whole batch with ErrStaleVersion.
	// On success each record's Version is advanced by one.
	Save(ctx context.Context, records ...*Record) error
}
