package pg

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/code-payments/code-config-program/pkg/retry"
	"github.com/code-payments/code-config-program/pkg/retry/backoff"
)

var (
	ErrAlreadyInTx = errors.New("already executing in existing db tx")
	ErrNotInTx     = errors.New("not executing in existing db tx")
)

const maxSerializationRetries = 10

type txContextKey struct{}

// ctxTx is the transaction carried by a context, along with the isolation
// level it was opened with
type ctxTx struct {
	tx        *sqlx.Tx
	isolation sql.IsolationLevel
}

// ExecuteRetryable reruns fn while it fails with a serialization failure, the
// expected outcome of conflicting repeatable read transactions
func ExecuteRetryable(ctx context.Context, fn func() error) error {
	_, err := retry.RetryWithContext(
		ctx,
		fn,
		retry.RetriableWhen(IsSerializationFailure),
		retry.Limit(maxSerializationRetries),
		retry.Backoff(backoff.BinaryExponential(5*time.Millisecond), 250*time.Millisecond),
	)
	return err
}

// ExecuteTxWithinCtx opens a transaction, passes it to fn through the context
// and commits when fn succeeds. Store methods called by fn join the
// transaction through ExecuteInTx.
func ExecuteTxWithinCtx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(context.Context) error) error {
	if _, ok := ctx.Value(txContextKey{}).(ctxTx); ok {
		return ErrAlreadyInTx
	}

	isolation = withDefaultIsolation(isolation)
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return err
	}

	ctx = context.WithValue(ctx, txContextKey{}, ctxTx{tx: tx, isolation: isolation})
	return finish(tx, fn(ctx))
}

// ExecuteInTx runs fn within the transaction carried by ctx, or within a new
// one it owns when ctx carries none. Only the owner commits or rolls back.
func ExecuteInTx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error {
	isolation = withDefaultIsolation(isolation)

	existing, err := txFromCtx(ctx, isolation)
	switch err {
	case nil:
		return fn(existing)
	case ErrNotInTx:
	default:
		return err
	}

	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return err
	}
	return finish(tx, fn(tx))
}

// finish commits tx, or rolls it back when fnErr is set. A rollback is always
// needed so sql.DB releases the connection.
func finish(tx *sqlx.Tx, fnErr error) error {
	if fnErr != nil {
		if err := tx.Rollback(); err != nil {
			return errors.Wrap(err, "failed to rollback transaction")
		}
		return fnErr
	}
	return tx.Commit()
}

func txFromCtx(ctx context.Context, desired sql.IsolationLevel) (*sqlx.Tx, error) {
	v := ctx.Value(txContextKey{})
	if v == nil {
		return nil, ErrNotInTx
	}

	current, ok := v.(ctxTx)
	if !ok {
		return nil, errors.New("invalid type for tx")
	}
	if current.isolation < desired {
		return nil, errors.Errorf("current tx isolation %s is weaker than %s", current.isolation, desired)
	}
	return current.tx, nil
}

func withDefaultIsolation(isolation sql.IsolationLevel) sql.IsolationLevel {
	if isolation == sql.LevelDefault {
		return sql.LevelReadCommitted
	}
	return isolation
}
