package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/code-config-program/pkg/code/data/ledger"
	pgutil "github.com/code-payments/code-config-program/pkg/database/postgres"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres ledger.Store
func New(db *sql.DB) ledger.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Get implements ledger.Store.Get
func (s *store) Get(ctx context.Context, address string) (*ledger.Record, error) {
	model, err := dbGet(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetAllByOwner implements ledger.Store.GetAllByOwner
func (s *store) GetAllByOwner(ctx context.Context, owner string) ([]*ledger.Record, error) {
	models, err := dbGetAllByOwner(ctx, s.db, owner)
	if err != nil {
		return nil, err
	}

	res := make([]*ledger.Record, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res, nil
}

// Save implements ledger.Store.Save
func (s *store) Save(ctx context.Context, records ...*ledger.Record) error {
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return err
		}
	}

	var models []*model
	err := pgutil.ExecuteRetryable(ctx, func() error {
		// Rebuilt on every attempt, since a failed attempt may have scanned
		// into them
		models = make([]*model, len(records))
		for i, record := range records {
			model, err := toModel(record)
			if err != nil {
				return err
			}
			models[i] = model
		}

		return pgutil.ExecuteTxWithinCtx(ctx, s.db, sql.LevelRepeatableRead, func(ctx context.Context) error {
			for _, model := range models {
				if err := model.dbSave(ctx, s.db); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	for i, model := range models {
		fromModel(model).CopyTo(records[i])
	}
	return nil
}
