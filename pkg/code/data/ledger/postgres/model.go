package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/code-config-program/pkg/code/data/ledger"
	pgutil "github.com/code-payments/code-config-program/pkg/database/postgres"
)

const (
	tableName = "configprogram__core_ledgeraccount"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address string `db:"address"`
	Owner   string `db:"owner"`

	Lamports   uint64 `db:"lamports"`
	Data       []byte `db:"data"`
	Executable bool   `db:"executable"`

	Version uint64 `db:"version"`

	LastUpdatedAt time.Time `db:"last_updated_at"`
}

func toModel(obj *ledger.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	data := obj.Data
	if data == nil {
		data = []byte{}
	}

	return &model{
		Address: obj.Address,
		Owner:   obj.Owner,

		Lamports:   obj.Lamports,
		Data:       data,
		Executable: obj.Executable,

		Version: obj.Version,

		LastUpdatedAt: obj.LastUpdatedAt,
	}, nil
}

func fromModel(obj *model) *ledger.Record {
	return &ledger.Record{
		Id: uint64(obj.Id.Int64),

		Address: obj.Address,
		Owner:   obj.Owner,

		Lamports:   obj.Lamports,
		Data:       obj.Data,
		Executable: obj.Executable,

		Version: obj.Version,

		LastUpdatedAt: obj.LastUpdatedAt,
	}
}

// dbSave inserts a new account when Version is zero, and otherwise updates
// the row only if its version still matches. Either way the stored version
// is advanced by one.
func (m *model) dbSave(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		m.LastUpdatedAt = time.Now()

		if m.Version == 0 {
			query := `INSERT INTO ` + tableName + `
				(address, owner, lamports, data, executable, version, last_updated_at)
				VALUES ($1, $2, $3, $4, $5, 1, $6)

				RETURNING
					id, address, owner, lamports, data, executable, version, last_updated_at`

			err := tx.QueryRowxContext(
				ctx,
				query,
				m.Address,
				m.Owner,
				m.Lamports,
				m.Data,
				m.Executable,
				m.LastUpdatedAt.UTC(),
			).StructScan(m)

			return pgutil.CheckUniqueViolation(err, ledger.ErrStaleVersion)
		}

		query := `UPDATE ` + tableName + `
			SET owner = $2, lamports = $3, data = $4, executable = $5, version = version + 1, last_updated_at = $6
			WHERE address = $1 AND version = $7

			RETURNING
				id, address, owner, lamports, data, executable, version, last_updated_at`

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Owner,
			m.Lamports,
			m.Data,
			m.Executable,
			m.LastUpdatedAt.UTC(),
			m.Version,
		).StructScan(m)

		return pgutil.CheckNoRows(err, ledger.ErrStaleVersion)
	})
}

func dbGet(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	res := &model{}

	query := `SELECT id, address, owner, lamports, data, executable, version, last_updated_at FROM ` + tableName + `
		WHERE address = $1
		LIMIT 1`

	err := db.GetContext(ctx, res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, ledger.ErrAccountNotFound)
	}
	return res, nil
}

func dbGetAllByOwner(ctx context.Context, db *sqlx.DB, owner string) ([]*model, error) {
	var res []*model

	query := `SELECT id, address, owner, lamports, data, executable, version, last_updated_at FROM ` + tableName + `
		WHERE owner = $1
		ORDER BY address ASC`

	err := db.SelectContext(ctx, &res, query, owner)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, ledger.ErrAccountNotFound)
	}
	if len(res) == 0 {
		return nil, ledger.ErrAccountNotFound
	}
	return res, nil
}
