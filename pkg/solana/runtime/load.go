package runtime

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-config-program/pkg/code/data/ledger"
	"github.com/code-payments/code-config-program/pkg/solana"
	"github.com/code-payments/code-config-program/pkg/solana/system"
)

type loadedAccount struct {
	account *solana.KeyedAccount

	// record is nil for accounts the ledger does not persist, such as
	// sysvars and programs
	record *ledger.Record
}

type loadedTransaction struct {
	order    []string
	accounts map[string]*loadedAccount
}

// load resolves every account referenced by tx. Missing accounts are
// materialized as empty system accounts.
func (b *Bank) load(ctx context.Context, tx *Transaction) (*loadedTransaction, error) {
	signers := make(map[string]struct{}, len(tx.Signers))
	for _, signer := range tx.Signers {
		signers[string(signer)] = struct{}{}
	}

	writable := make(map[string]bool)
	loaded := &loadedTransaction{
		accounts: make(map[string]*loadedAccount),
	}

	for _, ix := range tx.Instructions {
		for _, meta := range ix.Accounts {
			if len(meta.PublicKey) != ed25519.PublicKeySize {
				return nil, errors.Errorf("invalid account key length: %d", len(meta.PublicKey))
			}

			key := string(meta.PublicKey)
			if meta.IsSigner {
				if _, ok := signers[key]; !ok {
					return nil, errors.Wrapf(ErrMissingSignature, "account %s", base58.Encode(meta.PublicKey))
				}
			}

			if _, ok := writable[key]; !ok {
				loaded.order = append(loaded.order, key)
			}
			writable[key] = writable[key] || meta.IsWritable
		}
	}

	for _, key := range loaded.order {
		_, isSigner := signers[key]

		account, err := b.loadAccount(ctx, ed25519.PublicKey(key), isSigner, writable[key])
		if err != nil {
			return nil, err
		}
		loaded.accounts[key] = account
	}

	return loaded, nil
}

func (b *Bank) loadAccount(ctx context.Context, key ed25519.PublicKey, isSigner, isWritable bool) (*loadedAccount, error) {
	if bytes.Equal(key, system.RentSysVar) {
		return &loadedAccount{
			account: solana.NewKeyedAccount(key, b.rentAccount(ctx), isSigner, false),
		}, nil
	}

	if _, ok := b.getProgram(key); ok {
		info := solana.AccountInfo{
			Owner:      NativeLoader,
			Executable: true,
		}
		return &loadedAccount{
			account: solana.NewKeyedAccount(key, info, isSigner, false),
		}, nil
	}

	address := base58.Encode(key)
	record, err := b.store.Get(ctx, address)
	if err == ledger.ErrAccountNotFound {
		record = &ledger.Record{
			Address: address,
			Owner:   base58.Encode(system.SystemAccount),
		}
	} else if err != nil {
		return nil, errors.Wrapf(err, "error loading account %s", address)
	}

	info, err := toAccountInfo(record)
	if err != nil {
		return nil, err
	}

	return &loadedAccount{
		account: solana.NewKeyedAccount(key, info, isSigner, isWritable),
		record:  record,
	}, nil
}

// commit saves every writable ledger account in a single batch. Accounts left
// empty and unfunded by a transaction that never stored them are skipped.
func (b *Bank) commit(ctx context.Context, loaded *loadedTransaction) (int, error) {
	var records []*ledger.Record
	for _, key := range loaded.order {
		entry := loaded.accounts[key]
		if entry.record == nil || !entry.account.IsWritable {
			continue
		}

		info, err := entry.account.Snapshot()
		if err != nil {
			return 0, err
		}

		if entry.record.Version == 0 && info.Lamports == 0 && len(info.Data) == 0 {
			continue
		}

		record := entry.record.Clone()
		record.Owner = base58.Encode(info.Owner)
		record.Lamports = info.Lamports
		record.Data = info.Data
		record.Executable = info.Executable
		records = append(records, &record)
	}

	if len(records) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, b.conf.commitTimeout.Get(ctx))
	defer cancel()

	if err := b.store.Save(ctx, records...); err != nil {
		return 0, errors.Wrap(err, "error committing transaction")
	}
	return len(records), nil
}
