// Package runtime executes transactions against programs registered in a
// Bank, loading and committing account state through a ledger.Store.
package runtime

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-config-program/pkg/code/data/ledger"
	"github.com/code-payments/code-config-program/pkg/metrics"
	"github.com/code-payments/code-config-program/pkg/retry"
	"github.com/code-payments/code-config-program/pkg/retry/backoff"
	"github.com/code-payments/code-config-program/pkg/solana"
	"github.com/code-payments/code-config-program/pkg/solana/system"
)

const (
	metricsStructName = "runtime.bank"

	transactionEventName   = "RuntimeTransaction"
	committedAccountsCount = "Runtime_CommittedAccounts"
	transactionDuration    = "Runtime_TransactionDuration"

	// MaxInvokeDepth bounds nested cross-program invocations
	MaxInvokeDepth = 4
)

var (
	ErrNoInstructions           = errors.New("transaction has no instructions")
	ErrMissingSignature         = errors.New("transaction is missing a required signature")
	ErrProgramAlreadyRegistered = errors.New("program already registered")
	ErrInsufficientFundsForRent = errors.New("account is not rent exempt")
)

// NativeLoader owns every builtin and registered program account
var NativeLoader = mustBase58Decode("NativeLoader1111111111111111111111111111111")

// Transaction is an ordered list of instructions executed atomically. Signers
// lists every key whose signature accompanies the transaction.
type Transaction struct {
	Signers      []ed25519.PublicKey
	Instructions []solana.Instruction
}

// NewTransaction returns a transaction signed by the provided keys
func NewTransaction(signers []ed25519.PublicKey, instructions ...solana.Instruction) *Transaction {
	return &Transaction{
		Signers:      signers,
		Instructions: instructions,
	}
}

// Bank executes transactions one at a time
type Bank struct {
	log  *logrus.Entry
	conf *conf

	store   ledger.Store
	retrier retry.Retrier

	programsMu sync.RWMutex
	programs   map[string]solana.Program

	execMu sync.Mutex
}

// NewBank returns a Bank backed by store with the system program registered
func NewBank(store ledger.Store, configProvider ConfigProvider) *Bank {
	b := &Bank{
		log:   logrus.StandardLogger().WithField("type", "solana/runtime"),
		conf:  configProvider(),
		store: store,
		retrier: retry.NewRetrier(
			retry.RetriableErrors(ledger.ErrStaleVersion),
			retry.Limit(3),
			retry.Backoff(backoff.Constant(10*time.Millisecond), 10*time.Millisecond),
		),
		programs: make(map[string]solana.Program),
	}
	b.programs[string(system.SystemAccount)] = system.Processor{}
	return b
}

// RegisterProgram makes program invocable at id
func (b *Bank) RegisterProgram(id ed25519.PublicKey, program solana.Program) error {
	if len(id) != ed25519.PublicKeySize {
		return errors.Errorf("invalid program id length: %d", len(id))
	}

	b.programsMu.Lock()
	defer b.programsMu.Unlock()

	if _, ok := b.programs[string(id)]; ok {
		return ErrProgramAlreadyRegistered
	}
	b.programs[string(id)] = program
	return nil
}

func (b *Bank) getProgram(id ed25519.PublicKey) (solana.Program, bool) {
	b.programsMu.RLock()
	defer b.programsMu.RUnlock()

	program, ok := b.programs[string(id)]
	return program, ok
}

// Rent returns the rent parameters currently in effect
func (b *Bank) Rent(ctx context.Context) system.Rent {
	return system.Rent{
		LamportsPerByteYear: b.conf.rentLamportsPerByteYear.Get(ctx),
		ExemptionThreshold:  b.conf.rentExemptionThreshold.Get(ctx),
		BurnPercent:         uint8(b.conf.rentBurnPercent.Get(ctx)),
	}
}

// ProcessTransaction executes every instruction of tx in order. Account
// changes are committed only if all of them succeed. An instruction failure is
// returned as a solana.InstructionError.
func (b *Bank) ProcessTransaction(ctx context.Context, tx *Transaction) error {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ProcessTransaction")
	defer tracer.End()

	if len(tx.Instructions) == 0 {
		return ErrNoInstructions
	}

	b.execMu.Lock()
	defer b.execMu.Unlock()

	start := time.Now()

	var committed int
	_, err := b.retrier.RetryWithContext(ctx, func() error {
		var err error
		committed, err = b.execute(ctx, tx)
		return err
	})

	elapsed := time.Since(start)
	metrics.RecordEvent(ctx, transactionEventName, map[string]interface{}{
		"instructions": len(tx.Instructions),
		"success":      err == nil,
		"duration_ms":  elapsed.Milliseconds(),
	})
	metrics.RecordDuration(ctx, transactionDuration, elapsed)

	if err != nil {
		tracer.OnError(err)
		return err
	}

	metrics.RecordCount(ctx, committedAccountsCount, uint64(committed))
	return nil
}

func (b *Bank) execute(ctx context.Context, tx *Transaction) (int, error) {
	loaded, err := b.load(ctx, tx)
	if err != nil {
		return 0, err
	}

	for i, ix := range tx.Instructions {
		log := b.log.WithFields(logrus.Fields{
			"method":      "execute",
			"instruction": i,
			"program":     base58.Encode(ix.Program),
		})

		if err := b.executeInstruction(ctx, log, loaded, ix); err != nil {
			log.WithError(err).Debug("instruction failed")
			return 0, solana.InstructionError{Index: i, Err: err}
		}
	}

	return b.commit(ctx, loaded)
}

func (b *Bank) executeInstruction(ctx context.Context, log *logrus.Entry, loaded *loadedTransaction, ix solana.Instruction) error {
	program, ok := b.getProgram(ix.Program)
	if !ok {
		return solana.BuiltinError(solana.InstructionErrorUnsupportedProgramID)
	}

	accounts := make([]*solana.KeyedAccount, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		accounts[i] = loaded.accounts[string(meta.PublicKey)].account
	}

	pre, err := snapshotAll(accounts)
	if err != nil {
		return err
	}

	invokeCtx := &invokeContext{
		bank:      b,
		log:       log,
		programID: ix.Program,
		accounts:  indexAccounts(accounts),
		depth:     1,
	}
	if err := program.Process(invokeCtx, accounts, ix.Data); err != nil {
		return err
	}

	return b.verify(ctx, pre, accounts)
}

// verify checks the invariants the runtime enforces after every instruction
func (b *Bank) verify(ctx context.Context, pre map[string]solana.AccountInfo, accounts []*solana.KeyedAccount) error {
	var preLamports, postLamports uint64
	for _, info := range pre {
		preLamports += info.Lamports
	}

	seen := make(map[string]struct{})
	for _, account := range accounts {
		if _, ok := seen[string(account.Key)]; ok {
			continue
		}
		seen[string(account.Key)] = struct{}{}

		post, err := account.Snapshot()
		if err != nil {
			return solana.BuiltinError(solana.InstructionErrorAccountBorrowOutstanding)
		}
		postLamports += post.Lamports

		before := pre[string(account.Key)]
		if !account.IsWritable {
			if before.Lamports != post.Lamports {
				return solana.BuiltinError(solana.InstructionErrorReadonlyLamportChange)
			}
			if !bytes.Equal(before.Data, post.Data) || !bytes.Equal(before.Owner, post.Owner) {
				return solana.BuiltinError(solana.InstructionErrorReadonlyDataModified)
			}
		}

		if b.conf.enforceRentExemption.Get(ctx) && account.IsWritable && len(post.Data) > 0 {
			if !b.Rent(ctx).IsExempt(post.Lamports, uint64(len(post.Data))) {
				return ErrInsufficientFundsForRent
			}
		}
	}

	if preLamports != postLamports {
		return solana.BuiltinError(solana.InstructionErrorUnbalancedInstruction)
	}
	return nil
}

// Airdrop credits lamports to an account, creating it as an empty system
// account if it does not exist
func (b *Bank) Airdrop(ctx context.Context, account ed25519.PublicKey, lamports uint64) error {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Airdrop")
	defer tracer.End()

	b.execMu.Lock()
	defer b.execMu.Unlock()

	_, err := b.retrier.RetryWithContext(ctx, func() error {
		record, err := b.store.Get(ctx, base58.Encode(account))
		if err == ledger.ErrAccountNotFound {
			record = &ledger.Record{
				Address: base58.Encode(account),
				Owner:   base58.Encode(system.SystemAccount),
			}
		} else if err != nil {
			return err
		}

		record.Lamports += lamports
		return b.store.Save(ctx, record)
	})
	if err != nil {
		tracer.OnError(err)
		return errors.Wrap(err, "error saving airdropped account")
	}
	return nil
}

// GetAccount returns the committed state of an account. Accounts that were
// never written return ledger.ErrAccountNotFound.
func (b *Bank) GetAccount(ctx context.Context, account ed25519.PublicKey) (solana.AccountInfo, error) {
	if bytes.Equal(account, system.RentSysVar) {
		return b.rentAccount(ctx), nil
	}

	record, err := b.store.Get(ctx, base58.Encode(account))
	if err != nil {
		return solana.AccountInfo{}, err
	}
	return toAccountInfo(record)
}

// GetProgramAccounts returns every committed account owned by program,
// ordered by address
func (b *Bank) GetProgramAccounts(ctx context.Context, program ed25519.PublicKey) ([]solana.ProgramAccount, error) {
	records, err := b.store.GetAllByOwner(ctx, base58.Encode(program))
	if err != nil {
		return nil, err
	}

	res := make([]solana.ProgramAccount, len(records))
	for i, record := range records {
		address, err := base58.Decode(record.Address)
		if err != nil {
			return nil, errors.Wrap(err, "invalid stored address")
		}

		info, err := toAccountInfo(record)
		if err != nil {
			return nil, err
		}

		res[i] = solana.ProgramAccount{Address: address, Account: info}
	}
	return res, nil
}

func (b *Bank) rentAccount(ctx context.Context) solana.AccountInfo {
	rent := b.Rent(ctx)
	data := rent.Marshal()
	return solana.AccountInfo{
		Data:     data,
		Owner:    system.SysvarOwner,
		Lamports: rent.MinimumBalance(uint64(len(data))),
	}
}

func toAccountInfo(record *ledger.Record) (solana.AccountInfo, error) {
	owner, err := base58.Decode(record.Owner)
	if err != nil {
		return solana.AccountInfo{}, errors.Wrap(err, "invalid stored owner")
	}

	return solana.AccountInfo{
		Data:       record.Data,
		Owner:      owner,
		Lamports:   record.Lamports,
		Executable: record.Executable,
	}, nil
}

func snapshotAll(accounts []*solana.KeyedAccount) (map[string]solana.AccountInfo, error) {
	res := make(map[string]solana.AccountInfo, len(accounts))
	for _, account := range accounts {
		info, err := account.Snapshot()
		if err != nil {
			return nil, solana.BuiltinError(solana.InstructionErrorAccountBorrowOutstanding)
		}
		res[string(account.Key)] = info
	}
	return res, nil
}

func indexAccounts(accounts []*solana.KeyedAccount) map[string]*solana.KeyedAccount {
	res := make(map[string]*solana.KeyedAccount, len(accounts))
	for _, account := range accounts {
		res[string(account.Key)] = account
	}
	return res
}

func mustBase58Decode(value string) ed25519.PublicKey {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
