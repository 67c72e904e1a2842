package configprogram

import (
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-config-program/pkg/solana"
	"github.com/code-payments/code-config-program/pkg/solana/system"
)

type initializeConfigAccounts struct {
	config        *solana.KeyedAccount
	base          *solana.KeyedAccount
	admin         *solana.KeyedAccount
	server        *solana.KeyedAccount
	rentSysvar    *solana.KeyedAccount
	systemProgram *solana.KeyedAccount
}

func (p *Program) parseInitializeConfigAccounts(accounts []*solana.KeyedAccount) (*initializeConfigAccounts, error) {
	if len(accounts) != p.schema.InitializeConfigAccountCount() {
		return nil, ErrNotEnoughAccountKeys
	}

	parsed := &initializeConfigAccounts{
		config: accounts[0],
		base:   accounts[1],
		admin:  accounts[2],
	}

	next := 3
	if p.schema.HasServer {
		parsed.server = accounts[next]
		next++
	}
	parsed.rentSysvar = accounts[next]
	parsed.systemProgram = accounts[next+1]

	return parsed, nil
}

func (p *Program) processInitializeConfig(ctx solana.InvokeContext, log *logrus.Entry, accounts []*solana.KeyedAccount, data []byte) error {
	args, err := DecodeInitializeConfigInstructionArgs(p.schema, data)
	if err != nil {
		return err
	}

	parsed, err := p.parseInitializeConfigAccounts(accounts)
	if err != nil {
		return err
	}

	programID := ctx.ProgramID()
	log = log.WithField("config", base58.Encode(parsed.config.Key))

	// ----------------------- CHECKS -----------------------

	if err := RequireProgram(parsed.systemProgram, SYSTEM_PROGRAM_ID); err != nil {
		return err
	}
	if err := RequireSysvar(parsed.rentSysvar, SYSVAR_RENT_PUBKEY); err != nil {
		return err
	}
	if err := RequireFreshSystemAccount(parsed.config, programID); err != nil {
		return err
	}
	if err := RequireWritable(parsed.config); err != nil {
		return err
	}
	if err := VerifyConfigAddress(programID, parsed.base.Key, args.Bump, parsed.config.Key); err != nil {
		log.Info("config account has an invalid key")
		return err
	}
	if err := RequireSigner(parsed.admin, true); err != nil {
		return err
	}

	// ----------------------- WORK -----------------------

	rent, err := readRent(parsed.rentSysvar)
	if err != nil {
		return err
	}

	seeds := ConfigSeeds(parsed.base.Key, args.Bump)
	if err := CheckConfigSeeds(parsed.base.Key, args.Bump, seeds); err != nil {
		return err
	}

	size := uint64(p.schema.ConfigAccountSize())
	createIx := system.CreateAccount(
		parsed.admin.Key,
		parsed.config.Key,
		programID,
		rent.MinimumBalance(size),
		size,
	)
	if err := ctx.InvokeSigned(createIx, seeds); err != nil {
		return err
	}

	ref, err := parsed.config.TryBorrowMutData()
	if err != nil {
		return err
	}
	defer ref.Release()

	config, err := viewConfigMutUninitialized(p.schema, ref)
	if err != nil {
		return err
	}
	if config.AccountType() != AccountTypeUninitialized {
		return ErrAlreadyInitialized
	}

	if err := config.SetBump(args.Bump); err != nil {
		return err
	}
	if err := config.SetBase(parsed.base.Key); err != nil {
		return err
	}
	if err := config.SetAdmin(parsed.admin.Key); err != nil {
		return err
	}
	if p.schema.HasServer {
		if err := config.SetServer(parsed.server.Key); err != nil {
			return err
		}
	}
	if err := config.SetFeeBasisPoints(args.FeeBasisPoints); err != nil {
		return err
	}

	// Tag goes last so a tagged config is always fully written
	if err := config.SetAccountType(AccountTypeConfig); err != nil {
		return err
	}

	log.WithField("admin", base58.Encode(parsed.admin.Key)).Debug("config initialized")

	return nil
}

func readRent(account *solana.KeyedAccount) (*system.Rent, error) {
	ref, err := account.TryBorrowData()
	if err != nil {
		return nil, err
	}
	defer ref.Release()

	var rent system.Rent
	if err := rent.Unmarshal(ref.Data()); err != nil {
		return nil, ErrInvalidSysvar
	}
	return &rent, nil
}
