package main

import (
	"crypto/ed25519"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/code-payments/code-config-program/pkg/code/data/ledger"
	memory_ledger "github.com/code-payments/code-config-program/pkg/code/data/ledger/memory"
	postgres_ledger "github.com/code-payments/code-config-program/pkg/code/data/ledger/postgres"
	pg "github.com/code-payments/code-config-program/pkg/database/postgres"
	"github.com/code-payments/code-config-program/pkg/solana"
	"github.com/code-payments/code-config-program/pkg/solana/configprogram"
	"github.com/code-payments/code-config-program/pkg/solana/runtime"
)

var (
	signerFlags []string

	airdropAccountFlag  string
	airdropLamportsFlag uint64

	fundAdminFlag uint64
)

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Execute config program instructions against a local ledger",
	Long: "Execute config program instructions against a local ledger. The postgres\n" +
		"ledger persists across invocations, the memory ledger lasts for one command.",
}

var localAirdropCmd = &cobra.Command{
	Use:   "airdrop",
	Short: "Credit lamports to an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		account, err := parseKey("account", airdropAccountFlag)
		if err != nil {
			return err
		}

		bank, err := newLocalBank()
		if err != nil {
			return err
		}

		if err := bank.Airdrop(rootCtx, account, airdropLamportsFlag); err != nil {
			return err
		}

		info, err := bank.GetAccount(rootCtx, account)
		if err != nil {
			return err
		}
		return printFields(map[string]interface{}{
			"account":  base58.Encode(account),
			"lamports": info.Lamports,
		})
	},
}

var localInitializeCmd = &cobra.Command{
	Use:   "initialize",
	Short: "Initialize a config account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, err := buildInitializeInstruction(cmd)
		if err != nil {
			return err
		}

		bank, err := newLocalBank()
		if err != nil {
			return err
		}

		if fundAdminFlag > 0 {
			admin, err := parseKey("admin", adminFlag)
			if err != nil {
				return err
			}
			if err := bank.Airdrop(rootCtx, admin, fundAdminFlag); err != nil {
				return err
			}
		}

		return submitLocal(bank, ix)
	},
}

var localUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update a config account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, err := buildUpdateInstruction(cmd)
		if err != nil {
			return err
		}

		bank, err := newLocalBank()
		if err != nil {
			return err
		}
		return submitLocal(bank, ix)
	},
}

var localShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Decode a config account from the local ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		programID, schema, err := programAndSchema()
		if err != nil {
			return err
		}

		address, err := resolveConfigAddress(programID)
		if err != nil {
			return err
		}

		bank, err := newLocalBank()
		if err != nil {
			return err
		}

		info, err := bank.GetAccount(rootCtx, address)
		if err == ledger.ErrAccountNotFound {
			return errors.Errorf("config account %s not found", base58.Encode(address))
		} else if err != nil {
			return err
		}

		out, err := decodeConfigAccount(programID, schema, address, info)
		if err != nil {
			return err
		}
		return printConfig(out)
	},
}

var localListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every config account in the local ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		programID, schema, err := programAndSchema()
		if err != nil {
			return err
		}

		bank, err := newLocalBank()
		if err != nil {
			return err
		}

		accounts, err := bank.GetProgramAccounts(rootCtx, programID)
		if err != nil {
			return err
		}

		log := logrus.StandardLogger().WithField("method", "local list")
		return printConfigs(decodeConfigAccounts(log, programID, schema, accounts))
	},
}

func init() {
	addInitializeFlags(localInitializeCmd)
	addUpdateFlags(localUpdateCmd)

	for _, cmd := range []*cobra.Command{localInitializeCmd, localUpdateCmd} {
		cmd.Flags().StringSliceVar(&signerFlags, "signer", nil, "keys that sign the transaction, defaults to every signer the instruction requires")
	}

	localInitializeCmd.Flags().Uint64Var(&fundAdminFlag, "fund-admin", 0, "lamports to airdrop to the admin before initializing")

	localAirdropCmd.Flags().StringVar(&airdropAccountFlag, "account", "", "account to credit")
	localAirdropCmd.Flags().Uint64Var(&airdropLamportsFlag, "lamports", 1_000_000_000, "lamports to credit")

	localShowCmd.Flags().StringVar(&baseFlag, "base", "", "base key the config is derived from")
	localShowCmd.Flags().StringVar(&configFlag, "config-address", "", "config address, instead of --base")

	localCmd.AddCommand(localAirdropCmd)
	localCmd.AddCommand(localInitializeCmd)
	localCmd.AddCommand(localUpdateCmd)
	localCmd.AddCommand(localShowCmd)
	localCmd.AddCommand(localListCmd)
}

func newLocalBank() (*runtime.Bank, error) {
	store, err := newLedgerStore()
	if err != nil {
		return nil, err
	}

	programID, schema, err := programAndSchema()
	if err != nil {
		return nil, err
	}

	program, err := configprogram.New(schema)
	if err != nil {
		return nil, err
	}

	bank := runtime.NewBank(store, runtime.WithViperConfigs(viper.GetViper()))
	if err := bank.RegisterProgram(programID, program); err != nil {
		return nil, err
	}
	return bank, nil
}

func newLedgerStore() (ledger.Store, error) {
	switch strings.ToLower(cfg.Ledger) {
	case "memory":
		return memory_ledger.New(), nil
	case "postgres":
		db, err := pg.New(&pg.Config{
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			DbName:   cfg.Postgres.DbName,
		})
		if err != nil {
			return nil, errors.Wrap(err, "error connecting to postgres")
		}
		return postgres_ledger.New(db), nil
	default:
		return nil, errors.Errorf("unknown ledger: %q", cfg.Ledger)
	}
}

func submitLocal(bank *runtime.Bank, ix solana.Instruction) error {
	signers, err := transactionSigners(ix)
	if err != nil {
		return err
	}

	if err := bank.ProcessTransaction(rootCtx, runtime.NewTransaction(signers, ix)); err != nil {
		return describeFailure(err)
	}

	// The config account is always the first account of both instructions
	address := ix.Accounts[0].PublicKey
	info, err := bank.GetAccount(rootCtx, address)
	if err != nil {
		return err
	}

	programID, schema, err := programAndSchema()
	if err != nil {
		return err
	}
	out, err := decodeConfigAccount(programID, schema, address, info)
	if err != nil {
		return err
	}
	return printConfig(out)
}

func transactionSigners(ix solana.Instruction) ([]ed25519.PublicKey, error) {
	if len(signerFlags) == 0 {
		return ix.Signers(), nil
	}

	signers := make([]ed25519.PublicKey, len(signerFlags))
	for i, value := range signerFlags {
		key, err := parseKey("signer", value)
		if err != nil {
			return nil, err
		}
		signers[i] = key
	}
	return signers, nil
}

// describeFailure names the program error behind a failed instruction
func describeFailure(err error) error {
	var programErr configprogram.ProgramError
	if errors.As(err, &programErr) {
		return errors.Wrapf(err, "transaction rejected with %s (0x%x)", programErr.Name(), programErr.ErrorCode())
	}
	return errors.Wrap(err, "transaction rejected")
}
