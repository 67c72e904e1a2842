package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/code-payments/code-config-program/pkg/code/data/ledger/memory"
	"github.com/code-payments/code-config-program/pkg/pointer"
	"github.com/code-payments/code-config-program/pkg/solana"
	"github.com/code-payments/code-config-program/pkg/solana/runtime"
)

var (
	rentSizeFlag   uint64
	rentRemoteFlag bool
)

var rentCmd = &cobra.Command{
	Use:   "rent",
	Short: "Compute the rent exempt minimum for an account size",
	Long: "Compute the rent exempt minimum for an account size. Without --size the\n" +
		"config account size of the selected schema is used.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := cfg.schema()
		if err != nil {
			return err
		}

		size := pointer.ValueOr(
			pointer.IfValid(cmd.Flags().Changed("size"), rentSizeFlag),
			uint64(schema.ConfigAccountSize()),
		)

		// Rent parameters come from the config file or RENT_* environment
		// variables, falling back to the cluster defaults
		bank := runtime.NewBank(memory.New(), runtime.WithViperConfigs(viper.GetViper()))
		rent := bank.Rent(rootCtx)

		fields := map[string]interface{}{
			"size":                   size,
			"lamports_per_byte_year": rent.LamportsPerByteYear,
			"exemption_threshold":    rent.ExemptionThreshold,
			"minimum_balance":        rent.MinimumBalance(size),
		}

		if rentRemoteFlag {
			remote, err := solana.New(cfg.RPCEndpoint).GetMinimumBalanceForRentExemption(size)
			if err != nil {
				return errors.Wrap(err, "error querying rent exemption minimum")
			}
			fields["rpc_minimum_balance"] = remote
		}

		return printFields(fields)
	},
}

func init() {
	rentCmd.Flags().Uint64Var(&rentSizeFlag, "size", 0, "account data size in bytes")
	rentCmd.Flags().BoolVar(&rentRemoteFlag, "remote", false, "also query the minimum from the RPC endpoint")
}
