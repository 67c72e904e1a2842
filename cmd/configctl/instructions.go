package main

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/code-config-program/pkg/pointer"
	"github.com/code-payments/code-config-program/pkg/solana"
	"github.com/code-payments/code-config-program/pkg/solana/configprogram"
)

var (
	baseFlag   string
	configFlag string
	adminFlag  string
	serverFlag string
	feeFlag    uint64
	bumpFlag   uint8

	newAdminFlag  string
	newServerFlag string
	newFeeFlag    uint64
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Derive the config address and bump for a base key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		programID, err := cfg.programID()
		if err != nil {
			return err
		}
		base, err := parseKey("base", baseFlag)
		if err != nil {
			return err
		}

		address, bump, err := configprogram.GetConfigAddress(programID, &configprogram.GetConfigAddressArgs{Base: base})
		if err != nil {
			return errors.Wrap(err, "error deriving config address")
		}

		return printFields(map[string]interface{}{
			"address": base58.Encode(address),
			"bump":    bump,
		})
	},
}

var initializeIxCmd = &cobra.Command{
	Use:   "initialize-ix",
	Short: "Build an Initialize instruction",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, err := buildInitializeInstruction(cmd)
		if err != nil {
			return err
		}
		return printInstruction(ix)
	},
}

var updateIxCmd = &cobra.Command{
	Use:   "update-ix",
	Short: "Build an Update instruction. Omitted --new-* fields keep their stored value.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, err := buildUpdateInstruction(cmd)
		if err != nil {
			return err
		}
		return printInstruction(ix)
	},
}

func init() {
	addressCmd.Flags().StringVar(&baseFlag, "base", "", "base key the config is derived from")

	addInitializeFlags(initializeIxCmd)
	addUpdateFlags(updateIxCmd)
}

func addInitializeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&baseFlag, "base", "", "base key the config is derived from")
	cmd.Flags().StringVar(&adminFlag, "admin", "", "initial admin, also funds the config account")
	cmd.Flags().StringVar(&serverFlag, "server", "", "server key, for schemas that carry one")
	cmd.Flags().Uint64Var(&feeFlag, "fee", 0, "fee in basis points")
	cmd.Flags().Uint8Var(&bumpFlag, "bump", 0, "bump seed, defaults to the canonical bump")
}

func addUpdateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&baseFlag, "base", "", "base key the config is derived from")
	cmd.Flags().StringVar(&configFlag, "config-address", "", "config address, instead of --base")
	cmd.Flags().StringVar(&adminFlag, "admin", "", "current admin, signs the update")
	cmd.Flags().StringVar(&newAdminFlag, "new-admin", "", "replacement admin")
	cmd.Flags().StringVar(&newServerFlag, "new-server", "", "replacement server key")
	cmd.Flags().Uint64Var(&newFeeFlag, "new-fee", 0, "replacement fee in basis points")
}

func buildInitializeInstruction(cmd *cobra.Command) (solana.Instruction, error) {
	programID, schema, err := programAndSchema()
	if err != nil {
		return solana.Instruction{}, err
	}

	base, err := parseKey("base", baseFlag)
	if err != nil {
		return solana.Instruction{}, err
	}
	admin, err := parseKey("admin", adminFlag)
	if err != nil {
		return solana.Instruction{}, err
	}

	var server ed25519.PublicKey
	if schema.HasServer {
		server, err = parseKey("server", serverFlag)
		if err != nil {
			return solana.Instruction{}, err
		}
	} else if len(serverFlag) > 0 {
		return solana.Instruction{}, errors.Errorf("schema %s has no server key", schema.Name)
	}

	if err := schema.CheckFee(feeFlag); err != nil {
		return solana.Instruction{}, errors.Errorf("fee %d exceeds the schema maximum of %d", feeFlag, schema.MaxFee())
	}

	address, bump, err := configprogram.GetConfigAddress(programID, &configprogram.GetConfigAddressArgs{Base: base})
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "error deriving config address")
	}
	if cmd.Flags().Changed("bump") {
		bump = bumpFlag
	}

	return configprogram.NewInitializeConfigInstruction(
		programID,
		schema,
		&configprogram.InitializeConfigInstructionAccounts{
			Config: address,
			Base:   base,
			Admin:  admin,
			Server: server,
		},
		&configprogram.InitializeConfigInstructionArgs{
			Bump:           bump,
			FeeBasisPoints: feeFlag,
		},
	), nil
}

func buildUpdateInstruction(cmd *cobra.Command) (solana.Instruction, error) {
	programID, schema, err := programAndSchema()
	if err != nil {
		return solana.Instruction{}, err
	}

	address, err := resolveConfigAddress(programID)
	if err != nil {
		return solana.Instruction{}, err
	}
	admin, err := parseKey("admin", adminFlag)
	if err != nil {
		return solana.Instruction{}, err
	}

	args := &configprogram.UpdateConfigInstructionArgs{
		NewAdmin:          configprogram.Keep[ed25519.PublicKey](),
		NewServer:         configprogram.Keep[ed25519.PublicKey](),
		NewFeeBasisPoints: configprogram.Keep[uint64](),
	}

	if newAdmin := pointer.IfValid(cmd.Flags().Changed("new-admin"), newAdminFlag); newAdmin != nil {
		key, err := parseKey("new-admin", *newAdmin)
		if err != nil {
			return solana.Instruction{}, err
		}
		args.NewAdmin = configprogram.SetTo(key)
	}

	if newServer := pointer.IfValid(cmd.Flags().Changed("new-server"), newServerFlag); newServer != nil {
		if !schema.HasServer {
			return solana.Instruction{}, errors.Errorf("schema %s has no server key", schema.Name)
		}
		key, err := parseKey("new-server", *newServer)
		if err != nil {
			return solana.Instruction{}, err
		}
		args.NewServer = configprogram.SetTo(key)
	}

	if newFee := pointer.IfValid(cmd.Flags().Changed("new-fee"), newFeeFlag); newFee != nil {
		if err := schema.CheckFee(*newFee); err != nil {
			return solana.Instruction{}, errors.Errorf("fee %d exceeds the schema maximum of %d", *newFee, schema.MaxFee())
		}
		args.NewFeeBasisPoints = configprogram.SetTo(*newFee)
	}

	return configprogram.NewUpdateConfigInstruction(
		programID,
		schema,
		&configprogram.UpdateConfigInstructionAccounts{
			Config: address,
			Admin:  admin,
		},
		args,
	), nil
}

func programAndSchema() (ed25519.PublicKey, configprogram.Schema, error) {
	programID, err := cfg.programID()
	if err != nil {
		return nil, configprogram.Schema{}, err
	}
	schema, err := cfg.schema()
	if err != nil {
		return nil, configprogram.Schema{}, err
	}
	return programID, schema, nil
}

// resolveConfigAddress prefers an explicit --config-address over derivation
// from --base
func resolveConfigAddress(programID ed25519.PublicKey) (ed25519.PublicKey, error) {
	if len(configFlag) > 0 {
		return parseKey("config-address", configFlag)
	}

	base, err := parseKey("base", baseFlag)
	if err != nil {
		return nil, err
	}

	address, _, err := configprogram.GetConfigAddress(programID, &configprogram.GetConfigAddressArgs{Base: base})
	if err != nil {
		return nil, errors.Wrap(err, "error deriving config address")
	}
	return address, nil
}
