package main

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/code-payments/code-config-program/pkg/solana"
	"github.com/code-payments/code-config-program/pkg/solana/configprogram"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Fetch and decode a config account over RPC",
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

		log := logrus.StandardLogger().WithFields(logrus.Fields{
			"method":   "show",
			"address":  base58.Encode(address),
			"endpoint": cfg.RPCEndpoint,
		})
		log.Debug("fetching config account")

		client := solana.New(cfg.RPCEndpoint)
		info, err := client.GetAccountInfo(address, solana.CommitmentConfirmed)
		if err != nil {
			return errors.Wrap(err, "error fetching config account")
		}

		out, err := decodeConfigAccount(programID, schema, address, info)
		if err != nil {
			return err
		}
		return printConfig(out)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every config account of the selected schema over RPC",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		programID, schema, err := programAndSchema()
		if err != nil {
			return err
		}

		log := logrus.StandardLogger().WithFields(logrus.Fields{
			"method":   "list",
			"endpoint": cfg.RPCEndpoint,
		})
		log.Debug("fetching program accounts")

		client := solana.New(cfg.RPCEndpoint)
		accounts, err := client.GetProgramAccounts(programID, solana.CommitmentConfirmed, uint64(schema.ConfigAccountSize()))
		if err != nil {
			return errors.Wrap(err, "error fetching program accounts")
		}

		return printConfigs(decodeConfigAccounts(log, programID, schema, accounts))
	},
}

func init() {
	showCmd.Flags().StringVar(&baseFlag, "base", "", "base key the config is derived from")
	showCmd.Flags().StringVar(&configFlag, "config-address", "", "config address, instead of --base")
}

// decodeConfigAccount checks ownership and derivation before trusting the
// account contents
func decodeConfigAccount(programID ed25519.PublicKey, schema configprogram.Schema, address ed25519.PublicKey, info solana.AccountInfo) (configOutput, error) {
	if !bytes.Equal(info.Owner, programID) {
		return configOutput{}, errors.Errorf("account %s is owned by %s, not the config program", base58.Encode(address), base58.Encode(info.Owner))
	}

	var config configprogram.ConfigAccount
	if err := config.Unmarshal(schema, info.Data); err != nil {
		return configOutput{}, errors.Wrapf(err, "error decoding config account with schema %s", schema.Name)
	}

	if err := configprogram.VerifyConfigAddress(programID, config.Base, config.Bump, address); err != nil {
		return configOutput{}, errors.Wrap(err, "stored base and bump do not derive the account address")
	}

	return newConfigOutput(address, schema, &config, info.Lamports), nil
}

// decodeConfigAccounts skips, with a warning, accounts that do not decode
// under schema
func decodeConfigAccounts(log *logrus.Entry, programID ed25519.PublicKey, schema configprogram.Schema, accounts []solana.ProgramAccount) []configOutput {
	configs := make([]configOutput, 0, len(accounts))
	for _, account := range accounts {
		out, err := decodeConfigAccount(programID, schema, account.Address, account.Account)
		if err != nil {
			log.WithError(err).WithField("address", base58.Encode(account.Address)).Warn("skipping undecodable account")
			continue
		}
		configs = append(configs, out)
	}
	return configs
}
