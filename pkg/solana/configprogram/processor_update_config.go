package configprogram

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-config-program/pkg/solana"
)

func (p *Program) processUpdateConfig(ctx solana.InvokeContext, log *logrus.Entry, accounts []*solana.KeyedAccount, data []byte) error {
	args, err := DecodeUpdateConfigInstructionArgs(p.schema, data)
	if err != nil {
		return err
	}

	if len(accounts) != 2 {
		return ErrNotEnoughAccountKeys
	}
	configAccount, admin := accounts[0], accounts[1]

	programID := ctx.ProgramID()
	log = log.WithField("config", base58.Encode(configAccount.Key))

	// ----------------------- CHECKS -----------------------

	if err := RequireOwnedBy(configAccount, programID); err != nil {
		return err
	}
	if err := RequireWritable(configAccount); err != nil {
		return err
	}
	if err := p.checkUpdateAuthority(programID, configAccount, admin); err != nil {
		log.WithField("signer", base58.Encode(admin.Key)).Info("update rejected")
		return err
	}

	// ----------------------- WORK -----------------------

	ref, err := configAccount.TryBorrowMutData()
	if err != nil {
		return err
	}
	defer ref.Release()

	config, err := ViewConfigMut(p.schema, ref)
	if err != nil {
		return err
	}

	if newAdmin, ok := args.NewAdmin.Get(); ok {
		if err := config.SetAdmin(newAdmin); err != nil {
			return err
		}
	}
	if newServer, ok := args.NewServer.Get(); ok {
		if err := config.SetServer(newServer); err != nil {
			return err
		}
	}
	if newFee, ok := args.NewFeeBasisPoints.Get(); ok {
		if err := config.SetFeeBasisPoints(newFee); err != nil {
			return err
		}
	}

	log.Debug("config updated")

	return nil
}

// checkUpdateAuthority runs the read-only checks under a shared borrow that
// is released before any write
func (p *Program) checkUpdateAuthority(programID ed25519.PublicKey, configAccount, admin *solana.KeyedAccount) error {
	ref, err := configAccount.TryBorrowData()
	if err != nil {
		return err
	}
	defer ref.Release()

	config, err := ViewConfig(p.schema, ref)
	if err != nil {
		return err
	}

	if err := VerifyConfigAddress(programID, config.Base(), config.Bump(), configAccount.Key); err != nil {
		return err
	}
	if err := RequireSigner(admin, false); err != nil {
		return err
	}
	return RequireAdminMatch(config, admin)
}
