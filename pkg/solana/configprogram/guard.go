package configprogram

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/code-config-program/pkg/solana"
	"github.com/code-payments/code-config-program/pkg/solana/system"
)

// RequireSigner fails with ErrMissingSignature unless the account signed, and
// with ErrNotWritable if mustBeWritable is set and the account is readonly
func RequireSigner(account *solana.KeyedAccount, mustBeWritable bool) error {
	if !account.IsSigner {
		return ErrMissingSignature
	}
	if mustBeWritable {
		return RequireWritable(account)
	}
	return nil
}

func RequireWritable(account *solana.KeyedAccount) error {
	if !account.IsWritable {
		return ErrNotWritable
	}
	return nil
}

func RequireOwnedBy(account *solana.KeyedAccount, owner ed25519.PublicKey) error {
	if !account.IsOwnedBy(owner) {
		return ErrInvalidOwner
	}
	return nil
}

// RequireAdminMatch fails with ErrUnauthorized unless signer is the stored admin
func RequireAdminMatch(config ConfigView, signer *solana.KeyedAccount) error {
	if !bytes.Equal(config.Admin(), signer.Key) {
		return ErrUnauthorized
	}
	return nil
}

// RequireFreshSystemAccount accepts only empty system owned storage. Storage
// already owned by program, or carrying data, is ErrAlreadyInitialized. Any
// other owner is ErrInvalidOwner.
func RequireFreshSystemAccount(account *solana.KeyedAccount, program ed25519.PublicKey) error {
	if account.IsOwnedBy(program) {
		return ErrAlreadyInitialized
	}
	if !account.IsOwnedBy(system.SystemAccount) {
		return ErrInvalidOwner
	}
	if account.DataLen() != 0 {
		return ErrAlreadyInitialized
	}
	return nil
}

func RequireProgram(account *solana.KeyedAccount, program ed25519.PublicKey) error {
	if !bytes.Equal(account.Key, program) {
		return ErrIncorrectProgramId
	}
	return nil
}

func RequireSysvar(account *solana.KeyedAccount, sysvar ed25519.PublicKey) error {
	if !bytes.Equal(account.Key, sysvar) {
		return ErrInvalidSysvar
	}
	return nil
}
