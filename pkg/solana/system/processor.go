package system

import (
	"encoding/binary"

	"github.com/mr-tron/base58"

	"github.com/code-payments/code-config-program/pkg/solana"
)

// MaxPermittedDataLength is the largest account a single CreateAccount may allocate
const MaxPermittedDataLength = 10 * 1024 * 1024

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/system_instruction.rs#L16
var (
	ErrAccountAlreadyInUse        = solana.CustomError(0)
	ErrResultWithNegativeLamports = solana.CustomError(1)
	ErrInvalidAccountDataLength   = solana.CustomError(3)
)

// Processor is the builtin system program. Only CreateAccount is supported.
type Processor struct{}

var _ solana.Program = Processor{}

// Process implements solana.Program.Process
func (Processor) Process(ctx solana.InvokeContext, accounts []*solana.KeyedAccount, data []byte) error {
	if len(data) < 4 {
		return solana.BuiltinError(solana.InstructionErrorInvalidInstructionData)
	}

	switch binary.LittleEndian.Uint32(data) {
	case commandCreateAccount:
		lamports, size, owner, err := parseCreateAccountData(data)
		if err != nil {
			return solana.BuiltinError(solana.InstructionErrorInvalidInstructionData)
		}
		if len(accounts) < 2 {
			return solana.BuiltinError(solana.InstructionErrorNotEnoughAccountKeys)
		}
		return createAccount(ctx, accounts[0], accounts[1], lamports, size, owner)
	default:
		return solana.BuiltinError(solana.InstructionErrorInvalidInstructionData)
	}
}

func createAccount(ctx solana.InvokeContext, funder, to *solana.KeyedAccount, lamports, size uint64, owner []byte) error {
	log := ctx.Logger().WithField("method", "createAccount").WithField("address", base58.Encode(to.Key))

	if !funder.IsSigner || !to.IsSigner {
		log.Info("create account is missing a required signature")
		return solana.BuiltinError(solana.InstructionErrorMissingRequiredSignature)
	}
	if !funder.IsWritable || !to.IsWritable {
		return solana.BuiltinError(solana.InstructionErrorReadonlyLamportChange)
	}

	if to.Lamports > 0 || to.DataLen() > 0 || !to.IsOwnedBy(SystemAccount) {
		log.Info("create account with an address already in use")
		return ErrAccountAlreadyInUse
	}
	if size > MaxPermittedDataLength {
		return ErrInvalidAccountDataLength
	}
	if funder.Lamports < lamports {
		log.WithField("balance", funder.Lamports).WithField("required", lamports).Info("insufficient funds for create account")
		return ErrResultWithNegativeLamports
	}

	if err := to.Resize(int(size)); err != nil {
		return solana.BuiltinError(solana.InstructionErrorAccountBorrowOutstanding)
	}
	to.Owner = append([]byte(nil), owner...)

	funder.Lamports -= lamports
	to.Lamports += lamports

	return nil
}
