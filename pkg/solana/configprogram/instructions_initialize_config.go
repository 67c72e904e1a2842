package configprogram

import (
	"crypto/ed25519"

	"github.com/code-payments/code-config-program/pkg/solana"
	"github.com/code-payments/code-config-program/pkg/solana/binary"
)

type InitializeConfigInstructionArgs struct {
	Bump           uint8
	FeeBasisPoints uint64
}

// Server is ignored for schemas without a server key
type InitializeConfigInstructionAccounts struct {
	Config ed25519.PublicKey
	Base   ed25519.PublicKey
	Admin  ed25519.PublicKey
	Server ed25519.PublicKey
}

// NewInitializeConfigInstruction builds an Initialize instruction. It panics
// if the fee does not fit the schema's fee width, see Schema.CheckFee.
func NewInitializeConfigInstruction(
	programID ed25519.PublicKey,
	schema Schema,
	accounts *InitializeConfigInstructionAccounts,
	args *InitializeConfigInstructionArgs,
) solana.Instruction {
	mustFitFee(schema, args.FeeBasisPoints)

	var offset int

	// Serialize instruction arguments
	data := make([]byte, 1+schema.InitializeConfigArgsSize())

	putInstructionType(data, InstructionTypeInitializeConfig, &offset)
	binary.PutUint8(data, args.Bump, &offset)
	binary.PutUint(data, args.FeeBasisPoints, schema.FeeWidth, &offset)

	metas := []solana.AccountMeta{
		{
			PublicKey:  accounts.Config,
			IsWritable: true,
			IsSigner:   false,
		},
		{
			PublicKey:  accounts.Base,
			IsWritable: false,
			IsSigner:   false,
		},
		{
			PublicKey:  accounts.Admin,
			IsWritable: true,
			IsSigner:   true,
		},
	}
	if schema.HasServer {
		metas = append(metas, solana.AccountMeta{
			PublicKey:  accounts.Server,
			IsWritable: false,
			IsSigner:   false,
		})
	}
	metas = append(metas,
		solana.AccountMeta{
			PublicKey:  SYSVAR_RENT_PUBKEY,
			IsWritable: false,
			IsSigner:   false,
		},
		solana.AccountMeta{
			PublicKey:  SYSTEM_PROGRAM_ID,
			IsWritable: false,
			IsSigner:   false,
		},
	)

	return solana.Instruction{
		Program: programID,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: metas,
	}
}

// DecodeInitializeConfigInstructionArgs decodes the payload following the
// opcode byte
func DecodeInitializeConfigInstructionArgs(schema Schema, data []byte) (*InitializeConfigInstructionArgs, error) {
	if len(data) != schema.InitializeConfigArgsSize() {
		return nil, ErrMalformedPayload
	}

	var offset int
	var args InitializeConfigInstructionArgs

	binary.GetUint8(data, &args.Bump, &offset)
	binary.GetUint(data, &args.FeeBasisPoints, schema.FeeWidth, &offset)

	return &args, nil
}
