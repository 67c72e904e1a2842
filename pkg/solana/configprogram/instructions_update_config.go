package configprogram

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-config-program/pkg/solana"
	"github.com/code-payments/code-config-program/pkg/solana/binary"
)

// NewServer must be Keep for schemas without a server key
type UpdateConfigInstructionArgs struct {
	NewAdmin          Maybe[ed25519.PublicKey]
	NewServer         Maybe[ed25519.PublicKey]
	NewFeeBasisPoints Maybe[uint64]
}

type UpdateConfigInstructionAccounts struct {
	Config ed25519.PublicKey
	Admin  ed25519.PublicKey
}

// NewUpdateConfigInstruction builds an Update instruction. It panics on a set
// key that is not 32 bytes, a set server for a schema without one, or a fee
// that does not fit the schema's fee width.
func NewUpdateConfigInstruction(
	programID ed25519.PublicKey,
	schema Schema,
	accounts *UpdateConfigInstructionAccounts,
	args *UpdateConfigInstructionArgs,
) solana.Instruction {
	mustBeKeyOrKeep("new admin", args.NewAdmin)
	if schema.HasServer {
		mustBeKeyOrKeep("new server", args.NewServer)
	} else if args.NewServer.IsSet() {
		panic(errors.Errorf("schema %s has no server key", schema.Name))
	}
	if fee, ok := args.NewFeeBasisPoints.Get(); ok {
		mustFitFee(schema, fee)
	}

	var offset int

	// Serialize instruction arguments
	data := make([]byte, 1+schema.UpdateConfigArgsSize())

	putInstructionType(data, InstructionTypeUpdateConfig, &offset)
	putMaybeKey(data, args.NewAdmin, &offset)
	if schema.HasServer {
		putMaybeKey(data, args.NewServer, &offset)
	}
	putMaybeUint(data, args.NewFeeBasisPoints, schema.FeeWidth, &offset)

	return solana.Instruction{
		Program: programID,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Config,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Admin,
				IsWritable: false,
				IsSigner:   true,
			},
		},
	}
}

// DecodeUpdateConfigInstructionArgs decodes the payload following the opcode
// byte. Option flags other than 0 or 1 are ErrMalformedPayload.
func DecodeUpdateConfigInstructionArgs(schema Schema, data []byte) (*UpdateConfigInstructionArgs, error) {
	if len(data) != schema.UpdateConfigArgsSize() {
		return nil, ErrMalformedPayload
	}

	var offset int
	var args UpdateConfigInstructionArgs
	var err error

	if args.NewAdmin, err = getMaybeKey(data, &offset); err != nil {
		return nil, err
	}
	if schema.HasServer {
		if args.NewServer, err = getMaybeKey(data, &offset); err != nil {
			return nil, err
		}
	}
	if args.NewFeeBasisPoints, err = getMaybeUint(data, schema.FeeWidth, &offset); err != nil {
		return nil, err
	}

	return &args, nil
}

func putMaybeKey(dst []byte, v Maybe[ed25519.PublicKey], offset *int) {
	key, _ := v.Get()
	binary.PutOptionalKey32(dst, key, offset)
}

func getMaybeKey(src []byte, offset *int) (Maybe[ed25519.PublicKey], error) {
	var key ed25519.PublicKey
	if err := binary.GetOptionalKey32(src, &key, offset); err != nil {
		return Keep[ed25519.PublicKey](), ErrMalformedPayload
	}
	if key == nil {
		return Keep[ed25519.PublicKey](), nil
	}
	return SetTo(key), nil
}

func putMaybeUint(dst []byte, v Maybe[uint64], width int, offset *int) {
	var ptr *uint64
	if value, ok := v.Get(); ok {
		ptr = &value
	}
	binary.PutOptionalUint(dst, ptr, width, offset)
}

func getMaybeUint(src []byte, width int, offset *int) (Maybe[uint64], error) {
	var value *uint64
	if err := binary.GetOptionalUint(src, &value, width, offset); err != nil {
		return Keep[uint64](), ErrMalformedPayload
	}
	if value == nil {
		return Keep[uint64](), nil
	}
	return SetTo(*value), nil
}
