package system

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/code-config-program/pkg/solana"
)

var ProgramKey [32]byte

const (
	commandCreateAccount uint32 = iota
	// nolint:varcheck,deadcode,unused
	commandAssign
	// nolint:varcheck,deadcode,unused
	commandTransfer
)

const createAccountDataSize = 4 + 2*8 + ed25519.PublicKeySize

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L58-L72
func CreateAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE, SIGNER] New account
	//
	// CreateAccount {
	//   lamports: u64,
	//   space: u64,
	//   owner: Pubkey,
	// }
	data := make([]byte, createAccountDataSize)
	binary.LittleEndian.PutUint32(data, commandCreateAccount)
	binary.LittleEndian.PutUint64(data[4:], lamports)
	binary.LittleEndian.PutUint64(data[4+8:], size)
	copy(data[4+2*8:], owner)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	)
}

type DecompiledCreateAccount struct {
	Funder  ed25519.PublicKey
	Address ed25519.PublicKey

	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

// DecompileCreateAccount parses a CreateAccount instruction built by
// CreateAccount or an equivalent client.
func DecompileCreateAccount(i solana.Instruction) (*DecompiledCreateAccount, error) {
	if !i.IsForProgram(ProgramKey[:]) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(i.Data) < 4 || binary.LittleEndian.Uint32(i.Data) != commandCreateAccount {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	lamports, size, owner, err := parseCreateAccountData(i.Data)
	if err != nil {
		return nil, err
	}

	return &DecompiledCreateAccount{
		Funder:  i.Accounts[0].PublicKey,
		Address: i.Accounts[1].PublicKey,

		Lamports: lamports,
		Size:     size,
		Owner:    owner,
	}, nil
}

func parseCreateAccountData(data []byte) (lamports, size uint64, owner ed25519.PublicKey, err error) {
	if len(data) != createAccountDataSize {
		return 0, 0, nil, errors.Errorf("invalid instruction data size: %d", len(data))
	}

	lamports = binary.LittleEndian.Uint64(data[4:])
	size = binary.LittleEndian.Uint64(data[4+8:])
	owner = make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(owner, data[4+2*8:])
	return lamports, size, owner, nil
}
