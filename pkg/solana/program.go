package solana

import (
	"crypto/ed25519"

	"github.com/sirupsen/logrus"
)

// Program is an on-chain program entrypoint as seen by the runtime
type Program interface {
	// Process executes a single instruction. Accounts are positional and
	// appear in the order the instruction listed them.
	Process(ctx InvokeContext, accounts []*KeyedAccount, data []byte) error
}

// InvokeContext is what the runtime exposes to an executing program
type InvokeContext interface {
	// ProgramID is the address of the currently executing program
	ProgramID() ed25519.PublicKey

	// InvokeSigned performs a cross-program invocation. Each entry in
	// signerSeeds is a full seed list (bump included) for a program address of
	// the calling program that should be treated as a signer of ix.
	InvokeSigned(ix Instruction, signerSeeds ...[][]byte) error

	// Logger returns the program log
	Logger() *logrus.Entry
}
