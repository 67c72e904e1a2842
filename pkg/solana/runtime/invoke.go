package runtime

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-config-program/pkg/solana"
)

type invokeContext struct {
	bank      *Bank
	log       *logrus.Entry
	programID ed25519.PublicKey

	// accounts available to the executing program, keyed by address
	accounts map[string]*solana.KeyedAccount
	depth    int
}

var _ solana.InvokeContext = (*invokeContext)(nil)

func (c *invokeContext) ProgramID() ed25519.PublicKey {
	return c.programID
}

func (c *invokeContext) Logger() *logrus.Entry {
	return c.log
}

// InvokeSigned runs ix with the caller's privileges. Accounts derived from
// the caller's program id and one of signerSeeds are additionally treated as
// signers for the duration of the call.
func (c *invokeContext) InvokeSigned(ix solana.Instruction, signerSeeds ...[][]byte) error {
	if c.depth >= MaxInvokeDepth {
		return solana.BuiltinError(solana.InstructionErrorCallDepth)
	}

	pdaSigners := make(map[string]struct{}, len(signerSeeds))
	for _, seeds := range signerSeeds {
		address, err := solana.CreateProgramAddress(c.programID, seeds...)
		if err != nil {
			return solana.BuiltinError(solana.InstructionErrorInvalidSeeds)
		}
		pdaSigners[string(address)] = struct{}{}
	}

	if _, ok := c.accounts[string(ix.Program)]; !ok {
		return solana.BuiltinError(solana.InstructionErrorMissingAccount)
	}
	program, ok := c.bank.getProgram(ix.Program)
	if !ok {
		return solana.BuiltinError(solana.InstructionErrorUnsupportedProgramID)
	}

	accounts := make([]*solana.KeyedAccount, len(ix.Accounts))
	var elevated []*solana.KeyedAccount
	for i, meta := range ix.Accounts {
		account, ok := c.accounts[string(meta.PublicKey)]
		if !ok {
			return solana.BuiltinError(solana.InstructionErrorMissingAccount)
		}

		_, isPDASigner := pdaSigners[string(meta.PublicKey)]
		if meta.IsSigner && !account.IsSigner && !isPDASigner {
			c.log.WithField("account", base58.Encode(meta.PublicKey)).Info("signer privilege escalated")
			return solana.BuiltinError(solana.InstructionErrorPrivilegeEscalation)
		}
		if meta.IsWritable && !account.IsWritable {
			c.log.WithField("account", base58.Encode(meta.PublicKey)).Info("writable privilege escalated")
			return solana.BuiltinError(solana.InstructionErrorPrivilegeEscalation)
		}

		if meta.IsSigner && !account.IsSigner {
			account.IsSigner = true
			elevated = append(elevated, account)
		}
		accounts[i] = account
	}

	defer func() {
		for _, account := range elevated {
			account.IsSigner = false
		}
	}()

	callee := &invokeContext{
		bank:      c.bank,
		log:       c.log.WithField("invoked_program", base58.Encode(ix.Program)),
		programID: ix.Program,
		accounts:  indexAccounts(accounts),
		depth:     c.depth + 1,
	}
	callee.accounts[string(ix.Program)] = c.accounts[string(ix.Program)]

	return program.Process(callee, accounts, ix.Data)
}
