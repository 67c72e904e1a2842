package configprogram

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-config-program/pkg/solana"
	"github.com/code-payments/code-config-program/pkg/solana/system"
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("Dv8yNgZsBkebdLnet7eYNBRN6XbgLNxLKLRoaXZ12jUR")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	SYSTEM_PROGRAM_ID  = system.SystemAccount
	SYSVAR_RENT_PUBKEY = system.RentSysVar
)

// Program processes config instructions for a single schema
type Program struct {
	log    *logrus.Entry
	schema Schema
}

var _ solana.Program = (*Program)(nil)

func New(schema Schema) (*Program, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	return &Program{
		log:    logrus.StandardLogger().WithField("type", "solana/configprogram").WithField("schema", schema.Name),
		schema: schema,
	}, nil
}

func (p *Program) Schema() Schema {
	return p.schema
}

// Process routes an instruction to its handler by the leading opcode byte
func (p *Program) Process(ctx solana.InvokeContext, accounts []*solana.KeyedAccount, data []byte) error {
	log := p.log.WithField("program", base58.Encode(ctx.ProgramID()))

	if len(data) == 0 {
		log.Info("missing instruction opcode")
		return ErrUnknownInstruction
	}

	ixType := InstructionType(data[0])
	log = log.WithField("instruction", ixType.String())

	var err error
	switch ixType {
	case InstructionTypeInitializeConfig:
		log.Debug("initializing config")
		err = p.processInitializeConfig(ctx, log, accounts, data[1:])
	case InstructionTypeUpdateConfig:
		log.Debug("updating config")
		err = p.processUpdateConfig(ctx, log, accounts, data[1:])
	default:
		log.WithField("opcode", data[0]).Info("unknown instruction opcode")
		return ErrUnknownInstruction
	}

	if err != nil {
		log.WithError(err).Info("instruction failed")
	}
	return err
}
