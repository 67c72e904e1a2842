package configprogram

import (
	"crypto/ed25519"
	"fmt"
	"math"
	"strings"
)

// Schema describes one concrete Config layout. Deployments differ in whether
// the record carries a server key and in the width of the fee field; the
// lifecycle logic is shared across all of them.
type Schema struct {
	Name      string
	HasServer bool
	FeeWidth  int
}

var (
	// SchemaDefault carries a server key and a u32 fee
	SchemaDefault = Schema{Name: "default", HasServer: true, FeeWidth: 4}

	// SchemaNoServer64 has no server key and a u64 fee
	SchemaNoServer64 = Schema{Name: "no-server-u64", HasServer: false, FeeWidth: 8}

	// SchemaNoServer16 has no server key and a u16 fee
	SchemaNoServer16 = Schema{Name: "no-server-u16", HasServer: false, FeeWidth: 2}
)

var knownSchemas = []Schema{SchemaDefault, SchemaNoServer64, SchemaNoServer16}

// SchemaByName resolves one of the predefined schemas
func SchemaByName(name string) (Schema, error) {
	for _, s := range knownSchemas {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return Schema{}, fmt.Errorf("unknown config schema: %q", name)
}

func (s Schema) Validate() error {
	switch s.FeeWidth {
	case 2, 4, 8:
		return nil
	default:
		return fmt.Errorf("unsupported fee width: %d", s.FeeWidth)
	}
}

// Field offsets within a config account
const (
	configTypeOffset  = 0
	configBumpOffset  = 1
	configBaseOffset  = 2
	configAdminOffset = configBaseOffset + ed25519.PublicKeySize
	configTailOffset  = configAdminOffset + ed25519.PublicKeySize
)

func (s Schema) serverOffset() int {
	return configTailOffset
}

func (s Schema) feeOffset() int {
	if s.HasServer {
		return configTailOffset + ed25519.PublicKeySize
	}
	return configTailOffset
}

// ConfigAccountSize is the exact data length of a config account
func (s Schema) ConfigAccountSize() int {
	return s.feeOffset() + s.FeeWidth
}

// MaxFee is the largest fee representable in the schema's fee field
func (s Schema) MaxFee() uint64 {
	if s.FeeWidth >= 8 {
		return math.MaxUint64
	}
	return 1<<(8*uint(s.FeeWidth)) - 1
}

// CheckFee reports ErrMalformedPayload when fee does not fit the fee field
func (s Schema) CheckFee(fee uint64) error {
	if fee > s.MaxFee() {
		return ErrMalformedPayload
	}
	return nil
}

// InitializeConfigArgsSize is the payload length after the opcode byte
func (s Schema) InitializeConfigArgsSize() int {
	return 1 + // bump
		s.FeeWidth // fee_basis_points
}

// UpdateConfigArgsSize is the payload length after the opcode byte
func (s Schema) UpdateConfigArgsSize() int {
	size := 1 + ed25519.PublicKeySize // new_admin
	if s.HasServer {
		size += 1 + ed25519.PublicKeySize // new_server
	}
	return size + 1 + s.FeeWidth // new_fee_basis_points
}

// InitializeConfigAccountCount is the number of accounts Initialize expects
func (s Schema) InitializeConfigAccountCount() int {
	if s.HasServer {
		return 6
	}
	return 5
}

func (s Schema) String() string {
	return s.Name
}
