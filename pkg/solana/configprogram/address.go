package configprogram

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/code-config-program/pkg/solana"
)

var (
	ConfigPrefix = []byte("CONFIG")
)

// ConfigSeeds is the seed list, bump included, for the config owned by base.
// Derivation, verification and signing all go through it.
func ConfigSeeds(base ed25519.PublicKey, bump uint8) [][]byte {
	return [][]byte{ConfigPrefix, base, {bump}}
}

type GetConfigAddressArgs struct {
	Base ed25519.PublicKey
}

// GetConfigAddress finds the canonical config address and bump for base,
// trying bumps from 255 downward
func GetConfigAddress(programID ed25519.PublicKey, args *GetConfigAddressArgs) (ed25519.PublicKey, uint8, error) {
	seeds := ConfigSeeds(args.Base, 0)
	return solana.FindProgramAddressAndBump(programID, seeds[:len(seeds)-1]...)
}

// VerifyConfigAddress recomputes the config address from base and bump
// without searching. Any failure or a mismatch with claimed is ErrInvalidSeeds.
func VerifyConfigAddress(programID, base ed25519.PublicKey, bump uint8, claimed ed25519.PublicKey) error {
	if len(base) != ed25519.PublicKeySize {
		return ErrInvalidSeeds
	}

	address, err := solana.CreateProgramAddress(programID, ConfigSeeds(base, bump)...)
	if err != nil {
		return ErrInvalidSeeds
	}
	if !bytes.Equal(address, claimed) {
		return ErrInvalidSeeds
	}
	return nil
}

// CheckConfigSeeds compares seeds against ConfigSeeds(base, bump) in order,
// length and content
func CheckConfigSeeds(base ed25519.PublicKey, bump uint8, seeds [][]byte) error {
	expected := ConfigSeeds(base, bump)
	if len(seeds) != len(expected) {
		return ErrInvalidSeeds
	}
	for i := range expected {
		if !bytes.Equal(seeds[i], expected[i]) {
			return ErrInvalidSeeds
		}
	}
	return nil
}
