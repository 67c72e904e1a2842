package configprogram

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}

func mustFitFee(schema Schema, fee uint64) {
	if err := schema.CheckFee(fee); err != nil {
		panic(errors.Errorf("fee %d exceeds the %s schema maximum of %d", fee, schema.Name, schema.MaxFee()))
	}
}

func mustBeKeyOrKeep(name string, v Maybe[ed25519.PublicKey]) {
	if key, ok := v.Get(); ok && len(key) != ed25519.PublicKeySize {
		panic(errors.Errorf("%s must be a %d byte key, got %d bytes", name, ed25519.PublicKeySize, len(key)))
	}
}
