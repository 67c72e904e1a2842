package configprogram

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

// ConfigAccount is the decoded form of a config account. Server is nil when
// the schema has no server key.
type ConfigAccount struct {
	Bump           uint8
	Base           ed25519.PublicKey
	Admin          ed25519.PublicKey
	Server         ed25519.PublicKey
	FeeBasisPoints uint64
}

// Marshal encodes the account with the config type tag set
func (obj *ConfigAccount) Marshal(schema Schema) ([]byte, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if schema.HasServer != (obj.Server != nil) {
		return nil, ErrMalformedPayload
	}

	data := make([]byte, schema.ConfigAccountSize())
	v := ConfigMutView{ConfigView{schema: schema, buf: rawBuffer(data)}}

	if err := v.SetBump(obj.Bump); err != nil {
		return nil, err
	}
	if err := v.SetBase(obj.Base); err != nil {
		return nil, err
	}
	if err := v.SetAdmin(obj.Admin); err != nil {
		return nil, err
	}
	if schema.HasServer {
		if err := v.SetServer(obj.Server); err != nil {
			return nil, err
		}
	}
	if err := v.SetFeeBasisPoints(obj.FeeBasisPoints); err != nil {
		return nil, err
	}
	if err := v.SetAccountType(AccountTypeConfig); err != nil {
		return nil, err
	}

	return data, nil
}

// Unmarshal decodes config account data, failing with ErrSizeMismatch or
// ErrTypeMismatch
func (obj *ConfigAccount) Unmarshal(schema Schema, data []byte) error {
	v, err := viewConfig(schema, rawBuffer(data))
	if err != nil {
		return err
	}

	*obj = *v.ToAccount()
	return nil
}

func (obj *ConfigAccount) String() string {
	server := "none"
	if obj.Server != nil {
		server = base58.Encode(obj.Server)
	}

	return fmt.Sprintf(
		"Config{bump=%d,base=%s,admin=%s,server=%s,fee_basis_points=%d}",
		obj.Bump,
		base58.Encode(obj.Base),
		base58.Encode(obj.Admin),
		server,
		obj.FeeBasisPoints,
	)
}
