package configprogram

import (
	"crypto/ed25519"

	"github.com/code-payments/code-config-program/pkg/solana"
	"github.com/code-payments/code-config-program/pkg/solana/binary"
)

// buffer is the storage behind a view. Borrows return nil once released.
type buffer interface {
	Data() []byte
}

type rawBuffer []byte

func (b rawBuffer) Data() []byte {
	return b
}

// ConfigView is a validated read-only view over config account data. It is
// valid only while the borrow it was created from is held. A released or zero
// view reads zero values.
type ConfigView struct {
	schema Schema
	buf    buffer
}

// ConfigMutView is a validated read-write view over config account data. It
// can only be created from an exclusive borrow. Writes through a released or
// zero view fail with ErrSizeMismatch.
type ConfigMutView struct {
	ConfigView
}

// ViewConfig checks size and type tag before exposing a read view
func ViewConfig(schema Schema, ref *solana.Ref) (ConfigView, error) {
	if ref == nil {
		return ConfigView{}, ErrSizeMismatch
	}
	return viewConfig(schema, ref)
}

// ViewConfigMut checks size and type tag before exposing a write view
func ViewConfigMut(schema Schema, ref *solana.RefMut) (ConfigMutView, error) {
	if ref == nil {
		return ConfigMutView{}, ErrSizeMismatch
	}

	v, err := viewConfig(schema, ref)
	if err != nil {
		return ConfigMutView{}, err
	}
	return ConfigMutView{v}, nil
}

// viewConfigMutUninitialized skips the type tag check. Only Initialize may
// call it, before the tag is written.
func viewConfigMutUninitialized(schema Schema, ref *solana.RefMut) (ConfigMutView, error) {
	if ref == nil || len(ref.Data()) != schema.ConfigAccountSize() {
		return ConfigMutView{}, ErrSizeMismatch
	}
	return ConfigMutView{ConfigView{schema: schema, buf: ref}}, nil
}

func viewConfig(schema Schema, buf buffer) (ConfigView, error) {
	data := buf.Data()
	if len(data) != schema.ConfigAccountSize() {
		return ConfigView{}, ErrSizeMismatch
	}

	t, err := ParseAccountType(data[configTypeOffset])
	if err != nil {
		return ConfigView{}, err
	}
	if t != AccountTypeConfig {
		return ConfigView{}, ErrTypeMismatch
	}

	return ConfigView{schema: schema, buf: buf}, nil
}

// data is nil unless the backing buffer is still live and sized for the schema
func (v ConfigView) data() []byte {
	if v.buf == nil {
		return nil
	}
	data := v.buf.Data()
	if len(data) == 0 || len(data) != v.schema.ConfigAccountSize() {
		return nil
	}
	return data
}

func (v ConfigView) Schema() Schema {
	return v.schema
}

// AccountType returns the raw tag. Uninitialized views may hold any byte.
func (v ConfigView) AccountType() AccountType {
	data := v.data()
	if data == nil {
		return AccountTypeUninitialized
	}
	return AccountType(data[configTypeOffset])
}

func (v ConfigView) Bump() uint8 {
	data := v.data()
	if data == nil {
		return 0
	}
	return data[configBumpOffset]
}

func (v ConfigView) Base() ed25519.PublicKey {
	return v.key(configBaseOffset)
}

func (v ConfigView) Admin() ed25519.PublicKey {
	return v.key(configAdminOffset)
}

// Server is nil for schemas without a server key
func (v ConfigView) Server() ed25519.PublicKey {
	if !v.schema.HasServer {
		return nil
	}
	return v.key(v.schema.serverOffset())
}

func (v ConfigView) FeeBasisPoints() uint64 {
	data := v.data()
	if data == nil {
		return 0
	}

	var fee uint64
	offset := v.schema.feeOffset()
	binary.GetUint(data, &fee, v.schema.FeeWidth, &offset)
	return fee
}

// ToAccount copies the viewed fields into a ConfigAccount
func (v ConfigView) ToAccount() *ConfigAccount {
	return &ConfigAccount{
		Bump:           v.Bump(),
		Base:           v.Base(),
		Admin:          v.Admin(),
		Server:         v.Server(),
		FeeBasisPoints: v.FeeBasisPoints(),
	}
}

// key returns a copy so read views never hand out aliases into account data
func (v ConfigView) key(offset int) ed25519.PublicKey {
	data := v.data()
	if data == nil {
		return nil
	}

	var key ed25519.PublicKey
	binary.GetKey32(data, &key, &offset)
	return key
}

func (v ConfigMutView) SetAccountType(t AccountType) error {
	data := v.data()
	if data == nil {
		return ErrSizeMismatch
	}

	offset := configTypeOffset
	putAccountType(data, t, &offset)
	return nil
}

func (v ConfigMutView) SetBump(bump uint8) error {
	data := v.data()
	if data == nil {
		return ErrSizeMismatch
	}

	offset := configBumpOffset
	binary.PutUint8(data, bump, &offset)
	return nil
}

func (v ConfigMutView) SetBase(base ed25519.PublicKey) error {
	return v.putKey(configBaseOffset, base)
}

func (v ConfigMutView) SetAdmin(admin ed25519.PublicKey) error {
	return v.putKey(configAdminOffset, admin)
}

func (v ConfigMutView) SetServer(server ed25519.PublicKey) error {
	if !v.schema.HasServer {
		return ErrMalformedPayload
	}
	return v.putKey(v.schema.serverOffset(), server)
}

func (v ConfigMutView) SetFeeBasisPoints(fee uint64) error {
	data := v.data()
	if data == nil {
		return ErrSizeMismatch
	}
	if err := v.schema.CheckFee(fee); err != nil {
		return err
	}

	offset := v.schema.feeOffset()
	binary.PutUint(data, fee, v.schema.FeeWidth, &offset)
	return nil
}

func (v ConfigMutView) putKey(offset int, key ed25519.PublicKey) error {
	data := v.data()
	if data == nil {
		return ErrSizeMismatch
	}
	if len(key) != ed25519.PublicKeySize {
		return ErrMalformedPayload
	}
	binary.PutKey32(data, key, &offset)
	return nil
}
