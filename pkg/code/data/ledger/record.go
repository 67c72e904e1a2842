package ledger

import (
	"errors"
	"time"

	"github.com/mr-tron/base58"
)

// Record is the persisted state of a single account
type Record struct {
	Id uint64

	Address string
	Owner   string

	Lamports   uint64
	Data       []byte
	Executable bool

	// Version is the version the caller last read, or zero for an account
	// that has never been saved. Save advances it by one.
	Version uint64

	LastUpdatedAt time.Time
}

func (r *Record) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("address is required")
	}
	if !isValidKey(r.Address) {
		return errors.New("address is not a valid public key")
	}

	if len(r.Owner) == 0 {
		return errors.New("owner is required")
	}
	if !isValidKey(r.Owner) {
		return errors.New("owner is not a valid public key")
	}

	return nil
}

func (r *Record) Clone() Record {
	var data []byte
	if r.Data != nil {
		data = make([]byte, len(r.Data))
		copy(data, r.Data)
	}

	return Record{
		Id: r.Id,

		Address: r.Address,
		Owner:   r.Owner,

		Lamports:   r.Lamports,
		Data:       data,
		Executable: r.Executable,

		Version: r.Version,

		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	cloned := r.Clone()
	*dst = cloned
}

func isValidKey(value string) bool {
	decoded, err := base58.Decode(value)
	return err == nil && len(decoded) == 32
}
