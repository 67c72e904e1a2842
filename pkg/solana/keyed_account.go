package solana

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"sync"

	"github.com/mr-tron/base58"
)

var (
	// ErrAccountBorrowFailed indicates the account data is already borrowed in a
	// way that conflicts with the requested borrow.
	ErrAccountBorrowFailed = errors.New("account data already borrowed")

	// ErrAccountBorrowOutstanding indicates an operation that requires every
	// borrow to be released was attempted while one was still held.
	ErrAccountBorrowOutstanding = errors.New("account data borrow outstanding")
)

const exclusiveBorrow = -1

// KeyedAccount is the handle the runtime hands to a program for every account
// referenced by an instruction. The signer, writable and owner fields are set
// by the runtime and are read-only from the program's point of view.
//
// Data may be viewed through any number of shared borrows or exactly one
// exclusive borrow, never both at once.
type KeyedAccount struct {
	Key        ed25519.PublicKey
	IsSigner   bool
	IsWritable bool

	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool

	mu      sync.Mutex
	data    []byte
	borrows int
}

// NewKeyedAccount returns a handle over a copy of the provided account state
func NewKeyedAccount(key ed25519.PublicKey, info AccountInfo, isSigner, isWritable bool) *KeyedAccount {
	data := make([]byte, len(info.Data))
	copy(data, info.Data)

	return &KeyedAccount{
		Key:        key,
		IsSigner:   isSigner,
		IsWritable: isWritable,
		Owner:      info.Owner,
		Lamports:   info.Lamports,
		Executable: info.Executable,
		data:       data,
	}
}

// Ref is a shared borrow of account data. The slice must not be modified and
// must not be used after Release.
type Ref struct {
	account  *KeyedAccount
	data     []byte
	released bool
}

// Data returns the borrowed bytes, or nil once the borrow is released
func (r *Ref) Data() []byte {
	if r == nil || r.released {
		return nil
	}
	return r.data
}

// Release ends the shared borrow. Releasing more than once has no effect.
func (r *Ref) Release() {
	if r == nil || r.account == nil {
		return
	}

	r.account.mu.Lock()
	defer r.account.mu.Unlock()

	if r.released {
		return
	}
	r.released = true

	if r.account.borrows > 0 {
		r.account.borrows--
	}
}

// RefMut is an exclusive borrow of account data. Holding one is the proof of
// exclusive access required by every in-place mutation of account state.
type RefMut struct {
	account  *KeyedAccount
	data     []byte
	released bool
}

// Data returns the exclusively borrowed bytes, or nil once the borrow is
// released
func (r *RefMut) Data() []byte {
	if r == nil || r.released {
		return nil
	}
	return r.data
}

// Release ends the exclusive borrow. Releasing more than once has no effect.
func (r *RefMut) Release() {
	if r == nil || r.account == nil {
		return
	}

	r.account.mu.Lock()
	defer r.account.mu.Unlock()

	if r.released {
		return
	}
	r.released = true

	if r.account.borrows == exclusiveBorrow {
		r.account.borrows = 0
	}
}

// TryBorrowData returns a shared borrow of the account data
func (a *KeyedAccount) TryBorrowData() (*Ref, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.borrows == exclusiveBorrow {
		return nil, ErrAccountBorrowFailed
	}

	a.borrows++
	return &Ref{account: a, data: a.data}, nil
}

// TryBorrowMutData returns an exclusive borrow of the account data
func (a *KeyedAccount) TryBorrowMutData() (*RefMut, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.borrows != 0 {
		return nil, ErrAccountBorrowFailed
	}

	a.borrows = exclusiveBorrow
	return &RefMut{account: a, data: a.data}, nil
}

// DataLen returns the length of the account data without borrowing it
func (a *KeyedAccount) DataLen() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.data)
}

// IsBorrowed returns whether any borrow is currently held
func (a *KeyedAccount) IsBorrowed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.borrows != 0
}

// Resize replaces the account data with a zeroed buffer of the provided size.
// It is reserved for the runtime's system program.
func (a *KeyedAccount) Resize(size int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.borrows != 0 {
		return ErrAccountBorrowOutstanding
	}

	a.data = make([]byte, size)
	return nil
}

// IsOwnedBy returns whether the account is owned by the provided program
func (a *KeyedAccount) IsOwnedBy(program ed25519.PublicKey) bool {
	return bytes.Equal(a.Owner, program)
}

// Snapshot returns a copy of the current account state
func (a *KeyedAccount) Snapshot() (AccountInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.borrows != 0 {
		return AccountInfo{}, ErrAccountBorrowOutstanding
	}

	data := make([]byte, len(a.data))
	copy(data, a.data)

	return AccountInfo{
		Data:       data,
		Owner:      a.Owner,
		Lamports:   a.Lamports,
		Executable: a.Executable,
	}, nil
}

func (a *KeyedAccount) String() string {
	return fmt.Sprintf(
		"KeyedAccount{key=%s,owner=%s,lamports=%d,signer=%v,writable=%v,len=%d}",
		base58.Encode(a.Key),
		base58.Encode(a.Owner),
		a.Lamports,
		a.IsSigner,
		a.IsWritable,
		a.DataLen(),
	)
}
