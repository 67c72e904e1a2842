package configprogram

import "fmt"

// AccountType is the leading type tag of every account owned by the program
type AccountType uint8

const (
	AccountTypeUninitialized AccountType = iota
	AccountTypeConfig
)

// ParseAccountType decodes a type tag, rejecting any value outside the
// known set with ErrTypeMismatch
func ParseAccountType(v uint8) (AccountType, error) {
	switch t := AccountType(v); t {
	case AccountTypeUninitialized, AccountTypeConfig:
		return t, nil
	default:
		return 0, ErrTypeMismatch
	}
}

func (t AccountType) String() string {
	switch t {
	case AccountTypeUninitialized:
		return "uninitialized"
	case AccountTypeConfig:
		return "config"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

func putAccountType(dst []byte, v AccountType, offset *int) {
	dst[*offset] = uint8(v)
	*offset += 1
}
