package configprogram

import "fmt"

// ProgramError is a failure returned by the config program. Codes are stable
// and surface to clients as custom instruction errors.
type ProgramError uint32

const (
	// Opcode byte is not a known instruction
	ErrUnknownInstruction ProgramError = iota + 0x1770

	// Instruction payload has the wrong length or an invalid option flag
	ErrMalformedPayload

	// Instruction was given the wrong number of accounts
	ErrNotEnoughAccountKeys

	// Account data length differs from the schema's config size
	ErrSizeMismatch

	// Account data carries an unexpected type tag
	ErrTypeMismatch

	// Config address does not match its derivation seeds
	ErrInvalidSeeds

	// Account is owned by an unexpected program
	ErrInvalidOwner

	// Account must be writable
	ErrNotWritable

	// Account must have signed the transaction
	ErrMissingSignature

	// Signer is not the config admin
	ErrUnauthorized

	// Config account has already been initialized
	ErrAlreadyInitialized

	// System program account slot holds a different key
	ErrIncorrectProgramId

	// Rent sysvar account slot holds a different key or unreadable data
	ErrInvalidSysvar
)

var programErrorNames = map[ProgramError]string{
	ErrUnknownInstruction:   "UnknownInstruction",
	ErrMalformedPayload:     "MalformedPayload",
	ErrNotEnoughAccountKeys: "NotEnoughAccountKeys",
	ErrSizeMismatch:         "SizeMismatch",
	ErrTypeMismatch:         "TypeMismatch",
	ErrInvalidSeeds:         "InvalidSeeds",
	ErrInvalidOwner:         "InvalidOwner",
	ErrNotWritable:          "NotWritable",
	ErrMissingSignature:     "MissingSignature",
	ErrUnauthorized:         "Unauthorized",
	ErrAlreadyInitialized:   "AlreadyInitialized",
	ErrIncorrectProgramId:   "IncorrectProgramId",
	ErrInvalidSysvar:        "InvalidSysvar",
}

func (e ProgramError) Name() string {
	name, ok := programErrorNames[e]
	if !ok {
		return fmt.Sprintf("ProgramError(%d)", uint32(e))
	}
	return name
}

func (e ProgramError) Error() string {
	return fmt.Sprintf("config program error 0x%x: %s", uint32(e), e.Name())
}

// ErrorCode is the custom error code reported for the failed instruction
func (e ProgramError) ErrorCode() uint32 {
	return uint32(e)
}

// ProgramErrorFromCode maps a custom instruction error code back to a
// ProgramError
func ProgramErrorFromCode(code uint32) (ProgramError, bool) {
	e := ProgramError(code)
	_, ok := programErrorNames[e]
	return e, ok
}
