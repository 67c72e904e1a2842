package configprogram

type InstructionType uint8

const (
	Unknown InstructionType = iota

	InstructionTypeInitializeConfig
	InstructionTypeUpdateConfig
)

func (t InstructionType) String() string {
	switch t {
	case InstructionTypeInitializeConfig:
		return "initialize_config"
	case InstructionTypeUpdateConfig:
		return "update_config"
	default:
		return "unknown"
	}
}

func putInstructionType(dst []byte, v InstructionType, offset *int) {
	dst[*offset] = uint8(v)
	*offset += 1
}
