// Package binary contains fixed-offset little endian helpers for program
// account and instruction layouts. Every helper writes or reads at
// dst[*offset:] / src[*offset:] and advances the offset.
package binary

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"
)

const (
	OptionNone uint8 = 0
	OptionSome uint8 = 1
)

// ErrInvalidOptionFlag indicates an option flag byte other than 0 or 1
var ErrInvalidOptionFlag = errors.New("invalid option flag")

func PutKey32(dst []byte, src []byte, offset *int) {
	copy(dst[*offset:*offset+ed25519.PublicKeySize], src)
	*offset += ed25519.PublicKeySize
}

func PutOptionalKey32(dst []byte, src []byte, offset *int) {
	if len(src) > 0 {
		dst[*offset] = OptionSome
		copy(dst[*offset+1:*offset+1+ed25519.PublicKeySize], src)
	}
	*offset += 1 + ed25519.PublicKeySize
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[*offset] = v
	*offset += 1
}

func PutUint16(dst []byte, v uint16, offset *int) {
	binary.LittleEndian.PutUint16(dst[*offset:], v)
	*offset += 2
}

func PutUint32(dst []byte, v uint32, offset *int) {
	binary.LittleEndian.PutUint32(dst[*offset:], v)
	*offset += 4
}

func PutUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst[*offset:], v)
	*offset += 8
}

// PutUint writes v using width bytes (1, 2, 4 or 8)
func PutUint(dst []byte, v uint64, width int, offset *int) {
	switch width {
	case 1:
		PutUint8(dst, uint8(v), offset)
	case 2:
		PutUint16(dst, uint16(v), offset)
	case 4:
		PutUint32(dst, uint32(v), offset)
	case 8:
		PutUint64(dst, v, offset)
	default:
		panic("unsupported integer width")
	}
}

// PutOptionalUint writes an option flag followed by width bytes
func PutOptionalUint(dst []byte, v *uint64, width int, offset *int) {
	if v != nil {
		dst[*offset] = OptionSome
		inner := *offset + 1
		PutUint(dst, *v, width, &inner)
	}
	*offset += 1 + width
}

func GetKey32(src []byte, dst *ed25519.PublicKey, offset *int) {
	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src[*offset:*offset+ed25519.PublicKeySize])
	*offset += ed25519.PublicKeySize
}

func GetOptionalKey32(src []byte, dst *ed25519.PublicKey, offset *int) error {
	flag := src[*offset]
	switch flag {
	case OptionNone:
		*dst = nil
	case OptionSome:
		*dst = make([]byte, ed25519.PublicKeySize)
		copy(*dst, src[*offset+1:*offset+1+ed25519.PublicKeySize])
	default:
		return ErrInvalidOptionFlag
	}
	*offset += 1 + ed25519.PublicKeySize
	return nil
}

func GetUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[*offset]
	*offset += 1
}

func GetUint16(src []byte, dst *uint16, offset *int) {
	*dst = binary.LittleEndian.Uint16(src[*offset:])
	*offset += 2
}

func GetUint32(src []byte, dst *uint32, offset *int) {
	*dst = binary.LittleEndian.Uint32(src[*offset:])
	*offset += 4
}

func GetUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src[*offset:])
	*offset += 8
}

// GetUint reads width bytes (1, 2, 4 or 8) as an unsigned integer
func GetUint(src []byte, dst *uint64, width int, offset *int) {
	switch width {
	case 1:
		var v uint8
		GetUint8(src, &v, offset)
		*dst = uint64(v)
	case 2:
		var v uint16
		GetUint16(src, &v, offset)
		*dst = uint64(v)
	case 4:
		var v uint32
		GetUint32(src, &v, offset)
		*dst = uint64(v)
	case 8:
		GetUint64(src, dst, offset)
	default:
		panic("unsupported integer width")
	}
}

// GetOptionalUint reads an option flag followed by width bytes
func GetOptionalUint(src []byte, dst **uint64, width int, offset *int) error {
	flag := src[*offset]
	switch flag {
	case OptionNone:
		*dst = nil
	case OptionSome:
		var v uint64
		inner := *offset + 1
		GetUint(src, &v, width, &inner)
		*dst = &v
	default:
		return ErrInvalidOptionFlag
	}
	*offset += 1 + width
	return nil
}
