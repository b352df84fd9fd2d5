// Package pushdata encodes and decodes the length prefix of script push
// operations.
package pushdata

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/txscript"
)

// Push describes a decoded push prefix.
type Push struct {
	// Opcode is the push opcode that started the prefix.
	Opcode byte
	// Number is the count of data bytes that follow the prefix.
	Number uint32
	// Size is the length of the prefix itself.
	Size int
}

// EncodingLength returns the size of the shortest prefix for n data bytes.
func EncodingLength(n uint32) int {
	switch {
	case n < txscript.OP_PUSHDATA1:
		return 1
	case n <= 0xff:
		return 2
	case n <= 0xffff:
		return 3
	default:
		return 5
	}
}

// Encode returns the shortest prefix announcing n data bytes.
func Encode(n uint32) []byte {
	buf := make([]byte, EncodingLength(n))
	Put(buf, n)
	return buf
}

// Put writes the shortest prefix for n at the start of dst and returns its
// size. dst must hold EncodingLength(n) bytes.
func Put(dst []byte, n uint32) int {
	switch size := EncodingLength(n); size {
	case 1:
		dst[0] = byte(n)
		return size
	case 2:
		dst[0] = txscript.OP_PUSHDATA1
		dst[1] = byte(n)
		return size
	case 3:
		dst[0] = txscript.OP_PUSHDATA2
		binary.LittleEndian.PutUint16(dst[1:], uint16(n))
		return size
	default:
		dst[0] = txscript.OP_PUSHDATA4
		binary.LittleEndian.PutUint32(dst[1:], n)
		return size
	}
}

// Decode reads the push prefix at offset. It reports false when the opcode is
// not a push opcode or the buffer is too short for the length field; it never
// panics.
func Decode(buf []byte, offset int) (Push, bool) {
	if offset < 0 || offset >= len(buf) {
		return Push{}, false
	}
	op := buf[offset]
	switch {
	case op < txscript.OP_PUSHDATA1:
		return Push{Opcode: op, Number: uint32(op), Size: 1}, true
	case op == txscript.OP_PUSHDATA1:
		if offset+2 > len(buf) {
			return Push{}, false
		}
		return Push{Opcode: op, Number: uint32(buf[offset+1]), Size: 2}, true
	case op == txscript.OP_PUSHDATA2:
		if offset+3 > len(buf) {
			return Push{}, false
		}
		return Push{Opcode: op, Number: uint32(binary.LittleEndian.Uint16(buf[offset+1:])), Size: 3}, true
	case op == txscript.OP_PUSHDATA4:
		if offset+5 > len(buf) {
			return Push{}, false
		}
		return Push{Opcode: op, Number: binary.LittleEndian.Uint32(buf[offset+1:]), Size: 5}, true
	default:
		return Push{}, false
	}
}
