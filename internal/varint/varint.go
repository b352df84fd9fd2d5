// Package varint implements the compact-size integer encoding used for every
// count and length on the wire, and the exact little-endian 64-bit routines
// used for value fields.
package varint

import (
	"encoding/binary"

	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/codecerr"
)

// MaxValue is the largest integer the compact-size codec accepts.
const MaxValue = 1<<53 - 1

const (
	tag16 = 0xfd
	tag32 = 0xfe
	tag64 = 0xff
)

// EncodingLength returns the number of bytes Encode produces for n.
func EncodingLength(n uint64) int {
	switch {
	case n < tag16:
		return 1
	case n <= 0xffff:
		return 3
	case n <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// Encode returns the shortest compact-size encoding of n.
func Encode(n uint64) ([]byte, error) {
	if n > MaxValue {
		return nil, codecerr.Contractf("compact size %d exceeds %d", n, uint64(MaxValue))
	}
	buf := make([]byte, EncodingLength(n))
	put(buf, n)
	return buf, nil
}

// Put writes the shortest encoding of n at the start of dst and returns the
// number of bytes written. dst must hold EncodingLength(n) bytes.
func Put(dst []byte, n uint64) (int, error) {
	if n > MaxValue {
		return 0, codecerr.Contractf("compact size %d exceeds %d", n, uint64(MaxValue))
	}
	size := EncodingLength(n)
	if len(dst) < size {
		return 0, codecerr.Contractf("compact size needs %d bytes, have %d", size, len(dst))
	}
	put(dst, n)
	return size, nil
}

func put(dst []byte, n uint64) {
	switch {
	case n < tag16:
		dst[0] = byte(n)
	case n <= 0xffff:
		dst[0] = tag16
		binary.LittleEndian.PutUint16(dst[1:], uint16(n))
	case n <= 0xffffffff:
		dst[0] = tag32
		binary.LittleEndian.PutUint32(dst[1:], uint32(n))
	default:
		dst[0] = tag64
		binary.LittleEndian.PutUint64(dst[1:], n)
	}
}

// Decode reads a compact-size integer at offset and returns its value and the
// number of bytes it occupied. Non-minimal widths are accepted.
func Decode(buf []byte, offset int) (uint64, int, error) {
	if offset < 0 || offset >= len(buf) {
		return 0, 0, codecerr.Formatf("compact size at offset %d: buffer too short", offset)
	}
	tag := buf[offset]
	size := 1
	switch tag {
	case tag16:
		size = 3
	case tag32:
		size = 5
	case tag64:
		size = 9
	}
	if len(buf)-offset < size {
		return 0, 0, codecerr.Formatf("compact size at offset %d: need %d bytes, have %d", offset, size, len(buf)-offset)
	}

	var n uint64
	switch size {
	case 1:
		n = uint64(tag)
	case 3:
		n = uint64(binary.LittleEndian.Uint16(buf[offset+1:]))
	case 5:
		n = uint64(binary.LittleEndian.Uint32(buf[offset+1:]))
	default:
		n = binary.LittleEndian.Uint64(buf[offset+1:])
		if n > MaxValue {
			return 0, 0, codecerr.Formatf("compact size %d exceeds %d", n, uint64(MaxValue))
		}
	}
	return n, size, nil
}

// Uint64 reads an exact little-endian 64-bit value at offset.
func Uint64(buf []byte, offset int) (uint64, error) {
	if offset < 0 || len(buf)-offset < 8 {
		return 0, codecerr.Formatf("uint64 at offset %d: buffer too short", offset)
	}
	return binary.LittleEndian.Uint64(buf[offset:]), nil
}

// PutUint64 writes v as 8 little-endian bytes at the start of dst.
func PutUint64(dst []byte, v uint64) error {
	if len(dst) < 8 {
		return codecerr.Contractf("uint64 needs 8 bytes, have %d", len(dst))
	}
	binary.LittleEndian.PutUint64(dst, v)
	return nil
}
