// Package script converts between chunk sequences, compiled script bytes and
// the textual ASM form.
//
// Compile applies the BIP62.3 minimal push policy, so any two chunk sequences
// that push the same values compile to identical bytes.
package script

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/txscript"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/codecerr"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/pushdata"
)

// Chunk is a single script element: either an opcode or a data push.
type Chunk struct {
	op     byte
	data   []byte
	isData bool
}

// Op returns an opcode chunk.
func Op(op byte) Chunk {
	return Chunk{op: op}
}

// Data returns a data chunk. The slice is not copied.
func Data(b []byte) Chunk {
	if b == nil {
		b = []byte{}
	}
	return Chunk{data: b, isData: true}
}

// IsData reports whether c is a data push.
func (c Chunk) IsData() bool { return c.isData }

// Opcode returns the opcode of an opcode chunk, or the opcode a data chunk
// compiles to when it has a minimal single-opcode form. ok is false for data
// that compiles to an explicit push.
func (c Chunk) Opcode() (op byte, ok bool) {
	if !c.isData {
		return c.op, true
	}
	return minimalOpcode(c.data)
}

// Data returns the pushed bytes of a data chunk, or nil for an opcode chunk.
func (c Chunk) Data() []byte {
	if !c.isData {
		return nil
	}
	return c.data
}

// Equal reports whether c and o compile to the same bytes.
func (c Chunk) Equal(o Chunk) bool {
	cop, cok := c.Opcode()
	oop, ook := o.Opcode()
	if cok || ook {
		return cok && ook && cop == oop
	}
	return bytes.Equal(c.data, o.data)
}

func (c Chunk) compiledSize() int {
	if _, ok := c.Opcode(); ok {
		return 1
	}
	return pushdata.EncodingLength(uint32(len(c.data))) + len(c.data)
}

// Script is an ordered sequence of chunks.
type Script []Chunk

// Equal reports whether s and o have the same chunks.
func (s Script) Equal(o Script) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if !s[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// String returns the ASM form of s.
func (s Script) String() string {
	return ToASM(s)
}

// Compile serializes chunks under the minimal push policy.
func Compile(s Script) []byte {
	size := 0
	for _, c := range s {
		size += c.compiledSize()
	}

	buf := make([]byte, size)
	off := 0
	for _, c := range s {
		if op, ok := c.Opcode(); ok {
			buf[off] = op
			off++
			continue
		}
		off += pushdata.Put(buf[off:], uint32(len(c.data)))
		off += copy(buf[off:], c.data)
	}
	return buf
}

// Decompile parses compiled bytes into chunks. It reports false, with no
// chunks, when a push prefix is truncated or a push overruns the buffer;
// callers treat that as a script that matches nothing.
func Decompile(b []byte) (Script, bool) {
	chunks := make(Script, 0, len(b)/2+1)
	i := 0
	for i < len(b) {
		op := b[i]
		if op <= txscript.OP_0 || op > txscript.OP_PUSHDATA4 {
			chunks = append(chunks, Op(op))
			i++
			continue
		}

		push, ok := pushdata.Decode(b, i)
		if !ok {
			return nil, false
		}
		i += push.Size
		if uint64(i)+uint64(push.Number) > uint64(len(b)) {
			return nil, false
		}
		data := b[i : i+int(push.Number)]
		i += int(push.Number)

		if mop, ok := minimalOpcode(data); ok {
			chunks = append(chunks, Op(mop))
		} else {
			chunks = append(chunks, Data(data))
		}
	}
	return chunks, true
}

// ToASM renders chunks as space separated mnemonics and hex data.
func ToASM(s Script) string {
	parts := make([]string, 0, len(s))
	for _, c := range s {
		if op, ok := c.Opcode(); ok {
			parts = append(parts, OpcodeName(op))
			continue
		}
		parts = append(parts, hex.EncodeToString(c.data))
	}
	return strings.Join(parts, " ")
}

// DisasmBytes decompiles b and renders it as ASM. Bytes that do not
// decompile render as an empty string.
func DisasmBytes(b []byte) string {
	chunks, ok := Decompile(b)
	if !ok {
		return ""
	}
	return ToASM(chunks)
}

// ParseASM parses the ASM form into chunks.
func ParseASM(asm string) (Script, error) {
	tokens := strings.Fields(asm)
	chunks := make(Script, 0, len(tokens))
	for _, tok := range tokens {
		if op, ok := OpcodeByName(tok); ok {
			chunks = append(chunks, Op(op))
			continue
		}
		data, err := hex.DecodeString(tok)
		if err != nil || len(data) == 0 {
			return nil, codecerr.Contractf("invalid ASM token %q", tok)
		}
		chunks = append(chunks, Data(data))
	}
	return chunks, nil
}

// FromASM parses the ASM form and compiles it.
func FromASM(asm string) ([]byte, error) {
	chunks, err := ParseASM(asm)
	if err != nil {
		return nil, err
	}
	return Compile(chunks), nil
}

// Pushed returns the bytes c places on the stack. Small integer opcodes push
// their value; ok is false for opcodes that push nothing.
func (c Chunk) Pushed() (data []byte, ok bool) {
	if c.isData {
		return c.data, true
	}
	switch {
	case c.op == txscript.OP_0:
		return []byte{}, true
	case c.op == txscript.OP_1NEGATE:
		return []byte{0x81}, true
	case c.op >= txscript.OP_1 && c.op <= txscript.OP_16:
		return []byte{c.op - smallIntBase}, true
	default:
		return nil, false
	}
}

// IsPushOnly reports whether every chunk pushes data.
func (s Script) IsPushOnly() bool {
	for _, c := range s {
		if _, ok := c.Pushed(); !ok {
			return false
		}
	}
	return true
}
