package script

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/codecerr"
	"github.com/stretchr/testify/require"
)

func hash20(b byte) []byte {
	return bytes.Repeat([]byte{b}, 20)
}

func p2pkhChunks(h []byte) Script {
	return Script{
		Op(txscript.OP_DUP),
		Op(txscript.OP_HASH160),
		Data(h),
		Op(txscript.OP_EQUALVERIFY),
		Op(txscript.OP_CHECKSIG),
	}
}

func TestCompileMinimalPush(t *testing.T) {
	tests := []struct {
		name  string
		chunk Chunk
		want  string
	}{
		{name: "empty data", chunk: Data(nil), want: "00"},
		{name: "one", chunk: Data([]byte{0x01}), want: "51"},
		{name: "sixteen", chunk: Data([]byte{0x10}), want: "60"},
		{name: "seventeen", chunk: Data([]byte{0x11}), want: "0111"},
		{name: "negate", chunk: Data([]byte{0x81}), want: "4f"},
		{name: "zero byte", chunk: Data([]byte{0x00}), want: "0100"},
		{name: "two bytes", chunk: Data([]byte{0x01, 0x02}), want: "020102"},
		{name: "opcode", chunk: Op(txscript.OP_CHECKSIG), want: "ac"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hex.EncodeToString(Compile(Script{tt.chunk}))
			if got != tt.want {
				t.Fatalf("Compile() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCompilePushPrefixes(t *testing.T) {
	tests := []struct {
		size   int
		prefix string
	}{
		{size: 75, prefix: "4b"},
		{size: 76, prefix: "4c4c"},
		{size: 255, prefix: "4cff"},
		{size: 256, prefix: "4d0001"},
		{size: 65536, prefix: "4e00000100"},
	}
	for _, tt := range tests {
		data := bytes.Repeat([]byte{0xaa}, tt.size)
		got := Compile(Script{Data(data)})
		prefix := hex.EncodeToString(got[:len(tt.prefix)/2])
		if prefix != tt.prefix {
			t.Fatalf("size %d: prefix %s, want %s", tt.size, prefix, tt.prefix)
		}
		if len(got) != len(tt.prefix)/2+tt.size {
			t.Fatalf("size %d: compiled length %d", tt.size, len(got))
		}

		chunks, ok := Decompile(got)
		if !ok || len(chunks) != 1 || !bytes.Equal(chunks[0].Data(), data) {
			t.Fatalf("size %d: decompile mismatch", tt.size)
		}
	}
}

func TestCompileMatchesTxscriptBuilder(t *testing.T) {
	h := hash20(0x11)
	want, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(h).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
	require.NoError(t, err)
	require.Equal(t, want, Compile(p2pkhChunks(h)))

	small, err := txscript.NewScriptBuilder().AddData([]byte{0x05}).AddData([]byte{0x81}).Script()
	require.NoError(t, err)
	require.Equal(t, small, Compile(Script{Data([]byte{0x05}), Data([]byte{0x81})}))
}

func TestDecompile(t *testing.T) {
	compiled := Compile(p2pkhChunks(hash20(0x11)))
	chunks, ok := Decompile(compiled)
	require.True(t, ok)
	require.Len(t, chunks, 5)
	require.True(t, chunks[2].IsData())
	require.Equal(t, hash20(0x11), chunks[2].Data())
	require.True(t, chunks.Equal(p2pkhChunks(hash20(0x11))))

	// A non-minimal push of a small integer comes back as its opcode.
	chunks, ok = Decompile([]byte{0x01, 0x05})
	require.True(t, ok)
	require.Len(t, chunks, 1)
	require.False(t, chunks[0].IsData())
	op, _ := chunks[0].Opcode()
	require.Equal(t, byte(txscript.OP_5), op)

	chunks, ok = Decompile(nil)
	require.True(t, ok)
	require.Empty(t, chunks)
}

func TestDecompileTruncated(t *testing.T) {
	tests := []struct {
		name string
		hex  string
	}{
		{name: "data overruns", hex: "0511223344"},
		{name: "pushdata1 without length", hex: "4c"},
		{name: "pushdata1 overruns", hex: "4c0211"},
		{name: "pushdata2 short length", hex: "4d01"},
		{name: "pushdata4 huge length", hex: "4effffffff00"},
		{name: "after opcodes", hex: "76a914"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := hex.DecodeString(tt.hex)
			chunks, ok := Decompile(b)
			if ok || chunks != nil {
				t.Fatalf("Decompile(%s) = %v, %v; want nil, false", tt.hex, chunks, ok)
			}
		})
	}
}

func TestCompileIdempotent(t *testing.T) {
	scripts := []Script{
		p2pkhChunks(hash20(0x22)),
		{Op(txscript.OP_RETURN), Data([]byte("hello world"))},
		{Data([]byte{0x03}), Data(bytes.Repeat([]byte{0x01}, 80)), Data(nil)},
		{Op(txscript.OP_2), Data(bytes.Repeat([]byte{0x02}, 33)), Op(txscript.OP_1), Op(txscript.OP_CHECKMULTISIG)},
	}
	for i, s := range scripts {
		first := Compile(s)
		chunks, ok := Decompile(first)
		if !ok {
			t.Fatalf("script %d: decompile failed", i)
		}
		if second := Compile(chunks); !bytes.Equal(first, second) {
			t.Fatalf("script %d: %x != %x", i, first, second)
		}
	}
}

func TestToASM(t *testing.T) {
	asm := ToASM(p2pkhChunks(hash20(0x11)))
	want := "OP_DUP OP_HASH160 " + strings.Repeat("11", 20) + " OP_EQUALVERIFY OP_CHECKSIG"
	require.Equal(t, want, asm)

	compiled, err := FromASM(asm)
	require.NoError(t, err)
	require.Equal(t, Compile(p2pkhChunks(hash20(0x11))), compiled)

	require.Equal(t, want, DisasmBytes(compiled))
	require.Equal(t, "", DisasmBytes([]byte{0x05, 0x01}))
}

func TestASMPreferredNames(t *testing.T) {
	tests := []struct {
		op   byte
		name string
	}{
		{op: txscript.OP_0, name: "OP_0"},
		{op: txscript.OP_1, name: "OP_1"},
		{op: txscript.OP_16, name: "OP_16"},
		{op: txscript.OP_1NEGATE, name: "OP_1NEGATE"},
		{op: txscript.OP_CHECKLOCKTIMEVERIFY, name: "OP_CHECKLOCKTIMEVERIFY"},
		{op: txscript.OP_CHECKSEQUENCEVERIFY, name: "OP_CHECKSEQUENCEVERIFY"},
		{op: txscript.OP_RETURN, name: "OP_RETURN"},
	}
	for _, tt := range tests {
		if got := OpcodeName(tt.op); got != tt.name {
			t.Fatalf("OpcodeName(0x%02x) = %s, want %s", tt.op, got, tt.name)
		}
	}
}

func TestFromASMAliases(t *testing.T) {
	got, err := FromASM("OP_FALSE OP_TRUE OP_NOP2")
	require.NoError(t, err)
	require.Equal(t, []byte{txscript.OP_0, txscript.OP_1, txscript.OP_CHECKLOCKTIMEVERIFY}, got)
	require.Equal(t, "OP_0 OP_1 OP_CHECKLOCKTIMEVERIFY", DisasmBytes(got))
}

func TestFromASMSmallData(t *testing.T) {
	got, err := FromASM("OP_RETURN 01 81")
	require.NoError(t, err)
	require.Equal(t, []byte{txscript.OP_RETURN, txscript.OP_1, txscript.OP_1NEGATE}, got)
}

func TestFromASMInvalid(t *testing.T) {
	for _, asm := range []string{"OP_NOPE", "OP_DUP zz", "abc"} {
		if _, err := FromASM(asm); !codecerr.IsContract(err) {
			t.Fatalf("FromASM(%q) error = %v, want contract error", asm, err)
		}
	}
}

func TestIsPushOnly(t *testing.T) {
	require.True(t, Script{Data([]byte{1, 2}), Op(txscript.OP_0), Op(txscript.OP_16)}.IsPushOnly())
	require.False(t, Script{Op(txscript.OP_RETURN), Data([]byte{1, 2})}.IsPushOnly())
	require.False(t, Script{Op(txscript.OP_RESERVED)}.IsPushOnly())
}

func TestChunkPushed(t *testing.T) {
	tests := []struct {
		chunk Chunk
		want  []byte
		ok    bool
	}{
		{chunk: Op(txscript.OP_0), want: []byte{}, ok: true},
		{chunk: Op(txscript.OP_7), want: []byte{7}, ok: true},
		{chunk: Op(txscript.OP_1NEGATE), want: []byte{0x81}, ok: true},
		{chunk: Data([]byte{0xde, 0xad}), want: []byte{0xde, 0xad}, ok: true},
		{chunk: Op(txscript.OP_DUP), ok: false},
	}
	for _, tt := range tests {
		got, ok := tt.chunk.Pushed()
		if ok != tt.ok || !bytes.Equal(got, tt.want) {
			t.Fatalf("Pushed() = %x, %v; want %x, %v", got, ok, tt.want, tt.ok)
		}
	}
}
