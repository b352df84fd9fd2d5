// Package templates recognises and builds the standard output script shapes.
package templates

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/codecerr"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/script"
)

// Type identifies a standard script shape.
type Type uint8

const (
	NonStandardTy Type = iota
	PubKeyHashTy
	ScriptHashTy
	WitnessPubKeyHashTy
	WitnessScriptHashTy
	NullDataTy
)

var typeNames = [...]string{
	NonStandardTy:       "nonstandard",
	PubKeyHashTy:        "pubkeyhash",
	ScriptHashTy:        "scripthash",
	WitnessPubKeyHashTy: "witnesspubkeyhash",
	WitnessScriptHashTy: "witnessscripthash",
	NullDataTy:          "nulldata",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return typeNames[NonStandardTy]
}

// Template checks, builds and unpacks one script shape.
type Template interface {
	Type() Type
	// Check reports whether the compiled script has this shape. It never
	// panics, whatever the input.
	Check(script []byte) bool
	// Encode builds the script carrying payload.
	Encode(payload []byte) ([]byte, error)
	// Decode extracts the payload, or returns a NoMatch error.
	Decode(script []byte) ([]byte, error)
}

var (
	PubKeyHash        Template = pubKeyHash{}
	ScriptHash        Template = scriptHash{}
	WitnessPubKeyHash Template = witnessProgram{size: 20, ty: WitnessPubKeyHashTy}
	WitnessScriptHash Template = witnessProgram{size: 32, ty: WitnessScriptHashTy}
	NullData          Template = nullData{}
)

// AddressTemplates lists the shapes that map to an address, in lookup order.
var AddressTemplates = []Template{PubKeyHash, ScriptHash, WitnessPubKeyHash, WitnessScriptHash}

// All lists every known shape in classification order.
var All = []Template{PubKeyHash, ScriptHash, WitnessPubKeyHash, WitnessScriptHash, NullData}

// CheckScript compiles chunks and checks them against t.
func CheckScript(t Template, s script.Script) bool {
	return t.Check(script.Compile(s))
}

// Classify returns the type of the first template matching b.
func Classify(b []byte) Type {
	for _, t := range All {
		if t.Check(b) {
			return t.Type()
		}
	}
	return NonStandardTy
}

func checkLength(payload []byte, want int) error {
	if len(payload) != want {
		return codecerr.Contractf("expected %d bytes, got %d", want, len(payload))
	}
	return nil
}

func noMatch(t Type) error {
	return codecerr.NoMatchf("script is not %s", t)
}

type pubKeyHash struct{}

func (pubKeyHash) Type() Type { return PubKeyHashTy }

func (pubKeyHash) Check(b []byte) bool {
	return len(b) == 25 &&
		b[0] == txscript.OP_DUP &&
		b[1] == txscript.OP_HASH160 &&
		b[2] == txscript.OP_DATA_20 &&
		b[23] == txscript.OP_EQUALVERIFY &&
		b[24] == txscript.OP_CHECKSIG
}

func (pubKeyHash) Encode(hash []byte) ([]byte, error) {
	if err := checkLength(hash, 20); err != nil {
		return nil, err
	}
	return script.Compile(script.Script{
		script.Op(txscript.OP_DUP),
		script.Op(txscript.OP_HASH160),
		script.Data(hash),
		script.Op(txscript.OP_EQUALVERIFY),
		script.Op(txscript.OP_CHECKSIG),
	}), nil
}

func (t pubKeyHash) Decode(b []byte) ([]byte, error) {
	if !t.Check(b) {
		return nil, noMatch(t.Type())
	}
	return clone(b[3:23]), nil
}

type scriptHash struct{}

func (scriptHash) Type() Type { return ScriptHashTy }

func (scriptHash) Check(b []byte) bool {
	return len(b) == 23 &&
		b[0] == txscript.OP_HASH160 &&
		b[1] == txscript.OP_DATA_20 &&
		b[22] == txscript.OP_EQUAL
}

func (scriptHash) Encode(hash []byte) ([]byte, error) {
	if err := checkLength(hash, 20); err != nil {
		return nil, err
	}
	return script.Compile(script.Script{
		script.Op(txscript.OP_HASH160),
		script.Data(hash),
		script.Op(txscript.OP_EQUAL),
	}), nil
}

func (t scriptHash) Decode(b []byte) ([]byte, error) {
	if !t.Check(b) {
		return nil, noMatch(t.Type())
	}
	return clone(b[2:22]), nil
}

// witnessProgram covers version 0 programs of a fixed size.
type witnessProgram struct {
	size int
	ty   Type
}

func (w witnessProgram) Type() Type { return w.ty }

func (w witnessProgram) Check(b []byte) bool {
	return len(b) == w.size+2 &&
		b[0] == txscript.OP_0 &&
		int(b[1]) == w.size
}

func (w witnessProgram) Encode(program []byte) ([]byte, error) {
	if err := checkLength(program, w.size); err != nil {
		return nil, err
	}
	return script.Compile(script.Script{script.Op(txscript.OP_0), script.Data(program)}), nil
}

func (w witnessProgram) Decode(b []byte) ([]byte, error) {
	if !w.Check(b) {
		return nil, noMatch(w.ty)
	}
	return clone(b[2:]), nil
}

// nullData is OP_RETURN followed by exactly one push.
type nullData struct{}

func (nullData) Type() Type { return NullDataTy }

func (nullData) Check(b []byte) bool {
	_, ok := nullDataPayload(b)
	return ok
}

func (nullData) Encode(payload []byte) ([]byte, error) {
	return script.Compile(script.Script{script.Op(txscript.OP_RETURN), script.Data(payload)}), nil
}

func (t nullData) Decode(b []byte) ([]byte, error) {
	payload, ok := nullDataPayload(b)
	if !ok {
		return nil, noMatch(t.Type())
	}
	return clone(payload), nil
}

func nullDataPayload(b []byte) ([]byte, bool) {
	chunks, ok := script.Decompile(b)
	if !ok || len(chunks) != 2 {
		return nil, false
	}
	if op, _ := chunks[0].Opcode(); chunks[0].IsData() || op != txscript.OP_RETURN {
		return nil, false
	}
	return chunks[1].Pushed()
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
