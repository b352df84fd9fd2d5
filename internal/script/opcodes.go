package script

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
)

// opcodeAliases are names in txscript.OpcodeByName that share a value with a
// preferred name and are never produced by ToASM.
var opcodeAliases = map[string]struct{}{
	"OP_FALSE": {},
	"OP_TRUE":  {},
	"OP_NOP2":  {},
	"OP_NOP3":  {},
}

var opcodeNames = buildOpcodeNames()

func buildOpcodeNames() [256]string {
	var names [256]string
	for name, op := range txscript.OpcodeByName {
		if _, alias := opcodeAliases[name]; alias {
			continue
		}
		if cur := names[op]; cur != "" && cur < name {
			continue
		}
		names[op] = name
	}
	for op := range names {
		if names[op] == "" {
			names[op] = fmt.Sprintf("OP_UNKNOWN%d", op)
		}
	}
	return names
}

// OpcodeName returns the mnemonic of op.
func OpcodeName(op byte) string {
	return opcodeNames[op]
}

// OpcodeByName returns the opcode for a mnemonic, accepting aliases such as
// OP_FALSE and OP_TRUE.
func OpcodeByName(name string) (byte, bool) {
	op, ok := txscript.OpcodeByName[name]
	return op, ok
}

// smallIntBase is the value preceding OP_1, so OP_n == smallIntBase + n.
const smallIntBase = txscript.OP_1 - 1

// minimalOpcode reports the single opcode that pushes data under the minimal
// push policy, if there is one.
func minimalOpcode(data []byte) (byte, bool) {
	switch {
	case len(data) == 0:
		return txscript.OP_0, true
	case len(data) != 1:
		return 0, false
	case data[0] >= 1 && data[0] <= 16:
		return smallIntBase + data[0], true
	case data[0] == 0x81:
		return txscript.OP_1NEGATE, true
	default:
		return 0, false
	}
}
