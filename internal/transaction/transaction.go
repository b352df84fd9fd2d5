// Package transaction decodes and encodes transactions in the legacy,
// segregated witness and sidechain envelopes.
//
// The sidechain envelope extends the legacy grammar with an overwinter
// header, an expiry height and a section of JoinSplit descriptions. The
// witness marker is only recognised in the legacy envelope.
package transaction

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/codecerr"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/crypto"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/varint"
)

const (
	DefaultSequence = 0xffffffff

	SigHashAll          = 0x01
	SigHashNone         = 0x02
	SigHashSingle       = 0x03
	SigHashAnyoneCanPay = 0x80

	// WitnessMarker and WitnessFlag open the witness section of a legacy
	// envelope.
	WitnessMarker = 0x00
	WitnessFlag   = 0x01

	// DefaultVersionGroupID is the overwinter version group of new
	// sidechain transactions.
	DefaultVersionGroupID = 0x03c48270

	overwinterBit = 1 << 31
	versionMask   = overwinterBit - 1

	minInputSize  = 32 + 4 + 1 + 4
	minOutputSize = 8 + 1
)

// Input spends a previous output.
type Input struct {
	Hash     chainhash.Hash
	Index    uint32
	Script   []byte
	Sequence uint32
	Witness  [][]byte
}

// Output pays Value base units to Script.
type Output struct {
	Value  uint64
	Script []byte
}

// Transaction is a decoded transaction in either envelope.
type Transaction struct {
	Version int32
	// Overwintered, VersionGroupID and Expiry belong to the sidechain
	// envelope. VersionGroupID and Expiry are on the wire from version 3.
	Overwintered   bool
	VersionGroupID uint32
	Inputs         []*Input
	Outputs        []*Output
	LockTime       uint32
	Expiry         uint32
	// JoinSplits and the trailing key and signature are on the wire for
	// sidechain version 2 and later.
	JoinSplits      []*JoinSplit
	JoinSplitPubKey [32]byte
	JoinSplitSig    [64]byte
	Sidechain       bool
}

// New returns an empty transaction. Sidechain transactions start at version
// 3, overwintered, in the default version group.
func New(sidechain bool) *Transaction {
	if sidechain {
		return &Transaction{
			Version:        3,
			Overwintered:   true,
			VersionGroupID: DefaultVersionGroupID,
			Sidechain:      true,
		}
	}
	return &Transaction{Version: 1}
}

// AddInput appends an input and returns its index. hash must be 32 bytes in
// internal byte order.
func (tx *Transaction) AddInput(hash []byte, index, sequence uint32, script []byte) (int, error) {
	if len(hash) != chainhash.HashSize {
		return 0, codecerr.Contractf("expected %d bytes, got %d", chainhash.HashSize, len(hash))
	}
	in := &Input{Index: index, Sequence: sequence, Script: script}
	copy(in.Hash[:], hash)
	tx.Inputs = append(tx.Inputs, in)
	return len(tx.Inputs) - 1, nil
}

// AddOutput appends an output and returns its index.
func (tx *Transaction) AddOutput(script []byte, value uint64) int {
	tx.Outputs = append(tx.Outputs, &Output{Value: value, Script: script})
	return len(tx.Outputs) - 1
}

// SetWitness replaces the witness stack of input index.
func (tx *Transaction) SetWitness(index int, witness [][]byte) error {
	if index < 0 || index >= len(tx.Inputs) {
		return codecerr.Contractf("input index %d out of range [0, %d)", index, len(tx.Inputs))
	}
	for i, item := range witness {
		if item == nil {
			return codecerr.Contractf("witness item %d is not a byte string", i)
		}
	}
	if tx.Sidechain && len(witness) > 0 {
		return codecerr.Contractf("sidechain transactions carry no witness data")
	}
	tx.Inputs[index].Witness = witness
	return nil
}

// HasWitnesses reports whether any input has a non-empty witness stack.
func (tx *Transaction) HasWitnesses() bool {
	for _, in := range tx.Inputs {
		if len(in.Witness) != 0 {
			return true
		}
	}
	return false
}

func (tx *Transaction) hasOverwinterHeader() bool {
	return tx.Sidechain && tx.Version >= 3
}

// ByteLength returns the size of the full serialization.
func (tx *Transaction) ByteLength() int {
	return tx.byteLength(true)
}

// StrippedByteLength returns the size of the serialization without witness
// data.
func (tx *Transaction) StrippedByteLength() int {
	return tx.byteLength(false)
}

func (tx *Transaction) byteLength(allowWitness bool) int {
	witness := allowWitness && tx.HasWitnesses()

	size := 4 + 4
	if tx.hasOverwinterHeader() {
		size += 4 + 4
	}
	if witness {
		size += 2
	}

	size += varint.EncodingLength(uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		size += 32 + 4 + varSliceSize(in.Script) + 4
		if witness {
			size += vectorSize(in.Witness)
		}
	}
	size += varint.EncodingLength(uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		size += 8 + varSliceSize(out.Script)
	}
	return size + tx.JoinSplitByteLength()
}

// Weight is three times the stripped size plus the full size.
func (tx *Transaction) Weight() int {
	return tx.StrippedByteLength()*3 + tx.ByteLength()
}

// VirtualSize is the weight divided by four, rounded up.
func (tx *Transaction) VirtualSize() int {
	return (tx.Weight() + 3) / 4
}

// Hash returns the double SHA-256 of the serialization without witness data.
func (tx *Transaction) Hash() (chainhash.Hash, error) {
	b, err := tx.encode(false)
	if err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.Hash(crypto.Hash256(b)), nil
}

// ID returns the transaction id: Hash in reversed byte order, as hex.
func (tx *Transaction) ID() (string, error) {
	h, err := tx.Hash()
	if err != nil {
		return "", err
	}
	return h.String(), nil
}

// WitnessHash returns the double SHA-256 of the full serialization. It
// equals Hash for transactions without witness data.
func (tx *Transaction) WitnessHash() (chainhash.Hash, error) {
	b, err := tx.encode(true)
	if err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.Hash(crypto.Hash256(b)), nil
}

// IsCoinbaseHash reports whether hash is the all-zero previous output hash
// used by coinbase inputs.
func IsCoinbaseHash(hash []byte) (bool, error) {
	if len(hash) != chainhash.HashSize {
		return false, codecerr.Contractf("expected %d bytes, got %d", chainhash.HashSize, len(hash))
	}
	for _, b := range hash {
		if b != 0 {
			return false, nil
		}
	}
	return true, nil
}

// IsCoinbase reports whether tx has a single input spending the null
// outpoint.
func (tx *Transaction) IsCoinbase() bool {
	if len(tx.Inputs) != 1 {
		return false
	}
	in := tx.Inputs[0]
	return in.Hash == chainhash.Hash{} && in.Index == 0xffffffff
}

// Clone returns a deep copy of tx.
func (tx *Transaction) Clone() *Transaction {
	out := *tx
	out.Inputs = make([]*Input, len(tx.Inputs))
	for i, in := range tx.Inputs {
		c := *in
		c.Script = cloneBytes(in.Script)
		if in.Witness != nil {
			c.Witness = make([][]byte, len(in.Witness))
			for j, item := range in.Witness {
				c.Witness[j] = cloneBytes(item)
			}
		}
		out.Inputs[i] = &c
	}
	out.Outputs = make([]*Output, len(tx.Outputs))
	for i, o := range tx.Outputs {
		out.Outputs[i] = &Output{Value: o.Value, Script: cloneBytes(o.Script)}
	}
	if tx.JoinSplits != nil {
		out.JoinSplits = make([]*JoinSplit, len(tx.JoinSplits))
		for i, js := range tx.JoinSplits {
			c := *js
			out.JoinSplits[i] = &c
		}
	}
	return &out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}

// ToHex returns the full serialization as hex.
func (tx *Transaction) ToHex() (string, error) {
	b, err := tx.Bytes()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
