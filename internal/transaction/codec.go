package transaction

import (
	"encoding/hex"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/codecerr"
)

type decodeConfig struct {
	strict bool
}

// DecodeOption adjusts Decode.
type DecodeOption func(*decodeConfig)

// NonStrict accepts bytes left over after the transaction grammar.
func NonStrict() DecodeOption {
	return func(c *decodeConfig) {
		c.strict = false
	}
}

// FromHex decodes a hex encoded transaction.
func FromHex(s string, sidechain bool, opts ...DecodeOption) (*Transaction, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, codecerr.Format("decode transaction hex", err)
	}
	return Decode(b, sidechain, opts...)
}

// Decode parses b in the sidechain or legacy envelope. Unless NonStrict is
// given, trailing bytes are a FormatError.
func Decode(b []byte, sidechain bool, opts ...DecodeOption) (*Transaction, error) {
	cfg := decodeConfig{strict: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &reader{buf: b}
	tx := &Transaction{Sidechain: sidechain}

	if err := readHeader(r, tx); err != nil {
		return nil, err
	}

	witness := false
	if !sidechain && r.peek(WitnessMarker, WitnessFlag) {
		r.skip(2)
		witness = true
	}

	if err := readInputs(r, tx); err != nil {
		return nil, err
	}
	if err := readOutputs(r, tx); err != nil {
		return nil, err
	}

	if witness {
		for i, in := range tx.Inputs {
			w, err := r.vector("witness item")
			if err != nil {
				return nil, fmt.Errorf("input %d witness: %w", i, err)
			}
			in.Witness = w
		}
		if !tx.HasWitnesses() {
			return nil, codecerr.Formatf("transaction has superfluous witness data")
		}
	}

	var err error
	if tx.LockTime, err = r.uint32("locktime"); err != nil {
		return nil, err
	}
	if tx.hasOverwinterHeader() {
		if tx.Expiry, err = r.uint32("expiry"); err != nil {
			return nil, err
		}
	}
	if tx.hasJoinSplitSection() {
		if err := readJoinSplits(r, tx); err != nil {
			return nil, err
		}
	}

	if cfg.strict && r.remaining() != 0 {
		return nil, codecerr.Formatf("transaction has unexpected data: %d bytes after offset %d", r.remaining(), r.off)
	}
	return tx, nil
}

func readHeader(r *reader, tx *Transaction) error {
	if !tx.Sidechain {
		v, err := r.int32("version")
		tx.Version = v
		return err
	}

	header, err := r.uint32("header")
	if err != nil {
		return err
	}
	tx.Version = int32(header & versionMask)
	tx.Overwintered = header&overwinterBit != 0
	if tx.Version < 3 {
		return nil
	}
	if !tx.Overwintered {
		return codecerr.Formatf("sidechain tx v%d not overwintered", tx.Version)
	}
	tx.VersionGroupID, err = r.uint32("version group id")
	return err
}

func readInputs(r *reader, tx *Transaction) error {
	n, err := r.count("input count", minInputSize)
	if err != nil {
		return err
	}
	tx.Inputs = make([]*Input, n)
	for i := range tx.Inputs {
		in := &Input{}
		if err := r.into(in.Hash[:], "input hash"); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		if in.Index, err = r.uint32("input index"); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		if in.Script, err = r.varSlice("input script"); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		if in.Sequence, err = r.uint32("input sequence"); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		tx.Inputs[i] = in
	}
	return nil
}

func readOutputs(r *reader, tx *Transaction) error {
	n, err := r.count("output count", minOutputSize)
	if err != nil {
		return err
	}
	tx.Outputs = make([]*Output, n)
	for i := range tx.Outputs {
		out := &Output{}
		if out.Value, err = r.uint64("output value"); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
		if out.Script, err = r.varSlice("output script"); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
		tx.Outputs[i] = out
	}
	return nil
}

// Bytes returns the full serialization.
func (tx *Transaction) Bytes() ([]byte, error) {
	return tx.encode(true)
}

// EncodeInto writes the full serialization into dst at offset and returns
// the written sub-slice. The destination range is checked against
// ByteLength before anything is written.
func (tx *Transaction) EncodeInto(dst []byte, offset int) ([]byte, error) {
	if err := tx.validate(); err != nil {
		return nil, err
	}
	size := tx.ByteLength()
	if offset < 0 || offset > len(dst) || len(dst)-offset < size {
		return nil, codecerr.Contractf("destination [%d:%d] does not fit %d bytes in buffer of %d", offset, offset+size, size, len(dst))
	}
	out := dst[offset : offset+size]
	if err := tx.write(out, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (tx *Transaction) encode(allowWitness bool) ([]byte, error) {
	if err := tx.validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, tx.byteLength(allowWitness))
	if err := tx.write(buf, allowWitness); err != nil {
		return nil, err
	}
	return buf, nil
}

// validate checks every encoding precondition so that no byte is written for
// a transaction that cannot be serialized.
func (tx *Transaction) validate() error {
	if !tx.Sidechain {
		if tx.Overwintered {
			return codecerr.Contractf("legacy transactions cannot be overwintered")
		}
		if len(tx.JoinSplits) > 0 {
			return codecerr.Contractf("legacy transactions carry no joinsplits")
		}
	} else {
		if tx.Version < 0 {
			return codecerr.Contractf("sidechain version %d out of range", tx.Version)
		}
		if tx.Version >= 3 && !tx.Overwintered {
			return codecerr.Contractf("sidechain tx v%d not overwintered", tx.Version)
		}
		if tx.Version < 2 && len(tx.JoinSplits) > 0 {
			return codecerr.Contractf("sidechain tx v%d carries no joinsplits", tx.Version)
		}
		if tx.HasWitnesses() {
			return codecerr.Contractf("sidechain transactions carry no witness data")
		}
	}
	for i, in := range tx.Inputs {
		if in == nil {
			return codecerr.Contractf("input %d is nil", i)
		}
		for j, item := range in.Witness {
			if item == nil {
				return codecerr.Contractf("input %d witness item %d is nil", i, j)
			}
		}
	}
	for i, out := range tx.Outputs {
		if out == nil {
			return codecerr.Contractf("output %d is nil", i)
		}
	}
	for i, js := range tx.JoinSplits {
		if js == nil {
			return codecerr.Contractf("joinsplit %d is nil", i)
		}
		if err := js.Proof.validate(); err != nil {
			return fmt.Errorf("joinsplit %d: %w", i, err)
		}
	}
	return nil
}

func (tx *Transaction) write(buf []byte, allowWitness bool) error {
	w := &writer{buf: buf}
	witness := allowWitness && tx.HasWitnesses()

	switch {
	case !tx.Sidechain:
		w.int32(tx.Version)
	case tx.hasOverwinterHeader():
		w.uint32(uint32(tx.Version) | overwinterBit)
		w.uint32(tx.VersionGroupID)
	default:
		header := uint32(tx.Version)
		if tx.Overwintered {
			header |= overwinterBit
		}
		w.uint32(header)
	}

	if witness {
		w.uint8(WitnessMarker)
		w.uint8(WitnessFlag)
	}

	w.varInt(uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		w.bytes(in.Hash[:])
		w.uint32(in.Index)
		w.varSlice(in.Script)
		w.uint32(in.Sequence)
	}
	w.varInt(uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		w.uint64(out.Value)
		w.varSlice(out.Script)
	}
	if witness {
		for _, in := range tx.Inputs {
			w.vector(in.Witness)
		}
	}

	w.uint32(tx.LockTime)
	if tx.hasOverwinterHeader() {
		w.uint32(tx.Expiry)
	}
	if tx.hasJoinSplitSection() {
		writeJoinSplits(w, tx)
	}

	if w.err != nil {
		return w.err
	}
	if w.off != len(buf) {
		return codecerr.Contractf("wrote %d bytes, expected %d", w.off, len(buf))
	}
	return nil
}
