package transaction

import (
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/codecerr"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/varint"
)

const (
	// NumJoinSplitInputs and NumJoinSplitOutputs fix the arity of every
	// JoinSplit description.
	NumJoinSplitInputs  = 2
	NumJoinSplitOutputs = 2
	// NoteCiphertextSize is the size of one encrypted note.
	NoteCiphertextSize = 1 + 8 + 32 + 32 + 512 + 16

	g1PrefixMask = 0x02
	g2PrefixMask = 0x0a

	g1Size    = 1 + 32
	g2Size    = 1 + 64
	proofSize = 7*g1Size + g2Size

	joinSplitSize = 8 + 8 + 32 +
		NumJoinSplitInputs*32 +
		NumJoinSplitOutputs*32 +
		32 + 32 +
		NumJoinSplitInputs*32 +
		proofSize +
		NumJoinSplitOutputs*NoteCiphertextSize

	joinSplitPubKeySize = 32
	joinSplitSigSize    = 64
)

// G1 is a compressed point on the first proof curve group.
type G1 struct {
	YLsb byte
	X    [32]byte
}

// G2 is a compressed point on the second proof curve group.
type G2 struct {
	YLsb byte
	X    [64]byte
}

// ZProof is the zero-knowledge proof of one JoinSplit.
type ZProof struct {
	A      G1
	APrime G1
	B      G2
	BPrime G1
	C      G1
	CPrime G1
	K      G1
	H      G1
}

// JoinSplit describes one shielded value transfer.
type JoinSplit struct {
	VPubOld      uint64
	VPubNew      uint64
	Anchor       [32]byte
	Nullifiers   [NumJoinSplitInputs][32]byte
	Commitments  [NumJoinSplitOutputs][32]byte
	EphemeralKey [32]byte
	RandomSeed   [32]byte
	Macs         [NumJoinSplitInputs][32]byte
	Proof        ZProof
	Ciphertexts  [NumJoinSplitOutputs][NoteCiphertextSize]byte
}

func (p *ZProof) g1s() []*G1 {
	return []*G1{&p.A, &p.APrime, &p.BPrime, &p.C, &p.CPrime, &p.K, &p.H}
}

func (p *ZProof) validate() error {
	if p.B.YLsb > 1 {
		return codecerr.Contractf("proof point B: y parity %d is not a bit", p.B.YLsb)
	}
	for _, g := range p.g1s() {
		if g.YLsb > 1 {
			return codecerr.Contractf("proof G1 point: y parity %d is not a bit", g.YLsb)
		}
	}
	return nil
}

// JoinSplitByteLength returns the size of the JoinSplit section. It is zero
// for envelopes that carry no such section.
func (tx *Transaction) JoinSplitByteLength() int {
	if !tx.hasJoinSplitSection() {
		return 0
	}
	n := len(tx.JoinSplits)
	size := varint.EncodingLength(uint64(n)) + n*joinSplitSize
	if n > 0 {
		size += joinSplitPubKeySize + joinSplitSigSize
	}
	return size
}

func (tx *Transaction) hasJoinSplitSection() bool {
	return tx.Sidechain && tx.Version >= 2
}

func readJoinSplits(r *reader, tx *Transaction) error {
	n, err := r.count("joinsplit count", joinSplitSize)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	tx.JoinSplits = make([]*JoinSplit, n)
	for i := range tx.JoinSplits {
		js, err := readJoinSplit(r)
		if err != nil {
			return fmt.Errorf("joinsplit %d: %w", i, err)
		}
		tx.JoinSplits[i] = js
	}
	if err := r.into(tx.JoinSplitPubKey[:], "joinsplit pubkey"); err != nil {
		return err
	}
	return r.into(tx.JoinSplitSig[:], "joinsplit signature")
}

func readJoinSplit(r *reader) (*JoinSplit, error) {
	js := &JoinSplit{}
	var err error
	if js.VPubOld, err = r.uint64("vpub old"); err != nil {
		return nil, err
	}
	if js.VPubNew, err = r.uint64("vpub new"); err != nil {
		return nil, err
	}
	fields := []struct {
		dst  []byte
		what string
	}{
		{js.Anchor[:], "anchor"},
		{js.Nullifiers[0][:], "nullifier"},
		{js.Nullifiers[1][:], "nullifier"},
		{js.Commitments[0][:], "commitment"},
		{js.Commitments[1][:], "commitment"},
		{js.EphemeralKey[:], "ephemeral key"},
		{js.RandomSeed[:], "random seed"},
		{js.Macs[0][:], "mac"},
		{js.Macs[1][:], "mac"},
	}
	for _, f := range fields {
		if err := r.into(f.dst, f.what); err != nil {
			return nil, err
		}
	}
	if err := readProof(r, &js.Proof); err != nil {
		return nil, err
	}
	for i := range js.Ciphertexts {
		if err := r.into(js.Ciphertexts[i][:], "ciphertext"); err != nil {
			return nil, err
		}
	}
	return js, nil
}

// readProof reads the eight points in wire order: A, A', B, B', C, C', K, H.
func readProof(r *reader, p *ZProof) error {
	for _, g := range []*G1{&p.A, &p.APrime} {
		if err := readG1(r, g); err != nil {
			return err
		}
	}
	if err := readG2(r, &p.B); err != nil {
		return err
	}
	for _, g := range []*G1{&p.BPrime, &p.C, &p.CPrime, &p.K, &p.H} {
		if err := readG1(r, g); err != nil {
			return err
		}
	}
	return nil
}

func readPrefix(r *reader, mask byte, what string) (byte, error) {
	prefix, err := r.uint8(what)
	if err != nil {
		return 0, err
	}
	if prefix&^1 != mask {
		return 0, codecerr.Formatf("%s at offset %d: invalid prefix 0x%02x", what, r.off-1, prefix)
	}
	return prefix & 1, nil
}

func readG1(r *reader, g *G1) error {
	yLsb, err := readPrefix(r, g1PrefixMask, "G1 point")
	if err != nil {
		return err
	}
	g.YLsb = yLsb
	return r.into(g.X[:], "G1 point")
}

func readG2(r *reader, g *G2) error {
	yLsb, err := readPrefix(r, g2PrefixMask, "G2 point")
	if err != nil {
		return err
	}
	g.YLsb = yLsb
	return r.into(g.X[:], "G2 point")
}

func writeJoinSplits(w *writer, tx *Transaction) {
	w.varInt(uint64(len(tx.JoinSplits)))
	for _, js := range tx.JoinSplits {
		writeJoinSplit(w, js)
	}
	if len(tx.JoinSplits) > 0 {
		w.bytes(tx.JoinSplitPubKey[:])
		w.bytes(tx.JoinSplitSig[:])
	}
}

func writeJoinSplit(w *writer, js *JoinSplit) {
	w.uint64(js.VPubOld)
	w.uint64(js.VPubNew)
	w.bytes(js.Anchor[:])
	for i := range js.Nullifiers {
		w.bytes(js.Nullifiers[i][:])
	}
	for i := range js.Commitments {
		w.bytes(js.Commitments[i][:])
	}
	w.bytes(js.EphemeralKey[:])
	w.bytes(js.RandomSeed[:])
	for i := range js.Macs {
		w.bytes(js.Macs[i][:])
	}

	p := &js.Proof
	writeG1(w, &p.A)
	writeG1(w, &p.APrime)
	w.uint8(g2PrefixMask | p.B.YLsb)
	w.bytes(p.B.X[:])
	writeG1(w, &p.BPrime)
	writeG1(w, &p.C)
	writeG1(w, &p.CPrime)
	writeG1(w, &p.K)
	writeG1(w, &p.H)

	for i := range js.Ciphertexts {
		w.bytes(js.Ciphertexts[i][:])
	}
}

func writeG1(w *writer, g *G1) {
	w.uint8(g1PrefixMask | g.YLsb)
	w.bytes(g.X[:])
}
