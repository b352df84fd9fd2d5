package transaction

import (
	"fmt"

	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/codecerr"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/pkg/safe"
)

// MsgTx converts a legacy envelope transaction to its btcd form.
func (tx *Transaction) MsgTx() (*wire.MsgTx, error) {
	if tx.Sidechain {
		return nil, codecerr.Contractf("sidechain transactions have no btcd form")
	}
	if err := tx.validate(); err != nil {
		return nil, err
	}

	msg := &wire.MsgTx{
		Version:  tx.Version,
		TxIn:     make([]*wire.TxIn, 0, len(tx.Inputs)),
		TxOut:    make([]*wire.TxOut, 0, len(tx.Outputs)),
		LockTime: tx.LockTime,
	}
	for _, in := range tx.Inputs {
		txIn := &wire.TxIn{
			PreviousOutPoint: wire.OutPoint{Hash: in.Hash, Index: in.Index},
			SignatureScript:  cloneBytes(in.Script),
			Sequence:         in.Sequence,
		}
		for _, item := range in.Witness {
			txIn.Witness = append(txIn.Witness, cloneBytes(item))
		}
		msg.TxIn = append(msg.TxIn, txIn)
	}
	for i, out := range tx.Outputs {
		value, err := safe.Int64(out.Value)
		if err != nil {
			return nil, codecerr.Contractf("output %d value: %v", i, err)
		}
		msg.TxOut = append(msg.TxOut, wire.NewTxOut(value, cloneBytes(out.Script)))
	}
	return msg, nil
}

// FromMsgTx converts a btcd transaction to the legacy envelope.
func FromMsgTx(msg *wire.MsgTx) (*Transaction, error) {
	tx := &Transaction{
		Version:  msg.Version,
		Inputs:   make([]*Input, 0, len(msg.TxIn)),
		Outputs:  make([]*Output, 0, len(msg.TxOut)),
		LockTime: msg.LockTime,
	}
	for _, txIn := range msg.TxIn {
		in := &Input{
			Hash:     txIn.PreviousOutPoint.Hash,
			Index:    txIn.PreviousOutPoint.Index,
			Script:   cloneBytes(txIn.SignatureScript),
			Sequence: txIn.Sequence,
		}
		for _, item := range txIn.Witness {
			in.Witness = append(in.Witness, append([]byte{}, item...))
		}
		tx.Inputs = append(tx.Inputs, in)
	}
	for i, txOut := range msg.TxOut {
		value, err := safe.Uint64(txOut.Value)
		if err != nil {
			return nil, fmt.Errorf("output %d value: %w", i, err)
		}
		tx.Outputs = append(tx.Outputs, &Output{Value: value, Script: cloneBytes(txOut.PkScript)})
	}
	return tx, nil
}
