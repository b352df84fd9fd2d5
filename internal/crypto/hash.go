// Package crypto adapts the hash primitives the codec consumes: hash160 for
// address bridging and hash256 for transaction identifiers.
package crypto

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Hash160 returns RIPEMD160(SHA256(b)).
func Hash160(b []byte) []byte {
	return btcutil.Hash160(b)
}

// Hash256 returns SHA256(SHA256(b)).
func Hash256(b []byte) []byte {
	return chainhash.DoubleHashB(b)
}

// Sha256 returns SHA256(b).
func Sha256(b []byte) []byte {
	return chainhash.HashB(b)
}
