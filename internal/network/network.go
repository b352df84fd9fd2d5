// Package network holds the static address parameters of the supported
// networks. The table is built at init and never mutated; lookups return
// copies.
package network

import (
	"encoding/binary"
	"sort"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

// BIP32 holds the extended key version words.
type BIP32 struct {
	Public  uint32
	Private uint32
}

// Params are the per-network encoding parameters.
type Params struct {
	Name string
	// PubKeyHash and ScriptHash are Base58Check versions. Values above 0xff
	// encode as two big-endian bytes.
	PubKeyHash uint16
	ScriptHash uint16
	// Bech32 is the segwit human-readable prefix; empty disables Bech32.
	Bech32 string
	BIP32  BIP32
	WIF    byte
}

const (
	Bitcoin        = "bitcoin"
	Testnet        = "testnet"
	Regtest        = "regtest"
	Signet         = "signet"
	Litecoin       = "litecoin"
	Ravencoin      = "ravencoin"
	Zcash          = "zcash"
	ZcashTestnet   = "zcash-testnet"
	defaultNetwork = Bitcoin
)

var table = map[string]Params{
	Bitcoin: fromChainParams(Bitcoin, &chaincfg.MainNetParams),
	Testnet: fromChainParams(Testnet, &chaincfg.TestNet3Params),
	Regtest: fromChainParams(Regtest, &chaincfg.RegressionNetParams),
	Signet:  fromChainParams(Signet, &chaincfg.SigNetParams),
	Litecoin: {
		Name:       Litecoin,
		PubKeyHash: 0x30,
		ScriptHash: 0x32,
		Bech32:     "ltc",
		BIP32:      BIP32{Public: 0x019da462, Private: 0x019d9cfe},
		WIF:        0xb0,
	},
	Ravencoin: {
		Name:       Ravencoin,
		PubKeyHash: 0x3c,
		ScriptHash: 0x7a,
		BIP32:      BIP32{Public: 0x0488b21e, Private: 0x0488ade4},
		WIF:        0x80,
	},
	Zcash: {
		Name:       Zcash,
		PubKeyHash: 0x1cb8,
		ScriptHash: 0x1cbd,
		BIP32:      BIP32{Public: 0x0488b21e, Private: 0x0488ade4},
		WIF:        0x80,
	},
	ZcashTestnet: {
		Name:       ZcashTestnet,
		PubKeyHash: 0x1d25,
		ScriptHash: 0x1cba,
		BIP32:      BIP32{Public: 0x043587cf, Private: 0x04358394},
		WIF:        0xef,
	},
}

var aliases = map[string]string{
	"main":     Bitcoin,
	"mainnet":  Bitcoin,
	"testnet3": Testnet,
	"ltc":      Litecoin,
	"rvn":      Ravencoin,
	"zec":      Zcash,
}

func fromChainParams(name string, p *chaincfg.Params) Params {
	return Params{
		Name:       name,
		PubKeyHash: uint16(p.PubKeyHashAddrID),
		ScriptHash: uint16(p.ScriptHashAddrID),
		Bech32:     p.Bech32HRPSegwit,
		BIP32: BIP32{
			Public:  binary.BigEndian.Uint32(p.HDPublicKeyID[:]),
			Private: binary.BigEndian.Uint32(p.HDPrivateKeyID[:]),
		},
		WIF: p.PrivateKeyID,
	}
}

// Mainnet returns the default network.
func Mainnet() *Params {
	p := table[defaultNetwork]
	return &p
}

// Lookup returns the parameters registered under name or a known alias.
func Lookup(name string) (*Params, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	p, ok := table[key]
	if !ok {
		return nil, false
	}
	return &p, true
}

// Get is Lookup with the mainnet fallback for unknown names.
func Get(name string) *Params {
	if p, ok := Lookup(name); ok {
		return p
	}
	return Mainnet()
}

// OrDefault returns p, or mainnet when p is nil.
func OrDefault(p *Params) *Params {
	if p == nil {
		return Mainnet()
	}
	return p
}

// Names lists the registered network names in sorted order.
func Names() []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
