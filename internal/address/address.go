// Package address converts between human-readable addresses and the output
// scripts they stand for.
package address

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/codecerr"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/network"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/script"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/script/templates"
)

const hashSize = 20

// Base58Check is a decoded Base58Check address.
type Base58Check struct {
	Version uint16
	Hash    []byte
}

// Bech32 is a decoded Bech32 address.
type Bech32 struct {
	Version byte
	Prefix  string
	Data    []byte
}

// FromBase58Check decodes addr. Payloads of 21 bytes carry a one byte
// version, payloads of 22 bytes a two byte big-endian version.
func FromBase58Check(addr string) (Base58Check, error) {
	rest, first, err := base58.CheckDecode(addr)
	if err != nil {
		if errors.Is(err, base58.ErrChecksum) {
			return Base58Check{}, codecerr.Format(addr+" has an invalid checksum", err)
		}
		return Base58Check{}, codecerr.Format(addr+" is not base58check", err)
	}

	switch payload := len(rest) + 1; {
	case payload < 21:
		return Base58Check{}, codecerr.Formatf("%s is too short", addr)
	case payload > 22:
		return Base58Check{}, codecerr.Formatf("%s is too long", addr)
	case payload == 22:
		return Base58Check{
			Version: uint16(first)<<8 | uint16(rest[0]),
			Hash:    rest[1:],
		}, nil
	default:
		return Base58Check{Version: uint16(first), Hash: rest}, nil
	}
}

// ToBase58Check encodes a 20 byte hash under version. Versions above 0xff
// take two bytes.
func ToBase58Check(hash []byte, version uint16) (string, error) {
	if len(hash) != hashSize {
		return "", codecerr.Contractf("expected %d bytes, got %d", hashSize, len(hash))
	}
	if version > 0xff {
		input := make([]byte, 0, 1+hashSize)
		input = append(input, byte(version))
		input = append(input, hash...)
		return base58.CheckEncode(input, byte(version>>8)), nil
	}
	return base58.CheckEncode(hash, byte(version)), nil
}

// FromBech32 decodes addr. Only the BIP173 checksum is accepted, not bech32m.
func FromBech32(addr string) (Bech32, error) {
	prefix, words, version, err := bech32.DecodeGeneric(addr)
	if err != nil {
		return Bech32{}, codecerr.Format(addr+" is not bech32", err)
	}
	if version != bech32.Version0 {
		return Bech32{}, codecerr.Formatf("%s uses an unsupported checksum", addr)
	}
	if len(words) == 0 {
		return Bech32{}, codecerr.Formatf("%s has no witness version", addr)
	}
	data, err := bech32.ConvertBits(words[1:], 5, 8, false)
	if err != nil {
		return Bech32{}, codecerr.Format(addr+" has invalid data", err)
	}
	return Bech32{Version: words[0], Prefix: prefix, Data: data}, nil
}

// ToBech32 encodes data under a witness version and human-readable prefix.
func ToBech32(data []byte, version byte, prefix string) (string, error) {
	if version > 31 {
		return "", codecerr.Contractf("witness version %d out of range", version)
	}
	if prefix == "" {
		return "", codecerr.Contractf("empty bech32 prefix")
	}
	words, err := bech32.ConvertBits(data, 8, 5, true)
	if err != nil {
		return "", codecerr.Format("convert bech32 data", err)
	}
	encoded, err := bech32.Encode(prefix, append([]byte{version}, words...))
	if err != nil {
		return "", codecerr.Format("encode bech32", err)
	}
	return encoded, nil
}

// FromOutputScript renders the address paying to b. nil params mean
// mainnet.
func FromOutputScript(b []byte, params *network.Params) (string, error) {
	params = network.OrDefault(params)

	for _, t := range templates.AddressTemplates {
		payload, err := t.Decode(b)
		if err != nil {
			continue
		}
		switch t.Type() {
		case templates.PubKeyHashTy:
			return ToBase58Check(payload, params.PubKeyHash)
		case templates.ScriptHashTy:
			return ToBase58Check(payload, params.ScriptHash)
		default:
			if params.Bech32 == "" {
				return "", codecerr.NoMatchf("%s has no matching Address on %s", script.DisasmBytes(b), params.Name)
			}
			return ToBech32(payload, 0, params.Bech32)
		}
	}
	return "", codecerr.NoMatchf("%s has no matching Address", script.DisasmBytes(b))
}

// ToOutputScript builds the output script paying to addr. nil params mean
// mainnet.
func ToOutputScript(addr string, params *network.Params) ([]byte, error) {
	params = network.OrDefault(params)

	if decoded, err := FromBase58Check(addr); err == nil {
		switch decoded.Version {
		case params.PubKeyHash:
			return templates.PubKeyHash.Encode(decoded.Hash)
		case params.ScriptHash:
			return templates.ScriptHash.Encode(decoded.Hash)
		}
		return nil, noMatchingScript(addr)
	}

	decoded, err := FromBech32(addr)
	if err != nil {
		return nil, noMatchingScript(addr)
	}
	if decoded.Prefix != params.Bech32 {
		return nil, codecerr.NoMatchf("%s has an invalid prefix", addr)
	}
	if decoded.Version == 0 {
		switch len(decoded.Data) {
		case 20:
			return templates.WitnessPubKeyHash.Encode(decoded.Data)
		case 32:
			return templates.WitnessScriptHash.Encode(decoded.Data)
		}
	}
	return nil, noMatchingScript(addr)
}

func noMatchingScript(addr string) error {
	return codecerr.NoMatchf("%s has no matching Script", addr)
}
