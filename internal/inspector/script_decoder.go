package inspector

import (
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/address"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/codecerr"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/network"
)

// scriptDecoder extracts human-readable addresses from output scripts.
type scriptDecoder struct {
	params *network.Params
}

// NewScriptDecoder initializes a decoder for extracting addresses using params of the named network.
func NewScriptDecoder(name string) (ScriptDecoder, error) {
	params, ok := network.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unsupported network %q", name)
	}
	return &scriptDecoder{params: params}, nil
}

// DecodeAddresses returns the address paying to script, or nothing for
// scripts without one.
func (d *scriptDecoder) DecodeAddresses(script []byte) ([]string, error) {
	if len(script) == 0 {
		return nil, nil
	}
	addr, err := address.FromOutputScript(script, d.params)
	if codecerr.IsNoMatch(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []string{addr}, nil
}
