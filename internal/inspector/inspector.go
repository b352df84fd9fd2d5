// Package inspector renders decoded transactions in the shape of the node's
// decoderawtransaction result, extended with the sidechain fields.
package inspector

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/metrics"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/script"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/script/templates"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/transaction"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/pkg/safe"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/pkg/workerpool"
	"go.uber.org/zap"
)

// Result is the inspection view of one transaction.
type Result struct {
	btcjson.TxRawResult
	Overwintered   bool              `json:"overwintered,omitempty"`
	VersionGroupID string            `json:"versiongroupid,omitempty"`
	ExpiryHeight   uint32            `json:"expiryheight,omitempty"`
	JoinSplits     []JoinSplitResult `json:"vjoinsplit,omitempty"`
}

// JoinSplitResult summarises one JoinSplit description.
type JoinSplitResult struct {
	VPubOld       float64  `json:"vpub_old"`
	VPubOldZat    uint64   `json:"vpub_oldZat"`
	VPubNew       float64  `json:"vpub_new"`
	VPubNewZat    uint64   `json:"vpub_newZat"`
	Anchor        string   `json:"anchor"`
	Nullifiers    []string `json:"nullifiers"`
	Commitments   []string `json:"commitments"`
	OneTimePubKey string   `json:"onetimePubKey"`
	RandomSeed    string   `json:"randomSeed"`
	Macs          []string `json:"macs"`
}

// Inspector decodes raw transactions of one network and envelope.
type Inspector struct {
	sidechain   bool
	decodeOpts  []transaction.DecodeOption
	workerCount int
	decoder     ScriptDecoder
	metrics     Metrics
	logger      *zap.Logger
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithMetrics records decode outcomes.
func WithMetrics(m Metrics) Option {
	return func(i *Inspector) { i.metrics = m }
}

// WithWorkers sets the parallelism of InspectBatch.
func WithWorkers(n int) Option {
	return func(i *Inspector) { i.workerCount = n }
}

// WithDecodeOptions passes options through to transaction.Decode.
func WithDecodeOptions(opts ...transaction.DecodeOption) Option {
	return func(i *Inspector) { i.decodeOpts = append(i.decodeOpts, opts...) }
}

// New constructs an inspector. decoder resolves output addresses.
func New(decoder ScriptDecoder, sidechain bool, logger *zap.Logger, opts ...Option) *Inspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	i := &Inspector{
		sidechain:   sidechain,
		workerCount: 1,
		decoder:     decoder,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// InspectHex decodes a hex encoded transaction.
func (i *Inspector) InspectHex(s string) (*Result, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		i.observeDecode(0, err, time.Now())
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return i.Inspect(raw)
}

// Inspect decodes raw and builds its inspection view.
func (i *Inspector) Inspect(raw []byte) (*Result, error) {
	started := time.Now()
	tx, err := transaction.Decode(raw, i.sidechain, i.decodeOpts...)
	i.observeDecode(len(raw), err, started)
	if err != nil {
		i.logger.Debug("decode transaction failed", zap.Int("size", len(raw)), zap.Error(err))
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return i.build(tx)
}

// InspectBatch inspects every raw transaction and returns the results in
// input order. The first failure aborts the batch.
func (i *Inspector) InspectBatch(ctx context.Context, raws [][]byte) (results []*Result, err error) {
	defer func() {
		if i.metrics != nil {
			i.metrics.ObserveBatch(len(raws), err)
		}
	}()

	return workerpool.Map(ctx, i.workerCount, raws, func(_ context.Context, idx int, raw []byte) (*Result, error) {
		res, err := i.Inspect(raw)
		if err != nil {
			i.logger.Debug("inspect batch item failed", zap.Int("index", idx), zap.Error(err))
			return nil, fmt.Errorf("transaction %d: %w", idx, err)
		}
		return res, nil
	})
}

func (i *Inspector) envelope() string {
	if i.sidechain {
		return metrics.EnvelopeSidechain
	}
	return metrics.EnvelopeLegacy
}

func (i *Inspector) observeDecode(size int, err error, started time.Time) {
	if i.metrics == nil {
		return
	}
	i.metrics.ObserveDecode(i.envelope(), size, err, started)
}

func (i *Inspector) build(tx *transaction.Transaction) (*Result, error) {
	raw, err := tx.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	id, err := tx.ID()
	if err != nil {
		return nil, fmt.Errorf("transaction id: %w", err)
	}
	wh, err := tx.WitnessHash()
	if err != nil {
		return nil, fmt.Errorf("witness hash: %w", err)
	}
	size, err := safe.Int32(tx.ByteLength())
	if err != nil {
		return nil, fmt.Errorf("tx %s size overflow: %w", id, err)
	}
	vsize, err := safe.Int32(tx.VirtualSize())
	if err != nil {
		return nil, fmt.Errorf("tx %s vsize overflow: %w", id, err)
	}
	weight, err := safe.Int32(tx.Weight())
	if err != nil {
		return nil, fmt.Errorf("tx %s weight overflow: %w", id, err)
	}

	res := &Result{
		TxRawResult: btcjson.TxRawResult{
			Hex:      hex.EncodeToString(raw),
			Txid:     id,
			Hash:     wh.String(),
			Size:     size,
			Vsize:    vsize,
			Weight:   weight,
			Version:  uint32(tx.Version),
			LockTime: tx.LockTime,
			Vin:      convertInputs(tx),
		},
		Overwintered: tx.Overwintered,
	}
	if res.Vout, err = i.convertOutputs(id, tx); err != nil {
		return nil, err
	}
	if tx.Sidechain && tx.Version >= 3 {
		res.VersionGroupID = fmt.Sprintf("%08x", tx.VersionGroupID)
		res.ExpiryHeight = tx.Expiry
	}
	if res.JoinSplits, err = convertJoinSplits(id, tx.JoinSplits); err != nil {
		return nil, err
	}
	return res, nil
}

func convertInputs(tx *transaction.Transaction) []btcjson.Vin {
	coinbase := tx.IsCoinbase()
	vin := make([]btcjson.Vin, 0, len(tx.Inputs))
	for _, in := range tx.Inputs {
		v := btcjson.Vin{Sequence: in.Sequence}
		if coinbase {
			v.Coinbase = hex.EncodeToString(in.Script)
		} else {
			v.Txid = in.Hash.String()
			v.Vout = in.Index
			v.ScriptSig = &btcjson.ScriptSig{
				Asm: script.DisasmBytes(in.Script),
				Hex: hex.EncodeToString(in.Script),
			}
		}
		for _, item := range in.Witness {
			v.Witness = append(v.Witness, hex.EncodeToString(item))
		}
		vin = append(vin, v)
	}
	return vin
}

func (i *Inspector) convertOutputs(id string, tx *transaction.Transaction) ([]btcjson.Vout, error) {
	vout := make([]btcjson.Vout, 0, len(tx.Outputs))
	for idx, out := range tx.Outputs {
		n, err := safe.Uint32(idx)
		if err != nil {
			return nil, fmt.Errorf("tx %s output index overflow: %w", id, err)
		}
		value, err := toCoins(out.Value)
		if err != nil {
			return nil, fmt.Errorf("tx %s output %d value: %w", id, idx, err)
		}

		spk := btcjson.ScriptPubKeyResult{
			Asm:  script.DisasmBytes(out.Script),
			Hex:  hex.EncodeToString(out.Script),
			Type: templates.Classify(out.Script).String(),
		}
		if i.decoder != nil {
			addrs, err := i.decoder.DecodeAddresses(out.Script)
			if err != nil {
				return nil, fmt.Errorf("decode addresses for tx %s output %d: %w", id, idx, err)
			}
			if len(addrs) == 1 {
				spk.Address = addrs[0]
			}
			spk.Addresses = addrs
		}

		vout = append(vout, btcjson.Vout{Value: value, N: n, ScriptPubKey: spk})
	}
	return vout, nil
}

func convertJoinSplits(id string, joinSplits []*transaction.JoinSplit) ([]JoinSplitResult, error) {
	if len(joinSplits) == 0 {
		return nil, nil
	}
	out := make([]JoinSplitResult, 0, len(joinSplits))
	for idx, js := range joinSplits {
		vpubOld, err := toCoins(js.VPubOld)
		if err != nil {
			return nil, fmt.Errorf("tx %s joinsplit %d vpub_old: %w", id, idx, err)
		}
		vpubNew, err := toCoins(js.VPubNew)
		if err != nil {
			return nil, fmt.Errorf("tx %s joinsplit %d vpub_new: %w", id, idx, err)
		}
		out = append(out, JoinSplitResult{
			VPubOld:       vpubOld,
			VPubOldZat:    js.VPubOld,
			VPubNew:       vpubNew,
			VPubNewZat:    js.VPubNew,
			Anchor:        reversedHex(js.Anchor),
			Nullifiers:    []string{reversedHex(js.Nullifiers[0]), reversedHex(js.Nullifiers[1])},
			Commitments:   []string{reversedHex(js.Commitments[0]), reversedHex(js.Commitments[1])},
			OneTimePubKey: reversedHex(js.EphemeralKey),
			RandomSeed:    reversedHex(js.RandomSeed),
			Macs:          []string{reversedHex(js.Macs[0]), reversedHex(js.Macs[1])},
		})
	}
	return out, nil
}

// toCoins converts base units to whole coins.
func toCoins(v uint64) (float64, error) {
	amount, err := safe.Int64(v)
	if err != nil {
		return 0, err
	}
	return btcutil.Amount(amount).ToBTC(), nil
}

// reversedHex renders a 256-bit value in display byte order.
func reversedHex(b [32]byte) string {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return hex.EncodeToString(b[:])
}
