package inspector

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/codecerr"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/metrics"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/network"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/transaction"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	genesisHex = "01000000010000000000000000000000000000000000000000000000000000000000000000ffffffff4d04ffff001d0104455468652054696d65732030332f4a616e2f32303039204368616e63656c6c6f72206f6e206272696e6b206f66207365636f6e64206261696c6f757420666f722062616e6b73ffffffff0100f2052a01000000434104678afdb0fe5548271967f1a67130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c384df7ba0b8d578a4c702b6bf11d5fac00000000"
	genesisID  = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"

	sidechainV4Hex = "0400008085202f89010101010101010101010101010101010101010101010101010101010101010101000000000100ffffffff01e8030000000000001976a914333333333333333333333333333333333333333388ac0000000040e2010000"
	sidechainV4ID  = "3236ed39083f531e2b15d844394585c1ec104b7c6c9c916ee51bee863f7af8fb"

	p2wpkhHex   = "00142222222222222222222222222222222222222222"
	nullDataHex = "6a0401020304"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// segwitTx builds a one input witness spend paying a witness pubkeyhash and
// a null data output.
func segwitTx(t *testing.T) []byte {
	t.Helper()
	tx := transaction.New(false)
	tx.Version = 2
	_, err := tx.AddInput(bytes.Repeat([]byte{0x01}, 32), 3, transaction.DefaultSequence, nil)
	require.NoError(t, err)
	tx.AddOutput(mustHex(t, p2wpkhHex), 50000)
	tx.AddOutput(mustHex(t, nullDataHex), 0)
	require.NoError(t, tx.SetWitness(0, [][]byte{{0x30, 0x01}, {0x02, 0x03}}))
	raw, err := tx.Bytes()
	require.NoError(t, err)
	return raw
}

func TestInspectGenesis(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := NewMockMetrics(ctrl)
	m.EXPECT().ObserveDecode(metrics.EnvelopeLegacy, 204, gomock.Nil(), gomock.Any()).Times(1)

	decoder, err := NewScriptDecoder(network.Bitcoin)
	require.NoError(t, err)

	res, err := New(decoder, false, zap.NewNop(), WithMetrics(m)).InspectHex(genesisHex)
	require.NoError(t, err)

	require.Equal(t, genesisHex, res.Hex)
	require.Equal(t, genesisID, res.Txid)
	require.Equal(t, genesisID, res.Hash)
	require.Equal(t, int32(204), res.Size)
	require.Equal(t, int32(204), res.Vsize)
	require.Equal(t, int32(816), res.Weight)
	require.False(t, res.Overwintered)
	require.Empty(t, res.VersionGroupID)
	require.Nil(t, res.JoinSplits)

	require.Len(t, res.Vin, 1)
	require.NotEmpty(t, res.Vin[0].Coinbase)
	require.Empty(t, res.Vin[0].Txid)
	require.Nil(t, res.Vin[0].ScriptSig)
	require.Equal(t, uint32(0xffffffff), res.Vin[0].Sequence)

	require.Len(t, res.Vout, 1)
	require.Equal(t, 50.0, res.Vout[0].Value)
	require.Equal(t, "nonstandard", res.Vout[0].ScriptPubKey.Type)
	require.True(t, strings.HasSuffix(res.Vout[0].ScriptPubKey.Asm, " OP_CHECKSIG"))
	require.Empty(t, res.Vout[0].ScriptPubKey.Address)
}

func TestInspectSegwit(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	d := NewMockScriptDecoder(ctrl)
	d.EXPECT().DecodeAddresses(mustHex(t, p2wpkhHex)).Return([]string{"bc1qyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zc6v074"}, nil)
	d.EXPECT().DecodeAddresses(mustHex(t, nullDataHex)).Return(nil, nil)

	res, err := New(d, false, nil).Inspect(segwitTx(t))
	require.NoError(t, err)

	require.NotEqual(t, res.Txid, res.Hash)
	require.Less(t, res.Vsize, res.Size)
	require.Equal(t, uint32(2), res.Version)

	require.Len(t, res.Vin, 1)
	require.Equal(t, strings.Repeat("01", 32), res.Vin[0].Txid)
	require.Equal(t, uint32(3), res.Vin[0].Vout)
	require.Equal(t, []string{"3001", "0203"}, res.Vin[0].Witness)
	require.NotNil(t, res.Vin[0].ScriptSig)
	require.Empty(t, res.Vin[0].ScriptSig.Hex)

	require.Len(t, res.Vout, 2)
	require.Equal(t, 0.0005, res.Vout[0].Value)
	require.Equal(t, uint32(0), res.Vout[0].N)
	require.Equal(t, "witnesspubkeyhash", res.Vout[0].ScriptPubKey.Type)
	require.Equal(t, "OP_0 "+strings.Repeat("22", 20), res.Vout[0].ScriptPubKey.Asm)
	require.Equal(t, "bc1qyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zc6v074", res.Vout[0].ScriptPubKey.Address)

	require.Equal(t, uint32(1), res.Vout[1].N)
	require.Equal(t, "nulldata", res.Vout[1].ScriptPubKey.Type)
	require.Equal(t, "OP_RETURN 01020304", res.Vout[1].ScriptPubKey.Asm)
	require.Empty(t, res.Vout[1].ScriptPubKey.Address)
}

func TestInspectSidechain(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := NewMockMetrics(ctrl)
	m.EXPECT().ObserveDecode(metrics.EnvelopeSidechain, len(sidechainV4Hex)/2, gomock.Nil(), gomock.Any()).Times(1)

	decoder, err := NewScriptDecoder(network.Zcash)
	require.NoError(t, err)

	res, err := New(decoder, true, zap.NewNop(), WithMetrics(m)).InspectHex(sidechainV4Hex)
	require.NoError(t, err)

	require.Equal(t, sidechainV4ID, res.Txid)
	require.Equal(t, uint32(4), res.Version)
	require.True(t, res.Overwintered)
	require.Equal(t, "892f2085", res.VersionGroupID)
	require.Equal(t, uint32(123456), res.ExpiryHeight)
	require.Len(t, res.Vout, 1)
	require.Equal(t, 0.00001, res.Vout[0].Value)
	require.Equal(t, "pubkeyhash", res.Vout[0].ScriptPubKey.Type)
	require.Equal(t, "t1NYKoZGziMsyMvgK9K5b2qZGym3UQsw3Tz", res.Vout[0].ScriptPubKey.Address)
	require.Equal(t, []string{"t1NYKoZGziMsyMvgK9K5b2qZGym3UQsw3Tz"}, res.Vout[0].ScriptPubKey.Addresses)
}

func TestInspectJoinSplits(t *testing.T) {
	tx := transaction.New(true)
	tx.Version = 2
	_, err := tx.AddInput(bytes.Repeat([]byte{0x05}, 32), 0, transaction.DefaultSequence, nil)
	require.NoError(t, err)
	js := &transaction.JoinSplit{VPubOld: 100000000, VPubNew: 2500}
	js.Anchor[0] = 0xab
	js.Nullifiers[1][31] = 0xcd
	tx.JoinSplits = append(tx.JoinSplits, js)
	raw, err := tx.Bytes()
	require.NoError(t, err)

	res, err := New(nil, true, nil).Inspect(raw)
	require.NoError(t, err)

	require.Empty(t, res.VersionGroupID)
	require.Len(t, res.JoinSplits, 1)
	got := res.JoinSplits[0]
	require.Equal(t, 1.0, got.VPubOld)
	require.Equal(t, uint64(100000000), got.VPubOldZat)
	require.Equal(t, 0.000025, got.VPubNew)
	require.Equal(t, uint64(2500), got.VPubNewZat)
	require.Equal(t, strings.Repeat("00", 31)+"ab", got.Anchor)
	require.Equal(t, "cd"+strings.Repeat("00", 31), got.Nullifiers[1])
	require.Len(t, got.Commitments, 2)
	require.Len(t, got.Macs, 2)
}

func TestInspectErrors(t *testing.T) {
	t.Run("truncated transaction", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		t.Cleanup(ctrl.Finish)

		m := NewMockMetrics(ctrl)
		m.EXPECT().ObserveDecode(metrics.EnvelopeLegacy, 3, gomock.Not(gomock.Nil()), gomock.Any()).Times(1)

		_, err := New(nil, false, nil, WithMetrics(m)).Inspect([]byte{0x01, 0x00, 0x00})
		require.Error(t, err)
		require.True(t, codecerr.IsFormat(err))
	})

	t.Run("bad hex", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		t.Cleanup(ctrl.Finish)

		m := NewMockMetrics(ctrl)
		m.EXPECT().ObserveDecode(metrics.EnvelopeLegacy, 0, gomock.Not(gomock.Nil()), gomock.Any()).Times(1)

		_, err := New(nil, false, nil, WithMetrics(m)).InspectHex("zz")
		require.Error(t, err)
	})

	t.Run("decoder error bubbles", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		t.Cleanup(ctrl.Finish)

		d := NewMockScriptDecoder(ctrl)
		d.EXPECT().DecodeAddresses(gomock.Any()).Return(nil, errors.New("decode boom"))

		_, err := New(d, false, nil).InspectHex(genesisHex)
		require.ErrorContains(t, err, "decode boom")
	})

	t.Run("value beyond coin range", func(t *testing.T) {
		tx := transaction.New(false)
		_, err := tx.AddInput(make([]byte, 32), 1, 0, nil)
		require.NoError(t, err)
		tx.AddOutput(nil, 1<<63)
		raw, err := tx.Bytes()
		require.NoError(t, err)

		_, err = New(nil, false, nil).Inspect(raw)
		require.Error(t, err)
	})

	t.Run("non strict trailing bytes", func(t *testing.T) {
		raw := append(mustHex(t, genesisHex), 0x00)
		_, err := New(nil, false, nil).Inspect(raw)
		require.Error(t, err)

		res, err := New(nil, false, nil, WithDecodeOptions(transaction.NonStrict())).Inspect(raw)
		require.NoError(t, err)
		require.Equal(t, genesisID, res.Txid)
	})
}

func TestInspectBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := NewMockMetrics(ctrl)
	m.EXPECT().ObserveDecode(metrics.EnvelopeLegacy, gomock.Any(), gomock.Nil(), gomock.Any()).Times(3)
	m.EXPECT().ObserveBatch(3, gomock.Nil()).Times(1)

	genesis := mustHex(t, genesisHex)
	segwit := segwitTx(t)

	i := New(nil, false, zap.NewNop(), WithMetrics(m), WithWorkers(2))
	results, err := i.InspectBatch(context.Background(), [][]byte{genesis, segwit, genesis})
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, genesisID, results[0].Txid)
	require.NotEqual(t, genesisID, results[1].Txid)
	require.Equal(t, genesisID, results[2].Txid)
}

func TestInspectBatchError(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := NewMockMetrics(ctrl)
	m.EXPECT().ObserveDecode(metrics.EnvelopeLegacy, gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	m.EXPECT().ObserveBatch(2, gomock.Not(gomock.Nil())).Times(1)

	i := New(nil, false, nil, WithMetrics(m))
	_, err := i.InspectBatch(context.Background(), [][]byte{mustHex(t, genesisHex), {0xff}})
	require.ErrorContains(t, err, "transaction 1")
}
