package oracle

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/core/types"
)

func TestProvingOracleNextTransactionReadsSuccessiveResponses(t *testing.T) {
	tape := NewTape([][]byte{[]byte("tx1"), []byte("tx2"), {}})
	o := NewProvingOracle(tape)

	got, ok := o.NextTransaction()
	require.True(t, ok)
	require.Equal(t, []byte("tx1"), got)

	got, ok = o.NextTransaction()
	require.True(t, ok)
	require.Equal(t, []byte("tx2"), got)

	_, ok = o.NextTransaction()
	require.False(t, ok) // empty response signals exhaustion
}

func TestProvingOracleNextTransactionTapeExhaustedReportsFalse(t *testing.T) {
	tape := NewTape(nil)
	o := NewProvingOracle(tape)

	_, ok := o.NextTransaction()
	require.False(t, ok)
}

func sampleHash(b byte) common.Hash {
	var h common.Hash
	h[common.HashLength-1] = b
	return h
}

func encodeBlockContext(ctx types.BlockContext) []byte {
	resp := make([]byte, 8+8+8+32+32)
	binary.BigEndian.PutUint64(resp[0:8], ctx.Number)
	binary.BigEndian.PutUint64(resp[8:16], ctx.Timestamp)
	binary.BigEndian.PutUint64(resp[16:24], ctx.GasLimit)
	baseFee := ctx.BaseFeePerGas.Bytes32()
	copy(resp[24:56], baseFee[:])
	copy(resp[56:88], ctx.ParentHash[:])
	return resp
}

func TestProvingOracleBlockMetadataDecodesTapeResponse(t *testing.T) {
	want := types.BlockContext{
		Number:        7,
		Timestamp:     1000,
		GasLimit:      30_000_000,
		BaseFeePerGas: common.NewU256(250),
		ParentHash:    sampleHash(9),
	}
	tape := NewTape([][]byte{encodeBlockContext(want)})
	o := NewProvingOracle(tape)

	got := o.BlockMetadata()
	require.Equal(t, want.Number, got.Number)
	require.Equal(t, want.Timestamp, got.Timestamp)
	require.Equal(t, want.GasLimit, got.GasLimit)
	require.Equal(t, want.BaseFeePerGas.Uint64(), got.BaseFeePerGas.Uint64())
	require.Equal(t, want.ParentHash, got.ParentHash)
}

func TestProvingOracleBlockMetadataShortResponseReturnsZeroValue(t *testing.T) {
	tape := NewTape([][]byte{{1, 2, 3}})
	o := NewProvingOracle(tape)

	require.Equal(t, types.BlockContext{}, o.BlockMetadata())
}

func TestProvingOraclePreimageReturnsTapeBytes(t *testing.T) {
	tape := NewTape([][]byte{[]byte("preimage-bytes")})
	o := NewProvingOracle(tape)

	got, ok := o.Preimage(sampleHash(1))
	require.True(t, ok)
	require.Equal(t, []byte("preimage-bytes"), got)
}

func TestProvingOracleLeafIndexDecodesIndexAndExistsFlag(t *testing.T) {
	resp := make([]byte, 9)
	binary.BigEndian.PutUint64(resp[:8], 42)
	resp[8] = 1
	tape := NewTape([][]byte{resp})
	o := NewProvingOracle(tape)

	idx, ok := o.LeafIndex(sampleHash(1))
	require.True(t, ok)
	require.Equal(t, uint64(42), idx)
}

func TestProvingOracleLeafIndexMalformedResponseReportsFalse(t *testing.T) {
	tape := NewTape([][]byte{{1, 2, 3}})
	o := NewProvingOracle(tape)

	idx, ok := o.LeafIndex(sampleHash(1))
	require.False(t, ok)
	require.Equal(t, uint64(0), idx)
}

func TestProvingOraclePredecessorIndexDecodesResponse(t *testing.T) {
	resp := make([]byte, 8)
	binary.BigEndian.PutUint64(resp, 17)
	tape := NewTape([][]byte{resp})
	o := NewProvingOracle(tape)

	require.Equal(t, uint64(17), o.PredecessorIndex(sampleHash(1)))
}

func TestProvingOracleMerklePathDecodesConcatenatedHashes(t *testing.T) {
	h1, h2 := sampleHash(1), sampleHash(2)
	resp := append(append([]byte{}, h1[:]...), h2[:]...)
	tape := NewTape([][]byte{resp})
	o := NewProvingOracle(tape)

	path := o.MerklePath(0)
	require.Equal(t, []common.Hash{h1, h2}, path)
}

func TestProvingOracleMerklePathMisalignedResponseReturnsNil(t *testing.T) {
	tape := NewTape([][]byte{{1, 2, 3}})
	o := NewProvingOracle(tape)

	require.Nil(t, o.MerklePath(0))
}

func TestProvingOracleInitialStateCommitmentDecodesRootAndNextFree(t *testing.T) {
	root := sampleHash(5)
	resp := make([]byte, 40)
	copy(resp[:32], root[:])
	binary.BigEndian.PutUint64(resp[32:], 99)
	tape := NewTape([][]byte{resp})
	o := NewProvingOracle(tape)

	gotRoot, gotNext := o.InitialStateCommitment()
	require.Equal(t, root, gotRoot)
	require.Equal(t, uint64(99), gotNext)
}

func TestProvingOracleEachQueryWritesExpectedTag(t *testing.T) {
	tape := NewTape([][]byte{[]byte("tx"), {}})
	o := NewProvingOracle(tape)
	_, _ = o.NextTransaction()

	require.Len(t, tape.queries, 1)
	// 4-byte big-endian length prefix followed by the query tag byte.
	require.Equal(t, queryNextTransaction, tape.queries[0][4])
}
