package oracle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/core/state"
	"github.com/matter-labs/zksync-os/core/types"
	"github.com/matter-labs/zksync-os/params"
)

func TestForwardOracleNextTransactionDrainsInOrder(t *testing.T) {
	io := state.NewIOSubsystem()
	txs := [][]byte{[]byte("tx1"), []byte("tx2")}
	o := NewForwardOracle(io, types.BlockContext{Number: 1}, txs)

	first, ok := o.NextTransaction()
	require.True(t, ok)
	require.Equal(t, []byte("tx1"), first)

	second, ok := o.NextTransaction()
	require.True(t, ok)
	require.Equal(t, []byte("tx2"), second)

	_, ok = o.NextTransaction()
	require.False(t, ok)
}

func TestForwardOracleBlockMetadataReturnsConstructedContext(t *testing.T) {
	io := state.NewIOSubsystem()
	ctx := types.BlockContext{Number: 42, Timestamp: 100}
	o := NewForwardOracle(io, ctx, nil)

	require.Equal(t, ctx, o.BlockMetadata())
}

func TestForwardOraclePreimageDelegatesToIOSubsystem(t *testing.T) {
	io := state.NewIOSubsystem()
	o := NewForwardOracle(io, types.BlockContext{}, nil)

	var hash common.Hash
	hash[0] = 0xAB
	_, ok := o.Preimage(hash)
	require.False(t, ok)

	io.PublishPreimage(hash, []byte("data"), 1)
	got, ok := o.Preimage(hash)
	require.True(t, ok)
	require.Equal(t, []byte("data"), got)
}

func TestForwardOracleLeafIndexAndMerklePathDelegateToTree(t *testing.T) {
	io := state.NewIOSubsystem()
	o := NewForwardOracle(io, types.BlockContext{}, nil)

	var key common.Hash
	key[16] = 1
	io.WriteSlot(key, common.Hash{1}, 1)
	io.Finalize()

	idx, ok := o.LeafIndex(key)
	require.True(t, ok)

	path := o.MerklePath(idx)
	require.Len(t, path, params.TreeDepth)
}

func TestForwardOracleInitialStateCommitmentMatchesTreeCommitment(t *testing.T) {
	io := state.NewIOSubsystem()
	o := NewForwardOracle(io, types.BlockContext{}, nil)

	wantRoot, wantNext := io.Tree().Commitment()
	gotRoot, gotNext := o.InitialStateCommitment()

	require.Equal(t, wantRoot, gotRoot)
	require.Equal(t, wantNext, gotNext)
}
