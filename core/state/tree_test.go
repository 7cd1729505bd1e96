package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/crypto"
)

func key(b byte) common.Hash {
	var h common.Hash
	h[16] = b // keeps every test key strictly between the zero and max-key sentinels
	return h
}

func TestNewGrowableTreeSeedsSentinelsAndNextFree(t *testing.T) {
	tr := NewGrowableTree()
	require.Equal(t, uint64(2), tr.NextFree())

	zeroIdx, ok := tr.LeafIndex(common.Hash{})
	require.True(t, ok)
	require.Equal(t, uint64(0), zeroIdx)

	maxIdx, ok := tr.LeafIndex(rightSentinelKey)
	require.True(t, ok)
	require.Equal(t, uint64(1), maxIdx)
}

func TestWriteNewAdvancesNextFreeAndSplicesLinkedList(t *testing.T) {
	tr := NewGrowableTree()
	tr.WriteNew(key(5), key(50))
	require.Equal(t, uint64(3), tr.NextFree())

	idx, ok := tr.LeafIndex(key(5))
	require.True(t, ok)
	require.Equal(t, uint64(2), idx) // first free index after the two sentinels

	v, exists := tr.Read(key(5))
	require.True(t, exists)
	require.Equal(t, key(50), v)

	// the zero sentinel's Next pointer must now point at the new leaf,
	// since key(5) is the smallest real key in the tree.
	zeroIdx, _ := tr.LeafIndex(common.Hash{})
	require.Equal(t, idx, tr.leaves[zeroIdx].Next)
	// and the new leaf's own Next must carry forward the old Next (the
	// max-key sentinel's index).
	require.Equal(t, uint64(1), tr.leaves[idx].Next)
}

func TestWriteExistingUpdatesValueWithoutMovingLeaf(t *testing.T) {
	tr := NewGrowableTree()
	tr.WriteNew(key(5), key(50))
	idxBefore, _ := tr.LeafIndex(key(5))

	require.NoError(t, tr.WriteExisting(key(5), key(99)))

	idxAfter, _ := tr.LeafIndex(key(5))
	require.Equal(t, idxBefore, idxAfter)
	v, exists := tr.Read(key(5))
	require.True(t, exists)
	require.Equal(t, key(99), v)
}

func TestWriteExistingUnknownKeyErrors(t *testing.T) {
	tr := NewGrowableTree()
	require.Error(t, tr.WriteExisting(key(5), key(1)))
}

func TestReadMissingKeyReportsNonExistence(t *testing.T) {
	tr := NewGrowableTree()
	v, exists := tr.Read(key(7))
	require.False(t, exists)
	require.Equal(t, common.Hash{}, v)
}

func TestWriteInsertsManyKeysInSortedOrder(t *testing.T) {
	tr := NewGrowableTree()
	order := []byte{40, 10, 30, 20, 50}
	for _, b := range order {
		tr.Write(key(b), key(b))
	}
	require.Equal(t, uint64(len(order)+2), tr.NextFree())

	// walk the sorted linked list from the zero sentinel and confirm it
	// visits every inserted key in ascending order, ending at the max-key
	// sentinel.
	idx := uint64(0)
	var visited []byte
	for {
		leaf := tr.leaves[idx]
		if leaf.Key != (common.Hash{}) && leaf.Key != rightSentinelKey {
			visited = append(visited, leaf.Key[16])
		}
		if leaf.Next == idx || leaf.Key == rightSentinelKey {
			break
		}
		idx = leaf.Next
	}
	require.Equal(t, []byte{10, 20, 30, 40, 50}, visited)
}

func TestWriteOnExistingKeyDoesNotAdvanceNextFree(t *testing.T) {
	tr := NewGrowableTree()
	tr.Write(key(5), key(50))
	next := tr.NextFree()
	tr.Write(key(5), key(51))
	require.Equal(t, next, tr.NextFree())
	v, _ := tr.Read(key(5))
	require.Equal(t, key(51), v)
}

func TestCommitmentChangesAfterWrite(t *testing.T) {
	tr := NewGrowableTree()
	rootBefore, nextFreeBefore := tr.Commitment()
	tr.Write(key(5), key(50))
	rootAfter, nextFreeAfter := tr.Commitment()

	require.NotEqual(t, rootBefore, rootAfter)
	require.Equal(t, nextFreeBefore+1, nextFreeAfter)
}

func TestMerklePathHasTreeDepthEntriesAndFoldsToRoot(t *testing.T) {
	tr := NewGrowableTree()
	tr.Write(key(5), key(50))
	idx, _ := tr.LeafIndex(key(5))

	path := tr.MerklePath(idx)
	require.Len(t, path, 64)

	cur := tr.leaves[idx].hash()
	for level := 0; level < 64; level++ {
		sibling := path[level]
		if idx%2 == 0 {
			cur = crypto.TreeHash(cur, sibling)
		} else {
			cur = crypto.TreeHash(sibling, cur)
		}
		idx /= 2
	}
	require.Equal(t, tr.Root(), cur)
}

func TestPredecessorIndexFindsGreatestLesserKey(t *testing.T) {
	tr := NewGrowableTree()
	tr.Write(key(10), key(10))
	tr.Write(key(30), key(30))

	predIdx := tr.PredecessorIndex(key(20))
	idx10, _ := tr.LeafIndex(key(10))
	require.Equal(t, idx10, predIdx)
}

func TestPredecessorIndexOfSmallestRealKeyIsZeroSentinel(t *testing.T) {
	tr := NewGrowableTree()
	tr.Write(key(10), key(10))

	predIdx := tr.PredecessorIndex(key(5))
	zeroIdx, _ := tr.LeafIndex(common.Hash{})
	require.Equal(t, zeroIdx, predIdx)
}
