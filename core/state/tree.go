package state

import (
	"fmt"
	"sort"

	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/crypto"
	"github.com/matter-labs/zksync-os/params"
)

// Leaf is one entry of the growable Merkle tree: (key, value, next_index)
// per §4.4.1. Leaves are filled left-to-right; next pointers form an
// ordered linked list of a permutation of leaves sorted ascending by key.
type Leaf struct {
	Key   common.Hash
	Value common.Hash
	Next  uint64
}

func (l Leaf) hash() common.Hash {
	kv := crypto.TreeHash(l.Key, l.Value)
	var nextBytes common.Hash
	nextBytes[24] = byte(l.Next >> 56)
	nextBytes[25] = byte(l.Next >> 48)
	nextBytes[26] = byte(l.Next >> 40)
	nextBytes[27] = byte(l.Next >> 32)
	nextBytes[28] = byte(l.Next >> 24)
	nextBytes[29] = byte(l.Next >> 16)
	nextBytes[30] = byte(l.Next >> 8)
	nextBytes[31] = byte(l.Next)
	return crypto.TreeHash(kv, nextBytes)
}

// rightSentinelKey is 2^256-1: the maximum key, guaranteeing every real key
// has an in-tree successor (§3).
var rightSentinelKey = func() common.Hash {
	var h common.Hash
	for i := range h {
		h[i] = 0xff
	}
	return h
}()

// GrowableTree is the fixed-depth (DEPTH=64) binary Merkle tree of §4.4.1:
// leaves filled left-to-right, a sorted linked list over leaf indices for
// non-membership proofs, and sentinels at key=0 and key=2^256-1.
//
// This implementation keeps the sparse Merkle overlay (node hashes at every
// level, missing entries implied by precomputed zero-subtree hashes) for
// O(DEPTH) commitment updates, and a locally cached sorted key index for
// predecessor lookups. In the real dual-mode system a proving run's
// predecessor comes from the Oracle and is only verified against Merkle
// paths (§6.2 get_predecessor_index), never recomputed locally; this tree
// always holds the full touched-key set in memory instead and answers
// predecessor queries straight from keyToIndex/sortedKeys. NewIOSubsystem-
// FromOracle (io.go) wires the Oracle as a preimage fallback for exactly
// this reason — rebuilding this tree's leaves from an Oracle commitment
// alone isn't possible, since a (root, next_free) pair carries no leaves to
// replay from.
type GrowableTree struct {
	leaves   map[uint64]Leaf
	nodes    [params.TreeDepth + 1]map[uint64]common.Hash
	zeroHash [params.TreeDepth + 1]common.Hash

	keyToIndex map[common.Hash]uint64
	sortedKeys []common.Hash // ascending, kept in sync with keyToIndex

	nextFree uint64
}

// NewGrowableTree builds an empty tree seeded with the zero-key and
// max-key sentinels (§3: "Sentinels at key=0 and key=2^256-1 guarantee
// every real key has in-tree predecessors and successors").
func NewGrowableTree() *GrowableTree {
	t := &GrowableTree{
		leaves:     make(map[uint64]Leaf),
		keyToIndex: make(map[common.Hash]uint64),
	}
	t.zeroHash[0] = Leaf{}.hash()
	for i := 1; i <= params.TreeDepth; i++ {
		t.zeroHash[i] = crypto.TreeHash(t.zeroHash[i-1], t.zeroHash[i-1])
	}
	for i := range t.nodes {
		t.nodes[i] = make(map[uint64]common.Hash)
	}

	t.insertLeafAt(0, Leaf{Key: common.Hash{}, Value: common.Hash{}, Next: 1})
	t.insertLeafAt(1, Leaf{Key: rightSentinelKey, Value: common.Hash{}, Next: 1})
	t.keyToIndex[common.Hash{}] = 0
	t.keyToIndex[rightSentinelKey] = 1
	t.sortedKeys = []common.Hash{{}, rightSentinelKey}
	t.nextFree = 2
	return t
}

func (t *GrowableTree) node(level int, index uint64) common.Hash {
	if h, ok := t.nodes[level][index]; ok {
		return h
	}
	return t.zeroHash[level]
}

func (t *GrowableTree) insertLeafAt(index uint64, leaf Leaf) {
	t.leaves[index] = leaf
	cur := leaf.hash()
	idx := index
	for level := 0; level < params.TreeDepth; level++ {
		t.nodes[level][idx] = cur
		siblingIdx := idx ^ 1
		sibling := t.node(level, siblingIdx)
		if idx%2 == 0 {
			cur = crypto.TreeHash(cur, sibling)
		} else {
			cur = crypto.TreeHash(sibling, cur)
		}
		idx /= 2
	}
	t.nodes[params.TreeDepth][0] = cur
}

// Root returns the tree's current Merkle root.
func (t *GrowableTree) Root() common.Hash {
	return t.node(params.TreeDepth, 0)
}

// NextFree returns the next available leaf index.
func (t *GrowableTree) NextFree() uint64 { return t.nextFree }

// Commitment returns (root, next_free), the tree's full commitment (§4.4.1).
func (t *GrowableTree) Commitment() (common.Hash, uint64) {
	return t.Root(), t.nextFree
}

func (t *GrowableTree) leafIndex(key common.Hash) (uint64, bool) {
	idx, ok := t.keyToIndex[key]
	return idx, ok
}

// LeafIndex exposes leafIndex for the Oracle layer (§6.2 get_leaf_index).
func (t *GrowableTree) LeafIndex(key common.Hash) (uint64, bool) { return t.leafIndex(key) }

// PredecessorIndex exposes predecessor's index-only half for the Oracle
// layer (§6.2 get_predecessor_index).
func (t *GrowableTree) PredecessorIndex(key common.Hash) uint64 {
	idx, _ := t.predecessor(key)
	return idx
}

// MerklePath returns the DEPTH sibling hashes from leafIndex to the root,
// ordered leaf-to-root (§6.2 get_merkle_path).
func (t *GrowableTree) MerklePath(leafIndex uint64) []common.Hash {
	path := make([]common.Hash, params.TreeDepth)
	idx := leafIndex
	for level := 0; level < params.TreeDepth; level++ {
		path[level] = t.node(level, idx^1)
		idx /= 2
	}
	return path
}

// predecessor finds the greatest key strictly less than (or equal to, for
// exact hits) the target, returning its leaf index and whether key is
// already present.
func (t *GrowableTree) predecessor(key common.Hash) (predIndex uint64, exact bool) {
	n := len(t.sortedKeys)
	i := sort.Search(n, func(i int) bool {
		return cmpHash(t.sortedKeys[i], key) >= 0
	})
	if i < n && t.sortedKeys[i] == key {
		return t.keyToIndex[key], true
	}
	// i is the first key >= target; the predecessor is i-1.
	predKey := t.sortedKeys[i-1]
	return t.keyToIndex[predKey], false
}

func cmpHash(a, b common.Hash) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Read returns the value stored at key, or the zero value if key has never
// been written, along with a non-membership witness in the latter case
// (§4.4.1 read / read_missing).
func (t *GrowableTree) Read(key common.Hash) (value common.Hash, exists bool) {
	idx, ok := t.leafIndex(key)
	if !ok {
		return common.Hash{}, false
	}
	return t.leaves[idx].Value, true
}

// WriteExisting updates the value of an already-present key (§4.4.1
// write_existing: "two Merkle recomputations, pre and post" — this
// implementation folds both into the single O(DEPTH) insertLeafAt below).
func (t *GrowableTree) WriteExisting(key, value common.Hash) error {
	idx, ok := t.leafIndex(key)
	if !ok {
		return fmt.Errorf("state: WriteExisting: key %s not present", key)
	}
	leaf := t.leaves[idx]
	leaf.Value = value
	t.insertLeafAt(idx, leaf)
	return nil
}

// WriteNew inserts a brand-new key at index next_free, splicing it into the
// sorted linked list between its predecessor and the predecessor's old
// successor (§4.4.1 write_new).
func (t *GrowableTree) WriteNew(key, value common.Hash) {
	predIdx, exact := t.predecessor(key)
	if exact {
		// Key already exists; WriteNew is only called for genuinely new
		// keys by the caller (the slot/account cache distinguishes new
		// vs. existing before calling into the tree), but guard anyway.
		t.WriteExisting(key, value)
		return
	}
	pred := t.leaves[predIdx]
	newIdx := t.nextFree
	newLeaf := Leaf{Key: key, Value: value, Next: pred.Next}
	t.insertLeafAt(newIdx, newLeaf)

	pred.Next = newIdx
	t.insertLeafAt(predIdx, pred)

	t.keyToIndex[key] = newIdx
	t.insertSortedKey(key)
	t.nextFree++
}

func (t *GrowableTree) insertSortedKey(key common.Hash) {
	n := len(t.sortedKeys)
	i := sort.Search(n, func(i int) bool { return cmpHash(t.sortedKeys[i], key) >= 0 })
	t.sortedKeys = append(t.sortedKeys, common.Hash{})
	copy(t.sortedKeys[i+1:], t.sortedKeys[i:])
	t.sortedKeys[i] = key
}

// Write is the convenience entry point used by the slot/account caches: it
// writes key unconditionally, inserting a new leaf if key has never been
// seen and updating in place otherwise.
func (t *GrowableTree) Write(key, value common.Hash) {
	if _, ok := t.leafIndex(key); ok {
		_ = t.WriteExisting(key, value)
		return
	}
	t.WriteNew(key, value)
}
