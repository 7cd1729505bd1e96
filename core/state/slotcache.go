package state

import "github.com/matter-labs/zksync-os/common"

// SlotCache is key -> (original_value, current_value), backed by the
// History skeleton (§4.4.2). A miss falls through to the Merkle tree; the
// tree is not filled from the Oracle.
type SlotCache struct {
	hist *History[common.Hash, common.Hash]
	tree *GrowableTree
}

// NewSlotCache wraps tree with a rollbackable read/write cache.
func NewSlotCache(tree *GrowableTree) *SlotCache {
	return &SlotCache{hist: NewHistory[common.Hash, common.Hash](), tree: tree}
}

// Read returns the current value for treeKey, consulting the cache first
// and the tree on a miss (§4.4.1 read / read_missing).
func (c *SlotCache) Read(treeKey common.Hash) common.Hash {
	if v, ok := c.hist.Get(treeKey); ok {
		return v
	}
	v, _ := c.tree.Read(treeKey)
	return v
}

// Write records a new value for treeKey at the given frame id. The write
// only reaches the tree at finalization (Finalize), matching the journal
// discipline: within a transaction, reads observe the most recent
// non-reverted write (§3 invariant).
func (c *SlotCache) Write(treeKey, value common.Hash, frameID int) {
	c.hist.Set(treeKey, value, frameID)
}

// Rollback discards every write recorded at or after base.
func (c *SlotCache) Rollback(base int) { c.hist.Rollback(base) }

// Commit collapses writes recorded at or after base into newBase.
func (c *SlotCache) Commit(base, newBase int) { c.hist.Commit(base, newBase) }

// Diffs returns every (treeKey, originalValue, currentValue) pair touched
// this block, for state-diff collection at finalization (§4.4.3).
func (c *SlotCache) Diffs() []SlotDiff {
	touched := c.hist.Touched()
	out := make([]SlotDiff, 0, len(touched))
	for key, cur := range touched {
		orig, _ := c.tree.Read(key)
		if ov, ok := c.hist.Original(key); ok {
			orig = ov
		}
		if orig == cur {
			continue
		}
		out = append(out, SlotDiff{TreeKey: key, Original: orig, Current: cur})
	}
	return out
}

// SlotDiff is one changed slot at block finalization.
type SlotDiff struct {
	TreeKey  common.Hash
	Original common.Hash
	Current  common.Hash
}

// Apply writes every touched slot into the backing tree. Called once at
// block finalization (§4.4.3), after which the cache is dropped.
func (c *SlotCache) Apply() {
	for key, value := range c.hist.Touched() {
		c.tree.Write(key, value)
	}
}
