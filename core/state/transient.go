package state

import "github.com/matter-labs/zksync-os/common"

// TransientStorage is a key -> value mapping scoped to a single
// transaction; discarded at tx end; rollbackable within the tx (§3, §4.4).
type TransientStorage struct {
	hist *History[common.Hash, common.Hash]
}

// NewTransientStorage builds an empty transient store.
func NewTransientStorage() *TransientStorage {
	return &TransientStorage{hist: NewHistory[common.Hash, common.Hash]()}
}

// Read returns the current value for treeKey, or the zero value if unset.
func (t *TransientStorage) Read(treeKey common.Hash) common.Hash {
	v, _ := t.hist.Get(treeKey)
	return v
}

// Write records a new value for treeKey at the given frame id.
func (t *TransientStorage) Write(treeKey, value common.Hash, frameID int) {
	t.hist.Set(treeKey, value, frameID)
}

// Rollback discards writes recorded at or after base.
func (t *TransientStorage) Rollback(base int) { t.hist.Rollback(base) }

// Commit collapses writes into the enclosing frame.
func (t *TransientStorage) Commit(base, newBase int) { t.hist.Commit(base, newBase) }

// Clear discards all transient state, called at the end of every
// transaction (§3: "discarded at tx end").
func (t *TransientStorage) Clear() { t.hist = NewHistory[common.Hash, common.Hash]() }
