package state

import "github.com/matter-labs/zksync-os/core/types"

// L2ToL1LogStore is the rollbackable, ordered store of outbound
// settlement-layer messages for the block currently being processed (§4.4:
// "Logs storage: ordered list, rollbackable").
type L2ToL1LogStore struct {
	log *OrderedLog[types.L2ToL1Message]
}

// NewL2ToL1LogStore builds an empty log store.
func NewL2ToL1LogStore() *L2ToL1LogStore {
	return &L2ToL1LogStore{log: NewOrderedLog[types.L2ToL1Message]()}
}

// Append records an outbound message within frameID.
func (l *L2ToL1LogStore) Append(msg types.L2ToL1Message, frameID int) { l.log.Append(msg, frameID) }

// Rollback discards every message appended at or after base.
func (l *L2ToL1LogStore) Rollback(base int) { l.log.Rollback(base) }

// Commit collapses messages appended at or after base into newBase.
func (l *L2ToL1LogStore) Commit(base, newBase int) { l.log.Commit(base, newBase) }

// All returns every surviving message in emission order.
func (l *L2ToL1LogStore) All() []types.L2ToL1Message { return l.log.All() }

// Len returns the number of surviving messages.
func (l *L2ToL1LogStore) Len() int { return l.log.Len() }

// DrainTx removes and returns every message logged so far, for attaching
// to the current transaction's receipt (§7).
func (l *L2ToL1LogStore) DrainTx() []types.L2ToL1Message {
	out := l.log.All()
	l.log = NewOrderedLog[types.L2ToL1Message]()
	return out
}
