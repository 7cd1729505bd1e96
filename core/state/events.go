package state

import "github.com/matter-labs/zksync-os/core/types"

// EventLog is the rollbackable, ordered store of emitted events for the
// block currently being processed (§4.4: "Events storage: ordered list,
// rollbackable").
type EventLog struct {
	log *OrderedLog[types.Log]
}

// NewEventLog builds an empty event log.
func NewEventLog() *EventLog { return &EventLog{log: NewOrderedLog[types.Log]()} }

// Append records an emitted event within frameID.
func (e *EventLog) Append(entry types.Log, frameID int) { e.log.Append(entry, frameID) }

// Rollback discards every event appended at or after base.
func (e *EventLog) Rollback(base int) { e.log.Rollback(base) }

// Commit collapses events appended at or after base into newBase.
func (e *EventLog) Commit(base, newBase int) { e.log.Commit(base, newBase) }

// All returns every surviving event in emission order.
func (e *EventLog) All() []types.Log { return e.log.All() }

// Len returns the number of surviving events.
func (e *EventLog) Len() int { return e.log.Len() }

// DrainTx removes and returns every event logged so far, for attaching to
// the current transaction's receipt (§7); the underlying log keeps
// accumulating fresh frame ids for the next transaction.
func (e *EventLog) DrainTx() []types.Log {
	out := e.log.All()
	e.log = NewOrderedLog[types.Log]()
	return out
}
