package state

// orderedEntry pairs a logged value with the frame id it was appended
// under, so Rollback can truncate it away (§4.4: events/logs storage are
// "ordered list, rollbackable").
type orderedEntry[V any] struct {
	frameID int
	value   V
}

// OrderedLog is the rollbackable append-only list backing both the events
// storage and the L2->L1 logs storage (§4.4). Unlike History, entries here
// are never overwritten in place — only appended and, on rollback,
// truncated — since events/messages have no "key" to update, only emission
// order.
type OrderedLog[V any] struct {
	entries []orderedEntry[V]
}

// NewOrderedLog builds an empty ordered log.
func NewOrderedLog[V any]() *OrderedLog[V] { return &OrderedLog[V]{} }

// Append records value as emitted within frameID.
func (l *OrderedLog[V]) Append(value V, frameID int) {
	l.entries = append(l.entries, orderedEntry[V]{frameID: frameID, value: value})
}

// Rollback discards every entry appended at or after base.
func (l *OrderedLog[V]) Rollback(base int) {
	i := len(l.entries)
	for i > 0 && l.entries[i-1].frameID >= base {
		i--
	}
	l.entries = l.entries[:i]
}

// Commit rewrites every entry's frame id at or after base down to newBase,
// so a later rollback of the enclosing frame still discards them.
func (l *OrderedLog[V]) Commit(base, newBase int) {
	for i := range l.entries {
		if l.entries[i].frameID >= base {
			l.entries[i].frameID = newBase
		}
	}
}

// All returns every surviving entry in emission order.
func (l *OrderedLog[V]) All() []V {
	out := make([]V, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.value
	}
	return out
}

// Len returns the number of surviving entries.
func (l *OrderedLog[V]) Len() int { return len(l.entries) }
