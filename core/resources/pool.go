// Package resources implements the block-level ergs pool and the
// per-transaction pubdata counter described in spec.md §4.6. Both are
// non-negative counters; both fail with ErrOutOfResources rather than
// wrapping on underflow, per the universal invariant in spec.md §3.
package resources

import "fmt"

// ErgsPool is the block-level resource counter, grounded on the teacher's
// GasPool (core.GasPool in abaderin-bsc/core/state_processor.go:
// "gp := new(GasPool).AddGas(block.GasLimit())"). Ergs are the core's
// resource unit; an Execution Environment maps ergs to its own native gas
// at an EE-specific exchange rate (§4.6).
type ErgsPool uint64

// AddGas increases the pool by amount, returning the pool for chained
// construction (mirrors GasPool.AddGas's fluent style).
func (p *ErgsPool) AddGas(amount uint64) *ErgsPool {
	if uint64(*p)+amount < uint64(*p) {
		panic("resources: ergs pool overflow")
	}
	*p += ErgsPool(amount)
	return p
}

// SubGas decreases the pool by amount, failing with ErrOutOfResources if
// the pool does not hold enough.
func (p *ErgsPool) SubGas(amount uint64) error {
	if uint64(*p) < amount {
		return fmt.Errorf("%w: have %d, want %d", ErrOutOfResources, uint64(*p), amount)
	}
	*p -= ErgsPool(amount)
	return nil
}

// Gas returns the remaining balance.
func (p *ErgsPool) Gas() uint64 { return uint64(*p) }

// PubdataCounter is the per-transaction pubdata budget (§4.6: "Pubdata is
// charged in a separate counter"). Modeled identically to ErgsPool by
// symmetry with the teacher's GasPool, since spec.md gives it the same
// non-negative-counter semantics.
type PubdataCounter struct {
	limit uint64
	used  uint64
}

// NewPubdataCounter creates a counter bounded by limit bytes-equivalent-ergs.
func NewPubdataCounter(limit uint64) *PubdataCounter {
	return &PubdataCounter{limit: limit}
}

// Charge consumes amount from the counter, failing with ErrOutOfResources
// if doing so would exceed the limit.
func (c *PubdataCounter) Charge(amount uint64) error {
	if c.used+amount > c.limit {
		return fmt.Errorf("%w: pubdata limit %d exceeded by %d", ErrOutOfResources, c.limit, c.used+amount-c.limit)
	}
	c.used += amount
	return nil
}

// Used returns the amount consumed so far.
func (c *PubdataCounter) Used() uint64 { return c.used }

// Remaining returns the unconsumed budget.
func (c *PubdataCounter) Remaining() uint64 { return c.limit - c.used }
