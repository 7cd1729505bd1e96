package common

import "github.com/holiman/uint256"

// U256 is the balance/value/ergs integer type used throughout the core. It
// is a thin alias so call sites read "common.U256" while the underlying
// arithmetic stays on holiman/uint256, the same 256-bit integer library the
// teacher's state-transition code uses for balances and gas.
type U256 = uint256.Int

// ZeroU256 returns a freshly allocated zero-valued U256.
func ZeroU256() *U256 { return new(uint256.Int) }

// NewU256 builds a U256 from a uint64.
func NewU256(v uint64) *U256 { return uint256.NewInt(v) }

// U256FromHash reinterprets a 32-byte hash as a big-endian 256-bit integer.
func U256FromHash(h Hash) *U256 {
	return new(uint256.Int).SetBytes(h[:])
}

// HashFromU256 serializes v as a big-endian 32-byte hash.
func HashFromU256(v *U256) Hash {
	return BytesToHash(v.Bytes32()[:])
}
