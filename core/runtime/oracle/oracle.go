// Package oracle implements the non-determinism boundary of §4.6 and §6.2:
// the only way the core ever learns something it cannot derive on its own
// (the next transaction's bytes, a preimage, a Merkle path, the leaf index
// for a key). Every value the Oracle returns is either committed directly
// via public input or verified against a hash/path before use — the Oracle
// itself is untrusted input, never trusted state (§6.1: "read-once per
// query").
package oracle

import (
	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/core/types"
)

// Oracle is the interface the Bootloader and IO subsystem consult for
// every piece of non-deterministic input (§6.2). Implementations never
// mutate anything; they are a pure read/verify boundary.
type Oracle interface {
	// NextTransaction returns the next transaction's encoded bytes, or
	// (nil, false) once the block's transaction stream is exhausted.
	NextTransaction() ([]byte, bool)

	// BlockMetadata returns the block context this oracle was constructed
	// for; verified against public input by the caller.
	BlockMetadata() types.BlockContext

	// Preimage returns the bytes whose hash is hash; callers must verify
	// the returned bytes actually hash to hash before trusting them.
	Preimage(hash common.Hash) ([]byte, bool)

	// LeafIndex returns the tree leaf index key currently occupies, if
	// any; verified by the caller via a subsequent Merkle path read at
	// that index (§6.2: "verified via subsequent path read").
	LeafIndex(key common.Hash) (uint64, bool)

	// PredecessorIndex returns the leaf index of the greatest key in the
	// tree strictly less than key, for non-membership proofs; verified by
	// reading that leaf and confirming its Next pointer brackets key
	// (§6.2: "verified by reading predecessor and its next").
	PredecessorIndex(key common.Hash) uint64

	// MerklePath returns the DEPTH sibling hashes from leafIndex to the
	// root, ordered leaf-to-root; verified by folding against the
	// known/claimed root (§6.2).
	MerklePath(leafIndex uint64) []common.Hash

	// InitialStateCommitment returns the tree's (root, next_free) at the
	// start of the block; verified: must equal the public input's old
	// state commitment (§6.2).
	InitialStateCommitment() (root common.Hash, nextFree uint64)
}

// VerifyPreimage reports whether data actually hashes to want, using hashFn
// (the caller supplies crypto.PreimageHash so this package stays free of an
// import-cycle-prone dependency on a concrete hash choice).
func VerifyPreimage(want common.Hash, data []byte, hashFn func([]byte) common.Hash) bool {
	return hashFn(data) == want
}
