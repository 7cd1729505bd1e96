package crypto

import "github.com/matter-labs/zksync-os/common"

// EmptyOmmersHash is the Keccak-256 hash of the RLP encoding of an empty
// list (0xc0), the constant Ethereum uses for a header's ommers_hash when
// there are no uncles. Every block this core produces has no uncles, so
// the bootloader (§4.1.3) binds ommers_hash to this constant directly
// rather than carrying a general RLP encoder for a single fixed value.
var EmptyOmmersHash = mustHash("1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347")

func mustHash(hexStr string) common.Hash {
	h, err := common.HexToHash(hexStr)
	if err != nil {
		panic(err)
	}
	return h
}

// RollingTxHash folds the next transaction hash into a running
// transactions_root accumulator (§4.1.3: "rolling hash of transaction
// hashes in order"). This is not Ethereum's Merkle-Patricia transactions
// trie root (building that is an external collaborator's job per spec.md
// §1's "concrete bytecode interpreters ... out of scope" framing extended
// to the encoding stack); it is a simple, order-sensitive commitment
// sufficient for the core's own testable property that replay with the
// same ordered inputs reproduces the same commitment.
func RollingTxHash(acc common.Hash, txHash common.Hash) common.Hash {
	return Keccak256(acc[:], txHash[:])
}
