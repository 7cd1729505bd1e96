package types

import "github.com/matter-labs/zksync-os/common"

// BlockHeader is the Ethereum-shaped header the bootloader emits at block
// finish (§4.1.3: "the rest zeroed").
type BlockHeader struct {
	ParentHash       common.Hash
	OmmersHash       common.Hash
	Beneficiary      common.Address
	TransactionsRoot common.Hash
	Number           uint64
	GasLimit         uint64
	GasUsed          uint64
	Timestamp        uint64
	BaseFeePerGas    *common.U256
}

// BlockContext is the block-level metadata an Oracle supplies and the
// bootloader verifies via public input (§6.2 get_block_metadata).
type BlockContext struct {
	Number        uint64
	Timestamp     uint64
	GasLimit      uint64
	BaseFeePerGas *common.U256
	ParentHash    common.Hash
}

// StateDiff is one (address, key) -> new value change surfaced at block
// finalization (§4.4.3).
type StateDiff struct {
	Address common.Address
	Key     common.Hash
	Value   common.Hash
}

// BlockResult is everything run_block produces: the new state commitment,
// diffs, events/messages, receipts, and the header (§2 data flow: "Bootloader
// → System.finish → (state diffs, pubdata, public input)").
type BlockResult struct {
	Header         BlockHeader
	Receipts       []Receipt
	Diffs          []StateDiff
	Events         []Log
	Messages       []L2ToL1Message
	NewRoot        common.Hash
	NewNextFree    uint64
	PublishedBytes int // count of preimages newly published this block, not their byte length
	GasUsed        uint64

	// NonceHole is an observability-only field (SPEC_FULL.md §4) for how many
	// Contract-account transactions advanced the nonce by more than one.
	// The Bootloader does not populate it, so it is always zero. It asserts
	// nothing about validity.
	NonceHole uint64
}
