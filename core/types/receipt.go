package types

import "github.com/matter-labs/zksync-os/common"

// ReceiptStatus mirrors the teacher's types.ReceiptStatusFailed/Successful
// constants (referenced in abaderin-bsc/core/state_processor.go).
type ReceiptStatus uint8

const (
	ReceiptStatusFailed     ReceiptStatus = 0
	ReceiptStatusSuccessful ReceiptStatus = 1
)

// Log is an emitted event: (address, topics[0..=4], data), ordered and
// rollbackable (§3).
type Log struct {
	Address common.Address
	Topics  []common.Hash // at most 5: the signature topic plus up to 4 indexed
	Data    []byte
}

// L2ToL1Message is an outbound message to the settlement layer: (address,
// payload bytes), ordered and rollbackable (§3).
type L2ToL1Message struct {
	Address common.Address
	Payload []byte
}

// Receipt is the user-visible outcome of one transaction (§7: "each
// transaction produces a receipt with (status, gas_used,
// cumulative_gas_used, logs, l2_to_l1_messages, revert_reason_opt)").
type Receipt struct {
	TxHash            common.Hash
	Status            ReceiptStatus
	GasUsed           uint64
	CumulativeGasUsed uint64
	Logs              []Log
	L2ToL1Messages    []L2ToL1Message
	RevertReason      []byte // nil unless Status == ReceiptStatusFailed
	ContractAddress   *common.Address
}

// Failed reports whether the transaction reverted or was rejected.
func (r *Receipt) Failed() bool { return r.Status == ReceiptStatusFailed }
