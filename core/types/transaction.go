// Package types holds the wire-level and receipt-level data structures the
// bootloader consumes and produces: the §6.1 transaction format, receipts,
// events, L2->L1 messages, and the block header/result shapes of §4.1.3.
package types

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/crypto"
)

// TxType enumerates the tx_type wire values (§6.1).
type TxType uint8

const (
	TxTypeLegacy   TxType = 0x00
	TxTypeEIP2930  TxType = 0x01
	TxTypeEIP1559  TxType = 0x02
	TxTypeEIP712   TxType = 0x71
	TxTypeL1ToL2   TxType = 0xFF
)

// AccessTuple is one entry of an EIP-2930-shaped access list, also the
// decode target for the reserved_dynamic ABI tuple(address, bytes32[])[]
// (SPEC_FULL.md §4: "Nonce-ordering..." / "reserved_dynamic paymaster-input").
type AccessTuple struct {
	Address     common.Address
	StorageKeys []common.Hash
}

// Transaction is the parsed form of the §6.1 tightly-packed encoding.
type Transaction struct {
	Type TxType

	From common.Address
	To   *common.Address // nil ⇒ deployment

	GasLimit          uint64
	GasPerPubdataLimit uint32
	MaxFeePerGas       *common.U256
	MaxPriorityFeePerGas *common.U256

	Paymaster *common.Address // nil ⇒ none

	Nonce common.Hash // 256-bit per §6.1; EOA nonces use the low 64 bits
	Value *common.U256

	// Reserved[0] (L2): legacy-EIP-155 distinguisher. (L1): total deposit.
	// Reserved[1] (L2): EVM-deploy flag. (L1): refund recipient.
	// Reserved[2], Reserved[3]: reserved.
	Reserved [4]common.Hash

	Data            []byte
	Signature       []byte
	FactoryDeps     []common.Hash // EraVM-only bytecode hashes; carried and encoded, not published by the bootloader
	PaymasterInput  []byte
	AccessList      []AccessTuple // decoded from reserved_dynamic
}

// IsDeployment reports whether the transaction has no declared recipient.
func (tx *Transaction) IsDeployment() bool { return tx.To == nil }

// IsL1 reports whether this is an L1->L2 transaction (§4.1.2).
func (tx *Transaction) IsL1() bool { return tx.Type == TxTypeL1ToL2 }

// Hash returns the transaction's commitment hash: Keccak256 over its
// canonical encoding taken with the Signature field empty, so the hash a
// sender signs is the same before and after the signature is attached.
// Declared in this package (not crypto) to keep the hashing call next to
// the type it hashes, matching go-ethereum's Transaction.Hash() idiom.
func (tx *Transaction) Hash() common.Hash {
	unsigned := *tx
	unsigned.Signature = nil
	enc, _ := unsigned.Encode()
	return crypto.Keccak256(enc)
}

// Encode re-serializes the transaction to the §6.1 wire format. Encode and
// Parse are exact inverses on well-formed transactions (the round-trip
// property in spec.md §8).
func (tx *Transaction) Encode() ([]byte, error) {
	buf := make([]byte, 0, 256+len(tx.Data)+len(tx.Signature))
	buf = append(buf, byte(tx.Type))
	buf = append(buf, tx.From[:]...)
	buf = appendOptionalAddress(buf, tx.To)
	buf = binary.BigEndian.AppendUint64(buf, tx.GasLimit)
	buf = binary.BigEndian.AppendUint32(buf, tx.GasPerPubdataLimit)
	buf = append(buf, to32(tx.MaxFeePerGas)...)
	buf = append(buf, to32(tx.MaxPriorityFeePerGas)...)
	buf = appendOptionalAddress(buf, tx.Paymaster)
	buf = append(buf, tx.Nonce[:]...)
	buf = append(buf, to32(tx.Value)...)
	for _, r := range tx.Reserved {
		buf = append(buf, r[:]...)
	}
	buf = appendBytes(buf, tx.Data)
	buf = appendBytes(buf, tx.Signature)
	buf = appendHashList(buf, tx.FactoryDeps)
	buf = appendBytes(buf, tx.PaymasterInput)
	buf = appendAccessList(buf, tx.AccessList)
	return buf, nil
}

// Parse decodes a §6.1 tightly-packed transaction, rejecting any structural
// mismatch with ErrInvalidEncoding (transaction-fatal per spec.md §7).
func Parse(raw []byte) (*Transaction, error) {
	r := &reader{buf: raw}
	tx := &Transaction{}

	typeByte, err := r.byte()
	if err != nil {
		return nil, wrapInvalid("tx_type", err)
	}
	tx.Type = TxType(typeByte)

	from, err := r.address()
	if err != nil {
		return nil, wrapInvalid("from", err)
	}
	tx.From = from

	tx.To, err = r.optionalAddress()
	if err != nil {
		return nil, wrapInvalid("to", err)
	}

	tx.GasLimit, err = r.uint64()
	if err != nil {
		return nil, wrapInvalid("gas_limit", err)
	}
	gasPerPubdata, err := r.uint32()
	if err != nil {
		return nil, wrapInvalid("gas_per_pubdata_limit", err)
	}
	tx.GasPerPubdataLimit = gasPerPubdata

	maxFee, err := r.u256()
	if err != nil {
		return nil, wrapInvalid("max_fee_per_gas", err)
	}
	tx.MaxFeePerGas = maxFee

	maxPriority, err := r.u256()
	if err != nil {
		return nil, wrapInvalid("max_priority_fee_per_gas", err)
	}
	tx.MaxPriorityFeePerGas = maxPriority

	tx.Paymaster, err = r.optionalAddress()
	if err != nil {
		return nil, wrapInvalid("paymaster", err)
	}

	tx.Nonce, err = r.hash()
	if err != nil {
		return nil, wrapInvalid("nonce", err)
	}

	value, err := r.u256()
	if err != nil {
		return nil, wrapInvalid("value", err)
	}
	tx.Value = value

	for i := range tx.Reserved {
		tx.Reserved[i], err = r.hash()
		if err != nil {
			return nil, wrapInvalid(fmt.Sprintf("reserved[%d]", i), err)
		}
	}

	tx.Data, err = r.bytes()
	if err != nil {
		return nil, wrapInvalid("data", err)
	}
	tx.Signature, err = r.bytes()
	if err != nil {
		return nil, wrapInvalid("signature", err)
	}
	tx.FactoryDeps, err = r.hashList()
	if err != nil {
		return nil, wrapInvalid("factory_deps", err)
	}
	tx.PaymasterInput, err = r.bytes()
	if err != nil {
		return nil, wrapInvalid("paymaster_input", err)
	}
	tx.AccessList, err = r.accessList()
	if err != nil {
		return nil, wrapInvalid("reserved_dynamic", err)
	}

	if !r.atEnd() {
		return nil, fmt.Errorf("%w: trailing bytes after reserved_dynamic", ErrInvalidEncoding)
	}
	return tx, nil
}

// ErrInvalidEncoding is the transaction-fatal error for structural parse
// failures (§4.1.1 step 1, §7).
var ErrInvalidEncoding = errors.New("types: invalid transaction encoding")

func wrapInvalid(field string, err error) error {
	return fmt.Errorf("%w: field %s: %v", ErrInvalidEncoding, field, err)
}
