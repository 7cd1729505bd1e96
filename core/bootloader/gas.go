package bootloader

import (
	"github.com/matter-labs/zksync-os/core/types"
	"github.com/matter-labs/zksync-os/params"
)

// intrinsicGas computes the base intrinsic cost of tx: base intrinsic plus
// per-calldata-byte zero/nonzero pricing plus access-list bytes plus,
// for a deployment, the extra deploy intrinsic (§4.1.1 step 2: "minus
// intrinsic cost (base intrinsic + per-calldata-byte zeros/nonzeros +
// access-list bytes)"). Mirrors the teacher's
// core.IntrinsicGas(data, accessList, isContractCreation, ...) shape
// (abaderin-bsc/core/state_transition.go), generalized to this core's
// access-list-via-reserved_dynamic decoding (SPEC_FULL.md §4).
func intrinsicGas(tx *types.Transaction) uint64 {
	gas := uint64(params.IntrinsicGasBase)
	for _, b := range tx.Data {
		if b == 0 {
			gas += params.IntrinsicGasZeroByte
		} else {
			gas += params.IntrinsicGasNonZeroByte
		}
	}
	for _, tuple := range tx.AccessList {
		gas += params.IntrinsicGasAccessListByte // address slot
		gas += uint64(len(tuple.StorageKeys)) * params.IntrinsicGasAccessListByte
	}
	if tx.IsDeployment() {
		gas += params.IntrinsicGasDeployExtra
	}
	return gas
}

// pubdataForValidation estimates the pubdata a transaction's validation
// step is pre-charged for: the length of its encoded form times the
// configured gas-per-pubdata-byte rate passed in, divided by 16; the
// transaction's own gas_per_pubdata_limit plays no part. It is a
// pre-declared allowance rather than
// a measured one (§4.1.1 step 2: "minus a pre-declared pubdata allowance").
func pubdataForValidation(tx *types.Transaction, gasPerPubdataByte uint64) uint64 {
	enc, _ := tx.Encode()
	return uint64(len(enc)) * gasPerPubdataByte / 16
}
