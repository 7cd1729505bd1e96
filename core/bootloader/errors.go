package bootloader

import "errors"

// Transaction-fatal errors from spec.md §7 that originate in the
// bootloader's own lifecycle steps, as opposed to the account-model layer
// (core/accountmodel) or the resource layer (core/resources).
var (
	// ErrGasLimitExceedsBlock is returned when a transaction's declared
	// gas_limit exceeds the block's remaining gas (§4.1.1 step 2).
	ErrGasLimitExceedsBlock = errors.New("bootloader: gas_limit exceeds block gas limit")

	// ErrIntrinsicGasExceedsLimit is returned when intrinsic cost alone
	// exceeds the declared gas_limit (§4.1.1 step 2).
	ErrIntrinsicGasExceedsLimit = errors.New("bootloader: intrinsic gas exceeds gas_limit")

	// ErrNonceNotAdvanced names the case of a Contract account's
	// validateTransaction hook succeeding without advancing the nonce
	// (§4.1.1 step 6). The bootloader does not return it: Contract.Validate
	// reports that case as accountmodel.ErrValidationFailed.
	ErrNonceNotAdvanced = errors.New("bootloader: nonce did not advance during validation")

	// ErrInsufficientGasForPubdata is returned when too little gas remains
	// after execution to cover the pubdata produced (§4.1.1 step 11).
	ErrInsufficientGasForPubdata = errors.New("bootloader: insufficient gas for pubdata")

	// ErrL1DeploymentRejected is returned when an L1->L2 transaction
	// attempts a deployment (§4.1.2: "Deployment from L1 is rejected").
	ErrL1DeploymentRejected = errors.New("bootloader: deployment rejected for L1->L2 transaction")

	// ErrInitCodeTooLarge names a deployment whose init code exceeds
	// params.MaxInitCodeSize (§4.1.1 step 10). The bootloader performs no
	// init-code size check of its own and does not return it.
	ErrInitCodeTooLarge = errors.New("bootloader: init code exceeds size limit")
)
