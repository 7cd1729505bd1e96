// Package accountmodel implements the two account models of §4.5: EOA
// (plain secp256k1-signed accounts) and Contract (account-abstraction
// accounts driven by canonical bytecode hooks, §4.5, §4.1.1 step 3).
package accountmodel

import (
	"errors"

	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/core/accounts"
	"github.com/matter-labs/zksync-os/core/state"
	"github.com/matter-labs/zksync-os/core/types"
	"github.com/matter-labs/zksync-os/core/vm"
)

// Errors from §7's transaction-fatal taxonomy that originate in the
// account-model layer.
var (
	ErrAANotEnabled             = errors.New("accountmodel: account-abstraction not enabled")
	ErrNonceAlreadyUsed         = errors.New("accountmodel: nonce already used")
	ErrInsufficientBalanceForFee = errors.New("accountmodel: insufficient balance for fee")
	ErrSignatureInvalid          = errors.New("accountmodel: signature invalid")
	ErrPaymasterValidationFailed  = errors.New("accountmodel: paymaster validation failed")
	ErrValidationFailed           = errors.New("accountmodel: account validation failed")
)

// Model is the account-model capability the Bootloader drives per §4.1.1
// steps 3-13: nonce validation, signature/hook validation, fee payment
// (with optional paymaster), execution, postOp, and refund.
type Model interface {
	// ValidateNonce checks tx's declared nonce against props (§4.1.1 step 4).
	ValidateNonce(props *accounts.Properties, tx *types.Transaction) error

	// Validate runs the model's validation step: EOA verifies the
	// signature and balance; Contract calls validateTransaction through ee
	// (§4.1.1 step 5).
	Validate(io *state.IOSubsystem, runner *vm.Runner, tx *types.Transaction, txHash common.Hash, ee vm.ExecutionEnvironment, frameID int) error

	// Pay charges gas_price * gas_limit to the fee collector, optionally
	// via a paymaster, dispatching Contract hooks through ee (§4.1.1 step 7).
	Pay(io *state.IOSubsystem, runner *vm.Runner, tx *types.Transaction, gasPrice *common.U256, ee vm.ExecutionEnvironment, frameID int) error

	// Execute dispatches the transaction's call or deployment (§4.1.1
	// step 10) through ee — the Execution Environment selected by the
	// Bootloader's EE dispatch table for the sender's (or, on deployment,
	// the target's) EEKind (§9 "tagged-variant enum ... fixed dispatch
	// table") — and returns the result plus, for a deployment, the
	// deployed address.
	Execute(io *state.IOSubsystem, runner *vm.Runner, tx *types.Transaction, ee vm.ExecutionEnvironment, frameID int) (vm.Result, *common.Address, error)

	// PostOp invokes the paymaster's postOp hook, if a paymaster was used
	// (§4.1.1 step 12); a no-op for models without one.
	PostOp(io *state.IOSubsystem, runner *vm.Runner, tx *types.Transaction, execResult vm.Result, ee vm.ExecutionEnvironment, frameID int) error

	// Refund returns unused gas to the caller or paymaster (§4.1.1 step 13).
	Refund(io *state.IOSubsystem, tx *types.Transaction, unused *common.U256, frameID int) error
}
