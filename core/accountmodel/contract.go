package accountmodel

import (
	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/core/accounts"
	"github.com/matter-labs/zksync-os/core/state"
	"github.com/matter-labs/zksync-os/core/types"
	"github.com/matter-labs/zksync-os/core/vm"
	"github.com/matter-labs/zksync-os/crypto"
	"github.com/matter-labs/zksync-os/params"
)

// Canonical function selectors an AA account's bytecode must implement
// (§4.5: "Each step corresponds to a call into the account's bytecode at
// canonical function selectors"). Calldata for these calls is encoded as
// selector ‖ tx_hash ‖ suggested_signed_hash ‖ abi-ish tx bytes, which is
// enough for a TestEE-style or real interpreter to dispatch on; the exact
// ABI shape is an interpreter concern outside this core's scope (§1).
var (
	SelectorValidateTransaction = selector("validateTransaction(bytes32,bytes32,bytes)")
	SelectorPayForTransaction   = selector("payForTransaction(bytes32,bytes32,bytes)")
	SelectorPrepareForPaymaster = selector("prepareForPaymaster(bytes32,bytes32,bytes)")
	SelectorExecuteTransaction  = selector("executeTransaction(bytes32,bytes32,bytes)")
	SelectorValidateAndPay      = selector("validateAndPayForPaymasterTransaction(bytes32,bytes32,bytes)")
	SelectorPostOp              = selector("postOp(bytes,bytes32,bytes32,uint8)")
)

func selector(signature string) [4]byte {
	h := crypto.Keccak256([]byte(signature))
	var s [4]byte
	copy(s[:], h[:4])
	return s
}

// MagicValidationSuccess is the 32-byte magic value validateTransaction
// must return on success (§4.1.1 step 5: "returns a magic value"). Modeled
// on the selector of validateTransaction itself, placed in the first 4
// bytes with the remaining 28 bytes zero, the convention the
// account-abstraction standard this spec is based on actually uses. The
// paymaster's validateAndPayForPaymasterTransaction call is checked only
// for success, not for this value.
var MagicValidationSuccess = func() common.Hash {
	var h common.Hash
	copy(h[:4], SelectorValidateTransaction[:])
	return h
}()

// Contract is the account-abstraction model of §4.5: validation, payment,
// and execution are all delegated to the account's own bytecode via calls
// through the Runner, gated on AA_ENABLED.
type Contract struct{}

// ValidateNonce is a no-op: Contract accounts define their own nonce
// semantics, and the bootloader only checks that validateTransaction
// actually advanced the on-chain nonce afterward (§4.5, §4.1.1 step 6).
func (Contract) ValidateNonce(*accounts.Properties, *types.Transaction) error { return nil }

// Validate calls the account's validateTransaction hook and requires the
// magic success value plus an observed nonce advance (§4.1.1 steps 5-6).
func (Contract) Validate(io *state.IOSubsystem, runner *vm.Runner, tx *types.Transaction, txHash common.Hash, ee vm.ExecutionEnvironment, frameID int) error {
	before := io.ReadAccount(tx.From).Nonce
	calldata := hookCalldata(SelectorValidateTransaction, txHash, tx)
	result := runner.RunCall(ee, bootloaderAddress(), tx.From, common.ZeroU256(), calldata, tx.GasLimit, false)
	if !result.Succeeded() || !returnsMagic(result.ReturnData, MagicValidationSuccess) {
		return ErrValidationFailed
	}
	after := io.ReadAccount(tx.From).Nonce
	if after <= before {
		return ErrValidationFailed
	}
	return nil
}

// Pay either transfers gas_price*gas_limit directly via payForTransaction,
// or — when tx declares a paymaster — runs prepareForPaymaster followed by
// the paymaster's validateAndPayForPaymasterTransaction (§4.1.1 step 7
// "With paymaster" branch).
func (Contract) Pay(io *state.IOSubsystem, runner *vm.Runner, tx *types.Transaction, gasPrice *common.U256, ee vm.ExecutionEnvironment, frameID int) error {
	cost := new(common.U256).Mul(common.NewU256(tx.GasLimit), gasPrice)
	before := io.ReadAccount(feeCollector()).Balance

	if tx.Paymaster == nil {
		calldata := hookCalldata(SelectorPayForTransaction, tx.Hash(), tx)
		result := runner.RunCall(ee, bootloaderAddress(), tx.From, common.ZeroU256(), calldata, tx.GasLimit, false)
		if !result.Succeeded() {
			return ErrInsufficientBalanceForFee
		}
		return assertCollectorCredit(io, before, cost)
	}

	prepCalldata := hookCalldata(SelectorPrepareForPaymaster, tx.Hash(), tx)
	prep := runner.RunCall(ee, bootloaderAddress(), tx.From, common.ZeroU256(), prepCalldata, tx.GasLimit, false)
	if !prep.Succeeded() {
		return ErrPaymasterValidationFailed
	}

	payCalldata := hookCalldata(SelectorValidateAndPay, tx.Hash(), tx)
	pay := runner.RunCall(ee, bootloaderAddress(), *tx.Paymaster, common.ZeroU256(), payCalldata, tx.GasLimit, false)
	if !pay.Succeeded() {
		return ErrPaymasterValidationFailed
	}
	return assertCollectorCredit(io, before, cost)
}

// Execute calls the account's executeTransaction entry (§4.5), which is
// responsible for performing the actual call/deployment on the caller's
// behalf. Contract-model transactions never deploy directly through the
// Bootloader's own deployment path; the account's own code decides.
func (Contract) Execute(_ *state.IOSubsystem, runner *vm.Runner, tx *types.Transaction, ee vm.ExecutionEnvironment, _ int) (vm.Result, *common.Address, error) {
	calldata := hookCalldata(SelectorExecuteTransaction, tx.Hash(), tx)
	result := runner.RunCall(ee, bootloaderAddress(), tx.From, common.ZeroU256(), calldata, tx.GasLimit, false)
	return result, nil, nil
}

// PostOp invokes the paymaster's postOp hook when one was used; a no-op
// otherwise (§4.1.1 step 12).
func (Contract) PostOp(_ *state.IOSubsystem, runner *vm.Runner, tx *types.Transaction, execResult vm.Result, ee vm.ExecutionEnvironment, _ int) error {
	if tx.Paymaster == nil {
		return nil
	}
	calldata := hookCalldataWithResult(SelectorPostOp, tx, execResult)
	result := runner.RunCall(ee, bootloaderAddress(), *tx.Paymaster, common.ZeroU256(), calldata, tx.GasLimit, false)
	if !result.Succeeded() {
		return ErrPaymasterValidationFailed
	}
	return nil
}

// Refund re-credits unused gas to the paymaster if one paid, else to the
// account itself (§4.1.1 step 13).
func (Contract) Refund(io *state.IOSubsystem, tx *types.Transaction, unused *common.U256, frameID int) error {
	recipient := tx.From
	if tx.Paymaster != nil {
		recipient = *tx.Paymaster
	}
	if unused == nil || unused.IsZero() {
		return nil
	}
	props := io.ReadAccount(recipient)
	balance := props.Balance
	if balance == nil {
		balance = common.ZeroU256()
	}
	props.Balance = new(common.U256).Add(balance, unused)
	io.WriteAccount(recipient, props, frameID)
	return nil
}

func hookCalldata(sel [4]byte, txHash common.Hash, tx *types.Transaction) []byte {
	enc, _ := tx.Encode()
	out := make([]byte, 0, 4+32+32+len(enc))
	out = append(out, sel[:]...)
	out = append(out, txHash[:]...)
	out = append(out, txHash[:]...) // suggested_signed_hash == tx_hash in this simplified encoding
	out = append(out, enc...)
	return out
}

func hookCalldataWithResult(sel [4]byte, tx *types.Transaction, result vm.Result) []byte {
	enc, _ := tx.Encode()
	status := byte(0)
	if result.Succeeded() {
		status = 1
	}
	out := make([]byte, 0, 4+len(enc)+len(result.ReturnData)+1)
	out = append(out, sel[:]...)
	out = append(out, enc...)
	out = append(out, result.ReturnData...)
	out = append(out, status)
	return out
}

func returnsMagic(returnData []byte, magic common.Hash) bool {
	return len(returnData) >= 32 && common.BytesToHash(returnData[:32]) == magic
}

// bootloaderAddress is the pseudo-sender identity the Bootloader uses when
// calling into account/paymaster hooks: the zero address, since the
// Bootloader itself never holds deployed code or balance (§4.1.1).
func bootloaderAddress() common.Address { return common.Address{} }

// assertCollectorCredit enforces §4.1.1 step 7's "bootloader asserts the
// exact credit at the fee-collector address": the hook call must have
// increased the fee collector's balance by exactly cost.
func assertCollectorCredit(io *state.IOSubsystem, before *common.U256, cost *common.U256) error {
	if before == nil {
		before = common.ZeroU256()
	}
	after := io.ReadAccount(feeCollector()).Balance
	if after == nil {
		after = common.ZeroU256()
	}
	credited := new(common.U256).Sub(after, before)
	if credited.Cmp(cost) != 0 {
		return ErrInsufficientBalanceForFee
	}
	return nil
}

func feeCollector() common.Address { return params.FeeCollectorAddress }
