package accountmodel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/core/state"
	"github.com/matter-labs/zksync-os/core/types"
	"github.com/matter-labs/zksync-os/core/vm"
	"github.com/matter-labs/zksync-os/params"
)

func contractTx(t *testing.T) *types.Transaction {
	t.Helper()
	to := addr(0x50)
	return &types.Transaction{
		Type:               types.TxTypeEIP712,
		From:               addr(0x40),
		To:                 &to,
		GasLimit:           100_000,
		GasPerPubdataLimit: 1,
		MaxFeePerGas:       common.NewU256(10),
		Value:              common.ZeroU256(),
	}
}

func TestContractValidateNonceIsNoOp(t *testing.T) {
	require.NoError(t, Contract{}.ValidateNonce(nil, nil))
}

func TestContractValidateSuccess(t *testing.T) {
	io := state.NewIOSubsystem()
	runner, ee := newContractRunner(io)
	tx := contractTx(t)

	before := io.ReadAccount(tx.From)
	before.Nonce = 1
	io.WriteAccount(tx.From, before, 0)

	calldata := hookCalldata(SelectorValidateTransaction, tx.Hash(), tx)
	ee.Script(string(calldata), vm.Return(MagicValidationSuccess[:]))

	// The account's own validateTransaction hook is responsible for
	// bumping its nonce; model code only observes the before/after
	// difference, so this stands in for that side effect.
	bumped := io.ReadAccount(tx.From)
	bumped.Nonce = 2
	io.WriteAccount(tx.From, bumped, 0)

	err := Contract{}.Validate(io, runner, tx, tx.Hash(), ee, 0)
	require.NoError(t, err)
}

func TestContractValidateFailsWithoutNonceAdvance(t *testing.T) {
	io := state.NewIOSubsystem()
	runner, ee := newContractRunner(io)
	tx := contractTx(t)

	calldata := hookCalldata(SelectorValidateTransaction, tx.Hash(), tx)
	ee.Script(string(calldata), vm.Return(MagicValidationSuccess[:]))

	err := Contract{}.Validate(io, runner, tx, tx.Hash(), ee, 0)
	require.ErrorIs(t, err, ErrValidationFailed)
}

func TestContractValidateFailsWithoutMagic(t *testing.T) {
	io := state.NewIOSubsystem()
	runner, ee := newContractRunner(io)
	tx := contractTx(t)

	calldata := hookCalldata(SelectorValidateTransaction, tx.Hash(), tx)
	ee.Script(string(calldata), vm.Return([]byte("not the magic value")))

	bumped := io.ReadAccount(tx.From)
	bumped.Nonce = 1
	io.WriteAccount(tx.From, bumped, 0)

	err := Contract{}.Validate(io, runner, tx, tx.Hash(), ee, 0)
	require.ErrorIs(t, err, ErrValidationFailed)
}

// TestEE cannot itself mutate the IO subsystem (it only scripts Preemption
// values, §4.3's collaborator boundary), so exercising a real hook-call
// credit is out of reach here; what these tests CAN verify honestly is
// assertCollectorCredit's exact-match behavior at the one point TestEE can
// reach: a zero-cost transaction asserts a zero credit without needing a
// real hook to have run, and a nonzero-cost transaction must fail when the
// (here, unavoidably absent) credit doesn't match.

func TestContractPayWithoutPaymasterZeroCostSucceeds(t *testing.T) {
	io := state.NewIOSubsystem()
	runner, ee := newContractRunner(io)
	tx := contractTx(t)
	tx.GasLimit = 0

	calldata := hookCalldata(SelectorPayForTransaction, tx.Hash(), tx)
	ee.Script(string(calldata), vm.Return(nil))

	err := Contract{}.Pay(io, runner, tx, common.NewU256(5), ee, 0)
	require.NoError(t, err)
}

func TestContractPayWithoutPaymasterMissingCreditFails(t *testing.T) {
	io := state.NewIOSubsystem()
	runner, ee := newContractRunner(io)
	tx := contractTx(t)
	tx.GasLimit = 100

	calldata := hookCalldata(SelectorPayForTransaction, tx.Hash(), tx)
	ee.Script(string(calldata), vm.Return(nil))

	err := Contract{}.Pay(io, runner, tx, common.NewU256(5), ee, 0)
	require.ErrorIs(t, err, ErrInsufficientBalanceForFee)
}

func TestContractPayHookFailureRejects(t *testing.T) {
	io := state.NewIOSubsystem()
	runner, ee := newContractRunner(io)
	tx := contractTx(t)
	tx.GasLimit = 0

	calldata := hookCalldata(SelectorPayForTransaction, tx.Hash(), tx)
	ee.Script(string(calldata), vm.Revert())

	err := Contract{}.Pay(io, runner, tx, common.NewU256(5), ee, 0)
	require.ErrorIs(t, err, ErrInsufficientBalanceForFee)
}

func TestContractPayViaPaymasterZeroCostSucceeds(t *testing.T) {
	io := state.NewIOSubsystem()
	runner, ee := newContractRunner(io)
	tx := contractTx(t)
	tx.GasLimit = 0
	paymaster := addr(0x61)
	tx.Paymaster = &paymaster

	prepCalldata := hookCalldata(SelectorPrepareForPaymaster, tx.Hash(), tx)
	payCalldata := hookCalldata(SelectorValidateAndPay, tx.Hash(), tx)
	ee.Script(string(prepCalldata), vm.Return(nil))
	ee.Script(string(payCalldata), vm.Return(nil))

	err := Contract{}.Pay(io, runner, tx, common.NewU256(5), ee, 0)
	require.NoError(t, err)
}

func TestContractPayPaymasterPrepFailureRejects(t *testing.T) {
	io := state.NewIOSubsystem()
	runner, ee := newContractRunner(io)
	tx := contractTx(t)
	paymaster := addr(0x62)
	tx.Paymaster = &paymaster

	prepCalldata := hookCalldata(SelectorPrepareForPaymaster, tx.Hash(), tx)
	ee.Script(string(prepCalldata), vm.Revert())

	err := Contract{}.Pay(io, runner, tx, common.NewU256(5), ee, 0)
	require.ErrorIs(t, err, ErrPaymasterValidationFailed)
}

func TestContractExecuteCallsExecuteTransaction(t *testing.T) {
	io := state.NewIOSubsystem()
	runner, ee := newContractRunner(io)
	tx := contractTx(t)

	calldata := hookCalldata(SelectorExecuteTransaction, tx.Hash(), tx)
	ee.Script(string(calldata), vm.Return([]byte("ran")))

	result, deployed, err := Contract{}.Execute(io, runner, tx, ee, 0)
	require.NoError(t, err)
	require.Nil(t, deployed)
	require.True(t, result.Succeeded())
	require.Equal(t, "ran", string(result.ReturnData))
}

func TestContractPostOpNoOpWithoutPaymaster(t *testing.T) {
	io := state.NewIOSubsystem()
	runner, ee := newContractRunner(io)
	tx := contractTx(t)
	require.NoError(t, Contract{}.PostOp(io, runner, tx, vm.Result{}, ee, 0))
}

func TestContractPostOpCallsPaymaster(t *testing.T) {
	io := state.NewIOSubsystem()
	runner, ee := newContractRunner(io)
	tx := contractTx(t)
	paymaster := addr(0x63)
	tx.Paymaster = &paymaster

	calldata := hookCalldataWithResult(SelectorPostOp, tx, vm.Result{})
	ee.Script(string(calldata), vm.Return(nil))

	require.NoError(t, Contract{}.PostOp(io, runner, tx, vm.Result{}, ee, 0))
}

func TestContractRefundToPaymasterWhenPresent(t *testing.T) {
	io := state.NewIOSubsystem()
	tx := contractTx(t)
	paymaster := addr(0x64)
	tx.Paymaster = &paymaster

	require.NoError(t, Contract{}.Refund(io, tx, common.NewU256(77), 0))
	require.Equal(t, uint64(77), io.ReadAccount(paymaster).Balance.Uint64())
	require.Nil(t, io.ReadAccount(tx.From).Balance)
}

func TestContractRefundToSenderWithoutPaymaster(t *testing.T) {
	io := state.NewIOSubsystem()
	tx := contractTx(t)
	require.NoError(t, Contract{}.Refund(io, tx, common.NewU256(77), 0))
	require.Equal(t, uint64(77), io.ReadAccount(tx.From).Balance.Uint64())
}

func newContractRunner(io *state.IOSubsystem) (*vm.Runner, *vm.TestEE) {
	cfg := params.DefaultConfig()
	hooks := vm.NewHookTable(io, &cfg)
	return vm.NewRunner(io, &cfg, hooks), vm.NewTestEE()
}
