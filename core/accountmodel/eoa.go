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

// EOA is the plain externally-owned-account model of §4.5: an
// incremental u64 nonce, secp256k1 signature validation, and a direct
// balance debit/credit for fee payment. It mirrors the teacher's
// StateTransition.buyGas/preCheck/refundGas split (abaderin-bsc
// core/state_processor.go), generalized to the ergs/pubdata accounting
// of this core.
type EOA struct{}

// ValidateNonce requires an exact match with the on-chain nonce (§4.1.1
// step 4: "must equal on-chain nonce for EOA").
func (EOA) ValidateNonce(props *accounts.Properties, tx *types.Transaction) error {
	declared := common.U256FromHash(tx.Nonce).Uint64()
	if declared != props.Nonce {
		return ErrNonceAlreadyUsed
	}
	return nil
}

// Validate verifies the secp256k1 signature over tx's canonical hash and
// checks the sender can afford value + gas_limit*max_fee_per_gas (§4.5).
// L1->L2 transactions skip signature verification entirely (§4.1.2: "No
// validation/signature step").
func (EOA) Validate(io *state.IOSubsystem, _ *vm.Runner, tx *types.Transaction, txHash common.Hash, _ vm.ExecutionEnvironment, _ int) error {
	if tx.IsL1() {
		return nil
	}
	recovered, err := crypto.RecoverAddress(txHash, tx.Signature)
	if err != nil || recovered != tx.From {
		return ErrSignatureInvalid
	}
	props := io.ReadAccount(tx.From)
	required := new(common.U256).Mul(common.NewU256(tx.GasLimit), tx.MaxFeePerGas)
	required = new(common.U256).Add(required, tx.Value)
	balance := props.Balance
	if balance == nil {
		balance = common.ZeroU256()
	}
	if balance.Cmp(required) < 0 {
		return ErrInsufficientBalanceForFee
	}
	return nil
}

// Pay debits gas_price*gas_limit from the sender and credits the fee
// collector exactly (§4.1.1 step 7, "without paymaster" branch). Nonce is
// also bumped here: this is the one EOA step that must happen regardless
// of what follows, so a failed signature check never reaches it.
func (EOA) Pay(io *state.IOSubsystem, _ *vm.Runner, tx *types.Transaction, gasPrice *common.U256, _ vm.ExecutionEnvironment, frameID int) error {
	cost := new(common.U256).Mul(common.NewU256(tx.GasLimit), gasPrice)
	sender := io.ReadAccount(tx.From)
	balance := sender.Balance
	if balance == nil {
		balance = common.ZeroU256()
	}
	if balance.Cmp(cost) < 0 {
		return ErrInsufficientBalanceForFee
	}
	sender.Balance = new(common.U256).Sub(balance, cost)
	sender.Nonce++
	io.WriteAccount(tx.From, sender, frameID)

	collector := io.ReadAccount(params.FeeCollectorAddress)
	collectorBalance := collector.Balance
	if collectorBalance == nil {
		collectorBalance = common.ZeroU256()
	}
	collector.Balance = new(common.U256).Add(collectorBalance, cost)
	io.WriteAccount(params.FeeCollectorAddress, collector, frameID)
	return nil
}

// Execute dispatches the deployment or call path (§4.1.1 step 10): a zero
// `to` is a deployment via Runner.RunCreate, otherwise a call via
// Runner.RunCall.
func (EOA) Execute(_ *state.IOSubsystem, runner *vm.Runner, tx *types.Transaction, ee vm.ExecutionEnvironment, _ int) (vm.Result, *common.Address, error) {
	if tx.IsDeployment() {
		result, addr := runner.RunCreate(ee, tx.From, tx.Value, tx.Data, tx.GasLimit, nil)
		return result, &addr, nil
	}
	result := runner.RunCall(ee, tx.From, *tx.To, tx.Value, tx.Data, tx.GasLimit, false)
	return result, nil, nil
}

// PostOp is a no-op: plain EOA transactions never use a paymaster.
func (EOA) PostOp(*state.IOSubsystem, *vm.Runner, *types.Transaction, vm.Result, vm.ExecutionEnvironment, int) error {
	return nil
}

// Refund re-credits the caller for unused gas at the same gas_price it was
// charged (§4.1.1 step 13). No separate refund-counter equivalence with
// Ethereum is modeled (§9 Open Question i: "no refunds issued" beyond this
// direct unused-gas return).
func (EOA) Refund(io *state.IOSubsystem, tx *types.Transaction, unused *common.U256, frameID int) error {
	if unused == nil || unused.IsZero() {
		return nil
	}
	sender := io.ReadAccount(tx.From)
	balance := sender.Balance
	if balance == nil {
		balance = common.ZeroU256()
	}
	sender.Balance = new(common.U256).Add(balance, unused)
	io.WriteAccount(tx.From, sender, frameID)
	return nil
}
