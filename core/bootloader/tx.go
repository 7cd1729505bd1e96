package bootloader

import (
	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/core/accountmodel"
	"github.com/matter-labs/zksync-os/core/resources"
	"github.com/matter-labs/zksync-os/core/types"
	"github.com/matter-labs/zksync-os/core/vm"
)

// processTransaction runs one transaction through the full lifecycle of
// §4.1.1 (or, for an L1->L2 transaction, §4.1.2), returning its receipt and
// gas used. A non-nil error means the transaction is rejected outright
// (validation-fatal, §7); the caller rolls the frame back and synthesizes a
// failed receipt. A returned receipt with Status == ReceiptStatusFailed but
// err == nil means execution itself reverted, which is still a committed,
// billable outcome (§4.1.1 step 14 commits this case too).
func (b *Bootloader) processTransaction(raw []byte, blockCtx types.BlockContext, frameID int, blockGas *resources.ErgsPool, _ uint64) (types.Receipt, uint64, error) {
	tx, err := types.Parse(raw)
	if err != nil {
		return types.Receipt{}, 0, err
	}
	txHash := tx.Hash()
	receipt := types.Receipt{TxHash: txHash}

	budget, err := b.chargeIntrinsic(tx, blockGas)
	if err != nil {
		return receipt, 0, err
	}

	// §4.6: "Pubdata is charged in a separate counter" from ergs. The
	// per-tx limit is the transaction's own declared rate applied to a
	// generous byte budget; a concrete EE would know its actual pubdata
	// footprint precisely, but one is not in scope here (§1), so this
	// bootloader only charges the two pubdata events it can itself see:
	// the pre-declared validation allowance (step 8) and, after execution,
	// the size of the returned data, whether the call succeeded or reverted
	// (step 11).
	pubdata := resources.NewPubdataCounter(uint64(tx.GasPerPubdataLimit) * 1024)
	if err := pubdata.Charge(pubdataForValidation(tx, b.cfg.GasPerPubdataByte)); err != nil {
		return receipt, 0, err
	}

	props := b.io.ReadAccount(tx.From)
	model, err := b.selectModel(props)
	if err != nil {
		return receipt, 0, err
	}

	if err := model.ValidateNonce(props, tx); err != nil {
		return receipt, 0, err
	}

	if tx.IsL1() {
		// §4.1.2: mint value into the sender, no validation/signature step.
		b.mintL1Value(tx, frameID)
		if tx.IsDeployment() {
			return receipt, 0, ErrL1DeploymentRejected
		}
	} else {
		validateEE, err := b.hookEE(model, tx)
		if err != nil {
			return receipt, 0, err
		}
		if err := model.Validate(b.io, b.runner, tx, txHash, validateEE, frameID); err != nil {
			return receipt, 0, err
		}
	}

	gasPrice := b.effectiveGasPrice(blockCtx, tx)

	if !b.cfg.OnlySimulate {
		payEE, err := b.hookEE(model, tx)
		if err != nil {
			return receipt, 0, err
		}
		if err := model.Pay(b.io, b.runner, tx, gasPrice, payEE, frameID); err != nil {
			return receipt, 0, err
		}
	}

	execEE, err := b.executeEE(model, tx)
	if err != nil {
		return receipt, 0, err
	}

	result, deployed, err := model.Execute(b.io, b.runner, tx, execEE, frameID)
	if err != nil {
		return receipt, 0, err
	}
	receipt.ContractAddress = deployed

	// §4.6: meter what the call/deployment actually reported spending,
	// rather than leaving the intrinsic charge as the only billed cost.
	// GasLeft is reported against the full gas_limit the Runner was
	// launched with (model.Execute always hands it tx.GasLimit, not the
	// post-intrinsic budget), so gas_used_by_execution is clamped to what
	// remains of budget before being subtracted.
	gasUsedByExecution := tx.GasLimit - result.GasLeft
	if gasUsedByExecution > budget {
		gasUsedByExecution = budget
	}
	budget -= gasUsedByExecution

	// §4.1.1 step 11: verify enough pubdata budget remains post-execution.
	if err := pubdata.Charge(uint64(len(result.ReturnData))); err != nil {
		return receipt, 0, ErrInsufficientGasForPubdata
	}

	if !b.cfg.OnlySimulate {
		if tx.Paymaster != nil {
			postEE, err := b.hookEE(model, tx)
			if err != nil {
				return receipt, 0, err
			}
			if err := model.PostOp(b.io, b.runner, tx, result, postEE, frameID); err != nil {
				return receipt, 0, err
			}
		}
	}

	_, events, messages := b.io.EndTx(frameID)

	unused := new(common.U256).Mul(common.NewU256(budget), gasPrice)
	if err := model.Refund(b.io, tx, unused, frameID); err != nil {
		return receipt, 0, err
	}

	receipt.Logs = events
	receipt.L2ToL1Messages = messages
	receipt.GasUsed = tx.GasLimit - budget
	if result.Succeeded() {
		receipt.Status = types.ReceiptStatusSuccessful
	} else {
		receipt.Status = types.ReceiptStatusFailed
		receipt.RevertReason = result.ReturnData
	}
	return receipt, receipt.GasUsed, nil
}

// chargeIntrinsic implements the ergs half of §4.1.1 step 2: reserve
// gas_limit from the block pool, then subtract intrinsic cost, returning
// the remaining ergs budget. The pubdata half of step 2 is charged
// separately against a resources.PubdataCounter (§4.6: ergs and pubdata
// are distinct, non-interchangeable counters).
func (b *Bootloader) chargeIntrinsic(tx *types.Transaction, blockGas *resources.ErgsPool) (uint64, error) {
	if tx.GasLimit > blockGas.Gas() {
		return 0, ErrGasLimitExceedsBlock
	}
	if err := blockGas.SubGas(tx.GasLimit); err != nil {
		return 0, err
	}
	budget := tx.GasLimit
	intrinsic := intrinsicGas(tx)
	if intrinsic > budget {
		return 0, ErrIntrinsicGasExceedsLimit
	}
	budget -= intrinsic
	return budget, nil
}

// mintL1Value credits tx.Value directly into the sender's balance (§4.1.2:
// "funds are assumed locked on L1").
func (b *Bootloader) mintL1Value(tx *types.Transaction, frameID int) {
	props := b.io.ReadAccount(tx.From)
	balance := props.Balance
	if balance == nil {
		balance = common.ZeroU256()
	}
	if tx.Value != nil {
		props.Balance = new(common.U256).Add(balance, tx.Value)
	}
	b.io.WriteAccount(tx.From, props, frameID)
}

// effectiveGasPrice computes gas_price per EIP-1559 when
// charge_priority_fee is set, else the block's base fee alone, both capped
// by the transaction's declared max_fee_per_gas.
func (b *Bootloader) effectiveGasPrice(blockCtx types.BlockContext, tx *types.Transaction) *common.U256 {
	base := blockCtx.BaseFeePerGas
	if base == nil {
		base = common.ZeroU256()
	}
	price := base
	if b.cfg.ChargePriorityFee && tx.MaxPriorityFeePerGas != nil {
		withTip := new(common.U256).Add(base, tx.MaxPriorityFeePerGas)
		price = withTip
	}
	if tx.MaxFeePerGas != nil && price.Cmp(tx.MaxFeePerGas) > 0 {
		price = tx.MaxFeePerGas
	}
	return price
}

// hookEE resolves the ExecutionEnvironment a Contract account's own hook
// calls (validateTransaction, payForTransaction, prepareForPaymaster,
// validateAndPayForPaymasterTransaction, postOp) run under: the sender's
// own EEKind. The paymaster's validateAndPayForPaymasterTransaction and
// postOp calls reuse the same ee as a deliberate simplification — see
// DESIGN.md — rather than resolving the paymaster's own EEKind separately.
// For EOA accounts it returns nil, which EOA.Validate/Pay/PostOp ignore.
func (b *Bootloader) hookEE(model accountmodel.Model, tx *types.Transaction) (vm.ExecutionEnvironment, error) {
	if _, isContract := model.(accountmodel.Contract); isContract {
		return b.resolveEE(tx.From)
	}
	return nil, nil
}

// executeEE resolves the ExecutionEnvironment for the transaction's
// execute step (§4.1.1 step 10): for EOA, the callee's own EE (or a
// deployment target's, chosen via tx.Reserved[1]); for Contract, the
// sender's own EE (executeTransaction runs on the account's own code).
func (b *Bootloader) executeEE(model accountmodel.Model, tx *types.Transaction) (vm.ExecutionEnvironment, error) {
	if _, isContract := model.(accountmodel.Contract); isContract {
		return b.resolveEE(tx.From)
	}
	if tx.IsDeployment() {
		return b.resolveDeploymentEE(tx)
	}
	return b.resolveEE(*tx.To)
}
