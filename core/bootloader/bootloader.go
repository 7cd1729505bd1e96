// Package bootloader implements the top-level block driver of §4.1: it
// owns the IO subsystem, the Runner, and the system hook table, and walks
// the oracle's transaction stream one transaction at a time, producing a
// receipt and either committing or rolling back each transaction's
// snapshot before emitting the block header and outputs (§4.1, §4.1.3).
//
// It plays the role the teacher's core.StateProcessor.Process plays for
// go-ethereum (abaderin-bsc/core/state_processor.go): a single entry point
// that loops over a transaction list, applies each one, and assembles a
// block-level result, generalized to ergs/pubdata accounting and pluggable
// account models instead of a single hardwired EVM.
package bootloader

import (
	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/core/accountmodel"
	"github.com/matter-labs/zksync-os/core/accounts"
	"github.com/matter-labs/zksync-os/core/resources"
	"github.com/matter-labs/zksync-os/core/runtime/oracle"
	"github.com/matter-labs/zksync-os/core/state"
	"github.com/matter-labs/zksync-os/core/types"
	"github.com/matter-labs/zksync-os/core/vm"
	"github.com/matter-labs/zksync-os/crypto"
	"github.com/matter-labs/zksync-os/internal/zklog"
	"github.com/matter-labs/zksync-os/params"
)

// Bootloader drives one block's worth of transactions end to end.
type Bootloader struct {
	io     *state.IOSubsystem
	cfg    *params.Config
	hooks  *vm.HookTable
	runner *vm.Runner
	ees    *EERegistry
	log    zklog.Logger
}

// New builds a Bootloader over a fresh IOSubsystem, wiring its own hook
// table and Runner (§4.2, §4.7). ees supplies the concrete Execution
// Environments this deployment provides; cfg carries the feature flags
// enumerated in §4.1.
func New(io *state.IOSubsystem, cfg *params.Config, ees *EERegistry, log zklog.Logger) *Bootloader {
	hooks := vm.NewHookTable(io, cfg)
	runner := vm.NewRunner(io, cfg, hooks)
	return &Bootloader{io: io, cfg: cfg, hooks: hooks, runner: runner, ees: ees, log: log}
}

// RunBlock drives run_block(system, oracle) (§4.1): it reads block
// metadata, loops over the oracle's transaction stream applying each one
// via processTransaction, and finalizes the system at exhaustion. A single
// transaction's failure never aborts the block — it yields a failed
// receipt and a rollback to that transaction's own starting snapshot
// (§4.1: "Errors in a single transaction do not abort the block").
func (b *Bootloader) RunBlock(o oracle.Oracle) (*types.BlockResult, error) {
	blockCtx := o.BlockMetadata()
	gasPool := new(resources.ErgsPool).AddGas(blockCtx.GasLimit)

	result := &types.BlockResult{}
	txHashAcc := blockCtx.ParentHash
	var cumulativeGasUsed uint64

	for {
		raw, ok := o.NextTransaction()
		if !ok {
			break
		}

		b.io.BeginTx()
		txFrame := b.io.BeginFrame()

		receipt, gasUsed, err := b.processTransaction(raw, blockCtx, txFrame, gasPool, cumulativeGasUsed)
		if err != nil {
			b.io.RollbackFrame(txFrame)
			b.log.Warn().Err(err).Msg("transaction rejected")
			receipt = types.Receipt{Status: types.ReceiptStatusFailed, RevertReason: []byte(err.Error())}
		} else {
			b.io.CommitFrame(txFrame, 0)
		}

		cumulativeGasUsed += gasUsed
		receipt.CumulativeGasUsed = cumulativeGasUsed
		result.Receipts = append(result.Receipts, receipt)
		result.GasUsed += gasUsed
		result.Events = append(result.Events, receipt.Logs...)
		result.Messages = append(result.Messages, receipt.L2ToL1Messages...)

		if !receipt.TxHash.IsZero() {
			txHashAcc = crypto.RollingTxHash(txHashAcc, receipt.TxHash)
		}
	}

	fin := b.io.Finalize()
	result.NewRoot = fin.NewRoot
	result.NewNextFree = fin.NewNextFree
	for range fin.Preimages {
		result.PublishedBytes++ // a count of newly published preimages, not their byte length
	}
	for _, d := range fin.SlotDiffs {
		// TreeKey already folds (address, key) together (crypto.SlotTreeKey);
		// StateDiff.Address is left zero for slot diffs, only meaningful for
		// account diffs below.
		result.Diffs = append(result.Diffs, types.StateDiff{Key: d.TreeKey, Value: d.Current})
	}
	for _, d := range fin.AccountDiffs {
		result.Diffs = append(result.Diffs, types.StateDiff{Address: d.Address, Value: d.CurrentHash})
	}

	result.Header = b.emitHeader(blockCtx, txHashAcc, result.GasUsed)
	return result, nil
}

// emitHeader implements §4.1.3: an Ethereum-shaped header with
// everything not named there left zeroed.
func (b *Bootloader) emitHeader(blockCtx types.BlockContext, transactionsRoot common.Hash, gasUsed uint64) types.BlockHeader {
	return types.BlockHeader{
		ParentHash:       blockCtx.ParentHash,
		OmmersHash:       crypto.EmptyOmmersHash,
		Beneficiary:      params.FeeCollectorAddress,
		TransactionsRoot: transactionsRoot,
		Number:           blockCtx.Number,
		GasLimit:         blockCtx.GasLimit,
		GasUsed:          gasUsed,
		Timestamp:        blockCtx.Timestamp,
		BaseFeePerGas:    blockCtx.BaseFeePerGas,
	}
}

// selectModel implements §4.1.1 step 3: EOA for undeployed senders,
// Contract when AA is enabled and the sender has bytecode, else
// AANotEnabled.
func (b *Bootloader) selectModel(props *accounts.Properties) (accountmodel.Model, error) {
	if !props.Deployed() {
		return accountmodel.EOA{}, nil
	}
	if !b.cfg.AAEnabled {
		return nil, accountmodel.ErrAANotEnabled
	}
	return accountmodel.Contract{}, nil
}

// resolveEE looks up the ExecutionEnvironment for an already-deployed
// account's own EEKind.
func (b *Bootloader) resolveEE(addr common.Address) (vm.ExecutionEnvironment, error) {
	props := b.io.ReadAccount(addr)
	return b.ees.Resolve(props.EEKind)
}

// resolveDeploymentEE picks the EE a deployment constructs under. Since a
// not-yet-deployed address has no EEKind of its own, this core follows
// tx.Reserved[1] (§6.1: "Reserved[1] (L2): EVM-deploy flag") to choose
// between EVM-style and this core's native deployment target; a nonzero
// flag selects EVM, a zero flag selects EraVM, the native choice the rest
// of the spec's examples assume for non-EVM deployments (an Open Question
// decision recorded in DESIGN.md).
func (b *Bootloader) resolveDeploymentEE(tx *types.Transaction) (vm.ExecutionEnvironment, error) {
	kind := accounts.EEKindEraVM
	if !tx.Reserved[1].IsZero() {
		kind = accounts.EEKindEVM
	}
	return b.ees.Resolve(kind)
}

