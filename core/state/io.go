package state

import (
	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/core/accounts"
	"github.com/matter-labs/zksync-os/core/types"
)

// OracleReader is the subset of core/runtime/oracle.Oracle (§6.2) the IO
// subsystem itself consults: the genesis commitment and the hash -> bytes
// preimage channel. Declared here rather than imported from
// core/runtime/oracle to avoid a state <-> oracle import cycle (that
// package's ForwardOracle wraps an *IOSubsystem the other way around).
type OracleReader interface {
	Preimage(hash common.Hash) ([]byte, bool)
	InitialStateCommitment() (root common.Hash, nextFree uint64)
}

// IOSubsystem composes the four rollbackable storages named in §4.4 (main
// storage via SlotCache/AccountCache, transient storage, events storage,
// logs storage) plus the preimage cache and the backing GrowableTree, under
// one monotonically increasing frame counter. Every nested call frame in
// the Runner (§4.2) gets a frame id from BeginFrame; RollbackFrame or
// CommitFrame close it out uniformly across every storage at once, which is
// the entire point of building slot/account/transient/event/log storage on
// the same History skeleton (spec.md §9).
type IOSubsystem struct {
	tree      *GrowableTree
	preimages *PreimageCache
	slots     *SlotCache
	accounts  *AccountCache
	transient *TransientStorage
	events    *EventLog
	logs      *L2ToL1LogStore

	nextFrame int

	// genesisRoot/genesisNextFree record the Oracle's initial commitment
	// (§6.2) when this subsystem was built via NewIOSubsystemFromOracle, so
	// callers can sanity-check a replayed leaf set against it. Both stay
	// zero-valued otherwise.
	genesisRoot     common.Hash
	genesisNextFree uint64
}

// GenesisCommitment returns the (root, next_free) pair this subsystem was
// seeded from via NewIOSubsystemFromOracle, or the zero value if it was
// built with NewIOSubsystem instead.
func (io *IOSubsystem) GenesisCommitment() (common.Hash, uint64) {
	return io.genesisRoot, io.genesisNextFree
}

// NewIOSubsystem builds an IO subsystem over a fresh, empty tree and no
// Oracle fallback — the state of a brand-new chain, and what forward mode
// always wants (its Oracle is itself built from this same IOSubsystem, see
// cmd/zkcore-run/main.go). NewIOSubsystemFromOracle below is the
// proving-mode counterpart.
func NewIOSubsystem() *IOSubsystem {
	tree := NewGrowableTree()
	preimages := NewPreimageCache()
	return &IOSubsystem{
		tree:      tree,
		preimages: preimages,
		slots:     NewSlotCache(tree),
		accounts:  NewAccountCache(tree, preimages),
		transient: NewTransientStorage(),
		events:    NewEventLog(),
		logs:      NewL2ToL1LogStore(),
		nextFrame: 1, // 0 is reserved for the block's own base frame
	}
}

// NewIOSubsystemFromOracle builds an IO subsystem whose preimage cache falls
// back to o on a local miss (§6.2), the wiring proving mode needs: a
// ProvingOracle's tape is the sole source of preimages the prover doesn't
// already hold locally, so a CSR read that misses the in-memory cache must
// still resolve instead of silently returning false.
//
// The tree itself still starts empty. o.InitialStateCommitment() is the
// genesis (root, next_free) pair, but GrowableTree is an in-memory sparse
// tree that computes node hashes bottom-up from the full materialized leaf
// set (tree.go) — a commitment alone carries no leaves to reconstruct from.
// Replaying the touched-key set into the tree remains the caller's job
// before this subsystem can serve reads for keys older than this run.
func NewIOSubsystemFromOracle(o OracleReader) *IOSubsystem {
	io := NewIOSubsystem()
	io.preimages.bindOracle(o)
	io.genesisRoot, io.genesisNextFree = o.InitialStateCommitment()
	return io
}

// BeginFrame allocates a new frame id for a nested call (§4.2: every
// CallRequest/CreateRequest pushes a frame). Writes performed while this
// frame is open must be recorded under the returned id.
func (io *IOSubsystem) BeginFrame() int {
	id := io.nextFrame
	io.nextFrame++
	return id
}

// RollbackFrame discards every change recorded under frameID across all
// four storages, the single operation that makes a reverted call or a
// failed transaction's side effects vanish (§3, §4.2 CallCompleted
// success=false).
func (io *IOSubsystem) RollbackFrame(frameID int) {
	io.slots.Rollback(frameID)
	io.accounts.Rollback(frameID)
	io.transient.Rollback(frameID)
	io.events.Rollback(frameID)
	io.logs.Rollback(frameID)
	io.preimages.Rollback(frameID)
}

// CommitFrame folds every change recorded under frameID into parentFrameID,
// so that a later rollback of parentFrameID still discards them (§4.2
// CallCompleted success=true).
func (io *IOSubsystem) CommitFrame(frameID, parentFrameID int) {
	io.slots.Commit(frameID, parentFrameID)
	io.accounts.Commit(frameID, parentFrameID)
	io.transient.Commit(frameID, parentFrameID)
	io.events.Commit(frameID, parentFrameID)
	io.logs.Commit(frameID, parentFrameID)
	io.preimages.Commit(frameID, parentFrameID)
}

// BeginTx resets the "created this tx" set ahead of running a new
// transaction. Transient storage is not touched here; EndTx clears it.
func (io *IOSubsystem) BeginTx() {
	io.accounts.BeginTx()
}

// EndTx applies queued self-destructs, clears transient storage, and drains
// the events/logs accumulated this transaction for receipt assembly (§4.1.1
// step 14, §4.5).
func (io *IOSubsystem) EndTx(frameID int) (destroyed []common.Address, events []types.Log, messages []types.L2ToL1Message) {
	destroyed = io.accounts.ApplyQueuedSelfDestructs(frameID)
	io.transient.Clear()
	events = io.events.DrainTx()
	messages = io.logs.DrainTx()
	return destroyed, events, messages
}

// ReadSlot/WriteSlot access main storage slots keyed by the packed tree key
// (§3: crypto.SlotTreeKey combines address and in-account key).
func (io *IOSubsystem) ReadSlot(treeKey common.Hash) common.Hash { return io.slots.Read(treeKey) }
func (io *IOSubsystem) WriteSlot(treeKey, value common.Hash, frameID int) {
	io.slots.Write(treeKey, value, frameID)
}

// ReadAccount/WriteAccount access account properties (§3).
func (io *IOSubsystem) ReadAccount(addr common.Address) *accounts.Properties { return io.accounts.Read(addr) }
func (io *IOSubsystem) WriteAccount(addr common.Address, props *accounts.Properties, frameID int) {
	io.accounts.Write(addr, props, frameID)
}

// MarkCreated/CreatedThisTx expose the EIP-6780 same-tx bookkeeping.
func (io *IOSubsystem) MarkCreated(addr common.Address)     { io.accounts.MarkCreated(addr) }
func (io *IOSubsystem) CreatedThisTx(addr common.Address) bool { return io.accounts.CreatedThisTx(addr) }

// QueueSelfDestruct marks addr for destruction at transaction end (§4.5).
func (io *IOSubsystem) QueueSelfDestruct(addr, beneficiary common.Address, frameID int) {
	io.accounts.QueueSelfDestruct(addr, beneficiary, frameID)
}

// ReadTransient/WriteTransient access EIP-1153-style transient storage.
func (io *IOSubsystem) ReadTransient(treeKey common.Hash) common.Hash { return io.transient.Read(treeKey) }
func (io *IOSubsystem) WriteTransient(treeKey, value common.Hash, frameID int) {
	io.transient.Write(treeKey, value, frameID)
}

// EmitEvent/EmitMessage append to the ordered, rollbackable events/logs
// storages (§4.4).
func (io *IOSubsystem) EmitEvent(entry types.Log, frameID int) { io.events.Append(entry, frameID) }
func (io *IOSubsystem) EmitMessage(msg types.L2ToL1Message, frameID int) {
	io.logs.Append(msg, frameID)
}

// GetPreimage/PublishPreimage access the hash -> bytes cache (§4.4.2).
func (io *IOSubsystem) GetPreimage(hash common.Hash) ([]byte, bool) { return io.preimages.Get(hash) }
func (io *IOSubsystem) PublishPreimage(hash common.Hash, data []byte, frameID int) {
	io.preimages.Publish(hash, data, frameID)
}

// Tree exposes the backing GrowableTree read-only, for leaf-index and
// commitment queries the Bootloader needs directly (§4.4.1).
func (io *IOSubsystem) Tree() *GrowableTree { return io.tree }

// FinalizeResult is everything block finalization needs out of the IO
// subsystem (§4.4.3): the new commitment, the slot/account diffs to publish
// as pubdata, and the preimages newly published this block.
type FinalizeResult struct {
	NewRoot        common.Hash
	NewNextFree    uint64
	SlotDiffs      []SlotDiff
	AccountDiffs   []AccountDiff
	Preimages      map[common.Hash][]byte
}

// Finalize writes every touched slot and account into the backing tree and
// reports the resulting commitment plus diffs, for both forward mode (where
// this is simply applied) and proving mode (where the same diffs are
// additionally hashed into the public input, §4.4.3).
func (io *IOSubsystem) Finalize() FinalizeResult {
	slotDiffs := io.slots.Diffs()
	accountDiffs := io.accounts.Diffs()
	io.slots.Apply()
	io.accounts.Apply()
	root, nextFree := io.tree.Commitment()
	return FinalizeResult{
		NewRoot:      root,
		NewNextFree:  nextFree,
		SlotDiffs:    slotDiffs,
		AccountDiffs: accountDiffs,
		Preimages:    io.preimages.PublishedPreimages(),
	}
}
