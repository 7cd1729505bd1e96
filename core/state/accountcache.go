package state

import (
	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/core/accounts"
	"github.com/matter-labs/zksync-os/crypto"
	"github.com/matter-labs/zksync-os/params"
)

// AccountCache is address -> AccountProperties, with the same history
// discipline as SlotCache, plus a self-destruct queue applied only at
// transaction end (§4.4.2: "EIP-6780: deconstruction applied at tx end
// only").
type AccountCache struct {
	hist        *History[common.Address, *accounts.Properties]
	tree        *GrowableTree
	preimages   *PreimageCache
	selfDestruct *History[common.Address, selfDestructEntry]
	// createdThisTx tracks addresses deployed within the current
	// transaction (SPEC_FULL.md §4: EIP-6780 same-tx bookkeeping), reset
	// at the start of each transaction by the caller. ApplyQueuedSelfDestructs
	// does not consult it.
	createdThisTx map[common.Address]bool
}

type selfDestructEntry struct {
	queued    bool
	beneficiary common.Address
}

// NewAccountCache wraps tree with a rollbackable account-properties cache.
func NewAccountCache(tree *GrowableTree, preimages *PreimageCache) *AccountCache {
	return &AccountCache{
		hist:          NewHistory[common.Address, *accounts.Properties](),
		tree:          tree,
		preimages:     preimages,
		selfDestruct:  NewHistory[common.Address, selfDestructEntry](),
		createdThisTx: make(map[common.Address]bool),
	}
}

// BeginTx resets the per-transaction "created this tx" bookkeeping.
func (c *AccountCache) BeginTx() {
	c.createdThisTx = make(map[common.Address]bool)
}

// MarkCreated records that addr was deployed within the current transaction.
func (c *AccountCache) MarkCreated(addr common.Address) {
	c.createdThisTx[addr] = true
}

// CreatedThisTx reports whether addr was deployed within the current
// transaction.
func (c *AccountCache) CreatedThisTx(addr common.Address) bool {
	return c.createdThisTx[addr]
}

// accountTreeKey derives the tree key an account's properties hash is
// stored at: (ACCOUNT_PROPERTIES_STORAGE_ADDRESS, address) per §3.
func accountTreeKey(addr common.Address) common.Hash {
	var addrAsHash common.Hash
	copy(addrAsHash[common.HashLength-common.AddressLength:], addr[:])
	return crypto.SlotTreeKey(params.AccountPropertiesStorageAddress, addrAsHash)
}

// Read returns addr's current properties, materializing lazily from the
// tree + preimage cache on first touch (§3: "Accounts materialize lazily
// on first touch and persist for the block").
func (c *AccountCache) Read(addr common.Address) *accounts.Properties {
	if p, ok := c.hist.Get(addr); ok {
		return p
	}
	treeKey := accountTreeKey(addr)
	hash, exists := c.tree.Read(treeKey)
	if !exists || hash.IsZero() {
		return &accounts.Properties{}
	}
	preimage, ok := c.preimages.Get(hash)
	if !ok {
		return &accounts.Properties{}
	}
	props, err := accounts.Deserialize(preimage)
	if err != nil {
		return &accounts.Properties{}
	}
	return props
}

// Write records addr's new properties at the given frame id and publishes
// the serialized preimage so its hash can be verified by later readers
// (§3: "the preimage is served by the Oracle on first access and verified
// against the hash").
func (c *AccountCache) Write(addr common.Address, props *accounts.Properties, frameID int) {
	c.hist.Set(addr, props, frameID)
	serialized := props.Serialize()
	c.preimages.Publish(crypto.PreimageHash(serialized), serialized, frameID)
}

// QueueSelfDestruct marks addr for destruction at transaction end, sending
// its balance to beneficiary (§4.2 CallCompleted step 1, §4.5).
func (c *AccountCache) QueueSelfDestruct(addr, beneficiary common.Address, frameID int) {
	c.selfDestruct.Set(addr, selfDestructEntry{queued: true, beneficiary: beneficiary}, frameID)
}

// ApplyQueuedSelfDestructs destroys every address queued for destruction
// this transaction, called once at transaction end (§4.5). Addresses
// queued in a frame that was later rolled back never reach here: the
// queue entry vanishes along with the rest of that frame's writes
// (Open Question (ii), spec.md §9).
func (c *AccountCache) ApplyQueuedSelfDestructs(frameID int) []common.Address {
	var destroyed []common.Address
	for addr, entry := range c.selfDestruct.Touched() {
		if !entry.queued {
			continue
		}
		victim := c.Read(addr)
		beneficiary := c.Read(entry.beneficiary)
		if victim.Balance != nil && !victim.Balance.IsZero() {
			newBeneficiaryBalance := new(common.U256).Add(orZero(beneficiary.Balance), victim.Balance)
			beneficiary.Balance = newBeneficiaryBalance
			c.Write(entry.beneficiary, beneficiary, frameID)
		}
		c.Write(addr, &accounts.Properties{}, frameID)
		destroyed = append(destroyed, addr)
	}
	c.selfDestruct = NewHistory[common.Address, selfDestructEntry]()
	return destroyed
}

func orZero(v *common.U256) *common.U256 {
	if v == nil {
		return common.ZeroU256()
	}
	return v
}

// Rollback discards every account and self-destruct change recorded at or
// after base.
func (c *AccountCache) Rollback(base int) {
	c.hist.Rollback(base)
	c.selfDestruct.Rollback(base)
}

// Commit collapses account and self-destruct changes into the enclosing
// frame.
func (c *AccountCache) Commit(base, newBase int) {
	c.hist.Commit(base, newBase)
	c.selfDestruct.Commit(base, newBase)
}

// Apply writes every touched account's properties hash into the backing
// tree. Called once at block finalization (§4.4.3).
func (c *AccountCache) Apply() {
	for addr, props := range c.hist.Touched() {
		treeKey := accountTreeKey(addr)
		c.tree.Write(treeKey, props.Hash())
	}
}

// Diffs returns every (address, originalHash, currentHash) pair touched
// this block.
func (c *AccountCache) Diffs() []AccountDiff {
	touched := c.hist.Touched()
	out := make([]AccountDiff, 0, len(touched))
	for addr, cur := range touched {
		orig, hasOrig := c.hist.Original(addr)
		var origHash common.Hash
		if hasOrig && orig != nil {
			origHash = orig.Hash()
		}
		curHash := cur.Hash()
		if origHash == curHash {
			continue
		}
		out = append(out, AccountDiff{Address: addr, OriginalHash: origHash, CurrentHash: curHash})
	}
	return out
}

// AccountDiff is one changed account at block finalization.
type AccountDiff struct {
	Address      common.Address
	OriginalHash common.Hash
	CurrentHash  common.Hash
}
