package oracle

import (
	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/core/state"
	"github.com/matter-labs/zksync-os/core/types"
)

// ForwardOracle backs the Oracle interface with direct access to an
// IOSubsystem and an in-memory transaction queue, standing in for the
// "direct database access" forward mode described in §6.2. There is
// nothing to verify here since the data source is trusted outright; the
// verification steps documented on the Oracle interface only matter to
// ProvingOracle.
type ForwardOracle struct {
	io      *state.IOSubsystem
	block   types.BlockContext
	pending [][]byte
	next    int
}

// NewForwardOracle builds a forward-mode oracle over io, serving txs in
// order and reporting block as the current block's metadata.
func NewForwardOracle(io *state.IOSubsystem, block types.BlockContext, txs [][]byte) *ForwardOracle {
	return &ForwardOracle{io: io, block: block, pending: txs}
}

func (o *ForwardOracle) NextTransaction() ([]byte, bool) {
	if o.next >= len(o.pending) {
		return nil, false
	}
	tx := o.pending[o.next]
	o.next++
	return tx, true
}

func (o *ForwardOracle) BlockMetadata() types.BlockContext { return o.block }

func (o *ForwardOracle) Preimage(hash common.Hash) ([]byte, bool) { return o.io.GetPreimage(hash) }

func (o *ForwardOracle) LeafIndex(key common.Hash) (uint64, bool) {
	return o.io.Tree().LeafIndex(key)
}

func (o *ForwardOracle) PredecessorIndex(key common.Hash) uint64 {
	return o.io.Tree().PredecessorIndex(key)
}

func (o *ForwardOracle) MerklePath(leafIndex uint64) []common.Hash {
	return o.io.Tree().MerklePath(leafIndex)
}

func (o *ForwardOracle) InitialStateCommitment() (common.Hash, uint64) {
	return o.io.Tree().Commitment()
}
