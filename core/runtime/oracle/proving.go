package oracle

import (
	"encoding/binary"
	"fmt"

	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/core/types"
)

// query tags identify the request kind written to the CSR tape, mirroring
// the Oracle interface's method set one-for-one (§6.2).
const (
	queryNextTransaction byte = iota
	queryBlockMetadata
	queryPreimage
	queryLeafIndex
	queryPredecessorIndex
	queryMerklePath
	queryInitialStateCommitment
)

// Tape is the length-prefixed query/response wire a real proving-mode
// runtime exposes as a single CSR at address 0x7c0 (§6.2): writes append a
// query, the next Read returns that query's response. This type models the
// transport only; ProvingOracle drives it with typed requests.
type Tape struct {
	responses [][]byte
	cursor    int
	// queries records each outgoing length-prefixed query, appended by
	// write; this type only records them for inspection/testing and is not
	// wired to a CSR memory-mapped register.
	queries [][]byte
}

// NewTape builds an empty tape pre-loaded with responses, consumed in
// order as ProvingOracle issues queries. A test harness constructs the
// expected response sequence; a real prover host process answers queries
// live instead.
func NewTape(responses [][]byte) *Tape { return &Tape{responses: responses} }

func (t *Tape) write(query []byte) {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(query)))
	t.queries = append(t.queries, append(length, query...))
}

func (t *Tape) read() ([]byte, error) {
	if t.cursor >= len(t.responses) {
		return nil, fmt.Errorf("oracle: tape exhausted at query %d", t.cursor)
	}
	resp := t.responses[t.cursor]
	t.cursor++
	return resp, nil
}

// ProvingOracle implements Oracle over a Tape, for the proving-mode build
// where the Oracle is the sole source of non-determinism and every
// response must be verified by the caller before use (§6.2, §6.1).
type ProvingOracle struct {
	tape *Tape
}

// NewProvingOracle wraps tape.
func NewProvingOracle(tape *Tape) *ProvingOracle { return &ProvingOracle{tape: tape} }

func (o *ProvingOracle) NextTransaction() ([]byte, bool) {
	o.tape.write([]byte{queryNextTransaction})
	resp, err := o.tape.read()
	if err != nil || len(resp) == 0 {
		return nil, false
	}
	return resp, true
}

func (o *ProvingOracle) BlockMetadata() types.BlockContext {
	o.tape.write([]byte{queryBlockMetadata})
	resp, err := o.tape.read()
	if err != nil {
		return types.BlockContext{}
	}
	return decodeBlockContext(resp)
}

func (o *ProvingOracle) Preimage(hash common.Hash) ([]byte, bool) {
	o.tape.write(append([]byte{queryPreimage}, hash[:]...))
	resp, err := o.tape.read()
	if err != nil {
		return nil, false
	}
	return resp, true
}

func (o *ProvingOracle) LeafIndex(key common.Hash) (uint64, bool) {
	o.tape.write(append([]byte{queryLeafIndex}, key[:]...))
	resp, err := o.tape.read()
	if err != nil || len(resp) != 9 {
		return 0, false
	}
	return binary.BigEndian.Uint64(resp[:8]), resp[8] != 0
}

func (o *ProvingOracle) PredecessorIndex(key common.Hash) uint64 {
	o.tape.write(append([]byte{queryPredecessorIndex}, key[:]...))
	resp, err := o.tape.read()
	if err != nil || len(resp) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(resp)
}

func (o *ProvingOracle) MerklePath(leafIndex uint64) []common.Hash {
	idx := make([]byte, 8)
	binary.BigEndian.PutUint64(idx, leafIndex)
	o.tape.write(append([]byte{queryMerklePath}, idx...))
	resp, err := o.tape.read()
	if err != nil || len(resp)%32 != 0 {
		return nil
	}
	out := make([]common.Hash, len(resp)/32)
	for i := range out {
		copy(out[i][:], resp[i*32:(i+1)*32])
	}
	return out
}

func (o *ProvingOracle) InitialStateCommitment() (common.Hash, uint64) {
	o.tape.write([]byte{queryInitialStateCommitment})
	resp, err := o.tape.read()
	if err != nil || len(resp) != 40 {
		return common.Hash{}, 0
	}
	var root common.Hash
	copy(root[:], resp[:32])
	return root, binary.BigEndian.Uint64(resp[32:])
}

func decodeBlockContext(resp []byte) types.BlockContext {
	if len(resp) < 8+8+8+32+32 {
		return types.BlockContext{}
	}
	var ctx types.BlockContext
	ctx.Number = binary.BigEndian.Uint64(resp[0:8])
	ctx.Timestamp = binary.BigEndian.Uint64(resp[8:16])
	ctx.GasLimit = binary.BigEndian.Uint64(resp[16:24])
	baseFee := common.U256FromHash(common.BytesToHash(resp[24:56]))
	ctx.BaseFeePerGas = baseFee
	ctx.ParentHash = common.BytesToHash(resp[56:88])
	return ctx
}
