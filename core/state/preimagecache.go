package state

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/crypto"
)

const preimageCacheSize = 4096

// PreimageCache is hash -> bytes (bytecode, serialized AccountProperties),
// plus a publication substructure that counts uses per frame (§4.4.2). On
// rollback, use counts pushed in the reverted frame are decremented; on
// block finalize, only preimages with non-zero use counts are published to
// pubdata.
//
// The hash->bytes half is an LRU (preimages can be arbitrarily large
// bytecode blobs re-touched across many transactions in a block; an
// unbounded map would defeat the point of a cache), backed by
// hashicorp/golang-lru/v2 per the teacher's go.mod golang-lru dependency.
// The use-count half needs exact rollback semantics, so it uses the
// History skeleton rather than the LRU.
type PreimageCache struct {
	bytes    *lru.Cache[common.Hash, []byte]
	useCount *History[common.Hash, int]

	// oracle backs a local miss with the Oracle's own preimage channel
	// (§6.2), nil outside NewIOSubsystemFromOracle. A response is verified
	// against hash before it is trusted and cached, same as any other
	// untrusted oracle answer (§6.2 "responses must be verified").
	oracle OracleReader
}

// NewPreimageCache builds an empty preimage cache with no oracle fallback.
func NewPreimageCache() *PreimageCache {
	c, err := lru.New[common.Hash, []byte](preimageCacheSize)
	if err != nil {
		panic(err)
	}
	return &PreimageCache{bytes: c, useCount: NewHistory[common.Hash, int]()}
}

// bindOracle wires o as the fallback source for Get on a local miss.
func (p *PreimageCache) bindOracle(o OracleReader) { p.oracle = o }

// Get returns the cached preimage for hash, if known. On a local miss with
// an oracle bound, it asks the oracle, checks the response actually hashes
// to hash, and caches it before returning (§6.2).
func (p *PreimageCache) Get(hash common.Hash) ([]byte, bool) {
	if data, ok := p.bytes.Get(hash); ok {
		return data, true
	}
	if p.oracle == nil {
		return nil, false
	}
	data, ok := p.oracle.Preimage(hash)
	if !ok || crypto.PreimageHash(data) != hash {
		return nil, false
	}
	p.bytes.Add(hash, data)
	return data, true
}

// Publish records data under hash and marks it used within frameID. The
// byte cache is not itself rollbackable (bytes for a hash never change,
// since hash is the preimage's own digest); only the use-count signals
// whether this block actually needs to publish it.
func (p *PreimageCache) Publish(hash common.Hash, data []byte, frameID int) {
	if _, ok := p.bytes.Get(hash); !ok {
		p.bytes.Add(hash, data)
	}
	count, _ := p.useCount.Get(hash)
	p.useCount.Set(hash, count+1, frameID)
}

// Rollback decrements use counts recorded in frames at or after base,
// per §4.4.2 ("On rollback, decrement use counts for hashes pushed in the
// reverted frame").
func (p *PreimageCache) Rollback(base int) { p.useCount.Rollback(base) }

// Commit collapses use-count changes into the enclosing frame.
func (p *PreimageCache) Commit(base, newBase int) { p.useCount.Commit(base, newBase) }

// PublishedPreimages returns every (hash, bytes) pair with a non-zero use
// count, for pubdata publication at block finalize (§4.4.2, §4.4.3).
func (p *PreimageCache) PublishedPreimages() map[common.Hash][]byte {
	out := make(map[common.Hash][]byte)
	for hash, count := range p.useCount.Touched() {
		if count <= 0 {
			continue
		}
		if data, ok := p.bytes.Get(hash); ok {
			out[hash] = data
		}
	}
	return out
}
