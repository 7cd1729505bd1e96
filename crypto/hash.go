// Package crypto holds the pure cryptographic collaborators the core
// consumes but does not own: hashing used to key tree leaves and preimages,
// and the RLP-shaped constants needed for the Ethereum-compatible block
// header. secp256k1 signature recovery (RecoverAddress, signature.go) also
// lives here and is shared by core/accountmodel and core/vm; the other
// precompile kernels (bn254, modexp, ...) live next to their caller in
// core/vm, since they are invoked as pure functions over explicit inputs
// there.
package crypto

import (
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/matter-labs/zksync-os/common"
)

// Keccak256 hashes data with Keccak-256, used for usable/observable
// bytecode hashes and EVM-shaped addresses (crypto.CreateAddress-style
// derivations in core/accountmodel).
func Keccak256(data ...[]byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out common.Hash
	h.Sum(out[:0])
	return out
}

// TreeHash is the prover-friendly hash used throughout core/state to key
// tree leaves (§3: "a fixed 32-byte digest ... under a prover-friendly
// hash") and to fold Merkle paths. The real system binds this to a
// Poseidon2-shaped arithmetization-friendly hash; this core is deliberately
// agnostic to that choice and isolates it behind this single function so a
// prover-grade implementation can be swapped in without touching the tree,
// cache, or bootloader logic that calls it.
func TreeHash(left, right common.Hash) common.Hash {
	h, _ := blake2b.New256(nil)
	h.Write(left[:])
	h.Write(right[:])
	var out common.Hash
	h.Sum(out[:0])
	return out
}

// SlotTreeKey derives the tree key for a (address, key) storage slot: the
// fixed 32-byte digest of (address || key) per §3.
func SlotTreeKey(addr common.Address, key common.Hash) common.Hash {
	h, _ := blake2b.New256(nil)
	h.Write(addr[:])
	h.Write(key[:])
	var out common.Hash
	h.Sum(out[:0])
	return out
}

// PreimageHash hashes an arbitrary byte preimage (bytecode, serialized
// AccountProperties) to the digest stored in the tree/cache.
func PreimageHash(data []byte) common.Hash {
	return Keccak256(data)
}
