package crypto

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/matter-labs/zksync-os/common"
)

// RecoverAddress recovers the secp256k1 signer address from hash and a
// 65-byte (r ‖ s ‖ v) signature, v ∈ {0, 1, 27, 28}, used by the EOA
// account model's validation step (§4.5) and the ecrecover precompile
// (§4.7), via btcec.
func RecoverAddress(hash common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != 65 {
		return common.Address{}, fmt.Errorf("crypto: signature must be 65 bytes, got %d", len(sig))
	}
	v := sig[64]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return common.Address{}, fmt.Errorf("crypto: invalid recovery id %d", sig[64])
	}
	compact := make([]byte, 65)
	compact[0] = v + 27 + 4 // btcec compact-signature recovery-id convention (compressed pubkey)
	copy(compact[1:33], sig[0:32])
	copy(compact[33:65], sig[32:64])
	pub, _, err := ecdsa.RecoverCompact(compact, hash[:])
	if err != nil {
		return common.Address{}, fmt.Errorf("crypto: signature recovery failed: %w", err)
	}
	return PublicKeyToAddress(pub), nil
}

// PublicKeyToAddress derives the 160-bit address from an uncompressed
// secp256k1 public key: the low 20 bytes of Keccak256 of its 64-byte
// (x ‖ y) encoding, matching Ethereum's address derivation.
func PublicKeyToAddress(pub *btcec.PublicKey) common.Address {
	uncompressed := pub.SerializeUncompressed() // 0x04 ‖ x ‖ y
	hash := Keccak256(uncompressed[1:])
	return common.BytesToAddress(hash[12:])
}
