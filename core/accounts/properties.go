// Package accounts defines the per-address AccountProperties record (§3)
// and how it is bound into the Merkle tree: properties are not stored
// directly in the tree; their serialized form is hashed and the hash is
// stored at the slot (ACCOUNT_PROPERTIES_STORAGE_ADDRESS, address), with
// the preimage served by the Oracle on first access and verified against
// the hash (§3).
package accounts

import (
	"encoding/binary"

	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/crypto"
)

// EEKind identifies which Execution Environment a deployed account runs
// under (§9 "Dynamic dispatch over EEs": "a tagged-variant enum of the
// known EE kinds").
type EEKind uint8

const (
	EEKindNone EEKind = iota
	EEKindEVM
	EEKindWASM
	EEKindEraVM
	EEKindNativeRISCV
)

// Aux bitmask flags packed into Properties.AuxBitmask.
const (
	AuxFlagDeployed uint32 = 1 << iota
)

// Properties is the per-address record described in §3: versioning data
// (EE kind, code version, deployment status, aux bitmask), nonce, base-token
// balance, usable/observable bytecode hash and length, artifacts length.
type Properties struct {
	EEKind      EEKind
	CodeVersion uint8
	AuxBitmask  uint32

	Nonce   uint64
	Balance *common.U256

	UsableBytecodeHash      common.Hash
	UsableBytecodeLength    uint32
	ObservableBytecodeHash  common.Hash
	ObservableBytecodeLength uint32
	ArtifactsLength          uint32
}

// Deployed reports whether the deployment-status aux flag is set.
func (p *Properties) Deployed() bool { return p.AuxBitmask&AuxFlagDeployed != 0 }

// SetDeployed sets or clears the deployment-status aux flag.
func (p *Properties) SetDeployed(v bool) {
	if v {
		p.AuxBitmask |= AuxFlagDeployed
	} else {
		p.AuxBitmask &^= AuxFlagDeployed
	}
}

// Empty reports whether this is the default zero-value account: the state
// every never-touched address reads as (§3: "a read returns the default
// zero value").
func (p *Properties) Empty() bool {
	return p == nil || (p.Nonce == 0 && (p.Balance == nil || p.Balance.IsZero()) &&
		p.UsableBytecodeLength == 0 && p.EEKind == EEKindNone)
}

// Serialize encodes Properties to the byte form that gets hashed and
// stored as the account's tree-slot value.
func (p *Properties) Serialize() []byte {
	buf := make([]byte, 0, 128)
	buf = append(buf, byte(p.EEKind), p.CodeVersion)
	buf = binary.BigEndian.AppendUint32(buf, p.AuxBitmask)
	buf = binary.BigEndian.AppendUint64(buf, p.Nonce)
	balance := common.ZeroU256()
	if p.Balance != nil {
		balance = p.Balance
	}
	b32 := balance.Bytes32()
	buf = append(buf, b32[:]...)
	buf = append(buf, p.UsableBytecodeHash[:]...)
	buf = binary.BigEndian.AppendUint32(buf, p.UsableBytecodeLength)
	buf = append(buf, p.ObservableBytecodeHash[:]...)
	buf = binary.BigEndian.AppendUint32(buf, p.ObservableBytecodeLength)
	buf = binary.BigEndian.AppendUint32(buf, p.ArtifactsLength)
	return buf
}

// Deserialize parses the byte form produced by Serialize.
func Deserialize(data []byte) (*Properties, error) {
	const minLen = 1 + 1 + 4 + 8 + 32 + 32 + 4 + 32 + 4 + 4
	if len(data) < minLen {
		return nil, errShortAccountEncoding
	}
	p := &Properties{}
	i := 0
	p.EEKind = EEKind(data[i])
	i++
	p.CodeVersion = data[i]
	i++
	p.AuxBitmask = binary.BigEndian.Uint32(data[i : i+4])
	i += 4
	p.Nonce = binary.BigEndian.Uint64(data[i : i+8])
	i += 8
	p.Balance = common.U256FromHash(common.BytesToHash(data[i : i+32]))
	i += 32
	p.UsableBytecodeHash = common.BytesToHash(data[i : i+32])
	i += 32
	p.UsableBytecodeLength = binary.BigEndian.Uint32(data[i : i+4])
	i += 4
	p.ObservableBytecodeHash = common.BytesToHash(data[i : i+32])
	i += 32
	p.ObservableBytecodeLength = binary.BigEndian.Uint32(data[i : i+4])
	i += 4
	p.ArtifactsLength = binary.BigEndian.Uint32(data[i : i+4])
	return p, nil
}

// Hash returns the hash stored at the account's tree slot: the digest of
// its serialized form (§3).
func (p *Properties) Hash() common.Hash {
	return crypto.PreimageHash(p.Serialize())
}

var errShortAccountEncoding = shortEncodingError{}

type shortEncodingError struct{}

func (shortEncodingError) Error() string { return "accounts: account properties encoding too short" }
