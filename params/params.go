// Package params holds the Bootloader's feature flags and the protocol
// constants (special addresses, gas/pubdata prices, tree depth) that every
// layer of the core reads. It plays the role the teacher's
// params.ChainConfig plays for go-ethereum: a plain struct of booleans and
// thresholds, queried directly rather than through a service.
package params

import "github.com/matter-labs/zksync-os/common"

// TreeDepth is the fixed depth of the growable Merkle tree (§3).
const TreeDepth = 64

// SpecialAddressSpaceBound is the exclusive upper bound of the reserved
// low address range used for system hooks and system contracts (§3).
const SpecialAddressSpaceBound = 0x10000

// FeeCollectorAddress is the formal address that collects transaction fees
// (§3: "conventionally 0x8001").
var FeeCollectorAddress = common.BytesToAddress([]byte{0x80, 0x01})

// AccountPropertiesStorageAddress is the special address whose slots store
// the hash of each account's serialized AccountProperties (§3).
var AccountPropertiesStorageAddress = common.BytesToAddress([]byte{0x80, 0x02})

// L1MessengerAddress, BaseTokenAddress, and ContractDeployerAddress are the
// system-contract hook addresses dispatched in §4.7.
var (
	L1MessengerAddress      = common.BytesToAddress([]byte{0x80, 0x08})
	BaseTokenAddress        = common.BytesToAddress([]byte{0x80, 0x0a})
	ContractDeployerAddress = common.BytesToAddress([]byte{0x80, 0x06})
)

// Precompile addresses dispatched in §4.7.
var (
	EcrecoverAddress      = common.BytesToAddress([]byte{0x01})
	Sha256Address         = common.BytesToAddress([]byte{0x02})
	Ripemd160Address      = common.BytesToAddress([]byte{0x03})
	IdentityAddress       = common.BytesToAddress([]byte{0x04})
	ModexpAddress         = common.BytesToAddress([]byte{0x05})
	Bn254AddAddress       = common.BytesToAddress([]byte{0x06})
	Bn254MulAddress       = common.BytesToAddress([]byte{0x07})
	Bn254PairingAddress   = common.BytesToAddress([]byte{0x08})
	P256VerifyAddress     = common.BytesToAddress([]byte{0x01, 0x00})
)

// Config mirrors the teacher's params.ChainConfig: a plain struct of
// feature-activation flags queried by the bootloader and runner (§4.1).
type Config struct {
	// OnlySimulate skips validation; used for off-chain call simulation.
	OnlySimulate bool
	// AAEnabled permits smart-contract account models and paymasters.
	AAEnabled bool
	// CodeInKernelSpace allows normal contract execution at addresses in
	// the special range.
	CodeInKernelSpace bool
	// TransfersToKernelSpace allows token transfers to the special range.
	TransfersToKernelSpace bool
	// ChargePriorityFee includes EIP-1559 priority fee charging.
	ChargePriorityFee bool
	// DisableSystemContracts skips system-contract hooks.
	DisableSystemContracts bool

	// BlockGasLimit bounds a transaction's declared gas_limit (§4.1.1 step 2).
	BlockGasLimit uint64
	// GasPerPubdataByte is the ergs-per-pubdata-byte exchange rate the
	// bootloader uses for every transaction's validation pubdata estimate; a
	// transaction's own gas_per_pubdata_limit only sizes its pubdata counter.
	GasPerPubdataByte uint64
}

// DefaultConfig returns a Config with conservative defaults matching a
// production L2 block (AA and priority fees enabled, system contracts on).
func DefaultConfig() Config {
	return Config{
		AAEnabled:         true,
		ChargePriorityFee: true,
		BlockGasLimit:     30_000_000,
		GasPerPubdataByte: 16,
	}
}

// Intrinsic gas constants (§4.1.1 step 2).
const (
	IntrinsicGasBase           = 21_000
	IntrinsicGasZeroByte       = 4
	IntrinsicGasNonZeroByte    = 16
	IntrinsicGasAccessListByte = 16
	IntrinsicGasDeployExtra    = 32_000
	MaxInitCodeSize            = 49_152
	MaxContractSize            = 24_576
	CallStackDepthLimit        = 1_024
	CallRetentionNumerator     = 63
	CallRetentionDenominator   = 64
)
