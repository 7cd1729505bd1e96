package params

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigEnablesProductionDefaults(t *testing.T) {
	cfg := DefaultConfig()

	require.True(t, cfg.AAEnabled)
	require.True(t, cfg.ChargePriorityFee)
	require.False(t, cfg.OnlySimulate)
	require.False(t, cfg.DisableSystemContracts)
	require.Equal(t, uint64(30_000_000), cfg.BlockGasLimit)
	require.Equal(t, uint64(16), cfg.GasPerPubdataByte)
}

func TestSpecialAddressesAreDistinct(t *testing.T) {
	addrs := []struct {
		name string
		addr [20]byte
	}{
		{"FeeCollector", FeeCollectorAddress},
		{"AccountPropertiesStorage", AccountPropertiesStorageAddress},
		{"L1Messenger", L1MessengerAddress},
		{"BaseToken", BaseTokenAddress},
		{"ContractDeployer", ContractDeployerAddress},
		{"Ecrecover", EcrecoverAddress},
		{"Sha256", Sha256Address},
		{"Ripemd160", Ripemd160Address},
		{"Identity", IdentityAddress},
		{"Modexp", ModexpAddress},
		{"Bn254Add", Bn254AddAddress},
		{"Bn254Mul", Bn254MulAddress},
		{"Bn254Pairing", Bn254PairingAddress},
		{"P256Verify", P256VerifyAddress},
	}

	seen := make(map[[20]byte]string, len(addrs))
	for _, a := range addrs {
		if other, ok := seen[a.addr]; ok {
			t.Fatalf("%s collides with %s", a.name, other)
		}
		seen[a.addr] = a.name
	}
}

func TestPrecompileAddressesFitBelowSpecialAddressSpaceBound(t *testing.T) {
	addrs := [][20]byte{
		EcrecoverAddress, Sha256Address, Ripemd160Address, IdentityAddress,
		ModexpAddress, Bn254AddAddress, Bn254MulAddress, Bn254PairingAddress,
	}
	for _, a := range addrs {
		var v uint32
		for _, b := range a {
			v = v<<8 | uint32(b)
		}
		require.Less(t, v, uint32(SpecialAddressSpaceBound))
	}
}
