package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBytesToAddressRightAligns(t *testing.T) {
	a := BytesToAddress([]byte{1, 2, 3})
	require.Equal(t, byte(1), a[AddressLength-3])
	require.Equal(t, byte(2), a[AddressLength-2])
	require.Equal(t, byte(3), a[AddressLength-1])
	for i := 0; i < AddressLength-3; i++ {
		require.Zero(t, a[i])
	}
}

func TestBytesToAddressTruncatesFromTheLeft(t *testing.T) {
	long := make([]byte, AddressLength+5)
	for i := range long {
		long[i] = byte(i + 1)
	}
	a := BytesToAddress(long)
	require.Equal(t, long[5:], a[:])
}

func TestBytesToHashRightAligns(t *testing.T) {
	h := BytesToHash([]byte{0xAA, 0xBB})
	require.Equal(t, byte(0xAA), h[HashLength-2])
	require.Equal(t, byte(0xBB), h[HashLength-1])
}

func TestAddressIsZero(t *testing.T) {
	require.True(t, Address{}.IsZero())
	require.False(t, BytesToAddress([]byte{1}).IsZero())
}

func TestHashIsZero(t *testing.T) {
	require.True(t, Hash{}.IsZero())
	require.False(t, BytesToHash([]byte{1}).IsZero())
}

func TestAddressCmp(t *testing.T) {
	low := BytesToAddress([]byte{1})
	high := BytesToAddress([]byte{2})
	require.Equal(t, -1, low.Cmp(high))
	require.Equal(t, 1, high.Cmp(low))
	require.Equal(t, 0, low.Cmp(low))
}

func TestAddressHexRoundTrip(t *testing.T) {
	a := BytesToAddress([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	got, err := HexToAddress(a.Hex())
	require.NoError(t, err)
	require.Equal(t, a, got)
}

func TestHexToHashAcceptsBareAndPrefixed(t *testing.T) {
	want := BytesToHash([]byte{0x01, 0x02})
	withPrefix, err := HexToHash(want.Hex())
	require.NoError(t, err)
	require.Equal(t, want, withPrefix)

	bare, err := HexToHash(want.Hex()[2:])
	require.NoError(t, err)
	require.Equal(t, want, bare)
}

func TestHexToHashInvalidHexErrors(t *testing.T) {
	_, err := HexToHash("0xzz")
	require.Error(t, err)
}

func TestAddressStringMatchesHex(t *testing.T) {
	a := BytesToAddress([]byte{0x01})
	require.Equal(t, a.Hex(), a.String())
}
