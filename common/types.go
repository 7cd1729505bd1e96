// Package common holds the fixed-width identifiers shared by every layer of
// the state-transition core: addresses, hashes, and the byte-slice helpers
// that glue them to the wire formats in core/types.
package common

import (
	"encoding/hex"
	"fmt"
)

const (
	// AddressLength is the length of an Ethereum-compatible address in bytes.
	AddressLength = 20
	// HashLength is the length of a tree/preimage digest in bytes.
	HashLength = 32
)

// Address is a 160-bit account identifier.
type Address [AddressLength]byte

// Hash is a 256-bit digest: a slot key, a preimage hash, or a tree root.
type Hash [HashLength]byte

// BytesToAddress right-aligns b into an Address, truncating from the left if
// b is longer than AddressLength.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// BytesToHash right-aligns b into a Hash, truncating from the left if b is
// longer than HashLength.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// Bytes returns a copy of the address as a byte slice.
func (a Address) Bytes() []byte { return a[:] }

// Bytes returns a copy of the hash as a byte slice.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the "0x"-prefixed hex encoding.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

// Hex returns the "0x"-prefixed hex encoding.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (a Address) String() string { return a.Hex() }
func (h Hash) String() string    { return h.Hex() }

// IsZero reports whether the address is the zero address.
func (a Address) IsZero() bool { return a == Address{} }

// IsZero reports whether the hash is the zero hash.
func (h Hash) IsZero() bool { return h == Hash{} }

// Cmp compares two addresses lexicographically, byte by byte.
func (a Address) Cmp(b Address) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// HexToAddress decodes a "0x"-prefixed (or bare) hex string into an Address.
func HexToAddress(s string) (Address, error) {
	b, err := decodeHex(s)
	if err != nil {
		return Address{}, err
	}
	return BytesToAddress(b), nil
}

// HexToHash decodes a "0x"-prefixed (or bare) hex string into a Hash.
func HexToHash(s string) (Hash, error) {
	b, err := decodeHex(s)
	if err != nil {
		return Hash{}, err
	}
	return BytesToHash(b), nil
}

func decodeHex(s string) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("common: invalid hex string %q: %w", s, err)
	}
	return b, nil
}
