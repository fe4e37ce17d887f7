package common

import (
	"bytes"
	"encoding/json"
	"fmt"

	ethereumCommon "github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
)

// AddressLength is the byte length of a ledger account address.
const AddressLength = 32

// Address is a 32-byte ledger account address.
type Address [AddressLength]byte

// EthAddress is a 20-byte secp256k1 signer address, based on Ethereum's common.Address.
type EthAddress ethereumCommon.Address

// Bytes returns the byte representation of the address.
func (a Address) Bytes() []byte {
	return a[:]
}

// String returns the base58 text form of the address.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// IsZero reports whether the address is all zero bytes.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalJSON renders the address in its base58 text form.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := Base58ToAddress(s)
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}

// BytesToAddress converts a byte slice to an Address, left-truncating or
// zero-padding on the left as needed.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// Base58ToAddress parses the base58 text form of an address.
func Base58ToAddress(s string) (Address, error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("decoding base58 address %q: %w", s, err)
	}
	if len(decoded) != AddressLength {
		return Address{}, fmt.Errorf("address %q decodes to %d bytes, want %d", s, len(decoded), AddressLength)
	}
	var a Address
	copy(a[:], decoded)
	return a, nil
}

// MustBase58ToAddress parses the base58 text form of an address and panics on error.
func MustBase58ToAddress(s string) Address {
	a, err := Base58ToAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Bytes returns the byte representation of the signer address.
func (e EthAddress) Bytes() []byte {
	return ethereumCommon.Address(e).Bytes()
}

// Hex returns the 0x-prefixed hex form of the signer address.
func (e EthAddress) Hex() string {
	return ethereumCommon.Address(e).Hex()
}

func (e EthAddress) String() string {
	return e.Hex()
}

// IsZero reports whether the signer address is all zero bytes.
func (e EthAddress) IsZero() bool {
	return e == EthAddress{}
}

// Equal compares two signer addresses byte-exactly.
func (e EthAddress) Equal(other EthAddress) bool {
	return bytes.Equal(e.Bytes(), other.Bytes())
}

// BytesToEthAddress converts a byte slice to an EthAddress.
func BytesToEthAddress(b []byte) EthAddress {
	return EthAddress(ethereumCommon.BytesToAddress(b))
}

// HexToEthAddress parses a hex string into an EthAddress.
func HexToEthAddress(s string) EthAddress {
	return EthAddress(ethereumCommon.HexToAddress(s))
}
