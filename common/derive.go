package common

import (
	"errors"

	"filippo.io/edwards25519"
)

// derivedAddressMarker terminates the seed material of every derived
// sub-account. It matches the host ledger's derivation convention and must
// not change, or derived addresses stop lining up with deployed accounts.
const derivedAddressMarker = "ProgramDerivedAddress"

// ErrNoDerivedAddress is returned when no bump in [0,255] yields an
// off-curve address. The search space makes this practically unreachable.
var ErrNoDerivedAddress = errors.New("unable to find a viable derived address bump")

// CreateDerivedAddress computes the sub-account address for the given seeds,
// bump and owning program. The result must not be a valid curve point, so
// that no private key can ever exist for a custody account.
func CreateDerivedAddress(seeds [][]byte, bump uint8, program Address) (Address, error) {
	material := make([]byte, 0, 128)
	for _, seed := range seeds {
		material = append(material, seed...)
	}
	material = append(material, bump)
	material = append(material, program.Bytes()...)
	material = append(material, []byte(derivedAddressMarker)...)

	candidate := BytesToAddress(Sha256(material).Bytes())
	if isOnCurve(candidate) {
		return Address{}, ErrNoDerivedAddress
	}
	return candidate, nil
}

// FindDerivedAddress searches bumps from 255 downward for the first
// off-curve derived address, returning the address and the bump that
// produced it. The bump is persisted so later calls skip the search.
func FindDerivedAddress(seeds [][]byte, program Address) (Address, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		addr, err := CreateDerivedAddress(seeds, uint8(bump), program)
		if err == nil {
			return addr, uint8(bump), nil
		}
	}
	return Address{}, 0, ErrNoDerivedAddress
}

// isOnCurve reports whether the 32 bytes decompress to an ed25519 point.
func isOnCurve(a Address) bool {
	_, err := new(edwards25519.Point).SetBytes(a.Bytes())
	return err == nil
}
