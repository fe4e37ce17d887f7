package common

import (
	"crypto/sha256"
	"encoding/binary"

	ethereumCommon "github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Hash is a custom type based on Ethereum's common.Hash
type Hash ethereumCommon.Hash

// Bytes returns the byte representation of the hash.
func (h Hash) Bytes() []byte {
	return ethereumCommon.Hash(h).Bytes()
}

// Hex returns the hexadecimal string representation of the hash.
func (h Hash) Hex() string {
	return ethereumCommon.Hash(h).Hex()
}

// String returns the string representation of the hash.
func (h Hash) String() string {
	return ethereumCommon.Hash(h).String()
}

// BytesToHash converts a byte slice to a Hash.
func BytesToHash(b []byte) Hash {
	return Hash(ethereumCommon.BytesToHash(b))
}

// HexToHash converts a hexadecimal string to a Hash.
func HexToHash(s string) Hash {
	return Hash(ethereumCommon.HexToHash(s))
}

func Bytes2Hex(d []byte) string {
	return "0x" + ethereumCommon.Bytes2Hex(d)
}

func Hex2Bytes(s string) []byte {
	return ethereumCommon.FromHex(s)
}

// Keccak256 computes the legacy Keccak-256 hash of the concatenation of data.
func Keccak256(data ...[]byte) Hash {
	hash := sha3.NewLegacyKeccak256()
	for _, d := range data {
		hash.Write(d)
	}
	return BytesToHash(hash.Sum(nil))
}

// Sha256 computes the SHA-256 hash of the concatenation of data.
func Sha256(data ...[]byte) Hash {
	hash := sha256.New()
	for _, d := range data {
		hash.Write(d)
	}
	return BytesToHash(hash.Sum(nil))
}

func Uint64ToBytes(val uint64) []byte {
	bytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(bytes, val)
	return bytes
}

func Uint64ToBytesBE(val uint64) []byte {
	bytes := make([]byte, 8)
	binary.BigEndian.PutUint64(bytes, val)
	return bytes
}

func Uint32ToBytes(val uint32) []byte {
	bytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(bytes, val)
	return bytes
}

func BytesToUint64(data []byte) uint64 {
	if len(data) < 8 {
		panic("BytesToUint64: byte slice too short")
	}
	return binary.LittleEndian.Uint64(data)
}

func BytesToUint32(data []byte) uint32 {
	if len(data) < 4 {
		panic("BytesToUint32: byte slice too short")
	}
	return binary.LittleEndian.Uint32(data)
}
