package common

import (
	"crypto/rand"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

func RandEthAddress() ethcommon.Address {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return ethcommon.Address{}
	}
	return ethcommon.BytesToAddress(b[:])
}

// Keccak256Hash hashes the concatenation of the given byte slices.
func Keccak256Hash(data ...[]byte) ethcommon.Hash {
	return crypto.Keccak256Hash(data...)
}

// IsHexAddress checks the 0x-prefixed (or bare) 40 hex character form of an
// ethereum address. Checksums are not enforced.
func IsHexAddress(s string) bool {
	return ethcommon.IsHexAddress(s)
}
