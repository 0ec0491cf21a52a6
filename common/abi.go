package common

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// EncodePacked concatenates values without padding between them, the way
// solidity abi.encodePacked does for fixed-size types. Big ints are
// rendered as 32-byte two's complement words.
func EncodePacked(values ...interface{}) []byte {
	var res [][]byte
	for _, value := range values {
		switch v := value.(type) {
		case []byte:
			res = append(res, v)
		case [32]byte:
			res = append(res, v[:])
		case *big.Int:
			res = append(res, math.U256Bytes(new(big.Int).Set(v)))
		case common.Hash:
			res = append(res, v[:])
		case common.Address:
			res = append(res, v[:])
		}
	}
	return bytes.Join(res, nil)
}
