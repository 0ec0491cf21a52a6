package etherman

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// ConfidentialComputeRecordTxType is the type of the signed record.
	ConfidentialComputeRecordTxType = 0x42
	// ConfidentialComputeRequestTxType is the envelope submitted to a kettle.
	ConfidentialComputeRequestTxType = 0x43

	DefaultConfidentialGasLimit = uint64(5690000)
)

// ConfidentialRequest describes a confidential compute request before
// signing. The protocol fields (Type, IsEIP712, KettleAddress) are passed
// through to the backend unmodified.
type ConfidentialRequest struct {
	ChainID            *big.Int
	To                 common.Address
	GasPrice           *big.Int
	Gas                uint64
	Value              *big.Int
	Data               []byte
	Type               uint8
	IsEIP712           bool
	KettleAddress      common.Address
	ConfidentialInputs []byte
}

func (r *ConfidentialRequest) ConfidentialInputsHash() common.Hash {
	return crypto.Keccak256Hash(r.ConfidentialInputs)
}

// confidentialComputeRecord is the rlp layout of the signed record.
type confidentialComputeRecord struct {
	Nonce                  uint64
	GasPrice               *big.Int
	Gas                    uint64
	To                     *common.Address `rlp:"nil"`
	Value                  *big.Int
	Data                   []byte
	KettleAddress          common.Address
	ConfidentialInputsHash common.Hash
	IsEIP712               bool
	ChainID                *big.Int
	V                      *big.Int
	R                      *big.Int
	S                      *big.Int
}

// confidentialComputeRequest is the rlp payload following the 0x43 type byte.
type confidentialComputeRequest struct {
	Record             confidentialComputeRecord
	ConfidentialInputs []byte
}
