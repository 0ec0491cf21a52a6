package etherman

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

var (
	ErrInvalidTxType = errors.New("not a confidential compute request")
	ErrInvalidSig    = errors.New("invalid confidential record signature")
)

var confidentialRecordTypes = apitypes.Types{
	"EIP712Domain": []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"ConfidentialRecord": []apitypes.Type{
		{Name: "nonce", Type: "uint64"},
		{Name: "gasPrice", Type: "uint256"},
		{Name: "gas", Type: "uint64"},
		{Name: "to", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "data", Type: "bytes"},
		{Name: "kettleAddress", Type: "address"},
		{Name: "confidentialInputsHash", Type: "bytes32"},
	},
}

func newRecord(req *ConfidentialRequest, nonce uint64) *confidentialComputeRecord {
	to := req.To
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	return &confidentialComputeRecord{
		Nonce:                  nonce,
		GasPrice:               new(big.Int).Set(req.GasPrice),
		Gas:                    req.Gas,
		To:                     &to,
		Value:                  new(big.Int).Set(value),
		Data:                   common.CopyBytes(req.Data),
		KettleAddress:          req.KettleAddress,
		ConfidentialInputsHash: req.ConfidentialInputsHash(),
		IsEIP712:               req.IsEIP712,
		ChainID:                new(big.Int).Set(req.ChainID),
	}
}

// recordSigningHash is the digest signed by the sender: the EIP-712 hash of
// the record when IsEIP712 is set, the typed rlp hash otherwise.
func recordSigningHash(rec *confidentialComputeRecord) (common.Hash, error) {
	if !rec.IsEIP712 {
		payload, err := rlp.EncodeToBytes([]interface{}{
			rec.KettleAddress,
			rec.ConfidentialInputsHash,
			rec.Nonce,
			rec.GasPrice,
			rec.Gas,
			rec.To,
			rec.Value,
			rec.Data,
			rec.ChainID,
		})
		if err != nil {
			return common.Hash{}, err
		}
		return crypto.Keccak256Hash([]byte{ConfidentialComputeRecordTxType}, payload), nil
	}

	to := ""
	if rec.To != nil {
		to = rec.To.Hex()
	}
	typedData := apitypes.TypedData{
		Types:       confidentialRecordTypes,
		PrimaryType: "ConfidentialRecord",
		Domain: apitypes.TypedDataDomain{
			Name:              "ConfidentialRecord",
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).Set(rec.ChainID)),
			VerifyingContract: rec.KettleAddress.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"nonce":                  new(big.Int).SetUint64(rec.Nonce).String(),
			"gasPrice":               rec.GasPrice.String(),
			"gas":                    new(big.Int).SetUint64(rec.Gas).String(),
			"to":                     to,
			"value":                  rec.Value.String(),
			"data":                   hexutil.Encode(rec.Data),
			"kettleAddress":          rec.KettleAddress.Hex(),
			"confidentialInputsHash": rec.ConfidentialInputsHash.Hex(),
		},
	}

	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(hash), nil
}

// SignConfidentialRequest signs req with key and returns the raw 0x43
// envelope ready for eth_sendRawTransaction, along with its hash.
func SignConfidentialRequest(req *ConfidentialRequest, nonce uint64, key *ecdsa.PrivateKey) ([]byte, common.Hash, error) {
	if req.Type != ConfidentialComputeRequestTxType {
		return nil, common.Hash{}, fmt.Errorf("%w: type=0x%x", ErrInvalidTxType, req.Type)
	}
	if req.ChainID == nil || req.GasPrice == nil {
		return nil, common.Hash{}, errors.New("chain id and gas price are required")
	}

	rec := newRecord(req, nonce)
	sigHash, err := recordSigningHash(rec)
	if err != nil {
		return nil, common.Hash{}, err
	}

	sig, err := crypto.Sign(sigHash[:], key)
	if err != nil {
		return nil, common.Hash{}, err
	}
	rec.R = new(big.Int).SetBytes(sig[:32])
	rec.S = new(big.Int).SetBytes(sig[32:64])
	rec.V = new(big.Int).SetUint64(uint64(sig[64]))

	payload, err := rlp.EncodeToBytes(&confidentialComputeRequest{
		Record:             *rec,
		ConfidentialInputs: common.CopyBytes(req.ConfidentialInputs),
	})
	if err != nil {
		return nil, common.Hash{}, err
	}

	raw := append([]byte{ConfidentialComputeRequestTxType}, payload...)
	return raw, crypto.Keccak256Hash(raw), nil
}

// DecodeConfidentialRequest parses a raw 0x43 envelope and recovers its
// sender.
func DecodeConfidentialRequest(raw []byte) (*ConfidentialRequest, uint64, common.Address, error) {
	if len(raw) == 0 || raw[0] != ConfidentialComputeRequestTxType {
		return nil, 0, common.Address{}, ErrInvalidTxType
	}

	var ccr confidentialComputeRequest
	if err := rlp.DecodeBytes(raw[1:], &ccr); err != nil {
		return nil, 0, common.Address{}, err
	}
	rec := &ccr.Record

	sigHash, err := recordSigningHash(rec)
	if err != nil {
		return nil, 0, common.Address{}, err
	}

	if rec.V == nil || rec.R == nil || rec.S == nil || rec.V.BitLen() > 8 {
		return nil, 0, common.Address{}, ErrInvalidSig
	}
	v := byte(rec.V.Uint64())
	if !crypto.ValidateSignatureValues(v, rec.R, rec.S, true) {
		return nil, 0, common.Address{}, ErrInvalidSig
	}
	sig := make([]byte, crypto.SignatureLength)
	rec.R.FillBytes(sig[:32])
	rec.S.FillBytes(sig[32:64])
	sig[64] = v

	pub, err := crypto.SigToPub(sigHash[:], sig)
	if err != nil {
		return nil, 0, common.Address{}, err
	}

	req := &ConfidentialRequest{
		ChainID:            rec.ChainID,
		GasPrice:           rec.GasPrice,
		Gas:                rec.Gas,
		Value:              rec.Value,
		Data:               rec.Data,
		Type:               ConfidentialComputeRequestTxType,
		IsEIP712:           rec.IsEIP712,
		KettleAddress:      rec.KettleAddress,
		ConfidentialInputs: ccr.ConfidentialInputs,
	}
	if rec.To != nil {
		req.To = *rec.To
	}
	if req.ConfidentialInputsHash() != rec.ConfidentialInputsHash {
		return nil, 0, common.Address{}, errors.New("confidential inputs hash mismatch")
	}

	return req, rec.Nonce, crypto.PubkeyToAddress(*pub), nil
}
