package claim

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Format selects how the claim is framed before encryption.
type Format int

const (
	// FormatPacked is the canonical 84-byte framing.
	FormatPacked Format = iota
	// FormatABI is the 96-byte abi.encode(bytes32,address,uint256) framing
	// used by the browser client of the first deployment.
	FormatABI
)

const ABISize = 3 * 32

var claimArguments abi.Arguments

func init() {
	bytes32Ty, _ := abi.NewType("bytes32", "", nil)
	addressTy, _ := abi.NewType("address", "", nil)
	uint256Ty, _ := abi.NewType("uint256", "", nil)

	claimArguments = abi.Arguments{
		{Name: "msg", Type: bytes32Ty},
		{Name: "redeemTo", Type: addressTy},
		{Name: "tipBP", Type: uint256Ty},
	}
}

func EncodeABI(c *RedeemClaim) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return claimArguments.Pack(c.NoteHash, c.RedeemTo, c.TipBasisPoints)
}

func DecodeABI(b []byte) (*RedeemClaim, error) {
	if len(b) != ABISize {
		return nil, fmt.Errorf("%w: expect %d, got %d", ErrInvalidLength, ABISize, len(b))
	}

	values, err := claimArguments.Unpack(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidField, err)
	}

	return &RedeemClaim{
		NoteHash:       values[0].([32]byte),
		RedeemTo:       values[1].(ethcommon.Address),
		TipBasisPoints: values[2].(*big.Int),
	}, nil
}

// EncodeAs frames the claim in the requested format.
func EncodeAs(c *RedeemClaim, format Format) ([]byte, error) {
	switch format {
	case FormatPacked:
		return Encode(c)
	case FormatABI:
		return EncodeABI(c)
	default:
		return nil, fmt.Errorf("unknown claim format: %d", format)
	}
}

// DecodeAs is the inverse of EncodeAs.
func DecodeAs(b []byte, format Format) (*RedeemClaim, error) {
	switch format {
	case FormatPacked:
		return Decode(b)
	case FormatABI:
		return DecodeABI(b)
	default:
		return nil, fmt.Errorf("unknown claim format: %d", format)
	}
}
