package claim

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/blindly-cash/relay-go/common"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Canonical field widths. Changing any of them, or the field order,
// requires a protocol version bump.
const (
	NoteHashSize = 32
	AddressSize  = ethcommon.AddressLength
	TipSize      = 32

	PackedSize = NoteHashSize + AddressSize + TipSize
)

var (
	ErrInvalidField  = errors.New("invalid field")
	ErrInvalidLength = fmt.Errorf("%w: payload length", ErrInvalidField)

	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

func invalidField(name string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidField, name, reason)
}

// RedeemClaim is the plaintext that gets encrypted for the relay.
type RedeemClaim struct {
	NoteHash       [32]byte
	RedeemTo       ethcommon.Address
	TipBasisPoints *big.Int
}

// ParseRedeemClaim builds a claim from user supplied strings. The redeem
// note must be 32 bytes of hex and redeemTo a well-formed address.
func ParseRedeemClaim(noteHex string, redeemTo string, tipBasisPoints *big.Int) (*RedeemClaim, error) {
	note := common.Trim0xPrefix(noteHex)
	if len(note) != NoteHashSize*2 || !isHex(note) {
		return nil, invalidField("noteHash", "expect 32 bytes of hex")
	}

	if !common.IsHexAddress(redeemTo) {
		return nil, invalidField("redeemTo", "not an address: "+redeemTo)
	}

	c := &RedeemClaim{
		NoteHash:       common.HexStrToBytes32(note),
		RedeemTo:       ethcommon.HexToAddress(redeemTo),
		TipBasisPoints: common.BigIntClone(tipBasisPoints),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *RedeemClaim) Validate() error {
	if c.TipBasisPoints == nil {
		return invalidField("tipBasisPoints", "missing")
	}
	if c.TipBasisPoints.Sign() < 0 {
		return invalidField("tipBasisPoints", "negative")
	}
	if c.TipBasisPoints.Cmp(maxUint256) > 0 {
		return invalidField("tipBasisPoints", "exceeds 256 bits")
	}
	return nil
}

// Encode serializes the claim as noteHash | redeemTo | tipBasisPoints,
// each field big-endian and left-padded to its canonical width.
func Encode(c *RedeemClaim) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return common.EncodePacked(c.NoteHash, c.RedeemTo, c.TipBasisPoints), nil
}

func Decode(b []byte) (*RedeemClaim, error) {
	if len(b) != PackedSize {
		return nil, fmt.Errorf("%w: expect %d, got %d", ErrInvalidLength, PackedSize, len(b))
	}

	c := &RedeemClaim{}
	copy(c.NoteHash[:], b[:NoteHashSize])
	c.RedeemTo = ethcommon.BytesToAddress(b[NoteHashSize : NoteHashSize+AddressSize])
	c.TipBasisPoints = new(big.Int).SetBytes(b[NoteHashSize+AddressSize:])

	return c, nil
}

func (c *RedeemClaim) Equal(other *RedeemClaim) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.NoteHash == other.NoteHash &&
		c.RedeemTo == other.RedeemTo &&
		c.TipBasisPoints.Cmp(other.TipBasisPoints) == 0
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
