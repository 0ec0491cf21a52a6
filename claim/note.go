package claim

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/blindly-cash/relay-go/common"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

const SeedSize = 256

var ErrNoSeed = errors.New("deposit note has no seed")

// DepositNote is the depositor's secret. The seed stays with the client;
// keccak256(seed) is the redeem note shown to the user and
// keccak256(note) is what the deposit transaction commits on chain.
type DepositNote struct {
	seed     []byte
	noteHash ethcommon.Hash
}

func NewDepositNote() (*DepositNote, error) {
	seed := make([]byte, SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	return NoteFromSeed(seed)
}

func NoteFromSeed(seed []byte) (*DepositNote, error) {
	if len(seed) == 0 {
		return nil, ErrNoSeed
	}
	s := make([]byte, len(seed))
	copy(s, seed)

	return &DepositNote{
		seed:     s,
		noteHash: common.Keccak256Hash(s),
	}, nil
}

// NoteFromHash rebuilds a note from the redeem note the user kept.
func NoteFromHash(noteHex string) (*DepositNote, error) {
	note := common.Trim0xPrefix(noteHex)
	if len(note) != NoteHashSize*2 || !isHex(note) {
		return nil, invalidField("noteHash", "expect 32 bytes of hex")
	}
	return &DepositNote{noteHash: common.HexStrToBytes32(note)}, nil
}

func (n *DepositNote) Seed() ([]byte, error) {
	if n.seed == nil {
		return nil, ErrNoSeed
	}
	s := make([]byte, len(n.seed))
	copy(s, n.seed)
	return s, nil
}

// NoteHash is the redeem note.
func (n *DepositNote) NoteHash() ethcommon.Hash {
	return n.noteHash
}

// Commitment is the value passed to deposit(bytes32).
func (n *DepositNote) Commitment() ethcommon.Hash {
	return common.Keccak256Hash(n.noteHash[:])
}

func (n *DepositNote) String() string {
	return n.noteHash.Hex()
}

// Claim binds the note to a destination and tip.
func (n *DepositNote) Claim(redeemTo ethcommon.Address, tipBasisPoints int64) *RedeemClaim {
	return &RedeemClaim{
		NoteHash:       n.noteHash,
		RedeemTo:       redeemTo,
		TipBasisPoints: big.NewInt(tipBasisPoints),
	}
}
