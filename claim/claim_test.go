package claim

import (
	"math/big"
	"testing"

	"github.com/blindly-cash/relay-go/common"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randClaim(tip int64) *RedeemClaim {
	return &RedeemClaim{
		NoteHash:       common.RandBytes32(),
		RedeemTo:       common.RandEthAddress(),
		TipBasisPoints: big.NewInt(tip),
	}
}

func TestEncodeLayout(t *testing.T) {
	c := randClaim(10)
	b, err := Encode(c)
	require.NoError(t, err)
	assert.Len(t, b, PackedSize)
	assert.Equal(t, 84, PackedSize)

	assert.Equal(t, c.NoteHash[:], b[:32])
	assert.Equal(t, c.RedeemTo.Bytes(), b[32:52])
	// tip is left padded
	assert.Equal(t, make([]byte, 31), b[52:83])
	assert.Equal(t, byte(10), b[83])
}

func TestRoundTrip(t *testing.T) {
	tips := []*big.Int{
		big.NewInt(0),
		big.NewInt(10),
		big.NewInt(10000),
		new(big.Int).Set(maxUint256),
	}

	for _, tip := range tips {
		c := randClaim(0)
		c.TipBasisPoints = tip

		b, err := Encode(c)
		require.NoError(t, err)
		decoded, err := Decode(b)
		require.NoError(t, err)
		assert.True(t, c.Equal(decoded), "tip=%v", tip)

		b, err = EncodeABI(c)
		require.NoError(t, err)
		assert.Len(t, b, ABISize)
		decoded, err = DecodeABI(b)
		require.NoError(t, err)
		assert.True(t, c.Equal(decoded), "tip=%v", tip)
	}
}

func TestEncodeInvalidField(t *testing.T) {
	c := randClaim(10)
	c.TipBasisPoints = new(big.Int).Lsh(big.NewInt(1), 256)
	_, err := Encode(c)
	assert.ErrorIs(t, err, ErrInvalidField)

	c = randClaim(-1)
	_, err = Encode(c)
	assert.ErrorIs(t, err, ErrInvalidField)

	c = randClaim(10)
	c.TipBasisPoints = nil
	_, err = EncodeABI(c)
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestZeroRedeemToIsWellFormed(t *testing.T) {
	c, err := ParseRedeemClaim(ethcommon.Hash(common.RandBytes32()).Hex(),
		"0x0000000000000000000000000000000000000000", big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, ethcommon.Address{}, c.RedeemTo)

	b, err := Encode(c)
	require.NoError(t, err)
	back, err := Decode(b)
	require.NoError(t, err)
	assert.True(t, c.Equal(back))
}

func TestDecodeInvalidLength(t *testing.T) {
	_, err := Decode(make([]byte, PackedSize-1))
	assert.ErrorIs(t, err, ErrInvalidLength)
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = DecodeABI(make([]byte, PackedSize))
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestParseRedeemClaim(t *testing.T) {
	note := common.RandBytes32()
	to := common.RandEthAddress()

	c, err := ParseRedeemClaim(ethcommon.Hash(note).Hex(), to.Hex(), big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, note, c.NoteHash)
	assert.Equal(t, to, c.RedeemTo)

	_, err = ParseRedeemClaim(ethcommon.Hash(note).Hex(), "0x1234", big.NewInt(10))
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = ParseRedeemClaim("0xzz", to.Hex(), big.NewInt(10))
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = ParseRedeemClaim(ethcommon.Hash(note).Hex(), to.Hex(), big.NewInt(-5))
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestEncodeAs(t *testing.T) {
	c := randClaim(10)
	for _, f := range []Format{FormatPacked, FormatABI} {
		b, err := EncodeAs(c, f)
		require.NoError(t, err)
		decoded, err := DecodeAs(b, f)
		require.NoError(t, err)
		assert.True(t, c.Equal(decoded))
	}

	_, err := EncodeAs(c, Format(9))
	assert.Error(t, err)
}
