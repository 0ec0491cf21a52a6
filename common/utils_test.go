package common

import (
	"math/big"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestBigIntToEvenHex(t *testing.T) {
	assert.Equal(t, "00", BigIntToEvenHex(big.NewInt(0)))
	assert.Equal(t, "0f", BigIntToEvenHex(big.NewInt(15)))
	assert.Equal(t, "0100", BigIntToEvenHex(big.NewInt(256)))
	assert.Equal(t, "deadbeef", BigIntToEvenHex(HexStrToBigInt("0xdeadbeef")))
}

func TestPrefixes(t *testing.T) {
	assert.Equal(t, "abc", Trim0xPrefix("0xabc"))
	assert.Equal(t, "abc", Trim0xPrefix("0Xabc"))
	assert.Equal(t, "0xabc", Prepend0xPrefix("abc"))
	assert.Equal(t, "0Xabc", Prepend0xPrefix("0Xabc"))
	assert.True(t, Has0xPrefix("0x"))
	assert.False(t, Has0xPrefix("x0"))
}

func TestEncodePacked(t *testing.T) {
	h := RandBytes32()
	addr := RandEthAddress()
	out := EncodePacked(h, addr, big.NewInt(10))
	assert.Len(t, out, 32+20+32)
	assert.Equal(t, h[:], out[:32])
	assert.Equal(t, addr.Bytes(), out[32:52])
	assert.Equal(t, byte(10), out[83])

	// negative values keep two's complement form and the input is untouched
	neg := big.NewInt(-1)
	out = EncodePacked(neg)
	assert.Equal(t, ethcommon.Hex2Bytes("ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"), out)
	assert.Equal(t, int64(-1), neg.Int64())
}
