package rsaenc

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"math/big"
	"strings"
	"testing"

	"github.com/blindly-cash/relay-go/claim"
	"github.com/blindly-cash/relay-go/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKey(t *testing.T) (*rsa.PrivateKey, *Encryptor) {
	sk, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	pk, err := FromRSA(&sk.PublicKey)
	require.NoError(t, err)
	enc, err := NewEncryptor(pk)
	require.NoError(t, err)
	return sk, enc
}

func decrypt(sk *rsa.PrivateKey, c []byte) []byte {
	return new(big.Int).Exp(new(big.Int).SetBytes(c), sk.D, sk.N).Bytes()
}

func TestEncryptDecrypt(t *testing.T) {
	sk, enc := newTestKey(t)

	c := &claim.RedeemClaim{
		NoteHash:       common.RandBytes32(),
		RedeemTo:       common.RandEthAddress(),
		TipBasisPoints: big.NewInt(10),
	}
	payload, err := claim.Encode(c)
	require.NoError(t, err)

	ct, err := enc.Encrypt(payload)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(ct), enc.PublicKey().Size())

	// the raw private transform recovers the integer; re-pad to the fixed width
	m := decrypt(sk, ct)
	padded := make([]byte, claim.PackedSize)
	copy(padded[claim.PackedSize-len(m):], m)
	decoded, err := claim.Decode(padded)
	require.NoError(t, err)
	assert.True(t, c.Equal(decoded))
}

func TestEncryptDeterministic(t *testing.T) {
	_, enc := newTestKey(t)
	payload := common.RandBytes(claim.PackedSize)

	a, err := enc.Encrypt(payload)
	require.NoError(t, err)
	b, err := enc.Encrypt(payload)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	h1, err := enc.EncryptHex(payload)
	require.NoError(t, err)
	h2, err := enc.EncryptHex(payload)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.True(t, strings.HasPrefix(h1, "0x"))
	assert.Equal(t, 0, len(common.Trim0xPrefix(h1))%2)
	assert.Equal(t, new(big.Int).SetBytes(a), common.HexStrToBigInt(h1))
}

func TestEncryptBoundary(t *testing.T) {
	// n = 61 * 53, e = 17, d = 2753
	pk := &PublicKey{N: big.NewInt(3233), E: 17}
	enc, err := NewEncryptor(pk)
	require.NoError(t, err)
	d := big.NewInt(2753)

	for _, v := range []int64{0, 1, 65, 3232} {
		m := big.NewInt(v)
		c, err := enc.Encrypt(m.Bytes())
		require.NoError(t, err, "m=%d", v)
		got := new(big.Int).Exp(new(big.Int).SetBytes(c), d, pk.N)
		assert.Equal(t, 0, got.Cmp(m), "m=%d", v)
	}

	_, err = enc.Encrypt(big.NewInt(3233).Bytes())
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	_, err = enc.EncryptHex(big.NewInt(4000).Bytes())
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestEncryptKnownVector(t *testing.T) {
	pk := &PublicKey{N: big.NewInt(3233), E: 17}
	enc, err := NewEncryptor(pk)
	require.NoError(t, err)

	// 65^17 mod 3233 = 2790 = 0x0ae6
	h, err := enc.EncryptHex([]byte{65})
	require.NoError(t, err)
	assert.Equal(t, "0x0ae6", h)
}

func TestPayloadTooLargeForTinyModulus(t *testing.T) {
	sk, err := rsa.GenerateKey(rand.Reader, 512)
	require.NoError(t, err)
	pk, err := FromRSA(&sk.PublicKey)
	require.NoError(t, err)
	enc, err := NewEncryptor(pk)
	require.NoError(t, err)

	// 84 bytes = 672 bits cannot fit a 512-bit modulus unless the high bytes are zero
	payload := common.RandBytes(claim.PackedSize)
	payload[0] |= 0x80
	_, err = enc.Encrypt(payload)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestParsePublicKey(t *testing.T) {
	pk, err := ParsePublicKeyHex("0x"+TolimanModulusHex, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultExponent, pk.E)
	assert.Equal(t, 256, pk.Size())

	enc, err := NewEncryptor(pk)
	require.NoError(t, err)
	_, err = enc.Encrypt(common.RandBytes(claim.ABISize))
	assert.NoError(t, err)

	_, err = ParsePublicKeyHex("not-hex", 0)
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = ParsePublicKeyHex("0x10", 0)
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = ParsePublicKeyHex(TolimanModulusHex, 4)
	assert.ErrorIs(t, err, ErrInvalidKey)

	sk, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&sk.PublicKey)
	require.NoError(t, err)
	pemPk, err := ParsePublicKeyPEM(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
	require.NoError(t, err)
	assert.Equal(t, 0, pemPk.N.Cmp(sk.N))

	pemPk, err = ParsePublicKeyPEM(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(&sk.PublicKey),
	}))
	require.NoError(t, err)
	assert.Equal(t, sk.E, pemPk.E)

	_, err = ParsePublicKeyPEM([]byte("garbage"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}
