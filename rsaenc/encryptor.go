package rsaenc

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/blindly-cash/relay-go/common"
	logger "github.com/sirupsen/logrus"
)

var ErrPayloadTooLarge = errors.New("payload too large for rsa modulus")

// Encryptor applies the raw RSA public transform c = m^e mod n. There is no
// OAEP/PKCS1 padding: the backend applies the raw private transform and the
// fixed-width claim framing is the only structure on the plaintext.
type Encryptor struct {
	key *PublicKey
	e   *big.Int
}

func NewEncryptor(key *PublicKey) (*Encryptor, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	return &Encryptor{
		key: &PublicKey{N: new(big.Int).Set(key.N), E: key.E},
		e:   big.NewInt(int64(key.E)),
	}, nil
}

func (enc *Encryptor) PublicKey() *PublicKey {
	return &PublicKey{N: new(big.Int).Set(enc.key.N), E: enc.key.E}
}

// Encrypt interprets payload as a big-endian unsigned integer m, requires
// m < n and returns the minimal big-endian bytes of m^e mod n.
func (enc *Encryptor) Encrypt(payload []byte) ([]byte, error) {
	c, err := enc.encrypt(payload)
	if err != nil {
		return nil, err
	}
	b := c.Bytes()
	if len(b) == 0 {
		b = []byte{0}
	}
	return b, nil
}

// EncryptHex is Encrypt rendered as 0x-prefixed, even-length hex.
func (enc *Encryptor) EncryptHex(payload []byte) (string, error) {
	c, err := enc.encrypt(payload)
	if err != nil {
		return "", err
	}
	return common.Prepend0xPrefix(common.BigIntToEvenHex(c)), nil
}

func (enc *Encryptor) encrypt(payload []byte) (*big.Int, error) {
	m := new(big.Int).SetBytes(payload)
	if m.Cmp(enc.key.N) >= 0 {
		logger.WithFields(logger.Fields{
			"payloadBits": m.BitLen(),
			"modulusBits": enc.key.N.BitLen(),
		}).Error("payload does not fit the rsa modulus, check the key configuration")
		return nil, fmt.Errorf("%w: %d bits >= modulus %d bits", ErrPayloadTooLarge, m.BitLen(), enc.key.N.BitLen())
	}

	return new(big.Int).Exp(m, enc.e, enc.key.N), nil
}
