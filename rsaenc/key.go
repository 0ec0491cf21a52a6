package rsaenc

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"

	"github.com/blindly-cash/relay-go/common"
)

const (
	DefaultExponent = 65537

	// TolimanModulusHex is the 2048-bit modulus of the Toliman deployment's
	// kettle key.
	TolimanModulusHex = "a709e2f84ac0e21eb0caa018cf7f697f774e96f8115fc2359e9cf60b1dd8d4048d974cdf8422bef6be3c162b04b916f7ea2133f0e3e4e0eee164859bd9c1e0ef0357c142f4f633b4add4aab86c8f8895cd33fbf4e024d9a3ad6be6267570b4a72d2c34354e0139e74ada665a16a2611490debb8e131a6cffc7ef25e74240803dd71a4fcd953c988111b0aa9bbc4c57024fc5e8c4462ad9049c7f1abed859c63455fa6d58b5cc34a3d3206ff74b9e96c336dbacf0cdd18ed0c66796ce00ab07f36b24cbe3342523fd8215a8e77f89e86a08db911f237459388dee642dae7cb2644a03e71ed5c6fa5077cf4090fafa556048b536b879a88f628698f0c7b420c4b7"
)

var (
	ErrInvalidKey = errors.New("invalid rsa public key")
)

// PublicKey is the relay backend's RSA public key. It is loaded once by the
// host process and shared read-only.
type PublicKey struct {
	N *big.Int
	E int
}

func (pk *PublicKey) validate() error {
	if pk == nil || pk.N == nil {
		return fmt.Errorf("%w: missing modulus", ErrInvalidKey)
	}
	if pk.N.Sign() <= 0 || pk.N.Bit(0) == 0 {
		return fmt.Errorf("%w: modulus must be a positive odd integer", ErrInvalidKey)
	}
	if pk.E < 3 || pk.E%2 == 0 {
		return fmt.Errorf("%w: bad exponent %d", ErrInvalidKey, pk.E)
	}
	return nil
}

// Size is the modulus length in bytes.
func (pk *PublicKey) Size() int {
	return (pk.N.BitLen() + 7) / 8
}

// ParsePublicKeyHex loads a key from a hex modulus (with or without 0x).
// A zero exponent selects DefaultExponent.
func ParsePublicKeyHex(modulusHex string, e int) (*PublicKey, error) {
	n := common.HexStrToBigInt(modulusHex)
	if n == nil {
		return nil, fmt.Errorf("%w: modulus is not hex", ErrInvalidKey)
	}
	if e == 0 {
		e = DefaultExponent
	}

	pk := &PublicKey{N: n, E: e}
	if err := pk.validate(); err != nil {
		return nil, err
	}
	return pk, nil
}

// ParsePublicKeyPEM accepts a PKIX ("PUBLIC KEY") or PKCS#1
// ("RSA PUBLIC KEY") encoded RSA public key.
func ParsePublicKeyPEM(data []byte) (*PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no pem block", ErrInvalidKey)
	}

	var rsaPub *rsa.PublicKey
	switch block.Type {
	case "PUBLIC KEY":
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		var ok bool
		if rsaPub, ok = pub.(*rsa.PublicKey); !ok {
			return nil, fmt.Errorf("%w: not an rsa key", ErrInvalidKey)
		}
	case "RSA PUBLIC KEY":
		pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		rsaPub = pub
	default:
		return nil, fmt.Errorf("%w: unexpected pem type %s", ErrInvalidKey, block.Type)
	}

	return FromRSA(rsaPub)
}

func FromRSA(pub *rsa.PublicKey) (*PublicKey, error) {
	pk := &PublicKey{N: new(big.Int).Set(pub.N), E: pub.E}
	if err := pk.validate(); err != nil {
		return nil, err
	}
	return pk, nil
}
