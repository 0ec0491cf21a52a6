package client

import (
	"github.com/blindly-cash/relay-go/claim"
	"github.com/blindly-cash/relay-go/rsaenc"
)

// BuildEncryptedClaim frames the claim in the given format and encrypts it,
// returning the 0x-prefixed hex accepted by the relay.
func BuildEncryptedClaim(enc *rsaenc.Encryptor, c *claim.RedeemClaim, format claim.Format) (string, error) {
	payload, err := claim.EncodeAs(c, format)
	if err != nil {
		return "", err
	}
	return enc.EncryptHex(payload)
}
