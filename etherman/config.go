package etherman

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ChainIdToliman is the chain id of the Toliman SUAVE testnet.
var ChainIdToliman = big.NewInt(33626250)

type Config struct {
	// URL is the json-rpc (http) endpoint of the SUAVE node
	URL string

	// WsURL is the websocket endpoint used for pending transaction
	// subscriptions. Empty disables subscriptions.
	WsURL string

	// ChainID expected from the node
	ChainID *big.Int

	// KettleAddress is the execution node that processes the confidential
	// requests sent by this client
	KettleAddress common.Address
}
