package etherman

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	"github.com/ethereum/go-ethereum/rpc"
	logger "github.com/sirupsen/logrus"
)

// SuaveClient submits confidential compute requests to a SUAVE node.
type SuaveClient struct {
	cfg *Config

	rpcClient *rpc.Client
	ethClient *ethclient.Client

	wsClient   *rpc.Client
	gethClient *gethclient.Client

	sk   *ecdsa.PrivateKey
	from common.Address

	// serializes nonce lookup and submission
	mu sync.Mutex
}

func NewSuaveClient(ctx context.Context, cfg *Config, sk *ecdsa.PrivateKey) (*SuaveClient, error) {
	if sk == nil {
		return nil, ErrMissingKey
	}

	rpcClient, err := rpc.DialContext(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	ethClient := ethclient.NewClient(rpcClient)

	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		rpcClient.Close()
		return nil, err
	}
	if cfg.ChainID != nil && chainID.Cmp(cfg.ChainID) != 0 {
		rpcClient.Close()
		return nil, ErrChainIDUnmatchedf(cfg.ChainID, chainID)
	}

	c := &SuaveClient{
		cfg: &Config{
			URL:           cfg.URL,
			WsURL:         cfg.WsURL,
			ChainID:       chainID,
			KettleAddress: cfg.KettleAddress,
		},
		rpcClient: rpcClient,
		ethClient: ethClient,
		sk:        sk,
		from:      crypto.PubkeyToAddress(sk.PublicKey),
	}

	if cfg.WsURL != "" {
		wsClient, err := rpc.DialContext(ctx, cfg.WsURL)
		if err != nil {
			rpcClient.Close()
			return nil, err
		}
		c.wsClient = wsClient
		c.gethClient = gethclient.New(wsClient)
	}

	logger.WithFields(logger.Fields{
		"chainId": chainID,
		"from":    c.from.String(),
		"kettle":  cfg.KettleAddress.String(),
	}).Info("connected to suave node")

	return c, nil
}

func (c *SuaveClient) ChainID() *big.Int {
	return new(big.Int).Set(c.cfg.ChainID)
}

func (c *SuaveClient) From() common.Address {
	return c.from
}

func (c *SuaveClient) GasPrice(ctx context.Context) (*big.Int, error) {
	return c.ethClient.SuggestGasPrice(ctx)
}

func (c *SuaveClient) SendConfidentialRequest(ctx context.Context, req *ConfidentialRequest) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	nonce, err := c.ethClient.PendingNonceAt(ctx, c.from)
	if err != nil {
		return common.Hash{}, err
	}

	raw, localHash, err := SignConfidentialRequest(req, nonce, c.sk)
	if err != nil {
		return common.Hash{}, err
	}

	var txHash common.Hash
	if err := c.rpcClient.CallContext(ctx, &txHash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return common.Hash{}, err
	}

	logger.WithFields(logger.Fields{
		"nonce":     nonce,
		"txHash":    txHash.String(),
		"localHash": localHash.String(),
	}).Debug("confidential request submitted")

	return txHash, nil
}

func (c *SuaveClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return c.ethClient.TransactionReceipt(ctx, txHash)
}

func (c *SuaveClient) SubscribePendingTransactions(ctx context.Context, ch chan<- common.Hash) (ethereum.Subscription, error) {
	if c.gethClient == nil {
		return nil, ErrNoSubscription
	}
	return c.gethClient.SubscribePendingTransactions(ctx, ch)
}

func (c *SuaveClient) Close() {
	if c.wsClient != nil {
		c.wsClient.Close()
	}
	c.rpcClient.Close()
}

// StringToPrivateKey parses a hex encoded secp256k1 key with or without
// the 0x prefix.
func StringToPrivateKey(str string) (*ecdsa.PrivateKey, error) {
	if len(str) >= 2 && str[0] == '0' && (str[1] == 'x' || str[1] == 'X') {
		str = str[2:]
	}
	return crypto.HexToECDSA(str)
}
