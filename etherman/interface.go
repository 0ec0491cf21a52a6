package etherman

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Backend is the confidential compute chain as seen by the relay and the
// watcher. SuaveClient talks to a real node, SimulatedSuave is scripted for
// tests.
type Backend interface {
	GasPrice(ctx context.Context) (*big.Int, error)
	SendConfidentialRequest(ctx context.Context, req *ConfidentialRequest) (common.Hash, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	SubscribePendingTransactions(ctx context.Context, ch chan<- common.Hash) (ethereum.Subscription, error)
}
