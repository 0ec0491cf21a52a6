package etherman

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/event"
)

var (
	simulatedChainID = big.NewInt(1337)
	blockGasLimit    = uint64(999999999999999999)
)

// SimulatedChain is an in-process ethereum chain with funded accounts. It
// backs plain (non confidential) transactions such as deposits.
type SimulatedChain struct {
	Backend  *simulated.Backend
	Accounts []*bind.TransactOpts
}

func NewSimulatedChain() *SimulatedChain {
	nAccount := 4
	accounts := make([]*bind.TransactOpts, nAccount)
	for i := 0; i < nAccount; i++ {
		accounts[i] = newAuth()
	}

	genesisAlloc := map[common.Address]types.Account{}
	for _, account := range accounts {
		balance, _ := new(big.Int).SetString("100000000000000000000", 10)
		genesisAlloc[account.From] = types.Account{
			Balance: balance,
		}
	}

	backend := simulated.NewBackend(genesisAlloc, simulated.WithBlockGasLimit(blockGasLimit))

	return &SimulatedChain{
		Backend:  backend,
		Accounts: accounts,
	}
}

func (sc *SimulatedChain) ChainID() *big.Int {
	return new(big.Int).Set(simulatedChainID)
}

func (sc *SimulatedChain) Close() error {
	return sc.Backend.Close()
}

func newAuth() *bind.TransactOpts {
	sk, _ := crypto.GenerateKey()
	auth, _ := bind.NewKeyedTransactorWithChainID(sk, simulatedChainID)
	return auth
}

var ErrReceiptNotFound = ethereum.NotFound

// SimulatedSuave is a scriptable Backend. Requests are signed and encoded
// exactly as SuaveClient would before being recorded, and the hash of every
// accepted request is broadcast to pending transaction subscribers.
type SimulatedSuave struct {
	mu sync.Mutex

	sk    *ecdsa.PrivateKey
	nonce uint64

	gasPrice    *big.Int
	gasPriceErr error
	sendErr     error
	sendHook    func(ctx context.Context, req *ConfidentialRequest) error
	subErr      error

	raws       [][]byte
	sent       []*ConfidentialRequest
	receipts   map[common.Hash]*types.Receipt
	receiptErr map[common.Hash]error

	feed event.Feed
	subs []*simSubscription
	// number of successful subscriptions so far
	subCount int
}

func NewSimulatedSuave() *SimulatedSuave {
	sk, _ := crypto.GenerateKey()
	return &SimulatedSuave{
		sk:         sk,
		gasPrice:   big.NewInt(1000000000),
		receipts:   make(map[common.Hash]*types.Receipt),
		receiptErr: make(map[common.Hash]error),
	}
}

func (s *SimulatedSuave) SetGasPrice(price *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gasPrice = new(big.Int).Set(price)
}

func (s *SimulatedSuave) SetGasPriceError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gasPriceErr = err
}

// SetSendError makes every following submission fail with err. Nil
// restores normal behaviour.
func (s *SimulatedSuave) SetSendError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendErr = err
}

// SetSendHook installs a function run before each submission, outside of
// the backend lock. A non-nil return value fails the submission.
func (s *SimulatedSuave) SetSendHook(hook func(ctx context.Context, req *ConfidentialRequest) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendHook = hook
}

// SetSubscribeError makes new subscriptions fail with err.
func (s *SimulatedSuave) SetSubscribeError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subErr = err
}

func (s *SimulatedSuave) SetReceipt(txHash common.Hash, receipt *types.Receipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[txHash] = receipt
}

func (s *SimulatedSuave) SetReceiptError(txHash common.Hash, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receiptErr[txHash] = err
}

func (s *SimulatedSuave) GasPrice(ctx context.Context) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gasPriceErr != nil {
		return nil, s.gasPriceErr
	}
	return new(big.Int).Set(s.gasPrice), nil
}

func (s *SimulatedSuave) SendConfidentialRequest(ctx context.Context, req *ConfidentialRequest) (common.Hash, error) {
	s.mu.Lock()
	hook := s.sendHook
	s.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, req); err != nil {
			return common.Hash{}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return common.Hash{}, err
	}

	s.mu.Lock()
	if s.sendErr != nil {
		err := s.sendErr
		s.mu.Unlock()
		return common.Hash{}, err
	}

	raw, txHash, err := SignConfidentialRequest(req, s.nonce, s.sk)
	if err != nil {
		s.mu.Unlock()
		return common.Hash{}, err
	}
	s.nonce++
	s.raws = append(s.raws, raw)
	s.sent = append(s.sent, req)
	s.mu.Unlock()

	s.feed.Send(txHash)

	return txHash, nil
}

func (s *SimulatedSuave) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.receiptErr[txHash]; ok {
		return nil, err
	}
	receipt, ok := s.receipts[txHash]
	if !ok {
		return nil, ErrReceiptNotFound
	}
	return receipt, nil
}

func (s *SimulatedSuave) SubscribePendingTransactions(ctx context.Context, ch chan<- common.Hash) (ethereum.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subErr != nil {
		return nil, s.subErr
	}

	sub := &simSubscription{
		inner: s.feed.Subscribe(ch),
		errc:  make(chan error, 1),
	}
	s.subs = append(s.subs, sub)
	s.subCount++
	return sub, nil
}

// Publish broadcasts a pending transaction hash and returns the number of
// subscribers that received it.
func (s *SimulatedSuave) Publish(txHash common.Hash) int {
	return s.feed.Send(txHash)
}

// DropSubscriptions terminates every live subscription with err.
func (s *SimulatedSuave) DropSubscriptions(err error) {
	if err == nil {
		err = errors.New("subscription dropped")
	}

	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fail(err)
	}
}

func (s *SimulatedSuave) SubscriptionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subCount
}

// Sent returns the accepted requests in submission order.
func (s *SimulatedSuave) Sent() []*ConfidentialRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*ConfidentialRequest(nil), s.sent...)
}

// RawTransactions returns the encoded 0x43 envelopes of accepted requests.
func (s *SimulatedSuave) RawTransactions() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.raws...)
}

func (s *SimulatedSuave) From() common.Address {
	return crypto.PubkeyToAddress(s.sk.PublicKey)
}

type simSubscription struct {
	inner event.Subscription
	errc  chan error
	once  sync.Once
}

func (sub *simSubscription) Unsubscribe() {
	sub.once.Do(func() {
		sub.inner.Unsubscribe()
		close(sub.errc)
	})
}

func (sub *simSubscription) Err() <-chan error {
	return sub.errc
}

func (sub *simSubscription) fail(err error) {
	sub.once.Do(func() {
		sub.inner.Unsubscribe()
		sub.errc <- err
		close(sub.errc)
	})
}
