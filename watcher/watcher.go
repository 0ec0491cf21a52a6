package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blindly-cash/relay-go/contracts/BlindlyCash"
	"github.com/blindly-cash/relay-go/etherman"
	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	logger "github.com/sirupsen/logrus"
)

var ErrReceiptFetch = errors.New("failed to fetch receipt")

const (
	DefaultWorkers            = 16
	DefaultResubscribeBackoff = time.Second
	DefaultMaxBackoff         = 30 * time.Second
	pendingBufferSize         = 256
)

type Config struct {
	// MixerAddress selects, beside the first log of every receipt, the
	// logs to decode
	MixerAddress ethcommon.Address

	// Workers bounds the receipts fetched concurrently
	Workers int

	ResubscribeBackoff time.Duration
	MaxBackoff         time.Duration

	// ReceiptTimeout bounds a single receipt fetch, zero disables it
	ReceiptTimeout time.Duration
}

// Watcher follows the pending transactions of the chain, fetches their
// receipts and hands decoded mixer events to a Publisher. It never writes
// into the redeem request tracker.
type Watcher struct {
	cfg       Config
	backend   etherman.Backend
	mixer     *BlindlyCash.BlindlyCash
	publisher Publisher
}

func New(cfg *Config, backend etherman.Backend, publisher Publisher) (*Watcher, error) {
	mixer, err := BlindlyCash.NewBlindlyCash(cfg.MixerAddress, nil)
	if err != nil {
		return nil, err
	}
	if publisher == nil {
		publisher = LogPublisher{}
	}

	c := *cfg
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.ResubscribeBackoff <= 0 {
		c.ResubscribeBackoff = DefaultResubscribeBackoff
	}
	if c.MaxBackoff < c.ResubscribeBackoff {
		c.MaxBackoff = DefaultMaxBackoff
		if c.MaxBackoff < c.ResubscribeBackoff {
			c.MaxBackoff = c.ResubscribeBackoff
		}
	}

	return &Watcher{
		cfg:       c,
		backend:   backend,
		mixer:     mixer,
		publisher: publisher,
	}, nil
}

// Run watches until ctx is cancelled and returns ctx.Err(). A failed or
// broken subscription is re-established with exponential backoff. In-flight
// receipt handlers are awaited before returning.
func (w *Watcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	sem := make(chan struct{}, w.cfg.Workers)
	backoff := w.cfg.ResubscribeBackoff
	first := true

	logger.WithFields(logger.Fields{
		"workers": w.cfg.Workers,
		"mixer":   w.cfg.MixerAddress.String(),
	}).Info("starting pending transaction watcher")

	for {
		ch := make(chan ethcommon.Hash, pendingBufferSize)
		sub, err := w.backend.SubscribePendingTransactions(ctx, ch)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warnf("failed to subscribe to pending transactions: err=%v, retry in %v", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff, w.cfg.MaxBackoff)
			continue
		}

		if !first {
			resubscriptions.Inc()
			logger.Info("resubscribed to pending transactions")
		}
		first = false
		backoff = w.cfg.ResubscribeBackoff

		err = w.consume(ctx, sub, ch, sem, &wg)
		sub.Unsubscribe()
		if ctx.Err() != nil {
			logger.Info("stopping pending transaction watcher")
			return ctx.Err()
		}
		logger.Warnf("pending transaction subscription ended: err=%v", err)
	}
}

func (w *Watcher) consume(
	ctx context.Context,
	sub ethereum.Subscription,
	ch <-chan ethcommon.Hash,
	sem chan struct{},
	wg *sync.WaitGroup,
) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			if err == nil {
				err = errors.New("subscription closed")
			}
			return err
		case txHash := <-ch:
			pendingSeen.Inc()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}

			wg.Add(1)
			go func(txHash ethcommon.Hash) {
				defer wg.Done()
				defer func() { <-sem }()

				if err := w.handle(ctx, txHash); err != nil {
					logger.WithField("txHash", txHash.String()).Warn(err)
				}
			}(txHash)
		}
	}
}

// handle processes one pending transaction. Errors are isolated to the
// transaction.
func (w *Watcher) handle(ctx context.Context, txHash ethcommon.Hash) error {
	if w.cfg.ReceiptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.ReceiptTimeout)
		defer cancel()
	}

	receipt, err := w.backend.TransactionReceipt(ctx, txHash)
	if err != nil {
		receiptFailures.Inc()
		return fmt.Errorf("%w: %v", ErrReceiptFetch, err)
	}
	if receipt == nil || receipt.Status != types.ReceiptStatusSuccessful || len(receipt.Logs) == 0 {
		return nil
	}

	for _, ev := range w.decode(receipt) {
		eventsDecoded.WithLabelValues(ev.Name).Inc()
		if err := w.publisher.Publish(ctx, ev); err != nil {
			logger.WithFields(logger.Fields{
				"event":  ev.Name,
				"txHash": ev.TxHash,
			}).Errorf("failed to publish event: err=%v", err)
		}
	}
	return nil
}

// decode decodes the first log of the receipt and every other log emitted
// by the mixer contract.
func (w *Watcher) decode(receipt *types.Receipt) []*Event {
	var events []*Event
	for i, vlog := range receipt.Logs {
		if vlog == nil {
			continue
		}
		if i > 0 && vlog.Address != w.cfg.MixerAddress {
			continue
		}

		decoded, err := w.mixer.DecodeLog(*vlog)
		if err != nil {
			logger.WithFields(logger.Fields{
				"txHash":   receipt.TxHash.String(),
				"logIndex": vlog.Index,
			}).Debugf("skipping undecodable log: err=%v", err)
			continue
		}
		if decoded.Raw.TxHash == (ethcommon.Hash{}) {
			decoded.Raw.TxHash = receipt.TxHash
		}
		events = append(events, newEvent(decoded))
	}
	return events
}

func nextBackoff(cur, limit time.Duration) time.Duration {
	next := cur * 2
	if next > limit {
		return limit
	}
	return next
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
