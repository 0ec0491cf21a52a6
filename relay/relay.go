package relay

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/blindly-cash/relay-go/common"
	"github.com/blindly-cash/relay-go/contracts/BlindlyCash"
	"github.com/blindly-cash/relay-go/etherman"
	"github.com/blindly-cash/relay-go/tracker"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	logger "github.com/sirupsen/logrus"
)

// DefaultTip is the tip argument passed to offchainRedeem. The tip the
// user actually offers travels inside the encrypted claim.
var DefaultTip = big.NewInt(10)

type Config struct {
	ChainID       *big.Int
	MixerAddress  ethcommon.Address
	KettleAddress ethcommon.Address

	// GasLimit of the confidential request, DefaultConfidentialGasLimit
	// when zero
	GasLimit uint64

	// Tip overrides DefaultTip
	Tip *big.Int

	// RejectInFlightDuplicates refuses a resubmitted claim while a previous
	// attempt with the same request id is still processing, and only lets
	// the attempt that registered a request finalize it. Off by default:
	// duplicates overwrite each other and the last writer wins.
	RejectInFlightDuplicates bool

	// SubmitTimeout bounds gas price lookup plus submission. Zero means
	// the caller's context is used as is.
	SubmitTimeout time.Duration
}

// Relay forwards encrypted redeem claims to the mixer contract as
// confidential compute requests and tracks their outcome.
type Relay struct {
	cfg     *Config
	backend etherman.Backend
	tracker *tracker.Tracker
	mixer   *BlindlyCash.BlindlyCash
}

func New(cfg *Config, backend etherman.Backend, tr *tracker.Tracker) (*Relay, error) {
	if cfg.ChainID == nil {
		return nil, errors.New("chain id is required")
	}
	if cfg.MixerAddress == (ethcommon.Address{}) {
		return nil, errors.New("mixer contract address is required")
	}

	mixer, err := BlindlyCash.NewBlindlyCash(cfg.MixerAddress, nil)
	if err != nil {
		return nil, err
	}

	c := *cfg
	if c.GasLimit == 0 {
		c.GasLimit = etherman.DefaultConfidentialGasLimit
	}
	if c.Tip == nil {
		c.Tip = DefaultTip
	}
	c.Tip = new(big.Int).Set(c.Tip)

	return &Relay{
		cfg:     &c,
		backend: backend,
		tracker: tr,
		mixer:   mixer,
	}, nil
}

func (r *Relay) Tracker() *tracker.Tracker {
	return r.tracker
}

// Redeem relays one encrypted claim given as 0x-prefixed hex. A missing or
// malformed payload yields an Error result without touching the tracker.
// Every other outcome is recorded under the request id before returning.
func (r *Relay) Redeem(ctx context.Context, encryptedHex string) Result {
	res := r.redeem(ctx, encryptedHex)
	observeResult(res)
	return res
}

func (r *Relay) redeem(ctx context.Context, encryptedHex string) Result {
	encrypted, res, ok := parseEncrypted(encryptedHex)
	if !ok {
		return res
	}

	id := tracker.RequestID(encrypted)
	if res, ok := r.register(id); !ok {
		return res
	}

	if r.cfg.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.SubmitTimeout)
		defer cancel()
	}

	start := time.Now()
	defer observeSubmit(start)

	gasPrice, err := r.backend.GasPrice(ctx)
	if err != nil {
		return r.fail(id, etherman.ErrorDetail(err), fmt.Errorf("%w: gas price: %v", ErrUpstreamUnavailable, err))
	}

	data, err := r.mixer.PackOffchainRedeem(encrypted, r.cfg.Tip)
	if err != nil {
		return r.fail(id, err.Error(), err)
	}

	req := &etherman.ConfidentialRequest{
		ChainID:       r.cfg.ChainID,
		To:            r.cfg.MixerAddress,
		GasPrice:      gasPrice,
		Gas:           r.cfg.GasLimit,
		Data:          data,
		Type:          etherman.ConfidentialComputeRequestTxType,
		IsEIP712:      true,
		KettleAddress: r.cfg.KettleAddress,
	}

	txHash, err := r.backend.SendConfidentialRequest(ctx, req)
	if err != nil {
		return r.fail(id, etherman.ErrorDetail(err), classifySendError(err))
	}

	sent, err := NewSent(id, txHash)
	if err != nil {
		return r.fail(id, err.Error(), fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err))
	}
	r.record(id, tracker.StatusSent, txHash, "")

	logger.WithFields(logger.Fields{
		"requestId": id.String(),
		"txHash":    txHash.String(),
	}).Info("redeem request sent")

	return sent
}

func parseEncrypted(encryptedHex string) ([]byte, Result, bool) {
	if encryptedHex == "" {
		return nil, NewError(DetailMissingTriplet, ErrBadRequest), false
	}
	if !common.Has0xPrefix(encryptedHex) {
		return nil, NewError(DetailMalformed, ErrBadRequestf("missing 0x prefix")), false
	}
	encrypted, err := hexutil.Decode(encryptedHex)
	if err != nil {
		return nil, NewError(DetailMalformed, ErrBadRequestf("%v", err)), false
	}
	if len(encrypted) == 0 {
		return nil, NewError(DetailMissingTriplet, ErrBadRequest), false
	}
	return encrypted, Result{}, true
}

func (r *Relay) register(id ethcommon.Hash) (Result, bool) {
	if !r.cfg.RejectInFlightDuplicates {
		if err := r.tracker.Create(id); err != nil {
			logger.WithField("requestId", id.String()).Errorf("failed to register redeem request: err=%v", err)
			return NewFail(id, "request tracking unavailable", err), false
		}
		return Result{}, true
	}

	started, existing, err := r.tracker.Begin(id)
	if err != nil {
		logger.WithField("requestId", id.String()).Errorf("failed to register redeem request: err=%v", err)
		return NewFail(id, "request tracking unavailable", err), false
	}
	if !started {
		fields := logger.Fields{"requestId": id.String()}
		if existing != nil {
			fields["status"] = existing.Status
		}
		logger.WithFields(fields).Warn("rejecting duplicate in-flight redeem request")
		return NewFail(id, DetailInFlight, ErrInFlight), false
	}
	return Result{}, true
}

func (r *Relay) fail(id ethcommon.Hash, detail string, err error) Result {
	logger.WithFields(logger.Fields{
		"requestId": id.String(),
		"detail":    detail,
	}).Warnf("redeem request failed: err=%v", err)

	r.record(id, tracker.StatusFail, ethcommon.Hash{}, detail)
	return NewFail(id, detail, err)
}

func (r *Relay) record(id ethcommon.Hash, status tracker.Status, txHash ethcommon.Hash, detail string) {
	var err error
	if r.cfg.RejectInFlightDuplicates {
		err = r.tracker.Finalize(id, status, txHash, detail)
	} else {
		err = r.tracker.Update(id, status, txHash, detail)
	}
	if err != nil {
		logger.WithFields(logger.Fields{
			"requestId": id.String(),
			"status":    status,
		}).Errorf("failed to record redeem outcome: err=%v", err)
	}
}

// classifySendError separates a node that answered with a json-rpc error
// from one that could not be reached.
func classifySendError(err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return fmt.Errorf("%w: %v", ErrSubmissionRejected, err)
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
}
