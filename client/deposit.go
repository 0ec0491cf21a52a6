package client

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	logger "github.com/sirupsen/logrus"

	"github.com/blindly-cash/relay-go/claim"
	"github.com/blindly-cash/relay-go/contracts/BlindlyCash"
)

// DepositAmount is the fixed value attached to every deposit, 0.1 ether.
var DepositAmount = big.NewInt(100000000000000000)

// Depositor commits deposit notes to the mixer contract with plain
// transactions.
type Depositor struct {
	mixer    *BlindlyCash.BlindlyCash
	auth     *bind.TransactOpts
	gasLimit uint64
}

// NewDepositor binds the mixer at address. A zero gasLimit lets the
// backend estimate it.
func NewDepositor(address ethcommon.Address, backend bind.ContractBackend, auth *bind.TransactOpts, gasLimit uint64) (*Depositor, error) {
	mixer, err := BlindlyCash.NewBlindlyCash(address, backend)
	if err != nil {
		return nil, err
	}
	return &Depositor{mixer: mixer, auth: auth, gasLimit: gasLimit}, nil
}

// Deposit sends deposit(commitment) with DepositAmount attached.
func (d *Depositor) Deposit(ctx context.Context, note *claim.DepositNote) (*types.Transaction, error) {
	opts := *d.auth
	opts.Context = ctx
	opts.Value = new(big.Int).Set(DepositAmount)
	opts.GasLimit = d.gasLimit

	commitment := note.Commitment()
	tx, err := d.mixer.Deposit(&opts, commitment)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"txHash":     tx.Hash().String(),
		"commitment": commitment.String(),
		"from":       d.auth.From.String(),
	}).Info("deposit sent")

	return tx, nil
}
