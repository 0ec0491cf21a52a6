package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	logger "github.com/sirupsen/logrus"

	"github.com/blindly-cash/relay-go/claim"
	"github.com/blindly-cash/relay-go/client"
	"github.com/blindly-cash/relay-go/etherman"
	"github.com/blindly-cash/relay-go/rsaenc"
	"github.com/blindly-cash/relay-go/tracker"
)

var ErrInvalidRequestId = errors.New("request id must be 0x-prefixed 32 bytes hex")

// MixerUser's configuration
type MixerUserConfig struct {
	EthRpcUrl         string // json rpc url of the chain holding deposits
	EthAccountPriv    string // private key of the depositing account
	MixerContractAddr string
	RelayUrl          string // base url of the relay http server
	RsaModulusHex     string // empty = fetch from the relay
	RsaExponent       int
	ClaimFormat       string // packed | abi
}

// MixerUser deposits to the mixer and redeems through the relay.
type MixerUser struct {
	ChainId   *big.Int
	Account   *bind.TransactOpts
	Depositor *client.Depositor
	Relay     *client.RedeemClient

	rpcClient *ethclient.Client
	format    claim.Format
	encryptor *rsaenc.Encryptor
}

func NewMixerUser(muc *MixerUserConfig) (*MixerUser, error) {
	format, err := parseClaimFormat(muc.ClaimFormat)
	if err != nil {
		return nil, err
	}

	mu := &MixerUser{
		Relay:  client.NewRedeemClient(muc.RelayUrl, nil),
		format: format,
	}

	if muc.RsaModulusHex != "" {
		pk, err := rsaenc.ParsePublicKeyHex(muc.RsaModulusHex, muc.RsaExponent)
		if err != nil {
			return nil, err
		}
		if mu.encryptor, err = rsaenc.NewEncryptor(pk); err != nil {
			return nil, err
		}
	}

	// the deposit side is optional, redeem only needs the relay
	if muc.EthRpcUrl == "" {
		return mu, nil
	}

	mu.rpcClient, err = ethclient.Dial(muc.EthRpcUrl)
	if err != nil {
		return nil, err
	}
	mu.ChainId, err = mu.rpcClient.ChainID(context.Background())
	if err != nil {
		return nil, err
	}

	sk, err := etherman.StringToPrivateKey(muc.EthAccountPriv)
	if err != nil {
		return nil, err
	}
	mu.Account, err = bind.NewKeyedTransactorWithChainID(sk, mu.ChainId)
	if err != nil {
		return nil, err
	}

	mu.Depositor, err = client.NewDepositor(common.HexToAddress(muc.MixerContractAddr), mu.rpcClient, mu.Account, 0)
	if err != nil {
		return nil, err
	}
	return mu, nil
}

// Deposit creates a fresh note and commits it. The note must be kept by
// the user, it is the only way to redeem.
func (mu *MixerUser) Deposit(ctx context.Context) (*claim.DepositNote, *types.Receipt, error) {
	if mu.Depositor == nil {
		return nil, nil, fmt.Errorf("deposit requires an eth rpc url")
	}

	note, err := claim.NewDepositNote()
	if err != nil {
		return nil, nil, err
	}
	tx, err := mu.Depositor.Deposit(ctx, note)
	if err != nil {
		return nil, nil, err
	}
	receipt, err := bind.WaitMined(ctx, mu.rpcClient, tx)
	if err != nil {
		return note, nil, err
	}
	return note, receipt, nil
}

// Redeem builds and encrypts the claim for noteHex and submits it. It
// returns the request id together with the relay outcome.
func (mu *MixerUser) Redeem(ctx context.Context, noteHex string, redeemTo string, tipBasisPoints int64) (common.Hash, *client.Outcome, error) {
	c, err := claim.ParseRedeemClaim(noteHex, redeemTo, big.NewInt(tipBasisPoints))
	if err != nil {
		return common.Hash{}, nil, err
	}

	enc, err := mu.getEncryptor(ctx)
	if err != nil {
		return common.Hash{}, nil, err
	}

	encrypted, err := client.BuildEncryptedClaim(enc, c, mu.format)
	if err != nil {
		return common.Hash{}, nil, err
	}
	id := tracker.RequestID(common.FromHex(encrypted))

	logger.WithField("requestId", id.String()).Debug("submitting redeem")
	out, err := mu.Relay.Redeem(ctx, encrypted)
	return id, out, err
}

func (mu *MixerUser) Status(ctx context.Context, requestId string) (*tracker.JSONRequest, error) {
	b, err := hexutil.Decode(requestId)
	if err != nil || len(b) != common.HashLength {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRequestId, requestId)
	}
	return mu.Relay.Status(ctx, common.BytesToHash(b))
}

func (mu *MixerUser) getEncryptor(ctx context.Context) (*rsaenc.Encryptor, error) {
	if mu.encryptor != nil {
		return mu.encryptor, nil
	}
	pk, err := mu.Relay.PublicKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("no rsa key configured and relay did not provide one: %w", err)
	}
	mu.encryptor, err = rsaenc.NewEncryptor(pk)
	return mu.encryptor, err
}

func (mu *MixerUser) Close() {
	if mu.rpcClient != nil {
		mu.rpcClient.Close()
	}
}

func parseClaimFormat(s string) (claim.Format, error) {
	switch s {
	case "", "packed":
		return claim.FormatPacked, nil
	case "abi":
		return claim.FormatABI, nil
	}
	return 0, fmt.Errorf("unknown claim format: %s", s)
}
