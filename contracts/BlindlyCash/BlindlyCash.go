// Binding for the BlindlyCash mixer contract. Only the entry points used by
// the relay and the deposit client are bound.

package BlindlyCash

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	MethodDeposit        = "deposit"
	MethodOffchainRedeem = "offchainRedeem"

	EventDeposited = "Deposited"
	EventRedeemed  = "Redeemed"
)

var (
	ErrNoTopics     = errors.New("log has no topics")
	ErrUnknownEvent = errors.New("unknown event")
)

// BlindlyCashMetaData contains the meta data of the BlindlyCash contract.
var BlindlyCashMetaData = &bind.MetaData{
	ABI: `[
	{"inputs":[{"internalType":"bytes32","name":"msgHash","type":"bytes32"}],"name":"deposit","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"internalType":"bytes","name":"encryptedTriplet","type":"bytes"},{"internalType":"uint256","name":"tipBP","type":"uint256"}],"name":"offchainRedeem","outputs":[{"internalType":"bytes","name":"","type":"bytes"}],"stateMutability":"nonpayable","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"internalType":"bytes32","name":"msgHash","type":"bytes32"},{"indexed":true,"internalType":"address","name":"from","type":"address"},{"indexed":false,"internalType":"uint256","name":"amount","type":"uint256"}],"name":"Deposited","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"redeemTo","type":"address"},{"indexed":false,"internalType":"uint256","name":"amount","type":"uint256"},{"indexed":false,"internalType":"uint256","name":"tip","type":"uint256"}],"name":"Redeemed","type":"event"}
]`,
}

// DepositedEvent is emitted by deposit(bytes32).
type DepositedEvent struct {
	MsgHash [32]byte
	From    common.Address
	Amount  *big.Int
	Raw     types.Log
}

// RedeemedEvent is emitted once the kettle settled an offchain redeem.
type RedeemedEvent struct {
	RedeemTo common.Address
	Amount   *big.Int
	Tip      *big.Int
	Raw      types.Log
}

// DecodedEvent is the name and arguments of any event of the contract.
type DecodedEvent struct {
	Name string
	Args map[string]interface{}
	Raw  types.Log
}

// BlindlyCash wraps the parsed abi together with a bound contract.
type BlindlyCash struct {
	address  common.Address
	abi      *abi.ABI
	contract *bind.BoundContract
}

func ParsedABI() (*abi.ABI, error) {
	return BlindlyCashMetaData.GetAbi()
}

func NewBlindlyCash(address common.Address, backend bind.ContractBackend) (*BlindlyCash, error) {
	parsed, err := ParsedABI()
	if err != nil {
		return nil, err
	}

	var contract *bind.BoundContract
	if backend != nil {
		contract = bind.NewBoundContract(address, *parsed, backend, backend, backend)
	}

	return &BlindlyCash{address: address, abi: parsed, contract: contract}, nil
}

func (bc *BlindlyCash) Address() common.Address {
	return bc.address
}

// Deposit sends a plain transaction calling deposit(msgHash); opts.Value
// carries the deposited amount.
func (bc *BlindlyCash) Deposit(opts *bind.TransactOpts, msgHash [32]byte) (*types.Transaction, error) {
	if bc.contract == nil {
		return nil, errors.New("contract is not bound to a backend")
	}
	return bc.contract.Transact(opts, MethodDeposit, msgHash)
}

func (bc *BlindlyCash) PackDeposit(msgHash [32]byte) ([]byte, error) {
	return bc.abi.Pack(MethodDeposit, msgHash)
}

// PackOffchainRedeem builds the calldata of offchainRedeem(bytes,uint256).
func (bc *BlindlyCash) PackOffchainRedeem(encryptedTriplet []byte, tip *big.Int) ([]byte, error) {
	return bc.abi.Pack(MethodOffchainRedeem, encryptedTriplet, tip)
}

// UnpackOffchainRedeemInput is the inverse of PackOffchainRedeem.
func (bc *BlindlyCash) UnpackOffchainRedeemInput(calldata []byte) ([]byte, *big.Int, error) {
	if len(calldata) < 4 {
		return nil, nil, errors.New("calldata too short")
	}
	method, err := bc.abi.MethodById(calldata[:4])
	if err != nil {
		return nil, nil, err
	}
	if method.Name != MethodOffchainRedeem {
		return nil, nil, fmt.Errorf("unexpected method: %s", method.Name)
	}

	values, err := method.Inputs.Unpack(calldata[4:])
	if err != nil {
		return nil, nil, err
	}
	return values[0].([]byte), values[1].(*big.Int), nil
}

// DecodeLog decodes any event emitted by the contract.
func (bc *BlindlyCash) DecodeLog(vlog types.Log) (*DecodedEvent, error) {
	if len(vlog.Topics) == 0 {
		return nil, ErrNoTopics
	}

	ev, err := bc.abi.EventByID(vlog.Topics[0])
	if err != nil {
		return nil, fmt.Errorf("%w: topic=%s", ErrUnknownEvent, vlog.Topics[0].Hex())
	}

	args := make(map[string]interface{})
	if len(vlog.Data) > 0 {
		if err := ev.Inputs.UnpackIntoMap(args, vlog.Data); err != nil {
			return nil, err
		}
	}

	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopicsIntoMap(args, indexed, vlog.Topics[1:]); err != nil {
		return nil, err
	}

	return &DecodedEvent{Name: ev.Name, Args: args, Raw: vlog}, nil
}

func (bc *BlindlyCash) ParseDeposited(vlog types.Log) (*DepositedEvent, error) {
	ev := &DepositedEvent{Raw: vlog}
	if err := bc.unpackLog(ev, EventDeposited, vlog); err != nil {
		return nil, err
	}
	return ev, nil
}

func (bc *BlindlyCash) ParseRedeemed(vlog types.Log) (*RedeemedEvent, error) {
	ev := &RedeemedEvent{Raw: vlog}
	if err := bc.unpackLog(ev, EventRedeemed, vlog); err != nil {
		return nil, err
	}
	return ev, nil
}

func (bc *BlindlyCash) unpackLog(out interface{}, event string, vlog types.Log) error {
	if len(vlog.Topics) == 0 {
		return ErrNoTopics
	}
	if vlog.Topics[0] != bc.abi.Events[event].ID {
		return fmt.Errorf("%w: not a %s log", ErrUnknownEvent, event)
	}
	if len(vlog.Data) > 0 {
		if err := bc.abi.UnpackIntoInterface(out, event, vlog.Data); err != nil {
			return err
		}
	}
	var indexed abi.Arguments
	for _, arg := range bc.abi.Events[event].Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return abi.ParseTopics(out, indexed, vlog.Topics[1:])
}
