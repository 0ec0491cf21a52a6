package watcher

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/blindly-cash/relay-go/contracts/BlindlyCash"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Event is a decoded mixer contract event observed in a settled
// transaction.
type Event struct {
	Name        string            `json:"name"`
	Contract    string            `json:"contract"`
	TxHash      string            `json:"txHash"`
	BlockNumber uint64            `json:"blockNumber"`
	LogIndex    uint              `json:"logIndex"`
	Args        map[string]string `json:"args"`
}

func newEvent(decoded *BlindlyCash.DecodedEvent) *Event {
	args := make(map[string]string, len(decoded.Args))
	for k, v := range decoded.Args {
		args[k] = formatArg(v)
	}
	return &Event{
		Name:        decoded.Name,
		Contract:    decoded.Raw.Address.Hex(),
		TxHash:      decoded.Raw.TxHash.Hex(),
		BlockNumber: decoded.Raw.BlockNumber,
		LogIndex:    decoded.Raw.Index,
		Args:        args,
	}
}

// ArgNames returns the argument names in a stable order.
func (ev *Event) ArgNames() []string {
	names := make([]string, 0, len(ev.Args))
	for k := range ev.Args {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func formatArg(v interface{}) string {
	switch val := v.(type) {
	case *big.Int:
		return val.String()
	case ethcommon.Address:
		return val.Hex()
	case ethcommon.Hash:
		return val.Hex()
	case [32]byte:
		return hexutil.Encode(val[:])
	case []byte:
		return hexutil.Encode(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
