package etherman

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
)

var (
	ErrChainIDUnmatched = errors.New("chain id unmatched")
	ErrNoSubscription   = errors.New("pending transaction subscription not configured")
	ErrMissingKey       = errors.New("private key is required")
)

// RPCError is a json-rpc error as returned by a node. It satisfies both
// rpc.Error and rpc.DataError.
type RPCError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *RPCError) Error() string {
	return e.Message
}

func (e *RPCError) ErrorCode() int {
	return e.Code
}

func (e *RPCError) ErrorData() interface{} {
	return e.Data
}

var (
	_ rpc.Error     = (*RPCError)(nil)
	_ rpc.DataError = (*RPCError)(nil)
)

// ErrorDetail extracts the human readable cause of an upstream failure.
// The json-rpc error data is preferred over the message when it is a
// non-empty string.
func ErrorDetail(err error) string {
	if err == nil {
		return ""
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data, ok := dataErr.ErrorData().(string); ok && data != "" {
			return data
		}
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.Error()
	}

	return err.Error()
}

func ErrChainIDUnmatchedf(expected, got fmt.Stringer) error {
	return fmt.Errorf("%w: expected=%v, got=%v", ErrChainIDUnmatched, expected, got)
}
