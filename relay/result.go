package relay

import (
	"errors"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

type Kind int

const (
	KindSent Kind = iota + 1
	KindFail
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSent:
		return "sent"
	case KindFail:
		return "fail"
	case KindError:
		return "error"
	}
	return "unknown"
}

var ErrZeroTxHash = errors.New("sent result requires a non-zero tx hash")

// Result is the outcome of one redeem call. Exactly one of the variants
// Sent{txHash}, Fail{detail} or Error{detail} is held, and only the
// constructors below can build one.
type Result struct {
	kind      Kind
	requestID ethcommon.Hash
	txHash    ethcommon.Hash
	detail    string
	err       error
}

func NewSent(requestID, txHash ethcommon.Hash) (Result, error) {
	if txHash == (ethcommon.Hash{}) {
		return Result{}, ErrZeroTxHash
	}
	return Result{kind: KindSent, requestID: requestID, txHash: txHash}, nil
}

// NewFail is a business failure: the relay attempt ran and the upstream
// refused or could not be reached. err is the classification.
func NewFail(requestID ethcommon.Hash, detail string, err error) Result {
	return Result{kind: KindFail, requestID: requestID, detail: detail, err: err}
}

// NewError is a rejected input. No relay attempt was made.
func NewError(detail string, err error) Result {
	return Result{kind: KindError, detail: detail, err: err}
}

func (r Result) Kind() Kind {
	return r.kind
}

// RequestID is zero for Error results.
func (r Result) RequestID() ethcommon.Hash {
	return r.requestID
}

func (r Result) TxHash() ethcommon.Hash {
	return r.txHash
}

func (r Result) Detail() string {
	return r.detail
}

// Err returns the classified error of Fail and Error results.
func (r Result) Err() error {
	return r.err
}

// Response is the wire shape of a Result. Detail is present, possibly
// empty, on fail and error and absent on sent.
type Response struct {
	Status string  `json:"status"`
	TxHash string  `json:"txHash"`
	Detail *string `json:"detail,omitempty"`
}

func (r Result) Response() *Response {
	resp := &Response{Status: r.kind.String()}
	switch r.kind {
	case KindSent:
		resp.TxHash = r.txHash.Hex()
	default:
		detail := r.detail
		resp.Detail = &detail
	}
	return resp
}

func (resp *Response) DetailText() string {
	if resp.Detail == nil {
		return ""
	}
	return *resp.Detail
}
