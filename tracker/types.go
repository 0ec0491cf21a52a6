package tracker

import (
	"errors"
	"fmt"
	"time"

	"github.com/blindly-cash/relay-go/common"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

type Status string

const (
	StatusProcessing Status = "processing" // relay attempt in flight
	StatusSent       Status = "sent"       // confidential tx accepted, txHash known
	StatusFail       Status = "fail"       // relay attempt failed, detail set
)

var (
	ErrInvalidStatus   = errors.New("invalid status")
	ErrMissingTxHash   = errors.New("sent request requires a tx hash")
	ErrAlreadyTerminal = errors.New("request already in a terminal status")
	ErrNotFound        = errors.New("request not found")
)

func (s Status) Valid() bool {
	switch s {
	case StatusProcessing, StatusSent, StatusFail:
		return true
	}
	return false
}

// Terminal reports whether no further transition is expected.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusFail
}

// Request is the server side record of one redeem attempt, keyed by the
// hash of the encrypted claim.
type Request struct {
	ID        ethcommon.Hash
	Status    Status
	TxHash    ethcommon.Hash // set once sent
	Detail    string         // set on failure
	UpdatedAt time.Time
}

func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func (r *Request) validate() error {
	if !r.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, r.Status)
	}
	if r.Status == StatusSent && r.TxHash == (ethcommon.Hash{}) {
		return ErrMissingTxHash
	}
	return nil
}

// RequestID derives the tracking key of an encrypted claim.
func RequestID(encrypted []byte) ethcommon.Hash {
	return common.Keccak256Hash(encrypted)
}

type JSONRequest struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
	TxHash    string `json:"txHash"`
	Detail    string `json:"detail,omitempty"`
	UpdatedAt int64  `json:"updatedAt"`
}

func (r *Request) JSON() *JSONRequest {
	j := &JSONRequest{
		RequestID: r.ID.Hex(),
		Status:    string(r.Status),
		Detail:    r.Detail,
		UpdatedAt: r.UpdatedAt.Unix(),
	}
	if r.TxHash != (ethcommon.Hash{}) {
		j.TxHash = r.TxHash.Hex()
	}
	return j
}
