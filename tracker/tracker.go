package tracker

import (
	"fmt"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"
)

// Tracker is the source of truth for clients polling a redeem request.
type Tracker struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// NewInMemory returns a tracker whose state lives only as long as the
// process does.
func NewInMemory() *Tracker {
	return New(NewMemStore())
}

func (t *Tracker) Close() error {
	return t.store.Close()
}

// Create registers id as processing. An existing record, even one that is
// in flight or terminal, is overwritten.
func (t *Tracker) Create(id ethcommon.Hash) error {
	old, ok, err := t.store.Get(id)
	if err != nil {
		return err
	}
	if ok {
		logger.WithFields(logger.Fields{
			"requestId": id.String(),
			"status":    old.Status,
		}).Warn("overwriting existing redeem request")
	}

	return t.store.Put(&Request{
		ID:        id,
		Status:    StatusProcessing,
		UpdatedAt: t.now(),
	})
}

// CreateIfAbsent registers id as processing only if no record exists. The
// existing record is returned when one does.
func (t *Tracker) CreateIfAbsent(id ethcommon.Hash) (bool, *Request, error) {
	ok, err := t.store.CompareAndSwap(id, nil, &Request{
		ID:        id,
		Status:    StatusProcessing,
		UpdatedAt: t.now(),
	})
	if err != nil || ok {
		return ok, nil, err
	}

	existing, _, err := t.store.Get(id)
	return false, existing, err
}

// Begin starts a new attempt for id. It succeeds when id is unknown or its
// previous attempt reached a terminal status, and refuses (returning the
// current record) while another attempt is still processing.
func (t *Tracker) Begin(id ethcommon.Hash) (bool, *Request, error) {
	started, existing, err := t.CreateIfAbsent(id)
	if err != nil || started || existing == nil {
		return started, existing, err
	}
	if !existing.Status.Terminal() {
		return false, existing, nil
	}

	from := existing.Status
	ok, err := t.store.CompareAndSwap(id, &from, &Request{
		ID:        id,
		Status:    StatusProcessing,
		UpdatedAt: t.now(),
	})
	if err != nil || ok {
		return ok, nil, err
	}

	cur, _, err := t.store.Get(id)
	return false, cur, err
}

// Update replaces the record of id unconditionally.
func (t *Tracker) Update(id ethcommon.Hash, status Status, txHash ethcommon.Hash, detail string) error {
	r := &Request{
		ID:        id,
		Status:    status,
		TxHash:    txHash,
		Detail:    detail,
		UpdatedAt: t.now(),
	}
	if err := r.validate(); err != nil {
		return err
	}
	return t.store.Put(r)
}

// Finalize moves id from processing to a terminal status. It fails with
// ErrAlreadyTerminal when another writer already finished the request and
// ErrNotFound when there is no record.
func (t *Tracker) Finalize(id ethcommon.Hash, status Status, txHash ethcommon.Hash, detail string) error {
	if !status.Terminal() {
		return fmt.Errorf("%w: %q is not terminal", ErrInvalidStatus, status)
	}

	r := &Request{
		ID:        id,
		Status:    status,
		TxHash:    txHash,
		Detail:    detail,
		UpdatedAt: t.now(),
	}
	if err := r.validate(); err != nil {
		return err
	}

	processing := StatusProcessing
	ok, err := t.store.CompareAndSwap(id, &processing, r)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	cur, found, err := t.store.Get(id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return fmt.Errorf("%w: requestId=%s status=%s", ErrAlreadyTerminal, id.String(), cur.Status)
}

func (t *Tracker) Get(id ethcommon.Hash) (*Request, bool, error) {
	return t.store.Get(id)
}
