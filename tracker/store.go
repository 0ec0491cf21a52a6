package tracker

import (
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Store is the key-value backend of the tracker. Implementations must make
// every single-key operation atomic.
type Store interface {
	Get(id ethcommon.Hash) (*Request, bool, error)
	Put(r *Request) error
	// CompareAndSwap replaces the record only if its current status equals
	// *expected; a nil expected means "only if absent".
	CompareAndSwap(id ethcommon.Hash, expected *Status, next *Request) (bool, error)
	Close() error
}

// MemStore keeps records in process memory. Nothing expires.
type MemStore struct {
	mu sync.RWMutex
	m  map[ethcommon.Hash]*Request
}

func NewMemStore() *MemStore {
	return &MemStore{m: make(map[ethcommon.Hash]*Request)}
}

func (s *MemStore) Get(id ethcommon.Hash) (*Request, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.m[id]
	return r.Clone(), ok, nil
}

func (s *MemStore) Put(r *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[r.ID] = r.Clone()
	return nil
}

func (s *MemStore) CompareAndSwap(id ethcommon.Hash, expected *Status, next *Request) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.m[id]
	if !statusMatches(cur, ok, expected) {
		return false, nil
	}
	s.m[id] = next.Clone()
	return true, nil
}

func (s *MemStore) Close() error {
	return nil
}

func statusMatches(cur *Request, ok bool, expected *Status) bool {
	if expected == nil {
		return !ok
	}
	return ok && cur.Status == *expected
}
