package tracker

import (
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"
)

// CachedStore is a read-through lru cache in front of a slower Store.
// Writes go to the backend first, then refresh the cache.
type CachedStore struct {
	backend Store
	cache   *lru.Cache[ethcommon.Hash, *Request]

	// serialises writes so the cache never runs ahead of the backend
	mu sync.Mutex
}

func NewCachedStore(backend Store, size int) *CachedStore {
	return &CachedStore{
		backend: backend,
		cache:   lru.NewCache[ethcommon.Hash, *Request](size),
	}
}

func (s *CachedStore) Get(id ethcommon.Hash) (*Request, bool, error) {
	if r, ok := s.cache.Get(id); ok {
		return r.Clone(), true, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok, err := s.backend.Get(id)
	if err != nil || !ok {
		return nil, ok, err
	}
	s.cache.Add(id, r.Clone())
	return r, true, nil
}

func (s *CachedStore) Put(r *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Put(r); err != nil {
		s.cache.Remove(r.ID)
		return err
	}
	s.cache.Add(r.ID, r.Clone())
	return nil
}

func (s *CachedStore) CompareAndSwap(id ethcommon.Hash, expected *Status, next *Request) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.backend.CompareAndSwap(id, expected, next)
	if err != nil {
		s.cache.Remove(id)
		return false, err
	}
	if ok {
		s.cache.Add(id, next.Clone())
	}
	return ok, nil
}

func (s *CachedStore) Close() error {
	s.cache.Purge()
	return s.backend.Close()
}
