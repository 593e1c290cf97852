package session

import (
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Store keeps live sessions in a bounded in-process cache. Least recently
// used sessions are evicted once the capacity is reached; nothing is ever
// written to disk.
type Store struct {
	cache *lru.Cache[uuid.UUID, *Session]
}

func NewStore(capacity int) (*Store, error) {
	cache, err := lru.New[uuid.UUID, *Session](capacity)
	if err != nil {
		return nil, err
	}
	return &Store{cache: cache}, nil
}

func (st *Store) Put(s *Session) {
	st.cache.Add(s.ID, s)
}

func (st *Store) Get(id uuid.UUID) (*Session, bool) {
	return st.cache.Get(id)
}

func (st *Store) Remove(id uuid.UUID) {
	st.cache.Remove(id)
}

func (st *Store) Len() int {
	return st.cache.Len()
}
