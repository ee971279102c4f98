package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/okian/pitwall/pkg/metrics"
)

const defaultMaxSessions = 64

// MemoryStore is a bounded, in-memory Store. Writes take the lock and
// publish a new listing snapshot; List reads the snapshot without locking.
type MemoryStore struct {
	mu          sync.RWMutex
	byID        map[string]*Session
	order       []string // insertion order, oldest first
	maxSessions int

	listing atomic.Pointer[[]Summary]
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs a store with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:        make(map[string]*Session),
		maxSessions: defaultMaxSessions,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.publishListing()
	return s
}

// Put stores a session, evicting the oldest ones when full.
func (s *MemoryStore) Put(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[sess.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, sess.ID)
	}
	for len(s.order) >= s.maxSessions {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.byID, oldest)
		metrics.RecordSessionEvicted()
	}
	s.byID[sess.ID] = sess
	s.order = append(s.order, sess.ID)

	s.publishListing()
	metrics.UpdateSessionsStored(len(s.byID))
	return nil
}

// Get returns a session by id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sess, nil
}

// Delete removes a session.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	s.publishListing()
	metrics.UpdateSessionsStored(len(s.byID))
	return nil
}

// List returns the latest published listing, newest first.
func (s *MemoryStore) List(ctx context.Context) []Summary {
	if p := s.listing.Load(); p != nil {
		return *p
	}
	return nil
}

// Count returns the number of sessions held.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// publishListing must be called with mu held.
func (s *MemoryStore) publishListing() {
	out := make([]Summary, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.byID[s.order[i]].Summarize())
	}
	s.listing.Store(&out)
}
