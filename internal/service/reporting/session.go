package reporting

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clinicops/reportengine/internal/domain/models"
)

// Snapshot is the report a session last published, together with the range it was fetched for.
type Snapshot struct {
	Range  models.ReportRange
	Result *models.ReportResult
}

// Session tracks the report requests of one consumer. Only the most recently
// initiated Refresh may publish; responses of superseded requests are dropped.
type Session struct {
	svc *Service
	seq atomic.Uint64

	mu        sync.RWMutex
	published uint64
	current   *Snapshot
}

// NewSession creates an empty session bound to svc.
func NewSession(svc *Service) *Session {
	return &Session{svc: svc}
}

// Refresh fetches rng and publishes the result unless a newer Refresh was
// initiated meanwhile, in which case ErrSuperseded is returned.
func (s *Session) Refresh(ctx context.Context, rng models.ReportRange) (*Snapshot, error) {
	id := s.seq.Add(1)

	result, err := s.svc.FetchReport(ctx, rng)

	if s.seq.Load() != id {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Range: rng, Result: result}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id < s.published {
		return nil, ErrSuperseded
	}
	s.published = id
	s.current = snap
	return snap, nil
}

// Current returns the last published snapshot, or nil before the first successful refresh.
func (s *Session) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

const (
	DefaultSessionTTL      = 30 * time.Minute
	DefaultSessionCapacity = 1024
)

type sessionEntry struct {
	session  *Session
	lastUsed time.Time
}

// SessionManager hands out one Session per consumer id. Sessions idle for
// longer than the TTL are dropped, and when the manager is full the least
// recently used session is evicted.
type SessionManager struct {
	svc       *Service
	ttl       time.Duration
	capacity  int
	now       func() time.Time
	lastSweep time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// NewSessionManager creates a session manager. Non-positive ttl or capacity
// fall back to DefaultSessionTTL and DefaultSessionCapacity.
func NewSessionManager(svc *Service, ttl time.Duration, capacity int) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if capacity <= 0 {
		capacity = DefaultSessionCapacity
	}
	return &SessionManager{
		svc:      svc,
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
}

// Get retrieves the session of a consumer, creating it on first use or after it expired.
func (sm *SessionManager) Get(consumerID string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := sm.now()
	if now.Sub(sm.lastSweep) >= sm.ttl/2 {
		sm.sweepLocked(now)
	}

	if e, ok := sm.sessions[consumerID]; ok {
		if now.Sub(e.lastUsed) < sm.ttl {
			e.lastUsed = now
			return e.session
		}
		delete(sm.sessions, consumerID)
	}

	if len(sm.sessions) >= sm.capacity {
		sm.sweepLocked(now)
	}
	for len(sm.sessions) >= sm.capacity {
		sm.evictOldestLocked()
	}

	s := NewSession(sm.svc)
	sm.sessions[consumerID] = &sessionEntry{session: s, lastUsed: now}
	return s
}

// Close forgets a consumer's session.
func (sm *SessionManager) Close(consumerID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, consumerID)
}

// Len returns the number of sessions currently held.
func (sm *SessionManager) Len() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}

func (sm *SessionManager) sweepLocked(now time.Time) {
	for id, e := range sm.sessions {
		if now.Sub(e.lastUsed) >= sm.ttl {
			delete(sm.sessions, id)
		}
	}
	sm.lastSweep = now
}

func (sm *SessionManager) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
		found    bool
	)
	for id, e := range sm.sessions {
		if !found || e.lastUsed.Before(oldest) {
			oldestID, oldest, found = id, e.lastUsed, true
		}
	}
	if found {
		delete(sm.sessions, oldestID)
	}
}
