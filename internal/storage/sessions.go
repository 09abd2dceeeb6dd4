package storage

import (
	"sync"
	"time"
)

// Pending names the input a user is expected to type next.
type Pending int

const (
	PendingNone Pending = iota
	PendingTemplate
	PendingReplaceRule
	PendingBannerLink
)

// Session is the transient per-user conversation state.
type Session struct {
	Pending Pending
	Since   time.Time
}

// Sessions is a keyed in-memory session table owned by the bot process.
// Entries older than ttl are treated as absent.
type Sessions struct {
	mu  sync.Mutex
	m   map[int64]Session
	ttl time.Duration
	now func() time.Time
}

// NewSessions creates an empty table. ttl <= 0 disables expiry.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{m: make(map[int64]Session), ttl: ttl, now: time.Now}
}

// Expect records that userID's next text message answers p.
func (s *Sessions) Expect(userID int64, p Pending) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[userID] = Session{Pending: p, Since: s.now()}
}

// Take returns and clears userID's pending input.
func (s *Sessions) Take(userID int64) Pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[userID]
	if !ok {
		return PendingNone
	}
	delete(s.m, userID)
	if s.ttl > 0 && s.now().Sub(sess.Since) > s.ttl {
		return PendingNone
	}
	return sess.Pending
}

// Clear forgets userID's session.
func (s *Sessions) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
}

// Len returns the number of stored sessions, expired ones included.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
