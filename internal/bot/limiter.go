package bot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles each user separately: one budget for requests per
// minute (every message and button press) and one for uploads per hour.
type Limiter struct {
	mu        sync.Mutex
	perMinute int
	perHour   int
	users     map[int64]*userLimits
	now       func() time.Time
}

type userLimits struct {
	requests *rate.Limiter
	uploads  *rate.Limiter
	seen     time.Time
}

// NewLimiter allows perMinute requests per minute and perHour uploads per
// hour to each user. Both budgets start full.
func NewLimiter(perMinute, perHour int) *Limiter {
	return &Limiter{
		perMinute: perMinute,
		perHour:   perHour,
		users:     make(map[int64]*userLimits),
		now:       time.Now,
	}
}

func (l *Limiter) get(userID int64, now time.Time) *userLimits {
	u, ok := l.users[userID]
	if !ok {
		u = &userLimits{
			requests: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute),
			uploads:  rate.NewLimiter(rate.Every(time.Hour/time.Duration(l.perHour)), l.perHour),
		}
		l.users[userID] = u
	}
	u.seen = now
	return u
}

// AllowRequest spends one request token for userID.
func (l *Limiter) AllowRequest(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	return l.get(userID, now).requests.AllowN(now, 1)
}

// AllowUpload spends one upload token for userID.
func (l *Limiter) AllowUpload(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	return l.get(userID, now).uploads.AllowN(now, 1)
}

// Prune forgets users idle for longer than idle. A forgotten user starts
// again with full budgets, so idle must be at least an hour.
func (l *Limiter) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-idle)
	n := 0
	for id, u := range l.users {
		if u.seen.Before(cutoff) {
			delete(l.users, id)
			n++
		}
	}
	return n
}

// Len returns the number of tracked users.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.users)
}
