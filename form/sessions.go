package form

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openclaw/qrstudio/qr"
)

// Session is one user's form together with its pending notifications.
type Session struct {
	ID         string
	Controller *Controller
	Queue      *Queue

	lastSeen time.Time
}

// Sessions maps session ids to forms. Idle sessions are removed after ttl.
type Sessions struct {
	enc      qr.Encoder
	defaults qr.Options
	ttl      time.Duration
	log      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewSessions creates an empty session registry. Every new form starts from
// defaults and encodes with enc.
func NewSessions(enc qr.Encoder, defaults qr.Options, ttl time.Duration, log *slog.Logger) *Sessions {
	return &Sessions{
		enc:      enc,
		defaults: defaults,
		ttl:      ttl,
		log:      log,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Get returns the session for id, creating a new one (with a fresh id) when
// id is empty or unknown. created reports whether a new session was made.
func (s *Sessions) Get(id string) (sess *Session, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok && id != "" {
		sess.lastSeen = s.now()
		return sess, false
	}

	q := &Queue{}
	sess = &Session{
		ID:         uuid.NewString(),
		Queue:      q,
		Controller: NewController(s.enc, s.defaults, q, s.log),
		lastSeen:   s.now(),
	}
	s.sessions[sess.ID] = sess
	s.log.Debug("session created", "session", sess.ID)
	return sess, true
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Expire removes sessions idle for longer than the ttl and returns how many
// were removed.
func (s *Sessions) Expire() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Expire every interval until ctx is cancelled.
func (s *Sessions) StartSweeper(ctx context.Context, interval time.Duration) {
	go s.sweepLoop(ctx, interval)
}

func (s *Sessions) sweepLoop(ctx context.Context, interval time.Duration) {
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if n := s.Expire(); n > 0 {
				s.log.Debug("expired idle sessions", "count", n, "remaining", s.Len())
			}
		}
	}
}
