package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/grievance_desk/backend/internal/models"
)

// SessionTracker keeps bounded, TTL-scoped submission history per anonymous
// actor. State is in-memory only; losing it leaves persisted data intact.
type SessionTracker struct {
	mu        sync.Mutex
	sessions  map[string]*models.Session
	ttl       time.Duration
	maxEntry  int
	sweepMin  time.Duration
	lastSweep time.Time
	now       func() time.Time
	logger    zerolog.Logger
}

func NewSessionTracker(ttl time.Duration, maxEntries int, sweepInterval time.Duration, logger zerolog.Logger) *SessionTracker {
	return &SessionTracker{
		sessions: map[string]*models.Session{},
		ttl:      ttl,
		maxEntry: maxEntries,
		sweepMin: sweepInterval,
		now:      time.Now,
		logger:   logger,
	}
}

func (t *SessionTracker) Create() *models.Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now().UTC()
	s := &models.Session{
		ID:           "SES-" + uuid.New().String()[:12],
		CreatedAt:    now,
		LastActiveAt: now,
	}
	t.sessions[s.ID] = s
	t.logger.Info().Str("session_id", s.ID).Msg("session created")
	return s
}

// Get returns the session if it has been active within the TTL, refreshing
// last_active_at (sliding TTL). Expired sessions are dropped and reported
// as absent.
func (t *SessionTracker) Get(id string) (*models.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.getLocked(id)
}

func (t *SessionTracker) getLocked(id string) (*models.Session, bool) {
	s, ok := t.sessions[id]
	if !ok {
		return nil, false
	}
	now := t.now().UTC()
	if now.Sub(s.LastActiveAt) > t.ttl {
		delete(t.sessions, id)
		t.logger.Info().Str("session_id", id).Msg("session expired")
		return nil, false
	}
	s.LastActiveAt = now
	return s, true
}

// CanSubmit reports whether the session may accept another entry. This is
// the primary capacity guard and runs before any append.
func (t *SessionTracker) CanSubmit(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.getLocked(id)
	if !ok {
		return false
	}
	return len(s.Entries) < t.maxEntry
}

// AddEntry appends an entry, idempotent on complaint id: re-adding an
// already-present complaint_id is a no-op returning false.
func (t *SessionTracker) AddEntry(id string, entry models.SessionEntry) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.getLocked(id)
	if !ok {
		return false
	}
	for _, e := range s.Entries {
		if e.ComplaintID == entry.ComplaintID {
			t.logger.Warn().Str("session_id", id).Str("complaint_id", entry.ComplaintID).Msg("complaint already in session")
			return false
		}
	}
	s.Entries = append(s.Entries, entry)
	s.LastActiveAt = t.now().UTC()

	// Safety net only; CanSubmit is the real guard.
	if len(s.Entries) > t.maxEntry {
		s.Entries = s.Entries[1:]
	}
	return true
}

// Snapshot returns a copy of the session's entries for read-only evaluation.
func (t *SessionTracker) Snapshot(id string) (models.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.getLocked(id)
	if !ok {
		return models.Session{}, false
	}
	out := *s
	out.Entries = append([]models.SessionEntry(nil), s.Entries...)
	return out, true
}

// Sweep evicts all sessions idle past the TTL. Calls within the minimum
// sweep interval are no-ops; eviction is advisory and eventual, independent
// of the per-Get expiry check.
func (t *SessionTracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now().UTC()
	if now.Sub(t.lastSweep) < t.sweepMin {
		return 0
	}
	t.lastSweep = now

	evicted := 0
	for id, s := range t.sessions {
		if now.Sub(s.LastActiveAt) > t.ttl {
			delete(t.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		t.logger.Info().Int("evicted", evicted).Msg("expired sessions swept")
	}
	return evicted
}

// RunSweeper periodically sweeps until ctx is cancelled.
func (t *SessionTracker) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(t.sweepMin)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep()
		}
	}
}

// Stats reports active session and tracked entry counts.
func (t *SessionTracker) Stats() (sessions int, entries int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.sessions {
		entries += len(s.Entries)
	}
	return len(t.sessions), entries
}
