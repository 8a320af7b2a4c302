package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Registry owns every live session, keyed by ID. It is the only way to reach
// a session's bridge, which keeps playback events scoped to one session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	tick     time.Duration
	log      zerolog.Logger
}

// NewRegistry creates an empty registry. tick is the player emit interval for
// new sessions.
func NewRegistry(tick time.Duration, log zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		tick:     tick,
		log:      log,
	}
}

// Create makes a new session in the given mode.
func (r *Registry) Create(mode Mode) *Session {
	s := New(uuid.NewString(), mode, r.tick)
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	r.log.Info().Str("session_id", s.ID).Str("mode", string(mode)).Msg("session created")
	return s
}

// Get looks up a session by ID.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	return s, ok
}

// Delete closes and removes a session. Unknown IDs are ignored.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if ok {
		s.Close()
		r.log.Info().Str("session_id", id).Msg("session deleted")
	}
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SubscriberCount sums playback subscribers across all sessions.
func (r *Registry) SubscriberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.sessions {
		n += s.Bridge().SubscriberCount()
	}
	return n
}

// PruneIdle closes sessions idle longer than maxIdle and returns how many
// were removed.
func (r *Registry) PruneIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.IdleSince().Before(cutoff) {
			delete(r.sessions, id)
			expired = append(expired, s)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
		r.log.Info().Str("session_id", s.ID).Msg("idle session pruned")
	}
	return len(expired)
}
