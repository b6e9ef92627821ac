package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/advice-chat/internal/model/chat"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many active sessions")
)

// Registry hosts one Controller per widget session for the gateway.
type Registry struct {
	client      AdviceClient
	opts        Options
	maxSessions int
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry
}

type entry struct {
	session    chat.Session
	controller *Controller
	attached   int
	lastActive time.Time
}

// RegistryOption tunes a Registry.
type RegistryOption func(*Registry)

// WithIdleTimeout lets Sweep and Run close sessions that have had no
// attached connection and no request for d. d <= 0 keeps sessions forever.
func WithIdleTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.idleTimeout = d
	}
}

// NewRegistry builds an empty registry. maxSessions <= 0 means unbounded.
func NewRegistry(client AdviceClient, opts Options, maxSessions int, options ...RegistryOption) *Registry {
	r := &Registry{
		client:      client,
		opts:        opts,
		maxSessions: maxSessions,
		now:         time.Now,
		sessions:    make(map[string]*entry),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Create provisions a session with a fresh controller.
func (r *Registry) Create(_ context.Context) (chat.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		return chat.Session{}, ErrTooManySessions
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	r.sessions[session.ID] = &entry{
		session:    session,
		controller: NewController(r.client, r.opts),
		lastActive: r.now(),
	}

	log.Info().Str("session_id", session.ID).Int("active", len(r.sessions)).Msg("session created")
	return session, nil
}

// Get returns the controller bound to sessionID and marks the session active.
func (r *Registry) Get(_ context.Context, sessionID string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastActive = r.now()
	return e.controller, nil
}

// Attach returns the controller bound to sessionID for a long-lived
// connection. The session is never idle while attached; release must be
// called when the connection ends.
func (r *Registry) Attach(_ context.Context, sessionID string) (*Controller, func(), error) {
	r.mu.Lock()
	e, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return nil, nil, ErrSessionNotFound
	}
	e.attached++
	e.lastActive = r.now()
	r.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			r.mu.Lock()
			e.attached--
			e.lastActive = r.now()
			r.mu.Unlock()
		})
	}
	return e.controller, release, nil
}

// Session returns the metadata for sessionID.
func (r *Registry) Session(_ context.Context, sessionID string) (chat.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return e.session, nil
}

// Close removes the session and tears its controller down.
func (r *Registry) Close(_ context.Context, sessionID string) error {
	r.mu.Lock()
	e, ok := r.sessions[sessionID]
	if ok {
		delete(r.sessions, sessionID)
	}
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	e.controller.Close()
	log.Info().Str("session_id", sessionID).Msg("session closed")
	return nil
}

// CloseAll tears every session down. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	entries := r.sessions
	r.sessions = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range entries {
		e.controller.Close()
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep closes every session that is unattached and idle past the idle
// timeout, and reports how many it closed.
func (r *Registry) Sweep() int {
	if r.idleTimeout <= 0 {
		return 0
	}

	now := r.now()
	var idle []string
	var controllers []*Controller

	r.mu.Lock()
	for id, e := range r.sessions {
		if e.attached == 0 && now.Sub(e.lastActive) >= r.idleTimeout {
			delete(r.sessions, id)
			idle = append(idle, id)
			controllers = append(controllers, e.controller)
		}
	}
	r.mu.Unlock()

	for i, c := range controllers {
		c.Close()
		log.Info().Str("session_id", idle[i]).Msg("idle session expired")
	}
	return len(idle)
}

// Run sweeps idle sessions until ctx is done. It returns at once when no
// idle timeout is configured.
func (r *Registry) Run(ctx context.Context) {
	if r.idleTimeout <= 0 {
		return
	}

	ticker := time.NewTicker(r.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
