package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"campusassist/internal/session"
)

const (
	DefaultSessionTTL      = 2 * time.Hour
	DefaultJanitorInterval = 10 * time.Minute
)

var ErrSessionNotFound = errors.New("session not found")

// Factory builds a session with the given id.
type Factory func(id string) *session.Session

// Registry holds the live sessions of this process.
type Registry struct {
	factory Factory
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session.Session
}

func New(factory Factory, ttl time.Duration, logger *zap.Logger) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		factory:  factory,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*session.Session),
	}
}

// Create starts a new session under a fresh id.
func (r *Registry) Create() *session.Session {
	id := uuid.NewString()
	se := r.factory(id)
	r.mu.Lock()
	r.sessions[se.ID()] = se
	r.mu.Unlock()
	r.logger.Info("session created", zap.String("session_id", se.ID()))
	return se
}

func (r *Registry) Get(id string) (*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	se, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return se, nil
}

// Delete drops a session and reports whether it existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// StartJanitor evicts idle sessions every interval until ctx is done.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	go r.janitorLoop(ctx, interval)
}

func (r *Registry) janitorLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.evictIdle(); n > 0 {
				r.logger.Info("evicted idle sessions", zap.Int("count", n), zap.Int("remaining", r.Len()))
			}
		}
	}
}

// evictIdle removes every session idle for at least the TTL.
func (r *Registry) evictIdle() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, se := range r.sessions {
		if now.Sub(se.LastActive()) >= r.ttl {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}
