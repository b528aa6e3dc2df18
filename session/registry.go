package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront/cart"
)

var ErrSessionNotFound = errors.New("session not found")

const DefaultTTL = 24 * time.Hour

// Session is one guest shopper. Its cart lives as long as the session does.
type Session struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time
	Cart      *cart.Store
}

func (s *Session) expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Registry holds the open sessions of this process.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	ttl      time.Duration
	now      func() time.Time
	newStore func(sessionID string) *cart.Store
	onClose  func(sessionID string)
	logger   *zap.Logger
}

type Option func(*Registry)

func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithStoreFactory sets how a new session's cart is built, typically to attach a notifier.
func WithStoreFactory(f func(sessionID string) *cart.Store) Option {
	return func(r *Registry) {
		if f != nil {
			r.newStore = f
		}
	}
}

// WithOnClose registers a hook run after a session is closed or swept.
func WithOnClose(f func(sessionID string)) Option {
	return func(r *Registry) {
		r.onClose = f
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		ttl:      DefaultTTL,
		now:      time.Now,
		newStore: func(string) *cart.Store { return cart.NewStore() },
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) TTL() time.Duration { return r.ttl }

// Open starts a session under id with an empty cart. Opening a live id returns the existing session.
func (r *Registry) Open(id string) (*Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("session id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if s, ok := r.sessions[id]; ok && !s.expired(now) {
		return s, nil
	}

	s := &Session{
		ID:        id,
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
		Cart:      r.newStore(id),
	}
	r.sessions[id] = s
	return s, nil
}

// Get returns the live session for id. An expired session is reported as not found.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if s.expired(r.now()) {
		return nil, fmt.Errorf("%w: %s expired", ErrSessionNotFound, id)
	}
	return s, nil
}

func (r *Registry) Close(id string) {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok && r.onClose != nil {
		r.onClose(id)
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes every session expired at now and returns how many were removed.
func (r *Registry) Sweep(now time.Time) int {
	var expired []string

	r.mu.Lock()
	for id, s := range r.sessions {
		if s.expired(now) {
			delete(r.sessions, id)
			expired = append(expired, id)
		}
	}
	r.mu.Unlock()

	if r.onClose != nil {
		for _, id := range expired {
			r.onClose(id)
		}
	}
	return len(expired)
}

// Run sweeps on every tick of interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(r.now()); n > 0 {
				r.logger.Info("expired sessions swept", zap.Int("count", n), zap.Int("open", r.Len()))
			}
		}
	}
}
