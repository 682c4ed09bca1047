package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"vidshelf-backend/internal/models"
)

var ErrSessionLimit = errors.New("session limit reached")

// SessionCloser is told when a session goes away so it can drop its viewers.
type SessionCloser interface {
	CloseSession(sessionID uuid.UUID)
}

type viewerCounter interface {
	ConnectionCount(sessionID uuid.UUID) int
}

type SessionConfig struct {
	Validator         Validator
	Publisher         StatePublisher
	ValidationTimeout time.Duration
	FailurePolicy     models.FailurePolicy
	SeedDefaultVideo  bool
	Logger            *slog.Logger

	// MaxSessions caps live sessions. Zero means no cap.
	MaxSessions int
	// IdleTTL evicts sessions with no API access and no viewers. Zero disables eviction.
	IdleTTL time.Duration
}

type sessionEntry struct {
	manager  *CollectionManager
	lastSeen time.Time
}

// SessionStore hands out one CollectionManager per session. Sessions live
// until End is called, they go idle, or the process exits.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*sessionEntry
	cfg      SessionConfig
	now      func() time.Time
}

func NewSessionStore(cfg SessionConfig) *SessionStore {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = models.CollapseFailures
	}
	return &SessionStore{
		sessions: make(map[uuid.UUID]*sessionEntry),
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *SessionStore) Create() (uuid.UUID, *CollectionManager, error) {
	id := uuid.New()

	opts := []ManagerOption{
		WithValidationTimeout(s.cfg.ValidationTimeout),
		WithFailurePolicy(s.cfg.FailurePolicy),
		WithLogger(s.cfg.Logger.With(slog.String("component", "collection"))),
	}
	if s.cfg.Publisher != nil {
		opts = append(opts, WithPublisher(id, s.cfg.Publisher))
	}
	if s.cfg.SeedDefaultVideo {
		opts = append(opts, WithSeed(DefaultSeed()))
	}

	s.mu.Lock()
	if s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		s.cfg.Logger.Warn("session limit reached", slog.Int("max", s.cfg.MaxSessions))
		return uuid.Nil, nil, ErrSessionLimit
	}
	m := NewCollectionManager(s.cfg.Validator, opts...)
	s.sessions[id] = &sessionEntry{manager: m, lastSeen: s.now()}
	total := len(s.sessions)
	s.mu.Unlock()

	s.cfg.Logger.Info("session started", slog.String("session_id", id.String()), slog.Int("active", total))
	return id, m, nil
}

// Get returns the session's manager and marks the session as used.
func (s *SessionStore) Get(id uuid.UUID) (*CollectionManager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, &NotFoundError{Message: "Session not found"}
	}
	e.lastSeen = s.now()
	return e.manager, nil
}

func (s *SessionStore) End(id uuid.UUID) error {
	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.mu.Unlock()
		return &NotFoundError{Message: "Session not found"}
	}
	delete(s.sessions, id)
	s.mu.Unlock()

	s.closeViewers(id)
	s.cfg.Logger.Info("session ended", slog.String("session_id", id.String()))
	return nil
}

func (s *SessionStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// EvictIdle ends every session unused for longer than IdleTTL that has no
// open viewers, and returns how many were ended.
func (s *SessionStore) EvictIdle() int {
	if s.cfg.IdleTTL <= 0 {
		return 0
	}
	viewers, _ := s.cfg.Publisher.(viewerCounter)
	cutoff := s.now().Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	var evicted []uuid.UUID
	for id, e := range s.sessions {
		if !e.lastSeen.Before(cutoff) {
			continue
		}
		if viewers != nil && viewers.ConnectionCount(id) > 0 {
			continue
		}
		delete(s.sessions, id)
		evicted = append(evicted, id)
	}
	s.mu.Unlock()

	for _, id := range evicted {
		s.closeViewers(id)
		s.cfg.Logger.Info("session evicted", slog.String("session_id", id.String()))
	}
	return len(evicted)
}

// StartJanitor runs EvictIdle every interval until ctx is done.
func (s *SessionStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if s.cfg.IdleTTL <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.EvictIdle()
			}
		}
	}()
}

func (s *SessionStore) closeViewers(id uuid.UUID) {
	if closer, ok := s.cfg.Publisher.(SessionCloser); ok {
		closer.CloseSession(id)
	}
}
