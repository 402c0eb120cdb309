package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/engramhq/engram/config"
	"github.com/engramhq/engram/pkg/pipeline"
	"github.com/engramhq/engram/pkg/snapshot"
)

var (
	// ErrSessionNotFound is returned when no live session has the ID.
	ErrSessionNotFound = errors.New("agent: session not found")

	// ErrSessionLimit is returned when the session cap is reached.
	ErrSessionLimit = errors.New("agent: session limit reached")
)

// Manager owns the live sessions and their persistence.
type Manager struct {
	mu sync.RWMutex

	cfg       *config.Config
	logger    agentLogger
	metrics   pipeline.Recorder
	snapshots snapshot.Store

	sessions map[string]*Session
}

// NewManager creates a session manager. The snapshot store may be nil, in
// which case save and load return an error.
func NewManager(cfg *config.Config, logger agentLogger, metrics pipeline.Recorder, snapshots snapshot.Store) *Manager {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = &nopAgentLogger{}
	}
	return &Manager{
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		snapshots: snapshots,
		sessions:  make(map[string]*Session),
	}
}

// Create builds a new session and registers it.
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.Agent.MaxSessions > 0 && len(m.sessions) >= m.cfg.Agent.MaxSessions {
		return nil, ErrSessionLimit
	}

	s, err := NewSession(m.cfg, m.logger, m.metrics)
	if err != nil {
		return nil, err
	}
	m.sessions[s.ID()] = s
	m.logger.Info("session created", "session_id", s.ID())
	return s, nil
}

// Get returns a live session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// List summarizes all live sessions, ordered by creation time.
func (m *Manager) List() []SessionStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]SessionStatus, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Status())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Remove drops a live session. Its snapshot, if any, is kept.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	m.logger.Info("session removed", "session_id", id)
	return nil
}

// Save persists one session's state.
func (m *Manager) Save(ctx context.Context, id string) error {
	if m.snapshots == nil {
		return fmt.Errorf("agent: no snapshot store configured")
	}

	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := m.snapshots.Save(ctx, id, s.Document()); err != nil {
		return fmt.Errorf("agent: save session %s: %w", id, err)
	}
	m.logger.Info("session saved", "session_id", id)
	return nil
}

// SaveAll persists every live session. The first error aborts the sweep.
func (m *Manager) SaveAll(ctx context.Context) error {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	sort.Strings(ids)
	for _, id := range ids {
		if err := m.Save(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Load restores a session from its snapshot and registers it. A live
// session with the same ID is replaced.
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	if m.snapshots == nil {
		return nil, fmt.Errorf("agent: no snapshot store configured")
	}

	doc, err := m.snapshots.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	s, err := NewSession(m.cfg, m.logger, m.metrics)
	if err != nil {
		return nil, err
	}
	if err := s.RestoreDocument(doc); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg.Agent.MaxSessions > 0 && len(m.sessions) >= m.cfg.Agent.MaxSessions {
		if _, exists := m.sessions[s.ID()]; !exists {
			return nil, ErrSessionLimit
		}
	}
	m.sessions[s.ID()] = s
	m.logger.Info("session loaded", "session_id", s.ID())
	return s, nil
}

// SavedSessions lists the session IDs present in the snapshot store.
func (m *Manager) SavedSessions(ctx context.Context) ([]string, error) {
	if m.snapshots == nil {
		return nil, fmt.Errorf("agent: no snapshot store configured")
	}
	return m.snapshots.List(ctx)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close persists all sessions and closes the snapshot store.
func (m *Manager) Close(ctx context.Context) error {
	var firstErr error
	if m.snapshots != nil {
		if err := m.SaveAll(ctx); err != nil {
			firstErr = err
		}
		if err := m.snapshots.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
