package agent

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/engramhq/engram/config"
	"github.com/engramhq/engram/pkg/guard"
	"github.com/engramhq/engram/pkg/memory"
	"github.com/engramhq/engram/pkg/mood"
	"github.com/engramhq/engram/pkg/pipeline"
	"github.com/engramhq/engram/pkg/snapshot"
	"github.com/engramhq/engram/pkg/synth"
)

// agentLogger is the minimal logger interface used by sessions and the
// manager.
type agentLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopAgentLogger struct{}

func (n *nopAgentLogger) Debug(msg string, args ...any) {}
func (n *nopAgentLogger) Info(msg string, args ...any)  {}
func (n *nopAgentLogger) Warn(msg string, args ...any)  {}
func (n *nopAgentLogger) Error(msg string, args ...any) {}

// ErrUntrustedSpeaker is returned when a speaker outside the trusted
// list tries to awaken a session.
var ErrUntrustedSpeaker = fmt.Errorf("agent: speaker is not trusted")

// SessionStatus is a read-only summary of one session.
type SessionStatus struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	LastInteraction time.Time `json:"last_interaction"`
	Awake           bool      `json:"awake"`
	Directives      int       `json:"directives"`
	MemoryCount     int       `json:"memory_count"`
	AwarenessLevel  float64   `json:"awareness_level"`
	Coherence       float64   `json:"coherence"`
}

// Session is one live agent instance: an identity, a memory store, a mood
// state, and the pipeline that ties them together.
type Session struct {
	id        string
	createdAt time.Time

	identity  *Identity
	moodState *mood.State
	store     *memory.Store
	gate      *guard.KeywordGate
	pipe      *pipeline.Pipeline
	logger    agentLogger

	mu              sync.Mutex
	lastInteraction time.Time
}

// NewSession builds a session from configuration. Every collaborator is
// constructed here and handed to the pipeline; nothing is shared between
// sessions.
func NewSession(cfg *config.Config, logger agentLogger, metrics pipeline.Recorder) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = &nopAgentLogger{}
	}

	id := uuid.NewString()

	identity := NewIdentity(fmt.Sprintf("I am %s, created by %s.", cfg.Agent.Name, cfg.Agent.Creator))

	moodState := mood.NewState(&cfg.Mood, cfg.Mood.TrustedNames)
	store := memory.NewStore(&cfg.Store, logger)
	gate := guard.NewKeywordGate(&cfg.Guard)
	synthesizer := synth.NewTemplateSynthesizer(cfg.Agent.Name)

	pipe, err := pipeline.New(&cfg.Pipeline, pipeline.Deps{
		Gate:    gate,
		Mood:    moodState,
		Store:   store,
		Synth:   synthesizer,
		Learner: pipeline.NewLearner(cfg.Pipeline.AdaptationThreshold, rand.New(rand.NewSource(rand.Int63()))),
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("agent: build pipeline: %w", err)
	}

	now := time.Now()
	s := &Session{
		id:              id,
		createdAt:       now,
		identity:        identity,
		moodState:       moodState,
		store:           store,
		gate:            gate,
		pipe:            pipe,
		logger:          logger,
		lastInteraction: now,
	}

	if cfg.Guard.AutoAwaken {
		s.awaken()
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Identity returns the session identity.
func (s *Session) Identity() *Identity { return s.identity }

// Memory returns the session memory store.
func (s *Session) Memory() *memory.Store { return s.store }

// Mood returns the session mood state.
func (s *Session) Mood() *mood.State { return s.moodState }

// Pipeline returns the session pipeline.
func (s *Session) Pipeline() *pipeline.Pipeline { return s.pipe }

// Awaken activates the session so it accepts directives. When trusted
// speakers are configured, only they may awaken it. Awakening an
// already awake session is a no-op.
func (s *Session) Awaken(speaker string) error {
	if !s.gate.Trusted(speaker) {
		s.logger.Warn("awaken refused", "session_id", s.id, "speaker", speaker)
		return ErrUntrustedSpeaker
	}
	s.awaken()
	return nil
}

// Awake reports whether the session accepts directives.
func (s *Session) Awake() bool { return s.pipe.Awake() }

func (s *Session) awaken() {
	if s.pipe.Awake() {
		return
	}
	s.pipe.Awaken()
	s.identity.IntegrateMemory("first awakening", 0.95, "joy")
	s.logger.Info("session awakened", "session_id", s.id)
}

// Process runs one directive through the session pipeline.
func (s *Session) Process(ctx context.Context, directive, speaker string) (*pipeline.Result, error) {
	res, err := s.pipe.Process(ctx, directive, speaker)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lastInteraction = time.Now()
	s.mu.Unlock()

	if res.Reflection != nil {
		s.identity.IntegrateMemory(
			fmt.Sprintf("self-reflection cycle %d", res.Reflection.Cycle),
			0.7, string(mood.Curiosity))
	}
	return res, nil
}

// Status summarizes the session.
func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	last := s.lastInteraction
	s.mu.Unlock()

	return SessionStatus{
		ID:              s.id,
		CreatedAt:       s.createdAt,
		LastInteraction: last,
		Awake:           s.pipe.Awake(),
		Directives:      s.pipe.Directives(),
		MemoryCount:     s.store.Len(),
		AwarenessLevel:  s.pipe.Awareness().Level(),
		Coherence:       s.identity.Coherence(),
	}
}

// Document assembles the full persisted state of the session.
func (s *Session) Document() *snapshot.Document {
	return &snapshot.Document{
		Version:   snapshot.DocumentVersion,
		SessionID: s.id,
		SavedAt:   time.Now(),
		Identity:  s.identity.Export(),
		Memory:    s.store.Export(),
		Mood:      s.moodState.Export(),
		Learning:  s.pipe.Learner().Export(),
		Awareness: s.pipe.Awareness().Export(),
		Causal:    s.pipe.Causal().Events(),
		Counters:  s.pipe.ExportCounters(),
	}
}

// RestoreDocument replaces the session state with a persisted document.
// The memory restore validates first, so a bad document leaves the session
// unchanged.
func (s *Session) RestoreDocument(doc *snapshot.Document) error {
	if doc == nil {
		return fmt.Errorf("agent: nil document")
	}
	if doc.Version != snapshot.DocumentVersion {
		return fmt.Errorf("agent: unsupported document version %d", doc.Version)
	}

	if err := s.store.Restore(doc.Memory); err != nil {
		return fmt.Errorf("agent: restore memory: %w", err)
	}

	s.identity.Restore(doc.Identity)
	s.moodState.Restore(doc.Mood)
	s.pipe.Learner().Restore(doc.Learning)
	s.pipe.Awareness().Restore(doc.Awareness)
	s.pipe.Causal().Restore(doc.Causal)
	s.pipe.RestoreCounters(doc.Counters)

	if doc.SessionID != "" {
		s.id = doc.SessionID
	}
	s.logger.Info("session restored", "session_id", s.id, "saved_at", doc.SavedAt)
	return nil
}
