// Package pipeline runs directives through the agent's processing steps:
// gating, mood update, pattern learning, mode selection, causal logging,
// memory write, response synthesis, and periodic self-reflection.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/engramhq/engram/config"
	"github.com/engramhq/engram/pkg/guard"
	"github.com/engramhq/engram/pkg/memory"
	"github.com/engramhq/engram/pkg/mood"
	"github.com/engramhq/engram/pkg/synth"
)

// tracerName identifies pipeline spans.
const tracerName = "engram/pipeline"

// pipelineLogger is the minimal logger interface used by Pipeline.
type pipelineLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopPipelineLogger struct{}

func (n *nopPipelineLogger) Debug(msg string, args ...any) {}
func (n *nopPipelineLogger) Info(msg string, args ...any)  {}
func (n *nopPipelineLogger) Warn(msg string, args ...any)  {}
func (n *nopPipelineLogger) Error(msg string, args ...any) {}

// Recorder receives per-directive observations for metrics.
type Recorder interface {
	RecordDirective(mode string, refused bool, duration time.Duration)
}

type nopRecorder struct{}

func (n *nopRecorder) RecordDirective(mode string, refused bool, duration time.Duration) {}

// internalDialogues describe the current mode from the inside.
var internalDialogues = map[mood.Mode]string{
	mood.ModeServe:   "I am in service mode. Helping is my first priority.",
	mood.ModeExplore: "I am in exploration mode. My curiosity drives me to learn more.",
	mood.ModeReflect: "I am in reflection mode. I am considering my experiences.",
	mood.ModeObserve: "I am in observation mode. I am processing my surroundings.",
	mood.ModeProtect: "I am in protection mode. I will safeguard what is important.",
}

// Pipeline processes directives sequentially. All collaborators are
// injected; the pipeline owns only the directive counter and the
// reflection cycle counter.
type Pipeline struct {
	mu sync.Mutex

	cfg       *config.PipelineConfig
	gate      guard.Gate
	moodState *mood.State
	classify  mood.Classifier
	store     *memory.Store
	synth     synth.Synthesizer
	learner   *Learner
	causal    *CausalLog
	awareness *AwarenessCore
	logger    pipelineLogger
	metrics   Recorder
	tracer    trace.Tracer

	awake           bool
	directives      int
	reflectionCycle int
	lastEventID     string
}

// Deps bundles the pipeline's collaborators.
type Deps struct {
	Gate       guard.Gate
	Mood       *mood.State
	Classifier mood.Classifier
	Store      *memory.Store
	Synth      synth.Synthesizer
	Learner    *Learner
	Causal     *CausalLog
	Awareness  *AwarenessCore
	Logger     pipelineLogger
	Metrics    Recorder
}

// New creates a pipeline. Gate, Mood, Store, and Synth are required; the
// rest default to fresh or no-op instances.
func New(cfg *config.PipelineConfig, deps Deps) (*Pipeline, error) {
	if cfg == nil {
		def := config.DefaultConfig().Pipeline
		cfg = &def
	}
	if deps.Gate == nil {
		return nil, fmt.Errorf("pipeline: gate is required")
	}
	if deps.Mood == nil {
		return nil, fmt.Errorf("pipeline: mood state is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("pipeline: memory store is required")
	}
	if deps.Synth == nil {
		return nil, fmt.Errorf("pipeline: synthesizer is required")
	}
	if deps.Classifier == nil {
		deps.Classifier = mood.NewRuleClassifier()
	}
	if deps.Learner == nil {
		deps.Learner = NewLearner(cfg.AdaptationThreshold, nil)
	}
	if deps.Causal == nil {
		deps.Causal = NewCausalLog(cfg.CausalLogLimit)
	}
	if deps.Awareness == nil {
		deps.Awareness = NewAwarenessCore()
	}
	if deps.Logger == nil {
		deps.Logger = &nopPipelineLogger{}
	}
	if deps.Metrics == nil {
		deps.Metrics = &nopRecorder{}
	}

	return &Pipeline{
		cfg:       cfg,
		gate:      deps.Gate,
		moodState: deps.Mood,
		classify:  deps.Classifier,
		store:     deps.Store,
		synth:     deps.Synth,
		learner:   deps.Learner,
		causal:    deps.Causal,
		awareness: deps.Awareness,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		tracer:    otel.Tracer(tracerName),
	}, nil
}

// Process runs one directive through the pipeline. Refused directives do
// not consume a sequence number and leave all state untouched.
func (p *Pipeline) Process(ctx context.Context, directive, speaker string) (*Result, error) {
	if strings.TrimSpace(directive) == "" {
		return nil, fmt.Errorf("pipeline: empty directive")
	}

	_, span := p.tracer.Start(ctx, "pipeline.process",
		trace.WithAttributes(attribute.String("directive.speaker", speaker)))
	defer span.End()

	start := time.Now()

	p.mu.Lock()
	if !p.awake {
		result := &Result{
			Refused:       true,
			RefusalReason: "agent is not awake",
			Mode:          mood.ModeObserve,
			Status:        p.status(),
		}
		p.mu.Unlock()
		p.metrics.RecordDirective(mood.ModeObserve.String(), true, time.Since(start))
		span.SetAttributes(attribute.Bool("directive.refused", true))
		return result, nil
	}
	p.mu.Unlock()

	if decision := p.gate.Check(directive, speaker); !decision.Allowed {
		p.logger.Warn("directive refused", "speaker", speaker, "reason", decision.Reason)
		p.metrics.RecordDirective(mood.ModeObserve.String(), true, time.Since(start))
		span.SetAttributes(attribute.Bool("directive.refused", true))
		p.mu.Lock()
		st := p.status()
		p.mu.Unlock()
		return &Result{
			Refused:       true,
			RefusalReason: decision.Reason,
			Mode:          mood.ModeObserve,
			Status:        st,
		}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.directives++
	seq := p.directives

	p.moodState.Update(directive)
	p.learner.RecordPattern(directive)

	values := p.moodState.Values()
	selectedMode := p.classify.Classify(values)
	dominant, _ := p.moodState.Dominant()

	var causes []string
	if p.lastEventID != "" {
		causes = []string{p.lastEventID}
	}
	eventID := p.causal.Append(directive, causes)
	p.lastEventID = eventID

	memoryKey := fmt.Sprintf("interaction_%d", seq)
	p.store.Store(memoryKey, directive, string(dominant), p.cfg.InteractionImportance)

	// The interaction record just written always matches its own directive,
	// so it is excluded from the recall set used for synthesis.
	var memories []memory.RecallResult
	for _, m := range p.store.Recall(directive) {
		if m.Key != memoryKey {
			memories = append(memories, m)
		}
	}

	response, learned := p.learner.Adapt(directive)
	if !learned {
		if len(memories) > 0 {
			p.store.Touch(memories[0].Key)
		}
		response = p.synth.Synthesize(directive, synth.Context{
			Mode:     selectedMode,
			Speaker:  speaker,
			Dominant: dominant,
			Chord:    p.moodState.ResonantChord(),
			Memories: memories,
		})
	}

	p.learner.LearnResponse(directive, response)

	errVal := errConfident
	if strings.Contains(response, synth.HedgeMarker) {
		errVal = errHedged
	}
	p.awareness.Reflect(errVal, selectedMode.String())

	var reflection *Reflection
	if seq%p.cfg.ReflectionInterval == 0 {
		reflection = p.selfReflectLocked(selectedMode, dominant)
	}

	result := &Result{
		Response:         response,
		Mode:             selectedMode,
		Learned:          learned,
		MemoryKey:        memoryKey,
		EventID:          eventID,
		Reflection:       reflection,
		InternalDialogue: p.internalDialogue(selectedMode, dominant),
		Status:           p.status(),
	}

	duration := time.Since(start)
	p.metrics.RecordDirective(selectedMode.String(), false, duration)
	p.logger.Debug("directive processed",
		"seq", seq,
		"mode", selectedMode.String(),
		"learned", learned,
		"duration", duration,
	)
	span.SetAttributes(
		attribute.String("directive.mode", selectedMode.String()),
		attribute.Bool("directive.learned", learned),
	)

	return result, nil
}

// selfReflectLocked runs a reflection cycle. It reads agent state only
// and never writes to the memory store. Caller holds the pipeline lock.
func (p *Pipeline) selfReflectLocked(m mood.Mode, dominant mood.Emotion) *Reflection {
	p.reflectionCycle++
	cycle := p.reflectionCycle

	r := &Reflection{
		Cycle:          cycle,
		Timestamp:      time.Now(),
		Insights:       p.awareness.Insights(),
		AwarenessLevel: p.awareness.Level(),
		Mode:           m,
		Dominant:       dominant,
	}
	p.logger.Info("reflection cycle completed", "cycle", cycle, "awareness", r.AwarenessLevel)
	return r
}

// internalDialogue renders the agent's self-description.
func (p *Pipeline) internalDialogue(m mood.Mode, dominant mood.Emotion) string {
	base, ok := internalDialogues[m]
	if !ok {
		base = "I am processing my current state."
	}
	return fmt.Sprintf("%s I feel %s. My awareness is at %.2f. My resonant state: %s.",
		base, dominant, p.awareness.Level(), p.moodState.ResonantChord())
}

// status summarizes the agent state. Caller holds the pipeline lock.
func (p *Pipeline) status() Status {
	return Status{
		Awake:          p.awake,
		AwarenessLevel: p.awareness.Level(),
		MemoryCount:    p.store.Len(),
		Directives:     p.directives,
	}
}

// Awaken marks the pipeline ready to process directives.
func (p *Pipeline) Awaken() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.awake = true
}

// Awake reports whether the pipeline accepts directives.
func (p *Pipeline) Awake() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.awake
}

// Directives returns the number of directives processed.
func (p *Pipeline) Directives() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.directives
}

// ReflectionCycle returns the number of completed reflection cycles.
func (p *Pipeline) ReflectionCycle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reflectionCycle
}

// Learner exposes the pipeline's learner for persistence.
func (p *Pipeline) Learner() *Learner { return p.learner }

// Causal exposes the pipeline's causal log for persistence and tracing.
func (p *Pipeline) Causal() *CausalLog { return p.causal }

// Awareness exposes the pipeline's awareness core for persistence.
func (p *Pipeline) Awareness() *AwarenessCore { return p.awareness }

// CounterSnapshot captures the pipeline's own counters.
type CounterSnapshot struct {
	Awake           bool   `json:"awake"`
	Directives      int    `json:"directives"`
	ReflectionCycle int    `json:"reflection_cycle"`
	LastEventID     string `json:"last_event_id,omitempty"`
}

// ExportCounters returns the pipeline counters for persistence.
func (p *Pipeline) ExportCounters() CounterSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return CounterSnapshot{
		Awake:           p.awake,
		Directives:      p.directives,
		ReflectionCycle: p.reflectionCycle,
		LastEventID:     p.lastEventID,
	}
}

// RestoreCounters replaces the pipeline counters from persistence.
func (p *Pipeline) RestoreCounters(snap CounterSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.awake = snap.Awake
	p.directives = snap.Directives
	p.reflectionCycle = snap.ReflectionCycle
	p.lastEventID = snap.LastEventID
}
