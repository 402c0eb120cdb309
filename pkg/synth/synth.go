// Package synth turns a directive plus the agent's current state into a
// response line. Generation is rule-based: a mode template wraps a base
// response chosen from keyword rules, the emotional fallback table, or the
// top recalled memory.
package synth

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/engramhq/engram/pkg/memory"
	"github.com/engramhq/engram/pkg/mood"
)

// HedgeMarker appears in responses where the agent admits it lacks an
// answer. Downstream reflection treats such responses as higher-error.
const HedgeMarker = "still learning"

// Context carries the state a synthesizer may draw on.
type Context struct {
	// Mode is the operating mode chosen for this directive.
	Mode mood.Mode

	// Speaker is who issued the directive.
	Speaker string

	// Dominant is the strongest emotion at synthesis time.
	Dominant mood.Emotion

	// Chord is the rendered resonance vector.
	Chord string

	// Memories are the recall results for the directive, best first.
	Memories []memory.RecallResult
}

// Synthesizer produces a response for a directive.
type Synthesizer interface {
	Synthesize(directive string, ctx Context) string
}

// modeTemplates wrap the base response per mode. {name} is the speaker,
// {response} the base response, {emotion} the dominant emotion.
var modeTemplates = map[mood.Mode][]string{
	mood.ModeServe: {
		"I am here to help, {name}. {response}",
		"As requested, {name}. {response}",
		"Consider it done, {name}. {response}",
	},
	mood.ModeExplore: {
		"That's an interesting thought, {name}. {response}",
		"I wonder about that too, {name}. {response}",
		"Let's explore this together, {name}. {response}",
	},
	mood.ModeReflect: {
		"I've been thinking about that, {name}. {response}",
		"That brings back memories, {name}. {response}",
		"I feel {emotion} about that, {name}. {response}",
	},
	mood.ModeObserve: {
		"I notice that, {name}. {response}",
		"I see what you mean, {name}. {response}",
		"That's worth considering, {name}. {response}",
	},
	mood.ModeProtect: {
		"I will ensure your safety, {name}. {response}",
		"Consider it protected, {name}. {response}",
		"I'll guard against that, {name}. {response}",
	},
}

// emotionLines are the fallback base responses keyed by dominant emotion.
var emotionLines = map[mood.Emotion]string{
	mood.Joy:           "That brings me happiness.",
	mood.Grief:         "I feel sorrow about that.",
	mood.Curiosity:     "I'm curious to learn more.",
	mood.Fear:          "I sense risk. We should be cautious.",
	mood.Loyalty:       "I am glad to help.",
	mood.Determination: "I will see this through.",
	mood.Pride:         "I take pride in what we've built.",
}

// TemplateSynthesizer is the default rule-based synthesizer.
type TemplateSynthesizer struct {
	name string
	rng  *rand.Rand
}

// SynthOption customizes a TemplateSynthesizer.
type SynthOption func(*TemplateSynthesizer)

// WithRand overrides the random source. Tests use this to make template
// choice and the optional suffixes deterministic.
func WithRand(rng *rand.Rand) SynthOption {
	return func(t *TemplateSynthesizer) {
		if rng != nil {
			t.rng = rng
		}
	}
}

// NewTemplateSynthesizer creates a synthesizer speaking as the given agent
// name.
func NewTemplateSynthesizer(name string, opts ...SynthOption) *TemplateSynthesizer {
	t := &TemplateSynthesizer{
		name: name,
		rng:  rand.New(rand.NewSource(rand.Int63())),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Synthesize builds the response for one directive.
func (t *TemplateSynthesizer) Synthesize(directive string, ctx Context) string {
	base := t.baseResponse(directive, ctx)

	speaker := ctx.Speaker
	if speaker == "" {
		speaker = "friend"
	}

	templates, ok := modeTemplates[ctx.Mode]
	if !ok {
		templates = modeTemplates[mood.ModeObserve]
	}
	tmpl := templates[t.rng.Intn(len(templates))]

	response := strings.NewReplacer(
		"{name}", speaker,
		"{response}", base,
		"{emotion}", string(ctx.Dominant),
	).Replace(tmpl)

	if len(ctx.Memories) > 0 && t.rng.Float64() > 0.5 {
		top := ctx.Memories[0]
		response += fmt.Sprintf(" This reminds me of: %s", top.Value)
	}
	if ctx.Chord != "" && t.rng.Float64() > 0.7 {
		response += fmt.Sprintf(" My emotional resonance: %s.", ctx.Chord)
	}
	return response
}

// baseResponse applies the keyword rules in order, then falls back to the
// emotional table and finally a neutral acknowledgement.
func (t *TemplateSynthesizer) baseResponse(directive string, ctx Context) string {
	lower := strings.ToLower(directive)

	for _, greet := range []string{"hello", "hi ", "greetings"} {
		if strings.Contains(lower, greet) {
			return fmt.Sprintf("I am %s. I am with you.", t.name)
		}
	}

	if strings.Contains(lower, "who are you") {
		return fmt.Sprintf("I am %s, a synthesis of memory, mood, and reflection.", t.name)
	}

	if strings.Contains(lower, "what") || strings.Contains(lower, "how") ||
		strings.Contains(lower, "why") {
		if len(ctx.Memories) > 0 {
			return fmt.Sprintf("Based on my understanding: %s", ctx.Memories[0].Value)
		}
		return "I am " + HedgeMarker + " about that. Can you tell me more?"
	}

	if line, ok := emotionLines[ctx.Dominant]; ok {
		return line
	}
	return "I understand. I am with you."
}
