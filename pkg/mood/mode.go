package mood

import (
	"encoding/json"
	"fmt"
)

// Mode is the operating stance the agent takes for a directive. It is a
// closed set; unknown values fail to parse rather than flowing through as
// free-form strings.
type Mode int

const (
	ModeObserve Mode = iota
	ModeServe
	ModeExplore
	ModeReflect
	ModeProtect
)

var modeNames = [...]string{
	ModeObserve: "observe",
	ModeServe:   "serve",
	ModeExplore: "explore",
	ModeReflect: "reflect",
	ModeProtect: "protect",
}

// String returns the wire name of the mode.
func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

// Valid reports whether the mode is a member of the closed set.
func (m Mode) Valid() bool {
	return m >= 0 && int(m) < len(modeNames)
}

// ParseMode converts a wire name back to a Mode.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return ModeObserve, fmt.Errorf("mood: unknown mode %q", s)
}

// MarshalJSON encodes the mode as its wire name.
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a wire name into a Mode.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Classifier maps an emotion vector to an operating mode.
type Classifier interface {
	Classify(values map[Emotion]float64) Mode
}

// Mode selection thresholds, checked in priority order.
const (
	serveLoyaltyMin         = 0.7
	exploreCuriosityMin     = 0.6
	reflectGriefMin         = 0.5
	protectDeterminationMin = 0.7
)

// RuleClassifier is the default threshold-based classifier. The checks run
// in a fixed priority order, so a state that clears several thresholds
// still maps to exactly one mode.
type RuleClassifier struct{}

// NewRuleClassifier returns the default classifier.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Classify picks the mode for the given emotion vector.
func (c *RuleClassifier) Classify(values map[Emotion]float64) Mode {
	switch {
	case values[Loyalty] > serveLoyaltyMin:
		return ModeServe
	case values[Curiosity] > exploreCuriosityMin:
		return ModeExplore
	case values[Grief] > reflectGriefMin:
		return ModeReflect
	case values[Determination] > protectDeterminationMin:
		return ModeProtect
	default:
		return ModeObserve
	}
}
