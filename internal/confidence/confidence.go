// Package confidence combines per-step confidence signals into a single
// gated score. The calculator is a pure function over its inputs: the
// interpreter-declared confidence, a safety-derived multiplier, and an
// optional historical-reliability signal from the knowledge store.
package confidence

import (
	"github.com/praxis-ai/praxis/internal/safety"
)

// Factor names used in Score.Factors.
const (
	FactorDeclared    = "declared"
	FactorSafety      = "safety_multiplier"
	FactorReliability = "historical_reliability"
)

// Score is a derived, threshold-compared value gating whether a step may
// dispatch. Factors records the named sub-scores that produced Value.
type Score struct {
	Value     float64            `json:"value"`
	Factors   map[string]float64 `json:"factors"`
	Threshold float64            `json:"threshold"`
}

// Passes reports whether the score meets the applicable threshold.
func (s Score) Passes() bool {
	return s.Value >= s.Threshold
}

// Band labels the score against the configured bands: "high", "medium",
// or "low". Used for reporting, not gating.
func (s Score) Band(b Bands) string {
	switch {
	case s.Value >= b.High:
		return "high"
	case s.Value >= b.Medium:
		return "medium"
	default:
		return "low"
	}
}

// Bands holds the configurable confidence threshold bands.
// Defaults: High >= 0.8, Medium in [0.5, 0.8), Low < 0.5.
type Bands struct {
	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
}

// DefaultBands returns the standard threshold bands.
func DefaultBands() Bands {
	return Bands{High: 0.8, Medium: 0.5}
}

// ReliabilitySource supplies a historical reliability signal for an
// operation type, typically backed by the knowledge store. The boolean
// result is false when no history exists; the calculator then falls back
// to the neutral factor 1.0.
type ReliabilitySource interface {
	Reliability(operation string) (float64, bool)
}

// Calculator computes gated confidence scores. It is deterministic given
// identical inputs and has no side effects.
type Calculator struct {
	bands       Bands
	multipliers map[safety.Level]float64
	reliability ReliabilitySource
}

// Option is a functional option for configuring a Calculator.
type Option func(*Calculator)

// WithBands overrides the default threshold bands.
func WithBands(b Bands) Option {
	return func(c *Calculator) {
		c.bands = b
	}
}

// WithReliabilitySource attaches a historical-reliability collaborator.
func WithReliabilitySource(src ReliabilitySource) Option {
	return func(c *Calculator) {
		c.reliability = src
	}
}

// WithSafetyMultiplier overrides the multiplier applied for a safety level.
func WithSafetyMultiplier(level safety.Level, m float64) Option {
	return func(c *Calculator) {
		c.multipliers[level] = m
	}
}

// NewCalculator creates a Calculator with default bands and safety
// multipliers (Blocked 0, Dangerous 0.5, Caution 0.8, Safe 1.0).
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		bands: DefaultBands(),
		multipliers: map[safety.Level]float64{
			safety.LevelSafe:      1.0,
			safety.LevelCaution:   0.8,
			safety.LevelDangerous: 0.5,
			safety.LevelBlocked:   0.0,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Score computes the gated confidence score for a step.
//
// The value is declared confidence x safety multiplier x historical
// reliability, clamped to [0,1]. Every dispatchable level must clear the
// Medium band minimum on the multiplied score: the safety multiplier
// provides the grading, so a dangerous step needs a declared confidence of
// 1.0 to reach the 0.5 floor while a safe step needs only 0.5. Blocked
// steps carry a threshold above any attainable value so they never pass.
func (c *Calculator) Score(operation string, declared float64, level safety.Level) Score {
	multiplier := c.multipliers[level]

	reliability := 1.0
	if c.reliability != nil {
		if r, ok := c.reliability.Reliability(operation); ok {
			reliability = r
		}
	}

	value := clamp01(declared) * multiplier * clamp01(reliability)
	value = clamp01(value)

	return Score{
		Value: value,
		Factors: map[string]float64{
			FactorDeclared:    declared,
			FactorSafety:      multiplier,
			FactorReliability: reliability,
		},
		Threshold: c.thresholdFor(level),
	}
}

func (c *Calculator) thresholdFor(level safety.Level) float64 {
	switch level {
	case safety.LevelSafe, safety.LevelCaution, safety.LevelDangerous:
		return c.bands.Medium
	default:
		// Blocked steps never dispatch regardless of score.
		return 1.1
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
