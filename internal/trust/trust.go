// Package trust maintains a continuously-smoothed behavioral trust score
// and derives an access recommendation from it.
package trust

import (
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/trustnetlabs/trustnet/internal/metrics"
)

var errNonFiniteScore = errors.New("trust: smoothed score is not finite")

// Level buckets the smoothed score.
type Level string

const (
	LevelHigh   Level = "HIGH"
	LevelMedium Level = "MEDIUM"
	LevelLow    Level = "LOW"
)

// Action is the recommendation attached to an evaluation.
type Action string

const (
	ActionAllowSeamless         Action = "ALLOW_SEAMLESS"
	ActionAllowWithMonitoring   Action = "ALLOW_WITH_MONITORING"
	ActionRequireAdditional     Action = "REQUIRE_ADDITIONAL_VERIFICATION"
	ActionRequireManualReview   Action = "REQUIRE_MANUAL_REVIEW"
)

const (
	// Exponential smoothing: new = 0.7*old + 0.3*sample.
	smoothingRetain = 0.7
	smoothingUpdate = 0.3

	minSample = 70.0
	maxSample = 90.0

	minConfidence = 0.80
	maxConfidence = 0.95

	highThreshold   = 85.0
	mediumThreshold = 65.0

	newDeviceProbability = 0.2
)

const (
	riskBehavioralVariation = "Behavioral pattern variation detected"
	riskNewDevice           = "New device fingerprint"
	riskAllNormal           = "All metrics within normal range"
	riskSystemError         = "System error"
)

// Score is a single trust evaluation.
type Score struct {
	CurrentScore      float64   `json:"current_score"`
	TrustLevel        Level     `json:"trust_level"`
	RiskFactors       []string  `json:"risk_factors"`
	Confidence        float64   `json:"confidence"`
	RecommendedAction Action    `json:"recommended_action"`
	EvaluatedAt       time.Time `json:"-"`
}

// Tracker holds the smoothed trust value and a bounded history of
// evaluations. Safe for concurrent use.
type Tracker struct {
	mu           sync.Mutex
	value        float64
	history      []*Score
	historyLimit int
	logger       *slog.Logger
}

// NewTracker creates a tracker seeded at baseline. History is capped at
// historyLimit evaluations, oldest dropped first.
func NewTracker(baseline float64, historyLimit int, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		value:        baseline,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// CurrentScore draws a fresh behavioral sample, folds it into the
// smoothed value, and returns the resulting evaluation. On an internal
// inconsistency it returns the conservative fallback instead of failing.
func (t *Tracker) CurrentScore() *Score {
	t.mu.Lock()
	defer t.mu.Unlock()

	score, err := t.evaluate()
	if err != nil {
		t.logger.Error("trust evaluation failed", "error", err)
		score = Fallback()
	}

	t.history = append(t.history, score)
	if len(t.history) > t.historyLimit {
		t.history = t.history[len(t.history)-t.historyLimit:]
	}

	metrics.TrustScore.Set(score.CurrentScore)
	metrics.TrustEvaluationsTotal.WithLabelValues(string(score.TrustLevel)).Inc()

	return score
}

func (t *Tracker) evaluate() (*Score, error) {
	sample := minSample + rand.Float64()*(maxSample-minSample)
	next := smoothingRetain*t.value + smoothingUpdate*sample
	if math.IsNaN(next) || math.IsInf(next, 0) {
		return nil, errNonFiniteScore
	}
	t.value = next

	level, action := classify(next)

	return &Score{
		CurrentScore:      math.Round(next*10) / 10,
		TrustLevel:        level,
		RiskFactors:       riskFactors(next),
		Confidence:        minConfidence + rand.Float64()*(maxConfidence-minConfidence),
		RecommendedAction: action,
		EvaluatedAt:       time.Now(),
	}, nil
}

// Fallback is the conservative evaluation returned when scoring cannot
// complete: mid-scale score, zero confidence, manual review required.
func Fallback() *Score {
	return &Score{
		CurrentScore:      50,
		TrustLevel:        LevelMedium,
		RiskFactors:       []string{riskSystemError},
		Confidence:        0,
		RecommendedAction: ActionRequireManualReview,
		EvaluatedAt:       time.Now(),
	}
}

func classify(value float64) (Level, Action) {
	switch {
	case value >= highThreshold:
		return LevelHigh, ActionAllowSeamless
	case value >= mediumThreshold:
		return LevelMedium, ActionAllowWithMonitoring
	default:
		return LevelLow, ActionRequireAdditional
	}
}

func riskFactors(value float64) []string {
	var factors []string
	if value < 80 {
		factors = append(factors, riskBehavioralVariation)
	}
	if rand.Float64() < newDeviceProbability {
		factors = append(factors, riskNewDevice)
	}
	if len(factors) == 0 {
		factors = append(factors, riskAllNormal)
	}
	return factors
}

// Value returns the unrounded smoothed trust value.
func (t *Tracker) Value() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// HistoryLen returns the number of retained evaluations.
func (t *Tracker) HistoryLen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.history)
}
