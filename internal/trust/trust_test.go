package trust

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentScore_Evaluation(t *testing.T) {
	tr := NewTracker(75.0, 100, nil)

	score := tr.CurrentScore()
	require.NotNil(t, score)

	// One smoothing step from baseline 75 with a sample in [70, 90]
	// lands in [73.5, 79.5].
	assert.GreaterOrEqual(t, score.CurrentScore, 73.5)
	assert.LessOrEqual(t, score.CurrentScore, 79.5)
	assert.GreaterOrEqual(t, score.Confidence, 0.80)
	assert.LessOrEqual(t, score.Confidence, 0.95)
	assert.NotEmpty(t, score.RiskFactors)
	assert.False(t, score.EvaluatedAt.IsZero())
}

func TestCurrentScore_ConfidenceRange(t *testing.T) {
	tr := NewTracker(75.0, 100, nil)

	sawBelowPoint85 := false
	for i := 0; i < 2000; i++ {
		c := tr.CurrentScore().Confidence
		assert.GreaterOrEqual(t, c, 0.80)
		assert.LessOrEqual(t, c, 0.95)
		if c < 0.85 {
			sawBelowPoint85 = true
		}
	}

	// Uniform over [0.80, 0.95]: a third of the draws land below 0.85,
	// so 2000 draws without one means the lower bound is wrong.
	assert.True(t, sawBelowPoint85, "confidence draws never went below 0.85")
}

func TestCurrentScore_Smoothing(t *testing.T) {
	tr := NewTracker(75.0, 100, nil)

	// Samples live in [70, 90], so the smoothed value converges into
	// that band and stays there.
	for i := 0; i < 200; i++ {
		tr.CurrentScore()
	}
	v := tr.Value()
	assert.GreaterOrEqual(t, v, 70.0)
	assert.LessOrEqual(t, v, 90.0)
}

func TestCurrentScore_Rounding(t *testing.T) {
	tr := NewTracker(75.0, 100, nil)

	for i := 0; i < 20; i++ {
		score := tr.CurrentScore()
		rounded := math.Round(score.CurrentScore*10) / 10
		assert.Equal(t, rounded, score.CurrentScore, "reported score is rounded to one decimal")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		value  float64
		level  Level
		action Action
	}{
		{90, LevelHigh, ActionAllowSeamless},
		{85, LevelHigh, ActionAllowSeamless},
		{84.9, LevelMedium, ActionAllowWithMonitoring},
		{65, LevelMedium, ActionAllowWithMonitoring},
		{64.9, LevelLow, ActionRequireAdditional},
		{0, LevelLow, ActionRequireAdditional},
	}

	for _, tt := range tests {
		level, action := classify(tt.value)
		assert.Equal(t, tt.level, level, "value %v", tt.value)
		assert.Equal(t, tt.action, action, "value %v", tt.value)
	}
}

func TestRiskFactors(t *testing.T) {
	sawVariation := false
	sawNewDevice := false
	sawNormal := false

	for i := 0; i < 500; i++ {
		low := riskFactors(75)
		assert.Contains(t, low, riskBehavioralVariation)
		sawVariation = true
		if len(low) > 1 {
			assert.Contains(t, low, riskNewDevice)
			sawNewDevice = true
		}

		high := riskFactors(88)
		assert.NotContains(t, high, riskBehavioralVariation)
		if len(high) == 1 && high[0] == riskAllNormal {
			sawNormal = true
		}
	}

	assert.True(t, sawVariation)
	assert.True(t, sawNewDevice, "new-device factor should appear at ~20% over 500 draws")
	assert.True(t, sawNormal)
}

func TestHistoryCap(t *testing.T) {
	tr := NewTracker(75.0, 10, nil)

	for i := 0; i < 25; i++ {
		tr.CurrentScore()
	}
	assert.Equal(t, 10, tr.HistoryLen())
}

func TestFallback(t *testing.T) {
	score := Fallback()
	assert.Equal(t, 50.0, score.CurrentScore)
	assert.Equal(t, LevelMedium, score.TrustLevel)
	assert.Equal(t, []string{riskSystemError}, score.RiskFactors)
	assert.Zero(t, score.Confidence)
	assert.Equal(t, ActionRequireManualReview, score.RecommendedAction)
}

func TestCurrentScore_FallbackOnNonFiniteValue(t *testing.T) {
	tr := NewTracker(math.NaN(), 100, nil)

	score := tr.CurrentScore()
	require.NotNil(t, score)
	assert.Equal(t, 50.0, score.CurrentScore)
	assert.Equal(t, ActionRequireManualReview, score.RecommendedAction)
	assert.Equal(t, 1, tr.HistoryLen())
}

func TestCurrentScore_Concurrent(t *testing.T) {
	tr := NewTracker(75.0, 100, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				score := tr.CurrentScore()
				assert.NotNil(t, score)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, tr.HistoryLen())
	v := tr.Value()
	assert.False(t, math.IsNaN(v))
	assert.GreaterOrEqual(t, v, 70.0)
	assert.LessOrEqual(t, v, 90.0)
}
