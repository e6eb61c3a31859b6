package trust

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trustnetlabs/trustnet/internal/logging"
	"github.com/trustnetlabs/trustnet/internal/traces"
)

// ScoreEmitter receives each evaluation as it is produced.
type ScoreEmitter interface {
	TrustScoreEvaluated(score *Score)
}

// Handler provides HTTP endpoints for trust scoring
type Handler struct {
	tracker *Tracker
	events  ScoreEmitter
}

// NewHandler creates a new trust handler
func NewHandler(tracker *Tracker) *Handler {
	return &Handler{tracker: tracker}
}

// WithEvents attaches an emitter notified on every evaluation.
func (h *Handler) WithEvents(events ScoreEmitter) *Handler {
	h.events = events
	return h
}

// RegisterRoutes sets up trust endpoints on the given group
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/current-score", h.CurrentScore)
}

// CurrentScore handles GET /api/trust/current-score
func (h *Handler) CurrentScore(c *gin.Context) {
	ctx := c.Request.Context()

	_, span := traces.StartSpan(ctx, "trust.CurrentScore")
	defer span.End()

	score := h.tracker.CurrentScore()
	span.SetAttributes(traces.TrustLevel(string(score.TrustLevel)))

	logging.L(ctx).Info("trust score evaluated",
		"score", score.CurrentScore,
		"level", score.TrustLevel,
	)

	if h.events != nil {
		h.events.TrustScoreEvaluated(score)
	}

	c.JSON(http.StatusOK, gin.H{
		"current_score":      score.CurrentScore,
		"trust_level":        score.TrustLevel,
		"risk_factors":       score.RiskFactors,
		"confidence":         score.Confidence,
		"recommended_action": score.RecommendedAction,
		"timestamp":          float64(score.EvaluatedAt.UnixNano()) / 1e9,
	})
}
