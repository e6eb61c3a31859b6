package challenge

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trustnetlabs/trustnet/internal/logging"
	"github.com/trustnetlabs/trustnet/internal/validation"
)

// Handler provides HTTP endpoints for the challenge lifecycle
type Handler struct {
	registry *Registry
	events   EventEmitter
}

// NewHandler creates a new challenge handler
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// WithEvents attaches an event emitter notified on issue and validate.
func (h *Handler) WithEvents(events EventEmitter) *Handler {
	h.events = events
	return h
}

// RegisterRoutes sets up challenge endpoints on the given group
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/challenge", h.IssueChallenge)
	r.POST("/validate", h.ValidateChallenge)
}

// IssueChallenge handles POST /api/vkyc/challenge
func (h *Handler) IssueChallenge(c *gin.Context) {
	ctx := c.Request.Context()

	// Optional body: {"user_context": {...}}. Accepted, not evaluated.
	var req struct {
		UserContext map[string]any `json:"user_context"`
	}
	_ = c.ShouldBindJSON(&req)

	ch := h.registry.Issue(ctx, req.UserContext)

	logging.L(ctx).Info("challenge issued",
		"challenge_id", ch.ID,
		"kind", ch.Kind,
	)

	if h.events != nil {
		h.events.ChallengeIssued(ch)
	}

	c.JSON(http.StatusOK, gin.H{
		"challenge_id":      ch.ID,
		"challenge_type":    ch.Kind,
		"instruction":       ch.Instruction,
		"expected_duration": ch.ExpectedDuration,
		"timestamp":         unixSeconds(ch.IssuedAt),
	})
}

// validateRequest accepts either form fields (the demo page) or JSON.
type validateRequest struct {
	ChallengeID  string         `json:"challenge_id" form:"challenge_id"`
	ResponseData map[string]any `json:"response_data"`
}

// ValidateChallenge handles POST /api/vkyc/validate
func (h *Handler) ValidateChallenge(c *gin.Context) {
	ctx := c.Request.Context()

	req, ok := bindValidateRequest(c)
	if !ok {
		return
	}

	res := h.registry.Validate(ctx, req.ChallengeID, req.ResponseData)

	if res.Reason == ReasonNotFound {
		logging.L(ctx).Warn("validation for unknown challenge", "challenge_id", req.ChallengeID)
	} else {
		logging.L(ctx).Info("challenge validated",
			"challenge_id", req.ChallengeID,
			"valid", res.Valid,
		)
	}

	if h.events != nil {
		h.events.ChallengeValidated(req.ChallengeID, res)
	}

	// A consumed or unknown id is an expected outcome, not an HTTP error.
	c.JSON(http.StatusOK, res)
}

func bindValidateRequest(c *gin.Context) (*validateRequest, bool) {
	var req validateRequest

	if c.ContentType() == gin.MIMEJSON {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Request body must be valid JSON with a challenge_id")
			return nil, false
		}
	} else {
		req.ChallengeID = c.PostForm("challenge_id")
		if raw := c.PostForm("response_data"); raw != "" {
			if errs := validation.Validate(
				validation.MaxLength("response_data", raw, validation.MaxStringLength),
			); len(errs) > 0 {
				badRequest(c, errs.Error())
				return nil, false
			}
			if err := json.Unmarshal([]byte(raw), &req.ResponseData); err != nil {
				badRequest(c, "response_data must be a JSON object")
				return nil, false
			}
		}
	}

	// Reject ids that could never have been issued before touching the
	// registry.
	req.ChallengeID = validation.SanitizeString(req.ChallengeID, 64)
	if errs := validation.Validate(
		validation.Required("challenge_id", req.ChallengeID),
		validation.ValidChallengeID("challenge_id", req.ChallengeID),
	); len(errs) > 0 {
		badRequest(c, errs.Error())
		return nil, false
	}

	return &req, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid_request",
		"message": msg,
	})
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
