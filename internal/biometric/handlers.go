package biometric

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trustnetlabs/trustnet/internal/logging"
)

// ReadingEmitter receives each reading as it is produced.
type ReadingEmitter interface {
	BiometricReading(r *Reading)
}

// Handler provides HTTP endpoints for biometric frame processing
type Handler struct {
	sampler *Sampler
	events  ReadingEmitter
}

// NewHandler creates a new biometric handler
func NewHandler(sampler *Sampler) *Handler {
	return &Handler{sampler: sampler}
}

// WithEvents attaches an emitter notified on every reading.
func (h *Handler) WithEvents(events ReadingEmitter) *Handler {
	h.events = events
	return h
}

// RegisterRoutes sets up biometric endpoints on the given group
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/process-frame", h.ProcessFrame)
}

// processFrameRequest accepts either form fields (the demo page) or JSON.
type processFrameRequest struct {
	FrameData string `json:"frame_data" form:"frame_data"`
}

// ProcessFrame handles POST /api/biometric/process-frame
func (h *Handler) ProcessFrame(c *gin.Context) {
	ctx := c.Request.Context()

	var req processFrameRequest
	if c.ContentType() == gin.MIMEJSON {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "Request body must be valid JSON with frame_data",
			})
			return
		}
	} else {
		req.FrameData = c.PostForm("frame_data")
	}

	if req.FrameData == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "frame_data is required",
		})
		return
	}

	reading := h.sampler.Sample(req.FrameData)

	logging.L(ctx).Debug("frame processed",
		"heart_rate", reading.HeartRate,
		"liveness", reading.LivenessScore,
	)

	if h.events != nil {
		h.events.BiometricReading(reading)
	}

	c.JSON(http.StatusOK, gin.H{
		"heart_rate":           reading.HeartRate,
		"face_detected":        reading.FaceDetected,
		"confidence":           reading.Confidence,
		"deepfake_probability": reading.DeepfakeProbability,
		"liveness_score":       reading.LivenessScore,
		"timestamp":            float64(reading.SampledAt.UnixNano()) / 1e9,
	})
}
