package biometric

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(s *Sampler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(s).RegisterRoutes(router.Group("/api/biometric"))
	return router
}

func TestProcessFrame_Form(t *testing.T) {
	s := NewSampler(nil)
	router := setupRouter(s)

	form := url.Values{}
	form.Set("frame_data", "data:image/jpeg;base64,/9j/4AAQ")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/biometric/process-frame", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.InDelta(t, 76.5, body["heart_rate"].(float64), 8.5)
	assert.Equal(t, true, body["face_detected"])
	assert.Greater(t, body["liveness_score"].(float64), 0.0)
	assert.Greater(t, body["timestamp"].(float64), 0.0)

	assert.Equal(t, 1, s.SampleCount())
}

func TestProcessFrame_JSON(t *testing.T) {
	router := setupRouter(NewSampler(nil))

	payload := `{"frame_data": "data:image/jpeg;base64,/9j/4AAQ"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/biometric/process-frame", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProcessFrame_MissingFrameData(t *testing.T) {
	s := NewSampler(nil)
	router := setupRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/biometric/process-frame", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "frame_data")
	assert.Equal(t, 0, s.SampleCount())
}

type recordingReadingEmitter struct {
	readings []*Reading
}

func (e *recordingReadingEmitter) BiometricReading(r *Reading) { e.readings = append(e.readings, r) }

func TestProcessFrame_EmitsEvent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	emitter := &recordingReadingEmitter{}
	router := gin.New()
	NewHandler(NewSampler(nil)).WithEvents(emitter).RegisterRoutes(router.Group("/api/biometric"))

	form := url.Values{}
	form.Set("frame_data", "frame")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/biometric/process-frame", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, emitter.readings, 1)
}
