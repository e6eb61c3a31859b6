package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestIsValidChallengeID(t *testing.T) {
	valid := []string{
		"dbi_1756100000_a1b2c3d4",
		"dbi_0_00000000",
	}
	for _, id := range valid {
		assert.True(t, IsValidChallengeID(id), "%s should be valid", id)
	}

	invalid := []string{
		"",
		"dbi_1756100000_A1B2C3D4", // uppercase hex
		"dbi_1756100000_a1b2c3",   // short suffix
		"xyz_1756100000_a1b2c3d4", // wrong prefix
		"dbi_abc_a1b2c3d4",        // non-numeric timestamp
		"dbi_1756100000_a1b2c3d4x",
	}
	for _, id := range invalid {
		assert.False(t, IsValidChallengeID(id), "%s should be invalid", id)
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello  ", 100))
	assert.Equal(t, "abc", SanitizeString("abcdef", 3))
	assert.Equal(t, "ab", SanitizeString("a\x00b", 100))
}

func TestValidate(t *testing.T) {
	errs := Validate(
		Required("challenge_id", ""),
		ValidChallengeID("challenge_id", "not-an-id"),
	)
	assert.Len(t, errs, 2)
	assert.Contains(t, errs.Error(), "challenge_id")

	errs = Validate(
		Required("challenge_id", "dbi_1756100000_a1b2c3d4"),
		ValidChallengeID("challenge_id", "dbi_1756100000_a1b2c3d4"),
		MaxLength("frame_data", "short", 100),
	)
	assert.Empty(t, errs)
}

func TestRequestSizeMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestSizeMiddleware(16))
	r.POST("/echo", func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too_large"})
			return
		}
		c.String(200, "%d", len(body))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/echo", strings.NewReader("tiny")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/echo", strings.NewReader(strings.Repeat("x", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
