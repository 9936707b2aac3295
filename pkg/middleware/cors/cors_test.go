package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/lms-api/pkg/config"
)

func request(cfg config.CORSConfig, method, origin string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(cfg))
	r.Any("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	req := httptest.NewRequest(method, "/", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	cfg := config.CORSConfig{AllowedOrigins: []string{"https://lms.example.com/"}}

	rec := request(cfg, http.MethodGet, "https://lms.example.com")
	assert.Equal(t, "https://lms.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = request(cfg, http.MethodGet, "https://evil.example.com")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	rec := request(config.CORSConfig{}, http.MethodOptions, "https://any.example.com")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://any.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
