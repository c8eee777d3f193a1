package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wellness-admin-console/internal/auth"
	"github.com/noah-isme/wellness-admin-console/internal/service"
)

func newRouter(verifier *auth.Verifier, metrics *service.MetricsService) (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	var subject string
	r := gin.New()
	r.Use(Metrics(metrics), JWT(verifier))
	r.GET("/views", func(c *gin.Context) {
		if op, ok := Operator(c); ok {
			subject = op.Subject
		}
		c.Status(http.StatusOK)
	})
	return r, &subject
}

func get(r *gin.Engine, header string) int {
	req := httptest.NewRequest(http.MethodGet, "/views", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestJWTDisabledWithoutVerifier(t *testing.T) {
	r, _ := newRouter(nil, nil)
	assert.Equal(t, http.StatusOK, get(r, ""))
}

func TestJWTRequiresValidToken(t *testing.T) {
	verifier := auth.NewVerifier("console-secret", "wellness-admin-console")
	metrics := service.NewMetricsService()
	r, subject := newRouter(verifier, metrics)

	assert.Equal(t, http.StatusUnauthorized, get(r, ""))
	assert.Equal(t, http.StatusUnauthorized, get(r, "Token abc"))
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer not-a-jwt"))

	token, err := verifier.Issue("op-1", "ops@example.com", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(r, "Bearer "+token))
	assert.Equal(t, "op-1", *subject)

	other := auth.NewVerifier("other-secret", "wellness-admin-console")
	forged, err := other.Issue("op-2", "", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+forged))
}
