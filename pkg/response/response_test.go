package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wellness-admin-console/internal/models"
	appErrors "github.com/noah-isme/wellness-admin-console/pkg/errors"
)

func run(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	h(c)
	var body map[string]json.RawMessage
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestJSONWithPagination(t *testing.T) {
	rec, body := run(t, func(c *gin.Context) {
		JSON(c, http.StatusOK, []string{"a"}, &models.Pagination{CurrentPage: 1, TotalPages: 1, TotalCount: 1, Limit: 20}, map[string]interface{}{"version": 3})
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"currentPage":1,"totalPages":1,"totalCount":1,"limit":20}`, string(body["pagination"]))
	assert.JSONEq(t, `{"version":3}`, string(body["meta"]))
}

func TestErrorCarriesFields(t *testing.T) {
	rec, body := run(t, func(c *gin.Context) {
		Error(c, appErrors.WithFields(appErrors.ErrValidation, []appErrors.FieldError{{Field: "code", Message: "code is required"}}))
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"code":"VALIDATION_ERROR","message":"validation failed","status":400,"fields":[{"field":"code","message":"code is required"}]}`, string(body["error"]))

	rec, _ = run(t, func(c *gin.Context) { Error(c, errors.New("boom")) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
