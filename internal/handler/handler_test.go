package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/middleware"
	"github.com/noah-isme/school-admin-api/internal/models"
)

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Message    string                 `json:"message"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
	Error      *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func withClaims(c *gin.Context, userID string, role models.UserRole) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: userID, Role: role})
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestPageParamsCapsLimit(t *testing.T) {
	c, _ := newGinContext(http.MethodGet, "/students?page=3&limit=500", nil)
	page, size := pageParams(c)
	assert.Equal(t, 3, page)
	assert.Equal(t, maxPageSize, size)

	c, _ = newGinContext(http.MethodGet, "/students?page=-1&limit=abc", nil)
	page, size = pageParams(c)
	assert.Equal(t, 1, page)
	assert.Equal(t, defaultPageSize, size)
}

func TestBindJSONRejectsMalformedBody(t *testing.T) {
	c, w := newGinContext(http.MethodPost, "/classes", []byte("{"))
	var dest map[string]interface{}
	assert.False(t, bindJSON(c, &dest))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Corps de requête invalide", decode(t, w).Message)
}

func TestDateQuery(t *testing.T) {
	c, _ := newGinContext(http.MethodGet, "/grades?from=2026-01-05&to=05/01/2026", nil)
	from, err := dateQuery(c, "from")
	require.NoError(t, err)
	assert.Equal(t, 5, from.Day())

	_, err = dateQuery(c, "to")
	assert.Error(t, err)

	missing, err := dateQuery(c, "since")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
