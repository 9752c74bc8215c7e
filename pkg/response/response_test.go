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

	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

func TestErrorNormalisesUnknownErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Error(c, errors.New("boom"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, appErrors.ErrInternal.Message, body["message"])
	assert.NotContains(t, w.Body.String(), "boom")
	assert.Len(t, c.Errors, 1)
}

func TestErrorKeepsFieldMap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	Error(c, appErrors.Validation("Données invalides", map[string]string{"email": "email est obligatoire"}))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Message string           `json:"message"`
		Error   *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Données invalides", body.Message)
	assert.Equal(t, "email est obligatoire", body.Error.Fields["email"])
}
