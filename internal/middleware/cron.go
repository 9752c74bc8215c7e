package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

// CronSecretHeader may carry the secret instead of the query string.
const CronSecretHeader = "X-Cron-Secret"

// CronSecret guards maintenance endpoints with a shared secret taken from ?secret= or the
// X-Cron-Secret header. An unset server secret rejects every call.
func CronSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(CronSecretHeader)
		if provided == "" {
			provided = c.Query("secret")
		}
		if secret == "" || provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "Secret cron invalide"))
			c.Abort()
			return
		}
		c.Next()
	}
}
