package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/pkg/errreport"
	"github.com/noah-isme/school-admin-api/pkg/middleware/requestid"
)

// ReportErrors forwards the errors attached to requests that ended with a 5xx status.
func ReportErrors(reporter errreport.Reporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if reporter == nil || c.Writer.Status() < http.StatusInternalServerError || len(c.Errors) == 0 {
			return
		}
		extras := map[string]interface{}{
			"method":     c.Request.Method,
			"route":      c.FullPath(),
			"status":     c.Writer.Status(),
			"request_id": requestid.Value(c),
		}
		if claims := CurrentUser(c); claims != nil {
			extras["user_id"] = claims.UserID
			extras["role"] = string(claims.Role)
		}
		reporter.Report(c.Errors.Last().Err, extras)
	}
}
