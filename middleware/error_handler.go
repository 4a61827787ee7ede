package middleware

import (
	"rescuereach/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Recovery converts panics into 500 responses instead of dropping the
// connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithFields(logrus.Fields{
					"requestId": c.GetString("requestID"),
					"path":      c.Request.URL.Path,
					"panic":     r,
				}).Error("Recovered from panic")
				utils.InternalServerErrorResponse(c, "Internal server error")
				c.Abort()
			}
		}()
		c.Next()
	}
}

// ErrorHandler renders errors attached to the context by handlers that
// returned without writing a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		logrus.WithFields(logrus.Fields{
			"requestId": c.GetString("requestID"),
			"path":      c.Request.URL.Path,
		}).Errorf("Unhandled request error: %v", err)
		utils.ServiceErrorResponse(c, err)
	}
}
