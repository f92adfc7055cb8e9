package api

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/myrizq/rizq/internal/model"
	"github.com/myrizq/rizq/internal/session"
)

// UserHeader carries the caller's user ID. Authentication happens in front
// of this service.
const UserHeader = "X-User-ID"

// IdempotencyHeader, when present, overrides a command body's key.
const IdempotencyHeader = "Idempotency-Key"

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.InfoContext(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"user_id", c.GetHeader(UserHeader))
	}
}

// withSession builds the request's session from the user header and the
// optional as_of and currency query parameters.
func withSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserHeader))
		if userID == "" {
			c.AbortWithStatusJSON(401, errorBody{Code: "unauthenticated", Message: "missing " + UserHeader + " header"})
			return
		}
		sess := session.Session{UserID: userID}

		if v := c.Query("as_of"); v != "" {
			t, err := parseDate(v)
			if err != nil {
				badRequest(c, "as_of: "+err.Error())
				return
			}
			sess.AsOf = t
		}
		if v := c.Query("currency"); v != "" {
			v = strings.ToUpper(v)
			if !model.ValidCurrency(v) {
				badRequest(c, "currency: must be a 3-letter ISO code")
				return
			}
			sess.BaseCurrency = v
		}

		c.Request = c.Request.WithContext(session.WithContext(c.Request.Context(), sess))
		c.Next()
	}
}

// parseDate accepts 2006-01-02 or RFC 3339.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
