package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/myrizq/rizq/internal/ledger"
	"github.com/myrizq/rizq/internal/rates"
	"github.com/myrizq/rizq/internal/service"
	"github.com/myrizq/rizq/internal/session"
)

type violation struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Violations []violation `json:"violations,omitempty"`
}

// success writes data under "data".
func success(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

// statusFor maps a domain error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrIdempotencyConflict):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrInactiveAccount), errors.Is(err, ledger.ErrOverpayment):
		return http.StatusConflict
	case errors.Is(err, rates.ErrConversion):
		return http.StatusFailedDependency
	case errors.Is(err, session.ErrMissingUser):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with the status it maps to. Unexpected errors are logged
// and their text is not echoed.
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	body := errorBody{Code: service.Outcome(err), Message: err.Error()}

	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		for _, v := range verr.Violations {
			body.Violations = append(body.Violations, violation{Field: v.Field, Message: v.Message})
		}
	}
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "err", err)
		body.Message = "internal error"
	}
	c.AbortWithStatusJSON(status, body)
}

// badRequest reports a malformed request that never reached the ledger.
func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Code: "invalid", Message: msg})
}
