package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/feeledger/internal/audit/domain"
	paymentdomain "github.com/smallbiznis/feeledger/internal/payment/domain"
	studentdomain "github.com/smallbiznis/feeledger/internal/student/domain"
	voucherdomain "github.com/smallbiznis/feeledger/internal/voucher/domain"
	pkgdb "github.com/smallbiznis/feeledger/pkg/db"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

func newValidationError(field, code, message string) ValidationErrors {
	return ValidationErrors{Errors: []ValidationError{{Field: field, Code: code, Message: message}}}
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var validation ValidationErrors
	if errors.As(err, &validation) {
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: "request validation failed",
			Errors:  validation.Errors,
		}
	}

	switch {
	case errors.Is(err, voucherdomain.ErrVoucherNotFound),
		errors.Is(err, paymentdomain.ErrVoucherNotFound),
		errors.Is(err, studentdomain.ErrStudentNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: err.Error()}

	case errors.Is(err, paymentdomain.ErrAlreadySettled),
		errors.Is(err, paymentdomain.ErrVoucherCancelled),
		errors.Is(err, paymentdomain.ErrConcurrentUpdate),
		errors.Is(err, voucherdomain.ErrNotCancellable):
		return http.StatusConflict, errorPayload{Type: "conflict", Message: err.Error()}

	case pkgdb.IsDuplicateKeyErr(err):
		return http.StatusConflict, errorPayload{Type: "conflict", Message: "duplicate record"}

	case errors.Is(err, paymentdomain.ErrInvalidAmount),
		errors.Is(err, paymentdomain.ErrInvalidMethod),
		errors.Is(err, voucherdomain.ErrNoFeeSchedule),
		errors.Is(err, voucherdomain.ErrInvalidPeriod),
		errors.Is(err, voucherdomain.ErrInvalidItem),
		errors.Is(err, auditdomain.ErrInvalidTimeRange):
		return http.StatusUnprocessableEntity, errorPayload{Type: "invalid_request", Message: err.Error()}
	}

	return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal error"}
}
