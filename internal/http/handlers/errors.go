package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shuttle/internal/domain"
	"shuttle/internal/http/middleware"
	"shuttle/internal/utils"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Details:   details,
		RequestID: middleware.GetRequestID(c),
	})
}

// RespondDomainError maps domain errors to HTTP responses. Server side detail
// is logged and never sent to the client.
func RespondDomainError(c *gin.Context, err error) {
	var (
		capErr   domain.InsufficientCapacityError
		fundsErr domain.InsufficientFundsError
		winErr   domain.CancellationWindowClosedError
		valErr   domain.ValidationError
	)
	switch {
	case errors.As(err, &valErr):
		var details any
		if valErr.Field != "" {
			details = []FieldError{{Field: valErr.Field, Message: valErr.Msg}}
		}
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), details)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.As(err, &capErr):
		respondError(c, http.StatusBadRequest, "insufficient_capacity", err.Error(), gin.H{
			"requested": capErr.Requested,
			"available": capErr.Available,
		})
	case errors.As(err, &fundsErr):
		respondError(c, http.StatusBadRequest, "insufficient_funds", err.Error(), gin.H{
			"required":  fundsErr.Required,
			"available": fundsErr.Available,
		})
	case errors.As(err, &winErr):
		respondError(c, http.StatusBadRequest, "cancellation_window_closed", err.Error(), gin.H{
			"hoursUntilDeparture": winErr.HoursLeft,
		})
	case domain.IsAlreadyCancelled(err):
		respondError(c, http.StatusBadRequest, "already_cancelled", err.Error(), nil)
	case domain.IsNotCancellable(err):
		respondError(c, http.StatusBadRequest, "not_cancellable", err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	case domain.IsUnauthorized(err):
		respondError(c, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
	case domain.SettlementCode(err) != "":
		utils.LogError(c.Request.Context(), "http", "settlement", "settlement failed", err)
		respondError(c, http.StatusInternalServerError, domain.SettlementCode(err), err.Error(), nil)
	case domain.IsPersistence(err):
		utils.LogError(c.Request.Context(), "http", "persistence", "store failure", err)
		respondError(c, http.StatusInternalServerError, "persistence_error", "a database error occurred, please try again", nil)
	default:
		utils.LogError(c.Request.Context(), "http", "internal", "unhandled error", err)
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong", nil)
	}
}
