package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	contractdomain "github.com/orbitfall/tradewind/internal/contract/domain"
	snapshotdomain "github.com/orbitfall/tradewind/internal/snapshot/domain"
	timelinedomain "github.com/orbitfall/tradewind/internal/timeline/domain"
	tradeledgerdomain "github.com/orbitfall/tradewind/internal/tradeledger/domain"
	"gorm.io/gorm"
)

// ErrRateLimited is surfaced when the ingest limiter denies a request.
var ErrRateLimited = errors.New("rate_limited")

// ErrContractBusy is surfaced when another ingest holds the contract lock.
var ErrContractBusy = errors.New("contract_busy")

// ValidationError flags malformed request input so it maps to a 400 instead
// of a 500.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string { return e.Message }

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware converts errors attached to the gin context into a
// consistent JSON error body. Handlers that already wrote a response are left
// alone.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		last := c.Errors.Last()
		if last == nil {
			return
		}

		status, payload := mapError(last.Err)
		c.JSON(status, errorResponse{Error: payload})
	}
}

// AbortWithError records err on the context and stops the handler chain. The
// response body is written by ErrorHandlingMiddleware.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{Code: "validation_error", Message: err.Error()}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{Code: "not_found", Message: err.Error()}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{Code: "rate_limited", Message: err.Error()}
	case errors.Is(err, ErrContractBusy):
		return http.StatusConflict, errorPayload{Code: "contract_busy", Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorPayload{Code: "internal_error", Message: "internal error"}
	}
}

func isValidationError(err error) bool {
	var ve ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, snapshotdomain.ErrInvalidContractID) ||
		errors.Is(err, snapshotdomain.ErrInvalidObservedAt) ||
		errors.Is(err, snapshotdomain.ErrInvalidStatus) ||
		errors.Is(err, snapshotdomain.ErrInvalidConditionIndex) ||
		errors.Is(err, snapshotdomain.ErrEmptyBatch) ||
		errors.Is(err, snapshotdomain.ErrInvalidPageToken) ||
		errors.Is(err, contractdomain.ErrInvalidContractID) ||
		errors.Is(err, tradeledgerdomain.ErrInvalidWindow) ||
		errors.Is(err, timelinedomain.ErrInvalidWindow)
}

func isNotFoundError(err error) bool {
	return errors.Is(err, contractdomain.ErrContractNotFound) ||
		errors.Is(err, gorm.ErrRecordNotFound)
}
