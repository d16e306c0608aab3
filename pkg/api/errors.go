package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
)

// errorResponse is the body every failed request returns.
type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps an apperr.Kind to the HTTP status a client should see.
// Kinds the core never surfaces directly to the edge (CIRCUIT_OPEN,
// RATE_LIMITED, INTEGRITY) still map sensibly in case a collaborator
// error escapes unwrapped.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests
	case apperr.KindCircuitOpen:
		return http.StatusServiceUnavailable
	case apperr.KindTransient:
		return http.StatusBadGateway
	case apperr.KindIntegrity:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError classifies err via apperr and writes the matching status
// and body, never leaking the underlying error for unclassified (FATAL)
// failures.
func writeError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	msg := err.Error()
	if kind == apperr.KindFatal {
		msg = "internal error"
	}
	c.JSON(statusFor(kind), errorResponse{Error: msg})
}
