package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetops/internal/domain"
	"fleetops/internal/middleware"
	"fleetops/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

const internalErrorMessage = "internal server error"

// respondError sends an error response with the appropriate HTTP status code.
// Internal errors are recorded on the context and never shown to the caller.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(code, ErrorResponse{Error: internalErrorMessage})
		return
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch service.Kind(err) {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// actor returns the authenticated caller. The auth middleware guarantees it
// is present on every route that calls this.
func actor(c *gin.Context) domain.Actor {
	a, _ := middleware.ActorFromContext(c)
	return a
}
