package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"fleetops/internal/repository"
	"fleetops/internal/service"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	testCases := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidDriverID, http.StatusBadRequest},
		{service.ErrEmptyTripUpdate, http.StatusBadRequest},
		{service.ErrCabNotFound, http.StatusNotFound},
		{service.ErrNoActiveAssignment, http.StatusNotFound},
		{repository.ErrNotFound, http.StatusNotFound},
		{service.ErrDriverHasActiveAssignment, http.StatusConflict},
		{service.ErrAssignmentConflict, http.StatusConflict},
		{service.ErrConcurrentTripUpdate, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", service.ErrAssignmentCompleted), http.StatusConflict},
		{service.ErrForbidden, http.StatusForbidden},
		{errors.New("pq: connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, mapErrorToHTTPStatus(tc.err), tc.err.Error())
	}
}

func TestRespondError_InternalErrorsAreOpaque(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	respondError(c, errors.New("pq: password authentication failed for user fleet"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	assert.Len(t, c.Errors, 1)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	respondError(c, service.ErrCabHasActiveAssignment)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"this cab is already assigned to another driver"}`, rec.Body.String())
}
