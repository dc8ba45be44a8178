package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetops/internal/service"
)

// AssignmentHandler handles HTTP requests for cab assignments.
type AssignmentHandler struct {
	assignmentService *service.AssignmentService
	uploads           *Uploads
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(assignmentService *service.AssignmentService, uploads *Uploads) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
		uploads:           uploads,
	}
}

// AssignCabRequest is the HTTP request body for an admin assignment.
type AssignCabRequest struct {
	DriverID string `json:"driverId"`
	// CabNumber accepts either the plate number or the cab ID.
	CabNumber string `json:"cabNumber"`
}

// DriverAssignCabRequest is the HTTP request body for a driver self-assignment.
type DriverAssignCabRequest struct {
	CabNumber  string `json:"cabNumber"`
	AssignedBy string `json:"assignedBy"`
}

// AssignCab handles POST /v1/admin/assignments
func (h *AssignmentHandler) AssignCab(c *gin.Context) {
	var req AssignCabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	assignment, err := h.assignmentService.CreateAssignment(c.Request.Context(), service.CreateAssignmentRequest{
		DriverID:   req.DriverID,
		CabRef:     req.CabNumber,
		AssignedBy: actor(c).ID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, gin.H{"message": "cab assigned successfully", "assignment": assignment})
}

// DriverAssignCab handles POST /v1/driver/assignments
func (h *AssignmentHandler) DriverAssignCab(c *gin.Context) {
	var req DriverAssignCabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	assignment, err := h.assignmentService.CreateAssignment(c.Request.Context(), service.CreateAssignmentRequest{
		DriverID:   actor(c).ID,
		CabRef:     req.CabNumber,
		AssignedBy: req.AssignedBy,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, gin.H{"message": "cab assigned successfully", "assignment": assignment})
}

// UpdateTrip handles PATCH /v1/driver/trip
func (h *AssignmentHandler) UpdateTrip(c *gin.Context) {
	fields, files, err := h.uploads.readTripForm(c)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid trip form"})
		return
	}

	assignment, err := h.assignmentService.UpdateTripDetails(c.Request.Context(), service.UpdateTripDetailsRequest{
		DriverID: actor(c).ID,
		Fields:   fields,
		Files:    files,
	})
	if err != nil {
		if discardErr := h.uploads.discard(files); discardErr != nil {
			_ = c.Error(discardErr)
		}
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"message": "trip updated successfully", "assignment": assignment})
}

// Complete handles POST /v1/admin/assignments/:id/complete and
// POST /v1/driver/assignments/:id/complete
func (h *AssignmentHandler) Complete(c *gin.Context) {
	assignment, err := h.assignmentService.CompleteAssignment(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"message": "trip completed", "assignment": assignment})
}

// Unassign handles DELETE /v1/admin/assignments/:id
func (h *AssignmentHandler) Unassign(c *gin.Context) {
	if err := h.assignmentService.UnassignAssignment(c.Request.Context(), c.Param("id"), actor(c)); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"message": "cab unassigned successfully"})
}

// ListForAdmin handles GET /v1/admin/assignments
func (h *AssignmentHandler) ListForAdmin(c *gin.Context) {
	views, err := h.assignmentService.ListAssignmentsForAdmin(c.Request.Context(), actor(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, views)
}

// ListForDriver handles GET /v1/driver/assignments
func (h *AssignmentHandler) ListForDriver(c *gin.Context) {
	views, err := h.assignmentService.ListAssignmentsForDriver(c.Request.Context(), actor(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, views)
}
