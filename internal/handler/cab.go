package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleetops/internal/service"
)

// CabHandler handles HTTP requests for cabs.
type CabHandler struct {
	cabService *service.CabService
}

// NewCabHandler creates a new CabHandler.
func NewCabHandler(cabService *service.CabService) *CabHandler {
	return &CabHandler{cabService: cabService}
}

// CreateCabRequest is the HTTP request body for registering a cab.
type CreateCabRequest struct {
	CabNumber          string    `json:"cabNumber"`
	InsuranceNumber    string    `json:"insuranceNumber"`
	InsuranceExpiry    time.Time `json:"insuranceExpiry"`
	RegistrationNumber string    `json:"registrationNumber"`
	CabImage           string    `json:"cabImage"`
}

// UpdateCabRequest is the HTTP request body for changing cab metadata.
type UpdateCabRequest struct {
	InsuranceNumber    *string    `json:"insuranceNumber"`
	InsuranceExpiry    *time.Time `json:"insuranceExpiry"`
	RegistrationNumber *string    `json:"registrationNumber"`
	CabImage           *string    `json:"cabImage"`
}

// Create handles POST /v1/admin/cabs
func (h *CabHandler) Create(c *gin.Context) {
	var req CreateCabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	cab, err := h.cabService.CreateCab(c.Request.Context(), service.CreateCabRequest{
		CabNumber:          req.CabNumber,
		InsuranceNumber:    req.InsuranceNumber,
		InsuranceExpiry:    req.InsuranceExpiry,
		RegistrationNumber: req.RegistrationNumber,
		CabImage:           req.CabImage,
		AddedBy:            actor(c).ID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, cab)
}

// List handles GET /v1/admin/cabs
func (h *CabHandler) List(c *gin.Context) {
	cabs, err := h.cabService.ListCabs(c.Request.Context(), actor(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, cabs)
}

// Get handles GET /v1/admin/cabs/:id
func (h *CabHandler) Get(c *gin.Context) {
	cab, err := h.cabService.GetCab(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, cab)
}

// Update handles PATCH /v1/admin/cabs/:id
func (h *CabHandler) Update(c *gin.Context) {
	var req UpdateCabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	cab, err := h.cabService.UpdateCab(c.Request.Context(), c.Param("id"), service.UpdateCabRequest{
		InsuranceNumber:    req.InsuranceNumber,
		InsuranceExpiry:    req.InsuranceExpiry,
		RegistrationNumber: req.RegistrationNumber,
		CabImage:           req.CabImage,
	}, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, cab)
}

// Delete handles DELETE /v1/admin/cabs/:id
func (h *CabHandler) Delete(c *gin.Context) {
	if err := h.cabService.DeleteCab(c.Request.Context(), c.Param("id"), actor(c)); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"message": "cab deleted successfully"})
}
