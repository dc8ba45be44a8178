package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleetops/internal/service"
)

// AdminHandler handles analytics and sub-admin management.
type AdminHandler struct {
	adminService     *service.AdminService
	analyticsService *service.AnalyticsService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService *service.AdminService, analyticsService *service.AnalyticsService) *AdminHandler {
	return &AdminHandler{
		adminService:     adminService,
		analyticsService: analyticsService,
	}
}

// AddAnalyticsRequest is the HTTP request body for an analytics snapshot.
type AddAnalyticsRequest struct {
	TotalRides           int       `json:"totalRides"`
	Revenue              float64   `json:"revenue"`
	CustomerSatisfaction float64   `json:"customerSatisfaction"`
	FleetUtilization     float64   `json:"fleetUtilization"`
	Date                 time.Time `json:"date"`
}

// AddAnalytics handles POST /v1/admin/analytics
func (h *AdminHandler) AddAnalytics(c *gin.Context) {
	var req AddAnalyticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	snapshot, err := h.analyticsService.AddAnalytics(c.Request.Context(), service.AddAnalyticsRequest{
		TotalRides:           req.TotalRides,
		Revenue:              req.Revenue,
		CustomerSatisfaction: req.CustomerSatisfaction,
		FleetUtilization:     req.FleetUtilization,
		Date:                 req.Date,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, snapshot)
}

// LatestAnalytics handles GET /v1/admin/analytics
func (h *AdminHandler) LatestAnalytics(c *gin.Context) {
	snapshots, err := h.analyticsService.LatestAnalytics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, snapshots)
}

// DeleteSubAdmin handles DELETE /v1/admin/subadmins/:id
func (h *AdminHandler) DeleteSubAdmin(c *gin.Context) {
	result, err := h.adminService.DeleteSubAdmin(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"message": "sub-admin deleted", "result": result})
}
