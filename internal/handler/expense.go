package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleetops/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExpenseHandler handles HTTP requests for expense entries and rollups.
type ExpenseHandler struct {
	expenseService    *service.ExpenseService
	aggregatorService *service.AggregatorService
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService *service.ExpenseService, aggregatorService *service.AggregatorService) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService:    expenseService,
		aggregatorService: aggregatorService,
	}
}

// AddExpenseRequest is the HTTP request body for recording an expense.
type AddExpenseRequest struct {
	Type      string  `json:"type"`
	Amount    float64 `json:"amount"`
	DriverID  string  `json:"driver"`
	CabNumber string  `json:"cabNumber"`
}

// UpdateExpenseRequest is the HTTP request body for changing an expense.
type UpdateExpenseRequest struct {
	Type      *string  `json:"type"`
	Amount    *float64 `json:"amount"`
	DriverID  *string  `json:"driver"`
	CabNumber *string  `json:"cabNumber"`
}

// Add handles POST /v1/admin/expenses
func (h *ExpenseHandler) Add(c *gin.Context) {
	var req AddExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	expense, err := h.expenseService.AddExpense(c.Request.Context(), service.AddExpenseRequest{
		Type:      req.Type,
		Amount:    req.Amount,
		DriverID:  req.DriverID,
		CabNumber: req.CabNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, expense)
}

// Update handles PUT /v1/admin/expenses/:id
func (h *ExpenseHandler) Update(c *gin.Context) {
	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	expense, err := h.expenseService.UpdateExpense(c.Request.Context(), c.Param("id"), service.UpdateExpenseRequest{
		Type:      req.Type,
		Amount:    req.Amount,
		DriverID:  req.DriverID,
		CabNumber: req.CabNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, expense)
}

// Delete handles DELETE /v1/admin/expenses/:id
func (h *ExpenseHandler) Delete(c *gin.Context) {
	if err := h.expenseService.DeleteExpense(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"message": "expense deleted successfully"})
}

// ByDriver handles GET /v1/admin/expenses/driver/:driverId
func (h *ExpenseHandler) ByDriver(c *gin.Context) {
	expenses, err := h.expenseService.ListExpensesByDriver(c.Request.Context(), c.Param("driverId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, expenses)
}

// ByCab handles GET /v1/admin/expenses/cab/:cabNumber
func (h *ExpenseHandler) ByCab(c *gin.Context) {
	expenses, err := h.expenseService.ListExpensesByCab(c.Request.Context(), c.Param("cabNumber"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, expenses)
}

// CabTotals handles GET /v1/admin/expenses/cabs
func (h *ExpenseHandler) CabTotals(c *gin.Context) {
	totals, err := h.aggregatorService.ComputeCabExpenses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, totals)
}

// CabReport handles GET /v1/admin/expenses/cabs/report.xlsx
func (h *ExpenseHandler) CabReport(c *gin.Context) {
	report, err := h.aggregatorService.CabExpenseReport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	filename := "cab-expenses-" + time.Now().UTC().Format("2006-01-02") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, report)
}

// SubAdminTotals handles GET /v1/admin/expenses/subadmins
func (h *ExpenseHandler) SubAdminTotals(c *gin.Context) {
	totals, err := h.aggregatorService.ComputeSubAdminExpenses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, totals)
}
