package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/server/middleware"
	"github.com/mamadbah2/rental/internal/service/analytics"
	"github.com/mamadbah2/rental/internal/service/expense"
	"github.com/mamadbah2/rental/internal/service/handover"
)

// RecordsHandler serves owner bookkeeping: expenses, handovers and the summary.
type RecordsHandler struct {
	expenses  *expense.Service
	handovers *handover.Service
	analytics *analytics.Service
	logger    *zap.Logger
}

// NewRecordsHandler constructs the HTTP handler adapter.
func NewRecordsHandler(expenses *expense.Service, handovers *handover.Service, summaries *analytics.Service, logger *zap.Logger) *RecordsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordsHandler{expenses: expenses, handovers: handovers, analytics: summaries, logger: logger}
}

// CreateExpense records an owner expense.
func (h *RecordsHandler) CreateExpense(c *gin.Context) {
	var req struct {
		PropertyID  string  `json:"propertyId" binding:"required"`
		UnitID      string  `json:"unitId"`
		Title       string  `json:"title" binding:"required"`
		Amount      float64 `json:"amount" binding:"required,gt=0"`
		Category    string  `json:"category" binding:"required"`
		Date        string  `json:"date" binding:"omitempty,ymd"`
		Description string  `json:"description"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	created, err := h.expenses.Create(c.Request.Context(), middleware.Identity(c), expense.Input{
		PropertyID:  req.PropertyID,
		UnitID:      req.UnitID,
		Title:       req.Title,
		Amount:      req.Amount,
		Category:    req.Category,
		Date:        req.Date,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"expenseId": created.ID, "message": "Expense recorded successfully", "expense": created})
}

// ListExpenses lists the caller's expenses.
func (h *RecordsHandler) ListExpenses(c *gin.Context) {
	var q struct {
		PropertyID string `form:"propertyId"`
		Category   string `form:"category"`
		StartDate  string `form:"startDate" binding:"omitempty,ymd"`
		EndDate    string `form:"endDate" binding:"omitempty,ymd"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query: " + err.Error()})
		return
	}
	expenses, err := h.expenses.List(c.Request.Context(), middleware.Identity(c), expense.Query{
		PropertyID: q.PropertyID, Category: q.Category, StartDate: q.StartDate, EndDate: q.EndDate,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, expenses)
}

// DeleteExpense removes one of the caller's expenses.
func (h *RecordsHandler) DeleteExpense(c *gin.Context) {
	if err := h.expenses.Delete(c.Request.Context(), middleware.Identity(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}

// CreateHandover saves a check-in or check-out report.
func (h *RecordsHandler) CreateHandover(c *gin.Context) {
	var req struct {
		PropertyID string                 `json:"propertyId" binding:"required"`
		UnitID     string                 `json:"unitId" binding:"required"`
		TenantID   string                 `json:"tenantId"`
		Type       models.HandoverType    `json:"type" binding:"required,oneof=check-in check-out"`
		Checklist  []models.ChecklistItem `json:"checklist"`
		Photos     []string               `json:"photos"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	created, err := h.handovers.Create(c.Request.Context(), middleware.Identity(c), handover.Input{
		PropertyID: req.PropertyID,
		UnitID:     req.UnitID,
		TenantID:   req.TenantID,
		Type:       req.Type,
		Checklist:  req.Checklist,
		Photos:     req.Photos,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"handoverId": created.ID, "message": "Handover report saved", "handover": created})
}

// HandoverHistory lists the reports of a unit.
func (h *RecordsHandler) HandoverHistory(c *gin.Context) {
	history, err := h.handovers.History(c.Request.Context(), middleware.Identity(c), c.Param("unitId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// Summary returns the caller's financial summary, optionally for ?month=YYYY-MM.
func (h *RecordsHandler) Summary(c *gin.Context) {
	summary, err := h.analytics.Summary(c.Request.Context(), middleware.Identity(c), c.Query("month"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
