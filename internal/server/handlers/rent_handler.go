package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/server/middleware"
	"github.com/mamadbah2/rental/internal/service/ledger"
)

// RentHandler serves the rent ledger.
type RentHandler struct {
	svc    *ledger.Service
	logger *zap.Logger
}

// NewRentHandler constructs the HTTP handler adapter.
func NewRentHandler(svc *ledger.Service, logger *zap.Logger) *RentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RentHandler{svc: svc, logger: logger}
}

// Tenant lists the caller's rent records.
func (h *RentHandler) Tenant(c *gin.Context) {
	records, err := h.svc.TenantRecords(c.Request.Context(), middleware.Identity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// Owner lists rent records across the caller's properties.
func (h *RentHandler) Owner(c *gin.Context) {
	records, err := h.svc.OwnerRecords(c.Request.Context(), middleware.Identity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// Generate creates the period's records for one property.
func (h *RentHandler) Generate(c *gin.Context) {
	var req struct {
		PropertyID string `json:"propertyId" binding:"required"`
		Period     string `json:"month" binding:"required,period"`
		DueDate    string `json:"dueDate" binding:"required,ymd"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	res, err := h.svc.GenerateForPeriod(c.Request.Context(), middleware.Identity(c), req.PropertyID, req.Period, req.DueDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
