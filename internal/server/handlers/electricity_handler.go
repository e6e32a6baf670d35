package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/server/middleware"
	"github.com/mamadbah2/rental/internal/service/utility"
)

// ElectricityHandler exposes the utility gate.
type ElectricityHandler struct {
	svc    *utility.Service
	logger *zap.Logger
}

// NewElectricityHandler constructs the HTTP handler adapter.
func NewElectricityHandler(svc *utility.Service, logger *zap.Logger) *ElectricityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ElectricityHandler{svc: svc, logger: logger}
}

// Status returns the unit's supply state and a fresh bill snapshot.
func (h *ElectricityHandler) Status(c *gin.Context) {
	res, err := h.svc.Status(c.Request.Context(), middleware.Identity(c), c.Param("propertyId"), c.Param("unitId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Toggle switches the unit's supply. Enabling requires a paid bill.
func (h *ElectricityHandler) Toggle(c *gin.Context) {
	var req struct {
		PropertyID string `json:"propertyId" binding:"required"`
		UnitID     string `json:"unitId" binding:"required"`
		Enabled    *bool  `json:"enabled" binding:"required"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	res, err := h.svc.SetElectricity(c.Request.Context(), middleware.Identity(c), req.PropertyID, req.UnitID, *req.Enabled)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
