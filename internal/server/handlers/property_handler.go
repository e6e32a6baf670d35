package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/server/middleware"
	"github.com/mamadbah2/rental/internal/service/property"
)

// PropertyHandler serves properties, units, occupancy and broadcasts.
type PropertyHandler struct {
	svc    *property.Service
	logger *zap.Logger
}

// NewPropertyHandler constructs the HTTP handler adapter.
func NewPropertyHandler(svc *property.Service, logger *zap.Logger) *PropertyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PropertyHandler{svc: svc, logger: logger}
}

// List returns the caller's properties with their units.
func (h *PropertyHandler) List(c *gin.Context) {
	properties, err := h.svc.ListOwned(c.Request.Context(), middleware.Identity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, properties)
}

// Create registers a property and its units.
func (h *PropertyHandler) Create(c *gin.Context) {
	var req struct {
		Name      string                   `json:"name" binding:"required"`
		Address   string                   `json:"address"`
		Structure models.PropertyStructure `json:"structure"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	created, err := h.svc.Create(c.Request.Context(), middleware.Identity(c), property.CreateInput{
		Name: req.Name, Address: req.Address, Structure: req.Structure,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": created.ID, "message": "Property and units created", "property": created})
}

// AddUnit adds one unit to an owned property.
func (h *PropertyHandler) AddUnit(c *gin.Context) {
	var req struct {
		PropertyID     string  `json:"propertyId" binding:"required"`
		FloorNumber    int     `json:"floorNumber" binding:"min=0"`
		UnitNumber     string  `json:"unitNumber" binding:"required"`
		RentAmount     float64 `json:"rentAmount" binding:"gte=0"`
		ConsumerNumber string  `json:"electricityConsumerNumber"`
		Region         string  `json:"electricityRegion"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	unit, err := h.svc.AddUnit(c.Request.Context(), middleware.Identity(c), property.UnitInput{
		PropertyID:     req.PropertyID,
		FloorNumber:    req.FloorNumber,
		UnitNumber:     req.UnitNumber,
		RentAmount:     req.RentAmount,
		ConsumerNumber: req.ConsumerNumber,
		Region:         req.Region,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": unit.ID, "message": "Unit created successfully", "unit": unit})
}

// ListUnits returns the units of an owned property.
func (h *PropertyHandler) ListUnits(c *gin.Context) {
	units, err := h.svc.ListUnits(c.Request.Context(), middleware.Identity(c), c.Param("propertyId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, units)
}

// UpdateUnitStatus runs an occupancy transition.
func (h *PropertyHandler) UpdateUnitStatus(c *gin.Context) {
	var req struct {
		UnitID   string            `json:"unitId" binding:"required"`
		Status   models.UnitStatus `json:"status" binding:"required,oneof=vacant occupied under_maintenance"`
		TenantID string            `json:"tenantId"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	unit, err := h.svc.UpdateUnitStatus(c.Request.Context(), middleware.Identity(c), req.UnitID, req.Status, req.TenantID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unit status updated", "unit": unit})
}

// Broadcast pushes a message to every tenant of a property.
func (h *PropertyHandler) Broadcast(c *gin.Context) {
	var req struct {
		PropertyID string `json:"propertyId" binding:"required"`
		Title      string `json:"title" binding:"required"`
		Message    string `json:"message" binding:"required"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	res, err := h.svc.Broadcast(c.Request.Context(), middleware.Identity(c), req.PropertyID, req.Title, req.Message)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Broadcast completed",
		"successCount": res.SuccessCount,
		"failureCount": res.FailureCount,
	})
}
