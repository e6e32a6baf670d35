package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/server/middleware"
	"github.com/mamadbah2/rental/internal/service/maintenance"
)

// MaintenanceHandler serves maintenance tickets.
type MaintenanceHandler struct {
	svc    *maintenance.Service
	logger *zap.Logger
}

// NewMaintenanceHandler constructs the HTTP handler adapter.
func NewMaintenanceHandler(svc *maintenance.Service, logger *zap.Logger) *MaintenanceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceHandler{svc: svc, logger: logger}
}

// Create opens a ticket for the caller's unit.
func (h *MaintenanceHandler) Create(c *gin.Context) {
	var req struct {
		UnitID      string                `json:"unitId" binding:"required"`
		Title       string                `json:"title" binding:"required"`
		Description string                `json:"description"`
		Priority    models.TicketPriority `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
		PhotoURL    string                `json:"photoUrl" binding:"omitempty,url"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	ticket, err := h.svc.Create(c.Request.Context(), middleware.Identity(c), maintenance.TicketInput{
		UnitID:      req.UnitID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": ticket.ID, "message": "Ticket created successfully", "ticket": ticket})
}

// UpdateStatus moves a ticket along its lifecycle.
func (h *MaintenanceHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		TicketID string              `json:"ticketId" binding:"required"`
		Status   models.TicketStatus `json:"status" binding:"required,oneof=open in_progress resolved closed"`
		Notes    string              `json:"notes"`
		Cost     *float64            `json:"cost" binding:"omitempty,gte=0"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	ticket, err := h.svc.UpdateStatus(c.Request.Context(), middleware.Identity(c), maintenance.StatusInput{
		TicketID: req.TicketID, Status: req.Status, Notes: req.Notes, Cost: req.Cost,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ticket updated successfully", "ticket": ticket})
}

// Tenant lists the caller's tickets.
func (h *MaintenanceHandler) Tenant(c *gin.Context) {
	tickets, err := h.svc.TenantTickets(c.Request.Context(), middleware.Identity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

// Owner lists tickets across the caller's properties.
func (h *MaintenanceHandler) Owner(c *gin.Context) {
	tickets, err := h.svc.OwnerTickets(c.Request.Context(), middleware.Identity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}
