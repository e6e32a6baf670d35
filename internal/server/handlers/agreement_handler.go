package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/server/middleware"
	"github.com/mamadbah2/rental/internal/service/agreement"
)

// AgreementHandler serves rental agreements.
type AgreementHandler struct {
	svc    *agreement.Service
	logger *zap.Logger
}

// NewAgreementHandler constructs the HTTP handler adapter.
func NewAgreementHandler(svc *agreement.Service, logger *zap.Logger) *AgreementHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgreementHandler{svc: svc, logger: logger}
}

// Create records an uploaded agreement.
func (h *AgreementHandler) Create(c *gin.Context) {
	var req struct {
		UnitID    string `json:"unitId" binding:"required"`
		TenantID  string `json:"tenantId" binding:"required"`
		PDFURL    string `json:"pdfUrl" binding:"required,url"`
		StartDate string `json:"startDate" binding:"required,ymd"`
		EndDate   string `json:"endDate" binding:"required,ymd"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	created, err := h.svc.Create(c.Request.Context(), middleware.Identity(c), agreement.Input{
		UnitID:      req.UnitID,
		TenantID:    req.TenantID,
		DocumentURL: req.PDFURL,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": created.ID, "message": "Agreement uploaded successfully", "agreement": created})
}

// ByUnit lists the agreements of a unit.
func (h *AgreementHandler) ByUnit(c *gin.Context) {
	agreements, err := h.svc.ListByUnit(c.Request.Context(), middleware.Identity(c), c.Param("unitId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, agreements)
}

// Mine lists the caller's agreements.
func (h *AgreementHandler) Mine(c *gin.Context) {
	agreements, err := h.svc.Mine(c.Request.Context(), middleware.Identity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, agreements)
}
