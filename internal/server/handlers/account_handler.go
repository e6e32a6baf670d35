package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/server/middleware"
	"github.com/mamadbah2/rental/internal/service/account"
)

// AccountHandler serves profiles, staff and KYC.
type AccountHandler struct {
	svc    *account.Service
	logger *zap.Logger
}

// NewAccountHandler constructs the HTTP handler adapter.
func NewAccountHandler(svc *account.Service, logger *zap.Logger) *AccountHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountHandler{svc: svc, logger: logger}
}

type profileRequest struct {
	Name  string      `json:"name"`
	Email string      `json:"email" binding:"omitempty,email"`
	Phone string      `json:"phone"`
	Role  models.Role `json:"role" binding:"omitempty,oneof=owner tenant staff"`
}

type managedProfileRequest struct {
	UID   string `json:"uid" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone"`
}

// Sync upserts the caller's profile.
func (h *AccountHandler) Sync(c *gin.Context) {
	var req profileRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	user, err := h.svc.Sync(c.Request.Context(), middleware.Identity(c), account.Profile{
		Name: req.Name, Email: req.Email, Phone: req.Phone, Role: req.Role,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Me returns the caller's profile.
func (h *AccountHandler) Me(c *gin.Context) {
	user, err := h.svc.Me(c.Request.Context(), middleware.Identity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// SetFCMToken stores the caller's device token.
func (h *AccountHandler) SetFCMToken(c *gin.Context) {
	var req struct {
		Token string `json:"fcmToken" binding:"required"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	if err := h.svc.SetFCMToken(c.Request.Context(), middleware.Identity(c), req.Token); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "FCM token updated"})
}

// CreateTenant registers a tenant on behalf of the calling owner.
func (h *AccountHandler) CreateTenant(c *gin.Context) {
	h.createManaged(c, h.svc.CreateTenant)
}

// CreateStaff registers a staff member for the calling owner.
func (h *AccountHandler) CreateStaff(c *gin.Context) {
	h.createManaged(c, h.svc.CreateStaff)
}

func (h *AccountHandler) createManaged(c *gin.Context, create func(ctx context.Context, caller models.Identity, p account.Profile) (*models.User, error)) {
	var req managedProfileRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	user, err := create(c.Request.Context(), middleware.Identity(c), account.Profile{
		ID: req.UID, Name: req.Name, Email: req.Email, Phone: req.Phone,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// ListStaff lists the calling owner's staff.
func (h *AccountHandler) ListStaff(c *gin.Context) {
	staff, err := h.svc.ListStaff(c.Request.Context(), middleware.Identity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, staff)
}

// SubmitKYC stores the caller's identity documents.
func (h *AccountHandler) SubmitKYC(c *gin.Context) {
	var req struct {
		AadhaarNumber string   `json:"aadhaarNumber" binding:"required"`
		PANNumber     string   `json:"panNumber" binding:"required"`
		DocumentURLs  []string `json:"documentUrls" binding:"omitempty,dive,url"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	kyc, err := h.svc.SubmitKYC(c.Request.Context(), middleware.Identity(c), account.KYCSubmission{
		AadhaarNumber: req.AadhaarNumber, PANNumber: req.PANNumber, DocumentURLs: req.DocumentURLs,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "KYC documents submitted for verification", "kyc": kyc})
}

// VerifyKYC records the owner's decision.
func (h *AccountHandler) VerifyKYC(c *gin.Context) {
	var req struct {
		TenantUID  string           `json:"tenantUid" binding:"required"`
		Status     models.KYCStatus `json:"status" binding:"required,oneof=verified rejected"`
		AdminNotes string           `json:"adminNotes"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	kyc, err := h.svc.VerifyKYC(c.Request.Context(), middleware.Identity(c), req.TenantUID, req.Status, req.AdminNotes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "KYC status updated to " + string(kyc.Status), "kyc": kyc})
}
