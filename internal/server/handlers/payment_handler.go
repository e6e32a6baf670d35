package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/server/middleware"
	"github.com/mamadbah2/rental/internal/service/payment"
)

// PaymentHandler serves gateway checkout.
type PaymentHandler struct {
	svc    *payment.Service
	logger *zap.Logger
}

// NewPaymentHandler constructs the HTTP handler adapter.
func NewPaymentHandler(svc *payment.Service, logger *zap.Logger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{svc: svc, logger: logger}
}

// CreateOrder opens a gateway order for the caller.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req struct {
		Amount       float64 `json:"amount" binding:"gte=0"`
		Currency     string  `json:"currency"`
		Receipt      string  `json:"receipt"`
		UnitID       string  `json:"unitId"`
		RentRecordID string  `json:"rentRecordId"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	res, err := h.svc.CreateOrder(c.Request.Context(), middleware.Identity(c), payment.OrderInput{
		Amount:       req.Amount,
		Currency:     req.Currency,
		Receipt:      req.Receipt,
		UnitID:       req.UnitID,
		RentRecordID: req.RentRecordID,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Verify settles a checkout callback.
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req struct {
		OrderID   string `json:"razorpay_order_id" binding:"required"`
		PaymentID string `json:"razorpay_payment_id" binding:"required"`
		Signature string `json:"razorpay_signature" binding:"required"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	res, err := h.svc.Verify(c.Request.Context(), payment.VerifyInput{
		OrderID: req.OrderID, PaymentID: req.PaymentID, Signature: req.Signature,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
