// Package payment creates gateway orders and settles rent once a payment is verified.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/repository"
	"github.com/mamadbah2/rental/internal/service/notify"
	"github.com/mamadbah2/rental/pkg/clients/razorpay"
)

const defaultCurrency = "INR"

// OrderInput is a tenant's request to pay. Amount is in rupees; when RentRecordID is
// set and Amount is zero, the outstanding rent is charged.
type OrderInput struct {
	Amount       float64
	Currency     string
	Receipt      string
	UnitID       string
	RentRecordID string
}

// OrderResult is what the checkout client needs to open the payment sheet.
type OrderResult struct {
	Order   *razorpay.Order `json:"order"`
	Payment *models.Payment `json:"payment"`
}

// VerifyInput carries the checkout callback fields.
type VerifyInput struct {
	OrderID   string
	PaymentID string
	Signature string
}

// VerifyResult reports the settled payment and, when linked, the updated rent record.
type VerifyResult struct {
	Status  string             `json:"status"`
	Payment *models.Payment    `json:"payment"`
	Rent    *models.RentRecord `json:"rentRecord,omitempty"`
}

// Service implements the payment use cases.
type Service struct {
	gateway  razorpay.Client
	payments repository.Payments
	rent     repository.Rent
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the payment service.
func NewService(gateway razorpay.Client, payments repository.Payments, rent repository.Rent, notifier notify.Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gateway: gateway, payments: payments, rent: rent, notifier: notifier, logger: logger, now: time.Now}
}

// CreateOrder opens a gateway order and records it as a created payment.
func (s *Service) CreateOrder(ctx context.Context, caller models.Identity, in OrderInput) (*OrderResult, error) {
	amount := in.Amount
	unitID := in.UnitID

	if in.RentRecordID != "" {
		record, err := s.rent.GetByID(ctx, in.RentRecordID)
		if err != nil {
			return nil, err
		}
		if record.TenantID != caller.UID {
			return nil, apperr.Forbidden("rent record %s belongs to another tenant", in.RentRecordID)
		}
		if record.Status == models.RentPaid {
			return nil, apperr.Conflict("rent record %s is already paid", in.RentRecordID)
		}
		if amount == 0 {
			amount = record.Outstanding()
		}
		if unitID == "" {
			unitID = record.UnitID
		}
	}
	if amount <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}

	currency := in.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	receipt := in.Receipt
	if receipt == "" {
		receipt = "rcpt_" + uuid.NewString()[:8]
	}

	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Notes:    map[string]string{"tenantId": caller.UID, "rentRecordId": in.RentRecordID},
	})
	if err != nil {
		s.logger.Error("gateway order failed", zap.String("tenant_id", caller.UID), zap.Error(err))
		return nil, apperr.Upstream("payment gateway unavailable", err)
	}

	now := s.now().UTC()
	payment := &models.Payment{
		ID:           uuid.NewString(),
		OrderID:      order.ID,
		TenantID:     caller.UID,
		UnitID:       unitID,
		RentRecordID: in.RentRecordID,
		Amount:       amount,
		Currency:     currency,
		Receipt:      receipt,
		Status:       models.PaymentCreated,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	s.logger.Info("payment order created",
		zap.String("order_id", order.ID),
		zap.String("tenant_id", caller.UID),
		zap.Float64("amount", amount))
	return &OrderResult{Order: order, Payment: payment}, nil
}

// Verify checks the checkout signature and settles the payment.
//
// A replayed verification succeeds without applying the amount a second time, and
// finishes crediting the rent record if an earlier attempt stopped after settling.
func (s *Service) Verify(ctx context.Context, in VerifyInput) (*VerifyResult, error) {
	if in.OrderID == "" || in.PaymentID == "" || in.Signature == "" {
		return nil, apperr.Validation("razorpay_order_id, razorpay_payment_id and razorpay_signature are required")
	}
	if !s.gateway.VerifySignature(in.OrderID, in.PaymentID, in.Signature) {
		s.logger.Warn("payment signature mismatch", zap.String("order_id", in.OrderID))
		return nil, apperr.Denied("invalid signature", map[string]string{"status": "failure"})
	}

	payment, changed, err := s.payments.MarkPaid(ctx, in.OrderID, in.PaymentID)
	if err != nil {
		return nil, err
	}
	result := &VerifyResult{Status: "success", Payment: payment}

	applied := false
	if payment.RentRecordID != "" {
		record, ok, err := s.rent.ApplyPayment(ctx, payment.RentRecordID, payment.OrderID, payment.Amount)
		if err != nil {
			return nil, fmt.Errorf("apply payment to rent record %s: %w", payment.RentRecordID, err)
		}
		result.Rent = record
		applied = ok
	}
	if !changed && !applied {
		return result, nil
	}

	s.logger.Info("payment verified", zap.String("order_id", in.OrderID), zap.String("payment_id", in.PaymentID))
	s.notifier.NotifyUser(ctx, payment.TenantID, models.Notification{
		Title: "Payment received",
		Body:  fmt.Sprintf("We received your payment of ₹%.2f.", payment.Amount),
		Data:  map[string]string{"type": "payment", "orderId": payment.OrderID},
	})
	return result, nil
}
