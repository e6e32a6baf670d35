package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
)

const rentOrder = "due_date DESC, unit_number ASC"

// Rent implements repository.Rent. The idx_rent_unit_period index arbitrates concurrent inserts.
type Rent struct {
	db *gorm.DB
}

func (r *Rent) CreateIfAbsent(ctx context.Context, record *models.RentRecord) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "unit_id"}, {Name: "period"}},
			DoNothing: true,
		}).
		Create(record)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert rent record: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *Rent) GetByID(ctx context.Context, id string) (*models.RentRecord, error) {
	return first[models.RentRecord](ctx, r.db, "rent record", id)
}

func (r *Rent) ListByTenant(ctx context.Context, tenantID string) ([]models.RentRecord, error) {
	var out []models.RentRecord
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order(rentOrder).Find(&out).Error
	return out, err
}

func (r *Rent) ListByProperties(ctx context.Context, propertyIDs []string) ([]models.RentRecord, error) {
	if len(propertyIDs) == 0 {
		return nil, nil
	}
	var out []models.RentRecord
	err := r.db.WithContext(ctx).Where("property_id IN ?", propertyIDs).Order(rentOrder).Find(&out).Error
	return out, err
}

// ApplyPayment credits amount for orderID under a row lock. An order already
// credited leaves the record unchanged.
func (r *Rent) ApplyPayment(ctx context.Context, id, orderID string, amount float64) (*models.RentRecord, bool, error) {
	var (
		rec     models.RentRecord
		applied bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&rec).Error; err != nil {
			return notFound(err, "rent record", id)
		}
		if slices.Contains(rec.AppliedOrders, orderID) {
			return nil
		}
		rec.AmountPaid += amount
		rec.Status = models.StatusFor(rec.AmountPaid, rec.BaseRent)
		rec.AppliedOrders = append(rec.AppliedOrders, orderID)
		if err := tx.Model(&rec).Select("amount_paid", "status", "applied_orders").Updates(&rec).Error; err != nil {
			return fmt.Errorf("failed to apply payment to %s: %w", id, err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &rec, applied, nil
}

// Payments implements repository.Payments.
type Payments struct {
	db *gorm.DB
}

func (r *Payments) Create(ctx context.Context, payment *models.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("order %s already recorded", payment.OrderID)
		}
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (r *Payments) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var out models.Payment
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&out).Error; err != nil {
		return nil, notFound(err, "order", orderID)
	}
	return &out, nil
}

func (r *Payments) MarkPaid(ctx context.Context, orderID, paymentID string) (*models.Payment, bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("order_id = ? AND status <> ?", orderID, models.PaymentPaid).
		Updates(map[string]any{
			"status":     models.PaymentPaid,
			"payment_id": paymentID,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to mark order %s paid: %w", orderID, res.Error)
	}

	payment, err := r.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	return payment, res.RowsAffected == 1, nil
}
