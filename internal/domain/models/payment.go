package models

import "time"

// PaymentStatus tracks a gateway order from creation to capture.
type PaymentStatus string

const (
	PaymentCreated PaymentStatus = "created"
	PaymentPaid    PaymentStatus = "paid"
)

// Payment records a gateway order raised by a tenant, optionally against a rent record.
type Payment struct {
	ID           string        `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(64)"`
	OrderID      string        `json:"orderId" bson:"order_id" gorm:"uniqueIndex;not null"`
	PaymentID    string        `json:"paymentId,omitempty" bson:"payment_id,omitempty"`
	TenantID     string        `json:"tenantId" bson:"tenant_id" gorm:"index"`
	UnitID       string        `json:"unitId,omitempty" bson:"unit_id,omitempty"`
	RentRecordID string        `json:"rentRecordId,omitempty" bson:"rent_record_id,omitempty"`
	Amount       float64       `json:"amount" bson:"amount"`
	Currency     string        `json:"currency" bson:"currency"`
	Receipt      string        `json:"receipt,omitempty" bson:"receipt,omitempty"`
	Status       PaymentStatus `json:"status" bson:"status"`
	CreatedAt    time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time     `json:"updatedAt" bson:"updated_at"`
}
