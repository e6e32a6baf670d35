package models

import (
	"fmt"
	"time"
)

const (
	// PeriodLayout is the calendar-month token of a billing period.
	PeriodLayout = "2006-01"
	// DateLayout is the calendar date format accepted by the API.
	DateLayout = "2006-01-02"
)

// RentStatus tracks how much of a rent record has been paid.
type RentStatus string

const (
	RentPending RentStatus = "pending"
	RentPartial RentStatus = "partial"
	RentPaid    RentStatus = "paid"
)

// RentRecord is the rent due for one unit in one billing period.
// At most one record exists per (UnitID, Period).
type RentRecord struct {
	ID          string     `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(64)"`
	PropertyID  string     `json:"propertyId" bson:"property_id" gorm:"index;not null"`
	UnitID      string     `json:"unitId" bson:"unit_id" gorm:"uniqueIndex:idx_rent_unit_period;not null"`
	UnitNumber  string     `json:"unitNumber" bson:"unit_number"`
	TenantID    string     `json:"tenantId" bson:"tenant_id" gorm:"index"`
	Period      string     `json:"month" bson:"period" gorm:"uniqueIndex:idx_rent_unit_period;not null"`
	BaseRent    float64    `json:"baseRent" bson:"base_rent"`
	AmountPaid  float64    `json:"amountPaid" bson:"amount_paid"`
	Status      RentStatus `json:"status" bson:"status"`
	DueDate     time.Time  `json:"dueDate" bson:"due_date"`
	GeneratedAt time.Time  `json:"generatedAt" bson:"generated_at"`

	// AppliedOrders lists the gateway orders already credited to this record.
	AppliedOrders []string `json:"-" bson:"applied_orders,omitempty" gorm:"serializer:json"`
}

// Outstanding returns the unpaid remainder, never negative.
func (r RentRecord) Outstanding() float64 {
	if r.AmountPaid >= r.BaseRent {
		return 0
	}
	return r.BaseRent - r.AmountPaid
}

// StatusFor derives the record status after a payment brings the paid amount to paid.
func StatusFor(paid, base float64) RentStatus {
	switch {
	case paid <= 0:
		return RentPending
	case paid >= base:
		return RentPaid
	default:
		return RentPartial
	}
}

// ParsePeriod validates a YYYY-MM token.
func ParsePeriod(period string) (time.Time, error) {
	t, err := time.Parse(PeriodLayout, period)
	if err != nil {
		return time.Time{}, fmt.Errorf("period %q must be formatted as YYYY-MM", period)
	}
	return t, nil
}

// ParseDate validates a YYYY-MM-DD date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be formatted as YYYY-MM-DD", value)
	}
	return t, nil
}
