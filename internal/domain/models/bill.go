package models

import "time"

// BillStatus is the payment status reported by the electricity board.
type BillStatus string

const (
	BillPaid   BillStatus = "PAID"
	BillUnpaid BillStatus = "UNPAID"
)

// BillSnapshot is a point-in-time read of a consumer account at the electricity board.
// It is never stored on its own; units keep only the status and check time.
type BillSnapshot struct {
	ConsumerNumber  string     `json:"consumerNumber"`
	Region          string     `json:"state"`
	Amount          float64    `json:"billAmount"`
	DueDate         time.Time  `json:"dueDate"`
	Status          BillStatus `json:"status"`
	LastPaymentDate *time.Time `json:"lastPaymentDate"`
}

// Paid reports whether the bill is settled.
func (b BillSnapshot) Paid() bool { return b.Status == BillPaid }
