package billboard

import (
	"context"
	"hash/fnv"
	"math"
	"time"

	"github.com/mamadbah2/rental/internal/domain/models"
)

// Simulated answers deterministically without a network call: consumer numbers ending
// in an even digit are PAID, everything else is UNPAID.
type Simulated struct {
	now func() time.Time
}

// NewSimulated returns the offline board.
func NewSimulated() *Simulated {
	return &Simulated{now: time.Now}
}

func (s *Simulated) FetchBill(ctx context.Context, consumerNumber, region string) (*models.BillSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	bill := &models.BillSnapshot{
		ConsumerNumber: consumerNumber,
		Region:         region,
		Amount:         simulatedAmount(consumerNumber),
		DueDate:        now.Add(5 * 24 * time.Hour),
		Status:         models.BillUnpaid,
	}
	if endsInEvenDigit(consumerNumber) {
		bill.Status = models.BillPaid
		bill.LastPaymentDate = &now
	}
	return bill, nil
}

func endsInEvenDigit(consumerNumber string) bool {
	if consumerNumber == "" {
		return false
	}
	last := consumerNumber[len(consumerNumber)-1]
	return last >= '0' && last <= '9' && (last-'0')%2 == 0
}

// simulatedAmount maps a consumer number onto 500.00-2499.99.
func simulatedAmount(consumerNumber string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(consumerNumber))
	cents := 50000 + int(h.Sum32()%200000)
	return math.Round(float64(cents)) / 100
}
