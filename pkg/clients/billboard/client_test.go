package billboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/rental/internal/config"
	"github.com/mamadbah2/rental/internal/domain/models"
)

func TestSimulatedParityRule(t *testing.T) {
	board := NewSimulated()

	tests := []struct {
		consumer string
		want     models.BillStatus
	}{
		{"1002003004", models.BillPaid},
		{"1002003001", models.BillUnpaid},
		{"100200300A", models.BillUnpaid},
		{"", models.BillUnpaid},
	}
	for _, tt := range tests {
		bill, err := board.FetchBill(context.Background(), tt.consumer, "Maharashtra")
		require.NoError(t, err)
		assert.Equal(t, tt.want, bill.Status, tt.consumer)
		assert.GreaterOrEqual(t, bill.Amount, 500.0)
		assert.Less(t, bill.Amount, 2500.0)
		assert.Equal(t, tt.want == models.BillPaid, bill.LastPaymentDate != nil)
	}
}

func TestSimulatedHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSimulated().FetchBill(ctx, "2", "Goa")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSelectsSimulatedWithoutURL(t *testing.T) {
	assert.IsType(t, &Simulated{}, New(config.ElectricityConfig{}))
	assert.IsType(t, &APIClient{}, New(config.ElectricityConfig{BaseURL: "http://board"}))
}

func TestAPIClientFetchBill(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bills/1002003001", r.URL.Path)
		assert.Equal(t, "Goa", r.URL.Query().Get("state"))
		assert.Equal(t, "key", r.Header.Get("X-API-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"consumerNumber":"1002003001","state":"Goa","billAmount":"812.50","dueDate":"2024-03-15T00:00:00Z","status":"unpaid","lastPaymentDate":null}`))
	}))
	defer srv.Close()

	client := NewAPIClient(config.ElectricityConfig{BaseURL: srv.URL, APIKey: "key", Timeout: time.Second})
	bill, err := client.FetchBill(context.Background(), "1002003001", "Goa")
	require.NoError(t, err)

	assert.Equal(t, models.BillUnpaid, bill.Status)
	assert.Equal(t, 812.5, bill.Amount)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), bill.DueDate)
	assert.Nil(t, bill.LastPaymentDate)
}

func TestAPIClientSurfacesBoardErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"code":"MAINTENANCE","message":"try later"}`))
	}))
	defer srv.Close()

	_, err := NewAPIClient(config.ElectricityConfig{BaseURL: srv.URL}).FetchBill(context.Background(), "1", "Goa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAINTENANCE")
}
