package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/rental/internal/config"
)

func TestVerifySignature(t *testing.T) {
	valid := Sign("s", "o1", "p1")

	assert.Len(t, valid, 64)
	assert.True(t, VerifySignature("s", "o1", "p1", valid))
	assert.False(t, VerifySignature("s", "o1", "p2", valid))
	assert.False(t, VerifySignature("other", "o1", "p1", valid))
	assert.False(t, VerifySignature("s", "o1", "p1", strings.ToUpper(valid)))
	assert.False(t, VerifySignature("s", "o1", "p1", ""))
}

func TestToPaise(t *testing.T) {
	assert.Equal(t, int64(1050), ToPaise(10.5))
	assert.Equal(t, int64(1999), ToPaise(19.99))
	assert.Equal(t, int64(0), ToPaise(0))
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test", user)
		assert.Equal(t, "secret", pass)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 1250050, body["amount"])
		assert.Equal(t, "INR", body["currency"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_9","entity":"order","amount":1250050,"currency":"INR","receipt":"rcpt_1","status":"created"}`))
	}))
	defer srv.Close()

	client := NewClient(config.RazorpayConfig{KeyID: "rzp_test", KeySecret: "secret", BaseURL: srv.URL})
	order, err := client.CreateOrder(context.Background(), OrderRequest{Amount: 12500.50, Receipt: "rcpt_1"})
	require.NoError(t, err)
	assert.Equal(t, "order_9", order.ID)
	assert.Equal(t, int64(1250050), order.Amount)
}

func TestCreateOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer srv.Close()

	client := NewClient(config.RazorpayConfig{KeyID: "k", KeySecret: "s", BaseURL: srv.URL})
	_, err := client.CreateOrder(context.Background(), OrderRequest{Amount: 0.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount too small")
}
