// Package billboard reads electricity bills from a state electricity board.
package billboard

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/rental/internal/config"
	"github.com/mamadbah2/rental/internal/domain/models"
)

// Client fetches the current bill of a consumer account.
type Client interface {
	FetchBill(ctx context.Context, consumerNumber, region string) (*models.BillSnapshot, error)
}

// New returns the HTTP client when a board URL is configured and the simulated board otherwise.
func New(cfg config.ElectricityConfig) Client {
	if cfg.BaseURL == "" {
		return NewSimulated()
	}
	return NewAPIClient(cfg)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewAPIClient builds a board client from configuration.
func NewAPIClient(cfg config.ElectricityConfig) *APIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	if cfg.APIKey != "" {
		restyClient.SetHeader("X-API-Key", cfg.APIKey)
	}

	return &APIClient{httpClient: restyClient}
}

type billResponse struct {
	ConsumerNumber  string  `json:"consumerNumber"`
	State           string  `json:"state"`
	BillAmount      float64 `json:"billAmount,string"`
	DueDate         string  `json:"dueDate"`
	Status          string  `json:"status"`
	LastPaymentDate *string `json:"lastPaymentDate"`
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (c *APIClient) FetchBill(ctx context.Context, consumerNumber, region string) (*models.BillSnapshot, error) {
	result := new(billResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("consumer", consumerNumber).
		SetQueryParam("state", region).
		SetResult(result).
		SetError(apiErr).
		Get("/bills/{consumer}")
	if err != nil {
		return nil, fmt.Errorf("fetch electricity bill: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("electricity board error: status=%d, code=%s, message=%s", resp.StatusCode(), apiErr.Code, apiErr.Message)
	}

	return result.snapshot(consumerNumber, region)
}

func (r *billResponse) snapshot(consumerNumber, region string) (*models.BillSnapshot, error) {
	status := models.BillStatus(strings.ToUpper(r.Status))
	if status != models.BillPaid && status != models.BillUnpaid {
		return nil, fmt.Errorf("electricity board returned unknown bill status %q", r.Status)
	}

	bill := &models.BillSnapshot{
		ConsumerNumber: consumerNumber,
		Region:         region,
		Amount:         r.BillAmount,
		Status:         status,
	}
	if r.DueDate != "" {
		due, err := time.Parse(time.RFC3339, r.DueDate)
		if err != nil {
			return nil, fmt.Errorf("parse bill due date: %w", err)
		}
		bill.DueDate = due
	}
	if r.LastPaymentDate != nil && *r.LastPaymentDate != "" {
		paid, err := time.Parse(time.RFC3339, *r.LastPaymentDate)
		if err != nil {
			return nil, fmt.Errorf("parse bill payment date: %w", err)
		}
		bill.LastPaymentDate = &paid
	}
	return bill, nil
}
