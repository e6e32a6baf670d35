// Package sheets mirrors the rent ledger into a Google Sheets spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/rental/internal/config"
	"github.com/mamadbah2/rental/internal/domain/models"
)

// LedgerExporter appends generated rent records to a sheet range.
type LedgerExporter struct {
	service       *sheetsapi.Service
	spreadsheetID string
	ledgerRange   string
	logger        *zap.Logger
}

// NewLedgerExporter builds an exporter authenticated with the configured service account.
func NewLedgerExporter(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*LedgerExporter, error) {
	return NewLedgerExporterWithOptions(ctx, cfg, logger,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
}

// NewLedgerExporterWithOptions builds an exporter with explicit client options.
func NewLedgerExporterWithOptions(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger, opts ...option.ClientOption) (*LedgerExporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SpreadsheetID == "" || cfg.LedgerRange == "" {
		return nil, errors.New("spreadsheet id and ledger range must be provided")
	}

	service, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &LedgerExporter{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		ledgerRange:   cfg.LedgerRange,
		logger:        logger,
	}, nil
}

// ExportRentRecords appends one row per record in a single call.
func (e *LedgerExporter) ExportRentRecords(ctx context.Context, records []models.RentRecord) error {
	if len(records) == 0 {
		return nil
	}

	payload := &sheetsapi.ValueRange{Values: make([][]interface{}, 0, len(records))}
	for _, r := range records {
		payload.Values = append(payload.Values, ledgerRow(r))
	}

	call := e.service.Spreadsheets.Values.Append(e.spreadsheetID, e.ledgerRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append rent rows into range %s: %w", e.ledgerRange, err)
	}

	e.logger.Debug("rent rows appended to sheet",
		zap.String("range", e.ledgerRange),
		zap.Int("rows", len(records)),
	)
	return nil
}

func ledgerRow(r models.RentRecord) []interface{} {
	return []interface{}{
		r.Period,
		r.PropertyID,
		r.UnitID,
		r.UnitNumber,
		r.TenantID,
		r.BaseRent,
		r.AmountPaid,
		string(r.Status),
		r.DueDate.Format(time.DateOnly),
	}
}
