// Package ledger generates and reads monthly rent records.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/metrics"
	"github.com/mamadbah2/rental/internal/repository"
	"github.com/mamadbah2/rental/internal/service/access"
)

// exportTimeout bounds one background export.
const exportTimeout = time.Minute

// Exporter mirrors newly created records somewhere outside the store.
type Exporter interface {
	ExportRentRecords(ctx context.Context, records []models.RentRecord) error
}

// Failure names a unit whose record could not be written.
type Failure struct {
	UnitID string `json:"unitId"`
	Error  string `json:"error"`
}

// Result summarises one generation run for a property.
type Result struct {
	PropertyID string    `json:"propertyId"`
	Period     string    `json:"month"`
	Created    int       `json:"created"`
	Skipped    int       `json:"skipped"`
	Failed     []Failure `json:"failed"`
}

// Service is the rent ledger generator.
type Service struct {
	guard      *access.Guard
	properties repository.Properties
	units      repository.Units
	rent       repository.Rent
	exporter   Exporter
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
	wg         sync.WaitGroup
}

// NewService wires the generator. exporter may be nil.
func NewService(guard *access.Guard, properties repository.Properties, units repository.Units, rent repository.Rent, exporter Exporter, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		guard:      guard,
		properties: properties,
		units:      units,
		rent:       rent,
		exporter:   exporter,
		metrics:    metrics.OrNew(m),
		logger:     logger,
		now:        time.Now,
	}
}

// GenerateForPeriod creates one pending record per occupied unit of propertyID for period.
//
// Units that already have a record for period are skipped, so the call is safe to
// repeat and to run concurrently. A failing unit is reported in Result.Failed and
// does not stop the others.
func (s *Service) GenerateForPeriod(ctx context.Context, caller models.Identity, propertyID, period, dueDate string) (*Result, error) {
	if propertyID == "" {
		return nil, apperr.Validation("propertyId is required")
	}
	if _, err := models.ParsePeriod(period); err != nil {
		return nil, apperr.Validation("%v", err)
	}
	due, err := models.ParseDate(dueDate)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}

	if _, err := s.guard.OwnedProperty(ctx, caller, propertyID); err != nil {
		return nil, err
	}

	return s.generate(ctx, propertyID, period, due)
}

// GenerateAll runs generation for every property. Used by the scheduler.
func (s *Service) GenerateAll(ctx context.Context, period string, due time.Time) ([]Result, error) {
	properties, err := s.properties.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}

	results := make([]Result, 0, len(properties))
	for _, p := range properties {
		res, err := s.generate(ctx, p.ID, period, due)
		if err != nil {
			s.logger.Error("rent generation failed for property", zap.String("property_id", p.ID), zap.Error(err))
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

func (s *Service) generate(ctx context.Context, propertyID, period string, due time.Time) (*Result, error) {
	units, err := s.units.ListByProperty(ctx, propertyID, models.UnitOccupied)
	if err != nil {
		return nil, fmt.Errorf("list occupied units: %w", err)
	}

	result := &Result{PropertyID: propertyID, Period: period, Failed: []Failure{}}
	created := make([]models.RentRecord, 0, len(units))
	generatedAt := s.now().UTC()

	for _, unit := range units {
		record := models.RentRecord{
			ID:          uuid.NewString(),
			PropertyID:  propertyID,
			UnitID:      unit.ID,
			UnitNumber:  unit.UnitNumber,
			TenantID:    unit.TenantID,
			Period:      period,
			BaseRent:    unit.RentAmount,
			AmountPaid:  0,
			Status:      models.RentPending,
			DueDate:     due,
			GeneratedAt: generatedAt,
		}

		ok, err := s.rent.CreateIfAbsent(ctx, &record)
		switch {
		case err != nil:
			s.logger.Warn("rent record not created",
				zap.String("unit_id", unit.ID),
				zap.String("period", period),
				zap.Error(err))
			result.Failed = append(result.Failed, Failure{UnitID: unit.ID, Error: err.Error()})
		case ok:
			result.Created++
			created = append(created, record)
		default:
			result.Skipped++
		}
	}

	s.metrics.RentRecordsCreated.Add(float64(result.Created))
	s.logger.Info("rent ledger generated",
		zap.String("property_id", propertyID),
		zap.String("period", period),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", len(result.Failed)))

	s.export(ctx, created)
	return result, nil
}

// export mirrors records in the background so generation never waits on the exporter.
func (s *Service) export(ctx context.Context, records []models.RentRecord) {
	if s.exporter == nil || len(records) == 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		exportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), exportTimeout)
		defer cancel()
		if err := s.exporter.ExportRentRecords(exportCtx, records); err != nil {
			s.logger.Warn("rent ledger export failed", zap.Int("records", len(records)), zap.Error(err))
		}
	}()
}

// Wait blocks until every background export has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// TenantRecords lists the caller's own rent records, newest due date first.
func (s *Service) TenantRecords(ctx context.Context, caller models.Identity) ([]models.RentRecord, error) {
	records, err := s.rent.ListByTenant(ctx, caller.UID)
	if err != nil {
		return nil, fmt.Errorf("list tenant rent: %w", err)
	}
	return nonNil(records), nil
}

// OwnerRecords lists rent records across every property the caller owns.
func (s *Service) OwnerRecords(ctx context.Context, caller models.Identity) ([]models.RentRecord, error) {
	ids, err := s.guard.OwnedPropertyIDs(ctx, caller)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.RentRecord{}, nil
	}
	records, err := s.rent.ListByProperties(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list owner rent: %w", err)
	}
	return nonNil(records), nil
}

func nonNil(records []models.RentRecord) []models.RentRecord {
	if records == nil {
		return []models.RentRecord{}
	}
	return records
}

// PeriodFor returns the billing period containing t and its due date on dueDay.
func PeriodFor(t time.Time, dueDay int) (string, time.Time) {
	due := time.Date(t.Year(), t.Month(), dueDay, 0, 0, 0, 0, time.UTC)
	return t.Format(models.PeriodLayout), due
}
