package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/metrics"
	"github.com/mamadbah2/rental/internal/repository"
	"github.com/mamadbah2/rental/internal/repository/memory"
	"github.com/mamadbah2/rental/internal/service/access"
)

var owner = models.Identity{UID: "owner", Role: models.RoleOwner}

func seed(t *testing.T) *repository.Store {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Properties.Create(context.Background(), &models.Property{ID: "p1", OwnerID: "owner"}, []models.Unit{
		{ID: "u1", PropertyID: "p1", UnitNumber: "101", RentAmount: 10000, Status: models.UnitOccupied, TenantID: "t1"},
		{ID: "u2", PropertyID: "p1", UnitNumber: "102", RentAmount: 12000, Status: models.UnitOccupied, TenantID: "t2"},
		{ID: "u3", PropertyID: "p1", UnitNumber: "103", RentAmount: 9000, Status: models.UnitOccupied, TenantID: "t3"},
		{ID: "u4", PropertyID: "p1", UnitNumber: "104", RentAmount: 8000, Status: models.UnitVacant},
	}))
	return store
}

func newService(store *repository.Store, rent repository.Rent, exporter Exporter, m *metrics.Metrics) *Service {
	guard := access.NewGuard(store.Users, store.Properties, store.Units)
	if rent == nil {
		rent = store.Rent
	}
	return NewService(guard, store.Properties, store.Units, rent, exporter, m, nil)
}

type recordingExporter struct {
	mu      sync.Mutex
	batches [][]models.RentRecord
	err     error
}

func (e *recordingExporter) ExportRentRecords(_ context.Context, records []models.RentRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batches = append(e.batches, records)
	return e.err
}

func TestGenerateIsIdempotent(t *testing.T) {
	store := seed(t)
	m := metrics.New()
	exporter := &recordingExporter{}
	svc := newService(store, nil, exporter, m)
	ctx := context.Background()

	res, err := svc.GenerateForPeriod(ctx, owner, "p1", "2024-03", "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)
	assert.Zero(t, res.Skipped)
	assert.Empty(t, res.Failed)

	res, err = svc.GenerateForPeriod(ctx, owner, "p1", "2024-03", "2024-03-10")
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Equal(t, 3, res.Skipped)

	records, err := store.Rent.ListByProperties(ctx, []string{"p1"})
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, models.RentPending, r.Status)
		assert.Zero(t, r.AmountPaid)
		assert.Equal(t, "2024-03", r.Period)
		assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), r.DueDate)
		assert.NotEqual(t, "u4", r.UnitID)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RentRecordsCreated))
	svc.Wait()
	require.Len(t, exporter.batches, 1)
	assert.Len(t, exporter.batches[0], 3)
}

// blockingExporter holds every export until release is closed.
type blockingExporter struct {
	release  chan struct{}
	ctxErr   error
	deadline bool
	done     int
}

func (e *blockingExporter) ExportRentRecords(ctx context.Context, _ []models.RentRecord) error {
	<-e.release
	e.ctxErr = ctx.Err()
	_, e.deadline = ctx.Deadline()
	e.done++
	return nil
}

func TestExportDoesNotBlockGeneration(t *testing.T) {
	store := seed(t)
	exporter := &blockingExporter{release: make(chan struct{})}
	svc := newService(store, nil, exporter, nil)

	ctx, cancel := context.WithCancel(context.Background())
	res, err := svc.GenerateForPeriod(ctx, owner, "p1", "2024-03", "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)
	cancel()

	close(exporter.release)
	svc.Wait()
	assert.Equal(t, 1, exporter.done)
	assert.NoError(t, exporter.ctxErr)
	assert.True(t, exporter.deadline)
}

func TestBaseRentComesFromUnit(t *testing.T) {
	store := seed(t)
	svc := newService(store, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.GenerateForPeriod(ctx, owner, "p1", "2024-04", "2024-04-10")
	require.NoError(t, err)

	records, err := store.Rent.ListByTenant(ctx, "t2")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 12000.0, records[0].BaseRent)
	assert.Equal(t, "102", records[0].UnitNumber)
}

func TestConcurrentGenerationCreatesOneRecordPerUnit(t *testing.T) {
	store := seed(t)
	svc := newService(store, nil, nil, nil)
	ctx := context.Background()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.GenerateForPeriod(ctx, owner, "p1", "2024-05", "2024-05-10")
			if assert.NoError(t, err) {
				mu.Lock()
				total += res.Created
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, total)
	records, err := store.Rent.ListByProperties(ctx, []string{"p1"})
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

type flakyRent struct {
	repository.Rent
	failUnit string
}

func (f flakyRent) CreateIfAbsent(ctx context.Context, record *models.RentRecord) (bool, error) {
	if record.UnitID == f.failUnit {
		return false, errors.New("write timeout")
	}
	return f.Rent.CreateIfAbsent(ctx, record)
}

func TestOneUnitFailureDoesNotAbortOthers(t *testing.T) {
	store := seed(t)
	exporter := &recordingExporter{err: errors.New("sheets quota")}
	svc := newService(store, flakyRent{Rent: store.Rent, failUnit: "u2"}, exporter, nil)

	res, err := svc.GenerateForPeriod(context.Background(), owner, "p1", "2024-03", "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "u2", res.Failed[0].UnitID)

	svc.Wait()
	require.Len(t, exporter.batches, 1)
	assert.Len(t, exporter.batches[0], 2)
}

func TestGenerateRejectsCallerAndInput(t *testing.T) {
	store := seed(t)
	svc := newService(store, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.GenerateForPeriod(ctx, models.Identity{UID: "intruder", Role: models.RoleOwner}, "p1", "2024-03", "2024-03-10")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.GenerateForPeriod(ctx, owner, "p1", "March 2024", "2024-03-10")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.GenerateForPeriod(ctx, owner, "p1", "2024-03", "10/03/2024")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	records, err := store.Rent.ListByProperties(ctx, []string{"p1"})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGenerateAllAndOwnerRecords(t *testing.T) {
	store := seed(t)
	svc := newService(store, nil, nil, nil)
	ctx := context.Background()

	period, due := PeriodFor(time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC), 10)
	assert.Equal(t, "2024-06", period)

	results, err := svc.GenerateAll(ctx, period, due)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].Created)

	records, err := svc.OwnerRecords(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	none, err := svc.OwnerRecords(ctx, models.Identity{UID: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
