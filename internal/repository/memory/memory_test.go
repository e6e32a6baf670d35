package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
)

func TestUnitUpdateIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Units.Create(ctx, &models.Unit{ID: "u1", PropertyID: "p1", Status: models.UnitVacant}))

	_, err := store.Units.Update(ctx, "u1", func(u *models.Unit) error {
		u.Status = models.UnitOccupied
		return apperr.Conflict("nope")
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	unit, err := store.Units.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UnitVacant, unit.Status)
	assert.Zero(t, unit.Version)

	updated, err := store.Units.Update(ctx, "u1", func(u *models.Unit) error {
		u.Status = models.UnitOccupied
		u.TenantID = "t1"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.Version)

	_, err = store.Units.Update(ctx, "missing", func(*models.Unit) error { return nil })
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRentCreateIfAbsentConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := store.Rent.CreateIfAbsent(ctx, &models.RentRecord{
				ID: "r" + string(rune('a'+i)), UnitID: "u1", Period: "2024-03",
			})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	other, err := store.Rent.CreateIfAbsent(ctx, &models.RentRecord{ID: "next", UnitID: "u1", Period: "2024-04"})
	require.NoError(t, err)
	assert.True(t, other)
}

func TestRentApplyPayment(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_, err := store.Rent.CreateIfAbsent(ctx, &models.RentRecord{ID: "r1", UnitID: "u1", Period: "2024-03", BaseRent: 1000, Status: models.RentPending})
	require.NoError(t, err)

	rec, applied, err := store.Rent.ApplyPayment(ctx, "r1", "order_1", 400)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, models.RentPartial, rec.Status)

	rec, applied, err = store.Rent.ApplyPayment(ctx, "r1", "order_1", 400)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 400.0, rec.AmountPaid)

	rec, applied, err = store.Rent.ApplyPayment(ctx, "r1", "order_2", 600)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, models.RentPaid, rec.Status)
	assert.Equal(t, 1000.0, rec.AmountPaid)

	_, _, err = store.Rent.ApplyPayment(ctx, "missing", "order_3", 10)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUsersCreateAndUpsert(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Users.Create(ctx, &models.User{ID: "t1", Role: models.RoleTenant, OwnerID: "o1"}))
	assert.ErrorIs(t, store.Users.Create(ctx, &models.User{ID: "t1"}), apperr.ErrConflict)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := store.Users.Upsert(ctx, "t1", func(u *models.User) error {
				u.Name = "Asha"
				return nil
			})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := store.Users.Update(ctx, "t1", func(u *models.User) error {
				u.FCMToken = "device"
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	u, err := store.Users.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", u.Name)
	assert.Equal(t, "device", u.FCMToken)
	assert.Equal(t, "o1", u.OwnerID)

	fresh, err := store.Users.Upsert(ctx, "o2", func(u *models.User) error {
		u.Role = models.RoleOwner
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "o2", fresh.ID)
	assert.False(t, fresh.CreatedAt.IsZero())
}

func TestPaymentsMarkPaidOnce(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Payments.Create(ctx, &models.Payment{ID: "p1", OrderID: "order_1", Status: models.PaymentCreated}))

	err := store.Payments.Create(ctx, &models.Payment{ID: "p2", OrderID: "order_1"})
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	_, changed, err := store.Payments.MarkPaid(ctx, "order_1", "pay_1")
	require.NoError(t, err)
	assert.True(t, changed)

	p, changed, err := store.Payments.MarkPaid(ctx, "order_1", "pay_2")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "pay_1", p.PaymentID)
}

func TestExpensesFilter(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	for _, e := range []models.Expense{
		{ID: "e1", OwnerID: "o1", PropertyID: "p1", Category: "repair", Date: day(1)},
		{ID: "e2", OwnerID: "o1", PropertyID: "p1", Category: "tax", Date: day(10)},
		{ID: "e3", OwnerID: "o1", PropertyID: "p2", Category: "repair", Date: day(20)},
		{ID: "e4", OwnerID: "o2", PropertyID: "p9", Category: "repair", Date: day(5)},
	} {
		e := e
		require.NoError(t, store.Expenses.Create(ctx, &e))
	}

	from := day(2)
	got, err := store.Expenses.List(ctx, models.ExpenseFilter{OwnerID: "o1", Category: "repair", From: &from})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "e3", got[0].ID)

	all, err := store.Expenses.List(ctx, models.ExpenseFilter{OwnerID: "o1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"e3", "e2", "e1"}, []string{all[0].ID, all[1].ID, all[2].ID})

	require.NoError(t, store.Expenses.Delete(ctx, "e1"))
	assert.ErrorIs(t, store.Expenses.Delete(ctx, "e1"), apperr.ErrNotFound)
}
