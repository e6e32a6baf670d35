package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/repository/memory"
	"github.com/mamadbah2/rental/internal/service/access"
)

func TestSummary(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Properties.Create(ctx, &models.Property{ID: "p1", OwnerID: "owner"}, []models.Unit{
		{ID: "u1", PropertyID: "p1", RentAmount: 10000, Status: models.UnitOccupied, TenantID: "t1"},
		{ID: "u2", PropertyID: "p1", RentAmount: 12000, Status: models.UnitOccupied, TenantID: "t2"},
		{ID: "u3", PropertyID: "p1", RentAmount: 9000, Status: models.UnitVacant},
	}))
	for _, r := range []models.RentRecord{
		{ID: "r1", PropertyID: "p1", UnitID: "u1", Period: "2024-03", BaseRent: 10000, AmountPaid: 10000, Status: models.RentPaid},
		{ID: "r2", PropertyID: "p1", UnitID: "u2", Period: "2024-03", BaseRent: 12000, AmountPaid: 2000, Status: models.RentPartial},
		{ID: "r3", PropertyID: "p1", UnitID: "u1", Period: "2024-04", BaseRent: 10000, Status: models.RentPending},
	} {
		r := r
		_, err := store.Rent.CreateIfAbsent(ctx, &r)
		require.NoError(t, err)
	}
	require.NoError(t, store.Expenses.Create(ctx, &models.Expense{ID: "e1", OwnerID: "owner", PropertyID: "p1", Amount: 1500, Date: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)}))
	require.NoError(t, store.Expenses.Create(ctx, &models.Expense{ID: "e2", OwnerID: "owner", PropertyID: "p1", Amount: 700, Date: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)}))

	svc := NewService(access.NewGuard(store.Users, store.Properties, store.Units), store, nil)
	owner := models.Identity{UID: "owner", Role: models.RoleOwner}

	all, err := svc.Summary(ctx, owner, "")
	require.NoError(t, err)
	assert.Equal(t, 22000.0, all.TotalRevenue)
	assert.Equal(t, 66.67, all.OccupancyRate)
	assert.Equal(t, 20000.0, all.PendingRent)
	assert.Equal(t, 12000.0, all.CollectedRent)
	assert.Equal(t, 2200.0, all.TotalExpenses)
	assert.Equal(t, 9800.0, all.NetIncome)
	assert.Equal(t, UnitStats{TotalUnits: 3, OccupiedUnits: 2, VacantUnits: 1}, all.Stats)

	march, err := svc.Summary(ctx, owner, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, 10000.0, march.PendingRent)
	assert.Equal(t, 1500.0, march.TotalExpenses)
	assert.Contains(t, Digest(march), "66.67%")

	_, err = svc.Summary(ctx, owner, "03-2024")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	empty, err := svc.Summary(ctx, models.Identity{UID: "new-owner"}, "")
	require.NoError(t, err)
	assert.Equal(t, "No units registered yet.", Digest(empty))
}
