package property

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/repository"
	"github.com/mamadbah2/rental/internal/repository/memory"
	"github.com/mamadbah2/rental/internal/service/access"
	"github.com/mamadbah2/rental/internal/service/notify"
	"github.com/mamadbah2/rental/internal/service/occupancy"
)

var owner = models.Identity{UID: "owner", Role: models.RoleOwner}

type fakeDispatcher struct {
	mu        sync.Mutex
	notified  []string
	broadcast []models.User
}

func (f *fakeDispatcher) NotifyUser(_ context.Context, userID string, n models.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, userID+":"+n.Title)
}

func (f *fakeDispatcher) Broadcast(_ context.Context, recipients []models.User, _ models.Notification) notify.BroadcastResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcast = append(f.broadcast, recipients...)
	return notify.BroadcastResult{SuccessCount: len(recipients)}
}

func setup(t *testing.T) (*Service, *repository.Store, *fakeDispatcher) {
	t.Helper()
	store := memory.NewStore()
	guard := access.NewGuard(store.Users, store.Properties, store.Units)
	dispatcher := &fakeDispatcher{}
	svc := NewService(guard, store, occupancy.NewService(store.Units, nil, nil), dispatcher, nil)
	ctx := context.Background()
	for _, u := range []models.User{
		{ID: "t1", Role: models.RoleTenant, FCMToken: "tok1"},
		{ID: "t2", Role: models.RoleTenant, Phone: "999"},
		{ID: "o2", Role: models.RoleOwner},
		{ID: "staff", Role: models.RoleStaff, OwnerID: "owner"},
	} {
		u := u
		require.NoError(t, store.Users.Create(ctx, &u))
	}
	return svc, store, dispatcher
}

func createProperty(t *testing.T, svc *Service) *models.Property {
	t.Helper()
	p, err := svc.Create(context.Background(), owner, CreateInput{
		Name:    "Sunrise Apartments",
		Address: "MG Road",
		Structure: models.PropertyStructure{Floors: []models.FloorSpec{
			{Units: []models.UnitSpec{{UnitNumber: "G1", RentAmount: 9000}, {RentAmount: 9500}}},
			{Units: []models.UnitSpec{{UnitNumber: "101", RentAmount: 12000}}},
		}},
	})
	require.NoError(t, err)
	return p
}

func TestCreateBuildsUnitsFromStructure(t *testing.T) {
	svc, _, _ := setup(t)
	p := createProperty(t, svc)

	require.Len(t, p.Units, 3)
	assert.Equal(t, "Unit 2", p.Units[1].UnitNumber)
	assert.Equal(t, 1, p.Units[2].FloorNumber)
	for _, u := range p.Units {
		assert.Equal(t, models.UnitVacant, u.Status)
		assert.True(t, u.ElectricityEnabled)
	}

	owned, err := svc.ListOwned(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Len(t, owned[0].Units, 3)

	_, err = svc.Create(context.Background(), owner, CreateInput{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAddUnitRequiresOwnership(t *testing.T) {
	svc, _, _ := setup(t)
	p := createProperty(t, svc)
	ctx := context.Background()

	unit, err := svc.AddUnit(ctx, owner, UnitInput{PropertyID: p.ID, FloorNumber: 2, UnitNumber: "201", RentAmount: 15000})
	require.NoError(t, err)
	assert.Equal(t, models.UnitVacant, unit.Status)

	_, err = svc.AddUnit(ctx, models.Identity{UID: "o2", Role: models.RoleOwner}, UnitInput{PropertyID: p.ID, UnitNumber: "202"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	units, err := svc.ListUnits(ctx, models.Identity{UID: "staff", Role: models.RoleStaff}, p.ID)
	require.NoError(t, err)
	assert.Len(t, units, 4)
}

func TestUpdateUnitStatusBackfillsAndNotifies(t *testing.T) {
	svc, store, dispatcher := setup(t)
	p := createProperty(t, svc)
	ctx := context.Background()
	unitID := p.Units[2].ID

	unit, err := svc.UpdateUnitStatus(ctx, owner, unitID, models.UnitOccupied, "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", unit.TenantID)

	tenant, err := store.Users.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, tenant.PropertyID)
	assert.Equal(t, unitID, tenant.UnitID)

	_, err = svc.UpdateUnitStatus(ctx, owner, unitID, models.UnitOccupied, "t1")
	require.NoError(t, err)

	_, err = svc.UpdateUnitStatus(ctx, models.Identity{UID: "staff", Role: models.RoleStaff}, unitID, models.UnitVacant, "")
	require.NoError(t, err)

	tenant, err = store.Users.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, tenant.UnitID)

	assert.Equal(t, []string{"t1:Welcome home", "t1:Unit status updated"}, dispatcher.notified)
}

func TestUpdateUnitStatusRejections(t *testing.T) {
	svc, _, _ := setup(t)
	p := createProperty(t, svc)
	ctx := context.Background()
	unitID := p.Units[0].ID

	_, err := svc.UpdateUnitStatus(ctx, owner, unitID, models.UnitOccupied, "o2")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.UpdateUnitStatus(ctx, owner, unitID, models.UnitOccupied, "ghost")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.UpdateUnitStatus(ctx, models.Identity{UID: "o2", Role: models.RoleOwner}, unitID, models.UnitVacant, "")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.UpdateUnitStatus(ctx, owner, "missing", models.UnitVacant, "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.UpdateUnitStatus(ctx, owner, unitID, models.UnitOccupied, "t1")
	require.NoError(t, err)
	_, err = svc.UpdateUnitStatus(ctx, owner, unitID, models.UnitOccupied, "t2")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestBroadcastReachesPlacedTenants(t *testing.T) {
	svc, _, dispatcher := setup(t)
	p := createProperty(t, svc)
	ctx := context.Background()

	_, err := svc.UpdateUnitStatus(ctx, owner, p.Units[0].ID, models.UnitOccupied, "t1")
	require.NoError(t, err)
	_, err = svc.UpdateUnitStatus(ctx, owner, p.Units[1].ID, models.UnitOccupied, "t2")
	require.NoError(t, err)

	res, err := svc.Broadcast(ctx, owner, p.ID, "Water cut", "Tomorrow 10am")
	require.NoError(t, err)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Len(t, dispatcher.broadcast, 2)

	_, err = svc.Broadcast(ctx, models.Identity{UID: "o2"}, p.ID, "x", "y")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.Broadcast(ctx, owner, p.ID, "", "y")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
